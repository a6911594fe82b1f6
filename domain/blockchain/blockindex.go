package blockchain

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// blockIndex holds every known block node together with the active chain.
// It is guarded by the chain lock.
type blockIndex struct {
	nodes map[chainhash.Hash]*BlockNode

	// active holds the nodes of the active chain indexed by height.
	active []*BlockNode
}

func newBlockIndex() *blockIndex {
	return &blockIndex{nodes: make(map[chainhash.Hash]*BlockNode)}
}

func (bi *blockIndex) addNode(node *BlockNode) {
	bi.nodes[node.hash] = node
}

func (bi *blockIndex) lookupNode(hash *chainhash.Hash) *BlockNode {
	return bi.nodes[*hash]
}

func (bi *blockIndex) tip() *BlockNode {
	if len(bi.active) == 0 {
		return nil
	}
	return bi.active[len(bi.active)-1]
}

func (bi *blockIndex) nodeByHeight(height int32) *BlockNode {
	if height < 0 || int(height) >= len(bi.active) {
		return nil
	}
	return bi.active[height]
}

func (bi *blockIndex) contains(node *BlockNode) bool {
	return node != nil && bi.nodeByHeight(node.height) == node
}

// setTip makes node the tip of the active chain, rebuilding the height
// index along node's ancestors.
func (bi *blockIndex) setTip(node *BlockNode) {
	if node == nil {
		bi.active = nil
		return
	}
	needed := int(node.height) + 1
	if cap(bi.active) < needed {
		grown := make([]*BlockNode, len(bi.active), needed+needed/8)
		copy(grown, bi.active)
		bi.active = grown
	}
	bi.active = bi.active[:needed]
	for n := node; n != nil && bi.active[n.height] != n; n = n.parent {
		bi.active[n.height] = n
	}
}

// children returns the nodes whose parent is node.
func (bi *blockIndex) children(node *BlockNode) []*BlockNode {
	var children []*BlockNode
	for _, candidate := range bi.nodes {
		if candidate.parent == node {
			children = append(children, candidate)
		}
	}
	return children
}
