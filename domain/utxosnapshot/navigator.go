package utxosnapshot

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/chainsnap/chainsnapd/domain/blockchain"
	"github.com/chainsnap/chainsnapd/domain/chainconfig"
)

const (
	// TypeLatest selects the current tip.
	TypeLatest = "latest"

	// TypeRollback selects an earlier block, reached by temporarily
	// disconnecting the blocks above it.
	TypeRollback = "rollback"
)

const errCouldNotRollBack = "Could not roll back to requested height."

// Target selects the base block of a snapshot.
type Target struct {
	// Type is TypeLatest, TypeRollback or empty. Empty means TypeLatest
	// unless a rollback block is given.
	Type string

	// RollbackHeight and RollbackHash select the base block of a rollback.
	// At most one of them is set.
	RollbackHeight *int32
	RollbackHash   *chainhash.Hash
}

func (t *Target) hasRollbackOption() bool {
	return t.RollbackHeight != nil || t.RollbackHash != nil
}

// BlockIndex is the read-only block index the navigator walks.
type BlockIndex interface {
	TipNode() *blockchain.BlockNode
	LookupNode(hash *chainhash.Hash) *blockchain.BlockNode
	IsOnActiveChain(node *blockchain.BlockNode) bool
}

// resolvedTarget is the outcome of resolving a Target against the index.
type resolvedTarget struct {
	// base is the block the snapshot is based on.
	base *blockchain.BlockNode

	// tip is the tip at resolution time.
	tip *blockchain.BlockNode

	// pinned is set when base was selected explicitly, so the snapshot
	// must be taken at base even if the tip moves.
	pinned bool
}

func (r *resolvedTarget) needsRollback() bool {
	return r.base != r.tip
}

// resolveTarget maps target to a block of the active chain. It does not
// modify any state.
func resolveTarget(index BlockIndex, params *chainconfig.Params, target *Target) (*resolvedTarget, error) {
	tip := index.TipNode()

	if target.hasRollbackOption() {
		if target.Type != "" && target.Type != TypeRollback {
			return nil, newError(ErrInvalidParameter, fmt.Sprintf(
				"Invalid snapshot type \"%s\" specified with rollback option", target.Type), nil)
		}
		var base *blockchain.BlockNode
		var err error
		if target.RollbackHash != nil {
			base, err = nodeByHash(index, target.RollbackHash)
		} else {
			base, err = nodeByHeight(tip, *target.RollbackHeight)
		}
		if err != nil {
			return nil, err
		}
		return checkReachable(tip, base)
	}

	switch target.Type {
	case TypeRollback:
		height, ok := params.MaxSnapshotHeight()
		if !ok {
			return nil, newError(ErrInvalidParameter, fmt.Sprintf(
				"No snapshot heights are known for network %s, please specify a rollback height",
				params.Name), nil)
		}
		base, err := nodeByHeight(tip, height)
		if err != nil {
			return nil, err
		}
		return checkReachable(tip, base)
	case TypeLatest, "":
		return &resolvedTarget{base: tip, tip: tip}, nil
	default:
		return nil, newError(ErrInvalidParameter, fmt.Sprintf(
			"Invalid snapshot type \"%s\" specified. Please specify \"rollback\" or \"latest\"",
			target.Type), nil)
	}
}

func nodeByHeight(tip *blockchain.BlockNode, height int32) (*blockchain.BlockNode, error) {
	if height < 0 {
		return nil, newError(ErrInvalidParameter, fmt.Sprintf("Target block height %d is negative", height), nil)
	}
	if height > tip.Height() {
		return nil, newError(ErrInvalidParameter, fmt.Sprintf(
			"Target block height %d after current tip %d", height, tip.Height()), nil)
	}
	node := tip.Ancestor(height)
	if node == nil {
		return nil, newError(ErrInvalidParameter, fmt.Sprintf("Block at height %d not found", height), nil)
	}
	return node, nil
}

func nodeByHash(index BlockIndex, hash *chainhash.Hash) (*blockchain.BlockNode, error) {
	node := index.LookupNode(hash)
	if node == nil {
		return nil, newError(ErrInvalidParameter, fmt.Sprintf("Block %s not found", hash), nil)
	}
	if !index.IsOnActiveChain(node) {
		return nil, newError(ErrInvalidParameter, fmt.Sprintf("Block %s is not on the active chain", hash), nil)
	}
	return node, nil
}

// checkReachable verifies that every block above base retains the undo
// data needed to disconnect it.
func checkReachable(tip, base *blockchain.BlockNode) (*resolvedTarget, error) {
	for node := tip; node != base; node = node.Parent() {
		if node == nil {
			return nil, newError(ErrInvalidParameter, errCouldNotRollBack, nil)
		}
		if !node.HaveUndo() {
			log.Debugf("Block %s at height %d has no undo data", node.Hash(), node.Height())
			return nil, newError(ErrInvalidParameter, errCouldNotRollBack, nil)
		}
	}
	return &resolvedTarget{base: base, tip: tip, pinned: true}, nil
}
