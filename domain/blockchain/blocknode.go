package blockchain

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
)

// blockStatus is a bit field describing what is known and stored about a
// block.
type blockStatus uint32

const (
	// statusDataStored indicates that the block's payload is stored.
	statusDataStored blockStatus = 1 << iota

	// statusUndoStored indicates that the block's spend journal is
	// retained, so the block can be disconnected.
	statusUndoStored

	// statusValid indicates that the block has been fully validated.
	statusValid
)

// BlockNode is an entry of the block index.
type BlockNode struct {
	parent *BlockNode

	hash         chainhash.Hash
	height       int32
	timestamp    int64
	txCount      uint32
	chainTxCount uint64

	// status is accessed atomically since undo pruning may flip bits
	// while readers inspect the index.
	status uint32
}

func newBlockNode(header *wire.BlockHeader, parent *BlockNode, txCount uint32) *BlockNode {
	node := &BlockNode{
		parent:    parent,
		hash:      header.BlockHash(),
		timestamp: header.Timestamp.Unix(),
		txCount:   txCount,
	}
	node.chainTxCount = uint64(txCount)
	if parent != nil {
		node.height = parent.height + 1
		node.chainTxCount += parent.chainTxCount
	}
	return node
}

// Hash returns the block hash.
func (node *BlockNode) Hash() *chainhash.Hash {
	return &node.hash
}

// Height returns the block height.
func (node *BlockNode) Height() int32 {
	return node.height
}

// Parent returns the parent node, or nil for the genesis block.
func (node *BlockNode) Parent() *BlockNode {
	return node.parent
}

// Timestamp returns the header timestamp.
func (node *BlockNode) Timestamp() time.Time {
	return time.Unix(node.timestamp, 0)
}

// TxCount returns the number of transactions in the block.
func (node *BlockNode) TxCount() uint32 {
	return node.txCount
}

// ChainTxCount returns the number of transactions in the chain up to and
// including this block.
func (node *BlockNode) ChainTxCount() uint64 {
	return node.chainTxCount
}

// HaveData returns whether the block payload is stored.
func (node *BlockNode) HaveData() bool {
	return node.hasStatus(statusDataStored)
}

// HaveUndo returns whether the block's undo data is retained.
func (node *BlockNode) HaveUndo() bool {
	return node.hasStatus(statusUndoStored)
}

// IsValid returns whether the block was fully validated.
func (node *BlockNode) IsValid() bool {
	return node.hasStatus(statusValid)
}

// Ancestor returns the ancestor of node at the given height, or nil if
// height is outside of [0, node.Height()].
func (node *BlockNode) Ancestor(height int32) *BlockNode {
	if height < 0 || height > node.height {
		return nil
	}
	n := node
	for ; n != nil && n.height != height; n = n.parent {
	}
	return n
}

func (node *BlockNode) hasStatus(flags blockStatus) bool {
	return blockStatus(atomic.LoadUint32(&node.status))&flags == flags
}

func (node *BlockNode) setStatus(flags blockStatus) {
	for {
		old := atomic.LoadUint32(&node.status)
		if atomic.CompareAndSwapUint32(&node.status, old, old|uint32(flags)) {
			return
		}
	}
}

func (node *BlockNode) clearStatus(flags blockStatus) {
	for {
		old := atomic.LoadUint32(&node.status)
		if atomic.CompareAndSwapUint32(&node.status, old, old&^uint32(flags)) {
			return
		}
	}
}

// storedBlockNode is the decoded form of a block index record.
type storedBlockNode struct {
	hash         chainhash.Hash
	prevHash     chainhash.Hash
	height       int32
	timestamp    int64
	txCount      uint32
	chainTxCount uint64
	status       blockStatus
}

// serializedBlockNodeSize is prevHash | height | timestamp | txCount |
// chainTxCount | status.
const serializedBlockNodeSize = chainhash.HashSize + 4 + 8 + 4 + 8 + 4

// serializeBlockNode encodes the index record of node. All integers are
// little endian.
func serializeBlockNode(node *BlockNode) []byte {
	buf := make([]byte, serializedBlockNodeSize)
	offset := 0
	if node.parent != nil {
		copy(buf, node.parent.hash[:])
	}
	offset += chainhash.HashSize
	binary.LittleEndian.PutUint32(buf[offset:], uint32(node.height))
	offset += 4
	binary.LittleEndian.PutUint64(buf[offset:], uint64(node.timestamp))
	offset += 8
	binary.LittleEndian.PutUint32(buf[offset:], node.txCount)
	offset += 4
	binary.LittleEndian.PutUint64(buf[offset:], node.chainTxCount)
	offset += 8
	binary.LittleEndian.PutUint32(buf[offset:], atomic.LoadUint32(&node.status))
	return buf
}

func deserializeBlockNode(hash *chainhash.Hash, data []byte) (*storedBlockNode, error) {
	if len(data) != serializedBlockNodeSize {
		return nil, errors.Errorf("block index record of %s has %d bytes, expected %d",
			hash, len(data), serializedBlockNodeSize)
	}
	r := bytes.NewReader(data)
	stored := &storedBlockNode{hash: *hash}
	_, err := io.ReadFull(r, stored.prevHash[:])
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var height, txCount, status uint32
	for _, field := range []interface{}{&height, &stored.timestamp, &txCount, &stored.chainTxCount, &status} {
		err := binary.Read(r, binary.LittleEndian, field)
		if err != nil {
			return nil, errors.Wrapf(err, "failed decoding block index record of %s", hash)
		}
	}
	stored.height = int32(height)
	stored.txCount = txCount
	stored.status = blockStatus(status)
	return stored, nil
}
