package blockchain

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/chainsnap/chainsnapd/domain/chainconfig"
	"github.com/chainsnap/chainsnapd/domain/utxo"
	"github.com/chainsnap/chainsnapd/infrastructure/db/database"
	"github.com/chainsnap/chainsnapd/infrastructure/logger"
	"github.com/pkg/errors"
)

// Config holds the dependencies of a Chain.
type Config struct {
	// Params are the parameters of the network the chain belongs to.
	Params *chainconfig.Params

	// Database holds the utxo set, the block index and the chain tip.
	Database database.Database

	// BlockStore holds raw blocks and their undo data.
	BlockStore *BlockStore
}

// Chain maintains the active chain and its utxo set.
type Chain struct {
	params     *chainconfig.Params
	db         database.Database
	blockStore *BlockStore

	lock   *chainLock
	index  *blockIndex
	closed bool
}

// New loads the chain from its database, initializing it with the genesis
// block of the network if the database is empty.
func New(cfg *Config) (*Chain, error) {
	if cfg.Params == nil || cfg.Database == nil || cfg.BlockStore == nil {
		return nil, errors.New("chain config requires params, a database and a block store")
	}
	c := &Chain{
		params:     cfg.Params,
		db:         cfg.Database,
		blockStore: cfg.BlockStore,
		lock:       newChainLock(),
		index:      newBlockIndex(),
	}

	loaded, err := c.loadBlockIndex()
	if err != nil {
		return nil, err
	}
	if !loaded {
		log.Infof("Initializing chain state with the %s genesis block %s", c.params.Name, c.params.GenesisHash)
		_, err := c.connectBlock(c.params.GenesisBlock, nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed connecting the genesis block")
		}
		return c, nil
	}

	err = c.reconnectInterruptedBlocks()
	if err != nil {
		return nil, err
	}
	return c, nil
}

// reconnectInterruptedBlocks reconnects valid blocks that extend the stored
// tip. They are left behind when the process dies while a snapshot rollback
// holds blocks disconnected.
func (c *Chain) reconnectInterruptedBlocks() error {
	for {
		tip := c.index.tip()
		var candidates []*BlockNode
		for _, child := range c.index.children(tip) {
			if child.IsValid() && child.HaveData() {
				candidates = append(candidates, child)
			}
		}
		if len(candidates) == 0 {
			return nil
		}
		if len(candidates) > 1 {
			log.Warnf("Found %d disconnected children of tip %s, not reconnecting any of them",
				len(candidates), tip.hash)
			return nil
		}
		child := candidates[0]
		log.Infof("Reconnecting block %s at height %d left disconnected by an interrupted rollback",
			child.hash, child.height)
		block, err := c.blockStore.FetchBlock(&child.hash)
		if err != nil {
			return errors.Wrapf(err, "failed loading disconnected block %s", child.hash)
		}
		_, err = c.connectBlock(block, child)
		if err != nil {
			return errors.Wrapf(err, "failed reconnecting block %s", child.hash)
		}
	}
}

// Params returns the network parameters of the chain.
func (c *Chain) Params() *chainconfig.Params {
	return c.params
}

// TipNode returns the tip of the active chain.
func (c *Chain) TipNode() *BlockNode {
	c.lock.highPriorityReadLock()
	defer c.lock.highPriorityReadUnlock()
	return c.index.tip()
}

// NodeByHeight returns the active chain node at height.
func (c *Chain) NodeByHeight(height int32) (*BlockNode, bool) {
	c.lock.highPriorityReadLock()
	defer c.lock.highPriorityReadUnlock()
	node := c.index.nodeByHeight(height)
	return node, node != nil
}

// LookupNode returns the index node of the given block, or nil if unknown.
func (c *Chain) LookupNode(hash *chainhash.Hash) *BlockNode {
	c.lock.highPriorityReadLock()
	defer c.lock.highPriorityReadUnlock()
	return c.index.lookupNode(hash)
}

// IsOnActiveChain returns whether node is part of the active chain.
func (c *Chain) IsOnActiveChain(node *BlockNode) bool {
	c.lock.highPriorityReadLock()
	defer c.lock.highPriorityReadUnlock()
	return c.index.contains(node)
}

// FetchBlock loads a stored block.
func (c *Chain) FetchBlock(hash *chainhash.Hash) (*wire.MsgBlock, error) {
	return c.blockStore.FetchBlock(hash)
}

// FetchCoin returns the unspent output at outpoint, or nil if there is none.
func (c *Chain) FetchCoin(outpoint *wire.OutPoint) (*utxo.Entry, error) {
	c.lock.highPriorityReadLock()
	defer c.lock.highPriorityReadUnlock()
	if c.closed {
		return nil, errors.WithStack(ErrClosed)
	}
	return fetchCoin(c.db, outpoint)
}

// ProcessBlock validates block and connects it on top of the tip.
func (c *Chain) ProcessBlock(block *wire.MsgBlock) error {
	c.lock.lowPriorityLock()
	defer c.lock.lowPriorityUnlock()
	if c.closed {
		return errors.WithStack(ErrClosed)
	}

	_, err := c.connectBlock(block, nil)
	return err
}

// PruneBlockUndo discards the undo data of a block. The block can no longer
// be disconnected afterwards.
func (c *Chain) PruneBlockUndo(hash *chainhash.Hash) error {
	c.lock.lowPriorityLock()
	defer c.lock.lowPriorityUnlock()
	if c.closed {
		return errors.WithStack(ErrClosed)
	}

	node := c.index.lookupNode(hash)
	if node == nil {
		return errors.Errorf("block %s is not in the block index", hash)
	}
	err := c.blockStore.DeleteUndo(hash)
	if err != nil {
		return err
	}
	node.clearStatus(statusUndoStored)
	err = putBlockNode(c.db, node)
	if err != nil {
		return err
	}
	log.Debugf("Pruned undo data of block %s at height %d", hash, node.height)
	return nil
}

// ReadView is a consistent view of the chain state at a tip.
type ReadView interface {
	// Tip returns the tip the view was taken at.
	Tip() *BlockNode

	// CoinIterator iterates the utxo set as of Tip in canonical order.
	CoinIterator() (utxo.Iterator, error)
}

type readView struct {
	tip      *BlockNode
	snapshot database.Snapshot
}

func (v *readView) Tip() *BlockNode {
	return v.tip
}

func (v *readView) CoinIterator() (utxo.Iterator, error) {
	return newCoinIterator(v.snapshot)
}

// WithReadView pins the current tip and a database snapshot under the chain
// lock, releases the lock, and calls fn with the pinned view. Blocks may be
// connected while fn runs without affecting the view.
func (c *Chain) WithReadView(fn func(view ReadView) error) error {
	c.lock.highPriorityReadLock()
	if c.closed {
		c.lock.highPriorityReadUnlock()
		return errors.WithStack(ErrClosed)
	}
	tip := c.index.tip()
	snapshot, err := c.db.Snapshot()
	c.lock.highPriorityReadUnlock()
	if err != nil {
		return err
	}
	defer snapshot.Release()

	return fn(&readView{tip: tip, snapshot: snapshot})
}

// Session is exclusive access to the chain state. It must not be used after
// the function it was passed to returns.
type Session interface {
	// Tip returns the current tip.
	Tip() *BlockNode

	// DisconnectTip reverts the tip block and returns its node.
	DisconnectTip() (*BlockNode, error)

	// ReconnectBlock connects a previously disconnected block, which must
	// extend the current tip.
	ReconnectBlock(node *BlockNode) error

	// CoinIterator iterates the utxo set as of Tip in canonical order.
	CoinIterator() (utxo.Iterator, error)
}

type session struct {
	chain *Chain
}

func (s *session) Tip() *BlockNode {
	return s.chain.index.tip()
}

func (s *session) DisconnectTip() (*BlockNode, error) {
	return s.chain.disconnectTip()
}

func (s *session) ReconnectBlock(node *BlockNode) error {
	block, err := s.chain.blockStore.FetchBlock(&node.hash)
	if err != nil {
		return errors.Wrapf(err, "failed loading block %s for reconnection", node.hash)
	}
	_, err = s.chain.connectBlock(block, node)
	return err
}

func (s *session) CoinIterator() (utxo.Iterator, error) {
	return newCoinIterator(s.chain.db)
}

// WithExclusiveSession calls fn while holding the chain lock exclusively.
// Block processing waits until fn returns. Chain methods other than those
// of the session must not be called from fn.
func (c *Chain) WithExclusiveSession(fn func(session Session) error) error {
	c.lock.highPriorityLock()
	defer c.lock.highPriorityUnlock()
	if c.closed {
		return errors.WithStack(ErrClosed)
	}

	onEnd := logger.LogAndMeasureExecutionTime(log, "WithExclusiveSession")
	defer onEnd()

	return fn(&session{chain: c})
}

// Close waits for running chain operations, exclusive sessions included, to
// finish and makes every later operation that touches the databases fail
// with ErrClosed. The databases themselves are closed by their owner.
func (c *Chain) Close() {
	c.lock.highPriorityLock()
	defer c.lock.highPriorityUnlock()
	if !c.closed {
		log.Infof("Chain closed at tip %s height %d", c.index.tip().hash, c.index.tip().height)
	}
	c.closed = true
}
