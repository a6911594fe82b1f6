package utxosnapshot

import (
	"fmt"

	"github.com/chainsnap/chainsnapd/domain/blockchain"
)

// Chain is the chain state snapshots are taken from.
type Chain interface {
	BlockIndex
	WithReadView(fn func(view blockchain.ReadView) error) error
	WithExclusiveSession(fn func(session blockchain.Session) error) error
}

// withChainAt calls fn with a view of the chain as of base. If the tip is
// above base once the chain is locked, networking is suspended and the
// blocks above base are disconnected for the duration of fn. They are
// reconnected in forward order before returning, whatever fn returns.
func withChainAt(chain Chain, network NetworkActivity, base *blockchain.BlockNode,
	fn func(view blockchain.ReadView) error) error {

	return chain.WithExclusiveSession(func(session blockchain.Session) error {
		if session.Tip() == base {
			return fn(session)
		}
		return withSuspendedNetwork(network, func() error {
			return rollBackAndRun(session, base, fn)
		})
	})
}

func rollBackAndRun(session blockchain.Session, base *blockchain.BlockNode,
	fn func(view blockchain.ReadView) error) (err error) {

	var disconnected []*blockchain.BlockNode
	defer func() {
		reconnectErr := reconnectBlocks(session, disconnected)
		if reconnectErr == nil {
			return
		}
		log.Criticalf("Failed restoring the chain tip after a snapshot rollback: %+v", reconnectErr)
		if err != nil {
			log.Errorf("Snapshot rollback had already failed before restoring: %s", err)
		}
		err = newError(ErrIO, fmt.Sprintf("Failed to roll forward to the original tip: %s",
			reconnectErr), reconnectErr)
	}()

	for session.Tip().Height() > base.Height() {
		node, err := session.DisconnectTip()
		if err != nil {
			log.Warnf("Failed disconnecting block %s at height %d: %s",
				session.Tip().Hash(), session.Tip().Height(), err)
			return newError(ErrInvalidParameter, errCouldNotRollBack, err)
		}
		disconnected = append(disconnected, node)
	}
	if session.Tip() != base {
		return newError(ErrInvalidParameter, errCouldNotRollBack, nil)
	}
	log.Infof("Rolled back %d blocks to %s at height %d", len(disconnected), base.Hash(), base.Height())
	return fn(session)
}

// reconnectBlocks connects disconnected, which is ordered tip first, back
// onto the chain.
func reconnectBlocks(session blockchain.Session, disconnected []*blockchain.BlockNode) error {
	for i := len(disconnected) - 1; i >= 0; i-- {
		err := session.ReconnectBlock(disconnected[i])
		if err != nil {
			return err
		}
	}
	if len(disconnected) > 0 {
		log.Infof("Restored tip %s at height %d", session.Tip().Hash(), session.Tip().Height())
	}
	return nil
}
