package blockchain

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/chainsnap/chainsnapd/domain/chainconfig"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

func TestGenesisInitialization(t *testing.T) {
	chain, teardown := prepareChainForTest(t, "TestGenesisInitialization")
	defer teardown()

	tip := chain.TipNode()
	if tip.Height() != 0 {
		t.Fatalf("TestGenesisInitialization: expected tip height 0 but got %d", tip.Height())
	}
	if !tip.Hash().IsEqual(chainconfig.RegressionNetParams.GenesisHash) {
		t.Fatalf("TestGenesisInitialization: expected genesis tip %s but got %s",
			chainconfig.RegressionNetParams.GenesisHash, tip.Hash())
	}
	if tip.ChainTxCount() != 1 {
		t.Fatalf("TestGenesisInitialization: expected chain tx count 1 but got %d", tip.ChainTxCount())
	}
}

func TestGenerateBlocks(t *testing.T) {
	chain, teardown := prepareChainForTest(t, "TestGenerateBlocks")
	defer teardown()

	hashes, err := chain.GenerateBlocks(100, OpTrueScript)
	if err != nil {
		t.Fatalf("TestGenerateBlocks: GenerateBlocks unexpectedly failed: %s", err)
	}
	if len(hashes) != 100 {
		t.Fatalf("TestGenerateBlocks: expected 100 hashes but got %d", len(hashes))
	}

	tip := chain.TipNode()
	if tip.Height() != 100 {
		t.Fatalf("TestGenerateBlocks: expected tip height 100 but got %d", tip.Height())
	}
	if !tip.Hash().IsEqual(hashes[99]) {
		t.Fatalf("TestGenerateBlocks: expected tip %s but got %s", hashes[99], tip.Hash())
	}
	if tip.ChainTxCount() != 101 {
		t.Fatalf("TestGenerateBlocks: expected chain tx count 101 but got %d", tip.ChainTxCount())
	}

	err = chain.WithReadView(func(view ReadView) error {
		iterator, err := view.CoinIterator()
		if err != nil {
			return err
		}
		count := countCoins(t, "TestGenerateBlocks", iterator)
		if count != 101 {
			t.Fatalf("TestGenerateBlocks: expected 101 coins but got %d", count)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("TestGenerateBlocks: WithReadView unexpectedly failed: %s", err)
	}

	for height := int32(0); height <= 100; height++ {
		node, ok := chain.NodeByHeight(height)
		if !ok {
			t.Fatalf("TestGenerateBlocks: missing active chain node at height %d", height)
		}
		if !chain.IsOnActiveChain(node) {
			t.Fatalf("TestGenerateBlocks: node at height %d is not on the active chain", height)
		}
		if tip.Ancestor(height) != node {
			t.Fatalf("TestGenerateBlocks: tip ancestor at height %d differs from the active chain", height)
		}
	}
}

func TestGenerateBlocksUnsupportedNetwork(t *testing.T) {
	chain, teardown, err := ChainSetup("TestGenerateBlocksUnsupportedNetwork", &chainconfig.MainNetParams)
	if err != nil {
		t.Fatalf("TestGenerateBlocksUnsupportedNetwork: ChainSetup unexpectedly failed: %s", err)
	}
	defer teardown()

	_, err = chain.GenerateBlocks(1, OpTrueScript)
	if err == nil {
		t.Fatalf("TestGenerateBlocksUnsupportedNetwork: GenerateBlocks unexpectedly succeeded on mainnet")
	}
}

func TestChainReload(t *testing.T) {
	dir, removeDir := tempDirForTest(t, "TestChainReload")
	defer removeDir()

	chain, closeChain, err := openChainAt(dir, &chainconfig.RegressionNetParams)
	if err != nil {
		t.Fatalf("TestChainReload: openChainAt unexpectedly failed: %s", err)
	}
	generateBlocksForTest(t, "TestChainReload", chain, 10)
	expectedTip := chain.TipNode()
	closeChain()

	reloaded, closeReloaded, err := openChainAt(dir, &chainconfig.RegressionNetParams)
	if err != nil {
		t.Fatalf("TestChainReload: reopening unexpectedly failed: %s", err)
	}
	defer closeReloaded()

	tip := reloaded.TipNode()
	if !tip.Hash().IsEqual(expectedTip.Hash()) || tip.Height() != expectedTip.Height() {
		t.Fatalf("TestChainReload: expected tip %s at height %d but got %s at height %d",
			expectedTip.Hash(), expectedTip.Height(), tip.Hash(), tip.Height())
	}
	if tip.ChainTxCount() != expectedTip.ChainTxCount() {
		t.Fatalf("TestChainReload: expected chain tx count %d but got %d",
			expectedTip.ChainTxCount(), tip.ChainTxCount())
	}
	if !tip.HaveUndo() || !tip.HaveData() || !tip.IsValid() {
		t.Fatalf("TestChainReload: reloaded tip lost its status flags")
	}

	generateBlocksForTest(t, "TestChainReload", reloaded, 1)
	if reloaded.TipNode().Height() != 11 {
		t.Fatalf("TestChainReload: expected height 11 after extending the reloaded chain but got %d",
			reloaded.TipNode().Height())
	}
}

func TestChainReloadWrongNetwork(t *testing.T) {
	dir, removeDir := tempDirForTest(t, "TestChainReloadWrongNetwork")
	defer removeDir()

	_, closeChain, err := openChainAt(dir, &chainconfig.RegressionNetParams)
	if err != nil {
		t.Fatalf("TestChainReloadWrongNetwork: openChainAt unexpectedly failed: %s", err)
	}
	closeChain()

	_, _, err = openChainAt(dir, &chainconfig.SimNetParams)
	if err == nil {
		t.Fatalf("TestChainReloadWrongNetwork: opening a regtest chain as simnet unexpectedly succeeded")
	}
}

func TestDisconnectAndReconnect(t *testing.T) {
	chain, teardown := prepareChainForTest(t, "TestDisconnectAndReconnect")
	defer teardown()

	generateBlocksForTest(t, "TestDisconnectAndReconnect", chain, 101)
	spentOutpoint := coinbaseOutpointAt(t, "TestDisconnectAndReconnect", chain, 1)
	spentEntry, err := chain.FetchCoin(&spentOutpoint)
	if err != nil || spentEntry == nil {
		t.Fatalf("TestDisconnectAndReconnect: expected coinbase of block 1 to be unspent: %v", err)
	}

	spendTx := SpendOutputTx(spentOutpoint, spentEntry.Amount()-1000, OpTrueScript)
	spendBlock, err := chain.GenerateBlock(OpTrueScript, []*wire.MsgTx{spendTx})
	if err != nil {
		t.Fatalf("TestDisconnectAndReconnect: GenerateBlock unexpectedly failed: %s", err)
	}
	createdOutpoint := wire.OutPoint{Hash: spendTx.TxHash(), Index: 0}

	tipBefore := chain.TipNode()
	if tipBefore.Height() != 102 || tipBefore.ChainTxCount() != 104 {
		t.Fatalf("TestDisconnectAndReconnect: unexpected tip height %d with chain tx count %d",
			tipBefore.Height(), tipBefore.ChainTxCount())
	}

	err = chain.WithExclusiveSession(func(session Session) error {
		iterator, err := session.CoinIterator()
		if err != nil {
			return err
		}
		if count := countCoins(t, "TestDisconnectAndReconnect", iterator); count != 103 {
			t.Fatalf("TestDisconnectAndReconnect: expected 103 coins before disconnecting but got %d", count)
		}

		disconnected, err := session.DisconnectTip()
		if err != nil {
			return err
		}
		if !disconnected.Hash().IsEqual(tipBefore.Hash()) {
			t.Fatalf("TestDisconnectAndReconnect: disconnected %s instead of tip %s",
				disconnected.Hash(), tipBefore.Hash())
		}
		if session.Tip().Height() != 101 {
			t.Fatalf("TestDisconnectAndReconnect: expected tip height 101 after disconnecting but got %d",
				session.Tip().Height())
		}
		iterator, err = session.CoinIterator()
		if err != nil {
			return err
		}
		if count := countCoins(t, "TestDisconnectAndReconnect", iterator); count != 102 {
			t.Fatalf("TestDisconnectAndReconnect: expected 102 coins after disconnecting but got %d", count)
		}
		restored, err := fetchCoin(chain.db, &spentOutpoint)
		if err != nil {
			return err
		}
		if !restored.Equal(spentEntry) {
			t.Fatalf("TestDisconnectAndReconnect: restored coin %s differs from spent coin %s",
				spew.Sdump(restored), spew.Sdump(spentEntry))
		}

		return session.ReconnectBlock(disconnected)
	})
	if err != nil {
		t.Fatalf("TestDisconnectAndReconnect: session unexpectedly failed: %s", err)
	}

	tipAfter := chain.TipNode()
	if tipAfter != tipBefore {
		t.Fatalf("TestDisconnectAndReconnect: expected reconnected tip %s but got %s",
			tipBefore.Hash(), tipAfter.Hash())
	}
	if tipAfter.ChainTxCount() != 104 {
		t.Fatalf("TestDisconnectAndReconnect: expected chain tx count 104 but got %d", tipAfter.ChainTxCount())
	}
	spendBlockHash := spendBlock.BlockHash()
	if !tipAfter.Hash().IsEqual(&spendBlockHash) {
		t.Fatalf("TestDisconnectAndReconnect: unexpected tip %s", tipAfter.Hash())
	}
	entry, err := chain.FetchCoin(&spentOutpoint)
	if err != nil {
		t.Fatalf("TestDisconnectAndReconnect: FetchCoin unexpectedly failed: %s", err)
	}
	if entry != nil {
		t.Fatalf("TestDisconnectAndReconnect: spent coin is unspent after reconnecting")
	}
	entry, err = chain.FetchCoin(&createdOutpoint)
	if err != nil {
		t.Fatalf("TestDisconnectAndReconnect: FetchCoin unexpectedly failed: %s", err)
	}
	if entry == nil || entry.Amount() != spentEntry.Amount()-1000 || entry.IsCoinbase() {
		t.Fatalf("TestDisconnectAndReconnect: unexpected created coin %s", spew.Sdump(entry))
	}
}

func TestDisconnectWithinBlockSpend(t *testing.T) {
	chain, teardown := prepareChainForTest(t, "TestDisconnectWithinBlockSpend")
	defer teardown()

	generateBlocksForTest(t, "TestDisconnectWithinBlockSpend", chain, 101)
	spentOutpoint := coinbaseOutpointAt(t, "TestDisconnectWithinBlockSpend", chain, 1)
	first := SpendOutputTx(spentOutpoint, 4000000000, OpTrueScript)
	second := SpendOutputTx(wire.OutPoint{Hash: first.TxHash(), Index: 0}, 3000000000, OpTrueScript)
	_, err := chain.GenerateBlock(OpTrueScript, []*wire.MsgTx{first, second})
	if err != nil {
		t.Fatalf("TestDisconnectWithinBlockSpend: GenerateBlock unexpectedly failed: %s", err)
	}

	err = chain.WithExclusiveSession(func(session Session) error {
		_, err := session.DisconnectTip()
		if err != nil {
			return err
		}
		for _, outpoint := range []wire.OutPoint{{Hash: first.TxHash()}, {Hash: second.TxHash()}} {
			entry, err := fetchCoin(chain.db, &outpoint)
			if err != nil {
				return err
			}
			if entry != nil {
				t.Fatalf("TestDisconnectWithinBlockSpend: %s still exists after disconnecting", outpoint)
			}
		}
		entry, err := fetchCoin(chain.db, &spentOutpoint)
		if err != nil {
			return err
		}
		if entry == nil {
			t.Fatalf("TestDisconnectWithinBlockSpend: %s was not restored", spentOutpoint)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("TestDisconnectWithinBlockSpend: session unexpectedly failed: %s", err)
	}
}

func TestDisconnectMissingUndo(t *testing.T) {
	chain, teardown := prepareChainForTest(t, "TestDisconnectMissingUndo")
	defer teardown()

	generateBlocksForTest(t, "TestDisconnectMissingUndo", chain, 5)
	tip := chain.TipNode()
	err := chain.PruneBlockUndo(tip.Hash())
	if err != nil {
		t.Fatalf("TestDisconnectMissingUndo: PruneBlockUndo unexpectedly failed: %s", err)
	}
	if tip.HaveUndo() {
		t.Fatalf("TestDisconnectMissingUndo: tip still reports undo data after pruning")
	}

	err = chain.WithExclusiveSession(func(session Session) error {
		_, err := session.DisconnectTip()
		return err
	})
	if !IsErrorCode(err, ErrMissingUndoData) {
		t.Fatalf("TestDisconnectMissingUndo: expected ErrMissingUndoData but got %v", err)
	}
	if chain.TipNode() != tip {
		t.Fatalf("TestDisconnectMissingUndo: tip changed after a failed disconnection")
	}
}

func TestDisconnectGenesis(t *testing.T) {
	chain, teardown := prepareChainForTest(t, "TestDisconnectGenesis")
	defer teardown()

	err := chain.WithExclusiveSession(func(session Session) error {
		_, err := session.DisconnectTip()
		return err
	})
	if !IsErrorCode(err, ErrDisconnectGenesis) {
		t.Fatalf("TestDisconnectGenesis: expected ErrDisconnectGenesis but got %v", err)
	}
}

func TestReconnectInterruptedRollback(t *testing.T) {
	dir, removeDir := tempDirForTest(t, "TestReconnectInterruptedRollback")
	defer removeDir()

	chain, closeChain, err := openChainAt(dir, &chainconfig.RegressionNetParams)
	if err != nil {
		t.Fatalf("TestReconnectInterruptedRollback: openChainAt unexpectedly failed: %s", err)
	}
	generateBlocksForTest(t, "TestReconnectInterruptedRollback", chain, 5)
	expectedTip := *chain.TipNode().Hash()

	err = chain.WithExclusiveSession(func(session Session) error {
		for i := 0; i < 3; i++ {
			_, err := session.DisconnectTip()
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("TestReconnectInterruptedRollback: session unexpectedly failed: %s", err)
	}
	if chain.TipNode().Height() != 2 {
		t.Fatalf("TestReconnectInterruptedRollback: expected tip height 2 but got %d", chain.TipNode().Height())
	}
	closeChain()

	reloaded, closeReloaded, err := openChainAt(dir, &chainconfig.RegressionNetParams)
	if err != nil {
		t.Fatalf("TestReconnectInterruptedRollback: reopening unexpectedly failed: %s", err)
	}
	defer closeReloaded()
	if !reloaded.TipNode().Hash().IsEqual(&expectedTip) {
		t.Fatalf("TestReconnectInterruptedRollback: expected tip %s after restart but got %s at height %d",
			expectedTip, reloaded.TipNode().Hash(), reloaded.TipNode().Height())
	}
}

func TestReadViewIsolation(t *testing.T) {
	chain, teardown := prepareChainForTest(t, "TestReadViewIsolation")
	defer teardown()

	generateBlocksForTest(t, "TestReadViewIsolation", chain, 3)
	err := chain.WithReadView(func(view ReadView) error {
		generateBlocksForTest(t, "TestReadViewIsolation", chain, 2)
		if view.Tip().Height() != 3 {
			t.Fatalf("TestReadViewIsolation: expected view tip height 3 but got %d", view.Tip().Height())
		}
		iterator, err := view.CoinIterator()
		if err != nil {
			return err
		}
		if count := countCoins(t, "TestReadViewIsolation", iterator); count != 4 {
			t.Fatalf("TestReadViewIsolation: expected 4 coins in the view but got %d", count)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("TestReadViewIsolation: WithReadView unexpectedly failed: %s", err)
	}
	if chain.TipNode().Height() != 5 {
		t.Fatalf("TestReadViewIsolation: expected tip height 5 but got %d", chain.TipNode().Height())
	}
}

func TestCloseWaitsForExclusiveSession(t *testing.T) {
	chain, teardown := prepareChainForTest(t, "TestCloseWaitsForExclusiveSession")
	defer teardown()
	generateBlocksForTest(t, "TestCloseWaitsForExclusiveSession", chain, 2)

	inSession := make(chan struct{})
	release := make(chan struct{})
	sessionDone := make(chan error, 1)
	go func() {
		sessionDone <- chain.WithExclusiveSession(func(session Session) error {
			node, err := session.DisconnectTip()
			close(inSession)
			if err != nil {
				return err
			}
			<-release
			return session.ReconnectBlock(node)
		})
	}()
	<-inSession

	closed := make(chan struct{})
	go func() {
		chain.Close()
		close(closed)
	}()
	select {
	case <-closed:
		t.Fatalf("TestCloseWaitsForExclusiveSession: Close returned while blocks were disconnected")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	err := <-sessionDone
	if err != nil {
		t.Fatalf("TestCloseWaitsForExclusiveSession: session unexpectedly failed: %s", err)
	}
	<-closed
	if chain.TipNode().Height() != 2 {
		t.Fatalf("TestCloseWaitsForExclusiveSession: expected tip height 2 after Close but got %d",
			chain.TipNode().Height())
	}

	_, err = chain.GenerateBlocks(1, OpTrueScript)
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("TestCloseWaitsForExclusiveSession: expected ErrClosed from GenerateBlocks but got %v", err)
	}
	err = chain.WithReadView(func(ReadView) error { return nil })
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("TestCloseWaitsForExclusiveSession: expected ErrClosed from WithReadView but got %v", err)
	}
	err = chain.WithExclusiveSession(func(Session) error { return nil })
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("TestCloseWaitsForExclusiveSession: expected ErrClosed from WithExclusiveSession but got %v", err)
	}
}
