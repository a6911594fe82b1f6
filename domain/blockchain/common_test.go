package blockchain

import (
	"os"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/chainsnap/chainsnapd/domain/chainconfig"
	"github.com/chainsnap/chainsnapd/domain/utxo"
)

func prepareChainForTest(t *testing.T, testName string) (chain *Chain, teardownFunc func()) {
	chain, teardownFunc, err := ChainSetup(testName, &chainconfig.RegressionNetParams)
	if err != nil {
		t.Fatalf("%s: ChainSetup unexpectedly failed: %s", testName, err)
	}
	return chain, teardownFunc
}

func generateBlocksForTest(t *testing.T, testName string, chain *Chain, count int) {
	_, err := chain.GenerateBlocks(count, OpTrueScript)
	if err != nil {
		t.Fatalf("%s: GenerateBlocks unexpectedly failed: %s", testName, err)
	}
}

func coinbaseOutpointAt(t *testing.T, testName string, chain *Chain, height int32) wire.OutPoint {
	node, ok := chain.NodeByHeight(height)
	if !ok {
		t.Fatalf("%s: no block at height %d", testName, height)
	}
	block, err := chain.FetchBlock(node.Hash())
	if err != nil {
		t.Fatalf("%s: FetchBlock unexpectedly failed: %s", testName, err)
	}
	return wire.OutPoint{Hash: block.Transactions[0].TxHash(), Index: 0}
}

func countCoins(t *testing.T, testName string, iterator utxo.Iterator) int {
	defer func() {
		err := iterator.Close()
		if err != nil {
			t.Fatalf("%s: Close unexpectedly failed: %s", testName, err)
		}
	}()
	count := 0
	for iterator.Next() {
		_, _, err := iterator.Get()
		if err != nil {
			t.Fatalf("%s: Get unexpectedly failed: %s", testName, err)
		}
		count++
	}
	return count
}

func tempDirForTest(t *testing.T, testName string) (string, func()) {
	dir, err := os.MkdirTemp("", testName)
	if err != nil {
		t.Fatalf("%s: MkdirTemp unexpectedly failed: %s", testName, err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }
}
