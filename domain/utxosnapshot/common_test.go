package utxosnapshot

import (
	"os"
	"testing"

	"github.com/chainsnap/chainsnapd/domain/blockchain"
	"github.com/chainsnap/chainsnapd/domain/chainconfig"
)

type fakeNetwork struct {
	active  bool
	history []bool
}

func (n *fakeNetwork) NetworkActive() bool {
	return n.active
}

func (n *fakeNetwork) SetNetworkActive(active bool) {
	n.active = active
	n.history = append(n.history, active)
}

type engineForTest struct {
	*Engine
	chain   *blockchain.Chain
	network *fakeNetwork
	dataDir string
}

func prepareEngineForTest(t *testing.T, testName string, params *chainconfig.Params) (*engineForTest, func()) {
	chain, teardownChain, err := blockchain.ChainSetup(testName, params)
	if err != nil {
		t.Fatalf("%s: ChainSetup unexpectedly failed: %s", testName, err)
	}
	dataDir, err := os.MkdirTemp("", testName)
	if err != nil {
		teardownChain()
		t.Fatalf("%s: MkdirTemp unexpectedly failed: %s", testName, err)
	}
	network := &fakeNetwork{active: true}
	engine := New(&Config{
		Params:  params,
		DataDir: dataDir,
		Chain:   chain,
		Network: network,
	})
	teardown := func() {
		teardownChain()
		_ = os.RemoveAll(dataDir)
	}
	return &engineForTest{Engine: engine, chain: chain, network: network, dataDir: dataDir}, teardown
}

func generateBlocksForTest(t *testing.T, testName string, chain *blockchain.Chain, count int) {
	_, err := chain.GenerateBlocks(count, blockchain.OpTrueScript)
	if err != nil {
		t.Fatalf("%s: GenerateBlocks unexpectedly failed: %s", testName, err)
	}
}

func readFileForTest(t *testing.T, testName string, path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("%s: ReadFile unexpectedly failed: %s", testName, err)
	}
	return data
}

func assertNotExists(t *testing.T, testName string, path string) {
	_, err := os.Lstat(path)
	if !os.IsNotExist(err) {
		t.Fatalf("%s: expected %s not to exist, but Lstat returned %v", testName, path, err)
	}
}

func int32Ptr(value int32) *int32 {
	return &value
}
