package utxosnapshot

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/chainsnap/chainsnapd/domain/chainconfig"
)

func TestResolveTarget(t *testing.T) {
	engine, teardown := prepareEngineForTest(t, "TestResolveTarget", &chainconfig.RegressionNetParams)
	defer teardown()
	generateBlocksForTest(t, "TestResolveTarget", engine.chain, 10)

	tip := engine.chain.TipNode()
	node5, _ := engine.chain.NodeByHeight(5)
	unknownHash := chainhash.Hash{0x42}

	tests := []struct {
		name           string
		target         Target
		expectedHeight int32
		expectRollback bool
		expectPinned   bool
		expectedError  string
	}{
		{name: "latest", target: Target{Type: TypeLatest}, expectedHeight: 10},
		{name: "empty type", target: Target{}, expectedHeight: 10},
		{
			name:          "unknown type",
			target:        Target{Type: "bogus"},
			expectedError: `Invalid snapshot type "bogus" specified. Please specify "rollback" or "latest"`,
		},
		{
			name:           "rollback to height",
			target:         Target{Type: TypeRollback, RollbackHeight: int32Ptr(5)},
			expectedHeight: 5,
			expectRollback: true,
			expectPinned:   true,
		},
		{
			name:           "rollback option without type",
			target:         Target{RollbackHeight: int32Ptr(0)},
			expectedHeight: 0,
			expectRollback: true,
			expectPinned:   true,
		},
		{
			name:           "rollback to hash",
			target:         Target{RollbackHash: node5.Hash()},
			expectedHeight: 5,
			expectRollback: true,
			expectPinned:   true,
		},
		{
			name:           "rollback to tip",
			target:         Target{RollbackHeight: int32Ptr(10)},
			expectedHeight: 10,
			expectPinned:   true,
		},
		{
			name:          "rollback option with latest type",
			target:        Target{Type: TypeLatest, RollbackHeight: int32Ptr(5)},
			expectedError: `Invalid snapshot type "latest" specified with rollback option`,
		},
		{
			name:          "negative height",
			target:        Target{RollbackHeight: int32Ptr(-1)},
			expectedError: "Target block height -1 is negative",
		},
		{
			name:          "height above tip",
			target:        Target{RollbackHeight: int32Ptr(11)},
			expectedError: "Target block height 11 after current tip 10",
		},
		{
			name:          "unknown hash",
			target:        Target{RollbackHash: &unknownHash},
			expectedError: "Block " + unknownHash.String() + " not found",
		},
		{
			name:          "rollback without known snapshot heights",
			target:        Target{Type: TypeRollback},
			expectedError: "No snapshot heights are known for network regtest, please specify a rollback height",
		},
	}

	for _, test := range tests {
		resolved, err := resolveTarget(engine.chain, &chainconfig.RegressionNetParams, &test.target)
		if test.expectedError != "" {
			if !IsErrorCode(err, ErrInvalidParameter) {
				t.Fatalf("TestResolveTarget (%s): expected ErrInvalidParameter but got %v", test.name, err)
			}
			if err.Error() != test.expectedError {
				t.Fatalf("TestResolveTarget (%s): expected error %q but got %q",
					test.name, test.expectedError, err.Error())
			}
			continue
		}
		if err != nil {
			t.Fatalf("TestResolveTarget (%s): resolveTarget unexpectedly failed: %s", test.name, err)
		}
		if resolved.base.Height() != test.expectedHeight {
			t.Fatalf("TestResolveTarget (%s): expected height %d but got %d",
				test.name, test.expectedHeight, resolved.base.Height())
		}
		if resolved.tip != tip {
			t.Fatalf("TestResolveTarget (%s): unexpected tip %s", test.name, resolved.tip.Hash())
		}
		if resolved.needsRollback() != test.expectRollback {
			t.Fatalf("TestResolveTarget (%s): expected needsRollback %t", test.name, test.expectRollback)
		}
		if resolved.pinned != test.expectPinned {
			t.Fatalf("TestResolveTarget (%s): expected pinned %t", test.name, test.expectPinned)
		}
	}
}

func TestResolveTargetMaxSnapshotHeight(t *testing.T) {
	params := chainconfig.RegressionNetParams
	params.AssumeUTXO = []chainconfig.AssumeUTXOData{{Height: 3}, {Height: 7}, {Height: 4}}

	engine, teardown := prepareEngineForTest(t, "TestResolveTargetMaxSnapshotHeight", &params)
	defer teardown()
	generateBlocksForTest(t, "TestResolveTargetMaxSnapshotHeight", engine.chain, 10)

	resolved, err := resolveTarget(engine.chain, &params, &Target{Type: TypeRollback})
	if err != nil {
		t.Fatalf("TestResolveTargetMaxSnapshotHeight: resolveTarget unexpectedly failed: %s", err)
	}
	if resolved.base.Height() != 7 {
		t.Fatalf("TestResolveTargetMaxSnapshotHeight: expected height 7 but got %d", resolved.base.Height())
	}
}

func TestResolveTargetPrunedUndo(t *testing.T) {
	engine, teardown := prepareEngineForTest(t, "TestResolveTargetPrunedUndo", &chainconfig.RegressionNetParams)
	defer teardown()
	generateBlocksForTest(t, "TestResolveTargetPrunedUndo", engine.chain, 10)

	node8, _ := engine.chain.NodeByHeight(8)
	err := engine.chain.PruneBlockUndo(node8.Hash())
	if err != nil {
		t.Fatalf("TestResolveTargetPrunedUndo: PruneBlockUndo unexpectedly failed: %s", err)
	}

	_, err = resolveTarget(engine.chain, &chainconfig.RegressionNetParams, &Target{RollbackHeight: int32Ptr(7)})
	if !IsErrorCode(err, ErrInvalidParameter) || err.Error() != "Could not roll back to requested height." {
		t.Fatalf("TestResolveTargetPrunedUndo: expected the rollback to be rejected but got %v", err)
	}

	resolved, err := resolveTarget(engine.chain, &chainconfig.RegressionNetParams, &Target{RollbackHeight: int32Ptr(8)})
	if err != nil {
		t.Fatalf("TestResolveTargetPrunedUndo: rollback above the pruned block unexpectedly failed: %s", err)
	}
	if resolved.base != node8 {
		t.Fatalf("TestResolveTargetPrunedUndo: expected base %s but got %s", node8.Hash(), resolved.base.Hash())
	}
}
