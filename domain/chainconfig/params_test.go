package chainconfig

import (
	"reflect"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
)

func TestNetworkForMagic(t *testing.T) {
	tests := []struct {
		magic    wire.BitcoinNet
		wantName string
		wantOK   bool
	}{
		{wire.MainNet, "mainnet", true},
		{wire.TestNet3, "testnet3", true},
		{wire.TestNet, "regtest", true},
		{chaincfg.SigNetParams.Net, "signet", true},
		{wire.SimNet, "simnet", true},
		{wire.BitcoinNet(0xdeadbeef), "", false},
	}
	for _, test := range tests {
		params, ok := NetworkForMagic(test.magic)
		if ok != test.wantOK {
			t.Errorf("NetworkForMagic(%s): got ok=%t, want %t", test.magic, ok, test.wantOK)
			continue
		}
		if ok && params.Name != test.wantName {
			t.Errorf("NetworkForMagic(%s): got %s, want %s", test.magic, params.Name, test.wantName)
		}
	}
}

func TestSnapshotHeights(t *testing.T) {
	if !reflect.DeepEqual(MainNetParams.AvailableSnapshotHeights(), []int32{840000}) {
		t.Fatalf("unexpected mainnet snapshot heights %v", MainNetParams.AvailableSnapshotHeights())
	}
	height, ok := SigNetParams.MaxSnapshotHeight()
	if !ok || height != 160000 {
		t.Fatalf("unexpected signet max snapshot height %d (%t)", height, ok)
	}
	if _, ok := RegressionNetParams.MaxSnapshotHeight(); ok {
		t.Fatalf("regtest unexpectedly has a snapshot height")
	}

	params := Params{
		Params:     RegressionNetParams.Params,
		AssumeUTXO: []AssumeUTXOData{{Height: 299}, {Height: 110}, {Height: 200}},
	}
	height, ok = params.MaxSnapshotHeight()
	if !ok || height != 299 {
		t.Fatalf("MaxSnapshotHeight: got %d, want 299", height)
	}
	if !reflect.DeepEqual(params.AvailableSnapshotHeights(), []int32{299, 110, 200}) {
		t.Fatalf("AvailableSnapshotHeights reordered the table: %v", params.AvailableSnapshotHeights())
	}
}

func TestAssumeUTXOLookup(t *testing.T) {
	data, ok := TestNet3Params.AssumeUTXOForHeight(2500000)
	if !ok {
		t.Fatalf("testnet3 snapshot at 2500000 not found")
	}
	if data.ChainTxCount != 66484552 {
		t.Fatalf("unexpected chain tx count %d", data.ChainTxCount)
	}
	if data.BlockHash.String() != "0000000000000093bcb68c03a9a168ae252572d348a2eaeba2cdf9231d73206f" {
		t.Fatalf("block hash lost its display byte order: %s", data.BlockHash)
	}
	byHash, ok := TestNet3Params.AssumeUTXOForBlockHash(&data.BlockHash)
	if !ok || byHash.Height != 2500000 {
		t.Fatalf("lookup by block hash failed")
	}
	if _, ok := MainNetParams.AssumeUTXOForHeight(1); ok {
		t.Fatalf("unexpected snapshot at height 1")
	}
}
