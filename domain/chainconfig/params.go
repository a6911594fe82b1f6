// Package chainconfig defines the per-network parameters of the node: the
// btcd consensus parameters plus the table of known UTXO snapshots.
package chainconfig

import (
	"sort"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// AssumeUTXOData commits to the UTXO set at a given height of a network. A
// snapshot whose base block and content hash match an entry can be trusted
// without replaying the chain.
type AssumeUTXOData struct {
	Height         int32
	HashSerialized chainhash.Hash
	ChainTxCount   uint64
	BlockHash      chainhash.Hash
}

// Params wraps the btcd chain parameters of a network.
type Params struct {
	*chaincfg.Params

	// AssumeUTXO lists the known snapshots of the network in ascending
	// height order.
	AssumeUTXO []AssumeUTXOData

	// GenerateSupported is set on networks where blocks may be mined on
	// demand through RPC.
	GenerateSupported bool

	// RPCPort is the default port of the RPC listener.
	RPCPort string
}

// AvailableSnapshotHeights returns the heights of all known snapshots.
func (p *Params) AvailableSnapshotHeights() []int32 {
	heights := make([]int32, 0, len(p.AssumeUTXO))
	for _, data := range p.AssumeUTXO {
		heights = append(heights, data.Height)
	}
	return heights
}

// MaxSnapshotHeight returns the highest known snapshot height, and false if
// the network has none.
func (p *Params) MaxSnapshotHeight() (int32, bool) {
	heights := p.AvailableSnapshotHeights()
	if len(heights) == 0 {
		return 0, false
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })
	return heights[len(heights)-1], true
}

// AssumeUTXOForHeight returns the snapshot commitment at height, if any.
func (p *Params) AssumeUTXOForHeight(height int32) (*AssumeUTXOData, bool) {
	for i := range p.AssumeUTXO {
		if p.AssumeUTXO[i].Height == height {
			return &p.AssumeUTXO[i], true
		}
	}
	return nil, false
}

// AssumeUTXOForBlockHash returns the snapshot commitment based on the given
// block, if any.
func (p *Params) AssumeUTXOForBlockHash(blockHash *chainhash.Hash) (*AssumeUTXOData, bool) {
	for i := range p.AssumeUTXO {
		if p.AssumeUTXO[i].BlockHash.IsEqual(blockHash) {
			return &p.AssumeUTXO[i], true
		}
	}
	return nil, false
}

// newHashFromStr converts a byte-reversed hex string to a hash, panicking on
// malformed input. It is only used with hard-coded values.
func newHashFromStr(hexStr string) chainhash.Hash {
	hash, err := chainhash.NewHashFromStr(hexStr)
	if err != nil {
		panic(err)
	}
	return *hash
}

// MainNetParams are the parameters of the main network.
var MainNetParams = Params{
	Params:  &chaincfg.MainNetParams,
	RPCPort: "8332",
	AssumeUTXO: []AssumeUTXOData{
		{
			Height:         840000,
			HashSerialized: newHashFromStr("a2a5521b1b5ab65f67818e5e8eccabb7171a517f9e2382208f77687310768f96"),
			ChainTxCount:   991032194,
			BlockHash:      newHashFromStr("0000000000000000000320283a032748cef8227873ff4872689bf23f1cda83a5"),
		},
	},
}

// TestNet3Params are the parameters of the version 3 test network.
var TestNet3Params = Params{
	Params:  &chaincfg.TestNet3Params,
	RPCPort: "18332",
	AssumeUTXO: []AssumeUTXOData{
		{
			Height:         2500000,
			HashSerialized: newHashFromStr("f841584909f68e47897952345234e37fcd9128cd818f41ee6c3ca68db8071be7"),
			ChainTxCount:   66484552,
			BlockHash:      newHashFromStr("0000000000000093bcb68c03a9a168ae252572d348a2eaeba2cdf9231d73206f"),
		},
	},
}

// SigNetParams are the parameters of the default signet.
var SigNetParams = Params{
	Params:  &chaincfg.SigNetParams,
	RPCPort: "38332",
	AssumeUTXO: []AssumeUTXOData{
		{
			Height:         160000,
			HashSerialized: newHashFromStr("fe0a44309b74d6b5883d246cb419c6221bcccf0b308c9b59b7d70783dbdf928a"),
			ChainTxCount:   2289496,
			BlockHash:      newHashFromStr("0000003ca3c99aff040f2563c2ad8f8ec88bd0fd6b8f0895cfaf1ef90353a62c"),
		},
	},
}

// RegressionNetParams are the parameters of the regression test network.
// Local regtest chains differ from node to node, so no snapshot is known.
var RegressionNetParams = Params{
	Params:            &chaincfg.RegressionNetParams,
	GenerateSupported: true,
	RPCPort:           "18443",
}

// SimNetParams are the parameters of the simulation network.
var SimNetParams = Params{
	Params:            &chaincfg.SimNetParams,
	GenerateSupported: true,
	RPCPort:           "18556",
}

var allParams = []*Params{&MainNetParams, &TestNet3Params, &SigNetParams, &RegressionNetParams, &SimNetParams}

// NetworkForMagic returns the parameters of the network whose message start
// bytes equal magic.
func NetworkForMagic(magic wire.BitcoinNet) (*Params, bool) {
	for _, params := range allParams {
		if params.Net == magic {
			return params, true
		}
	}
	return nil, false
}

// NetworkByName returns the parameters of the named network.
func NetworkByName(name string) (*Params, bool) {
	for _, params := range allParams {
		if params.Name == name {
			return params, true
		}
	}
	return nil, false
}
