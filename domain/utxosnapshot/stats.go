package utxosnapshot

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/chainsnap/chainsnapd/domain/blockchain"
)

// bogoSizeOverhead approximates the per-coin storage overhead: outpoint,
// height, coinbase flag, amount and script length.
const bogoSizeOverhead = 32 + 4 + 4 + 8 + 2

// TxOutSetInfo summarizes the UTXO set at a block.
type TxOutSetInfo struct {
	Height         int32
	BestBlock      chainhash.Hash
	TxOuts         uint64
	Transactions   uint64
	BogoSize       uint64
	TotalAmount    int64
	HashSerialized chainhash.Hash
	MuHash         string
}

// TxOutSetInfo computes statistics of the UTXO set at the current tip. Its
// HashSerialized equals the TxOutSetHash of a snapshot taken at the same
// tip.
func (e *Engine) TxOutSetInfo() (*TxOutSetInfo, error) {
	var info *TxOutSetInfo
	err := e.chain.WithReadView(func(view blockchain.ReadView) error {
		var err error
		info, err = computeTxOutSetInfo(view)
		return err
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func computeTxOutSetInfo(view blockchain.ReadView) (info *TxOutSetInfo, err error) {
	iterator, err := view.CoinIterator()
	if err != nil {
		return nil, err
	}
	defer func() {
		closeErr := iterator.Close()
		if err == nil {
			err = closeErr
		}
	}()

	tip := view.Tip()
	info = &TxOutSetInfo{
		Height:    tip.Height(),
		BestBlock: *tip.Hash(),
	}
	digest := newCoinDigest()
	var lastTxID *chainhash.Hash
	for iterator.Next() {
		outpoint, entry, err := iterator.Get()
		if err != nil {
			return nil, err
		}
		if lastTxID == nil || *lastTxID != outpoint.Hash {
			info.Transactions++
			lastTxID = &outpoint.Hash
		}
		info.TxOuts++
		info.BogoSize += bogoSizeOverhead + uint64(len(entry.PkScript()))
		info.TotalAmount += entry.Amount()
		err = digest.add(outpoint, entry)
		if err != nil {
			return nil, err
		}
	}
	info.HashSerialized = digest.serializedHash()
	info.MuHash = digest.muHashString()
	return info, nil
}
