package utxosnapshot

import (
	"bufio"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/chainsnap/chainsnapd/domain/utxo"
	"github.com/pkg/errors"
)

// snapshotOutput is the destination of a snapshot. The header is written
// first through Write and patched through WriteAt.
type snapshotOutput interface {
	io.Writer
	io.WriterAt
}

// serializeResult describes a written coin set.
type serializeResult struct {
	metadata       Metadata
	serializedHash chainhash.Hash
	muHash         string
}

type coinRecord struct {
	index uint32
	entry *utxo.Entry
}

// serializeSnapshot writes header followed by the coins of iterator, which
// must yield them in canonical order. Coins are grouped by transaction:
//
//	txid[32] | CompactSize(n) | n * (CompactSize(vout) | entry)
//
// where entry is the utxo.SerializeEntry encoding. The header's coins
// count is patched to the number of coins actually written.
func serializeSnapshot(out snapshotOutput, header Metadata, iterator utxo.Iterator) (*serializeResult, error) {
	writer := bufio.NewWriterSize(out, 1<<20)
	header.CoinsCount = 0
	err := header.Serialize(writer)
	if err != nil {
		return nil, err
	}

	digest := newCoinDigest()
	var coinsCount uint64
	var currentTxID chainhash.Hash
	var group []coinRecord
	var lastOutpoint *wire.OutPoint

	flushGroup := func() error {
		if len(group) == 0 {
			return nil
		}
		err := writeCoinGroup(writer, &currentTxID, group)
		group = group[:0]
		return err
	}

	for iterator.Next() {
		outpoint, entry, err := iterator.Get()
		if err != nil {
			return nil, err
		}
		if lastOutpoint != nil && !utxo.Less(lastOutpoint, outpoint) {
			return nil, errors.Errorf("coin %s does not follow %s in canonical order", outpoint, lastOutpoint)
		}
		lastOutpoint = outpoint

		if len(group) > 0 && outpoint.Hash != currentTxID {
			err := flushGroup()
			if err != nil {
				return nil, err
			}
		}
		currentTxID = outpoint.Hash
		group = append(group, coinRecord{index: outpoint.Index, entry: entry})

		err = digest.add(outpoint, entry)
		if err != nil {
			return nil, err
		}
		coinsCount++
		if coinsCount%1000000 == 0 {
			log.Infof("Serialized %d coins", coinsCount)
		}
	}
	err = flushGroup()
	if err != nil {
		return nil, err
	}
	err = writer.Flush()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	err = patchCoinsCount(out, coinsCount)
	if err != nil {
		return nil, err
	}

	header.CoinsCount = coinsCount
	return &serializeResult{
		metadata:       header,
		serializedHash: digest.serializedHash(),
		muHash:         digest.muHashString(),
	}, nil
}

func writeCoinGroup(w io.Writer, txID *chainhash.Hash, group []coinRecord) error {
	_, err := w.Write(txID[:])
	if err != nil {
		return errors.WithStack(err)
	}
	err = wire.WriteVarInt(w, 0, uint64(len(group)))
	if err != nil {
		return errors.WithStack(err)
	}
	for _, coin := range group {
		err := wire.WriteVarInt(w, 0, uint64(coin.index))
		if err != nil {
			return errors.WithStack(err)
		}
		err = utxo.SerializeEntry(w, coin.entry)
		if err != nil {
			return err
		}
	}
	return nil
}
