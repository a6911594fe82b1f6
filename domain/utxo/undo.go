package utxo

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
)

// SpentOutput records an output consumed by a block together with the entry
// it held, so the spend can be reverted.
type SpentOutput struct {
	Outpoint wire.OutPoint
	Entry    *Entry
}

// BlockUndo is the spend journal of a block: every output spent by the
// block's transactions, in the order the inputs appear in the block.
type BlockUndo struct {
	SpentOutputs []SpentOutput
}

// maxSpentOutputsPerBlock bounds the journal size accepted when decoding.
const maxSpentOutputsPerBlock = wire.MaxBlockPayload / 41

// Serialize writes the journal as
// CompactSize(n) | n × ( txid[32] | vout uint32 LE | entry ).
func (undo *BlockUndo) Serialize(w io.Writer) error {
	err := wire.WriteVarInt(w, 0, uint64(len(undo.SpentOutputs)))
	if err != nil {
		return errors.WithStack(err)
	}
	for _, spent := range undo.SpentOutputs {
		_, err := w.Write(spent.Outpoint.Hash[:])
		if err != nil {
			return errors.WithStack(err)
		}
		var index [4]byte
		binary.LittleEndian.PutUint32(index[:], spent.Outpoint.Index)
		_, err = w.Write(index[:])
		if err != nil {
			return errors.WithStack(err)
		}
		err = SerializeEntry(w, spent.Entry)
		if err != nil {
			return err
		}
	}
	return nil
}

// Bytes returns the serialized journal.
func (undo *BlockUndo) Bytes() ([]byte, error) {
	buf := &bytes.Buffer{}
	err := undo.Serialize(buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeserializeBlockUndo decodes a journal written by BlockUndo.Serialize.
func DeserializeBlockUndo(data []byte) (*BlockUndo, error) {
	r := bytes.NewReader(data)
	count, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed reading spent output count")
	}
	if count > maxSpentOutputsPerBlock {
		return nil, errors.Errorf("spent output count %d exceeds maximum %d", count, maxSpentOutputsPerBlock)
	}
	undo := &BlockUndo{SpentOutputs: make([]SpentOutput, 0, count)}
	for i := uint64(0); i < count; i++ {
		var hash chainhash.Hash
		_, err := io.ReadFull(r, hash[:])
		if err != nil {
			return nil, errors.Wrapf(err, "failed reading txid of spent output %d", i)
		}
		var index [4]byte
		_, err = io.ReadFull(r, index[:])
		if err != nil {
			return nil, errors.Wrapf(err, "failed reading index of spent output %d", i)
		}
		entry, err := DeserializeEntry(r)
		if err != nil {
			return nil, errors.Wrapf(err, "failed reading entry of spent output %d", i)
		}
		undo.SpentOutputs = append(undo.SpentOutputs, SpentOutput{
			Outpoint: *wire.NewOutPoint(&hash, binary.LittleEndian.Uint32(index[:])),
			Entry:    entry,
		})
	}
	if r.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after block undo data", r.Len())
	}
	return undo, nil
}
