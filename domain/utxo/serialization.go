package utxo

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
)

// OutpointKeySize is the size of a serialized outpoint key.
const OutpointKeySize = chainhash.HashSize + 4

// maxScriptSize bounds the script length accepted when decoding entries.
const maxScriptSize = 10000

// outpointIndexByteOrder is big endian so that keys of the same
// transaction sort by ascending output index.
var outpointIndexByteOrder = binary.BigEndian

// OutpointKey serializes an outpoint into a database key. Keys sort by txid
// bytes in internal order, then by output index.
func OutpointKey(outpoint *wire.OutPoint) []byte {
	key := make([]byte, OutpointKeySize)
	copy(key, outpoint.Hash[:])
	outpointIndexByteOrder.PutUint32(key[chainhash.HashSize:], outpoint.Index)
	return key
}

// OutpointFromKey is the inverse of OutpointKey.
func OutpointFromKey(key []byte) (*wire.OutPoint, error) {
	if len(key) != OutpointKeySize {
		return nil, errors.Errorf("outpoint key has %d bytes, expected %d", len(key), OutpointKeySize)
	}
	outpoint := &wire.OutPoint{Index: outpointIndexByteOrder.Uint32(key[chainhash.HashSize:])}
	copy(outpoint.Hash[:], key[:chainhash.HashSize])
	return outpoint, nil
}

// SerializeEntry writes an entry as
// CompactSize(code) | int64 amount (LE) | CompactSize(len(script)) | script.
func SerializeEntry(w io.Writer, entry *Entry) error {
	err := wire.WriteVarInt(w, 0, uint64(entry.Code()))
	if err != nil {
		return errors.WithStack(err)
	}
	var amount [8]byte
	binary.LittleEndian.PutUint64(amount[:], uint64(entry.amount))
	_, err = w.Write(amount[:])
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(wire.WriteVarBytes(w, 0, entry.pkScript))
}

// DeserializeEntry reads an entry written by SerializeEntry.
func DeserializeEntry(r io.Reader) (*Entry, error) {
	code, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed reading entry code")
	}
	if code > uint64(^uint32(0)) {
		return nil, errors.Errorf("entry code %d overflows 32 bits", code)
	}
	var amount [8]byte
	_, err = io.ReadFull(r, amount[:])
	if err != nil {
		return nil, errors.Wrap(err, "failed reading entry amount")
	}
	pkScript, err := wire.ReadVarBytes(r, 0, maxScriptSize, "pkScript")
	if err != nil {
		return nil, errors.Wrap(err, "failed reading entry script")
	}
	return &Entry{
		amount:      int64(binary.LittleEndian.Uint64(amount[:])),
		pkScript:    pkScript,
		blockHeight: int32(code >> 1),
		isCoinbase:  code&1 == 1,
	}, nil
}

// SerializeEntryToBytes returns the SerializeEntry encoding of entry.
func SerializeEntryToBytes(entry *Entry) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 16+len(entry.pkScript)))
	err := SerializeEntry(buf, entry)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeserializeEntryFromBytes decodes an entry and rejects trailing bytes.
func DeserializeEntryFromBytes(data []byte) (*Entry, error) {
	r := bytes.NewReader(data)
	entry, err := DeserializeEntry(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after serialized entry", r.Len())
	}
	return entry, nil
}
