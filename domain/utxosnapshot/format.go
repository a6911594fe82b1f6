package utxosnapshot

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
)

// Snapshot files start with a fixed size header:
//
//	magic[5] | version u16 | network u32 | base hash[32] | base height u32 |
//	coins count u64 | chain tx count u64
//
// All integers are little endian.
const (
	// SnapshotVersion is the version of the snapshot file format.
	SnapshotVersion uint16 = 2

	// MetadataSize is the size of the snapshot header.
	MetadataSize = 5 + 2 + 4 + chainhash.HashSize + 4 + 8 + 8

	// coinsCountOffset is the position of the coins count within the
	// header. It is patched once all coins are written.
	coinsCountOffset = 5 + 2 + 4 + chainhash.HashSize + 4
)

var snapshotMagic = [5]byte{'u', 't', 'x', 'o', 0xff}

// Metadata is the header of a snapshot file.
type Metadata struct {
	Network      wire.BitcoinNet
	BaseHash     chainhash.Hash
	BaseHeight   int32
	CoinsCount   uint64
	ChainTxCount uint64
}

// Serialize writes the header to w.
func (m *Metadata) Serialize(w io.Writer) error {
	buf := make([]byte, MetadataSize)
	copy(buf, snapshotMagic[:])
	binary.LittleEndian.PutUint16(buf[5:], SnapshotVersion)
	binary.LittleEndian.PutUint32(buf[7:], uint32(m.Network))
	copy(buf[11:], m.BaseHash[:])
	binary.LittleEndian.PutUint32(buf[43:], uint32(m.BaseHeight))
	binary.LittleEndian.PutUint64(buf[coinsCountOffset:], m.CoinsCount)
	binary.LittleEndian.PutUint64(buf[55:], m.ChainTxCount)
	_, err := w.Write(buf)
	return errors.WithStack(err)
}

// DeserializeMetadata reads a header written by Serialize.
func DeserializeMetadata(r io.Reader) (*Metadata, error) {
	buf := make([]byte, MetadataSize)
	_, err := io.ReadFull(r, buf)
	if err != nil {
		return nil, errors.Wrap(err, "failed reading snapshot header")
	}
	if !bytes.Equal(buf[:5], snapshotMagic[:]) {
		return nil, errors.Errorf("invalid snapshot magic %x", buf[:5])
	}
	version := binary.LittleEndian.Uint16(buf[5:])
	if version != SnapshotVersion {
		return nil, errors.Errorf("unsupported snapshot version %d, expected %d", version, SnapshotVersion)
	}
	m := &Metadata{
		Network:      wire.BitcoinNet(binary.LittleEndian.Uint32(buf[7:])),
		BaseHeight:   int32(binary.LittleEndian.Uint32(buf[43:])),
		CoinsCount:   binary.LittleEndian.Uint64(buf[coinsCountOffset:]),
		ChainTxCount: binary.LittleEndian.Uint64(buf[55:]),
	}
	copy(m.BaseHash[:], buf[11:43])
	return m, nil
}

// patchCoinsCount overwrites the coins count of a header written at the
// start of w.
func patchCoinsCount(w io.WriterAt, coinsCount uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], coinsCount)
	_, err := w.WriteAt(buf[:], coinsCountOffset)
	return errors.WithStack(err)
}
