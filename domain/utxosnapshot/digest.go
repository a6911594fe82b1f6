package utxosnapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"hash"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/chainsnap/chainsnapd/domain/utxo"
	"github.com/kaspanet/go-muhash"
	"github.com/pkg/errors"
)

// coinDigest accumulates the two content digests of a coin set:
//   - the serialized hash, a double SHA256 over the coins in canonical order
//   - the MuHash3072 multiset hash, which ignores order.
//
// Both commit to the same per-coin encoding:
//
//	txid[32] | vout u32 | code u32 | amount i64 | CompactSize(len) | script
type coinDigest struct {
	sha    hash.Hash
	muHash *muhash.MuHash
	buf    bytes.Buffer
}

func newCoinDigest() *coinDigest {
	return &coinDigest{
		sha:    sha256.New(),
		muHash: muhash.NewMuHash(),
	}
}

func (d *coinDigest) add(outpoint *wire.OutPoint, entry *utxo.Entry) error {
	d.buf.Reset()
	d.buf.Write(outpoint.Hash[:])
	var fixed [16]byte
	binary.LittleEndian.PutUint32(fixed[0:], outpoint.Index)
	binary.LittleEndian.PutUint32(fixed[4:], entry.Code())
	binary.LittleEndian.PutUint64(fixed[8:], uint64(entry.Amount()))
	d.buf.Write(fixed[:])
	err := wire.WriteVarBytes(&d.buf, 0, entry.PkScript())
	if err != nil {
		return errors.WithStack(err)
	}

	d.sha.Write(d.buf.Bytes())
	d.muHash.Add(d.buf.Bytes())
	return nil
}

// serializedHash returns the double SHA256 of everything added so far.
func (d *coinDigest) serializedHash() chainhash.Hash {
	return chainhash.HashH(d.sha.Sum(nil))
}

// muHashString returns the finalized MuHash in hex.
func (d *coinDigest) muHashString() string {
	finalized := d.muHash.Finalize()
	return finalized.String()
}
