package utxosnapshot

import (
	"bufio"
	"io"
	"os"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/chainsnap/chainsnapd/domain/chainconfig"
	"github.com/chainsnap/chainsnapd/domain/utxo"
	"github.com/pkg/errors"
)

// Reader iterates the coins of a snapshot file in file order. It
// implements utxo.Iterator.
type Reader struct {
	Metadata *Metadata

	file   *os.File
	reader *bufio.Reader

	coinsRead      uint64
	groupRemaining uint64
	groupTxID      chainhash.Hash

	outpoint wire.OutPoint
	entry    *utxo.Entry
	err      error
	isClosed bool
}

// OpenReader opens a snapshot file and reads its header.
func OpenReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	reader := bufio.NewReaderSize(file, 1<<20)
	metadata, err := DeserializeMetadata(reader)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &Reader{Metadata: metadata, file: file, reader: reader}, nil
}

// Next reads the next coin. It returns false at the end of the coins or on
// error, in which case Err returns the error.
func (r *Reader) Next() bool {
	if r.isClosed || r.err != nil || r.coinsRead == r.Metadata.CoinsCount {
		return false
	}
	r.err = r.readCoin()
	if r.err != nil {
		return false
	}
	r.coinsRead++
	return true
}

func (r *Reader) readCoin() error {
	if r.groupRemaining == 0 {
		_, err := io.ReadFull(r.reader, r.groupTxID[:])
		if err != nil {
			return errors.Wrapf(err, "failed reading txid after %d coins", r.coinsRead)
		}
		r.groupRemaining, err = wire.ReadVarInt(r.reader, 0)
		if err != nil {
			return errors.Wrapf(err, "failed reading coins count of %s", r.groupTxID)
		}
		if r.groupRemaining == 0 {
			return errors.Errorf("transaction %s has an empty coin group", r.groupTxID)
		}
		if r.groupRemaining > r.Metadata.CoinsCount-r.coinsRead {
			return errors.Errorf("transaction %s has %d coins, more than the %d left in the snapshot",
				r.groupTxID, r.groupRemaining, r.Metadata.CoinsCount-r.coinsRead)
		}
	}
	index, err := wire.ReadVarInt(r.reader, 0)
	if err != nil {
		return errors.Wrapf(err, "failed reading output index of %s", r.groupTxID)
	}
	if index > uint64(^uint32(0)) {
		return errors.Errorf("output index %d of %s overflows 32 bits", index, r.groupTxID)
	}
	entry, err := utxo.DeserializeEntry(r.reader)
	if err != nil {
		return errors.Wrapf(err, "failed reading coin %s:%d", r.groupTxID, index)
	}
	r.groupRemaining--
	r.outpoint = wire.OutPoint{Hash: r.groupTxID, Index: uint32(index)}
	r.entry = entry
	return nil
}

// Get returns the current coin.
func (r *Reader) Get() (*wire.OutPoint, *utxo.Entry, error) {
	if r.isClosed {
		return nil, nil, errors.New("cannot get from a closed snapshot reader")
	}
	if r.err != nil {
		return nil, nil, r.err
	}
	outpoint := r.outpoint
	return &outpoint, r.entry, nil
}

// Err returns the error that stopped iteration, if any.
func (r *Reader) Err() error {
	return r.err
}

// Close closes the snapshot file.
func (r *Reader) Close() error {
	if r.isClosed {
		return errors.New("cannot close an already closed snapshot reader")
	}
	r.isClosed = true
	return errors.WithStack(r.file.Close())
}

// VerifyResult is the outcome of verifying a snapshot file.
type VerifyResult struct {
	Metadata        *Metadata
	TxOutSetHash    chainhash.Hash
	MuHash          string
	Transactions    uint64
	Network         string
	AssumeUTXOKnown bool
}

// VerifyFile reads the snapshot at path completely, checking its coin
// count and canonical order, and recomputes its content digests. If the
// header names a known network that lists the snapshot's base block, the
// recomputed hash and transaction count must match that entry.
func VerifyFile(path string) (result *VerifyResult, err error) {
	reader, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		closeErr := reader.Close()
		if err == nil {
			err = closeErr
		}
	}()

	metadata := reader.Metadata
	digest := newCoinDigest()
	var transactions uint64
	var lastOutpoint *wire.OutPoint
	for reader.Next() {
		outpoint, entry, err := reader.Get()
		if err != nil {
			return nil, err
		}
		if lastOutpoint != nil && !utxo.Less(lastOutpoint, outpoint) {
			return nil, errors.Errorf("coin %s does not follow %s in canonical order", outpoint, lastOutpoint)
		}
		if lastOutpoint == nil || lastOutpoint.Hash != outpoint.Hash {
			transactions++
		}
		lastOutpoint = outpoint
		err = digest.add(outpoint, entry)
		if err != nil {
			return nil, err
		}
	}
	if reader.Err() != nil {
		return nil, reader.Err()
	}
	_, err = reader.reader.ReadByte()
	if err != io.EOF {
		return nil, errors.Errorf("snapshot has trailing data after %d coins", metadata.CoinsCount)
	}

	result = &VerifyResult{
		Metadata:     metadata,
		TxOutSetHash: digest.serializedHash(),
		MuHash:       digest.muHashString(),
		Transactions: transactions,
	}
	params, ok := chainconfig.NetworkForMagic(metadata.Network)
	if !ok {
		return result, nil
	}
	result.Network = params.Name
	assumeUTXO, ok := params.AssumeUTXOForBlockHash(&metadata.BaseHash)
	if !ok {
		return result, nil
	}
	result.AssumeUTXOKnown = true
	if assumeUTXO.Height != metadata.BaseHeight {
		return nil, errors.Errorf("snapshot base height %d differs from the expected %d",
			metadata.BaseHeight, assumeUTXO.Height)
	}
	if assumeUTXO.HashSerialized != result.TxOutSetHash {
		return nil, errors.Errorf("snapshot content hash %s differs from the expected %s",
			result.TxOutSetHash, assumeUTXO.HashSerialized)
	}
	if assumeUTXO.ChainTxCount != metadata.ChainTxCount {
		return nil, errors.Errorf("snapshot chain tx count %d differs from the expected %d",
			metadata.ChainTxCount, assumeUTXO.ChainTxCount)
	}
	return result, nil
}
