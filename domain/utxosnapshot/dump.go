package utxosnapshot

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/chainsnap/chainsnapd/domain/blockchain"
	"github.com/chainsnap/chainsnapd/domain/chainconfig"
	"github.com/chainsnap/chainsnapd/infrastructure/logger"
	"github.com/pkg/errors"
)

// Config holds the dependencies of an Engine.
type Config struct {
	// Params are the parameters of the network the chain belongs to.
	Params *chainconfig.Params

	// DataDir is the network data directory. Relative snapshot paths are
	// resolved against it.
	DataDir string

	// Chain is the chain snapshots are taken from.
	Chain Chain

	// Network is suspended while blocks are disconnected for a rollback.
	// It may be nil.
	Network NetworkActivity
}

// Engine writes UTXO set snapshots. Dumps are serialized: only one runs at
// a time.
type Engine struct {
	params  *chainconfig.Params
	dataDir string
	chain   Chain
	network NetworkActivity

	dumpLock sync.Mutex
	closed   bool
}

// New returns a new snapshot Engine.
func New(cfg *Config) *Engine {
	return &Engine{
		params:  cfg.Params,
		dataDir: cfg.DataDir,
		chain:   cfg.Chain,
		network: cfg.Network,
	}
}

// Close waits for a running dump to finish, including the reconnection of
// any blocks it disconnected, and rejects later dumps.
func (e *Engine) Close() {
	e.dumpLock.Lock()
	defer e.dumpLock.Unlock()
	e.closed = true
}

// DumpResult describes a written snapshot.
type DumpResult struct {
	CoinsWritten uint64
	BaseHash     chainhash.Hash
	BaseHeight   int32
	Path         string
	TxOutSetHash chainhash.Hash
	MuHash       string
	ChainTxCount uint64
}

// ResolvePath returns the absolute path a snapshot requested at path is
// written to.
func (e *Engine) ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(e.dataDir, path)
}

// Dump writes the UTXO set as of target to path. Either the complete file
// exists at path afterwards, or nothing does. If blocks have to be
// disconnected to reach target, they are reconnected before Dump returns
// and networking is suspended in the meantime.
func (e *Engine) Dump(path string, target *Target) (*DumpResult, error) {
	e.dumpLock.Lock()
	defer e.dumpLock.Unlock()
	if e.closed {
		return nil, newError(ErrIO, "Snapshot engine is shutting down", nil)
	}

	resolved, err := resolveTarget(e.chain, e.params, target)
	if err != nil {
		return nil, err
	}

	path = e.ResolvePath(path)
	file, err := createAtomicFile(path)
	if err != nil {
		return nil, err
	}

	onEnd := logger.LogAndMeasureExecutionTime(log, "Dump")
	defer onEnd()
	log.Infof("Writing UTXO snapshot at height %d (%s) to %s",
		resolved.base.Height(), resolved.base.Hash(), path)

	var result *serializeResult
	write := func(view blockchain.ReadView) error {
		var err error
		result, err = e.writeView(file, view)
		return err
	}
	if resolved.needsRollback() {
		log.Infof("Rolling back from tip %s at height %d", resolved.tip.Hash(), resolved.tip.Height())
	}
	if resolved.pinned {
		err = withChainAt(e.chain, e.network, resolved.base, write)
	} else {
		err = e.chain.WithReadView(write)
	}
	if err != nil {
		file.Abort()
		return nil, err
	}
	err = file.Commit()
	if err != nil {
		return nil, err
	}

	log.Infof("Wrote %d coins at height %d to %s, txoutset hash %s",
		result.metadata.CoinsCount, result.metadata.BaseHeight, path, result.serializedHash)
	return &DumpResult{
		CoinsWritten: result.metadata.CoinsCount,
		BaseHash:     result.metadata.BaseHash,
		BaseHeight:   result.metadata.BaseHeight,
		Path:         path,
		TxOutSetHash: result.serializedHash,
		MuHash:       result.muHash,
		ChainTxCount: result.metadata.ChainTxCount,
	}, nil
}

func (e *Engine) writeView(out snapshotOutput, view blockchain.ReadView) (*serializeResult, error) {
	base := view.Tip()
	iterator, err := view.CoinIterator()
	if err != nil {
		return nil, errors.Wrap(err, "failed opening the coin iterator")
	}
	defer func() {
		closeErr := iterator.Close()
		if closeErr != nil {
			log.Warnf("Failed closing the coin iterator: %s", closeErr)
		}
	}()

	header := Metadata{
		Network:      e.params.Net,
		BaseHash:     *base.Hash(),
		BaseHeight:   base.Height(),
		ChainTxCount: base.ChainTxCount(),
	}
	result, err := serializeSnapshot(out, header, iterator)
	if err != nil {
		return nil, newError(ErrIO, fmt.Sprintf("Failed writing UTXO snapshot: %s", err), err)
	}
	return result, nil
}
