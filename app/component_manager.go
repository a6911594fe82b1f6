package app

import (
	"fmt"
	"sync/atomic"

	"github.com/chainsnap/chainsnapd/app/rpc"
	"github.com/chainsnap/chainsnapd/domain/blockchain"
	"github.com/chainsnap/chainsnapd/domain/utxosnapshot"
	"github.com/chainsnap/chainsnapd/infrastructure/config"
	"github.com/chainsnap/chainsnapd/infrastructure/db/database"
	"github.com/chainsnap/chainsnapd/infrastructure/network/connmanager"
	"github.com/chainsnap/chainsnapd/util/panics"
)

// ComponentManager is a wrapper for all the chainsnapd services
type ComponentManager struct {
	cfg               *config.Config
	chain             *blockchain.Chain
	snapshotEngine    *utxosnapshot.Engine
	connectionManager *connmanager.ConnectionManager
	rpcManager        *rpc.Manager

	started, shutdown int32
}

// Start launches all the chainsnapd services.
func (a *ComponentManager) Start() {
	// Already started?
	if atomic.AddInt32(&a.started, 1) != 1 {
		return
	}

	log.Trace("Starting chainsnapd")

	err := a.connectionManager.Start()
	if err != nil {
		panics.Exit(log, fmt.Sprintf("Error starting the connection manager: %+v", err))
	}

	if a.rpcManager != nil {
		err := a.rpcManager.Start()
		if err != nil {
			panics.Exit(log, fmt.Sprintf("Error starting the RPC server: %+v", err))
		}
	}

	tip := a.chain.TipNode()
	log.Infof("Chain tip is %s at height %d", tip.Hash(), tip.Height())
}

// Stop gracefully shuts down all the chainsnapd services.
func (a *ComponentManager) Stop() {
	// Make sure this only happens once.
	if atomic.AddInt32(&a.shutdown, 1) != 1 {
		log.Infof("chainsnapd is already in the process of shutting down")
		return
	}

	log.Warnf("chainsnapd shutting down")

	if a.rpcManager != nil {
		err := a.rpcManager.Stop()
		if err != nil {
			log.Errorf("Error stopping the RPC server: %+v", err)
		}
	}

	// RPC handlers may still be running after a timed out server shutdown.
	// A rollback dump must reconnect its blocks before the databases close.
	a.snapshotEngine.Close()
	a.chain.Close()

	a.connectionManager.Stop()
}

// NewComponentManager returns a new ComponentManager instance.
// Use Start() to begin all services within this ComponentManager
func NewComponentManager(cfg *config.Config, db database.Database, blockStore *blockchain.BlockStore,
	interrupt chan<- struct{}) (*ComponentManager, error) {

	chain, err := blockchain.New(&blockchain.Config{
		Params:     cfg.NetParams(),
		Database:   db,
		BlockStore: blockStore,
	})
	if err != nil {
		return nil, err
	}

	connectionManager := connmanager.New(&connmanager.Config{
		Listeners:     cfg.Listeners,
		NetworkActive: cfg.NetworkActiveAtStartup,
	})

	snapshotEngine := utxosnapshot.New(&utxosnapshot.Config{
		Params:  cfg.NetParams(),
		DataDir: cfg.DataDir,
		Chain:   chain,
		Network: connectionManager,
	})

	var rpcManager *rpc.Manager
	if !cfg.DisableRPC {
		rpcManager, err = rpc.NewManager(&rpc.Config{
			Listeners: cfg.RPCListeners,
			User:      cfg.RPCUser,
			Pass:      cfg.RPCPass,
		}, chain, snapshotEngine, connectionManager, interrupt)
		if err != nil {
			return nil, err
		}
	}

	return &ComponentManager{
		cfg:               cfg,
		chain:             chain,
		snapshotEngine:    snapshotEngine,
		connectionManager: connectionManager,
		rpcManager:        rpcManager,
	}, nil
}
