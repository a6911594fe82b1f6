package rpccontext

import (
	"time"

	"github.com/chainsnap/chainsnapd/domain/blockchain"
	"github.com/chainsnap/chainsnapd/domain/utxosnapshot"
	"github.com/chainsnap/chainsnapd/infrastructure/network/connmanager"
)

// Context represents the RPC context
type Context struct {
	Chain             *blockchain.Chain
	SnapshotEngine    *utxosnapshot.Engine
	ConnectionManager *connmanager.ConnectionManager
	ShutDownChan      chan<- struct{}
	StartTime         time.Time
}

// NewContext creates a new RPC context
func NewContext(chain *blockchain.Chain,
	snapshotEngine *utxosnapshot.Engine,
	connectionManager *connmanager.ConnectionManager,
	shutDownChan chan<- struct{}) *Context {

	return &Context{
		Chain:             chain,
		SnapshotEngine:    snapshotEngine,
		ConnectionManager: connectionManager,
		ShutDownChan:      shutDownChan,
		StartTime:         time.Now(),
	}
}
