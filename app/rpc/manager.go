package rpc

import (
	"net"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chainsnap/chainsnapd/app/rpc/rpccontext"
	"github.com/chainsnap/chainsnapd/domain/blockchain"
	"github.com/chainsnap/chainsnapd/domain/utxosnapshot"
	"github.com/chainsnap/chainsnapd/infrastructure/network/connmanager"
	rpcserver "github.com/chainsnap/chainsnapd/infrastructure/network/rpc"
)

// Config holds the listener and credential settings of the RPC manager.
type Config struct {
	Listeners []string
	User      string
	Pass      string
}

// Manager is an RPC manager
type Manager struct {
	context *rpccontext.Context
	server  *rpcserver.Server
}

// NewManager creates a new RPC Manager
func NewManager(
	cfg *Config,
	chain *blockchain.Chain,
	snapshotEngine *utxosnapshot.Engine,
	connectionManager *connmanager.ConnectionManager,
	shutDownChan chan<- struct{}) (*Manager, error) {

	context := rpccontext.NewContext(chain, snapshotEngine, connectionManager, shutDownChan)
	server, err := rpcserver.NewServer(&rpcserver.Config{
		Listeners:  cfg.Listeners,
		User:       cfg.User,
		Pass:       cfg.Pass,
		Handlers:   bindHandlers(context),
		Collectors: nodeCollectors(context),
	})
	if err != nil {
		return nil, err
	}

	return &Manager{
		context: context,
		server:  server,
	}, nil
}

// Start starts the RPC server.
func (m *Manager) Start() error {
	return m.server.Start()
}

// Stop stops the RPC server.
func (m *Manager) Stop() error {
	return m.server.Stop()
}

// Addresses returns the addresses the RPC server listens on.
func (m *Manager) Addresses() []net.Addr {
	return m.server.Addresses()
}

// nodeCollectors exposes the chain tip and the network state as gauges.
func nodeCollectors(context *rpccontext.Context) []prometheus.Collector {
	return []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "chainsnapd",
			Subsystem: "chain",
			Name:      "tip_height",
			Help:      "Height of the active chain tip",
		}, func() float64 {
			return float64(context.Chain.TipNode().Height())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "chainsnapd",
			Subsystem: "network",
			Name:      "active",
			Help:      "1 when P2P network activity is enabled",
		}, func() float64 {
			if context.ConnectionManager.NetworkActive() {
				return 1
			}
			return 0
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "chainsnapd",
			Subsystem: "network",
			Name:      "connections",
			Help:      "Number of open P2P connections",
		}, func() float64 {
			return float64(context.ConnectionManager.ConnectionCount())
		}),
	}
}
