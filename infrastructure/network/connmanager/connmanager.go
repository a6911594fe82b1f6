package connmanager

import (
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Config holds the settings of a ConnectionManager.
type Config struct {
	// Listeners are the addresses to accept peer connections on.
	Listeners []string

	// NetworkActive is the initial state of network activity.
	NetworkActive bool
}

// ConnectionManager owns the peer listeners and connections of the node,
// and the switch that turns peer networking on and off.
type ConnectionManager struct {
	cfg *Config

	listeners     []net.Listener
	networkActive uint32
	stop          uint32

	connectionsLock sync.Mutex
	connections     connectionSet

	loopsWaitGroup sync.WaitGroup
}

// New instantiates a new instance of a ConnectionManager
func New(cfg *Config) *ConnectionManager {
	c := &ConnectionManager{
		cfg:         cfg,
		connections: connectionSet{},
	}
	if cfg.NetworkActive {
		c.networkActive = 1
	}
	return c
}

// Start opens the configured listeners and begins accepting connections
func (c *ConnectionManager) Start() error {
	for _, address := range c.cfg.Listeners {
		listener, err := net.Listen("tcp", address)
		if err != nil {
			c.closeListeners()
			return errors.Wrapf(err, "failed listening on %s", address)
		}
		log.Infof("P2P server listening on %s", listener.Addr())
		c.listeners = append(c.listeners, listener)
	}
	for _, listener := range c.listeners {
		listener := listener
		c.loopsWaitGroup.Add(1)
		spawn("ConnectionManager.acceptLoop", func() {
			defer c.loopsWaitGroup.Done()
			c.acceptLoop(listener)
		})
	}
	return nil
}

// Stop halts the operation of the ConnectionManager
func (c *ConnectionManager) Stop() {
	if !atomic.CompareAndSwapUint32(&c.stop, 0, 1) {
		return
	}
	c.closeListeners()
	c.disconnectAll()
	c.loopsWaitGroup.Wait()
}

func (c *ConnectionManager) closeListeners() {
	for _, listener := range c.listeners {
		err := listener.Close()
		if err != nil {
			log.Warnf("Error closing listener %s: %s", listener.Addr(), err)
		}
	}
}

// ListenAddresses returns the addresses the manager accepts connections on
func (c *ConnectionManager) ListenAddresses() []net.Addr {
	addresses := make([]net.Addr, len(c.listeners))
	for i, listener := range c.listeners {
		addresses[i] = listener.Addr()
	}
	return addresses
}

// NetworkActive returns whether peer networking is enabled
func (c *ConnectionManager) NetworkActive() bool {
	return atomic.LoadUint32(&c.networkActive) == 1
}

// SetNetworkActive enables or disables peer networking. Disabling it drops
// all connections, and inbound connections are refused until it is enabled
// again.
func (c *ConnectionManager) SetNetworkActive(active bool) {
	var value uint32
	if active {
		value = 1
	}

	c.connectionsLock.Lock()
	defer c.connectionsLock.Unlock()
	previous := atomic.SwapUint32(&c.networkActive, value)
	if previous == value {
		return
	}
	log.Infof("SetNetworkActive: %t", active)
	if !active {
		c.disconnectAllLocked()
	}
}

// ConnectionCount returns the count of the connected connections
func (c *ConnectionManager) ConnectionCount() int {
	c.connectionsLock.Lock()
	defer c.connectionsLock.Unlock()
	return len(c.connections)
}

func (c *ConnectionManager) disconnectAll() {
	c.connectionsLock.Lock()
	defer c.connectionsLock.Unlock()
	c.disconnectAllLocked()
}

func (c *ConnectionManager) disconnectAllLocked() {
	for _, connection := range c.connections {
		// Ignore errors since the connection might be in the midst of disconnecting
		_ = connection.Close()
		c.connections.remove(connection)
	}
}

func (c *ConnectionManager) acceptLoop(listener net.Listener) {
	for {
		connection, err := listener.Accept()
		if err != nil {
			if atomic.LoadUint32(&c.stop) == 1 {
				return
			}
			log.Errorf("Error accepting connection on %s: %s", listener.Addr(), err)
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		c.handleInboundConnection(connection)
	}
}

func (c *ConnectionManager) handleInboundConnection(connection net.Conn) {
	c.connectionsLock.Lock()
	if !c.NetworkActive() || atomic.LoadUint32(&c.stop) == 1 {
		c.connectionsLock.Unlock()
		log.Debugf("Refusing inbound connection from %s since network activity is disabled",
			connection.RemoteAddr())
		_ = connection.Close()
		return
	}
	c.connections.add(connection)
	c.connectionsLock.Unlock()
	log.Infof("Accepted inbound connection from %s", connection.RemoteAddr())

	spawn("ConnectionManager.handleInboundConnection", func() {
		// No protocol is spoken; the connection lives until either side
		// closes it.
		_, _ = io.Copy(io.Discard, connection)
		c.connectionsLock.Lock()
		if existing, ok := c.connections.get(connection.RemoteAddr().String()); ok && existing == connection {
			c.connections.remove(connection)
		}
		c.connectionsLock.Unlock()
		_ = connection.Close()
		log.Debugf("Connection to %s closed", connection.RemoteAddr())
	})
}
