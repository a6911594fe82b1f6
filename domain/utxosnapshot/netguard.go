package utxosnapshot

// NetworkActivity switches peer networking on and off.
type NetworkActivity interface {
	NetworkActive() bool
	SetNetworkActive(active bool)
}

// withSuspendedNetwork runs fn with networking disabled. Networking is
// re-enabled afterwards only if this call disabled it, so an operator's
// choice to keep the network off survives the dump.
func withSuspendedNetwork(network NetworkActivity, fn func() error) error {
	if network == nil || !network.NetworkActive() {
		return fn()
	}

	log.Infof("Suspending network activity for the duration of the rollback")
	network.SetNetworkActive(false)
	defer func() {
		network.SetNetworkActive(true)
		log.Infof("Network activity resumed")
	}()
	return fn()
}
