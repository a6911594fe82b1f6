package config

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/chainsnap/chainsnapd/domain/chainconfig"
)

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	Testnet bool `long:"testnet" description:"Use the test network"`
	Regtest bool `long:"regtest" description:"Use the regression test network"`
	Signet  bool `long:"signet" description:"Use the signet test network"`
	Simnet  bool `long:"simnet" description:"Use the simulation test network"`

	ActiveNetParams *chainconfig.Params
}

// ResolveNetwork parses the network command line argument and sets
// ActiveNetParams accordingly. It returns an error if more than one network
// was selected. parser may be nil.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	// Default is mainnet.
	networkFlags.ActiveNetParams = &chainconfig.MainNetParams

	numNets := 0
	if networkFlags.Testnet {
		numNets++
		networkFlags.ActiveNetParams = &chainconfig.TestNet3Params
	}
	if networkFlags.Regtest {
		numNets++
		networkFlags.ActiveNetParams = &chainconfig.RegressionNetParams
	}
	if networkFlags.Signet {
		numNets++
		networkFlags.ActiveNetParams = &chainconfig.SigNetParams
	}
	if networkFlags.Simnet {
		numNets++
		networkFlags.ActiveNetParams = &chainconfig.SimNetParams
	}
	if numNets > 1 {
		message := "Multiple networks parameters (testnet, regtest, signet, simnet) cannot be used " +
			"together. Please choose only one network"
		err := errors.New(message)
		fmt.Fprintln(os.Stderr, err)
		if parser != nil {
			parser.WriteHelp(os.Stderr)
		}
		return err
	}
	return nil
}

// NetParams returns the selected network parameters.
func (networkFlags *NetworkFlags) NetParams() *chainconfig.Params {
	return networkFlags.ActiveNetParams
}
