package main

import (
	"net"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/chainsnap/chainsnapd/infrastructure/config"
)

var (
	defaultRPCServer        = "localhost"
	defaultTimeout   uint64 = 600
	defaultConfigFile       = filepath.Join(btcutil.AppDataDir("snapctl", false), "snapctl.conf")
)

type configFlags struct {
	ConfigFile           string `short:"C" long:"configfile" description:"Path to configuration file"`
	RPCServer            string `short:"s" long:"rpcserver" description:"RPC server to connect to"`
	RPCUser              string `short:"u" long:"rpcuser" description:"RPC username"`
	RPCPass              string `short:"P" long:"rpcpass" default-mask:"-" description:"RPC password"`
	Timeout              uint64 `short:"t" long:"timeout" description:"Timeout for the request (in seconds)"`
	ListCommands         bool   `short:"l" long:"list-commands" description:"List all commands and exit"`
	CommandAndParameters []string
	config.NetworkFlags
}

func parseConfig(args []string) (*configFlags, error) {
	cfg := &configFlags{
		ConfigFile: defaultConfigFile,
		RPCServer:  defaultRPCServer,
		Timeout:    defaultTimeout,
	}

	preCfg := *cfg
	_, _ = flags.NewParser(&preCfg, flags.IgnoreUnknown).ParseArgs(args)

	parser := flags.NewParser(cfg, flags.HelpFlag)
	parser.Usage = "snapctl [OPTIONS] COMMAND [PARAMETERS...]\n\n" +
		"Parameters are JSON values; anything that is not valid JSON is sent as a string.\n" +
		"name=value parameters are sent as named parameters.\n\n" +
		"Use `snapctl --list-commands` to get a list of all commands"
	err := flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, err
		}
	}

	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	if cfg.ListCommands {
		return cfg, nil
	}

	err = cfg.ResolveNetwork(parser)
	if err != nil {
		return nil, err
	}

	if _, _, err := net.SplitHostPort(cfg.RPCServer); err != nil {
		cfg.RPCServer = net.JoinHostPort(cfg.RPCServer, cfg.NetParams().RPCPort)
	}

	cfg.CommandAndParameters = remainingArgs
	if len(cfg.CommandAndParameters) == 0 {
		return nil, errors.New("A command must be specified")
	}

	return cfg, nil
}
