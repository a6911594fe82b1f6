// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/chainsnap/chainsnapd/version"
)

const (
	defaultConfigFilename = "chainsnapd.conf"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "chainsnapd.log"
	defaultErrLogFilename = "chainsnapd_err.log"
	defaultNetworkActive  = "1"
)

var (
	// DefaultAppDir is the default home directory for chainsnapd.
	DefaultAppDir = btcutil.AppDataDir("chainsnapd", false)

	defaultConfigFile = filepath.Join(DefaultAppDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(DefaultAppDir, defaultLogDirname)
)

// Flags defines the configuration options for chainsnapd.
//
// See LoadConfig for details on the configuration load process.
type Flags struct {
	ShowVersion   bool     `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile    string   `short:"C" long:"configfile" description:"Path to configuration file"`
	AppDir        string   `short:"b" long:"appdir" description:"Directory to store data"`
	LogDir        string   `long:"logdir" description:"Directory to log output."`
	Listeners     []string `long:"listen" description:"Add an interface/port to listen for connections (default all interfaces, port of the active network)"`
	DisableListen bool     `long:"nolisten" description:"Disable listening for incoming connections"`
	NetworkActive string   `long:"networkactive" choice:"0" choice:"1" description:"Enable all P2P network activity at startup (0 or 1)"`
	RPCUser       string   `short:"u" long:"rpcuser" description:"Username for RPC connections"`
	RPCPass       string   `short:"P" long:"rpcpass" default-mask:"-" description:"Password for RPC connections"`
	RPCListeners  []string `long:"rpclisten" description:"Add an interface/port to listen for RPC connections (default localhost, RPC port of the active network)"`
	DisableRPC    bool     `long:"norpc" description:"Disable built-in RPC server"`
	DebugLevel    string   `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	NetworkFlags
}

// Config defines the configuration options for chainsnapd.
//
// See LoadConfig for details on the configuration load process.
type Config struct {
	*Flags

	// DataDir is the network namespaced data directory, <appdir>/<network>.
	DataDir string

	// LogFile and ErrLogFile are the paths of the main and error log files.
	LogFile    string
	ErrLogFile string

	// NetworkActiveAtStartup is the parsed value of --networkactive.
	NetworkActiveAtStartup bool
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultAppDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// normalizeAddresses returns addrs with defaultPort appended to every
// address that lacks a port.
func normalizeAddresses(addrs []string, defaultPort string) []string {
	normalized := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			addr = net.JoinHostPort(addr, defaultPort)
		}
		normalized = append(normalized, addr)
	}
	return normalized
}

func defaultFlags() Flags {
	return Flags{
		ConfigFile:    defaultConfigFile,
		AppDir:        DefaultAppDir,
		LogDir:        defaultLogDir,
		DebugLevel:    defaultLogLevel,
		NetworkActive: defaultNetworkActive,
	}
}

// LoadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// Command line options always take precedence. A missing config file is not
// an error.
func LoadConfig(args []string) (*Config, error) {
	cfgFlags := defaultFlags()

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified. Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := cfgFlags
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			return nil, err
		}
	}

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	// An --appdir without --configfile moves the default config file along.
	configFile := preCfg.ConfigFile
	if configFile == defaultConfigFile && preCfg.AppDir != DefaultAppDir {
		configFile = filepath.Join(preCfg.AppDir, defaultConfigFilename)
	}
	configFile = cleanAndExpandPath(configFile)

	parser := flags.NewParser(&cfgFlags, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(configFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %s\n", err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, err
		}
	}

	// Parse command line options again to ensure they take precedence.
	_, err = parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) || flagsErr.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return nil, err
	}

	cfg := &Config{Flags: &cfgFlags}

	err = cfg.ResolveNetwork(parser)
	if err != nil {
		return nil, err
	}

	funcName := "LoadConfig"
	if !cfg.DisableRPC {
		if cfg.RPCUser == "" {
			err := errors.Errorf("%s: rpcuser cannot be empty", funcName)
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, err
		}
		if cfg.RPCPass == "" {
			err := errors.Errorf("%s: rpcpass cannot be empty", funcName)
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, err
		}
	}

	if cfg.DisableListen && len(cfg.Listeners) > 0 {
		err := errors.Errorf("%s: the --listen and --nolisten options can not be mixed", funcName)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, err
	}

	// Append the network name to the data and log directories so they are
	// namespaced per network.
	cfg.AppDir = cleanAndExpandPath(cfg.AppDir)
	cfg.DataDir = filepath.Join(cfg.AppDir, cfg.ActiveNetParams.Name)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	if cfg.LogDir == defaultLogDir && cfg.AppDir != DefaultAppDir {
		cfg.LogDir = filepath.Join(cfg.AppDir, defaultLogDirname)
	}
	cfg.LogDir = filepath.Join(cfg.LogDir, cfg.ActiveNetParams.Name)
	cfg.LogFile = filepath.Join(cfg.LogDir, defaultLogFilename)
	cfg.ErrLogFile = filepath.Join(cfg.LogDir, defaultErrLogFilename)

	cfg.NetworkActiveAtStartup = cfg.NetworkActive == "1"

	if !cfg.DisableListen {
		if len(cfg.Listeners) == 0 {
			cfg.Listeners = []string{net.JoinHostPort("", cfg.ActiveNetParams.DefaultPort)}
		}
		cfg.Listeners = normalizeAddresses(cfg.Listeners, cfg.ActiveNetParams.DefaultPort)
	} else {
		cfg.Listeners = nil
	}

	if !cfg.DisableRPC {
		if len(cfg.RPCListeners) == 0 {
			cfg.RPCListeners = []string{net.JoinHostPort("127.0.0.1", cfg.ActiveNetParams.RPCPort)}
		}
		cfg.RPCListeners = normalizeAddresses(cfg.RPCListeners, cfg.ActiveNetParams.RPCPort)
	}

	return cfg, nil
}
