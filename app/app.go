// Package app wires the chainsnapd services together and runs the node.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/chainsnap/chainsnapd/domain/blockchain"
	"github.com/chainsnap/chainsnapd/infrastructure/config"
	"github.com/chainsnap/chainsnapd/infrastructure/db/database/ldb"
	"github.com/chainsnap/chainsnapd/infrastructure/logger"
	"github.com/chainsnap/chainsnapd/infrastructure/os/signal"
	"github.com/chainsnap/chainsnapd/util/panics"
	"github.com/chainsnap/chainsnapd/version"
)

const (
	chainstateDirName         = "chainstate"
	blockStoreFileName        = "blocks.db"
	defaultChainstateCacheMiB = 64
)

// StartApp starts the chainsnapd app, and blocks until it finishes running
func StartApp() error {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		return nil
	}

	logger.InitLog(cfg.LogFile, cfg.ErrLogFile)
	defer logger.BackendLog.Close()
	defer panics.HandlePanic(log, nil)

	err = logger.ParseAndSetLogLevels(cfg.DebugLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	return run(cfg)
}

func run(cfg *config.Config) error {
	interrupt := signal.InterruptListener()

	log.Infof("Version %s", version.Version())
	log.Infof("Loading chain from %s on %s", cfg.DataDir, cfg.NetParams().Name)

	db, blockStore, err := openDatabases(cfg.DataDir)
	if err != nil {
		log.Errorf("%+v", err)
		return err
	}
	defer func() {
		log.Infof("Gracefully shutting down the databases...")
		err := blockStore.Close()
		if err != nil {
			log.Errorf("Failed to close the block store: %s", err)
		}
		err = db.Close()
		if err != nil {
			log.Errorf("Failed to close the chainstate database: %s", err)
		}
	}()

	// Return now if an interrupt signal was triggered.
	if signal.InterruptRequested(interrupt) {
		return nil
	}

	componentManager, err := NewComponentManager(cfg, db, blockStore, signal.ShutdownRequestChannel)
	if err != nil {
		log.Errorf("Unable to start chainsnapd: %+v", err)
		return err
	}
	defer func() {
		log.Infof("Gracefully shutting down chainsnapd...")
		componentManager.Stop()
		log.Infof("chainsnapd shutdown complete")
	}()

	componentManager.Start()

	// Wait until the interrupt signal is received from an OS signal or
	// shutdown is requested through one of the subsystems such as the RPC
	// server.
	<-interrupt
	return nil
}

func openDatabases(dataDir string) (*ldb.LevelDB, *blockchain.BlockStore, error) {
	err := os.MkdirAll(dataDir, 0700)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed creating data directory %s", dataDir)
	}

	versionFileExists, err := checkDatabaseVersion(dataDir)
	if err != nil {
		return nil, nil, err
	}

	db, err := ldb.NewLevelDB(filepath.Join(dataDir, chainstateDirName), defaultChainstateCacheMiB)
	if err != nil {
		return nil, nil, err
	}
	blockStore, err := blockchain.OpenBlockStore(filepath.Join(dataDir, blockStoreFileName))
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	if !versionFileExists {
		err := createDatabaseVersionFile(dataDir)
		if err != nil {
			_ = blockStore.Close()
			_ = db.Close()
			return nil, nil, err
		}
	}
	return db, blockStore, nil
}
