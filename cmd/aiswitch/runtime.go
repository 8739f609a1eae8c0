package main

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"aiswitch/internal/config"
	"aiswitch/internal/logging"
	"aiswitch/internal/store"
	"aiswitch/internal/turn"
)

// appRuntime bundles the dependencies every subcommand needs: the durable
// store for the current working directory, the merged configuration, a
// logger, and a ready-to-use Turn Driver.
type appRuntime struct {
	cfg            config.Config
	repoConfigPath string
	store          *store.Store
	log            *zap.Logger
	driver         *turn.Driver
}

func newAppRuntime() (*appRuntime, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	st := store.New(dir)
	repoConfigPath := filepath.Join(st.Dir, config.RepoConfigFileName)

	cfg, err := config.Load(config.UserGlobalPath(), repoConfigPath)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(logging.DefaultConfig(dir))
	if err != nil {
		return nil, err
	}

	driver := turn.New(st, cfg.RouterConfig(), log)

	return &appRuntime{cfg: cfg, repoConfigPath: repoConfigPath, store: st, log: log, driver: driver}, nil
}

func (a *appRuntime) close() {
	_ = a.log.Sync()
}
