package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"ocat/internal/batch"
	"ocat/internal/catalog"
	"ocat/internal/config"
	"ocat/internal/dedupe"
	"ocat/internal/ingest"
	"ocat/internal/logging"
	"ocat/internal/ranges"
	"ocat/internal/registry"
	"ocat/internal/rename"
	"ocat/internal/resolve"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// services bundles the wired components behind one Close.
type services struct {
	cfg         *config.Config
	logger      *slog.Logger
	store       *catalog.Store
	table       *ranges.Table
	registry    *registry.Registry
	resolver    *resolve.Resolver
	engine      *rename.Engine
	coordinator *batch.Coordinator
	scanner     *ingest.Scanner
	classifier  *dedupe.Classifier
}

func (s *services) Close() {
	if s != nil && s.store != nil {
		_ = s.store.Close()
	}
}

func (c *commandContext) openServices() (*services, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}
	store, err := catalog.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	table, err := ranges.NewTable(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	reg := registry.New(store, table, logging.NewComponentLogger(logger, "registry"))
	resolver := resolve.NewResolver(cfg, table)
	engine := rename.NewEngine(store, reg, resolver, logging.NewComponentLogger(logger, "rename"))

	return &services{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		table:       table,
		registry:    reg,
		resolver:    resolver,
		engine:      engine,
		coordinator: batch.NewCoordinator(engine, store, table, logging.NewComponentLogger(logger, "batch")),
		scanner:     ingest.NewScanner(store, resolver, nil, logging.NewComponentLogger(logger, "ingest")),
		classifier:  dedupe.New(store, logging.NewComponentLogger(logger, "dedupe")),
	}, nil
}

// withLock runs fn while holding the advisory lock. Mutating commands take
// it so two batch operations never interleave on one catalog.
func (c *commandContext) withLock(fn func(*services) error) error {
	svc, err := c.openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	lock := flock.New(svc.cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another ocat instance holds the catalog lock at %s", svc.cfg.LockPath())
	}
	defer func() { _ = lock.Unlock() }()

	return fn(svc)
}

// withServices runs fn without the advisory lock, for read-only commands.
func (c *commandContext) withServices(fn func(*services) error) error {
	svc, err := c.openServices()
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(svc)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
