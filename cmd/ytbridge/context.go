package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"ytbridge/internal/batch"
	"ytbridge/internal/config"
	"ytbridge/internal/logging"
	"ytbridge/internal/metrics"
	"ytbridge/internal/notifications"
	"ytbridge/internal/reconcile"
	"ytbridge/internal/remote"
	"ytbridge/internal/remote/ytapi"
	"ytbridge/internal/store"
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

// newPublisher builds the remote side of the bridge. Commands that talk to
// YouTube pass online=true so missing client secrets fail before the run lock
// is taken.
var newPublisher = func(cfg *config.Config, logger *slog.Logger, online bool) (remote.Publisher, error) {
	if online {
		if _, err := ytapi.LoadOAuthConfig(cfg.Paths.ClientSecrets); err != nil {
			return nil, err
		}
	}
	return ytapi.New(cfg, logger)
}

// app bundles everything a command needs for one invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	sender  notifications.Sender
	agg     *notifications.Aggregator
	metrics *metrics.Registry
	engine  *reconcile.Engine
	runner  *batch.Runner
}

func (c *commandContext) openApp(online bool) (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	publisher, err := newPublisher(cfg, logger, online)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	sender := notifications.NewSender(cfg)
	agg := notifications.NewAggregator(sender, logger)
	reg := metrics.New()
	engine, err := reconcile.New(reconcile.Dependencies{
		Config:    cfg,
		Catalog:   st,
		Records:   st,
		Publisher: publisher,
		Sink:      agg,
		Logger:    logger,
		Metrics:   reg,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	st.OnAssetDelete(engine.MarkToDelete)

	runner, err := batch.New(cfg, agg, st, reg, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		sender:  sender,
		agg:     agg,
		metrics: reg,
		engine:  engine,
		runner:  runner,
	}, nil
}

func (a *app) Close() error {
	if a == nil || a.store == nil {
		return nil
	}
	return a.store.Close()
}

// withApp opens the app, runs fn and closes the store again.
func (c *commandContext) withApp(online bool, fn func(*app) error) (err error) {
	a, err := c.openApp(online)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close store: %w", closeErr))
		}
	}()
	return fn(a)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
