package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"mashupctl/internal/catalog"
	"mashupctl/internal/deploy"
	"mashupctl/internal/envfile"
	"mashupctl/internal/events"
	"mashupctl/internal/store"
	"mashupctl/internal/thingworx"
)

var (
	// errReported marks a failure whose details were already printed.
	errReported = errors.New("failed")
	// errNoPlatform marks an env file that does not name an instance.
	errNoPlatform = errors.New("no platform connection")
)

// app holds what the commands share: flags, config, logger, catalog and
// the lazily opened history store.
type app struct {
	cfgPath   string
	envPath   string
	logLevel  string
	logFormat string

	out    io.Writer
	errOut io.Writer

	cfg      *Config
	logger   *slog.Logger
	registry *catalog.Registry
	bus      *events.Bus

	db      store.Store
	closers []func()
}

// setup loads the config and catalog. It runs before every command.
func (a *app) setup(configSet, envSet bool) error {
	cfg, err := loadConfig(a.cfgPath, configSet)
	if err != nil {
		return err
	}
	if envSet || cfg.EnvFile == "" {
		cfg.EnvFile = a.envPath
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg

	a.logger = newLogger(cfg, a.errOut)
	slog.SetDefault(a.logger)
	a.bus = events.NewBus(a.logger)

	a.registry = catalog.Builtin()
	if err := catalog.LoadDir(cfg.DefinitionsDir, a.registry, a.logger); err != nil {
		return err
	}
	if cfg.ProjectName != "" {
		for _, d := range a.registry.All(catalog.KindMashup) {
			if d.Project == "" {
				d.Project = cfg.ProjectName
			}
		}
	}
	a.logger.Debug("catalog loaded", "definitions", a.registry.Len(), "dir", cfg.DefinitionsDir)
	return nil
}

// history opens the history store, or returns nil when it is disabled.
func (a *app) history() (store.Store, error) {
	if a.db != nil || a.cfg.Store.Path == "" {
		return a.db, nil
	}
	db, err := store.NewBoltStore(a.cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, func() {
		if err := db.Close(); err != nil {
			a.logger.Warn("close store", "err", err)
		}
	})
	return a.db, nil
}

// requireHistory is history for commands that cannot work without it.
func (a *app) requireHistory() (store.Store, error) {
	db, err := a.history()
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, fmt.Errorf("history is disabled: set store.path in %s", a.cfgPath)
	}
	return db, nil
}

// platform builds a deployer for the instance named in the env file.
// Missing connection settings are reported before any request is sent.
func (a *app) platform() (*deploy.Deployer, *thingworx.Client, error) {
	env, err := envfile.Load(a.cfg.EnvFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %w", err, errNoPlatform)
	}
	if err != nil {
		return nil, nil, err
	}
	var missing []string
	for _, k := range []string{envfile.KeyBaseURL, envfile.KeyAppKey} {
		if env[k] == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%s: missing %s: %w", a.cfg.EnvFile, strings.Join(missing, ", "), errNoPlatform)
	}

	clientOpts := []thingworx.Option{
		thingworx.WithLogger(a.logger),
		thingworx.WithTimeout(a.cfg.timeout),
	}
	if a.cfg.Reason != "" {
		clientOpts = append(clientOpts, thingworx.WithReason(a.cfg.Reason))
	}
	client := thingworx.New(env[envfile.KeyBaseURL], env[envfile.KeyAppKey], clientOpts...)

	opts := []deploy.Option{deploy.WithLogger(a.logger), deploy.WithEvents(a.bus)}
	db, err := a.history()
	if err != nil {
		return nil, nil, err
	}
	if db != nil {
		opts = append(opts, deploy.WithRecorder(db))
	}

	// Publish deploy events (no-op when built with no_mqtt tag).
	mqtt := initMQTT(a.bus, a.cfg, a.logger)
	a.closers = append(a.closers, mqtt.Stop)

	return deploy.New(client, opts...), client, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
