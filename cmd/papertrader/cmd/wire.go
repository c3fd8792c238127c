package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/papertrader/account"
	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/internal/database"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/pkg/logger"
	"github.com/rustyeddy/papertrader/sim"
)

// app is everything a command needs, opened from the configuration.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	engine  *sim.Engine
	ledger  journal.Ledger
	account string
	close   func() error
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.Log.Logger())
	logger.SetGlobalLogger(log)

	quotes, err := cfg.Quotes.Source()
	if err != nil {
		return nil, fmt.Errorf("quotes: %w", err)
	}

	var (
		accts  account.Store
		ledger journal.Ledger
		closer func() error
	)
	switch cfg.Store.Backend {
	case "pebble":
		db, err := database.OpenPebble(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		l, err := journal.NewPebble(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		accts, ledger, closer = account.NewPebble(db), l, db.Close
	default:
		db, err := database.Open(cfg.Store.Database())
		if err != nil {
			return nil, err
		}
		a, err := account.NewSQLite(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		l, err := journal.NewSQLite(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		accts, ledger, closer = a, l, db.Close
	}

	id := accountID
	if id == "" {
		id = cfg.Account.ID
	}

	log.Debug().
		Str("backend", cfg.Store.Backend).
		Str("path", cfg.Store.Path).
		Str("quotes", cfg.Quotes.Provider).
		Str("account", id).
		Msg("papertrader ready")

	return &app{
		cfg:     cfg,
		log:     log,
		engine:  sim.NewEngine(accts, ledger, quotes, sim.WithLogger(log)),
		ledger:  ledger,
		account: id,
		close:   closer,
	}, nil
}

// withApp opens the app for one command and closes it afterwards.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			a.log.Error().Err(err).Msg("close store")
		}
	}()
	return fn(a)
}
