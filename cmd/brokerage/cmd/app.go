package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/rustyeddy/brokerage/config"
	"github.com/rustyeddy/brokerage/engine"
	"github.com/rustyeddy/brokerage/history"
	"github.com/rustyeddy/brokerage/instrument"
	"github.com/rustyeddy/brokerage/pkg/keymutex"
	"github.com/rustyeddy/brokerage/pricing"
	"github.com/rustyeddy/brokerage/pricing/bitunix"
	"github.com/rustyeddy/brokerage/pricing/oanda"
	"github.com/rustyeddy/brokerage/reval"
	"github.com/rustyeddy/brokerage/store"
	"github.com/shopspring/decimal"
)

// app holds the wired service graph every command runs against.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	store    *store.Store
	registry *instrument.Registry
	syncer   *instrument.Syncer
	router   *pricing.Router
	engine   *engine.Engine
	reval    *reval.Service
	history  *history.Service
}

// newApp loads configuration and wires the full service graph. Venues
// without credentials are left unconfigured; commands that need them
// fail with a clear error instead of at startup.
func newApp() (*app, error) {
	cfg := config.Default()
	if cfgPath != "" {
		var err error
		cfg, err = config.LoadFromFile(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	var oa *oanda.Client
	var forex pricing.Provider
	if cfg.Oanda.APIKey != "" {
		oa = oanda.NewClient(cfg.Oanda.APIKey, cfg.Oanda.AccountID,
			cfg.Oanda.Environment == "practice")
		forex = oa
	}

	bx := bitunix.NewClient()
	if cfg.Bitunix.BaseURL != "" {
		bx.SetBaseURL(cfg.Bitunix.BaseURL)
	}

	registry := instrument.NewRegistry(st)
	router := pricing.NewRouter(forex, bx, registry.TypeOf, log)
	locks := keymutex.New()

	policy := engine.RateCommission{
		Rate: decimal.NewFromFloat(cfg.Trading.CommissionRate),
	}
	eng := engine.New(st, registry, router, policy, locks, engine.Options{
		AllowNegativeBalance: cfg.Trading.AllowNegativeBalance,
		QuoteRetryLimit:      cfg.Trading.QuoteRetryLimit,
	}, log)

	return &app{
		cfg:      cfg,
		log:      log,
		store:    st,
		registry: registry,
		syncer:   instrument.NewSyncer(st, oa, bx, log),
		router:   router,
		engine:   eng,
		reval:    reval.New(st, router, locks, log),
		history:  history.New(st, registry, oa, bx, log),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
