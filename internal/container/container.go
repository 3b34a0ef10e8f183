// Package container provides dependency injection for the ledgerlens
// application. It centralizes the creation and wiring of all application
// dependencies, making them explicit and testable.
package container

import (
	"fmt"
	"time"

	"ledgerlens/internal/bankfeed"
	"ledgerlens/internal/classifier"
	"ledgerlens/internal/config"
	"ledgerlens/internal/kvstore"
	"ledgerlens/internal/ledger"
	"ledgerlens/internal/logging"
	"ledgerlens/internal/pipeline"
	"ledgerlens/internal/resolver"
	"ledgerlens/internal/rules"
)

// Container holds all application dependencies. It is immutable after
// creation; components are reached through getters only.
type Container struct {
	logger   logging.Logger
	config   *config.Config
	rules    *rules.Store
	registry *bankfeed.Registry
	fetcher  *ledger.Fetcher
	bank     *bankfeed.Service
	resolver *resolver.Resolver
	pipeline *pipeline.Pipeline
}

// NewContainer creates and wires all application dependencies.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	// Logger first; everything downstream needs it.
	logger := logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)

	persistence, err := kvstore.NewFileStore(cfg.Data.Directory)
	if err != nil {
		return nil, fmt.Errorf("opening data directory: %w", err)
	}

	ruleStore, err := rules.NewStore(persistence, logger)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}

	registry, err := bankfeed.NewRegistry(persistence, logger)
	if err != nil {
		return nil, fmt.Errorf("loading bank connections: %w", err)
	}

	ledgerClient := ledger.NewHTTPClient(cfg.Ledger.BaseURL, cfg.Ledger.RealmID, cfg.Ledger.Token, logger)
	fetcher := ledger.NewFetcher(ledgerClient, cfg.Ledger.PageSize, cfg.Ledger.MaxRows, logger)

	bankClient := bankfeed.NewHTTPClient(cfg.BankFeed.BaseURL, cfg.BankFeed.ClientID, cfg.BankFeed.Secret, logger)
	maxPages := cfg.BankFeed.MaxRows / cfg.BankFeed.PageSize
	bank := bankfeed.NewService(bankClient, registry, maxPages, logger)

	var aiClient classifier.AIClient
	if cfg.AI.Enabled && cfg.AI.APIKey != "" {
		aiClient = classifier.NewGeminiClient(
			cfg.AI.APIKey,
			cfg.AI.Model,
			time.Duration(cfg.AI.TimeoutSeconds)*time.Second,
			logger,
		)
		logger.Info("AI classification enabled")
	} else {
		logger.Info("AI classification disabled")
	}

	catalog := resolver.NewCategoryCatalog(
		fetcher,
		time.Duration(cfg.Resolver.CategoryCacheMinutes)*time.Minute,
		logger,
	)

	res := resolver.New(ruleStore, aiClient, catalog, resolver.Options{
		AutoApproveThreshold: cfg.Resolver.AutoApproveThreshold,
	}, logger)

	return &Container{
		logger:   logger,
		config:   cfg,
		rules:    ruleStore,
		registry: registry,
		fetcher:  fetcher,
		bank:     bank,
		resolver: res,
		pipeline: pipeline.New(fetcher, bank, res, logger),
	}, nil
}

// Logger returns the application logger.
func (c *Container) Logger() logging.Logger { return c.logger }

// Config returns the application configuration.
func (c *Container) Config() *config.Config { return c.config }

// Rules returns the learned-rule store.
func (c *Container) Rules() *rules.Store { return c.rules }

// Registry returns the bank connection registry.
func (c *Container) Registry() *bankfeed.Registry { return c.registry }

// Fetcher returns the ledger fetcher.
func (c *Container) Fetcher() *ledger.Fetcher { return c.fetcher }

// BankService returns the bank-feed sync service.
func (c *Container) BankService() *bankfeed.Service { return c.bank }

// Resolver returns the category resolver.
func (c *Container) Resolver() *resolver.Resolver { return c.resolver }

// Pipeline returns the aggregation pipeline.
func (c *Container) Pipeline() *pipeline.Pipeline { return c.pipeline }
