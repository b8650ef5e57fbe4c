package cli

import (
	"context"
	"fmt"

	"sitelog/internal/analysis"
	"sitelog/internal/backend"
	"sitelog/internal/cache"
	"sitelog/internal/config"
	"sitelog/internal/log"
	"sitelog/internal/services"
	"sitelog/internal/transfer/sheets"
)

// App is a loaded logbook with everything it was built from.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Logbook *services.Logbook
	Backend *backend.Result
	Caches  *cache.Manager
}

// NewApp opens the configured backend, wires the optional analyzer and loads
// the logbook.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	tax, err := config.LoadTaxonomy(cfg.TaxonomyFile)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Backend: res,
		Caches:  cache.NewManager(logger),
	}

	opts := services.Options{
		Taxonomy:    tax,
		SeedSamples: cfg.SeedSampleEntries,
		Publisher:   res.Publisher,
		Logger:      logger,
	}
	if cfg.AnalysisEnabled() {
		a, err := analysis.NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicBaseURL)
		if err != nil {
			_ = res.Close()
			return nil, err
		}
		lru := cache.NewLRUCache[string](cfg.AnalysisCacheSize, cfg.AnalysisCacheTTL)
		app.Caches.Register(lru)
		opts.Analyzer = analysis.NewCached(a, lru, logger)
	}

	app.Logbook = services.NewLogbook(res.Store, opts)
	if err := app.Logbook.Load(ctx); err != nil {
		_ = res.Close()
		return nil, err
	}
	return app, nil
}

// Close stops cache sweeping and releases the backend.
func (a *App) Close() error {
	a.Caches.Stop()
	return a.Backend.Close()
}

// NewSheetsClient builds the spreadsheet mirror client from configuration.
func NewSheetsClient(ctx context.Context, cfg *config.Config, logger *log.Logger) (*sheets.Client, error) {
	if !cfg.MirrorEnabled() {
		return nil, fmt.Errorf("GOOGLE_SPREADSHEET_ID is not set")
	}
	return sheets.NewFromOptions(ctx, sheets.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		OAuthClientJSON: cfg.GoogleOAuthClientJSON,
		OAuthClientFile: cfg.GoogleOAuthClientFile,
		OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
	}, logger)
}
