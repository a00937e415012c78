package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/markdave123-py/Slidewise/internal/config"
	"github.com/markdave123-py/Slidewise/internal/core"
	"github.com/markdave123-py/Slidewise/internal/core/cache"
	db "github.com/markdave123-py/Slidewise/internal/core/database"
	"github.com/markdave123-py/Slidewise/internal/core/identity"
	"github.com/markdave123-py/Slidewise/internal/core/imagery"
	"github.com/markdave123-py/Slidewise/internal/core/ingestion_engine"
	"github.com/markdave123-py/Slidewise/internal/core/llm"
	objectclient "github.com/markdave123-py/Slidewise/internal/core/object-client"
	"github.com/markdave123-py/Slidewise/internal/core/outline"
	"github.com/markdave123-py/Slidewise/internal/services"
)

const memoryCacheSize = 512

type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	Store    core.DeckStore
	Objects  core.ObjectClient
	Cache    cache.Client
	LLM      *llm.Registry
	Verifier *identity.JWTVerifier
	Decks    *services.DeckService
	Sources  *services.SourceService
	Sweeper  *services.RetentionSweeper
	Server   *Server
}

func NewApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	a := &App{Config: cfg, Log: log}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	store, err := db.NewDeckStore(appCtx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.Store = store
	log.Info().Bool("postgres", cfg.DatabaseURL != "").Msg("deck store ready")

	objects, err := objectclient.New(appCtx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}
	a.Objects = objects

	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisClient(appCtx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.ServiceName + ":",
		})
		if err != nil {
			return nil, err
		}
		a.Cache = rc
	} else {
		a.Cache = cache.NewMemoryClient(memoryCacheSize)
	}

	var searcher core.ImageSearcher
	if cfg.PixabayAPIKey != "" {
		px, err := imagery.NewPixabayClient(imagery.PixabayConfig{
			APIKey:   cfg.PixabayAPIKey,
			BaseURL:  cfg.PixabayBaseURL,
			RPS:      cfg.PixabayRPS,
			Timeout:  cfg.HTTPTimeout,
			CacheTTL: cfg.ImageCacheTTL,
		}, a.Cache, log)
		if err != nil {
			return nil, err
		}
		searcher = px
	} else {
		log.Warn().Msg("PIXABAY_API_KEY not set; decks are generated without images")
	}
	enricher := imagery.NewEnricher(searcher, objects, cfg.HTTPTimeout, cfg.StorageTimeout, log)

	registry, err := llm.NewRegistryFromConfig(appCtx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the AI providers: %w", err)
	}
	a.LLM = registry
	generator := outline.NewGenerator(registry, cfg.LLMTimeout, log)

	robots := ingestion_engine.NewRobotsChecker(cfg.ScraperUserAgent, cfg.HTTPTimeout)
	scraper := ingestion_engine.NewScraper(robots, cfg.ScraperUserAgent, cfg.HTTPTimeout)
	wiki := ingestion_engine.NewWikiClient(cfg.WikipediaBaseURL, cfg.ScraperUserAgent, cfg.HTTPTimeout)
	aggregator := ingestion_engine.NewAggregator(scraper, wiki, cfg.MaxContextChars, log)

	useReadability := false
	extractor := ingestion_engine.NewDocconvExtractor(useReadability)

	a.Decks = services.NewDeckService(store, aggregator, generator, enricher, log)
	a.Sources = services.NewSourceService(extractor, objects, robots, cfg.StorageTimeout, log)
	a.Sweeper = services.NewRetentionSweeper(a.Decks, cfg.DeckRetention, cfg.RetentionSweepInterval, log)

	// the JWKS refresher lives as long as ctx
	verifier, err := identity.NewVerifier(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.Verifier = verifier

	var tokens core.TokenVerifier
	if verifier != nil {
		tokens = verifier
	}
	a.Server = NewServer(cfg, log, ServerDeps{
		Decks:   a.Decks,
		Sources: a.Sources,
		Images:  searcher,
		Tokens:  tokens,
		Store:   store,
		Objects: objects,
	})

	ok = true
	return a, nil
}

// Run starts background work and serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.Sweeper.Start(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- a.Server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return a.Server.Shutdown(shutdownCtx)
}

func (a *App) Close() {
	if a.Verifier != nil {
		a.Verifier.Close()
	}
	if a.LLM != nil {
		if err := a.LLM.Close(); err != nil {
			a.Log.Warn().Err(err).Msg("close AI providers")
		}
	}
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Log.Warn().Err(err).Msg("close deck store")
		}
	}
}
