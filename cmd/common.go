package cmd

import (
	"modpack-editor/config"
	"modpack-editor/curse"
	"modpack-editor/db"
	"modpack-editor/logger"

	"go.uber.org/zap"
)

// services are the pieces every command that talks to CurseForge needs.
type services struct {
	cfg      config.Config
	cache    *db.Cache
	client   *curse.Client
	resolver *curse.Resolver
}

// bootstrap handles shared initialization logic for commands.
func bootstrap(path string) services {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logger.Log.Fatalw("Failed to load configuration", zap.Error(err))
	}

	cache := openCache(cfg)

	// A nil *db.Cache must not end up as a non-nil interface value
	var apiCache curse.Cache
	if cache != nil {
		apiCache = cache
	}
	client, err := curse.NewClient(cfg, apiCache, logger.Named("curse"))
	if err != nil {
		logger.Log.Fatalw("Failed to create CurseForge client", zap.Error(err))
	}

	return services{
		cfg:      cfg,
		cache:    cache,
		client:   client,
		resolver: curse.NewResolver(client, cfg.ResolveWorkers, logger.Named("resolver")),
	}
}

// openCache opens the metadata cache, or returns nil when it is disabled or
// cannot be opened.
func openCache(cfg config.Config) *db.Cache {
	if cfg.CacheDisabled {
		logger.Log.Info("Metadata cache disabled")
		return nil
	}
	conn, err := db.InitDatabase(cfg.CachePath)
	if err != nil {
		logger.Log.Warnw("Failed to open metadata cache, continuing without it", zap.String("path", cfg.CachePath), zap.Error(err))
		return nil
	}
	logger.Log.Infow("Database initialized", zap.String("path", cfg.CachePath))
	return db.NewCache(conn, cfg.CacheTTL)
}
