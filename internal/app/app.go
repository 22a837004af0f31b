package app

import (
	"context"

	"github.com/imgix/contentful/internal/browser"
	"github.com/imgix/contentful/internal/cache"
	"github.com/imgix/contentful/internal/config"
	"github.com/imgix/contentful/internal/httpapi"
	"github.com/imgix/contentful/internal/imgix"
	"github.com/imgix/contentful/internal/logging"
	"github.com/imgix/contentful/internal/models"
	"github.com/imgix/contentful/internal/moderation"
	"github.com/imgix/contentful/internal/ratelimit"
	"github.com/imgix/contentful/internal/session"
)

// App holds all application dependencies
type App struct {
	Config     *config.Config
	Logger     *logging.Logger
	Cache      cache.Cache
	Client     *imgix.Client
	Sessions   *session.Manager
	HTTPServer *httpapi.Server

	moderator *moderation.Service
	verified  bool
	limiter   *ratelimit.Limiter
}

// New creates and initializes a new App instance
func New(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	app.Logger = app.initLogger()
	app.Cache = app.initCache()

	app.limiter = ratelimit.New(cfg.Imgix.RateLimitDur)
	app.Client = imgix.NewClient(imgix.Config{
		APIKey:   cfg.Imgix.APIKey,
		BaseURL:  cfg.Imgix.BaseURL,
		Timeout:  cfg.Imgix.Timeout,
		Limiter:  app.limiter,
		Cache:    app.Cache,
		CacheTTL: cfg.Cache.TTL,
	}, app.Logger)

	app.verified = app.verifyConfiguredKey()
	app.initModeration()

	app.Sessions = session.NewManager(session.Config{
		JWTSecret:     cfg.Session.JWTSecret,
		JWTIssuer:     cfg.Session.JWTIssuer,
		IdleTTL:       cfg.Session.IdleTTL,
		TokenTTL:      cfg.Session.TokenTTL,
		SweepInterval: cfg.Session.SweepInterval,
	}, app.Logger)

	app.HTTPServer = httpapi.New(app.Sessions, app.verifyKey, app.newDialog, app.Logger)

	return app, nil
}

// Run starts the HTTP server and blocks until it stops.
func (a *App) Run(ctx context.Context) error {
	return a.HTTPServer.Start(a.Config.Server.HTTPAddr)
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error("HTTP server shutdown error", logging.WithField("error", err.Error()))
		}
	}
	if a.Sessions != nil {
		a.Sessions.Stop()
	}
	if mem, ok := a.Cache.(*cache.MemoryCache); ok {
		mem.Stop()
	}
	return nil
}

func (a *App) initLogger() *logging.Logger {
	level := logging.LevelInfo
	switch a.Config.Logging.Level {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	return logging.New(level)
}

func (a *App) initCache() cache.Cache {
	switch a.Config.Cache.Backend {
	case "redis":
		a.Logger.Info("Using Redis cache backend", logging.WithField("addr", a.Config.Cache.RedisAddr))
		redisCache, err := cache.NewRedis(cache.RedisConfig{
			Addr:   a.Config.Cache.RedisAddr,
			Prefix: "ix:",
		}, a.Config.Cache.TTL)
		if err != nil {
			a.Logger.Error("Failed to connect to Redis, falling back to memory cache", logging.WithField("error", err.Error()))
			return cache.NewMemory(a.Config.Cache.TTL)
		}
		return redisCache
	default:
		a.Logger.Info("Using in-memory cache backend")
		return cache.NewMemory(a.Config.Cache.TTL)
	}
}

// verifyConfiguredKey checks the installation's own API key at boot. Dialogs
// opened while it is missing or rejected start in the dead no-key state.
func (a *App) verifyConfiguredKey() bool {
	if a.Config.Imgix.APIKey == "" {
		a.Logger.Warn("IMGIX_API_KEY is not set; dialogs will report an invalid key")
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Imgix.Timeout)
	defer cancel()

	if err := a.Client.Verify(ctx); err != nil {
		a.Logger.Warn("Configured API key failed verification", logging.WithField("error", err.Error()))
		return false
	}
	a.Logger.Info("imgix API key verified")
	return true
}

func (a *App) initModeration() {
	if !a.Config.Moderation.Enabled {
		return
	}

	detector, err := moderation.NewRekognitionDetector(context.Background(), a.Config.Moderation.AWSRegion)
	if err != nil {
		a.Logger.Warn("Failed to initialize Rekognition, moderation disabled",
			logging.WithField("error", err.Error()))
		return
	}
	a.moderator = moderation.NewService(detector, a.Config.Moderation.RejectConfidence)
	a.Logger.Info("Image moderation enabled",
		logging.WithField("rejectConfidence", a.Config.Moderation.RejectConfidence))
}

// verifyKey checks a key submitted from the configuration screen. It builds
// a throwaway client so the submitted key never touches the shared one.
func (a *App) verifyKey(ctx context.Context, apiKey string) error {
	client := imgix.NewClient(imgix.Config{
		APIKey:  apiKey,
		BaseURL: a.Config.Imgix.BaseURL,
		Timeout: a.Config.Imgix.Timeout,
		Limiter: a.limiter,
	}, a.Logger)
	return client.Verify(ctx)
}

func (a *App) newDialog(invocation *models.SelectedAsset) *browser.Controller {
	opts := browser.Options{
		Client:     a.Client,
		Logger:     a.Logger,
		Verified:   a.verified,
		Invocation: invocation,
	}
	if a.moderator != nil {
		opts.Moderator = a.moderator
	}
	return browser.New(opts)
}
