package plot

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/biorempp/biorempp/internal/cache"
	"github.com/biorempp/biorempp/internal/config"
	"github.com/biorempp/biorempp/internal/logging"
	"github.com/biorempp/biorempp/internal/metrics"
)

// settingsFileEnv optionally points the singleton at a settings document.
const settingsFileEnv = "BIOREMPP_SETTINGS_FILE"

var (
	defaultService atomic.Pointer[Service]
	defaultMu      sync.Mutex
)

// Default returns the process-wide plot service, building it from settings on
// first use. The atomic pointer serves the common path lock-free; the mutex
// serializes construction, and the pointer is re-checked under it so
// concurrent first calls observe exactly one instance.
func Default() (*Service, error) {
	if s := defaultService.Load(); s != nil {
		return s, nil
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if s := defaultService.Load(); s != nil {
		return s, nil
	}

	settings, err := config.LoadSettings(context.Background(), "BIOREMPP", os.Getenv(settingsFileEnv))
	if err != nil {
		return nil, err
	}
	service, err := NewServiceFromSettings(settings)
	if err != nil {
		return nil, err
	}
	defaultService.Store(service)
	return service, nil
}

// resetDefault tears down the process-wide service. Only tests use it;
// production code never replaces the singleton.
func resetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if s := defaultService.Swap(nil); s != nil {
		_ = s.Close(context.Background())
	}
}

// NewServiceFromSettings assembles the full stack a service needs from
// settings: logger, metrics, use-case provider and the configured figure
// cache backend.
func NewServiceFromSettings(settings config.Settings) (*Service, error) {
	logger, err := logging.New(settings.Logging)
	if err != nil {
		return nil, err
	}
	recorder := metrics.NewRecorder(nil)

	provider := config.NewProvider(
		settings.UseCases.Dir,
		settings.UseCases.CacheSize,
		time.Duration(settings.UseCases.CacheTTLSeconds)*time.Second,
		logger,
	)

	defaultTTL := time.Duration(settings.Cache.TTLSeconds) * time.Second
	var store cache.FigureStore
	switch settings.Cache.Backend {
	case "redis":
		store, err = cache.NewRedisFigureStore(cache.RedisConfig{
			Address:  settings.Cache.Redis.Address,
			Username: settings.Cache.Redis.Username,
			Password: settings.Cache.Redis.Password,
			DB:       settings.Cache.Redis.DB,
			TLS: cache.RedisTLSConfig{
				Enabled: settings.Cache.Redis.TLS.Enabled,
				CAFile:  settings.Cache.Redis.TLS.CAFile,
			},
		})
		if err != nil {
			return nil, err
		}
	case "memory":
		store = cache.NewMemoryFigureStore(cache.NewFigureCache(settings.Cache.MaxSize, defaultTTL))
	default:
		return nil, fmt.Errorf("plot: unsupported cache backend %q", settings.Cache.Backend)
	}

	manager := cache.NewManager(store, logger, recorder)
	return NewService(Options{
		Provider:   provider,
		Graphs:     manager,
		Logger:     logger,
		Metrics:    recorder,
		DefaultTTL: defaultTTL,
	})
}
