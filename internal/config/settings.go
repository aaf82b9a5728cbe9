package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/biorempp/biorempp/internal/logging"
)

// RedisTLSSettings configures TLS for the redis figure store.
type RedisTLSSettings struct {
	Enabled bool   `koanf:"enabled"`
	CAFile  string `koanf:"caFile"`
}

// RedisSettings locates the redis backend.
type RedisSettings struct {
	Address  string           `koanf:"address"`
	Username string           `koanf:"username"`
	Password string           `koanf:"password"`
	DB       int              `koanf:"db"`
	TLS      RedisTLSSettings `koanf:"tls"`
}

// CacheSettings selects and sizes the figure cache backend.
type CacheSettings struct {
	Backend    string        `koanf:"backend"`
	MaxSize    int           `koanf:"maxSize"`
	TTLSeconds int           `koanf:"ttlSeconds"`
	Redis      RedisSettings `koanf:"redis"`
}

// UseCaseSettings locates use-case documents and sizes the provider cache.
type UseCaseSettings struct {
	Dir             string `koanf:"dir"`
	CacheSize       int    `koanf:"cacheSize"`
	CacheTTLSeconds int    `koanf:"cacheTTLSeconds"`
}

// Settings holds the service-level options.
type Settings struct {
	UseCases UseCaseSettings `koanf:"usecases"`
	Logging  logging.Config  `koanf:"logging"`
	Cache    CacheSettings   `koanf:"cache"`
}

// DefaultSettings returns the baseline every load starts from.
func DefaultSettings() Settings {
	return Settings{
		UseCases: UseCaseSettings{
			Dir:             "configs",
			CacheSize:       64,
			CacheTTLSeconds: 300,
		},
		Logging: logging.Config{Level: "info", Format: "json"},
		Cache: CacheSettings{
			Backend:    "memory",
			MaxSize:    256,
			TTLSeconds: 3600,
		},
	}
}

// Validate checks the settings invariants.
func (s Settings) Validate() error {
	switch s.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unsupported cache backend %q", s.Cache.Backend)
	}
	if s.Cache.Backend == "redis" && s.Cache.Redis.Address == "" {
		return errors.New("config: redis backend requires cache.redis.address")
	}
	if s.UseCases.Dir == "" {
		return errors.New("config: usecases.dir required")
	}
	return nil
}

// LoadSettings assembles the effective settings with env > file > default
// precedence. Files are optional YAML documents; the env prefix uses double
// underscores for nesting (BIOREMPP_CACHE__BACKEND -> cache.backend).
func LoadSettings(ctx context.Context, envPrefix string, files ...string) (Settings, error) {
	defaults := DefaultSettings()
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(settingsToMap(defaults), "."), nil); err != nil {
		return Settings{}, fmt.Errorf("config: load defaults: %w", err)
	}

	for _, path := range files {
		if path == "" {
			continue
		}
		select {
		case <-ctx.Done():
			return Settings{}, ctx.Err()
		default:
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Settings{}, fmt.Errorf("config: file %s not found", path)
			}
			return Settings{}, fmt.Errorf("config: stat %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Settings{}, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	if envPrefix != "" {
		if err := k.Load(env.Provider(envPrefix, ".", settingsEnvTransform(envPrefix)), nil); err != nil {
			return Settings{}, fmt.Errorf("config: load env: %w", err)
		}
	}

	var settings Settings
	if err := k.Unmarshal("", &settings); err != nil {
		return Settings{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func settingsEnvTransform(prefix string) func(string) string {
	canonical := map[string]string{
		"usecases.cachesize":       "usecases.cacheSize",
		"usecases.cachettlseconds": "usecases.cacheTTLSeconds",
		"cache.maxsize":            "cache.maxSize",
		"cache.ttlseconds":         "cache.ttlSeconds",
		"cache.redis.tls.cafile":   "cache.redis.tls.caFile",
	}
	return func(s string) string {
		// Double underscores signal a nested path
		// (CACHE__REDIS__ADDRESS -> cache.redis.address).
		key := strings.TrimPrefix(s, prefix+"_")
		key = strings.ReplaceAll(key, "__", ".")
		if mapped, ok := canonical[strings.ToLower(key)]; ok {
			return mapped
		}
		// Single underscores collapse so MAX_SIZE and MAXSIZE address the
		// same key.
		key = strings.ReplaceAll(key, "_", "")
		lower := strings.ToLower(key)
		if mapped, ok := canonical[lower]; ok {
			return mapped
		}
		return lower
	}
}

// settingsToMap converts DefaultSettings into a map for the koanf confmap
// provider.
func settingsToMap(s Settings) map[string]any {
	return map[string]any{
		"usecases": map[string]any{
			"dir":             s.UseCases.Dir,
			"cacheSize":       s.UseCases.CacheSize,
			"cacheTTLSeconds": s.UseCases.CacheTTLSeconds,
		},
		"logging": map[string]any{
			"level":  s.Logging.Level,
			"format": s.Logging.Format,
		},
		"cache": map[string]any{
			"backend":    s.Cache.Backend,
			"maxSize":    s.Cache.MaxSize,
			"ttlSeconds": s.Cache.TTLSeconds,
			"redis": map[string]any{
				"address":  s.Cache.Redis.Address,
				"username": s.Cache.Redis.Username,
				"password": s.Cache.Redis.Password,
				"db":       s.Cache.Redis.DB,
				"tls": map[string]any{
					"enabled": s.Cache.Redis.TLS.Enabled,
					"caFile":  s.Cache.Redis.TLS.CAFile,
				},
			},
		},
	}
}
