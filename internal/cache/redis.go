package cache

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	valkey "github.com/valkey-io/valkey-go"

	"github.com/biorempp/biorempp/internal/figure"
)

// RedisTLSConfig controls TLS for the redis figure store.
type RedisTLSConfig struct {
	Enabled bool
	CAFile  string
}

// RedisConfig locates the redis backend for the figure store.
type RedisConfig struct {
	Address  string
	Username string
	Password string
	DB       int
	TLS      RedisTLSConfig
}

// redisFigureStore persists serialized figures in redis so cached charts
// survive process restarts and are shared across workers. The store owns its
// logical DB; Clear flushes it.
type redisFigureStore struct {
	client valkey.Client
}

// NewRedisFigureStore connects to redis and verifies the connection with a
// ping before returning the store.
func NewRedisFigureStore(cfg RedisConfig) (FigureStore, error) {
	if cfg.Address == "" {
		return nil, errors.New("cache: redis address required")
	}

	option := valkey.ClientOption{
		InitAddress:       []string{cfg.Address},
		Username:          cfg.Username,
		Password:          cfg.Password,
		SelectDB:          cfg.DB,
		AlwaysRESP2:       true,
		ForceSingleClient: true,
		DisableCache:      true,
	}

	if cfg.TLS.Enabled {
		tlsConfig := &tls.Config{}
		if cfg.TLS.CAFile != "" {
			caData, err := os.ReadFile(cfg.TLS.CAFile)
			if err != nil {
				return nil, fmt.Errorf("cache: read redis ca file: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(caData) {
				return nil, errors.New("cache: redis ca file contains no certificates")
			}
			tlsConfig.RootCAs = pool
		}
		option.TLSConfig = tlsConfig
	}

	client, err := valkey.NewClient(option)
	if err != nil {
		return nil, fmt.Errorf("cache: redis client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}

	return &redisFigureStore{client: client}, nil
}

func (s *redisFigureStore) Put(ctx context.Context, key string, fig *figure.Figure, ttl time.Duration) error {
	payload, err := figure.Marshal(fig)
	if err != nil {
		return err
	}
	var cmd valkey.Completed
	if ttl > 0 {
		cmd = s.client.B().Set().Key(key).Value(string(payload)).Px(ttl).Build()
	} else {
		cmd = s.client.B().Set().Key(key).Value(string(payload)).Build()
	}
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

func (s *redisFigureStore) Get(ctx context.Context, key string) (*figure.Figure, bool, error) {
	resp := s.client.Do(ctx, s.client.B().Get().Key(key).Build())
	if err := resp.Error(); err != nil {
		if errors.Is(err, valkey.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache: redis get: %w", err)
	}
	payload, err := resp.AsBytes()
	if err != nil {
		return nil, false, fmt.Errorf("cache: redis get bytes: %w", err)
	}
	fig, err := figure.Unmarshal(payload)
	if err != nil {
		return nil, false, err
	}
	return fig, true, nil
}

// DeletePrefix walks the keyspace with SCAN so per-use-case clearing works on
// the shared backend too.
func (s *redisFigureStore) DeletePrefix(ctx context.Context, prefix string) error {
	if prefix == "" {
		return nil
	}
	var cursor uint64
	for {
		resp := s.client.Do(ctx, s.client.B().Scan().Cursor(cursor).Match(prefix+"*").Count(200).Build())
		entry, err := resp.AsScanEntry()
		if err != nil {
			return fmt.Errorf("cache: redis scan: %w", err)
		}
		if len(entry.Elements) > 0 {
			cmd := s.client.B().Del().Key(entry.Elements...).Build()
			if err := s.client.Do(ctx, cmd).Error(); err != nil {
				return fmt.Errorf("cache: redis del: %w", err)
			}
		}
		cursor = entry.Cursor
		if cursor == 0 {
			return nil
		}
	}
}

func (s *redisFigureStore) Clear(ctx context.Context) error {
	if err := s.client.Do(ctx, s.client.B().Flushdb().Build()).Error(); err != nil {
		return fmt.Errorf("cache: redis flushdb: %w", err)
	}
	return nil
}

func (s *redisFigureStore) Stats(ctx context.Context) (Stats, error) {
	size, err := s.client.Do(ctx, s.client.B().Dbsize().Build()).ToInt64()
	if err != nil {
		return Stats{}, fmt.Errorf("cache: redis dbsize: %w", err)
	}
	return Stats{CurrentSize: int(size)}, nil
}

func (s *redisFigureStore) Close(context.Context) error {
	s.client.Close()
	return nil
}
