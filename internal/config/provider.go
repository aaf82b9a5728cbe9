package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	kjson "github.com/knadh/koanf/parsers/json"
	ktoml "github.com/knadh/koanf/parsers/toml"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/biorempp/biorempp/internal/errs"
)

// useCaseExtensions lists the recognized document formats in lookup order.
var useCaseExtensions = []string{".yaml", ".yml", ".json", ".toml"}

// Provider resolves use-case ids to parsed documents. Parsed documents are
// held in a bounded, expiring cache so repeated plot requests do not re-read
// and re-validate files; a force reload or a watcher invalidation bypasses
// that cache.
type Provider struct {
	dir    string
	logger *slog.Logger
	cache  *lru.LRU[string, *UseCase]
}

// NewProvider builds a provider over the given configs directory. cacheSize
// and cacheTTL bound the parsed-document cache; non-positive values fall back
// to modest defaults.
func NewProvider(dir string, cacheSize int, cacheTTL time.Duration, logger *slog.Logger) *Provider {
	if cacheSize <= 0 {
		cacheSize = 64
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Provider{
		dir:    dir,
		logger: logger,
		cache:  lru.NewLRU[string, *UseCase](cacheSize, nil, cacheTTL),
	}
}

// Load returns the parsed document for id. With forceReload the cached copy
// is ignored and the file is re-read. A missing document is a NotFound-class
// error; a document that fails to parse or validate is Validation-class.
func (p *Provider) Load(id UseCaseID, forceReload bool) (*UseCase, error) {
	key := id.String()
	if !forceReload {
		if cached, ok := p.cache.Get(key); ok {
			return cached, nil
		}
	}

	path, err := p.resolvePath(id)
	if err != nil {
		return nil, err
	}

	parsed, err := parseUseCaseFile(path)
	if err != nil {
		return nil, err
	}
	if parsed.Meta.ID != "" && parsed.Meta.ID != key {
		return nil, errs.Validationf("config: document %s declares id %q, expected %q", path, parsed.Meta.ID, key)
	}
	if err := parsed.Validate(); err != nil {
		return nil, err
	}

	p.cache.Add(key, parsed)
	p.logger.Debug("use case loaded", "id", key, "path", path, "strategy", parsed.Visualization.Strategy)
	return parsed, nil
}

// Invalidate drops the cached document for id, if any.
func (p *Provider) Invalidate(id UseCaseID) {
	p.cache.Remove(id.String())
}

// InvalidateAll drops every cached document.
func (p *Provider) InvalidateAll() {
	p.cache.Purge()
}

func (p *Provider) resolvePath(id UseCaseID) (string, error) {
	stem := filepath.Join(p.dir, id.FileStem())
	for _, ext := range useCaseExtensions {
		path := stem + ext
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("config: stat %s: %w", path, err)
		}
	}
	return "", errs.NotFoundf("config: no document for use case %s in %s", id, p.dir)
}

func parseUseCaseFile(path string) (*UseCase, error) {
	var parser koanf.Parser
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		parser = kyaml.Parser()
	case ".json":
		parser = kjson.Parser()
	case ".toml":
		parser = ktoml.Parser()
	default:
		return nil, errs.Validationf("config: unsupported document format %q", filepath.Ext(path))
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, errs.Validationf("config: parse %s: %v", path, err)
	}

	var parsed UseCase
	if err := k.Unmarshal("", &parsed); err != nil {
		return nil, errs.Validationf("config: unmarshal %s: %v", path, err)
	}
	parsed.Raw = k
	return &parsed, nil
}
