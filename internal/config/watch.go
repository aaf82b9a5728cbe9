package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the configs directory and invalidates cached use-case
// documents when their files change. Stop must be called to release
// filesystem resources.
type Watcher struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Stop halts the watcher and waits for the underlying goroutine to exit.
func (w *Watcher) Stop() {
	if w == nil {
		return
	}
	w.once.Do(func() {
		w.cancel()
		<-w.done
	})
}

// Watch wires fsnotify around the configs directory. Changed documents are
// dropped from the provider cache so the next Load re-reads them; files that
// do not follow the use-case naming scheme invalidate everything, which is
// cheap and always safe. onError may be nil.
func (p *Provider) Watch(ctx context.Context, onError func(error)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: watch: %w", err)
	}
	if err := watcher.Add(p.dir); err != nil {
		closeErr := watcher.Close()
		if closeErr != nil && onError != nil {
			onError(fmt.Errorf("config: watch close: %w", closeErr))
		}
		return nil, fmt.Errorf("config: watch %s: %w", p.dir, err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	w := &Watcher{cancel: cancel, done: done}

	go func() {
		defer close(done)
		defer func() {
			if err := watcher.Close(); err != nil && onError != nil {
				onError(fmt.Errorf("config: watch close: %w", err))
			}
		}()
		for {
			select {
			case <-watchCtx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				p.invalidateForFile(event.Name)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if onError != nil {
					onError(fmt.Errorf("config: watch: %w", err))
				}
			}
		}
	}()

	return w, nil
}

// invalidateForFile maps a changed path back to a use-case id when the name
// matches the usecase_<module>_<case> scheme.
func (p *Provider) invalidateForFile(path string) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	var module, caseNum int
	if n, err := fmt.Sscanf(stem, "usecase_%d_%d", &module, &caseNum); err == nil && n == 2 {
		id := UseCaseID{Module: module, Case: caseNum}
		p.cache.Remove(id.String())
		p.logger.Debug("use case invalidated", "id", id.String(), "path", path)
		return
	}
	p.cache.Purge()
	p.logger.Debug("use case cache purged", "path", path)
}
