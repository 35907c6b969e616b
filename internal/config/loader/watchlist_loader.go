// Package loader hot-reloads the traded-pair watchlist from a YAML file, so
// pairs can be added or removed without restarting the engine.
package loader

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"tidemark/internal/logger"
	symbolpkg "tidemark/internal/pkg/symbol"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type fileConfig struct {
	Pairs []string `mapstructure:"pairs"`
}

// Snapshot is a read-only view of the current watchlist. Pairs are
// normalized and deduplicated, declaration order preserved.
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Pairs    []string
}

// ChangeListener is called after every successful reload.
type ChangeListener func(Snapshot)

// WatchlistLoader reads the watchlist file and watches it for changes. A
// reload that fails to parse keeps the previous snapshot.
type WatchlistLoader struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []ChangeListener
}

func NewWatchlistLoader(path string) (*WatchlistLoader, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("watchlist loader requires path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read watchlist failed: %w", err)
	}
	loader := &WatchlistLoader{path: path, v: v}
	if err := loader.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := loader.reload(); err != nil {
			logger.Errorf("watchlist reload failed (%s): %v", evt.Name, err)
			return
		}
		loader.notify()
	})
	v.WatchConfig()
	return loader, nil
}

// NewStaticLoader wraps a fixed pair list in the loader interface, for
// configs that inline their watchlist instead of pointing at a file.
func NewStaticLoader(pairs []string) *WatchlistLoader {
	loader := &WatchlistLoader{}
	loader.snapshot = Snapshot{
		Version:  1,
		LoadedAt: time.Now(),
		Pairs:    normalizePairs(pairs),
	}
	return loader
}

// Pairs returns the current watchlist.
func (l *WatchlistLoader) Pairs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.snapshot.Pairs))
	copy(out, l.snapshot.Pairs)
	return out
}

// Snapshot returns the current snapshot with its version counter.
func (l *WatchlistLoader) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneSnapshot(l.snapshot)
}

// Subscribe registers a listener and immediately delivers the current
// snapshot to it.
func (l *WatchlistLoader) Subscribe(fn ChangeListener) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	snap := cloneSnapshot(l.snapshot)
	l.mu.Unlock()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("watchlist listener panic: %v", r)
			}
		}()
		fn(snap)
	}()
}

func (l *WatchlistLoader) notify() {
	l.mu.RLock()
	snap := cloneSnapshot(l.snapshot)
	listeners := append([]ChangeListener(nil), l.listeners...)
	l.mu.RUnlock()
	for _, fn := range listeners {
		go func(cb ChangeListener) {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("watchlist listener panic: %v", r)
				}
			}()
			cb(snap)
		}(fn)
	}
}

func (l *WatchlistLoader) reload() error {
	var fileCfg fileConfig
	if err := l.v.Unmarshal(&fileCfg); err != nil {
		return fmt.Errorf("parse watchlist failed: %w", err)
	}
	pairs := normalizePairs(fileCfg.Pairs)
	if len(pairs) == 0 {
		return fmt.Errorf("watchlist %s contains no valid pairs", l.path)
	}
	l.mu.Lock()
	l.snapshot = Snapshot{
		Version:  l.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Pairs:    pairs,
	}
	l.mu.Unlock()
	logger.Infof("watchlist reloaded: %d pairs from %s", len(pairs), filepath.Base(l.path))
	return nil
}

func normalizePairs(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		pair := symbolpkg.Normalize(raw)
		if pair == "" || seen[pair] {
			continue
		}
		seen[pair] = true
		out = append(out, pair)
	}
	return out
}

func cloneSnapshot(src Snapshot) Snapshot {
	dst := src
	dst.Pairs = make([]string, len(src.Pairs))
	copy(dst.Pairs, src.Pairs)
	return dst
}
