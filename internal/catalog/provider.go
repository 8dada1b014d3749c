package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"pagesmith/internal/domain"
)

// FileProvider loads component definitions from a directory: one JSON
// document per definition under primitives/ and composites/. Definitions are
// cached for the session; an optional watcher invalidates the cache when a
// definition file changes on disk.
type FileProvider struct {
	dir string

	mu         sync.Mutex
	loaded     bool
	primitives []domain.Primitive
	composites []domain.Composite

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
}

func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

func (p *FileProvider) ListPrimitives(ctx context.Context) ([]domain.Primitive, error) {
	if err := p.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Primitive(nil), p.primitives...), nil
}

func (p *FileProvider) ListComposites(ctx context.Context) ([]domain.Composite, error) {
	if err := p.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Composite(nil), p.composites...), nil
}

func (p *FileProvider) ensureLoaded(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	primitives, err := loadDefinitions[domain.Primitive](filepath.Join(p.dir, "primitives"))
	if err != nil {
		return fmt.Errorf("load primitives: %w", err)
	}
	composites, err := loadDefinitions[domain.Composite](filepath.Join(p.dir, "composites"))
	if err != nil {
		return fmt.Errorf("load composites: %w", err)
	}

	p.primitives = primitives
	p.composites = composites
	p.loaded = true
	return nil
}

func loadDefinitions[T any](dir string) ([]T, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []T
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		var def T
		if err := json.Unmarshal(raw, &def); err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
		out = append(out, def)
	}
	return out, nil
}

// Watch invalidates the cached catalogs when definition files change.
// Subsequent List calls reload from disk.
func (p *FileProvider) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	for _, sub := range []string{"primitives", "composites"} {
		dir := filepath.Join(p.dir, sub)
		if _, statErr := os.Stat(dir); statErr != nil {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	p.watcher = watcher
	p.stopCh = make(chan struct{})

	go func() {
		var reload *time.Timer
		for {
			select {
			case <-p.stopCh:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
					continue
				}
				// Coalesce bursts of events from a single save.
				if reload != nil {
					reload.Stop()
				}
				reload = time.AfterFunc(500*time.Millisecond, func() {
					p.mu.Lock()
					p.loaded = false
					p.mu.Unlock()
					log.Printf("catalog: definitions changed (%s), cache invalidated", event.Name)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("catalog: watcher error: %v", err)
			}
		}
	}()
	return nil
}

// Close stops the watcher if one is running.
func (p *FileProvider) Close() error {
	if p.watcher == nil {
		return nil
	}
	close(p.stopCh)
	return p.watcher.Close()
}

// Static is an in-memory CatalogProvider, used in tests and by embedders
// that supply definitions directly.
type Static struct {
	Primitives []domain.Primitive
	Composites []domain.Composite
}

func (s Static) ListPrimitives(_ context.Context) ([]domain.Primitive, error) {
	return s.Primitives, nil
}

func (s Static) ListComposites(_ context.Context) ([]domain.Composite, error) {
	return s.Composites, nil
}
