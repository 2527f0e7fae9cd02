package fs

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/rolo/pkg/contact"
	"github.com/aretw0/rolo/pkg/core"
)

// DefaultSystemDir is the hidden directory holding the identity index.
const DefaultSystemDir = ".rolo"

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path         string
	AutoInit     bool
	MustExist    bool
	ReadOnly     bool
	SystemDir    string // e.g. ".rolo"
	Logger       *slog.Logger
	ErrorHandler func(error)
}

// Repository implements core.Repository over a folder of Markdown contact
// files.
type Repository struct {
	Path   string
	config Config
	index  *index

	mu            sync.RWMutex
	watcherActive bool
	lastReconcile *time.Time
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	return &Repository{
		Path:   config.Path,
		config: config,
		index:  newIndex(config.Path, config.SystemDir),
	}
}

// Initialize performs the necessary setup for the vault directory. A
// missing directory is created only when AutoInit is set and neither
// MustExist nor ReadOnly forbids it.
func (r *Repository) Initialize(ctx context.Context) error {
	info, err := os.Stat(r.Path)
	if os.IsNotExist(err) {
		if !r.config.AutoInit || r.config.MustExist || r.config.ReadOnly {
			return fmt.Errorf("vault path does not exist: %s", r.Path)
		}
		if err := os.MkdirAll(r.Path, 0755); err != nil {
			return fmt.Errorf("failed to create vault directory: %w", err)
		}
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("vault path is not a directory: %s", r.Path)
	}
	return nil
}

// Save persists a contact document, writing the file atomically and
// refreshing its index entry.
func (r *Repository) Save(ctx context.Context, doc core.Document) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	if doc.ID == "" {
		return fmt.Errorf("document has no ID")
	}

	relPath := r.relPath(doc.ID)
	fullPath := filepath.Join(r.Path, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	data, err := SerializeDocument(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}

	if err := writeFileAtomic(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if info, err := os.Stat(fullPath); err == nil {
		r.index.Set(relPath, entryFor(doc, info.ModTime()))
		if err := r.index.Save(); err != nil && r.config.Logger != nil {
			r.config.Logger.Warn("failed to save index", "error", err)
		}
	}

	return nil
}

// Get retrieves a contact document by ID.
func (r *Repository) Get(ctx context.Context, id string) (core.Document, error) {
	fullPath := filepath.Join(r.Path, r.relPath(id))

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return core.Document{}, fmt.Errorf("%s: %w", id, core.ErrNotFound)
		}
		return core.Document{}, err
	}
	defer f.Close()

	doc, err := ParseDocument(f)
	if err != nil {
		return core.Document{}, fmt.Errorf("failed to parse document %s: %w", id, err)
	}
	doc.ID = id

	return *doc, nil
}

// List scans the vault for all contact documents.
//
// Every file is fully parsed (the reconciliation core needs bodies, not
// just metadata); the identity index is refreshed as a side effect so
// name/UID lookups and offline reconciliation stay cheap.
func (r *Repository) List(ctx context.Context) ([]core.Document, error) {
	if err := r.index.Load(); err != nil && r.config.Logger != nil {
		r.config.Logger.Warn("failed to load index", "error", err)
	}

	var docs []core.Document
	seen := make(map[string]bool)

	err := r.walk(func(relPath string, info fs.FileInfo) error {
		seen[relPath] = true

		id := strings.TrimSuffix(relPath, ".md")
		doc, err := r.Get(ctx, id)
		if err != nil {
			if r.config.Logger != nil {
				r.config.Logger.Warn("failed to parse contact during list", "id", id, "error", err)
			}
			return nil // Continue walking
		}

		r.index.Set(relPath, entryFor(doc, info.ModTime()))
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk vault dir: %w", err)
	}

	r.index.Prune(seen)
	if !r.config.ReadOnly {
		if err := r.index.Save(); err != nil && r.config.Logger != nil {
			r.config.Logger.Warn("failed to save index", "error", err)
		}
	}

	return docs, nil
}

// Delete removes a contact document by ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}

	relPath := r.relPath(id)
	fullPath := filepath.Join(r.Path, relPath)

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", id, core.ErrNotFound)
	}
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	r.index.Delete(relPath)
	if err := r.index.Save(); err != nil && r.config.Logger != nil {
		r.config.Logger.Warn("failed to save index", "error", err)
	}
	return nil
}

// Reconcile compares the vault against the identity index and returns the
// events missed while no watcher was running.
func (r *Repository) Reconcile(ctx context.Context) ([]core.Event, error) {
	if err := r.index.Load(); err != nil && r.config.Logger != nil {
		r.config.Logger.Warn("failed to load index", "error", err)
	}

	now := time.Now().Unix()
	var events []core.Event
	seen := make(map[string]bool)

	err := r.walk(func(relPath string, info fs.FileInfo) error {
		seen[relPath] = true

		_, indexed := r.index.Lookup(relPath)
		_, fresh := r.index.Get(relPath, info.ModTime())
		if indexed && fresh {
			return nil
		}

		id := strings.TrimSuffix(relPath, ".md")
		doc, err := r.Get(ctx, id)
		if err != nil {
			return nil
		}
		r.index.Set(relPath, entryFor(doc, info.ModTime()))

		eType := core.EventModify
		if !indexed {
			eType = core.EventCreate
		}
		events = append(events, core.Event{Type: eType, ID: id, Timestamp: now})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk vault dir: %w", err)
	}

	for _, removed := range r.index.Prune(seen) {
		events = append(events, core.Event{Type: core.EventDelete, ID: removed.ID, Timestamp: now})
	}

	if !r.config.ReadOnly {
		if err := r.index.Save(); err != nil && r.config.Logger != nil {
			r.config.Logger.Warn("failed to save index", "error", err)
		}
	}

	r.recordReconcile()
	return events, nil
}

// Watch observes the vault for changes matching the given doublestar
// pattern (empty means everything). The returned channel closes when ctx
// is cancelled.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	events := make(chan core.Event, 64)
	w := newWatchWorker(r, pattern, events)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		_ = w.Stop(context.Background())
		close(events)
	}()

	return events, nil
}

// walk visits every contact file under the vault root, skipping the
// system directory and non-Markdown files.
func (r *Repository) walk(visit func(relPath string, info fs.FileInfo) error) error {
	return filepath.WalkDir(r.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == r.config.SystemDir || strings.HasPrefix(d.Name(), ".") && path != r.Path {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(d.Name()) != ".md" {
			return nil
		}

		relPath, err := filepath.Rel(r.Path, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		info, err := d.Info()
		if err != nil {
			return nil
		}
		return visit(relPath, info)
	})
}

func (r *Repository) relPath(id string) string {
	if filepath.Ext(id) == ".md" {
		return filepath.ToSlash(id)
	}
	return filepath.ToSlash(id) + ".md"
}

func entryFor(doc core.Document, mtime time.Time) *indexEntry {
	c := contact.New(doc)
	return &indexEntry{
		ID:           doc.ID,
		Name:         c.Name(),
		UID:          c.UID(),
		Gender:       c.Gender().String(),
		LastModified: mtime,
	}
}

// shouldIgnore filters raw filesystem events before they become vault
// events: system/temp files, non-Markdown files, and paths outside the
// watch pattern.
func (r *Repository) shouldIgnore(event fsnotify.Event, pattern string) bool {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, TempFilePrefix) || strings.HasPrefix(base, ".") {
		return true
	}

	relPath, err := filepath.Rel(r.Path, event.Name)
	if err != nil {
		return true
	}
	relPath = filepath.ToSlash(relPath)
	if relPath == "." || strings.HasPrefix(relPath, r.config.SystemDir+"/") || relPath == r.config.SystemDir {
		return true
	}
	if filepath.Ext(relPath) != ".md" {
		return true
	}

	if pattern != "" {
		match, err := doublestar.Match(pattern, relPath)
		if err != nil || !match {
			return true
		}
	}
	return false
}

// mapEventType converts an fsnotify op to a vault event type; empty means
// the event carries no interesting change.
func (r *Repository) mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Create):
		return core.EventCreate
	case event.Has(fsnotify.Write):
		return core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete
	}
	return ""
}

// resolveID converts an absolute event path to a document ID.
func (r *Repository) resolveID(path string) (string, error) {
	relPath, err := filepath.Rel(r.Path, path)
	if err != nil {
		return "", err
	}
	relPath = filepath.ToSlash(relPath)
	return strings.TrimSuffix(relPath, ".md"), nil
}

// recursiveAdd registers the vault root and every subdirectory with the
// watcher.
func (r *Repository) recursiveAdd(watcher *fsnotify.Watcher) error {
	return filepath.WalkDir(r.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == r.config.SystemDir || (strings.HasPrefix(d.Name(), ".") && path != r.Path) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
