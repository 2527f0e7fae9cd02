package fs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/rolo/pkg/core"
)

type watchWorker struct {
	*worker.BaseWorker
	repo      *Repository
	pattern   string
	events    chan<- core.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
}

func newWatchWorker(repo *Repository, pattern string, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		repo:       repo,
		pattern:    pattern,
		events:     events,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := w.repo.recursiveAdd(watcher); err != nil {
		_ = watcher.Close()
		return err
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(50 * time.Millisecond)
	w.repo.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

// processFilesystemEvent handles filtering, mapping, and debouncing of
// filesystem events. Returns true if the event was processed.
func (w *watchWorker) processFilesystemEvent(ctx context.Context, event fsnotify.Event) (processed bool) {
	if w.repo.config.Logger != nil {
		w.repo.config.Logger.Debug("event received", "name", event.Name)
	}

	if w.repo.shouldIgnore(event, w.pattern) {
		return false
	}

	eType := w.repo.mapEventType(event)
	if eType == "" {
		return false
	}

	id, err := w.repo.resolveID(event.Name)
	if err != nil {
		if w.repo.config.ErrorHandler != nil {
			w.repo.config.ErrorHandler(fmt.Errorf("failed to resolve ID for %s: %w", event.Name, err))
		} else if w.repo.config.Logger != nil {
			w.repo.config.Logger.Debug("resolveID failed", "path", event.Name, "err", err)
		}
		return false
	}

	w.sendEvent(ctx, core.Event{
		Type:      eType,
		ID:        id,
		Timestamp: time.Now().Unix(),
	})

	return true
}

// sendEvent enqueues an event via the debouncer, protecting against
// channel closure during shutdown.
func (w *watchWorker) sendEvent(ctx context.Context, event core.Event) {
	w.debouncer.add(event, func(e core.Event) {
		defer func() {
			// Recover from panic if channel was closed (worker stopping)
			_ = recover()
		}()
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

// handleWatcherError processes errors from the fsnotify watcher.
func (w *watchWorker) handleWatcherError(err error) {
	if w.repo.config.Logger != nil {
		w.repo.config.Logger.Error("fsnotify error", "error", err)
	}
	if w.repo.config.ErrorHandler != nil {
		w.repo.config.ErrorHandler(err)
	}
}

// run is the main event loop for the watcher worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := fmt.Errorf("watcher panic: %v", recovered)

			// Stack trace only in debug logging to keep production log
			// noise and I/O down.
			var stack string
			if w.repo.config.Logger != nil && w.repo.config.Logger.Enabled(ctx, slog.LevelDebug) {
				stack = string(debug.Stack())
			}

			if w.repo.config.Logger != nil {
				if stack != "" {
					w.repo.config.Logger.Error("watcher panic", "error", panicErr, "stack", stack)
				} else {
					w.repo.config.Logger.Error("watcher panic", "error", panicErr)
				}
			}
		}
	}()
	defer w.repo.setWatcherActive(false)
	defer w.watcher.Close()

	err = w.mainEventLoop(ctx)

	// Shutdown debouncer: stop accepting new events and wait for in-flight
	// timers so nothing races the events channel being closed.
	w.debouncer.stopAndWait(5 * time.Second)

	return err
}

// mainEventLoop is the core select loop that processes filesystem and
// watcher events.
func (w *watchWorker) mainEventLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.processFilesystemEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.handleWatcherError(wErr)
		}
	}
}
