package fs

import (
	"sync"
	"time"

	"github.com/aretw0/rolo/pkg/core"
)

// debouncer coalesces bursts of filesystem events per document ID: editors
// tend to emit several writes for one logical save. Only the last event
// within the window is emitted.
type debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timers  map[string]*time.Timer
	latest  map[string]core.Event
	wg      sync.WaitGroup
	stopped bool
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:  delay,
		timers: make(map[string]*time.Timer),
		latest: make(map[string]core.Event),
	}
}

// add schedules (or reschedules) the emission of an event for its ID.
func (d *debouncer) add(e core.Event, emit func(core.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.latest[e.ID] = e
	if timer, ok := d.timers[e.ID]; ok {
		timer.Reset(d.delay)
		return
	}

	d.wg.Add(1)
	d.timers[e.ID] = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()

		d.mu.Lock()
		event, ok := d.latest[e.ID]
		delete(d.latest, e.ID)
		delete(d.timers, e.ID)
		d.mu.Unlock()

		if ok {
			emit(event)
		}
	})
}

// stopAndWait rejects new events and waits for in-flight timers, bounded
// by the timeout.
func (d *debouncer) stopAndWait(timeout time.Duration) {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
	}
}
