package activity

import (
	"context"
	"strings"
	"sync"
	"time"
)

// SearchDelay coalesces keystrokes into one request
const SearchDelay = 500 * time.Millisecond

// Debouncer calls fire with the last term once input has been quiet for
// delay. A term equal to the last committed one is not fired again.
type Debouncer struct {
	mu        sync.Mutex
	delay     time.Duration
	fire      func(term string)
	timer     *time.Timer
	committed string
	stopped   bool
}

func NewDebouncer(delay time.Duration, fire func(term string)) *Debouncer {
	return &Debouncer{delay: delay, fire: fire}
}

func (d *Debouncer) Input(term string) {
	term = strings.TrimSpace(term)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.commit(term) })
}

func (d *Debouncer) commit(term string) {
	d.mu.Lock()
	if d.stopped || term == d.committed {
		d.mu.Unlock()
		return
	}
	d.committed = term
	d.mu.Unlock()

	d.fire(term)
}

// Committed is the last term passed to fire
func (d *Debouncer) Committed() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.committed
}

// Stop cancels a pending commit; later input is ignored
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}

// Live is one viewer session: typed search is debounced and resets to
// page 1; page changes load immediately with the committed term.
type Live struct {
	viewer  *Viewer
	target  Target
	perPage int
	emit    func(Page, error)

	ctx    context.Context
	cancel context.CancelFunc
	deb    *Debouncer

	mu   sync.Mutex
	page int
}

func NewLive(ctx context.Context, viewer *Viewer, target Target, perPage int, delay time.Duration, emit func(Page, error)) *Live {
	ctx, cancel := context.WithCancel(ctx)
	l := &Live{viewer: viewer, target: target, perPage: perPage, emit: emit, ctx: ctx, cancel: cancel, page: 1}
	l.deb = NewDebouncer(delay, func(string) {
		l.mu.Lock()
		l.page = 1
		l.mu.Unlock()
		l.load()
	})
	return l
}

// Start emits the first page without waiting for input
func (l *Live) Start() { l.load() }

func (l *Live) Search(term string) { l.deb.Input(term) }

func (l *Live) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	l.mu.Lock()
	l.page = page
	l.mu.Unlock()
	l.load()
}

// Close stops the pending search and cancels in-flight loads
func (l *Live) Close() {
	l.deb.Stop()
	l.cancel()
}

func (l *Live) load() {
	if l.ctx.Err() != nil {
		return
	}
	l.mu.Lock()
	page := l.page
	l.mu.Unlock()

	p, err := l.viewer.Load(l.ctx, l.target, l.deb.Committed(), page, l.perPage)
	if l.ctx.Err() != nil {
		return
	}
	l.emit(p, err)
}
