// Package presenter owns a widget's displayed time: it seeds it from the
// time service, advances it locally once per second and replaces it on
// resync.
package presenter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aatuh/radioclock/clock"
	"github.com/aatuh/radioclock/idgen"
	"github.com/aatuh/radioclock/logzap"
	"github.com/aatuh/radioclock/metrics"
	"github.com/aatuh/radioclock/ports"
	"github.com/aatuh/radioclock/timeapi"
	"github.com/aatuh/radioclock/timestamp"
	"github.com/aatuh/radioclock/zones"
	"github.com/jonboulle/clockwork"
)

// TickInterval is how often the displayed time advances by one second.
const TickInterval = time.Second

var (
	// ErrSuperseded is returned to a resync caller whose fetch was overtaken
	// by a newer resync before it resolved.
	ErrSuperseded = errors.New("resync superseded by a newer request")
	// ErrNotMounted is returned when resyncing a presenter that is not
	// mounted or already unmounted.
	ErrNotMounted = errors.New("widget not mounted")
	// ErrAlreadyMounted is returned by a second Mount.
	ErrAlreadyMounted = errors.New("widget already mounted")
)

// TimeSource fetches the authoritative time for a zone.
type TimeSource interface {
	Fetch(ctx context.Context, zone string) (timestamp.Timestamp, error)
}

// Status is the presenter's state machine position.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Presenter is safe for concurrent use.
type Presenter struct {
	id      string
	source  TimeSource
	clock   ports.Clock
	format  timestamp.Formatter
	log     ports.Logger
	ids     ports.IDGen
	metrics metrics.ClockRecorder

	mu          sync.Mutex
	zone        string
	status      Status
	current     timestamp.Timestamp
	err         error
	token       uint64
	syncedAt    time.Time
	cancelFetch context.CancelFunc
	subs        map[chan State]struct{}
	mounted     bool
	closed      bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Presenter.
type Option func(*Presenter)

func WithID(id string) Option                    { return func(p *Presenter) { p.id = id } }
func WithClock(c ports.Clock) Option             { return func(p *Presenter) { p.clock = c } }
func WithFormatter(f timestamp.Formatter) Option { return func(p *Presenter) { p.format = f } }
func WithLogger(l ports.Logger) Option           { return func(p *Presenter) { p.log = l } }
func WithIDGen(g ports.IDGen) Option             { return func(p *Presenter) { p.ids = g } }
func WithMetrics(m metrics.ClockRecorder) Option { return func(p *Presenter) { p.metrics = m } }

// New returns an unmounted presenter showing zone.
func New(source TimeSource, zone string, opts ...Option) *Presenter {
	p := &Presenter{
		source:  source,
		zone:    zone,
		status:  StatusLoading,
		clock:   clock.NewSystemClock(),
		format:  timestamp.Japanese(),
		log:     logzap.NewNop(),
		metrics: metrics.NoopClock{},
		subs:    make(map[chan State]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.ids == nil {
		p.ids = idgen.NewULIDGen(p.clock)
	}
	return p
}

// ID returns the widget ID given at construction.
func (p *Presenter) ID() string { return p.id }

// Mount starts the tick loop and the first fetch. The presenter lives until
// Unmount or until ctx is done; either way it ends unmounted, with its
// subscriptions closed.
func (p *Presenter) Mount(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrNotMounted
	}
	if p.mounted {
		p.mu.Unlock()
		return ErrAlreadyMounted
	}
	p.mounted = true
	p.ctx, p.cancel = context.WithCancel(ctx)
	ticker := p.clock.NewTicker(TickInterval)
	p.wg.Add(1)
	p.mu.Unlock()

	go p.run(p.ctx, ticker)

	p.log.Info("widget mounted", "widget", p.id, "zone", p.Zone())
	_, err := p.startFetch("")
	return err
}

func (p *Presenter) run(ctx context.Context, ticker clockwork.Ticker) {
	defer p.wg.Done()
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			expired := p.shutdownLocked()
			p.mu.Unlock()
			if expired {
				p.log.Info("widget context ended", "widget", p.id, "err", ctx.Err())
			}
			return
		case <-ticker.Chan():
			p.Tick()
		}
	}
}

// Unmount stops the tick loop, cancels any in-flight fetch and closes all
// subscriptions. It blocks until background work has exited.
func (p *Presenter) Unmount() {
	p.mu.Lock()
	first := p.shutdownLocked()
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	if first {
		p.log.Info("widget unmounted", "widget", p.id)
	}
}

// shutdownLocked marks p closed and ends every subscription. It reports
// whether p was still open.
func (p *Presenter) shutdownLocked() bool {
	if p.closed {
		return false
	}
	p.closed = true
	for ch := range p.subs {
		close(ch)
		delete(p.subs, ch)
	}
	return true
}

// Tick advances the displayed time by one second when Ready. It reports
// whether anything changed.
func (p *Presenter) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != StatusReady || p.closed {
		return false
	}
	p.current = p.current.AddSeconds(1)
	p.metrics.IncTick()
	p.publishLocked()
	return true
}

// Resync discards the displayed time and fetches a fresh one for the current
// zone. It blocks until that fetch resolves or ctx is done; the fetch itself
// is not tied to ctx and keeps running.
func (p *Presenter) Resync(ctx context.Context) error {
	done, err := p.startFetch("")
	if err != nil {
		return err
	}
	return wait(ctx, done)
}

// SelectZone switches to zone and resyncs. zone must be in the catalog.
func (p *Presenter) SelectZone(ctx context.Context, zone string) error {
	if !zones.Contains(zone) {
		return fmt.Errorf("%w: %s", zones.ErrUnknownZone, zone)
	}
	done, err := p.startFetch(zone)
	if err != nil {
		return err
	}
	return wait(ctx, done)
}

func wait(ctx context.Context, done <-chan error) error {
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// startFetch enters Loading under a new token and launches the fetch. A
// previous in-flight fetch is cancelled; if it resolves anyway its result is
// dropped because its token is stale.
func (p *Presenter) startFetch(zone string) (<-chan error, error) {
	p.mu.Lock()
	if !p.mounted || p.closed {
		p.mu.Unlock()
		return nil, ErrNotMounted
	}
	if zone != "" && zone != p.zone {
		p.log.Info("zone changed", "widget", p.id, "from", p.zone, "to", zone)
		p.zone = zone
	}
	if p.cancelFetch != nil {
		p.cancelFetch()
	}
	p.token++
	tok, z := p.token, p.zone
	p.status = StatusLoading
	p.current = timestamp.Timestamp{}
	p.err = nil
	fctx, cancel := context.WithCancel(p.ctx)
	p.cancelFetch = cancel
	p.publishLocked()
	p.wg.Add(1)
	p.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		done <- p.fetch(fctx, tok, z)
	}()
	return done, nil
}

func (p *Presenter) fetch(ctx context.Context, tok uint64, zone string) error {
	fetchID := p.ids.New()
	start := p.clock.Now()
	p.log.Debug("resync started", "widget", p.id, "zone", zone, "token", tok, "fetch_id", fetchID)

	ts, err := p.source.Fetch(ctx, zone)
	dur := p.clock.Since(start)

	dropErr := p.apply(tok, ts, err)
	switch {
	case dropErr != nil:
		p.metrics.ObserveFetch(zone, metrics.OutcomeSuperseded, dur)
		p.log.Debug("resync result dropped", "widget", p.id, "zone", zone, "token", tok, "fetch_id", fetchID)
		return dropErr
	case err != nil:
		outcome := metrics.OutcomeNetworkError
		if errors.Is(err, timeapi.ErrParse) {
			outcome = metrics.OutcomeParseError
		}
		p.metrics.ObserveFetch(zone, outcome, dur)
		p.log.Warn("resync failed", "widget", p.id, "zone", zone, "token", tok, "fetch_id", fetchID, "err", err)
		return err
	default:
		p.metrics.ObserveFetch(zone, metrics.OutcomeOK, dur)
		p.log.Info("clock synced", "widget", p.id, "zone", zone, "token", tok, "fetch_id", fetchID, "at", ts.String())
		return nil
	}
}

// apply installs a fetch result if tok is still the latest. The returned
// error is non-nil only when the result was dropped.
func (p *Presenter) apply(tok uint64, ts timestamp.Timestamp, fetchErr error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrNotMounted
	}
	if tok != p.token {
		return ErrSuperseded
	}
	p.cancelFetch = nil
	p.syncedAt = p.clock.Now()
	if fetchErr != nil {
		p.status = StatusFailed
		p.err = fetchErr
	} else {
		p.status = StatusReady
		p.current = ts
	}
	p.publishLocked()
	return nil
}

// Zone returns the selected zone.
func (p *Presenter) Zone() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.zone
}

// Snapshot returns the current display state.
func (p *Presenter) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Subscribe returns a channel that always holds the most recent state; a
// slow reader skips intermediate states rather than blocking the presenter.
// The channel is closed on unsubscribe or Unmount.
func (p *Presenter) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	p.subs[ch] = struct{}{}
	ch <- p.snapshotLocked()
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if _, ok := p.subs[ch]; ok {
				delete(p.subs, ch)
				close(ch)
			}
		})
	}
}

func (p *Presenter) publishLocked() {
	if len(p.subs) == 0 {
		return
	}
	s := p.snapshotLocked()
	for ch := range p.subs {
		select {
		case ch <- s:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}
