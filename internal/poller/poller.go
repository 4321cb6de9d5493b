// Package poller keeps the video listing in step with server-side processing.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/spf13/viper"
	"github.com/streamhub-cli/streamhub/api"
	"github.com/streamhub-cli/streamhub/key"
	"github.com/streamhub-cli/streamhub/log"
	"golang.org/x/time/rate"
)

// Lister fetches the full collection. *api.Client satisfies it.
type Lister interface {
	ListVideos(ctx context.Context) ([]api.MediaItem, error)
}

// ShouldPoll reports whether any item is still Pending or Processing.
func ShouldPoll(items []api.MediaItem) bool {
	return api.AnyPending(items)
}

// DefaultInterval is used when sync.interval is unset or invalid.
const DefaultInterval = 10 * time.Second

// Synchronizer fetches the listing once on Start and then on every tick for
// as long as ShouldPoll holds for the most recently applied list. A tick
// never overlaps a fetch that is still outstanding.
type Synchronizer struct {
	lister   Lister
	interval time.Duration
	onChange func([]api.MediaItem)
	onError  func(err error, initial bool)
	limiter  *rate.Limiter

	mu       sync.Mutex
	items    []api.MediaItem
	loaded   bool
	inFlight bool
	sent     uint64
	applied  uint64
	running  bool
	stopped  bool
	stop     chan struct{}
	cancel   context.CancelFunc

	quiesced     chan struct{}
	quiesceOnce  sync.Once
	tickerClosed chan struct{}
}

type Option func(*Synchronizer)

func WithInterval(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithOnChange is called with a copy of every applied list.
func WithOnChange(f func([]api.MediaItem)) Option {
	return func(s *Synchronizer) { s.onChange = f }
}

// WithOnError is called for failed fetches. initial is true only for the
// very first load; later failures are usually worth a log line at most.
func WithOnError(f func(err error, initial bool)) Option {
	return func(s *Synchronizer) { s.onError = f }
}

// WithLimiter throttles fetches, mostly explicit refreshes.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *Synchronizer) { s.limiter = l }
}

// New returns an idle synchronizer. The interval defaults to sync.interval.
func New(lister Lister, opts ...Option) *Synchronizer {
	interval := viper.GetDuration(key.SyncInterval)
	if interval <= 0 {
		interval = DefaultInterval
	}

	s := &Synchronizer{
		lister:   lister,
		interval: interval,
		stop:     make(chan struct{}),
		quiesced: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start issues the initial fetch and starts the ticker. Calling it again is a no-op.
func (s *Synchronizer) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.tickerClosed = make(chan struct{})
	ctx, s.cancel = context.WithCancel(ctx)
	seq := s.beginLocked()
	s.mu.Unlock()

	go s.fetch(ctx, seq)
	go s.loop(ctx)
}

func (s *Synchronizer) loop(ctx context.Context) {
	defer close(s.tickerClosed)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Synchronizer) tick(ctx context.Context) {
	s.mu.Lock()
	if !ShouldPoll(s.items) {
		s.mu.Unlock()
		return
	}
	if s.inFlight {
		s.mu.Unlock()
		log.Debug("poll tick skipped: fetch in flight")
		return
	}
	seq := s.beginLocked()
	s.mu.Unlock()

	go s.fetch(ctx, seq)
}

func (s *Synchronizer) beginLocked() uint64 {
	s.inFlight = true
	s.sent++
	return s.sent
}

// Refresh fetches now, regardless of ShouldPoll and of any outstanding fetch,
// and returns the fetch error. Out-of-order responses are still discarded.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	seq := s.beginLocked()
	s.mu.Unlock()

	return s.fetch(ctx, seq)
}

func (s *Synchronizer) fetch(ctx context.Context, seq uint64) error {
	var (
		items []api.MediaItem
		err   error
	)

	if s.limiter != nil {
		err = s.limiter.Wait(ctx)
	}
	if err == nil {
		items, err = s.lister.ListVideos(ctx)
	}

	s.apply(seq, items, err)
	return err
}

func (s *Synchronizer) apply(seq uint64, items []api.MediaItem, err error) {
	s.mu.Lock()

	if seq == s.sent {
		s.inFlight = false
	}

	if s.stopped {
		s.mu.Unlock()
		log.WithFields(log.Fields{"seq": seq}).Debug("poll result after stop discarded")
		return
	}

	initial := !s.loaded
	s.loaded = true

	if err != nil {
		onError := s.onError
		s.mu.Unlock()

		log.WithError(err).WithField("initial", initial).Warn("listing fetch failed")
		if onError != nil {
			onError(err, initial)
		}
		return
	}

	if applied := s.applied; seq < applied {
		s.mu.Unlock()
		log.WithFields(log.Fields{"seq": seq, "applied": applied}).Debug("stale listing discarded")
		return
	}

	s.applied = seq
	s.items = items
	snapshot := copyItems(items)
	polling := ShouldPoll(items)
	onChange := s.onChange
	s.mu.Unlock()

	log.WithFields(log.Fields{"items": len(items), "polling": polling}).Debug("listing applied")

	if !polling {
		s.quiesceOnce.Do(func() { close(s.quiesced) })
	}
	if onChange != nil {
		onChange(snapshot)
	}
}

// Stop cancels the ticker and any fetch it started, without waiting for the
// fetch to answer. Results arriving afterwards are dropped.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	running := s.running
	closed := s.tickerClosed
	close(s.stop)
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	if running {
		<-closed
	}
}

// Items returns a copy of the last applied list.
func (s *Synchronizer) Items() []api.MediaItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyItems(s.items)
}

// Polling reports whether the next tick would fetch.
func (s *Synchronizer) Polling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.stopped && ShouldPoll(s.items)
}

// Loaded reports whether the initial fetch has completed, successfully or not.
func (s *Synchronizer) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Quiesced is closed the first time an applied list has nothing left to wait for.
func (s *Synchronizer) Quiesced() <-chan struct{} {
	return s.quiesced
}

func copyItems(items []api.MediaItem) []api.MediaItem {
	if items == nil {
		return nil
	}
	return append([]api.MediaItem(nil), items...)
}
