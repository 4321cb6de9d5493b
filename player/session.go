package player

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/samber/lo"
	"github.com/streamhub-cli/streamhub/log"
	"github.com/streamhub-cli/streamhub/util"
)

// Handler receives playback events on the session's dispatcher goroutine.
type Handler func(Event)

// Session is the only code that talks to a Backend. It tracks the state the
// backend last reported and fans events out to subscribers in order.
type Session struct {
	backend Backend

	mu       sync.Mutex
	playing  bool
	position float64
	duration float64
	handlers []subscription
	nextID   int

	local     chan Event
	done      chan struct{}
	closeOnce sync.Once
	stopped   chan struct{}
}

// NewSession starts dispatching events from b.
func NewSession(b Backend) *Session {
	s := &Session{
		backend:  b,
		local:    make(chan Event, 16),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go s.dispatch()
	return s
}

func (s *Session) dispatch() {
	defer close(s.stopped)

	events := s.backend.Events()
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.deliver(ev)
		case ev := <-s.local:
			s.deliver(ev)
		}
	}
}

func (s *Session) deliver(ev Event) {
	s.mu.Lock()
	switch ev.Kind {
	case TimeUpdate:
		s.position = ev.Seconds
	case DurationKnown:
		s.duration = ev.Seconds
	case Started:
		s.playing = true
	case Stopped:
		s.playing = false
	}

	handlers := append([]subscription(nil), s.handlers...)
	s.mu.Unlock()

	for _, sub := range handlers {
		sub.handler(ev)
	}
}

// raise delivers a locally produced event without blocking the caller.
func (s *Session) raise(ev Event) {
	go func() {
		select {
		case s.local <- ev:
		case <-s.done:
		}
	}()
}

// subscription keeps handlers in subscription order.
type subscription struct {
	id      int
	handler Handler
}

// Subscribe registers h and returns a func that removes it.
// The returned func may be called any number of times.
func (s *Session) Subscribe(h Handler) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.handlers = append(s.handlers, subscription{id: id, handler: h})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.handlers = lo.Reject(s.handlers, func(sub subscription, _ int) bool { return sub.id == id })
			s.mu.Unlock()
		})
	}
}

// Subscribers returns the number of live subscriptions.
func (s *Session) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

// Load pauses whatever is playing and binds the backend to uri.
// Position and duration are reset.
func (s *Session) Load(ctx context.Context, uri string) error {
	target, err := sanitizeMediaTarget(uri)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	if s.Playing() {
		if err := s.backend.SetPaused(ctx, true); err != nil {
			log.WithError(err).Warn("pause before load")
		}
	}

	if err := s.backend.Load(ctx, target); err != nil {
		return fmt.Errorf("load %s: %w", target, err)
	}

	s.mu.Lock()
	s.playing = false
	s.position = 0
	s.duration = 0
	s.mu.Unlock()

	return nil
}

// Play resumes playback. It is a no-op while already playing. Failures
// arrive as a Failed event.
func (s *Session) Play(ctx context.Context) {
	if s.Playing() {
		return
	}
	if err := s.backend.SetPaused(ctx, false); err != nil {
		s.raise(Event{Kind: Failed, Err: &PlaybackError{Detail: err.Error()}})
	}
}

// Pause is the counterpart of Play.
func (s *Session) Pause(ctx context.Context) {
	if !s.Playing() {
		return
	}
	if err := s.backend.SetPaused(ctx, true); err != nil {
		s.raise(Event{Kind: Failed, Err: &PlaybackError{Detail: err.Error()}})
	}
}

// Seek moves to seconds clamped to [0, duration] and returns the clamped
// value. Only the lower bound applies while the duration is unknown.
func (s *Session) Seek(ctx context.Context, seconds float64) (float64, error) {
	target := s.clamp(seconds)
	if err := s.backend.Seek(ctx, target); err != nil {
		return target, fmt.Errorf("seek: %w", err)
	}

	s.mu.Lock()
	s.position = target
	s.mu.Unlock()
	return target, nil
}

func (s *Session) clamp(seconds float64) float64 {
	if math.IsNaN(seconds) {
		return 0
	}

	s.mu.Lock()
	duration := s.duration
	s.mu.Unlock()

	if duration > 0 {
		return util.Clamp(seconds, 0, duration)
	}
	return math.Max(seconds, 0)
}

func (s *Session) SetMuted(ctx context.Context, muted bool) error {
	return s.backend.SetMuted(ctx, muted)
}

// SetVolume clamps level to [0, 1].
func (s *Session) SetVolume(ctx context.Context, level float64) error {
	return s.backend.SetVolume(ctx, util.Clamp(level, 0, 1))
}

// RequestFullscreen asks the player to go fullscreen. A refusal is only logged.
func (s *Session) RequestFullscreen(ctx context.Context) {
	if err := s.backend.SetFullscreen(ctx, true); err != nil {
		log.WithError(err).Warn("fullscreen request denied")
	}
}

func (s *Session) ExitFullscreen(ctx context.Context) {
	if err := s.backend.SetFullscreen(ctx, false); err != nil {
		log.WithError(err).Warn("fullscreen exit denied")
	}
}

// Playing reports the last state the backend announced.
func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *Session) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Duration is 0 until the backend reports one.
func (s *Session) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// Close stops dispatching and releases the backend.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		<-s.stopped
		err = s.backend.Close()
	})
	return err
}
