// Package surface is the playback control surface: it turns user intent into
// player commands and player events into renderable state.
package surface

import (
	"context"
	"sync"

	"github.com/streamhub-cli/streamhub/log"
	"github.com/streamhub-cli/streamhub/player"
)

// Session is the part of player.Session the surface drives.
type Session interface {
	Load(ctx context.Context, uri string) error
	Play(ctx context.Context)
	Pause(ctx context.Context)
	Seek(ctx context.Context, seconds float64) (float64, error)
	SetMuted(ctx context.Context, muted bool) error
	RequestFullscreen(ctx context.Context)
	ExitFullscreen(ctx context.Context)
	Subscribe(h player.Handler) (unsubscribe func())
}

// Surface holds the PlaybackState for the mounted URI. Playing state comes
// only from player events, never from the commands issued here.
type Surface struct {
	session Session
	onError func(error)
	quality QualityTier

	mu          sync.Mutex
	state       PlaybackState
	mounted     bool
	generation  int
	unsubscribe func()

	changes chan struct{}
}

type Option func(*Surface)

// WithQuality sets the tier selected on every mount.
func WithQuality(q QualityTier) Option {
	return func(s *Surface) { s.quality = q }
}

// New returns an unmounted surface. onError is called once for every
// playback error event.
func New(session Session, onError func(error), opts ...Option) *Surface {
	s := &Surface{
		session: session,
		onError: onError,
		changes: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Changes receives a value whenever the state changes. Notifications coalesce.
func (s *Surface) Changes() <-chan struct{} {
	return s.changes
}

func (s *Surface) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// State returns a copy of the current state.
func (s *Surface) State() PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Mounted reports whether a URI is mounted.
func (s *Surface) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

// Mount binds the surface to uri. Mounting the URI that is already mounted
// does nothing. A different URI releases the previous subscription, resets
// the state and loads the new resource.
func (s *Surface) Mount(ctx context.Context, uri string) error {
	s.mu.Lock()
	if s.mounted && s.state.URI == uri {
		s.mu.Unlock()
		return nil
	}

	s.releaseLocked()
	s.generation++
	gen := s.generation
	s.state = newState(uri, s.quality)
	s.mounted = true
	s.mu.Unlock()

	unsubscribe := s.session.Subscribe(func(ev player.Event) { s.handle(gen, ev) })

	s.mu.Lock()
	if s.generation != gen {
		// Remounted or unmounted while subscribing.
		s.mu.Unlock()
		unsubscribe()
		return nil
	}
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	if err := s.session.Load(ctx, uri); err != nil {
		s.mu.Lock()
		if s.generation == gen {
			s.releaseLocked()
			s.mounted = false
			s.state = PlaybackState{}
		}
		s.mu.Unlock()
		s.notify()
		return err
	}

	s.notify()
	return nil
}

// Unmount releases the subscription and discards the state.
func (s *Surface) Unmount() {
	s.mu.Lock()
	s.releaseLocked()
	s.generation++
	s.mounted = false
	s.state = PlaybackState{}
	s.mu.Unlock()
	s.notify()
}

func (s *Surface) releaseLocked() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *Surface) handle(gen int, ev player.Event) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}

	switch ev.Kind {
	case player.TimeUpdate:
		s.state.Position = ev.Seconds
	case player.DurationKnown:
		s.state.Duration = ev.Seconds
	case player.Started:
		s.state.IsPlaying = true
	case player.Stopped:
		s.state.IsPlaying = false
		s.state.ControlsVisible = true
	}
	s.mu.Unlock()

	if ev.Kind == player.Failed {
		log.WithError(ev.Err).Warn("playback error")
		if s.onError != nil {
			s.onError(ev.Err)
		}
	}

	s.notify()
}

// TogglePlay asks the session to pause when playing and to play otherwise.
// IsPlaying changes once the resulting event arrives.
func (s *Surface) TogglePlay(ctx context.Context) {
	if s.State().IsPlaying {
		s.session.Pause(ctx)
	} else {
		s.session.Play(ctx)
	}
}

// ToggleMute flips IsMuted once the session accepted the change.
func (s *Surface) ToggleMute(ctx context.Context) error {
	muted := !s.State().IsMuted
	if err := s.session.SetMuted(ctx, muted); err != nil {
		return err
	}

	s.mu.Lock()
	s.state.IsMuted = muted
	s.mu.Unlock()
	s.notify()
	return nil
}

// SeekTarget is an absolute position or a fraction of the duration.
type SeekTarget interface {
	resolve(duration float64) float64
}

// Seconds seeks to an absolute position.
type Seconds float64

func (t Seconds) resolve(float64) float64 { return float64(t) }

// Fraction seeks to a share of the duration, as a click on a progress bar would.
type Fraction float64

func (t Fraction) resolve(duration float64) float64 { return float64(t) * duration }

// SeekTo forwards to the session and shows the clamped position right away.
func (s *Surface) SeekTo(ctx context.Context, target SeekTarget) error {
	seconds := target.resolve(s.State().Duration)

	clamped, err := s.session.Seek(ctx, seconds)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state.Position = clamped
	s.mu.Unlock()
	s.notify()
	return nil
}

// SeekBy moves relative to the current position.
func (s *Surface) SeekBy(ctx context.Context, delta float64) error {
	return s.SeekTo(ctx, Seconds(s.State().Position+delta))
}

// SelectQuality only changes what is displayed.
func (s *Surface) SelectQuality(q QualityTier) {
	s.mu.Lock()
	s.state.Quality = q
	s.mu.Unlock()
	s.notify()
}

func (s *Surface) CycleQuality() {
	s.SelectQuality(s.State().Quality.Next())
}

// ToggleFullscreen does not affect controls visibility.
func (s *Surface) ToggleFullscreen(ctx context.Context) {
	s.mu.Lock()
	s.state.Fullscreen = !s.state.Fullscreen
	on := s.state.Fullscreen
	s.mu.Unlock()

	if on {
		s.session.RequestFullscreen(ctx)
	} else {
		s.session.ExitFullscreen(ctx)
	}
	s.notify()
}

// PointerEnter shows the controls.
func (s *Surface) PointerEnter() {
	s.setControls(true)
}

// PointerLeave hides the controls, but only while playing. A paused player
// keeps them visible.
func (s *Surface) PointerLeave() {
	s.mu.Lock()
	playing := s.state.IsPlaying
	s.mu.Unlock()

	if playing {
		s.setControls(false)
	}
}

func (s *Surface) setControls(visible bool) {
	s.mu.Lock()
	changed := s.state.ControlsVisible != visible
	s.state.ControlsVisible = visible
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}
