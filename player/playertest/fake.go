// Package playertest provides an in-memory player.Backend.
package playertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/streamhub-cli/streamhub/player"
)

// Backend records every call and emits only what the test tells it to,
// unless Echo is set, in which case pause changes are echoed back as
// Started and Stopped the way mpv does.
type Backend struct {
	Echo bool

	mu         sync.Mutex
	calls      []string
	failures   map[string]error
	uri        string
	paused     bool
	muted      bool
	volume     float64
	fullscreen bool
	seekedTo   float64
	closed     bool

	events chan player.Event
}

func New() *Backend {
	return &Backend{
		paused:   true,
		volume:   1,
		failures: make(map[string]error),
		events:   make(chan player.Event, 256),
	}
}

// FailOn makes the named operation return err. A nil err clears it.
// Names are load, pause, seek, mute, volume, fullscreen.
func (b *Backend) FailOn(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failures, op)
		return
	}
	b.failures[op] = err
}

// Emit pushes an event as if the player reported it.
func (b *Backend) Emit(ev player.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	select {
	case b.events <- ev:
	default:
		panic("playertest: event buffer full")
	}
}

func (b *Backend) record(op string, args ...any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, strings.TrimSpace(fmt.Sprintln(append([]any{op}, args...)...)))
	return b.failures[op]
}

// Calls returns the operations seen so far, e.g. "pause false".
func (b *Backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// Count returns how many times op was called.
func (b *Backend) Count(op string) int {
	n := 0
	for _, c := range b.Calls() {
		if c == op || strings.HasPrefix(c, op+" ") {
			n++
		}
	}
	return n
}

func (b *Backend) URI() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.uri
}

func (b *Backend) Muted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.muted
}

func (b *Backend) Volume() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.volume
}

func (b *Backend) Fullscreen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fullscreen
}

func (b *Backend) SeekedTo() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seekedTo
}

func (b *Backend) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Backend) Load(_ context.Context, uri string) error {
	if err := b.record("load", uri); err != nil {
		return err
	}
	b.mu.Lock()
	b.uri = uri
	b.paused = true
	b.seekedTo = 0
	b.mu.Unlock()
	return nil
}

func (b *Backend) SetPaused(_ context.Context, paused bool) error {
	if err := b.record("pause", paused); err != nil {
		return err
	}
	b.mu.Lock()
	b.paused = paused
	echo := b.Echo
	b.mu.Unlock()

	if echo {
		if paused {
			b.Emit(player.Event{Kind: player.Stopped})
		} else {
			b.Emit(player.Event{Kind: player.Started})
		}
	}
	return nil
}

func (b *Backend) Seek(_ context.Context, seconds float64) error {
	if err := b.record("seek", seconds); err != nil {
		return err
	}
	b.mu.Lock()
	b.seekedTo = seconds
	b.mu.Unlock()
	return nil
}

func (b *Backend) SetMuted(_ context.Context, muted bool) error {
	if err := b.record("mute", muted); err != nil {
		return err
	}
	b.mu.Lock()
	b.muted = muted
	b.mu.Unlock()
	return nil
}

func (b *Backend) SetVolume(_ context.Context, level float64) error {
	if err := b.record("volume", level); err != nil {
		return err
	}
	b.mu.Lock()
	b.volume = level
	b.mu.Unlock()
	return nil
}

func (b *Backend) SetFullscreen(_ context.Context, on bool) error {
	if err := b.record("fullscreen", on); err != nil {
		return err
	}
	b.mu.Lock()
	b.fullscreen = on
	b.mu.Unlock()
	return nil
}

func (b *Backend) Events() <-chan player.Event {
	return b.events
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.events)
	}
	return nil
}
