// Package player drives an external media player and exposes its state as
// an ordered stream of playback events.
package player

import (
	"context"
	"fmt"
)

// Backend is the native playback handle. MPV is the production implementation.
//
// Events must be delivered in the order the player reports them and the
// channel is closed once the backend is closed.
type Backend interface {
	// Load binds the backend to uri, paused at position 0.
	Load(ctx context.Context, uri string) error
	SetPaused(ctx context.Context, paused bool) error
	// Seek moves to an absolute position in seconds.
	Seek(ctx context.Context, seconds float64) error
	SetMuted(ctx context.Context, muted bool) error
	// SetVolume takes a level in [0, 1].
	SetVolume(ctx context.Context, level float64) error
	SetFullscreen(ctx context.Context, on bool) error
	Events() <-chan Event
	Close() error
}

// Kind enumerates playback events.
type Kind int

const (
	TimeUpdate Kind = iota + 1
	DurationKnown
	Started
	Stopped
	Failed
)

func (k Kind) String() string {
	switch k {
	case TimeUpdate:
		return "time-update"
	case DurationKnown:
		return "duration-known"
	case Started:
		return "started"
	case Stopped:
		return "stopped"
	case Failed:
		return "playback-error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event is one observation from the player. Seconds is set for TimeUpdate
// and DurationKnown, Err for Failed.
type Event struct {
	Kind    Kind
	Seconds float64
	Err     error
}

// PlaybackError describes a failure reported by the player itself.
type PlaybackError struct {
	Detail string
}

func (e *PlaybackError) Error() string {
	return "playback error: " + e.Detail
}
