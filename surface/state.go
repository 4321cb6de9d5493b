package surface

import (
	"fmt"
	"math"

	"github.com/streamhub-cli/streamhub/icon"
)

// PlaybackState is what the player view renders. It lives for one mounted URI.
type PlaybackState struct {
	URI             string
	IsPlaying       bool
	IsMuted         bool
	Position        float64
	Duration        float64
	Quality         QualityTier
	ControlsVisible bool
	Fullscreen      bool
}

func newState(uri string, quality QualityTier) PlaybackState {
	return PlaybackState{
		URI:             uri,
		Quality:         quality,
		ControlsVisible: true,
	}
}

// FormatTime renders seconds as M:SS. Negative, NaN and infinite input render as 0:00.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int64(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func (s PlaybackState) Elapsed() string {
	return FormatTime(s.Position)
}

// Total renders 0:00 until the duration is known.
func (s PlaybackState) Total() string {
	return FormatTime(s.Duration)
}

// Progress is the played fraction in [0, 1], 0 while the duration is unknown.
func (s PlaybackState) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return math.Min(math.Max(s.Position/s.Duration, 0), 1)
}

// PlayIcon shows the action the play key would take.
func (s PlaybackState) PlayIcon() string {
	if s.IsPlaying {
		return icon.Get(icon.Pause)
	}
	return icon.Get(icon.Play)
}

func (s PlaybackState) VolumeIcon() string {
	if s.IsMuted {
		return icon.Get(icon.Mute)
	}
	return icon.Get(icon.Volume)
}
