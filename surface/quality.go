package surface

import (
	"fmt"
	"strings"
)

// QualityTier is a display preference only. The source URI is the same
// whatever tier is selected.
type QualityTier int

const (
	Auto QualityTier = iota
	Q1080
	Q720
	Q480
	Q360
)

var qualityNames = []string{"auto", "1080p", "720p", "480p", "360p"}

// Qualities lists every tier in menu order.
func Qualities() []QualityTier {
	return []QualityTier{Auto, Q1080, Q720, Q480, Q360}
}

func (q QualityTier) String() string {
	if q < 0 || int(q) >= len(qualityNames) {
		return fmt.Sprintf("QualityTier(%d)", int(q))
	}
	return qualityNames[q]
}

// Label is the menu text, e.g. "Auto" or "720p".
func (q QualityTier) Label() string {
	if q == Auto {
		return "Auto"
	}
	return q.String()
}

// Next cycles through the tiers, wrapping after the last.
func (q QualityTier) Next() QualityTier {
	return QualityTier((int(q) + 1) % len(qualityNames))
}

func ParseQuality(s string) (QualityTier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range qualityNames {
		if name == s {
			return QualityTier(i), nil
		}
	}
	return Auto, fmt.Errorf("unknown quality %q, expected one of %s", s, strings.Join(qualityNames, ", "))
}
