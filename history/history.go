// Package history remembers how far each video was watched.
package history

import (
	"time"

	"github.com/metafates/gache"
	"github.com/samber/mo"
	"github.com/streamhub-cli/streamhub/api"
	"github.com/streamhub-cli/streamhub/filesystem"
	"github.com/streamhub-cli/streamhub/where"
)

// Entry is the furthest point reached in one video.
type Entry struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Position  float64   `json:"position"`
	Duration  float64   `json:"duration"`
	WatchedAt time.Time `json:"watched_at"`
}

// Ratio is the watched share in [0, 1].
func (e *Entry) Ratio() float64 {
	if e.Duration <= 0 {
		return 0
	}
	r := e.Position / e.Duration
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}

var cacher = gache.New[map[int64]*Entry](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns every entry keyed by video id.
func Get() (map[int64]*Entry, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[int64]*Entry), nil
	}
	return cached, nil
}

// Save records position for item. An earlier, further position is kept.
func Save(item api.MediaItem, position, duration float64) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	entry := &Entry{
		ID:        item.ID,
		Title:     item.Title,
		Position:  position,
		Duration:  duration,
		WatchedAt: time.Now(),
	}

	if existing, ok := saved[item.ID]; ok && existing.Ratio() > entry.Ratio() {
		entry.Position = existing.Position
		entry.Duration = existing.Duration
	}

	saved[item.ID] = entry
	return cacher.Set(saved)
}

// Progress returns the watched ratio of id, if it was ever played.
func Progress(id int64) mo.Option[float64] {
	saved, err := Get()
	if err != nil {
		return mo.None[float64]()
	}
	if entry, ok := saved[id]; ok {
		return mo.Some(entry.Ratio())
	}
	return mo.None[float64]()
}

// Remove forgets id.
func Remove(id int64) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, id)
	return cacher.Set(saved)
}
