// Package api talks to the video hosting service: listing, detail, status and upload.
package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/mo"
)

// MediaItem is one uploaded video as the server reports it.
// SourceURI is set exactly when Status is Completed.
type MediaItem struct {
	ID        int64
	Title     string
	SourceURI mo.Option[string]
	Status    Status
	CreatedAt time.Time
}

// Record is the wire form of a MediaItem.
type Record struct {
	// ID is the server-assigned identifier.
	ID int64 `json:"id"`
	// Title is the user-supplied title.
	Title string `json:"title"`
	// VideoFile is the playable URL, present once processing completed.
	VideoFile string `json:"video_file,omitempty"`
	// Status is one of PENDING, PROCESSING, COMPLETED, FAILED.
	Status Status `json:"status"`
	// CreatedAt is an RFC 3339 timestamp.
	CreatedAt time.Time `json:"created_at"`
}

// Playable reports whether the item can be handed to a player.
func (m MediaItem) Playable() bool {
	return m.Status == Completed && m.SourceURI.IsPresent()
}

// Record converts m to its wire form.
func (m MediaItem) Record() Record {
	return Record{
		ID:        m.ID,
		Title:     m.Title,
		VideoFile: m.SourceURI.OrEmpty(),
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
	}
}

// Item validates r and converts it.
func (r Record) Item() (MediaItem, error) {
	if _, ok := statusWire[r.Status]; !ok {
		return MediaItem{}, fmt.Errorf("%w: video %d has no status", ErrUnknownStatus, r.ID)
	}

	hasSource := r.VideoFile != ""
	switch {
	case r.Status == Completed && !hasSource:
		return MediaItem{}, fmt.Errorf("%w: video %d is completed but has no video_file", ErrInvalidItem, r.ID)
	case r.Status != Completed && hasSource:
		return MediaItem{}, fmt.Errorf("%w: video %d is %s but has a video_file", ErrInvalidItem, r.ID, r.Status)
	}

	item := MediaItem{
		ID:        r.ID,
		Title:     r.Title,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
	if hasSource {
		item.SourceURI = mo.Some(r.VideoFile)
	}
	return item, nil
}

func (m MediaItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Record())
}

func (m *MediaItem) UnmarshalJSON(data []byte) error {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}

	item, err := r.Item()
	if err != nil {
		return err
	}

	*m = item
	return nil
}

// AnyPending reports whether any item is still waiting on the server.
func AnyPending(items []MediaItem) bool {
	for _, item := range items {
		if !item.Status.Terminal() {
			return true
		}
	}
	return false
}
