package tui

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/viper"
	"github.com/streamhub-cli/streamhub/api"
	"github.com/streamhub-cli/streamhub/history"
	"github.com/streamhub-cli/streamhub/internal/ui"
	"github.com/streamhub-cli/streamhub/key"
	"github.com/streamhub-cli/streamhub/log"
	"github.com/streamhub-cli/streamhub/open"
)

type (
	itemsMsg          []api.MediaItem
	syncErrorMsg      struct{ err error }
	videoMsg          api.MediaItem
	videoErrorMsg     struct{ err error }
	refreshedMsg      struct{ err error }
	uploadedMsg       struct{}
	uploadFailedMsg   struct{ err error }
	mountedMsg        struct{ err error }
	surfaceChangedMsg struct{}
	playbackErrorMsg  struct{ err error }
	hideControlsMsg   struct{ seq int }
)

// latest is a single-slot mailbox where a newer value replaces an unread one.
type latest[T any] struct {
	mu sync.Mutex
	ch chan T
}

func newLatest[T any]() *latest[T] {
	return &latest[T]{ch: make(chan T, 1)}
}

func (l *latest[T]) put(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	select {
	case <-l.ch:
	default:
	}
	l.ch <- v
}

func (b *statefulBubble) waitForItems() tea.Cmd {
	return func() tea.Msg {
		select {
		case items := <-b.itemsChannel.ch:
			return itemsMsg(items)
		case <-b.ctx.Done():
			return nil
		}
	}
}

func (b *statefulBubble) waitForSyncError() tea.Cmd {
	return func() tea.Msg {
		select {
		case err := <-b.syncErrorChannel:
			return syncErrorMsg{err: err}
		case <-b.ctx.Done():
			return nil
		}
	}
}

func (b *statefulBubble) waitForSurface() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-b.surface.Changes():
			return surfaceChangedMsg{}
		case <-b.ctx.Done():
			return nil
		}
	}
}

func (b *statefulBubble) waitForPlaybackError() tea.Cmd {
	return func() tea.Msg {
		select {
		case err := <-b.playbackErrorChannel:
			return playbackErrorMsg{err: err}
		case <-b.ctx.Done():
			return nil
		}
	}
}

// refresh asks for the listing now. The items arrive through waitForItems.
func (b *statefulBubble) refresh() tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg{err: b.synchronizer.Refresh(b.ctx)}
	}
}

func (b *statefulBubble) fetchVideo(id int64) tea.Cmd {
	return func() tea.Msg {
		item, err := b.client.GetVideo(b.ctx, id)
		if err != nil {
			return videoErrorMsg{err: err}
		}
		return videoMsg(item)
	}
}

func (b *statefulBubble) uploadVideo(title, file string) tea.Cmd {
	return func() tea.Msg {
		if err := b.client.UploadVideo(b.ctx, title, file); err != nil {
			return uploadFailedMsg{err: err}
		}
		return uploadedMsg{}
	}
}

// mount loads item into the player, then applies the configured volume and
// autoplay preference.
func (b *statefulBubble) mount(item api.MediaItem) tea.Cmd {
	uri, _ := item.SourceURI.Get()
	session, surf := b.session, b.surface

	return func() tea.Msg {
		if err := surf.Mount(b.ctx, uri); err != nil {
			return mountedMsg{err: err}
		}

		// Left the view while loading.
		if !surf.Mounted() || surf.State().URI != uri {
			return mountedMsg{}
		}

		if err := session.SetVolume(b.ctx, viper.GetFloat64(key.PlayerVolume)); err != nil {
			log.WithError(err).Warn("setting volume")
		}
		if viper.GetBool(key.PlayerAutoplay) {
			session.Play(b.ctx)
		}
		return mountedMsg{}
	}
}

// pause stops playback in the background when the player view is left.
func (b *statefulBubble) pause() tea.Cmd {
	session := b.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(b.ctx, 5*time.Second)
		defer cancel()
		session.Pause(ctx)
		return nil
	}
}

// hideControlsLater hides the controls once the user has been idle for
// tui.controls_hide_after. Any newer call supersedes the pending one.
func (b *statefulBubble) hideControlsLater() tea.Cmd {
	after := viper.GetDuration(key.TUIControlsHideAfter)
	if after <= 0 {
		return nil
	}

	b.idleSeq++
	seq := b.idleSeq
	return tea.Tick(after, func(time.Time) tea.Msg {
		return hideControlsMsg{seq: seq}
	})
}

func (b *statefulBubble) openURL(item api.MediaItem) tea.Cmd {
	uri, ok := item.SourceURI.Get()
	if !ok {
		return nil
	}

	return func() tea.Msg {
		if err := open.Start(uri); err != nil {
			return ui.Toast{Title: "Cannot Open URL", Description: err.Error(), Kind: ui.Destructive}
		}
		return nil
	}
}

// saveProgress records how far the selected video was watched.
func (b *statefulBubble) saveProgress() {
	item, ok := b.selected.Get()
	if !ok || b.surface == nil || !viper.GetBool(key.HistorySave) {
		return
	}

	state := b.surface.State()
	if state.Duration <= 0 {
		return
	}

	if err := history.Save(item, state.Position, state.Duration); err != nil {
		log.WithError(err).Warn("saving history")
	}
}

// watchedRatios maps video ids to the watched share, for the listing cards.
func watchedRatios() map[int64]float64 {
	saved, err := history.Get()
	if err != nil {
		log.WithError(err).Debug("reading history")
		return nil
	}

	ratios := make(map[int64]float64, len(saved))
	for id, entry := range saved {
		ratios[id] = entry.Ratio()
	}
	return ratios
}
