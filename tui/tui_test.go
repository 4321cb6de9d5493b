package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
	"github.com/streamhub-cli/streamhub/api"
	"github.com/streamhub-cli/streamhub/config"
	"github.com/streamhub-cli/streamhub/filesystem"
	"github.com/streamhub-cli/streamhub/history"
	"github.com/streamhub-cli/streamhub/internal/ui"
	"github.com/streamhub-cli/streamhub/player"
	"github.com/streamhub-cli/streamhub/player/playertest"
	"github.com/streamhub-cli/streamhub/surface"
)

func init() {
	filesystem.SetMemMapFs()
	lo.Must0(config.Setup())
}

const clip = "http://127.0.0.1:8000/media/videos/holiday.mp4"

var (
	ready = api.MediaItem{
		ID:        1,
		Title:     "Holiday",
		SourceURI: mo.Some(clip),
		Status:    api.Completed,
		CreatedAt: time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC),
	}
	processing = api.MediaItem{
		ID:        2,
		Title:     "Birthday",
		Status:    api.Processing,
		CreatedAt: time.Now(),
	}
)

type fakeAPI struct {
	mu      sync.Mutex
	items   []api.MediaItem
	listErr error
	gets    int
	uploads []string
}

func (f *fakeAPI) ListVideos(context.Context) ([]api.MediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.MediaItem(nil), f.items...), f.listErr
}

func (f *fakeAPI) GetVideo(_ context.Context, id int64) (api.MediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	for _, item := range f.items {
		if item.ID == id {
			return item, nil
		}
	}
	return api.MediaItem{}, &api.NotFoundError{ID: id}
}

func (f *fakeAPI) UploadVideo(_ context.Context, title, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, title)
	return nil
}

func (f *fakeAPI) uploaded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploads...)
}

// collect runs cmd and every command it batches, returning the messages that
// arrive quickly. Commands still blocked after a short while are abandoned.
func collect(cmd tea.Cmd) []tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	var (
		mu   sync.Mutex
		msgs []tea.Msg
		wg   sync.WaitGroup
		run  func(tea.Cmd)
	)

	run = func(cmd tea.Cmd) {
		if cmd == nil {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := make(chan tea.Msg, 1)
			go func() { ch <- cmd() }()

			select {
			case msg := <-ch:
				switch msg := msg.(type) {
				case nil:
				case tea.BatchMsg:
					for _, c := range msg {
						run(c)
					}
				default:
					mu.Lock()
					msgs = append(msgs, msg)
					mu.Unlock()
				}
			case <-ctx.Done():
			}
		}()
	}

	run(cmd)
	wg.Wait()
	return msgs
}

func toastTitles(msgs []tea.Msg) []string {
	return lo.FilterMap(msgs, func(msg tea.Msg, _ int) (string, bool) {
		t, ok := msg.(ui.Toast)
		return t.Title, ok
	})
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func newTestBubble(client *fakeAPI, backend *playertest.Backend) *statefulBubble {
	b := newBubble(&Options{
		Client:  client,
		Backend: func() player.Backend { return backend },
	})
	b.resize(100, 40)
	b.newState(listingState)
	return b
}

func TestListing(t *testing.T) {
	Convey("Given the listing view", t, func() {
		client := &fakeAPI{items: []api.MediaItem{ready, processing}}
		b := newTestBubble(client, playertest.New())
		defer b.close()

		Convey("Before the first load nothing claims the list is empty", func() {
			So(b.View(), ShouldNotContainSubstring, "No videos yet")
		})

		Convey("When the synchronizer delivers items", func() {
			b.Update(itemsMsg(client.items))

			Convey("Then every video gets a card with its badge", func() {
				So(b.listingC.Items(), ShouldHaveLength, 2)
				view := b.View()
				So(view, ShouldContainSubstring, "Holiday")
				So(view, ShouldContainSubstring, "Ready")
				So(view, ShouldContainSubstring, "Processing")
			})

			Convey("Then selecting a processing video does nothing", func() {
				b.listingC.Select(1)
				b.Update(keyPress("enter"))
				So(b.state, ShouldEqual, listingState)
				So(client.gets, ShouldEqual, 0)
			})

			Convey("Then selecting a ready video fetches it", func() {
				_, cmd := b.Update(keyPress("enter"))
				So(b.state, ShouldEqual, loadingState)

				msgs := collect(cmd)
				video, ok := lo.Find(msgs, func(m tea.Msg) bool {
					_, ok := m.(videoMsg)
					return ok
				})
				So(ok, ShouldBeTrue)
				So(api.MediaItem(video.(videoMsg)).ID, ShouldEqual, ready.ID)
			})
		})

		Convey("When the backend has no videos", func() {
			b.Update(itemsMsg(nil))
			So(b.View(), ShouldContainSubstring, "No videos yet")
		})

		Convey("When the initial load fails", func() {
			_, cmd := b.Update(syncErrorMsg{err: errors.New("connection refused")})
			So(toastTitles(collect(cmd)), ShouldContain, "Connection Error")
		})

		Convey("When the video is gone by the time it is opened", func() {
			b.newState(loadingState)
			_, cmd := b.Update(videoErrorMsg{err: &api.NotFoundError{ID: 9}})

			So(b.state, ShouldEqual, listingState)
			So(toastTitles(collect(cmd)), ShouldContain, "Video Not Found")
		})
	})
}

func TestUpload(t *testing.T) {
	Convey("Given the upload form", t, func() {
		client := &fakeAPI{items: []api.MediaItem{ready}}
		b := newTestBubble(client, playertest.New())
		defer b.close()

		b.Update(keyPress("u"))
		So(b.state, ShouldEqual, uploadState)

		Convey("When fields are missing", func() {
			b.titleC.SetValue("   ")
			_, cmd := b.Update(keyPress("enter"))

			Convey("Then the form complains inline and sends nothing", func() {
				So(cmd, ShouldBeNil)
				So(b.uploadError.IsPresent(), ShouldBeTrue)
				So(api.IsValidation(b.uploadError.MustGet()), ShouldBeTrue)
				So(b.View(), ShouldContainSubstring, "Missing Information")
				So(client.uploaded(), ShouldBeEmpty)
			})
		})

		Convey("When the form is complete", func() {
			So(afero.WriteFile(filesystem.API(), "/videos/party.mp4", []byte("data"), 0o644), ShouldBeNil)
			b.titleC.SetValue("Party")
			b.fileC.SetValue("/videos/party.mp4")

			_, cmd := b.Update(keyPress("enter"))
			So(b.busy, ShouldBeTrue)

			msgs := collect(cmd)
			So(msgs, ShouldContain, uploadedMsg{})
			So(client.uploaded(), ShouldResemble, []string{"Party"})

			Convey("Then success returns to the listing and refreshes it", func() {
				_, cmd := b.Update(uploadedMsg{})
				So(b.state, ShouldEqual, listingState)
				So(b.busy, ShouldBeFalse)
				So(b.titleC.Value(), ShouldBeEmpty)

				msgs := collect(cmd)
				So(toastTitles(msgs), ShouldContain, "Upload Successful!")
				So(msgs, ShouldContain, refreshedMsg{})
			})

			Convey("Then a failure keeps the form", func() {
				_, cmd := b.Update(uploadFailedMsg{err: errors.New("413")})
				So(b.state, ShouldEqual, uploadState)
				So(toastTitles(collect(cmd)), ShouldContain, "Upload Failed")
			})
		})

		Convey("Escape goes back without uploading", func() {
			b.Update(keyPress("esc"))
			So(b.state, ShouldEqual, listingState)
			So(client.uploaded(), ShouldBeEmpty)
		})
	})
}

func TestPlayer(t *testing.T) {
	Convey("Given a ready video opened in the player", t, func() {
		client := &fakeAPI{items: []api.MediaItem{ready, processing}}
		backend := playertest.New()
		backend.Echo = true
		b := newTestBubble(client, backend)
		defer b.close()
		defer func() { _ = history.Remove(ready.ID) }()

		b.Update(itemsMsg(client.items))
		b.newState(loadingState)
		b.Update(videoMsg(ready))
		So(b.state, ShouldEqual, playerState)
		So(b.surface, ShouldNotBeNil)

		b.Update(b.mount(ready)())

		So(backend.URI(), ShouldEqual, clip)
		So(eventually(func() bool { return b.surface.State().IsPlaying }), ShouldBeTrue)
		So(b.View(), ShouldContainSubstring, "March 5, 2024")

		Convey("Keys drive the surface", func() {
			collect(func() tea.Cmd { _, cmd := b.Update(keyPress("m")); return cmd }())
			So(backend.Muted(), ShouldBeTrue)
			So(b.surface.State().IsMuted, ShouldBeTrue)

			collect(func() tea.Cmd { _, cmd := b.Update(keyPress("right")); return cmd }())
			So(backend.SeekedTo(), ShouldEqual, 5)

			b.Update(keyPress("c"))
			So(b.surface.State().Quality, ShouldEqual, surface.Q1080)
		})

		Convey("Idle time hides the controls and a key shows them", func() {
			b.Update(hideControlsMsg{seq: b.idleSeq})
			So(b.surface.State().ControlsVisible, ShouldBeFalse)
			So(b.View(), ShouldContainSubstring, "Press any key to show controls")

			b.Update(keyPress("c"))
			So(b.surface.State().ControlsVisible, ShouldBeTrue)
		})

		Convey("A stale idle timer is ignored", func() {
			stale := b.idleSeq
			b.Update(keyPress("c"))
			b.Update(hideControlsMsg{seq: stale})
			So(b.surface.State().ControlsVisible, ShouldBeTrue)
		})

		Convey("Leaving saves progress and releases the surface", func() {
			backend.Emit(player.Event{Kind: player.DurationKnown, Seconds: 100})
			backend.Emit(player.Event{Kind: player.TimeUpdate, Seconds: 50})
			So(eventually(func() bool { return b.surface.State().Position == 50 }), ShouldBeTrue)

			collect(func() tea.Cmd { _, cmd := b.Update(keyPress("esc")); return cmd }())

			So(b.state, ShouldEqual, listingState)
			So(b.surface.Mounted(), ShouldBeFalse)
			So(b.selected.IsAbsent(), ShouldBeTrue)
			So(history.Progress(ready.ID).MustGet(), ShouldEqual, 0.5)
			So(eventually(func() bool { return !b.session.Playing() }), ShouldBeTrue)
		})

		Convey("A playback error returns to the listing with a toast", func() {
			backend.Emit(player.Event{Kind: player.Failed, Err: &player.PlaybackError{Detail: "decoder failed"}})

			var err error
			select {
			case err = <-b.playbackErrorChannel:
			case <-time.After(2 * time.Second):
			}
			So(err, ShouldNotBeNil)

			_, cmd := b.Update(playbackErrorMsg{err: err})
			So(b.state, ShouldEqual, listingState)
			So(toastTitles(collect(cmd)), ShouldContain, "Playback Error")
		})
	})
}
