package tui

import (
	"context"
	"fmt"
	"strings"

	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/mo"
	"github.com/spf13/viper"
	"github.com/streamhub-cli/streamhub/api"
	"github.com/streamhub-cli/streamhub/internal/ui"
	"github.com/streamhub-cli/streamhub/key"
	"github.com/streamhub-cli/streamhub/log"
	"github.com/streamhub-cli/streamhub/style"
	"github.com/streamhub-cli/streamhub/surface"
)

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if uiCmd := b.notifier.Update(msg); uiCmd != nil {
		cmd = uiCmd
	}

	switch msg := msg.(type) {
	case error:
		b.raiseError(msg)
		return b, cmd
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
	case spinner.TickMsg:
		var spinnerCmd, listCmd tea.Cmd
		b.spinnerC, spinnerCmd = b.spinnerC.Update(msg)
		b.listingC, listCmd = b.listingC.Update(msg)
		if !b.loading {
			spinnerCmd = nil
		}
		return b, tea.Batch(cmd, spinnerCmd, listCmd)
	case itemsMsg:
		b.loaded = true
		return b, tea.Batch(cmd, b.setItems(msg), b.waitForItems())
	case syncErrorMsg:
		b.listingC.StopSpinner()
		return b, tea.Batch(
			cmd,
			ui.Error("Connection Error", "Cannot connect to backend. Make sure the server is running."),
			b.waitForSyncError(),
		)
	case refreshedMsg:
		b.listingC.StopSpinner()
		if msg.err != nil {
			return b, tea.Batch(cmd, ui.Error("Connection Error", msg.err.Error()))
		}
		return b, cmd
	case surfaceChangedMsg:
		return b, tea.Batch(cmd, b.waitForSurface())
	case playbackErrorMsg:
		cmds := []tea.Cmd{cmd, b.waitForPlaybackError(), ui.Error("Playback Error", msg.err.Error())}
		if b.state == playerState {
			cmds = append(cmds, b.leavePlayer())
		}
		return b, tea.Batch(cmds...)
	case tea.KeyMsg:
		if bubblesKey.Matches(msg, b.keymap.forceQuit) {
			return b, tea.Quit
		}

		// Input Guard: an upload in progress cannot be abandoned.
		if b.busy && b.state == uploadState {
			return b, cmd
		}

		if bubblesKey.Matches(msg, b.keymap.back) {
			switch b.state {
			case playerState:
				return b, tea.Batch(cmd, b.leavePlayer())
			case uploadState:
				b.uploadError = mo.None[error]()
				b.titleC.Blur()
				b.fileC.Blur()
			case listingState:
				return b, cmd
			}

			b.previousState()
			b.stopLoading()
			return b, cmd
		}
	}

	var stateCmd tea.Cmd
	switch b.state {
	case loadingState:
		stateCmd = b.updateLoading(msg)
	case listingState:
		stateCmd = b.updateListing(msg)
	case uploadState:
		stateCmd = b.updateUpload(msg)
	case playerState:
		stateCmd = b.updatePlayer(msg)
	case errorState:
		stateCmd = b.updateError(msg)
	}

	return b, tea.Batch(cmd, stateCmd)
}

// setItems rebuilds the listing cards, keeping the cursor where it was.
func (b *statefulBubble) setItems(items []api.MediaItem) tea.Cmd {
	b.listingC.StopSpinner()

	ratios := watchedRatios()
	listItems := make([]list.Item, len(items))
	for i, item := range items {
		li := &listItem{item: item}
		if ratio, ok := ratios[item.ID]; ok {
			li.watched = mo.Some(ratio)
		}
		listItems[i] = li
	}

	return b.listingC.SetItems(listItems)
}

func (b *statefulBubble) selectedItem() (api.MediaItem, bool) {
	li, ok := b.listingC.SelectedItem().(*listItem)
	if !ok {
		return api.MediaItem{}, false
	}
	return li.item, true
}

func (b *statefulBubble) updateListing(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case bubblesKey.Matches(msg, b.keymap.play):
			item, ok := b.selectedItem()
			if !ok {
				return nil
			}

			if !item.Playable() {
				return b.listingC.NewStatusMessage(style.Faint(fmt.Sprintf("%s is %s", item.Title, strings.ToLower(item.Status.Label()))))
			}

			b.progressStatus = fmt.Sprintf("Fetching %s", item.Title)
			b.newState(loadingState)
			return tea.Batch(b.startLoading(), b.fetchVideo(item.ID))
		case bubblesKey.Matches(msg, b.keymap.upload):
			b.uploadError = mo.None[error]()
			b.fileC.Blur()
			b.newState(uploadState)
			return tea.Batch(b.titleC.Focus(), textinput.Blink)
		case bubblesKey.Matches(msg, b.keymap.refresh):
			return tea.Batch(b.listingC.StartSpinner(), b.refresh())
		case bubblesKey.Matches(msg, b.keymap.openURL):
			if item, ok := b.selectedItem(); ok {
				return b.openURL(item)
			}
			return nil
		}
	}

	var cmd tea.Cmd
	b.listingC, cmd = b.listingC.Update(msg)
	return cmd
}

func (b *statefulBubble) updateLoading(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case videoMsg:
		item := api.MediaItem(msg)
		b.stopLoading()

		if !item.Playable() {
			b.previousState()
			return ui.Notify(ui.Toast{
				Title:       "Not Ready",
				Description: fmt.Sprintf("%s is %s", item.Title, strings.ToLower(item.Status.Label())),
				Kind:        ui.Info,
			})
		}

		b.selected = mo.Some(item)
		b.newState(playerState)
		return tea.Batch(b.ensurePlayer(), b.mount(item), b.hideControlsLater())
	case videoErrorMsg:
		b.stopLoading()
		b.previousState()

		if api.IsNotFound(msg.err) {
			return ui.Error("Video Not Found", "It may have been deleted.")
		}
		return ui.Error("Connection Error", msg.err.Error())
	}

	return nil
}

func (b *statefulBubble) updateUpload(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case uploadedMsg:
		b.stopLoading()
		b.titleC.SetValue("")
		b.fileC.SetValue("")
		b.titleC.Blur()
		b.fileC.Blur()
		b.previousState()

		return tea.Batch(
			ui.Notify(ui.Toast{
				Title:       "Upload Successful!",
				Description: "Your video is now being processed",
				Kind:        ui.Success,
			}),
			b.listingC.StartSpinner(),
			b.refresh(),
		)
	case uploadFailedMsg:
		b.stopLoading()
		return ui.Error("Upload Failed", msg.err.Error())
	case tea.KeyMsg:
		switch {
		case bubblesKey.Matches(msg, b.keymap.nextField):
			if b.titleC.Focused() {
				b.titleC.Blur()
				return b.fileC.Focus()
			}
			b.fileC.Blur()
			return b.titleC.Focus()
		case bubblesKey.Matches(msg, b.keymap.submit):
			title := strings.TrimSpace(b.titleC.Value())
			file := strings.TrimSpace(b.fileC.Value())

			if err := api.ValidateUpload(title, file); err != nil {
				b.uploadError = mo.Some(err)
				return nil
			}

			b.uploadError = mo.None[error]()
			b.progressStatus = fmt.Sprintf("Uploading %s", title)
			return tea.Batch(b.startLoading(), b.uploadVideo(title, file))
		}
	}

	var titleCmd, fileCmd tea.Cmd
	b.titleC, titleCmd = b.titleC.Update(msg)
	b.fileC, fileCmd = b.fileC.Update(msg)
	return tea.Batch(titleCmd, fileCmd)
}

// control runs a player command off the event loop. Failures become a toast.
func (b *statefulBubble) control(f func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := f(b.ctx); err != nil {
			log.WithError(err).Warn("player command failed")
			return ui.Toast{Title: "Player Error", Description: err.Error(), Kind: ui.Destructive}
		}
		return nil
	}
}

func (b *statefulBubble) updatePlayer(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case mountedMsg:
		if msg.err != nil {
			return tea.Batch(ui.Error("Playback Error", msg.err.Error()), b.leavePlayer())
		}
	case tea.FocusMsg:
		b.surface.PointerEnter()
		return b.hideControlsLater()
	case tea.BlurMsg:
		b.surface.PointerLeave()
	case hideControlsMsg:
		if msg.seq == b.idleSeq {
			b.surface.PointerLeave()
		}
	case tea.KeyMsg:
		b.surface.PointerEnter()
		cmds := []tea.Cmd{b.hideControlsLater()}
		surf := b.surface
		step := float64(viper.GetInt(key.TUISeekStep))

		switch {
		case bubblesKey.Matches(msg, b.keymap.quit):
			return tea.Batch(b.leavePlayer(), tea.Quit)
		case bubblesKey.Matches(msg, b.keymap.playPause):
			cmds = append(cmds, b.control(func(ctx context.Context) error {
				surf.TogglePlay(ctx)
				return nil
			}))
		case bubblesKey.Matches(msg, b.keymap.seekForward):
			cmds = append(cmds, b.control(func(ctx context.Context) error {
				return surf.SeekBy(ctx, step)
			}))
		case bubblesKey.Matches(msg, b.keymap.seekBackward):
			cmds = append(cmds, b.control(func(ctx context.Context) error {
				return surf.SeekBy(ctx, -step)
			}))
		case bubblesKey.Matches(msg, b.keymap.jump):
			fraction := surface.Fraction(float64(msg.Runes[0]-'0') / 10)
			cmds = append(cmds, b.control(func(ctx context.Context) error {
				return surf.SeekTo(ctx, fraction)
			}))
		case bubblesKey.Matches(msg, b.keymap.mute):
			cmds = append(cmds, b.control(surf.ToggleMute))
		case bubblesKey.Matches(msg, b.keymap.quality):
			surf.CycleQuality()
		case bubblesKey.Matches(msg, b.keymap.fullscreen):
			cmds = append(cmds, b.control(func(ctx context.Context) error {
				surf.ToggleFullscreen(ctx)
				return nil
			}))
		case bubblesKey.Matches(msg, b.keymap.openURL):
			if item, ok := b.selected.Get(); ok {
				cmds = append(cmds, b.openURL(item))
			}
		case bubblesKey.Matches(msg, b.keymap.showHelp):
			b.helpC.ShowAll = !b.helpC.ShowAll
		}

		return tea.Batch(cmds...)
	}

	return nil
}

// leavePlayer saves progress, releases the surface and goes back.
func (b *statefulBubble) leavePlayer() tea.Cmd {
	b.saveProgress()
	b.idleSeq++

	var cmds []tea.Cmd
	if b.surface != nil {
		b.surface.Unmount()
		cmds = append(cmds, b.pause())
	}
	b.selected = mo.None[api.MediaItem]()
	b.previousState()

	if b.loaded {
		cmds = append(cmds, b.setItems(b.synchronizer.Items()))
	}
	return tea.Batch(cmds...)
}

func (b *statefulBubble) updateError(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok && bubblesKey.Matches(msg, b.keymap.quit) {
		return tea.Quit
	}
	return nil
}
