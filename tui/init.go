package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Init starts the status synchronizer and, when launched for a single video,
// the player.
func (b *statefulBubble) Init() tea.Cmd {
	b.synchronizer.Start(b.ctx)

	cmds := []tea.Cmd{
		b.waitForItems(),
		b.waitForSyncError(),
		b.listingC.StartSpinner(),
	}

	if item, ok := b.selected.Get(); ok && b.state == playerState {
		cmds = append(cmds, b.ensurePlayer(), b.mount(item), b.hideControlsLater())
	}

	return tea.Batch(cmds...)
}
