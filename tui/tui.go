// Package tui provides the primary terminal user interface implementation.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/mo"
	"github.com/spf13/viper"
	"github.com/streamhub-cli/streamhub/api"
	"github.com/streamhub-cli/streamhub/key"
	"github.com/streamhub-cli/streamhub/player"
)

// API is the part of the HTTP client the interface needs.
type API interface {
	ListVideos(ctx context.Context) ([]api.MediaItem, error)
	GetVideo(ctx context.Context, id int64) (api.MediaItem, error)
	UploadVideo(ctx context.Context, title, file string) error
}

// Options encapsulates the runtime configuration for the terminal user interface.
type Options struct {
	Client API

	// Backend creates the native player. Defaults to an mpv process.
	Backend func() player.Backend

	// Play opens the player view for this item right away.
	Play mo.Option[api.MediaItem]
}

func defaultBackend() player.Backend {
	return player.NewMPV(player.WithBinary(viper.GetString(key.Player)))
}

// Run initializes and executes the primary Bubble Tea application loop.
func Run(options *Options) error {
	bubble := newBubble(options)
	defer bubble.close()

	bubble.newState(listingState)
	if item, ok := options.Play.Get(); ok {
		bubble.selected = mo.Some(item)
		bubble.newState(playerState)
	}

	_, err := tea.NewProgram(bubble, tea.WithAltScreen(), tea.WithReportFocus()).Run()
	return err
}
