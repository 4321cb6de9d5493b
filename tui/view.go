package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wrap"
	"github.com/spf13/viper"
	"github.com/streamhub-cli/streamhub/api"
	"github.com/streamhub-cli/streamhub/color"
	"github.com/streamhub-cli/streamhub/icon"
	"github.com/streamhub-cli/streamhub/key"
	"github.com/streamhub-cli/streamhub/style"
)

var (
	listExtraPaddingStyle = lipgloss.NewStyle().Padding(1, 2, 1, 0)
	paddingStyle          = lipgloss.NewStyle().Padding(1, 2)
)

// longDate is how the player view shows when a video was created.
const longDate = "January 2, 2006"

func (b *statefulBubble) View() string {
	var output string

	switch b.state {
	case loadingState:
		output = b.viewLoading()
	case listingState:
		output = b.viewListing()
	case uploadState:
		output = b.viewUpload()
	case playerState:
		output = b.viewPlayer()
	case errorState:
		output = b.viewError()
	default:
		output = "Unknown state"
	}

	return b.notifier.View(output)
}

func (b *statefulBubble) viewLoading() string {
	return b.renderLines(
		true,
		[]string{
			style.Title("Loading"),
			"",
			b.spinnerC.View() + " " + b.progressStatus,
		},
	)
}

func (b *statefulBubble) viewListing() string {
	if b.loaded && len(b.listingC.Items()) == 0 {
		return b.renderLines(
			true,
			[]string{
				style.Title("Videos"),
				"",
				"No videos yet",
				style.Faint("Press u to upload the first one"),
			},
		)
	}

	return listExtraPaddingStyle.Render(b.listingC.View())
}

func (b *statefulBubble) viewUpload() string {
	lines := []string{
		style.Title("Upload Video"),
		"",
		b.titleC.View(),
		b.fileC.View(),
		"",
	}

	if b.busy {
		lines = append(lines, b.spinnerC.View()+" "+b.progressStatus)
	}

	if err, ok := b.uploadError.Get(); ok {
		message := err.Error()
		var validation *api.ValidationError
		if errors.As(err, &validation) {
			message = validation.Message
		}

		lines = append(lines,
			style.ErrorTitle("Missing Information"),
			style.Fg(style.ErrorColor)(icon.Get(icon.Fail)+" "+message),
		)
	}

	return b.renderLines(true, lines)
}

func (b *statefulBubble) viewPlayer() string {
	item := b.selected.OrEmpty()
	if b.surface == nil {
		return b.renderLines(true, []string{style.Title("Now Playing"), "", item.Title})
	}
	state := b.surface.State()

	lines := []string{
		style.Title("Now Playing"),
		"",
		style.Truncate(b.width)(style.Fg(color.Purple)(item.Title)),
		style.Faint(item.CreatedAt.Format(longDate)),
		"",
		b.progressC.ViewAs(state.Progress()),
	}

	if state.ControlsVisible {
		controls := []string{
			state.PlayIcon(),
			fmt.Sprintf("%s / %s", state.Elapsed(), state.Total()),
			state.VolumeIcon(),
			strings.TrimSpace(icon.Get(icon.Quality) + " " + state.Quality.Label()),
		}
		if state.Fullscreen {
			controls = append(controls, icon.Get(icon.Fullscreen))
		}
		lines = append(lines, strings.Join(controls, "  "))
	} else {
		lines = append(lines, style.Faint("Press any key to show controls"))
	}

	if uri, ok := item.SourceURI.Get(); ok && viper.GetBool(key.TUIShowURLs) {
		lines = append(lines, "", style.Faint(icon.Get(icon.Link)+" "+uri))
	}

	return b.renderLines(state.ControlsVisible, lines)
}

func (b *statefulBubble) viewError() string {
	errorStyle := lipgloss.NewStyle().Foreground(style.ErrorColor).Bold(true)
	errorMsg := wrap.String(errorStyle.Render(b.lastError.Error()), b.width)
	return b.renderLines(
		true,
		[]string{
			style.ErrorTitle("Error"),
			"",
			icon.Get(icon.Fail) + " An error occurred:",
			"",
			errorMsg,
		},
	)
}

func (b *statefulBubble) renderLines(addHelp bool, lines []string) string {
	h := len(lines)
	l := strings.Join(lines, "\n")
	if addHelp {
		if b.height > h {
			l += strings.Repeat("\n", b.height-h)
		}
		l += b.helpC.View(b.keymap)
	}

	return paddingStyle.Render(l)
}
