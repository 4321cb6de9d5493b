package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/mo"
	"github.com/spf13/viper"
	"github.com/streamhub-cli/streamhub/api"
	"github.com/streamhub-cli/streamhub/icon"
	"github.com/streamhub-cli/streamhub/key"
	"github.com/streamhub-cli/streamhub/style"
	"github.com/streamhub-cli/streamhub/util"
)

// listItem is one card of the listing.
type listItem struct {
	item    api.MediaItem
	watched mo.Option[float64]
	now     func() time.Time
}

func (t *listItem) FilterValue() string {
	return t.item.Title
}

func (t *listItem) Title() string {
	title := t.item.Title
	if ratio, ok := t.watched.Get(); ok && ratio > 0 {
		title = fmt.Sprintf("%s %s", title, style.Faint(fmt.Sprintf("%d%%", int(ratio*100))))
	}
	return title
}

// Description shows the status badge and how long ago the video was created.
func (t *listItem) Description() string {
	now := time.Now
	if t.now != nil {
		now = t.now
	}

	var sb strings.Builder
	sb.WriteString(statusBadge(t.item.Status))
	sb.WriteString(" ")
	sb.WriteString(style.Faint(util.Ago(t.item.CreatedAt, now())))

	if uri, ok := t.item.SourceURI.Get(); ok && viper.GetBool(key.TUIShowURLs) {
		sb.WriteString("\n")
		sb.WriteString(style.Faint(icon.Get(icon.Link) + " " + uri))
	}

	return sb.String()
}

func statusBadge(s api.Status) string {
	var c lipgloss.Color
	switch s {
	case api.Pending:
		c = style.WarningColor
	case api.Processing:
		c = style.InfoColor
	case api.Completed:
		c = style.SuccessColor
	case api.Failed:
		c = style.ErrorColor
	default:
		c = style.FaintColor
	}
	return style.Fg(c)(s.Label())
}
