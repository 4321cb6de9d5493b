package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/viper"
	"github.com/streamhub-cli/streamhub/api"
	"github.com/streamhub-cli/streamhub/internal/poller"
	"github.com/streamhub-cli/streamhub/internal/ui"
	"github.com/streamhub-cli/streamhub/key"
	"github.com/streamhub-cli/streamhub/log"
	"github.com/streamhub-cli/streamhub/player"
	"github.com/streamhub-cli/streamhub/style"
	"github.com/streamhub-cli/streamhub/surface"
	"github.com/streamhub-cli/streamhub/util"
)

// statefulBubble holds every view's state. Only Update mutates it; background
// work reports back through the channels below.
type statefulBubble struct {
	state         state
	statesHistory util.Stack[state]
	loading       bool
	busy          bool

	keymap *statefulKeymap

	// components
	spinnerC  spinner.Model
	listingC  list.Model
	titleC    textinput.Model
	fileC     textinput.Model
	progressC progress.Model
	helpC     help.Model

	client       API
	synchronizer *poller.Synchronizer
	newBackend   func() player.Backend
	session      *player.Session
	surface      *surface.Surface

	itemsChannel         *latest[[]api.MediaItem]
	syncErrorChannel     chan error
	playbackErrorChannel chan error

	selected    mo.Option[api.MediaItem]
	loaded      bool
	uploadError mo.Option[error]
	idleSeq     int

	progressStatus string
	lastError      error

	ctx    context.Context
	cancel context.CancelFunc

	width, height int
	notifier      *ui.Model

	options *Options
}

// raiseError dispatches a terminal error and transitions the application to the failure view.
func (b *statefulBubble) raiseError(err error) {
	b.lastError = err
	b.newState(errorState)
}

func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

// newState records the current state in the navigation history, unless it is
// a transient one, and switches to s.
func (b *statefulBubble) newState(s state) {
	if b.state == s {
		return
	}

	if !lo.Contains([]state{loadingState, errorState}, b.state) {
		b.statesHistory.Push(b.state)
	}

	b.setState(s)
}

func (b *statefulBubble) previousState() {
	if b.statesHistory.Len() > 0 {
		b.setState(b.statesHistory.Pop())
	}
}

// resize propagates terminal dimension changes to all child component models.
func (b *statefulBubble) resize(width, height int) {
	x, y := paddingStyle.GetFrameSize()
	xx, yy := listExtraPaddingStyle.GetFrameSize()

	listWidth := width - xx
	listHeight := height - yy

	b.listingC.SetSize(listWidth, listHeight)
	b.listingC.Help.Width = listWidth

	b.progressC.Width = listWidth
	b.titleC.Width = listWidth
	b.fileC.Width = listWidth

	b.width = width - x
	b.height = height - y
	b.helpC.Width = listWidth
}

func (b *statefulBubble) startLoading() tea.Cmd {
	b.loading = true
	b.busy = true
	return tea.Batch(b.spinnerC.Tick, b.listingC.StartSpinner())
}

func (b *statefulBubble) stopLoading() {
	b.loading = false
	b.busy = false
	b.listingC.StopSpinner()
}

// ensurePlayer creates the player session on first use. The backend starts
// lazily, so nothing is spawned until a video is loaded.
func (b *statefulBubble) ensurePlayer() tea.Cmd {
	if b.surface != nil {
		return nil
	}

	quality, err := surface.ParseQuality(viper.GetString(key.PlayerQuality))
	if err != nil {
		log.Warn(err)
	}

	b.session = player.NewSession(b.newBackend())
	b.surface = surface.New(b.session, func(err error) {
		select {
		case b.playbackErrorChannel <- err:
		default:
			log.WithError(err).Warn("playback error dropped")
		}
	}, surface.WithQuality(quality))

	return tea.Batch(b.waitForSurface(), b.waitForPlaybackError())
}

// close releases everything started in the background.
func (b *statefulBubble) close() {
	b.cancel()
	b.synchronizer.Stop()
	if b.surface != nil {
		b.surface.Unmount()
	}
	if b.session != nil {
		if err := b.session.Close(); err != nil {
			log.WithError(err).Warn("closing player")
		}
	}
}

func newBubble(options *Options) *statefulBubble {
	keymap := newStatefulKeymap()
	ctx, cancel := context.WithCancel(context.Background())

	bubble := statefulBubble{
		statesHistory: util.Stack[state]{},
		keymap:        keymap,

		client:     options.Client,
		newBackend: options.Backend,

		itemsChannel:         newLatest[[]api.MediaItem](),
		syncErrorChannel:     make(chan error, 1),
		playbackErrorChannel: make(chan error, 1),

		ctx:    ctx,
		cancel: cancel,

		notifier: &ui.Model{},
		options:  options,
	}

	if bubble.newBackend == nil {
		bubble.newBackend = defaultBackend
	}

	bubble.synchronizer = poller.New(
		options.Client,
		poller.WithOnChange(bubble.itemsChannel.put),
		poller.WithOnError(func(err error, initial bool) {
			if !initial {
				return
			}
			select {
			case bubble.syncErrorChannel <- err:
			default:
			}
		}),
	)

	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(viper.GetInt(key.TUIItemSpacing))
	delegate.Styles.SelectedTitle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(style.AccentColor).
		Foreground(style.AccentColor).
		Padding(0, 0, 0, 1)
	delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.Foreground(style.Text)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedTitle

	bubble.listingC = list.New([]list.Item{}, delegate, 0, 0)
	bubble.listingC.KeyMap = bubble.keymap.forList()
	bubble.listingC.AdditionalShortHelpKeys = bubble.keymap.ShortHelp
	bubble.listingC.AdditionalFullHelpKeys = func() []bubblesKey.Binding {
		return bubble.keymap.FullHelp()[0]
	}
	bubble.listingC.Title = "Videos"
	bubble.listingC.Styles.Title = lipgloss.NewStyle().Foreground(style.Surface).Background(style.AccentColor).Padding(0, 1)
	bubble.listingC.Styles.NoItems = paddingStyle
	bubble.listingC.SetStatusBarItemName("video", "videos")
	bubble.listingC.SetFilteringEnabled(false)
	bubble.listingC.StatusMessageLifetime = 3 * time.Second

	bubble.helpC = help.New()

	bubble.spinnerC = spinner.New()
	bubble.spinnerC.Spinner = spinner.Dot
	bubble.spinnerC.Style = lipgloss.NewStyle().Foreground(style.AccentColor)

	bubble.titleC = textinput.New()
	bubble.titleC.Placeholder = "Video title"
	bubble.titleC.CharLimit = 255
	bubble.titleC.Prompt = "Title: "

	bubble.fileC = textinput.New()
	bubble.fileC.Placeholder = "/path/to/video.mp4"
	bubble.fileC.Prompt = "File:  "

	bubble.progressC = progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())

	if w, h, err := util.TerminalSize(); err == nil {
		bubble.resize(w, h)
	}

	return &bubble
}
