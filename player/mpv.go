package player

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/streamhub-cli/streamhub/log"
	"github.com/streamhub-cli/streamhub/where"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	quitTimeout       = 3 * time.Second
)

// ErrPlayerExited is reported when mpv goes away without being closed.
var ErrPlayerExited = errors.New("player exited")

// MPV runs one idle mpv process and controls it over JSON-IPC. The process
// is started on the first Load and reused afterwards. If it goes away, the
// next command starts a new one.
type MPV struct {
	binary     string
	title      string
	socketPath string

	cmd      *exec.Cmd
	exited   chan struct{}
	listener *EventListener

	mu      sync.Mutex // serializes socket writes
	startMu sync.Mutex

	events    chan Event
	closing   chan struct{}
	closeOnce sync.Once
	watchers  sync.WaitGroup
}

type MPVOption func(*MPV)

// WithBinary overrides the executable, "mpv" by default.
func WithBinary(path string) MPVOption {
	return func(m *MPV) { m.binary = path }
}

// WithTitle sets the window title.
func WithTitle(title string) MPVOption {
	return func(m *MPV) { m.title = sanitizeTitle(title) }
}

// WithSocket attaches to an existing IPC socket instead of spawning mpv.
func WithSocket(path string) MPVOption {
	return func(m *MPV) { m.socketPath = path }
}

func NewMPV(opts ...MPVOption) *MPV {
	m := &MPV{
		binary:  "mpv",
		title:   "streamhub",
		events:  make(chan Event, 64),
		closing: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Events implements Backend.
func (m *MPV) Events() <-chan Event {
	return m.events
}

// Socket returns the IPC socket path, empty before the first Load.
func (m *MPV) Socket() string {
	m.startMu.Lock()
	defer m.startMu.Unlock()
	return m.socketPath
}

func (m *MPV) args() []string {
	return []string{
		"--no-terminal",
		"--really-quiet",
		"--input-ipc-server=" + m.socketPath,
		"--title=" + m.title,
		"--force-window=yes",
		"--idle=yes",
		"--pause",
		"--keep-open=yes",
		"--no-osc",
		"--no-input-default-bindings",
	}
}

// ensureStarted returns the socket of a running player, starting one if needed.
func (m *MPV) ensureStarted(ctx context.Context) (string, error) {
	m.startMu.Lock()
	defer m.startMu.Unlock()

	select {
	case <-m.closing:
		return "", ErrPlayerExited
	default:
	}

	if m.listener != nil {
		return m.socketPath, nil
	}

	if m.socketPath == "" {
		if err := m.spawn(ctx); err != nil {
			return "", err
		}
	}

	m.listener = NewEventListener(m.socketPath, m.translate)
	if err := m.listener.Start(); err != nil {
		m.listener = nil
		return "", err
	}

	m.watchers.Add(1)
	go m.watch(m.listener)
	return m.socketPath, nil
}

func (m *MPV) spawn(ctx context.Context) error {
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Errorf("generate socket name: %w", err)
	}
	m.socketPath = filepath.Join(where.Temp(), fmt.Sprintf("mpv-%x.sock", randomBytes))

	m.cmd = exec.Command(m.binary, m.args()...)
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		m.socketPath = ""
		return fmt.Errorf("start %s: %w", m.binary, err)
	}

	exited := make(chan struct{})
	m.exited = exited
	go func(cmd *exec.Cmd) {
		_ = cmd.Wait()
		close(exited)
	}(m.cmd)

	if err := m.waitForSocket(ctx); err != nil {
		select {
		case <-exited:
		default:
			log.Warn("killing mpv: socket never became ready")
			_ = killProcess(m.cmd)
		}
		m.socketPath = ""
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	log.WithFields(log.Fields{"pid": m.cmd.Process.Pid, "socket": m.socketPath}).Info("mpv started")
	return nil
}

func (m *MPV) waitForSocket(ctx context.Context) error {
	for i := 0; i < socketWaitRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.exited:
			return errors.New("mpv exited before socket was ready")
		case <-time.After(socketWaitDelay):
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

// watch turns an unexpected disconnect into a Failed event, after forgetting
// the dead player so that the next command spawns a fresh one.
func (m *MPV) watch(l *EventListener) {
	defer m.watchers.Done()

	<-l.Done()
	if !m.forget(l) {
		return
	}
	m.emit(Event{Kind: Stopped})
	m.emit(Event{Kind: Failed, Err: &PlaybackError{Detail: ErrPlayerExited.Error()}})
}

// forget drops l and the process behind it. It reports false when the
// disconnect was caused by Close.
func (m *MPV) forget(l *EventListener) bool {
	m.startMu.Lock()
	defer m.startMu.Unlock()

	select {
	case <-m.closing:
		return false
	default:
	}

	if m.listener != l {
		return false
	}
	m.listener = nil

	// Attached through WithSocket: keep the path and reconnect on next use.
	if m.cmd == nil {
		return true
	}

	select {
	case <-m.exited:
	default:
		log.Warn("mpv connection lost, killing the process")
		_ = killProcess(m.cmd)
	}
	_ = os.Remove(m.socketPath)
	log.WithFields(log.Fields{"socket": m.socketPath}).Info("mpv exited")

	m.cmd, m.exited, m.socketPath = nil, nil, ""
	return true
}

func (m *MPV) emit(ev Event) {
	select {
	case <-m.closing:
	case m.events <- ev:
	}
}

// translate maps observed properties and mpv events onto playback events.
func (m *MPV) translate(name string, data any) {
	switch name {
	case "time-pos":
		if pos, ok := data.(float64); ok {
			m.emit(Event{Kind: TimeUpdate, Seconds: pos})
		}
	case "duration":
		if d, ok := data.(float64); ok && d > 0 {
			m.emit(Event{Kind: DurationKnown, Seconds: d})
		}
	case "pause":
		if paused, ok := data.(bool); ok {
			if paused {
				m.emit(Event{Kind: Stopped})
			} else {
				m.emit(Event{Kind: Started})
			}
		}
	case "eof-reached":
		if eof, ok := data.(bool); ok && eof {
			m.emit(Event{Kind: Stopped})
		}
	case "end-file":
		event, _ := data.(map[string]any)
		if reason, _ := event["reason"].(string); reason == "error" {
			detail, _ := event["file_error"].(string)
			if detail == "" {
				detail = "unable to play media"
			}
			m.emit(Event{Kind: Failed, Err: &PlaybackError{Detail: detail}})
		}
	}
}

func (m *MPV) Load(ctx context.Context, uri string) error {
	target, err := sanitizeMediaTarget(uri)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}
	socket, err := m.ensureStarted(ctx)
	if err != nil {
		return err
	}
	if _, err := m.sendCommand(ctx, socket, "set_property", "pause", true); err != nil {
		return err
	}
	_, err = m.sendCommand(ctx, socket, "loadfile", target, "replace")
	return err
}

func (m *MPV) SetPaused(ctx context.Context, paused bool) error {
	return m.set(ctx, "pause", paused)
}

func (m *MPV) Seek(ctx context.Context, seconds float64) error {
	socket, err := m.ensureStarted(ctx)
	if err != nil {
		return err
	}
	_, err = m.sendCommand(ctx, socket, "seek", seconds, "absolute")
	return err
}

func (m *MPV) SetMuted(ctx context.Context, muted bool) error {
	return m.set(ctx, "mute", muted)
}

// SetVolume maps [0, 1] onto mpv's 0..100 scale.
func (m *MPV) SetVolume(ctx context.Context, level float64) error {
	return m.set(ctx, "volume", level*100)
}

func (m *MPV) SetFullscreen(ctx context.Context, on bool) error {
	return m.set(ctx, "fullscreen", on)
}

func (m *MPV) set(ctx context.Context, property string, value any) error {
	socket, err := m.ensureStarted(ctx)
	if err != nil {
		return err
	}
	_, err = m.sendCommand(ctx, socket, "set_property", property, value)
	return err
}

// Close quits mpv, killing it if it does not exit in time, and closes Events.
func (m *MPV) Close() error {
	m.closeOnce.Do(func() {
		close(m.closing)

		m.startMu.Lock()
		if m.listener != nil {
			ctx, cancel := context.WithTimeout(context.Background(), readDeadline)
			_, _ = m.sendCommand(ctx, m.socketPath, "quit")
			cancel()
			m.listener.Stop()
		}

		if m.exited != nil {
			select {
			case <-m.exited:
			case <-time.After(quitTimeout):
				_ = killProcess(m.cmd)
			}
			_ = os.Remove(m.socketPath)
		}
		m.startMu.Unlock()

		// No watcher may still be sending once Events is closed.
		m.watchers.Wait()
		close(m.events)
	})
	return nil
}

// sanitizeMediaTarget accepts only absolute http(s) URLs. Anything that
// could be read as an mpv flag or a local path is rejected.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", errors.New("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", errors.New("invalid control characters in URL")
	}

	if strings.HasPrefix(l, "-") {
		return "", errors.New("url must not start with '-'")
	}

	u, err := url.Parse(l)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported URL scheme: %q", u.Scheme)
	}

	if u.Host == "" {
		return "", errors.New("url has no host")
	}
	return l, nil
}

func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
