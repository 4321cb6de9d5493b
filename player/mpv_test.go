package player

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// fakeMPV speaks enough of the JSON-IPC protocol for the tests.
type fakeMPV struct {
	ln net.Listener

	mu        sync.Mutex
	commands  [][]any
	observers []net.Conn
	refuse    map[string]string
	onQuit    func()
}

func newFakeMPV() *fakeMPV {
	dir, err := os.MkdirTemp("", "shmpv")
	if err != nil {
		panic(err)
	}
	return listenFakeMPV(filepath.Join(dir, "s.sock"))
}

func listenFakeMPV(socket string) *fakeMPV {
	ln, err := net.Listen("unix", socket)
	if err != nil {
		panic(err)
	}

	f := &fakeMPV{ln: ln, refuse: make(map[string]string)}
	go f.serve()
	return f
}

// fakePlayerEnv makes the test binary act as mpv when it is spawned by MPV.
const fakePlayerEnv = "STREAMHUB_TEST_FAKE_MPV"

func TestMain(m *testing.M) {
	if os.Getenv(fakePlayerEnv) == "1" {
		runFakePlayer(os.Args[1:])
		return
	}
	os.Exit(m.Run())
}

// runFakePlayer serves the IPC socket named in args until asked to quit.
func runFakePlayer(args []string) {
	for _, arg := range args {
		if socket, ok := strings.CutPrefix(arg, "--input-ipc-server="); ok {
			var once sync.Once
			quit := make(chan struct{})

			f := listenFakeMPV(socket)
			f.mu.Lock()
			f.onQuit = func() { once.Do(func() { close(quit) }) }
			f.mu.Unlock()

			<-quit
			return
		}
	}
	os.Exit(2)
}

func (f *fakeMPV) path() string {
	return f.ln.Addr().String()
}

func (f *fakeMPV) close() {
	f.mu.Lock()
	for _, c := range f.observers {
		c.Close()
	}
	f.mu.Unlock()
	f.ln.Close()
	os.RemoveAll(filepath.Dir(f.path()))
}

func (f *fakeMPV) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakeMPV) handle(conn net.Conn) {
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return
		}

		var cmd ipcCommand
		if json.Unmarshal(line, &cmd) != nil || len(cmd.Command) == 0 {
			continue
		}

		name := fmt.Sprint(cmd.Command[0])

		f.mu.Lock()
		f.commands = append(f.commands, cmd.Command)
		reason, refused := f.refuse[name]
		onQuit := f.onQuit
		if name == "observe_property" {
			f.observers = append(f.observers, conn)
		}
		f.mu.Unlock()

		// mpv interleaves broadcast events with replies.
		_, _ = conn.Write([]byte(`{"event":"playback-restart"}` + "\n"))

		resp := ipcResponse{Error: "success", RequestID: cmd.RequestID}
		if refused {
			resp.Error = reason
		}
		if name == "get_property" {
			resp.Data = 42.0
		}
		b, _ := json.Marshal(resp)
		_, _ = conn.Write(append(b, '\n'))

		if name == "quit" && onQuit != nil {
			onQuit()
			return
		}
	}
}

// drop closes the event connections, as mpv does when it goes away.
func (f *fakeMPV) drop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.observers {
		c.Close()
	}
	f.observers = nil
}

// push sends a raw line to every connection that registered observers.
func (f *fakeMPV) push(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.observers {
		_, _ = c.Write([]byte(line + "\n"))
	}
}

func (f *fakeMPV) seen(name string) [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]any
	for _, c := range f.commands {
		if fmt.Sprint(c[0]) == name {
			out = append(out, c)
		}
	}
	return out
}

func nextEvent(ch <-chan Event) Event {
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		panic("no event")
	}
}

func TestDoSendCommand(t *testing.T) {
	Convey("Given an mpv socket", t, func() {
		f := newFakeMPV()
		defer f.close()
		ctx := context.Background()

		Convey("The reply matching the request is returned past broadcast events", func() {
			data, err := doSendCommand(ctx, f.path(), []any{"get_property", "time-pos"})
			So(err, ShouldBeNil)
			So(data, ShouldEqual, 42.0)
		})

		Convey("An mpv refusal is an mpvError", func() {
			f.mu.Lock()
			f.refuse["seek"] = "error running command"
			f.mu.Unlock()

			_, err := doSendCommand(ctx, f.path(), []any{"seek", 10.0, "absolute"})
			So(err, ShouldNotBeNil)
			_, ok := err.(*mpvError)
			So(ok, ShouldBeTrue)
		})

		Convey("A missing socket is a connect error", func() {
			_, err := doSendCommand(ctx, f.path()+".missing", []any{"quit"})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestMPVOverSocket(t *testing.T) {
	Convey("Given an MPV attached to a running player", t, func() {
		f := newFakeMPV()
		defer f.close()
		ctx := context.Background()

		m := NewMPV(WithSocket(f.path()))
		defer m.Close()

		Convey("Load pauses then replaces the file", func() {
			So(m.Load(ctx, "http://127.0.0.1:8000/media/a.mp4"), ShouldBeNil)
			So(f.seen("set_property"), ShouldResemble, [][]any{{"set_property", "pause", true}})
			So(f.seen("loadfile"), ShouldResemble, [][]any{{"loadfile", "http://127.0.0.1:8000/media/a.mp4", "replace"}})
			So(len(f.seen("observe_property")), ShouldEqual, len(observed))
		})

		Convey("Controls map onto properties", func() {
			So(m.SetVolume(ctx, 0.5), ShouldBeNil)
			So(m.SetMuted(ctx, true), ShouldBeNil)
			So(m.SetFullscreen(ctx, true), ShouldBeNil)
			So(m.Seek(ctx, 12.5), ShouldBeNil)

			So(f.seen("set_property"), ShouldResemble, [][]any{
				{"set_property", "volume", 50.0},
				{"set_property", "mute", true},
				{"set_property", "fullscreen", true},
			})
			So(f.seen("seek"), ShouldResemble, [][]any{{"seek", 12.5, "absolute"}})
		})

		Convey("Observed properties become events", func() {
			So(m.SetPaused(ctx, false), ShouldBeNil)

			f.push(`{"event":"property-change","id":2,"name":"duration","data":95.5}`)
			f.push(`{"event":"property-change","id":3,"name":"pause","data":false}`)
			f.push(`{"event":"property-change","id":1,"name":"time-pos","data":3.25}`)
			f.push(`{"event":"end-file","reason":"error","file_error":"loading failed"}`)

			So(nextEvent(m.Events()), ShouldResemble, Event{Kind: DurationKnown, Seconds: 95.5})
			So(nextEvent(m.Events()), ShouldResemble, Event{Kind: Started})
			So(nextEvent(m.Events()), ShouldResemble, Event{Kind: TimeUpdate, Seconds: 3.25})

			ev := nextEvent(m.Events())
			So(ev.Kind, ShouldEqual, Failed)
			So(ev.Err.Error(), ShouldContainSubstring, "loading failed")
		})

		Convey("Close sends quit and closes the event stream", func() {
			So(m.SetPaused(ctx, true), ShouldBeNil)
			So(m.Close(), ShouldBeNil)
			So(len(f.seen("quit")), ShouldEqual, 1)

			_, open := <-m.Events()
			So(open, ShouldBeFalse)
		})
	})
}

func TestMPVReconnect(t *testing.T) {
	Convey("Given an MPV attached to a player that drops the connection", t, func() {
		f := newFakeMPV()
		defer f.close()
		ctx := context.Background()

		m := NewMPV(WithSocket(f.path()))
		defer m.Close()

		So(m.Load(ctx, "http://127.0.0.1:8000/media/a.mp4"), ShouldBeNil)
		f.drop()

		Convey("The exit is reported and the next command reconnects", func() {
			So(nextEvent(m.Events()).Kind, ShouldEqual, Stopped)
			ev := nextEvent(m.Events())
			So(ev.Kind, ShouldEqual, Failed)
			So(ev.Err.Error(), ShouldContainSubstring, ErrPlayerExited.Error())

			So(m.Load(ctx, "http://127.0.0.1:8000/media/b.mp4"), ShouldBeNil)
			So(len(f.seen("observe_property")), ShouldEqual, 2*len(observed))
			So(m.Socket(), ShouldEqual, f.path())
		})

		Convey("Closing while the exit is being reported does not panic", func() {
			So(func() { _ = m.Close() }, ShouldNotPanic)
			for range m.Events() {
			}
		})
	})
}

func TestMPVRestart(t *testing.T) {
	t.Setenv(fakePlayerEnv, "1")

	Convey("Given an MPV whose player process dies", t, func() {
		ctx := context.Background()
		m := NewMPV(WithBinary(os.Args[0]))
		defer m.Close()

		So(m.Load(ctx, "http://127.0.0.1:8000/media/a.mp4"), ShouldBeNil)
		first := m.Socket()

		m.startMu.Lock()
		proc := m.cmd
		m.startMu.Unlock()
		So(proc, ShouldNotBeNil)
		_ = killProcess(proc)

		Convey("The exit is reported and the next Load starts a new player", func() {
			So(nextEvent(m.Events()).Kind, ShouldEqual, Stopped)
			ev := nextEvent(m.Events())
			So(ev.Kind, ShouldEqual, Failed)
			So(ev.Err.Error(), ShouldContainSubstring, ErrPlayerExited.Error())

			So(m.Load(ctx, "http://127.0.0.1:8000/media/b.mp4"), ShouldBeNil)
			So(m.Socket(), ShouldNotBeEmpty)
			So(m.Socket(), ShouldNotEqual, first)
		})
	})
}

func TestTranslate(t *testing.T) {
	Convey("Given an MPV", t, func() {
		m := NewMPV()
		defer m.Close()

		Convey("Unknown or unusable values produce nothing", func() {
			m.translate("duration", 0.0)
			m.translate("duration", nil)
			m.translate("time-pos", "x")
			m.translate("eof-reached", false)
			m.translate("end-file", map[string]any{"reason": "eof"})
			m.translate("seeking", true)
			So(len(m.events), ShouldEqual, 0)
		})

		Convey("Reaching the end stops playback", func() {
			m.translate("eof-reached", true)
			So(<-m.events, ShouldResemble, Event{Kind: Stopped})
		})

		Convey("Pausing stops playback", func() {
			m.translate("pause", true)
			So(<-m.events, ShouldResemble, Event{Kind: Stopped})
		})
	})
}

func TestSanitize(t *testing.T) {
	Convey("sanitizeMediaTarget", t, func() {
		for _, ok := range []string{"http://127.0.0.1:8000/media/a.mp4", " https://cdn.example.com/v.mp4 "} {
			_, err := sanitizeMediaTarget(ok)
			So(err, ShouldBeNil)
		}

		for _, bad := range []string{"", "-v", "--script=x", "/tmp/a.mp4", "file:///a.mp4", "rtmp://h/a", "http://", "http://h/\x00"} {
			_, err := sanitizeMediaTarget(bad)
			So(err, ShouldNotBeNil)
		}
	})

	Convey("sanitizeTitle", t, func() {
		So(sanitizeTitle(" My\nHoliday\t\x00 "), ShouldEqual, "My Holiday")
	})
}

func TestArgs(t *testing.T) {
	Convey("mpv is started idle, paused and without its own controls", t, func() {
		m := NewMPV(WithTitle("Clip"))
		m.socketPath = "/tmp/x.sock"
		args := m.args()
		So(args, ShouldContain, "--input-ipc-server=/tmp/x.sock")
		So(args, ShouldContain, "--idle=yes")
		So(args, ShouldContain, "--pause")
		So(args, ShouldContain, "--no-osc")
		So(args, ShouldContain, "--no-input-default-bindings")
		So(args, ShouldContain, "--title=Clip")
	})
}
