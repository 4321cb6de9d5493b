package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/streamhub-cli/streamhub/filesystem"
)

func init() {
	filesystem.SetMemMapFs()
}

const listing = `[
	{"id":1,"title":"First","status":"PENDING","created_at":"2024-03-10T12:00:00Z"},
	{"id":2,"title":"Second","video_file":"http://127.0.0.1:8000/media/2.mp4","status":"COMPLETED","created_at":"2024-03-09T12:00:00Z"}
]`

func newTestClient(h http.Handler) (*Client, func()) {
	srv := httptest.NewServer(h)
	c, err := New(srv.URL+"/api", WithHTTPClient(srv.Client()))
	if err != nil {
		panic(err)
	}
	return c, srv.Close
}

func TestNew(t *testing.T) {
	Convey("New", t, func() {
		_, err := New("/api")
		So(err, ShouldNotBeNil)

		c, err := New("http://127.0.0.1:8000/api/")
		So(err, ShouldBeNil)
		So(c.VideosURL(), ShouldEqual, "http://127.0.0.1:8000/api/videos/")
		So(c.endpoint("videos", "7", "status"), ShouldEqual, "http://127.0.0.1:8000/api/videos/7/status/")
	})
}

func TestListVideos(t *testing.T) {
	Convey("Given a server with two videos", t, func() {
		c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/videos/" || r.Method != http.MethodGet {
				http.NotFound(w, r)
				return
			}
			_, _ = io.WriteString(w, listing)
		}))
		defer done()

		Convey("Both are returned in order", func() {
			items, err := c.ListVideos(context.Background())
			So(err, ShouldBeNil)
			So(items, ShouldHaveLength, 2)
			So(items[0].Title, ShouldEqual, "First")
			So(items[1].Playable(), ShouldBeTrue)
		})
	})

	Convey("Given a failing server", t, func() {
		c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer done()

		Convey("A TransportError carries the status code", func() {
			_, err := c.ListVideos(context.Background())
			var te *TransportError
			So(errors.As(err, &te), ShouldBeTrue)
			So(te.StatusCode, ShouldEqual, http.StatusInternalServerError)
		})
	})

	Convey("Given an unreachable server", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		c, err := New(srv.URL + "/api")
		So(err, ShouldBeNil)

		Convey("The error is a transport error without a status", func() {
			_, err := c.ListVideos(context.Background())
			var te *TransportError
			So(errors.As(err, &te), ShouldBeTrue)
			So(te.StatusCode, ShouldEqual, 0)
		})
	})
}

func TestGetVideo(t *testing.T) {
	Convey("Given a server that knows video 2", t, func() {
		c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/videos/2/":
				_, _ = io.WriteString(w, `{"id":2,"title":"Second","video_file":"http://h/2.mp4","status":"COMPLETED","created_at":"2024-03-09T12:00:00Z"}`)
			case "/api/videos/2/status/":
				_, _ = io.WriteString(w, `{"id":2,"status":"COMPLETED"}`)
			default:
				http.NotFound(w, r)
			}
		}))
		defer done()

		Convey("It is fetched", func() {
			item, err := c.GetVideo(context.Background(), 2)
			So(err, ShouldBeNil)
			So(item.Title, ShouldEqual, "Second")
		})

		Convey("Its status is fetched", func() {
			status, err := c.GetStatus(context.Background(), 2)
			So(err, ShouldBeNil)
			So(status, ShouldEqual, Completed)
		})

		Convey("An unknown id is NotFound", func() {
			_, err := c.GetVideo(context.Background(), 99)
			So(IsNotFound(err), ShouldBeTrue)

			_, err = c.GetStatus(context.Background(), 99)
			So(IsNotFound(err), ShouldBeTrue)
		})
	})
}

func TestUploadVideo(t *testing.T) {
	Convey("Given an upload endpoint", t, func() {
		var (
			requests atomic.Int32
			failing  atomic.Bool
			gotTitle atomic.Value
			gotFile  atomic.Value
			gotBytes atomic.Value
		)

		c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			if r.Method != http.MethodPost || r.URL.Path != "/api/videos/" {
				http.NotFound(w, r)
				return
			}
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			gotTitle.Store(r.FormValue("title"))
			f, header, err := r.FormFile("video_file")
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			defer f.Close()
			b, _ := io.ReadAll(f)
			gotFile.Store(header.Filename)
			gotBytes.Store(string(b))

			if failing.Load() {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":5,"title":"Clip","status":"PENDING","created_at":"2024-03-10T12:00:00Z"}`)
		}))
		defer done()

		fs := filesystem.API()
		So(fs.MkdirAll("/videos", 0o755), ShouldBeNil)
		So(fs.WriteFile("/videos/clip.mp4", []byte("not really a video"), 0o644), ShouldBeNil)
		So(fs.WriteFile("/videos/empty.mp4", nil, 0o644), ShouldBeNil)

		Convey("A valid form is sent as multipart fields", func() {
			err := c.UploadVideo(context.Background(), "  Clip ", "/videos/clip.mp4")
			So(err, ShouldBeNil)
			So(gotTitle.Load(), ShouldEqual, "Clip")
			So(gotFile.Load(), ShouldEqual, "clip.mp4")
			So(gotBytes.Load(), ShouldEqual, "not really a video")
		})

		Convey("A blank title is rejected without a request", func() {
			err := c.UploadVideo(context.Background(), "   ", "/videos/clip.mp4")
			So(IsValidation(err), ShouldBeTrue)
			So(requests.Load(), ShouldEqual, 0)
		})

		Convey("A missing file is rejected without a request", func() {
			err := c.UploadVideo(context.Background(), "Clip", "")
			So(IsValidation(err), ShouldBeTrue)

			err = c.UploadVideo(context.Background(), "Clip", "/videos/missing.mp4")
			So(IsValidation(err), ShouldBeTrue)

			err = c.UploadVideo(context.Background(), "Clip", "/videos/empty.mp4")
			So(IsValidation(err), ShouldBeTrue)

			So(requests.Load(), ShouldEqual, 0)
		})

		Convey("A server error is a transport error", func() {
			failing.Store(true)
			err := c.UploadVideo(context.Background(), "Clip", "/videos/clip.mp4")
			So(IsTransport(err), ShouldBeTrue)
		})
	})
}
