package api

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseStatus(t *testing.T) {
	Convey("Given wire status values", t, func() {
		Convey("Known values parse", func() {
			for wire, want := range map[string]Status{
				"PENDING":    Pending,
				"PROCESSING": Processing,
				"COMPLETED":  Completed,
				"FAILED":     Failed,
			} {
				got, err := ParseStatus(wire)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, want)
				So(got.String(), ShouldEqual, wire)
			}
		})

		Convey("Anything else is rejected, including lower case", func() {
			for _, wire := range []string{"completed", "READY", ""} {
				_, err := ParseStatus(wire)
				So(errors.Is(err, ErrUnknownStatus), ShouldBeTrue)
			}
		})

		Convey("Terminal and labels", func() {
			So(Pending.Terminal(), ShouldBeFalse)
			So(Processing.Terminal(), ShouldBeFalse)
			So(Completed.Terminal(), ShouldBeTrue)
			So(Failed.Terminal(), ShouldBeTrue)
			So(Completed.Label(), ShouldEqual, "Ready")
			So(Processing.Label(), ShouldEqual, "Processing")
		})
	})
}

func TestMediaItemJSON(t *testing.T) {
	Convey("Given wire records", t, func() {
		Convey("A completed record with a file is playable", func() {
			var item MediaItem
			err := json.Unmarshal([]byte(`{
				"id": 3,
				"title": "Holiday",
				"video_file": "http://127.0.0.1:8000/media/holiday.mp4",
				"status": "COMPLETED",
				"created_at": "2024-03-10T12:00:00.123456Z"
			}`), &item)
			So(err, ShouldBeNil)
			So(item.ID, ShouldEqual, 3)
			So(item.Playable(), ShouldBeTrue)
			So(item.SourceURI.MustGet(), ShouldEqual, "http://127.0.0.1:8000/media/holiday.mp4")
			So(item.CreatedAt.Year(), ShouldEqual, 2024)
		})

		Convey("A pending record without a file parses", func() {
			var item MediaItem
			err := json.Unmarshal([]byte(`{"id":1,"title":"a","status":"PENDING","created_at":"2024-03-10T12:00:00Z"}`), &item)
			So(err, ShouldBeNil)
			So(item.SourceURI.IsAbsent(), ShouldBeTrue)
			So(item.Playable(), ShouldBeFalse)
		})

		Convey("An empty video_file counts as absent", func() {
			var item MediaItem
			err := json.Unmarshal([]byte(`{"id":1,"title":"a","video_file":"","status":"FAILED","created_at":"2024-03-10T12:00:00Z"}`), &item)
			So(err, ShouldBeNil)
			So(item.SourceURI.IsAbsent(), ShouldBeTrue)
		})

		Convey("Completed without a file is rejected", func() {
			var item MediaItem
			err := json.Unmarshal([]byte(`{"id":1,"title":"a","status":"COMPLETED","created_at":"2024-03-10T12:00:00Z"}`), &item)
			So(errors.Is(err, ErrInvalidItem), ShouldBeTrue)
		})

		Convey("Processing with a file is rejected", func() {
			var item MediaItem
			err := json.Unmarshal([]byte(`{"id":1,"title":"a","video_file":"x.mp4","status":"PROCESSING","created_at":"2024-03-10T12:00:00Z"}`), &item)
			So(errors.Is(err, ErrInvalidItem), ShouldBeTrue)
		})

		Convey("Unknown or missing status is rejected", func() {
			var item MediaItem
			err := json.Unmarshal([]byte(`{"id":1,"title":"a","status":"DONE","created_at":"2024-03-10T12:00:00Z"}`), &item)
			So(errors.Is(err, ErrUnknownStatus), ShouldBeTrue)

			err = json.Unmarshal([]byte(`{"id":1,"title":"a","created_at":"2024-03-10T12:00:00Z"}`), &item)
			So(errors.Is(err, ErrUnknownStatus), ShouldBeTrue)
		})

		Convey("Marshal writes the wire field names", func() {
			item, err := Record{
				ID:        9,
				Title:     "t",
				VideoFile: "http://h/v.mp4",
				Status:    Completed,
				CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			}.Item()
			So(err, ShouldBeNil)

			b, err := json.Marshal(item)
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"video_file":"http://h/v.mp4"`)
			So(string(b), ShouldContainSubstring, `"status":"COMPLETED"`)
			So(string(b), ShouldContainSubstring, `"created_at":"2024-01-01T00:00:00Z"`)
		})
	})
}

func TestAnyPending(t *testing.T) {
	Convey("AnyPending", t, func() {
		So(AnyPending(nil), ShouldBeFalse)
		So(AnyPending([]MediaItem{{Status: Completed}, {Status: Failed}}), ShouldBeFalse)
		So(AnyPending([]MediaItem{{Status: Completed}, {Status: Processing}}), ShouldBeTrue)
		So(AnyPending([]MediaItem{{Status: Pending}}), ShouldBeTrue)
	})
}

func TestErrors(t *testing.T) {
	Convey("Error taxonomy", t, func() {
		So(IsNotFound(&NotFoundError{ID: 4}), ShouldBeTrue)
		So(IsValidation(&ValidationError{Field: "title"}), ShouldBeTrue)
		So(IsNotFound(errors.New("x")), ShouldBeFalse)

		inner := errors.New("connection refused")
		err := error(&TransportError{Op: "list videos", Err: inner})
		So(IsTransport(err), ShouldBeTrue)
		So(errors.Is(err, inner), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "list videos: connection refused")

		err = &TransportError{Op: "list videos", StatusCode: 500, Err: errors.New("500 Internal Server Error")}
		So(err.Error(), ShouldContainSubstring, "responded 500")
	})
}
