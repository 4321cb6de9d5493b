package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/streamhub-cli/streamhub/constant"
	"github.com/streamhub-cli/streamhub/filesystem"
	"github.com/streamhub-cli/streamhub/key"
	"github.com/streamhub-cli/streamhub/log"
	"github.com/streamhub-cli/streamhub/network"
	"github.com/streamhub-cli/streamhub/util"
	"golang.org/x/time/rate"
)

// Client is the HTTP collaborator for the video hosting API.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the shared network client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) { client.http = c }
}

// WithLimiter throttles outgoing requests. nil disables throttling.
func WithLimiter(l *rate.Limiter) Option {
	return func(client *Client) { client.limiter = l }
}

// WithTimeout bounds every request except uploads. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) { client.timeout = d }
}

// New returns a client rooted at baseURL, e.g. http://127.0.0.1:8000/api.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		base: u,
		http: network.Client,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromConfig builds a client from the api.* settings.
func NewFromConfig() (*Client, error) {
	opts := []Option{WithTimeout(viper.GetDuration(key.APITimeout))}
	if rps := viper.GetInt(key.APIRateLimit); rps > 0 {
		opts = append(opts, WithLimiter(rate.NewLimiter(rate.Limit(rps), rps)))
	}
	return New(viper.GetString(key.APIBaseURL), opts...)
}

func (c *Client) endpoint(segments ...string) string {
	u := *c.base
	u.Path = path.Join(append([]string{u.Path}, segments...)...) + "/"
	return u.String()
}

// VideosURL is the collection endpoint.
func (c *Client) VideosURL() string {
	return c.endpoint("videos")
}

func (c *Client) do(ctx context.Context, op string, req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Op: op, Err: err}
		}
	}

	req.Header.Set("User-Agent", constant.UserAgent)
	req.Header.Set("Accept", "application/json")

	log.WithFields(log.Fields{"op": op, "method": req.Method, "url": req.URL.String()}).Debug("api request")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, op, endpoint string, v any) (int, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, &TransportError{Op: op, Err: err}
	}

	resp, err := c.do(ctx, op, req)
	if err != nil {
		return 0, err
	}
	defer util.Ignore(resp.Body.Close)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("%s: decode: %w", op, err)
	}
	return resp.StatusCode, nil
}

// ListVideos returns every video in server order.
func (c *Client) ListVideos(ctx context.Context) ([]MediaItem, error) {
	var items []MediaItem
	if _, err := c.getJSON(ctx, "list videos", c.VideosURL(), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetVideo returns one video. An unknown id yields a NotFoundError.
func (c *Client) GetVideo(ctx context.Context, id int64) (MediaItem, error) {
	var item MediaItem
	code, err := c.getJSON(ctx, "get video", c.endpoint("videos", strconv.FormatInt(id, 10)), &item)
	if code == http.StatusNotFound {
		return MediaItem{}, &NotFoundError{ID: id}
	}
	if err != nil {
		return MediaItem{}, err
	}
	return item, nil
}

// GetStatus asks only for the processing state of one video.
func (c *Client) GetStatus(ctx context.Context, id int64) (Status, error) {
	var body struct {
		Status Status `json:"status"`
	}
	code, err := c.getJSON(ctx, "get status", c.endpoint("videos", strconv.FormatInt(id, 10), "status"), &body)
	if code == http.StatusNotFound {
		return 0, &NotFoundError{ID: id}
	}
	if err != nil {
		return 0, err
	}
	return body.Status, nil
}

// ValidateUpload checks the form before anything is sent.
func ValidateUpload(title, file string) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Message: "please provide a title"}
	}
	if file == "" {
		return &ValidationError{Field: "video_file", Message: "please select a video file"}
	}

	stat, err := filesystem.API().Stat(file)
	switch {
	case err != nil:
		return &ValidationError{Field: "video_file", Message: fmt.Sprintf("cannot read %s", file)}
	case stat.IsDir():
		return &ValidationError{Field: "video_file", Message: fmt.Sprintf("%s is a directory", file)}
	case stat.Size() == 0:
		return &ValidationError{Field: "video_file", Message: fmt.Sprintf("%s is empty", file)}
	}
	return nil
}

// UploadVideo sends title and the file at path as multipart form fields
// "title" and "video_file". The new video starts out Pending.
func (c *Client) UploadVideo(ctx context.Context, title, file string) error {
	const op = "upload video"

	if err := ValidateUpload(title, file); err != nil {
		return err
	}

	f, err := filesystem.API().Open(file)
	if err != nil {
		return &ValidationError{Field: "video_file", Message: err.Error()}
	}
	defer util.Ignore(f.Close)

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		err := func() error {
			if err := form.WriteField("title", strings.TrimSpace(title)); err != nil {
				return err
			}
			part, err := form.CreateFormFile("video_file", filepath.Base(file))
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, f); err != nil {
				return err
			}
			return form.Close()
		}()
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.VideosURL(), pr)
	if err != nil {
		_ = pr.Close()
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.do(ctx, op, req)
	if err != nil {
		_ = pr.CloseWithError(err)
		return err
	}
	defer util.Ignore(resp.Body.Close)
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	log.WithFields(log.Fields{"title": title, "file": file}).Info("video uploaded")
	return nil
}
