package apod

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/url"
	"strings"

	"github.com/handiism/apod-downloader/internal/http"
	"github.com/handiism/apod-downloader/internal/model"
)

const (
	// DefaultBaseURL is the APOD endpoint.
	DefaultBaseURL = "https://api.nasa.gov/planetary/apod"

	// DemoKey is NASA's shared, heavily rate limited key. It is used when no
	// key is configured.
	DemoKey = "DEMO_KEY"
)

// Client fetches APOD metadata and images.
//
// Example usage:
//
//	client := apod.NewClient(http.NewClient(), apod.DefaultBaseURL, "")
//
//	queryURL := client.QueryURL(date, apiKey)
//	md, err := client.FetchMetadata(ctx, queryURL)
//	img, err := client.DownloadImage(ctx, md.URL)
type Client struct {
	http       *http.Client
	baseURL    string
	defaultKey string
	logger     *slog.Logger
}

// NewClient creates a Client. Empty baseURL and defaultKey fall back to
// DefaultBaseURL and DemoKey.
func NewClient(httpClient *http.Client, baseURL, defaultKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if defaultKey == "" {
		defaultKey = DemoKey
	}
	return &Client{
		http:       httpClient,
		baseURL:    baseURL,
		defaultKey: defaultKey,
		logger:     slog.Default(),
	}
}

// WithLogger returns the client with l as its logger.
func (c *Client) WithLogger(l *slog.Logger) *Client {
	if l != nil {
		c.logger = l
	}
	return c
}

// QueryURL builds the metadata URL for date. An empty apiKey uses the
// client's default key.
//
// Example:
//
//	client.QueryURL(date, "DEMO_KEY")
//	// https://api.nasa.gov/planetary/apod?api_key=DEMO_KEY&date=2017-09-24
func (c *Client) QueryURL(date model.Date, apiKey string) string {
	if apiKey == "" {
		apiKey = c.defaultKey
	}

	params := url.Values{}
	params.Set("api_key", apiKey)
	params.Set("date", date.ISO())

	sep := "?"
	if strings.Contains(c.baseURL, "?") {
		sep = "&"
	}
	return c.baseURL + sep + params.Encode()
}

// FetchMetadata downloads and parses the metadata at queryURL.
//
// Returns an error wrapping:
//   - model.ErrNetwork on transport failure or non-2xx status
//   - model.ErrMetadataParse if the body is not a JSON object
//   - model.ErrMissingField if title or url is missing
func (c *Client) FetchMetadata(ctx context.Context, queryURL string) (*model.Metadata, error) {
	resp, err := c.http.Get(ctx, queryURL)
	if err != nil {
		return nil, networkError("metadata", err)
	}

	md, err := model.ParseMetadata(resp.Body)
	if err != nil {
		return nil, err
	}

	return md, nil
}

// Image is a downloaded image payload.
type Image struct {
	// Data is the response body, unmodified.
	Data []byte

	// ContentType is the Content-Type header sent by the server.
	ContentType string
}

// IsImageContent reports whether the server labelled the payload as an image.
// A missing Content-Type is not treated as an image.
func (i *Image) IsImageContent() bool {
	mediaType, _, err := mime.ParseMediaType(i.ContentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}

// DownloadImage downloads the image at imageURL.
//
// No content validation is done here; callers may inspect
// Image.IsImageContent. Returns an error wrapping model.ErrNetwork on any
// transport failure or non-2xx status.
func (c *Client) DownloadImage(ctx context.Context, imageURL string) (*Image, error) {
	if err := validateImageURL(imageURL); err != nil {
		return nil, networkError("image", err)
	}

	resp, err := c.http.Get(ctx, imageURL)
	if err != nil {
		return nil, networkError("image", err)
	}

	img := &Image{Data: resp.Body, ContentType: resp.ContentType}
	if !img.IsImageContent() {
		c.logger.Warn("unexpected content type for image",
			slog.String("url", imageURL),
			slog.String("content_type", resp.ContentType))
	}

	return img, nil
}

// validateImageURL rejects URLs that cannot be fetched over HTTP.
func validateImageURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid image url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid image url %q: scheme %q not allowed (only http/https)", raw, u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("invalid image url %q: empty hostname", raw)
	}
	return nil
}

// networkError wraps err as model.ErrNetwork, adding the API's own message
// for error responses.
func networkError(stage string, err error) error {
	var se *http.StatusError
	if errors.As(err, &se) {
		if msg := apiErrorMessage(se.Body); msg != "" {
			return fmt.Errorf("%w: %s request: %w: %s", model.ErrNetwork, stage, err, msg)
		}
	}
	return fmt.Errorf("%w: %s request: %w", model.ErrNetwork, stage, err)
}

// apiErrorMessage extracts the human readable message from an API error
// body. The APOD service answers bad requests with {"code":400,"msg":"..."}
// and key problems with {"error":{"code":"...","message":"..."}}.
func apiErrorMessage(body []byte) string {
	var payload struct {
		Msg   string `json:"msg"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Msg != "" {
		return payload.Msg
	}
	return payload.Error.Message
}
