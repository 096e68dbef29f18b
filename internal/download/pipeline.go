package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	"github.com/handiism/apod-downloader/internal/apod"
	"github.com/handiism/apod-downloader/internal/config"
	"github.com/handiism/apod-downloader/internal/http"
	ioutils "github.com/handiism/apod-downloader/internal/io"
	"github.com/handiism/apod-downloader/internal/model"
	"github.com/handiism/apod-downloader/internal/selector"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a pipeline progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Request selects the date to download.
type Request struct {
	// Date is an explicit month/day/year, or nil.
	Date *model.Triple

	// Surprise picks a random date when Date is nil.
	Surprise bool
}

// Result describes a completed download.
type Result struct {
	RunID    string
	Date     model.Date
	Metadata *model.Metadata
	ImageURL string
	Path     string
	Bytes    int
}

// Pipeline runs one download: select a date, fetch its metadata, download
// the image and store it.
type Pipeline struct {
	settings *config.Settings
	selector *selector.Selector
	client   *apod.Client
	store    *ioutils.Store
	images   *ioutils.ImageService
	logger   *slog.Logger

	onProgress func(ProgressEvent)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSelector replaces the date selector, e.g. to pin the clock.
func WithSelector(s *selector.Selector) Option {
	return func(p *Pipeline) { p.selector = s }
}

// WithLogger sets the logger for the pipeline and the components it builds.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline creates a Pipeline from settings. onProgress may be nil.
func NewPipeline(settings *config.Settings, onProgress func(ProgressEvent), opts ...Option) *Pipeline {
	p := &Pipeline{
		settings:   settings,
		logger:     slog.Default(),
		images:     ioutils.NewImageService(),
		onProgress: onProgress,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.selector == nil {
		p.selector = selector.New(selector.WithMaxAttempts(settings.MaxRandomAttempts))
	}

	httpClient := http.NewClient(
		http.WithTimeout(settings.Timeout()),
		http.WithUserAgent(settings.UserAgent),
		http.WithLogger(p.logger),
	)
	p.client = apod.NewClient(httpClient, settings.BaseURL, "").WithLogger(p.logger)
	p.store = ioutils.NewStore(settings.OutputDir).WithLogger(p.logger)

	return p
}

// Run executes the pipeline. Every stage must succeed for the next to start;
// the first failure is returned and nothing further is attempted.
//
// When no date can be selected the returned error wraps
// model.ErrNoValidDate. That is an expected outcome and is reported as a
// warning rather than an error.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.NewString()
	logger := p.logger.With(slog.String("run_id", runID))
	logger.Debug("run started", slog.Bool("surprise", req.Surprise), slog.Bool("explicit", req.Date != nil))

	result, err := p.run(ctx, req)
	if err != nil {
		logger.Debug("run failed", slog.Any("error", err))
		return nil, err
	}

	result.RunID = runID
	logger.Debug("run finished",
		slog.String("date", result.Date.ISO()),
		slog.String("path", result.Path),
		slog.Int("bytes", result.Bytes))
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, req Request) (*Result, error) {
	date, err := p.selector.Select(selector.Request{Explicit: req.Date, Surprise: req.Surprise})
	if err != nil {
		if errors.Is(err, model.ErrNoValidDate) {
			p.progress(ProgressEvent{Message: "No valid date selected!", Level: LevelWarning})
		} else {
			p.progress(ProgressEvent{Message: fmt.Sprintf("Invalid date: %v", err), Level: LevelError})
		}
		return nil, err
	}
	p.progress(ProgressEvent{Message: fmt.Sprintf("Image date: %s", date.Display()), Level: LevelVerbose})

	queryURL := p.client.QueryURL(date, p.settings.APIKey)
	p.progress(ProgressEvent{Message: fmt.Sprintf("Query URL: %s", redactKey(queryURL)), Level: LevelVerbose})

	md, err := p.client.FetchMetadata(ctx, queryURL)
	if err != nil {
		p.progress(ProgressEvent{Message: fmt.Sprintf("Error fetching metadata for %s: %v", date, err), Level: LevelError})
		return nil, fmt.Errorf("fetching metadata for %s: %w", date, err)
	}
	p.progress(ProgressEvent{Message: fmt.Sprintf("Image title: %s", md.Title), Level: LevelVerbose})

	if !md.IsImage() {
		p.progress(ProgressEvent{Message: fmt.Sprintf("Entry for %s is a %s, not an image", date, md.MediaType), Level: LevelWarning})
	}

	imageURL := md.ImageURL(p.settings.PreferHD)
	p.progress(ProgressEvent{Message: fmt.Sprintf("Downloading image from: %s", imageURL), Level: LevelVerbose})

	img, err := p.client.DownloadImage(ctx, imageURL)
	if err != nil {
		p.progress(ProgressEvent{Message: fmt.Sprintf("Error downloading image: %v", err), Level: LevelError})
		return nil, fmt.Errorf("downloading image for %s: %w", date, err)
	}
	if !img.IsImageContent() {
		p.progress(ProgressEvent{Message: fmt.Sprintf("Unexpected content type %q for %s", img.ContentType, imageURL), Level: LevelWarning})
	}

	data := p.process(ctx, img.Data, md)

	path, err := p.store.Save(ctx, date, data)
	if err != nil {
		p.progress(ProgressEvent{Message: fmt.Sprintf("Error saving image: %v", err), Level: LevelError})
		return nil, fmt.Errorf("saving image for %s: %w", date, err)
	}

	p.progress(ProgressEvent{Message: fmt.Sprintf("Image saved: %s", path), Level: LevelSuccess})

	return &Result{
		Date:     date,
		Metadata: md,
		ImageURL: imageURL,
		Path:     path,
		Bytes:    len(data),
	}, nil
}

// process applies the optional image transformations. A failing step is
// reported and skipped; the bytes from before that step are kept.
func (p *Pipeline) process(ctx context.Context, data []byte, md *model.Metadata) []byte {
	if p.settings.Caption {
		if out, err := p.images.Caption(ctx, data, md.Title); err != nil {
			p.progress(ProgressEvent{Message: fmt.Sprintf("Could not caption image: %v", err), Level: LevelWarning})
		} else {
			data = out
		}
	}

	if size := p.settings.MaxImageSize; size > 0 {
		if out, err := p.images.ResizeImage(ctx, data, size, size); err != nil {
			p.progress(ProgressEvent{Message: fmt.Sprintf("Could not resize image: %v", err), Level: LevelWarning})
		} else {
			data = out
		}
	}

	if p.settings.ConvertToJPEG {
		format, err := p.images.DetectFormat(data)
		switch {
		case err != nil:
			p.progress(ProgressEvent{Message: fmt.Sprintf("Could not convert image to JPEG: %v", err), Level: LevelWarning})
		case format != "jpeg":
			if out, err := p.images.ConvertToJPEG(ctx, data); err != nil {
				p.progress(ProgressEvent{Message: fmt.Sprintf("Could not convert image to JPEG: %v", err), Level: LevelWarning})
			} else {
				p.progress(ProgressEvent{Message: fmt.Sprintf("Converted %s image to JPEG", format), Level: LevelVerbose})
				data = out
			}
		}
	}

	return data
}

func (p *Pipeline) progress(event ProgressEvent) {
	if p.onProgress != nil {
		p.onProgress(event)
	}
}

// redactKey hides the api_key query parameter, unless it is the public demo
// key.
func redactKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if key := q.Get("api_key"); key != "" && key != apod.DemoKey {
		q.Set("api_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
