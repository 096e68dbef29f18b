package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/apod-downloader/internal/config"
	"github.com/handiism/apod-downloader/internal/logging"
	"github.com/handiism/apod-downloader/internal/model"
	"github.com/handiism/apod-downloader/internal/selector"
)

var fakeJPEG = []byte("\xff\xd8\xff\xe0fake-jpeg-bytes")

// fakeAPOD serves metadata on /apod and image bytes on /image.jpg.
// "{{base}}" in a metadata body is replaced by the server URL.
type fakeAPOD struct {
	metadata    func(date string) (int, string)
	imageStatus int
	imageBody   []byte
	beforeImage func()

	metadataHits atomic.Int32
	imageHits    atomic.Int32
	lastQuery    atomic.Value
}

func (f *fakeAPOD) start(t *testing.T) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/apod", func(w http.ResponseWriter, r *http.Request) {
		f.metadataHits.Add(1)
		f.lastQuery.Store(r.URL.RawQuery)
		status, body := f.metadata(r.URL.Query().Get("date"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, strings.ReplaceAll(body, "{{base}}", srv.URL))
	})
	mux.HandleFunc("/image.jpg", func(w http.ResponseWriter, r *http.Request) {
		f.imageHits.Add(1)
		if f.beforeImage != nil {
			f.beforeImage()
		}
		status := f.imageStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.WriteHeader(status)
		_, _ = w.Write(f.imageBody)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func okMetadata(date string) (int, string) {
	return http.StatusOK, `{"date":"` + date + `","title":"Test Picture","media_type":"image","url":"{{base}}/image.jpg","hdurl":"{{base}}/image.jpg"}`
}

func newTestPipeline(t *testing.T, srv *httptest.Server, today time.Time, events *[]ProgressEvent) (*Pipeline, string) {
	t.Helper()

	root := t.TempDir()
	settings := config.DefaultSettings()
	settings.BaseURL = srv.URL + "/apod"
	settings.OutputDir = root
	settings.TimeoutSeconds = 5

	onProgress := func(e ProgressEvent) {
		if events != nil {
			*events = append(*events, e)
		}
	}

	p := NewPipeline(settings, onProgress,
		WithSelector(selector.New(selector.WithClock(selector.FixedClock(today)))),
		WithLogger(logging.Discard()),
	)
	return p, root
}

func messages(events []ProgressEvent, level ProgressLevel) []string {
	var out []string
	for _, e := range events {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

func TestPipeline_ExplicitDate(t *testing.T) {
	f := &fakeAPOD{metadata: okMetadata, imageBody: fakeJPEG}
	srv := f.start(t)

	var events []ProgressEvent
	p, root := newTestPipeline(t, srv, time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local), &events)

	result, err := p.Run(context.Background(), Request{Date: &model.Triple{Month: 3, Day: 28, Year: 1998}})
	require.NoError(t, err)

	want := filepath.Join(root, "1998", "3", "1998-03-28.jpg")
	assert.Equal(t, want, result.Path)
	assert.Equal(t, "Test Picture", result.Metadata.Title)
	assert.Equal(t, len(fakeJPEG), result.Bytes)
	_, err = uuid.Parse(result.RunID)
	assert.NoError(t, err, "run id should be a UUID")

	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, fakeJPEG, data)

	assert.Equal(t, "api_key=DEMO_KEY&date=1998-03-28", f.lastQuery.Load())
	assert.Contains(t, messages(events, LevelVerbose), "Image date: Mar 28, 1998")
	assert.Contains(t, messages(events, LevelVerbose), "Image title: Test Picture")
	assert.Equal(t, []string{"Image saved: " + want}, messages(events, LevelSuccess))
}

func TestPipeline_DefaultsToYesterday(t *testing.T) {
	f := &fakeAPOD{metadata: okMetadata, imageBody: fakeJPEG}
	srv := f.start(t)

	p, root := newTestPipeline(t, srv, time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local), nil)

	result, err := p.Run(context.Background(), Request{})
	require.NoError(t, err)

	assert.Equal(t, model.Date{Year: 2024, Month: time.February, Day: 29}, result.Date)
	assert.FileExists(t, filepath.Join(root, "2024", "2", "2024-02-29.jpg"))
}

func TestPipeline_Surprise(t *testing.T) {
	f := &fakeAPOD{metadata: okMetadata, imageBody: fakeJPEG}
	srv := f.start(t)

	p, _ := newTestPipeline(t, srv, time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local), nil)

	result, err := p.Run(context.Background(), Request{Surprise: true})
	require.NoError(t, err)

	assert.True(t, result.Date.After(model.FirstAPOD))
	assert.GreaterOrEqual(t, result.Date.Year, selector.SurpriseMinYear)
	assert.LessOrEqual(t, result.Date.Year, selector.SurpriseMaxYear)
	assert.FileExists(t, result.Path)
}

func TestPipeline_MissingURL(t *testing.T) {
	f := &fakeAPOD{
		metadata: func(date string) (int, string) {
			return http.StatusOK, `{"date":"` + date + `","title":"No Link","media_type":"image"}`
		},
		imageBody: fakeJPEG,
	}
	srv := f.start(t)

	p, root := newTestPipeline(t, srv, time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local), nil)

	_, err := p.Run(context.Background(), Request{Date: &model.Triple{Month: 3, Day: 28, Year: 1998}})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrMissingField)
	assert.Equal(t, ExitMetadata, ExitCode(err))

	assert.Zero(t, f.imageHits.Load(), "no image request after a metadata failure")
	assert.NoDirExists(t, filepath.Join(root, "1998"))
}

func TestPipeline_MalformedMetadata(t *testing.T) {
	f := &fakeAPOD{
		metadata: func(string) (int, string) {
			return http.StatusOK, `<html>not json</html>`
		},
	}
	srv := f.start(t)

	p, _ := newTestPipeline(t, srv, time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local), nil)

	_, err := p.Run(context.Background(), Request{})
	assert.ErrorIs(t, err, model.ErrMetadataParse)
	assert.Zero(t, f.imageHits.Load())
}

func TestPipeline_MetadataHTTPError(t *testing.T) {
	f := &fakeAPOD{
		metadata: func(string) (int, string) {
			return http.StatusForbidden, `{"error":{"code":"API_KEY_INVALID","message":"An invalid api_key was supplied."}}`
		},
	}
	srv := f.start(t)

	var events []ProgressEvent
	p, _ := newTestPipeline(t, srv, time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local), &events)

	_, err := p.Run(context.Background(), Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNetwork)
	assert.Contains(t, err.Error(), "An invalid api_key was supplied.")
	assert.Equal(t, ExitNetwork, ExitCode(err))
	assert.Len(t, messages(events, LevelError), 1)
}

func TestPipeline_ImageFetchFailure(t *testing.T) {
	f := &fakeAPOD{metadata: okMetadata, imageStatus: http.StatusNotFound}
	srv := f.start(t)

	p, root := newTestPipeline(t, srv, time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local), nil)

	_, err := p.Run(context.Background(), Request{Date: &model.Triple{Month: 3, Day: 28, Year: 1998}})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNetwork)
	assert.Equal(t, int32(1), f.imageHits.Load())
	assert.NoFileExists(t, filepath.Join(root, "1998", "3", "1998-03-28.jpg"))
}

func TestPipeline_NoValidDate(t *testing.T) {
	f := &fakeAPOD{metadata: okMetadata, imageBody: fakeJPEG}
	srv := f.start(t)

	tests := []struct {
		name   string
		triple model.Triple
	}{
		{"today", model.Triple{Month: 5, Day: 10, Year: 2024}},
		{"future", model.Triple{Month: 1, Day: 1, Year: 2030}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var events []ProgressEvent
			p, _ := newTestPipeline(t, srv, time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local), &events)

			triple := tt.triple
			_, err := p.Run(context.Background(), Request{Date: &triple})
			assert.ErrorIs(t, err, model.ErrNoValidDate)
			assert.Equal(t, ExitNoValidDate, ExitCode(err))
			assert.Equal(t, []string{"No valid date selected!"}, messages(events, LevelWarning))
		})
	}

	assert.Zero(t, f.metadataHits.Load())
}

func TestPipeline_InvalidDate(t *testing.T) {
	f := &fakeAPOD{metadata: okMetadata}
	srv := f.start(t)

	p, _ := newTestPipeline(t, srv, time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local), nil)

	_, err := p.Run(context.Background(), Request{Date: &model.Triple{Month: 2, Day: 30, Year: 2001}})
	assert.ErrorIs(t, err, model.ErrInvalidDate)
	assert.Equal(t, ExitInvalidDate, ExitCode(err))
	assert.Zero(t, f.metadataHits.Load())
}

func TestPipeline_NonImageMediaWarns(t *testing.T) {
	f := &fakeAPOD{
		metadata: func(date string) (int, string) {
			return http.StatusOK, `{"date":"` + date + `","title":"A Video","media_type":"video","url":"{{base}}/image.jpg"}`
		},
		imageBody: fakeJPEG,
	}
	srv := f.start(t)

	var events []ProgressEvent
	p, _ := newTestPipeline(t, srv, time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local), &events)

	_, err := p.Run(context.Background(), Request{})
	require.NoError(t, err)
	assert.Len(t, messages(events, LevelWarning), 1)
}

func TestPipeline_ConvertToJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	f := &fakeAPOD{metadata: okMetadata, imageBody: buf.Bytes()}
	srv := f.start(t)

	p, _ := newTestPipeline(t, srv, time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local), nil)
	p.settings.ConvertToJPEG = true

	result, err := p.Run(context.Background(), Request{})
	require.NoError(t, err)

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, data[:2], "stored file should be JPEG")
}

func TestPipeline_ProcessingFailureKeepsOriginal(t *testing.T) {
	f := &fakeAPOD{metadata: okMetadata, imageBody: fakeJPEG}
	srv := f.start(t)

	var events []ProgressEvent
	p, _ := newTestPipeline(t, srv, time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local), &events)
	p.settings.MaxImageSize = 100

	result, err := p.Run(context.Background(), Request{})
	require.NoError(t, err)

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, fakeJPEG, data)
	assert.NotEmpty(t, messages(events, LevelWarning))
}

func TestPipeline_Cancelled(t *testing.T) {
	f := &fakeAPOD{metadata: okMetadata, imageBody: fakeJPEG}
	srv := f.start(t)

	p, _ := newTestPipeline(t, srv, time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, Request{})
	require.Error(t, err)
	assert.Equal(t, ExitInterrupted, ExitCode(err))
}

func TestRedactKey(t *testing.T) {
	assert.Equal(t,
		"https://api.nasa.gov/planetary/apod?api_key=REDACTED&date=1998-03-28",
		redactKey("https://api.nasa.gov/planetary/apod?api_key=secret&date=1998-03-28"))
	assert.Equal(t,
		"https://api.nasa.gov/planetary/apod?api_key=DEMO_KEY&date=1998-03-28",
		redactKey("https://api.nasa.gov/planetary/apod?api_key=DEMO_KEY&date=1998-03-28"))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{errors.New("boom"), ExitFailure},
		{fmt.Errorf("wrap: %w", model.ErrRandomDateExhausted), ExitNoValidDate},
		{model.ErrInvalidDate, ExitInvalidDate},
		{model.ErrNetwork, ExitNetwork},
		{model.ErrMetadataParse, ExitMetadata},
		{model.ErrMissingField, ExitMetadata},
		{model.ErrStorage, ExitStorage},
		{fmt.Errorf("%w: %w", model.ErrNetwork, context.Canceled), ExitInterrupted},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "%v", tt.err)
	}
}
