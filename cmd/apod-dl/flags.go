package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/handiism/apod-downloader/internal/config"
	"github.com/handiism/apod-downloader/internal/model"
)

// options holds the parsed command line.
type options struct {
	date       *model.Triple
	surprise   bool
	apiKey     string
	verbose    bool
	output     string
	configPath string
	preferHD   bool
	jpeg       bool
	caption    bool
	maxSize    int
	timeout    time.Duration
	schedule   string
	saveConfig string
}

// dateFlag parses "MM DD YYYY" into a Triple.
type dateFlag struct {
	target **model.Triple
}

func (f dateFlag) String() string {
	if f.target == nil || *f.target == nil {
		return ""
	}
	return (*f.target).String()
}

func (f dateFlag) Set(s string) error {
	t, err := model.ParseTriple(s)
	if err != nil {
		return errors.New("expected MM DD YYYY")
	}
	*f.target = &t
	return nil
}

var dateNames = map[string]bool{"-d": true, "--d": true, "-date": true, "--date": true}

var numberRegex = regexp.MustCompile(`^\d{1,4}$`)

// joinDateArgs rewrites "-d 03 28 1998" into "-d", "03 28 1998" so the date
// can be given as three separate arguments.
func joinDateArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		out = append(out, args[i])
		if !dateNames[args[i]] || i+3 >= len(args) {
			continue
		}
		parts := args[i+1 : i+4]
		if numberRegex.MatchString(parts[0]) && numberRegex.MatchString(parts[1]) && numberRegex.MatchString(parts[2]) {
			out = append(out, strings.Join(parts, " "))
			i += 3
		}
	}
	return out
}

func newFlagSet(opts *options, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("apod-dl", flag.ContinueOnError)
	fs.SetOutput(output)

	date := dateFlag{target: &opts.date}
	fs.Var(date, "d", "Image date as MM DD YYYY (shorthand)")
	fs.Var(date, "date", "Image date as MM DD YYYY")
	fs.BoolVar(&opts.surprise, "s", false, "Download a random image (shorthand)")
	fs.BoolVar(&opts.surprise, "surprise", false, "Download a random image")
	fs.StringVar(&opts.apiKey, "k", "", "NASA API key (shorthand)")
	fs.StringVar(&opts.apiKey, "api_key", "", "NASA API key (default DEMO_KEY)")
	fs.BoolVar(&opts.verbose, "v", false, "Show verbose output (shorthand)")
	fs.BoolVar(&opts.verbose, "verbose", false, "Show verbose output")
	fs.StringVar(&opts.output, "o", "", "Output directory (shorthand)")
	fs.StringVar(&opts.output, "output", "", "Output directory (default current directory)")
	fs.StringVar(&opts.configPath, "config", "", "Path to a JSON or YAML config file")
	fs.StringVar(&opts.saveConfig, "save-config", "", "Write the effective settings to this JSON or YAML file and exit")
	fs.BoolVar(&opts.preferHD, "hd", false, "Download the high resolution image when available")
	fs.BoolVar(&opts.jpeg, "jpeg", false, "Convert non-JPEG images to JPEG")
	fs.BoolVar(&opts.caption, "caption", false, "Draw the image title onto the image")
	fs.IntVar(&opts.maxSize, "max-size", 0, "Resize so neither edge exceeds this many pixels")
	fs.DurationVar(&opts.timeout, "timeout", 0, "Per request timeout, e.g. 30s")
	fs.StringVar(&opts.schedule, "schedule", "", `Keep running and download on a cron schedule, e.g. "0 9 * * *"`)

	fs.Usage = func() {
		fmt.Fprintln(output, "APOD Downloader - Download NASA's Astronomy Picture of the Day")
		fmt.Fprintln(output)
		fmt.Fprintln(output, "Usage:")
		fmt.Fprintln(output, "  apod-dl [options]                 yesterday's image")
		fmt.Fprintln(output, "  apod-dl -d MM DD YYYY [options]   image for a date")
		fmt.Fprintln(output, "  apod-dl -s [options]              a random image")
		fmt.Fprintln(output, "  apod-dl -schedule SPEC [options]  yesterday's image, repeatedly")
		fmt.Fprintln(output, "  apod-dl -save-config PATH [options]")
		fmt.Fprintln(output, "                                    store the settings for later -config use")
		fmt.Fprintln(output)
		fmt.Fprintln(output, "For interactive mode, use: apod-tui")
		fmt.Fprintln(output)
		fs.PrintDefaults()
	}

	return fs
}

// parseArgs parses the command line. Positional arguments are rejected.
func parseArgs(args []string, output io.Writer) (*options, error) {
	opts := &options{}
	fs := newFlagSet(opts, output)

	if err := fs.Parse(joinDateArgs(args)); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.maxSize < 0 {
		return nil, fmt.Errorf("-max-size must not be negative, got %d", opts.maxSize)
	}
	if opts.timeout != 0 && opts.timeout < time.Second {
		return nil, fmt.Errorf("-timeout must be at least 1s, got %s", opts.timeout)
	}
	if opts.schedule != "" && opts.date != nil {
		return nil, errors.New("-schedule cannot be combined with -date")
	}

	return opts, nil
}

// apply overrides settings with the flags that were given.
func (o *options) apply(s *config.Settings) {
	if o.apiKey != "" {
		s.APIKey = o.apiKey
	}
	if o.output != "" {
		s.OutputDir = o.output
	}
	if o.preferHD {
		s.PreferHD = true
	}
	if o.jpeg {
		s.ConvertToJPEG = true
	}
	if o.caption {
		s.Caption = true
	}
	if o.maxSize > 0 {
		s.MaxImageSize = o.maxSize
	}
	if o.timeout > 0 {
		s.TimeoutSeconds = int(o.timeout / time.Second)
	}
	if o.schedule != "" {
		s.Schedule = o.schedule
	}
}
