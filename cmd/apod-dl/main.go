package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/handiism/apod-downloader/internal/config"
	"github.com/handiism/apod-downloader/internal/download"
	"github.com/handiism/apod-downloader/internal/logging"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ECDC4"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#95E1A3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C757D"))
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return download.ExitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return download.ExitUsage
	}

	logger := logging.New(stderr, logging.Options{Verbose: opts.verbose})

	settings, err := loadSettings(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return download.ExitUsage
	}

	if opts.saveConfig != "" {
		if err := settings.Save(opts.saveConfig); err != nil {
			fmt.Fprintf(stderr, "Error saving config: %v\n", err)
			return download.ExitFailure
		}
		fmt.Fprintln(stdout, successStyle.Render("✓ Config saved: "+opts.saveConfig))
		return download.ExitOK
	}

	pipeline := download.NewPipeline(settings, printer(stdout, stderr, opts.verbose), download.WithLogger(logger))

	if opts.verbose {
		fmt.Fprintln(stdout, titleStyle.Render("APOD Downloader"))
	}

	req := download.Request{Date: opts.date, Surprise: opts.surprise}
	if settings.Schedule != "" {
		return runScheduled(pipeline, settings.Schedule, req, stdout, stderr)
	}

	_, err = runWithSignals(context.Background(), stderr, func(ctx context.Context) (*download.Result, error) {
		return pipeline.Run(ctx, req)
	})
	if err != nil {
		code := download.ExitCode(err)
		if code == download.ExitInterrupted {
			fmt.Fprintln(stderr, "Download cancelled.")
		}
		return code
	}

	return download.ExitOK
}

// loadSettings applies, in increasing priority: defaults, the config file,
// the environment (including .env) and the flags.
func loadSettings(opts *options) (*config.Settings, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	settings := config.DefaultSettings()
	if opts.configPath != "" {
		var err error
		settings, err = config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
	}

	settings.ApplyEnv()
	opts.apply(settings)

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// runWithSignals runs fn next to a watcher that cancels it on SIGINT or
// SIGTERM.
func runWithSignals(ctx context.Context, stderr io.Writer, fn func(context.Context) (*download.Result, error)) (*download.Result, error) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	var result *download.Result
	g.Go(func() error {
		defer close(done)
		var err error
		result, err = fn(gctx)
		return err
	})
	g.Go(func() error {
		select {
		case <-sigCh:
			fmt.Fprintln(stderr, "\nInterrupted, cancelling...")
			return context.Canceled
		case <-done:
			return nil
		}
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// runScheduled downloads on the cron schedule until SIGINT or SIGTERM.
func runScheduled(pipeline *download.Pipeline, spec string, req download.Request, stdout, stderr io.Writer) int {
	scheduler, err := download.NewScheduler(pipeline, spec, req)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return download.ExitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(stdout, "Downloading on schedule %q, next at %s\n", spec, scheduler.Next(time.Now()).Format(time.DateTime))
	if err := scheduler.Run(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return download.ExitFailure
	}
	return download.ExitOK
}

// printer renders progress events. Verbose events are dropped unless
// verbose is set; errors go to stderr.
func printer(stdout, stderr io.Writer, verbose bool) func(download.ProgressEvent) {
	return func(event download.ProgressEvent) {
		switch event.Level {
		case download.LevelVerbose:
			if verbose {
				fmt.Fprintln(stdout, dimStyle.Render("   "+event.Message))
			}
		case download.LevelError:
			fmt.Fprintln(stderr, errorStyle.Render("✗ "+event.Message))
		case download.LevelWarning:
			fmt.Fprintln(stdout, warningStyle.Render("! "+event.Message))
		case download.LevelSuccess:
			fmt.Fprintln(stdout, successStyle.Render("✓ "+event.Message))
		default:
			fmt.Fprintln(stdout, event.Message)
		}
	}
}
