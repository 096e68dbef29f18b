package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/handiism/apod-downloader/internal/config"
	"github.com/handiism/apod-downloader/internal/tui"
)

func main() {
	var (
		configFlag = flag.String("config", "", "Path to a JSON or YAML config file")
		outputFlag = flag.String("output", "", "Output directory (overrides config)")
	)
	flag.Parse()

	settings, err := loadSettings(*configFlag, *outputFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := tui.Run(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadSettings applies, in increasing priority: defaults, the config file,
// the environment (including .env) and -output.
func loadSettings(configPath, output string) (*config.Settings, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	settings := config.DefaultSettings()
	if configPath != "" {
		var err error
		settings, err = config.Load(configPath)
		if err != nil {
			return nil, err
		}
	}
	settings.ApplyEnv()
	if output != "" {
		settings.OutputDir = output
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}
