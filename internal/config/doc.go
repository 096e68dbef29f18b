// Package config provides configuration management for apod-downloader.
//
// This package handles:
//   - Loading and saving settings from JSON or YAML files
//   - Default configuration values
//   - Overrides from APOD_* environment variables and a .env file
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Queries https://api.nasa.gov/planetary/apod with DEMO_KEY
//	// 30 second request timeout
//	// Images saved under the working directory
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.yaml")
//	if err != nil {
//	    // Malformed or invalid file; a missing file yields defaults
//	}
//
// # Precedence
//
// Command line tools apply sources in this order, later ones winning:
//
//	defaults < config file < environment (.env included) < flags
//
// # Schedule
//
// The schedule field (or APOD_SCHEDULE) holds a cron expression such as
// "0 9 * * *" or "@daily". Load and Validate reject malformed expressions.
//
// # API Key
//
// The key is never compiled in. Set it with APOD_API_KEY (directly or in
// .env), the api_key config field, or the -k flag. Without one, NASA's
// shared DEMO_KEY is used.
package config
