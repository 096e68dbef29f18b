// Package http provides the HTTP client used for APOD API and image requests.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Timeout handling (30 seconds unless configured)
//   - Non-2xx responses as *StatusError, keeping the body
//   - Debug logging through log/slog
//
// # Basic Usage
//
//	client := http.NewClient(http.WithLogger(logger))
//
//	// Fetch metadata
//	resp, err := client.Get(ctx, queryURL)
//
//	// Download an image
//	resp, err = client.Get(ctx, imageURL)
//	data := resp.Body
package http
