// Package apod talks to NASA's Astronomy Picture of the Day service.
//
// A download is two requests:
//
//  1. GET the metadata for a date from the APOD endpoint
//  2. GET the image the metadata points at
//
// # Basic Usage
//
//	client := apod.NewClient(http.NewClient(), "", settings.APIKey)
//
//	md, err := client.FetchMetadata(ctx, client.QueryURL(date, ""))
//	if err != nil {
//	    return err
//	}
//
//	img, err := client.DownloadImage(ctx, md.URL)
//
// Errors wrap the sentinels in the model package (ErrNetwork,
// ErrMetadataParse, ErrMissingField) so callers can tell them apart with
// errors.Is.
package apod
