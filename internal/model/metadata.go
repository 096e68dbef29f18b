package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Metadata is one APOD metadata record.
//
// The fields below are the ones the downloader reads. The full response,
// including fields this program never interprets, is kept in Fields.
//
// Example response:
//
//	{
//	  "date": "2017-09-24",
//	  "hdurl": "https://apod.nasa.gov/apod/image/1709/astronomy101_hk_750.jpg",
//	  "media_type": "image",
//	  "title": "How to Identify that Light in the Sky",
//	  "url": "https://apod.nasa.gov/apod/image/1709/astronomy101_hk_960.jpg"
//	}
type Metadata struct {
	// Title is the image title. Required.
	Title string

	// URL is the location of the image. Required.
	URL string

	// HDURL is the high resolution image, if the service has one.
	HDURL string

	// Date is the entry date as reported by the service (YYYY-MM-DD).
	Date string

	// MediaType is "image" or "video".
	MediaType string

	// Explanation is the description written for the entry.
	Explanation string

	// Copyright is the credited author, empty for public domain images.
	Copyright string

	// Fields holds every field of the response as decoded JSON values.
	Fields map[string]any
}

// requiredFields must be present and non-empty in every record.
var requiredFields = []string{"title", "url"}

// ParseMetadata decodes a metadata response body.
//
// The body must be UTF-8 text holding exactly one JSON object. It is decoded
// as data only and never evaluated.
//
// Returns an error wrapping:
//   - ErrMetadataParse if the body is not UTF-8, not JSON, not an object, or a
//     known field has the wrong type
//   - ErrMissingField if title or url is absent or empty
func ParseMetadata(body []byte) (*Metadata, error) {
	if !utf8.Valid(body) {
		return nil, fmt.Errorf("%w: response is not valid UTF-8", ErrMetadataParse)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: response is not a JSON object", ErrMetadataParse)
	}

	var fields map[string]any
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataParse, err)
	}

	for _, name := range requiredFields {
		v, ok := fields[name]
		if !ok || v == nil || v == "" {
			return nil, fmt.Errorf("%w: %q", ErrMissingField, name)
		}
	}

	md := &Metadata{Fields: fields}
	targets := map[string]*string{
		"title":       &md.Title,
		"url":         &md.URL,
		"hdurl":       &md.HDURL,
		"date":        &md.Date,
		"media_type":  &md.MediaType,
		"explanation": &md.Explanation,
		"copyright":   &md.Copyright,
	}
	for name, dst := range targets {
		v, ok := fields[name]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: field %q is %T, want string", ErrMetadataParse, name, v)
		}
		*dst = s
	}

	return md, nil
}

// ImageURL returns the URL to download. With preferHD the high resolution
// variant is used when the record has one.
func (m *Metadata) ImageURL(preferHD bool) string {
	if preferHD && m.HDURL != "" {
		return m.HDURL
	}
	return m.URL
}

// IsImage reports whether the entry is a still image. Records without a
// media_type are assumed to be images.
func (m *Metadata) IsImage() bool {
	return m.MediaType == "" || m.MediaType == "image"
}
