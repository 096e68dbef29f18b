package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for a download run.
var (
	// ErrInvalidDate indicates an explicit month/day/year that is not a real
	// calendar date, such as April 31 or February 30.
	ErrInvalidDate = errors.New("invalid date")

	// ErrNoValidDate indicates date selection produced nothing usable.
	// This is an expected outcome, not a crash.
	ErrNoValidDate = errors.New("no valid date selected")

	// ErrRandomDateExhausted indicates the surprise search gave up.
	// It matches ErrNoValidDate as well.
	ErrRandomDateExhausted = fmt.Errorf("random date search exhausted: %w", ErrNoValidDate)

	// ErrNetwork indicates a transport failure, timeout or non-success
	// HTTP status on either fetch.
	ErrNetwork = errors.New("network error")

	// ErrMetadataParse indicates the metadata response was not a JSON object.
	ErrMetadataParse = errors.New("failed to parse metadata")

	// ErrMissingField indicates the metadata lacks a required field.
	ErrMissingField = errors.New("missing metadata field")

	// ErrStorage indicates the image could not be written to disk.
	ErrStorage = errors.New("storage error")
)
