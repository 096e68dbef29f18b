package download

import (
	"context"
	"errors"

	"github.com/handiism/apod-downloader/internal/model"
)

// Process exit codes, one per outcome so scripts can tell them apart.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitNoValidDate = 3
	ExitInvalidDate = 4
	ExitNetwork     = 5
	ExitMetadata    = 6
	ExitStorage     = 7
	ExitInterrupted = 130
)

// ExitCode maps the error returned by Pipeline.Run to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, model.ErrNoValidDate):
		return ExitNoValidDate
	case errors.Is(err, model.ErrInvalidDate):
		return ExitInvalidDate
	case errors.Is(err, model.ErrNetwork):
		return ExitNetwork
	case errors.Is(err, model.ErrMetadataParse), errors.Is(err, model.ErrMissingField):
		return ExitMetadata
	case errors.Is(err, model.ErrStorage):
		return ExitStorage
	default:
		return ExitFailure
	}
}
