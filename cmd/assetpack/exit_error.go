package main

import (
	"errors"
	"fmt"

	"github.com/zeusync/assetpack/internal/core/asset"
)

// Exit codes beyond the generic failure.
const (
	exitFailure    = 1
	exitDecode     = 2
	exitStructural = 3
)

// ExitError signals a non-zero exit code without calling os.Exit in RunE.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCode picks the process status for err. A pack or registry that could
// not be read or parsed at all exits with exitStructural.
func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var assetErr *asset.Error
	if errors.As(err, &assetErr) && assetErr.Structural() {
		return exitStructural
	}
	return exitFailure
}
