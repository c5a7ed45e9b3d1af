// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/viper"
)

// maxCUEFileSize guards against accidentally pointing --config at a large
// binary file.
const maxCUEFileSize = 1 << 20

type (
	// CUEError describes a single CUE validation failure with the JSON path
	// of the offending field.
	CUEError struct {
		File    string
		Path    string
		Message string
	}

	// FileTooLargeError is returned when a configuration file exceeds
	// maxCUEFileSize.
	FileTooLargeError struct {
		File string
		Size int
		Max  int
	}
)

// ErrFileTooLarge is the sentinel error wrapped by FileTooLargeError.
var ErrFileTooLarge = errors.New("file too large")

// Error implements the error interface.
func (e *CUEError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.File, e.Path, e.Message)
}

// Error implements the error interface.
func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("%s: file size %d exceeds maximum %d bytes", e.File, e.Size, e.Max)
}

// Unwrap returns ErrFileTooLarge for errors.Is() compatibility.
func (e *FileTooLargeError) Unwrap() error { return ErrFileTooLarge }

// loadCUEIntoViper parses a plugkit.cue file, validates it against the
// embedded #Config schema and merges the result into v.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxCUEFileSize {
		return &FileTooLargeError{File: path, Size: len(data), Max: maxCUEFileSize}
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	unified := schemaValue.LookupPath(cue.ParsePath("#Config")).Unify(userValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// formatCUEError flattens a CUE error list into a *CUEError for the first
// failure, keeping the field path so users can locate it in their file.
func formatCUEError(err error, path string) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &CUEError{File: path, Message: err.Error()}
	}

	first := errs[0]
	format, args := first.Msg()
	msg := fmt.Sprintf(format, args...)
	if extra := len(errs) - 1; extra > 0 {
		msg = fmt.Sprintf("%s (and %d more)", msg, extra)
	}
	return &CUEError{
		File:    path,
		Path:    strings.Join(first.Path(), "."),
		Message: msg,
	}
}
