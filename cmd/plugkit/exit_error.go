// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/plugkit/plugkit/pkg/types"
)

// ExitError is returned by a command whose failure App.fail already printed.
// Execute exits with Code, and the fang error handler prints nothing more.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the message of the rendered failure.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("plugkit exited with code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the rendered failure so errors.Is sees its sentinels.
func (e *ExitError) Unwrap() error { return e.Err }
