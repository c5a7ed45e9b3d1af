// SPDX-License-Identifier: MPL-2.0

package release

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/shell"
)

// ErrNoSigner is returned when signing is needed but no signer command is
// configured.
var ErrNoSigner = errors.New("no signer configured")

type (
	// SignRequest asks a signer to sign Input into Output.
	SignRequest struct {
		Input       string
		Output      string
		Credentials SigningCredentials
	}

	// Signer signs a plugin artifact. Implementations must reject incomplete
	// credentials themselves.
	Signer interface {
		Sign(ctx context.Context, req SignRequest) error
	}

	// ExecSigner runs an external signing tool, for example
	// "java -jar marketplace-zip-signer-cli.jar sign".
	//
	// The tool receives -in, -out, -cert-file, -key-file and -key-pass-file
	// arguments. Certificate, key and key password are written to private
	// temp files that are removed afterwards, so no secret appears on the
	// command line. Empty credential values are passed through.
	ExecSigner struct {
		command []string
		logger  *log.Logger
	}

	// SignerError reports a failed signer run with its output.
	SignerError struct {
		Command  string
		ExitCode int
		Output   string
		Err      error
	}
)

// Error implements the error interface.
func (e *SignerError) Error() string {
	msg := fmt.Sprintf("signer %q failed", e.Command)
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" with exit code %d", e.ExitCode)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

// Unwrap returns the underlying exec error.
func (e *SignerError) Unwrap() error { return e.Err }

// NewExecSigner parses a shell-quoted command line. Environment references
// such as $HOME are expanded.
func NewExecSigner(commandLine string, logger *log.Logger) (*ExecSigner, error) {
	if strings.TrimSpace(commandLine) == "" {
		return nil, ErrNoSigner
	}
	fields, err := shell.Fields(commandLine, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("parsing signer command: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrNoSigner
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ExecSigner{command: fields, logger: logger}, nil
}

// Command returns the parsed command line.
func (s *ExecSigner) Command() []string {
	return append([]string(nil), s.command...)
}

// Sign runs the signer and waits for it to exit.
func (s *ExecSigner) Sign(ctx context.Context, req SignRequest) (err error) {
	dir, err := os.MkdirTemp("", "plugkit-sign-*")
	if err != nil {
		return fmt.Errorf("creating signing directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }() // holds key material only

	certFile, err := writePrivate(dir, "chain.crt", req.Credentials.CertificateChain)
	if err != nil {
		return err
	}
	keyFile, err := writePrivate(dir, "private.pem", req.Credentials.PrivateKey)
	if err != nil {
		return err
	}
	passFile, err := writePrivate(dir, "key.pass", req.Credentials.Password)
	if err != nil {
		return err
	}

	args := append(s.Command()[1:],
		"-in", req.Input,
		"-out", req.Output,
		"-cert-file", certFile,
		"-key-file", keyFile,
		"-key-pass-file", passFile,
	)

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, s.command[0], args...)
	cmd.Stdout = &output
	cmd.Stderr = &output

	s.logger.Debug("running signer", "command", s.command[0], "in", req.Input, "out", req.Output)
	if runErr := cmd.Run(); runErr != nil {
		signErr := &SignerError{Command: s.command[0], Output: output.String(), Err: runErr}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			signErr.ExitCode = exitErr.ExitCode()
		}
		return signErr
	}
	if _, statErr := os.Stat(req.Output); statErr != nil {
		return &SignerError{Command: s.command[0], Output: "signer did not produce " + req.Output, Err: statErr}
	}
	return nil
}

func writePrivate(dir, name, content string) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return path, nil
}
