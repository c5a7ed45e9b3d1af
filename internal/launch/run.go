// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/syntax"
)

// Command returns the launch as a shell command line: the environment
// assignment followed by the launcher.
func (p *Profile) Command() string {
	return p.VMOptionsEnv + "=" + quote(p.VMOptionsFile) + " " + quote(p.Launcher)
}

// VMOptions returns the .vmoptions file content.
func (p *Profile) VMOptions() string {
	return strings.Join(p.JVMArgs, "\n") + "\n"
}

// Prepare creates the sandbox, writes the .vmoptions file and attaches the
// plugins. Zip plugins are unpacked; jars and directories are linked.
func (p *Profile) Prepare() error {
	if err := os.MkdirAll(p.PluginsDir, 0o755); err != nil {
		return fmt.Errorf("creating sandbox: %w", err)
	}
	if err := os.WriteFile(p.VMOptionsFile, []byte(p.VMOptions()), 0o644); err != nil {
		return fmt.Errorf("writing vmoptions: %w", err)
	}
	for _, plugin := range p.Plugins {
		if err := attach(plugin, p.PluginsDir); err != nil {
			return fmt.Errorf("attaching plugin %s: %w", plugin, err)
		}
	}
	return nil
}

// Run prepares the sandbox and starts the IDE, waiting until it exits.
func Run(ctx context.Context, p *Profile, logger *log.Logger, stdout, stderr io.Writer) error {
	if err := p.Prepare(); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, p.Launcher)
	cmd.Dir = p.Home
	cmd.Env = append(os.Environ(), p.VMOptionsEnv+"="+p.VMOptionsFile)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	logger.Info("starting IDE", "launcher", p.Launcher, "sandbox", p.SandboxDir)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s: %w", p.Launcher, err)
	}
	return nil
}

func attach(plugin, pluginsDir string) error {
	info, err := os.Stat(plugin)
	if err != nil {
		return err
	}
	if !info.IsDir() && strings.EqualFold(filepath.Ext(plugin), ".zip") {
		return unzip(plugin, pluginsDir)
	}

	link := filepath.Join(pluginsDir, filepath.Base(plugin))
	if err := os.RemoveAll(link); err != nil {
		return err
	}
	abs, err := filepath.Abs(plugin)
	if err != nil {
		return err
	}
	return os.Symlink(abs, link)
}

// unzip extracts a plugin zip into dir, replacing earlier copies of the same
// top-level entries.
func unzip(zipPath, dir string) (err error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := zr.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	cleared := make(map[string]bool)
	for _, f := range zr.File {
		target := filepath.Join(dir, filepath.FromSlash(f.Name))
		rel, relErr := filepath.Rel(dir, target)
		if relErr != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fmt.Errorf("zip entry %q escapes %s", f.Name, dir)
		}

		top := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
		if !cleared[top] {
			if err := os.RemoveAll(filepath.Join(dir, top)); err != nil {
				return err
			}
			cleared[top] = true
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	_, err = io.Copy(out, rc) //nolint:gosec // plugin archives are produced locally
	return err
}

func quote(s string) string {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return s
	}
	return q
}
