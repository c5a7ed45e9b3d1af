// SPDX-License-Identifier: MPL-2.0

// Package launch builds and starts an isolated IDE instance for manual and
// UI-test verification of the plugin.
//
// A Profile attaches the plugin artifact and the robot-server plugin to a
// throwaway sandbox. It never touches the dependency declarations used for
// releases.
package launch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"mvdan.cc/sh/v3/shell"

	"github.com/plugkit/plugkit/internal/config"
	"github.com/plugkit/plugkit/internal/platform"
)

var (
	// ErrMissingRobotServer is returned when robotServerPlugin is not set.
	ErrMissingRobotServer = errors.New("robotServerPlugin is not configured")
	// ErrLauncherNotFound is returned when no IDE launcher exists under home.
	ErrLauncherNotFound = errors.New("IDE launcher not found")
)

// Profile is a complete launch description.
type Profile struct {
	// Home is the IDE installation directory.
	Home string
	// Launcher is the IDE start script or binary.
	Launcher string
	// VMOptionsEnv names the variable pointing the launcher at VMOptionsFile,
	// e.g. IDEA_VM_OPTIONS.
	VMOptionsEnv  string
	VMOptionsFile string

	SandboxDir string
	PluginsDir string

	// JVMArgs are written to the .vmoptions file, one per line.
	JVMArgs []string
	// Plugins are attached to the sandbox: the plugin artifact first, then
	// the robot-server plugin.
	Plugins []string
}

// DiagnosticFlags returns the fixed flags for UI-test launches.
func DiagnosticFlags(robotPort int) []string {
	return []string{
		fmt.Sprintf("-Drobot-server.port=%d", robotPort),
		"-Dide.mac.message.dialogs.as.sheets=false",
		"-Djb.privacy.policy.text=<!--999.999-->",
		"-Djb.consents.confirmation.enabled=false",
	}
}

// Build assembles the profile for an IDE installed at home. launcherName is
// the product launcher base name (see platform.Product.Launcher).
func Build(cfg *config.Config, home, launcherName, pluginArtifact string) (*Profile, error) {
	if platform.IsBlank(cfg.RobotServerPlugin) {
		return nil, ErrMissingRobotServer
	}

	extra, err := shell.Fields(cfg.RunIdeJvmArgs, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("parsing runIdeJvmArgs: %w", err)
	}

	sandbox := cfg.Path(cfg.SandboxDir)
	p := &Profile{
		Home:          home,
		Launcher:      launcherPath(home, launcherName),
		VMOptionsEnv:  strings.ToUpper(launcherName) + "_VM_OPTIONS",
		VMOptionsFile: filepath.Join(sandbox, launcherName+".vmoptions"),
		SandboxDir:    sandbox,
		PluginsDir:    filepath.Join(sandbox, "plugins"),
		Plugins:       []string{pluginArtifact, cfg.Path(cfg.RobotServerPlugin)},
	}

	p.JVMArgs = append(p.JVMArgs, DiagnosticFlags(int(cfg.RobotServerPort))...)
	p.JVMArgs = append(p.JVMArgs,
		"-Didea.config.path="+filepath.Join(sandbox, "config"),
		"-Didea.system.path="+filepath.Join(sandbox, "system"),
		"-Didea.plugins.path="+p.PluginsDir,
		"-Didea.log.path="+filepath.Join(sandbox, "log"),
	)
	p.JVMArgs = append(p.JVMArgs, extra...)
	return p, nil
}

// DetectLauncher finds the launcher base name of a local installation.
func DetectLauncher(home string) (string, error) {
	for _, name := range platform.Launchers() {
		if _, err := os.Stat(launcherPath(home, name)); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w under %s", ErrLauncherNotFound, home)
}

func launcherPath(home, name string) string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "bin", name+"64.exe")
	case "darwin":
		if _, err := os.Stat(filepath.Join(home, "Contents")); err == nil {
			return filepath.Join(home, "Contents", "MacOS", name)
		}
	}
	return filepath.Join(home, "bin", name+".sh")
}
