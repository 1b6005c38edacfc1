// Package paths resolves where storybench keeps its configuration, data
// tables, and credential file.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories.
const AppName = "storybench"

// CWD-relative default data directory and the credential file name.
const (
	DefaultDataDirName   = ".storybench-data"
	DefaultPasswordsFile = "passwords.txt"
)

// Environment overrides.
const (
	EnvConfigDir = "STORYBENCH_CONFIG_DIR"
	EnvDataDir   = "STORYBENCH_DATA_DIR"
)

// platform holds the OS lookups; tests replace them.
var platform = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// xdgDir returns $xdgVar/storybench, or ~/fallback/storybench when the
// variable is unset. Off Linux it returns os.UserConfigDir()/storybench.
func xdgDir(xdgVar string, fallback ...string) (string, error) {
	if platform.goos != "linux" {
		dir, err := platform.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if v := os.Getenv(xdgVar); v != "" {
		return filepath.Join(v, AppName), nil
	}
	home, err := platform.homeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{home}, fallback...)
	return filepath.Join(append(parts, AppName)...), nil
}

// DefaultConfigDir returns the per-user configuration directory:
// $XDG_CONFIG_HOME/storybench or ~/.config/storybench on Linux, and
// os.UserConfigDir()/storybench elsewhere.
func DefaultConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the per-user data directory:
// $XDG_DATA_HOME/storybench or ~/.local/share/storybench on Linux.
func DefaultDataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", ".local", "share")
}

// ResolveConfigDir applies flag > STORYBENCH_CONFIG_DIR > DefaultConfigDir.
// The result is absolute.
func ResolveConfigDir(flag string) (string, error) {
	for _, v := range []string{flag, os.Getenv(EnvConfigDir)} {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies flag > config.yaml data_dir > STORYBENCH_DATA_DIR,
// falling back to .storybench-data in the working directory.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, v := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ResolvePasswordsFile returns configValue made absolute, or passwords.txt
// inside configDir. Relative config values are taken relative to configDir.
func ResolvePasswordsFile(configValue, configDir string) string {
	switch {
	case configValue == "":
		return filepath.Join(configDir, DefaultPasswordsFile)
	case filepath.IsAbs(configValue):
		return configValue
	default:
		return filepath.Join(configDir, configValue)
	}
}
