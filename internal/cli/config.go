package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/storybench/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend         = "backend"
	cfgKeyDataDir         = "data_dir"
	cfgKeyPasswordsFile   = "passwords_file"
	cfgKeyLogMode         = "log_mode"
	cfgKeyLogLevel        = "log_level"
	cfgKeyRequirePassword = "require_password"

	defaultLogMode  = "prod"
	defaultLogLevel = "warn"
)

// settings is the content of config.yaml.
type settings struct {
	Backend         string `yaml:"backend"`
	DataDir         string `yaml:"data_dir,omitempty"`
	PasswordsFile   string `yaml:"passwords_file,omitempty"`
	LogMode         string `yaml:"log_mode"`
	LogLevel        string `yaml:"log_level"`
	RequirePassword bool   `yaml:"require_password"`
}

func defaultSettings() settings {
	return settings{
		Backend:  types.BackendCSV,
		LogMode:  defaultLogMode,
		LogLevel: defaultLogLevel,
	}
}

// loadSettings reads config.yaml from configDir with viper. A missing file
// yields the defaults. STORYBENCH_LOG_MODE and STORYBENCH_LOG_LEVEL
// override the logging keys.
func loadSettings(configDir string) (settings, error) {
	def := defaultSettings()

	v := viper.New()
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeyLogMode, def.LogMode)
	v.SetDefault(cfgKeyLogLevel, def.LogLevel)
	v.SetDefault(cfgKeyRequirePassword, false)
	v.SetEnvPrefix("STORYBENCH")
	for _, key := range []string{cfgKeyLogMode, cfgKeyLogLevel} {
		if err := v.BindEnv(key); err != nil {
			return settings{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	return settings{
		Backend:         v.GetString(cfgKeyBackend),
		DataDir:         v.GetString(cfgKeyDataDir),
		PasswordsFile:   v.GetString(cfgKeyPasswordsFile),
		LogMode:         v.GetString(cfgKeyLogMode),
		LogLevel:        v.GetString(cfgKeyLogLevel),
		RequirePassword: v.GetBool(cfgKeyRequirePassword),
	}, nil
}

const configHeader = `# storybench configuration
# backend: csv (one file per table) or sqlite (storybench.db)
# data_dir and passwords_file are optional; relative passwords_file
# paths are taken from this directory.
`

// writeSettingsIfMissing creates config.yaml in configDir unless one exists.
// It reports whether a file was written.
func writeSettingsIfMissing(configDir string, s settings) (bool, error) {
	path := filepath.Join(configDir, configFileExt)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&s)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(configHeader), data...), 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
