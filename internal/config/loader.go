package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: node.url is XRPLGATE_NODE_URL.
const EnvPrefix = "XRPLGATE"

// LoadConfig loads configuration from multiple sources in priority order:
// 1. Default values
// 2. Configuration file (xrplgate.toml), if present
// 3. Environment variables (XRPLGATE_ prefix)
// An explicitly requested file that does not exist is an error; the
// default file is optional.
func LoadConfig(paths ConfigPaths) (*Config, error) {
	return load(paths.Main, paths.Main != DefaultConfigPaths().Main)
}

// LoadDefault loads defaults and environment, plus xrplgate.toml from the
// working directory if it exists.
func LoadDefault() (*Config, error) {
	return load(DefaultConfigPaths().Main, false)
}

func load(configPath string, required bool) (*Config, error) {
	v := viper.New()

	// 1. Set defaults first
	setDefaults(v)

	// 2. Load main configuration file
	loaded, err := loadMainConfig(v, configPath, required)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}

	// 3. Set up environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Unmarshal into struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if loaded {
		config.configPath = configPath
	}

	// 5. Validate the complete configuration
	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

// loadMainConfig reads configPath and reports whether a file was read.
func loadMainConfig(v *viper.Viper, configPath string, required bool) (bool, error) {
	if configPath == "" {
		if required {
			return false, fmt.Errorf("config path cannot be empty")
		}
		return false, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if required {
			return false, fmt.Errorf("config file does not exist: %s", configPath)
		}
		return false, nil
	}

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return false, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	return true, nil
}
