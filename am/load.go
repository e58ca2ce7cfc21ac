package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/edict/errors"
)

var globalConfig *Config
var viperInstance *viper.Viper

// Load reads the EDICT core configuration using Viper
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	applyFallbacks(&config)

	globalConfig = &config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	return initViper()
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config from %s", configPath)
	}
	applyFallbacks(&config)

	return &config, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viperInstance = nil
}

// Default returns a config built purely from defaults, without touching the
// filesystem. Used by tests and by callers that run against an explicit
// study directory with stock conventions.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var config Config
	// Unmarshal of pure defaults cannot fail; the struct mirrors SetDefaults.
	_ = v.Unmarshal(&config)
	applyFallbacks(&config)
	return &config
}

// initViper initializes Viper with configuration sources and defaults
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()
	v.SetConfigName("am")
	v.SetConfigType("toml")
	v.AddConfigPath(ConfigDir())
	v.AddConfigPath(".")

	v.SetEnvPrefix("EDICT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	// Missing config file is fine: defaults cover a stock study layout.
	_ = v.ReadInConfig()

	viperInstance = v
	return v
}

// applyFallbacks fills config sections Viper defaults cannot express.
func applyFallbacks(config *Config) {
	if len(config.Study.DeathEvidence) == 0 {
		config.Study.DeathEvidence = DefaultDeathEvidence()
	}
	if config.Run.Workers < 1 {
		config.Run.Workers = 1
	}
}

// ConfigDir returns the EDICT configuration directory (~/.edict).
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".edict")
}

// ConfigPath returns the path of the primary config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "am.toml")
}
