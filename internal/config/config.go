// Package config loads busdesk settings from busdesk.yaml and BUSDESK_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const envPrefix = "BUSDESK"

// APIConfig locates the backend.
type APIConfig struct {
	URL     string
	Timeout time.Duration
}

// TokenConfig says where the access token is kept.
type TokenConfig struct {
	File string
	// Value, when set (BUSDESK_TOKEN), is used instead of the stored token.
	Value string
}

// LogConfig sets the log level and the file the log goes to.
type LogConfig struct {
	Level string
	File  string
}

// MetricsConfig controls the optional prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address of the /metrics endpoint. Empty disables it.
	Addr string
}

// Config is the full busdesk configuration.
type Config struct {
	Environment string
	API         APIConfig
	Token       TokenConfig
	Log         LogConfig
	Metrics     MetricsConfig
}

// Load reads the config file from the given directories (default: the working
// directory and ~/.busdesk), then applies environment overrides such as
// BUSDESK_API_URL.
func Load(dirs ...string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	if len(dirs) == 0 {
		dirs = []string{".", filepath.Join(home, ".busdesk")}
	}

	v := viper.New()
	v.SetConfigName("busdesk")
	v.SetConfigType("yaml")
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("token.value", envPrefix+"_TOKEN"); err != nil {
		return nil, fmt.Errorf("bind token env: %w", err)
	}

	setDefaults(v, home)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.API.URL = strings.TrimRight(cfg.API.URL, "/")
	cfg.Token.File = expandHome(cfg.Token.File, home)
	cfg.Log.File = expandHome(cfg.Log.File, home)
	return &cfg, nil
}

func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("environment", "development")

	v.SetDefault("api.url", "http://localhost:5000/api")
	v.SetDefault("api.timeout", 30*time.Second)

	v.SetDefault("token.file", filepath.Join(home, ".busdesk", "token"))
	v.SetDefault("token.value", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(home, ".busdesk", "busdesk.log"))

	v.SetDefault("metrics.addr", "")
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
