// Package config loads and validates the YAML configuration.
package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load reads, defaults, and validates the configuration at path.
// TIDEMARK_-prefixed environment variables override file values
// (TIDEMARK_EXCHANGE_API_KEY -> exchange.api_key).
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TIDEMARK")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	// Unmarshal only sees env values for keys viper knows about, so the
	// secrets get bound explicitly.
	for _, key := range []string{"exchange.api_key", "exchange.api_secret", "notify.telegram_bot_token", "notify.telegram_chat_id"} {
		_ = v.BindEnv(key)
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
