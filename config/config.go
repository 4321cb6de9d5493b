// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
	"github.com/streamhub-cli/streamhub/constant"
	"github.com/streamhub-cli/streamhub/filesystem"
	"github.com/streamhub-cli/streamhub/key"
	"github.com/streamhub-cli/streamhub/where"
)

// EnvKeyReplacer is a strings.Replacer used to normalize configuration keys into environment variable naming conventions.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup initializes the global configuration state, including defaults, environment bindings, and localized file resolution.
func Setup() error {
	viper.SetConfigName(constant.StreamHub)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.StreamHub)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	return Validate()
}

// Validate checks the values that would otherwise fail late, deep inside the API client or poller.
func Validate() error {
	base := viper.GetString(key.APIBaseURL)
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s: invalid url %q", key.APIBaseURL, base)
	}

	if viper.GetDuration(key.SyncInterval) <= 0 {
		return fmt.Errorf("%s must be positive", key.SyncInterval)
	}

	if v := viper.GetFloat64(key.PlayerVolume); v < 0 || v > 1 {
		return fmt.Errorf("%s must be between 0 and 1, got %v", key.PlayerVolume, v)
	}

	return nil
}
