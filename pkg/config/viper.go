package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found in configDir or the working directory), and binds environment
// variables with the PLATELOG_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (PLATELOG_API_LISTEN, PLATELOG_NLU_API_KEY, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery.
	v.SetConfigName("config")
	v.SetConfigType("toml")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: PLATELOG_STORAGE_DRIVER, PLATELOG_API_LISTEN, etc.
	v.SetEnvPrefix("PLATELOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Storage
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// NLU
	v.SetDefault("nlu.target", d.NLU.Target)
	v.SetDefault("nlu.model", d.NLU.Model)
	v.SetDefault("nlu.vision_model", d.NLU.VisionModel)
	v.SetDefault("nlu.api_key", d.NLU.APIKey)

	// Food database
	v.SetDefault("food_db.target", d.FoodDB.Target)
	v.SetDefault("food_db.token_url", d.FoodDB.TokenURL)
	v.SetDefault("food_db.client_id", d.FoodDB.ClientID)
	v.SetDefault("food_db.client_secret", d.FoodDB.ClientSecret)

	// Conversations
	v.SetDefault("conversations.ttl_minutes", d.Conversations.TTLMinutes)
	v.SetDefault("conversations.reap_minutes", d.Conversations.ReapMinutes)

	// Event stream
	v.SetDefault("event_stream.provider", d.EventStream.Provider)
	v.SetDefault("event_stream.brokers", d.EventStream.Brokers)
	v.SetDefault("event_stream.topic", d.EventStream.Topic)
}
