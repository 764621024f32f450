package config

// Config represents the persistent platelog configuration stored as
// config.toml. The TOML layout uses sections for logical grouping.
type Config struct {
	Version       int                `toml:"version"`
	Storage       StorageConfig      `toml:"storage"`
	API           APIConfig          `toml:"api"`
	NLU           NLUConfig          `toml:"nlu"`
	FoodDB        FoodDBConfig       `toml:"food_db"`
	Conversations ConversationConfig `toml:"conversations"`
	EventStream   EventStreamConfig  `toml:"event_stream"`
}

// StorageConfig holds the food-log and conversation storage settings.
type StorageConfig struct {
	// Driver selects the backend: sqlite, postgres or inmemory.
	Driver      string `toml:"driver,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// APIConfig holds ingest API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// NLUConfig holds language-model provider settings.
type NLUConfig struct {
	Target string `toml:"target,omitempty"`
	Model  string `toml:"model,omitempty"`
	// VisionModel handles photo recognition and label OCR.
	VisionModel string `toml:"vision_model,omitempty"`
	APIKey      string `toml:"api_key,omitempty"`
}

// FoodDBConfig holds food database provider settings.
type FoodDBConfig struct {
	Target       string `toml:"target,omitempty"`
	TokenURL     string `toml:"token_url,omitempty"`
	ClientID     string `toml:"client_id,omitempty"`
	ClientSecret string `toml:"client_secret,omitempty"`
}

// ConversationConfig holds suspended-conversation lifecycle settings.
type ConversationConfig struct {
	// TTLMinutes is how long a suspended conversation stays resumable.
	TTLMinutes uint `toml:"ttl_minutes,omitempty"`

	// ReapMinutes is the interval between expired-row sweeps.
	ReapMinutes uint `toml:"reap_minutes,omitempty"`
}

// EventStreamConfig holds entry-event publishing settings.
type EventStreamConfig struct {
	// Provider selects the backend: kafka or nop.
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}
