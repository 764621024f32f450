package config

const (
	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

const (
	defaultStorageDriver = "sqlite"
	defaultSQLitePath    = "platelog.db"
	defaultAPIListen     = ":8080"

	defaultNLUTarget      = "https://api.openai.com/v1"
	defaultNLUModel       = "gpt-4o-mini"
	defaultNLUVisionModel = "gpt-4o"

	defaultFoodDBTarget   = "https://platform.fatsecret.com/rest/server.api"
	defaultFoodDBTokenURL = "https://oauth.fatsecret.com/connect/token"

	defaultConversationTTLMinutes  = 60
	defaultConversationReapMinutes = 10

	defaultEventProvider = "nop"
	defaultEventTopic    = "platelog.entries"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Driver:     defaultStorageDriver,
			SQLitePath: defaultSQLitePath,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		NLU: NLUConfig{
			Target:      defaultNLUTarget,
			Model:       defaultNLUModel,
			VisionModel: defaultNLUVisionModel,
		},
		FoodDB: FoodDBConfig{
			Target:   defaultFoodDBTarget,
			TokenURL: defaultFoodDBTokenURL,
		},
		Conversations: ConversationConfig{
			TTLMinutes:  defaultConversationTTLMinutes,
			ReapMinutes: defaultConversationReapMinutes,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventProvider,
			Topic:    defaultEventTopic,
		},
	}
}
