package config

const (
	DefaultTimeoutMs       = 30000
	DefaultScriptTimeoutMs = 5000
	DefaultMaxRedirects    = 10
	DefaultServerAddr      = ":3001"
	DefaultStore           = "colrun.db"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:         DefaultTimeoutMs,
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    DefaultMaxRedirects,
		ValidateSSL:     BoolPtr(true),
		ScriptTimeout:   DefaultScriptTimeoutMs,
		Output:          "console",
		Verbose:         BoolPtr(false),
		NoColor:         BoolPtr(false),
		LogLevel:        "info",
		Store:           DefaultStore,
		Server: ServerConfig{
			Addr:        DefaultServerAddr,
			CORSOrigins: []string{"http://localhost:8000", "http://127.0.0.1:8000"},
		},
	}
}
