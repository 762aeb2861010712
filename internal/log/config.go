package log

// Config mirrors the [log] section of the config file.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
	// Format is text or json.
	Format string `toml:"format"`
	// File is a path, "stderr", or "discard".
	File string `toml:"file"`
	// AddSource adds file:line to each record.
	AddSource bool `toml:"add_source"`
}

func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "text",
	}
}
