package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"duetrack/internal/assignment"
	"duetrack/internal/log"
	"duetrack/internal/quote"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "duetrack.db"
	DefaultLogName        = "duetrack.log"
	appDirName            = "duetrack"

	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

type Keymap struct {
	Quit         string `toml:"quit"`
	Add          string `toml:"add"`
	Up           string `toml:"up"`
	Down         string `toml:"down"`
	Delete       string `toml:"delete"`
	Edit         string `toml:"edit"`
	Confirm      string `toml:"confirm"`
	Cancel       string `toml:"cancel"`
	NextField    string `toml:"next_field"`
	RefreshQuote string `toml:"refresh_quote"`
	Dismiss      string `toml:"dismiss"`
}

type Progress struct {
	WindowDays int    `toml:"window_days"`
	Polarity   string `toml:"polarity"`
}

type Quote struct {
	Enabled         bool   `toml:"enabled"`
	RelayURL        string `toml:"relay_url"`
	SourceURL       string `toml:"source_url"`
	RefreshInterval string `toml:"refresh_interval"`
	RateWindow      string `toml:"rate_window"`
	RateLimit       int    `toml:"rate_limit"`
	Timeout         string `toml:"timeout"`
	RefreshOnChange bool   `toml:"refresh_on_change"`
}

type Config struct {
	DBPath  string `toml:"db_path"`
	Storage string `toml:"storage"`
	// RecheckTitleOnUpdate also rejects edits that rename an assignment
	// to another assignment's title.
	RecheckTitleOnUpdate bool       `toml:"recheck_title_on_update"`
	Keys                 Keymap     `toml:"keys"`
	Progress             Progress   `toml:"progress"`
	Quote                Quote      `toml:"quote"`
	Log                  log.Config `toml:"log"`
}

// ResolveConfigPath picks $DUETRACK_CONFIG, then the XDG config dir, then
// ~/.config, then the working directory.
func ResolveConfigPath() string {
	if p := strings.TrimSpace(os.Getenv("DUETRACK_CONFIG")); p != "" {
		return p
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appDirName, DefaultConfigFileName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", appDirName, DefaultConfigFileName)
	}
	return DefaultConfigFileName
}

// LoadOrCreate reads path, writing the defaults there first if it does not
// exist. Relative db and log paths are resolved against the config dir.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig(filepath.Dir(path))
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBName
	}
	cfg.DBPath = resolve(filepath.Dir(path), cfg.DBPath)
	cfg.Log.File = resolve(filepath.Dir(path), cfg.Log.File)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func resolve(dir, p string) string {
	switch p {
	case "", "stderr", "discard":
		return p
	}
	if strings.HasPrefix(p, "file:") || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func defaultConfig(dir string) Config {
	logCfg := log.DefaultConfig()
	logCfg.File = filepath.Join(dir, DefaultLogName)
	return Config{
		DBPath:  filepath.Join(dir, DefaultDBName),
		Storage: StorageSQLite,
		Keys: Keymap{
			Quit:         "q",
			Add:          "a",
			Up:           "k",
			Down:         "j",
			Delete:       "d",
			Edit:         "e",
			Confirm:      "enter",
			Cancel:       "esc",
			NextField:    "tab",
			RefreshQuote: "r",
			Dismiss:      "x",
		},
		Progress: Progress{
			WindowDays: 14,
			Polarity:   assignment.PolarityRemaining.String(),
		},
		Quote: Quote{
			Enabled:         true,
			RelayURL:        quote.DefaultRelayURL,
			SourceURL:       quote.DefaultSourceURL,
			RefreshInterval: quote.DefaultInterval.String(),
			RateWindow:      quote.DefaultWindow.String(),
			RateLimit:       quote.DefaultLimit,
			Timeout:         "10s",
			RefreshOnChange: true,
		},
		Log: logCfg,
	}
}

func (c Config) Validate() error {
	switch c.Storage {
	case StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("storage must be %q or %q, got %q", StorageSQLite, StorageMemory, c.Storage)
	}
	if c.Progress.WindowDays <= 0 {
		return fmt.Errorf("progress.window_days must be positive, got %d", c.Progress.WindowDays)
	}
	if _, ok := assignment.ParsePolarity(c.Progress.Polarity); !ok {
		return fmt.Errorf("progress.polarity must be remaining or elapsed, got %q", c.Progress.Polarity)
	}
	if c.Quote.RateLimit <= 0 {
		return fmt.Errorf("quote.rate_limit must be positive, got %d", c.Quote.RateLimit)
	}
	for name, v := range map[string]string{
		"quote.refresh_interval": c.Quote.RefreshInterval,
		"quote.rate_window":      c.Quote.RateWindow,
		"quote.timeout":          c.Quote.Timeout,
	} {
		if _, err := parseDuration(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func (c Config) StoreOptions() assignment.Options {
	return assignment.Options{RecheckTitleOnUpdate: c.RecheckTitleOnUpdate}
}

func (c Config) ProgressSettings() assignment.Progress {
	pol, _ := assignment.ParsePolarity(c.Progress.Polarity)
	return assignment.Progress{
		Window:   time.Duration(c.Progress.WindowDays) * 24 * time.Hour,
		Polarity: pol,
	}
}

func (c Config) FetcherConfig() quote.FetcherConfig {
	interval, _ := parseDuration(c.Quote.RefreshInterval)
	window, _ := parseDuration(c.Quote.RateWindow)
	return quote.FetcherConfig{
		Interval: interval,
		Window:   window,
		Limit:    c.Quote.RateLimit,
	}
}

func (c Config) QuoteTimeout() time.Duration {
	d, _ := parseDuration(c.Quote.Timeout)
	return d
}

// parseDuration treats an empty value as "use the default".
func parseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q is negative", v)
	}
	return d, nil
}
