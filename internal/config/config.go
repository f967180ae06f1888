package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

// ErrMissingAPIKey is returned by Validate when no API key is configured
var ErrMissingAPIKey = errors.New("no Pixabay API key configured (set PIXABAY_API_KEY or api_key in the config file)")

type Config struct {
	APIKey         string   `toml:"api_key"`
	BaseURL        string   `toml:"base_url"`
	PerPage        int      `toml:"per_page"`
	SafeSearch     bool     `toml:"safe_search"`
	RequestTimeout Duration `toml:"request_timeout"`
	UI             UIConfig `toml:"ui"`
}

type UIConfig struct {
	ToastDuration Duration `toml:"toast_duration"`
	ScrollDelay   Duration `toml:"scroll_delay"`
	CardWidth     int      `toml:"card_width"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func Default() *Config {
	return &Config{
		BaseURL:        "https://pixabay.com/api/",
		PerPage:        12,
		RequestTimeout: Duration{0},
		UI: UIConfig{
			ToastDuration: Duration{4 * time.Second},
			ScrollDelay:   Duration{500 * time.Millisecond},
			CardWidth:     36,
		},
	}
}

// DefaultPath returns the config file location under the user config dir
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "pixgrid", "config.toml")
}

// Load reads the TOML file at configPath (a missing file is fine), then
// applies the environment. envFile, when set, is loaded into the environment
// first without overriding variables that are already present.
func Load(configPath, envFile string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("unmarshaling config %s: %w", configPath, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PIXABAY_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("PIXGRID_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("PIXGRID_PER_PAGE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing PIXGRID_PER_PAGE: %w", err)
		}
		c.PerPage = n
	}
	if v := os.Getenv("PIXGRID_SAFE_SEARCH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing PIXGRID_SAFE_SEARCH: %w", err)
		}
		c.SafeSearch = b
	}
	if v := os.Getenv("PIXGRID_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing PIXGRID_REQUEST_TIMEOUT: %w", err)
		}
		c.RequestTimeout = Duration{d}
	}
	if v := os.Getenv("PIXGRID_TOAST_DURATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing PIXGRID_TOAST_DURATION: %w", err)
		}
		c.UI.ToastDuration = Duration{d}
	}
	return nil
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.PerPage == 0 {
		c.PerPage = def.PerPage
	}
	if c.UI.ToastDuration.Duration == 0 {
		c.UI.ToastDuration = def.UI.ToastDuration
	}
	if c.UI.CardWidth == 0 {
		c.UI.CardWidth = def.UI.CardWidth
	}
}

// Validate checks the settings needed to talk to the API
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.PerPage < 3 || c.PerPage > 200 {
		return fmt.Errorf("per_page must be between 3 and 200, got %d", c.PerPage)
	}
	if c.RequestTimeout.Duration < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	if c.UI.CardWidth < 16 {
		return fmt.Errorf("ui.card_width must be at least 16, got %d", c.UI.CardWidth)
	}
	return nil
}

// MaskedAPIKey returns the API key with all but the last four characters hidden
func (c *Config) MaskedAPIKey() string {
	if len(c.APIKey) <= 4 {
		return strings.Repeat("*", len(c.APIKey))
	}
	return strings.Repeat("*", len(c.APIKey)-4) + c.APIKey[len(c.APIKey)-4:]
}

// String renders the effective configuration as TOML with the key masked
func (c *Config) String() string {
	masked := *c
	masked.APIKey = c.MaskedAPIKey()
	data, err := toml.Marshal(masked)
	if err != nil {
		return fmt.Sprintf("<invalid config: %v>", err)
	}
	return string(data)
}

// SaveTemplate writes the commented sample config to configPath. It refuses
// to overwrite an existing file.
func SaveTemplate(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file %s already exists", configPath)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(configPath, []byte(configTemplate), 0600)
}
