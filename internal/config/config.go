package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr           string        `yaml:"addr"`
	APITimeout     time.Duration `yaml:"timeout"`
	StatePath      string        `yaml:"state_path"`
	ExportDir      string        `yaml:"export_dir"`
	PerPage        int           `yaml:"per_page"`
	SearchDebounce time.Duration `yaml:"search_debounce"`
	Client         ClientConfig  `yaml:"api"`
}

// ClientConfig configures the profiling API client.
type ClientConfig struct {
	BaseURL                 string        `yaml:"base_url"`
	Timeout                 time.Duration `yaml:"timeout"`
	Retries                 int           `yaml:"retries"`
	Backoff                 time.Duration `yaml:"backoff"`
	CircuitFailureThreshold int           `yaml:"circuit_failure_threshold"`
	CircuitReset            time.Duration `yaml:"circuit_reset"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:           getEnv("HMCOE_ADDR", ":8080"),
		APITimeout:     15 * time.Second,
		StatePath:      getEnv("HMCOE_STATE_PATH", "skillprofile.db"),
		ExportDir:      getEnv("HMCOE_EXPORT_DIR", "."),
		PerPage:        20,
		SearchDebounce: 200 * time.Millisecond,
		Client: ClientConfig{
			BaseURL:                 getEnv("HMCOE_API_URL", "http://localhost:5000"),
			Timeout:                 10 * time.Second,
			Retries:                 2,
			Backoff:                 200 * time.Millisecond,
			CircuitFailureThreshold: 5,
			CircuitReset:            30 * time.Second,
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks constraints the YAML decode cannot express and fills in
// defaults for zero values a config file may have clobbered.
func (c *Config) Validate() error {
	if c.Client.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if _, err := url.ParseRequestURI(c.Client.BaseURL); err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if c.PerPage <= 0 {
		c.PerPage = 20
	}
	if c.SearchDebounce <= 0 {
		c.SearchDebounce = 200 * time.Millisecond
	}
	if c.Client.Timeout <= 0 {
		c.Client.Timeout = 10 * time.Second
	}
	if c.Client.Backoff <= 0 {
		c.Client.Backoff = 200 * time.Millisecond
	}

	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
