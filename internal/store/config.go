package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr         string   `yaml:"addr"`
		AllowOrigins []string `yaml:"allow_origins"`
	} `yaml:"server"`
	Feed struct {
		// Exchange prefix stripped from instrument names in prompts/headlines.
		Exchange string `yaml:"exchange"`
		// Upstream selects the push-feed implementation: LIVE (Zerodha) or MOCK.
		Upstream string `yaml:"upstream"`
		// MockIntervalMs is the tick cadence of the mock upstream.
		MockIntervalMs int `yaml:"mock_interval_ms"`
	} `yaml:"feed"`
	Buffer struct {
		MaxTicks int `yaml:"max_ticks"`
	} `yaml:"buffer"`
	News struct {
		Source       string `yaml:"source"` // SYNTHETIC or SCRAPER
		IntervalMs   int    `yaml:"interval_ms"`
		MaxHeadlines int    `yaml:"max_headlines"`
	} `yaml:"news"`
	Analysis struct {
		InitialDelayMs int `yaml:"initial_delay_ms"`
		IntervalMs     int `yaml:"interval_ms"`
		MinTicks       int `yaml:"min_ticks"`
	} `yaml:"analysis"`
	TradeLog struct {
		MaxTrades int `yaml:"max_trades"`
	} `yaml:"trade_log"`
	LLM struct {
		Provider    string  `yaml:"provider"` // GEMINI or NOOP
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float32 `yaml:"temperature"`
	} `yaml:"llm"`
	Settings struct {
		Path string `yaml:"path"`
	} `yaml:"settings"`
}

func (c *Config) Validate() error {
	if c.Feed.Upstream != "LIVE" && c.Feed.Upstream != "MOCK" {
		return fmt.Errorf("invalid feed.upstream '%s': must be 'LIVE' or 'MOCK'", c.Feed.Upstream)
	}
	if c.News.Source != "SYNTHETIC" && c.News.Source != "SCRAPER" {
		return fmt.Errorf("invalid news.source '%s': must be 'SYNTHETIC' or 'SCRAPER'", c.News.Source)
	}
	if c.LLM.Provider != "GEMINI" && c.LLM.Provider != "NOOP" {
		return fmt.Errorf("invalid llm.provider '%s': must be 'GEMINI' or 'NOOP'", c.LLM.Provider)
	}
	if c.Buffer.MaxTicks <= 0 {
		return fmt.Errorf("buffer.max_ticks must be positive, got %d", c.Buffer.MaxTicks)
	}
	if c.Analysis.MinTicks > c.Buffer.MaxTicks {
		return fmt.Errorf("analysis.min_ticks (%d) cannot exceed buffer.max_ticks (%d)",
			c.Analysis.MinTicks, c.Buffer.MaxTicks)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

// DefaultConfig returns a config with all defaults applied, used when no
// config file is present.
func DefaultConfig() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Feed.Exchange == "" {
		c.Feed.Exchange = "NSE"
	}
	if c.Feed.Upstream == "" {
		c.Feed.Upstream = "LIVE"
	}
	if c.Feed.MockIntervalMs == 0 {
		c.Feed.MockIntervalMs = 500
	}
	if c.Buffer.MaxTicks == 0 {
		c.Buffer.MaxTicks = 200
	}
	if c.News.Source == "" {
		c.News.Source = "SYNTHETIC"
	}
	if c.News.IntervalMs == 0 {
		c.News.IntervalMs = 8000
	}
	if c.News.MaxHeadlines == 0 {
		c.News.MaxHeadlines = 20
	}
	if c.Analysis.InitialDelayMs == 0 {
		c.Analysis.InitialDelayMs = 1000
	}
	if c.Analysis.IntervalMs == 0 {
		c.Analysis.IntervalMs = 5000
	}
	if c.Analysis.MinTicks == 0 {
		c.Analysis.MinTicks = 10
	}
	if c.TradeLog.MaxTrades == 0 {
		c.TradeLog.MaxTrades = 100
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "NOOP"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gemini-2.5-flash"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 512
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.3
	}
	if c.Settings.Path == "" {
		c.Settings.Path = "aura_state.json"
	}
}
