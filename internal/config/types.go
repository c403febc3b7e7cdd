package config

import "time"

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Market    MarketConfig    `mapstructure:"market"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
}

type AppConfig struct {
	LogLevel  string `mapstructure:"log_level"`
	LogPath   string `mapstructure:"log_path"`
	LLMDump   bool   `mapstructure:"llm_dump"`
	LLMLog    string `mapstructure:"llm_log"`
	OutputDir string `mapstructure:"output_dir"`
	RunLog    string `mapstructure:"run_log"`
	Chart     bool   `mapstructure:"chart"`
}

type LLMConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

type MarketConfig struct {
	RESTBaseURL string        `mapstructure:"rest_base_url"`
	Timeframe   string        `mapstructure:"timeframe"`
	Limit       int           `mapstructure:"limit"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

type ProvidersConfig struct {
	CoinGeckoBaseURL   string        `mapstructure:"coingecko_base_url"`
	CoinGeckoAPIKey    string        `mapstructure:"coingecko_api_key"`
	CryptoPanicBaseURL string        `mapstructure:"cryptopanic_base_url"`
	CryptoPanicAPIKey  string        `mapstructure:"cryptopanic_api_key"`
	RedditBaseURL      string        `mapstructure:"reddit_base_url"`
	FearGreedURL       string        `mapstructure:"fear_greed_url"`
	HTTPTimeout        time.Duration `mapstructure:"http_timeout"`
}

type PipelineConfig struct {
	StageTimeout     time.Duration `mapstructure:"stage_timeout"`
	ParallelAnalysts bool          `mapstructure:"parallel_analysts"`
}
