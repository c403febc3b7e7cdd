package config

import "time"

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.OutputDir == "" {
		c.App.OutputDir = "output"
	}
	if c.App.RunLog == "" {
		c.App.RunLog = "data/runlog.db"
	}

	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.1
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 2000
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = 60 * time.Second
	}
	if c.LLM.MaxRetries < 0 {
		c.LLM.MaxRetries = 0
	}

	if c.Market.RESTBaseURL == "" {
		c.Market.RESTBaseURL = "https://api.binance.com"
	}
	if c.Market.Timeframe == "" {
		c.Market.Timeframe = "1h"
	}
	if c.Market.Limit <= 0 {
		c.Market.Limit = 100
	}
	if c.Market.HTTPTimeout <= 0 {
		c.Market.HTTPTimeout = 10 * time.Second
	}

	if c.Providers.CoinGeckoBaseURL == "" {
		c.Providers.CoinGeckoBaseURL = "https://api.coingecko.com/api/v3"
	}
	if c.Providers.CryptoPanicBaseURL == "" {
		c.Providers.CryptoPanicBaseURL = "https://cryptopanic.com/api/v1"
	}
	if c.Providers.RedditBaseURL == "" {
		c.Providers.RedditBaseURL = "https://www.reddit.com"
	}
	if c.Providers.FearGreedURL == "" {
		c.Providers.FearGreedURL = "https://api.alternative.me/fng/"
	}
	if c.Providers.HTTPTimeout <= 0 {
		c.Providers.HTTPTimeout = 8 * time.Second
	}

	if c.Pipeline.StageTimeout <= 0 {
		c.Pipeline.StageTimeout = 90 * time.Second
	}
}
