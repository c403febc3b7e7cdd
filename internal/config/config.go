package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取 YAML 配置并套用默认值。文件不存在时返回纯默认配置，
// 密钥类字段允许通过环境变量覆盖（便于 .env 工作流）。
func Load(path string) (*Config, error) {
	var cfg Config
	if strings.TrimSpace(path) != "" {
		if _, err := os.Stat(path); err == nil {
			v := viper.New()
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("读取配置文件失败 (%s): %w", path, err)
			}
			if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
				dc.WeaklyTypedInput = true
				dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
					mapstructure.StringToTimeDurationHookFunc(),
				)
			}); err != nil {
				return nil, fmt.Errorf("解析配置失败: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("访问配置文件失败 (%s): %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" && c.LLM.BaseURL == "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" && c.LLM.Model == "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" && c.Providers.CoinGeckoAPIKey == "" {
		c.Providers.CoinGeckoAPIKey = v
	}
	if v := os.Getenv("CRYPTOPANIC_API_KEY"); v != "" && c.Providers.CryptoPanicAPIKey == "" {
		c.Providers.CryptoPanicAPIKey = v
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return fmt.Errorf("缺少 LLM API Key（llm.api_key 或环境变量 OPENAI_API_KEY）")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature 超出范围: %v", c.LLM.Temperature)
	}
	if c.Market.Limit > 1000 {
		return fmt.Errorf("market.limit 过大: %d（最大 1000）", c.Market.Limit)
	}
	return nil
}
