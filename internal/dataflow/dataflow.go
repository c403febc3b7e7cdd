// Package dataflow 封装基本面/新闻面/社交面的外部数据源。
// 这些数据是分析提示词的补充原料而不是硬依赖：任何一路失败都降级为
// 空数据并记日志，不中断流水线。
package dataflow

import (
	"time"

	"github.com/go-resty/resty/v2"

	"quorum/internal/config"
)

// Fundamentals 是 CoinGecko 市场数据的摘要。
type Fundamentals struct {
	Name           string  `json:"name"`
	MarketCapUSD   float64 `json:"market_cap_usd"`
	MarketCapRank  int64   `json:"market_cap_rank"`
	Volume24hUSD   float64 `json:"volume_24h_usd"`
	Change24hPct   float64 `json:"change_24h_pct"`
	Change7dPct    float64 `json:"change_7d_pct"`
	CirculatingSup float64 `json:"circulating_supply"`
	ATHUSD         float64 `json:"ath_usd"`
	ATHChangePct   float64 `json:"ath_change_pct"`
}

// NewsItem 是一条聚合新闻。
type NewsItem struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	URL         string    `json:"url"`
}

// SocialPulse 汇总社区热度与市场情绪指标。
type SocialPulse struct {
	Subreddit       string `json:"subreddit"`
	Subscribers     int64  `json:"subscribers"`
	ActiveUsers     int64  `json:"active_users"`
	FearGreedValue  int64  `json:"fear_greed_value"`
	FearGreedLabel  string `json:"fear_greed_label"`
}

// Client 统一持有各外部源的 HTTP 客户端与配置。
type Client struct {
	http *resty.Client
	cfg  config.ProvidersConfig
}

func NewClient(cfg config.ProvidersConfig) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(cfg.HTTPTimeout).
			SetHeader("User-Agent", "quorum/1.0"),
		cfg: cfg,
	}
}
