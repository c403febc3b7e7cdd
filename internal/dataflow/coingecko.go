package dataflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// 常见币种的 CoinGecko 资产 id；不在表里的按小写符号猜。
var coinIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"BNB":  "binancecoin",
	"XRP":  "ripple",
	"DOGE": "dogecoin",
	"ADA":  "cardano",
}

func coinID(base string) string {
	if id, ok := coinIDs[strings.ToUpper(base)]; ok {
		return id
	}
	return strings.ToLower(base)
}

// FetchFundamentals 拉取单个资产的市场基本面摘要。
func (c *Client) FetchFundamentals(ctx context.Context, base string) (*Fundamentals, error) {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"vs_currency":              "usd",
			"ids":                      coinID(base),
			"price_change_percentage": "24h,7d",
		})
	if c.cfg.CoinGeckoAPIKey != "" {
		req.SetHeader("x-cg-demo-api-key", c.cfg.CoinGeckoAPIKey)
	}

	resp, err := req.Get(c.cfg.CoinGeckoBaseURL + "/coins/markets")
	if err != nil {
		return nil, fmt.Errorf("coingecko 请求失败: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("coingecko 返回 %d: %s", resp.StatusCode(), resp.String())
	}

	row := gjson.GetBytes(resp.Body(), "0")
	if !row.Exists() {
		return nil, fmt.Errorf("coingecko 未找到资产 %s", base)
	}
	return &Fundamentals{
		Name:           row.Get("name").String(),
		MarketCapUSD:   row.Get("market_cap").Float(),
		MarketCapRank:  row.Get("market_cap_rank").Int(),
		Volume24hUSD:   row.Get("total_volume").Float(),
		Change24hPct:   row.Get("price_change_percentage_24h").Float(),
		Change7dPct:    row.Get("price_change_percentage_7d_in_currency").Float(),
		CirculatingSup: row.Get("circulating_supply").Float(),
		ATHUSD:         row.Get("ath").Float(),
		ATHChangePct:   row.Get("ath_change_percentage").Float(),
	}, nil
}
