package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"quorum/internal/config"
	"quorum/internal/logger"
	"quorum/internal/market"
	symbolpkg "quorum/internal/pkg/symbol"

	"github.com/adshao/go-binance/v2"
)

const maxHistoryLimit = 1000

// Source 基于 go-binance 现货接口实现 market.Source。
type Source struct {
	client *binance.Client
}

func New(cfg config.MarketConfig) *Source {
	client := binance.NewClient("", "")
	if base := strings.TrimSpace(cfg.RESTBaseURL); base != "" {
		client.BaseURL = base
	}
	client.HTTPClient = &http.Client{Timeout: cfg.HTTPTimeout}
	return &Source{client: client}
}

func (s *Source) FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	// 交易所只认无斜杠形式（BTCUSDT）
	cleanSymbol := symbolpkg.Parse(symbol).Binance()

	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	kls, err := s.client.NewKlinesService().
		Symbol(cleanSymbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch klines %s %s: %w", cleanSymbol, interval, err)
	}
	out := make([]market.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
			Trades:    kl.TradeNum,
		})
	}
	logger.Debugf("获取 %s %s K线 %d 条", cleanSymbol, interval, len(out))
	return out, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
