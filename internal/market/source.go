package market

import "context"

// Source 拉取指定交易对的 K 线窗口。返回空切片视为数据不可用。
type Source interface {
	FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
}
