package indicator

import (
	"math"

	"github.com/markcheno/go-talib"

	"quorum/internal/market"
)

const (
	rsiPeriod       = 14
	macdFast        = 12
	macdSlow        = 26
	macdSignal      = 9
	bollingerPeriod = 20
	bollingerStdDev = 2.0
	trendDeadband   = 1.0 // 百分比
	neutralRSI      = 50.0
)

type MACD struct {
	Line      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

type Bollinger struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Snapshot 是一次行情拉取对应的全部技术指标，计算后不再变化。
type Snapshot struct {
	CurrentPrice   float64   `json:"current_price"`
	PriceChangePct float64   `json:"price_change_24h"`
	Volume         float64   `json:"volume_24h"`
	Trend          string    `json:"trend"`
	RSI            float64   `json:"rsi"`
	MACD           MACD      `json:"macd"`
	Bollinger      Bollinger `json:"bollinger_bands"`
	Resistance     []float64 `json:"resistance_levels"`
	Support        []float64 `json:"support_levels"`
}

// Compute 从 K 线窗口计算指标快照。任何单项算不出来都退回中性默认值
// （RSI=50，MACD/布林带全零），绝不向调用方抛错。
func Compute(candles []market.Candle) Snapshot {
	snap := Snapshot{
		Trend:      "neutral",
		RSI:        neutralRSI,
		Resistance: []float64{},
		Support:    []float64{},
	}
	if len(candles) == 0 {
		return snap
	}

	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}
	last := len(candles) - 1
	snap.CurrentPrice = closes[last]
	snap.Volume = candles[last].Volume

	if len(closes) > 1 && closes[last-1] != 0 {
		snap.PriceChangePct = (closes[last] - closes[last-1]) / closes[last-1] * 100
	}
	switch {
	case snap.PriceChangePct > trendDeadband:
		snap.Trend = "bullish"
	case snap.PriceChangePct < -trendDeadband:
		snap.Trend = "bearish"
	}

	snap.RSI = computeRSI(closes)
	snap.MACD = computeMACD(closes)
	snap.Bollinger = computeBollinger(closes)
	snap.Resistance, snap.Support = supportResistance(highs, lows)
	return snap
}

func computeRSI(closes []float64) float64 {
	// Wilder 平滑需要 period+1 个收盘价
	if len(closes) <= rsiPeriod {
		return neutralRSI
	}
	v := lastValid(talib.Rsi(closes, rsiPeriod))
	if v == 0 {
		return neutralRSI
	}
	return v
}

func computeMACD(closes []float64) MACD {
	if len(closes) < macdSlow {
		return MACD{}
	}
	line, signal, hist := talib.Macd(closes, macdFast, macdSlow, macdSignal)
	return MACD{
		Line:      lastValid(line),
		Signal:    lastValid(signal),
		Histogram: lastValid(hist),
	}
}

func computeBollinger(closes []float64) Bollinger {
	if len(closes) < bollingerPeriod {
		return Bollinger{}
	}
	upper, middle, lower := talib.BBands(closes, bollingerPeriod, bollingerStdDev, bollingerStdDev, talib.SMA)
	return Bollinger{
		Upper:  lastValid(upper),
		Middle: lastValid(middle),
		Lower:  lastValid(lower),
	}
}

// supportResistance 用窗口极值推三档压力/支撑，刻意保持简单，
// 不做峰值检测。
func supportResistance(highs, lows []float64) (resistance, support []float64) {
	high := highs[0]
	low := lows[0]
	for i := 1; i < len(highs); i++ {
		high = math.Max(high, highs[i])
		low = math.Min(low, lows[i])
	}
	resistance = []float64{high, high * 0.95, high * 0.90}
	support = []float64{low, low * 1.05, low * 1.10}
	return resistance, support
}

func lastValid(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		v := series[i]
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return v
		}
	}
	return 0
}
