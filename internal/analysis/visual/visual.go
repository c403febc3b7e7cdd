// Package visual 生成一轮分析的 K 线图 HTML 工件（含布林带与成交量），
// 随 results.json 一起落到输出目录，供人工复盘。
package visual

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	talib "github.com/markcheno/go-talib"

	"quorum/internal/market"
)

const (
	colorBackground    = "#060c1b"
	colorTextPrimary   = "#eceff4"
	colorTextSecondary = "#9ca3af"
	colorBull          = "#34d399"
	colorBear          = "#f87171"
	colorBandUpper     = "#3b82f6"
	colorBandMiddle    = "#fbbf24"
	colorBandLower     = "#f472b6"

	chartWidthPx   = 1400
	klineHeightPx  = 560
	volumeHeightPx = 240

	bollingerPeriod = 20
	bollingerDev    = 2.0
)

// Input 是一次图表渲染的全部素材。
type Input struct {
	Symbol   string
	Interval string
	Candles  []market.Candle
	Trend    string
	RSI      float64
}

// WriteFile 渲染图表并写到 outputDir/<symbol>_chart.html，返回完整路径。
func WriteFile(input Input, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}
	name := strings.ToLower(strings.NewReplacer("/", "_", "-", "_").Replace(input.Symbol))
	path := filepath.Join(outputDir, name+"_chart.html")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("创建图表文件失败: %w", err)
	}
	defer f.Close()
	if err := Render(input, f); err != nil {
		return "", err
	}
	return path, nil
}

// Render 把 K 线 + 布林带 + 成交量渲染为 HTML 页面写入 w。
func Render(input Input, w io.Writer) error {
	if input.Symbol == "" {
		return fmt.Errorf("图表缺少交易对")
	}
	if len(input.Candles) == 0 {
		return fmt.Errorf("%s 无K线可渲染", input.Symbol)
	}

	xAxis := buildXAxis(input.Candles)

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(
		buildKline(input, xAxis),
		buildVolume(input, xAxis),
	)
	return page.Render(w)
}

func buildKline(input Input, xAxis []string) *charts.Kline {
	minPrice, maxPrice := priceBounds(input.Candles)
	padding := (maxPrice - minPrice) * 0.05
	if padding <= 0 {
		padding = math.Max(1, math.Abs(maxPrice)*0.01)
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", klineHeightPx),
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:         fmt.Sprintf("%s %s", strings.ToUpper(input.Symbol), input.Interval),
			Subtitle:      fmt.Sprintf("趋势 %s | RSI %.1f", input.Trend, input.RSI),
			Left:          "left",
			Top:           "10",
			TitleStyle:    &opts.TextStyle{Color: colorTextPrimary, FontSize: 18},
			SubtitleStyle: &opts.TextStyle{Color: colorTextSecondary},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), TextStyle: &opts.TextStyle{Color: colorTextPrimary}}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(false)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			Min:       round(minPrice-padding, 4),
			Max:       round(maxPrice+padding, 4),
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.2)}},
		}),
	)
	kline.SetSeriesOptions(
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        colorBull,
			Color0:       colorBear,
			BorderColor:  colorBull,
			BorderColor0: colorBear,
		}),
	)

	data := make([]opts.KlineData, 0, len(input.Candles))
	for _, c := range input.Candles {
		data = append(data, opts.KlineData{Value: [4]float64{c.Open, c.Close, c.Low, c.High}})
	}
	kline.SetXAxis(xAxis)
	kline.AddSeries("Price", data)

	if bands := buildBollingerLine(input.Candles); bands != nil {
		bands.SetXAxis(xAxis)
		kline.Overlap(bands)
	}
	return kline
}

// buildBollingerLine 叠加布林带三条线；窗口不足周期时不画。
func buildBollingerLine(candles []market.Candle) *charts.Line {
	if len(candles) < bollingerPeriod {
		return nil
	}
	upper, middle, lower := talib.BBands(market.Closes(candles),
		bollingerPeriod, bollingerDev, bollingerDev, talib.SMA)

	line := charts.NewLine()
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)
	line.AddSeries("BOLL Upper", toLineData(upper), charts.WithLineStyleOpts(opts.LineStyle{Color: colorBandUpper, Width: 1.5}))
	line.AddSeries("BOLL Middle", toLineData(middle), charts.WithLineStyleOpts(opts.LineStyle{Color: colorBandMiddle, Width: 1.5}))
	line.AddSeries("BOLL Lower", toLineData(lower), charts.WithLineStyleOpts(opts.LineStyle{Color: colorBandLower, Width: 1.5}))
	return line
}

func buildVolume(input Input, xAxis []string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", volumeHeightPx),
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{Title: "Volume", Left: "left", TitleStyle: &opts.TextStyle{Color: colorTextPrimary}}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			SplitNumber: 6,
			AxisLabel:   &opts.AxisLabel{Show: opts.Bool(false)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			AxisLabel: &opts.AxisLabel{Show: opts.Bool(true), Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.15)}},
		}),
	)

	vols := make([]opts.BarData, len(input.Candles))
	for i, c := range input.Candles {
		color := colorBear
		if c.Close >= c.Open {
			color = colorBull
		}
		vols[i] = opts.BarData{
			Value:     c.Volume,
			ItemStyle: &opts.ItemStyle{Color: color, Opacity: opts.Float(0.6)},
		}
	}
	bar.SetXAxis(xAxis)
	bar.AddSeries("Volume", vols)
	return bar
}

func buildXAxis(candles []market.Candle) []string {
	x := make([]string, len(candles))
	for i, c := range candles {
		x[i] = time.UnixMilli(c.CloseTime).UTC().Format("01-02 15:04")
	}
	return x
}

// toLineData 把指标序列转为折线数据，前置的 0 填充段跳过不画。
func toLineData(series []float64) []opts.LineData {
	out := make([]opts.LineData, len(series))
	for i, v := range series {
		if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			out[i] = opts.LineData{Value: nil}
			continue
		}
		out[i] = opts.LineData{Value: round(v, 4)}
	}
	return out
}

func priceBounds(candles []market.Candle) (float64, float64) {
	minPrice, maxPrice := math.MaxFloat64, -math.MaxFloat64
	for _, c := range candles {
		minPrice = math.Min(minPrice, c.Low)
		maxPrice = math.Max(maxPrice, c.High)
	}
	return minPrice, maxPrice
}

func round(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}
