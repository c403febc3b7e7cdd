package council

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quorum/internal/config"
	"quorum/internal/dataflow"
	"quorum/internal/decision"
	"quorum/internal/gateway/provider"
	"quorum/internal/market"
	"quorum/internal/state"
)

// scriptedModel 按提示词里出现的关键字返回预设回复，并可按角色注入失败。
type scriptedModel struct {
	replies map[string]string // 提示词关键字 -> 回复
	fail    map[string]error  // 提示词关键字 -> 注入的错误
}

func (m *scriptedModel) ID() string { return "scripted" }

// Call 取命中的最长关键字对应的回复。提示词之间会互相嵌套引用角色
// 名称，最长匹配保证每个提示词稳定命中自己的角色。
func (m *scriptedModel) Call(_ context.Context, payload provider.ChatPayload) (string, error) {
	for key, err := range m.fail {
		if strings.Contains(payload.User, key) {
			return "", err
		}
	}
	best, reply := 0, "一般性分析。"
	for key, r := range m.replies {
		if len(key) > best && strings.Contains(payload.User, key) {
			best, reply = len(key), r
		}
	}
	return reply, nil
}

type fakeSource struct {
	candles []market.Candle
	err     error
}

func (f *fakeSource) FetchHistory(context.Context, string, string, int) ([]market.Candle, error) {
	return f.candles, f.err
}

func testCandles(n int, base float64) []market.Candle {
	now := time.Now().UnixMilli()
	out := make([]market.Candle, n)
	for i := range out {
		c := base + float64(i)*10
		out[i] = market.Candle{
			OpenTime:  now - int64(n-i)*3600_000,
			CloseTime: now - int64(n-i-1)*3600_000,
			Open:      c - 5, High: c * 1.01, Low: c * 0.99, Close: c,
			Volume: 1000,
		}
	}
	return out
}

// degradedDataflow 指向一个全部 404 的服务器，三路外部数据全失败。
func degradedDataflow(t *testing.T) *dataflow.Client {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	return dataflow.NewClient(config.ProvidersConfig{
		CoinGeckoBaseURL:   srv.URL,
		CryptoPanicBaseURL: srv.URL,
		CryptoPanicAPIKey:  "token",
		RedditBaseURL:      srv.URL,
		FearGreedURL:       srv.URL + "/fng/",
		HTTPTimeout:        2 * time.Second,
	})
}

func newTestCouncil(model provider.ModelProvider, source market.Source, data *dataflow.Client) *Council {
	return New(model, source, data,
		config.MarketConfig{Timeframe: "1h", Limit: 100},
		config.PipelineConfig{StageTimeout: 10 * time.Second, ParallelAnalysts: true})
}

// 关键字取各角色提示词里唯一出现的开场称谓，避免跨提示词误匹配。
func fullScript() *scriptedModel {
	return &scriptedModel{
		replies: map[string]string{
			"加密货币技术分析师":    "当前价格: 60990.00，多头趋势明显。建议买入。",
			"加密货币基本面分析师":   "市值排名稳固，基本面健康。",
			"加密货币新闻分析师":    "新闻面偏利好。",
			"社交媒体情绪分析师":    "社区情绪乐观。",
			"看涨研究员（Bull":    "上涨空间充足，建议积极布局。",
			"看跌研究员（Bear":    "注意回调风险。",
			"投资组合经理和辩论主持人": "综合判断偏多，建议买入。",
			"交易员（Trader）":   "综合分析看多。\n入场价格: 61000\n止损价格: 59000\n止盈目标: 66000\n置信度: 0.8\n风险评分: 0.4\n最终交易建议: 买入",
			"风险管理委员会主席":    "风险可控。仓位比例: 30\n最终风险决策: 买入",
			"激进风险分析师":      "可以承担更高风险博取收益。",
			"中性风险分析师":      "风险收益大体平衡。",
			"保守风险分析师":      "建议降低仓位保护本金。",
		},
	}
}

func TestRunFullPipeline(t *testing.T) {
	s := state.New("run-1", "BTC/USDT")
	c := newTestCouncil(fullScript(), &fakeSource{candles: testCandles(100, 60000)}, degradedDataflow(t))

	require.NoError(t, c.Run(context.Background(), s))

	require.NotNil(t, s.Snapshot)
	require.NotNil(t, s.Reports.Technical)
	require.NotNil(t, s.Reports.Fundamental)
	require.NotNil(t, s.Reports.News)
	require.NotNil(t, s.Reports.Social)
	require.NotNil(t, s.Consensus.Bull)
	require.NotNil(t, s.Consensus.Bear)
	require.NotNil(t, s.Consensus.Manager)
	require.NotNil(t, s.RiskViews.Aggressive)
	require.NotNil(t, s.RiskViews.Neutral)
	require.NotNil(t, s.RiskViews.Conservative)

	require.NotNil(t, s.TradingDecision)
	assert.Equal(t, decision.ActionBuy, s.TradingDecision.Action)
	assert.Equal(t, 0.8, s.TradingDecision.Confidence)

	require.NotNil(t, s.FinalRiskDecision)
	assert.Equal(t, decision.ActionBuy, s.FinalRiskDecision.Action)
	assert.Equal(t, 0.3, s.FinalRiskDecision.PositionSize)

	// 12 次角色调用 + 3 条外部数据降级，全部进审计
	assert.Len(t, s.Calls, 15)
}

func TestRunAbortsWithoutMarketData(t *testing.T) {
	s := state.New("run-2", "BTC/USDT")
	c := newTestCouncil(fullScript(), &fakeSource{err: fmt.Errorf("接口超时")}, degradedDataflow(t))

	err := c.Run(context.Background(), s)
	require.Error(t, err)
	assert.Nil(t, s.Snapshot)
	assert.Nil(t, s.Reports.Technical)
}

func TestRunAbortsOnEmptyCandles(t *testing.T) {
	s := state.New("run-3", "BTC/USDT")
	c := newTestCouncil(fullScript(), &fakeSource{}, degradedDataflow(t))
	assert.Error(t, c.Run(context.Background(), s))
}

func TestAnalystFailureIsIsolated(t *testing.T) {
	model := fullScript()
	model.fail = map[string]error{"基本面分析师": fmt.Errorf("模型超载")}

	s := state.New("run-4", "BTC/USDT")
	c := newTestCouncil(model, &fakeSource{candles: testCandles(100, 60000)}, degradedDataflow(t))

	require.NoError(t, c.Run(context.Background(), s))

	// 失败的槽位留空，其余照常
	assert.Nil(t, s.Reports.Fundamental)
	assert.NotNil(t, s.Reports.Technical)
	assert.NotNil(t, s.TradingDecision)
	assert.NotNil(t, s.FinalRiskDecision)

	var found bool
	for _, f := range s.Failures {
		if f.Persona == "基本面分析师" {
			found = true
		}
	}
	assert.True(t, found, "失败必须被记录")
}

func TestTraderFailureStillYieldsRiskDecision(t *testing.T) {
	model := fullScript()
	model.fail = map[string]error{"交易员（Trader）": fmt.Errorf("配额耗尽")}

	s := state.New("run-5", "BTC/USDT")
	c := newTestCouncil(model, &fakeSource{candles: testCandles(100, 60000)}, degradedDataflow(t))

	require.NoError(t, c.Run(context.Background(), s))
	assert.Nil(t, s.TradingDecision)
	require.NotNil(t, s.FinalRiskDecision)
}

func TestDataflowDegradationRecorded(t *testing.T) {
	s := state.New("run-6", "BTC/USDT")
	c := newTestCouncil(fullScript(), &fakeSource{candles: testCandles(100, 60000)}, degradedDataflow(t))

	require.NoError(t, c.Run(context.Background(), s))

	assert.Nil(t, s.Fundamentals)
	// 三路外部数据失败都被记为降级而不是终止
	var degraded int
	for _, f := range s.Failures {
		if f.Stage == "gather" {
			degraded++
		}
	}
	assert.GreaterOrEqual(t, degraded, 2)
}

func TestSequentialAnalysts(t *testing.T) {
	s := state.New("run-7", "BTC/USDT")
	c := New(fullScript(), &fakeSource{candles: testCandles(100, 60000)}, degradedDataflow(t),
		config.MarketConfig{Timeframe: "1h", Limit: 100},
		config.PipelineConfig{StageTimeout: 10 * time.Second, ParallelAnalysts: false})

	require.NoError(t, c.Run(context.Background(), s))
	assert.NotNil(t, s.Reports.Technical)
	assert.NotNil(t, s.Reports.Social)
}
