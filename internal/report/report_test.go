package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"quorum/internal/decision"
	"quorum/internal/state"
)

func price(v int64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromInt(v), Valid: true}
}

func buyState() *state.State {
	s := state.New("run-1", "BTC/USDT")
	s.Reports.Technical = &state.Report{Persona: "技术分析师", Content: "多头趋势。"}
	s.Consensus.Manager = &state.Opinion{Persona: "研究经理", Content: "建议买入。"}
	s.TradingDecision = &decision.Structured{
		Symbol: "BTC/USDT", Action: decision.ActionBuy,
		EntryPrice: price(61000), StopLoss: price(59000), TakeProfit: price(66000),
		Confidence: 0.8, RiskScore: 0.4, Narrative: "看多。",
	}
	s.FinalRiskDecision = &decision.Risk{
		Symbol: "BTC/USDT", Action: decision.ActionHold,
		RiskLevel: "medium", PositionSize: 0.3, Narrative: "风险可控。",
	}
	return s
}

func TestBuildBuyRun(t *testing.T) {
	f := Build(buyState())

	assert.Equal(t, "bullish", f.Trend)
	assert.Equal(t, 0.8, f.ConfidenceScore)
	assert.Equal(t, 0.3, f.PositionSize)
	assert.Equal(t, "多头趋势。", f.AnalysisSummary.Technical)
	assert.Equal(t, "基于新闻分析", f.AnalysisSummary.News)
	assert.Equal(t, "建议买入。", f.ResearchConsensus)
}

func TestBuildEmptyStateDefaults(t *testing.T) {
	f := Build(state.New("run-2", "ETH/USDT"))

	assert.Equal(t, "neutral", f.Trend)
	assert.False(t, f.EntryPrice.Valid)
	assert.Equal(t, 0.5, f.ConfidenceScore)
	assert.Equal(t, "medium", f.RiskLevel)
	assert.Equal(t, 0.2, f.PositionSize)
}

func TestSaveWritesNAForMissingPrices(t *testing.T) {
	s := state.New("run-3", "BTC/USDT")
	s.TradingDecision = &decision.Structured{
		Symbol: "BTC/USDT", Action: decision.ActionHold,
		Confidence: 0.5, RiskScore: 0.5, Narrative: "观望。",
	}
	dir := t.TempDir()
	path, err := Save(Build(s), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "results.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "NA", gjson.GetBytes(data, "entry_price").String())
	assert.Equal(t, "NA", gjson.GetBytes(data, "stop_loss").String())
	assert.Equal(t, "NA", gjson.GetBytes(data, "take_profit").String())
	assert.Equal(t, "neutral", gjson.GetBytes(data, "trend").String())
}

func TestSaveWritesNumericPrices(t *testing.T) {
	path, err := Save(Build(buyState()), t.TempDir())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(61000), gjson.GetBytes(data, "entry_price").Int())
	assert.Equal(t, "bullish", gjson.GetBytes(data, "trend").String())
}

func TestPriceRoundTrip(t *testing.T) {
	var p Price
	require.NoError(t, json.Unmarshal([]byte(`"NA"`), &p))
	assert.False(t, p.Valid)

	require.NoError(t, json.Unmarshal([]byte(`61000`), &p))
	require.True(t, p.Valid)
	assert.Equal(t, "61000", p.Decimal.String())
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, Build(buyState()))

	out := buf.String()
	assert.Contains(t, out, "BTC/USDT")
	assert.Contains(t, out, "bullish")
	assert.Contains(t, out, "61000")
	assert.Contains(t, out, "30%")
}