package runlog

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quorum/internal/decision"
	"quorum/internal/state"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "runlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func price(v int64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromInt(v), Valid: true}
}

func TestSaveAndLoadRun(t *testing.T) {
	store := newTestStore(t)

	st := state.New("run-1", "BTC/USDT")
	st.TradingDecision = &decision.Structured{
		Symbol:     "BTC/USDT",
		Action:     decision.ActionBuy,
		EntryPrice: price(61000),
		StopLoss:   price(59000),
		TakeProfit: price(66000),
		Confidence: 0.8,
	}
	st.FinalRiskDecision = &decision.Risk{
		Symbol: "BTC/USDT", Action: decision.ActionBuy,
		RiskLevel: "high", PositionSize: 0.25,
	}
	st.RecordFailure("analysis", "新闻分析师", fmt.Errorf("接口超时"))

	require.NoError(t, store.SaveRun(context.Background(), st, "bullish"))

	runs, err := store.LatestRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].RunID)
	assert.Equal(t, "bullish", runs[0].Trend)
	assert.Equal(t, "buy", runs[0].Action)
	assert.Equal(t, "61000", runs[0].EntryPrice)
	assert.Equal(t, "high", runs[0].RiskLevel)
	assert.Equal(t, 0.25, runs[0].Position)

	failures, err := store.Failures(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "新闻分析师", failures[0].Persona)
	assert.False(t, failures[0].OK)
	assert.Equal(t, "接口超时", failures[0].Error)
}

func TestCallsKeepSuccessAndFailure(t *testing.T) {
	store := newTestStore(t)

	st := state.New("run-4", "BTC/USDT")
	st.RecordCall("analysis", "技术分析师", 1500*time.Millisecond, nil)
	st.RecordCall("trading", "交易员", 900*time.Millisecond, fmt.Errorf("配额耗尽"))
	require.NoError(t, store.SaveRun(context.Background(), st, "neutral"))

	calls, err := store.Calls(context.Background(), "run-4")
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.True(t, calls[0].OK)
	assert.Equal(t, int64(1500), calls[0].DurationMS)
	assert.False(t, calls[1].OK)
	assert.Equal(t, "配额耗尽", calls[1].Error)

	// Failures 只挑失败行
	failures, err := store.Failures(context.Background(), "run-4")
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "交易员", failures[0].Persona)
}

func TestSaveRunWithoutDecisionsUsesNA(t *testing.T) {
	store := newTestStore(t)

	st := state.New("run-2", "ETH/USDT")
	require.NoError(t, store.SaveRun(context.Background(), st, "neutral"))

	runs, err := store.LatestRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "hold", runs[0].Action)
	assert.Equal(t, "NA", runs[0].EntryPrice)
	assert.Equal(t, "NA", runs[0].StopLoss)
	assert.Equal(t, "NA", runs[0].TakeProfit)
	assert.Equal(t, 0.2, runs[0].Position)
}

func TestLatestRunsOrder(t *testing.T) {
	store := newTestStore(t)
	for i := 0; i < 3; i++ {
		st := state.New(fmt.Sprintf("run-%d", i), "BTC/USDT")
		require.NoError(t, store.SaveRun(context.Background(), st, "neutral"))
	}
	runs, err := store.LatestRuns(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
