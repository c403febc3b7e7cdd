package state

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReportSummaries(t *testing.T) {
	s := New("run-1", "BTC/USDT")
	s.Reports.Technical = &Report{Persona: "技术分析师", Content: "多头趋势"}
	s.Reports.News = &Report{Persona: "新闻分析师", Content: "利好偏多"}

	got := s.ReportSummaries()
	assert.Len(t, got, 2)
	assert.Equal(t, "多头趋势", got["技术面"])
	assert.Equal(t, "利好偏多", got["新闻面"])
	assert.NotContains(t, got, "基本面")
}

func TestRecordCall(t *testing.T) {
	s := New("run-3", "BTC/USDT")
	s.RecordCall("analysis", "技术分析师", 1200*time.Millisecond, nil)
	s.RecordCall("trading", "交易员", 800*time.Millisecond, fmt.Errorf("配额耗尽"))

	assert.Len(t, s.Calls, 2)
	assert.True(t, s.Calls[0].OK)
	assert.Equal(t, int64(1200), s.Calls[0].DurationMS)
	assert.False(t, s.Calls[1].OK)
	assert.Equal(t, "配额耗尽", s.Calls[1].Reason)

	// 成功调用不进失败列表
	assert.Len(t, s.Failures, 1)
	assert.Equal(t, "交易员", s.Failures[0].Persona)
}

func TestRecordFailure(t *testing.T) {
	s := New("run-2", "BTC/USDT")
	s.RecordFailure("analysis", "技术分析师", fmt.Errorf("超时"))
	s.RecordFailure("gather", "新闻数据", fmt.Errorf("限流"))

	assert.Len(t, s.Failures, 2)
	assert.Equal(t, "analysis", s.Failures[0].Stage)
	assert.Equal(t, "超时", s.Failures[0].Reason)
	assert.False(t, s.Failures[1].At.IsZero())
}
