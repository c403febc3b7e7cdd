// Package report 把一轮流水线的状态汇总为最终决策记录，写入输出目录
// 并打印控制台摘要。
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"quorum/internal/decision"
	"quorum/internal/state"
)

// NewRunID 生成一轮流水线的唯一标识。
func NewRunID() string {
	return uuid.NewString()
}

// Price 序列化为数字，不可用时序列化为 "NA"。
type Price struct {
	decimal.NullDecimal
}

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return json.Marshal("NA")
	}
	return []byte(p.Decimal.String()), nil
}

func (p *Price) UnmarshalJSON(data []byte) error {
	if string(data) == `"NA"` || string(data) == "null" {
		p.Valid = false
		return nil
	}
	if err := p.Decimal.UnmarshalJSON(data); err != nil {
		return err
	}
	p.Valid = true
	return nil
}

// Summary 收拢四个分析维度的叙述。
type Summary struct {
	Fundamental string `json:"fundamental"`
	Technical   string `json:"technical"`
	News        string `json:"news"`
	Social      string `json:"social"`
}

// Final 是一轮流水线的最终决策记录，也是 results.json 的结构。
type Final struct {
	RunID             string               `json:"run_id"`
	Symbol            string               `json:"symbol"`
	Trend             string               `json:"trend"`
	EntryPrice        Price                `json:"entry_price"`
	StopLoss          Price                `json:"stop_loss"`
	TakeProfit        Price                `json:"take_profit"`
	ConfidenceScore   float64              `json:"confidence_score"`
	RiskLevel         string               `json:"risk_level"`
	PositionSize      float64              `json:"position_size"`
	AnalysisSummary   Summary              `json:"analysis_summary"`
	ResearchConsensus string               `json:"research_consensus"`
	TradingDecision   string               `json:"trading_decision"`
	RiskDecision      string               `json:"risk_decision"`
	Failures          []state.StageFailure `json:"failures,omitempty"`
	Timestamp         string               `json:"timestamp"`
}

// Build 从流水线状态汇总最终记录。缺席的环节按既定默认值补齐：
// 决策观望、置信度 0.5、风险等级 medium、仓位 0.2。
func Build(s *state.State) Final {
	f := Final{
		RunID:           s.RunID,
		Symbol:          s.Symbol,
		ConfidenceScore: 0.5,
		RiskLevel:       "medium",
		PositionSize:    0.2,
		AnalysisSummary: Summary{
			Fundamental: reportText(s.Reports.Fundamental, "基于基本面分析"),
			Technical:   reportText(s.Reports.Technical, "基于技术分析"),
			News:        reportText(s.Reports.News, "基于新闻分析"),
			Social:      reportText(s.Reports.Social, "基于社交分析"),
		},
		ResearchConsensus: opinionText(s.Consensus.Manager, "无研究共识"),
		Failures:          s.Failures,
		Timestamp:         time.Now().Format(time.RFC3339),
	}

	tradingAction := decision.ActionHold
	if d := s.TradingDecision; d != nil {
		tradingAction = d.Action
		f.EntryPrice = Price{d.EntryPrice}
		f.StopLoss = Price{d.StopLoss}
		f.TakeProfit = Price{d.TakeProfit}
		f.ConfidenceScore = d.Confidence
		f.TradingDecision = d.Narrative
	}
	riskAction := decision.ActionHold
	if r := s.FinalRiskDecision; r != nil {
		riskAction = r.Action
		f.RiskLevel = r.RiskLevel
		f.PositionSize = r.PositionSize
		f.RiskDecision = r.Narrative
	}
	f.Trend = decision.OverallTrend(tradingAction, riskAction)
	return f
}

// Save 把最终记录写到 outputDir/results.json。
func Save(f Final, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}
	path := filepath.Join(outputDir, "results.json")
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化结果失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("写入结果失败: %w", err)
	}
	return path, nil
}

// PrintSummary 把结论按人读格式打到 w。
func PrintSummary(w io.Writer, f Final) {
	fmt.Fprintf(w, "==== 决策摘要 %s ====\n", f.Symbol)
	fmt.Fprintf(w, "Run: %s\n", f.RunID)
	fmt.Fprintf(w, "趋势: %s\n", f.Trend)
	fmt.Fprintf(w, "入场: %s  止损: %s  止盈: %s\n",
		priceLabel(f.EntryPrice), priceLabel(f.StopLoss), priceLabel(f.TakeProfit))
	fmt.Fprintf(w, "置信度: %.2f  风险等级: %s  仓位: %.0f%%\n",
		f.ConfidenceScore, f.RiskLevel, f.PositionSize*100)
	if len(f.Failures) > 0 {
		fmt.Fprintf(w, "降级环节: %d 个\n", len(f.Failures))
	}
}

func priceLabel(p Price) string {
	if !p.Valid {
		return "NA"
	}
	return p.Decimal.String()
}

func reportText(r *state.Report, fallback string) string {
	if r == nil || r.Content == "" {
		return fallback
	}
	return r.Content
}

func opinionText(o *state.Opinion, fallback string) string {
	if o == nil || o.Content == "" {
		return fallback
	}
	return o.Content
}
