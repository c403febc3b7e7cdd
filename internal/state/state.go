// Package state 定义一轮决策流水线的共享分析状态。
//
// 状态按阶段划分为互不重叠的槽位：每个阶段只写自己的槽位，读上游
// 阶段已经写完的槽位。编排器保证"写在读之前"的阶段顺序，同一阶段内
// 并发写的是不同字段，因此不需要锁。
package state

import (
	"time"

	"quorum/internal/analysis/indicator"
	"quorum/internal/dataflow"
	"quorum/internal/decision"
	"quorum/internal/market"
)

// Report 是单个分析师产出的叙述报告。
type Report struct {
	Persona   string    `json:"persona"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Opinion 是研究辩论或风险评估环节里单个角色的发言。
type Opinion struct {
	Persona   string    `json:"persona"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Reports 汇集四个分析维度的报告，缺失的维度为 nil。
type Reports struct {
	Technical   *Report `json:"technical,omitempty"`
	Fundamental *Report `json:"fundamental,omitempty"`
	News        *Report `json:"news,omitempty"`
	Social      *Report `json:"social,omitempty"`
}

// Consensus 记录多空辩论与研究经理的裁决。
type Consensus struct {
	Bull    *Opinion `json:"bull,omitempty"`
	Bear    *Opinion `json:"bear,omitempty"`
	Manager *Opinion `json:"manager,omitempty"`
}

// RiskViews 记录三种风险偏好的评估意见。
type RiskViews struct {
	Aggressive   *Opinion `json:"aggressive,omitempty"`
	Neutral      *Opinion `json:"neutral,omitempty"`
	Conservative *Opinion `json:"conservative,omitempty"`
}

// State 是一轮流水线自始至终传递的全部上下文。
type State struct {
	RunID     string    `json:"run_id"`
	Symbol    string    `json:"symbol"`
	StartedAt time.Time `json:"started_at"`

	// 阶段 0：行情与外部数据，后续所有提示词的原料
	Candles      []market.Candle     `json:"-"`
	Snapshot     *indicator.Snapshot `json:"snapshot,omitempty"`
	Fundamentals *dataflow.Fundamentals `json:"fundamentals,omitempty"`
	News         []dataflow.NewsItem    `json:"news,omitempty"`
	Social       *dataflow.SocialPulse  `json:"social,omitempty"`

	// 阶段 1：四路分析师并行写各自的槽位
	Reports Reports `json:"analysis_reports"`

	// 阶段 2：多空辩论与研究经理裁决
	Consensus Consensus `json:"research_consensus"`

	// 阶段 3：交易员的结构化决策
	TradingDecision *decision.Structured `json:"trading_decision,omitempty"`

	// 阶段 4：风险评估与最终风险决策
	RiskViews         RiskViews      `json:"risk_assessment"`
	FinalRiskDecision *decision.Risk `json:"final_risk_decision,omitempty"`

	// 各阶段失败被隔离后留下的记录，供最终报告呈现降级情况
	Failures []StageFailure `json:"failures,omitempty"`

	// 每次角色调用的审计明细（成功与失败都记），落库复盘用
	Calls []StageCall `json:"-"`
}

// StageFailure 记录一个被隔离的阶段失败。
type StageFailure struct {
	Stage   string    `json:"stage"`
	Persona string    `json:"persona,omitempty"`
	Reason  string    `json:"reason"`
	At      time.Time `json:"at"`
}

// StageCall 记录一次角色执行的审计信息。
type StageCall struct {
	Stage      string
	Persona    string
	DurationMS int64
	OK         bool
	Reason     string
	At         time.Time
}

// New 构造一轮流水线的初始状态。
func New(runID, symbol string) *State {
	return &State{
		RunID:     runID,
		Symbol:    symbol,
		StartedAt: time.Now(),
	}
}

// RecordCall 追加一次角色执行的审计记录；失败同时计入 Failures。
// 只由编排器在阶段间串行调用。
func (s *State) RecordCall(stage, persona string, d time.Duration, err error) {
	call := StageCall{
		Stage:      stage,
		Persona:    persona,
		DurationMS: d.Milliseconds(),
		OK:         err == nil,
		At:         time.Now(),
	}
	if err != nil {
		call.Reason = err.Error()
		s.Failures = append(s.Failures, StageFailure{
			Stage:   stage,
			Persona: persona,
			Reason:  err.Error(),
			At:      call.At,
		})
	}
	s.Calls = append(s.Calls, call)
}

// RecordFailure 记录一次没有对应模型调用的失败（如外部数据降级）。
func (s *State) RecordFailure(stage, persona string, err error) {
	s.RecordCall(stage, persona, 0, err)
}

// ReportSummaries 返回已有报告的 persona->内容映射，供下游提示词拼接。
func (s *State) ReportSummaries() map[string]string {
	out := make(map[string]string, 4)
	for name, r := range map[string]*Report{
		"技术面": s.Reports.Technical,
		"基本面": s.Reports.Fundamental,
		"新闻面": s.Reports.News,
		"社交面": s.Reports.Social,
	} {
		if r != nil {
			out[name] = r.Content
		}
	}
	return out
}
