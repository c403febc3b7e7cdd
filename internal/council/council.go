// Package council 编排多角色投资委员会的五阶段流水线。
//
// 阶段顺序：数据采集 → 分析师团队 → 研究员辩论 → 交易员决策 →
// 风险评估与裁决 → 研究经理共识。除"拿不到行情"外，任何单个角色的
// 失败都被隔离：记一条失败、留空槽位、流水线继续。
package council

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"quorum/internal/analysis/indicator"
	"quorum/internal/config"
	"quorum/internal/dataflow"
	"quorum/internal/decision"
	"quorum/internal/gateway/provider"
	"quorum/internal/logger"
	"quorum/internal/market"
	"quorum/internal/pkg/symbol"
	"quorum/internal/state"
)

// Council 持有一轮流水线所需的全部协作方。
type Council struct {
	model  provider.ModelProvider
	source market.Source
	data   *dataflow.Client

	marketCfg   config.MarketConfig
	pipelineCfg config.PipelineConfig
}

func New(model provider.ModelProvider, source market.Source, data *dataflow.Client,
	marketCfg config.MarketConfig, pipelineCfg config.PipelineConfig) *Council {
	return &Council{
		model:       model,
		source:      source,
		data:        data,
		marketCfg:   marketCfg,
		pipelineCfg: pipelineCfg,
	}
}

// stageSpec 描述一个角色：属于哪个阶段、提示词怎么构建、模型输出
// 写进哪个槽位。所有角色共用同一条执行路径，差异全部收敛在这张元数据里。
type stageSpec struct {
	phase   string
	persona string
	prompt  func(*state.State) string
	commit  func(*state.State, string)
}

func opinion(persona, raw string) *state.Opinion {
	return &state.Opinion{Persona: persona, Content: raw, CreatedAt: time.Now()}
}

func reportOf(persona, raw string) *state.Report {
	return &state.Report{Persona: persona, Content: raw, CreatedAt: time.Now()}
}

func analystSpecs() []stageSpec {
	return []stageSpec{
		{"analysis", "技术分析师", technicalPrompt,
			func(s *state.State, raw string) { s.Reports.Technical = reportOf("技术分析师", raw) }},
		{"analysis", "基本面分析师", fundamentalPrompt,
			func(s *state.State, raw string) { s.Reports.Fundamental = reportOf("基本面分析师", raw) }},
		{"analysis", "新闻分析师", newsPrompt,
			func(s *state.State, raw string) { s.Reports.News = reportOf("新闻分析师", raw) }},
		{"analysis", "社交情绪分析师", socialPrompt,
			func(s *state.State, raw string) { s.Reports.Social = reportOf("社交情绪分析师", raw) }},
	}
}

func researcherSpecs() []stageSpec {
	return []stageSpec{
		{"research", "看涨研究员", bullPrompt,
			func(s *state.State, raw string) { s.Consensus.Bull = opinion("看涨研究员", raw) }},
		{"research", "看跌研究员", bearPrompt,
			func(s *state.State, raw string) { s.Consensus.Bear = opinion("看跌研究员", raw) }},
	}
}

// traderSpec 的 commit 额外做归一化：归一化永不失败，
// 只有模型调用失败才算阶段失败。
func traderSpec() stageSpec {
	return stageSpec{"trading", "交易员", traderPrompt,
		func(s *state.State, raw string) {
			tctx := decision.TradingContext{Symbol: s.Symbol}
			if s.Snapshot != nil && s.Snapshot.CurrentPrice > 0 {
				tctx.CurrentPrice = decimal.NullDecimal{
					Decimal: decimal.NewFromFloat(s.Snapshot.CurrentPrice),
					Valid:   true,
				}
			}
			d := decision.ParseTrading(raw, tctx)
			s.TradingDecision = &d
			logger.Infof("交易决策: %s 置信度 %.2f", d.Action, d.Confidence)
		}}
}

func riskBenchSpecs() []stageSpec {
	return []stageSpec{
		{"risk", "激进风险分析师",
			func(s *state.State) string {
				return riskViewPrompt(s, "激进", "倡导高回报高风险的策略，强调承担风险换取高收益的合理性。")
			},
			func(s *state.State, raw string) { s.RiskViews.Aggressive = opinion("激进风险分析师", raw) }},
		{"risk", "中性风险分析师",
			func(s *state.State) string {
				return riskViewPrompt(s, "中性", "以平衡的视角权衡风险与收益，既不冒进也不过度保守。")
			},
			func(s *state.State, raw string) { s.RiskViews.Neutral = opinion("中性风险分析师", raw) }},
		{"risk", "保守风险分析师",
			func(s *state.State) string {
				return riskViewPrompt(s, "保守", "优先保护本金安全，强调回撤控制与极端行情下的生存能力。")
			},
			func(s *state.State, raw string) { s.RiskViews.Conservative = opinion("保守风险分析师", raw) }},
	}
}

func riskManagerSpec() stageSpec {
	return stageSpec{"risk", "风险经理", riskManagerPrompt,
		func(s *state.State, raw string) {
			r := decision.ParseRisk(raw, s.Symbol)
			s.FinalRiskDecision = &r
			logger.Infof("风险决策: %s 风险等级 %s 仓位 %.2f", r.Action, r.RiskLevel, r.PositionSize)
		}}
}

func researchManagerSpec() stageSpec {
	return stageSpec{"consensus", "研究经理", researchManagerPrompt,
		func(s *state.State, raw string) { s.Consensus.Manager = opinion("研究经理", raw) }}
}

// Run 在给定状态上执行完整流水线。行情数据拿不到或上游取消时终止；
// 其余阶段失败都只记录并继续。
func (c *Council) Run(ctx context.Context, s *state.State) error {
	if err := c.gather(ctx, s); err != nil {
		return fmt.Errorf("行情数据获取失败，终止本轮: %w", err)
	}

	logger.Infof("=== 阶段1：分析师团队分析 ===")
	if c.pipelineCfg.ParallelAnalysts {
		c.runParallel(ctx, s, analystSpecs())
	} else {
		for _, spec := range analystSpecs() {
			c.runStage(ctx, s, spec)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Infof("=== 阶段2：研究员辩论 ===")
	for _, spec := range researcherSpecs() {
		c.runStage(ctx, s, spec)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Infof("=== 阶段3：交易员决策 ===")
	c.runStage(ctx, s, traderSpec())

	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Infof("=== 阶段4：风险评估 ===")
	c.runParallel(ctx, s, riskBenchSpecs())
	c.runStage(ctx, s, riskManagerSpec())

	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Infof("=== 阶段5：研究共识 ===")
	c.runStage(ctx, s, researchManagerSpec())

	return nil
}

// gather 拉取行情并计算指标快照，同时尽力拉取外部数据。
// 外部数据失败降级为空槽位；行情失败是唯一的硬错误。
func (c *Council) gather(ctx context.Context, s *state.State) error {
	candles, err := c.source.FetchHistory(ctx, s.Symbol, c.marketCfg.Timeframe, c.marketCfg.Limit)
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		return fmt.Errorf("%s 无K线数据", s.Symbol)
	}
	s.Candles = candles
	snap := indicator.Compute(candles)
	s.Snapshot = &snap
	logger.Infof("行情就绪: %s 当前价 %.2f 趋势 %s", s.Symbol, snap.CurrentPrice, snap.Trend)

	base := symbol.Parse(s.Symbol).Base

	if f, err := c.data.FetchFundamentals(ctx, base); err != nil {
		logger.Warnf("基本面数据降级为空: %v", err)
		s.RecordFailure("gather", "基本面数据", err)
	} else {
		s.Fundamentals = f
	}
	if news, err := c.data.FetchNews(ctx, base); err != nil {
		logger.Warnf("新闻数据降级为空: %v", err)
		s.RecordFailure("gather", "新闻数据", err)
	} else {
		s.News = news
	}
	if pulse, err := c.data.FetchSocial(ctx, base); err != nil {
		logger.Warnf("社交数据降级为空: %v", err)
		s.RecordFailure("gather", "社交数据", err)
	} else {
		s.Social = pulse
	}
	return nil
}

// execute 跑一个角色：构建提示词、调模型、提交槽位写入。
func (c *Council) execute(ctx context.Context, s *state.State, spec stageSpec) error {
	raw, err := c.ask(ctx, spec.phase, spec.persona, spec.prompt(s))
	if err != nil {
		return err
	}
	spec.commit(s, raw)
	return nil
}

// runStage 串行执行单个角色并隔离其失败。失败只影响该角色自己的槽位。
func (c *Council) runStage(ctx context.Context, s *state.State, spec stageSpec) {
	stageCtx, cancel := context.WithTimeout(ctx, c.pipelineCfg.StageTimeout)
	defer cancel()

	start := time.Now()
	logger.Infof("执行 %s", spec.persona)
	err := c.execute(stageCtx, s, spec)
	s.RecordCall(spec.phase, spec.persona, time.Since(start), err)
	if err != nil {
		logger.Errorf("%s 失败: %v", spec.persona, err)
		return
	}
	logger.Infof("%s 完成，耗时 %s", spec.persona, time.Since(start).Round(time.Millisecond))
}

// runParallel 并发执行同一阶段内的一组角色。它们写的是互不重叠的
// 槽位，无需加锁；审计记录等全部 goroutine 返回后再串行追加。
func (c *Council) runParallel(ctx context.Context, s *state.State, specs []stageSpec) {
	stageCtx, cancel := context.WithTimeout(ctx, c.pipelineCfg.StageTimeout)
	defer cancel()

	errs := make([]error, len(specs))
	costs := make([]time.Duration, len(specs))
	var g errgroup.Group
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			start := time.Now()
			logger.Infof("执行 %s", spec.persona)
			if err := c.execute(stageCtx, s, spec); err != nil {
				logger.Errorf("%s 失败: %v", spec.persona, err)
				errs[i] = err
			}
			costs[i] = time.Since(start)
			return nil
		})
	}
	g.Wait()

	for i := range specs {
		s.RecordCall(specs[i].phase, specs[i].persona, costs[i], errs[i])
	}
}

// ask 发起一次模型调用并记录提示词/响应审计。
func (c *Council) ask(ctx context.Context, phase, persona, userPrompt string) (string, error) {
	logger.LogLLMRequest(phase, persona, systemPrompt, userPrompt)
	raw, err := c.model.Call(ctx, provider.ChatPayload{
		System: systemPrompt,
		User:   userPrompt,
	})
	if err != nil {
		return "", err
	}
	logger.LogLLMResponse(phase, persona, raw)
	if raw == "" {
		return "", fmt.Errorf("%s 返回空响应", persona)
	}
	return raw, nil
}
