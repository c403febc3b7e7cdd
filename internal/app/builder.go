package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"quorum/internal/analysis/visual"
	"quorum/internal/config"
	"quorum/internal/council"
	"quorum/internal/dataflow"
	"quorum/internal/gateway/binance"
	"quorum/internal/gateway/provider"
	"quorum/internal/logger"
	"quorum/internal/market"
	"quorum/internal/state"
	"quorum/internal/store/runlog"
)

// Builder 汇集各组件的构造函数，字段可在测试里替换为假实现。
type Builder struct {
	cfg *config.Config

	modelFn  func(config.LLMConfig) provider.ModelProvider
	sourceFn func(config.MarketConfig) market.Source
	dataFn   func(config.ProvidersConfig) *dataflow.Client
	runsFn   func(string) (*runlog.Store, error)
}

type BuilderOption func(*Builder)

func NewBuilder(cfg *config.Config, opts ...BuilderOption) *Builder {
	b := &Builder{
		cfg:      cfg,
		modelFn:  buildModel,
		sourceFn: buildSource,
		dataFn:   dataflow.NewClient,
		runsFn:   runlog.New,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// WithModel 替换模型客户端，供测试注入假实现。
func WithModel(m provider.ModelProvider) BuilderOption {
	return func(b *Builder) {
		b.modelFn = func(config.LLMConfig) provider.ModelProvider { return m }
	}
}

// WithSource 替换行情来源。
func WithSource(s market.Source) BuilderOption {
	return func(b *Builder) {
		b.sourceFn = func(config.MarketConfig) market.Source { return s }
	}
}

func buildModel(cfg config.LLMConfig) provider.ModelProvider {
	return provider.NewOpenAIChatClient(cfg)
}

func buildSource(cfg config.MarketConfig) market.Source {
	return binance.New(cfg)
}

// Build 组装 App：日志输出、LLM 审计、各网关与运行日志库。
func (b *Builder) Build() (*App, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg

	if err := setupLogOutput(cfg.App); err != nil {
		return nil, err
	}
	if err := setupLLMAudit(cfg.App); err != nil {
		return nil, err
	}

	runs, err := b.runsFn(cfg.App.RunLog)
	if err != nil {
		return nil, fmt.Errorf("初始化运行日志库失败: %w", err)
	}

	c := council.New(
		b.modelFn(cfg.LLM),
		b.sourceFn(cfg.Market),
		b.dataFn(cfg.Providers),
		cfg.Market,
		cfg.Pipeline,
	)

	return &App{cfg: cfg, council: c, runs: runs}, nil
}

// setupLogOutput 按配置把日志同时打到 stdout 与文件。
func setupLogOutput(cfg config.AppConfig) error {
	if cfg.LogPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil {
		return fmt.Errorf("创建日志目录失败: %w", err)
	}
	f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("打开日志文件失败: %w", err)
	}
	logger.SetOutput(io.MultiWriter(os.Stdout, f))
	return nil
}

// setupLLMAudit 打开 LLM 调用审计文件。
func setupLLMAudit(cfg config.AppConfig) error {
	if !cfg.LLMDump {
		return nil
	}
	path := cfg.LLMLog
	if path == "" {
		path = filepath.Join(cfg.OutputDir, "llm_dump.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建审计目录失败: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("打开审计文件失败: %w", err)
	}
	logger.SetLLMWriter(f)
	return nil
}

func (a *App) writeChart(s *state.State) {
	input := visual.Input{
		Symbol:   s.Symbol,
		Interval: a.cfg.Market.Timeframe,
		Candles:  s.Candles,
	}
	if s.Snapshot != nil {
		input.Trend = s.Snapshot.Trend
		input.RSI = s.Snapshot.RSI
	}
	if path, err := visual.WriteFile(input, a.cfg.App.OutputDir); err != nil {
		logger.Warnf("图表生成失败: %v", err)
	} else {
		logger.Infof("图表已保存到: %s", path)
	}
}
