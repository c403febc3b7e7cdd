// Package app 负责应用级编排：加载配置→初始化依赖→执行一轮决策流水线。
package app

import (
	"context"
	"fmt"
	"os"

	"quorum/internal/config"
	"quorum/internal/council"
	"quorum/internal/logger"
	"quorum/internal/report"
	"quorum/internal/state"
	"quorum/internal/store/runlog"
)

// App 持有一次运行所需的全部组件。
type App struct {
	cfg     *config.Config
	council *council.Council
	runs    *runlog.Store
}

// NewApp 根据配置构建应用对象（不执行）。
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(cfg)
}

// Run 对单个交易对执行一轮完整的决策流水线，落盘结果并打印摘要。
func (a *App) Run(ctx context.Context, symbol string) (report.Final, error) {
	if a == nil || a.cfg == nil {
		return report.Final{}, fmt.Errorf("app not initialized")
	}

	s := state.New(report.NewRunID(), symbol)
	logger.Infof("开始分析 %s (run %s)", symbol, s.RunID)

	if err := a.council.Run(ctx, s); err != nil {
		return report.Final{}, err
	}

	final := report.Build(s)

	if path, err := report.Save(final, a.cfg.App.OutputDir); err != nil {
		logger.Errorf("保存结果失败: %v", err)
	} else {
		logger.Infof("结果已保存到: %s", path)
	}

	if a.cfg.App.Chart && s.Snapshot != nil {
		a.writeChart(s)
	}

	if a.runs != nil {
		if err := a.runs.SaveRun(ctx, s, final.Trend); err != nil {
			logger.Errorf("写入运行日志失败: %v", err)
		}
	}

	report.PrintSummary(os.Stdout, final)
	logger.Infof("分析完成: %s", symbol)
	return final, nil
}

// Close 释放持久化资源。
func (a *App) Close() error {
	if a == nil || a.runs == nil {
		return nil
	}
	return a.runs.Close()
}
