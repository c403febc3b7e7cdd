package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"quorum/internal/app"
	"quorum/internal/config"
	"quorum/internal/logger"
)

func main() {
	// .env 只做补充，不覆盖已有环境变量
	_ = godotenv.Load()

	cfgPath := os.Getenv("QUORUM_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}

	symbol := "BTC/USDT"
	if len(os.Args) > 1 {
		symbol = os.Args[1]
	}

	a, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("初始化应用失败: %v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := a.Run(ctx, symbol); err != nil {
		logger.Errorf("运行失败: %v", err)
		os.Exit(1)
	}
}
