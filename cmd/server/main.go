package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"riftline/internal/logging"
	"riftline/internal/server"
)

func main() {
	cfg := server.DefaultConfig()

	// 命令行参数
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "服务器监听地址")
	flag.StringVar(&cfg.Proto, "proto", cfg.Proto, "传输协议: tcp | kcp | ws")
	flag.StringVar(&cfg.WSPath, "ws-path", cfg.WSPath, "ws 协议的路径")
	flag.IntVar(&cfg.TPS, "tps", cfg.TPS, "服务器 TPS")
	flag.IntVar(&cfg.MaxPlayers, "max-players", cfg.MaxPlayers, "单个房间最大玩家数")
	logFile := flag.String("log", "", "日志文件（为空只输出到终端）")
	debug := flag.Bool("debug", false, "输出调试日志")
	flag.Parse()

	if cfg.TPS > 0 {
		cfg.Movement.FixedDelta = 1 / float32(cfg.TPS)
	}

	log := logging.New(logging.Options{FilePath: *logFile, Debug: *debug})
	defer logging.Sync(log)

	if os.Getenv("JWT_SECRET") == "" {
		log.Warn("未设置 JWT_SECRET，使用开发用密钥")
	}

	log.Info("========================================")
	log.Info("  Riftline 联机服务器")
	log.Info("========================================")
	log.Infof("监听地址: %s (%s)", cfg.Addr, cfg.Proto)
	log.Infof("最大玩家数: %d", cfg.MaxPlayers)
	log.Infof("服务器 TPS: %d", cfg.TPS)
	log.Info("========================================")

	// 等待中断信号
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gameServer := server.NewGameServer(cfg, log)
	if err := gameServer.Start(ctx); err != nil {
		log.Errorf("服务器异常退出: %v", err)
		logging.Sync(log)
		os.Exit(1)
	}

	log.Info("服务器已关闭，再见！")
}
