package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"riftline/internal/client"
	"riftline/internal/logging"
	"riftline/pkg/ai"
	"riftline/pkg/protocol"
)

func main() {
	cfg := client.DefaultConfig()
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "服务器地址")
	flag.StringVar(&cfg.Proto, "proto", cfg.Proto, "传输协议: tcp | kcp | ws")
	flag.StringVar(&cfg.WSPath, "ws-path", cfg.WSPath, "ws 协议的路径")
	flag.StringVar(&cfg.PlayerName, "name", cfg.PlayerName, "玩家名")
	flag.StringVar(&cfg.RoomID, "room", cfg.RoomID, "房间 ID（为空进入默认房间）")
	duration := flag.Duration("duration", 0, "运行时长（0 表示一直运行）")
	eager := flag.Bool("eager", false, "机器人反应更快、买得更多")
	seed := flag.Uint64("seed", 1, "机器人随机种子")
	debug := flag.Bool("debug", false, "输出调试日志")
	flag.Parse()

	botCfg := &ai.BotConfigNormal
	if *eager {
		botCfg = &ai.BotConfigEager
	}

	log := logging.New(logging.Options{Debug: *debug})
	defer logging.Sync(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	network := client.NewNetworkClient(cfg, log)
	join, err := network.Connect(ctx)
	if err != nil {
		log.Errorf("加入失败: %v", err)
		logging.Sync(log)
		os.Exit(1)
	}

	game := client.NewNetworkGameClient(network, join, nil, log)
	client.AttachBot(game, botCfg, *seed)

	err = game.Run(ctx)
	game.Close()
	if err == nil {
		return
	}

	// 断线后用会话令牌重连一次
	log.Warnf("%v，尝试重连", err)
	resumed := client.NewNetworkClient(cfg, log)
	resp, rerr := resumed.Resume(ctx, network.SessionToken())
	if rerr != nil {
		log.Errorf("重连失败: %v", rerr)
		return
	}
	join.EntityID = resp.EntityID
	if resp.State != nil {
		join.Spawn = resp.State.Position
	}
	lastCommand := game.LastCommandID()
	game = client.NewNetworkGameClient(resumed, join, nil, log)
	game.ContinueCommandsFrom(lastCommand)
	client.AttachBot(game, botCfg, *seed)
	if resp.State != nil {
		game.Reconciler().Reset(protocol.ProtoToState(*resp.State))
	}
	if err := game.Run(ctx); err != nil {
		log.Errorf("%v", err)
	}
	game.Close()
}
