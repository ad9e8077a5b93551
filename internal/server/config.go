package server

import (
	"time"

	"riftline/pkg/core"
	"riftline/pkg/interact"
)

const (
	MaxPlayers     = 16 // 单个房间最大玩家数
	DefaultWSPath  = "/ws"
	reconnectGrace = 10 * time.Second
)

// Config 服务器配置
type Config struct {
	Addr   string
	Proto  string // tcp / kcp / ws
	WSPath string

	TPS        int
	MaxPlayers int
	Movement   core.MovementConfig

	// 单连接入站限流
	MessageRate  float64 // 每秒
	MessageBurst int

	DedupeTTL      int32 // tick
	ReconnectGrace time.Duration
	ShopSeed       uint64
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Addr:           ":9000",
		Proto:          "tcp",
		WSPath:         DefaultWSPath,
		TPS:            core.TPS,
		MaxPlayers:     MaxPlayers,
		Movement:       core.DefaultMovementConfig(),
		MessageRate:    120,
		MessageBurst:   240,
		DedupeTTL:      interact.DefaultDedupeTTL,
		ReconnectGrace: reconnectGrace,
		ShopSeed:       uint64(time.Now().UnixNano()),
	}
}

// TickDuration 每个权威 tick 的时长
func (c Config) TickDuration() time.Duration {
	if c.TPS <= 0 {
		return time.Second / core.TPS
	}
	return time.Second / time.Duration(c.TPS)
}

// ticksFor 把时长换算成 tick 数，至少为 1
func (c Config) ticksFor(d time.Duration) int32 {
	n := int32(d / c.TickDuration())
	if n < 1 {
		return 1
	}
	return n
}
