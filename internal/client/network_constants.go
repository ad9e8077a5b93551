package client

import "time"

// ===== 预测与纠错配置（客户端专用）=====
const (
	// 纠错死区（单位）：预测与权威位置误差不超过该值时不回滚
	ReconcileThreshold = 0.05

	// 视觉偏移衰减速率（每秒）：offset *= exp(-rate*dt)
	VisualOffsetDecayRate = 12.0

	// 视觉偏移小于该值时直接清零
	VisualOffsetEpsilon = 1e-3

	// 输入缓冲区大小：存储未确认的输入用于重放
	InputBufferSize = 128

	// 每个输入包冗余携带的最近未确认输入数量（不可靠通道丢包容忍）
	InputSendWindow = 8
)

// ===== 连接 =====
const (
	MaxPacketSize = 4096

	dialTimeout     = 5 * time.Second
	joinTimeout     = 10 * time.Second
	pingInterval    = 2 * time.Second
	eventBufferSize = 64
	stateBufferSize = 256
)
