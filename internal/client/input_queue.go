package client

import (
	"github.com/go-gl/mathgl/mgl32"

	"riftline/pkg/core"
)

// InputSendQueue 本地输入缓冲：分配单调递增的 id，保存未确认的输入用于重放和冗余发送
type InputSendQueue struct {
	nextID  uint32
	pending []core.InputCommand // id 升序
	acked   uint32
}

// NewInputSendQueue 创建输入队列，第一条输入 id 为 1
func NewInputSendQueue() *InputSendQueue {
	return &InputSendQueue{
		nextID:  1,
		pending: make([]core.InputCommand, 0, InputBufferSize),
	}
}

// Capture 采样一次输入并放入缓冲
// 缓冲满时丢弃最旧的输入，重放会从权威状态之后能找到的最早输入开始
func (q *InputSendQueue) Capture(dir mgl32.Vec2, jump bool, timestamp float32) core.InputCommand {
	in := core.InputCommand{
		ID:            q.nextID,
		MoveDirection: dir,
		JumpRequested: jump,
		Timestamp:     timestamp,
	}.Sanitized()
	q.nextID++

	q.pending = append(q.pending, in)
	if len(q.pending) > InputBufferSize {
		q.pending = q.pending[len(q.pending)-InputBufferSize:]
	}
	return in
}

// Acknowledge 服务器确认 lastID 及之前的输入，全部移出缓冲
func (q *InputSendQueue) Acknowledge(lastID uint32) {
	if lastID <= q.acked {
		return
	}
	q.acked = lastID
	i := 0
	for i < len(q.pending) && q.pending[i].ID <= lastID {
		i++
	}
	q.pending = q.pending[i:]
}

// Pending 未确认的输入（id 升序），调用方不得修改
func (q *InputSendQueue) Pending() []core.InputCommand {
	return q.pending
}

// SendWindow 最近 InputSendWindow 条未确认输入，每个输入包都带上它们以容忍丢包
func (q *InputSendQueue) SendWindow() []core.InputCommand {
	start := 0
	if len(q.pending) > InputSendWindow {
		start = len(q.pending) - InputSendWindow
	}
	out := make([]core.InputCommand, len(q.pending)-start)
	copy(out, q.pending[start:])
	return out
}

// LastAcked 最近确认的输入 id
func (q *InputSendQueue) LastAcked() uint32 {
	return q.acked
}

// Len 未确认数量
func (q *InputSendQueue) Len() int {
	return len(q.pending)
}
