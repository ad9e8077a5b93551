package client

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"riftline/pkg/core"
)

// Correction 一次回滚重放的结果，交给 OnCorrected 回调
type Correction struct {
	Authoritative core.AuthoritativeState // 服务器下发的状态
	Before        core.AuthoritativeState // 纠错前的预测
	After         core.AuthoritativeState // 重放后的预测
	Error         float32                 // 位置误差
	Replayed      int                     // 重放的输入数量
}

type predictedFrame struct {
	id       uint32
	position mgl32.Vec3
}

// Reconciler 本地控制实体的预测与纠错
// 预测和服务器模拟使用同一个 core.Step，所以在没有丢包和属性变化时两边结果一致
type Reconciler struct {
	cfg       core.MovementConfig
	inputs    *InputSendQueue
	state     core.AuthoritativeState
	history   []predictedFrame // 每条未确认输入执行后的预测位置
	offset    mgl32.Vec3       // 视觉偏移，逐帧衰减到 0
	threshold float32

	lastAck     uint32
	corrections int

	OnCorrected func(Correction)
}

// NewReconciler 从出生状态开始预测
func NewReconciler(cfg core.MovementConfig, spawn core.AuthoritativeState, inputs *InputSendQueue) *Reconciler {
	return &Reconciler{
		cfg:       cfg,
		inputs:    inputs,
		state:     spawn,
		history:   make([]predictedFrame, 0, InputBufferSize),
		threshold: ReconcileThreshold,
	}
}

// Predict 把刚采样的输入应用到本地预测
func (r *Reconciler) Predict(in core.InputCommand) core.AuthoritativeState {
	r.state = core.Step(r.cfg, r.state, in)
	r.record(in.ID, r.state.Position)
	return r.state
}

func (r *Reconciler) record(id uint32, pos mgl32.Vec3) {
	r.history = append(r.history, predictedFrame{id: id, position: pos})
	if len(r.history) > InputBufferSize {
		r.history = r.history[len(r.history)-InputBufferSize:]
	}
}

// predictedAt 执行完 id 之后的预测位置；找不到时用当前预测
func (r *Reconciler) predictedAt(id uint32) mgl32.Vec3 {
	for _, f := range r.history {
		if f.id == id {
			return f.position
		}
	}
	return r.state.Position
}

func (r *Reconciler) prune(ack uint32) {
	i := 0
	for i < len(r.history) && r.history[i].id <= ack {
		i++
	}
	r.history = r.history[i:]
}

// Reconcile 处理一条权威状态，返回是否发生了回滚
// 比较的是同一条输入之后的预测位置，误差在死区内只确认输入，不回滚
func (r *Reconciler) Reconcile(server core.AuthoritativeState) bool {
	ack := server.LastProcessedInputID
	if ack < r.lastAck {
		// 乱序到达的旧快照
		return false
	}
	r.lastAck = ack

	errLen := server.Position.Sub(r.predictedAt(ack)).Len()
	r.inputs.Acknowledge(ack)
	r.prune(ack)

	if errLen <= r.threshold {
		return false
	}

	before := r.state
	pending := r.inputs.Pending()

	// 回到权威状态，按 id 升序重放未确认的输入
	r.state = server
	r.history = r.history[:0]
	for _, in := range pending {
		r.state = core.Step(r.cfg, r.state, in)
		r.record(in.ID, r.state.Position)
	}

	// 画面上不直接跳变，把差值放进视觉偏移再慢慢衰减
	r.offset = r.offset.Add(before.Position.Sub(r.state.Position))
	r.corrections++

	if r.OnCorrected != nil {
		r.OnCorrected(Correction{
			Authoritative: server,
			Before:        before,
			After:         r.state,
			Error:         errLen,
			Replayed:      len(pending),
		})
	}
	return true
}

// Update 每帧调用，视觉偏移按 exp(-rate*dt) 衰减
func (r *Reconciler) Update(dt float32) {
	if dt <= 0 {
		return
	}
	decay := float32(math.Exp(-VisualOffsetDecayRate * float64(dt)))
	r.offset = r.offset.Mul(decay)
	if r.offset.Len() < VisualOffsetEpsilon {
		r.offset = mgl32.Vec3{}
	}
}

// Predicted 当前预测状态
func (r *Reconciler) Predicted() core.AuthoritativeState {
	return r.state
}

// RenderPosition 显示用的位置：预测位置加上尚未衰减完的偏移
func (r *Reconciler) RenderPosition() mgl32.Vec3 {
	return r.state.Position.Add(r.offset)
}

// VisualOffset 剩余视觉偏移
func (r *Reconciler) VisualOffset() mgl32.Vec3 {
	return r.offset
}

// Config 当前预测使用的移动参数
func (r *Reconciler) Config() core.MovementConfig {
	return r.cfg
}

// SetConfig 属性同步后更新移动参数，之后的预测和重放都用新参数
func (r *Reconciler) SetConfig(cfg core.MovementConfig) {
	r.cfg = cfg
}

// SetThreshold 调整死区
func (r *Reconciler) SetThreshold(threshold float32) {
	r.threshold = threshold
}

// Corrections 发生过的回滚次数
func (r *Reconciler) Corrections() int {
	return r.corrections
}

// Reset 重连后用服务器状态重新开始预测，未确认的输入全部作废
func (r *Reconciler) Reset(state core.AuthoritativeState) {
	r.state = state
	r.history = r.history[:0]
	r.offset = mgl32.Vec3{}
	r.lastAck = state.LastProcessedInputID
	r.inputs.Acknowledge(state.LastProcessedInputID)
}
