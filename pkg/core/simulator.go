package core

import "github.com/go-gl/mathgl/mgl32"

// MaxPendingInputs 单个实体入站输入队列上限，超出的输入直接丢弃
const MaxPendingInputs = 128

// SimStatus 模拟器状态
type SimStatus uint8

const (
	SimIdle       SimStatus = iota // 尚未收到任何输入
	SimSimulating                  // 实体存活期间不会离开该状态
)

// TickResult 一个固定步的执行结果
type TickResult struct {
	State       AuthoritativeState
	Applied     int        // 本步应用的输入数
	Corrections Correction // 本步发生的修正
	Publish     bool       // 单实体的快照节拍；房间广播使用自己的 SyncTimer
}

// Simulator 服务器端单个实体的权威模拟
// 只由房间循环所在的 goroutine 使用，不加锁
type Simulator struct {
	cfg           MovementConfig
	state         AuthoritativeState
	lastValidated mgl32.Vec3
	status        SimStatus

	pending      []InputCommand
	highestQueue uint32
	sync         *SyncTimer
}

// NewSimulator 以出生状态创建模拟器
func NewSimulator(cfg MovementConfig, spawn AuthoritativeState) *Simulator {
	return &Simulator{
		cfg:           cfg,
		state:         spawn,
		lastValidated: spawn.Position,
		status:        SimIdle,
		pending:       make([]InputCommand, 0, 16),
		highestQueue:  spawn.LastProcessedInputID,
		sync:          NewSyncTimer(cfg.SyncInterval),
	}
}

// Enqueue 追加一条入站输入；已处理或已在队列中的 id 返回 false
func (s *Simulator) Enqueue(in InputCommand) bool {
	if in.ID == 0 || in.ID <= s.state.LastProcessedInputID || in.ID <= s.highestQueue {
		return false
	}
	if len(s.pending) >= MaxPendingInputs {
		return false
	}
	s.pending = append(s.pending, in)
	s.highestQueue = in.ID
	return true
}

// Tick 推进一个固定步：排空输入队列、校验、累计广播时间
func (s *Simulator) Tick(dt float32) TickResult {
	res := TickResult{}

	if len(s.pending) > 0 {
		inputs := s.pending
		s.pending = s.pending[:0]
		for _, in := range inputs {
			// 单调 id 检查保证同一输入最多应用一次
			if in.ID <= s.state.LastProcessedInputID {
				continue
			}
			s.state = Step(s.cfg, s.state, in)
			res.Applied++
		}
		if res.Applied > 0 {
			s.status = SimSimulating
		}
	}

	if res.Applied == 0 {
		s.state = Integrate(s.cfg, s.state, dt)
	}

	// 排空之后统一校验一次
	res.Corrections = s.validate()

	res.Publish = s.sync.Advance(dt)

	res.State = s.state
	return res
}

func (s *Simulator) validate() Correction {
	var c Correction
	s.state, c = Validate(s.cfg, s.state, s.lastValidated)
	s.lastValidated = s.state.Position
	return c
}

// State 当前权威状态
func (s *Simulator) State() AuthoritativeState {
	return s.state
}

// Status 当前模拟器状态
func (s *Simulator) Status() SimStatus {
	return s.status
}

// Config 当前移动参数
func (s *Simulator) Config() MovementConfig {
	return s.cfg
}

// SetConfig 替换移动参数（例如移速增益生效）
func (s *Simulator) SetConfig(cfg MovementConfig) {
	s.cfg = cfg
	s.sync.SetInterval(cfg.SyncInterval)
}

// Pending 队列中等待处理的输入数
func (s *Simulator) Pending() int {
	return len(s.pending)
}

// Restore 重连后用已有状态恢复，清空未处理输入
func (s *Simulator) Restore(state AuthoritativeState) {
	s.state = state
	s.lastValidated = state.Position
	s.pending = s.pending[:0]
	s.highestQueue = state.LastProcessedInputID
}
