package core

// 模拟帧率
const (
	TPS            = 60
	FixedDeltaTime = 1.0 / TPS
)

// 移动配置（单位/秒）
const (
	DefaultMoveSpeed    = 8.0
	DefaultJumpSpeed    = 12.0
	DefaultGravity      = -30.0
	DefaultGroundHeight = 0.0
	DefaultSyncInterval = 0.1 // 快照广播间隔（秒）
)

// 校验（反作弊）配置
const (
	SpeedToleranceFactor    = 1.5 // 速度上限 = moveSpeed*1.5 + jumpSpeed
	DisplacementSyncPeriods = 2.0 // 位移上限 = moveSpeed * syncInterval * 2
	groundEpsilon           = 1e-4
)

// 快照容差比较
const (
	SnapshotPositionTolerance = 2.0
	SnapshotSpeedTolerance    = 0.05
	SnapshotAngleToleranceDeg = 10.0
)

// MovementConfig 移动模拟参数，客户端预测与服务器权威模拟必须使用同一份
type MovementConfig struct {
	MoveSpeed    float32
	JumpSpeed    float32
	Gravity      float32
	GroundHeight float32
	SyncInterval float32 // 秒
	FixedDelta   float32 // 秒
}

// DefaultMovementConfig 返回默认移动参数
func DefaultMovementConfig() MovementConfig {
	return MovementConfig{
		MoveSpeed:    DefaultMoveSpeed,
		JumpSpeed:    DefaultJumpSpeed,
		Gravity:      DefaultGravity,
		GroundHeight: DefaultGroundHeight,
		SyncInterval: DefaultSyncInterval,
		FixedDelta:   FixedDeltaTime,
	}
}

// WithMoveSpeed 返回替换了移动速度的副本（属性/增益驱动）
func (c MovementConfig) WithMoveSpeed(speed float32) MovementConfig {
	if speed < 0 {
		speed = 0
	}
	c.MoveSpeed = speed
	return c
}

// MaxAllowedSpeed 超过该速度视为异常
func (c MovementConfig) MaxAllowedSpeed() float32 {
	return c.MoveSpeed*SpeedToleranceFactor + c.JumpSpeed
}

// ClampedSpeed 异常速度被压回的大小
func (c MovementConfig) ClampedSpeed() float32 {
	return c.MoveSpeed + c.JumpSpeed
}

// MaxDisplacement 两次校验之间允许的最大位移
func (c MovementConfig) MaxDisplacement() float32 {
	return c.MoveSpeed * c.SyncInterval * DisplacementSyncPeriods
}
