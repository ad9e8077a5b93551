package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CommandKind 实体当前执行的指令
type CommandKind uint8

const (
	CommandIdle CommandKind = iota
	CommandMove
	CommandJump
	CommandInteract
)

// EnvironmentState 实体所处的环境
type EnvironmentState uint8

const (
	EnvironmentGround EnvironmentState = iota
	EnvironmentAirborne
	EnvironmentWater
	EnvironmentHazard
)

// PlayerGameStateData 玩家状态快照，既作为权威真值也作为客户端预测镜像
type PlayerGameStateData struct {
	Position         mgl32.Vec3
	Velocity         mgl32.Vec3
	Rotation         mgl32.Quat
	CurrentCommand   CommandKind
	EnvironmentState EnvironmentState
}

// IsEqual 容差比较，不是逐位相等：
// 位置距离 < 2.0，速度大小差 < 0.05，朝向夹角 < 10°，离散字段完全一致
func (d PlayerGameStateData) IsEqual(other PlayerGameStateData) bool {
	if d.CurrentCommand != other.CurrentCommand || d.EnvironmentState != other.EnvironmentState {
		return false
	}
	if d.Position.Sub(other.Position).Len() >= SnapshotPositionTolerance {
		return false
	}
	if abs32(d.Velocity.Len()-other.Velocity.Len()) >= SnapshotSpeedTolerance {
		return false
	}
	return QuatAngleDeg(d.Rotation, other.Rotation) < SnapshotAngleToleranceDeg
}

// QuatAngleDeg 两个朝向之间的夹角（度）
func QuatAngleDeg(a, b mgl32.Quat) float32 {
	a, b = a.Normalize(), b.Normalize()
	dot := abs32(a.Dot(b))
	if dot > 1 {
		dot = 1
	}
	return mgl32.RadToDeg(float32(2 * math.Acos(float64(dot))))
}

// SnapshotFromState 根据权威状态生成快照，朝向取水平速度方向
func SnapshotFromState(s AuthoritativeState, cfg MovementConfig, fallback mgl32.Quat) PlayerGameStateData {
	snap := PlayerGameStateData{
		Position: s.Position,
		Velocity: s.Velocity,
		Rotation: fallback,
	}

	h := s.Horizontal()
	switch {
	case !s.Grounded(cfg):
		snap.CurrentCommand = CommandJump
		snap.EnvironmentState = EnvironmentAirborne
	case h.Len() > 0:
		snap.CurrentCommand = CommandMove
	default:
		snap.CurrentCommand = CommandIdle
	}

	if h.Len() > 1e-3 {
		yaw := float32(math.Atan2(float64(h.X()), float64(h.Z())))
		snap.Rotation = mgl32.QuatRotate(yaw, mgl32.Vec3{0, 1, 0})
	}
	return snap
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
