package core

import "github.com/go-gl/mathgl/mgl32"

// AuthoritativeState 服务器权威状态，只有服务器修改，客户端拿到的是只读副本
type AuthoritativeState struct {
	Position             mgl32.Vec3
	Velocity             mgl32.Vec3
	LastProcessedInputID uint32
	Timestamp            float32
}

// Grounded 是否站在地面上
func (s AuthoritativeState) Grounded(cfg MovementConfig) bool {
	return s.Position.Y() <= cfg.GroundHeight+groundEpsilon
}

// Horizontal 返回水平速度分量
func (s AuthoritativeState) Horizontal() mgl32.Vec3 {
	return mgl32.Vec3{s.Velocity.X(), 0, s.Velocity.Z()}
}

// NewSpawnState 实体出生时的初始状态
func NewSpawnState(pos mgl32.Vec3) AuthoritativeState {
	return AuthoritativeState{Position: pos}
}
