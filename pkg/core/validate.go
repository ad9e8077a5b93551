package core

import "github.com/go-gl/mathgl/mgl32"

// Correction 服务器对可疑状态做出的修正（位标记）
type Correction uint8

const (
	CorrectionNone         Correction = 0
	CorrectionSpeedClamped Correction = 1 << iota
	CorrectionSnappedBack
)

// Has 是否包含某个修正
func (c Correction) Has(flag Correction) bool {
	return c&flag != 0
}

// Validate 反作弊校验：速度超限时按原方向压回，位移超限时拉回上一个校验位置
// 修正是静默的，客户端只会在下一次快照中看到结果
func Validate(cfg MovementConfig, s AuthoritativeState, lastValidated mgl32.Vec3) (AuthoritativeState, Correction) {
	c := CorrectionNone

	if speed := s.Velocity.Len(); speed > cfg.MaxAllowedSpeed() {
		s.Velocity = s.Velocity.Mul(cfg.ClampedSpeed() / speed)
		c |= CorrectionSpeedClamped
	}

	if s.Position.Sub(lastValidated).Len() > cfg.MaxDisplacement() {
		s.Position = lastValidated
		c |= CorrectionSnappedBack
	}

	return s, c
}
