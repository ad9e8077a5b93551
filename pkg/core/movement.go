package core

import "github.com/go-gl/mathgl/mgl32"

// Step 将一条输入应用到状态上并推进一个固定步，返回新状态
// 纯函数：相同 (cfg, state, input) 永远得到相同结果，客户端预测与重放都依赖这一点
func Step(cfg MovementConfig, s AuthoritativeState, in InputCommand) AuthoritativeState {
	in = in.Sanitized()

	v := s.Velocity
	v[0] = in.MoveDirection.X() * cfg.MoveSpeed
	v[2] = in.MoveDirection.Y() * cfg.MoveSpeed
	if in.JumpRequested && s.Grounded(cfg) {
		v[1] = cfg.JumpSpeed
	}
	s.Velocity = v

	s = Integrate(cfg, s, cfg.FixedDelta)
	s.LastProcessedInputID = in.ID
	return s
}

// Integrate 在没有新输入时推进状态：保持水平速度，重力持续积分
func Integrate(cfg MovementConfig, s AuthoritativeState, dt float32) AuthoritativeState {
	if dt <= 0 {
		return s
	}

	v := s.Velocity
	if s.Grounded(cfg) && v.Y() <= 0 {
		v[1] = 0
	} else {
		v[1] += cfg.Gravity * dt
	}

	p := s.Position.Add(v.Mul(dt))
	if p.Y() < cfg.GroundHeight {
		p[1] = cfg.GroundHeight
		if v.Y() < 0 {
			v[1] = 0
		}
	}

	s.Position = p
	s.Velocity = v
	s.Timestamp += dt
	return s
}

// Replay 从给定状态开始按顺序重放输入
func Replay(cfg MovementConfig, s AuthoritativeState, inputs []InputCommand) AuthoritativeState {
	for _, in := range inputs {
		s = Step(cfg, s, in)
	}
	return s
}

// lerpVec3 线性插值
func lerpVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// LerpVec3 线性插值，t 会被限制在 [0, 1]
func LerpVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return lerpVec3(a, b, mgl32.Clamp(t, 0, 1))
}
