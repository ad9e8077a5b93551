package ai

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"riftline/pkg/ai/bt"
)

const (
	wanderDirectionSteps = 90  // 保持同一方向约 1.5 秒
	wanderJumpChance     = 0.1 // 换方向时顺便跳一下的概率
	wanderRadius         = 12  // 离原点太远就往回走
)

func actWander(bb *Blackboard) bt.Status {
	if bb.RNG == nil {
		return bt.StatusFailure
	}

	// 当前方向未超时，继续保持
	if bb.WanderSteps > 0 && bb.WanderDirection != (mgl32.Vec2{}) {
		bb.WanderSteps -= max(bb.Config.ThinkIntervalSteps, 1)
		bb.Next.Move = bb.WanderDirection
		return bt.StatusRunning
	}

	flat := mgl32.Vec2{bb.View.Position.X(), bb.View.Position.Z()}
	if flat.Len() > wanderRadius {
		// 走回原点附近
		bb.WanderDirection = flat.Mul(-1).Normalize()
	} else {
		angle := bb.RNG.Float64() * 2 * math.Pi
		bb.WanderDirection = mgl32.Vec2{float32(math.Cos(angle)), float32(math.Sin(angle))}
	}
	bb.WanderSteps = wanderDirectionSteps
	bb.Next.Move = bb.WanderDirection
	bb.Next.Jump = bb.RNG.Float64() < wanderJumpChance
	return bt.StatusRunning
}
