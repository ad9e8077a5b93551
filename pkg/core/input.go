package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// InputCommand 客户端每个固定步采样的一次输入，发送后不可修改
type InputCommand struct {
	ID            uint32     // 每个实体单调递增
	MoveDirection mgl32.Vec2 // x -> 世界 X，y -> 世界 Z
	JumpRequested bool
	Timestamp     float32 // 客户端本地时间（秒）
}

// Sanitized 返回方向被归一化的副本，NaN/Inf 视为无输入
// 斜向输入长度超过 1 时归一化，避免速度变快
func (in InputCommand) Sanitized() InputCommand {
	x, y := in.MoveDirection.X(), in.MoveDirection.Y()
	if !finite32(x) || !finite32(y) {
		in.MoveDirection = mgl32.Vec2{}
		return in
	}
	if l := in.MoveDirection.Len(); l > 1 {
		in.MoveDirection = in.MoveDirection.Mul(1 / l)
	}
	return in
}

func finite32(f float32) bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
