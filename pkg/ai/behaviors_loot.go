package ai

import (
	"github.com/go-gl/mathgl/mgl32"

	"riftline/pkg/ai/bt"
)

// condHasTarget 选出最近的未拾取目标
func condHasTarget(bb *Blackboard) bool {
	if len(bb.Targets) == 0 {
		bb.Current = nil
		return false
	}
	best := -1
	var bestDist float32
	for i, t := range bb.Targets {
		d := horizontalDistance(bb.View.Position, t.Position)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	bb.Current = &bb.Targets[best]
	return true
}

// actMoveToTarget 没到目标附近时一直返回 Running
func actMoveToTarget(bb *Blackboard) bt.Status {
	t := bb.Current
	if t == nil {
		return bt.StatusFailure
	}
	pos := bb.View.Position
	if horizontalDistance(pos, t.Position) <= bb.Config.ArriveRadius {
		return bt.StatusSuccess
	}
	dir := mgl32.Vec2{t.Position.X() - pos.X(), t.Position.Z() - pos.Z()}
	bb.Next.Move = dir.Normalize()
	return bt.StatusRunning
}

// actInteract 到达后发起交互，目标从待拾取列表移除
func actInteract(bb *Blackboard) bt.Status {
	t := bb.Current
	if t == nil {
		return bt.StatusFailure
	}
	target := *t
	bb.Next.Interact = &target
	bb.Current = nil
	for i := range bb.Targets {
		if bb.Targets[i].SceneItemID == target.SceneItemID {
			bb.Targets = append(bb.Targets[:i], bb.Targets[i+1:]...)
			break
		}
	}
	return bt.StatusSuccess
}

func horizontalDistance(a, b mgl32.Vec3) float32 {
	return mgl32.Vec2{a.X() - b.X(), a.Z() - b.Z()}.Len()
}
