package ai

import (
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
)

// Target 已知的场景物体
type Target struct {
	SceneItemID uint32
	Interaction uint8
	Position    mgl32.Vec3
}

// Offer 自己商店里的一条报价
type Offer struct {
	ShopID    int64
	Remaining int32
}

// View 每次思考时机器人能看到的东西
type View struct {
	Step     int
	Position mgl32.Vec3
	Offers   []Offer
}

// Intent 思考结果
type Intent struct {
	Move     mgl32.Vec2
	Jump     bool
	Interact *Target // 非空时发起交互
	BuyOffer int64   // 非 0 时购买该报价
}

type Blackboard struct {
	View   View
	RNG    *rand.Rand
	Config *BotConfig

	Targets []Target // 还没拿到的目标
	Current *Target  // 正在前往的目标，指向 Targets
	Bought  int

	Next Intent

	// 游荡方向
	WanderDirection mgl32.Vec2
	WanderSteps     int
}

func (bb *Blackboard) ResetStep(view View) {
	bb.View = view
	bb.Next = Intent{}
	// WanderDirection、WanderSteps 不重置，保持跨步连续性
}
