package ai

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"

	"riftline/pkg/ai/bt"
)

// Controller 无界面客户端的机器人：拾取已知场景物体，逛商店，其余时间游荡
type Controller struct {
	EntityID int32
	rnd      *rand.Rand
	config   *BotConfig

	thinkCounter int
	cached       Intent

	blackboard Blackboard
	tree       bt.Node[*Blackboard]
}

// NewController 使用默认配置（普通）
func NewController(entityID int32, targets []Target) *Controller {
	return NewControllerWithConfig(entityID, targets, &BotConfigNormal, uint64(entityID))
}

// NewControllerWithConfig 使用指定配置，seed 决定随机行为
func NewControllerWithConfig(entityID int32, targets []Target, config *BotConfig, seed uint64) *Controller {
	if config == nil {
		config = &BotConfigNormal
	}
	rnd := rand.New(rand.NewPCG(seed, uint64(entityID)))

	c := &Controller{
		EntityID: entityID,
		rnd:      rnd,
		config:   config,
	}
	c.blackboard = Blackboard{
		RNG:     rnd,
		Config:  config,
		Targets: append([]Target(nil), targets...),
	}

	c.tree = &bt.Sequence[*Blackboard]{Children: []bt.Node[*Blackboard]{
		// 购买不影响移动，失败也继续
		&bt.Selector[*Blackboard]{Children: []bt.Node[*Blackboard]{
			&bt.Sequence[*Blackboard]{Children: []bt.Node[*Blackboard]{
				&bt.Condition[*Blackboard]{Check: condCanBuy},
				&bt.Action[*Blackboard]{Do: actBuy},
			}},
			&bt.Action[*Blackboard]{Do: actSkip},
		}},
		&bt.Selector[*Blackboard]{Children: []bt.Node[*Blackboard]{
			&bt.Sequence[*Blackboard]{Children: []bt.Node[*Blackboard]{
				&bt.Condition[*Blackboard]{Check: condHasTarget},
				&bt.Action[*Blackboard]{Do: actMoveToTarget},
				&bt.Action[*Blackboard]{Do: actInteract},
			}},
			&bt.Action[*Blackboard]{Do: actWander},
		}},
	}}
	return c
}

// Decide 每个固定步调用一次
// 两次思考之间沿用上次的移动，交互和购买只在思考的那一步发出
func (c *Controller) Decide(view View) Intent {
	force := false
	if t := c.blackboard.Current; t != nil && horizontalDistance(view.Position, t.Position) <= c.config.ArriveRadius {
		force = true
	}

	c.thinkCounter++
	if !force && c.thinkCounter < c.config.ThinkIntervalSteps {
		return Intent{Move: c.cached.Move}
	}
	c.thinkCounter = 0

	c.blackboard.ResetStep(view)
	_ = c.tree.Tick(&c.blackboard)

	// 应用随机失误：换成随机方向
	if c.config.MistakeRate > 0 && c.rnd.Float64() < c.config.MistakeRate {
		angle := c.rnd.Float64() * 2 * math.Pi
		c.blackboard.Next.Move = mgl32.Vec2{float32(math.Cos(angle)), float32(math.Sin(angle))}
	}

	c.cached = c.blackboard.Next
	return c.cached
}

// Remaining 还没拾取的目标数
func (c *Controller) Remaining() int {
	return len(c.blackboard.Targets)
}

// Bought 已发出的购买次数
func (c *Controller) Bought() int {
	return c.blackboard.Bought
}

// Config 获取当前配置
func (c *Controller) Config() *BotConfig {
	return c.config
}
