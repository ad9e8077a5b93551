package ai

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"riftline/pkg/core"
)

func testTargets() []Target {
	return []Target{
		{SceneItemID: 1, Interaction: 1, Position: mgl32.Vec3{3, 0, 0}},
		{SceneItemID: 2, Interaction: 1, Position: mgl32.Vec3{-3, 0, 0}},
		{SceneItemID: 3, Interaction: 2, Position: mgl32.Vec3{0, 0, 8}},
	}
}

// drive 用真实的移动模拟跑机器人
func drive(c *Controller, steps int, offers []Offer) (interacted []uint32, bought []int64, final core.AuthoritativeState) {
	cfg := core.DefaultMovementConfig()
	state := core.NewSpawnState(mgl32.Vec3{})
	for step := 0; step < steps; step++ {
		intent := c.Decide(View{Step: step, Position: state.Position, Offers: offers})
		if intent.Interact != nil {
			interacted = append(interacted, intent.Interact.SceneItemID)
		}
		if intent.BuyOffer != 0 {
			bought = append(bought, intent.BuyOffer)
		}
		state = core.Step(cfg, state, core.InputCommand{ID: uint32(step + 1), MoveDirection: intent.Move, JumpRequested: intent.Jump})
	}
	return interacted, bought, state
}

func TestController_CollectsAllTargets(t *testing.T) {
	cfg := BotConfigEager
	c := NewControllerWithConfig(1, testTargets(), &cfg, 42)

	interacted, _, _ := drive(c, 900, nil)
	if len(interacted) != 3 {
		t.Fatalf("interacted with %v, want all three targets", interacted)
	}
	seen := make(map[uint32]bool)
	for _, id := range interacted {
		if seen[id] {
			t.Fatalf("target %d interacted twice", id)
		}
		seen[id] = true
	}
	if c.Remaining() != 0 {
		t.Fatalf("remaining = %d", c.Remaining())
	}
}

func TestController_InteractsOnlyWhenClose(t *testing.T) {
	cfg := BotConfigEager
	targets := testTargets()
	c := NewControllerWithConfig(1, targets, &cfg, 7)

	simCfg := core.DefaultMovementConfig()
	state := core.NewSpawnState(mgl32.Vec3{})
	for step := 0; step < 900 && c.Remaining() > 0; step++ {
		intent := c.Decide(View{Step: step, Position: state.Position})
		if intent.Interact != nil {
			d := horizontalDistance(state.Position, intent.Interact.Position)
			if d > cfg.ArriveRadius {
				t.Fatalf("interacted with %d from %.2f away", intent.Interact.SceneItemID, d)
			}
		}
		state = core.Step(simCfg, state, core.InputCommand{ID: uint32(step + 1), MoveDirection: intent.Move})
	}
}

func TestController_BuyLimit(t *testing.T) {
	cfg := BotConfigEager
	cfg.BuyLimit = 1
	c := NewControllerWithConfig(1, nil, &cfg, 3)

	offers := []Offer{{ShopID: 11, Remaining: 0}, {ShopID: 12, Remaining: 2}}
	_, bought, _ := drive(c, 300, offers)
	if len(bought) != 1 || bought[0] != 12 {
		t.Fatalf("bought = %v, want [12]", bought)
	}
	if c.Bought() != 1 {
		t.Fatalf("Bought() = %d", c.Bought())
	}

	none := NewControllerWithConfig(2, nil, &cfg, 3)
	if _, bought, _ := drive(none, 300, []Offer{{ShopID: 11}}); len(bought) != 0 {
		t.Fatalf("bought sold out offer: %v", bought)
	}
}

func TestController_WandersNearOrigin(t *testing.T) {
	cfg := BotConfig{ThinkIntervalSteps: 30, ArriveRadius: 1, BuyLimit: 0}
	c := NewControllerWithConfig(5, nil, &cfg, 99)

	interacted, _, final := drive(c, 3000, nil)
	if len(interacted) != 0 {
		t.Fatalf("interacted without targets: %v", interacted)
	}
	flat := mgl32.Vec2{final.Position.X(), final.Position.Z()}
	// 游荡半径加上方向保持期内能走的距离
	if flat.Len() > wanderRadius+2*core.DefaultMoveSpeed*wanderDirectionSteps/core.TPS {
		t.Fatalf("wandered too far: %v", final.Position)
	}
}

func TestController_Deterministic(t *testing.T) {
	a := NewControllerWithConfig(1, testTargets(), &BotConfigNormal, 11)
	b := NewControllerWithConfig(1, testTargets(), &BotConfigNormal, 11)
	ia, _, sa := drive(a, 600, nil)
	ib, _, sb := drive(b, 600, nil)
	if sa != sb || len(ia) != len(ib) {
		t.Fatalf("same seed diverged: %+v vs %+v", sa, sb)
	}
}
