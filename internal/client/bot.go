package client

import (
	"github.com/go-gl/mathgl/mgl32"

	"riftline/pkg/ai"
	"riftline/pkg/interact"
)

// Bot 用行为树驱动 NetworkGameClient 的输入、拾取和购买
type Bot struct {
	game *NetworkGameClient
	ctl  *ai.Controller
}

// KnownTargets 客户端已知的场景布局
func KnownTargets() []ai.Target {
	layout := interact.DefaultSceneLayout()
	targets := make([]ai.Target, 0, len(layout))
	for _, obj := range layout {
		targets = append(targets, ai.Target{
			SceneItemID: obj.ID,
			Interaction: uint8(obj.Interaction),
			Position:    obj.Position,
		})
	}
	return targets
}

// AttachBot 让机器人接管 game 的输入
func AttachBot(game *NetworkGameClient, cfg *ai.BotConfig, seed uint64) *Bot {
	b := &Bot{
		game: game,
		ctl:  ai.NewControllerWithConfig(game.EntityID(), KnownTargets(), cfg, seed),
	}
	game.source = b
	return b
}

// Sample 实现 InputSource，在游戏循环里调用
func (b *Bot) Sample(step int) (mgl32.Vec2, bool) {
	view := ai.View{
		Step:     step,
		Position: b.game.reconciler.Predicted().Position,
	}
	for _, o := range b.game.Offers() {
		view.Offers = append(view.Offers, ai.Offer{ShopID: o.ShopID, Remaining: o.RemainingCount})
	}

	intent := b.ctl.Decide(view)
	if t := intent.Interact; t != nil {
		if err := b.game.Interact(t.SceneItemID, interact.InteractionType(t.Interaction)); err != nil {
			b.game.log.Debugf("交互请求失败: %v", err)
		}
	}
	if intent.BuyOffer != 0 {
		if err := b.game.Buy(intent.BuyOffer, 1); err != nil {
			b.game.log.Debugf("购买请求失败: %v", err)
		}
	}
	return intent.Move, intent.Jump
}

// Controller 机器人的决策器
func (b *Bot) Controller() *ai.Controller {
	return b.ctl
}
