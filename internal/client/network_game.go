package client

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"riftline/pkg/core"
	"riftline/pkg/interact"
	"riftline/pkg/protocol"
)

// InputSource 每个固定步提供一次输入
type InputSource interface {
	Sample(step int) (dir mgl32.Vec2, jump bool)
}

// InputFunc 函数形式的 InputSource
type InputFunc func(step int) (mgl32.Vec2, bool)

func (f InputFunc) Sample(step int) (mgl32.Vec2, bool) { return f(step) }

// NetworkGameClient 联机游戏客户端（无界面）
// 网络 goroutine 只往通道里放消息，这里每个固定步统一取出处理
type NetworkGameClient struct {
	network  *NetworkClient
	log      *zap.SugaredLogger
	entityID int32
	base     core.MovementConfig

	inputs     *InputSendQueue
	reconciler *Reconciler
	remotes    *Interpolator
	source     InputSource

	properties map[core.PropertyType]protocol.PropertyValue
	offers     []protocol.ShopOffer
	inventory  map[uint32]int32

	step      int
	clock     float32
	lastTick  int32
	commandID uint32
}

// NewNetworkGameClient 用加入响应初始化本地预测
func NewNetworkGameClient(network *NetworkClient, join protocol.JoinResponse, source InputSource, log *zap.SugaredLogger) *NetworkGameClient {
	base := MovementConfigFromJoin(join)
	inputs := NewInputSendQueue()

	g := &NetworkGameClient{
		network:    network,
		log:        log,
		entityID:   join.EntityID,
		base:       base,
		inputs:     inputs,
		reconciler: NewReconciler(base, core.NewSpawnState(join.Spawn), inputs),
		remotes:    NewInterpolator(base.SyncInterval),
		source:     source,
		properties: make(map[core.PropertyType]protocol.PropertyValue),
		inventory:  make(map[uint32]int32),
	}
	g.reconciler.OnCorrected = func(c Correction) {
		g.log.Debugf("玩家 %d: 纠错 误差 %.3f，重放 %d 条输入", g.entityID, c.Error, c.Replayed)
	}
	return g
}

// MovementConfigFromJoin 服务器下发的移动参数
func MovementConfigFromJoin(join protocol.JoinResponse) core.MovementConfig {
	cfg := core.DefaultMovementConfig()
	if join.MoveSpeed > 0 {
		cfg.MoveSpeed = join.MoveSpeed
	}
	if join.JumpSpeed > 0 {
		cfg.JumpSpeed = join.JumpSpeed
	}
	if join.Gravity != 0 {
		cfg.Gravity = join.Gravity
	}
	if join.SyncInterval > 0 {
		cfg.SyncInterval = join.SyncInterval
	}
	if join.TPS > 0 {
		cfg.FixedDelta = 1 / float32(join.TPS)
	}
	return cfg
}

// Run 按固定步长运行，直到 ctx 取消或连接断开
func (g *NetworkGameClient) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(float64(g.base.FixedDelta) * float64(time.Second)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-g.network.Err():
			return fmt.Errorf("连接断开: %w", err)
		case <-ticker.C:
			if err := g.Update(); err != nil {
				return err
			}
		}
	}
}

// Update 推进一个固定步
func (g *NetworkGameClient) Update() error {
	dt := g.base.FixedDelta

	// 1. 接收服务器状态
	g.drainStates()

	// 2. 属性 / 商店 / 离开事件
	g.handleNetworkEvents()

	// 3. 采样并预测本地输入，冗余发送未确认的输入
	var (
		dir  mgl32.Vec2
		jump bool
	)
	if g.source != nil {
		dir, jump = g.source.Sample(g.step)
	}
	in := g.inputs.Capture(dir, jump, g.clock)
	g.reconciler.Predict(in)
	if err := g.network.SendInputs(g.inputs.SendWindow()); err != nil {
		g.log.Debugf("发送输入失败: %v", err)
	}

	// 4. 平滑
	g.reconciler.Update(dt)
	g.remotes.Step(dt)

	g.step++
	g.clock += dt
	return nil
}

func (g *NetworkGameClient) drainStates() {
	for {
		ws, ok := g.network.ReceiveState()
		if !ok {
			return
		}
		g.applyWorldState(ws)
	}
}

// applyWorldState 本地实体走纠错，其他实体只做插值
func (g *NetworkGameClient) applyWorldState(ws protocol.WorldState) {
	if ws.Tick <= g.lastTick {
		return
	}
	g.lastTick = ws.Tick

	for _, s := range ws.States {
		state := protocol.ProtoToState(s)
		if s.EntityID == g.entityID {
			g.reconciler.Reconcile(state)
			continue
		}
		g.remotes.Push(s.EntityID, state)
	}
}

func (g *NetworkGameClient) handleNetworkEvents() {
	for _, sync := range g.network.ReceiveProperties() {
		if sync.EntityID == g.entityID {
			g.applyProperties(sync)
		}
	}

	for {
		shop, ok := g.network.ReceiveShop()
		if !ok {
			break
		}
		if shop.ConnectionID == g.entityID {
			g.offers = shop.Offers
		}
	}

	for {
		resp, ok := g.network.ReceiveBuy()
		if !ok {
			break
		}
		if !resp.Success {
			g.log.Infof("购买失败: %s", resp.ErrorMessage)
			continue
		}
		for _, item := range resp.Command.Items {
			g.inventory[item.ItemConfigID] += item.Count
		}
		if resp.Replaced != nil {
			g.log.Debugf("报价已售罄，替换为 %d", resp.Replaced.ShopID)
		}
	}

	for {
		id := g.network.ReceivePlayerLeave()
		if id < 0 {
			break
		}
		g.remotes.Remove(id)
		g.log.Infof("玩家 %d 离开", id)
	}
}

// applyProperties 移动相关属性变化后，预测参数同步更新
func (g *NetworkGameClient) applyProperties(sync protocol.PropertySync) {
	cfg := g.reconciler.Config()
	for _, p := range sync.Properties {
		t := core.PropertyType(p.Type)
		g.properties[t] = p
		switch t {
		case core.PropertyMoveSpeed:
			cfg = cfg.WithMoveSpeed(p.Current)
		case core.PropertyJumpSpeed:
			cfg.JumpSpeed = p.Current
		}
	}
	g.reconciler.SetConfig(cfg)
}

// Interact 请求与场景物体交互（拾取物品 / 打开宝箱）
func (g *NetworkGameClient) Interact(sceneItemID uint32, kind interact.InteractionType) error {
	g.commandID++
	req := interact.SceneInteractRequest{
		Header: interact.Header{
			CommandID:          g.commandID,
			RequestingEntityID: g.entityID,
			Tick:               g.lastTick,
			Category:           interact.CategoryPlayerToScene,
			Position:           core.CompressVector3(g.reconciler.Predicted().Position),
			TimestampUTC:       time.Now().UnixMilli(),
			Authority:          interact.AuthorityClient,
		},
		SceneItemID:     sceneItemID,
		InteractionType: kind,
	}
	return g.network.SendInteract(req)
}

// LastCommandID 最近一次发出的交互指令 id
func (g *NetworkGameClient) LastCommandID() uint32 {
	return g.commandID
}

// ContinueCommandsFrom 重连后接着旧客户端的指令 id 往下编号
func (g *NetworkGameClient) ContinueCommandsFrom(id uint32) {
	if id > g.commandID {
		g.commandID = id
	}
}

// Buy 购买自己商店里的报价
func (g *NetworkGameClient) Buy(offerID int64, count int32) error {
	return g.network.Buy(offerID, count)
}

// Offers 最近一次商店同步
func (g *NetworkGameClient) Offers() []protocol.ShopOffer {
	return g.offers
}

// Property 最近一次同步的属性值
func (g *NetworkGameClient) Property(t core.PropertyType) (protocol.PropertyValue, bool) {
	p, ok := g.properties[t]
	return p, ok
}

// ItemCount 已购买到账的道具数量
func (g *NetworkGameClient) ItemCount(configID uint32) int32 {
	return g.inventory[configID]
}

// Position 本地实体显示位置
func (g *NetworkGameClient) Position() mgl32.Vec3 {
	return g.reconciler.RenderPosition()
}

// Reconciler 本地实体的预测器
func (g *NetworkGameClient) Reconciler() *Reconciler {
	return g.reconciler
}

// Remotes 远端实体插值器
func (g *NetworkGameClient) Remotes() *Interpolator {
	return g.remotes
}

// EntityID 本地实体
func (g *NetworkGameClient) EntityID() int32 {
	return g.entityID
}

// Close 关闭网络客户端
func (g *NetworkGameClient) Close() {
	if g.network != nil {
		g.network.Close()
	}
}
