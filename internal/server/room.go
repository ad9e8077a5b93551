package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"riftline/pkg/core"
	"riftline/pkg/interact"
	"riftline/pkg/protocol"
	"riftline/pkg/shop"
)

var (
	ErrRoomFull   = errors.New("房间已满")
	ErrRoomClosed = errors.New("房间已关闭")
	ErrNotInRoom  = errors.New("实体不在房间中")
)

// Room 一个权威模拟房间。所有模拟器、指令队列、商店状态只由 Run 所在的 goroutine 访问，
// 网络 goroutine 只往通道里投递事件，事件在下一个 tick 边界生效
type Room struct {
	id  string
	cfg Config
	log *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc

	tick         int32
	syncTimer    *core.SyncTimer
	sessions     map[int32]Session
	nextEntityID int32
	playerCount  atomic.Int32

	world *World
	scene *interact.SceneRegistry
	queue *interact.Queue
	shop  *shop.Service

	joinCh      chan joinRequest
	reconnectCh chan reconnectRequest
	inputCh     chan InputEvent
	interactCh  chan InteractEvent
	buyCh       chan buyRequest
	leaveCh     chan leaveRequest
}

type joinRequest struct {
	session Session
	req     JoinEvent
	respCh  chan error
}

type reconnectRequest struct {
	session  Session
	entityID int32
	respCh   chan error
}

// leaveRequest 带上断开的会话，避免旧连接的离开事件把重连后的新会话踢掉
type leaveRequest struct {
	entityID int32
	session  Session
}

type buyRequest struct {
	session Session
	ev      BuyEvent
}

// NewRoom 创建房间
func NewRoom(parent context.Context, id string, cfg Config, log *zap.SugaredLogger) *Room {
	ctx, cancel := context.WithCancel(parent)

	r := &Room{
		id:           id,
		cfg:          cfg,
		log:          log.With("room", id),
		ctx:          ctx,
		cancel:       cancel,
		sessions:     make(map[int32]Session),
		nextEntityID: 1,
		syncTimer:    core.NewSyncTimer(cfg.Movement.SyncInterval),
		scene:        interact.NewSceneRegistry(),
		joinCh:       make(chan joinRequest),
		reconnectCh:  make(chan reconnectRequest),
		inputCh:      make(chan InputEvent, 256),
		interactCh:   make(chan InteractEvent, 256),
		buyCh:        make(chan buyRequest, 64),
		leaveCh:      make(chan leaveRequest, 256),
	}

	r.world = NewWorld(cfg.Movement, r.log)
	r.world.OnSpawn = r.onSpawn
	r.world.OnDespawn = r.onDespawn

	r.queue = interact.NewQueue(r.log, cfg.DedupeTTL)
	r.queue.Register(interact.CategoryPlayerToScene,
		interact.NewSceneHandler(r.scene, r.world, r.world, interact.DefaultPickupRange))
	r.queue.Register(interact.CategoryPlayerToPlayer, interact.PassThrough(r.log))
	r.queue.Register(interact.CategorySceneToPlayer, interact.PassThrough(r.log))
	r.queue.Register(interact.CategoryCommand, interact.NewCommandHandler(r.world))

	r.shop = shop.NewService(shop.DefaultCatalog(), r.queue, cfg.ShopSeed, nil)

	seedScene(r.scene)
	return r
}

// seedScene 房间初始的可拾取物体
func seedScene(reg *interact.SceneRegistry) {
	for _, obj := range interact.DefaultSceneLayout() {
		reg.Add(obj)
	}
}

func (r *Room) ID() string {
	return r.id
}

// PlayerCount 在线人数，可以在任何 goroutine 读取
func (r *Room) PlayerCount() int {
	return int(r.playerCount.Load())
}

func (r *Room) Run(wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(r.cfg.TickDuration())
	defer ticker.Stop()

	r.log.Infof("房间循环启动: %d TPS", r.cfg.TPS)

	for {
		select {
		case <-r.ctx.Done():
			r.closeAllSessions()
			r.log.Info("房间循环停止")
			return

		case req := <-r.joinCh:
			req.respCh <- r.handleJoin(req.session, req.req)

		case req := <-r.reconnectCh:
			req.respCh <- r.handleReconnect(req.session, req.entityID)

		case ev := <-r.inputCh:
			r.handleInput(ev)

		case ev := <-r.interactCh:
			r.handleInteract(ev)

		case req := <-r.buyCh:
			r.handleBuy(req.session, req.ev)

		case req := <-r.leaveCh:
			r.handleLeave(req.entityID, req.session)

		case <-ticker.C:
			r.step()
		}
	}
}

func (r *Room) Shutdown() {
	r.cancel()
}

func (r *Room) Join(session Session, req JoinEvent) error {
	respCh := make(chan error, 1)
	return r.call(func() bool {
		select {
		case <-r.ctx.Done():
			return false
		case r.joinCh <- joinRequest{session: session, req: req, respCh: respCh}:
			return true
		}
	}, respCh)
}

func (r *Room) Reconnect(session Session, entityID int32) error {
	respCh := make(chan error, 1)
	return r.call(func() bool {
		select {
		case <-r.ctx.Done():
			return false
		case r.reconnectCh <- reconnectRequest{session: session, entityID: entityID, respCh: respCh}:
			return true
		}
	}, respCh)
}

func (r *Room) call(send func() bool, respCh chan error) error {
	if !send() {
		return ErrRoomClosed
	}
	select {
	case <-r.ctx.Done():
		return ErrRoomClosed
	case err := <-respCh:
		return err
	}
}

func (r *Room) EnqueueInput(ev InputEvent) {
	select {
	case <-r.ctx.Done():
	case r.inputCh <- ev:
	}
}

func (r *Room) EnqueueInteract(ev InteractEvent) {
	select {
	case <-r.ctx.Done():
	case r.interactCh <- ev:
	}
}

func (r *Room) Buy(session Session, ev BuyEvent) {
	select {
	case <-r.ctx.Done():
	case r.buyCh <- buyRequest{session: session, ev: ev}:
	}
}

func (r *Room) Leave(entityID int32, session Session) {
	select {
	case <-r.ctx.Done():
	case r.leaveCh <- leaveRequest{entityID: entityID, session: session}:
	}
}

// step 一个权威 tick：增益过期 -> 模拟 -> 交互队列 -> 同步
func (r *Room) step() {
	r.tick++
	r.world.SetTick(r.tick)

	for _, id := range r.world.ExpiredDisconnected(r.cfg.ticksFor(r.cfg.ReconnectGrace)) {
		r.log.Infof("玩家 %d: 重连超时，移除实体", id)
		r.world.Despawn(id)
	}

	r.world.ExpireBuffs()

	dt := r.cfg.Movement.FixedDelta
	for _, e := range r.world.Entities() {
		res := e.Sim.Tick(dt)
		if res.Corrections != core.CorrectionNone {
			r.log.Debugf("玩家 %d: 状态被修正 (%d)", e.ID, res.Corrections)
		}
	}
	// 广播节拍按房间计，与实体何时加入无关
	publish := r.syncTimer.Advance(dt)

	if stats := r.queue.ProcessCommands(r.tick); stats != (interact.ProcessStats{}) {
		r.log.Debugf("tick %d 交互: %+v", r.tick, stats)
	}

	r.syncProperties()
	if publish {
		r.broadcastState()
	}
}

func (r *Room) handleJoin(session Session, req JoinEvent) error {
	if len(r.sessions) >= r.cfg.MaxPlayers {
		return fmt.Errorf("%w (%d/%d)", ErrRoomFull, len(r.sessions), r.cfg.MaxPlayers)
	}

	entityID := r.nextEntityID
	r.nextEntityID++

	token, err := GenerateSessionToken(entityID, r.id)
	if err != nil {
		return fmt.Errorf("生成会话令牌失败: %w", err)
	}

	session.SetPlayerID(entityID)
	session.SetRoomID(r.id)
	r.sessions[entityID] = session
	r.playerCount.Store(int32(len(r.sessions)))

	spawn := getSpawnPosition(entityID)
	e := r.world.Spawn(entityID, req.PlayerName, spawn)
	cfg := e.Sim.Config()

	resp := protocol.JoinResponse{
		Success:      true,
		EntityID:     entityID,
		TPS:          int32(r.cfg.TPS),
		SessionToken: token,
		RoomID:       r.id,
		Spawn:        spawn,
		MoveSpeed:    cfg.MoveSpeed,
		JumpSpeed:    cfg.JumpSpeed,
		Gravity:      cfg.Gravity,
		SyncInterval: cfg.SyncInterval,
	}
	if err := session.Send(protocol.Encode(resp)); err != nil {
		r.dropSession(entityID)
		r.world.Despawn(entityID)
		session.SetPlayerID(-1)
		session.SetRoomID("")
		return fmt.Errorf("发送加入响应失败: %w", err)
	}

	r.sendShop(entityID)
	r.log.Infof("玩家 %d (%s) 加入，出生点: %v", entityID, req.PlayerName, spawn)
	return nil
}

func (r *Room) handleReconnect(session Session, entityID int32) error {
	e, ok := r.world.Get(entityID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotInRoom, entityID)
	}
	if old, online := r.sessions[entityID]; online {
		// 旧连接还没被发现断开，直接顶掉
		old.CloseWithoutNotify()
	}

	session.SetPlayerID(entityID)
	session.SetRoomID(r.id)
	r.sessions[entityID] = session
	r.playerCount.Store(int32(len(r.sessions)))
	r.world.MarkReconnected(entityID)
	r.queue.Forget(entityID)

	state := protocol.StateToProto(entityID, e.Sim.State())
	resp := protocol.ReconnectResponse{Success: true, EntityID: entityID, RoomID: r.id, State: &state}
	if err := session.Send(protocol.Encode(resp)); err != nil {
		r.dropSession(entityID)
		r.world.MarkDisconnected(entityID)
		return fmt.Errorf("发送重连响应失败: %w", err)
	}

	r.sendShop(entityID)
	r.sendProperties(session, e)
	r.log.Infof("玩家 %d 重连成功", entityID)
	return nil
}

// handleInput 冗余发送的旧输入会被模拟器按 id 丢弃
func (r *Room) handleInput(ev InputEvent) {
	if _, online := r.sessions[ev.EntityID]; !online {
		return
	}
	e, ok := r.world.Get(ev.EntityID)
	if !ok {
		return
	}
	for _, in := range ev.Inputs {
		e.Sim.Enqueue(in)
	}
}

func (r *Room) handleInteract(ev InteractEvent) {
	if _, online := r.sessions[ev.EntityID]; !online {
		return
	}
	if ev.Request == nil {
		return
	}
	if h := ev.Request.RequestHeader(); h.RequestingEntityID != ev.EntityID {
		r.log.Debugf("玩家 %d: 交互请求冒用实体 %d，丢弃", ev.EntityID, h.RequestingEntityID)
		return
	}
	r.queue.Enqueue(ev.Request)
}

func (r *Room) handleBuy(session Session, ev BuyEvent) {
	if _, online := r.sessions[ev.EntityID]; !online {
		return
	}

	var pos core.CompressedVector3
	if p, ok := r.world.Position(ev.EntityID); ok {
		pos = core.CompressVector3(p)
	}

	res, err := r.shop.Buy(ev.EntityID, ev.ConnectionID, ev.OfferID, ev.Count, r.tick, pos)
	resp := protocol.BuyResponse{Success: err == nil}
	if err != nil {
		resp.ErrorMessage = err.Error()
		r.log.Debugf("玩家 %d: 购买 %d 失败: %v", ev.EntityID, ev.OfferID, err)
	} else {
		resp.Command = protocol.ItemsBuyToProto(res.Command)
		if res.Replaced != nil {
			replaced := protocol.OfferToProto(*res.Replaced)
			resp.Replaced = &replaced
		}
	}

	if err := session.Send(protocol.Encode(resp)); err != nil {
		r.log.Warnf("玩家 %d: 发送购买结果失败: %v", ev.EntityID, err)
	}
	if resp.Success {
		r.sendShop(ev.EntityID)
	}
}

// handleLeave 连接断开后保留实体一段时间用于重连
func (r *Room) handleLeave(entityID int32, session Session) {
	if cur, exists := r.sessions[entityID]; !exists || cur != session {
		return
	}
	r.dropSession(entityID)
	r.world.MarkDisconnected(entityID)
	r.log.Infof("玩家 %d 断开，当前玩家数: %d", entityID, len(r.sessions))
}

func (r *Room) dropSession(entityID int32) {
	delete(r.sessions, entityID)
	r.playerCount.Store(int32(len(r.sessions)))
}

func (r *Room) onSpawn(e *Entity) {
	if _, err := r.shop.Roll(e.ID, r.tick); err != nil {
		r.log.Errorf("玩家 %d: 生成商店失败: %v", e.ID, err)
	}
}

func (r *Room) onDespawn(e *Entity) {
	r.shop.Remove(e.ID)
	r.broadcast(protocol.Encode(protocol.PlayerLeave{EntityID: e.ID}))
}

func (r *Room) closeAllSessions() {
	for _, s := range r.sessions {
		s.CloseWithoutNotify()
	}
}

func (r *Room) broadcast(data []byte) {
	for id, s := range r.sessions {
		if err := s.Send(data); err != nil {
			r.log.Debugf("发送到玩家 %d 失败: %v", id, err)
		}
	}
}

func (r *Room) broadcastState() {
	entities := r.world.Entities()
	msg := protocol.WorldState{Tick: r.tick, States: make([]protocol.ServerState, 0, len(entities))}
	for _, e := range entities {
		msg.States = append(msg.States, protocol.StateToProto(e.ID, e.Sim.State()))
	}
	r.broadcast(protocol.Encode(msg))
}

func (r *Room) syncProperties() {
	for _, id := range r.world.DrainDirty() {
		e, ok := r.world.Get(id)
		if !ok {
			continue
		}
		r.broadcast(protocol.Encode(protocol.NewPropertySync(id, e.Props.Load())))
	}
}

func (r *Room) sendProperties(s Session, e *Entity) {
	_ = s.Send(protocol.Encode(protocol.NewPropertySync(e.ID, e.Props.Load())))
}

func (r *Room) sendShop(entityID int32) {
	s, ok := r.sessions[entityID]
	if !ok {
		return
	}
	msg := protocol.NewShopSync(entityID, r.shop.Offers(entityID))
	if err := s.Send(protocol.Encode(msg)); err != nil {
		r.log.Debugf("玩家 %d: 发送商店失败: %v", entityID, err)
	}
}

// getSpawnPosition 出生点围成一圈
func getSpawnPosition(entityID int32) mgl32.Vec3 {
	spawns := []mgl32.Vec3{
		{0, 0, 0},
		{5, 0, 5},
		{-5, 0, 5},
		{5, 0, -5},
		{-5, 0, -5},
	}
	return spawns[int(entityID-1)%len(spawns)]
}
