package server

import (
	"context"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"riftline/internal/server/mocks"
	"riftline/pkg/core"
	"riftline/pkg/interact"
	"riftline/pkg/protocol"
)

func testRoom(t *testing.T) *Room {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ShopSeed = 1
	cfg.ReconnectGrace = 50 * time.Millisecond
	r := NewRoom(context.Background(), "test-room", cfg, zap.NewNop().Sugar())
	t.Cleanup(r.Shutdown)
	return r
}

// outbox 记录发给会话的所有包
type outbox struct {
	packets []protocol.Packet
}

func (o *outbox) last(t *testing.T, typ protocol.MessageType, m protocol.Payload) bool {
	t.Helper()
	for i := len(o.packets) - 1; i >= 0; i-- {
		if o.packets[i].Type == typ {
			if err := protocol.ParsePayload(o.packets[i], m); err != nil {
				t.Fatalf("parse %s: %v", typ, err)
			}
			return true
		}
	}
	return false
}

func (o *outbox) count(typ protocol.MessageType) int {
	n := 0
	for _, p := range o.packets {
		if p.Type == typ {
			n++
		}
	}
	return n
}

func newSession(t *testing.T, ctrl *gomock.Controller) (*mocks.MockSession, *outbox) {
	t.Helper()
	out := &outbox{}
	s := mocks.NewMockSession(ctrl)
	s.EXPECT().SetPlayerID(gomock.Any()).AnyTimes()
	s.EXPECT().SetRoomID(gomock.Any()).AnyTimes()
	s.EXPECT().Send(gomock.Any()).DoAndReturn(func(data []byte) error {
		p, err := protocol.UnmarshalPacket(data)
		if err != nil {
			t.Errorf("room sent garbage: %v", err)
			return nil
		}
		out.packets = append(out.packets, p)
		return nil
	}).AnyTimes()
	return s, out
}

func TestRoom_JoinSendsResponseAndShop(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := testRoom(t)
	s, out := newSession(t, ctrl)

	if err := r.handleJoin(s, JoinEvent{PlayerName: "alice"}); err != nil {
		t.Fatalf("join: %v", err)
	}

	var join protocol.JoinResponse
	if !out.last(t, protocol.MessageTypeJoinResponse, &join) || !join.Success || join.EntityID != 1 {
		t.Fatalf("join response = %+v", join)
	}
	if join.MoveSpeed != core.DefaultMoveSpeed || join.TPS != core.TPS {
		t.Fatalf("movement params = %+v", join)
	}
	id, roomID, err := VerifySessionToken(join.SessionToken)
	if err != nil || id != 1 || roomID != "test-room" {
		t.Fatalf("token = (%d, %q, %v)", id, roomID, err)
	}

	var sync protocol.ShopSync
	if !out.last(t, protocol.MessageTypeShopSync, &sync) || sync.ConnectionID != 1 || len(sync.Offers) == 0 {
		t.Fatalf("shop sync = %+v", sync)
	}
	if r.PlayerCount() != 1 {
		t.Fatalf("player count = %d", r.PlayerCount())
	}
}

func TestRoom_Full(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := testRoom(t)
	r.cfg.MaxPlayers = 1

	a, _ := newSession(t, ctrl)
	if err := r.handleJoin(a, JoinEvent{}); err != nil {
		t.Fatalf("join: %v", err)
	}
	b := mocks.NewMockSession(ctrl)
	if err := r.handleJoin(b, JoinEvent{}); err == nil {
		t.Fatalf("second join accepted in a full room")
	}
}

func TestRoom_InputsMoveEntity(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := testRoom(t)
	s, out := newSession(t, ctrl)
	if err := r.handleJoin(s, JoinEvent{}); err != nil {
		t.Fatalf("join: %v", err)
	}

	r.handleInput(InputEvent{EntityID: 1, Inputs: []core.InputCommand{
		{ID: 1, MoveDirection: mgl32.Vec2{1, 0}},
		{ID: 2, MoveDirection: mgl32.Vec2{1, 0}},
	}})
	// 冗余重发
	r.handleInput(InputEvent{EntityID: 1, Inputs: []core.InputCommand{
		{ID: 2, MoveDirection: mgl32.Vec2{1, 0}},
		{ID: 3, MoveDirection: mgl32.Vec2{1, 0}},
	}})

	ticks := int(r.cfg.Movement.SyncInterval/r.cfg.Movement.FixedDelta + 0.5)
	for i := 0; i < ticks+2; i++ {
		r.step()
	}

	var ws protocol.WorldState
	if !out.last(t, protocol.MessageTypeWorldState, &ws) || len(ws.States) != 1 {
		t.Fatalf("world state = %+v", ws)
	}
	st := ws.States[0]
	if st.LastInputID != 3 {
		t.Fatalf("last input = %d, want 3", st.LastInputID)
	}
	if st.Position.X() < 3*core.DefaultMoveSpeed*core.FixedDeltaTime-1e-4 {
		t.Fatalf("entity did not move: %v", st.Position)
	}
}

func TestRoom_BuyAppliesOnQueueDrain(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := testRoom(t)
	s, out := newSession(t, ctrl)
	if err := r.handleJoin(s, JoinEvent{}); err != nil {
		t.Fatalf("join: %v", err)
	}

	offer := r.shop.Offers(1)[0]
	r.handleBuy(s, BuyEvent{EntityID: 1, ConnectionID: 1, OfferID: offer.ShopID, Count: 1})

	var resp protocol.BuyResponse
	if !out.last(t, protocol.MessageTypeBuyResponse, &resp) || !resp.Success {
		t.Fatalf("buy response = %+v", resp)
	}
	if got := r.world.Inventory().Count(1, offer.ItemConfigID); got != 0 {
		t.Fatalf("inventory changed before queue drain: %d", got)
	}

	r.step()
	if got := r.world.Inventory().Count(1, offer.ItemConfigID); got != 1 {
		t.Fatalf("inventory = %d, want 1", got)
	}

	// 买别人的商店
	r.handleBuy(s, BuyEvent{EntityID: 1, ConnectionID: 2, OfferID: offer.ShopID, Count: 1})
	var foreign protocol.BuyResponse
	if !out.last(t, protocol.MessageTypeBuyResponse, &foreign) || foreign.Success || foreign.ErrorMessage == "" {
		t.Fatalf("foreign shop buy = %+v", foreign)
	}
}

func TestRoom_PickupGrantsItemAndBuff(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := testRoom(t)
	s, out := newSession(t, ctrl)
	if err := r.handleJoin(s, JoinEvent{}); err != nil {
		t.Fatalf("join: %v", err)
	}
	e, _ := r.world.Get(1)
	e.Sim.Restore(core.NewSpawnState(mgl32.Vec3{2.5, 0, 0}))

	req := interact.SceneInteractRequest{
		Header: interact.Header{
			CommandID:          1,
			RequestingEntityID: 1,
			Category:           interact.CategoryPlayerToScene,
			Authority:          interact.AuthorityClient,
		},
		SceneItemID:     1,
		InteractionType: interact.InteractionPickupItem,
	}
	r.handleInteract(InteractEvent{EntityID: 1, Request: req})

	// 冒用别的实体
	spoofed := req
	spoofed.CommandID = 2
	spoofed.RequestingEntityID = 2
	r.handleInteract(InteractEvent{EntityID: 1, Request: spoofed})
	if r.queue.Len() != 1 {
		t.Fatalf("queue len = %d, want 1", r.queue.Len())
	}

	r.step()
	if got := r.world.Inventory().Count(1, 1001); got != 1 {
		t.Fatalf("inventory = %d", got)
	}
	if ms := e.Sim.Config().MoveSpeed; ms <= core.DefaultMoveSpeed {
		t.Fatalf("haste not applied: move speed %v", ms)
	}

	var ps protocol.PropertySync
	if !out.last(t, protocol.MessageTypePropertySync, &ps) || ps.EntityID != 1 {
		t.Fatalf("property sync = %+v", ps)
	}
	if obj, _ := r.scene.Get(1); !obj.Consumed {
		t.Fatalf("scene object not consumed")
	}
}

func TestRoom_StaleLeaveKeepsReconnectedSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := testRoom(t)
	oldSession, _ := newSession(t, ctrl)
	if err := r.handleJoin(oldSession, JoinEvent{}); err != nil {
		t.Fatalf("join: %v", err)
	}

	newConn, out := newSession(t, ctrl)
	oldSession.EXPECT().CloseWithoutNotify().Times(1)
	if err := r.handleReconnect(newConn, 1); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	var resp protocol.ReconnectResponse
	if !out.last(t, protocol.MessageTypeReconnectResponse, &resp) || !resp.Success || resp.State == nil {
		t.Fatalf("reconnect response = %+v", resp)
	}

	// 旧连接的断开通知晚到
	r.handleLeave(1, oldSession)
	if cur := r.sessions[1]; cur != newConn {
		t.Fatalf("stale leave dropped the new session")
	}

	r.handleLeave(1, newConn)
	if r.PlayerCount() != 0 {
		t.Fatalf("player count = %d", r.PlayerCount())
	}
	if _, ok := r.world.Get(1); !ok {
		t.Fatalf("entity removed before reconnect grace")
	}
	for i := 0; i < 5; i++ {
		r.step()
	}
	if _, ok := r.world.Get(1); ok {
		t.Fatalf("entity kept after reconnect grace")
	}
	if err := r.handleReconnect(newConn, 1); err == nil {
		t.Fatalf("reconnect to despawned entity succeeded")
	}
}

func TestRoom_BroadcastCadenceIndependentOfJoinTick(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := testRoom(t)
	a, outA := newSession(t, ctrl)
	if err := r.handleJoin(a, JoinEvent{}); err != nil {
		t.Fatalf("join: %v", err)
	}
	for i := 0; i < 3; i++ {
		r.step()
	}
	b, _ := newSession(t, ctrl)
	if err := r.handleJoin(b, JoinEvent{}); err != nil {
		t.Fatalf("join: %v", err)
	}

	before := outA.count(protocol.MessageTypeWorldState)
	for i := 0; i < core.TPS; i++ {
		r.step()
	}
	got := outA.count(protocol.MessageTypeWorldState) - before
	want := int(1/r.cfg.Movement.SyncInterval + 0.5)
	if got != want {
		t.Fatalf("world states in one second with 2 entities = %d, want %d", got, want)
	}
}

func TestRoom_InteractionsAfterReconnectNotDeduped(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := testRoom(t)
	oldSession, _ := newSession(t, ctrl)
	if err := r.handleJoin(oldSession, JoinEvent{}); err != nil {
		t.Fatalf("join: %v", err)
	}
	e, _ := r.world.Get(1)

	pickup := func(sceneItemID uint32) interact.SceneInteractRequest {
		return interact.SceneInteractRequest{
			Header: interact.Header{
				CommandID:          1,
				RequestingEntityID: 1,
				Category:           interact.CategoryPlayerToScene,
				Authority:          interact.AuthorityClient,
			},
			SceneItemID:     sceneItemID,
			InteractionType: interact.InteractionPickupItem,
		}
	}

	e.Sim.Restore(core.NewSpawnState(mgl32.Vec3{2.5, 0, 0}))
	r.handleInteract(InteractEvent{EntityID: 1, Request: pickup(1)})
	r.step()
	if got := r.world.Inventory().Count(1, 1001); got != 1 {
		t.Fatalf("first pickup inventory = %d", got)
	}

	// 新连接的指令 id 重新从 1 开始
	newConn, _ := newSession(t, ctrl)
	oldSession.EXPECT().CloseWithoutNotify().Times(1)
	if err := r.handleReconnect(newConn, 1); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	e.Sim.Restore(core.NewSpawnState(mgl32.Vec3{-2.5, 0, 0}))
	r.handleInteract(InteractEvent{EntityID: 1, Request: pickup(2)})
	r.step()

	if got := r.world.Inventory().Count(1, 2001); got != 3 {
		t.Fatalf("pickup after reconnect: inventory = %d, want 3", got)
	}
	if obj, _ := r.scene.Get(2); !obj.Consumed {
		t.Fatalf("scene object 2 not consumed")
	}
}
