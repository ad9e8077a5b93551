package interact

import (
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"riftline/pkg/core"
)

func header(entityID int32, commandID uint32, c Category) Header {
	return Header{
		CommandID:          commandID,
		RequestingEntityID: entityID,
		Tick:               1,
		Category:           c,
		Authority:          AuthorityClient,
	}
}

func sceneRequest(entityID int32, commandID, itemID uint32, kind InteractionType) SceneInteractRequest {
	return SceneInteractRequest{
		Header:          header(entityID, commandID, CategoryPlayerToScene),
		SceneItemID:     itemID,
		InteractionType: kind,
	}
}

// recorder 记录收到的请求顺序
type recorder struct {
	got []uint32
	err error
}

func (r *recorder) Handle(_ int32, req Request) error {
	r.got = append(r.got, req.RequestHeader().CommandID)
	return r.err
}

type fakeInventory map[int32]map[uint32]int32

func (f fakeInventory) Grant(entityID int32, itemConfigID uint32, count int32) {
	if f[entityID] == nil {
		f[entityID] = make(map[uint32]int32)
	}
	f[entityID][itemConfigID] += count
}

type fakePositions map[int32]mgl32.Vec3

func (f fakePositions) Position(entityID int32) (mgl32.Vec3, bool) {
	p, ok := f[entityID]
	return p, ok
}

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue(zap.NewNop().Sugar(), DefaultDedupeTTL)
	rec := &recorder{}
	q.Register(CategoryPlayerToScene, rec)

	for id := uint32(1); id <= 5; id++ {
		q.Enqueue(sceneRequest(1, id, 9, InteractionPickupItem))
	}
	stats := q.ProcessCommands(1)

	if stats.Dispatched != 5 {
		t.Fatalf("dispatched = %d, want 5", stats.Dispatched)
	}
	for i, id := range rec.got {
		if id != uint32(i+1) {
			t.Fatalf("order = %v, want 1..5", rec.got)
		}
	}
	if q.Len() != 0 {
		t.Fatalf("queue not drained: %d", q.Len())
	}
}

func TestQueue_DropsInvalid(t *testing.T) {
	q := NewQueue(zap.NewNop().Sugar(), DefaultDedupeTTL)
	rec := &recorder{}
	q.Register(CategoryPlayerToScene, rec)
	q.Register(CategoryPlayerToPlayer, rec)

	noCommand := sceneRequest(1, 0, 9, InteractionPickupItem)
	noItem := sceneRequest(1, 2, 0, InteractionPickupItem)
	badKind := sceneRequest(1, 3, 9, 42)
	wrongCategory := sceneRequest(1, 4, 9, InteractionPickupItem)
	wrongCategory.Category = CategoryPlayerToPlayer
	self := PlayerInteractRequest{Header: header(1, 5, CategoryPlayerToPlayer), TargetPlayerID: 1}

	for _, req := range []Request{noCommand, noItem, badKind, wrongCategory, self, sceneRequest(1, 6, 9, InteractionPickupItem)} {
		q.Enqueue(req)
	}
	q.Enqueue(nil)

	stats := q.ProcessCommands(1)
	if stats.Invalid != 5 || stats.Dispatched != 1 {
		t.Fatalf("stats = %+v, want 5 invalid / 1 dispatched", stats)
	}
	if len(rec.got) != 1 || rec.got[0] != 6 {
		t.Fatalf("handler saw %v", rec.got)
	}
}

func TestQueue_DedupesRetransmissions(t *testing.T) {
	q := NewQueue(zap.NewNop().Sugar(), 10)
	rec := &recorder{}
	q.Register(CategoryPlayerToScene, rec)

	q.Enqueue(sceneRequest(1, 7, 9, InteractionPickupItem))
	q.Enqueue(sceneRequest(1, 7, 9, InteractionPickupItem))
	// 不同实体的同一 command id 不算重复
	q.Enqueue(sceneRequest(2, 7, 9, InteractionPickupItem))
	stats := q.ProcessCommands(1)
	if stats.Dispatched != 2 || stats.Duplicates != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	q.Enqueue(sceneRequest(1, 7, 9, InteractionPickupItem))
	if stats := q.ProcessCommands(5); stats.Duplicates != 1 {
		t.Fatalf("retransmission inside ttl not deduped: %+v", stats)
	}

	// 过了 ttl 同一个 id 可以再用
	q.Enqueue(sceneRequest(1, 7, 9, InteractionPickupItem))
	if stats := q.ProcessCommands(20); stats.Dispatched != 1 {
		t.Fatalf("command id not reusable after ttl: %+v", stats)
	}
}

func TestQueue_ForgetClearsOneEntity(t *testing.T) {
	q := NewQueue(zap.NewNop().Sugar(), DefaultDedupeTTL)
	q.Register(CategoryPlayerToScene, &recorder{})

	q.Enqueue(sceneRequest(1, 1, 9, InteractionPickupItem))
	q.Enqueue(sceneRequest(2, 1, 9, InteractionPickupItem))
	q.ProcessCommands(1)

	q.Forget(1)
	q.Enqueue(sceneRequest(1, 1, 9, InteractionPickupItem))
	q.Enqueue(sceneRequest(2, 1, 9, InteractionPickupItem))
	stats := q.ProcessCommands(2)
	if stats.Dispatched != 1 || stats.Duplicates != 1 {
		t.Fatalf("stats = %+v, want entity 1 dispatched and entity 2 deduped", stats)
	}
}

func TestQueue_RejectedByHandler(t *testing.T) {
	q := NewQueue(zap.NewNop().Sugar(), DefaultDedupeTTL)
	q.Register(CategoryPlayerToScene, &recorder{err: errors.New("nope")})
	q.Enqueue(sceneRequest(1, 1, 9, InteractionPickupItem))
	if stats := q.ProcessCommands(1); stats.Rejected != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestQueue_MissingHandlerPanics(t *testing.T) {
	q := NewQueue(zap.NewNop().Sugar(), DefaultDedupeTTL)
	q.Enqueue(sceneRequest(1, 1, 9, InteractionPickupItem))

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unregistered category")
		}
	}()
	q.ProcessCommands(1)
}

func TestQueue_EnqueuedDuringDrainWaitsForNextTick(t *testing.T) {
	q := NewQueue(zap.NewNop().Sugar(), DefaultDedupeTTL)
	var seen []uint32
	q.Register(CategoryPlayerToScene, HandlerFunc(func(_ int32, req Request) error {
		id := req.RequestHeader().CommandID
		seen = append(seen, id)
		if id == 1 {
			q.Enqueue(sceneRequest(1, 2, 9, InteractionPickupItem))
		}
		return nil
	}))

	q.Enqueue(sceneRequest(1, 1, 9, InteractionPickupItem))
	q.ProcessCommands(1)
	if len(seen) != 1 {
		t.Fatalf("request enqueued during drain ran in the same tick: %v", seen)
	}
	q.ProcessCommands(2)
	if len(seen) != 2 || seen[1] != 2 {
		t.Fatalf("seen = %v", seen)
	}
}

func TestSceneHandler_Pickup(t *testing.T) {
	reg := NewSceneRegistry()
	for _, obj := range DefaultSceneLayout() {
		reg.Add(obj)
	}
	inv := fakeInventory{}
	positions := fakePositions{1: {3, 0, 1}, 2: {20, 0, 20}}
	h := NewSceneHandler(reg, inv, positions, DefaultPickupRange)

	// 客户端声称自己就在物体旁边，但服务器位置离得很远
	far := sceneRequest(2, 1, 1, InteractionPickupItem)
	far.Position = core.CompressVector3(mgl32.Vec3{3, 0, 0})
	if err := h.Handle(1, far); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}

	if err := h.Handle(1, sceneRequest(1, 2, 1, InteractionPickupChest)); !errors.Is(err, ErrInteractionMismatch) {
		t.Fatalf("err = %v, want ErrInteractionMismatch", err)
	}

	if err := h.Handle(1, sceneRequest(1, 3, 1, InteractionPickupItem)); err != nil {
		t.Fatalf("pickup: %v", err)
	}
	if inv[1][1001] != 1 {
		t.Fatalf("inventory = %v", inv)
	}
	if err := h.Handle(1, sceneRequest(1, 4, 1, InteractionPickupItem)); !errors.Is(err, ErrAlreadyConsumed) {
		t.Fatalf("err = %v, want ErrAlreadyConsumed", err)
	}
	if err := h.Handle(1, sceneRequest(1, 5, 99, InteractionPickupItem)); !errors.Is(err, ErrUnknownSceneObject) {
		t.Fatalf("err = %v, want ErrUnknownSceneObject", err)
	}
	if got := len(reg.Available()); got != 2 {
		t.Fatalf("available = %d, want 2", got)
	}
}

func TestCommandHandler_ItemsBuy(t *testing.T) {
	inv := fakeInventory{}
	h := NewCommandHandler(inv)
	now := time.Unix(1700000000, 0)

	cmd := NewItemsBuyCommand(4, ItemPurchase{Count: 2, ItemShopID: 77, ItemType: 1, ItemConfigID: 1001})
	req, err := NewItemsBuyRequest(cmd, 1<<31|1, 4, 10, core.CompressedVector3{}, now)
	if err != nil {
		t.Fatalf("NewItemsBuyRequest: %v", err)
	}
	if !req.IsValid() {
		t.Fatalf("request invalid: %+v", req)
	}
	if err := h.Handle(10, req); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if inv[4][1001] != 2 {
		t.Fatalf("inventory = %v", inv)
	}

	// 指令里的连接和请求方不一致
	other, _ := NewItemsBuyRequest(cmd, 1<<31|2, 5, 10, core.CompressedVector3{}, now)
	if err := h.Handle(10, other); !errors.Is(err, ErrConnectionMismatch) {
		t.Fatalf("err = %v, want ErrConnectionMismatch", err)
	}

	broken := req
	broken.Payload = []byte{0xc1}
	if err := h.Handle(10, broken); err == nil {
		t.Fatalf("garbage payload accepted")
	}
}
