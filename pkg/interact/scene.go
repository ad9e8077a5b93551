package interact

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultPickupRange 拾取距离上限
const DefaultPickupRange = 3.0

var (
	ErrUnknownSceneObject  = errors.New("interact: unknown scene object")
	ErrAlreadyConsumed     = errors.New("interact: scene object already consumed")
	ErrInteractionMismatch = errors.New("interact: interaction type does not match object")
	ErrOutOfRange          = errors.New("interact: requester out of range")
	ErrUnknownRequester    = errors.New("interact: unknown requester")
	ErrConnectionMismatch  = errors.New("interact: command connection does not match requester")
)

// Inventory 物品发放
type Inventory interface {
	Grant(entityID int32, itemConfigID uint32, count int32)
}

// PositionResolver 查询实体的服务器权威位置
type PositionResolver interface {
	Position(entityID int32) (mgl32.Vec3, bool)
}

// LootEntry 宝箱内容
type LootEntry struct {
	ItemConfigID uint32
	Count        int32
}

// SceneObject 场景中可交互的物体，按值存储，修改后整体写回
type SceneObject struct {
	ID          uint32
	Interaction InteractionType
	Position    mgl32.Vec3
	Loot        []LootEntry
	Consumed    bool
}

// DefaultSceneLayout 房间创建时放置的物体，客户端也用它作为已知的场景布局
func DefaultSceneLayout() []SceneObject {
	return []SceneObject{
		{
			ID: 1, Interaction: InteractionPickupItem, Position: mgl32.Vec3{3, 0, 0},
			Loot: []LootEntry{{ItemConfigID: 1001, Count: 1}},
		},
		{
			ID: 2, Interaction: InteractionPickupItem, Position: mgl32.Vec3{-3, 0, 0},
			Loot: []LootEntry{{ItemConfigID: 2001, Count: 3}},
		},
		{
			ID: 3, Interaction: InteractionPickupChest, Position: mgl32.Vec3{0, 0, 8},
			Loot: []LootEntry{{ItemConfigID: 1002, Count: 2}, {ItemConfigID: 3001, Count: 1}},
		},
	}
}

// SceneRegistry 场景物体表
type SceneRegistry struct {
	objects map[uint32]SceneObject
}

// NewSceneRegistry 创建物体表
func NewSceneRegistry() *SceneRegistry {
	return &SceneRegistry{objects: make(map[uint32]SceneObject)}
}

// Add 放置物体，同 id 覆盖
func (r *SceneRegistry) Add(obj SceneObject) {
	r.objects[obj.ID] = obj
}

// Get 查询物体
func (r *SceneRegistry) Get(id uint32) (SceneObject, bool) {
	obj, ok := r.objects[id]
	return obj, ok
}

// Available 未被消耗的物体，按 id 排序
func (r *SceneRegistry) Available() []SceneObject {
	out := make([]SceneObject, 0, len(r.objects))
	for _, obj := range r.objects {
		if !obj.Consumed {
			out = append(out, obj)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *SceneRegistry) consume(id uint32) {
	obj := r.objects[id]
	obj.Consumed = true
	r.objects[id] = obj
}

type sceneAction func(req SceneInteractRequest, obj SceneObject) error

// SceneHandler 处理 PlayerToScene 类别，按 InteractionType 选择具体动作
type SceneHandler struct {
	registry    *SceneRegistry
	inventory   Inventory
	positions   PositionResolver
	pickupRange float32
	actions     map[InteractionType]sceneAction
}

// NewSceneHandler 创建场景交互处理器
func NewSceneHandler(registry *SceneRegistry, inventory Inventory, positions PositionResolver, pickupRange float32) *SceneHandler {
	h := &SceneHandler{
		registry:    registry,
		inventory:   inventory,
		positions:   positions,
		pickupRange: pickupRange,
	}
	h.actions = map[InteractionType]sceneAction{
		InteractionPickupItem:  h.pickup,
		InteractionPickupChest: h.pickup,
	}
	return h
}

// Handle 实现 Handler
func (h *SceneHandler) Handle(tick int32, req Request) error {
	sr, ok := req.(SceneInteractRequest)
	if !ok {
		panic(fmt.Sprintf("interact: scene handler received %T", req))
	}

	obj, ok := h.registry.Get(sr.SceneItemID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSceneObject, sr.SceneItemID)
	}
	if obj.Consumed {
		return fmt.Errorf("%w: %d", ErrAlreadyConsumed, obj.ID)
	}
	if obj.Interaction != sr.InteractionType {
		return fmt.Errorf("%w: object %d", ErrInteractionMismatch, obj.ID)
	}

	pos, err := h.requesterPosition(sr.Header)
	if err != nil {
		return err
	}
	if pos.Sub(obj.Position).Len() > h.pickupRange {
		return fmt.Errorf("%w: object %d", ErrOutOfRange, obj.ID)
	}

	action, ok := h.actions[sr.InteractionType]
	if !ok {
		panic(fmt.Sprintf("interact: no scene action for interaction type %d", sr.InteractionType))
	}
	return action(sr, obj)
}

// requesterPosition 客户端权威的位置不可信，改用服务器位置
func (h *SceneHandler) requesterPosition(hdr Header) (mgl32.Vec3, error) {
	if hdr.Authority == AuthorityServer {
		return hdr.Position.Vec3(), nil
	}
	pos, ok := h.positions.Position(hdr.RequestingEntityID)
	if !ok {
		return mgl32.Vec3{}, fmt.Errorf("%w: %d", ErrUnknownRequester, hdr.RequestingEntityID)
	}
	return pos, nil
}

func (h *SceneHandler) pickup(req SceneInteractRequest, obj SceneObject) error {
	for _, loot := range obj.Loot {
		h.inventory.Grant(req.RequestingEntityID, loot.ItemConfigID, loot.Count)
	}
	h.registry.consume(obj.ID)
	return nil
}

// CommandHandler 处理 Command 类别，按 CommandType 分发
type CommandHandler struct {
	inventory Inventory
}

// NewCommandHandler 创建通用指令处理器
func NewCommandHandler(inventory Inventory) *CommandHandler {
	return &CommandHandler{inventory: inventory}
}

// Handle 实现 Handler
func (h *CommandHandler) Handle(tick int32, req Request) error {
	cr, ok := req.(CommandRequest)
	if !ok {
		panic(fmt.Sprintf("interact: command handler received %T", req))
	}

	switch cr.CommandType {
	case CommandTypeItem:
		cmd, err := DecodeItemsBuy(cr.Payload)
		if err != nil {
			return err
		}
		if cmd.Header.ConnectionID != cr.RequestingEntityID {
			return ErrConnectionMismatch
		}
		for _, item := range cmd.Items {
			h.inventory.Grant(cr.RequestingEntityID, item.ItemConfigID, item.Count)
		}
		return nil
	default:
		panic(fmt.Sprintf("interact: unhandled command type %d", cr.CommandType))
	}
}
