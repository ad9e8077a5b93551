package server

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"riftline/pkg/core"
)

// Entity 房间中的一个玩家实体
type Entity struct {
	ID    int32
	Name  string
	Sim   *core.Simulator
	Props *core.PropertyStore
	Buffs *core.BuffTracker

	disconnectedAt int32 // 0 表示在线
}

// DefaultItemBuffs 道具到账时触发的效果
func DefaultItemBuffs() map[uint32]core.Buff {
	return map[uint32]core.Buff{
		1001: {ID: "item-1001-haste", Property: core.PropertyMoveSpeed, Kind: core.EventMultiplier, Value: 0.5, DurationTicks: 5 * core.TPS},
		1002: {ID: "item-1002-heal", Property: core.PropertyHealth, Kind: core.EventCurrent, Value: 25},
		1003: {ID: "item-1003-spring", Property: core.PropertyJumpSpeed, Kind: core.EventExtra, Value: 4, DurationTicks: 5 * core.TPS},
		3001: {ID: "item-3001-blade", Property: core.PropertyAttack, Kind: core.EventExtra, Value: 15},
		3002: {ID: "item-3002-boots", Property: core.PropertyMoveSpeed, Kind: core.EventExtra, Value: 2},
	}
}

// World 实体注册表，同时充当交互处理需要的位置查询和背包
// 只由房间循环访问
type World struct {
	base      core.MovementConfig
	entities  map[int32]*Entity
	inventory *Inventory
	itemBuffs map[uint32]core.Buff
	tick      int32
	dirty     map[int32]struct{}
	log       *zap.SugaredLogger

	OnSpawn   func(e *Entity)
	OnDespawn func(e *Entity)
}

// NewWorld 创建实体表
func NewWorld(base core.MovementConfig, log *zap.SugaredLogger) *World {
	return &World{
		base:      base,
		entities:  make(map[int32]*Entity),
		inventory: NewInventory(),
		itemBuffs: DefaultItemBuffs(),
		dirty:     make(map[int32]struct{}),
		log:       log,
	}
}

// SetTick 房间每个 tick 开始时调用
func (w *World) SetTick(tick int32) {
	w.tick = tick
}

// Spawn 创建实体；id 重复是调用方错误
func (w *World) Spawn(id int32, name string, pos mgl32.Vec3) *Entity {
	if _, exists := w.entities[id]; exists {
		panic(fmt.Sprintf("server: entity %d already spawned", id))
	}
	props := core.DefaultPlayerProperties()
	e := &Entity{
		ID:    id,
		Name:  name,
		Sim:   core.NewSimulator(props.MovementConfig(w.base), core.NewSpawnState(pos)),
		Props: core.NewPropertyStore(props),
		Buffs: core.NewBuffTracker(),
	}
	w.entities[id] = e
	w.dirty[id] = struct{}{}
	if w.OnSpawn != nil {
		w.OnSpawn(e)
	}
	return e
}

// Despawn 移除实体及其背包
func (w *World) Despawn(id int32) {
	e, ok := w.entities[id]
	if !ok {
		return
	}
	delete(w.entities, id)
	delete(w.dirty, id)
	w.inventory.Remove(id)
	if w.OnDespawn != nil {
		w.OnDespawn(e)
	}
}

func (w *World) Get(id int32) (*Entity, bool) {
	e, ok := w.entities[id]
	return e, ok
}

func (w *World) Len() int {
	return len(w.entities)
}

// Entities 按 id 排序，保证每个 tick 的处理顺序固定
func (w *World) Entities() []*Entity {
	out := make([]*Entity, 0, len(w.entities))
	for _, e := range w.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Position 实现 interact.PositionResolver
func (w *World) Position(entityID int32) (mgl32.Vec3, bool) {
	e, ok := w.entities[entityID]
	if !ok {
		return mgl32.Vec3{}, false
	}
	return e.Sim.State().Position, true
}

// Grant 实现 interact.Inventory：入包，并触发道具效果
func (w *World) Grant(entityID int32, itemConfigID uint32, count int32) {
	w.inventory.Add(entityID, itemConfigID, count)
	if buff, ok := w.itemBuffs[itemConfigID]; ok {
		if err := w.ApplyBuff(entityID, buff); err != nil {
			w.log.Warnf("玩家 %d: 道具 %d 效果失败: %v", entityID, itemConfigID, err)
		}
	}
}

func (w *World) Inventory() *Inventory {
	return w.inventory
}

// ApplyBuff 对实体施加增益并刷新其移动参数
func (w *World) ApplyBuff(entityID int32, buff core.Buff) error {
	e, ok := w.entities[entityID]
	if !ok {
		return fmt.Errorf("entity %d not found", entityID)
	}
	events, err := e.Buffs.Apply(buff, w.tick, e.Props.Load())
	if err != nil {
		return err
	}
	w.applyProperties(e, events)
	return nil
}

// ExpireBuffs 回收到期增益
func (w *World) ExpireBuffs() {
	for _, e := range w.Entities() {
		if events := e.Buffs.Expire(w.tick); len(events) > 0 {
			w.applyProperties(e, events)
		}
	}
}

func (w *World) applyProperties(e *Entity, events []core.PropertyEvent) {
	if len(events) == 0 {
		return
	}
	next := e.Props.Apply(events...)
	e.Sim.SetConfig(next.MovementConfig(w.base))
	w.dirty[e.ID] = struct{}{}
}

// DrainDirty 返回属性发生变化的实体 id（升序）并清空记录
func (w *World) DrainDirty() []int32 {
	if len(w.dirty) == 0 {
		return nil
	}
	ids := make([]int32, 0, len(w.dirty))
	for id := range w.dirty {
		ids = append(ids, id)
	}
	clear(w.dirty)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MarkDisconnected 连接断开但保留实体等待重连
func (w *World) MarkDisconnected(id int32) {
	if e, ok := w.entities[id]; ok && e.disconnectedAt == 0 {
		e.disconnectedAt = max(w.tick, 1)
	}
}

// MarkReconnected 重连成功
func (w *World) MarkReconnected(id int32) {
	if e, ok := w.entities[id]; ok {
		e.disconnectedAt = 0
	}
}

// Online 实体是否有连接
func (w *World) Online(id int32) bool {
	e, ok := w.entities[id]
	return ok && e.disconnectedAt == 0
}

// ExpiredDisconnected 断线超过 grace 个 tick 的实体
func (w *World) ExpiredDisconnected(grace int32) []int32 {
	var ids []int32
	for _, e := range w.Entities() {
		if e.disconnectedAt != 0 && w.tick-e.disconnectedAt >= grace {
			ids = append(ids, e.ID)
		}
	}
	return ids
}
