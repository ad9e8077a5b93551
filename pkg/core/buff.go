package core

import (
	"errors"
	"sort"
)

var ErrBuffNotReversible = errors.New("core: current-value buff cannot be timed")

// Buff 有时效的属性增益，生效时产生一个事件，过期时产生相反事件
type Buff struct {
	ID            string
	Property      PropertyType
	Kind          PropertyEventKind
	Value         float32
	DurationTicks int32
}

type activeBuff struct {
	buff      Buff
	landed    float32 // 生效时字段实际变化量，被 0 截断时小于 Value
	expiresAt int32
}

// BuffTracker 记录实体身上生效中的增益，由拥有该实体的循环独占使用
type BuffTracker struct {
	active map[string]activeBuff
}

// NewBuffTracker 创建增益表
func NewBuffTracker() *BuffTracker {
	return &BuffTracker{active: make(map[string]activeBuff)}
}

// Apply 添加增益，返回需要折叠进属性的事件，props 是施加前的属性集
// 同 ID 增益不叠加，只刷新过期时间
func (t *BuffTracker) Apply(b Buff, tick int32, props PropertySet) ([]PropertyEvent, error) {
	if b.Kind == EventCurrent && b.DurationTicks > 0 {
		return nil, ErrBuffNotReversible
	}
	ev := PropertyEvent{Property: b.Property, Kind: b.Kind, Value: b.Value}
	if b.DurationTicks <= 0 {
		// 瞬时效果，不需要追踪
		return []PropertyEvent{ev}, nil
	}
	if cur, ok := t.active[b.ID]; ok {
		cur.expiresAt = tick + b.DurationTicks
		t.active[b.ID] = cur
		return nil, nil
	}
	t.active[b.ID] = activeBuff{buff: b, landed: landedDelta(props, ev), expiresAt: tick + b.DurationTicks}
	return []PropertyEvent{ev}, nil
}

// landedDelta 事件折叠后对应字段的实际变化量
func landedDelta(props PropertySet, ev PropertyEvent) float32 {
	meta := mustMeta(ev.Property)
	before, ok := props.Get(ev.Property)
	if !ok {
		before = NewPropertyData(meta, 0)
	}
	after := UpdateProperty(meta, before, ev)
	switch ev.Kind {
	case EventBase:
		return after.Base - before.Base
	case EventMultiplier:
		return after.Multiplier - before.Multiplier
	case EventCorrectionFactor:
		return after.Correction - before.Correction
	}
	return ev.Value
}

// Expire 移除所有到期增益，按 ID 排序返回相反事件，保证两端重放顺序一致
func (t *BuffTracker) Expire(tick int32) []PropertyEvent {
	var ids []string
	for id, a := range t.active {
		if tick >= a.expiresAt {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)

	events := make([]PropertyEvent, 0, len(ids))
	for _, id := range ids {
		a := t.active[id]
		delete(t.active, id)
		events = append(events, PropertyEvent{Property: a.buff.Property, Kind: a.buff.Kind, Value: -a.landed})
	}
	return events
}

// Active 生效中的增益数量
func (t *BuffTracker) Active() int {
	return len(t.active)
}
