package core

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// PropertyType 属性类型
type PropertyType uint8

const (
	PropertyHealth PropertyType = iota + 1
	PropertyStamina
	PropertyScore
	PropertyMoveSpeed
	PropertyJumpSpeed
	PropertyAttack
)

// String 返回属性名
func (t PropertyType) String() string {
	switch t {
	case PropertyHealth:
		return "health"
	case PropertyStamina:
		return "stamina"
	case PropertyScore:
		return "score"
	case PropertyMoveSpeed:
		return "move_speed"
	case PropertyJumpSpeed:
		return "jump_speed"
	case PropertyAttack:
		return "attack"
	}
	return fmt.Sprintf("property(%d)", uint8(t))
}

// PropertyClass 决定 Current 事件与派生值的处理方式
type PropertyClass uint8

const (
	ClassStat     PropertyClass = iota // 派生值就是当前值
	ClassResource                      // 派生值是上限，当前值独立消耗
	ClassScore                         // 只接受 Current 事件，不做派生
)

// PropertyMeta 属性的静态边界
type PropertyMeta struct {
	Type  PropertyType
	Class PropertyClass
	Min   float32
	Max   float32
}

var propertyMetas = map[PropertyType]PropertyMeta{
	PropertyHealth:    {Type: PropertyHealth, Class: ClassResource, Min: 0, Max: 10000},
	PropertyStamina:   {Type: PropertyStamina, Class: ClassResource, Min: 0, Max: 1000},
	PropertyScore:     {Type: PropertyScore, Class: ClassScore, Min: 0, Max: 1e6},
	PropertyMoveSpeed: {Type: PropertyMoveSpeed, Class: ClassStat, Min: 0, Max: 40},
	PropertyJumpSpeed: {Type: PropertyJumpSpeed, Class: ClassStat, Min: 0, Max: 40},
	PropertyAttack:    {Type: PropertyAttack, Class: ClassStat, Min: 0, Max: 9999},
}

// MetaOf 查询属性元数据
func MetaOf(t PropertyType) (PropertyMeta, bool) {
	m, ok := propertyMetas[t]
	return m, ok
}

// mustMeta 未注册的属性类型属于编程错误
func mustMeta(t PropertyType) PropertyMeta {
	m, ok := propertyMetas[t]
	if !ok {
		panic(fmt.Sprintf("core: unregistered property type %d", uint8(t)))
	}
	return m
}

// PropertyEventKind 属性修改事件类型
type PropertyEventKind uint8

const (
	EventBase PropertyEventKind = iota + 1
	EventMultiplier
	EventExtra
	EventCorrectionFactor
	EventCurrent
)

// PropertyEvent 一次属性修改
type PropertyEvent struct {
	Property PropertyType
	Kind     PropertyEventKind
	Value    float32
}

// PropertyData 属性值。按值传递，每次更新都返回新值，读者永远看不到中间态
type PropertyData struct {
	Base       float32
	Additive   float32
	Multiplier float32
	Correction float32
	Current    float32
	MaxCurrent float32
}

// NewPropertyData 用基础值初始化，资源类属性初始为满值
func NewPropertyData(meta PropertyMeta, base float32) PropertyData {
	d := PropertyData{
		Base:       max32(0, base),
		Multiplier: 1,
		Correction: 1,
	}
	if meta.Class == ClassScore {
		d.Current = clamp32(0, meta.Min, meta.Max)
		return d
	}
	d = derive(meta, d)
	if meta.Class == ClassResource {
		d.Current = d.MaxCurrent
	}
	return d
}

// UpdateProperty 把一个事件折叠进属性值，返回新值
// 未知事件类型和非有限的数值属于编程错误，直接 panic
func UpdateProperty(meta PropertyMeta, d PropertyData, ev PropertyEvent) PropertyData {
	if !finite32(ev.Value) {
		panic(fmt.Sprintf("core: non-finite value %v for %s", ev.Value, ev.Property))
	}
	switch ev.Kind {
	case EventBase:
		d.Base = max32(0, d.Base+ev.Value)
	case EventMultiplier:
		d.Multiplier = max32(0, d.Multiplier+ev.Value)
	case EventCorrectionFactor:
		d.Correction = max32(0, d.Correction+ev.Value)
	case EventExtra:
		d.Additive += ev.Value
	case EventCurrent:
		switch meta.Class {
		case ClassScore:
			d.Current = clamp32(d.Current+d.Correction*ev.Value, meta.Min, meta.Max)
		case ClassResource:
			// 这里不截断，派生步骤统一截断
			d.Current += ev.Value
		}
	default:
		panic(fmt.Sprintf("core: unknown property event kind %d", uint8(ev.Kind)))
	}

	if meta.Class == ClassScore {
		return d
	}
	return derive(meta, d)
}

func derive(meta PropertyMeta, d PropertyData) PropertyData {
	derived := clamp32((d.Base*d.Multiplier+d.Additive)*d.Correction, meta.Min, meta.Max)
	if meta.Class == ClassResource {
		d.MaxCurrent = derived
		d.Current = clamp32(d.Current, meta.Min, d.MaxCurrent)
		return d
	}
	d.Current = derived
	return d
}

// PropertySet 一个实体全部属性的不可变快照
type PropertySet struct {
	values map[PropertyType]PropertyData
}

// NewPropertySet 用基础值创建属性集
func NewPropertySet(bases map[PropertyType]float32) PropertySet {
	values := make(map[PropertyType]PropertyData, len(bases))
	for t, base := range bases {
		values[t] = NewPropertyData(mustMeta(t), base)
	}
	return PropertySet{values: values}
}

// DefaultPlayerProperties 玩家默认属性
func DefaultPlayerProperties() PropertySet {
	return NewPropertySet(map[PropertyType]float32{
		PropertyHealth:    100,
		PropertyStamina:   50,
		PropertyScore:     0,
		PropertyMoveSpeed: DefaultMoveSpeed,
		PropertyJumpSpeed: DefaultJumpSpeed,
		PropertyAttack:    10,
	})
}

// Get 读取属性
func (s PropertySet) Get(t PropertyType) (PropertyData, bool) {
	d, ok := s.values[t]
	return d, ok
}

// Current 读取属性当前值，不存在时返回 0
func (s PropertySet) Current(t PropertyType) float32 {
	return s.values[t].Current
}

// Types 按类型排序返回已有属性
func (s PropertySet) Types() []PropertyType {
	types := make([]PropertyType, 0, len(s.values))
	for t := range s.values {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Apply 依次折叠事件，返回新的属性集，原集合不变
func (s PropertySet) Apply(events ...PropertyEvent) PropertySet {
	if len(events) == 0 {
		return s
	}
	values := make(map[PropertyType]PropertyData, len(s.values)+1)
	for t, d := range s.values {
		values[t] = d
	}
	for _, ev := range events {
		meta := mustMeta(ev.Property)
		d, ok := values[ev.Property]
		if !ok {
			d = NewPropertyData(meta, 0)
		}
		values[ev.Property] = UpdateProperty(meta, d, ev)
	}
	return PropertySet{values: values}
}

// MovementConfig 用属性覆盖移动参数
func (s PropertySet) MovementConfig(base MovementConfig) MovementConfig {
	if d, ok := s.values[PropertyMoveSpeed]; ok {
		base = base.WithMoveSpeed(d.Current)
	}
	if d, ok := s.values[PropertyJumpSpeed]; ok {
		base.JumpSpeed = d.Current
	}
	return base
}

// PropertyStore 属性集的发布点，任何 goroutine 都可以无锁读取
type PropertyStore struct {
	current atomic.Pointer[PropertySet]
}

// NewPropertyStore 创建属性存储
func NewPropertyStore(initial PropertySet) *PropertyStore {
	s := &PropertyStore{}
	s.current.Store(&initial)
	return s
}

// Load 读取当前快照
func (s *PropertyStore) Load() PropertySet {
	return *s.current.Load()
}

// Apply 折叠事件并发布新快照，返回新快照
func (s *PropertyStore) Apply(events ...PropertyEvent) PropertySet {
	for {
		old := s.current.Load()
		next := old.Apply(events...)
		if s.current.CompareAndSwap(old, &next) {
			return next
		}
	}
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
