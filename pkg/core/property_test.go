package core

import (
	"sync"
	"testing"

	"pgregory.net/rapid"
)

func TestUpdateProperty_DerivedStat(t *testing.T) {
	meta, _ := MetaOf(PropertyMoveSpeed)
	d := NewPropertyData(meta, 8)
	if d.Current != 8 {
		t.Fatalf("initial move speed = %f, want 8", d.Current)
	}

	d = UpdateProperty(meta, d, PropertyEvent{Property: PropertyMoveSpeed, Kind: EventMultiplier, Value: 0.5})
	if d.Current != 12 {
		t.Fatalf("after +50%% multiplier = %f, want 12", d.Current)
	}
	d = UpdateProperty(meta, d, PropertyEvent{Property: PropertyMoveSpeed, Kind: EventExtra, Value: 2})
	if d.Current != 14 {
		t.Fatalf("after +2 extra = %f, want 14", d.Current)
	}
	d = UpdateProperty(meta, d, PropertyEvent{Property: PropertyMoveSpeed, Kind: EventBase, Value: 1000})
	if d.Current != meta.Max {
		t.Fatalf("derived value not clamped: %f", d.Current)
	}
}

func TestUpdateProperty_ResourceKeepsCurrent(t *testing.T) {
	meta, _ := MetaOf(PropertyHealth)
	d := NewPropertyData(meta, 100)
	if d.Current != 100 || d.MaxCurrent != 100 {
		t.Fatalf("initial health = %f/%f", d.Current, d.MaxCurrent)
	}

	d = UpdateProperty(meta, d, PropertyEvent{Property: PropertyHealth, Kind: EventCurrent, Value: -30})
	if d.Current != 70 {
		t.Fatalf("after damage = %f, want 70", d.Current)
	}
	// 上限提高不回血
	d = UpdateProperty(meta, d, PropertyEvent{Property: PropertyHealth, Kind: EventExtra, Value: 50})
	if d.MaxCurrent != 150 || d.Current != 70 {
		t.Fatalf("after max raise = %f/%f, want 70/150", d.Current, d.MaxCurrent)
	}
	// 治疗不会超过上限
	d = UpdateProperty(meta, d, PropertyEvent{Property: PropertyHealth, Kind: EventCurrent, Value: 500})
	if d.Current != d.MaxCurrent {
		t.Fatalf("heal overflowed: %f/%f", d.Current, d.MaxCurrent)
	}
	// 上限降低时当前值跟着截断
	d = UpdateProperty(meta, d, PropertyEvent{Property: PropertyHealth, Kind: EventExtra, Value: -100})
	if d.MaxCurrent != 50 || d.Current != 50 {
		t.Fatalf("after max drop = %f/%f, want 50/50", d.Current, d.MaxCurrent)
	}
}

func TestUpdateProperty_ScoreSkipsDerivation(t *testing.T) {
	meta, _ := MetaOf(PropertyScore)
	d := NewPropertyData(meta, 0)
	d = UpdateProperty(meta, d, PropertyEvent{Property: PropertyScore, Kind: EventCorrectionFactor, Value: 1})
	d = UpdateProperty(meta, d, PropertyEvent{Property: PropertyScore, Kind: EventCurrent, Value: 10})
	if d.Current != 20 {
		t.Fatalf("score with x2 correction = %f, want 20", d.Current)
	}
	d = UpdateProperty(meta, d, PropertyEvent{Property: PropertyScore, Kind: EventCurrent, Value: -1000})
	if d.Current != meta.Min {
		t.Fatalf("score below min: %f", d.Current)
	}
}

func TestUpdateProperty_UnknownKindPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unknown event kind")
		}
	}()
	meta, _ := MetaOf(PropertyAttack)
	UpdateProperty(meta, NewPropertyData(meta, 1), PropertyEvent{Property: PropertyAttack, Kind: 99})
}

func TestUpdateProperty_NonFiniteValuePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for NaN event value")
		}
	}()
	meta, _ := MetaOf(PropertyMoveSpeed)
	UpdateProperty(meta, NewPropertyData(meta, 8), PropertyEvent{Property: PropertyMoveSpeed, Kind: EventMultiplier, Value: float32(nanValue())})
}

func TestUpdateProperty_StaysInBounds(t *testing.T) {
	kinds := []PropertyEventKind{EventBase, EventMultiplier, EventExtra, EventCorrectionFactor, EventCurrent}
	types := []PropertyType{PropertyMoveSpeed, PropertyHealth, PropertyScore}

	rapid.Check(t, func(t *rapid.T) {
		typ := rapid.SampledFrom(types).Draw(t, "type")
		meta, _ := MetaOf(typ)
		d := NewPropertyData(meta, rapid.Float32Range(0, 200).Draw(t, "base"))

		n := rapid.IntRange(1, 60).Draw(t, "n")
		for i := 0; i < n; i++ {
			ev := PropertyEvent{
				Property: typ,
				Kind:     rapid.SampledFrom(kinds).Draw(t, "kind"),
				Value:    rapid.Float32Range(-300, 300).Draw(t, "value"),
			}
			d = UpdateProperty(meta, d, ev)

			if d.Current < meta.Min || d.Current > meta.Max {
				t.Fatalf("step %d %+v: current %f outside [%f, %f]", i, ev, d.Current, meta.Min, meta.Max)
			}
			if meta.Class == ClassResource {
				if d.MaxCurrent < 0 || d.MaxCurrent > meta.Max {
					t.Fatalf("step %d %+v: max current %f", i, ev, d.MaxCurrent)
				}
				if d.Current > d.MaxCurrent {
					t.Fatalf("step %d %+v: current %f above max current %f", i, ev, d.Current, d.MaxCurrent)
				}
			}
		}
	})
}

func TestPropertySet_ApplyIsImmutable(t *testing.T) {
	before := DefaultPlayerProperties()
	after := before.Apply(PropertyEvent{Property: PropertyMoveSpeed, Kind: EventExtra, Value: 2})

	if before.Current(PropertyMoveSpeed) != DefaultMoveSpeed {
		t.Fatalf("original set mutated: %f", before.Current(PropertyMoveSpeed))
	}
	if after.Current(PropertyMoveSpeed) != DefaultMoveSpeed+2 {
		t.Fatalf("new set move speed = %f", after.Current(PropertyMoveSpeed))
	}

	cfg := after.MovementConfig(DefaultMovementConfig())
	if cfg.MoveSpeed != DefaultMoveSpeed+2 || cfg.JumpSpeed != DefaultJumpSpeed {
		t.Fatalf("movement config = %+v", cfg)
	}
}

func TestPropertyStore_ConcurrentApply(t *testing.T) {
	store := NewPropertyStore(DefaultPlayerProperties())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Apply(PropertyEvent{Property: PropertyAttack, Kind: EventExtra, Value: 1})
			_ = store.Load().Current(PropertyAttack)
		}()
	}
	wg.Wait()

	if got := store.Load().Current(PropertyAttack); got != 60 {
		t.Fatalf("attack = %f, want 60", got)
	}
}

func TestBuffTracker_ApplyAndExpire(t *testing.T) {
	tracker := NewBuffTracker()
	set := DefaultPlayerProperties()
	haste := Buff{ID: "haste", Property: PropertyMoveSpeed, Kind: EventMultiplier, Value: 0.5, DurationTicks: 10}

	events, err := tracker.Apply(haste, 100, set)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	set = set.Apply(events...)
	if set.Current(PropertyMoveSpeed) != DefaultMoveSpeed*1.5 {
		t.Fatalf("hasted speed = %f", set.Current(PropertyMoveSpeed))
	}

	// 同 ID 只刷新时间
	if events, _ := tracker.Apply(haste, 105, set); len(events) != 0 {
		t.Fatalf("refresh produced events: %v", events)
	}
	if events := tracker.Expire(110); len(events) != 0 {
		t.Fatalf("expired before refreshed deadline")
	}

	set = set.Apply(tracker.Expire(115)...)
	if set.Current(PropertyMoveSpeed) != DefaultMoveSpeed {
		t.Fatalf("speed after expiry = %f, want %f", set.Current(PropertyMoveSpeed), float32(DefaultMoveSpeed))
	}
	if tracker.Active() != 0 {
		t.Fatalf("active = %d after expiry", tracker.Active())
	}
}

func TestBuffTracker_FlooredBuffRestoresOnExpiry(t *testing.T) {
	tracker := NewBuffTracker()
	set := DefaultPlayerProperties()
	slow := Buff{ID: "root", Property: PropertyMoveSpeed, Kind: EventMultiplier, Value: -2, DurationTicks: 10}

	events, err := tracker.Apply(slow, 0, set)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	set = set.Apply(events...)
	if d, _ := set.Get(PropertyMoveSpeed); d.Multiplier != 0 || d.Current != 0 {
		t.Fatalf("rooted move speed = %+v", d)
	}

	set = set.Apply(tracker.Expire(10)...)
	d, _ := set.Get(PropertyMoveSpeed)
	if d.Multiplier != 1 {
		t.Fatalf("multiplier after expiry = %f, want 1", d.Multiplier)
	}
	if d.Current != DefaultMoveSpeed {
		t.Fatalf("move speed after expiry = %f, want %f", d.Current, float32(DefaultMoveSpeed))
	}
}

func TestBuffTracker_TimedCurrentRejected(t *testing.T) {
	tracker := NewBuffTracker()
	_, err := tracker.Apply(Buff{ID: "regen", Property: PropertyHealth, Kind: EventCurrent, Value: 5, DurationTicks: 10}, 0, DefaultPlayerProperties())
	if err != ErrBuffNotReversible {
		t.Fatalf("err = %v, want ErrBuffNotReversible", err)
	}
}

func TestHybridIDGenerator(t *testing.T) {
	g := NewHybridIDGenerator()

	a := g.Next(1001, 7)
	b := g.Next(1001, 7)
	c := g.Next(2001, 7)
	if a == b || a == c || b == c {
		t.Fatalf("duplicate ids: %x %x %x", a, b, c)
	}
	if a>>48 != 1001 || (a>>16)&0xFFFFFFFF != 7 || a&0xFFFF != 0 {
		t.Fatalf("layout of %x", a)
	}
	if b&0xFFFF != 1 {
		t.Fatalf("sequence not incremented: %x", b)
	}

	// 新 tick 序号归零
	d := g.Next(1001, 8)
	if d&0xFFFF != 0 || (d>>16)&0xFFFFFFFF != 8 {
		t.Fatalf("new tick id %x", d)
	}
}
