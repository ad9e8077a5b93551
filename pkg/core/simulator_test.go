package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"pgregory.net/rapid"
)

func walkConfig() MovementConfig {
	cfg := DefaultMovementConfig()
	cfg.MoveSpeed = 8
	cfg.JumpSpeed = 12
	cfg.SyncInterval = 0.1
	return cfg
}

func forward(id uint32) InputCommand {
	return InputCommand{ID: id, MoveDirection: mgl32.Vec2{1, 0}}
}

func TestSimulator_OrderedInputsAndDuplicates(t *testing.T) {
	cfg := walkConfig()
	sim := NewSimulator(cfg, NewSpawnState(mgl32.Vec3{}))

	for id := uint32(1); id <= 5; id++ {
		if !sim.Enqueue(forward(id)) {
			t.Fatalf("input %d rejected", id)
		}
	}
	if sim.Enqueue(forward(3)) {
		t.Fatalf("duplicate input 3 accepted")
	}

	res := sim.Tick(cfg.FixedDelta)
	if res.Applied != 5 {
		t.Fatalf("applied = %d, want 5", res.Applied)
	}
	if res.State.LastProcessedInputID != 5 {
		t.Fatalf("last processed = %d, want 5", res.State.LastProcessedInputID)
	}
	if res.Corrections != CorrectionNone {
		t.Fatalf("unexpected correction %b", res.Corrections)
	}
	want := 5 * cfg.MoveSpeed * cfg.FixedDelta
	if got := res.State.Position.X(); mgl32.Abs(got-want) > 1e-4 {
		t.Fatalf("x = %f, want %f", got, want)
	}
	if sim.Status() != SimSimulating {
		t.Fatalf("status = %d, want simulating", sim.Status())
	}

	// 已处理的 id 不会再被接受
	if sim.Enqueue(forward(4)) {
		t.Fatalf("processed input accepted again")
	}
	if !sim.Enqueue(forward(6)) {
		t.Fatalf("input 6 rejected")
	}
}

func TestSimulator_NoInputHoldsVelocity(t *testing.T) {
	cfg := walkConfig()
	sim := NewSimulator(cfg, NewSpawnState(mgl32.Vec3{}))
	sim.Enqueue(forward(1))
	sim.Tick(cfg.FixedDelta)
	before := sim.State()

	res := sim.Tick(cfg.FixedDelta)
	if res.Applied != 0 {
		t.Fatalf("applied = %d, want 0", res.Applied)
	}
	if res.State.Velocity.X() != before.Velocity.X() {
		t.Fatalf("horizontal velocity changed: %f -> %f", before.Velocity.X(), res.State.Velocity.X())
	}
	if res.State.Position.X() <= before.Position.X() {
		t.Fatalf("entity stopped without input")
	}
}

func TestSimulator_GravityWhileAirborne(t *testing.T) {
	cfg := walkConfig()
	sim := NewSimulator(cfg, NewSpawnState(mgl32.Vec3{}))
	sim.Enqueue(InputCommand{ID: 1, JumpRequested: true})
	sim.Tick(cfg.FixedDelta)
	up := sim.State().Velocity.Y()
	if up <= 0 {
		t.Fatalf("jump did not leave the ground: vy=%f", up)
	}

	sim.Tick(cfg.FixedDelta)
	if vy := sim.State().Velocity.Y(); vy >= up {
		t.Fatalf("gravity not integrated: %f -> %f", up, vy)
	}
}

func TestSimulator_PublishEverySyncInterval(t *testing.T) {
	cfg := walkConfig()
	sim := NewSimulator(cfg, NewSpawnState(mgl32.Vec3{}))

	published := 0
	for i := 0; i < TPS; i++ {
		if sim.Tick(cfg.FixedDelta).Publish {
			published++
		}
	}
	// 1 秒 / 0.1 秒
	if published != 10 {
		t.Fatalf("published %d snapshots in one second, want 10", published)
	}
}

func TestSimulator_QueueBound(t *testing.T) {
	sim := NewSimulator(walkConfig(), NewSpawnState(mgl32.Vec3{}))
	for id := uint32(1); id <= MaxPendingInputs; id++ {
		if !sim.Enqueue(forward(id)) {
			t.Fatalf("input %d rejected before the queue is full", id)
		}
	}
	if sim.Enqueue(forward(MaxPendingInputs + 1)) {
		t.Fatalf("queue grew past %d", MaxPendingInputs)
	}
}

func TestSimulator_SpeedHackSnapsBack(t *testing.T) {
	cfg := walkConfig()
	sim := NewSimulator(cfg, NewSpawnState(mgl32.Vec3{}))
	// 一次塞进大量输入，单步内的位移远超上限
	for id := uint32(1); id <= 60; id++ {
		sim.Enqueue(forward(id))
	}
	res := sim.Tick(cfg.FixedDelta)
	if !res.Corrections.Has(CorrectionSnappedBack) {
		t.Fatalf("expected snap back, got %b", res.Corrections)
	}
	if d := res.State.Position.Len(); d > cfg.MaxDisplacement()+1e-4 {
		t.Fatalf("displacement %f exceeds %f", d, cfg.MaxDisplacement())
	}
}

func TestSimulator_ToleratesJitterBurst(t *testing.T) {
	cfg := walkConfig()
	sim := NewSimulator(cfg, NewSpawnState(mgl32.Vec3{}))
	// 网络抖动时一个 tick 收到多条输入，位移仍在上限之内就不拉回
	perInput := cfg.MoveSpeed * cfg.FixedDelta
	burst := int(cfg.MaxDisplacement()/perInput) - 1
	for id := uint32(1); id <= uint32(burst); id++ {
		sim.Enqueue(forward(id))
	}
	res := sim.Tick(cfg.FixedDelta)
	if res.Applied != burst || res.Corrections.Has(CorrectionSnappedBack) {
		t.Fatalf("burst of %d: applied %d, corrections %b", burst, res.Applied, res.Corrections)
	}
	if res.State.LastProcessedInputID != uint32(burst) {
		t.Fatalf("last input = %d, want %d", res.State.LastProcessedInputID, burst)
	}
}

func inputSequence(t *rapid.T) []InputCommand {
	n := rapid.IntRange(1, 120).Draw(t, "n")
	inputs := make([]InputCommand, n)
	for i := range inputs {
		inputs[i] = InputCommand{
			ID: uint32(i + 1),
			MoveDirection: mgl32.Vec2{
				rapid.Float32Range(-1, 1).Draw(t, "x"),
				rapid.Float32Range(-1, 1).Draw(t, "y"),
			},
			JumpRequested: rapid.Bool().Draw(t, "jump"),
			Timestamp:     float32(i) * FixedDeltaTime,
		}
	}
	return inputs
}

// 预测与权威模拟使用同一个 Step，一帧一条输入时结果必须逐位一致
func TestReplay_MatchesSimulator(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := walkConfig()
		spawn := NewSpawnState(mgl32.Vec3{})
		inputs := inputSequence(t)

		sim := NewSimulator(cfg, spawn)
		for _, in := range inputs {
			sim.Enqueue(in)
			if res := sim.Tick(cfg.FixedDelta); res.Corrections != CorrectionNone {
				t.Fatalf("honest input corrected: %b", res.Corrections)
			}
		}

		predicted := Replay(cfg, spawn, inputs)
		if predicted != sim.State() {
			t.Fatalf("prediction %+v != authority %+v", predicted, sim.State())
		}
		if again := Replay(cfg, spawn, inputs); again != predicted {
			t.Fatalf("replay is not deterministic")
		}
	})
}

func TestValidate_NeverExceedsClamp(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := walkConfig()
		comp := func(label string) float32 { return rapid.Float32Range(-500, 500).Draw(t, label) }
		s := AuthoritativeState{
			Position: mgl32.Vec3{comp("px"), comp("py"), comp("pz")},
			Velocity: mgl32.Vec3{comp("vx"), comp("vy"), comp("vz")},
		}
		last := mgl32.Vec3{comp("lx"), comp("ly"), comp("lz")}

		out, c := Validate(cfg, s, last)
		if speed := out.Velocity.Len(); speed > cfg.MaxAllowedSpeed()*(1+1e-5) {
			t.Fatalf("speed %f above limit %f", speed, cfg.MaxAllowedSpeed())
		}
		if d := out.Position.Sub(last).Len(); d > cfg.MaxDisplacement()*(1+1e-5) {
			t.Fatalf("displacement %f above limit %f", d, cfg.MaxDisplacement())
		}
		if c == CorrectionNone && out != s {
			t.Fatalf("state changed without a correction flag")
		}
	})
}

func TestInputCommand_SanitizedNormalizesDiagonal(t *testing.T) {
	in := InputCommand{MoveDirection: mgl32.Vec2{1, 1}}.Sanitized()
	if l := in.MoveDirection.Len(); mgl32.Abs(l-1) > 1e-5 {
		t.Fatalf("diagonal length = %f, want 1", l)
	}
	nan := InputCommand{MoveDirection: mgl32.Vec2{float32(nanValue()), 0}}.Sanitized()
	if nan.MoveDirection != (mgl32.Vec2{}) {
		t.Fatalf("NaN direction kept: %v", nan.MoveDirection)
	}
}

func nanValue() float64 {
	zero := 0.0
	return zero / zero
}
