package client

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"riftline/pkg/core"
)

func newPredictor() (*Reconciler, *InputSendQueue) {
	inputs := NewInputSendQueue()
	r := NewReconciler(core.DefaultMovementConfig(), core.NewSpawnState(mgl32.Vec3{}), inputs)
	return r, inputs
}

func predict(r *Reconciler, q *InputSendQueue, n int, dir mgl32.Vec2) []core.InputCommand {
	out := make([]core.InputCommand, 0, n)
	for i := 0; i < n; i++ {
		in := q.Capture(dir, false, 0)
		r.Predict(in)
		out = append(out, in)
	}
	return out
}

func TestReconciler_AgreesWithServer(t *testing.T) {
	r, q := newPredictor()
	sent := predict(r, q, 5, mgl32.Vec2{1, 0})

	// 服务器只处理到第 3 条
	sim := core.NewSimulator(core.DefaultMovementConfig(), core.NewSpawnState(mgl32.Vec3{}))
	for _, in := range sent[:3] {
		sim.Enqueue(in)
	}
	res := sim.Tick(core.FixedDeltaTime)

	corrected := 0
	r.OnCorrected = func(Correction) { corrected++ }
	before := r.Predicted()
	if r.Reconcile(res.State) {
		t.Fatalf("matching server state caused a correction")
	}
	if corrected != 0 || r.Corrections() != 0 {
		t.Fatalf("callback fired %d times", corrected)
	}
	if r.Predicted() != before {
		t.Fatalf("prediction changed without correction")
	}
	// 死区内也要确认输入
	if q.LastAcked() != 3 || q.Len() != 2 {
		t.Fatalf("acked = %d pending = %d", q.LastAcked(), q.Len())
	}
}

func TestReconciler_DivergenceReplays(t *testing.T) {
	r, q := newPredictor()
	sent := predict(r, q, 5, mgl32.Vec2{1, 0})

	// 服务器在第 2 条之后把实体放到了别处
	server := core.Replay(core.DefaultMovementConfig(), core.NewSpawnState(mgl32.Vec3{}), sent[:2])
	server.Position = server.Position.Add(mgl32.Vec3{0, 0, 1})

	var got Correction
	r.OnCorrected = func(c Correction) { got = c }
	before := r.Predicted()
	if !r.Reconcile(server) {
		t.Fatalf("1m divergence not corrected")
	}

	want := core.Replay(core.DefaultMovementConfig(), server, sent[2:])
	if r.Predicted() != want {
		t.Fatalf("predicted = %+v, want %+v", r.Predicted(), want)
	}
	if got.Replayed != 3 || got.Error < 0.99 || got.Error > 1.01 {
		t.Fatalf("correction = %+v", got)
	}

	// 画面位置不跳变
	if !r.RenderPosition().ApproxEqualThreshold(before.Position, 1e-4) {
		t.Fatalf("render jumped from %v to %v", before.Position, r.RenderPosition())
	}

	// 之后服务器追上来，不再纠错
	again := core.Replay(core.DefaultMovementConfig(), server, sent[2:4])
	if r.Reconcile(again) {
		t.Fatalf("converged state corrected again")
	}
	if r.Corrections() != 1 {
		t.Fatalf("corrections = %d", r.Corrections())
	}
}

func TestReconciler_SmallErrorInsideDeadBand(t *testing.T) {
	r, q := newPredictor()
	sent := predict(r, q, 3, mgl32.Vec2{0, 1})

	server := core.Replay(core.DefaultMovementConfig(), core.NewSpawnState(mgl32.Vec3{}), sent[:1])
	server.Position = server.Position.Add(mgl32.Vec3{ReconcileThreshold * 0.5, 0, 0})
	if r.Reconcile(server) {
		t.Fatalf("error below threshold corrected")
	}
	if q.LastAcked() != 1 {
		t.Fatalf("acked = %d", q.LastAcked())
	}
}

func TestReconciler_IgnoresStaleSnapshot(t *testing.T) {
	r, q := newPredictor()
	sent := predict(r, q, 4, mgl32.Vec2{1, 0})
	cfg := core.DefaultMovementConfig()

	r.Reconcile(core.Replay(cfg, core.NewSpawnState(mgl32.Vec3{}), sent[:3]))
	stale := core.Replay(cfg, core.NewSpawnState(mgl32.Vec3{}), sent[:1])
	stale.Position = stale.Position.Add(mgl32.Vec3{5, 0, 0})
	if r.Reconcile(stale) {
		t.Fatalf("out of order snapshot corrected")
	}
	if q.LastAcked() != 3 {
		t.Fatalf("acked = %d", q.LastAcked())
	}
}

func TestReconciler_OffsetDecays(t *testing.T) {
	r, q := newPredictor()
	sent := predict(r, q, 2, mgl32.Vec2{1, 0})
	server := core.Replay(core.DefaultMovementConfig(), core.NewSpawnState(mgl32.Vec3{}), sent[:1])
	server.Position[2] += 2
	r.Reconcile(server)

	start := r.VisualOffset().Len()
	if start < 1.9 {
		t.Fatalf("offset = %v", start)
	}
	r.Update(0.1)
	// exp(-12 * 0.1) ≈ 0.301
	if got := r.VisualOffset().Len() / start; got < 0.29 || got > 0.31 {
		t.Fatalf("decay ratio = %v", got)
	}
	for i := 0; i < 60; i++ {
		r.Update(1.0 / 60)
	}
	if r.VisualOffset() != (mgl32.Vec3{}) {
		t.Fatalf("offset never reached zero: %v", r.VisualOffset())
	}
}

func TestReconciler_Reset(t *testing.T) {
	r, q := newPredictor()
	predict(r, q, 6, mgl32.Vec2{1, 0})

	state := core.AuthoritativeState{Position: mgl32.Vec3{4, 0, 4}, LastProcessedInputID: 6}
	r.Reset(state)
	if r.Predicted() != state || q.Len() != 0 || r.VisualOffset() != (mgl32.Vec3{}) {
		t.Fatalf("reset left state behind: %+v pending=%d", r.Predicted(), q.Len())
	}
}
