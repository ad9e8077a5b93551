package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestPlayerGameStateData_IsEqual(t *testing.T) {
	base := PlayerGameStateData{
		Position: mgl32.Vec3{10, 0, 10},
		Velocity: mgl32.Vec3{4, 0, 0},
		Rotation: mgl32.QuatIdent(),
	}
	yaw := func(deg float32) mgl32.Quat {
		return mgl32.QuatRotate(mgl32.DegToRad(deg), mgl32.Vec3{0, 1, 0})
	}

	tests := []struct {
		name   string
		mutate func(*PlayerGameStateData)
		want   bool
	}{
		{"identical", func(*PlayerGameStateData) {}, true},
		{"position 1.9", func(d *PlayerGameStateData) { d.Position[0] += 1.9 }, true},
		{"position 2.1", func(d *PlayerGameStateData) { d.Position[0] += 2.1 }, false},
		{"speed 0.04", func(d *PlayerGameStateData) { d.Velocity[0] += 0.04 }, true},
		{"speed 0.06", func(d *PlayerGameStateData) { d.Velocity[0] += 0.06 }, false},
		{"same speed other direction", func(d *PlayerGameStateData) { d.Velocity = mgl32.Vec3{0, 0, 4} }, true},
		{"rotation 9deg", func(d *PlayerGameStateData) { d.Rotation = yaw(9) }, true},
		{"rotation 11deg", func(d *PlayerGameStateData) { d.Rotation = yaw(11) }, false},
		{"command differs", func(d *PlayerGameStateData) { d.CurrentCommand = CommandJump }, false},
		{"environment differs", func(d *PlayerGameStateData) { d.EnvironmentState = EnvironmentWater }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base
			tt.mutate(&other)
			if got := base.IsEqual(other); got != tt.want {
				t.Fatalf("IsEqual = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSnapshotFromState(t *testing.T) {
	cfg := DefaultMovementConfig()

	idle := SnapshotFromState(NewSpawnState(mgl32.Vec3{}), cfg, mgl32.QuatIdent())
	if idle.CurrentCommand != CommandIdle || idle.EnvironmentState != EnvironmentGround {
		t.Fatalf("idle snapshot = %+v", idle)
	}

	air := SnapshotFromState(AuthoritativeState{Position: mgl32.Vec3{0, 2, 0}}, cfg, mgl32.QuatIdent())
	if air.CurrentCommand != CommandJump || air.EnvironmentState != EnvironmentAirborne {
		t.Fatalf("airborne snapshot = %+v", air)
	}

	moving := SnapshotFromState(AuthoritativeState{Velocity: mgl32.Vec3{1, 0, 0}}, cfg, mgl32.QuatIdent())
	if moving.CurrentCommand != CommandMove {
		t.Fatalf("moving snapshot = %+v", moving)
	}
	if deg := QuatAngleDeg(moving.Rotation, mgl32.QuatIdent()); mgl32.Abs(deg-90) > 0.5 {
		t.Fatalf("facing +x should be 90deg from identity, got %f", deg)
	}
}

func TestCompressVector3_Precision(t *testing.T) {
	v := mgl32.Vec3{12.345, -0.004, 1000.5}
	back := CompressVector3(v).Vec3()
	if d := back.Sub(v).Len(); d > PositionPrecision {
		t.Fatalf("round trip error %f", d)
	}
	if c := CompressVector3(mgl32.Vec3{float32(nanValue()), 0, 0}); c.X != 0 {
		t.Fatalf("NaN quantized to %d", c.X)
	}
}
