package main

import (
	"math"
	"testing"
)

func TestNewUnitPlacedOnOrbit(t *testing.T) {
	home := Position{X: 100, Y: 200}
	u := NewUnit(UnitSpec{ID: "u1", PlanetID: "p1", Angle: math.Pi / 2, Distance: 60, Owner: 1}, home)

	if math.Abs(u.Pos.X-100) > 1e-9 || math.Abs(u.Pos.Y-260) > 1e-9 {
		t.Errorf("expected (100,260), got (%.3f,%.3f)", u.Pos.X, u.Pos.Y)
	}
	if u.State() != MotionOrbiting {
		t.Errorf("new unit should orbit, got %s", u.State())
	}
	if u.Stats != DefaultUnitStats {
		t.Errorf("expected default stats, got %+v", u.Stats)
	}
}

func TestUnitOrbitAdvancesAngle(t *testing.T) {
	tn := DefaultTuning()
	home := Position{X: 0, Y: 0}
	u := NewUnit(UnitSpec{ID: "u1", PlanetID: "p1", Distance: 60, Owner: 1}, home)

	u.Update(home, 0.5, &tn)

	want := 0.5 * tn.OrbitSpeed
	if math.Abs(u.Angle-want) > 1e-9 {
		t.Errorf("expected angle %.3f, got %.3f", want, u.Angle)
	}
	if d := Distance(u.Pos.X, u.Pos.Y, 0, 0); math.Abs(d-60) > 1e-9 {
		t.Errorf("unit should stay at orbit distance 60, got %.3f", d)
	}
}

func TestUnitOrbitFollowsMovingHome(t *testing.T) {
	tn := DefaultTuning()
	u := NewUnit(UnitSpec{ID: "u1", PlanetID: "p1", Distance: 60, Owner: 1}, Position{})

	u.Update(Position{X: 500, Y: 0}, 0, &tn)
	if math.Abs(u.Pos.X-560) > 1e-9 {
		t.Errorf("orbit should be centered on the new home position, got x=%.3f", u.Pos.X)
	}
}

func TestUnitTravelArrivesWithoutOvershoot(t *testing.T) {
	tn := DefaultTuning()
	home := Position{X: 0, Y: 0}
	u := NewUnit(UnitSpec{ID: "u1", PlanetID: "p1", Distance: 60, Owner: 1}, home)
	target := Position{X: 300, Y: 0}
	u.SetTarget(target)

	if u.State() != MotionTraveling {
		t.Fatalf("expected traveling, got %s", u.State())
	}

	dt := float64(tn.TickMs) / 1000
	ticks := 0
	for u.Target != nil && ticks < 1000 {
		u.Update(home, dt, &tn)
		ticks++
		if u.Pos.X > target.X+tn.ArrivalEpsilon {
			t.Fatalf("overshot target at tick %d: x=%.3f", ticks, u.Pos.X)
		}
	}

	// 240px at 2.5px per tick
	if ticks != 96 {
		t.Errorf("expected arrival after 96 ticks, got %d", ticks)
	}
	if !u.IsAtPosition(target, tn.ArrivalEpsilon) {
		t.Errorf("unit should be at target, got (%.3f,%.3f)", u.Pos.X, u.Pos.Y)
	}
	if u.Orbiting {
		t.Error("unit should not be orbiting on arrival")
	}
	if u.State() != MotionIdle {
		t.Errorf("expected idle after arrival, got %s", u.State())
	}
}

func TestUnitIdleFarFromHomeStaysPut(t *testing.T) {
	tn := DefaultTuning()
	home := Position{X: 0, Y: 0}
	u := NewUnit(UnitSpec{ID: "u1", PlanetID: "p1", Distance: 60, Owner: 1}, home)
	u.SetTarget(Position{X: 400, Y: 0})
	for i := 0; i < 500 && u.Target != nil; i++ {
		u.Update(home, 0.05, &tn)
	}

	for i := 0; i < 20; i++ {
		u.Update(home, 0.05, &tn)
	}
	if u.State() != MotionIdle || u.Pos.X != 400 {
		t.Errorf("idle unit away from home should not move, got %s at x=%.3f", u.State(), u.Pos.X)
	}
}

func TestUnitIdleNearHomeResumesOrbit(t *testing.T) {
	tn := DefaultTuning()
	home := Position{X: 0, Y: 0}
	u := NewUnit(UnitSpec{ID: "u1", PlanetID: "p1", Angle: math.Pi, Distance: 60, Owner: 1}, home)
	u.SetTarget(Position{X: 0, Y: 80})
	for i := 0; i < 500 && u.Target != nil; i++ {
		u.Update(home, 0.05, &tn)
	}
	if u.State() != MotionIdle {
		t.Fatalf("expected idle after arrival, got %s", u.State())
	}

	u.Update(home, 0.05, &tn)
	if u.State() != MotionOrbiting {
		t.Fatalf("expected unit to resume orbit, got %s", u.State())
	}
	// Bearing was +Y (pi/2), advanced by one step
	want := math.Pi/2 + 0.05*tn.OrbitSpeed
	if math.Abs(u.Angle-want) > 1e-9 {
		t.Errorf("expected angle %.4f, got %.4f", want, u.Angle)
	}
}

func TestUnitRetargetWhileTraveling(t *testing.T) {
	tn := DefaultTuning()
	u := NewUnit(UnitSpec{ID: "u1", PlanetID: "p1", Distance: 60, Owner: 1}, Position{})
	u.SetTarget(Position{X: 1000, Y: 0})
	u.Update(Position{}, 0.05, &tn)
	u.SetTarget(Position{X: 60, Y: -100})
	if u.Target == nil || u.Target.Y != -100 {
		t.Fatal("new target should replace the old one")
	}
}

func TestUnitCollidesWith(t *testing.T) {
	a := &Unit{Pos: Position{X: 0, Y: 0}}
	b := &Unit{Pos: Position{X: 15, Y: 0}}
	c := &Unit{Pos: Position{X: 16, Y: 0}}

	if !a.CollidesWith(b, 15) {
		t.Error("units 15px apart should collide at threshold 15")
	}
	if a.CollidesWith(c, 15) {
		t.Error("units 16px apart should not collide at threshold 15")
	}
	if a.CollidesWith(nil, 15) {
		t.Error("nil unit should never collide")
	}
}

func TestUnitToDataCopiesTarget(t *testing.T) {
	u := NewUnit(UnitSpec{ID: "u1", PlanetID: "p1", Distance: 60, Owner: 2, Color: 0xff0000}, Position{})
	u.SetTarget(Position{X: 10, Y: 20})

	d := u.ToData()
	if d.Target == nil || *d.Target != (Position{X: 10, Y: 20}) {
		t.Fatalf("expected target in data, got %+v", d.Target)
	}
	d.Target.X = 99
	if u.Target.X != 10 {
		t.Error("snapshot target must not alias the live unit")
	}
	if d.Owner != 2 || d.Color != 0xff0000 || d.PlanetID != "p1" || d.IsOrbiting {
		t.Errorf("unexpected data %+v", d)
	}
}
