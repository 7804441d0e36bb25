package main

import "testing"

const testNeutral Color = 0x888888

func newTestPlanet(owner PlayerID) *Planet {
	return NewPlanet(PlanetSpec{
		ID:              "p1",
		X:               100,
		Y:               100,
		Radius:          40,
		Color:           0x3399ff,
		Owner:           owner,
		MaxUnits:        5,
		ProductionSpeed: 1,
		MaxHealth:       100,
	}, testNeutral)
}

func TestNewPlanetDefaults(t *testing.T) {
	p := NewPlanet(PlanetSpec{ID: "p"}, testNeutral)
	if p.Radius != 40 || p.MaxUnits != 8 || p.ProductionSpeed != 1 || p.MaxHealth != 100 {
		t.Errorf("unexpected defaults: %+v", p)
	}
	if p.Owner != NeutralID || p.Health != 0 || p.Color != testNeutral {
		t.Errorf("neutral planet should start empty and grey, got owner=%d health=%.0f color=%s",
			p.Owner, p.Health, p.Color.Hex())
	}

	owned := newTestPlanet(1)
	if owned.Health != owned.MaxHealth {
		t.Errorf("owned planet should start at full health, got %.0f", owned.Health)
	}
}

func TestPlanetFirstProductionImmediate(t *testing.T) {
	p := newTestPlanet(1)
	p.MaxUnits = 1

	u := p.Produce(0, 0, "u1", 20)
	if u == nil {
		t.Fatal("first production should not wait for the timer")
	}
	if u.Owner != 1 || u.PlanetID != "p1" || u.Color != p.Color {
		t.Errorf("produced unit has wrong identity: %+v", u)
	}
	if u.OrbitDistance != 60 {
		t.Errorf("expected orbit distance radius+gap=60, got %.0f", u.OrbitDistance)
	}
	if !u.Orbiting {
		t.Error("produced unit should orbit")
	}

	if p.Produce(5000, 1, "u2", 20) != nil {
		t.Error("full planet should not produce")
	}
}

func TestPlanetProductionInterval(t *testing.T) {
	p := newTestPlanet(1)
	if p.Produce(0, 0, "u1", 20) == nil {
		t.Fatal("expected first unit")
	}
	if p.CanProduce(999, 1) {
		t.Error("should not produce before the interval elapses")
	}
	if !p.CanProduce(1000, 1) {
		t.Error("should produce once the interval elapses")
	}
	if p.Produce(1000, 1, "u2", 20) == nil {
		t.Fatal("expected second unit")
	}
	if p.LastProducedAt != 1000 {
		t.Errorf("expected LastProducedAt=1000, got %d", p.LastProducedAt)
	}
}

func TestNeutralPlanetNeverProduces(t *testing.T) {
	p := newTestPlanet(NeutralID)
	if p.Produce(0, 0, "u1", 20) != nil {
		t.Error("neutral planet should not produce")
	}
}

func TestPlanetCaptureOnTenthHit(t *testing.T) {
	p := newTestPlanet(NeutralID)
	u := &Unit{Owner: 1, Color: 0xff6666}

	for i := 1; i <= 9; i++ {
		if !p.HandleUnitCollision(u, 10, testNeutral) {
			t.Fatalf("hit %d should consume the unit", i)
		}
		if p.Owner != NeutralID {
			t.Fatalf("captured too early at hit %d", i)
		}
		if p.ClaimingTeam != 1 {
			t.Fatalf("expected claim by team 1, got %d", p.ClaimingTeam)
		}
	}
	if p.ClaimingProgress != 90 || p.Health != 90 {
		t.Errorf("expected progress 90, got progress=%.0f health=%.0f", p.ClaimingProgress, p.Health)
	}

	p.HandleUnitCollision(u, 10, testNeutral)
	if p.Owner != 1 {
		t.Fatalf("expected capture by team 1, got owner %d", p.Owner)
	}
	if p.Color != 0xff6666 {
		t.Errorf("captured planet should take the claimant color, got %s", p.Color.Hex())
	}
	if p.Health != p.MaxHealth {
		t.Errorf("captured planet should be at full health, got %.0f", p.Health)
	}
	if p.ClaimingTeam != NeutralID || p.ClaimingProgress != 0 {
		t.Errorf("claim should reset after capture: team=%d progress=%.0f", p.ClaimingTeam, p.ClaimingProgress)
	}
}

func TestPlanetClaimInterrupted(t *testing.T) {
	p := newTestPlanet(NeutralID)
	a := &Unit{Owner: 1, Color: 0x3399ff}
	b := &Unit{Owner: 2, Color: 0xff6666}

	for i := 0; i < 5; i++ {
		p.HandleUnitCollision(a, 10, testNeutral)
	}
	if !p.HandleUnitCollision(b, 10, testNeutral) {
		t.Fatal("contesting unit should be consumed")
	}

	if p.ClaimingTeam != 1 {
		t.Errorf("claim should stay with team 1, got %d", p.ClaimingTeam)
	}
	if p.ClaimingProgress != 40 || p.Health != 40 {
		t.Errorf("expected progress 40, got progress=%.0f health=%.0f", p.ClaimingProgress, p.Health)
	}

	for i := 0; i < 4; i++ {
		p.HandleUnitCollision(b, 10, testNeutral)
	}
	if p.ClaimingTeam != NeutralID || p.Health != 0 {
		t.Errorf("claim should clear at zero, got team=%d health=%.0f", p.ClaimingTeam, p.Health)
	}

	p.HandleUnitCollision(b, 10, testNeutral)
	if p.ClaimingTeam != 2 {
		t.Errorf("team 2 should start its own claim, got %d", p.ClaimingTeam)
	}
}

func TestPlanetAllyHeals(t *testing.T) {
	p := newTestPlanet(1)
	ally := &Unit{Owner: 1}

	if p.HandleUnitCollision(ally, 10, testNeutral) {
		t.Error("ally at full health should pass through")
	}

	p.Health = 95
	if !p.HandleUnitCollision(ally, 10, testNeutral) {
		t.Error("ally should be consumed when healing")
	}
	if p.Health != 100 {
		t.Errorf("healing should clamp to max health, got %.0f", p.Health)
	}
}

func TestPlanetEnemyNeutralizes(t *testing.T) {
	p := newTestPlanet(1)
	enemy := &Unit{Owner: 2, Color: 0xff6666}

	for i := 0; i < 9; i++ {
		p.HandleUnitCollision(enemy, 10, testNeutral)
	}
	if p.Owner != 1 || p.Health != 10 {
		t.Fatalf("expected owner 1 at health 10, got owner=%d health=%.0f", p.Owner, p.Health)
	}

	p.HandleUnitCollision(enemy, 10, testNeutral)
	if p.Owner != NeutralID {
		t.Fatalf("planet should be neutral, got owner %d", p.Owner)
	}
	if p.Color != testNeutral {
		t.Errorf("neutralized planet should turn grey, got %s", p.Color.Hex())
	}
	if p.Health != 0 {
		t.Errorf("health should stay at 0, got %.0f", p.Health)
	}
}

func TestPlanetIgnoresNeutralUnits(t *testing.T) {
	p := newTestPlanet(1)
	if p.HandleUnitCollision(&Unit{Owner: NeutralID}, 10, testNeutral) {
		t.Error("neutral unit should not interact")
	}
	if p.HandleUnitCollision(nil, 10, testNeutral) {
		t.Error("nil unit should not interact")
	}
}

func TestPlanetToData(t *testing.T) {
	p := newTestPlanet(NeutralID)
	p.HandleUnitCollision(&Unit{Owner: 3, Color: 0x66ff66}, 10, testNeutral)

	d := p.ToData(nil)
	if d.Units == nil {
		t.Error("units should be an empty slice, not nil")
	}
	if d.ClaimingTeam != 3 || d.ClaimingTeamColor != 0x66ff66 || d.ClaimingProgress != 10 {
		t.Errorf("claim not reflected: %+v", d)
	}
	if d.X != 100 || d.Y != 100 || d.Radius != 40 || d.MaxHealth != 100 {
		t.Errorf("geometry not reflected: %+v", d)
	}
}
