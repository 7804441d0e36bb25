package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEmbeddedTuningMatchesDefaults(t *testing.T) {
	tn, err := LoadTuning("")
	if err != nil {
		t.Fatalf("LoadTuning: %v", err)
	}
	d := DefaultTuning()
	if tn.TickMs != d.TickMs || tn.MoveSpeed != d.MoveSpeed || tn.WinGuardMs != d.WinGuardMs {
		t.Errorf("embedded tuning drifted from defaults: %+v", tn)
	}
	if tn.Palette.NeutralColor != 0x888888 {
		t.Errorf("expected neutral #888888, got %s", tn.Palette.NeutralColor.Hex())
	}
	if len(tn.Palette.Teams) != 4 || tn.Palette.Teams[0] != 0x3399ff {
		t.Errorf("unexpected team palette %v", tn.Palette.Teams)
	}
	if tn.TickInterval() != 50*time.Millisecond {
		t.Errorf("expected 50ms tick, got %v", tn.TickInterval())
	}
}

func TestParseTuningFillsDefaults(t *testing.T) {
	tn, err := ParseTuning([]byte("tick_ms: 20\nmove_speed: 80\nquad_margin: 10\n"))
	if err != nil {
		t.Fatalf("ParseTuning: %v", err)
	}
	if tn.TickMs != 20 || tn.MoveSpeed != 80 {
		t.Errorf("explicit values not kept: %+v", tn)
	}
	if tn.QuadMargin != 50 {
		t.Errorf("quad margin below 50 should fall back, got %.0f", tn.QuadMargin)
	}
	if tn.ClaimStep != 10 || tn.UnitCollision != 15 || len(tn.Palette.Teams) == 0 {
		t.Errorf("missing values should fall back to defaults: %+v", tn)
	}
}

func TestParseTuningWidensCollisionWindow(t *testing.T) {
	tn, err := ParseTuning([]byte("unit_collision: 30\ncollision_window: 10\n"))
	if err != nil {
		t.Fatalf("ParseTuning: %v", err)
	}
	if tn.CollisionWindow != 30 {
		t.Errorf("collision window should widen to the unit threshold, got %.0f", tn.CollisionWindow)
	}
}

func TestEngineWithNarrowWindowStillCollides(t *testing.T) {
	tn := DefaultTuning()
	tn.UnitCollision = 30
	tn.CollisionWindow = 5
	e := NewEngine(tn, nil, 0)
	e.AddPlanetSpec(PlanetSpec{ID: "home", X: -1000, Y: -1000})
	e.AddUnit(travelingUnit("a", 1, "home", Position{X: 500, Y: 500}))
	e.AddUnit(travelingUnit("b", 2, "home", Position{X: 525, Y: 500}))

	e.Update(0)

	if e.UnitCount() != 0 {
		t.Errorf("units 25px apart should collide with a 30px threshold, %d left", e.UnitCount())
	}
}

func TestParseTuningInvalid(t *testing.T) {
	if _, err := ParseTuning([]byte("tick_ms: [1, 2")); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestLoadTuningFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("palette:\n  teams: [0x010203]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tn, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("LoadTuning: %v", err)
	}
	if len(tn.Palette.Teams) != 1 || tn.Palette.Teams[0] != 0x010203 {
		t.Errorf("unexpected palette %v", tn.Palette.Teams)
	}
	if tn.Palette.TeamColor(3) != 0x010203 {
		t.Error("team colors should cycle through a short palette")
	}
	if tn.Palette.TeamColor(NeutralID) != tn.Palette.Neutral() {
		t.Error("neutral team should get the neutral color")
	}

	if _, err := LoadTuning(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
