package main

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func twoPlayers() []MapPlayer {
	return []MapPlayer{{Team: 1, Color: 0x3399ff}, {Team: 2, Color: 0xff6666}}
}

func loadTestCatalog(t *testing.T) *MapCatalog {
	t.Helper()
	c, err := LoadMapCatalog("")
	if err != nil {
		t.Fatalf("LoadMapCatalog: %v", err)
	}
	return c
}

func TestEmbeddedCatalog(t *testing.T) {
	c := loadTestCatalog(t)
	for _, id := range []string{"classic", "duel", "battleground", "fortress"} {
		if !c.Has(id) {
			t.Errorf("missing built-in map %q", id)
		}
	}
	if !c.Has(DefaultMapID) {
		t.Error("default map must be in the catalog")
	}
}

func TestGenerateClassic(t *testing.T) {
	c := loadTestCatalog(t)
	e := newTestEngine()

	if !c.Generate("classic", e, twoPlayers()) {
		t.Fatal("classic should accept 2 players")
	}
	if got := len(e.Planets()); got != 7 {
		t.Errorf("expected 7 planets, got %d", got)
	}
	if got := e.UnitCount(); got != 8 {
		t.Errorf("expected 8 units, got %d", got)
	}

	base := e.Planet("player_planet_1")
	if base == nil {
		t.Fatal("missing base for team 1")
	}
	if math.Abs(base.Pos.X-880) > 1e-9 || math.Abs(base.Pos.Y-400) > 1e-9 {
		t.Errorf("expected first base at (880,400), got (%.2f,%.2f)", base.Pos.X, base.Pos.Y)
	}
	if base.Owner != 1 || base.Color != 0x3399ff || base.Health != 150 {
		t.Errorf("unexpected base %+v", base)
	}

	center := e.Planet("neutral_1")
	if center == nil || center.Pos != (Position{X: 600, Y: 400}) || center.Owner != NeutralID {
		t.Errorf("unexpected center planet %+v", center)
	}

	u := e.Unit("player_2_unit_0")
	if u == nil {
		t.Fatal("missing starting unit")
	}
	if u.PlanetID != "player_planet_2" || u.Stats.Health != 120 || u.Stats.Damage != 15 {
		t.Errorf("unexpected starting unit %+v", u)
	}
	if e.Roster("player_planet_1") != 4 {
		t.Errorf("expected 4 starting units on base 1, got %d", e.Roster("player_planet_1"))
	}
}

func TestGenerateDuelRejectsThreePlayers(t *testing.T) {
	c := loadTestCatalog(t)
	e := newTestEngine()
	players := append(twoPlayers(), MapPlayer{Team: 3, Color: 0x66ff66})

	if c.Generate("duel", e, players) {
		t.Fatal("duel should reject 3 players")
	}
	if len(e.Planets()) != 0 || e.UnitCount() != 0 {
		t.Error("rejected generation must not touch the engine")
	}
}

func TestGenerateUnknownMap(t *testing.T) {
	c := loadTestCatalog(t)
	if c.Generate("nope", newTestEngine(), twoPlayers()) {
		t.Error("unknown map should fail")
	}
}

func TestGenerateFortressSatellites(t *testing.T) {
	c := loadTestCatalog(t)
	e := newTestEngine()

	if !c.Generate("fortress", e, twoPlayers()) {
		t.Fatal("fortress should accept 2 players")
	}
	if got := len(e.Planets()); got != 17 {
		t.Errorf("expected 17 planets, got %d", got)
	}
	if got := e.UnitCount(); got != 10 {
		t.Errorf("expected 10 units, got %d", got)
	}
	sat := e.Planet("satellite_2_0")
	if sat == nil {
		t.Fatal("missing satellite")
	}
	if sat.Owner != 2 || sat.Pos != (Position{X: 1520, Y: 200}) {
		t.Errorf("unexpected satellite %+v", sat)
	}
}

func TestGenerateSlotsUseTeamIDs(t *testing.T) {
	c := loadTestCatalog(t)
	e := newTestEngine()
	players := []MapPlayer{{Team: 2, Color: 0xff6666}, {Team: 5, Color: 0x66ff66}}

	if !c.Generate("duel", e, players) {
		t.Fatal("duel should accept 2 players")
	}
	if e.Planet("base_2") == nil || e.Planet("base_5") == nil {
		t.Error("base ids should carry the team id")
	}
	if p := e.Planet("base_5"); p != nil && p.Pos != (Position{X: 650, Y: 300}) {
		t.Errorf("second player should take the second slot, got %+v", p.Pos)
	}
}

func TestParseMapCatalogErrors(t *testing.T) {
	cases := map[string]string{
		"duplicate": `
maps:
  - {id: a, minPlayers: 2, maxPlayers: 2}
  - {id: a, minPlayers: 2, maxPlayers: 2}
`,
		"missing id": `
maps:
  - {minPlayers: 2, maxPlayers: 2}
`,
		"bad range": `
maps:
  - {id: a, minPlayers: 3, maxPlayers: 2}
`,
		"few slots": `
maps:
  - id: a
    minPlayers: 2
    maxPlayers: 3
    base: {layout: slots, slots: [{x: 0, y: 0}, {x: 1, y: 1}]}
`,
	}
	for name, raw := range cases {
		if _, err := ParseMapCatalog([]byte(raw)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadMapCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maps.yaml")
	raw := `
maps:
  - id: tiny
    name: Tiny
    minPlayers: 2
    maxPlayers: 2
    width: 400
    height: 400
    base: {idPrefix: home, layout: ring, ringFraction: 0.25, startingUnits: 1, unitDistance: 60}
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadMapCatalog(path)
	if err != nil {
		t.Fatalf("LoadMapCatalog: %v", err)
	}
	e := newTestEngine()
	if !c.Generate("tiny", e, twoPlayers()) {
		t.Fatal("tiny should generate")
	}
	if p := e.Planet("home_1"); p == nil || p.Pos != (Position{X: 300, Y: 200}) {
		t.Errorf("unexpected base %+v", p)
	}

	if _, err := LoadMapCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil || !strings.HasPrefix(err.Error(), "maps:") {
		t.Errorf("expected wrapped read error, got %v", err)
	}
}
