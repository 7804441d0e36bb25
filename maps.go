package main

import (
	_ "embed"
	"fmt"
	"log"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed maps.yaml
var defaultMapsYAML []byte

// DefaultMapID is used when a room has not picked a map
const DefaultMapID = "classic"

// MapPlayer is one seat handed to a map generator
type MapPlayer struct {
	Team  PlayerID
	Color Color
}

// Slot is a fixed base position
type Slot struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// SatelliteDef describes owned outposts placed around each base
type SatelliteDef struct {
	Count           int     `yaml:"count"`
	Distance        float64 `yaml:"distance"`
	Radius          float64 `yaml:"radius"`
	MaxUnits        int     `yaml:"maxUnits"`
	ProductionSpeed float64 `yaml:"productionSpeed"`
	MaxHealth       float64 `yaml:"maxHealth"`
}

// BaseDef describes player home planets and their starting garrison
type BaseDef struct {
	IDPrefix        string        `yaml:"idPrefix"`
	Layout          string        `yaml:"layout"` // "ring" or "slots"
	RingFraction    float64       `yaml:"ringFraction"`
	Slots           []Slot        `yaml:"slots"`
	Radius          float64       `yaml:"radius"`
	MaxUnits        int           `yaml:"maxUnits"`
	ProductionSpeed float64       `yaml:"productionSpeed"`
	MaxHealth       float64       `yaml:"maxHealth"`
	StartingUnits   int           `yaml:"startingUnits"`
	UnitDistance    float64       `yaml:"unitDistance"`
	UnitHealth      float64       `yaml:"unitHealth"`
	UnitDamage      float64       `yaml:"unitDamage"`
	Satellites      *SatelliteDef `yaml:"satellites"`
}

// NeutralDef is an unowned planet placed relative to the map center
type NeutralDef struct {
	ID              string  `yaml:"id"`
	DX              float64 `yaml:"dx"`
	DY              float64 `yaml:"dy"`
	Radius          float64 `yaml:"radius"`
	MaxUnits        int     `yaml:"maxUnits"`
	ProductionSpeed float64 `yaml:"productionSpeed"`
	MaxHealth       float64 `yaml:"maxHealth"`
}

// MapDef is one playable map
type MapDef struct {
	ID          string       `yaml:"id" json:"id"`
	Name        string       `yaml:"name" json:"name"`
	Description string       `yaml:"description" json:"description"`
	MinPlayers  int          `yaml:"minPlayers" json:"minPlayers"`
	MaxPlayers  int          `yaml:"maxPlayers" json:"maxPlayers"`
	Width       float64      `yaml:"width" json:"width"`
	Height      float64      `yaml:"height" json:"height"`
	Base        BaseDef      `yaml:"base" json:"-"`
	Neutrals    []NeutralDef `yaml:"neutrals" json:"-"`
}

// MapCatalog holds the known maps in file order
type MapCatalog struct {
	Maps []MapDef `yaml:"maps"`
}

// ParseMapCatalog decodes a YAML catalog
func ParseMapCatalog(raw []byte) (*MapCatalog, error) {
	var c MapCatalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("maps: %w", err)
	}
	seen := make(map[string]bool)
	for _, m := range c.Maps {
		if m.ID == "" {
			return nil, fmt.Errorf("maps: map without id")
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("maps: duplicate id %q", m.ID)
		}
		seen[m.ID] = true
		if m.MinPlayers < 1 || m.MaxPlayers < m.MinPlayers {
			return nil, fmt.Errorf("maps: %s: bad player range %d-%d", m.ID, m.MinPlayers, m.MaxPlayers)
		}
		if m.Base.Layout == "slots" && len(m.Base.Slots) < m.MaxPlayers {
			return nil, fmt.Errorf("maps: %s: %d slots for %d players", m.ID, len(m.Base.Slots), m.MaxPlayers)
		}
	}
	return &c, nil
}

// LoadMapCatalog reads the catalog from path, or the embedded one when empty
func LoadMapCatalog(path string) (*MapCatalog, error) {
	if path == "" {
		return ParseMapCatalog(defaultMapsYAML)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("maps: %w", err)
	}
	return ParseMapCatalog(raw)
}

// Get returns the map with the given id
func (c *MapCatalog) Get(id string) (MapDef, bool) {
	for _, m := range c.Maps {
		if m.ID == id {
			return m, true
		}
	}
	return MapDef{}, false
}

// Has reports whether id names a known map
func (c *MapCatalog) Has(id string) bool {
	_, ok := c.Get(id)
	return ok
}

// Generate loads the map into engine for the given players. It logs and
// returns false when the map is unknown or the player count is out of range.
func (c *MapCatalog) Generate(id string, e *Engine, players []MapPlayer) bool {
	m, ok := c.Get(id)
	if !ok {
		log.Printf("maps: unknown map %q", id)
		return false
	}
	return m.Generate(e, players)
}

// Generate loads the map into engine. Base colors come from the players,
// neutral planets take the registry's neutral color.
func (m MapDef) Generate(e *Engine, players []MapPlayer) bool {
	if len(players) < m.MinPlayers || len(players) > m.MaxPlayers {
		log.Printf("maps: %s needs %d-%d players, got %d", m.ID, m.MinPlayers, m.MaxPlayers, len(players))
		return false
	}
	cx, cy := m.Width/2, m.Height/2
	b := m.Base

	for idx, p := range players {
		pos, ok := m.basePosition(idx, len(players))
		if !ok {
			log.Printf("maps: %s has no slot for player %d", m.ID, idx)
			return false
		}
		base := e.AddPlanetSpec(PlanetSpec{
			ID:              fmt.Sprintf("%s_%d", b.IDPrefix, p.Team),
			X:               pos.X,
			Y:               pos.Y,
			Radius:          b.Radius,
			Color:           p.Color,
			Owner:           p.Team,
			MaxUnits:        b.MaxUnits,
			ProductionSpeed: b.ProductionSpeed,
			MaxHealth:       b.MaxHealth,
		})

		if s := b.Satellites; s != nil {
			for i := 0; i < s.Count; i++ {
				a := float64(i) * 2 * math.Pi / float64(s.Count)
				e.AddPlanetSpec(PlanetSpec{
					ID:              fmt.Sprintf("satellite_%d_%d", p.Team, i),
					X:               pos.X + math.Cos(a)*s.Distance,
					Y:               pos.Y + math.Sin(a)*s.Distance,
					Radius:          s.Radius,
					Color:           p.Color,
					Owner:           p.Team,
					MaxUnits:        s.MaxUnits,
					ProductionSpeed: s.ProductionSpeed,
					MaxHealth:       s.MaxHealth,
				})
			}
		}

		for i := 0; i < b.StartingUnits; i++ {
			e.AddUnitSpec(UnitSpec{
				ID:       fmt.Sprintf("player_%d_unit_%d", p.Team, i),
				PlanetID: base.ID,
				Angle:    float64(i) * 2 * math.Pi / float64(b.StartingUnits),
				Distance: b.UnitDistance,
				Color:    p.Color,
				Owner:    p.Team,
				Health:   b.UnitHealth,
				Damage:   b.UnitDamage,
			})
		}
	}

	for _, n := range m.Neutrals {
		e.AddPlanetSpec(PlanetSpec{
			ID:              n.ID,
			X:               cx + n.DX,
			Y:               cy + n.DY,
			Radius:          n.Radius,
			Owner:           NeutralID,
			MaxUnits:        n.MaxUnits,
			ProductionSpeed: n.ProductionSpeed,
			MaxHealth:       n.MaxHealth,
		})
	}
	return true
}

func (m MapDef) basePosition(idx, n int) (Position, bool) {
	if m.Base.Layout == "ring" {
		r := math.Min(m.Width, m.Height) * m.Base.RingFraction
		a := float64(idx) * 2 * math.Pi / float64(n)
		return Position{X: m.Width/2 + math.Cos(a)*r, Y: m.Height/2 + math.Sin(a)*r}, true
	}
	if idx >= len(m.Base.Slots) {
		return Position{}, false
	}
	s := m.Base.Slots[idx]
	return Position{X: s.X, Y: s.Y}, true
}
