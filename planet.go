package main

import "math"

// PlanetSpec is the map-generation contract for a planet
type PlanetSpec struct {
	ID              string   `yaml:"id"`
	X               float64  `yaml:"x"`
	Y               float64  `yaml:"y"`
	Radius          float64  `yaml:"radius"`
	Color           Color    `yaml:"color"`
	Owner           PlayerID `yaml:"owner"`
	MaxUnits        int      `yaml:"maxUnits"`
	ProductionSpeed float64  `yaml:"productionSpeed"`
	Health          float64  `yaml:"health"`
	MaxHealth       float64  `yaml:"maxHealth"`
}

// Planet produces units for its owner and can be claimed or captured by
// sustained unit contact. Planets never hold their units; the engine's flat
// unit store is the only roster.
type Planet struct {
	ID              string
	Pos             Position
	Radius          float64
	Color           Color
	Owner           PlayerID
	MaxUnits        int
	ProductionSpeed float64 // units per second
	LastProducedAt  int64   // ms
	Health          float64
	MaxHealth       float64
	Stats           UnitStats // handed to produced units

	// Claim state, only meaningful while neutral. ClaimingTeam 0 = no claimant.
	ClaimingTeam     PlayerID
	ClaimingColor    Color
	ClaimingProgress float64

	produced bool
}

// NewPlanet builds a planet from a PlanetSpec, filling the classic defaults
func NewPlanet(spec PlanetSpec, neutral Color) *Planet {
	p := &Planet{
		ID:              spec.ID,
		Pos:             Position{X: spec.X, Y: spec.Y},
		Radius:          spec.Radius,
		Color:           spec.Color,
		Owner:           spec.Owner,
		MaxUnits:        spec.MaxUnits,
		ProductionSpeed: spec.ProductionSpeed,
		Health:          spec.Health,
		MaxHealth:       spec.MaxHealth,
		Stats:           DefaultUnitStats,
	}
	if p.Radius <= 0 {
		p.Radius = 40
	}
	if p.MaxUnits <= 0 {
		p.MaxUnits = 8
	}
	if p.ProductionSpeed <= 0 {
		p.ProductionSpeed = 1
	}
	if p.MaxHealth <= 0 {
		p.MaxHealth = 100
	}
	if p.Health <= 0 || p.Health > p.MaxHealth {
		p.Health = p.MaxHealth
	}
	if p.Owner == NeutralID {
		// While neutral, health is the claim meter.
		p.Color = neutral
		p.Health = 0
	} else if p.Owner < NeutralID {
		p.Owner = NeutralID
		p.Color = neutral
		p.Health = 0
	}
	return p
}

// ProductionIntervalMs returns the minimum gap between two productions
func (p *Planet) ProductionIntervalMs() float64 {
	if p.ProductionSpeed <= 0 {
		return math.Inf(1)
	}
	return 1000 / p.ProductionSpeed
}

// CanProduce reports whether a unit may be produced at now given the current
// roster size. A planet that has never produced is not rate limited.
func (p *Planet) CanProduce(now int64, roster int) bool {
	if roster >= p.MaxUnits || p.ProductionSpeed <= 0 {
		return false
	}
	if !p.produced {
		return true
	}
	return float64(now-p.LastProducedAt) >= p.ProductionIntervalMs()
}

// Produce spawns a unit at a random orbit angle, or returns nil when the
// planet is neutral, full, or still cooling down.
func (p *Planet) Produce(now int64, roster int, id string, orbitGap float64) *Unit {
	if p.Owner == NeutralID || !p.CanProduce(now, roster) {
		return nil
	}
	u := NewUnit(UnitSpec{
		ID:         id,
		PlanetID:   p.ID,
		Angle:      randFloat() * math.Pi * 2,
		Distance:   p.Radius + orbitGap,
		Color:      p.Color,
		Owner:      p.Owner,
		Health:     p.Stats.Health,
		Damage:     p.Stats.Damage,
		Production: p.Stats.Production,
	}, p.Pos)
	p.LastProducedAt = now
	p.produced = true
	return u
}

// HandleUnitCollision applies one unit contact and reports whether the unit
// is consumed. step is the health/claim change per hit.
func (p *Planet) HandleUnitCollision(u *Unit, step float64, neutral Color) bool {
	if u == nil || u.Owner == NeutralID {
		return false
	}

	if p.Owner == NeutralID {
		if p.ClaimingTeam == NeutralID || p.ClaimingTeam == u.Owner {
			p.ClaimingTeam = u.Owner
			p.ClaimingColor = u.Color
			p.ClaimingProgress = Clamp(p.ClaimingProgress+step, 0, p.MaxHealth)
			p.Health = p.ClaimingProgress
			if p.ClaimingProgress >= p.MaxHealth {
				p.Owner = p.ClaimingTeam
				p.Color = p.ClaimingColor
				p.resetClaim()
			}
			return true
		}
		// Contesting someone else's claim
		p.Health = Clamp(p.Health-step, 0, p.MaxHealth)
		p.ClaimingProgress = Clamp(p.ClaimingProgress-step, 0, p.MaxHealth)
		if p.Health == 0 {
			p.resetClaim()
		}
		return true
	}

	if u.Owner == p.Owner {
		if p.Health < p.MaxHealth {
			p.Health = Clamp(p.Health+step, 0, p.MaxHealth)
			return true
		}
		// Full health: the ally passes through untouched.
		return false
	}

	p.Health = Clamp(p.Health-step, 0, p.MaxHealth)
	if p.Health == 0 {
		p.Owner = NeutralID
		p.Color = neutral
		p.resetClaim()
	}
	return true
}

func (p *Planet) resetClaim() {
	p.ClaimingTeam = NeutralID
	p.ClaimingColor = 0
	p.ClaimingProgress = 0
}

// ToData converts to protocol state with the given unit roster
func (p *Planet) ToData(units []UnitData) PlanetData {
	if units == nil {
		units = []UnitData{}
	}
	d := PlanetData{
		ID:               p.ID,
		X:                p.Pos.X,
		Y:                p.Pos.Y,
		Radius:           p.Radius,
		Color:            p.Color,
		Owner:            p.Owner,
		MaxUnits:         p.MaxUnits,
		ProductionSpeed:  p.ProductionSpeed,
		Health:           p.Health,
		MaxHealth:        p.MaxHealth,
		ClaimingProgress: p.ClaimingProgress,
		Units:            units,
	}
	if p.ClaimingTeam != NeutralID {
		d.ClaimingTeam = p.ClaimingTeam
		d.ClaimingTeamColor = p.ClaimingColor
	}
	return d
}
