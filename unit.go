package main

import "math"

// MotionState is the derived motion mode of a unit
type MotionState int

const (
	MotionOrbiting  MotionState = 0
	MotionTraveling MotionState = 1
	MotionIdle      MotionState = 2
)

func (m MotionState) String() string {
	switch m {
	case MotionOrbiting:
		return "orbiting"
	case MotionTraveling:
		return "traveling"
	default:
		return "idle"
	}
}

// UnitStats is carried on every unit. Only Health is read by the current rules.
type UnitStats struct {
	Health     float64 `json:"health" msgpack:"health"`
	Damage     float64 `json:"damage" msgpack:"damage"`
	Production float64 `json:"production" msgpack:"production"`
}

// DefaultUnitStats are used when a UnitSpec leaves stats empty
var DefaultUnitStats = UnitStats{Health: 100, Damage: 10, Production: 1}

// Unit is a single mobile entity anchored to a home planet
type Unit struct {
	ID            string
	Owner         PlayerID
	PlanetID      string // home anchor, used for orbit geometry even while away
	Angle         float64
	OrbitDistance float64
	Pos           Position
	Target        *Position
	Orbiting      bool
	Color         Color
	Stats         UnitStats
}

// UnitSpec is the map-generation contract for a starting unit
type UnitSpec struct {
	ID         string   `yaml:"id"`
	PlanetID   string   `yaml:"planetId"`
	Angle      float64  `yaml:"angle"`
	Distance   float64  `yaml:"distance"`
	Color      Color    `yaml:"color"`
	Owner      PlayerID `yaml:"owner"`
	Health     float64  `yaml:"health"`
	Damage     float64  `yaml:"damage"`
	Production float64  `yaml:"production"`
}

// NewUnit creates an orbiting unit with its position resolved around home
func NewUnit(spec UnitSpec, home Position) *Unit {
	stats := UnitStats{Health: spec.Health, Damage: spec.Damage, Production: spec.Production}
	if stats.Health <= 0 {
		stats.Health = DefaultUnitStats.Health
	}
	if stats.Damage <= 0 {
		stats.Damage = DefaultUnitStats.Damage
	}
	if stats.Production <= 0 {
		stats.Production = DefaultUnitStats.Production
	}
	u := &Unit{
		ID:            spec.ID,
		Owner:         spec.Owner,
		PlanetID:      spec.PlanetID,
		Angle:         spec.Angle,
		OrbitDistance: spec.Distance,
		Color:         spec.Color,
		Stats:         stats,
		Orbiting:      true,
	}
	u.placeOnOrbit(home)
	return u
}

// State returns the current motion mode
func (u *Unit) State() MotionState {
	if u.Target != nil {
		return MotionTraveling
	}
	if u.Orbiting {
		return MotionOrbiting
	}
	return MotionIdle
}

// SetTarget orders the unit to travel in a straight line to pos
func (u *Unit) SetTarget(pos Position) {
	t := pos
	u.Target = &t
	u.Orbiting = false
}

// Update advances the unit by dt seconds. home is the current position of its
// home planet.
func (u *Unit) Update(home Position, dt float64, tn *Tuning) {
	switch u.State() {
	case MotionTraveling:
		u.travel(dt, tn)
	case MotionOrbiting:
		u.Angle = NormalizeAngle(u.Angle + dt*tn.OrbitSpeed)
		u.placeOnOrbit(home)
	case MotionIdle:
		if !WithinDistance(u.Pos.X, u.Pos.Y, home.X, home.Y, tn.OrbitCaptureRadius) {
			return
		}
		// Re-enter orbit at the current bearing so the phase does not jump.
		u.Orbiting = true
		u.Angle = NormalizeAngle(math.Atan2(u.Pos.Y-home.Y, u.Pos.X-home.X) + dt*tn.OrbitSpeed)
		u.placeOnOrbit(home)
	}
}

func (u *Unit) travel(dt float64, tn *Tuning) {
	dist := Distance(u.Pos.X, u.Pos.Y, u.Target.X, u.Target.Y)
	step := tn.MoveSpeed * dt
	if dist <= tn.ArrivalEpsilon || dist <= step {
		u.Pos = *u.Target
		u.Target = nil
		u.Orbiting = false
		return
	}
	u.Pos.X += (u.Target.X - u.Pos.X) / dist * step
	u.Pos.Y += (u.Target.Y - u.Pos.Y) / dist * step
}

func (u *Unit) placeOnOrbit(home Position) {
	u.Pos.X = home.X + math.Cos(u.Angle)*u.OrbitDistance
	u.Pos.Y = home.Y + math.Sin(u.Angle)*u.OrbitDistance
}

// CollidesWith reports whether the two units are within threshold of each other
func (u *Unit) CollidesWith(other *Unit, threshold float64) bool {
	if other == nil {
		return false
	}
	return WithinDistance(u.Pos.X, u.Pos.Y, other.Pos.X, other.Pos.Y, threshold)
}

// IsAtPosition reports whether the unit is within threshold of pos
func (u *Unit) IsAtPosition(pos Position, threshold float64) bool {
	return WithinDistance(u.Pos.X, u.Pos.Y, pos.X, pos.Y, threshold)
}

// ToData converts to protocol state
func (u *Unit) ToData() UnitData {
	d := UnitData{
		ID:         u.ID,
		PlanetID:   u.PlanetID,
		Angle:      u.Angle,
		Distance:   u.OrbitDistance,
		Color:      u.Color,
		Owner:      u.Owner,
		X:          u.Pos.X,
		Y:          u.Pos.Y,
		IsOrbiting: u.Orbiting,
		Stats:      u.Stats,
	}
	if u.Target != nil {
		t := *u.Target
		d.Target = &t
	}
	return d
}
