package main

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed tuning.yaml
var defaultTuningYAML []byte

// Tuning holds the simulation constants. Zero fields fall back to defaults.
type Tuning struct {
	TickMs int `yaml:"tick_ms"`

	MoveSpeed          float64 `yaml:"move_speed"`           // px/s while traveling
	OrbitSpeed         float64 `yaml:"orbit_speed"`          // rad/s while orbiting
	ArrivalEpsilon     float64 `yaml:"arrival_epsilon"`      // px
	OrbitCaptureRadius float64 `yaml:"orbit_capture_radius"` // px from home planet
	UnitCollision      float64 `yaml:"unit_collision"`       // px between enemy units
	CollisionWindow    float64 `yaml:"collision_window"`     // half-size of quadtree query box
	PlanetContact      float64 `yaml:"planet_contact"`       // px beyond planet radius
	OrbitGap           float64 `yaml:"orbit_gap"`            // produced units orbit at radius+gap
	ClaimStep          float64 `yaml:"claim_step"`           // health/claim change per unit hit

	QuadCapacity int     `yaml:"quad_capacity"`
	QuadMargin   float64 `yaml:"quad_margin"`

	WinGuardMs int64 `yaml:"win_guard_ms"`

	Palette Palette `yaml:"palette"`
}

// Palette is the team color table
type Palette struct {
	NeutralColor Color   `yaml:"neutral"`
	Teams        []Color `yaml:"teams"`
}

// DefaultTuning returns the built-in constants
func DefaultTuning() Tuning {
	return Tuning{
		TickMs:             50,
		MoveSpeed:          50,
		OrbitSpeed:         0.8,
		ArrivalEpsilon:     3,
		OrbitCaptureRadius: 110,
		UnitCollision:      15,
		CollisionWindow:    20,
		PlanetContact:      10,
		OrbitGap:           20,
		ClaimStep:          10,
		QuadCapacity:       8,
		QuadMargin:         50,
		WinGuardMs:         1000,
		Palette: Palette{
			NeutralColor: 0x888888,
			Teams:        []Color{0x3399ff, 0xff6666, 0x66ff66, 0xffcc00},
		},
	}
}

// TickInterval returns the tick period as a duration
func (t Tuning) TickInterval() time.Duration {
	return time.Duration(t.TickMs) * time.Millisecond
}

// withDefaults fills zero fields from DefaultTuning
func (t Tuning) withDefaults() Tuning {
	d := DefaultTuning()
	if t.TickMs <= 0 {
		t.TickMs = d.TickMs
	}
	if t.MoveSpeed <= 0 {
		t.MoveSpeed = d.MoveSpeed
	}
	if t.OrbitSpeed == 0 {
		t.OrbitSpeed = d.OrbitSpeed
	}
	if t.ArrivalEpsilon <= 0 {
		t.ArrivalEpsilon = d.ArrivalEpsilon
	}
	if t.OrbitCaptureRadius <= 0 {
		t.OrbitCaptureRadius = d.OrbitCaptureRadius
	}
	if t.UnitCollision <= 0 {
		t.UnitCollision = d.UnitCollision
	}
	if t.CollisionWindow <= 0 {
		t.CollisionWindow = d.CollisionWindow
	}
	// The query window must cover every pair the threshold can catch.
	if t.CollisionWindow < t.UnitCollision {
		t.CollisionWindow = t.UnitCollision
	}
	if t.PlanetContact <= 0 {
		t.PlanetContact = d.PlanetContact
	}
	if t.OrbitGap <= 0 {
		t.OrbitGap = d.OrbitGap
	}
	if t.ClaimStep <= 0 {
		t.ClaimStep = d.ClaimStep
	}
	if t.QuadCapacity <= 0 {
		t.QuadCapacity = d.QuadCapacity
	}
	if t.QuadMargin < 50 {
		t.QuadMargin = d.QuadMargin
	}
	if t.WinGuardMs <= 0 {
		t.WinGuardMs = d.WinGuardMs
	}
	if len(t.Palette.Teams) == 0 {
		t.Palette.Teams = d.Palette.Teams
	}
	if t.Palette.NeutralColor == 0 {
		t.Palette.NeutralColor = d.Palette.NeutralColor
	}
	return t
}

// ParseTuning decodes YAML tuning and fills defaults
func ParseTuning(raw []byte) (Tuning, error) {
	var t Tuning
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return Tuning{}, fmt.Errorf("tuning: %w", err)
	}
	return t.withDefaults(), nil
}

// LoadTuning reads tuning from path, or the embedded defaults when path is empty
func LoadTuning(path string) (Tuning, error) {
	if path == "" {
		return ParseTuning(defaultTuningYAML)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("tuning: %w", err)
	}
	return ParseTuning(raw)
}
