package main

import (
	"fmt"
	"sort"
)

// EventKind names something the engine observed during a tick
type EventKind string

const (
	EventPlanetCaptured    EventKind = "planet_captured"
	EventPlanetNeutralized EventKind = "planet_neutralized"
	EventUnitsDestroyed    EventKind = "units_destroyed"
)

// EngineEvent is drained by the room after each tick for stats and analytics
type EngineEvent struct {
	Kind     EventKind `json:"kind"`
	PlanetID string    `json:"planetId,omitempty"`
	Team     PlayerID  `json:"team,omitempty"` // capturing team, or the team that neutralized
	Count    int       `json:"count,omitempty"`
	Time     int64     `json:"time"`
}

// Engine is the authoritative simulation for one room. It is not safe for
// concurrent use: the owner must serialize Update, commands and hooks.
type Engine struct {
	tuning Tuning
	colors ColorRegistry

	planets     map[string]*Planet
	planetOrder []string
	units       map[string]*Unit
	unitOrder   []string // insertion order, the collision tie-break
	unitSeq     map[string]uint64
	nextSeq     uint64

	startTime      int64
	currentTime    int64
	lastUpdateTime int64

	events []EngineEvent
}

// NewEngine creates an empty engine whose clock starts at now (ms)
func NewEngine(tuning Tuning, colors ColorRegistry, now int64) *Engine {
	tuning = tuning.withDefaults()
	if colors == nil {
		colors = tuning.Palette
	}
	return &Engine{
		tuning:         tuning,
		colors:         colors,
		planets:        make(map[string]*Planet),
		units:          make(map[string]*Unit),
		unitSeq:        make(map[string]uint64),
		startTime:      now,
		currentTime:    now,
		lastUpdateTime: now,
	}
}

// Tuning returns the constants the engine runs with
func (e *Engine) Tuning() Tuning {
	return e.tuning
}

// Colors returns the team color registry
func (e *Engine) Colors() ColorRegistry {
	return e.colors
}

// AddPlanet registers a planet. Re-adding an id replaces it in place.
func (e *Engine) AddPlanet(p *Planet) {
	if p == nil {
		return
	}
	if _, ok := e.planets[p.ID]; !ok {
		e.planetOrder = append(e.planetOrder, p.ID)
	}
	e.planets[p.ID] = p
}

// AddPlanetSpec builds and registers a planet from a map spec
func (e *Engine) AddPlanetSpec(spec PlanetSpec) *Planet {
	p := NewPlanet(spec, e.colors.Neutral())
	e.AddPlanet(p)
	return p
}

// AddUnit registers a unit. Re-adding an id replaces it in place.
func (e *Engine) AddUnit(u *Unit) {
	if u == nil {
		return
	}
	if _, ok := e.units[u.ID]; !ok {
		e.unitOrder = append(e.unitOrder, u.ID)
		e.nextSeq++
		e.unitSeq[u.ID] = e.nextSeq
	}
	e.units[u.ID] = u
}

// AddUnitSpec builds a unit around its home planet. Returns nil if the home
// planet is unknown.
func (e *Engine) AddUnitSpec(spec UnitSpec) *Unit {
	home, ok := e.planets[spec.PlanetID]
	if !ok {
		return nil
	}
	u := NewUnit(spec, home.Pos)
	e.AddUnit(u)
	return u
}

// RemoveUnit deletes a unit from the live store
func (e *Engine) RemoveUnit(id string) bool {
	if _, ok := e.units[id]; !ok {
		return false
	}
	delete(e.units, id)
	delete(e.unitSeq, id)
	for i, uid := range e.unitOrder {
		if uid == id {
			e.unitOrder = append(e.unitOrder[:i], e.unitOrder[i+1:]...)
			break
		}
	}
	return true
}

// Planet returns a planet by id
func (e *Engine) Planet(id string) *Planet {
	return e.planets[id]
}

// Unit returns a unit by id
func (e *Engine) Unit(id string) *Unit {
	return e.units[id]
}

// Planets returns all planets in insertion order
func (e *Engine) Planets() []*Planet {
	out := make([]*Planet, 0, len(e.planetOrder))
	for _, id := range e.planetOrder {
		out = append(out, e.planets[id])
	}
	return out
}

// Units returns all live units in insertion order
func (e *Engine) Units() []*Unit {
	out := make([]*Unit, 0, len(e.unitOrder))
	for _, id := range e.unitOrder {
		out = append(out, e.units[id])
	}
	return out
}

// UnitCount returns the number of live units
func (e *Engine) UnitCount() int {
	return len(e.units)
}

// Time returns the engine clock (ms) as of the last update
func (e *Engine) Time() int64 {
	return e.currentTime
}

// Elapsed returns ms since the engine was created
func (e *Engine) Elapsed() int64 {
	return e.currentTime - e.startTime
}

// MoveUnits orders every listed unit owned by requester to travel to target.
// Unknown or foreign units are skipped. Returns true if any unit was moved.
func (e *Engine) MoveUnits(unitIDs []string, target Position, requester PlayerID) bool {
	moved := false
	for _, id := range unitIDs {
		u, ok := e.units[id]
		if !ok || u.Owner != requester {
			continue
		}
		u.SetTarget(target)
		moved = true
	}
	return moved
}

// PlayerUnits returns the units owned by owner
func (e *Engine) PlayerUnits(owner PlayerID) []*Unit {
	var out []*Unit
	for _, id := range e.unitOrder {
		if u := e.units[id]; u.Owner == owner {
			out = append(out, u)
		}
	}
	return out
}

// UnitsInRect returns units inside the box spanned by the two corners.
// owner 0 matches any owner.
func (e *Engine) UnitsInRect(x1, y1, x2, y2 float64, owner PlayerID) []*Unit {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	var out []*Unit
	for _, id := range e.unitOrder {
		u := e.units[id]
		if owner != NeutralID && u.Owner != owner {
			continue
		}
		if u.Pos.X >= x1 && u.Pos.X <= x2 && u.Pos.Y >= y1 && u.Pos.Y <= y2 {
			out = append(out, u)
		}
	}
	return out
}

// UnitsAroundPlanet returns non-traveling units near a planet. owner 0 matches
// any owner.
func (e *Engine) UnitsAroundPlanet(planetID string, owner PlayerID) []*Unit {
	p, ok := e.planets[planetID]
	if !ok {
		return nil
	}
	var out []*Unit
	for _, id := range e.unitOrder {
		u := e.units[id]
		if owner != NeutralID && u.Owner != owner {
			continue
		}
		if u.Target != nil {
			continue
		}
		if WithinDistance(u.Pos.X, u.Pos.Y, p.Pos.X, p.Pos.Y, p.Radius+30) {
			out = append(out, u)
		}
	}
	return out
}

// Roster returns how many live units call planetID home
func (e *Engine) Roster(planetID string) int {
	n := 0
	for _, u := range e.units {
		if u.PlanetID == planetID {
			n++
		}
	}
	return n
}

// CanProduce reports whether the planet could produce at now
func (e *Engine) CanProduce(planetID string, now int64) bool {
	p, ok := e.planets[planetID]
	if !ok || p.Owner == NeutralID {
		return false
	}
	return p.CanProduce(now, e.Roster(planetID))
}

// RecolorOwner updates the color of every planet and unit owned by owner
func (e *Engine) RecolorOwner(owner PlayerID, color Color) {
	for _, p := range e.planets {
		if p.Owner == owner {
			p.Color = color
		}
		if p.ClaimingTeam == owner {
			p.ClaimingColor = color
		}
	}
	for _, u := range e.units {
		if u.Owner == owner {
			u.Color = color
		}
	}
}

// ReassignOwner moves every planet, unit and pending claim of from to team to
func (e *Engine) ReassignOwner(from, to PlayerID, color Color) {
	if from == NeutralID || from == to {
		return
	}
	for _, p := range e.planets {
		if p.Owner == from {
			p.Owner = to
			p.Color = color
		}
		if p.ClaimingTeam == from {
			p.ClaimingTeam = to
			p.ClaimingColor = color
		}
	}
	for _, u := range e.units {
		if u.Owner == from {
			u.Owner = to
			u.Color = color
		}
	}
}

// DrainEvents returns and clears the events recorded since the last drain
func (e *Engine) DrainEvents() []EngineEvent {
	out := e.events
	e.events = nil
	return out
}

// Update advances the simulation to now (ms) and returns the snapshot
func (e *Engine) Update(now int64) GameState {
	dt := float64(now-e.lastUpdateTime) / 1000
	if dt < 0 {
		dt = 0
	}
	e.lastUpdateTime = now
	e.currentTime = now

	e.moveUnits(dt)
	e.resolveCollisions()
	e.produceUnits(now)

	state := e.GameState()
	state.Winner = e.checkWinner()
	return state
}

func (e *Engine) moveUnits(dt float64) {
	for _, id := range e.unitOrder {
		u := e.units[id]
		home, ok := e.planets[u.PlanetID]
		if !ok {
			continue
		}
		u.Update(home.Pos, dt, &e.tuning)
	}
}

// resolveCollisions runs the unit-unit pass and the unit-planet pass. Each
// unit takes part in at most one unit-unit collision and one planet contact
// per tick. A unit that dies in the unit-unit pass still lands its planet
// hit. Candidates are scanned in insertion order so the first match is
// stable across runs.
func (e *Engine) resolveCollisions() {
	live := e.Units()
	if len(live) == 0 {
		return
	}
	qt := BuildQuadtree(live, e.tuning.QuadCapacity, e.tuning.QuadMargin)
	dead := make(map[string]bool)
	destroyed := 0
	var buf []*Unit

	for _, u := range live {
		if dead[u.ID] {
			continue
		}
		buf = qt.Query(RectAround(u.Pos, e.tuning.CollisionWindow), buf[:0])
		sort.Slice(buf, func(i, j int) bool {
			return e.unitSeq[buf[i].ID] < e.unitSeq[buf[j].ID]
		})
		killed := false
		for _, c := range buf {
			if c == u || dead[c.ID] || c.Owner == u.Owner {
				continue
			}
			if u.CollidesWith(c, e.tuning.UnitCollision) {
				dead[u.ID] = true
				dead[c.ID] = true
				e.RemoveUnit(u.ID)
				e.RemoveUnit(c.ID)
				destroyed += 2
				killed = true
				break
			}
		}

		for _, pid := range e.planetOrder {
			p := e.planets[pid]
			if !InPlanetContact(u.Pos, p, e.tuning.PlanetContact) {
				continue
			}
			before := p.Owner
			if p.HandleUnitCollision(u, e.tuning.ClaimStep, e.colors.Neutral()) && !killed {
				dead[u.ID] = true
				e.RemoveUnit(u.ID)
				destroyed++
			}
			e.notePlanetChange(p, before, u.Owner)
			break
		}
	}

	if destroyed > 0 {
		e.events = append(e.events, EngineEvent{Kind: EventUnitsDestroyed, Count: destroyed, Time: e.currentTime})
	}
}

func (e *Engine) notePlanetChange(p *Planet, before, by PlayerID) {
	if p.Owner == before {
		return
	}
	kind := EventPlanetCaptured
	if p.Owner == NeutralID {
		kind = EventPlanetNeutralized
	}
	e.events = append(e.events, EngineEvent{Kind: kind, PlanetID: p.ID, Team: by, Time: e.currentTime})
}

// produceUnits runs after collisions so new units sit out this tick.
func (e *Engine) produceUnits(now int64) {
	roster := make(map[string]int, len(e.planets))
	for _, u := range e.units {
		roster[u.PlanetID]++
	}
	for _, pid := range e.planetOrder {
		p := e.planets[pid]
		if p.Owner == NeutralID {
			continue
		}
		id := fmt.Sprintf("unit_%s_%d_%d", p.ID, now, e.nextSeq+1)
		if u := p.Produce(now, roster[pid], id, e.tuning.OrbitGap); u != nil {
			e.AddUnit(u)
			roster[pid]++
		}
	}
}

// Owners returns the distinct positive owners across all planets
func (e *Engine) Owners() []PlayerID {
	seen := make(map[PlayerID]bool)
	var out []PlayerID
	for _, id := range e.planetOrder {
		o := e.planets[id].Owner
		if o > NeutralID && !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	return out
}

// checkWinner returns the sole remaining owner once the win guard has passed.
// There is no draw: a map that never consolidates never produces a winner.
func (e *Engine) checkWinner() PlayerID {
	if e.Elapsed() <= e.tuning.WinGuardMs {
		return NeutralID
	}
	owners := e.Owners()
	if len(owners) != 1 {
		return NeutralID
	}
	return owners[0]
}

// GameState serializes the current state without advancing it
func (e *Engine) GameState() GameState {
	byPlanet := make(map[string][]UnitData, len(e.planets))
	for _, id := range e.unitOrder {
		u := e.units[id]
		byPlanet[u.PlanetID] = append(byPlanet[u.PlanetID], u.ToData())
	}
	state := GameState{
		Time:    e.currentTime,
		Planets: make([]PlanetData, 0, len(e.planetOrder)),
	}
	for _, id := range e.planetOrder {
		state.Planets = append(state.Planets, e.planets[id].ToData(byPlanet[id]))
	}
	return state
}
