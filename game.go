package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const maxPlayersPerSession = 8

var (
	errRoomFull      = errors.New("room full")
	errInProgress    = errors.New("game in progress")
	errUnknownMap    = errors.New("unknown map")
	errBadTeam       = errors.New("invalid team")
	errNotInRoom     = errors.New("not in room")
	errNotEnoughTeam = errors.New("need at least two teams")
	errRoomClosed    = errors.New("room closed")
)

// Broadcaster interface for sending messages to clients
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// GameOptions wires a room to its collaborators. Only Catalog is required.
type GameOptions struct {
	Catalog   *MapCatalog
	Tuning    Tuning
	MapID     string
	DB        *DB
	Analytics *Analytics
	RecordDir string
	Clock     func() time.Time
}

// Game is one room: a lobby that turns into a running engine once every
// player is ready, and back into a lobby when someone wins. All engine access
// goes through mu.
type Game struct {
	mu        sync.Mutex
	id        string
	catalog   *MapCatalog
	tuning    Tuning
	colors    ColorRegistry
	mapID     string
	phase     MatchPhase
	seats     map[string]*Seat
	engine    *Engine
	stats     MatchStats
	startedAt time.Time
	tick      uint64
	clock     func() time.Time

	db        *DB
	analytics *Analytics
	recorder  *Recorder

	stop     chan struct{}
	stopOnce sync.Once
}

// NewGame creates a room in the lobby phase
func NewGame(id string, opts GameOptions) *Game {
	tuning := opts.Tuning.withDefaults()
	g := &Game{
		id:        id,
		catalog:   opts.Catalog,
		tuning:    tuning,
		colors:    tuning.Palette,
		mapID:     opts.MapID,
		seats:     make(map[string]*Seat),
		clock:     opts.Clock,
		db:        opts.DB,
		analytics: opts.Analytics,
		stop:      make(chan struct{}),
	}
	if g.clock == nil {
		g.clock = time.Now
	}
	if g.mapID == "" || g.catalog == nil || !g.catalog.Has(g.mapID) {
		g.mapID = DefaultMapID
	}
	if opts.RecordDir != "" {
		g.recorder = NewRecorder(opts.RecordDir, id)
	}
	return g
}

// Run starts the tick loop. Ticks are no-ops outside the playing phase.
func (g *Game) Run() {
	ticker := time.NewTicker(g.tuning.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.Tick()
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the tick loop and closes any open recording
func (g *Game) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.recorder != nil {
		if err := g.recorder.Close(); err != nil {
			log.Printf("room %s: recorder close: %v", g.id, err)
		}
	}
}

// closeIfEmpty stops the room when no seat is left. Joins racing with it
// either land first and keep the room open, or see errRoomClosed.
func (g *Game) closeIfEmpty() bool {
	g.mu.Lock()
	if len(g.seats) > 0 {
		g.mu.Unlock()
		return false
	}
	g.stopOnce.Do(func() { close(g.stop) })
	g.mu.Unlock()
	g.Stop()
	return true
}

// AddPlayer seats a new player on the lowest free team
func (g *Game) AddPlayer(name string, client Broadcaster, binary bool, authID int64) (*Seat, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	select {
	case <-g.stop:
		return nil, errRoomClosed
	default:
	}
	if g.phase == PhasePlaying {
		return nil, errInProgress
	}
	if len(g.seats) >= maxPlayersPerSession {
		return nil, errRoomFull
	}
	team := lowestFreeTeam(g.seats)
	if team == NeutralID {
		return nil, errRoomFull
	}
	s := &Seat{
		ID:     GenerateID(4),
		Name:   name,
		Team:   team,
		Color:  g.colors.TeamColor(team),
		Binary: binary,
		AuthID: authID,
		client: client,
	}
	g.seats[s.ID] = s
	g.broadcastLobby()
	seat := *s
	return &seat, nil
}

// RemovePlayer drops a seat. Entities the player owns stay in the match.
func (g *Game) RemovePlayer(seatID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.seats[seatID]; !ok {
		return
	}
	delete(g.seats, seatID)
	g.broadcastLobby()
}

// PlayerCount returns the number of seated players
func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seats)
}

// HasPlayer reports whether seatID is in the room
func (g *Game) HasPlayer(seatID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.seats[seatID]
	return ok
}

// Phase returns the current room phase
func (g *Game) Phase() MatchPhase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// MapID returns the selected map
func (g *Game) MapID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mapID
}

// Seat returns a copy of a seat
func (g *Game) Seat(seatID string) (Seat, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.seats[seatID]
	if !ok {
		return Seat{}, false
	}
	return *s, true
}

// SetReady flips the ready flag and starts the game once everyone is ready
func (g *Game) SetReady(seatID string, ready bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.seats[seatID]
	if !ok {
		return errNotInRoom
	}
	if g.phase == PhasePlaying {
		return errInProgress
	}
	s.Ready = ready
	g.broadcastLobby()
	if g.allReady() {
		return g.startLocked()
	}
	return nil
}

// SetMap selects the map for the next game
func (g *Game) SetMap(seatID, mapID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.seats[seatID]; !ok {
		return errNotInRoom
	}
	if g.phase == PhasePlaying {
		return errInProgress
	}
	if g.catalog == nil || !g.catalog.Has(mapID) {
		return errUnknownMap
	}
	g.mapID = mapID
	g.broadcastLobby()
	return nil
}

// SetColor changes a player's color, recoloring their entities in place
// when a match is running
func (g *Game) SetColor(seatID string, color Color) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.seats[seatID]
	if !ok {
		return errNotInRoom
	}
	color &= 0xffffff
	for _, other := range g.seats {
		if other.Team == s.Team {
			other.Color = color
		}
	}
	if g.engine != nil {
		g.engine.RecolorOwner(s.Team, color)
	}
	g.broadcastLobby()
	return nil
}

// SetTeam moves a player to another team. A player joining a held team takes
// that team's color. If the player was the last one on the old team during a
// match, the old team's entities are handed over.
func (g *Game) SetTeam(seatID string, team PlayerID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.seats[seatID]
	if !ok {
		return errNotInRoom
	}
	if team <= NeutralID || team > maxTeams {
		return errBadTeam
	}
	if team == s.Team {
		return nil
	}
	old := s.Team
	color := g.colors.TeamColor(team)
	if mate := teamHeldByOthers(g.seats, team, seatID); mate != nil {
		color = mate.Color
	}
	s.Team = team
	s.Color = color
	if g.engine != nil && teamHeldByOthers(g.seats, old, seatID) == nil {
		g.engine.ReassignOwner(old, team, color)
	}
	g.broadcastLobby()
	return nil
}

// MoveUnits forwards a move command with the seat's team as requester
func (g *Game) MoveUnits(seatID string, unitIDs []string, target Position) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.seats[seatID]
	if !ok || g.engine == nil {
		return false
	}
	return g.engine.MoveUnits(unitIDs, target, s.Team)
}

// State returns the current snapshot, or false outside a match
func (g *Game) State() (GameState, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.engine == nil {
		return GameState{}, false
	}
	return g.engine.GameState(), true
}

// Info summarizes the room for listings
func (g *Game) Info() (mapID string, players int, playing bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mapID, len(g.seats), g.phase == PhasePlaying
}

func (g *Game) allReady() bool {
	if len(g.seats) < 2 {
		return false
	}
	for _, s := range g.seats {
		if !s.Ready {
			return false
		}
	}
	return true
}

// startLocked generates the map and switches to the playing phase. On
// failure the room stays in the lobby.
func (g *Game) startLocked() error {
	players := mapPlayers(g.seats)
	if len(players) < 2 {
		g.broadcastMsg(Envelope{T: MsgError, Data: ErrorMsg{Msg: errNotEnoughTeam.Error()}})
		return errNotEnoughTeam
	}
	now := g.clock()
	engine := NewEngine(g.tuning, g.colors, now.UnixMilli())
	if g.catalog == nil || !g.catalog.Generate(g.mapID, engine, players) {
		err := fmt.Errorf("map %s cannot host %d teams", g.mapID, len(players))
		g.broadcastMsg(Envelope{T: MsgError, Data: ErrorMsg{Msg: err.Error()}})
		return err
	}

	g.engine = engine
	g.phase = PhasePlaying
	g.stats = newMatchStats()
	g.startedAt = now
	g.tick = 0
	if g.recorder != nil {
		if err := g.recorder.Start(g.mapID, now.UnixMilli()); err != nil {
			log.Printf("room %s: recorder: %v", g.id, err)
		}
	}
	if g.analytics != nil {
		g.analytics.Track(EvtMatchStart, 0, g.id, fmt.Sprintf(`{"map":%q,"teams":%d}`, g.mapID, len(players)))
	}
	log.Printf("room %s: game started on %s with %d teams", g.id, g.mapID, len(players))

	g.broadcastMsg(Envelope{T: MsgStart, Data: StartMsg{Map: g.mapID, State: engine.GameState()}})
	g.broadcastLobby()
	return nil
}

// Tick advances the running match by one step and broadcasts the snapshot
func (g *Game) Tick() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhasePlaying || g.engine == nil {
		return
	}

	g.tick++
	state := g.engine.Update(g.clock().UnixMilli())
	events := g.engine.DrainEvents()
	g.stats.apply(events)
	g.trackEvents(events)

	if g.recorder != nil {
		if err := g.recorder.Write(RecordEntry{Tick: g.tick, Events: events, State: state}); err != nil {
			log.Printf("room %s: recorder: %v", g.id, err)
		}
	}
	g.broadcastState(state)

	if state.Winner != NeutralID {
		g.finishLocked(state.Winner)
	}
}

func (g *Game) trackEvents(events []EngineEvent) {
	if g.analytics == nil {
		return
	}
	for _, ev := range events {
		if ev.Kind == EventUnitsDestroyed {
			continue
		}
		g.analytics.Track(string(ev.Kind), 0, g.id, fmt.Sprintf(`{"planet":%q,"team":%d}`, ev.PlanetID, ev.Team))
	}
}

// finishLocked announces the winner, records the result and returns to lobby
func (g *Game) finishLocked(winner PlayerID) {
	duration := g.clock().Sub(g.startedAt).Seconds()
	log.Printf("room %s: team %d wins after %.1fs", g.id, winner, duration)

	g.broadcastMsg(Envelope{T: MsgGameOver, Data: GameOverMsg{Winner: winner, Duration: duration}})
	g.recordResult(winner, duration)
	if g.analytics != nil {
		g.analytics.Track(EvtMatchEnd, 0, g.id, fmt.Sprintf(`{"map":%q,"winner":%d,"duration":%.1f}`, g.mapID, winner, duration))
	}
	if g.recorder != nil {
		if err := g.recorder.Close(); err != nil {
			log.Printf("room %s: recorder close: %v", g.id, err)
		}
	}

	g.engine = nil
	g.phase = PhaseLobby
	for _, s := range g.seats {
		s.Ready = false
	}
	g.broadcastLobby()
}

func (g *Game) recordResult(winner PlayerID, duration float64) {
	if g.db == nil {
		return
	}
	matchID, err := g.db.RecordMatch(g.mapID, duration, winner)
	if err != nil {
		log.Printf("room %s: record match: %v", g.id, err)
		return
	}
	for _, s := range g.seats {
		if s.AuthID == 0 {
			continue
		}
		won := s.Team == winner
		captures := g.stats.Captures[s.Team]
		if err := g.db.RecordMatchPlayer(matchID, s.AuthID, s.Team, won, captures); err != nil {
			log.Printf("room %s: record player %d: %v", g.id, s.AuthID, err)
		}
		if err := g.db.UpdateStatsAfterMatch(s.AuthID, won, captures); err != nil {
			log.Printf("room %s: update stats %d: %v", g.id, s.AuthID, err)
		}
	}
}

// broadcastState sends the snapshot as JSON, or msgpack to binary clients
func (g *Game) broadcastState(state GameState) {
	data, err := json.Marshal(Envelope{T: MsgState, Data: state})
	if err != nil {
		return
	}
	var bin []byte
	for _, s := range g.seats {
		if s.client == nil {
			continue
		}
		if !s.Binary {
			if c, ok := s.client.(*Client); ok {
				c.SendRaw(data)
			} else {
				s.client.SendJSON(Envelope{T: MsgState, Data: state})
			}
			continue
		}
		if bin == nil {
			if bin, err = msgpack.Marshal(&state); err != nil {
				log.Printf("room %s: msgpack: %v", g.id, err)
				return
			}
		}
		s.client.SendBinary(bin)
	}
}

func (g *Game) lobbyView() LobbyMsg {
	msg := LobbyMsg{RoomID: g.id, Map: g.mapID, Playing: g.phase == PhasePlaying}
	for _, s := range sortedSeats(g.seats) {
		msg.Players = append(msg.Players, LobbyPlayer{Name: s.Name, Team: s.Team, Color: s.Color, Ready: s.Ready})
	}
	return msg
}

func (g *Game) broadcastLobby() {
	g.broadcastMsg(Envelope{T: MsgLobby, Data: g.lobbyView()})
}

// broadcastMsg sends a message to all clients in the room
func (g *Game) broadcastMsg(msg Envelope) {
	for _, s := range g.seats {
		if s.client != nil {
			s.client.SendJSON(msg)
		}
	}
}
