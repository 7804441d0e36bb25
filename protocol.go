package main

import "encoding/json"

// Client -> Server message types
const (
	MsgList     = "list"   // list rooms
	MsgCreate   = "create" // create room
	MsgJoin     = "join"
	MsgLeave    = "leave"
	MsgReady    = "ready"
	MsgMap      = "map"   // pick map (lobby)
	MsgColor    = "color" // pick color
	MsgTeam     = "team"  // switch team
	MsgMove     = "move"  // move a selection of units
	MsgMoveUnit = "moveUnit"
	MsgRegister = "register"
	MsgLogin    = "login"
	MsgAuth     = "auth"
	MsgProfile  = "profile"
	MsgPing     = "ping"
)

// Server -> Client message types
const (
	MsgSessions = "sessions"
	MsgCreated  = "created"
	MsgJoined   = "joined"
	MsgLobby    = "lobby"
	MsgStart    = "start"
	MsgState    = "state"
	MsgGameOver = "game_over"
	MsgAuthOK   = "auth_ok"
	MsgError    = "error"
	MsgPong     = "pong"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// GameState is the full snapshot broadcast every tick
type GameState struct {
	Time    int64        `json:"time" msgpack:"time"`
	Planets []PlanetData `json:"planets" msgpack:"planets"`
	Winner  PlayerID     `json:"winner,omitempty" msgpack:"winner,omitempty"`
}

// PlanetData is the wire form of a planet and the units anchored to it
type PlanetData struct {
	ID                string     `json:"id" msgpack:"id"`
	X                 float64    `json:"x" msgpack:"x"`
	Y                 float64    `json:"y" msgpack:"y"`
	Radius            float64    `json:"radius" msgpack:"radius"`
	Color             Color      `json:"color" msgpack:"color"`
	Owner             PlayerID   `json:"owner" msgpack:"owner"`
	MaxUnits          int        `json:"maxUnits" msgpack:"maxUnits"`
	ProductionSpeed   float64    `json:"productionSpeed" msgpack:"productionSpeed"`
	Health            float64    `json:"health" msgpack:"health"`
	MaxHealth         float64    `json:"maxHealth" msgpack:"maxHealth"`
	ClaimingTeam      PlayerID   `json:"claimingTeam,omitempty" msgpack:"claimingTeam,omitempty"`
	ClaimingTeamColor Color      `json:"claimingTeamColor,omitempty" msgpack:"claimingTeamColor,omitempty"`
	ClaimingProgress  float64    `json:"claimingProgress,omitempty" msgpack:"claimingProgress,omitempty"`
	Units             []UnitData `json:"units" msgpack:"units"`
}

// UnitData is the wire form of a unit
type UnitData struct {
	ID         string    `json:"id" msgpack:"id"`
	PlanetID   string    `json:"planetId" msgpack:"planetId"`
	Angle      float64   `json:"angle" msgpack:"angle"`
	Distance   float64   `json:"distance" msgpack:"distance"`
	Color      Color     `json:"color" msgpack:"color"`
	Owner      PlayerID  `json:"owner" msgpack:"owner"`
	X          float64   `json:"x" msgpack:"x"`
	Y          float64   `json:"y" msgpack:"y"`
	Target     *Position `json:"target,omitempty" msgpack:"target,omitempty"`
	IsOrbiting bool      `json:"isOrbiting" msgpack:"isOrbiting"`
	Stats      UnitStats `json:"stats" msgpack:"stats"`
}

// CreateMsg is sent when a player wants to create a room
type CreateMsg struct {
	Name     string `json:"name"`
	RoomName string `json:"room"`
	Map      string `json:"map,omitempty"`
}

// JoinMsg is sent when a player wants to join a room. Binary asks for
// msgpack-encoded state frames.
type JoinMsg struct {
	Name   string `json:"name"`
	RoomID string `json:"sid"`
	Binary bool   `json:"binary,omitempty"`
}

// ReadyMsg toggles the lobby ready flag
type ReadyMsg struct {
	Ready bool `json:"ready"`
}

// MapMsg selects the map for the next game
type MapMsg struct {
	Map string `json:"map"`
}

// ColorMsg picks a display color
type ColorMsg struct {
	Color Color `json:"color"`
}

// TeamMsg switches to another team id
type TeamMsg struct {
	Team PlayerID `json:"team"`
}

// MoveMsg orders a set of units to a target
type MoveMsg struct {
	UnitIDs []string `json:"unitIds"`
	Target  Position `json:"target"`
}

// MoveUnitMsg orders a single unit to a target
type MoveUnitMsg struct {
	UnitID string   `json:"unitId"`
	Target Position `json:"target"`
}

// SessionInfo is used in the room list
type SessionInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Map     string `json:"map"`
	Players int    `json:"players"`
	Playing bool   `json:"playing"`
}

// JoinedMsg confirms a join and tells the client its team
type JoinedMsg struct {
	RoomID string   `json:"sid"`
	Team   PlayerID `json:"team"`
	Color  Color    `json:"color"`
}

// LobbyPlayer is one seat in the lobby view
type LobbyPlayer struct {
	Name  string   `json:"name"`
	Team  PlayerID `json:"team"`
	Color Color    `json:"color"`
	Ready bool     `json:"ready"`
}

// LobbyMsg is broadcast whenever the lobby changes
type LobbyMsg struct {
	RoomID  string        `json:"sid"`
	Map     string        `json:"map"`
	Playing bool          `json:"playing"`
	Players []LobbyPlayer `json:"players"`
}

// StartMsg announces a game start
type StartMsg struct {
	Map   string    `json:"map"`
	State GameState `json:"state"`
}

// GameOverMsg announces the winner
type GameOverMsg struct {
	Winner   PlayerID `json:"winner"`
	Duration float64  `json:"duration"` // seconds
}

// ErrorMsg carries a user-facing error
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// RegisterMsg creates an account
type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginMsg authenticates with username and password
type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMsg authenticates with a stored token
type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg is sent after any successful authentication
type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PlayerID int64  `json:"pid"`
}

// ProfileDataMsg carries account stats
type ProfileDataMsg struct {
	Username string `json:"username"`
	Games    int    `json:"games"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Captures int    `json:"captures"`
}
