package main

import (
	"encoding/json"
	"sort"

	"github.com/invopop/jsonschema"
)

// wireTypes are the payloads published at /schema, keyed by message type
var wireTypes = map[string]interface{}{
	MsgState:    &GameState{},
	MsgLobby:    &LobbyMsg{},
	MsgStart:    &StartMsg{},
	MsgGameOver: &GameOverMsg{},
	MsgJoined:   &JoinedMsg{},
	MsgMove:     &MoveMsg{},
	MsgMoveUnit: &MoveUnitMsg{},
	MsgJoin:     &JoinMsg{},
	MsgCreate:   &CreateMsg{},
}

// SchemaFor reflects the JSON Schema of one message payload
func SchemaFor(msgType string) (*jsonschema.Schema, bool) {
	v, ok := wireTypes[msgType]
	if !ok {
		return nil, false
	}
	r := &jsonschema.Reflector{Anonymous: true}
	return r.Reflect(v), true
}

// SchemaJSON returns the schema of one message payload as JSON
func SchemaJSON(msgType string) ([]byte, bool) {
	s, ok := SchemaFor(msgType)
	if !ok {
		return nil, false
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, false
	}
	return b, true
}

// SchemaTypes lists the message types that have a schema
func SchemaTypes() []string {
	out := make([]string, 0, len(wireTypes))
	for k := range wireTypes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
