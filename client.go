package main

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 16384
	sendBufSize       = 256
	maxMessagesPerSec = 50
	maxNameLen        = 16
	maxRoomNameLen    = 30
	maxUnitsPerMove   = 500
)

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	seatID     string
	sessionID  string
	remoteAddr string
	limiter    *rate.Limiter
	// Auth state
	authPlayerID int64  // 0 = unauthenticated/guest
	authUsername string // "" = unauthenticated
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
		limiter:    rate.NewLimiter(maxMessagesPerSec, maxMessagesPerSec),
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		if !c.limiter.Allow() {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		if msgType != websocket.TextMessage {
			continue
		}
		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// 0xFF prefix from SendBinary marks a binary frame
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with 0xFF marker byte so WritePump can distinguish from text.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return
	}

	switch env.T {
	case MsgList:
		c.handleList()
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgLeave:
		c.handleLeave()
	case MsgReady:
		c.handleReady(env.D)
	case MsgMap:
		c.handleMap(env.D)
	case MsgColor:
		c.handleColor(env.D)
	case MsgTeam:
		c.handleTeam(env.D)
	case MsgMove:
		c.handleMove(env.D)
	case MsgMoveUnit:
		c.handleMoveUnit(env.D)
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgProfile:
		c.handleProfile()
	case MsgPing:
		c.SendJSON(Envelope{T: MsgPong, Data: map[string]int64{"time": time.Now().UnixMilli()}})
	}
}

func truncateName(name, fallback string, max int) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fallback
	}
	if len(name) > max {
		name = name[:max]
	}
	return name
}

func (c *Client) session() *Session {
	if c.sessionID == "" || c.seatID == "" {
		return nil
	}
	return c.hub.sessions.GetSession(c.sessionID)
}

func (c *Client) handleList() {
	c.SendJSON(Envelope{T: MsgSessions, Data: c.hub.sessions.ListSessions()})
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	rname := truncateName(msg.RoomName, "Lux Arena", maxRoomNameLen)
	sess := c.hub.sessions.CreateSession(rname, msg.Map)
	if sess == nil {
		c.sendError("too many active sessions")
		return
	}
	if c.hub.analytics != nil {
		c.hub.analytics.SetActiveSessions(c.hub.sessions.Count())
	}
	c.SendJSON(Envelope{T: MsgCreated, Data: map[string]string{"sid": sess.ID}})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if c.sessionID != "" {
		c.handleLeave()
	}
	name := msg.Name
	if c.authUsername != "" && strings.TrimSpace(name) == "" {
		name = c.authUsername
	}
	name = truncateName(name, "Commander", maxNameLen)

	sess := c.hub.sessions.GetSession(msg.RoomID)
	if sess == nil {
		c.sendError("session not found")
		return
	}
	seat, err := sess.Game.AddPlayer(name, c, msg.Binary, c.authPlayerID)
	if err == errRoomClosed {
		c.sendError("session not found")
		return
	}
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.seatID = seat.ID
	c.sessionID = sess.ID
	if c.hub.analytics != nil {
		c.hub.analytics.Track(EvtSessionStart, c.authPlayerID, sess.ID, "")
	}
	c.SendJSON(Envelope{T: MsgJoined, Data: JoinedMsg{RoomID: sess.ID, Team: seat.Team, Color: seat.Color}})
}

func (c *Client) handleLeave() {
	if c.sessionID == "" {
		return
	}
	if c.hub.analytics != nil {
		c.hub.analytics.Track(EvtSessionEnd, c.authPlayerID, c.sessionID, "")
	}
	c.hub.sessions.RemovePlayer(c.sessionID, c.seatID)
	c.sessionID = ""
	c.seatID = ""
}

func (c *Client) handleReady(data json.RawMessage) {
	sess := c.session()
	if sess == nil {
		return
	}
	msg := ReadyMsg{Ready: true}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
	}
	if err := sess.Game.SetReady(c.seatID, msg.Ready); err != nil && err != errInProgress {
		// start failures are already broadcast to the room
		log.Printf("room %s: ready: %v", sess.ID, err)
	}
}

func (c *Client) handleMap(data json.RawMessage) {
	sess := c.session()
	if sess == nil {
		return
	}
	var msg MapMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if err := sess.Game.SetMap(c.seatID, msg.Map); err != nil {
		c.sendError(err.Error())
	}
}

func (c *Client) handleColor(data json.RawMessage) {
	sess := c.session()
	if sess == nil {
		return
	}
	var msg ColorMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess.Game.SetColor(c.seatID, msg.Color)
}

func (c *Client) handleTeam(data json.RawMessage) {
	sess := c.session()
	if sess == nil {
		return
	}
	var msg TeamMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if err := sess.Game.SetTeam(c.seatID, msg.Team); err != nil {
		c.sendError(err.Error())
	}
}

func (c *Client) handleMove(data json.RawMessage) {
	sess := c.session()
	if sess == nil {
		return
	}
	var msg MoveMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if len(msg.UnitIDs) == 0 || len(msg.UnitIDs) > maxUnitsPerMove {
		return
	}
	sess.Game.MoveUnits(c.seatID, msg.UnitIDs, msg.Target)
}

func (c *Client) handleMoveUnit(data json.RawMessage) {
	sess := c.session()
	if sess == nil {
		return
	}
	var msg MoveUnitMsg
	if err := json.Unmarshal(data, &msg); err != nil || msg.UnitID == "" {
		return
	}
	sess.Game.MoveUnits(c.seatID, []string{msg.UnitID}, msg.Target)
}

func (c *Client) authenticated(id Identity) {
	c.authPlayerID = id.PlayerID
	c.authUsername = id.Username
	c.hub.SetOnline(id.PlayerID, c)
	if c.hub.analytics != nil {
		c.hub.analytics.Track(EvtLogin, id.PlayerID, "", "")
	}
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    id.Token,
		Username: id.Username,
		PlayerID: id.PlayerID,
	}})
}

func (c *Client) handleRegister(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts disabled")
		return
	}
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, err := c.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.authenticated(id)
}

func (c *Client) handleLogin(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts disabled")
		return
	}
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.authenticated(id)
}

func (c *Client) handleAuth(data json.RawMessage) {
	if c.hub.auth == nil {
		c.sendError("accounts disabled")
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.authenticated(id)
}

func (c *Client) handleProfile() {
	if c.hub.db == nil || c.authPlayerID == 0 {
		c.sendError("not authenticated")
		return
	}
	stats, err := c.hub.db.GetStats(c.authPlayerID)
	if err != nil || stats == nil {
		c.sendError("profile not found")
		return
	}
	c.SendJSON(Envelope{T: MsgProfile, Data: ProfileDataMsg{
		Username: c.authUsername,
		Games:    stats.Games,
		Wins:     stats.Wins,
		Losses:   stats.Losses,
		Captures: stats.Captures,
	}})
}
