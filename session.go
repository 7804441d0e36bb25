package main

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const maxSessions = 100

// Session represents a room that players can join
type Session struct {
	ID      string
	Name    string
	Game    *Game
	Created time.Time
}

// SessionManager handles creation and lookup of rooms
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     GameOptions
}

// NewSessionManager creates a manager whose rooms share opts
func NewSessionManager(opts GameOptions) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		opts:     opts,
	}
}

// Catalog returns the map catalog rooms are built from
func (sm *SessionManager) Catalog() *MapCatalog {
	return sm.opts.Catalog
}

// CreateSession creates a room and starts its loop. Returns nil if limit reached.
func (sm *SessionManager) CreateSession(name, mapID string) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= maxSessions {
		return nil
	}

	id := uuid.NewString()
	opts := sm.opts
	opts.MapID = mapID
	game := NewGame(id, opts)
	sess := &Session{
		ID:      id,
		Name:    name,
		Game:    game,
		Created: time.Now(),
	}
	sm.sessions[id] = sess
	go game.Run()
	return sess
}

// GetSession returns a room by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// RemovePlayer removes a player from a room and closes the room once empty
func (sm *SessionManager) RemovePlayer(sessionID, seatID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sess, ok := sm.sessions[sessionID]
	if !ok {
		return
	}
	sess.Game.RemovePlayer(seatID)
	if sess.Game.closeIfEmpty() {
		delete(sm.sessions, sessionID)
	}
}

// Count returns the number of open rooms
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ListSessions returns info about all rooms, ordered by name
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	list := make([]SessionInfo, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		mapID, players, playing := sess.Game.Info()
		list = append(list, SessionInfo{
			ID:      sess.ID,
			Name:    sess.Name,
			Map:     mapID,
			Players: players,
			Playing: playing,
		})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// ReapEmpty closes rooms that nobody joined within maxAge
func (sm *SessionManager) ReapEmpty(maxAge time.Duration) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	n := 0
	for id, sess := range sm.sessions {
		if time.Since(sess.Created) > maxAge && sess.Game.closeIfEmpty() {
			delete(sm.sessions, id)
			n++
		}
	}
	return n
}

// StopAll stops every room loop
func (sm *SessionManager) StopAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for id, sess := range sm.sessions {
		sess.Game.Stop()
		delete(sm.sessions, id)
	}
}
