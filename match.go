package main

import "sort"

// MatchPhase represents the lifecycle of a room
type MatchPhase int

const (
	PhaseLobby   MatchPhase = 0
	PhasePlaying MatchPhase = 1
)

func (p MatchPhase) String() string {
	if p == PhasePlaying {
		return "playing"
	}
	return "lobby"
}

// maxTeams bounds team ids a player may pick
const maxTeams = 8

// Seat is one connected player in a room
type Seat struct {
	ID     string
	Name   string
	Team   PlayerID
	Color  Color
	Ready  bool
	Binary bool  // wants msgpack state frames
	AuthID int64 // 0 = guest
	client Broadcaster
}

// MatchStats accumulates per-team counters during a match
type MatchStats struct {
	Captures  map[PlayerID]int
	Destroyed int
}

func newMatchStats() MatchStats {
	return MatchStats{Captures: make(map[PlayerID]int)}
}

// apply folds engine events into the counters
func (ms *MatchStats) apply(events []EngineEvent) {
	for _, ev := range events {
		switch ev.Kind {
		case EventPlanetCaptured:
			ms.Captures[ev.Team]++
		case EventUnitsDestroyed:
			ms.Destroyed += ev.Count
		}
	}
}

// lowestFreeTeam returns the smallest team id no seat holds, or 0 if all
// team ids are taken
func lowestFreeTeam(seats map[string]*Seat) PlayerID {
	taken := make(map[PlayerID]bool, len(seats))
	for _, s := range seats {
		taken[s.Team] = true
	}
	for t := PlayerID(1); t <= maxTeams; t++ {
		if !taken[t] {
			return t
		}
	}
	return NeutralID
}

// teamHeldByOthers reports whether a seat other than except is on team
func teamHeldByOthers(seats map[string]*Seat, team PlayerID, except string) *Seat {
	for id, s := range seats {
		if id != except && s.Team == team {
			return s
		}
	}
	return nil
}

// mapPlayers collapses seats into one map player per team, ordered by team id
func mapPlayers(seats map[string]*Seat) []MapPlayer {
	byTeam := make(map[PlayerID]Color)
	for _, s := range seats {
		if _, ok := byTeam[s.Team]; !ok {
			byTeam[s.Team] = s.Color
		}
	}
	out := make([]MapPlayer, 0, len(byTeam))
	for team, color := range byTeam {
		out = append(out, MapPlayer{Team: team, Color: color})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Team < out[j].Team })
	return out
}

// sortedSeats returns seats ordered by team then name
func sortedSeats(seats map[string]*Seat) []*Seat {
	out := make([]*Seat, 0, len(seats))
	for _, s := range seats {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Team != out[j].Team {
			return out[i].Team < out[j].Team
		}
		return out[i].Name < out[j].Name
	})
	return out
}
