package session

import (
	"fmt"
	"sort"
	"time"

	"github.com/louisbranch/courtside/internal/services/scoring/domain/roster"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/round"
)

// HistoryEntry is one court a player appeared on.
type HistoryEntry struct {
	RecordID  string     `json:"recordId"`
	Date      time.Time  `json:"date"`
	Mode      round.Mode `json:"mode"`
	Partner   string     `json:"partner"`
	Opponents []string   `json:"opponents"`
	Score     string     `json:"score"`
	Scored    int        `json:"scored"`
}

// History aggregates a player's courts across all modes, newest first.
type History struct {
	PlayerID    string         `json:"playerId"`
	Name        string         `json:"name"`
	TotalScored int            `json:"totalScored"`
	Entries     []HistoryEntry `json:"entries"`
}

// PlayerHistory collects every court the player appeared on. It works for
// removed players too; their name resolves to the unknown marker.
func PlayerHistory(s State, playerID string) History {
	var records []round.Record
	for _, mode := range round.Modes {
		records = append(records, s.Board(mode).Matches...)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})

	h := History{PlayerID: playerID, Name: roster.Name(s.Players, playerID), Entries: []HistoryEntry{}}
	for _, rec := range records {
		for _, court := range rec.Courts {
			own, opponents, scored, _, ok := court.Side(playerID)
			if !ok {
				continue
			}
			partner, _ := own.Partner(playerID)
			names := make([]string, len(opponents))
			for i, id := range opponents {
				names[i] = roster.Name(s.Players, id)
			}
			h.TotalScored += scored
			h.Entries = append(h.Entries, HistoryEntry{
				RecordID:  rec.ID,
				Date:      rec.Date,
				Mode:      rec.Mode,
				Partner:   roster.Name(s.Players, partner),
				Opponents: names,
				Score:     fmt.Sprintf("%d:%d", court.Score.A, court.Score.B),
				Scored:    scored,
			})
		}
	}
	return h
}
