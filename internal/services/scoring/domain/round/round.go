// Package round holds the value types shared by pairing and settlement:
// modes, teams, court layouts, scores and immutable round records.
package round

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/courtside/internal/platform/errors"
)

// Mode identifies one of the three independent scoring ledgers.
type Mode string

const (
	ModeMatch     Mode = "match"
	ModeAmericano Mode = "americano"
	ModeMexicano  Mode = "mexicano"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeMatch, ModeAmericano, ModeMexicano}

// ParseMode validates a mode name. Matching is case-insensitive.
func ParseMode(value string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(value)))
	switch mode {
	case ModeMatch, ModeAmericano, ModeMexicano:
		return mode, nil
	}
	return "", apperrors.WithMetadata(apperrors.CodeInvalidMode, "unknown mode", map[string]string{"Mode": value})
}

// Social reports whether the mode uses generated layouts and social scoring.
func (m Mode) Social() bool {
	return m == ModeAmericano || m == ModeMexicano
}

// Match scoring kinds recorded with fixed matches. Informational only.
const (
	KindClassic = "classic"
	KindRace    = "race"
)

// Team is an ordered pair of player ids.
type Team []string

// Has reports whether id plays on the team.
func (t Team) Has(id string) bool {
	for _, member := range t {
		if member == id {
			return true
		}
	}
	return false
}

// Valid reports whether the team holds exactly two distinct, non-empty ids.
func (t Team) Valid() bool {
	return len(t) == 2 && t[0] != "" && t[1] != "" && t[0] != t[1]
}

// Partner returns the other member of the team.
func (t Team) Partner(id string) (string, bool) {
	if !t.Valid() || !t.Has(id) {
		return "", false
	}
	if t[0] == id {
		return t[1], true
	}
	return t[0], true
}

// Overlaps reports whether the two teams share a player.
func (t Team) Overlaps(other Team) bool {
	for _, id := range t {
		if other.Has(id) {
			return true
		}
	}
	return false
}

// Court is a tentative court assignment before scores are known.
type Court struct {
	A Team `json:"a"`
	B Team `json:"b"`
}

// Players returns all four ids on the court, team A first.
func (c Court) Players() []string {
	ids := make([]string, 0, len(c.A)+len(c.B))
	ids = append(ids, c.A...)
	return append(ids, c.B...)
}

// Score is the pair of team scores for one court.
type Score struct {
	A int `json:"a"`
	B int `json:"b"`
}

// CourtResult is a court with its final score.
type CourtResult struct {
	A     Team  `json:"a"`
	B     Team  `json:"b"`
	Score Score `json:"score"`
}

// Side returns the player's own team, the opposing team and the scores seen
// from the player's side.
func (r CourtResult) Side(id string) (own, opponents Team, scored, conceded int, ok bool) {
	switch {
	case r.A.Has(id):
		return r.A, r.B, r.Score.A, r.Score.B, true
	case r.B.Has(id):
		return r.B, r.A, r.Score.B, r.Score.A, true
	}
	return nil, nil, 0, 0, false
}

// Record is an immutable, committed round.
type Record struct {
	ID     string        `json:"id"`
	Date   time.Time     `json:"date"`
	Mode   Mode          `json:"mode"`
	Kind   string        `json:"kind,omitempty"`
	Courts []CourtResult `json:"courts"`
}

// Prepend returns a new history with rec first.
func Prepend(history []Record, rec Record) []Record {
	next := make([]Record, 0, len(history)+1)
	next = append(next, rec)
	return append(next, history...)
}
