// Package settlement turns scored courts into ledger deltas, partnership
// updates and round records. Validation always runs before anything is
// folded, so a rejected commit leaves the board exactly as it was.
package settlement

import (
	"strconv"
	"time"

	apperrors "github.com/louisbranch/courtside/internal/platform/errors"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/ledger"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/partnership"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/round"
)

// WinnerPoints is awarded to each player on the winning team of a fixed match.
const WinnerPoints = 3

// Board is the committed state of one mode: history, totals and, for
// Americano only, partnership memory.
type Board struct {
	Matches  []round.Record     `json:"matches"`
	Totals   ledger.Totals      `json:"totals"`
	Partners partnership.Memory `json:"partners,omitempty"`
}

// NewBoard returns an empty board for mode.
func NewBoard(mode round.Mode) Board {
	b := Board{Matches: []round.Record{}, Totals: ledger.Totals{}}
	if mode == round.ModeAmericano {
		b.Partners = partnership.Memory{}
	}
	return b
}

// Stamp carries the identity and time assigned to a new record.
type Stamp struct {
	ID   string
	Date time.Time
}

// Outcome is the result of a successful settlement.
type Outcome struct {
	Board  Board
	Record round.Record
	Delta  ledger.Totals
}

// SocialDelta credits every player with their own team's score. Ties and
// zero scores are allowed.
func SocialDelta(results []round.CourtResult) ledger.Totals {
	delta := ledger.Totals{}
	for _, r := range results {
		for _, id := range r.A {
			delta[id] += r.Score.A
		}
		for _, id := range r.B {
			delta[id] += r.Score.B
		}
	}
	return delta
}

// MatchDelta awards WinnerPoints to each winner. Losers receive nothing.
func MatchDelta(result round.CourtResult) (ledger.Totals, error) {
	if result.Score.A == result.Score.B {
		return nil, apperrors.New(apperrors.CodeUndeterminedWinner, "fixed match scores are equal")
	}
	winners := result.A
	if result.Score.B > result.Score.A {
		winners = result.B
	}
	delta := ledger.Totals{}
	for _, id := range winners {
		delta[id] += WinnerPoints
	}
	return delta, nil
}

// ScoreLayout pairs each tentative court with its score in slot order.
func ScoreLayout(layout []round.Court, scores []round.Score) ([]round.CourtResult, error) {
	if len(layout) == 0 {
		return nil, apperrors.New(apperrors.CodeNoLayout, "no tentative layout to commit")
	}
	if len(scores) != len(layout) {
		return nil, apperrors.WithMetadata(apperrors.CodeLayoutMismatch, "court score count does not match layout", map[string]string{
			"Expected": strconv.Itoa(len(layout)),
			"Got":      strconv.Itoa(len(scores)),
		})
	}
	results := make([]round.CourtResult, len(layout))
	for i, court := range layout {
		if err := validateTeams(court.A, court.B); err != nil {
			return nil, err
		}
		if err := validateScore(scores[i]); err != nil {
			return nil, err
		}
		results[i] = round.CourtResult{
			A:     append(round.Team(nil), court.A...),
			B:     append(round.Team(nil), court.B...),
			Score: scores[i],
		}
	}
	return results, nil
}

// MatchLayout checks that the submitted courts are the tentative layout,
// slot by slot and side by side, and returns their scores in slot order.
// Partners may be listed in either order within a team.
func MatchLayout(layout []round.Court, courts []round.CourtResult) ([]round.Score, error) {
	if len(layout) == 0 {
		return nil, apperrors.New(apperrors.CodeNoLayout, "no tentative layout to commit")
	}
	if len(courts) != len(layout) {
		return nil, apperrors.WithMetadata(apperrors.CodeLayoutMismatch, "court count does not match layout", map[string]string{
			"Expected": strconv.Itoa(len(layout)),
			"Got":      strconv.Itoa(len(courts)),
		})
	}
	scores := make([]round.Score, len(layout))
	for i, court := range layout {
		if !sameTeam(court.A, courts[i].A) || !sameTeam(court.B, courts[i].B) {
			return nil, apperrors.WithMetadata(apperrors.CodeLayoutMismatch, "court does not match the tentative layout", map[string]string{
				"Court": strconv.Itoa(i + 1),
			})
		}
		scores[i] = courts[i].Score
	}
	return scores, nil
}

func sameTeam(want, got round.Team) bool {
	if len(want) != len(got) {
		return false
	}
	for _, id := range got {
		if !want.Has(id) {
			return false
		}
	}
	return true
}

// SettleSocial commits a scored Americano or Mexicano round.
func SettleSocial(board Board, mode round.Mode, layout []round.Court, scores []round.Score, stamp Stamp) (Outcome, error) {
	if !mode.Social() {
		return Outcome{}, apperrors.WithMetadata(apperrors.CodeInvalidMode, "mode is not social", map[string]string{"Mode": string(mode)})
	}
	results, err := ScoreLayout(layout, scores)
	if err != nil {
		return Outcome{}, err
	}

	delta := SocialDelta(results)
	rec := round.Record{ID: stamp.ID, Date: stamp.Date, Mode: mode, Courts: results}
	next := Board{
		Matches:  round.Prepend(board.Matches, rec),
		Totals:   ledger.Apply(board.Totals, delta),
		Partners: board.Partners,
	}
	if mode == round.ModeAmericano {
		next.Partners = partnership.Record(board.Partners, results)
	}
	return Outcome{Board: next, Record: rec, Delta: delta}, nil
}

// SettleMatch commits a fixed 2v2 match. kind defaults to classic.
func SettleMatch(board Board, teamA, teamB round.Team, score round.Score, kind string, stamp Stamp) (Outcome, error) {
	if err := validateTeams(teamA, teamB); err != nil {
		return Outcome{}, err
	}
	if err := validateScore(score); err != nil {
		return Outcome{}, err
	}
	switch kind {
	case "":
		kind = round.KindClassic
	case round.KindClassic, round.KindRace:
	default:
		return Outcome{}, apperrors.WithMetadata(apperrors.CodeInvalidMode, "unknown match kind", map[string]string{"Mode": kind})
	}

	result := round.CourtResult{
		A:     append(round.Team(nil), teamA...),
		B:     append(round.Team(nil), teamB...),
		Score: score,
	}
	delta, err := MatchDelta(result)
	if err != nil {
		return Outcome{}, err
	}

	rec := round.Record{ID: stamp.ID, Date: stamp.Date, Mode: round.ModeMatch, Kind: kind, Courts: []round.CourtResult{result}}
	next := Board{
		Matches:  round.Prepend(board.Matches, rec),
		Totals:   ledger.Apply(board.Totals, delta),
		Partners: board.Partners,
	}
	return Outcome{Board: next, Record: rec, Delta: delta}, nil
}

func validateTeams(a, b round.Team) error {
	if !a.Valid() || !b.Valid() || a.Overlaps(b) {
		return apperrors.New(apperrors.CodeInvalidTeamSelection, "teams must be two disjoint pairs")
	}
	return nil
}

func validateScore(s round.Score) error {
	if s.A < 0 || s.B < 0 {
		return apperrors.New(apperrors.CodeInvalidScore, "scores must be non-negative")
	}
	return nil
}
