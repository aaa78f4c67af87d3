package session

import (
	"fmt"
	"math/rand"
	"time"

	apperrors "github.com/louisbranch/courtside/internal/platform/errors"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/ledger"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/pairing"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/partnership"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/roster"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/round"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/settlement"
)

// Engine applies session operations. It owns the injected sources of
// randomness, identity and time; the state itself is always passed in.
type Engine struct {
	rng   *rand.Rand
	newID func() (string, error)
	now   func() time.Time
}

// NewEngine builds an engine. now defaults to time.Now in UTC.
func NewEngine(rng *rand.Rand, newID func() (string, error), now func() time.Time) *Engine {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{rng: rng, newID: newID, now: now}
}

// CommitResult reports what a committed social round changed.
type CommitResult struct {
	Record     round.Record
	Delta      ledger.Totals
	Totals     ledger.Totals
	Partners   partnership.Memory
	NextLayout []round.Court
}

// MatchInput describes a fixed 2v2 match result.
type MatchInput struct {
	TeamA round.Team
	TeamB round.Team
	Score round.Score
	Kind  string
}

// Restore prepares a loaded state for use and rebuilds the tentative layouts.
func (e *Engine) Restore(s State) State {
	return e.OnRosterChanged(Normalize(s))
}

// GenerateLayout replaces the tentative layout of a social mode.
func (e *Engine) GenerateLayout(s State, mode round.Mode) (State, []round.Court, error) {
	strategy, err := pairing.ForMode(mode, e.rng)
	if err != nil {
		return s, nil, err
	}
	board := s.Board(mode)
	layout := strategy.Pair(pairing.Input{
		PlayerIDs:  roster.IDs(s.Players),
		CourtCount: s.CourtCount(mode),
		Totals:     board.Totals,
		Partners:   board.Partners,
	})
	next := s.clone()
	next.Layouts[mode] = layout
	return next, layout, nil
}

// CommitRound scores the tentative layout of a social mode and immediately
// generates the next one from the updated board. courts must be the current
// layout with scores filled in; a layout replaced since it was read is
// rejected with LAYOUT_MISMATCH.
func (e *Engine) CommitRound(s State, mode round.Mode, courts []round.CourtResult) (State, CommitResult, error) {
	if !mode.Social() {
		return s, CommitResult{}, apperrors.WithMetadata(apperrors.CodeInvalidMode, "mode is not social", map[string]string{"Mode": string(mode)})
	}
	scores, err := settlement.MatchLayout(s.Layout(mode), courts)
	if err != nil {
		return s, CommitResult{}, err
	}
	stamp, err := e.stamp()
	if err != nil {
		return s, CommitResult{}, err
	}
	out, err := settlement.SettleSocial(s.Board(mode), mode, s.Layout(mode), scores, stamp)
	if err != nil {
		return s, CommitResult{}, err
	}

	next := s.clone()
	next.Boards[mode] = out.Board
	next, layout, err := e.GenerateLayout(next, mode)
	if err != nil {
		return s, CommitResult{}, err
	}
	return next, CommitResult{
		Record:     out.Record,
		Delta:      out.Delta,
		Totals:     out.Board.Totals,
		Partners:   out.Board.Partners,
		NextLayout: layout,
	}, nil
}

// CommitMatch records a fixed 2v2 match. Both teams must be roster players.
func (e *Engine) CommitMatch(s State, in MatchInput) (State, round.Record, error) {
	for _, id := range append(append([]string(nil), in.TeamA...), in.TeamB...) {
		if _, ok := roster.Lookup(s.Players, id); !ok && id != "" {
			return s, round.Record{}, apperrors.WithMetadata(apperrors.CodePlayerNotFound, "team player not on roster", map[string]string{"PlayerID": id})
		}
	}
	stamp, err := e.stamp()
	if err != nil {
		return s, round.Record{}, err
	}
	out, err := settlement.SettleMatch(s.Board(round.ModeMatch), in.TeamA, in.TeamB, in.Score, in.Kind, stamp)
	if err != nil {
		return s, round.Record{}, err
	}
	next := s.clone()
	next.Boards[round.ModeMatch] = out.Board
	return next, out.Record, nil
}

// ResetTotals clears the totals of one mode. History and partnerships stay.
func (e *Engine) ResetTotals(s State, mode round.Mode) (State, error) {
	if _, err := round.ParseMode(string(mode)); err != nil {
		return s, err
	}
	next := s.clone()
	board := next.Board(mode)
	board.Totals = ledger.Reset()
	next.Boards[mode] = board
	return next, nil
}

// ClearHistory empties the record list of one mode. Totals stay.
func (e *Engine) ClearHistory(s State, mode round.Mode) (State, error) {
	if _, err := round.ParseMode(string(mode)); err != nil {
		return s, err
	}
	next := s.clone()
	board := next.Board(mode)
	board.Matches = []round.Record{}
	next.Boards[mode] = board
	return next, nil
}

// OnRosterChanged regenerates the layouts of both social modes.
func (e *Engine) OnRosterChanged(s State) State {
	next := s
	for _, mode := range round.Modes {
		if !mode.Social() {
			continue
		}
		// Social modes always have a strategy.
		next, _, _ = e.GenerateLayout(next, mode)
	}
	return next
}

// OnCourtCountChanged stores the requested court count and regenerates the
// layout. Counts above capacity are kept and simply yield fewer courts.
func (e *Engine) OnCourtCountChanged(s State, mode round.Mode, count int) (State, []round.Court, error) {
	if !mode.Social() {
		return s, nil, apperrors.WithMetadata(apperrors.CodeInvalidMode, "mode is not social", map[string]string{"Mode": string(mode)})
	}
	if count < 1 {
		return s, nil, apperrors.New(apperrors.CodeInvalidCourtCount, "court count must be positive")
	}
	next := s.clone()
	next.UI.Courts[mode] = count
	return e.GenerateLayout(next, mode)
}

// AddPlayer appends a player and regenerates the social layouts.
func (e *Engine) AddPlayer(s State, name, color string) (State, roster.Player, error) {
	if e.newID == nil {
		return s, roster.Player{}, fmt.Errorf("id generator is required")
	}
	id, err := e.newID()
	if err != nil {
		return s, roster.Player{}, fmt.Errorf("player id: %w", err)
	}
	players, player, err := roster.Add(s.Players, id, name, color)
	if err != nil {
		return s, roster.Player{}, err
	}
	next := s.clone()
	next.Players = players
	return e.OnRosterChanged(next), player, nil
}

// RemovePlayer drops a player and regenerates the social layouts. Records
// that mention the player are kept as they were.
func (e *Engine) RemovePlayer(s State, id string) (State, error) {
	players, err := roster.Remove(s.Players, id)
	if err != nil {
		return s, err
	}
	next := s.clone()
	next.Players = players
	return e.OnRosterChanged(next), nil
}

// SetActiveTab records which mode the client last displayed.
func (e *Engine) SetActiveTab(s State, mode round.Mode) (State, error) {
	if _, err := round.ParseMode(string(mode)); err != nil {
		return s, err
	}
	next := s.clone()
	next.UI.ActiveTab = mode
	return next, nil
}

func (e *Engine) stamp() (settlement.Stamp, error) {
	if e.newID == nil {
		return settlement.Stamp{}, fmt.Errorf("id generator is required")
	}
	id, err := e.newID()
	if err != nil {
		return settlement.Stamp{}, fmt.Errorf("record id: %w", err)
	}
	// Snapshots keep dates to the millisecond.
	return settlement.Stamp{ID: id, Date: e.now().UTC().Truncate(time.Millisecond)}, nil
}
