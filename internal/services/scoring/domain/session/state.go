// Package session holds the explicit state of one scoring session and the
// operations that move it forward. Every operation takes a State and returns
// a new one; inputs are never modified.
package session

import (
	"github.com/louisbranch/courtside/internal/services/scoring/domain/ledger"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/roster"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/round"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/settlement"
)

// DefaultTab is the mode shown first in a fresh session.
const DefaultTab = round.ModeAmericano

// UI is presentation state the session carries but never interprets beyond
// the requested court counts.
type UI struct {
	ActiveTab round.Mode         `json:"activeTab"`
	Courts    map[round.Mode]int `json:"courts,omitempty"`
}

// State is everything a session knows. Layouts are tentative and are not
// part of the persisted snapshot.
type State struct {
	Players []roster.Player
	Boards  map[round.Mode]settlement.Board
	UI      UI
	Layouts map[round.Mode][]round.Court
}

// New returns an empty session.
func New() State {
	s := State{
		Players: []roster.Player{},
		Boards:  make(map[round.Mode]settlement.Board, len(round.Modes)),
		UI:      UI{ActiveTab: DefaultTab, Courts: map[round.Mode]int{}},
		Layouts: map[round.Mode][]round.Court{},
	}
	for _, mode := range round.Modes {
		s.Boards[mode] = settlement.NewBoard(mode)
	}
	return s
}

// Normalize fills in anything a loaded snapshot may lack: missing boards,
// nil collections and an unknown active tab.
func Normalize(s State) State {
	next := s.clone()
	if next.Players == nil {
		next.Players = []roster.Player{}
	}
	for _, mode := range round.Modes {
		b, ok := next.Boards[mode]
		if !ok {
			next.Boards[mode] = settlement.NewBoard(mode)
			continue
		}
		if b.Matches == nil {
			b.Matches = []round.Record{}
		}
		if b.Totals == nil {
			b.Totals = ledger.Totals{}
		}
		if mode == round.ModeAmericano && b.Partners == nil {
			b.Partners = settlement.NewBoard(mode).Partners
		}
		next.Boards[mode] = b
	}
	if _, err := round.ParseMode(string(next.UI.ActiveTab)); err != nil {
		next.UI.ActiveTab = DefaultTab
	}
	return next
}

// Board returns the committed board for mode.
func (s State) Board(mode round.Mode) settlement.Board {
	if b, ok := s.Boards[mode]; ok {
		return b
	}
	return settlement.NewBoard(mode)
}

// CourtCount is the requested number of courts for a social mode.
func (s State) CourtCount(mode round.Mode) int {
	if n := s.UI.Courts[mode]; n > 0 {
		return n
	}
	return 1
}

// Layout is the current tentative layout for mode, possibly empty.
func (s State) Layout(mode round.Mode) []round.Court {
	if l, ok := s.Layouts[mode]; ok {
		return l
	}
	return []round.Court{}
}

// Standings ranks every roster player by their total in mode.
func (s State) Standings(mode round.Mode) []ledger.Standing {
	return ledger.Rank(s.Players, s.Board(mode).Totals)
}

// clone copies the top-level maps so callers can replace entries without
// touching the original. Boards, layouts and players are treated as values.
func (s State) clone() State {
	next := State{
		Players: s.Players,
		Boards:  make(map[round.Mode]settlement.Board, len(s.Boards)),
		UI:      UI{ActiveTab: s.UI.ActiveTab, Courts: make(map[round.Mode]int, len(s.UI.Courts))},
		Layouts: make(map[round.Mode][]round.Court, len(s.Layouts)),
	}
	for k, v := range s.Boards {
		next.Boards[k] = v
	}
	for k, v := range s.UI.Courts {
		next.UI.Courts[k] = v
	}
	for k, v := range s.Layouts {
		next.Layouts[k] = v
	}
	return next
}
