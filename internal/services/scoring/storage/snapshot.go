package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/louisbranch/courtside/internal/platform/encoding"
	apperrors "github.com/louisbranch/courtside/internal/platform/errors"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/partnership"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/roster"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/round"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/session"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/settlement"
)

// The snapshot document keeps the field names and mode labels of the
// padel_scorer_state_v3 browser export so files move between the two.
const (
	docMatchType = "2v2"
	docMatchTab  = "match"
	docAmericano = "american"
	docMexicano  = "mexican"
	dateLayout   = "2006-01-02T15:04:05.000Z"
)

type snapshotDoc struct {
	Players  []roster.Player `json:"players"`
	Match    boardDoc        `json:"m2v2"`
	American boardDoc        `json:"american"`
	Mexican  boardDoc        `json:"mexican"`
	UI       uiDoc           `json:"ui"`
}

type boardDoc struct {
	Matches  []recordDoc    `json:"matches"`
	Totals   map[string]int `json:"totals"`
	Partners map[string]int `json:"partners,omitempty"`
}

type recordDoc struct {
	ID     string        `json:"id"`
	Date   string        `json:"date"`
	Type   string        `json:"type"`
	Mode   string        `json:"mode,omitempty"`
	TeamA  []string      `json:"teamA,omitempty"`
	TeamB  []string      `json:"teamB,omitempty"`
	Score  *round.Score  `json:"score,omitempty"`
	Courts []courtResult `json:"courts,omitempty"`
}

type courtResult struct {
	A     []string    `json:"a"`
	B     []string    `json:"b"`
	Score round.Score `json:"score"`
}

type uiDoc struct {
	ActiveTab string         `json:"activeTab"`
	Courts    map[string]int `json:"courts,omitempty"`
}

var modeLabels = map[round.Mode]string{
	round.ModeMatch:     docMatchTab,
	round.ModeAmericano: docAmericano,
	round.ModeMexicano:  docMexicano,
}

func modeFromLabel(label string) (round.Mode, bool) {
	for mode, l := range modeLabels {
		if l == label {
			return mode, true
		}
	}
	return "", false
}

// EncodeSnapshot renders the persisted part of a session as canonical JSON.
// Tentative layouts are not persisted.
func EncodeSnapshot(s session.State) ([]byte, error) {
	doc := snapshotDoc{
		Players:  nonNilPlayers(s.Players),
		Match:    encodeBoard(s.Board(round.ModeMatch)),
		American: encodeBoard(s.Board(round.ModeAmericano)),
		Mexican:  encodeBoard(s.Board(round.ModeMexicano)),
		UI:       uiDoc{ActiveTab: modeLabels[s.UI.ActiveTab]},
	}
	if doc.UI.ActiveTab == "" {
		doc.UI.ActiveTab = modeLabels[session.DefaultTab]
	}
	if doc.American.Partners == nil {
		doc.American.Partners = map[string]int{}
	}
	for mode, n := range s.UI.Courts {
		if label, ok := modeLabels[mode]; ok && n > 0 {
			if doc.UI.Courts == nil {
				doc.UI.Courts = map[string]int{}
			}
			doc.UI.Courts[label] = n
		}
	}
	data, err := encoding.CanonicalJSON(doc)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func encodeBoard(b settlement.Board) boardDoc {
	doc := boardDoc{Matches: make([]recordDoc, 0, len(b.Matches)), Totals: map[string]int{}}
	for id, v := range b.Totals {
		doc.Totals[id] = v
	}
	if b.Partners != nil {
		doc.Partners = make(map[string]int, len(b.Partners))
		for k, v := range b.Partners {
			doc.Partners[string(k)] = v
		}
	}
	for _, rec := range b.Matches {
		doc.Matches = append(doc.Matches, encodeRecord(rec))
	}
	return doc
}

func encodeRecord(rec round.Record) recordDoc {
	doc := recordDoc{ID: rec.ID, Date: rec.Date.UTC().Format(dateLayout)}
	if rec.Mode == round.ModeMatch && len(rec.Courts) == 1 {
		c := rec.Courts[0]
		score := c.Score
		doc.Type = docMatchType
		doc.Mode = rec.Kind
		doc.TeamA = nonNilIDs(c.A)
		doc.TeamB = nonNilIDs(c.B)
		doc.Score = &score
		return doc
	}
	doc.Type = modeLabels[rec.Mode]
	doc.Courts = make([]courtResult, len(rec.Courts))
	for i, c := range rec.Courts {
		doc.Courts[i] = courtResult{A: nonNilIDs(c.A), B: nonNilIDs(c.B), Score: c.Score}
	}
	return doc
}

// DecodeSnapshot parses a snapshot document. Missing sections fall back to
// empty boards; anything unparseable yields a MALFORMED_SNAPSHOT error.
func DecodeSnapshot(data []byte) (session.State, error) {
	var doc snapshotDoc
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return session.State{}, apperrors.Wrap(apperrors.CodeMalformedSnapshot, "decode snapshot", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return session.State{}, apperrors.Wrap(apperrors.CodeMalformedSnapshot, "snapshot has trailing data", err)
	}

	s := session.New()
	s.Players = nonNilPlayers(doc.Players)
	seen := make(map[string]bool, len(s.Players))
	for _, p := range s.Players {
		if p.ID == "" || seen[p.ID] {
			return session.State{}, apperrors.New(apperrors.CodeMalformedSnapshot, "snapshot has a blank or duplicate player id")
		}
		seen[p.ID] = true
	}

	boards := map[round.Mode]boardDoc{
		round.ModeMatch:     doc.Match,
		round.ModeAmericano: doc.American,
		round.ModeMexicano:  doc.Mexican,
	}
	for mode, bd := range boards {
		board, err := decodeBoard(mode, bd)
		if err != nil {
			return session.State{}, err
		}
		s.Boards[mode] = board
	}

	if mode, ok := modeFromLabel(doc.UI.ActiveTab); ok {
		s.UI.ActiveTab = mode
	}
	for label, n := range doc.UI.Courts {
		if mode, ok := modeFromLabel(label); ok && n > 0 {
			s.UI.Courts[mode] = n
		}
	}
	return s, nil
}

func decodeBoard(mode round.Mode, doc boardDoc) (settlement.Board, error) {
	board := settlement.NewBoard(mode)
	for id, v := range doc.Totals {
		board.Totals[id] = v
	}
	if mode == round.ModeAmericano {
		for k, v := range doc.Partners {
			a, b, ok := partnership.Key(k).Split()
			if !ok || !(round.Team{a, b}).Valid() {
				return settlement.Board{}, apperrors.WithMetadata(apperrors.CodeMalformedSnapshot, "partner key is not a pair of ids", map[string]string{"Key": k})
			}
			board.Partners[partnership.PairKey(a, b)] += v
		}
	}
	for _, rd := range doc.Matches {
		rec, err := decodeRecord(mode, rd)
		if err != nil {
			return settlement.Board{}, err
		}
		board.Matches = append(board.Matches, rec)
	}
	return board, nil
}

func decodeRecord(mode round.Mode, doc recordDoc) (round.Record, error) {
	date, err := time.Parse(time.RFC3339Nano, doc.Date)
	if err != nil {
		return round.Record{}, apperrors.Wrap(apperrors.CodeMalformedSnapshot, "record "+doc.ID+" has an invalid date", err)
	}
	rec := round.Record{ID: doc.ID, Date: date.UTC(), Mode: mode}

	switch {
	case doc.Type == docMatchType && mode == round.ModeMatch:
		rec.Kind = doc.Mode
		score := round.Score{}
		if doc.Score != nil {
			score = *doc.Score
		}
		rec.Courts = []round.CourtResult{{A: round.Team(doc.TeamA), B: round.Team(doc.TeamB), Score: score}}
	case doc.Type == modeLabels[mode] && mode.Social():
		rec.Courts = make([]round.CourtResult, len(doc.Courts))
		for i, c := range doc.Courts {
			rec.Courts[i] = round.CourtResult{A: round.Team(c.A), B: round.Team(c.B), Score: c.Score}
		}
	default:
		return round.Record{}, apperrors.WithMetadata(apperrors.CodeMalformedSnapshot, "record type does not match its board", map[string]string{"Type": doc.Type, "Mode": string(mode)})
	}
	for _, c := range rec.Courts {
		if !c.A.Valid() || !c.B.Valid() || c.A.Overlaps(c.B) {
			return round.Record{}, apperrors.WithMetadata(apperrors.CodeMalformedSnapshot, "record court needs two disjoint pairs", map[string]string{"Record": doc.ID})
		}
	}
	return rec, nil
}

func nonNilPlayers(players []roster.Player) []roster.Player {
	if players == nil {
		return []roster.Player{}
	}
	return players
}

func nonNilIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
