package storage

import (
	"bytes"
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"testing"
	"time"

	apperrors "github.com/louisbranch/courtside/internal/platform/errors"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/round"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/session"
)

func scoredLayout(layout []round.Court, scores ...round.Score) []round.CourtResult {
	courts := make([]round.CourtResult, len(layout))
	for i, c := range layout {
		courts[i] = round.CourtResult{A: c.A, B: c.B, Score: scores[i]}
	}
	return courts
}

func playedSession(t *testing.T) session.State {
	t.Helper()
	n := 0
	clock := time.Date(2026, 4, 2, 19, 30, 0, 0, time.UTC)
	e := session.NewEngine(rand.New(rand.NewSource(1)), func() (string, error) {
		n++
		return fmt.Sprintf("id%02d", n), nil
	}, func() time.Time {
		clock = clock.Add(90 * time.Second)
		return clock
	})

	s := session.New()
	for _, name := range []string{"Ann", "Bob", "Cid", "Dee", "Eve"} {
		var err error
		if s, _, err = e.AddPlayer(s, name, ""); err != nil {
			t.Fatalf("add player: %v", err)
		}
	}
	var err error
	if s, _, err = e.CommitRound(s, round.ModeAmericano, scoredLayout(s.Layout(round.ModeAmericano), round.Score{A: 6, B: 3})); err != nil {
		t.Fatalf("americano: %v", err)
	}
	if s, _, err = e.CommitRound(s, round.ModeMexicano, scoredLayout(s.Layout(round.ModeMexicano), round.Score{A: 2, B: 2})); err != nil {
		t.Fatalf("mexicano: %v", err)
	}
	a := round.Team{s.Players[0].ID, s.Players[1].ID}
	b := round.Team{s.Players[2].ID, s.Players[3].ID}
	if s, _, err = e.CommitMatch(s, session.MatchInput{TeamA: a, TeamB: b, Score: round.Score{A: 1, B: 2}, Kind: round.KindRace}); err != nil {
		t.Fatalf("match: %v", err)
	}
	if s, _, err = e.OnCourtCountChanged(s, round.ModeMexicano, 3); err != nil {
		t.Fatalf("courts: %v", err)
	}
	return s
}

func TestSnapshotRoundTripIsByteStable(t *testing.T) {
	first, err := EncodeSnapshot(playedSession(t))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	loaded, err := DecodeSnapshot(first)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	second, err := EncodeSnapshot(loaded)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("snapshot drifted:\n%s\n%s", first, second)
	}
	reloaded, err := DecodeSnapshot(second)
	if err != nil {
		t.Fatalf("decode again: %v", err)
	}
	third, err := EncodeSnapshot(reloaded)
	if err != nil {
		t.Fatalf("encode again: %v", err)
	}
	if !bytes.Equal(second, third) {
		t.Fatal("second round trip drifted")
	}
}

func TestSnapshotPreservesSessionContent(t *testing.T) {
	original := playedSession(t)
	data, err := EncodeSnapshot(original)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	loaded, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(loaded.Players) != 5 || loaded.Players[4].Name != "Eve" {
		t.Fatalf("players = %+v", loaded.Players)
	}
	for _, mode := range round.Modes {
		want, got := original.Board(mode), loaded.Board(mode)
		if fmt.Sprint(want.Totals) != fmt.Sprint(got.Totals) {
			t.Fatalf("%s totals = %v, want %v", mode, got.Totals, want.Totals)
		}
		if len(want.Matches) != len(got.Matches) {
			t.Fatalf("%s matches = %d, want %d", mode, len(got.Matches), len(want.Matches))
		}
		for i := range want.Matches {
			if !want.Matches[i].Date.Equal(got.Matches[i].Date) || want.Matches[i].Mode != got.Matches[i].Mode {
				t.Fatalf("%s record %d = %+v, want %+v", mode, i, got.Matches[i], want.Matches[i])
			}
		}
	}
	if fmt.Sprint(original.Board(round.ModeAmericano).Partners) != fmt.Sprint(loaded.Board(round.ModeAmericano).Partners) {
		t.Fatal("partnership memory lost")
	}
	if loaded.Board(round.ModeMatch).Matches[0].Kind != round.KindRace {
		t.Fatalf("kind = %q", loaded.Board(round.ModeMatch).Matches[0].Kind)
	}
	if loaded.CourtCount(round.ModeMexicano) != 3 {
		t.Fatalf("courts = %d, want 3", loaded.CourtCount(round.ModeMexicano))
	}
	if len(loaded.Layouts) != 0 {
		t.Fatal("tentative layouts must not be persisted")
	}
}

func TestDecodeSnapshotReadsBrowserExport(t *testing.T) {
	export := `{
  "players": [
    {"id": "k2j9x1a", "name": "Маша", "color": "#3b82f6"},
    {"id": "q8w7e6r", "name": "Петя", "color": "#ef4444"},
    {"id": "z1x2c3v", "name": "Оля", "color": "#22c55e"},
    {"id": "m4n5b6v", "name": "Дима", "color": "#f59e0b"}
  ],
  "m2v2": {"matches": [{"id": "r1", "date": "2025-07-01T18:05:11.123Z", "type": "2v2", "mode": "classic",
            "teamA": ["k2j9x1a", "q8w7e6r"], "teamB": ["z1x2c3v", "m4n5b6v"], "score": {"a": 2, "b": 1}}],
           "totals": {"k2j9x1a": 3, "q8w7e6r": 3}},
  "american": {"matches": [{"id": "r2", "date": "2025-07-01T19:00:00.000Z", "type": "american",
               "courts": [{"a": ["k2j9x1a", "z1x2c3v"], "b": ["q8w7e6r", "m4n5b6v"], "score": {"a": 21, "b": 17}}]}],
               "totals": {"k2j9x1a": 21, "z1x2c3v": 21, "q8w7e6r": 17, "m4n5b6v": 17},
               "partners": {"k2j9x1a|z1x2c3v": 1, "m4n5b6v|q8w7e6r": 1}},
  "mexican": {"matches": [], "totals": {}},
  "ui": {"activeTab": "mexican"}
}`
	s, err := DecodeSnapshot([]byte(export))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.UI.ActiveTab != round.ModeMexicano {
		t.Fatalf("tab = %q", s.UI.ActiveTab)
	}
	match := s.Board(round.ModeMatch).Matches[0]
	if match.Kind != round.KindClassic || match.Courts[0].Score.A != 2 || match.Courts[0].B[1] != "m4n5b6v" {
		t.Fatalf("match record = %+v", match)
	}
	if got := s.Board(round.ModeAmericano).Partners.Count("z1x2c3v", "k2j9x1a"); got != 1 {
		t.Fatalf("partner count = %d, want 1", got)
	}
	if got := s.Board(round.ModeAmericano).Totals.Of("q8w7e6r"); got != 17 {
		t.Fatalf("total = %d, want 17", got)
	}
	h := session.PlayerHistory(s, "k2j9x1a")
	if h.TotalScored != 23 || len(h.Entries) != 2 || h.Entries[0].Partner != "Оля" {
		t.Fatalf("history = %+v", h)
	}

	out, err := EncodeSnapshot(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, fragment := range []string{`"m2v2":`, `"type":"2v2"`, `"type":"american"`, `"activeTab":"mexican"`, `"date":"2025-07-01T18:05:11.123Z"`, `"teamA":["k2j9x1a","q8w7e6r"]`} {
		if !strings.Contains(string(out), fragment) {
			t.Fatalf("encoded snapshot lacks %s:\n%s", fragment, out)
		}
	}
}

func TestDecodeSnapshotFillsMissingSections(t *testing.T) {
	s, err := DecodeSnapshot([]byte(`{"players":[{"id":"a","name":"Ann","color":"#000"}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.UI.ActiveTab != session.DefaultTab {
		t.Fatalf("tab = %q", s.UI.ActiveTab)
	}
	for _, mode := range round.Modes {
		if s.Board(mode).Totals == nil || s.Board(mode).Matches == nil {
			t.Fatalf("%s board not initialised", mode)
		}
	}
}

func TestDecodeSnapshotRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: `{"players": [`},
		{name: "wrong shape", data: `{"players": "everyone"}`},
		{name: "duplicate player", data: `{"players":[{"id":"a","name":"A"},{"id":"a","name":"B"}]}`},
		{name: "bad date", data: `{"american":{"matches":[{"id":"r","date":"yesterday","type":"american","courts":[]}]}}`},
		{name: "type mismatch", data: `{"mexican":{"matches":[{"id":"r","date":"2025-07-01T19:00:00.000Z","type":"2v2"}]}}`},
		{name: "trailing text", data: `{"players":[]} this is not json`},
		{name: "second document", data: `{"players":[]}{"players":[]}`},
		{name: "three on a team", data: `{"american":{"matches":[{"id":"r","date":"2025-07-01T19:00:00.000Z","type":"american","courts":[{"a":["p1","p2","p3"],"b":["p4","p5"],"score":{"a":1,"b":0}}]}]}}`},
		{name: "overlapping teams", data: `{"mexican":{"matches":[{"id":"r","date":"2025-07-01T19:00:00.000Z","type":"mexican","courts":[{"a":["p1","p2"],"b":["p2","p3"],"score":{"a":1,"b":0}}]}]}}`},
		{name: "short match team", data: `{"m2v2":{"matches":[{"id":"r","date":"2025-07-01T19:00:00.000Z","type":"2v2","teamA":["p1"],"teamB":["p2","p3"],"score":{"a":2,"b":1}}]}}`},
		{name: "partner key without separator", data: `{"american":{"partners":{"p1p2":1}}}`},
		{name: "partner key with one id", data: `{"american":{"partners":{"p1|p1":1}}}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(tc.data))
			if !apperrors.HasCode(err, apperrors.CodeMalformedSnapshot) {
				t.Fatalf("err = %v, want %s", err, apperrors.CodeMalformedSnapshot)
			}
		})
	}
}

func TestDecodeSnapshotAcceptsTrailingWhitespace(t *testing.T) {
	if _, err := DecodeSnapshot([]byte("{\"players\":[]}\n\n")); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestDecodeSnapshotOrdersPartnerKeys(t *testing.T) {
	s, err := DecodeSnapshot([]byte(`{"american":{"partners":{"p2|p1":1,"p1|p2":2}}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	partners := s.Board(round.ModeAmericano).Partners
	if len(partners) != 1 || partners.Count("p1", "p2") != 3 {
		t.Fatalf("partners = %v", partners)
	}
}

func TestRecordDatesSurviveSnapshot(t *testing.T) {
	n := 0
	at := time.Date(2026, 4, 2, 19, 30, 5, 123456789, time.UTC)
	e := session.NewEngine(rand.New(rand.NewSource(3)), func() (string, error) {
		n++
		return fmt.Sprintf("id%02d", n), nil
	}, func() time.Time { return at })

	s := session.New()
	for _, name := range []string{"Ann", "Bob", "Cid", "Dee"} {
		var err error
		if s, _, err = e.AddPlayer(s, name, ""); err != nil {
			t.Fatalf("add player: %v", err)
		}
	}
	a := round.Team{s.Players[0].ID, s.Players[1].ID}
	b := round.Team{s.Players[2].ID, s.Players[3].ID}
	s, rec, err := e.CommitMatch(s, session.MatchInput{TeamA: a, TeamB: b, Score: round.Score{A: 6, B: 4}})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if s, _, err = e.CommitRound(s, round.ModeAmericano, scoredLayout(s.Layout(round.ModeAmericano), round.Score{A: 6, B: 3})); err != nil {
		t.Fatalf("americano: %v", err)
	}

	data, err := EncodeSnapshot(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	loaded, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, mode := range []round.Mode{round.ModeMatch, round.ModeAmericano} {
		want, got := s.Board(mode).Matches, loaded.Board(mode).Matches
		if !reflect.DeepEqual(want, got) {
			t.Fatalf("%s records changed by snapshot:\n got %+v\nwant %+v", mode, got, want)
		}
	}
	if !rec.Date.Equal(time.Date(2026, 4, 2, 19, 30, 5, 123000000, time.UTC)) {
		t.Fatalf("record date = %s, want millisecond precision", rec.Date.Format(time.RFC3339Nano))
	}
}
