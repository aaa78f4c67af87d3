package roster

import (
	"testing"

	apperrors "github.com/louisbranch/courtside/internal/platform/errors"
)

func TestAddTrimsNameAndCyclesColors(t *testing.T) {
	var players []Player
	var err error
	for i := 0; i < len(DefaultColors)+1; i++ {
		players, _, err = Add(players, string(rune('a'+i)), "  Player  ", "")
		if err != nil {
			t.Fatalf("add player %d: %v", i, err)
		}
	}
	if players[0].Name != "Player" {
		t.Fatalf("name = %q, want trimmed", players[0].Name)
	}
	if players[1].Color != DefaultColors[1] {
		t.Fatalf("color = %q, want %q", players[1].Color, DefaultColors[1])
	}
	if last := players[len(DefaultColors)]; last.Color != DefaultColors[0] {
		t.Fatalf("eleventh color = %q, want palette wrap", last.Color)
	}
}

func TestAddKeepsChosenColorAndInputSlice(t *testing.T) {
	players := []Player{{ID: "p1", Name: "Ann", Color: "#000000"}}
	next, added, err := Add(players, "p2", "Bob", "#123456")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added.Color != "#123456" {
		t.Fatalf("color = %q", added.Color)
	}
	if len(players) != 1 || len(next) != 2 {
		t.Fatalf("lengths = %d/%d, want 1/2", len(players), len(next))
	}
}

func TestAddRejectsBlankName(t *testing.T) {
	_, _, err := Add(nil, "p1", "   ", "")
	if !apperrors.HasCode(err, apperrors.CodePlayerNameEmpty) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodePlayerNameEmpty)
	}
}

func TestRemove(t *testing.T) {
	players := []Player{{ID: "p1", Name: "Ann"}, {ID: "p2", Name: "Bob"}, {ID: "p3", Name: "Cid"}}

	next, err := Remove(players, "p2")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := IDs(next); len(got) != 2 || got[0] != "p1" || got[1] != "p3" {
		t.Fatalf("ids = %v, want [p1 p3]", got)
	}
	if players[1].ID != "p2" {
		t.Fatal("expected input roster to be untouched")
	}

	if _, err := Remove(players, "missing"); !apperrors.HasCode(err, apperrors.CodePlayerNotFound) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodePlayerNotFound)
	}
}

func TestNameFallsBackToUnknown(t *testing.T) {
	players := []Player{{ID: "p1", Name: "Ann"}}
	if got := Name(players, "p1"); got != "Ann" {
		t.Fatalf("name = %q", got)
	}
	if got := Name(players, "gone"); got != UnknownName {
		t.Fatalf("name = %q, want %q", got, UnknownName)
	}
}
