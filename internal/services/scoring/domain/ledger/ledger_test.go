package ledger

import (
	"testing"

	"github.com/louisbranch/courtside/internal/services/scoring/domain/roster"
)

func TestApplyIsAdditiveAndPure(t *testing.T) {
	totals := Totals{"a": 5, "b": 2}
	delta := Totals{"a": 3, "c": 4, "b": -1}

	next := Apply(totals, delta)

	want := Totals{"a": 8, "b": 1, "c": 4}
	for id, v := range want {
		if next.Of(id) != v {
			t.Fatalf("total[%s] = %d, want %d", id, next.Of(id), v)
		}
	}
	if totals["a"] != 5 || len(totals) != 2 {
		t.Fatalf("input totals modified: %v", totals)
	}
	if next.Sum() != totals.Sum()+delta.Sum() {
		t.Fatalf("sum = %d, want %d", next.Sum(), totals.Sum()+delta.Sum())
	}
}

func TestApplyToNilTotals(t *testing.T) {
	next := Apply(nil, Totals{"a": 3})
	if next.Of("a") != 3 {
		t.Fatalf("total = %d, want 3", next.Of("a"))
	}
}

func TestResetClearsEverything(t *testing.T) {
	if got := Reset(); len(got) != 0 || got.Of("a") != 0 {
		t.Fatalf("reset = %v", got)
	}
}

func TestRankOrdersByPointsWithStableTies(t *testing.T) {
	players := []roster.Player{
		{ID: "a", Name: "Ann"},
		{ID: "b", Name: "Bob"},
		{ID: "c", Name: "Cid"},
		{ID: "d", Name: "Dee"},
	}
	totals := Totals{"b": 7, "c": 7, "d": 9, "gone": 50}

	rows := Rank(players, totals)

	wantIDs := []string{"d", "b", "c", "a"}
	wantRanks := []int{1, 2, 2, 4}
	if len(rows) != len(wantIDs) {
		t.Fatalf("rows = %d, want %d", len(rows), len(wantIDs))
	}
	for i, row := range rows {
		if row.ID != wantIDs[i] || row.Rank != wantRanks[i] {
			t.Fatalf("row %d = %s rank %d, want %s rank %d", i, row.ID, row.Rank, wantIDs[i], wantRanks[i])
		}
	}
	if rows[3].Points != 0 {
		t.Fatalf("absent total = %d, want 0", rows[3].Points)
	}
}
