// Package pairing partitions the roster into courts and teams for the next
// social round. Both strategies are greedy and round-local; neither attempts a
// globally optimal schedule.
package pairing

import (
	"math/rand"

	apperrors "github.com/louisbranch/courtside/internal/platform/errors"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/ledger"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/partnership"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/round"
)

// PlayersPerCourt is the number of players a 2v2 court seats.
const PlayersPerCourt = 4

// Input is everything a strategy may consult. Strategies never modify it.
type Input struct {
	PlayerIDs  []string
	CourtCount int
	Totals     ledger.Totals
	Partners   partnership.Memory
}

// Strategy produces a court layout. Every returned court has two complete
// teams and no player appears twice in one layout.
type Strategy interface {
	Pair(in Input) []round.Court
}

// CourtCapacity clamps the requested court count to [1, players/4]. It
// returns zero when fewer than four players are available.
func CourtCapacity(players, requested int) int {
	capacity := players / PlayersPerCourt
	if capacity == 0 {
		return 0
	}
	if requested < 1 {
		requested = 1
	}
	return min(requested, capacity)
}

// ForMode returns the strategy used by a social mode.
func ForMode(mode round.Mode, rng *rand.Rand) (Strategy, error) {
	switch mode {
	case round.ModeAmericano:
		return Americano{Rand: rng}, nil
	case round.ModeMexicano:
		return Mexicano{}, nil
	}
	return nil, apperrors.WithMetadata(apperrors.CodeInvalidMode, "mode has no pairing strategy", map[string]string{"Mode": string(mode)})
}
