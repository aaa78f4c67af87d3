package pairing

import (
	"math/rand"

	"github.com/louisbranch/courtside/internal/services/scoring/domain/partnership"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/round"
)

// Americano rotates partners. Players are shuffled, then each team is built
// from the first unused player in shuffle order plus the unused player they
// have partnered least often. Ties go to whoever comes first in the shuffle.
// Skill is deliberately not considered.
type Americano struct {
	// Rand drives the shuffle. When nil the process-wide source is used.
	Rand *rand.Rand
}

// Pair implements Strategy.
func (s Americano) Pair(in Input) []round.Court {
	courts := CourtCapacity(len(in.PlayerIDs), in.CourtCount)
	if courts == 0 {
		return []round.Court{}
	}

	order := make([]string, len(in.PlayerIDs))
	copy(order, in.PlayerIDs)
	s.shuffle(order)

	used := make(map[string]bool, len(order))
	layout := make([]round.Court, 0, courts)
	for c := 0; c < courts; c++ {
		if len(order)-len(used) < PlayersPerCourt {
			break
		}
		a := pickTeam(order, used, in.Partners)
		b := pickTeam(order, used, in.Partners)
		if a == nil || b == nil {
			break
		}
		layout = append(layout, round.Court{A: a, B: b})
	}
	return layout
}

func (s Americano) shuffle(ids []string) {
	swap := func(i, j int) { ids[i], ids[j] = ids[j], ids[i] }
	if s.Rand != nil {
		s.Rand.Shuffle(len(ids), swap)
		return
	}
	rand.Shuffle(len(ids), swap)
}

func pickTeam(order []string, used map[string]bool, memory partnership.Memory) round.Team {
	anchor := ""
	for _, id := range order {
		if !used[id] {
			anchor = id
			break
		}
	}
	if anchor == "" {
		return nil
	}
	used[anchor] = true

	partner := ""
	best := 0
	for _, id := range order {
		if used[id] {
			continue
		}
		count := memory.Count(anchor, id)
		if partner == "" || count < best {
			partner, best = id, count
		}
	}
	if partner == "" {
		return nil
	}
	used[partner] = true
	return round.Team{anchor, partner}
}
