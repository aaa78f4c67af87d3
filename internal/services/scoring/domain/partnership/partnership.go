// Package partnership counts how often each unordered pair of players has
// been teammates in Americano rounds.
package partnership

import (
	"strings"

	"github.com/louisbranch/courtside/internal/services/scoring/domain/round"
)

const keySeparator = "|"

// Key identifies an unordered pair: the two ids sorted and joined by "|".
type Key string

// PairKey builds the key for two ids regardless of argument order.
func PairKey(a, b string) Key {
	if b < a {
		a, b = b, a
	}
	return Key(a + keySeparator + b)
}

// Split returns the two ids of a key.
func (k Key) Split() (string, string, bool) {
	a, b, ok := strings.Cut(string(k), keySeparator)
	return a, b, ok
}

// Memory maps pair keys to partnership counts. Counts only grow.
type Memory map[Key]int

// Count returns how often a and b have partnered.
func (m Memory) Count(a, b string) int {
	return m[PairKey(a, b)]
}

// Clone copies the memory.
func (m Memory) Clone() Memory {
	out := make(Memory, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Record returns a new memory with one partnership added for each valid team
// of each court. Malformed teams are ignored.
func Record(m Memory, courts []round.CourtResult) Memory {
	next := m.Clone()
	for _, c := range courts {
		for _, team := range []round.Team{c.A, c.B} {
			if !team.Valid() {
				continue
			}
			next[PairKey(team[0], team[1])]++
		}
	}
	return next
}
