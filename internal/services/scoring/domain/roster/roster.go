// Package roster manages the ordered list of players in a scoring session.
package roster

import (
	"strings"

	apperrors "github.com/louisbranch/courtside/internal/platform/errors"
)

// UnknownName is shown for ids that no longer resolve to a roster player.
const UnknownName = "?"

// DefaultColors is the palette players cycle through when none is chosen.
var DefaultColors = []string{
	"#3b82f6", "#ef4444", "#22c55e", "#f59e0b", "#a78bfa",
	"#ec4899", "#06b6d4", "#10b981", "#8b5cf6", "#f97316",
}

// Player is a session participant. Players are immutable once added.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// NextColor picks the palette entry for the next player added.
func NextColor(players []Player) string {
	return DefaultColors[len(players)%len(DefaultColors)]
}

// Add appends a new player and returns the updated roster. The input slice is
// not modified.
func Add(players []Player, id, name, color string) ([]Player, Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return players, Player{}, apperrors.New(apperrors.CodePlayerNameEmpty, "player name is empty")
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = NextColor(players)
	}
	player := Player{ID: id, Name: name, Color: color}

	next := make([]Player, 0, len(players)+1)
	next = append(next, players...)
	next = append(next, player)
	return next, player, nil
}

// Remove drops the player with the given id. History elsewhere is untouched.
func Remove(players []Player, id string) ([]Player, error) {
	idx := indexOf(players, id)
	if idx < 0 {
		return players, apperrors.WithMetadata(apperrors.CodePlayerNotFound, "player not found", map[string]string{"PlayerID": id})
	}
	next := make([]Player, 0, len(players)-1)
	next = append(next, players[:idx]...)
	next = append(next, players[idx+1:]...)
	return next, nil
}

// Lookup finds a player by id.
func Lookup(players []Player, id string) (Player, bool) {
	idx := indexOf(players, id)
	if idx < 0 {
		return Player{}, false
	}
	return players[idx], true
}

// Name resolves a player id to a display name, or UnknownName.
func Name(players []Player, id string) string {
	if p, ok := Lookup(players, id); ok {
		return p.Name
	}
	return UnknownName
}

// IDs lists player ids in roster order.
func IDs(players []Player) []string {
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return ids
}

func indexOf(players []Player, id string) int {
	for i, p := range players {
		if p.ID == id {
			return i
		}
	}
	return -1
}
