package factory

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const MaxNameLength = 20

// player is a member of a room. Only the room touches it.
type player struct {
	id        string
	name      string
	resources int
}

// PlayerSnapshot is the public view of a player.
type PlayerSnapshot struct {
	ID        string `json:"-"`
	Name      string `json:"name"`
	Resources int    `json:"resources"`
}

func (p *player) snapshot() PlayerSnapshot {
	return PlayerSnapshot{
		ID:        p.id,
		Name:      p.name,
		Resources: p.resources,
	}
}

// roomPayer lets an economy component charge a player through the room so
// the deduction is published like any other.
type roomPayer struct {
	room   *Room
	player *player
}

func (p roomPayer) Balance() int {
	return p.player.resources
}

func (p roomPayer) Deduct(amount int) {
	p.room.deductResources(p.player, amount)
}

// NormalizeName trims and NFC-normalizes a display name.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// ValidateName checks a normalized display name.
func ValidateName(name string) error {
	if name == "" {
		return NewGameError(ErrValidation, "Username is empty")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return NewGameError(ErrValidation, fmt.Sprintf("Username is longer than %d characters", MaxNameLength))
	}
	for _, r := range name {
		if !unicode.IsPrint(r) {
			return NewGameError(ErrValidation, "Username contains unprintable characters")
		}
	}
	return nil
}

// sameName compares display names the way players read them.
func sameName(a, b string) bool {
	return cases.Fold().String(a) == cases.Fold().String(b)
}
