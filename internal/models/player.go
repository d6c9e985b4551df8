package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Vocation is a character class.
type Vocation int

const (
	VocationRookie Vocation = iota
	VocationDruid
	VocationSorcerer
	VocationPaladin
	VocationKnight
)

var vocationNames = map[Vocation]string{
	VocationRookie:   "Rookie",
	VocationDruid:    "Druid",
	VocationSorcerer: "Sorcerer",
	VocationPaladin:  "Paladin",
	VocationKnight:   "Knight",
}

// Vocations lists every vocation in id order.
func Vocations() []Vocation {
	return []Vocation{VocationRookie, VocationDruid, VocationSorcerer, VocationPaladin, VocationKnight}
}

func (v Vocation) String() string {
	if name, ok := vocationNames[v]; ok {
		return name
	}
	return "Unknown"
}

// Valid reports whether v is a known vocation.
func (v Vocation) Valid() bool {
	_, ok := vocationNames[v]
	return ok
}

// ParseVocation accepts either the numeric id or the vocation name.
func ParseVocation(s string) (Vocation, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if v := Vocation(n); v.Valid() {
			return v, nil
		}
		return 0, fmt.Errorf("unknown vocation %d", n)
	}
	for v, name := range vocationNames {
		if strings.EqualFold(name, s) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown vocation %q", s)
}

// Sex is the character's sex, which selects the default outfit.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// LookType returns the default outfit for the sex.
func (s Sex) LookType() int {
	if s == SexFemale {
		return 136
	}
	return 128
}

// Player is a game character owned by an account.
type Player struct {
	ID         int64     `json:"id"`
	AccountID  int64     `json:"accountId"`
	Name       string    `json:"name"`
	Vocation   Vocation  `json:"vocation"`
	Sex        Sex       `json:"sex"`
	World      int       `json:"world"`
	Level      int       `json:"level"`
	Experience int64     `json:"experience"`
	Health     int       `json:"health"`
	HealthMax  int       `json:"healthmax"`
	Mana       int       `json:"mana"`
	ManaMax    int       `json:"manamax"`
	TownID     int       `json:"townId"`
	LookType   int       `json:"looktype"`
	Avatar     string    `json:"avatar,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	// Populated by detail queries only
	AccountUsername string `json:"accountUsername,omitempty"`
}

// NewCharacter returns a level 8 character with the starting stats.
func NewCharacter(accountID int64, name string, vocation Vocation, sex Sex, world int) *Player {
	return &Player{
		AccountID:  accountID,
		Name:       name,
		Vocation:   vocation,
		Sex:        sex,
		World:      world,
		Level:      8,
		Experience: 4200,
		Health:     185,
		HealthMax:  185,
		Mana:       35,
		ManaMax:    35,
		TownID:     1,
		LookType:   sex.LookType(),
	}
}

// PlayerFilter narrows the leaderboard.
type PlayerFilter struct {
	Vocation *Vocation
	MinLevel int
	Limit    int
	Offset   int
}

// PlayerUpdate holds optional changes to a character. Nil fields are left untouched.
type PlayerUpdate struct {
	Name     *string
	Avatar   *string
	Vocation *Vocation
}
