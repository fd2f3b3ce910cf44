package game

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Round is the round marker. It only ever moves forward; ResetGame is the
// single way back to RoundSetup.
type Round int

const (
	RoundSetup Round = iota
	RoundOne
	RoundTwo
	RoundThree
	RoundFinished
)

var roundNames = [...]string{"SETUP", "ROUND_ONE", "ROUND_TWO", "ROUND_THREE", "FINISHED"}

// String returns the wire name of the round
func (r Round) String() string {
	if r < RoundSetup || r > RoundFinished {
		return "UNKNOWN"
	}
	return roundNames[r]
}

// Valid reports whether r is one of the defined rounds
func (r Round) Valid() bool {
	return r >= RoundSetup && r <= RoundFinished
}

// MarshalText encodes the round as its upper-case name.
func (r Round) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid round %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes an upper-case round name.
func (r *Round) UnmarshalText(text []byte) error {
	name := strings.ToUpper(strings.TrimSpace(string(text)))
	for i, n := range roundNames {
		if n == name {
			*r = Round(i)
			return nil
		}
	}
	return fmt.Errorf("unknown round %q", string(text))
}

// Player is a contestant record. Players are never removed by gameplay;
// elimination only flips flags so standings stay computable.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
	Health int    `json:"health"` // percent, Round 1 only
	Lives  int    `json:"lives"`  // Rounds 2-3

	IsActive     bool `json:"isActive"`
	IsEliminated bool `json:"isEliminated"`

	// ForcedEliminated is permanent: Lucky Loser and backfill never recover it.
	ForcedEliminated bool `json:"forcedEliminated"`
}

// NewPlayer creates a player with fresh stats and a random ID.
func NewPlayer(name string, health, lives int) Player {
	return Player{
		ID:     uuid.NewString(),
		Name:   name,
		Health: health,
		Lives:  lives,
	}
}

// InPlay reports whether the player can still act in Rounds 2-3
func (p Player) InPlay() bool {
	return !p.IsEliminated && !p.ForcedEliminated && p.Lives > 0
}

// PlayerPatch is a partial player restricted to the fields a reversible
// action can touch. Nil fields are left untouched.
type PlayerPatch struct {
	Points       *int  `json:"points,omitempty"`
	Health       *int  `json:"health,omitempty"`
	Lives        *int  `json:"lives,omitempty"`
	IsEliminated *bool `json:"isEliminated,omitempty"`
}

// SnapshotOf captures all four reversible fields of p.
func SnapshotOf(p Player) PlayerPatch {
	points, health, lives, eliminated := p.Points, p.Health, p.Lives, p.IsEliminated
	return PlayerPatch{
		Points:       &points,
		Health:       &health,
		Lives:        &lives,
		IsEliminated: &eliminated,
	}
}

// Apply returns p with the non-nil patch fields written over it.
func (pp PlayerPatch) Apply(p Player) Player {
	if pp.Points != nil {
		p.Points = *pp.Points
	}
	if pp.Health != nil {
		p.Health = *pp.Health
	}
	if pp.Lives != nil {
		p.Lives = *pp.Lives
	}
	if pp.IsEliminated != nil {
		p.IsEliminated = *pp.IsEliminated
	}
	return p
}

// IsEmpty reports whether the patch changes nothing
func (pp PlayerPatch) IsEmpty() bool {
	return pp.Points == nil && pp.Health == nil && pp.Lives == nil && pp.IsEliminated == nil
}
