// Package ingest turns host-local and viewer intents into match transitions.
// Reduce is the only function allowed to produce a new authoritative state.
package ingest

import (
	"github.com/nfrund/chaosarena/internal/match"
	"github.com/nfrund/chaosarena/internal/sim"
)

// Command is a closed set of intents. Only types in this package implement it.
type Command interface {
	command()
}

// Tick advances the simulation by DT seconds.
type Tick struct {
	DT float64
}

// SpawnAmbient rolls the per-tick free spawn.
type SpawnAmbient struct{}

// Move steps the avatar in direction (DX, DY).
type Move struct {
	DX, DY float64
}

// Shoot fires toward a target point.
type Shoot struct {
	X, Y float64
}

// SpawnHostile is a host-side spawn that costs nobody anything.
type SpawnHostile struct {
	Class match.EntityType
}

// Buff is a host-side buff that costs nobody anything.
type Buff struct {
	Kind sim.BuffKind
}

// Join registers a viewer on first contact.
type Join struct {
	ViewerID string
	Name     string
}

// Purchase buys a catalog item on a viewer's behalf.
type Purchase struct {
	ViewerID string
	ItemID   string
}

// PlaceBet wagers on the current match.
type PlaceBet struct {
	ViewerID string
	Side     match.BetSide
	Amount   int
}

// Start begins a fresh match from IDLE or GAME_OVER.
type Start struct{}

// Reset returns to a fresh IDLE match.
type Reset struct{}

// AppendLog adds a line to the event log without touching anything else.
type AppendLog struct {
	Text     string
	Category match.Category
}

func (Tick) command()         {}
func (SpawnAmbient) command() {}
func (Move) command()         {}
func (Shoot) command()        {}
func (SpawnHostile) command() {}
func (Buff) command()         {}
func (Join) command()         {}
func (Purchase) command()     {}
func (PlaceBet) command()     {}
func (Start) command()        {}
func (Reset) command()        {}
func (AppendLog) command()    {}
