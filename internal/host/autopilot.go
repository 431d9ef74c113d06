package host

import (
	"math"

	"github.com/nfrund/chaosarena/internal/ingest"
	"github.com/nfrund/chaosarena/internal/match"
)

// KeepAway is the distance at which the autopilot backs off from a hostile.
const KeepAway = 120.0

// Autopilot plays the avatar for unattended demos: it fires at the nearest
// hostile every few ticks and backs away when one gets close.
type Autopilot struct {
	every int
	n     int
}

// NewAutopilot fires once per every ticks.
func NewAutopilot(every int) *Autopilot {
	if every <= 0 {
		every = 1
	}
	return &Autopilot{every: every}
}

// Plan returns the commands to apply before this tick.
func (a *Autopilot) Plan(s match.State) []ingest.Command {
	if !s.Playing() {
		return nil
	}
	me := s.Avatar
	target, dist, ok := nearest(me, s.Hostiles)
	if !ok {
		cx, cy := match.ArenaWidth/2-me.X, match.ArenaHeight/2-me.Y
		if math.Hypot(cx, cy) < me.Speed {
			return nil
		}
		return []ingest.Command{ingest.Move{DX: cx, DY: cy}}
	}

	var cmds []ingest.Command
	if dist < KeepAway {
		cmds = append(cmds, ingest.Move{DX: me.X - target.X, DY: me.Y - target.Y})
	}
	a.n++
	if a.n >= a.every {
		a.n = 0
		cmds = append(cmds, ingest.Shoot{X: target.X, Y: target.Y})
	}
	return cmds
}

func nearest(from match.LivingEntity, hostiles []match.LivingEntity) (match.LivingEntity, float64, bool) {
	best, bestDist, found := match.LivingEntity{}, math.Inf(1), false
	for _, h := range hostiles {
		if d := math.Hypot(h.X-from.X, h.Y-from.Y); d < bestDist {
			best, bestDist, found = h, d, true
		}
	}
	return best, bestDist, found
}
