// Package sim advances the arena. Every function here takes a match.State by
// value and returns the next one without touching the input's slices, so the
// host can hand old states to readers while it keeps simulating.
package sim

import (
	"math"

	"github.com/nfrund/chaosarena/internal/match"
)

// Tick advances the world by one step. It is a no-op unless the match is
// PLAYING. Movement is per tick; dt (seconds) only feeds the elapsed clock.
func Tick(s match.State, dt float64) match.State {
	if !s.Playing() {
		return s
	}
	if dt < 0 {
		dt = 0
	}

	next := s
	projectiles := advanceProjectiles(s.Projectiles)
	hostiles := pursue(s.Hostiles, s.Avatar)

	survivors, projectiles, gained := resolveHits(hostiles, projectiles)
	remaining, hp := resolveContacts(survivors, s.Avatar)

	next.Projectiles = projectiles
	next.Hostiles = remaining
	next.Avatar.HP = hp
	next.Score = s.Score + gained
	next.TimeElapsed = s.TimeElapsed + dt

	if next.Avatar.HP <= 0 {
		next.Avatar.HP = 0
		next.Status = match.StatusGameOver
	}
	return next
}

func advanceProjectiles(in []match.Projectile) []match.Projectile {
	out := make([]match.Projectile, 0, len(in))
	for _, p := range in {
		p.X += p.VX
		p.Y += p.VY
		if p.X > 0 && p.X < match.ArenaWidth && p.Y > 0 && p.Y < match.ArenaHeight {
			out = append(out, p)
		}
	}
	return out
}

func pursue(in []match.LivingEntity, avatar match.LivingEntity) []match.LivingEntity {
	out := make([]match.LivingEntity, 0, len(in))
	for _, h := range in {
		angle := math.Atan2(avatar.Y-h.Y, avatar.X-h.X)
		h.X += math.Cos(angle) * h.Speed
		h.Y += math.Sin(angle) * h.Speed
		out = append(out, h)
	}
	return out
}

// resolveHits applies projectile damage. Each hostile scans the shared
// projectile list newest-first and stops as soon as it dies; a projectile is
// consumed by the first hostile it touches.
func resolveHits(hostiles []match.LivingEntity, projectiles []match.Projectile) ([]match.LivingEntity, []match.Projectile, int) {
	survivors := make([]match.LivingEntity, 0, len(hostiles))
	gained := 0

	for _, h := range hostiles {
		dead := false
		for i := len(projectiles) - 1; i >= 0; i-- {
			p := projectiles[i]
			if distance(p.X, p.Y, h.X, h.Y) >= h.Width/2+p.Width/2 {
				continue
			}
			h.HP -= p.Damage
			projectiles = append(projectiles[:i], projectiles[i+1:]...)
			if h.HP <= 0 {
				dead = true
				gained += scoreFor(h.Type)
				break
			}
		}
		if !dead {
			survivors = append(survivors, h)
		}
	}
	return survivors, projectiles, gained
}

// resolveContacts consumes every hostile touching the avatar and returns the
// avatar's hp after their damage. The hp is not clamped here.
func resolveContacts(hostiles []match.LivingEntity, avatar match.LivingEntity) ([]match.LivingEntity, int) {
	hp := avatar.HP
	out := make([]match.LivingEntity, 0, len(hostiles))
	for _, h := range hostiles {
		if distance(h.X, h.Y, avatar.X, avatar.Y) < h.Width/2+avatar.Width/2 {
			hp -= h.Damage
			continue
		}
		out = append(out, h)
	}
	return out, hp
}

func scoreFor(t match.EntityType) int {
	if c, ok := match.ClassOf(t); ok {
		return c.Score
	}
	return 10
}

func distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x1-x2, y1-y2)
}
