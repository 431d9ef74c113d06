package sim

import (
	"math"

	"github.com/google/uuid"
	"github.com/nfrund/chaosarena/internal/match"
)

// Rand is the randomness the spawner needs. *math/rand.Rand satisfies it;
// tests pass a scripted source.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// BuffKind is the effect tag of a BUFF item.
type BuffKind string

const (
	BuffHeal     BuffKind = "HEAL"
	BuffDamageUp BuffKind = "DMG_UP"
)

// Edge identifies one side of the arena, clockwise from the top.
type Edge int

const (
	EdgeTop Edge = iota
	EdgeRight
	EdgeBottom
	EdgeLeft
)

// Move steps the avatar along (dx, dy). The direction is normalized and scaled
// by the avatar's speed, then clamped so the bounding box stays in the arena.
func Move(s match.State, dx, dy float64) match.State {
	if !s.Playing() {
		return s
	}

	var mx, my float64
	if length := math.Hypot(dx, dy); length > 0 {
		mx = dx / length * s.Avatar.Speed
		my = dy / length * s.Avatar.Speed
	}

	a := s.Avatar
	a.X = clamp(a.X+mx, a.Width/2, match.ArenaWidth-a.Width/2)
	a.Y = clamp(a.Y+my, a.Height/2, match.ArenaHeight-a.Height/2)
	s.Avatar = a
	return s
}

// Shoot fires a projectile from the avatar toward (tx, ty).
func Shoot(s match.State, tx, ty float64) match.State {
	if !s.Playing() {
		return s
	}

	angle := math.Atan2(ty-s.Avatar.Y, tx-s.Avatar.X)
	p := match.Projectile{
		Entity: match.Entity{
			ID:     uuid.NewString(),
			Type:   match.TypeProjectile,
			X:      s.Avatar.X,
			Y:      s.Avatar.Y,
			VX:     math.Cos(angle) * match.ProjectileSpeed,
			VY:     math.Sin(angle) * match.ProjectileSpeed,
			Width:  match.ProjectileSize,
			Height: match.ProjectileSize,
			Color:  match.ProjectileColor,
		},
		Damage:  s.Avatar.Damage,
		OwnerID: s.Avatar.ID,
	}

	s.Projectiles = append(append(make([]match.Projectile, 0, len(s.Projectiles)+1), s.Projectiles...), p)
	return s
}

// SpawnHostile places a new hostile of the given class just outside a random
// arena edge. Unknown classes spawn as basic hostiles.
func SpawnHostile(s match.State, class match.EntityType, rng Rand) match.State {
	if !s.Playing() {
		return s
	}

	cfg, ok := match.ClassOf(class)
	if !ok {
		class = match.TypeEnemyBasic
		cfg, _ = match.ClassOf(class)
	}

	x, y := SpawnPoint(Edge(rng.Intn(4)), rng.Float64())
	h := match.LivingEntity{
		Entity: match.Entity{
			ID:     uuid.NewString(),
			Type:   class,
			X:      x,
			Y:      y,
			Width:  cfg.Width,
			Height: cfg.Height,
			Color:  cfg.Color,
		},
		HP:     cfg.HP,
		MaxHP:  cfg.HP,
		Speed:  cfg.Speed,
		Damage: cfg.Damage,
	}

	s.Hostiles = append(append(make([]match.LivingEntity, 0, len(s.Hostiles)+1), s.Hostiles...), h)
	return s
}

// SpawnPoint maps an edge and a fraction in [0,1) to a point SpawnOffset units
// outside that edge.
func SpawnPoint(edge Edge, frac float64) (float64, float64) {
	switch edge {
	case EdgeTop:
		return frac * match.ArenaWidth, -match.SpawnOffset
	case EdgeRight:
		return match.ArenaWidth + match.SpawnOffset, frac * match.ArenaHeight
	case EdgeBottom:
		return frac * match.ArenaWidth, match.ArenaHeight + match.SpawnOffset
	default:
		return -match.SpawnOffset, frac * match.ArenaHeight
	}
}

// Buff applies a BUFF effect to the avatar. Unknown kinds change nothing.
func Buff(s match.State, kind BuffKind) match.State {
	if !s.Playing() {
		return s
	}

	switch kind {
	case BuffHeal:
		s.Avatar.HP = min(s.Avatar.MaxHP, s.Avatar.HP+match.HealAmount)
	case BuffDamageUp:
		s.Avatar.Damage += match.DamageUpAmount
	}
	return s
}

// AmbientSpawnChance is the per-tick probability of a free basic spawn.
func AmbientSpawnChance(s match.State) float64 {
	return (match.AmbientSpawnBase + s.TimeElapsed*match.AmbientSpawnGrowth) * s.DifficultyMultiplier
}

// AmbientSpawn rolls the ambient spawn for this tick.
func AmbientSpawn(s match.State, rng Rand) match.State {
	if !s.Playing() {
		return s
	}
	if rng.Float64() < AmbientSpawnChance(s) {
		return SpawnHostile(s, match.TypeEnemyBasic, rng)
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
