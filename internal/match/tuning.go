package match

// Arena bounds in simulation units.
const (
	ArenaWidth  = 800.0
	ArenaHeight = 600.0
)

const (
	AvatarID = "player"

	ProjectileSpeed = 10.0
	ProjectileSize  = 8.0
	ProjectileColor = "#facc15"

	HealAmount     = 20
	DamageUpAmount = 10

	// SpawnOffset is how far outside the arena edge a hostile appears.
	SpawnOffset = 20.0

	EventLogCap = 6
)

// Ambient spawn chance per tick is (AmbientSpawnBase + elapsed*AmbientSpawnGrowth)
// scaled by the difficulty multiplier.
const (
	AmbientSpawnBase   = 0.01
	AmbientSpawnGrowth = 0.0001
)

// HostileClass is the static configuration of one hostile type.
type HostileClass struct {
	Width  float64
	Height float64
	Color  string
	HP     int
	Speed  float64
	Damage int
	Score  int
}

var hostileClasses = map[EntityType]HostileClass{
	TypeEnemyBasic: {Width: 24, Height: 24, Color: "#ef4444", HP: 30, Speed: 2, Damage: 5, Score: 10},
	TypeEnemyTank:  {Width: 40, Height: 40, Color: "#7f1d1d", HP: 100, Speed: 1, Damage: 15, Score: 30},
	TypeEnemyFast:  {Width: 20, Height: 20, Color: "#f59e0b", HP: 15, Speed: 5, Damage: 8, Score: 20},
}

// ClassOf returns the configuration of a hostile type.
func ClassOf(t EntityType) (HostileClass, bool) {
	c, ok := hostileClasses[t]
	return c, ok
}

// IsHostile reports whether t names a hostile class.
func IsHostile(t EntityType) bool {
	_, ok := hostileClasses[t]
	return ok
}

// InitialAvatar returns the avatar as it is at the start of every match.
func InitialAvatar() LivingEntity {
	return LivingEntity{
		Entity: Entity{
			ID:     AvatarID,
			Type:   TypePlayer,
			X:      400,
			Y:      300,
			Width:  32,
			Height: 32,
			Color:  "#3b82f6",
		},
		HP:     100,
		MaxHP:  100,
		Speed:  7,
		Damage: 25,
	}
}
