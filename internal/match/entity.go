package match

// EntityType tags what an entity is. Hostile classes are entity types too,
// which is what the scoring and spawn tables are keyed by.
type EntityType string

const (
	TypePlayer      EntityType = "PLAYER"
	TypeEnemyBasic  EntityType = "ENEMY_BASIC"
	TypeEnemyTank   EntityType = "ENEMY_TANK"
	TypeEnemyFast   EntityType = "ENEMY_FAST"
	TypeProjectile  EntityType = "PROJECTILE"
	TypeItemHealth  EntityType = "ITEM_HEALTH"
	TypeItemPowerUp EntityType = "ITEM_POWERUP"
)

// Entity is the positional base of everything in the arena. X and Y are the
// center of the bounding box.
type Entity struct {
	ID     string     `json:"id"`
	Type   EntityType `json:"type"`
	X      float64    `json:"x"`
	Y      float64    `json:"y"`
	VX     float64    `json:"vx"`
	VY     float64    `json:"vy"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Color  string     `json:"color"`
}

// LivingEntity is an entity with hit points. 0 <= HP <= MaxHP holds after
// every committed transition.
type LivingEntity struct {
	Entity
	HP     int     `json:"hp"`
	MaxHP  int     `json:"maxHp"`
	Speed  float64 `json:"speed"`
	Damage int     `json:"damage"`
}

// Projectile travels in a straight line until it hits a hostile or leaves the
// arena. OwnerID is a weak reference; the owner may already be gone.
type Projectile struct {
	Entity
	Damage  int    `json:"damage"`
	OwnerID string `json:"ownerId"`
}

// Alive reports whether the entity still has hit points.
func (l LivingEntity) Alive() bool {
	return l.HP > 0
}

// HPPercent is the remaining health as a whole percentage of MaxHP.
func (l LivingEntity) HPPercent() int {
	if l.MaxHP <= 0 {
		return 0
	}
	return l.HP * 100 / l.MaxHP
}
