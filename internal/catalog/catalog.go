// Package catalog holds the items viewers can buy. The host ships with a
// built-in catalog; an operator may replace it with a JSON file.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"

	"github.com/nfrund/chaosarena/internal/domain"
	"github.com/nfrund/chaosarena/internal/match"
	"github.com/nfrund/chaosarena/internal/sim"
)

// Category decides whether an item hurts or helps the avatar.
type Category string

const (
	CategoryBuff   Category = "BUFF"
	CategoryDebuff Category = "DEBUFF"
)

// Item is one purchasable effect. For DEBUFF items Effect names a hostile
// class; for BUFF items it names a sim.BuffKind.
type Item struct {
	ID       string   `json:"id" validate:"required,max=64"`
	Name     string   `json:"name" validate:"required,max=64"`
	Cost     int      `json:"cost" validate:"gt=0"`
	Category Category `json:"category" validate:"required,oneof=BUFF DEBUFF"`
	Effect   string   `json:"effect" validate:"required,effect"`
}

// HostileClass returns the class a DEBUFF item spawns.
func (i Item) HostileClass() match.EntityType {
	return match.EntityType(i.Effect)
}

// BuffKind returns the effect a BUFF item applies.
func (i Item) BuffKind() sim.BuffKind {
	return sim.BuffKind(i.Effect)
}

var validate = validator.New()

func init() {
	_ = validate.RegisterValidation("effect", validateEffect)
	validate.RegisterStructValidation(validateItem, Item{})
}

func validateEffect(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case string(match.TypeEnemyBasic), string(match.TypeEnemyFast), string(match.TypeEnemyTank),
		string(sim.BuffHeal), string(sim.BuffDamageUp):
		return true
	}
	return false
}

// validateItem rejects effects that do not belong to the item's category.
func validateItem(sl validator.StructLevel) {
	item := sl.Current().Interface().(Item)
	hostile := match.IsHostile(item.HostileClass())
	if item.Category == CategoryDebuff && !hostile {
		sl.ReportError(item.Effect, "Effect", "effect", "debuff_effect", "")
	}
	if item.Category == CategoryBuff && hostile {
		sl.ReportError(item.Effect, "Effect", "effect", "buff_effect", "")
	}
}

// Catalog is an immutable, ordered set of items.
type Catalog struct {
	items []Item
	byID  map[string]Item
}

// New validates items and builds a catalog. Ids must be unique.
func New(items []Item) (*Catalog, error) {
	if len(items) == 0 {
		return nil, errors.New("catalog is empty")
	}
	c := &Catalog{
		items: make([]Item, 0, len(items)),
		byID:  make(map[string]Item, len(items)),
	}
	for _, it := range items {
		if err := validate.Struct(it); err != nil {
			return nil, fmt.Errorf("item %q: %w", it.ID, err)
		}
		if _, dup := c.byID[it.ID]; dup {
			return nil, fmt.Errorf("item %q listed twice", it.ID)
		}
		c.items = append(c.items, it)
		c.byID[it.ID] = it
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New([]Item{
		{ID: "spawn_basic", Name: "Spawn Minion", Cost: 50, Category: CategoryDebuff, Effect: string(match.TypeEnemyBasic)},
		{ID: "spawn_fast", Name: "Spawn Speedster", Cost: 100, Category: CategoryDebuff, Effect: string(match.TypeEnemyFast)},
		{ID: "spawn_tank", Name: "Spawn Tank", Cost: 200, Category: CategoryDebuff, Effect: string(match.TypeEnemyTank)},
		{ID: "heal_player", Name: "Heal Streamer", Cost: 150, Category: CategoryBuff, Effect: string(sim.BuffHeal)},
		{ID: "buff_damage", Name: "Damage Boost", Cost: 300, Category: CategoryBuff, Effect: string(sim.BuffDamageUp)},
	})
	if err != nil {
		panic(fmt.Sprintf("built-in catalog: %v", err))
	}
	return c
}

// Load reads a JSON array of items from path. An empty path yields Default.
func Load(fs afero.Fs, path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("catalog file %s does not exist: %w", path, err)
		}
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return New(items)
}

// Lookup finds an item by id.
func (c *Catalog) Lookup(id string) (Item, error) {
	it, ok := c.byID[id]
	if !ok {
		return Item{}, fmt.Errorf("item %q: %w", id, domain.ErrUnknownItem)
	}
	return it, nil
}

// Items returns the catalog in listing order.
func (c *Catalog) Items() []Item {
	return append([]Item(nil), c.items...)
}
