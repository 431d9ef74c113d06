package handlers

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// MoveRequest steps the avatar one tick's worth along (dx, dy).
type MoveRequest struct {
	DX float64 `json:"dx" validate:"gte=-1,lte=1"`
	DY float64 `json:"dy" validate:"gte=-1,lte=1"`
}

// ShootRequest fires toward a point inside the arena.
type ShootRequest struct {
	X float64 `json:"x" validate:"gte=0,lte=800"`
	Y float64 `json:"y" validate:"gte=0,lte=600"`
}

// SpawnRequest is a free host-side spawn.
type SpawnRequest struct {
	Class string `json:"class" validate:"required,oneof=ENEMY_BASIC ENEMY_FAST ENEMY_TANK"`
}

// BuffRequest is a free host-side buff.
type BuffRequest struct {
	Kind string `json:"kind" validate:"required,oneof=HEAL DMG_UP"`
}
