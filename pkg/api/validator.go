package api

import (
	"errors"
	"math"
)

// Validator - интерфейс, который могут реализовать DTO.
// Обертка хендлеров вызывает Validate автоматически после распаковки.
type Validator interface {
	Validate() error
}

func (p MoveTokenPayload) Validate() error {
	if p.TokenID == "" {
		return errors.New("tokenId is required")
	}
	if p.GridX < 0 || p.GridY < 0 {
		return errors.New("grid coordinates cannot be negative")
	}
	return nil
}

func (p DragStartPayload) Validate() error {
	if p.TokenID == "" {
		return errors.New("tokenId is required")
	}
	if math.IsNaN(p.ScreenX) || math.IsNaN(p.ScreenY) {
		return errors.New("pointer coordinates must be numbers")
	}
	if p.Zoom <= 0 {
		return errors.New("zoom must be positive")
	}
	return nil
}

func (p DragMovePayload) Validate() error {
	if math.IsNaN(p.ScreenX) || math.IsNaN(p.ScreenY) {
		return errors.New("pointer coordinates must be numbers")
	}
	return nil
}

func (p TargetPayload) Validate() error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	return nil
}

func (p SetModePayload) Validate() error {
	if p.Mode == "" {
		return errors.New("mode is required")
	}
	return nil
}

func (p RevealRectPayload) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return errors.New("reveal rect must have positive dimensions")
	}
	return nil
}

func (p RevealCirclePayload) Validate() error {
	if p.Radius <= 0 {
		return errors.New("reveal radius must be positive")
	}
	return nil
}
