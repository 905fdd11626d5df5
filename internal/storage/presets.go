package storage

import (
	"github.com/google/uuid"

	"vision-server/internal/domain"
)

// Пресеты источников света в футах. Радиусы стандартные для настолок:
// факел 20/40, фонарь 30/60.
const (
	TorchBrightFt   = 20
	TorchDimFt      = 40
	LanternBrightFt = 30
	LanternDimFt    = 60
)

// TorchLight собирает новый факел. Если tokenID не пустой, факел
// прикреплен к токену и следует за ним.
func TorchLight(name, tokenID string, pos domain.Point) domain.LightSource {
	return domain.LightSource{
		ID:       uuid.NewString(),
		Name:     name,
		Pos:      pos,
		TokenID:  tokenID,
		BrightFt: TorchBrightFt,
		DimFt:    TorchDimFt,
		Color:    "#ff9329",
		Active:   true,
	}
}

// LanternLight собирает новый фонарь.
func LanternLight(name, tokenID string, pos domain.Point) domain.LightSource {
	return domain.LightSource{
		ID:       uuid.NewString(),
		Name:     name,
		Pos:      pos,
		TokenID:  tokenID,
		BrightFt: LanternBrightFt,
		DimFt:    LanternDimFt,
		Color:    "#fff1b5",
		Active:   true,
	}
}
