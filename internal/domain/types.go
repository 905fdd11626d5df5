package domain

import "fmt"

// Режимы отображения стола. Переключаются только явным действием ГМ.
type Mode uint8

const (
	ModeFog      Mode = iota // Туман войны (режим по умолчанию)
	ModeToken                // Карта открыта, чужие токены скрыты вне видимости
	ModeReveal               // Всё открыто для обеих поверхностей
	ModeBlackout             // Всё скрыто (ручная подготовка сцены)
)

func (m Mode) String() string {
	switch m {
	case ModeFog:
		return "FOG"
	case ModeToken:
		return "TOKEN"
	case ModeReveal:
		return "REVEAL"
	case ModeBlackout:
		return "BLACKOUT"
	default:
		return "UNKNOWN"
	}
}

// ParseMode разбирает строковое имя режима из команды клиента.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "FOG":
		return ModeFog, nil
	case "TOKEN":
		return ModeToken, nil
	case "REVEAL":
		return ModeReveal, nil
	case "BLACKOUT":
		return ModeBlackout, nil
	default:
		return ModeFog, fmt.Errorf("unknown display mode: %q", s)
	}
}

// Уровни освещенности. Порядок важен: Dark < Dim < Bright,
// при агрегации берется максимум по всем источникам.
type LightLevel uint8

const (
	LightDark LightLevel = iota
	LightDim
	LightBright
)

func (l LightLevel) String() string {
	switch l {
	case LightBright:
		return "BRIGHT"
	case LightDim:
		return "DIM"
	default:
		return "DARK"
	}
}

// Типы зрения токенов.
const (
	VisionNone       = "none"
	VisionDarkvision = "darkvision"
)

// FeetPerCell - стандартный масштаб сетки: одна клетка = 5 футов.
const FeetPerCell = 5.0

// FeetToPx переводит дистанцию в футах в пиксели карты.
func FeetToPx(feet int, gridSizePx int) float64 {
	return float64(feet) / FeetPerCell * float64(gridSizePx)
}
