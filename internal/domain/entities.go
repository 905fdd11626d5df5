package domain

import (
	"fmt"

	"vision-server/pkg/logger"
)

// MapMeta - метаданные карты: размеры в пикселях и параметры сетки.
type MapMeta struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	WidthPx     int    `json:"widthPx"`
	HeightPx    int    `json:"heightPx"`
	GridSizePx  int    `json:"gridSizePx"`
	GridOffsetX int    `json:"gridOffsetX"`
	GridOffsetY int    `json:"gridOffsetY"`

	// AmbientDark: карта без внешнего освещения (подземелье).
	// Если false, всё видимое считается ярко освещенным.
	AmbientDark bool `json:"ambientDark"`

	// FogEnabled: ведется ли накопление тумана войны для этой карты.
	FogEnabled bool `json:"fogEnabled"`
}

// Cols возвращает число колонок сетки (округление вверх).
func (m MapMeta) Cols() int {
	if m.GridSizePx <= 0 {
		return 0
	}
	return (m.WidthPx + m.GridSizePx - 1) / m.GridSizePx
}

func (m MapMeta) Rows() int {
	if m.GridSizePx <= 0 {
		return 0
	}
	return (m.HeightPx + m.GridSizePx - 1) / m.GridSizePx
}

// CellCenter возвращает пиксельный центр клетки сетки.
func (m MapMeta) CellCenter(gridX, gridY int) Point {
	half := float64(m.GridSizePx) / 2
	return Point{
		X: float64(gridX*m.GridSizePx+m.GridOffsetX) + half,
		Y: float64(gridY*m.GridSizePx+m.GridOffsetY) + half,
	}
}

// Wall - непрозрачный отрезок. Всегда блокирует и взгляд, и свет.
type Wall struct {
	ID  string  `json:"id"`
	Seg Segment `json:"seg"`
}

// Validate отсекает вырожденную геометрию на этапе загрузки.
// До калькулятора видимости такие стены доходить не должны.
func (w Wall) Validate() error {
	if w.Seg.IsDegenerate() {
		return fmt.Errorf("wall %s: degenerate segment (%v -> %v)", w.ID, w.Seg.P1, w.Seg.P2)
	}
	return nil
}

// Portal - стена с переключаемым состоянием (дверь).
// Блокирует взгляд и свет только пока Closed.
type Portal struct {
	ID     string  `json:"id"`
	Seg    Segment `json:"seg"`
	Closed bool    `json:"closed"`
}

func (p Portal) Validate() error {
	if p.Seg.IsDegenerate() {
		return fmt.Errorf("portal %s: degenerate segment (%v -> %v)", p.ID, p.Seg.P1, p.Seg.P2)
	}
	return nil
}

// LightSource - источник света.
// Если TokenID задан, позиция каждый пересчет берется у токена:
// сам источник позицией не владеет.
type LightSource struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Pos      Point  `json:"pos"`
	TokenID  string `json:"tokenId,omitempty"`
	BrightFt int    `json:"brightFt"`
	DimFt    int    `json:"dimFt"`
	Color    string `json:"color"`
	Active   bool   `json:"active"`
}

// Normalize чинит конфигурацию радиусов: dim < bright поднимается
// до bright с предупреждением, а не отклоняется.
func (l *LightSource) Normalize() {
	if l.DimFt < l.BrightFt {
		logger.Log.WithField("light_id", l.ID).Warnf(
			"light dim radius %dft is below bright radius %dft, clamping up", l.DimFt, l.BrightFt)
		l.DimFt = l.BrightFt
	}
}

func (l LightSource) Validate() error {
	if l.TokenID == "" && !l.Pos.IsFinite() {
		return fmt.Errorf("light %s: non-finite position", l.ID)
	}
	if l.BrightFt < 0 || l.DimFt < 0 {
		return fmt.Errorf("light %s: negative radius", l.ID)
	}
	return nil
}

// Token - фишка на карте. Позиция хранится в клетках сетки,
// пиксельная позиция - производная (центр клетки).
type Token struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	GridX int    `json:"gridX"`
	GridY int    `json:"gridY"`

	PlayerControlled bool `json:"playerControlled"`
	VisibleToPlayers bool `json:"visibleToPlayers"`

	VisionType    string `json:"visionType"` // none | darkvision
	VisionRangeFt int    `json:"visionRangeFt"`
	LightRadiusFt int    `json:"lightRadiusFt"`

	// Seq - монотонный счетчик подтвержденных перемещений.
	// Ответы персистенса со старым Seq отбрасываются.
	Seq uint64 `json:"-"`
}

// PixelPos возвращает пиксельную позицию токена на карте.
func (t Token) PixelPos(m MapMeta) Point {
	return m.CellCenter(t.GridX, t.GridY)
}

// ContributesToVision: только токены игроков, видимые игрокам,
// раскрывают туман. Монстры и NPC - никогда, независимо от флага.
func (t Token) ContributesToVision() bool {
	return t.PlayerControlled && t.VisibleToPlayers
}

func (t Token) Validate() error {
	if t.VisionRangeFt < 0 || t.LightRadiusFt < 0 {
		return fmt.Errorf("token %s: negative range", t.ID)
	}
	switch t.VisionType {
	case VisionNone, VisionDarkvision:
		return nil
	default:
		return fmt.Errorf("token %s: unknown vision type %q", t.ID, t.VisionType)
	}
}

// Marker - точка интереса на карте (метка ГМ).
type Marker struct {
	ID               string `json:"id"`
	Pos              Point  `json:"pos"`
	Label            string `json:"label"`
	Color            string `json:"color"`
	VisibleToPlayers bool   `json:"visibleToPlayers"`
}

func (mk Marker) Validate() error {
	if !mk.Pos.IsFinite() {
		return fmt.Errorf("marker %s: non-finite position", mk.ID)
	}
	return nil
}
