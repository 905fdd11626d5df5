package engine

import (
	"math"

	"vision-server/internal/domain"
)

// dragThresholdPx - минимальный сдвиг указателя в пикселях карты,
// после которого жест считается перетаскиванием, а не кликом.
const dragThresholdPx = 4.0

// ViewTransform описывает вьюпорт мастерской поверхности.
// Экранные координаты указателя переводятся в пиксели карты
// через пан и зум, сдвиг сетки учитывается при переводе в клетки.
type ViewTransform struct {
	PanX float64
	PanY float64
	Zoom float64

	GridSizePx  int
	GridOffsetX int
	GridOffsetY int
}

// ToMapPixel переводит экранную точку в пиксели карты.
func (v ViewTransform) ToMapPixel(screenX, screenY float64) domain.Point {
	return domain.Point{
		X: (screenX - v.PanX) / v.Zoom,
		Y: (screenY - v.PanY) / v.Zoom,
	}
}

// ToGrid переводит пиксель карты в клетку сетки (floor).
func (v ViewTransform) ToGrid(p domain.Point) (int, int) {
	gx := int(math.Floor((p.X - float64(v.GridOffsetX)) / float64(v.GridSizePx)))
	gy := int(math.Floor((p.Y - float64(v.GridOffsetY)) / float64(v.GridSizePx)))
	return gx, gy
}

// CoordSpace - перевод между доменной позицией сущности и пикселями карты.
// Токены живут в клетках сетки, свободные источники света - в пикселях;
// одна процедура драга обслуживает обоих через этот интерфейс.
type CoordSpace interface {
	ToPixel(meta domain.MapMeta) domain.Point
	FromPixel(p domain.Point, view ViewTransform, snap bool)
}

// TokenSpace привязывает драг к токену. Коммит всегда попадает в клетку
// floor(px/grid): пиксельная позиция токена - производная от клетки,
// так что прилипание к центру происходит само собой.
type TokenSpace struct {
	T *domain.Token
}

func (s TokenSpace) ToPixel(meta domain.MapMeta) domain.Point {
	return s.T.PixelPos(meta)
}

func (s TokenSpace) FromPixel(p domain.Point, view ViewTransform, _ bool) {
	s.T.GridX, s.T.GridY = view.ToGrid(p)
}

// LightSpace привязывает драг к свободному источнику света.
// Свет хранит пиксели напрямую; snap притягивает его к центру клетки.
type LightSpace struct {
	L *domain.LightSource
}

func (s LightSpace) ToPixel(domain.MapMeta) domain.Point {
	return s.L.Pos
}

func (s LightSpace) FromPixel(p domain.Point, view ViewTransform, snap bool) {
	if snap {
		gx, gy := view.ToGrid(p)
		half := float64(view.GridSizePx) / 2
		p = domain.Point{
			X: float64(gx*view.GridSizePx+view.GridOffsetX) + half,
			Y: float64(gy*view.GridSizePx+view.GridOffsetY) + half,
		}
	}
	s.L.Pos = p
}

// DragState - состояние активного перетаскивания.
// Живет только внутри горутины сессии, вовне не выходит.
type DragState struct {
	TargetID string
	View     ViewTransform
	Space    CoordSpace

	// startPx - пиксель карты под указателем в момент захвата.
	startPx domain.Point

	// anchorPx - позиция цели в момент захвата.
	anchorPx domain.Point

	// currentPx - провизорная позиция (anchor + накопленный сдвиг).
	currentPx domain.Point

	moved bool
}

// NewDragState фиксирует исходные точки жеста.
func NewDragState(targetID string, pointerPx domain.Point, space CoordSpace, view ViewTransform, meta domain.MapMeta) *DragState {
	anchor := space.ToPixel(meta)
	return &DragState{
		TargetID:  targetID,
		View:      view,
		Space:     space,
		startPx:   pointerPx,
		anchorPx:  anchor,
		currentPx: anchor,
	}
}

// Update двигает провизорную позицию. Возвращает true, когда позиция
// изменилась и стоит слать DRAG_LIVE: до порога жест еще клик.
func (d *DragState) Update(screenX, screenY float64) bool {
	px := d.View.ToMapPixel(screenX, screenY)
	dx := px.X - d.startPx.X
	dy := px.Y - d.startPx.Y

	if !d.moved && math.Hypot(dx, dy) < dragThresholdPx {
		return false
	}

	d.moved = true
	d.currentPx = domain.Point{X: d.anchorPx.X + dx, Y: d.anchorPx.Y + dy}
	return true
}

// Current возвращает провизорную пиксельную позицию цели.
func (d *DragState) Current() domain.Point {
	return d.currentPx
}

// Moved сообщает, превысил ли жест порог перетаскивания.
func (d *DragState) Moved() bool {
	return d.moved
}

// Commit записывает провизорную позицию в цель.
func (d *DragState) Commit(snap bool) {
	d.Space.FromPixel(d.currentPx, d.View, snap)
}
