package domain

import "math"

// Epsilon для сравнения координат. Всё, что короче, считается вырожденным.
const GeomEpsilon = 1e-9

// Point - координата в пиксельном пространстве карты.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) DistanceTo(other Point) float64 {
	return math.Hypot(other.X-p.X, other.Y-p.Y)
}

// AngleTo возвращает угол луча от p к other в радианах (-Pi..Pi].
func (p Point) AngleTo(other Point) float64 {
	return math.Atan2(other.Y-p.Y, other.X-p.X)
}

// IsFinite проверяет, что обе координаты - нормальные числа (не NaN/Inf).
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Segment - отрезок-заслон (стена или закрытый портал).
type Segment struct {
	P1 Point `json:"p1"`
	P2 Point `json:"p2"`
}

func (s Segment) Length() float64 {
	return s.P1.DistanceTo(s.P2)
}

// IsDegenerate: отрезок нулевой длины или с «битыми» координатами.
// Такая геометрия не должна попадать в расчет видимости.
func (s Segment) IsDegenerate() bool {
	if !s.P1.IsFinite() || !s.P2.IsFinite() {
		return true
	}
	return s.Length() < GeomEpsilon
}
