package domain

import "math"

// Polygon - звездообразный многоугольник видимости.
// Вершины упорядочены по углу вокруг точки обзора.
type Polygon struct {
	Vertices []Point `json:"vertices"`
}

// Area считает площадь по формуле шнуровки (Гаусса).
func (pg Polygon) Area() float64 {
	n := len(pg.Vertices)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		a := pg.Vertices[i]
		b := pg.Vertices[(i+1)%n]
		sum += a.X*b.Y - b.X*a.Y
	}
	return math.Abs(sum) / 2
}

// Contains проверяет точку методом пересечения лучом (even-odd).
// Точки на границе считаются внутренними - для классификации света
// это безопаснее, чем «мигающая» граница.
func (pg Polygon) Contains(p Point) bool {
	n := len(pg.Vertices)
	if n < 3 {
		return false
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a := pg.Vertices[i]
		b := pg.Vertices[j]

		// Точка лежит на ребре?
		if pointOnSegment(p, a, b) {
			return true
		}

		if (a.Y > p.Y) != (b.Y > p.Y) {
			xCross := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

func pointOnSegment(p, a, b Point) bool {
	cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
	if math.Abs(cross) > 1e-6 {
		return false
	}
	dot := (p.X-a.X)*(b.X-a.X) + (p.Y-a.Y)*(b.Y-a.Y)
	if dot < 0 {
		return false
	}
	lenSq := (b.X-a.X)*(b.X-a.X) + (b.Y-a.Y)*(b.Y-a.Y)
	return dot <= lenSq
}
