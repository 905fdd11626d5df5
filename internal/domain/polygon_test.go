package domain

import (
	"math"
	"testing"
)

func square(size float64) Polygon {
	return Polygon{Vertices: []Point{
		{X: 0, Y: 0},
		{X: size, Y: 0},
		{X: size, Y: size},
		{X: 0, Y: size},
	}}
}

func TestPolygonArea(t *testing.T) {
	if got := square(10).Area(); math.Abs(got-100) > 1e-9 {
		t.Errorf("Area() = %v, want 100", got)
	}

	// Вырожденный многоугольник
	if got := (Polygon{Vertices: []Point{{0, 0}, {1, 1}}}).Area(); got != 0 {
		t.Errorf("degenerate polygon area = %v, want 0", got)
	}
}

func TestPolygonContains(t *testing.T) {
	pg := square(10)

	if !pg.Contains(Point{X: 5, Y: 5}) {
		t.Error("center must be inside")
	}
	if pg.Contains(Point{X: 15, Y: 5}) {
		t.Error("outside point must not be inside")
	}
	// Граница считается внутренней
	if !pg.Contains(Point{X: 10, Y: 5}) {
		t.Error("boundary point must count as inside")
	}
	if !pg.Contains(Point{X: 0, Y: 0}) {
		t.Error("vertex must count as inside")
	}
}
