package systems

import (
	"math"
	"testing"

	"vision-server/internal/domain"
	"vision-server/pkg/logger"
)

// roomWalls строит прямоугольную комнату из четырех стен.
func roomWalls(x, y, w, h float64) []domain.Wall {
	p := func(px, py float64) domain.Point { return domain.Point{X: px, Y: py} }
	return []domain.Wall{
		{ID: "n", Seg: domain.Segment{P1: p(x, y), P2: p(x+w, y)}},
		{ID: "e", Seg: domain.Segment{P1: p(x+w, y), P2: p(x+w, y+h)}},
		{ID: "s", Seg: domain.Segment{P1: p(x+w, y+h), P2: p(x, y+h)}},
		{ID: "w", Seg: domain.Segment{P1: p(x, y+h), P2: p(x, y)}},
	}
}

func TestVisibility_ConvexRoom(t *testing.T) {
	logger.Init()

	// Точка обзора строго внутри выпуклой комнаты без порталов:
	// полигон видимости совпадает с границей комнаты.
	walls := roomWalls(0, 0, 400, 300)
	occ := OccluderSet(walls, nil)

	poly := ComputeVisibilityPolygon(domain.Point{X: 150, Y: 150}, occ, 10000)

	wantArea := 400.0 * 300.0
	got := poly.Area()
	if math.Abs(got-wantArea)/wantArea > 0.01 {
		t.Errorf("room area = %v, want ~%v", got, wantArea)
	}

	// Все вершины лежат на границе комнаты
	for _, v := range poly.Vertices {
		onX := math.Abs(v.X) < 1e-6 || math.Abs(v.X-400) < 1e-6
		onY := math.Abs(v.Y) < 1e-6 || math.Abs(v.Y-300) < 1e-6
		inX := v.X >= -1e-6 && v.X <= 400+1e-6
		inY := v.Y >= -1e-6 && v.Y <= 300+1e-6
		if !((onX && inY) || (onY && inX)) {
			t.Fatalf("vertex %v is not on the room boundary", v)
		}
	}
}

func TestVisibility_PortalMonotonicity(t *testing.T) {
	logger.Init()

	// Комната, рассеченная стеной с проемом-порталом.
	walls := roomWalls(0, 0, 400, 300)
	walls = append(walls,
		domain.Wall{ID: "div1", Seg: domain.Segment{P1: domain.Point{X: 200, Y: 0}, P2: domain.Point{X: 200, Y: 120}}},
		domain.Wall{ID: "div2", Seg: domain.Segment{P1: domain.Point{X: 200, Y: 180}, P2: domain.Point{X: 200, Y: 300}}},
	)
	door := domain.Portal{ID: "d1", Seg: domain.Segment{P1: domain.Point{X: 200, Y: 120}, P2: domain.Point{X: 200, Y: 180}}}

	vantage := domain.Point{X: 100, Y: 150}

	door.Closed = true
	closedPoly := ComputeVisibilityPolygon(vantage, OccluderSet(walls, []domain.Portal{door}), 10000)

	door.Closed = false
	openPoly := ComputeVisibilityPolygon(vantage, OccluderSet(walls, []domain.Portal{door}), 10000)

	if openPoly.Area() < closedPoly.Area() {
		t.Errorf("opening a portal must not shrink visibility: open=%v closed=%v",
			openPoly.Area(), closedPoly.Area())
	}

	// Закрытая дверь ограничивает видимость левой половиной
	if closedPoly.Area() > 400*300/2*1.05 {
		t.Errorf("closed portal polygon too large: %v", closedPoly.Area())
	}

	// Через открытую дверь видна точка за стеной
	behind := domain.Point{X: 300, Y: 150}
	if !openPoly.Contains(behind) {
		t.Error("point behind the open portal must be visible")
	}
	if closedPoly.Contains(behind) {
		t.Error("point behind the closed portal must be hidden")
	}
}

func TestVisibility_BisectingWall(t *testing.T) {
	logger.Init()

	// Сценарий: глухая стена делит комнату, токен на стороне A.
	walls := roomWalls(0, 0, 400, 300)
	walls = append(walls, domain.Wall{
		ID:  "divider",
		Seg: domain.Segment{P1: domain.Point{X: 200, Y: 0}, P2: domain.Point{X: 200, Y: 300}},
	})
	occ := OccluderSet(walls, nil)

	poly := ComputeVisibilityPolygon(domain.Point{X: 100, Y: 150}, occ, 10000)

	// Сторона A видима, сторона B - нет
	if !poly.Contains(domain.Point{X: 50, Y: 50}) {
		t.Error("side A must be visible")
	}
	if poly.Contains(domain.Point{X: 300, Y: 150}) {
		t.Error("side B must be hidden behind the wall")
	}

	// Площадь ~ половина комнаты
	wantArea := 200.0 * 300.0
	if math.Abs(poly.Area()-wantArea)/wantArea > 0.02 {
		t.Errorf("side A area = %v, want ~%v", poly.Area(), wantArea)
	}
}

func TestVisibility_RangeClipping(t *testing.T) {
	logger.Init()

	// Без заслонов полигон ограничен окружностью maxRange
	poly := ComputeVisibilityPolygon(domain.Point{X: 0, Y: 0}, nil, 100)

	for _, v := range poly.Vertices {
		dist := math.Hypot(v.X, v.Y)
		if dist > 100+1e-6 {
			t.Fatalf("vertex %v beyond max range: %v", v, dist)
		}
	}

	// Площадь близка к кругу (вписанный многоугольник чуть меньше)
	circleArea := math.Pi * 100 * 100
	if poly.Area() > circleArea || poly.Area() < circleArea*0.9 {
		t.Errorf("polygon area %v out of expected circle bounds %v", poly.Area(), circleArea)
	}
}

func TestVisibility_SharedCorner(t *testing.T) {
	logger.Init()

	// Две коллинеарные стены с общей вершиной ровно напротив
	// наблюдателя. Классический источник артефактов: луч точно в
	// вершину без эпсилон-сдвига «проваливается» между стенами.
	shared := domain.Point{X: 200, Y: 100}
	walls := []domain.Wall{
		{ID: "a", Seg: domain.Segment{P1: domain.Point{X: 200, Y: 0}, P2: shared}},
		{ID: "b", Seg: domain.Segment{P1: shared, P2: domain.Point{X: 200, Y: 200}}},
	}
	occ := OccluderSet(walls, nil)

	vantage := domain.Point{X: 100, Y: 100} // вершина ровно по горизонтали
	poly := ComputeVisibilityPolygon(vantage, occ, 1000)

	// Точка прямо за общей вершиной должна остаться скрытой
	if poly.Contains(domain.Point{X: 300, Y: 100}) {
		t.Error("point straight behind the shared vertex must be occluded")
	}
	// Точка до стены видима
	if !poly.Contains(domain.Point{X: 150, Y: 100}) {
		t.Error("point before the wall must be visible")
	}
}

func TestVisibility_ZeroRange(t *testing.T) {
	logger.Init()

	poly := ComputeVisibilityPolygon(domain.Point{}, nil, 0)
	if len(poly.Vertices) != 0 {
		t.Errorf("zero range must produce an empty polygon, got %d vertices", len(poly.Vertices))
	}
}

func TestOccluderSet_PortalStates(t *testing.T) {
	walls := roomWalls(0, 0, 100, 100)
	portals := []domain.Portal{
		{ID: "open", Seg: domain.Segment{P1: domain.Point{X: 0, Y: 0}, P2: domain.Point{X: 10, Y: 0}}, Closed: false},
		{ID: "closed", Seg: domain.Segment{P1: domain.Point{X: 0, Y: 0}, P2: domain.Point{X: 0, Y: 10}}, Closed: true},
	}

	occ := OccluderSet(walls, portals)
	if len(occ) != len(walls)+1 {
		t.Errorf("occluder set size = %d, want %d (walls + closed portal only)", len(occ), len(walls)+1)
	}
}

func TestHasLineOfSight(t *testing.T) {
	logger.Init()

	wall := []domain.Segment{{P1: domain.Point{X: 50, Y: 0}, P2: domain.Point{X: 50, Y: 100}}}

	if HasLineOfSight(domain.Point{X: 0, Y: 50}, domain.Point{X: 100, Y: 50}, wall) {
		t.Error("wall between points must block LOS")
	}
	if !HasLineOfSight(domain.Point{X: 0, Y: 50}, domain.Point{X: 40, Y: 50}, wall) {
		t.Error("points on the same side must see each other")
	}
}
