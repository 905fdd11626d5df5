package systems

import (
	"math"
	"sort"

	"vision-server/internal/domain"
	"vision-server/pkg/logger"

	"github.com/sirupsen/logrus"
)

// AngleEpsilon - сдвиг луча вокруг угла на конец заслона.
// Для каждого конца отрезка кастуем три луча: точно в вершину и
// на +-эпсилон. Без этого луч, попавший ровно в общую вершину двух
// стен, «проваливается» между ними и полигон рвется.
// Значение подобрано так, чтобы на картах до ~10000px соседние лучи
// не схлопывались в один угол в float64.
const AngleEpsilon = 1e-4

// fillerRays - количество равномерных дополнительных лучей.
// Они ограничивают полигон окружностью maxRange там, где заслонов нет.
const fillerRays = 16

// OccluderSet собирает актуальный набор заслонов:
// все стены плюс только ЗАКРЫТЫЕ порталы. Открытый портал не существует
// для взгляда и света.
func OccluderSet(walls []domain.Wall, portals []domain.Portal) []domain.Segment {
	segs := make([]domain.Segment, 0, len(walls)+len(portals))
	for _, w := range walls {
		segs = append(segs, w.Seg)
	}
	for _, p := range portals {
		if p.Closed {
			segs = append(segs, p.Seg)
		}
	}
	return segs
}

// ComputeVisibilityPolygon строит полигон видимости из точки vantage
// угловой разверткой (angular sweep): лучи к каждому концу заслона,
// ближайшее пересечение на луче, сортировка попаданий по углу.
// Результат ограничен окружностью радиуса maxRange.
//
// Вырожденные отрезки должны быть отсеяны валидацией до этого вызова.
func ComputeVisibilityPolygon(vantage domain.Point, occluders []domain.Segment, maxRange float64) domain.Polygon {
	visLogger := logger.Log.WithFields(logrus.Fields{
		"component": "visibility",
		"occluders": len(occluders),
	})

	if maxRange <= 0 {
		visLogger.Warn("visibility polygon requested with non-positive range")
		return domain.Polygon{}
	}

	// 1. Собираем углы-кандидаты
	angles := make([]float64, 0, len(occluders)*6+fillerRays)
	for _, seg := range occluders {
		for _, end := range []domain.Point{seg.P1, seg.P2} {
			a := vantage.AngleTo(end)
			angles = append(angles, a-AngleEpsilon, a, a+AngleEpsilon)
		}
	}
	for i := 0; i < fillerRays; i++ {
		angles = append(angles, -math.Pi+2*math.Pi*float64(i)/fillerRays)
	}

	sort.Float64s(angles)

	// 2. Кастуем лучи
	vertices := make([]domain.Point, 0, len(angles))
	var prev float64
	for i, a := range angles {
		// Схлопнувшиеся углы дают дубли вершин, пропускаем
		if i > 0 && math.Abs(a-prev) < 1e-12 {
			continue
		}
		prev = a

		dir := domain.Point{X: math.Cos(a), Y: math.Sin(a)}
		t := castRay(vantage, dir, occluders, maxRange)
		vertices = append(vertices, domain.Point{
			X: vantage.X + dir.X*t,
			Y: vantage.Y + dir.Y*t,
		})
	}

	visLogger.WithField("vertices", len(vertices)).Debug("visibility polygon built")

	return domain.Polygon{Vertices: vertices}
}

// castRay возвращает дистанцию до ближайшего заслона вдоль луча,
// не дальше maxRange.
func castRay(origin, dir domain.Point, occluders []domain.Segment, maxRange float64) float64 {
	nearest := maxRange
	for _, seg := range occluders {
		if t, ok := raySegmentIntersection(origin, dir, seg); ok && t < nearest {
			nearest = t
		}
	}
	return nearest
}

// raySegmentIntersection решает пересечение луча origin+t*dir с отрезком.
// Возвращает t (дистанцию вдоль луча) и признак попадания.
func raySegmentIntersection(origin, dir domain.Point, seg domain.Segment) (float64, bool) {
	ex := seg.P2.X - seg.P1.X
	ey := seg.P2.Y - seg.P1.Y

	denom := dir.X*ey - dir.Y*ex
	if math.Abs(denom) < 1e-12 {
		// Луч параллелен отрезку
		return 0, false
	}

	ax := seg.P1.X - origin.X
	ay := seg.P1.Y - origin.Y

	t := (ax*ey - ay*ex) / denom
	u := (ax*dir.Y - ay*dir.X) / denom

	// u - параметр вдоль отрезка; небольшой запас на малые погрешности,
	// чтобы луч в торец стены не проскальзывал мимо.
	const edgeSlack = 1e-9
	if t < 0 || u < -edgeSlack || u > 1+edgeSlack {
		return 0, false
	}
	return t, true
}

// HasLineOfSight: виден ли целевой пиксель из точки обзора напрямую.
// Используется для фильтрации токенов и маркеров по видимости.
func HasLineOfSight(from, to domain.Point, occluders []domain.Segment) bool {
	dist := from.DistanceTo(to)
	if dist < domain.GeomEpsilon {
		return true
	}
	dir := domain.Point{X: (to.X - from.X) / dist, Y: (to.Y - from.Y) / dist}
	for _, seg := range occluders {
		if t, ok := raySegmentIntersection(from, dir, seg); ok && t < dist-domain.GeomEpsilon {
			return false
		}
	}
	return true
}
