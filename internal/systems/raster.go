package systems

import "vision-server/internal/domain"

// RasterizePolygon переводит полигон видимости в битовую маску клеток.
// Клетка считается видимой, если её центр лежит внутри полигона.
// Клетка точки обзора всегда видима (наблюдатель видит пол под собой,
// даже если центр его клетки формально на границе полигона).
func RasterizePolygon(poly domain.Polygon, vantage domain.Point, meta domain.MapMeta) *domain.GridMask {
	mask := domain.NewGridMask(meta.Cols(), meta.Rows())
	if len(poly.Vertices) < 3 {
		return mask
	}

	grid := float64(meta.GridSizePx)
	for y := 0; y < mask.Rows; y++ {
		for x := 0; x < mask.Cols; x++ {
			center := domain.Point{
				X: float64(meta.GridOffsetX) + (float64(x)+0.5)*grid,
				Y: float64(meta.GridOffsetY) + (float64(y)+0.5)*grid,
			}
			if poly.Contains(center) {
				mask.Set(x, y)
			}
		}
	}

	vx := int((vantage.X - float64(meta.GridOffsetX)) / grid)
	vy := int((vantage.Y - float64(meta.GridOffsetY)) / grid)
	mask.Set(vx, vy)

	return mask
}
