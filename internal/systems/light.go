package systems

import "vision-server/internal/domain"

// PreparedLight - источник света с заранее рассчитанным полигоном.
// Полигон пересчитывается на каждое обновление (позиция привязанного
// токена могла измениться), но внутри одного снапшота он стабилен.
type PreparedLight struct {
	Src      domain.LightSource
	Poly     domain.Polygon
	BrightPx float64
	DimPx    float64
}

// PrepareLight строит полигон распространения света.
// Заслоны гасят свет ровно так же, как блокируют взгляд.
func PrepareLight(light domain.LightSource, occluders []domain.Segment, gridSizePx int) PreparedLight {
	brightPx := domain.FeetToPx(light.BrightFt, gridSizePx)
	dimPx := domain.FeetToPx(light.DimFt, gridSizePx)

	pl := PreparedLight{Src: light, BrightPx: brightPx, DimPx: dimPx}
	if light.Active && dimPx > 0 {
		pl.Poly = ComputeVisibilityPolygon(light.Pos, occluders, dimPx)
	}
	return pl
}

// Level классифицирует точку относительно этого источника.
// Яркий свет: в пределах bright-радиуса И внутри полигона света.
// Тусклый: в пределах dim-радиуса и внутри полигона.
// Неактивный источник не дает ничего.
func (pl PreparedLight) Level(p domain.Point) (domain.LightLevel, float64) {
	dist := pl.Src.Pos.DistanceTo(p)
	if !pl.Src.Active {
		return domain.LightDark, dist
	}
	if dist > pl.DimPx {
		return domain.LightDark, dist
	}
	if !pl.Poly.Contains(p) {
		return domain.LightDark, dist
	}
	if dist <= pl.BrightPx {
		return domain.LightBright, dist
	}
	return domain.LightDim, dist
}

// LightLevelAt - одноразовый расчет без подготовленного полигона.
// Удобен в точечных проверках; движок использует PrepareLight.
func LightLevelAt(p domain.Point, light domain.LightSource, occluders []domain.Segment, gridSizePx int) (domain.LightLevel, float64) {
	return PrepareLight(light, occluders, gridSizePx).Level(p)
}

// ResolveLights приводит источники к актуальным позициям:
// свет, привязанный к токену, следует за ним; токены с собственным
// светом (факел в руке) порождают синтетический источник.
// Источник с отсутствующим токеном пропускается.
func ResolveLights(lights []domain.LightSource, tokens []*domain.Token, meta domain.MapMeta) []domain.LightSource {
	byID := make(map[string]*domain.Token, len(tokens))
	for _, t := range tokens {
		byID[t.ID] = t
	}

	resolved := make([]domain.LightSource, 0, len(lights)+len(tokens))
	for _, l := range lights {
		if l.TokenID != "" {
			tok, ok := byID[l.TokenID]
			if !ok {
				continue
			}
			l.Pos = tok.PixelPos(meta)
		}
		resolved = append(resolved, l)
	}

	// Собственный свет токена: bright = радиус, dim = удвоенный
	// (пропорция факела 20/40).
	for _, t := range tokens {
		if t.LightRadiusFt <= 0 {
			continue
		}
		resolved = append(resolved, domain.LightSource{
			ID:       "token-light-" + t.ID,
			TokenID:  t.ID,
			Pos:      t.PixelPos(meta),
			BrightFt: t.LightRadiusFt,
			DimFt:    t.LightRadiusFt * 2,
			Active:   true,
		})
	}

	return resolved
}
