package systems

import (
	"vision-server/internal/domain"
	"vision-server/pkg/logger"

	"github.com/sirupsen/logrus"
)

// Snapshot - эфемерный результат агрегации зрения по карте.
// Пересчитывается на каждое обновление, никогда не персистится.
type Snapshot struct {
	Meta    domain.MapMeta
	Visible *domain.GridMask

	// Полигоны видимости по токенам (для фильтрации сущностей
	// и режима Token).
	TokenPolys map[string]domain.Polygon

	lights     []PreparedLight
	darkvision []domain.Polygon
}

// Aggregate сводит всех видящих игровых токенов и все активные источники
// света в одну зону «сейчас видно» плюс классификатор освещенности.
//
// Правила:
//   - зрение дают только токены с PlayerControlled и VisibleToPlayers;
//   - свет добавляется к видимой зоне только если его полигон пересекает
//     зону зрения хотя бы одного видящего токена: освещенная, но никем
//     не видимая комната остается скрытой;
//   - темновидение токена превращает Dark в Dim внутри его полигона.
func Aggregate(meta domain.MapMeta, tokens []*domain.Token, lights []domain.LightSource, occluders []domain.Segment) *Snapshot {
	aggLogger := logger.Log.WithFields(logrus.Fields{
		"component": "aggregator",
		"map_id":    meta.ID,
	})

	snap := &Snapshot{
		Meta:       meta,
		Visible:    domain.NewGridMask(meta.Cols(), meta.Rows()),
		TokenPolys: make(map[string]domain.Polygon),
	}

	// 1. Зона зрения видящих токенов
	eyes := domain.NewGridMask(meta.Cols(), meta.Rows())
	for _, t := range tokens {
		if !t.ContributesToVision() || t.VisionRangeFt <= 0 {
			continue
		}

		pos := t.PixelPos(meta)
		rangePx := domain.FeetToPx(t.VisionRangeFt, meta.GridSizePx)
		poly := ComputeVisibilityPolygon(pos, occluders, rangePx)
		snap.TokenPolys[t.ID] = poly

		mask := RasterizePolygon(poly, pos, meta)
		eyes.Merge(mask)

		if t.VisionType == domain.VisionDarkvision {
			snap.darkvision = append(snap.darkvision, poly)
		}
	}
	snap.Visible.Merge(eyes)

	// 2. Свет: добавляет видимости только там, где его кто-то видит
	for _, l := range ResolveLights(lights, tokens, meta) {
		pl := PrepareLight(l, occluders, meta.GridSizePx)
		if !pl.Src.Active {
			continue
		}
		snap.lights = append(snap.lights, pl)

		lightMask := RasterizePolygon(pl.Poly, pl.Src.Pos, meta)
		if lightMask.Intersects(eyes) {
			snap.Visible.Merge(lightMask)
		}
	}

	aggLogger.WithFields(logrus.Fields{
		"visible_cells": snap.Visible.Count(),
		"lights":        len(snap.lights),
	}).Debug("vision snapshot aggregated")

	return snap
}

// LightLevelAt возвращает ярчайшую классификацию точки.
// Вне видимой зоны классификация не считается - всегда Dark.
func (s *Snapshot) LightLevelAt(p domain.Point) domain.LightLevel {
	if !s.Visible.ContainsPoint(p, s.Meta) {
		return domain.LightDark
	}

	// Дневная карта: всё видимое ярко освещено
	if !s.Meta.AmbientDark {
		return domain.LightBright
	}

	best := domain.LightDark
	for _, pl := range s.lights {
		level, _ := pl.Level(p)
		if level > best {
			best = level
		}
		if best == domain.LightBright {
			return best
		}
	}

	// Темновидение: Dark внутри полигона токена воспринимается как Dim
	if best == domain.LightDark {
		for _, poly := range s.darkvision {
			if poly.Contains(p) {
				return domain.LightDim
			}
		}
	}

	return best
}
