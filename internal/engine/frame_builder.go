package engine

import (
	"vision-server/internal/domain"
	"vision-server/pkg/api"
)

// buildFrame собирает кадр для одной из поверхностей по политике
// текущего режима. Одна и та же политика питает и мастерскую, и игровую
// сторону; разница только в фильтрации.
//
// Сводка политики:
//   - Fog: маски присутствуют, чужие токены за пределами зрения
//     отрезаются от игровой поверхности;
//   - Token: карта целиком, чужие токены фильтруются зрением;
//   - Reveal: всё и всем;
//   - Blackout: пустой кадр обеим сторонам.
//
// Фильтр скрытых сущностей (VisibleToPlayers=false) для игровой
// поверхности действует во всех режимах без исключения.
func (s *Session) buildFrame(gm bool) api.DisplayFrame {
	frame := api.DisplayFrame{
		Type:       api.FrameTypeUpdate,
		MapID:      s.MapID,
		Seq:        s.frameSeq,
		Mode:       s.mode.String(),
		GridSizePx: s.meta.GridSizePx,
	}

	if s.mode == domain.ModeBlackout {
		// Затемнение гасит обе поверхности, мастерскую тоже:
		// ГМ видит тот же черный экран, что показывает игрокам.
		return frame
	}

	for _, t := range s.tokens {
		if !s.tokenInFrame(t, gm) {
			continue
		}
		pos := t.PixelPos(s.meta)
		frame.Tokens = append(frame.Tokens, api.TokenView{
			ID:               t.ID,
			Name:             t.Name,
			X:                pos.X,
			Y:                pos.Y,
			GridX:            t.GridX,
			GridY:            t.GridY,
			PlayerControlled: t.PlayerControlled,
			Hidden:           gm && !t.VisibleToPlayers,
		})
	}

	for _, mk := range s.markers {
		if !gm && !mk.VisibleToPlayers {
			continue
		}
		frame.Markers = append(frame.Markers, api.MarkerView{
			ID:     mk.ID,
			X:      mk.Pos.X,
			Y:      mk.Pos.Y,
			Label:  mk.Label,
			Color:  mk.Color,
			Hidden: gm && !mk.VisibleToPlayers,
		})
	}

	if s.mode == domain.ModeFog && s.snap != nil {
		// Клоны, а не живые слайсы: кадр уезжает в другие горутины,
		// а туман мутирует на месте при следующем пересчете.
		visible := s.snap.Visible.Clone()
		revealed := s.fog.Revealed.Clone()
		frame.VisionMask = &api.MaskView{
			Cols:     visible.Cols,
			Rows:     visible.Rows,
			Visible:  visible.Bits,
			Revealed: revealed.Bits,
		}
	}

	return frame
}

// tokenInFrame решает, попадает ли токен в кадр поверхности.
func (s *Session) tokenInFrame(t *domain.Token, gm bool) bool {
	if gm {
		return true
	}
	if !t.VisibleToPlayers {
		return false
	}
	if t.PlayerControlled {
		return true
	}
	if s.mode == domain.ModeReveal {
		return true
	}

	// Fog и Token: чужой токен виден игрокам только внутри зоны зрения
	if s.snap == nil {
		return false
	}
	return s.snap.Visible.ContainsPoint(t.PixelPos(s.meta), s.meta)
}
