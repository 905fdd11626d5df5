package domain

// FogState - персистентная память карты: всё, что когда-либо было видно
// в режиме тумана. Маска только растет; единственный способ убрать
// раскрытое - явный сброс.
type FogState struct {
	MapID    string
	Revealed *GridMask
}

func NewFogState(mapID string, m MapMeta) *FogState {
	return &FogState{
		MapID:    mapID,
		Revealed: NewGridMask(m.Cols(), m.Rows()),
	}
}

// Merge добавляет текущую видимую зону к раскрытому.
// Вызывается только пока активен режим тумана.
func (f *FogState) Merge(visible *GridMask) {
	f.Revealed.Merge(visible)
}

// Reset полностью очищает раскрытое (действие «сбросить туман»).
func (f *FogState) Reset() {
	f.Revealed.Clear()
}
