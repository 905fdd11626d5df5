package domain

import "math/bits"

// GridMask - битовая маска по клеткам сетки карты.
// Это представление «региона»: видимой зоны, раскрытого тумана и т.п.
// Ключ бита: Y * Cols + X.
type GridMask struct {
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
	Bits []byte `json:"bits"`
}

func NewGridMask(cols, rows int) *GridMask {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	return &GridMask{
		Cols: cols,
		Rows: rows,
		Bits: make([]byte, (cols*rows+7)/8),
	}
}

func (g *GridMask) index(x, y int) (int, bool) {
	if x < 0 || y < 0 || x >= g.Cols || y >= g.Rows {
		return 0, false
	}
	return y*g.Cols + x, true
}

func (g *GridMask) Set(x, y int) {
	idx, ok := g.index(x, y)
	if !ok {
		return
	}
	g.Bits[idx/8] |= 1 << (idx % 8)
}

func (g *GridMask) Get(x, y int) bool {
	idx, ok := g.index(x, y)
	if !ok {
		return false
	}
	return g.Bits[idx/8]&(1<<(idx%8)) != 0
}

// Merge объединяет маски (теоретико-множественное OR).
// Никогда не сбрасывает уже установленные биты.
func (g *GridMask) Merge(other *GridMask) {
	if other == nil || other.Cols != g.Cols || other.Rows != g.Rows {
		return
	}
	for i := range g.Bits {
		g.Bits[i] |= other.Bits[i]
	}
}

// Intersects: есть ли у масок хоть одна общая клетка.
func (g *GridMask) Intersects(other *GridMask) bool {
	if other == nil || other.Cols != g.Cols || other.Rows != g.Rows {
		return false
	}
	for i := range g.Bits {
		if g.Bits[i]&other.Bits[i] != 0 {
			return true
		}
	}
	return false
}

// Count возвращает число установленных клеток.
func (g *GridMask) Count() int {
	total := 0
	for _, b := range g.Bits {
		total += bits.OnesCount8(b)
	}
	return total
}

// Clear сбрасывает все биты. Используется только явным сбросом тумана.
func (g *GridMask) Clear() {
	for i := range g.Bits {
		g.Bits[i] = 0
	}
}

// Clone возвращает независимую копию маски.
func (g *GridMask) Clone() *GridMask {
	c := &GridMask{Cols: g.Cols, Rows: g.Rows, Bits: make([]byte, len(g.Bits))}
	copy(c.Bits, g.Bits)
	return c
}

// ContainsPoint проверяет пиксельную точку через её клетку сетки.
func (g *GridMask) ContainsPoint(p Point, m MapMeta) bool {
	if m.GridSizePx <= 0 {
		return false
	}
	x := int((p.X - float64(m.GridOffsetX)) / float64(m.GridSizePx))
	y := int((p.Y - float64(m.GridOffsetY)) / float64(m.GridSizePx))
	return g.Get(x, y)
}
