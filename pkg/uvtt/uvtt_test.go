package uvtt

import (
	"strings"
	"testing"
)

const sampleFile = `{
	"format": 0.3,
	"resolution": {
		"map_origin": {"x": 0, "y": 0},
		"map_size": {"x": 10, "y": 8},
		"pixels_per_grid": 70
	},
	"line_of_sight": [
		[{"x": 0, "y": 0}, {"x": 10, "y": 0}, {"x": 10, "y": 8}],
		[{"x": 2, "y": 2}, {"x": 2, "y": 2}]
	],
	"portals": [
		{
			"position": {"x": 5, "y": 0},
			"bounds": [{"x": 4.5, "y": 0}, {"x": 5.5, "y": 0}],
			"rotation": 0,
			"closed": true,
			"freestanding": false
		}
	],
	"lights": [
		{"position": {"x": 3, "y": 3}, "range": 8, "intensity": 1, "color": "ff9329ff", "shadows": true}
	],
	"environment": {"baked_lighting": false, "ambient_light": "000000"}
}`

func TestParseAndConvert(t *testing.T) {
	f, err := Parse(strings.NewReader(sampleFile))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	imp := f.Convert("m1", "Crypt")

	if imp.Meta.WidthPx != 700 || imp.Meta.HeightPx != 560 {
		t.Errorf("map size = %dx%d px, want 700x560", imp.Meta.WidthPx, imp.Meta.HeightPx)
	}
	if imp.Meta.GridSizePx != 70 {
		t.Errorf("grid = %d px, want 70", imp.Meta.GridSizePx)
	}
	if !imp.Meta.AmbientDark {
		t.Error("black ambient light must mean a dark map")
	}

	// Полилиния из трех вершин дает два отрезка; вырожденная пропущена
	if len(imp.Walls) != 2 {
		t.Fatalf("got %d walls, want 2", len(imp.Walls))
	}
	if imp.Walls[0].Seg.P2.X != 700 || imp.Walls[0].Seg.P2.Y != 0 {
		t.Errorf("wall end = %+v, want (700, 0)", imp.Walls[0].Seg.P2)
	}

	if len(imp.Portals) != 1 {
		t.Fatalf("got %d portals, want 1", len(imp.Portals))
	}
	p := imp.Portals[0]
	if !p.Closed {
		t.Error("portal must import closed")
	}
	if p.Seg.P1.X != 315 || p.Seg.P2.X != 385 {
		t.Errorf("portal bounds = %v -> %v, want x 315 -> 385", p.Seg.P1, p.Seg.P2)
	}

	// range 8 клеток = 40 футов тусклого, яркая половина 20
	if len(imp.Lights) != 1 {
		t.Fatalf("got %d lights, want 1", len(imp.Lights))
	}
	l := imp.Lights[0]
	if l.BrightFt != 20 || l.DimFt != 40 {
		t.Errorf("light radii = %d/%d ft, want 20/40", l.BrightFt, l.DimFt)
	}
	if l.Pos.X != 210 || l.Pos.Y != 210 {
		t.Errorf("light pos = %+v, want (210, 210)", l.Pos)
	}
	if !l.Active {
		t.Error("imported light must start active")
	}
}

func TestParse_DefaultsGrid(t *testing.T) {
	f, err := Parse(strings.NewReader(`{"resolution": {"map_size": {"x": 5, "y": 5}}}`))
	if err != nil {
		t.Fatal(err)
	}
	if f.Resolution.PixelsPerGrid != DefaultPixelsPerGrid {
		t.Errorf("pixels_per_grid = %d, want %d", f.Resolution.PixelsPerGrid, DefaultPixelsPerGrid)
	}
}

func TestParse_RejectsGarbage(t *testing.T) {
	if _, err := Parse(strings.NewReader("not json")); err == nil {
		t.Error("Parse must reject non-json input")
	}
}

func TestFromImage(t *testing.T) {
	imp := FromImage("m1", "Sketch", 1400, 700)
	if imp.Meta.GridSizePx != 70 {
		t.Errorf("grid = %d, want 70", imp.Meta.GridSizePx)
	}
	if imp.Meta.Cols() != 20 || imp.Meta.Rows() != 10 {
		t.Errorf("grid = %dx%d cells, want 20x10", imp.Meta.Cols(), imp.Meta.Rows())
	}
	if len(imp.Walls) != 0 {
		t.Error("image wrap must carry no geometry")
	}
}
