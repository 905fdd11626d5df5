package systems

import (
	"testing"

	"vision-server/internal/domain"
	"vision-server/pkg/logger"
)

func TestLightDiskLaw(t *testing.T) {
	logger.Init()

	// Без заслонов: свет 20/40 футов дает Bright в пределах 20 футов
	// и Dim в (20, 40], независимо от чьего-либо темновидения.
	grid := 70
	light := domain.LightSource{
		ID: "torch", Pos: domain.Point{X: 0, Y: 0},
		BrightFt: 20, DimFt: 40, Active: true,
	}

	ftToPx := func(ft float64) float64 { return ft / 5 * float64(grid) }

	tests := []struct {
		name   string
		distFt float64
		want   domain.LightLevel
	}{
		{"at source", 0, domain.LightBright},
		{"inside bright", 15, domain.LightBright},
		{"bright boundary", 20, domain.LightBright},
		{"inside dim", 30, domain.LightDim},
		{"dim boundary", 40, domain.LightDim},
		{"beyond dim", 45, domain.LightDark},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := domain.Point{X: ftToPx(tt.distFt), Y: 0}
			got, _ := LightLevelAt(p, light, nil, grid)
			if got != tt.want {
				t.Errorf("LightLevelAt(%vft) = %v, want %v", tt.distFt, got, tt.want)
			}
		})
	}
}

func TestInactiveLightContributesNothing(t *testing.T) {
	logger.Init()

	// Сценарий: неактивный свет не дает классификации нигде.
	light := domain.LightSource{
		ID: "off", Pos: domain.Point{X: 700, Y: 700},
		BrightFt: 20, DimFt: 40, Active: false,
	}

	for _, p := range []domain.Point{
		{X: 700, Y: 700}, // в самом источнике
		{X: 710, Y: 700},
		{X: 0, Y: 0},
	} {
		if got, _ := LightLevelAt(p, light, nil, 70); got != domain.LightDark {
			t.Errorf("inactive light at %v gave %v, want DARK", p, got)
		}
	}
}

func TestLightBlockedByWall(t *testing.T) {
	logger.Init()

	// Заслоны гасят свет так же, как блокируют взгляд.
	light := domain.LightSource{
		ID: "l", Pos: domain.Point{X: 0, Y: 0},
		BrightFt: 40, DimFt: 80, Active: true,
	}
	wall := []domain.Segment{{P1: domain.Point{X: 100, Y: -200}, P2: domain.Point{X: 100, Y: 200}}}

	behind := domain.Point{X: 150, Y: 0}
	if got, _ := LightLevelAt(behind, light, wall, 70); got != domain.LightDark {
		t.Errorf("point behind wall = %v, want DARK", got)
	}

	before := domain.Point{X: 50, Y: 0}
	if got, _ := LightLevelAt(before, light, wall, 70); got != domain.LightBright {
		t.Errorf("point before wall = %v, want BRIGHT", got)
	}
}

func TestResolveLights_TokenAttachment(t *testing.T) {
	logger.Init()

	meta := domain.MapMeta{WidthPx: 1400, HeightPx: 1050, GridSizePx: 70}
	tok := &domain.Token{ID: "t1", GridX: 5, GridY: 5}

	lights := []domain.LightSource{
		{ID: "follows", TokenID: "t1", BrightFt: 20, DimFt: 40, Active: true},
		{ID: "orphan", TokenID: "missing", BrightFt: 20, DimFt: 40, Active: true},
		{ID: "static", Pos: domain.Point{X: 10, Y: 10}, BrightFt: 30, DimFt: 60, Active: true},
	}

	resolved := ResolveLights(lights, []*domain.Token{tok}, meta)

	if len(resolved) != 2 {
		t.Fatalf("resolved %d lights, want 2 (orphan dropped)", len(resolved))
	}

	// Привязанный свет стоит в центре клетки токена
	want := tok.PixelPos(meta)
	if resolved[0].ID != "follows" || resolved[0].Pos != want {
		t.Errorf("attached light pos = %v, want %v", resolved[0].Pos, want)
	}
}

func TestResolveLights_TokenOwnLight(t *testing.T) {
	logger.Init()

	meta := domain.MapMeta{WidthPx: 700, HeightPx: 700, GridSizePx: 70}
	tok := &domain.Token{ID: "t1", GridX: 2, GridY: 2, LightRadiusFt: 20}

	resolved := ResolveLights(nil, []*domain.Token{tok}, meta)
	if len(resolved) != 1 {
		t.Fatalf("resolved %d lights, want 1 synthetic", len(resolved))
	}
	if resolved[0].BrightFt != 20 || resolved[0].DimFt != 40 {
		t.Errorf("synthetic token light radii = %d/%d, want 20/40",
			resolved[0].BrightFt, resolved[0].DimFt)
	}
	if !resolved[0].Active {
		t.Error("synthetic token light must be active")
	}
}
