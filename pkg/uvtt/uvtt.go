// Package uvtt разбирает файлы Universal VTT (.dd2vtt и совместимые).
// Координаты в файле заданы в клетках сетки; наружу отдаем пиксели,
// пересчитанные через resolution.pixels_per_grid.
package uvtt

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vision-server/internal/domain"
	"vision-server/pkg/logger"
)

// DefaultPixelsPerGrid используется, когда файл не задал разрешение,
// и для карт из простых изображений без UVTT-метаданных.
const DefaultPixelsPerGrid = 70

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type resolution struct {
	PixelsPerGrid int   `json:"pixels_per_grid"`
	MapSize       point `json:"map_size"`
}

type portal struct {
	Position point   `json:"position"`
	Bounds   []point `json:"bounds"`
	Closed   bool    `json:"closed"`
}

type light struct {
	Position point   `json:"position"`
	Range    float64 `json:"range"`
	Color    string  `json:"color"`
	Shadows  bool    `json:"shadows"`
}

type environment struct {
	BakedLighting bool   `json:"baked_lighting"`
	AmbientLight  string `json:"ambient_light"`
}

// File - сырой разбор UVTT-файла, до конвертации в доменные типы.
type File struct {
	Resolution  resolution  `json:"resolution"`
	LineOfSight [][]point   `json:"line_of_sight"`
	Portals     []portal    `json:"portals"`
	Lights      []light     `json:"lights"`
	Environment environment `json:"environment"`
}

// Import - результат конвертации: все, что нужно положить в хранилище.
type Import struct {
	Meta    domain.MapMeta
	Walls   []domain.Wall
	Portals []domain.Portal
	Lights  []domain.LightSource
}

func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) (*File, error) {
	var file File
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse uvtt json: %w", err)
	}
	if file.Resolution.PixelsPerGrid <= 0 {
		file.Resolution.PixelsPerGrid = DefaultPixelsPerGrid
	}
	return &file, nil
}

// Convert переводит файл в доменные сущности новой карты.
// Полилинии line_of_sight режутся на отрезки, вырожденные куски
// молча пропускаются - экспортеры иногда дублируют вершины.
func (f *File) Convert(mapID, name string) Import {
	ppg := float64(f.Resolution.PixelsPerGrid)

	meta := domain.MapMeta{
		ID:          mapID,
		Name:        name,
		WidthPx:     int(math.Ceil(f.Resolution.MapSize.X * ppg)),
		HeightPx:    int(math.Ceil(f.Resolution.MapSize.Y * ppg)),
		GridSizePx:  f.Resolution.PixelsPerGrid,
		AmbientDark: f.ambientDark(),
		FogEnabled:  true,
	}

	out := Import{Meta: meta}

	for _, poly := range f.LineOfSight {
		for i := 0; i+1 < len(poly); i++ {
			seg := domain.Segment{
				P1: f.toPixels(poly[i]),
				P2: f.toPixels(poly[i+1]),
			}
			if seg.IsDegenerate() {
				continue
			}
			out.Walls = append(out.Walls, domain.Wall{ID: uuid.NewString(), Seg: seg})
		}
	}

	for _, p := range f.Portals {
		if len(p.Bounds) < 2 {
			continue
		}
		seg := domain.Segment{P1: f.toPixels(p.Bounds[0]), P2: f.toPixels(p.Bounds[1])}
		if seg.IsDegenerate() {
			continue
		}
		out.Portals = append(out.Portals, domain.Portal{ID: uuid.NewString(), Seg: seg, Closed: p.Closed})
	}

	for i, l := range f.Lights {
		// range задан в клетках и означает полный (тусклый) радиус;
		// яркая половина - половина от него, как у факела 20/40.
		dimFt := int(math.Round(l.Range * domain.FeetPerCell))
		src := domain.LightSource{
			ID:       uuid.NewString(),
			Name:     fmt.Sprintf("Light %d", i+1),
			Pos:      f.toPixels(l.Position),
			BrightFt: dimFt / 2,
			DimFt:    dimFt,
			Color:    l.Color,
			Active:   true,
		}
		src.Normalize()
		out.Lights = append(out.Lights, src)
	}

	logger.Log.WithFields(logrus.Fields{
		"map_id":  mapID,
		"walls":   len(out.Walls),
		"portals": len(out.Portals),
		"lights":  len(out.Lights),
	}).Info("🗺️ UVTT map converted")

	return out
}

func (f *File) toPixels(p point) domain.Point {
	ppg := float64(f.Resolution.PixelsPerGrid)
	return domain.Point{X: p.X * ppg, Y: p.Y * ppg}
}

// ambientDark решает, темная ли карта, по цвету внешнего освещения.
// Пустой или почти черный ambient_light - подземелье.
func (f *File) ambientDark() bool {
	hex := f.Environment.AmbientLight
	if len(hex) != 6 && len(hex) != 8 {
		return true
	}
	v, err := strconv.ParseUint(hex[:6], 16, 32)
	if err != nil {
		return true
	}
	r := (v >> 16) & 0xff
	g := (v >> 8) & 0xff
	b := v & 0xff
	// Простая средняя яркость, порог четверть шкалы
	return (r+g+b)/3 < 64
}

// FromImage оборачивает простое изображение картой с сеткой по умолчанию.
// Геометрии нет: без стен весь план просматривается насквозь.
func FromImage(mapID, name string, widthPx, heightPx int) Import {
	return Import{
		Meta: domain.MapMeta{
			ID:         mapID,
			Name:       name,
			WidthPx:    widthPx,
			HeightPx:   heightPx,
			GridSizePx: DefaultPixelsPerGrid,
			FogEnabled: true,
		},
	}
}
