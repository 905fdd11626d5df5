package storage

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"vision-server/internal/domain"
	"vision-server/pkg/logger"
)

// ErrNotFound возвращается, когда запись отсутствует.
var ErrNotFound = errors.New("storage: not found")

// Store - SQLite-хранилище кампании: карты, геометрия, токены и туман.
// Все методы безопасны для вызова из одной горутины сессии; сам *sql.DB
// потокобезопасен, так что фоновый персистенс тумана тоже может писать.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS maps (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	width_px      INTEGER NOT NULL,
	height_px     INTEGER NOT NULL,
	grid_size_px  INTEGER NOT NULL,
	grid_offset_x INTEGER NOT NULL DEFAULT 0,
	grid_offset_y INTEGER NOT NULL DEFAULT 0,
	ambient_dark  INTEGER NOT NULL DEFAULT 1,
	fog_enabled   INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS walls (
	id     TEXT PRIMARY KEY,
	map_id TEXT NOT NULL REFERENCES maps(id) ON DELETE CASCADE,
	x1 REAL NOT NULL, y1 REAL NOT NULL,
	x2 REAL NOT NULL, y2 REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS portals (
	id     TEXT PRIMARY KEY,
	map_id TEXT NOT NULL REFERENCES maps(id) ON DELETE CASCADE,
	x1 REAL NOT NULL, y1 REAL NOT NULL,
	x2 REAL NOT NULL, y2 REAL NOT NULL,
	closed INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS lights (
	id        TEXT PRIMARY KEY,
	map_id    TEXT NOT NULL REFERENCES maps(id) ON DELETE CASCADE,
	name      TEXT NOT NULL DEFAULT '',
	x REAL NOT NULL DEFAULT 0, y REAL NOT NULL DEFAULT 0,
	token_id  TEXT NOT NULL DEFAULT '',
	bright_ft INTEGER NOT NULL,
	dim_ft    INTEGER NOT NULL,
	color     TEXT NOT NULL DEFAULT '',
	active    INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS tokens (
	id                TEXT PRIMARY KEY,
	map_id            TEXT NOT NULL REFERENCES maps(id) ON DELETE CASCADE,
	name              TEXT NOT NULL DEFAULT '',
	grid_x            INTEGER NOT NULL,
	grid_y            INTEGER NOT NULL,
	player_controlled INTEGER NOT NULL DEFAULT 0,
	visible           INTEGER NOT NULL DEFAULT 1,
	vision_type       TEXT NOT NULL DEFAULT 'none',
	vision_range_ft   INTEGER NOT NULL DEFAULT 0,
	light_radius_ft   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS markers (
	id      TEXT PRIMARY KEY,
	map_id  TEXT NOT NULL REFERENCES maps(id) ON DELETE CASCADE,
	x REAL NOT NULL, y REAL NOT NULL,
	label   TEXT NOT NULL DEFAULT '',
	color   TEXT NOT NULL DEFAULT '',
	visible INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS fog (
	map_id TEXT PRIMARY KEY REFERENCES maps(id) ON DELETE CASCADE,
	blob   BLOB NOT NULL
);
`

// Open открывает базу по пути и накатывает схему.
// WAL, чтобы фоновая запись тумана не блокировала чтения сессии.
func Open(path string) (*Store, error) {
	dsn := path + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Log.WithField("path", path).Info("💾 Storage opened")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// --- Карты ---

func (s *Store) CreateMap(m domain.MapMeta) error {
	_, err := s.db.Exec(
		`INSERT INTO maps (id, name, width_px, height_px, grid_size_px, grid_offset_x, grid_offset_y, ambient_dark, fog_enabled)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.WidthPx, m.HeightPx, m.GridSizePx, m.GridOffsetX, m.GridOffsetY, m.AmbientDark, m.FogEnabled)
	if err != nil {
		return fmt.Errorf("failed to create map %s: %w", m.ID, err)
	}
	return nil
}

func (s *Store) GetMap(id string) (domain.MapMeta, error) {
	var m domain.MapMeta
	err := s.db.QueryRow(
		`SELECT id, name, width_px, height_px, grid_size_px, grid_offset_x, grid_offset_y, ambient_dark, fog_enabled
		 FROM maps WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &m.WidthPx, &m.HeightPx, &m.GridSizePx, &m.GridOffsetX, &m.GridOffsetY, &m.AmbientDark, &m.FogEnabled)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MapMeta{}, ErrNotFound
	}
	if err != nil {
		return domain.MapMeta{}, fmt.Errorf("failed to get map %s: %w", id, err)
	}
	return m, nil
}

func (s *Store) ListMaps() ([]domain.MapMeta, error) {
	rows, err := s.db.Query(
		`SELECT id, name, width_px, height_px, grid_size_px, grid_offset_x, grid_offset_y, ambient_dark, fog_enabled
		 FROM maps ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MapMeta
	for rows.Next() {
		var m domain.MapMeta
		if err := rows.Scan(&m.ID, &m.Name, &m.WidthPx, &m.HeightPx, &m.GridSizePx, &m.GridOffsetX, &m.GridOffsetY, &m.AmbientDark, &m.FogEnabled); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) SetFogEnabled(mapID string, enabled bool) error {
	res, err := s.db.Exec(`UPDATE maps SET fog_enabled = ? WHERE id = ?`, enabled, mapID)
	if err != nil {
		return err
	}
	return requireAffected(res, mapID)
}

// --- Геометрия ---

func (s *Store) AddWall(mapID string, w domain.Wall) error {
	if err := w.Validate(); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO walls (id, map_id, x1, y1, x2, y2) VALUES (?, ?, ?, ?, ?, ?)`,
		w.ID, mapID, w.Seg.P1.X, w.Seg.P1.Y, w.Seg.P2.X, w.Seg.P2.Y)
	return err
}

func (s *Store) ListWalls(mapID string) ([]domain.Wall, error) {
	rows, err := s.db.Query(`SELECT id, x1, y1, x2, y2 FROM walls WHERE map_id = ? ORDER BY id`, mapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Wall
	for rows.Next() {
		var w domain.Wall
		if err := rows.Scan(&w.ID, &w.Seg.P1.X, &w.Seg.P1.Y, &w.Seg.P2.X, &w.Seg.P2.Y); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Store) AddPortal(mapID string, p domain.Portal) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO portals (id, map_id, x1, y1, x2, y2, closed) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, mapID, p.Seg.P1.X, p.Seg.P1.Y, p.Seg.P2.X, p.Seg.P2.Y, p.Closed)
	return err
}

func (s *Store) ListPortals(mapID string) ([]domain.Portal, error) {
	rows, err := s.db.Query(`SELECT id, x1, y1, x2, y2, closed FROM portals WHERE map_id = ? ORDER BY id`, mapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Portal
	for rows.Next() {
		var p domain.Portal
		if err := rows.Scan(&p.ID, &p.Seg.P1.X, &p.Seg.P1.Y, &p.Seg.P2.X, &p.Seg.P2.Y, &p.Closed); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// TogglePortal переключает дверь и возвращает новое состояние.
func (s *Store) TogglePortal(id string) (bool, error) {
	return s.toggle(`portals`, `closed`, id)
}

// --- Свет ---

func (s *Store) AddLight(mapID string, l domain.LightSource) error {
	if err := l.Validate(); err != nil {
		return err
	}
	l.Normalize()
	_, err := s.db.Exec(
		`INSERT INTO lights (id, map_id, name, x, y, token_id, bright_ft, dim_ft, color, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, mapID, l.Name, l.Pos.X, l.Pos.Y, l.TokenID, l.BrightFt, l.DimFt, l.Color, l.Active)
	return err
}

func (s *Store) ListLights(mapID string) ([]domain.LightSource, error) {
	rows, err := s.db.Query(
		`SELECT id, name, x, y, token_id, bright_ft, dim_ft, color, active
		 FROM lights WHERE map_id = ? ORDER BY id`, mapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LightSource
	for rows.Next() {
		var l domain.LightSource
		if err := rows.Scan(&l.ID, &l.Name, &l.Pos.X, &l.Pos.Y, &l.TokenID, &l.BrightFt, &l.DimFt, &l.Color, &l.Active); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) ToggleLight(id string) (bool, error) {
	return s.toggle(`lights`, `active`, id)
}

func (s *Store) UpdateLightPosition(id string, x, y float64) error {
	res, err := s.db.Exec(`UPDATE lights SET x = ?, y = ? WHERE id = ?`, x, y, id)
	if err != nil {
		return fmt.Errorf("failed to move light %s: %w", id, err)
	}
	return requireAffected(res, id)
}

func (s *Store) DeleteLight(id string) error {
	res, err := s.db.Exec(`DELETE FROM lights WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, id)
}

// --- Токены ---

func (s *Store) AddToken(mapID string, t domain.Token) error {
	if err := t.Validate(); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO tokens (id, map_id, name, grid_x, grid_y, player_controlled, visible, vision_type, vision_range_ft, light_radius_ft)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, mapID, t.Name, t.GridX, t.GridY, t.PlayerControlled, t.VisibleToPlayers, t.VisionType, t.VisionRangeFt, t.LightRadiusFt)
	return err
}

func (s *Store) ListTokens(mapID string) ([]domain.Token, error) {
	rows, err := s.db.Query(
		`SELECT id, name, grid_x, grid_y, player_controlled, visible, vision_type, vision_range_ft, light_radius_ft
		 FROM tokens WHERE map_id = ? ORDER BY id`, mapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Token
	for rows.Next() {
		var t domain.Token
		if err := rows.Scan(&t.ID, &t.Name, &t.GridX, &t.GridY, &t.PlayerControlled, &t.VisibleToPlayers, &t.VisionType, &t.VisionRangeFt, &t.LightRadiusFt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) UpdateTokenPosition(id string, gridX, gridY int) error {
	res, err := s.db.Exec(`UPDATE tokens SET grid_x = ?, grid_y = ? WHERE id = ?`, gridX, gridY, id)
	if err != nil {
		return fmt.Errorf("failed to move token %s: %w", id, err)
	}
	return requireAffected(res, id)
}

func (s *Store) SetTokenVisibility(id string, visible bool) error {
	res, err := s.db.Exec(`UPDATE tokens SET visible = ? WHERE id = ?`, visible, id)
	if err != nil {
		return err
	}
	return requireAffected(res, id)
}

// --- Метки ---

func (s *Store) AddMarker(mapID string, mk domain.Marker) error {
	if err := mk.Validate(); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO markers (id, map_id, x, y, label, color, visible) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		mk.ID, mapID, mk.Pos.X, mk.Pos.Y, mk.Label, mk.Color, mk.VisibleToPlayers)
	return err
}

func (s *Store) ListMarkers(mapID string) ([]domain.Marker, error) {
	rows, err := s.db.Query(
		`SELECT id, x, y, label, color, visible FROM markers WHERE map_id = ? ORDER BY id`, mapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Marker
	for rows.Next() {
		var mk domain.Marker
		if err := rows.Scan(&mk.ID, &mk.Pos.X, &mk.Pos.Y, &mk.Label, &mk.Color, &mk.VisibleToPlayers); err != nil {
			return nil, err
		}
		out = append(out, mk)
	}
	return out, rows.Err()
}

func (s *Store) ToggleMarker(id string) (bool, error) {
	return s.toggle(`markers`, `visible`, id)
}

// --- Туман ---

// LoadFog возвращает накопленный туман карты. Отсутствие записи или
// блоб от другой геометрии сетки - это чистое состояние, не ошибка:
// туман в худшем случае начинается заново, никогда не ломает сессию.
func (s *Store) LoadFog(mapID string, m domain.MapMeta) (*domain.FogState, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT blob FROM fog WHERE map_id = ?`, mapID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewFogState(mapID, m), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load fog for %s: %w", mapID, err)
	}

	mask, err := DecodeFogMask(blob)
	if err != nil || mask.Cols != m.Cols() || mask.Rows != m.Rows() {
		logger.Log.WithField("map_id", mapID).Warn("Stored fog does not match map grid, starting fresh")
		return domain.NewFogState(mapID, m), nil
	}

	fog := domain.NewFogState(mapID, m)
	fog.Revealed = mask
	return fog, nil
}

func (s *Store) SaveFog(fog *domain.FogState) error {
	blob, err := EncodeFogMask(fog.Revealed)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO fog (map_id, blob) VALUES (?, ?)
		 ON CONFLICT(map_id) DO UPDATE SET blob = excluded.blob`,
		fog.MapID, blob)
	if err != nil {
		return fmt.Errorf("failed to save fog for %s: %w", fog.MapID, err)
	}
	return nil
}

func (s *Store) DeleteFog(mapID string) error {
	_, err := s.db.Exec(`DELETE FROM fog WHERE map_id = ?`, mapID)
	return err
}

// --- Вспомогательное ---

// toggle инвертирует булеву колонку одной записи.
// Таблица и колонка всегда приходят из констант выше, не от клиента.
func (s *Store) toggle(table, column, id string) (bool, error) {
	res, err := s.db.Exec(
		fmt.Sprintf(`UPDATE %s SET %s = NOT %s WHERE id = ?`, table, column, column), id)
	if err != nil {
		return false, err
	}
	if err := requireAffected(res, id); err != nil {
		return false, err
	}

	var state bool
	err = s.db.QueryRow(fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, column, table), id).Scan(&state)
	return state, err
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
