package api

import (
	"encoding/json"
)

// --- СЕРВЕР -> КЛИЕНТ ---

// Типы исходящих сообщений.
const (
	FrameTypeUpdate   = "UPDATE"    // полный кадр после пересчета
	FrameTypeDragLive = "DRAG_LIVE" // позиция токена во время перетаскивания
	FrameTypeError    = "ERROR"
)

// DisplayFrame это корневой объект, который сервер отправляет поверхностям.
// Одна и та же структура уходит и мастерской (ГМ), и игровой поверхности,
// но наполнение фильтруется политикой текущего режима: игровая поверхность
// никогда не получает нефильтрованное состояние.
type DisplayFrame struct {
	// Type тип кадра: UPDATE или DRAG_LIVE.
	Type string `json:"type"`

	// MapID карта, к которой относится кадр.
	MapID string `json:"mapId"`

	// Seq монотонный номер кадра в рамках сессии карты.
	// Клиент обязан игнорировать кадр с номером меньше уже полученного.
	Seq uint64 `json:"seq"`

	// Mode активный режим отображения: FOG, TOKEN, REVEAL, BLACKOUT.
	Mode string `json:"mode"`

	// GridSizePx пикселей в одной клетке сетки.
	GridSizePx int `json:"gridSizePx,omitempty"`

	// Tokens видимые в этом кадре токены (уже отфильтрованные).
	Tokens []TokenView `json:"tokens,omitempty"`

	// Markers видимые маркеры.
	Markers []MarkerView `json:"markers,omitempty"`

	// VisionMask маски видимости/тумана. Присутствует только в режиме FOG.
	VisionMask *MaskView `json:"visionMask,omitempty"`

	// Live провизорная позиция перетаскиваемого токена (только DRAG_LIVE).
	// Не персистится и не несет пересчета видимости.
	Live *LivePosition `json:"live,omitempty"`

	// Error текст ошибки (только для Type=ERROR).
	Error string `json:"error,omitempty"`
}

// TokenView это DTO токена для отрисовки.
type TokenView struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	X     float64 `json:"x"` // пиксельная позиция (центр клетки)
	Y     float64 `json:"y"`
	GridX int     `json:"gridX"`
	GridY int     `json:"gridY"`

	PlayerControlled bool `json:"playerControlled"`

	// Hidden: токен скрыт от игроков. Поле приходит только мастерской
	// поверхности - в игровой кадр скрытые токены не попадают вовсе.
	Hidden bool `json:"hidden,omitempty"`
}

// MarkerView это DTO маркера.
type MarkerView struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Label  string  `json:"label"`
	Color  string  `json:"color,omitempty"`
	Hidden bool    `json:"hidden,omitempty"`
}

// MaskView - битовые маски сетки для режима тумана.
// Bits кодируются base64 при сериализации ([]byte в JSON).
type MaskView struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`

	// Visible клетки, видимые прямо сейчас.
	Visible []byte `json:"visible"`

	// Revealed клетки, раскрытые когда-либо (туман).
	// Visible всегда подмножество Revealed.
	Revealed []byte `json:"revealed"`
}

// LivePosition - провизорная пиксельная позиция токена во время драга.
type LivePosition struct {
	TokenID string  `json:"tokenId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// --- КЛИЕНТ -> СЕРВЕР ---

// ClientCommand это корневой объект для всех сообщений мастерской
// поверхности. Игровая поверхность команд не шлет.
type ClientCommand struct {
	// Action название действия.
	Action string `json:"action"`

	// Payload JSON-объект с данными. Структура зависит от Action.
	Payload json.RawMessage `json:"payload"`
}

// --- Payloads ---

// MoveTokenPayload - прямое перемещение токена в клетку сетки.
type MoveTokenPayload struct {
	TokenID string `json:"tokenId"`
	GridX   int    `json:"gridX"`
	GridY   int    `json:"gridY"`
}

// DragStartPayload начинает перетаскивание. Экранные координаты указателя
// сопровождаются трансформом вьюпорта ГМ (пан/зум/сдвиг сетки), чтобы
// сервер переводил их в пиксели карты.
type DragStartPayload struct {
	TokenID string  `json:"tokenId"`
	ScreenX float64 `json:"screenX"`
	ScreenY float64 `json:"screenY"`

	PanX float64 `json:"panX"`
	PanY float64 `json:"panY"`
	Zoom float64 `json:"zoom"`
}

// DragMovePayload - очередная позиция указателя во время драга.
type DragMovePayload struct {
	ScreenX float64 `json:"screenX"`
	ScreenY float64 `json:"screenY"`
}

// DragEndPayload завершает перетаскивание.
type DragEndPayload struct {
	// Snap: прилипание к центру клетки при коммите.
	Snap bool `json:"snap"`
}

// TargetPayload используется для переключателей (порталы, свет, маркеры).
type TargetPayload struct {
	ID string `json:"id"`
}

// SetModePayload переключает режим отображения.
type SetModePayload struct {
	Mode string `json:"mode"`
}

// SetFogEnabledPayload включает/выключает накопление тумана для карты.
type SetFogEnabledPayload struct {
	Enabled bool `json:"enabled"`
}

// RevealRectPayload - ручное раскрытие прямоугольной зоны (в пикселях).
type RevealRectPayload struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RevealCirclePayload - ручное раскрытие круга (в пикселях).
type RevealCirclePayload struct {
	CenterX float64 `json:"centerX"`
	CenterY float64 `json:"centerY"`
	Radius  float64 `json:"radius"`
}
