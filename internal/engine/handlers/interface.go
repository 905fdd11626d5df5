package handlers

import (
	"encoding/json"

	"vision-server/internal/domain"
)

// SessionState описывает операции сессии карты, доступные командам.
// Session реализует этот интерфейс неявно; хендлеры не знают ни про
// хранилище, ни про хаб - только про доменные операции.
type SessionState interface {
	// Refresh пересчитывает видимость и рассылает кадры обеим поверхностям.
	Refresh()

	// MoveToken перемещает токен в клетку и запускает пересчет.
	MoveToken(tokenID string, gridX, gridY int) error

	// BeginDrag захватывает токен или свободный свет под указателем.
	BeginDrag(targetID string, screenX, screenY, panX, panY, zoom float64) error

	// UpdateDrag двигает провизорную позицию (без пересчета видимости).
	UpdateDrag(screenX, screenY float64) error

	// FinishDrag коммитит или (если порог не пройден) отменяет жест.
	FinishDrag(snap bool) error

	TogglePortal(id string) error
	ToggleLight(id string) error
	ToggleMarker(id string) error

	SetMode(mode domain.Mode)

	SetFogEnabled(enabled bool) error
	ResetFog() error
	RevealRect(x, y, width, height float64)
	RevealCircle(centerX, centerY, radius float64)
	RevealAll()
}

// Context передает хендлеру состояние сессии.
type Context struct {
	State SessionState
}

// Result - результат выполнения команды.
// Хендлер не пишет в логи сессии напрямую, он возвращает данные.
type Result struct {
	Msg     string // Текст для лога сессии
	MsgType string // Тип лога (INFO, ERROR)
}

// HandlerFunc - это контракт для любой команды (MOVE_TOKEN, SET_MODE, etc).
type HandlerFunc func(ctx Context, payload json.RawMessage) (Result, error)

// EmptyResult - вспомогательная функция для пустого успешного ответа
func EmptyResult() Result {
	return Result{}
}
