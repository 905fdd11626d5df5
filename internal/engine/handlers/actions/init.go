package actions

import (
	"vision-server/internal/engine/handlers"
)

// HandleInit отдает подключившейся поверхности текущее состояние.
// Хода событий не меняет: просто пересчет и рассылка.
func HandleInit(ctx handlers.Context) (handlers.Result, error) {
	ctx.State.Refresh()
	return handlers.EmptyResult(), nil
}
