package actions

import (
	"fmt"

	"vision-server/internal/domain"
	"vision-server/internal/engine/handlers"
	"vision-server/pkg/api"
)

// HandleSetMode переключает режим отображения. Команда приходит только
// с мастерской поверхности: игровая команд не шлет вовсе.
func HandleSetMode(ctx handlers.Context, p api.SetModePayload) (handlers.Result, error) {
	mode, err := domain.ParseMode(p.Mode)
	if err != nil {
		return handlers.Result{Msg: err.Error(), MsgType: "ERROR"}, err
	}

	ctx.State.SetMode(mode)
	return handlers.Result{Msg: fmt.Sprintf("Режим: %s", mode), MsgType: "INFO"}, nil
}
