package actions

import (
	"vision-server/internal/engine/handlers"
	"vision-server/pkg/api"
)

// HandleMoveToken - прямое перемещение токена в клетку (клик по карте).
func HandleMoveToken(ctx handlers.Context, p api.MoveTokenPayload) (handlers.Result, error) {
	if err := ctx.State.MoveToken(p.TokenID, p.GridX, p.GridY); err != nil {
		return handlers.Result{Msg: err.Error(), MsgType: "ERROR"}, err
	}
	return handlers.EmptyResult(), nil
}
