package actions

import (
	"vision-server/internal/engine/handlers"
	"vision-server/pkg/api"
)

func HandleDragStart(ctx handlers.Context, p api.DragStartPayload) (handlers.Result, error) {
	err := ctx.State.BeginDrag(p.TokenID, p.ScreenX, p.ScreenY, p.PanX, p.PanY, p.Zoom)
	if err != nil {
		return handlers.Result{Msg: err.Error(), MsgType: "ERROR"}, err
	}
	return handlers.EmptyResult(), nil
}

func HandleDragMove(ctx handlers.Context, p api.DragMovePayload) (handlers.Result, error) {
	if err := ctx.State.UpdateDrag(p.ScreenX, p.ScreenY); err != nil {
		return handlers.Result{Msg: err.Error(), MsgType: "ERROR"}, err
	}
	return handlers.EmptyResult(), nil
}

func HandleDragEnd(ctx handlers.Context, p api.DragEndPayload) (handlers.Result, error) {
	if err := ctx.State.FinishDrag(p.Snap); err != nil {
		return handlers.Result{Msg: err.Error(), MsgType: "ERROR"}, err
	}
	return handlers.EmptyResult(), nil
}
