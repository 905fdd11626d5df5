package actions

import (
	"vision-server/internal/engine/handlers"
	"vision-server/pkg/api"
)

// Переключатели устроены одинаково: меняем состояние в хранилище,
// сессия сама пересчитывает видимость и рассылает кадры.

func HandleTogglePortal(ctx handlers.Context, p api.TargetPayload) (handlers.Result, error) {
	if err := ctx.State.TogglePortal(p.ID); err != nil {
		return handlers.Result{Msg: err.Error(), MsgType: "ERROR"}, err
	}
	return handlers.EmptyResult(), nil
}

func HandleToggleLight(ctx handlers.Context, p api.TargetPayload) (handlers.Result, error) {
	if err := ctx.State.ToggleLight(p.ID); err != nil {
		return handlers.Result{Msg: err.Error(), MsgType: "ERROR"}, err
	}
	return handlers.EmptyResult(), nil
}

func HandleToggleMarker(ctx handlers.Context, p api.TargetPayload) (handlers.Result, error) {
	if err := ctx.State.ToggleMarker(p.ID); err != nil {
		return handlers.Result{Msg: err.Error(), MsgType: "ERROR"}, err
	}
	return handlers.EmptyResult(), nil
}
