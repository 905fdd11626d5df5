package actions

import (
	"vision-server/internal/engine/handlers"
	"vision-server/pkg/api"
)

// HandleSetFogEnabled включает или выключает накопление тумана для карты.
// Выключение не стирает уже раскрытое: маска просто перестает расти.
func HandleSetFogEnabled(ctx handlers.Context, p api.SetFogEnabledPayload) (handlers.Result, error) {
	if err := ctx.State.SetFogEnabled(p.Enabled); err != nil {
		return handlers.Result{Msg: err.Error(), MsgType: "ERROR"}, err
	}
	return handlers.EmptyResult(), nil
}

// HandleResetFog - единственный способ забыть раскрытое.
// Туман монотонен, само по себе ничто его не сужает.
func HandleResetFog(ctx handlers.Context) (handlers.Result, error) {
	if err := ctx.State.ResetFog(); err != nil {
		return handlers.Result{Msg: err.Error(), MsgType: "ERROR"}, err
	}
	return handlers.Result{Msg: "Туман сброшен", MsgType: "INFO"}, nil
}

func HandleRevealRect(ctx handlers.Context, p api.RevealRectPayload) (handlers.Result, error) {
	ctx.State.RevealRect(p.X, p.Y, p.Width, p.Height)
	return handlers.EmptyResult(), nil
}

func HandleRevealCircle(ctx handlers.Context, p api.RevealCirclePayload) (handlers.Result, error) {
	ctx.State.RevealCircle(p.CenterX, p.CenterY, p.Radius)
	return handlers.EmptyResult(), nil
}

func HandleRevealAll(ctx handlers.Context) (handlers.Result, error) {
	ctx.State.RevealAll()
	return handlers.EmptyResult(), nil
}
