package domain

import (
	"encoding/json"
	"strings"
)

// ActionType - внутренний числовой идентификатор команды мастерской поверхности.
type ActionType uint8

const (
	ActionUnknown ActionType = iota
	ActionInit
	ActionMoveToken
	ActionDragStart
	ActionDragMove
	ActionDragEnd
	ActionTogglePortal
	ActionToggleLight
	ActionToggleMarker
	ActionSetMode
	ActionSetFogEnabled
	ActionResetFog
	ActionRevealRect
	ActionRevealCircle
	ActionRevealAll
)

// Маппинг для конвертации JSON -> Domain
var actionStringToCmd = map[string]ActionType{
	"INIT":            ActionInit,
	"MOVE_TOKEN":      ActionMoveToken,
	"DRAG_START":      ActionDragStart,
	"DRAG_MOVE":       ActionDragMove,
	"DRAG_END":        ActionDragEnd,
	"TOGGLE_PORTAL":   ActionTogglePortal,
	"TOGGLE_LIGHT":    ActionToggleLight,
	"TOGGLE_MARKER":   ActionToggleMarker,
	"SET_MODE":        ActionSetMode,
	"SET_FOG_ENABLED": ActionSetFogEnabled,
	"RESET_FOG":       ActionResetFog,
	"REVEAL_RECT":     ActionRevealRect,
	"REVEAL_CIRCLE":   ActionRevealCircle,
	"REVEAL_ALL":      ActionRevealAll,
}

// Маппинг для логов Domain -> String
var actionCmdToString = func() map[ActionType]string {
	m := make(map[ActionType]string, len(actionStringToCmd))
	for s, a := range actionStringToCmd {
		m[a] = s
	}
	return m
}()

// ParseAction конвертирует строку из JSON в ActionType.
// Нечувствителен к регистру.
func ParseAction(s string) ActionType {
	if val, ok := actionStringToCmd[strings.ToUpper(s)]; ok {
		return val
	}
	return ActionUnknown
}

func (a ActionType) String() string {
	if val, ok := actionCmdToString[a]; ok {
		return val
	}
	return "UNKNOWN"
}

// InternalCommand - команда, прошедшая разбор и едущая по каналу сессии.
type InternalCommand struct {
	Action  ActionType
	Payload json.RawMessage
}
