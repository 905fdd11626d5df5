package api

import (
	"math"
	"testing"
)

func TestPayloadValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload Validator
		wantErr bool
	}{
		{"valid move", MoveTokenPayload{TokenID: "t1", GridX: 5, GridY: 5}, false},
		{"move without token", MoveTokenPayload{GridX: 5, GridY: 5}, true},
		{"move negative grid", MoveTokenPayload{TokenID: "t1", GridX: -1}, true},

		{"valid drag start", DragStartPayload{TokenID: "t1", Zoom: 1}, false},
		{"drag start zero zoom", DragStartPayload{TokenID: "t1"}, true},
		{"drag start NaN pointer", DragStartPayload{TokenID: "t1", Zoom: 1, ScreenX: math.NaN()}, true},

		{"valid drag move", DragMovePayload{ScreenX: 10, ScreenY: 10}, false},
		{"drag move NaN", DragMovePayload{ScreenX: math.NaN()}, true},

		{"valid target", TargetPayload{ID: "p1"}, false},
		{"empty target", TargetPayload{}, true},

		{"valid mode", SetModePayload{Mode: "FOG"}, false},
		{"empty mode", SetModePayload{}, true},

		{"valid rect", RevealRectPayload{X: 0, Y: 0, Width: 100, Height: 100}, false},
		{"flat rect", RevealRectPayload{Width: 100}, true},

		{"valid circle", RevealCirclePayload{Radius: 50}, false},
		{"zero circle", RevealCirclePayload{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
