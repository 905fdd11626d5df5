package engine

import (
	"errors"
	"testing"

	"vision-server/internal/agent"
	"vision-server/internal/domain"
	"vision-server/internal/network"
	"vision-server/internal/storage"
	"vision-server/pkg/api"
)

func TestViewTransform(t *testing.T) {
	v := ViewTransform{PanX: 100, PanY: 50, Zoom: 2, GridSizePx: 70}

	p := v.ToMapPixel(810, 760)
	if p.X != 355 || p.Y != 355 {
		t.Errorf("ToMapPixel = %+v, want (355, 355)", p)
	}

	gx, gy := v.ToGrid(p)
	if gx != 5 || gy != 5 {
		t.Errorf("ToGrid = (%d,%d), want (5,5)", gx, gy)
	}
}

func TestDrag_CommitLandsInCell(t *testing.T) {
	store := testWorld(t)
	addHero(t, store, 2, 2, 60)
	s := openSession(t, store, network.NewBroadcaster())

	// Захват токена в его клетке (центр (175,175)), зум 1:1
	if err := s.BeginDrag("hero", 175, 175, 0, 0, 1); err != nil {
		t.Fatalf("BeginDrag() error: %v", err)
	}
	if err := s.UpdateDrag(355, 355); err != nil {
		t.Fatal(err)
	}
	if err := s.FinishDrag(true); err != nil {
		t.Fatal(err)
	}

	hero := s.findToken("hero")
	if hero.GridX != 5 || hero.GridY != 5 {
		t.Errorf("committed cell = (%d,%d), want (5,5)", hero.GridX, hero.GridY)
	}
	// Пиксельная позиция - производная: центр клетки
	if pos := hero.PixelPos(s.meta); pos.X != 385 || pos.Y != 385 {
		t.Errorf("pixel pos = %+v, want (385, 385)", pos)
	}

	// Фоновый персистенс довел клетку до базы
	if res := <-s.persistCh; res.Err != nil {
		t.Fatalf("persist failed: %v", res.Err)
	}
	tokens, _ := store.ListTokens("m1")
	if tokens[0].GridX != 5 || tokens[0].GridY != 5 {
		t.Errorf("stored cell = (%d,%d), want (5,5)", tokens[0].GridX, tokens[0].GridY)
	}
}

func TestDrag_BelowThresholdIsClick(t *testing.T) {
	store := testWorld(t)
	addHero(t, store, 2, 2, 60)
	s := openSession(t, store, network.NewBroadcaster())

	if err := s.BeginDrag("hero", 175, 175, 0, 0, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateDrag(177, 176); err != nil {
		t.Fatal(err)
	}
	if err := s.FinishDrag(false); err != nil {
		t.Fatal(err)
	}

	hero := s.findToken("hero")
	if hero.GridX != 2 || hero.GridY != 2 {
		t.Errorf("click must not move the token, got (%d,%d)", hero.GridX, hero.GridY)
	}
	if hero.Seq != 0 {
		t.Error("click must not bump the commit sequence")
	}
	select {
	case res := <-s.persistCh:
		t.Errorf("click must not persist anything, got %+v", res)
	default:
	}
}

func TestDrag_LiveFramesCarryOnlyPosition(t *testing.T) {
	store := testWorld(t)
	addHero(t, store, 2, 2, 60)

	hub := network.NewBroadcaster()
	s := openSession(t, store, hub)

	display := agent.NewDisplay("d1", "m1", hub)
	defer display.Close()

	revealedBefore := s.fog.Revealed.Count()

	if err := s.BeginDrag("hero", 175, 175, 0, 0, 1); err != nil {
		t.Fatal(err)
	}
	for _, x := range []float64{200, 250, 300, 355} {
		if err := s.UpdateDrag(x, 355); err != nil {
			t.Fatal(err)
		}
	}
	display.Drain()

	if display.FrameCount() != 4 {
		t.Fatalf("display received %d frames, want 4 DRAG_LIVE", display.FrameCount())
	}
	frame, _ := display.LastFrame()
	if frame.Type != api.FrameTypeDragLive {
		t.Errorf("frame type = %s, want DRAG_LIVE", frame.Type)
	}
	if frame.Live == nil || frame.Live.TokenID != "hero" || frame.Live.X != 355 {
		t.Errorf("live position = %+v, want hero at x=355", frame.Live)
	}
	if frame.VisionMask != nil || len(frame.Tokens) != 0 {
		t.Error("DRAG_LIVE must carry only the provisional position")
	}

	// Пока драг не закончен, видимость не пересчитывалась
	if s.fog.Revealed.Count() != revealedBefore {
		t.Error("live drag must not recompute vision")
	}

	if err := s.FinishDrag(true); err != nil {
		t.Fatal(err)
	}
	<-s.persistCh
	display.Drain()

	frame, _ = display.LastFrame()
	if frame.Type != api.FrameTypeUpdate {
		t.Errorf("commit must broadcast a full UPDATE, got %s", frame.Type)
	}
}

func TestDrag_HiddenTokenLiveStaysOnGMSurface(t *testing.T) {
	store := testWorld(t)
	addHero(t, store, 1, 1, 60)
	err := store.AddToken("m1", domain.Token{
		ID: "ghost", GridX: 2, GridY: 2,
		VisibleToPlayers: false, VisionType: domain.VisionNone,
	})
	if err != nil {
		t.Fatal(err)
	}

	hub := network.NewBroadcaster()
	s := openSession(t, store, hub)

	// Агент игровой поверхности
	display := agent.NewDisplay("d1", "m1", hub)
	defer display.Close()
	// Мастерская подписка руками: агент всегда игровой
	gmCh := hub.Register("gm1", "m1", true)

	if err := s.BeginDrag("ghost", 175, 175, 0, 0, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateDrag(300, 300); err != nil {
		t.Fatal(err)
	}

	display.Drain()
	if display.FrameCount() != 0 {
		t.Error("hidden token drag must not reach the display surface")
	}
	select {
	case frame := <-gmCh:
		if frame.Type != api.FrameTypeDragLive {
			t.Errorf("gm frame type = %s, want DRAG_LIVE", frame.Type)
		}
	default:
		t.Error("gm surface must receive the DRAG_LIVE frame")
	}
}

func TestDrag_FreestandingLightWithSnap(t *testing.T) {
	store := testWorld(t)
	addHero(t, store, 2, 2, 60)
	lamp := storage.LanternLight("Lamp", "", domain.Point{X: 100, Y: 100})
	if err := store.AddLight("m1", lamp); err != nil {
		t.Fatal(err)
	}

	s := openSession(t, store, network.NewBroadcaster())

	if err := s.BeginDrag(lamp.ID, 100, 100, 0, 0, 1); err != nil {
		t.Fatalf("BeginDrag(light) error: %v", err)
	}
	if err := s.UpdateDrag(360, 350); err != nil {
		t.Fatal(err)
	}
	if err := s.FinishDrag(true); err != nil {
		t.Fatal(err)
	}

	l := s.findLight(lamp.ID)
	if l.Pos.X != 385 || l.Pos.Y != 385 {
		t.Errorf("snapped light pos = %+v, want cell center (385, 385)", l.Pos)
	}

	if res := <-s.persistCh; res.Err != nil {
		t.Fatalf("light persist failed: %v", res.Err)
	}
	lights, _ := store.ListLights("m1")
	if lights[0].Pos.X != 385 {
		t.Errorf("stored light x = %v, want 385", lights[0].Pos.X)
	}
}

func TestDrag_AttachedLightRejected(t *testing.T) {
	store := testWorld(t)
	addHero(t, store, 2, 2, 60)
	torch := storage.TorchLight("Torch", "hero", domain.Point{})
	if err := store.AddLight("m1", torch); err != nil {
		t.Fatal(err)
	}

	s := openSession(t, store, network.NewBroadcaster())

	if err := s.BeginDrag(torch.ID, 175, 175, 0, 0, 1); err == nil {
		t.Error("attached light must not be draggable on its own")
	}
}

func TestPersist_StaleResultDiscarded(t *testing.T) {
	store := testWorld(t)
	addHero(t, store, 2, 2, 60)
	s := openSession(t, store, network.NewBroadcaster())

	hero := s.findToken("hero")
	hero.GridX, hero.GridY = 7, 7
	hero.Seq = 3

	// Ответ от давно перекрытого коммита: даже с ошибкой он мусор
	s.handlePersistResult(persistResult{TargetID: "hero", Seq: 2, Err: errors.New("disk full")})

	if hero.GridX != 7 || hero.GridY != 7 {
		t.Errorf("stale result must not roll back, token at (%d,%d)", hero.GridX, hero.GridY)
	}
}

func TestPersist_FailureRollsBackFromStorage(t *testing.T) {
	store := testWorld(t)
	addHero(t, store, 2, 2, 60)
	s := openSession(t, store, network.NewBroadcaster())

	// Оптимистичный коммит в памяти, база осталась на (2,2)
	hero := s.findToken("hero")
	hero.GridX, hero.GridY = 7, 7
	hero.Seq = 1

	s.handlePersistResult(persistResult{TargetID: "hero", Seq: 1, Err: errors.New("disk full")})

	hero = s.findToken("hero")
	if hero.GridX != 2 || hero.GridY != 2 {
		t.Errorf("rollback must reload (2,2) from storage, got (%d,%d)", hero.GridX, hero.GridY)
	}
	// Счетчик коммитов пережил перезагрузку
	if hero.Seq != 1 {
		t.Errorf("seq must survive the rollback reload, got %d", hero.Seq)
	}
}
