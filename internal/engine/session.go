package engine

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"vision-server/internal/domain"
	"vision-server/internal/engine/handlers"
	"vision-server/internal/engine/handlers/actions"
	"vision-server/internal/network"
	"vision-server/internal/storage"
	"vision-server/internal/systems"
	"vision-server/pkg/api"
	"vision-server/pkg/logger"
)

// persistResult - ответ фонового персистенса, возвращается в горутину
// сессии через канал. Seq сверяется с текущим счетчиком цели: устаревшие
// ответы отбрасываются молча.
type persistResult struct {
	TargetID string
	Seq      uint64
	Err      error
}

// Session - изолированное состояние одной открытой карты.
// Вся геометрия и весь туман живут здесь и меняются только горутиной
// Run: по карте сессия однопоточная, событийная.
type Session struct {
	MapID string

	meta    domain.MapMeta
	walls   []domain.Wall
	portals []domain.Portal
	lights  []domain.LightSource
	tokens  []*domain.Token
	markers []domain.Marker

	fog  *domain.FogState
	mode domain.Mode
	drag *DragState

	// snap - результат последнего пересчета видимости.
	snap *systems.Snapshot

	// frameSeq - монотонный номер кадра. Оба кадра одной рассылки
	// (мастерский и игровой) уходят с одним номером.
	frameSeq uint64

	// lightSeq - счетчик коммитов перетаскивания света (аналог Token.Seq).
	lightSeq map[string]uint64

	CommandChan chan domain.InternalCommand
	FrameReq    chan chan api.DisplayFrame

	persistCh chan persistResult
	done      chan struct{}

	store    *storage.Store
	hub      *network.Broadcaster
	handlers map[domain.ActionType]handlers.HandlerFunc

	log *logrus.Entry
}

func NewSession(mapID string, store *storage.Store, hub *network.Broadcaster) (*Session, error) {
	meta, err := store.GetMap(mapID)
	if err != nil {
		return nil, err
	}

	s := &Session{
		MapID:       mapID,
		meta:        meta,
		mode:        domain.ModeFog,
		lightSeq:    make(map[string]uint64),
		CommandChan: make(chan domain.InternalCommand, 100),
		FrameReq:    make(chan chan api.DisplayFrame, 10),
		persistCh:   make(chan persistResult, 32),
		done:        make(chan struct{}),
		store:       store,
		hub:         hub,
		handlers:    make(map[domain.ActionType]handlers.HandlerFunc),
		log:         logger.Log.WithField("map_id", mapID),
	}

	if err := s.loadEntities(); err != nil {
		return nil, err
	}

	s.fog, err = store.LoadFog(mapID, meta)
	if err != nil {
		return nil, err
	}

	s.registerHandlers()
	s.recompute()
	return s, nil
}

// loadEntities читает все сущности карты из хранилища.
// Используется и при старте, и как откат после сбоя персистенса.
func (s *Session) loadEntities() error {
	walls, err := s.store.ListWalls(s.MapID)
	if err != nil {
		return err
	}
	portals, err := s.store.ListPortals(s.MapID)
	if err != nil {
		return err
	}
	lights, err := s.store.ListLights(s.MapID)
	if err != nil {
		return err
	}
	tokens, err := s.store.ListTokens(s.MapID)
	if err != nil {
		return err
	}
	markers, err := s.store.ListMarkers(s.MapID)
	if err != nil {
		return err
	}

	s.walls = walls
	s.portals = portals
	s.lights = lights
	s.markers = markers

	// Токены храним указателями: хендлеры мутируют их на месте.
	// Seq переживает перезагрузку, иначе сломается отсев устаревших
	// ответов персистенса.
	oldSeq := make(map[string]uint64, len(s.tokens))
	for _, t := range s.tokens {
		oldSeq[t.ID] = t.Seq
	}
	s.tokens = s.tokens[:0]
	for i := range tokens {
		t := tokens[i]
		t.Seq = oldSeq[t.ID]
		s.tokens = append(s.tokens, &t)
	}
	return nil
}

func (s *Session) registerHandlers() {
	s.handlers[domain.ActionInit] = handlers.WithEmptyPayload(actions.HandleInit)
	s.handlers[domain.ActionMoveToken] = handlers.WithPayload(actions.HandleMoveToken)
	s.handlers[domain.ActionDragStart] = handlers.WithPayload(actions.HandleDragStart)
	s.handlers[domain.ActionDragMove] = handlers.WithPayload(actions.HandleDragMove)
	s.handlers[domain.ActionDragEnd] = handlers.WithPayload(actions.HandleDragEnd)
	s.handlers[domain.ActionTogglePortal] = handlers.WithPayload(actions.HandleTogglePortal)
	s.handlers[domain.ActionToggleLight] = handlers.WithPayload(actions.HandleToggleLight)
	s.handlers[domain.ActionToggleMarker] = handlers.WithPayload(actions.HandleToggleMarker)
	s.handlers[domain.ActionSetMode] = handlers.WithPayload(actions.HandleSetMode)
	s.handlers[domain.ActionSetFogEnabled] = handlers.WithPayload(actions.HandleSetFogEnabled)
	s.handlers[domain.ActionResetFog] = handlers.WithEmptyPayload(actions.HandleResetFog)
	s.handlers[domain.ActionRevealRect] = handlers.WithPayload(actions.HandleRevealRect)
	s.handlers[domain.ActionRevealCircle] = handlers.WithPayload(actions.HandleRevealCircle)
	s.handlers[domain.ActionRevealAll] = handlers.WithEmptyPayload(actions.HandleRevealAll)
}

// Run запускает цикл сессии ЭТОЙ карты.
func (s *Session) Run() {
	s.log.Info("🗺️ Session loop started")

	for {
		select {
		case cmd := <-s.CommandChan:
			s.Execute(cmd)

		case res := <-s.persistCh:
			s.handlePersistResult(res)

		case reply := <-s.FrameReq:
			reply <- s.buildFrame(true)

		case <-s.done:
			s.log.Info("Session loop stopped")
			return
		}
	}
}

func (s *Session) Stop() {
	close(s.done)
}

// Execute выполняет одну команду синхронно в вызывающей горутине.
// Снаружи цикла Run этим пользуются только тесты.
func (s *Session) Execute(cmd domain.InternalCommand) {
	handler, ok := s.handlers[cmd.Action]
	if !ok {
		s.log.WithField("action", cmd.Action).Warn("No handler for action")
		return
	}

	result, err := handler(handlers.Context{State: s}, cmd.Payload)
	if err != nil {
		s.log.WithField("action", cmd.Action.String()).WithError(err).Warn("Command failed")
		s.hub.Publish(s.MapID, true, api.DisplayFrame{
			Type:  api.FrameTypeError,
			MapID: s.MapID,
			Mode:  s.mode.String(),
			Error: err.Error(),
		})
		return
	}
	if result.Msg != "" {
		s.log.WithField("type", result.MsgType).Info(result.Msg)
	}
}

// --- Реализация handlers.SessionState ---

func (s *Session) Refresh() {
	s.recompute()
	s.publish()
}

func (s *Session) MoveToken(tokenID string, gridX, gridY int) error {
	t := s.findToken(tokenID)
	if t == nil {
		return fmt.Errorf("token %s not found", tokenID)
	}

	t.GridX = gridX
	t.GridY = gridY
	t.Seq++

	// Оптимистичный коммит: память и кадры сразу, база - в фоне.
	s.recompute()
	s.publish()
	s.persistTokenAsync(t.ID, gridX, gridY, t.Seq)
	return nil
}

func (s *Session) BeginDrag(targetID string, screenX, screenY, panX, panY, zoom float64) error {
	if s.drag != nil {
		// Потерянный DRAG_END: бросаем старый жест
		s.log.WithField("target_id", s.drag.TargetID).Warn("Drag restarted without DRAG_END")
	}

	view := ViewTransform{
		PanX: panX, PanY: panY, Zoom: zoom,
		GridSizePx:  s.meta.GridSizePx,
		GridOffsetX: s.meta.GridOffsetX,
		GridOffsetY: s.meta.GridOffsetY,
	}
	pointer := view.ToMapPixel(screenX, screenY)

	if t := s.findToken(targetID); t != nil {
		s.drag = NewDragState(targetID, pointer, TokenSpace{T: t}, view, s.meta)
		return nil
	}
	if l := s.findLight(targetID); l != nil {
		if l.TokenID != "" {
			return fmt.Errorf("light %s is attached to a token and cannot be dragged", targetID)
		}
		s.drag = NewDragState(targetID, pointer, LightSpace{L: l}, view, s.meta)
		return nil
	}
	return fmt.Errorf("drag target %s not found", targetID)
}

func (s *Session) UpdateDrag(screenX, screenY float64) error {
	if s.drag == nil {
		return fmt.Errorf("no active drag")
	}
	if !s.drag.Update(screenX, screenY) {
		return nil
	}
	// Провизорная позиция едет без пересчета видимости:
	// DRAG_LIVE несет только точку.
	s.publishLive()
	return nil
}

func (s *Session) FinishDrag(snap bool) error {
	d := s.drag
	if d == nil {
		return fmt.Errorf("no active drag")
	}
	s.drag = nil

	if !d.Moved() {
		// Порог не пройден: это был клик, провизорное состояние забыто
		return nil
	}

	d.Commit(snap)

	if t := s.findToken(d.TargetID); t != nil {
		t.Seq++
		s.recompute()
		s.publish()
		s.persistTokenAsync(t.ID, t.GridX, t.GridY, t.Seq)
		return nil
	}
	if l := s.findLight(d.TargetID); l != nil {
		s.lightSeq[l.ID]++
		s.recompute()
		s.publish()
		s.persistLightAsync(l.ID, l.Pos, s.lightSeq[l.ID])
		return nil
	}
	return fmt.Errorf("drag target %s vanished mid-drag", d.TargetID)
}

func (s *Session) TogglePortal(id string) error {
	closed, err := s.store.TogglePortal(id)
	if err != nil {
		return err
	}
	for i := range s.portals {
		if s.portals[i].ID == id {
			s.portals[i].Closed = closed
		}
	}
	s.log.WithFields(logrus.Fields{"portal_id": id, "closed": closed}).Info("🚪 Portal toggled")
	s.Refresh()
	return nil
}

func (s *Session) ToggleLight(id string) error {
	active, err := s.store.ToggleLight(id)
	if err != nil {
		return err
	}
	for i := range s.lights {
		if s.lights[i].ID == id {
			s.lights[i].Active = active
		}
	}
	s.log.WithFields(logrus.Fields{"light_id": id, "active": active}).Info("🔥 Light toggled")
	s.Refresh()
	return nil
}

func (s *Session) ToggleMarker(id string) error {
	visible, err := s.store.ToggleMarker(id)
	if err != nil {
		return err
	}
	for i := range s.markers {
		if s.markers[i].ID == id {
			s.markers[i].VisibleToPlayers = visible
		}
	}
	s.Refresh()
	return nil
}

func (s *Session) SetMode(mode domain.Mode) {
	if s.mode == mode {
		return
	}
	s.log.WithFields(logrus.Fields{"from": s.mode.String(), "to": mode.String()}).Info("Mode changed")
	s.mode = mode
	s.Refresh()
}

func (s *Session) SetFogEnabled(enabled bool) error {
	if s.meta.FogEnabled == enabled {
		return nil
	}
	if err := s.store.SetFogEnabled(s.MapID, enabled); err != nil {
		return err
	}
	s.meta.FogEnabled = enabled
	s.log.WithField("enabled", enabled).Info("🌫️ Fog accumulation toggled")
	s.Refresh()
	return nil
}

func (s *Session) ResetFog() error {
	s.fog.Reset()
	if err := s.store.DeleteFog(s.MapID); err != nil {
		return err
	}
	s.log.Info("🌫️ Fog reset")
	// Пересчет сразу вернет в туман текущую зону зрения
	s.Refresh()
	return nil
}

func (s *Session) RevealRect(x, y, width, height float64) {
	s.revealWhere(func(c domain.Point) bool {
		return c.X >= x && c.X <= x+width && c.Y >= y && c.Y <= y+height
	})
}

func (s *Session) RevealCircle(centerX, centerY, radius float64) {
	center := domain.Point{X: centerX, Y: centerY}
	s.revealWhere(func(c domain.Point) bool {
		return c.DistanceTo(center) <= radius
	})
}

func (s *Session) RevealAll() {
	s.revealWhere(func(domain.Point) bool { return true })
}

// revealWhere раскрывает клетки, чей центр проходит предикат.
// Ручное раскрытие монотонно, как и обычное накопление тумана.
func (s *Session) revealWhere(pred func(center domain.Point) bool) {
	for y := 0; y < s.fog.Revealed.Rows; y++ {
		for x := 0; x < s.fog.Revealed.Cols; x++ {
			if pred(s.meta.CellCenter(x, y)) {
				s.fog.Revealed.Set(x, y)
			}
		}
	}
	s.saveFogAsync()
	s.publish()
}

// --- Внутреннее ---

func (s *Session) findToken(id string) *domain.Token {
	for _, t := range s.tokens {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (s *Session) findLight(id string) *domain.LightSource {
	for i := range s.lights {
		if s.lights[i].ID == id {
			return &s.lights[i]
		}
	}
	return nil
}

// recompute прогоняет полный конвейер видимости и, в режиме тумана,
// вливает результат в накопленный туман.
func (s *Session) recompute() {
	occluders := systems.OccluderSet(s.walls, s.portals)
	s.snap = systems.Aggregate(s.meta, s.tokens, s.lights, occluders)

	if s.mode == domain.ModeFog && s.meta.FogEnabled {
		before := s.fog.Revealed.Count()
		s.fog.Merge(s.snap.Visible)
		if s.fog.Revealed.Count() != before {
			s.saveFogAsync()
		}
	}
}

// publish строит и рассылает кадры обеим поверхностям.
// Без единого подписчика вся рассылка - no-op.
func (s *Session) publish() {
	s.frameSeq++
	s.hub.Publish(s.MapID, true, s.buildFrame(true))
	if s.hub.HasDisplay(s.MapID) {
		s.hub.Publish(s.MapID, false, s.buildFrame(false))
	}
}

// publishLive шлет провизорную позицию драга. Скрытый от игроков токен
// не светится и здесь: его DRAG_LIVE уходит только мастерской поверхности.
func (s *Session) publishLive() {
	d := s.drag
	cur := d.Current()
	s.frameSeq++

	frame := api.DisplayFrame{
		Type:  api.FrameTypeDragLive,
		MapID: s.MapID,
		Seq:   s.frameSeq,
		Mode:  s.mode.String(),
		Live:  &api.LivePosition{TokenID: d.TargetID, X: cur.X, Y: cur.Y},
	}

	s.hub.Publish(s.MapID, true, frame)

	if t := s.findToken(d.TargetID); t != nil && !t.VisibleToPlayers {
		return
	}
	s.hub.Publish(s.MapID, false, frame)
}

func (s *Session) persistTokenAsync(tokenID string, gridX, gridY int, seq uint64) {
	go func() {
		err := s.store.UpdateTokenPosition(tokenID, gridX, gridY)
		s.persistCh <- persistResult{TargetID: tokenID, Seq: seq, Err: err}
	}()
}

func (s *Session) persistLightAsync(lightID string, pos domain.Point, seq uint64) {
	go func() {
		err := s.store.UpdateLightPosition(lightID, pos.X, pos.Y)
		s.persistCh <- persistResult{TargetID: lightID, Seq: seq, Err: err}
	}()
}

func (s *Session) saveFogAsync() {
	// Туман монотонен, поэтому снимка в момент вызова достаточно:
	// поздний Save никогда не откатит ранний по содержанию.
	blobOwner := &domain.FogState{MapID: s.fog.MapID, Revealed: s.fog.Revealed.Clone()}
	go func() {
		if err := s.store.SaveFog(blobOwner); err != nil {
			s.log.WithError(err).Error("Failed to persist fog")
		}
	}()
}

// handlePersistResult сверяет ответ фонового персистенса с текущим
// счетчиком цели. Отстал - молча в корзину; провалился и актуален -
// откат: перечитываем сущности карты из базы и пересчитываем.
func (s *Session) handlePersistResult(res persistResult) {
	current := s.lightSeq[res.TargetID]
	if t := s.findToken(res.TargetID); t != nil {
		current = t.Seq
	}
	if res.Seq < current {
		return
	}
	if res.Err == nil {
		return
	}

	s.log.WithFields(logrus.Fields{
		"target_id": res.TargetID,
		"seq":       res.Seq,
	}).WithError(res.Err).Error("Persistence failed, rolling back from storage")

	if err := s.loadEntities(); err != nil {
		s.log.WithError(err).Error("Rollback reload failed")
		return
	}
	s.Refresh()
}

// SnapshotVisibleCount - счетчик видимых клеток для отладочных ручек.
func (s *Session) SnapshotVisibleCount() int {
	if s.snap == nil {
		return 0
	}
	return s.snap.Visible.Count()
}
