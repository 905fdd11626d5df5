package engine

import (
	"fmt"
	"sync"

	"vision-server/internal/domain"
	"vision-server/internal/network"
	"vision-server/internal/storage"
	"vision-server/pkg/api"
	"vision-server/pkg/logger"
)

// Service владеет хранилищем, хабом и сессиями открытых карт.
// Сессии создаются лениво: карта живет в памяти, только пока
// к ней кто-то подключен или по ней идут команды.
type Service struct {
	Store *storage.Store
	Hub   *network.Broadcaster

	mu       sync.Mutex
	Sessions map[string]*Session
}

func NewService(store *storage.Store) *Service {
	return &Service{
		Store:    store,
		Hub:      network.NewBroadcaster(),
		Sessions: make(map[string]*Session),
	}
}

// OpenSession возвращает сессию карты, поднимая ее при первом обращении.
func (s *Service) OpenSession(mapID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.Sessions[mapID]; ok {
		return sess, nil
	}

	sess, err := NewSession(mapID, s.Store, s.Hub)
	if err != nil {
		return nil, fmt.Errorf("failed to open session for map %s: %w", mapID, err)
	}

	s.Sessions[mapID] = sess
	go sess.Run()
	return sess, nil
}

// ProcessCommand принимает команду от мастерской поверхности.
// Валидация полезной нагрузки происходит в хендлере, здесь только
// разбор действия и маршрутизация в горутину сессии.
func (s *Service) ProcessCommand(mapID string, cmd api.ClientCommand) error {
	action := domain.ParseAction(cmd.Action)
	if action == domain.ActionUnknown {
		return fmt.Errorf("unknown action: %s", cmd.Action)
	}

	sess, err := s.OpenSession(mapID)
	if err != nil {
		return err
	}

	sess.CommandChan <- domain.InternalCommand{Action: action, Payload: cmd.Payload}
	return nil
}

// Recompute возвращает свежий мастерский кадр карты.
// Запрос едет через горутину сессии: никакого доступа к состоянию извне.
func (s *Service) Recompute(mapID string) (api.DisplayFrame, error) {
	sess, err := s.OpenSession(mapID)
	if err != nil {
		return api.DisplayFrame{}, err
	}

	reply := make(chan api.DisplayFrame, 1)
	sess.FrameReq <- reply
	return <-reply, nil
}

// SessionIDs - список открытых карт для отладочных ручек.
func (s *Service) SessionIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.Sessions))
	for id := range s.Sessions {
		ids = append(ids, id)
	}
	return ids
}

// Shutdown останавливает сессии и закрывает хранилище.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.Sessions {
		sess.Stop()
		delete(s.Sessions, id)
	}
	if err := s.Store.Close(); err != nil {
		logger.Log.WithError(err).Warn("Storage close failed")
	}
	logger.Log.Info("Engine stopped")
}
