package network

import (
	"sync"

	"vision-server/pkg/api"
)

// Broadcaster занимается только доставкой кадров подписанным поверхностям.
// Каждый подписчик (окно ГМ или игровой дисплей) получает личный канал,
// привязанный к одной карте.
type Broadcaster struct {
	mu sync.RWMutex
	// Мапа: ClientID -> подписка
	subscribers map[string]*subscription
}

type subscription struct {
	mapID string
	gm    bool
	ch    chan api.DisplayFrame
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]*subscription),
	}
}

// Register создает личный канал для клиента.
// gm=true помечает мастерскую поверхность: она получает нефильтрованные
// кадры, игровая - только отфильтрованные.
func (b *Broadcaster) Register(clientID, mapID string, gm bool) chan api.DisplayFrame {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Если канал был, закрываем
	if old, ok := b.subscribers[clientID]; ok {
		close(old.ch)
	}

	ch := make(chan api.DisplayFrame, 64)
	b.subscribers[clientID] = &subscription{mapID: mapID, gm: gm, ch: ch}
	return ch
}

// Unregister удаляет подписчика.
func (b *Broadcaster) Unregister(clientID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subscribers[clientID]; ok {
		close(sub.ch)
		delete(b.subscribers, clientID)
	}
}

// Publish рассылает кадр всем подписчикам карты на нужной стороне.
// Fire-and-forget: без подписчиков это no-op, полный канал - дроп кадра
// (клиент догонит следующим кадром, Seq монотонен).
func (b *Broadcaster) Publish(mapID string, gm bool, frame api.DisplayFrame) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		if sub.mapID != mapID || sub.gm != gm {
			continue
		}
		select {
		case sub.ch <- frame:
		default:
		}
	}
}

// HasDisplay: открыт ли хоть один игровой дисплей этой карты.
// Позволяет движку не собирать игровой кадр впустую.
func (b *Broadcaster) HasDisplay(mapID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		if sub.mapID == mapID && !sub.gm {
			return true
		}
	}
	return false
}

// SubscriberCount возвращает количество активных подписчиков.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
