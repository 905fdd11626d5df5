// Package agent содержит безголовый клиент игровой поверхности.
// Это пример ВНЕШНЕГО потребителя: он подписывается на хаб так же,
// как настоящий дисплей через WebSocket, и просто накапливает кадры.
// Движковые тесты проверяют через него контракт синхронизации,
// не поднимая сокетов.
package agent

import (
	"sync"

	"vision-server/internal/network"
	"vision-server/pkg/api"
)

// Display - пассивный наблюдатель одной карты.
//
// Жизненный цикл:
//  1. NewDisplay -> регистрация в хабе, получение личного канала (Inbox).
//  2. Run -> запуск в горутине, слушает Inbox до закрытия канала.
//  3. LastFrame/FrameCount - что дисплей видел на данный момент.
type Display struct {
	ClientID string
	Inbox    chan api.DisplayFrame

	hub *network.Broadcaster

	mu     sync.Mutex
	last   api.DisplayFrame
	count  int
	gotAny bool
}

func NewDisplay(clientID, mapID string, hub *network.Broadcaster) *Display {
	return &Display{
		ClientID: clientID,
		Inbox:    hub.Register(clientID, mapID, false),
		hub:      hub,
	}
}

// Run потребляет кадры до закрытия канала. Запускать в горутине.
func (d *Display) Run() {
	for frame := range d.Inbox {
		d.mu.Lock()
		// Кадр с отставшим номером игнорируется, как обязан делать
		// любой клиент игровой поверхности.
		if !d.gotAny || frame.Seq >= d.last.Seq {
			d.last = frame
			d.gotAny = true
		}
		d.count++
		d.mu.Unlock()
	}
}

// Drain синхронно выгребает все кадры, уже лежащие в Inbox.
// Удобно в тестах вместо запуска горутины.
func (d *Display) Drain() {
	for {
		select {
		case frame, ok := <-d.Inbox:
			if !ok {
				return
			}
			d.mu.Lock()
			if !d.gotAny || frame.Seq >= d.last.Seq {
				d.last = frame
				d.gotAny = true
			}
			d.count++
			d.mu.Unlock()
		default:
			return
		}
	}
}

// LastFrame возвращает последний принятый кадр.
func (d *Display) LastFrame() (api.DisplayFrame, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last, d.gotAny
}

// FrameCount - сколько кадров дисплей получил всего.
func (d *Display) FrameCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

// Close отписывает дисплей от хаба.
func (d *Display) Close() {
	d.hub.Unregister(d.ClientID)
}
