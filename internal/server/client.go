package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"vision-server/internal/engine"
	"vision-server/pkg/api"
	"vision-server/pkg/logger"
)

// Настройки WebSocket
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// upgrader строит websocket.Upgrader с проверкой Origin.
// Звездочка пускает всех (локальная сеть за игровым столом).
func upgrader(allowedOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "*" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}
}

// Client - посредник между WebSocket-соединением и движком.
// Одно соединение привязано к одной карте и одной стороне (ГМ/дисплей).
type Client struct {
	Engine   *engine.Service
	Conn     *websocket.Conn
	Send     chan api.DisplayFrame
	ClientID string
	MapID    string
	GM       bool
}

func newClient(eng *engine.Service, conn *websocket.Conn, mapID string, gm bool) *Client {
	return &Client{
		Engine:   eng,
		Conn:     conn,
		Send:     make(chan api.DisplayFrame, 256),
		ClientID: uuid.NewString(),
		MapID:    mapID,
		GM:       gm,
	}
}

func (s *Server) handleGMSocket(w http.ResponseWriter, r *http.Request) {
	s.acceptSocket(w, r, true)
}

func (s *Server) handleDisplaySocket(w http.ResponseWriter, r *http.Request) {
	s.acceptSocket(w, r, false)
}

func (s *Server) acceptSocket(w http.ResponseWriter, r *http.Request, gm bool) {
	mapID := r.URL.Query().Get("map")
	if mapID == "" {
		http.Error(w, "map query parameter is required", http.StatusBadRequest)
		return
	}

	// Сессия должна существовать до апгрейда, иначе оборвем сокет
	// сразу после рукопожатия и клиент не увидит внятной ошибки.
	if _, err := s.Engine.OpenSession(mapID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	up := upgrader(s.allowedOrigin)
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.WithError(err).Error("Upgrade error")
		return
	}

	client := newClient(s.Engine, conn, mapID, gm)

	logger.Log.WithFields(logrus.Fields{
		"client_id": client.ClientID,
		"map_id":    mapID,
		"gm":        gm,
	}).Info("🔌 Surface connected")

	// Подписка на кадры своей стороны
	frames := s.Engine.Hub.Register(client.ClientID, mapID, gm)
	go func() {
		for frame := range frames {
			client.Send <- frame
		}
		close(client.Send)
	}()

	go client.writePump()
	go client.readPump()

	// Триггер первой отрисовки для только что подключившейся поверхности
	if err := s.Engine.ProcessCommand(mapID, api.ClientCommand{Action: "INIT"}); err != nil {
		logger.Log.WithError(err).Warn("Initial frame trigger failed")
	}
}

// readPump читает команды от клиента. Игровая поверхность никогда не
// мутирует состояние: все, что она присылает, выбрасывается, а цикл
// чтения живет только ради pong и закрытия.
func (c *Client) readPump() {
	defer func() {
		c.Engine.Hub.Unregister(c.ClientID)
		if err := c.Conn.Close(); err != nil {
			logger.Log.WithError(err).Debug("failed to close websocket connection")
		}
		logger.Log.WithField("client_id", c.ClientID).Info("Surface disconnected")
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Log.WithError(err).Warn("failed to set read deadline")
	}
	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			logger.Log.WithError(err).Warn("failed to set pong read deadline")
		}
		return nil
	})

	for {
		var cmd api.ClientCommand
		if err := c.Conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.WithError(err).Error("WS Error")
			}
			return
		}

		if !c.GM {
			continue
		}
		if err := c.Engine.ProcessCommand(c.MapID, cmd); err != nil {
			logger.Log.WithError(err).WithField("action", cmd.Action).Warn("Command rejected")
		}
	}
}

// writePump отправляет кадры клиенту + Ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.Conn.Close(); err != nil {
			logger.Log.WithError(err).Debug("failed to close websocket connection in writePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Log.WithError(err).Warn("failed to set write deadline")
			}
			if !ok {
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logger.Log.WithError(err).Debug("write close message failed")
				}
				return
			}
			if err := c.Conn.WriteJSON(frame); err != nil {
				logger.Log.WithError(err).Debug("write json message failed")
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}
