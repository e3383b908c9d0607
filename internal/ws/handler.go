package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"call-relay/internal/notify"
	"call-relay/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades HTTP requests and runs the per-connection pumps.
type Handler struct {
	registry   *Registry
	dispatcher *Dispatcher
}

func NewHandler(registry *Registry, dispatcher *Dispatcher) *Handler {
	return &Handler{registry: registry, dispatcher: dispatcher}
}

// Serve upgrades the request and services the connection until it closes.
func (h *Handler) Serve(c *gin.Context) {
	log := logger.FromGin(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", "err", err)
		return
	}

	id := uuid.NewString()
	client := newClient(id, conn)
	h.registry.Add(client)
	log.Info("client connected", "conn_id", id, "remote", c.ClientIP(), "total", h.registry.Count())

	welcome, _ := json.Marshal(map[string]any{
		"type":      "connection_established",
		"id":        id,
		"message":   "connected to call relay",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	client.Send(welcome)
	h.registry.BroadcastExcept(notify.New("client_connected", "", map[string]any{"id": id}), id)

	ctx, cancel := context.WithCancel(context.Background())

	go h.writePump(client)
	h.readPump(ctx, client)

	cancel()
	h.registry.Remove(id)
	client.Close()
	h.registry.Broadcast(notify.New("client_disconnected", "", map[string]any{"id": id}))
	log.Info("client disconnected", "conn_id", id, "total", h.registry.Count())
}

func (h *Handler) readPump(ctx context.Context, client *Client) {
	conn := client.conn
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.dispatcher.Handle(ctx, client, data)
	}
}

func (h *Handler) writePump(client *Client) {
	conn := client.conn
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case data, ok := <-client.SendChan():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
