package orderfeed

import (
	"context"
	"net/http"
	"time"

	"babumoshai/utils"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	// ctx bounds registration so handlers do not block on a stopped hub.
	ctx context.Context
	log *zap.Logger
}

// NewHandler serves the feed. checkOrigin may be nil to allow same-origin only.
func NewHandler(ctx context.Context, hub *Hub, checkOrigin func(*http.Request) bool, log *zap.Logger) *Handler {
	return &Handler{
		hub:      hub,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024, CheckOrigin: checkOrigin},
		ctx:      ctx,
		log:      log,
	}
}

// Serve upgrades an authenticated admin request and streams order events as JSON text
// frames. Anything the client sends is discarded.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("order feed upgrade failed", zap.Error(err))
		return
	}
	c := &Client{UserID: utils.GetUserIDFromRequest(r), Send: make(chan []byte, 32)}
	if !h.hub.Register(h.ctx, c) {
		conn.Close()
		return
	}
	go h.writePump(conn, c)
	go h.readPump(conn, c)
}

func (h *Handler) writePump(conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

func (h *Handler) readPump(conn *websocket.Conn, c *Client) {
	defer func() {
		h.hub.Unregister(h.ctx, c)
		conn.Close()
	}()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
