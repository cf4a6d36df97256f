package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yomuhub/yomu/http/request"
	"github.com/yomuhub/yomu/log"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	mangaID int64
	userID  int32
}

// ServeWS upgrades the request and subscribes it to the manga's comment
// stream. The stream is read-only, inbound messages are discarded.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	mangaID := request.RouteInt64Param(r, "mangaID")
	if mangaID == 0 {
		http.Error(w, "invalid manga id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		mangaID: mangaID,
		userID:  request.UserID(r),
	}
	hub.register <- c

	go c.readPump()
	go c.writePump()
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug("Websocket read error", zap.Error(err))
			}
			break
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
