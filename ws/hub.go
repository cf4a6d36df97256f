// Package ws fans comment events out to websocket subscribers. Clients
// subscribe to one manga's thread and only receive events for it.
package ws

import (
	"encoding/json"

	"github.com/yomuhub/yomu/log"
	"github.com/yomuhub/yomu/metrics"
	"github.com/yomuhub/yomu/model"
	"go.uber.org/zap"
)

type event struct {
	mangaID int64
	payload []byte
}

type Hub struct {
	clients    map[*client]bool
	broadcast  chan event
	register   chan *client
	unregister chan *client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan event),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

// BroadcastComment queues a comment event for every subscriber of the manga.
func (h *Hub) BroadcastComment(mangaID int64, e *model.CommentEvent) {
	payload, err := json.Marshal(e)
	if err != nil {
		log.Error("Failed to marshal comment event", zap.Error(err))
		return
	}
	h.broadcast <- event{mangaID: mangaID, payload: payload}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			metrics.WebsocketConnections.Inc()
			log.Debug("Websocket client connected",
				zap.Int64("manga_id", c.mangaID),
				zap.Int32("user_id", c.userID))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				metrics.WebsocketConnections.Dec()
				log.Debug("Websocket client disconnected",
					zap.Int64("manga_id", c.mangaID),
					zap.Int32("user_id", c.userID))
			}

		case e := <-h.broadcast:
			for c := range h.clients {
				if c.mangaID != e.mangaID {
					continue
				}
				select {
				case c.send <- e.payload:
				default:
					// Slow consumer, drop it instead of blocking the hub.
					delete(h.clients, c)
					close(c.send)
					metrics.WebsocketConnections.Dec()
					log.Warn("Websocket client send buffer full, removing",
						zap.Int64("manga_id", c.mangaID),
						zap.Int32("user_id", c.userID))
				}
			}
		}
	}
}
