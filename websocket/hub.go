package websocket

import (
	"time"

	"github.com/anjiri1684/gym_revenue/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v any) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

const (
	writeWait     = 5 * time.Second
	pushQueueSize = 256
)

type Client struct {
	UserID uuid.UUID
	Conn   Conn
}

// NotificationMessage is the frame pushed to a connected gym owner.
type NotificationMessage struct {
	Type         string              `json:"type"`
	Notification models.Notification `json:"notification"`
}

type outbound struct {
	userID uuid.UUID
	msg    NotificationMessage
}

// Hub keeps the live connection of each signed-in user and fans committed
// notifications out to them. A user has at most one connection; a newer
// one replaces the older.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client
	broadcast  chan outbound
	stop       chan struct{}
	clients    map[uuid.UUID]Conn
	logger     zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan outbound, pushQueueSize),
		stop:       make(chan struct{}),
		clients:    make(map[uuid.UUID]Conn),
		logger:     logger.With().Str("component", "NotificationHub").Logger(),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			if old, ok := h.clients[client.UserID]; ok && old != client.Conn {
				old.Close()
			}
			h.clients[client.UserID] = client.Conn
			h.logger.Debug().Str("user_id", client.UserID.String()).Msg("client registered")
		case client := <-h.Unregister:
			if conn, ok := h.clients[client.UserID]; ok && conn == client.Conn {
				delete(h.clients, client.UserID)
			}
			h.logger.Debug().Str("user_id", client.UserID.String()).Msg("client unregistered")
		case out := <-h.broadcast:
			conn, ok := h.clients[out.userID]
			if !ok {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(out.msg); err != nil {
				h.logger.Warn().Err(err).Str("user_id", out.userID.String()).Msg("dropping websocket client after write error")
				conn.Close()
				delete(h.clients, out.userID)
			}
		case <-h.stop:
			for id, conn := range h.clients {
				conn.Close()
				delete(h.clients, id)
			}
			return
		}
	}
}

// Add and Remove hand a client to the running hub and give up once it has
// stopped.
func (h *Hub) Add(client *Client) {
	select {
	case h.Register <- client:
	case <-h.stop:
	}
}

func (h *Hub) Remove(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.stop:
	}
}

func (h *Hub) Stop() {
	close(h.stop)
}

// Push queues a notification for its recipient and never waits. When the
// queue is full the live push is dropped; the recipient still reads it
// from the notifications list.
func (h *Hub) Push(n models.Notification, recipient models.User) {
	out := outbound{userID: recipient.ID, msg: NotificationMessage{Type: "notification", Notification: n}}
	select {
	case h.broadcast <- out:
	default:
		h.logger.Warn().Str("user_id", recipient.ID.String()).Msg("notification hub busy, live push dropped")
	}
}
