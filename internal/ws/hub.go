package ws

import (
	"encoding/json"
	"strconv"
	"sync"

	"github.com/devsync/teamchat-api/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Client events.
const (
	EventConnected  = "connected"
	EventJoinChat   = "join chat"
	EventTyping     = "typing"
	EventStopTyping = "stop typing"
)

// Event is the envelope of every frame in both directions.
type Event struct {
	Event  string `json:"event"`
	Room   string `json:"room,omitempty"`
	UserID uint64 `json:"user_id,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// UserRoom is the room every connection of a user joins on connect.
func UserRoom(userID uint64) string { return "user:" + strconv.FormatUint(userID, 10) }

// ChatRoom is the room for typing indicators of a chat.
func ChatRoom(chatID uint64) string { return "chat:" + strconv.FormatUint(chatID, 10) }

// Hub tracks which clients are in which rooms. A client may be in many
// rooms; slow clients are dropped rather than blocking a broadcast.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*Client]bool
}

func NewHub() *Hub { return &Hub{rooms: make(map[string]map[*Client]bool)} }

func (h *Hub) register(c *Client) {
	metrics.WsConnections.Inc()
	h.join(UserRoom(c.userID), c)
}

func (h *Hub) join(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return
	}
	members := h.rooms[room]
	if members == nil {
		members = make(map[*Client]bool)
		h.rooms[room] = members
	}
	members[c] = true
	c.rooms[room] = true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

// dropLocked removes c from every room and closes its send channel once.
func (h *Hub) dropLocked(c *Client) {
	if c.closed {
		return
	}
	for room := range c.rooms {
		delete(h.rooms[room], c)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	c.rooms = map[string]bool{}
	c.closed = true
	close(c.send)
	metrics.WsConnections.Dec()
}

func (h *Hub) broadcast(room string, except *Client, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[room] {
		if c == except {
			continue
		}
		select {
		case c.send <- msg:
		default:
			log.Warn().Uint64("user_id", c.userID).Str("room", room).Msg("websocket client too slow, dropping")
			h.dropLocked(c)
		}
	}
}

// Online returns the number of clients in room.
func (h *Hub) Online(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}

// PublishToUser sends event to every connection of userID.
func (h *Hub) PublishToUser(userID uint64, event string, payload any) {
	b, err := json.Marshal(Event{Event: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("marshal websocket event")
		return
	}
	h.broadcast(UserRoom(userID), nil, b)
}
