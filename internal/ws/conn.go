package ws

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/devsync/teamchat-api/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	sendBuffer = 256
	readLimit  = 64 << 10
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

// ChatMembership reports whether userID may join chatID's room.
type ChatMembership func(chatID, userID uint64) bool

type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	userID  uint64
	canJoin ChatMembership

	// guarded by hub.mu
	rooms  map[string]bool
	closed bool
}

func newClient(h *Hub, conn *websocket.Conn, userID uint64, canJoin ChatMembership) *Client {
	return &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		userID:  userID,
		canJoin: canJoin,
		rooms:   make(map[string]bool),
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Serve upgrades an authenticated request. The access token comes from the
// token query parameter or a Bearer Authorization header.
func Serve(h *Hub, jwtSecret string, canJoin ChatMembership) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if authz := c.GetHeader("Authorization"); token == "" && strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			token = authz[7:]
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "missing token"})
			return
		}
		claims, err := utils.ParseAccessToken(token, jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := newClient(h, conn, claims.UserID, canJoin)
		h.register(client)
		client.emit(Event{Event: EventConnected, UserID: client.userID})

		go client.writePump()
		client.readPump()
	}
}

// emit queues ev for this client only.
func (c *Client) emit(ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}

// handle applies one inbound event.
func (c *Client) handle(in Event) {
	chatID, err := strconv.ParseUint(strings.TrimPrefix(in.Room, "chat:"), 10, 64)
	if err != nil || chatID == 0 {
		return
	}
	room := ChatRoom(chatID)

	switch in.Event {
	case EventJoinChat:
		if c.canJoin != nil && !c.canJoin(chatID, c.userID) {
			log.Debug().Uint64("user_id", c.userID).Uint64("chat_id", chatID).Msg("websocket join refused")
			return
		}
		c.hub.join(room, c)
	case EventTyping, EventStopTyping:
		if !c.inRoom(room) {
			return
		}
		b, err := json.Marshal(Event{Event: in.Event, Room: strconv.FormatUint(chatID, 10), UserID: c.userID})
		if err == nil {
			c.hub.broadcast(room, c, b)
		}
	}
}

func (c *Client) inRoom(room string) bool {
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	return c.rooms[room]
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var in Event
		if err := json.Unmarshal(data, &in); err != nil {
			continue
		}
		c.handle(in)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
