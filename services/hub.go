package services

import (
	"context"
	"encoding/json"
	"sync"

	"neurocards/config"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Hub pushes deck-update notifications to websocket clients. A client
// watches one deck; when that deck's version advances anywhere in the
// cluster, the client receives a deck_updated event and runs an incremental
// sync over the REST API.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	redis      *redis.Client
}

type Client struct {
	hub    *Hub
	socket *websocket.Conn
	send   chan []byte
	deckID uint
	userID uint
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func NewHub(redisClient *redis.Client) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		redis:      redisClient,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			config.Log.Info("watch client registered",
				zap.Uint("deck_id", client.deckID),
				zap.Uint("user_id", client.userID),
				zap.Int("total", len(h.clients)))

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			config.Log.Info("watch client unregistered",
				zap.Uint("deck_id", client.deckID),
				zap.Uint("user_id", client.userID))
		}
	}
}

// RunSubscriber consumes the redis deck_updates channel and fans events out
// to local clients. Updates published by other instances reach this one here.
func (h *Hub) RunSubscriber(ctx context.Context) {
	sub := h.redis.Subscribe(ctx, DeckUpdatesChannel)
	defer sub.Close()

	for msg := range sub.Channel() {
		var event DeckUpdateEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			config.Log.Warn("bad deck update payload", zap.Error(err))
			continue
		}
		h.BroadcastDeckUpdate(event)
	}
}

func (h *Hub) BroadcastDeckUpdate(event DeckUpdateEvent) {
	message := Message{
		Type:    "deck_updated",
		Payload: event,
	}
	data, err := json.Marshal(message)
	if err != nil {
		config.Log.Error("failed to marshal deck update message", zap.Error(err))
		return
	}

	h.mutex.Lock()
	for client := range h.clients {
		if client.deckID != event.DeckID {
			continue
		}
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
	h.mutex.Unlock()
}

func (h *Hub) RegisterClient(conn *websocket.Conn, deckID, userID uint) *Client {
	client := &Client{
		hub:    h,
		socket: conn,
		send:   make(chan []byte, 256),
		deckID: deckID,
		userID: userID,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.socket.Close()
	}()

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				config.Log.Warn("websocket read error", zap.Error(err))
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	defer c.socket.Close()

	for message := range c.send {
		if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case "ping":
		data, _ := json.Marshal(Message{Type: "pong", Payload: "pong"})
		c.send <- data
	default:
		config.Log.Debug("unknown websocket message type", zap.String("type", msg.Type))
	}
}
