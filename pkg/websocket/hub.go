package websocket

import (
	"context"
	"encoding/json"
	"time"

	"bakehouse/pkg/logger"
)

const (
	RoomAdmins     = "admins"
	customerPrefix = "customer_"
)

// CustomerRoom is the room a customer's sockets join.
func CustomerRoom(customerID string) string {
	return customerPrefix + customerID
}

type Message struct {
	Type      string      `json:"type"`
	Room      string      `json:"room,omitempty"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

type envelope struct {
	room string
	data []byte
}

// Hub fans messages out to rooms of connected clients. All client and room
// state is owned by the Run goroutine.
type Hub struct {
	clients    map[*Client]bool
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan envelope
	logger     *logger.Logger
	now        func() time.Time
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan envelope, 256),
		logger:     log.WithField("component", "websocket_hub"),
		now:        time.Now,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.removeClient(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			for _, room := range client.rooms {
				if h.rooms[room] == nil {
					h.rooms[room] = make(map[*Client]bool)
				}
				h.rooms[room][client] = true
			}
			h.logger.WithField("client_id", client.ID).Debug("Client registered")

		case client := <-h.unregister:
			h.removeClient(client)

		case env := <-h.broadcast:
			for client := range h.rooms[env.room] {
				select {
				case client.send <- env.data:
				default:
					h.logger.WithField("client_id", client.ID).Warn("Dropping slow websocket client")
					h.removeClient(client)
				}
			}
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	close(client.send)
	for _, room := range client.rooms {
		delete(h.rooms[room], client)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Broadcast queues a message for every client in room. It never blocks;
// when the queue is full the message is dropped and logged.
func (h *Hub) Broadcast(room, msgType string, data interface{}) {
	payload, err := json.Marshal(Message{
		Type:      msgType,
		Room:      room,
		Timestamp: h.now().Unix(),
		Data:      data,
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal websocket message")
		return
	}

	select {
	case h.broadcast <- envelope{room: room, data: payload}:
	default:
		h.logger.WithField("room", room).Warn("Websocket broadcast queue full, dropping message")
	}
}
