package websocket

import (
	"context"
	"encoding/json"
	"time"

	"bakehouse/pkg/logger"
)

// RelayChannel is the pub/sub channel order events travel on between
// server instances.
const RelayChannel = "ws:events"

// Publisher is the pub/sub side of the cache.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// Broadcaster delivers a message to the sockets of one instance.
type Broadcaster interface {
	Broadcast(room, msgType string, data interface{})
}

type relayMessage struct {
	Room string          `json:"room"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Relay publishes events to every instance. Each instance feeds what it
// receives on RelayChannel into Deliver, which hands it to the local hub.
type Relay struct {
	publisher Publisher
	local     Broadcaster
	timeout   time.Duration
	logger    *logger.Logger
}

func NewRelay(publisher Publisher, local Broadcaster, log *logger.Logger) *Relay {
	return &Relay{
		publisher: publisher,
		local:     local,
		timeout:   2 * time.Second,
		logger:    log.WithField("component", "websocket_relay"),
	}
}

// Broadcast publishes the event. If publishing fails the event is still
// delivered to this instance's clients.
func (r *Relay) Broadcast(room, msgType string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		r.logger.WithError(err).Error("Failed to marshal relay payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	msg := relayMessage{Room: room, Type: msgType, Data: raw}
	if err := r.publisher.Publish(ctx, RelayChannel, msg); err != nil {
		r.logger.WithError(err).WithField("room", room).Warn("Relay publish failed, delivering locally")
		r.local.Broadcast(room, msgType, msg.Data)
	}
}

// Deliver decodes a payload received from RelayChannel and broadcasts it
// locally.
func (r *Relay) Deliver(payload []byte) error {
	var msg relayMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return err
	}
	r.local.Broadcast(msg.Room, msg.Type, msg.Data)
	return nil
}
