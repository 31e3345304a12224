package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ErrQueueFull is returned by Publish when the hub cannot accept more events
var ErrQueueFull = errors.New("websocket hub queue is full")

// Event is the frame delivered to clients
type Event struct {
	Event string `json:"event"`
	Room  string `json:"room"`
	Data  any    `json:"data"`
}

type outbound struct {
	room string
	data []byte
}

// UserRoom returns the room every socket of a user joins
func UserRoom(userID int64) string {
	return fmt.Sprintf("user_%d", userID)
}

// Hub maintains the set of active clients grouped by room and fans events out to them
type Hub struct {
	// Registered clients organized by room
	clients map[string]map[*Client]bool

	// Queue of serialized events waiting for delivery
	broadcast chan outbound

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Guards clients for readers outside the Run loop
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub instance. queueSize bounds the number of pending events.
func NewHub(queueSize int, logger zerolog.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan outbound, queueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run handles registrations and deliveries until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for room, clients := range h.clients {
			for client := range clients {
				close(client.send)
			}
			delete(h.clients, room)
		}
		h.mu.Unlock()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Msg("Websocket hub stopped")
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Publish serializes the event and queues it for the room without blocking.
// Delivery is at most once; there is no acknowledgement.
func (h *Hub) Publish(event, room string, payload any) error {
	data, err := json.Marshal(Event{Event: event, Room: room, Data: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event, err)
	}

	select {
	case h.broadcast <- outbound{room: room, data: data}:
		return nil
	default:
		return ErrQueueFull
	}
}

// ClientsCount returns the number of connected clients in a room
func (h *Hub) ClientsCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[room])
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.room]; !ok {
		h.clients[client.room] = make(map[*Client]bool)
	}
	h.clients[client.room][client] = true

	h.logger.Info().
		Str("room", client.room).
		Int64("userID", client.userID).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.clients[client.room]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.room)
	}

	h.logger.Info().
		Str("room", client.room).
		Int64("userID", client.userID).
		Msg("Client unregistered")
}

// deliver sends to every client of the room; clients with a full buffer are dropped
func (h *Hub) deliver(msg outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[msg.room]
	if !ok {
		h.logger.Debug().Str("room", msg.room).Msg("No clients in room")
		return
	}

	for client := range clients {
		select {
		case client.send <- msg.data:
		default:
			h.logger.Warn().Str("room", msg.room).Int64("userID", client.userID).Msg("Dropping slow client")
			h.removeLocked(client)
		}
	}
}

// leave asks the hub to unregister client unless the hub has stopped
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// join registers client unless the hub has stopped
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}
