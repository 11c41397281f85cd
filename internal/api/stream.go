package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"stopwatch/backend/internal/session"
)

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

// EventNotifier keeps track of active websocket clients and broadcasts session events.
type EventNotifier struct {
	mu        sync.Mutex
	clients   map[*wsClient]struct{}
	lastState *session.Event
}

// NewEventNotifier constructs a notifier instance.
func NewEventNotifier() *EventNotifier {
	return &EventNotifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection and replays the latest state to it ahead of any
// later broadcast.
func (n *EventNotifier) Register(conn *websocket.Conn) *wsClient {
	client := &wsClient{id: uuid.NewString(), conn: conn}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.clients[client] = struct{}{}
	if n.lastState != nil {
		if err := client.writeJSON(*n.lastState); err != nil {
			delete(n.clients, client)
		}
	}
	return client
}

// Unregister removes the websocket client from the notifier and closes the socket.
func (n *EventNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	_ = client.conn.Close()
}

// Publish sends the event to all registered websocket clients. Clients that fail a write are
// dropped.
func (n *EventNotifier) Publish(event session.Event) {
	event.Timestamp = time.Now().UTC()

	n.mu.Lock()
	defer n.mu.Unlock()
	if event.Type == session.EventState {
		snapshot := event
		n.lastState = &snapshot
	}

	for client := range n.clients {
		if err := client.writeJSON(event); err != nil {
			delete(n.clients, client)
			_ = client.conn.Close()
		}
	}
}

// Clients returns the number of connected websocket clients.
func (n *EventNotifier) Clients() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.clients)
}

// LastState returns the most recent state event, if any.
func (n *EventNotifier) LastState() *session.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.lastState == nil {
		return nil
	}
	copy := *n.lastState
	return &copy
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}
