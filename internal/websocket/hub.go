package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"vibely/internal/realtime"
	"vibely/pkg/logger"
)

// delivery is one frame bound for a room, tagged with the connection that
// produced it so the hub can skip the sender.
type delivery struct {
	origin string
	data   []byte
}

type Hub struct {
	roomID     string
	clients    map[*Client]bool
	Broadcast  chan delivery
	Register   chan *Client
	Unregister chan *Client
	online     chan chan []string
	retire     chan chan bool
	done       chan struct{}
}

func NewHub(roomID string) *Hub {
	return &Hub{
		roomID:     roomID,
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan delivery),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		online:     make(chan chan []string),
		retire:     make(chan chan bool),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			if !h.clients[client] {
				h.clients[client] = true
				h.broadcastPresence()
				logger.Info("User %s joined room %s", client.userID, h.roomID)
			}

		case client := <-h.Unregister:
			if h.clients[client] {
				delete(h.clients, client)
				h.broadcastPresence()
				logger.Info("User %s left room %s", client.userID, h.roomID)
			}

		case d := <-h.Broadcast:
			h.broadcast(d)

		case reply := <-h.online:
			reply <- h.onlineUsers()

		case reply := <-h.retire:
			idle := len(h.clients) == 0
			reply <- idle
			if idle {
				close(h.done)
				return
			}
		}
	}
}

func (h *Hub) broadcast(d delivery) {
	for client := range h.clients {
		if client.id == d.origin {
			continue
		}
		if !client.enqueue(d.data) {
			// Slow consumer: drop it from the room and hang up.
			delete(h.clients, client)
			client.Close()
		}
	}
}

func (h *Hub) onlineUsers() []string {
	seen := make(map[string]bool, len(h.clients))
	users := make([]string, 0, len(h.clients))
	for client := range h.clients {
		if !seen[client.userID] {
			seen[client.userID] = true
			users = append(users, client.userID)
		}
	}
	sort.Strings(users)
	return users
}

func (h *Hub) broadcastPresence() {
	data, err := realtime.Encode(realtime.EventPresence, realtime.Presence{
		ChatroomID: h.roomID,
		Online:     h.onlineUsers(),
	})
	if err != nil {
		logger.Error("Error encoding presence update: %v", err)
		return
	}
	h.broadcast(delivery{data: data})
}

// Manager owns one hub per active chatroom and routes published frames
// through the broker so every server instance sees them.
type Manager struct {
	hubs   map[string]*Hub
	mutex  sync.Mutex
	broker Broker
	stop   chan struct{}
	once   sync.Once
}

// NewManager starts the broker subscription and the idle hub sweeper.
// A nil broker means in-process fan-out.
func NewManager(ctx context.Context, broker Broker) (*Manager, error) {
	if broker == nil {
		broker = NewLocalBroker()
	}
	m := &Manager{
		hubs:   make(map[string]*Hub),
		broker: broker,
		stop:   make(chan struct{}),
	}
	if err := broker.Subscribe(ctx, m.deliver); err != nil {
		return nil, err
	}

	go m.cleanupUnusedHubs(5 * time.Minute)
	return m, nil
}

func (m *Manager) GetHubForRoom(roomID string) *Hub {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	hub, exists := m.hubs[roomID]
	if !exists {
		hub = NewHub(roomID)
		m.hubs[roomID] = hub
		go hub.Run()
	}
	return hub
}

func (m *Manager) lookup(roomID string) *Hub {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.hubs[roomID]
}

// Join subscribes the client to the room's hub.
func (m *Manager) Join(c *Client, roomID string) {
	for {
		hub := m.GetHubForRoom(roomID)
		select {
		case hub.Register <- c:
			return
		case <-hub.done:
			// Retired between lookup and register; a fresh hub is created on the next pass.
		}
	}
}

func (m *Manager) Leave(c *Client, roomID string) {
	hub := m.lookup(roomID)
	if hub == nil {
		return
	}
	select {
	case hub.Unregister <- c:
	case <-hub.done:
	}
}

// Publish hands a frame for roomID to the broker. origin is the connection
// id that must not receive its own frame back.
func (m *Manager) Publish(ctx context.Context, roomID, origin string, data []byte) error {
	return m.broker.Publish(ctx, Envelope{RoomID: roomID, Origin: origin, Frame: data})
}

// deliver pushes a brokered frame into the local hub, if any client here is in the room.
func (m *Manager) deliver(env Envelope) {
	hub := m.lookup(env.RoomID)
	if hub == nil {
		return
	}
	select {
	case hub.Broadcast <- delivery{origin: env.Origin, data: env.Frame}:
	case <-hub.done:
	}
}

// OnlineUsers returns the ids of users connected to the room on this instance.
func (m *Manager) OnlineUsers(roomID string) []string {
	hub := m.lookup(roomID)
	if hub == nil {
		return []string{}
	}
	reply := make(chan []string, 1)
	select {
	case hub.online <- reply:
		return <-reply
	case <-hub.done:
		return []string{}
	}
}

func (m *Manager) Close() error {
	m.once.Do(func() { close(m.stop) })
	return m.broker.Close()
}

func (m *Manager) cleanupUnusedHubs(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for roomID, hub := range m.hubs {
		reply := make(chan bool, 1)
		hub.retire <- reply
		if <-reply {
			delete(m.hubs, roomID)
			logger.Debug("Cleaned up unused hub for room %s", roomID)
		}
	}
}
