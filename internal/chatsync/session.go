// Package chatsync keeps a client's view of its chats in step with the
// server: the room list, the active room and its messages.
package chatsync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"vibely/internal/client"
	"vibely/internal/eventbus"
	"vibely/internal/models"
	"vibely/internal/realtime"
	"vibely/pkg/logger"
)

var ErrNoActiveRoom = errors.New("chatsync: no active room")

// API is the part of the REST client the session uses.
type API interface {
	Chatrooms(ctx context.Context) ([]*models.Chatroom, error)
	History(ctx context.Context, chatroomID string, limit int) ([]*models.Message, error)
	PostMessage(ctx context.Context, chatroomID, content string) (*models.Message, error)
	FindPrivateChatroom(ctx context.Context, userID string) (*models.Chatroom, error)
	CreatePrivateChatroom(ctx context.Context, participantID string) (*models.Chatroom, error)
	DeleteChatroom(ctx context.Context, chatroomID string) error
	MarkChatroomRead(ctx context.Context, chatroomID string) error
	AcceptFriendRequest(ctx context.Context, requestID string) (*models.FriendRequest, error)
}

// Channel is the realtime connection; *realtime.Conn satisfies it.
type Channel interface {
	On(event string, h realtime.Handler)
	Emit(ctx context.Context, event string, data any) error
	Close() error
}

const (
	DefaultHistoryLimit = 50
	refreshTimeout      = 10 * time.Second
)

type Session struct {
	api          API
	bus          *eventbus.Bus
	HistoryLimit int

	mu         sync.Mutex
	ch         Channel
	active     string
	generation uint64
	messages   []*models.Message
	seen       map[string]bool
	rooms      []*models.Chatroom
	roomsGen   uint64
	unsubs     []func()

	updates chan struct{}
}

func New(api API, bus *eventbus.Bus) *Session {
	if bus == nil {
		bus = eventbus.New()
	}
	return &Session{
		api:          api,
		bus:          bus,
		HistoryLimit: DefaultHistoryLimit,
		seen:         make(map[string]bool),
		updates:      make(chan struct{}, 1),
	}
}

// Connect dials the realtime endpoint for c and starts a session on it.
// The connection re-dials on its own and the session re-joins the active room.
func Connect(ctx context.Context, c *client.Client, bus *eventbus.Bus) (*Session, error) {
	wsURL, err := c.WebSocketURL()
	if err != nil {
		return nil, err
	}

	s := New(c, bus)
	conn, err := realtime.Dial(ctx, realtime.Options{
		URL:         wsURL,
		Token:       c.Token,
		OnReconnect: s.Rejoin,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Start(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Start attaches the realtime channel, subscribes to the bus and loads the room list.
func (s *Session) Start(ctx context.Context, ch Channel) error {
	s.mu.Lock()
	s.ch = ch
	s.mu.Unlock()

	ch.On(realtime.EventReceiveMessage, s.handleReceive)
	ch.On(realtime.EventError, func(f realtime.Frame) {
		var payload realtime.ErrorPayload
		if err := f.Bind(&payload); err == nil {
			logger.Error("Realtime server error: %s", payload.Message)
		}
	})

	refresh := func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if err := s.RefreshRooms(ctx); err != nil {
			logger.Error("Refreshing chat list failed: %v", err)
		}
	}
	s.mu.Lock()
	s.unsubs = append(s.unsubs,
		s.bus.ChatDeleted.Subscribe(func(eventbus.ChatDeleted) { refresh() }),
		s.bus.FriendAdded.Subscribe(func(eventbus.FriendAdded) { refresh() }),
	)
	s.mu.Unlock()

	return s.RefreshRooms(ctx)
}

// Close detaches from the bus and closes the channel.
func (s *Session) Close() error {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	ch := s.ch
	s.ch = nil
	s.mu.Unlock()

	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
	if ch != nil {
		return ch.Close()
	}
	return nil
}

// Bus returns the event bus the session listens on.
func (s *Session) Bus() *eventbus.Bus {
	return s.bus
}

// Updates signals state changes. Signals coalesce; read the snapshots after each one.
func (s *Session) Updates() <-chan struct{} {
	return s.updates
}

func (s *Session) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

func (s *Session) emit(ctx context.Context, event string, data any) error {
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()
	if ch == nil {
		return realtime.ErrNotConnected
	}
	return ch.Emit(ctx, event, data)
}

// SelectRoom makes id the active room: it joins the room on the realtime
// channel and replaces the message list with the room's history. History
// that arrives after another room was selected is discarded.
func (s *Session) SelectRoom(ctx context.Context, id string) error {
	s.mu.Lock()
	previous := s.active
	s.generation++
	gen := s.generation
	s.active = id
	s.messages = nil
	s.seen = make(map[string]bool)
	s.mu.Unlock()
	s.notify()

	if previous != "" && previous != id {
		if err := s.emit(ctx, realtime.EventLeaveRoom, realtime.RoomRef{ChatroomID: previous}); err != nil {
			logger.Debug("Leaving room %s: %v", previous, err)
		}
	}
	if err := s.emit(ctx, realtime.EventJoinRoom, realtime.RoomRef{ChatroomID: id}); err != nil {
		// The reconnect hook joins the active room once the channel is back.
		logger.Error("Joining room %s: %v", id, err)
	}

	history, err := s.api.History(ctx, id, s.HistoryLimit)
	if err != nil {
		logger.Error("Loading history for room %s: %v", id, err)
		return fmt.Errorf("load history: %w", err)
	}

	if !s.applyHistory(gen, history) {
		logger.Debug("Discarding stale history for room %s", id)
		return nil
	}
	s.notify()

	if err := s.api.MarkChatroomRead(ctx, id); err != nil {
		logger.Debug("Marking room %s read: %v", id, err)
	}
	return nil
}

// applyHistory installs history if gen is still current. Messages that
// arrived live while the request was in flight are kept.
func (s *Session) applyHistory(gen uint64, history []*models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}

	live := s.messages
	s.messages = make([]*models.Message, 0, len(history)+len(live))
	s.seen = make(map[string]bool, len(history)+len(live))
	for _, m := range history {
		s.appendLocked(m)
	}
	for _, m := range live {
		s.appendLocked(m)
	}
	sort.SliceStable(s.messages, func(i, j int) bool {
		return messageBefore(s.messages[i], s.messages[j])
	})
	return true
}

// messageBefore orders by creation time, then id, matching the server.
func messageBefore(a, b *models.Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// appendLocked adds m unless its id is already present.
func (s *Session) appendLocked(m *models.Message) bool {
	if m == nil || s.seen[m.ID] {
		return false
	}
	s.seen[m.ID] = true
	s.messages = append(s.messages, m)
	return true
}

func (s *Session) handleReceive(f realtime.Frame) {
	var msg models.Message
	if err := f.Bind(&msg); err != nil {
		logger.Error("Bad message frame: %v", err)
		return
	}
	if s.receive(&msg) {
		s.notify()
	}
}

// receive merges a pushed message; it reports whether state changed.
func (s *Session) receive(msg *models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touchRoomLocked(msg)
	if msg.ChatroomID != s.active {
		return false
	}
	return s.appendLocked(msg)
}

func (s *Session) touchRoomLocked(msg *models.Message) {
	for _, room := range s.rooms {
		if room.ID == msg.ChatroomID {
			at := msg.CreatedAt
			room.LastMessage = msg.Content
			room.LastMessageAt = &at
			return
		}
	}
}

// Send posts content to the active room. The server's copy is appended
// locally and relayed to the room's other sockets.
func (s *Session) Send(ctx context.Context, content string) (*models.Message, error) {
	s.mu.Lock()
	roomID := s.active
	s.mu.Unlock()
	if roomID == "" {
		return nil, ErrNoActiveRoom
	}

	msg, err := s.api.PostMessage(ctx, roomID, content)
	if err != nil {
		logger.Error("Sending message to room %s: %v", roomID, err)
		return nil, err
	}

	if s.receive(msg) {
		s.notify()
	}
	if err := s.emit(ctx, realtime.EventSendMessage, msg); err != nil {
		logger.Error("Relaying message %s: %v", msg.ID, err)
	}
	return msg, nil
}

// Rejoin re-subscribes to the active room; it runs after a reconnect.
func (s *Session) Rejoin() {
	s.mu.Lock()
	roomID := s.active
	s.mu.Unlock()
	if roomID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	if err := s.emit(ctx, realtime.EventJoinRoom, realtime.RoomRef{ChatroomID: roomID}); err != nil {
		logger.Error("Re-joining room %s: %v", roomID, err)
	}
}

// RefreshRooms replaces the room list with the server's. A list that comes
// back after a later refresh started is dropped.
func (s *Session) RefreshRooms(ctx context.Context) error {
	s.mu.Lock()
	s.roomsGen++
	gen := s.roomsGen
	s.mu.Unlock()

	rooms, err := s.api.Chatrooms(ctx)
	if err != nil {
		return fmt.Errorf("list chatrooms: %w", err)
	}
	s.mu.Lock()
	if gen != s.roomsGen {
		s.mu.Unlock()
		logger.Debug("Discarding stale chat list")
		return nil
	}
	s.rooms = rooms
	s.mu.Unlock()
	s.notify()
	return nil
}

// OpenPrivate selects the private room with friendID, creating it first if
// the two have never chatted.
func (s *Session) OpenPrivate(ctx context.Context, friendID string) (*models.Chatroom, error) {
	room, err := s.api.FindPrivateChatroom(ctx, friendID)
	if client.IsNotFound(err) {
		room, err = s.api.CreatePrivateChatroom(ctx, friendID)
		if err == nil {
			if refreshErr := s.RefreshRooms(ctx); refreshErr != nil {
				logger.Error("Refreshing chat list failed: %v", refreshErr)
			}
		}
	}
	if err != nil {
		return nil, err
	}
	if err := s.SelectRoom(ctx, room.ID); err != nil {
		return room, err
	}
	return room, nil
}

// DeleteRoom deletes a chat and announces it on the bus.
func (s *Session) DeleteRoom(ctx context.Context, id string) error {
	if err := s.api.DeleteChatroom(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	wasActive := s.active == id
	if wasActive {
		s.generation++
		s.active = ""
		s.messages = nil
		s.seen = make(map[string]bool)
	}
	s.mu.Unlock()
	if wasActive {
		if err := s.emit(ctx, realtime.EventLeaveRoom, realtime.RoomRef{ChatroomID: id}); err != nil {
			logger.Debug("Leaving room %s: %v", id, err)
		}
		s.notify()
	}

	s.bus.ChatDeleted.Publish(eventbus.ChatDeleted{ChatroomID: id})
	return nil
}

// AcceptFriend accepts a friend request and announces the new friend on the bus.
func (s *Session) AcceptFriend(ctx context.Context, requestID string) (*models.FriendRequest, error) {
	req, err := s.api.AcceptFriendRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	s.bus.FriendAdded.Publish(eventbus.FriendAdded{FriendID: req.SenderID})
	return req, nil
}

func (s *Session) ActiveRoom() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Messages returns a copy of the active room's messages, oldest first.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = *m
	}
	return out
}

func (s *Session) Rooms() []models.Chatroom {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Chatroom, len(s.rooms))
	for i, r := range s.rooms {
		out[i] = *r
	}
	return out
}
