package websocket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vibely/internal/models"
	"vibely/internal/realtime"
	"vibely/pkg/logger"

	"github.com/aidarkhanov/nanoid/v2"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 64 << 10
	sendBuffer     = 256
	authTimeout    = 5 * time.Second

	connIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	connIDLength   = 12
)

// RoomAuthorizer decides whether a user may subscribe to a chatroom and
// looks up the stored messages a user relays.
type RoomAuthorizer interface {
	JoinRoom(ctx context.Context, userID, roomID string) error
	SentMessage(ctx context.Context, userID, messageID string) (*models.Message, error)
}

// Client is one websocket connection. It may be subscribed to many rooms.
type Client struct {
	id      string
	userID  string
	conn    *websocket.Conn
	manager *Manager
	auth    RoomAuthorizer
	send    chan []byte
	// rooms is only touched by ReadPump.
	rooms     map[string]bool
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(manager *Manager, auth RoomAuthorizer, conn *websocket.Conn, userID string) (*Client, error) {
	id, err := nanoid.GenerateString(connIDAlphabet, connIDLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate connection ID: %w", err)
	}

	return &Client{
		id:      id,
		userID:  userID,
		conn:    conn,
		manager: manager,
		auth:    auth,
		send:    make(chan []byte, sendBuffer),
		rooms:   make(map[string]bool),
		done:    make(chan struct{}),
	}, nil
}

func (c *Client) ID() string { return c.id }

// enqueue queues a frame without blocking; false means the buffer is full.
func (c *Client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close hangs up the connection. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *Client) ReadPump() {
	defer func() {
		for roomID := range c.rooms {
			c.manager.Leave(c, roomID)
		}
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logger.Error("WebSocket error: %v", err)
			}
			return
		}

		frame, err := realtime.Decode(message)
		if err != nil {
			c.sendError(err.Error())
			continue
		}
		c.handle(frame)
	}
}

func (c *Client) handle(frame realtime.Frame) {
	switch frame.Event {
	case realtime.EventJoinRoom:
		var ref realtime.RoomRef
		if err := frame.Bind(&ref); err != nil || ref.ChatroomID == "" {
			c.sendError("joinRoom requires chatroomId")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
		err := c.auth.JoinRoom(ctx, c.userID, ref.ChatroomID)
		cancel()
		if err != nil {
			logger.Debug("User %s denied room %s: %v", c.userID, ref.ChatroomID, err)
			c.sendError(fmt.Sprintf("cannot join room %s", ref.ChatroomID))
			return
		}
		c.rooms[ref.ChatroomID] = true
		c.manager.Join(c, ref.ChatroomID)

	case realtime.EventLeaveRoom:
		var ref realtime.RoomRef
		if err := frame.Bind(&ref); err != nil || ref.ChatroomID == "" {
			c.sendError("leaveRoom requires chatroomId")
			return
		}
		if c.rooms[ref.ChatroomID] {
			delete(c.rooms, ref.ChatroomID)
			c.manager.Leave(c, ref.ChatroomID)
		}

	case realtime.EventSendMessage:
		var msg models.Message
		if err := frame.Bind(&msg); err != nil || msg.ID == "" {
			c.sendError("sendMessage requires a stored message id")
			return
		}
		if !c.rooms[msg.ChatroomID] {
			c.sendError("join the room before sending to it")
			return
		}
		if msg.Sender.ID != c.userID {
			c.sendError("message sender does not match the connection")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		// Only the stored copy is relayed.
		stored, err := c.auth.SentMessage(ctx, c.userID, msg.ID)
		if err != nil {
			logger.Debug("Rejected relay of message %s from %s: %v", msg.ID, c.userID, err)
			c.sendError(fmt.Sprintf("message %s is not one of your stored messages", msg.ID))
			return
		}
		if stored.ChatroomID != msg.ChatroomID {
			c.sendError("message belongs to another room")
			return
		}
		data, err := realtime.Encode(realtime.EventReceiveMessage, stored)
		if err != nil {
			logger.Error("Error encoding message: %v", err)
			return
		}
		if err := c.manager.Publish(ctx, stored.ChatroomID, c.id, data); err != nil {
			logger.Error("Error publishing message: %v", err)
			c.sendError("message could not be relayed")
		}

	default:
		c.sendError(fmt.Sprintf("unknown event %q", frame.Event))
	}
}

func (c *Client) sendError(message string) {
	data, err := realtime.Encode(realtime.EventError, realtime.ErrorPayload{Message: message})
	if err != nil {
		logger.Error("Error encoding error frame: %v", err)
		return
	}
	c.enqueue(data)
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Error("Write error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
