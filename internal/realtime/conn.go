package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"vibely/pkg/logger"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	maxMessage = 64 << 10
)

var (
	ErrClosed       = errors.New("realtime: connection closed")
	ErrNotConnected = errors.New("realtime: not connected")
	// ErrUnauthorized marks a handshake the server refused with 401 or 403.
	ErrUnauthorized = errors.New("realtime: unauthorized")
)

// Handler receives frames on the connection's read goroutine.
type Handler func(Frame)

type Options struct {
	// URL is the websocket endpoint, e.g. ws://localhost:5000/ws.
	URL string
	// Token is read on every dial so a fresh login is picked up on reconnect.
	Token  func() string
	Dialer *websocket.Dialer
	// Backoff paces reconnect attempts. Defaults to an exponential backoff
	// starting at 500ms and capped at 30s.
	Backoff func() backoff.BackOff
	// MaxElapsedTime bounds a single reconnect. Zero keeps re-dialing until
	// Close or until the server refuses the token.
	MaxElapsedTime time.Duration
	// OnReconnect runs after every successful re-dial.
	OnReconnect func()
}

// Conn is a long-lived websocket client that re-dials with exponential
// backoff whenever the connection drops.
type Conn struct {
	opts Options

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.RWMutex
	ws       *websocket.Conn
	handlers map[string][]Handler

	writeMu sync.Mutex
}

// Dial connects to the server and starts the read loop. The first dial is
// not retried; later drops are.
func Dial(ctx context.Context, opts Options) (*Conn, error) {
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.Token == nil {
		opts.Token = func() string { return "" }
	}
	if opts.Backoff == nil {
		opts.Backoff = defaultBackoff
	}

	c := &Conn{
		opts:     opts,
		done:     make(chan struct{}),
		handlers: make(map[string][]Handler),
	}
	ws, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	c.ws = ws
	c.ctx, c.cancel = context.WithCancel(context.Background())

	go c.run(ws)
	return c, nil
}

func defaultBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	return b
}

func (c *Conn) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse realtime url: %w", err)
	}
	q := u.Query()
	q.Set("token", c.opts.Token())
	u.RawQuery = q.Encode()

	ws, resp, err := c.opts.Dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return nil, fmt.Errorf("dial realtime: %s: %w: %w", resp.Status, ErrUnauthorized, err)
			}
			return nil, fmt.Errorf("dial realtime: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("dial realtime: %w", err)
	}

	ws.SetReadLimit(maxMessage)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPingHandler(func(appData string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		err := ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})
	return ws, nil
}

// On registers a handler for event. Handlers run in registration order.
func (c *Conn) On(event string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], h)
}

// Emit sends one frame. It fails with ErrNotConnected while a reconnect is in progress.
func (c *Conn) Emit(ctx context.Context, event string, data any) error {
	payload, err := Encode(event, data)
	if err != nil {
		return err
	}

	c.mu.RLock()
	ws := c.ws
	c.mu.RUnlock()
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	if ws == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	ws.SetWriteDeadline(deadline)
	if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("emit %s: %w", event, err)
	}
	return nil
}

// Close stops reconnecting and closes the socket.
func (c *Conn) Close() error {
	c.cancel()

	c.mu.Lock()
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()

	var err error
	if ws != nil {
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		err = ws.Close()
	}
	<-c.done
	return err
}

func (c *Conn) run(ws *websocket.Conn) {
	defer close(c.done)

	for {
		c.readLoop(ws)
		if c.ctx.Err() != nil {
			return
		}

		c.mu.Lock()
		c.ws = nil
		c.mu.Unlock()
		ws.Close()

		next, err := c.reconnect()
		if err != nil {
			if c.ctx.Err() == nil {
				logger.Error("Realtime reconnect gave up: %v", err)
			}
			return
		}

		c.mu.Lock()
		if c.ctx.Err() != nil {
			c.mu.Unlock()
			next.Close()
			return
		}
		c.ws = next
		c.mu.Unlock()
		ws = next

		logger.Info("Realtime connection re-established")
		if c.opts.OnReconnect != nil {
			c.opts.OnReconnect()
		}
	}
}

func (c *Conn) reconnect() (*websocket.Conn, error) {
	return backoff.Retry(c.ctx, func() (*websocket.Conn, error) {
		ws, err := c.dial(c.ctx)
		if errors.Is(err, ErrUnauthorized) {
			return nil, backoff.Permanent(err)
		}
		return ws, err
	},
		backoff.WithBackOff(c.opts.Backoff()),
		backoff.WithMaxElapsedTime(c.opts.MaxElapsedTime),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Debug("Realtime dial failed, retrying in %s: %v", wait, err)
		}),
	)
}

func (c *Conn) readLoop(ws *websocket.Conn) {
	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Error("Realtime read error: %v", err)
			}
			return
		}

		frame, err := Decode(message)
		if err != nil {
			logger.Error("Realtime: %v", err)
			continue
		}

		c.mu.RLock()
		handlers := append([]Handler(nil), c.handlers[frame.Event]...)
		c.mu.RUnlock()
		for _, h := range handlers {
			h(frame)
		}
	}
}
