// Package websocket serves the duplex WebSocket transport: connected peers
// receive every event and may send actions on the same connection.
package websocket

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	errspkg "github.com/botwire/botwire/internal/runtime/errors"
	"github.com/botwire/botwire/internal/runtime/logging"
	"github.com/botwire/botwire/transport"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBuffer     = 64
)

func init() {
	transport.RegisterWithCapabilities(transport.KindWebSocket, New, transport.WebSocketCapabilities)
}

// Transport is one bound WebSocket listener fanning events out to every
// connected peer.
type Transport struct {
	cfg      transport.Config
	rt       transport.Runtime
	log      logging.ServiceLogger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	addr  string
	conns int
}

func New(cfg transport.Config, rt transport.Runtime) (transport.Transport, error) {
	if cfg.GetAddr() == "" {
		return nil, errspkg.ErrAddressRequired
	}
	return &Transport{
		cfg: cfg,
		rt:  rt,
		log: rt.Logger().With(logging.LogFields{"transport": transport.KindWebSocket}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}, nil
}

func (t *Transport) Name() string { return transport.KindWebSocket }

// Addr reports the bound address once Run has opened the listener.
func (t *Transport) Addr() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.addr
}

// Run binds the listener and serves until ctx is cancelled. Peer
// connections are torn down through their per-connection contexts, which
// derive from ctx.
func (t *Transport) Run(ctx context.Context) {
	ln, err := net.Listen("tcp", t.cfg.GetAddr())
	if err != nil {
		t.log.Error("listen failed", err, logging.LogFields{"addr": t.cfg.GetAddr()})
		return
	}
	t.mu.Lock()
	t.addr = ln.Addr().String()
	t.mu.Unlock()

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.serveConn(ctx, w, r)
	})}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	t.log.Info("listening", logging.LogFields{"addr": t.addr})
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		t.log.Error("serve failed", err, nil)
	}
}

func (t *Transport) serveConn(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if !authorized(r, t.cfg.GetAccessToken()) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	c, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.log.Debug("upgrade failed", logging.LogFields{"error": err.Error()})
		return
	}

	t.track(1)
	t.rt.Metrics().WSConnected()
	t.log.Info("peer connected", logging.LogFields{"peer": c.RemoteAddr().String()})
	defer func() {
		t.track(-1)
		t.rt.Metrics().WSDisconnected()
		t.log.Info("peer disconnected", logging.LogFields{"peer": c.RemoteAddr().String()})
	}()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn := &connection{
		ws:   c,
		rt:   t.rt,
		log:  t.log,
		send: make(chan []byte, sendBuffer),
	}
	go conn.pumpEvents(connCtx)
	go conn.writePump(connCtx, cancel)
	conn.readPump(connCtx)
}

// track updates the connection count; online follows "at least one peer".
func (t *Transport) track(delta int) {
	t.mu.Lock()
	t.conns += delta
	online := t.conns > 0
	t.mu.Unlock()
	t.rt.SetOnline(online)
}

type connection struct {
	ws   *websocket.Conn
	rt   transport.Runtime
	log  logging.ServiceLogger
	send chan []byte
}

// pumpEvents moves broadcast frames onto this connection's send queue.
func (c *connection) pumpEvents(ctx context.Context) {
	frames := c.rt.EventFrames()
	defer frames.Close()
	for {
		frame, ok := frames.Next(ctx)
		if !ok {
			return
		}
		select {
		case c.send <- frame:
		case <-ctx.Done():
			return
		}
	}
}

// readPump consumes action frames until the peer goes away. It blocks the
// serving goroutine; the deferred cancel in serveConn stops the other pumps.
func (c *connection) readPump(ctx context.Context) {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("read failed", logging.LogFields{"error": err.Error()})
			}
			return
		}
		out, err := c.rt.HandleFrame(ctx, payload)
		if err != nil {
			c.log.Error("action handling failed", err, nil)
			continue
		}
		select {
		case c.send <- out:
		case <-ctx.Done():
			return
		}
	}
}

// writePump owns all writes on the socket: queued frames, pings, and the
// final close message. It cancels the connection context on exit so pumps
// blocked on a full send queue do not outlive the writer.
func (c *connection) writePump(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.ws.Close()
	defer cancel()

	for {
		select {
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutting down"))
			return
		}
	}
}

func authorized(r *http.Request, token string) bool {
	if token == "" {
		return true
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		return strings.TrimPrefix(auth, "Bearer ") == token
	}
	return r.URL.Query().Get("access_token") == token
}
