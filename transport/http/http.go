// Package http serves the action-only HTTP transport: peers POST one action
// per request and receive the response in the body. Events are not carried;
// pair it with the webhook transport for event push.
package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	errspkg "github.com/botwire/botwire/internal/runtime/errors"
	"github.com/botwire/botwire/internal/runtime/logging"
	"github.com/botwire/botwire/transport"
)

const defaultTimeout = 10 * time.Second

func init() {
	transport.RegisterWithCapabilities(transport.KindHTTP, New, transport.HTTPCapabilities)
}

// Transport is one bound HTTP listener.
type Transport struct {
	cfg transport.Config
	rt  transport.Runtime
	log logging.ServiceLogger

	mu   sync.Mutex
	addr string
}

// New builds the transport; the listener binds in Run.
func New(cfg transport.Config, rt transport.Runtime) (transport.Transport, error) {
	if cfg.GetAddr() == "" {
		return nil, errspkg.ErrAddressRequired
	}
	return &Transport{
		cfg: cfg,
		rt:  rt,
		log: rt.Logger().With(logging.LogFields{"transport": transport.KindHTTP}),
	}, nil
}

func (t *Transport) Name() string { return transport.KindHTTP }

// Addr reports the bound address once Run has opened the listener, which
// matters when the configured port is 0.
func (t *Transport) Addr() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.addr
}

// Run binds the listener and serves until ctx is cancelled.
func (t *Transport) Run(ctx context.Context) {
	ln, err := net.Listen("tcp", t.cfg.GetAddr())
	if err != nil {
		t.log.Error("listen failed", err, logging.LogFields{"addr": t.cfg.GetAddr()})
		return
	}
	t.mu.Lock()
	t.addr = ln.Addr().String()
	t.mu.Unlock()

	timeout := t.cfg.GetTimeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	srv := &http.Server{
		Handler:           t.handler(),
		ReadHeaderTimeout: timeout,
		WriteTimeout:      timeout,
	}

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

func (t *Transport) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !authorized(r, t.cfg.GetAccessToken()) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		out, err := t.rt.HandleFrame(r.Context(), payload)
		if err != nil {
			t.log.Error("action handling failed", err, nil)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-OneBot-Version", transport.ProtocolVersion)
		_, _ = w.Write(out)
	})
}

// authorized accepts the token in the Authorization header or the
// access_token query parameter. An empty configured token disables the
// check.
func authorized(r *http.Request, token string) bool {
	if token == "" {
		return true
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		return strings.TrimPrefix(auth, "Bearer ") == token
	}
	return r.URL.Query().Get("access_token") == token
}
