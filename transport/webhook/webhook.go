// Package webhook pushes events to a configured HTTP endpoint, one POST per
// event. It is event-only; actions ride the plain HTTP transport.
package webhook

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	errspkg "github.com/botwire/botwire/internal/runtime/errors"
	"github.com/botwire/botwire/internal/runtime/logging"
	"github.com/botwire/botwire/transport"
)

const defaultTimeout = 10 * time.Second

func init() {
	transport.RegisterWithCapabilities(transport.KindWebhook, New, transport.WebhookCapabilities)
}

// Transport is one outbound webhook delivery loop.
type Transport struct {
	cfg    transport.Config
	rt     transport.Runtime
	log    logging.ServiceLogger
	client *http.Client
}

func New(cfg transport.Config, rt transport.Runtime) (transport.Transport, error) {
	if cfg.GetAddr() == "" {
		return nil, errspkg.ErrAddressRequired
	}
	timeout := cfg.GetTimeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Transport{
		cfg:    cfg,
		rt:     rt,
		log:    rt.Logger().With(logging.LogFields{"transport": transport.KindWebhook, "url": cfg.GetAddr()}),
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (t *Transport) Name() string { return transport.KindWebhook }

// Run delivers events until ctx is cancelled. A failed delivery ends the
// current session; after the reconnect interval a fresh session opens a new
// tap, dropping whatever the dead endpoint missed.
func (t *Transport) Run(ctx context.Context) {
	transport.ReconnectForever(ctx, t.cfg.GetReconnectInterval(),
		func(ctx context.Context) (transport.FrameStream, error) {
			return t.rt.EventFrames(), nil
		},
		t.session,
		t.log, t.rt.Metrics())
}

func (t *Transport) session(ctx context.Context, frames transport.FrameStream) {
	defer frames.Close()
	for {
		frame, ok := frames.Next(ctx)
		if !ok {
			return
		}
		if err := t.deliver(ctx, frame); err != nil {
			t.log.Debug("delivery failed", logging.LogFields{"error": err.Error()})
			return
		}
	}
}

func (t *Transport) deliver(ctx context.Context, frame []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.GetAddr(), bytes.NewReader(frame))
	if err != nil {
		return err
	}
	impl, platform, selfID := t.rt.Identity()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-OneBot-Version", transport.ProtocolVersion)
	req.Header.Set("X-Impl", impl)
	req.Header.Set("X-Platform", platform)
	req.Header.Set("X-Self-ID", selfID)
	if token := t.cfg.GetAccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	// The endpoint's body is irrelevant; drain it so the connection is
	// reusable.
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errspkg.ErrWebhookRejected
	}
	return nil
}
