// Package config holds the transport descriptors consumed by the
// implementation-side runtime. Configurations are immutable snapshots taken
// at construction; there is no hot reload.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DefaultHeartbeatInterval is the floor applied when a heartbeat interval is
// configured as zero or negative.
const DefaultHeartbeatInterval = 4 * time.Second

// DefaultReconnectInterval is used when a client transport does not set one.
const DefaultReconnectInterval = 4 * time.Second

// HTTPConfig describes one HTTP action endpoint to bind.
type HTTPConfig struct {
	// Addr is the listen address, for example "127.0.0.1:6700".
	Addr string
	// AccessToken, when non-empty, must be presented by peers as a Bearer
	// token.
	AccessToken string
	// Timeout bounds a single action call. Zero means no timeout.
	Timeout time.Duration
}

// WebhookConfig describes one outbound HTTP event push target.
type WebhookConfig struct {
	// URL receives a POST per event envelope.
	URL string
	// AccessToken is sent as a Bearer token when non-empty.
	AccessToken string
	// Timeout bounds a single delivery. Zero falls back to 10s.
	Timeout time.Duration
	// ReconnectInterval is the fixed sleep between delivery-loop restarts.
	ReconnectInterval time.Duration
}

// WebSocketConfig describes one websocket listener.
type WebSocketConfig struct {
	// Addr is the listen address, for example "127.0.0.1:6701".
	Addr        string
	AccessToken string
}

// WebSocketRevConfig describes one outbound ("reverse") websocket connection.
type WebSocketRevConfig struct {
	// URL is the peer address, for example "ws://host:port/onebot/v12/ws".
	URL         string
	AccessToken string
	// ReconnectInterval is the fixed sleep between connection attempts.
	ReconnectInterval time.Duration
}

// HeartbeatConfig controls the periodic heartbeat meta event.
type HeartbeatConfig struct {
	Enabled bool
	// Interval is clamped to DefaultHeartbeatInterval when <= 0.
	Interval time.Duration
}

// ImplConfig is the full transport configuration of one implementation-side
// runtime instance.
type ImplConfig struct {
	HTTP         []HTTPConfig
	HTTPWebhook  []WebhookConfig
	WebSocket    []WebSocketConfig
	WebSocketRev []WebSocketRevConfig
	Heartbeat    HeartbeatConfig

	// MetricsAddr, when non-empty, serves Prometheus metrics on
	// MetricsAddr/metrics.
	MetricsAddr string
}

// Getter methods implementing the transport-facing Config interface.

func (c *HTTPConfig) GetAddr() string                     { return c.Addr }
func (c *HTTPConfig) GetAccessToken() string              { return c.AccessToken }
func (c *HTTPConfig) GetTimeout() time.Duration           { return c.Timeout }
func (c *HTTPConfig) GetReconnectInterval() time.Duration { return 0 }

func (c *WebhookConfig) GetAddr() string                     { return c.URL }
func (c *WebhookConfig) GetAccessToken() string              { return c.AccessToken }
func (c *WebhookConfig) GetTimeout() time.Duration           { return c.Timeout }
func (c *WebhookConfig) GetReconnectInterval() time.Duration { return orDefault(c.ReconnectInterval) }

func (c *WebSocketConfig) GetAddr() string                     { return c.Addr }
func (c *WebSocketConfig) GetAccessToken() string              { return c.AccessToken }
func (c *WebSocketConfig) GetTimeout() time.Duration           { return 0 }
func (c *WebSocketConfig) GetReconnectInterval() time.Duration { return 0 }

func (c *WebSocketRevConfig) GetAddr() string           { return c.URL }
func (c *WebSocketRevConfig) GetAccessToken() string    { return c.AccessToken }
func (c *WebSocketRevConfig) GetTimeout() time.Duration { return 0 }
func (c *WebSocketRevConfig) GetReconnectInterval() time.Duration {
	return orDefault(c.ReconnectInterval)
}

func orDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultReconnectInterval
	}
	return d
}

// Validate checks every configured transport descriptor and returns the
// joined findings.
func (c *ImplConfig) Validate() error {
	var errs []error

	for i, h := range c.HTTP {
		if strings.TrimSpace(h.Addr) == "" {
			errs = append(errs, fmt.Errorf("http[%d]: bind address is required", i))
		}
	}
	for i, w := range c.HTTPWebhook {
		errs = append(errs, validateURL("http_webhook", i, w.URL, "http", "https")...)
	}
	for i, ws := range c.WebSocket {
		if strings.TrimSpace(ws.Addr) == "" {
			errs = append(errs, fmt.Errorf("websocket[%d]: bind address is required", i))
		}
	}
	for i, ws := range c.WebSocketRev {
		errs = append(errs, validateURL("websocket_rev", i, ws.URL, "ws", "wss")...)
	}

	return errors.Join(errs...)
}

func validateURL(kind string, index int, raw string, schemes ...string) []error {
	if strings.TrimSpace(raw) == "" {
		return []error{fmt.Errorf("%s[%d]: url is required", kind, index)}
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return []error{fmt.Errorf("%s[%d]: invalid url: %w", kind, index, err)}
	}
	for _, scheme := range schemes {
		if parsed.Scheme == scheme {
			return nil
		}
	}
	return []error{fmt.Errorf("%s[%d]: scheme %q not allowed (want one of %v)", kind, index, parsed.Scheme, schemes)}
}
