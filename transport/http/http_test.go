package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errspkg "github.com/botwire/botwire/internal/runtime/errors"
	"github.com/botwire/botwire/internal/runtime/logging"
	"github.com/botwire/botwire/internal/runtime/metrics"
	"github.com/botwire/botwire/transport"
)

type fakeConfig struct {
	addr  string
	token string
}

func (c fakeConfig) GetAddr() string                     { return c.addr }
func (c fakeConfig) GetAccessToken() string              { return c.token }
func (c fakeConfig) GetTimeout() time.Duration           { return 0 }
func (c fakeConfig) GetReconnectInterval() time.Duration { return 0 }

type fakeRuntime struct {
	frames [][]byte
}

func (f *fakeRuntime) Identity() (string, string, string) { return "impl", "test", "bot-1" }
func (f *fakeRuntime) EventFrames() transport.FrameStream { return nil }
func (f *fakeRuntime) HandleFrame(ctx context.Context, payload []byte) ([]byte, error) {
	f.frames = append(f.frames, payload)
	return []byte(`{"status":"ok","retcode":0}`), nil
}
func (f *fakeRuntime) SetOnline(bool)                {}
func (f *fakeRuntime) IsShutdown() bool              { return false }
func (f *fakeRuntime) Logger() logging.ServiceLogger { return logging.Nop() }
func (f *fakeRuntime) Metrics() *metrics.Metrics     { return nil }

func startTransport(t *testing.T, cfg fakeConfig, rt transport.Runtime) (*Transport, context.CancelFunc) {
	t.Helper()
	tr, err := New(cfg, rt)
	require.NoError(t, err)
	ht := tr.(*Transport)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		ht.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Error("transport did not stop")
		}
	})

	require.Eventually(t, func() bool { return ht.Addr() != "" }, time.Second, 5*time.Millisecond)
	return ht, cancel
}

func TestNewRequiresAddress(t *testing.T) {
	_, err := New(fakeConfig{}, &fakeRuntime{})
	assert.ErrorIs(t, err, errspkg.ErrAddressRequired)
}

func TestActionRoundTrip(t *testing.T) {
	rt := &fakeRuntime{}
	ht, _ := startTransport(t, fakeConfig{addr: "127.0.0.1:0"}, rt)

	resp, err := http.Post("http://"+ht.Addr(), "application/json",
		bytes.NewReader([]byte(`{"action":"ping","params":{}}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, transport.ProtocolVersion, resp.Header.Get("X-OneBot-Version"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","retcode":0}`, string(body))

	require.Len(t, rt.frames, 1)
	assert.JSONEq(t, `{"action":"ping","params":{}}`, string(rt.frames[0]))
}

func TestRejectsNonPost(t *testing.T) {
	ht, _ := startTransport(t, fakeConfig{addr: "127.0.0.1:0"}, &fakeRuntime{})

	resp, err := http.Get("http://" + ht.Addr())
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestAccessToken(t *testing.T) {
	rt := &fakeRuntime{}
	ht, _ := startTransport(t, fakeConfig{addr: "127.0.0.1:0", token: "secret"}, rt)

	t.Run("missing token", func(t *testing.T) {
		resp, err := http.Post("http://"+ht.Addr(), "application/json", bytes.NewReader([]byte(`{}`)))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("bearer header", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, "http://"+ht.Addr(), bytes.NewReader([]byte(`{}`)))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer secret")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("query parameter", func(t *testing.T) {
		resp, err := http.Post("http://"+ht.Addr()+"/?access_token=secret", "application/json",
			bytes.NewReader([]byte(`{}`)))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("wrong token", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, "http://"+ht.Addr(), bytes.NewReader([]byte(`{}`)))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer nope")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestRegisteredInDefaultRegistry(t *testing.T) {
	assert.True(t, transport.DefaultRegistry.Has(transport.KindHTTP))
	assert.True(t, transport.GetCapabilities(transport.KindHTTP).HandlesActions)
}
