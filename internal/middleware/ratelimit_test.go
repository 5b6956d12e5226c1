package middleware_test

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"mime/multipart"
	"net/url"
	"testing"
	"time"

	"github.com/aruj94/deviceAPI/internal/middleware"
	"github.com/aruj94/deviceAPI/internal/ratelimit"
	"github.com/aruj94/deviceAPI/internal/store"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const (
	testRemoteAddr = "192.168.1.1:12345"
	testUserAgent  = "TestAgent/1.0"
)

var errMultipartNotSupported = errors.New("multipart not supported in mock")

func newTestAPI() huma.API {
	return humachi.New(chi.NewMux(), huma.DefaultConfig("Test", "1.0.0"))
}

type mockLimiter struct {
	allowed bool
	err     error
}

func (m *mockLimiter) Allow(_ context.Context, _ string) (bool, error) {
	return m.allowed, m.err
}

// mockHumaContext implements huma.Context for testing.
type mockHumaContext struct {
	headers    map[string]string
	host       string
	remoteAddr string
	written    []byte
	statusCode int
	method     string
	operation  *huma.Operation
}

func newMockHumaContext() *mockHumaContext {
	return &mockHumaContext{
		headers:    make(map[string]string),
		method:     "GET",
		remoteAddr: testRemoteAddr,
	}
}

func (m *mockHumaContext) Operation() *huma.Operation {
	return m.operation
}
func (m *mockHumaContext) Context() context.Context              { return context.Background() }
func (m *mockHumaContext) TLS() *tls.ConnectionState             { return nil }
func (m *mockHumaContext) Version() huma.ProtoVersion            { return huma.ProtoVersion{} }
func (m *mockHumaContext) Method() string                        { return m.method }
func (m *mockHumaContext) Host() string                          { return m.host }
func (m *mockHumaContext) RemoteAddr() string                    { return m.remoteAddr }
func (m *mockHumaContext) URL() url.URL                          { return url.URL{} }
func (m *mockHumaContext) Param(_ string) string                 { return "" }
func (m *mockHumaContext) Query(_ string) string                 { return "" }
func (m *mockHumaContext) Header(name string) string             { return m.headers[name] }
func (m *mockHumaContext) EachHeader(_ func(name, value string)) {}
func (m *mockHumaContext) BodyReader() io.Reader                 { return nil }
func (m *mockHumaContext) GetMultipartForm() (*multipart.Form, error) {
	return nil, errMultipartNotSupported
}
func (m *mockHumaContext) SetReadDeadline(_ time.Time) error { return nil }
func (m *mockHumaContext) SetStatus(code int)                { m.statusCode = code }
func (m *mockHumaContext) Status() int                       { return m.statusCode }
func (m *mockHumaContext) AppendHeader(_, _ string)          {}
func (m *mockHumaContext) SetHeader(_, _ string)             {}
func (m *mockHumaContext) BodyWriter() io.Writer             { return &mockBodyWriter{ctx: m} }

type mockBodyWriter struct {
	ctx *mockHumaContext
}

func (w *mockBodyWriter) Write(p []byte) (n int, err error) {
	w.ctx.written = append(w.ctx.written, p...)

	return len(p), nil
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows request when limiter allows", func(t *testing.T) {
		api := newTestAPI()
		mw := middleware.RateLimiter(api, &mockLimiter{allowed: true}, zap.NewNop())

		ctx := newMockHumaContext()
		nextCalled := false

		mw(ctx, func(_ huma.Context) {
			nextCalled = true
		})

		assert.True(t, nextCalled, "next should be called when allowed")
	})

	t.Run("returns 429 when rate limited", func(t *testing.T) {
		api := newTestAPI()
		mw := middleware.RateLimiter(api, &mockLimiter{allowed: false}, zap.NewNop())

		ctx := newMockHumaContext()
		nextCalled := false

		mw(ctx, func(_ huma.Context) {
			nextCalled = true
		})

		assert.False(t, nextCalled, "next should not be called when rate limited")
		assert.Equal(t, 429, ctx.statusCode)
		assert.Contains(t, string(ctx.written), "rate limit")
	})

	t.Run("returns 500 when the limiter fails", func(t *testing.T) {
		api := newTestAPI()
		mw := middleware.RateLimiter(api, &mockLimiter{err: errors.New("limiter error")}, zap.NewNop())

		ctx := newMockHumaContext()
		nextCalled := false

		mw(ctx, func(_ huma.Context) {
			nextCalled = true
		})

		assert.False(t, nextCalled, "next should not be called when limiter errors")
		assert.Equal(t, 500, ctx.statusCode)
	})

	t.Run("skips disabled endpoints", func(t *testing.T) {
		api := newTestAPI()
		limiter := &capturingLimiter{allowed: false}
		mw := middleware.RateLimiter(api, limiter, zap.NewNop())

		ctx := newMockHumaContext()
		ctx.operation = &huma.Operation{
			Path: "/health",
			Metadata: map[string]any{
				ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true},
			},
		}
		nextCalled := false

		mw(ctx, func(_ huma.Context) {
			nextCalled = true
		})

		assert.True(t, nextCalled)
		assert.Empty(t, limiter.keys, "disabled endpoints must not consume tokens")
	})
}

func TestRateLimiter_ClientKey(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		wantKey    string
	}{
		{
			name:       "remote address without port",
			remoteAddr: "192.168.1.1:12345",
			wantKey:    "192.168.1.1",
		},
		{
			name:       "remote address that cannot be split is used as is",
			remoteAddr: "192.168.1.1",
			wantKey:    "192.168.1.1",
		},
		{
			name:       "first X-Forwarded-For entry wins",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.195, 70.41.3.18, 150.172.238.178"},
			remoteAddr: "10.0.0.1:12345",
			wantKey:    "203.0.113.195",
		},
		{
			name:       "X-Real-IP when no X-Forwarded-For",
			headers:    map[string]string{"X-Real-IP": "203.0.113.100"},
			remoteAddr: "10.0.0.1:12345",
			wantKey:    "203.0.113.100",
		},
		{
			name:       "user agent does not split buckets",
			headers:    map[string]string{"User-Agent": testUserAgent},
			remoteAddr: "192.168.1.1:9999",
			wantKey:    "192.168.1.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := &capturingLimiter{allowed: true}
			mw := middleware.RateLimiter(newTestAPI(), limiter, zap.NewNop())

			ctx := newMockHumaContext()
			ctx.remoteAddr = tt.remoteAddr

			for k, v := range tt.headers {
				ctx.headers[k] = v
			}

			mw(ctx, func(_ huma.Context) {})

			assert.Equal(t, []string{tt.wantKey}, limiter.keys)
		})
	}
}

func TestRateLimiter_TokenBucket(t *testing.T) {
	api := newTestAPI()
	clock := clockwork.NewFakeClock()
	limiter := ratelimit.NewTokenBucketLimiter(store.NewRateLimitMemoryStore(clock), 100, time.Minute)
	mw := middleware.RateLimiter(api, limiter, zap.NewNop())

	admitted := 0

	for range 101 {
		ctx := newMockHumaContext()
		mw(ctx, func(_ huma.Context) { admitted++ })
	}

	assert.Equal(t, 100, admitted, "the 101st request in the window is rejected")

	clock.Advance(time.Minute)

	ctx := newMockHumaContext()
	mw(ctx, func(_ huma.Context) { admitted++ })

	assert.Equal(t, 101, admitted, "a new window starts at full capacity")
}

type capturingLimiter struct {
	allowed bool
	keys    []string
}

func (c *capturingLimiter) Allow(_ context.Context, key string) (bool, error) {
	c.keys = append(c.keys, key)

	return c.allowed, nil
}
