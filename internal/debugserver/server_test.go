package debugserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "jumbotron/pkg/logx"
)

func get(t *testing.T, h http.Handler, target string, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if len(hdr) == 2 {
		req.Header.Set(hdr[0], hdr[1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthzFollowsLiveness(t *testing.T) {
	alive := true
	s := New(Config{}, logx.Nop(), nil, func() bool { return alive })

	rec := get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	alive = false
	assert.Equal(t, http.StatusServiceUnavailable, get(t, s.Handler(), "/healthz").Code)
}

func TestStatusEncodesJSON(t *testing.T) {
	s := New(Config{}, logx.Nop(), func(context.Context) (any, error) {
		return map[string]any{"focus": "red", "ticks": 3}, nil
	}, nil)

	rec := get(t, s.Handler(), "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"focus":"red","ticks":3}`, rec.Body.String())
}

func TestStatusError(t *testing.T) {
	s := New(Config{}, logx.Nop(), func(context.Context) (any, error) {
		return nil, errors.New("loop stopped")
	}, nil)
	rec := get(t, s.Handler(), "/status")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "loop stopped")
}

func TestTokenAuth(t *testing.T) {
	s := New(Config{Token: "s3cret"}, logx.Nop(), nil, nil)
	h := s.Handler()

	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/healthz").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/healthz?token=nope").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/healthz?token=s3cret").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/healthz", "Authorization", "Bearer s3cret").Code)
}

func TestPprofIndexIsMounted(t *testing.T) {
	s := New(Config{}, logx.Nop(), nil, nil)
	rec := get(t, s.Handler(), "/debug/pprof/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "goroutine")
}

func TestCheckRefusesPublicBindWithoutToken(t *testing.T) {
	tests := []struct {
		cfg     Config
		wantErr bool
	}{
		{cfg: Config{}},
		{cfg: Config{Addr: "localhost:6060"}},
		{cfg: Config{Addr: "[::1]:6060"}},
		{cfg: Config{Addr: ":6060"}, wantErr: true},
		{cfg: Config{Addr: "0.0.0.0:6060"}, wantErr: true},
		{cfg: Config{Addr: "0.0.0.0:6060", Token: "t"}},
		{cfg: Config{Addr: "0.0.0.0:6060", AllowInsecure: true}},
	}
	for _, tt := range tests {
		err := New(tt.cfg, logx.Nop(), nil, nil).Check()
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInsecureBind, tt.cfg.Addr)
		} else {
			assert.NoError(t, err, tt.cfg.Addr)
		}
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"}, logx.Nop(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}
