package main

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/md-rashed-zaman/boardhub/libs/runtime"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoadSettingsDefaults(t *testing.T) {
	for _, key := range []string{"SERVICE_NAME", "PORT", "DATABASE_URL", "OUTBOX_POLL_INTERVAL", "OUTBOX_BATCH_SIZE", "RATE_LIMIT_PER_MINUTE", "HTTP_BODY_LIMIT_BYTES", "HTTP_REQUEST_TIMEOUT", "ACCOUNT_BCRYPT_COST"} {
		t.Setenv(key, "")
	}
	cfg, err := loadSettings()
	require.NoError(t, err)
	assert.Equal(t, "board-service", cfg.service)
	assert.Equal(t, "8080", cfg.port)
	assert.Empty(t, cfg.databaseURL)
	assert.Equal(t, 2*time.Second, cfg.pollEvery)
	assert.Equal(t, 50, cfg.batchSize)
	assert.Equal(t, 120, cfg.ratePerMin)
	assert.Equal(t, 1<<20, cfg.bodyLimit)
	assert.Equal(t, 15*time.Second, cfg.reqTimeout)
	assert.Equal(t, bcrypt.DefaultCost, cfg.bcryptCost)
}

func TestLoadSettingsRejectsBadValues(t *testing.T) {
	t.Setenv("OUTBOX_POLL_INTERVAL", "soon")
	_, err := loadSettings()
	assert.Error(t, err)
}

func newTestHandler(t *testing.T, rdb *redis.Client) http.Handler {
	t.Helper()
	cfg := settings{service: "board-test", ratePerMin: 1, bodyLimit: 16, reqTimeout: time.Second}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /echo", func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		if _, err := r.Body.Read(buf); err != nil && !errors.Is(err, io.EOF) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return buildHandler(mux, cfg, rdb, runtime.DiscardLogger())
}

func TestBuildHandlerRateLimits(t *testing.T) {
	h := newTestHandler(t, nil)

	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("ok")))
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.NotEmpty(t, rw.Header().Get("X-Request-Id"))

	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("ok")))
	assert.Equal(t, http.StatusTooManyRequests, rw.Code)
}

func TestBuildHandlerUsesRedisWhenConfigured(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	h := newTestHandler(t, rdb)

	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("ok")))
	assert.Equal(t, http.StatusOK, rw.Code)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "board-test:ratelimit:"))
}

func TestBuildHandlerLimitsBody(t *testing.T) {
	h := newTestHandler(t, nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rw.Code)
}
