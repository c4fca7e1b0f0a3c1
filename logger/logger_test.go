package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"babumoshai/utils"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARNING"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestNewForEnvironment(t *testing.T) {
	log := NewForEnvironment("production", "debug", "console")
	assert.NotNil(t, log)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var seenID string
	h := AccessLog(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = utils.GetRequestID(r.Context())
		w.WriteHeader(http.StatusNotFound)
	}))

	t.Run("generates a request id and logs status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/x", nil))

		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		assert.Equal(t, rec.Header().Get("X-Request-ID"), seenID)

		entries := logs.TakeAll()
		if assert.Len(t, entries, 1) {
			assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
			assert.Equal(t, int64(http.StatusNotFound), entries[0].ContextMap()["status"])
		}
	})

	t.Run("keeps an incoming request id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		h.ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
		assert.Equal(t, "abc-123", seenID)
	})
}
