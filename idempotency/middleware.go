// Package idempotency makes retried mutating requests safe. A request carrying an
// Idempotency-Key runs at most once per user and key; repeats get the recorded response.
package idempotency

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"babumoshai/models"
	"babumoshai/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const (
	Header       = "Idempotency-Key"
	ReplayHeader = "Idempotent-Replayed"
	maxKeyLen    = 255
	maxBodyBytes = 1 << 20
	DefaultTTL   = 24 * time.Hour
)

type Middleware struct {
	store Store
	ttl   time.Duration
	log   *zap.Logger
}

func New(store Store, ttl time.Duration, log *zap.Logger) *Middleware {
	return &Middleware{store: store, ttl: ttl, log: log}
}

func requestHash(r *http.Request, body []byte, userID string) string {
	h := sha256.New()
	h.Write([]byte(r.Method + ":" + r.URL.Path + ":" + userID + ":"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// captureWriter passes writes through while keeping a copy of status and body.
type captureWriter struct {
	http.ResponseWriter
	status      int
	buf         bytes.Buffer
	wroteHeader bool
}

func (c *captureWriter) WriteHeader(status int) {
	if !c.wroteHeader {
		c.status = status
		c.wroteHeader = true
		c.ResponseWriter.WriteHeader(status)
	}
}

func (c *captureWriter) Write(b []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	c.buf.Write(b)
	return c.ResponseWriter.Write(b)
}

// Wrap must run after authentication; keys are scoped to the caller.
// Without the header the request passes straight through. Responses below 500 are
// recorded; a 5xx releases the key so the client may retry.
func (m *Middleware) Wrap(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		key := r.Header.Get(Header)
		if key == "" {
			next(w, r, ps)
			return
		}
		if len(key) > maxKeyLen {
			utils.RespondWithError(w, http.StatusBadRequest, "Idempotency-Key is too long")
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Failed to read request body")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		userID := utils.GetUserIDFromRequest(r)
		scoped := userID + ":" + key
		now := time.Now().UTC()
		rec := models.IdempotencyRecord{
			Key:         scoped,
			Method:      r.Method,
			Path:        r.URL.Path,
			UserID:      userID,
			RequestHash: requestHash(r, body, userID),
			CreatedAt:   now,
			ExpiresAt:   now.Add(m.ttl),
		}

		existing, err := m.store.Reserve(r.Context(), rec)
		if err != nil {
			m.log.Error("idempotency reserve failed", zap.Error(err))
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		if existing != nil {
			switch {
			case existing.RequestHash != rec.RequestHash:
				utils.RespondWithError(w, http.StatusConflict, "Idempotency-Key was already used for a different request")
			case !existing.Completed:
				utils.RespondWithError(w, http.StatusConflict, "A request with this Idempotency-Key is still in progress")
			default:
				if existing.ContentType != "" {
					w.Header().Set("Content-Type", existing.ContentType)
				}
				w.Header().Set(ReplayHeader, "true")
				w.WriteHeader(existing.Status)
				_, _ = w.Write(existing.Body)
			}
			return
		}

		cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
		next(cw, r, ps)

		// the client may already be gone; the record must still be finalized
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
		defer cancel()
		if cw.status >= http.StatusInternalServerError {
			if err := m.store.Release(ctx, scoped); err != nil {
				m.log.Error("idempotency release failed", zap.Error(err))
			}
			return
		}
		if err := m.store.Complete(ctx, scoped, cw.status, cw.Header().Get("Content-Type"), cw.buf.Bytes()); err != nil {
			m.log.Error("idempotency complete failed", zap.Error(err))
		}
	}
}
