package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pharmabill/backend/internal/domain/shared"
	"github.com/pharmabill/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Idempotency headers
const (
	IdempotencyKeyHeader   = "Idempotency-Key"
	IdempotentReplayHeader = "Idempotent-Replayed"
	maxIdempotencyKeyLen   = 200
)

// IdempotencyConfig configures Idempotency
type IdempotencyConfig struct {
	Store shared.IdempotencyStore
	// ResultTTL is how long a completed response can be replayed
	ResultTTL time.Duration
	// InFlightTTL bounds how long an unfinished request blocks its key
	InFlightTTL time.Duration
	Logger      *zap.Logger
}

type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// captureWriter keeps a copy of the response body
type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency makes a request replayable under its Idempotency-Key header.
// Keys are scoped to the tenant, so it must run after RequireTenant.
//
// The first request with a key reserves it. A later request with the same
// key replays the stored 2xx response, or gets 409 while the first is still
// running. Non-2xx outcomes release the key so the client can retry.
// Requests without the header pass through untouched.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		clientKey := c.GetHeader(IdempotencyKeyHeader)
		if clientKey == "" || cfg.Store == nil {
			c.Next()
			return
		}
		if len(clientKey) > maxIdempotencyKeyLen {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest, "Idempotency-Key is too long", GetRequestID(c)))
			return
		}
		tenantID, ok := GetTenantID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Tenant context is required", GetRequestID(c)))
			return
		}

		ctx := c.Request.Context()
		key := tenantID.String() + ":" + clientKey

		if replayed := replay(c, cfg.Store, key, log); replayed {
			return
		}

		reserved, err := cfg.Store.Reserve(ctx, key, cfg.InFlightTTL)
		if err != nil {
			log.Error("Failed to reserve idempotency key", zap.String("key", key), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeServiceUnavailable, "Idempotency store unavailable", GetRequestID(c)))
			return
		}
		if !reserved {
			// Lost the race to a request that may have finished meanwhile
			if replay(c, cfg.Store, key, log) {
				return
			}
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestInProgress, "A request with this Idempotency-Key is still in progress", GetRequestID(c)))
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		// The outcome is recorded even if the client has gone away
		bg := context.WithoutCancel(ctx)
		status := w.Status()
		if status < 200 || status >= 300 {
			if err := cfg.Store.Release(bg, key); err != nil {
				log.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(err))
			}
			return
		}

		payload, err := json.Marshal(storedResponse{Status: status, Body: w.body.Bytes()})
		if err == nil {
			err = cfg.Store.Complete(bg, key, payload, cfg.ResultTTL)
		}
		if err != nil {
			log.Error("Failed to store idempotent response", zap.String("key", key), zap.Error(err))
			_ = cfg.Store.Release(bg, key)
		}
	}
}

// replay writes a stored response and aborts the chain. It reports whether
// a response was written.
func replay(c *gin.Context, store shared.IdempotencyStore, key string, log *zap.Logger) bool {
	payload, found, err := store.Result(c.Request.Context(), key)
	if err != nil {
		log.Warn("Failed to read idempotent response", zap.String("key", key), zap.Error(err))
		return false
	}
	if !found {
		return false
	}

	var stored storedResponse
	if err := json.Unmarshal(payload, &stored); err != nil {
		log.Warn("Discarding unreadable idempotent response", zap.String("key", key), zap.Error(err))
		return false
	}
	c.Header(IdempotentReplayHeader, "true")
	c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
	c.Abort()
	return true
}
