package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"p2p-lending/internal/domain/apperr"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	// How long an in-progress marker lives if the handler never finishes.
	provisionalLockTTL = 60 * time.Second
	// Allowed client/server clock skew for Ax-Request-At (in UTC).
	maxClockSkew = 10 * time.Minute
	storeTimeout = 2 * time.Second
)

type idempEntry struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// replayable reports whether e holds a finished response that can be sent again.
func (e idempEntry) replayable() bool { return !e.InProgress && e.Code != 0 && len(e.Body) > 0 }

type respRecorder struct {
	w    http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }
func (r *respRecorder) Write(b []byte) (int, error) {
	if r.buf != nil {
		r.buf.Write(b)
	}
	return r.w.Write(b)
}
func (r *respRecorder) WriteHeader(statusCode int) { r.code = statusCode; r.w.WriteHeader(statusCode) }

// abort writes the same error shape the handlers use.
func abort(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, map[string]string{"error": msg, "code": code})
}

type idemHeaders struct {
	reqID  string
	reqAt  time.Time
	userID string
}

func readIdemHeaders(req *http.Request) (idemHeaders, string) {
	h := idemHeaders{
		reqID:  strings.TrimSpace(req.Header.Get(HeaderRequestID)),
		userID: strings.TrimSpace(req.Header.Get(HeaderUserID)),
	}
	switch {
	case h.reqID == "":
		return h, "missing Ax-Request-Id"
	case !validReqID(h.reqID):
		return h, "invalid Ax-Request-Id format"
	}
	at, err := parseAxRequestAt(req.Header.Get(HeaderRequestAt))
	if err != nil {
		return h, err.Error()
	}
	now := nowUTC()
	if at.Before(now.Add(-maxClockSkew)) || at.After(now.Add(maxClockSkew)) {
		return h, "Ax-Request-At too skewed"
	}
	h.reqAt = at
	switch {
	case h.userID == "":
		return h, "missing Ax-User-Id"
	case !validUserID(h.userID):
		return h, "invalid Ax-User-Id"
	}
	return h, ""
}

// IdempotencyMiddleware caches the response of a mutating request under
// method + route + user id + request id and replays it for retries carrying
// the same body. Ax-Request-At must be epoch (seconds or ms) or RFC3339 with a
// zone. The request id is also handed to handlers through IdempotencyKey, so a
// retry that misses the cache is still deduped by the ledger.
//
// 5xx responses are not cached: they mean the outcome is unknown or the
// operation gave up, and the client may retry with the same id.
func IdempotencyMiddleware(rdb *redis.Client, ttl time.Duration, log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			h, bad := readIdemHeaders(req)
			if bad != "" {
				return abort(c, http.StatusBadRequest, apperr.CodeValidation, bad)
			}

			var body []byte
			if req.Body != nil {
				var err error
				if body, err = io.ReadAll(req.Body); err != nil {
					return abort(c, http.StatusBadRequest, apperr.CodeValidation, "unreadable request body")
				}
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			bhash := bodyHash(body)

			key := buildKey(req.Method, c.Path(), h.userID, h.reqID)
			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()

			ok, err := provisionalSet(ctx, rdb, key, idempEntry{
				InProgress:  true,
				BodySHA256:  bhash,
				RequestID:   h.reqID,
				RequestAtMS: h.reqAt.UnixMilli(),
				CreatedAt:   nowUTC(),
			})
			if err != nil {
				log.Error("idempotency store unavailable", "key", key, "error", err)
				return abort(c, http.StatusServiceUnavailable, apperr.CodeStorageFailure, "idempotency store unavailable")
			}
			if !ok {
				cur, errLoad := loadEntry(ctx, rdb, key)
				if errLoad != nil {
					log.Warn("idempotency entry unreadable", "key", key, "error", errLoad)
				}
				if cur.BodySHA256 != "" && cur.BodySHA256 != bhash {
					return abort(c, http.StatusConflict, apperr.CodeDuplicate, "Ax-Request-Id reused with different body")
				}
				if cur.replayable() {
					c.Response().Header().Set(HeaderReplay, "true")
					return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
				}
				return abort(c, http.StatusConflict, apperr.CodeDuplicate, "request is already in progress")
			}

			c.Set(ctxIdemKey, h.reqID)
			rec := &respRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			// the request context may already be cancelled here
			storeCtx, storeCancel := context.WithTimeout(context.Background(), storeTimeout)
			defer storeCancel()
			if rec.code >= http.StatusInternalServerError {
				if err := rdb.Del(storeCtx, key).Err(); err != nil {
					log.Warn("idempotency marker not cleared", "key", key, "error", err)
				}
				return nil
			}
			final := idempEntry{
				Code:        rec.code,
				Body:        rec.buf.Bytes(),
				BodySHA256:  bhash,
				RequestID:   h.reqID,
				RequestAtMS: h.reqAt.UnixMilli(),
				CreatedAt:   nowUTC(),
			}
			if err := saveFinal(storeCtx, rdb, key, final, ttl); err != nil {
				log.Warn("idempotency response not stored", "key", key, "error", err)
			}
			return nil
		}
	}
}
