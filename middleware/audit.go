// Package middleware carries the cross-cutting gin middleware for the API
// binary: request ids and the non-2xx audit log.
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const headerRequestID = "X-Request-ID"

// RequestID assigns each request a uuid, honoring one supplied by an
// upstream proxy.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(headerRequestID, id)
		c.Next()
	}
}

// Audit logs every non-2xx response with the requester id, body, query,
// and route params. 404s are skipped to keep scanner noise out of the
// log; everything else is kept for audit.
func Audit(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body []byte
		if c.Request.Body != nil && c.Request.ContentLength > 0 && c.Request.ContentLength < 1<<16 {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if status < 300 || status == http.StatusNotFound {
			return
		}

		params := make(map[string]string, len(c.Params))
		for _, p := range c.Params {
			params[p.Key] = p.Value
		}

		event := log.Warn()
		if status >= 500 {
			event = log.Error()
		}
		event.
			Int("status", status).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("query", c.Request.URL.RawQuery).
			Interface("params", params).
			Uint("requester_id", c.GetUint("user_id")).
			Str("request_id", c.GetString("request_id")).
			Dur("elapsed", time.Since(start))
		if len(body) > 0 {
			event = event.RawJSON("body", sanitizeJSON(body))
		}
		if len(c.Errors) > 0 {
			event = event.Str("error", c.Errors.Last().Error())
		}
		event.Msg("request failed")
	}
}

// sanitizeJSON returns the body if it is valid JSON, or a quoted
// placeholder otherwise so RawJSON never emits invalid output.
func sanitizeJSON(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && json.Valid(trimmed) {
		return trimmed
	}
	return []byte(`"<non-json body>"`)
}
