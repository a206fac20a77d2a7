package middleware

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"cashdesk/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// StatusClientClosedRequest is answered when the caller hung up before the
// handler finished. Nobody reads it; it keeps access logs honest.
const StatusClientClosedRequest = 499

// ErrorHandler answers errors attached with c.Error. Storage and other
// internal failures become a generic 500; a request whose context expired
// becomes 503. Details go to the log, never to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		status, detail := http.StatusInternalServerError, "internal server error"
		evt := log.Error()
		switch {
		case errors.Is(err, context.Canceled):
			status, detail = StatusClientClosedRequest, "request cancelled"
			evt = log.Debug()
		case errors.Is(err, context.DeadlineExceeded):
			status, detail = http.StatusServiceUnavailable, "request timed out"
			evt = log.Warn()
		}
		evt.Str("request_id", c.GetString(RequestIDKey)).
			Str("route", c.FullPath()).
			Str("operator_id", operatorForLog(c)).
			Int("status", status).
			Err(err).
			Msg("request failed")

		if !c.Writer.Written() {
			c.AbortWithStatusJSON(status, apierror.New(detail))
		}
	}
}

func operatorForLog(c *gin.Context) string {
	if claims := GetClaims(c); claims != nil {
		return claims.UserID
	}
	return ""
}

// Recovery converts panics into 500 responses.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", c.GetString(RequestIDKey)).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("internal server error"))
			}
		}()
		c.Next()
	}
}

// Logger logs each request with method, path, status, latency and request_id.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		evt := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			evt = log.Warn()
		}
		evt.Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
