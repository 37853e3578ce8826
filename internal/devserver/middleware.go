package devserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"

// requestID echoes X-Request-ID, generating one when the caller sent none
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// requestLogger logs each request with structured fields
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(requestIDKey)),
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// abortError ends the request with the JSON error envelope the client parses
func abortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"code": code, "message": message})
}

// requireSession rejects requests without a valid session cookie
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(SessionCookie)
		if err != nil {
			s.metrics.UnauthorizedTotal.Inc()
			abortError(c, http.StatusUnauthorized, "unauthorized", "sign in required")
			return
		}
		claims, err := s.sessions.parse(cookie)
		if err != nil {
			s.log.Debug("Rejected session", zap.Error(err), zap.String("request_id", c.GetString(requestIDKey)))
			s.metrics.UnauthorizedTotal.Inc()
			abortError(c, http.StatusUnauthorized, "session_expired", "session expired, sign in again")
			return
		}
		c.Set("staff", claims.Subject)
		c.Next()
	}
}
