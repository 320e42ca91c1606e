package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"todoapp/internal/apperr"
	"todoapp/internal/models"
	"todoapp/internal/token"
	"todoapp/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"

	subjectKey = "subject"
	userKey    = "user"
)

// UserLoader resolves a verified token subject to a stored user.
type UserLoader interface {
	CurrentUser(ctx context.Context, userID uint) (*models.User, error)
}

// RequestID tags the request with an id, honouring an incoming X-Request-ID,
// and binds it into the context logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// AccessLog logs one line per request after it completes.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ctx := c.Request.Context()
		status := c.Writer.Status()
		args := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if status >= http.StatusInternalServerError {
			logger.Error(ctx, "Request failed", args...)
			return
		}
		logger.Info(ctx, "Request handled", args...)
	}
}

// Bearer requires an Authorization: Bearer token of the given kind and
// stores its subject for later handlers.
func Bearer(issuer *token.Issuer, kind token.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abort(c, apperr.Unauthorized("Authorization token is required"))
			return
		}
		userID, err := issuer.Verify(raw, kind)
		if err != nil {
			logger.Debug(ctx, "Token rejected", "error", err, "kind", kind)
			if errors.Is(err, token.ErrExpired) {
				abort(c, apperr.Unauthorized("Token has expired"))
				return
			}
			abort(c, apperr.Unauthorized("Invalid token"))
			return
		}
		c.Set(subjectKey, userID)
		c.Request = c.Request.WithContext(logger.With(ctx, "user_id", userID))
		c.Next()
	}
}

// LoadUser resolves the bearer subject to a user once per request.
// Must run after Bearer.
func LoadUser(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := SubjectID(c)
		if !ok {
			abort(c, apperr.Unauthorized("Authorization token is required"))
			return
		}
		user, err := users.CurrentUser(c.Request.Context(), id)
		if err != nil {
			abort(c, err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// SubjectID returns the user id of the verified bearer token.
func SubjectID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(subjectKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// CurrentUser returns the user loaded by LoadUser.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	raw := strings.TrimSpace(header[len(prefix):])
	return raw, raw != ""
}

func abort(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		logger.Error(c.Request.Context(), "Auth middleware failed", "error", err)
	}
	c.AbortWithStatusJSON(apperr.Status(kind), gin.H{"error": apperr.Message(err, "Internal server error")})
}
