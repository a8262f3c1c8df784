package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sss135790/quick-clinic/internal/model"
)

type AccessLogWriter interface {
	CreateAccess(ctx context.Context, log *model.AccessLog) error
}

// AccessLog records one row per authenticated request after the handler has run.
func AccessLog(writer AccessLogWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		claims, ok := Claims(c)
		if !ok {
			return
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		userID := claims.UserID
		entry := &model.AccessLog{
			ID:        uuid.New(),
			UserID:    &userID,
			Method:    c.Request.Method,
			Path:      path,
			Status:    c.Writer.Status(),
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			CreatedAt: time.Now(),
		}
		if err := writer.CreateAccess(c.Request.Context(), entry); err != nil {
			log.Warn().Err(err).Str("request_id", c.GetString(ContextRequestID)).Msg("failed to write access log")
		}
	}
}
