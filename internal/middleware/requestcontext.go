package middleware

import (
  "github.com/gin-gonic/gin"

  "github.com/agent-sparta/sparta-backend/internal/errordata"
  "github.com/agent-sparta/sparta-backend/internal/ssedata"
)

// AttachRequestContext seeds the per-request carriers services use to
// hand user-facing messages and deferred SSE broadcasts back to the
// handler layer.
func AttachRequestContext() gin.HandlerFunc {
  return func(c *gin.Context) {
    ctx := c.Request.Context()
    ctx = ssedata.WithSSEData(ctx)
    ctx = errordata.WithErrorData(ctx)
    c.Request = c.Request.WithContext(ctx)
    c.Next()
  }
}
