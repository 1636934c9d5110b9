package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shiftdesk/internal/util"
	"shiftdesk/pkg/logger"
	"shiftdesk/pkg/metrics"
	"shiftdesk/pkg/trace"
)

// AdminIDKey is the gin context key holding the authenticated admin id.
const AdminIDKey = "admin_id"

// AuthMiddleware checks the admin JWT carried in the auth_token cookie.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(util.AuthCookie)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "No token provided"})
			return
		}

		claims, err := util.ParseJWT(token, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Invalid token"})
			return
		}

		c.Set(AdminIDKey, claims.ID)
		c.Next()
	}
}

// TraceMiddleware reads or generates X-Trace-ID and stores it in the request context.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if id := c.GetHeader(trace.HeaderName); id != "" {
			ctx = trace.WithContext(ctx, id)
		}
		ctx, id := trace.Ensure(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Header(trace.HeaderName, id)
		c.Next()
	}
}

// MetricsMiddleware records request latency per route template.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// AccessLog logs each request.
func AccessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithTrace(c.Request.Context(), log).Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
