package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"shiftdesk/internal/handler"
	"shiftdesk/pkg/trace"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Auth        *handler.AuthHandler
	Facility    *handler.FacilityHandler
	Coordinator *handler.CoordinatorHandler
	Nurse       *handler.NurseHandler
	NurseType   *handler.NurseTypeHandler
	Shift       *handler.ShiftHandler
	Chat        *handler.ChatHandler
	Admin       *handler.AdminHandler
}

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	DB             Pinger
	Logger         *zap.Logger
}

type Router struct {
	Engine *gin.Engine
}

func NewRouter(h Handlers, opts Options) *Router {
	r := gin.New()
	r.Use(gin.Recovery(), TraceMiddleware(), MetricsMiddleware(), AccessLog(opts.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", trace.HeaderName},
		ExposeHeaders:    []string{trace.HeaderName},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health endpoints
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := opts.DB.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Messaging gateway webhooks
	r.POST("/api/chat", h.Chat.Coordinator)
	r.POST("/api/chat_nurse", h.Chat.Nurse)

	public := r.Group("/api/admin")
	{
		public.POST("/login", h.Auth.Login)
		public.POST("/logout", h.Auth.Logout)
		public.GET("/get-available-nurses", h.Nurse.Available)
	}

	admin := r.Group("/api/admin")
	admin.Use(AuthMiddleware(opts.JWTSecret))
	{
		admin.POST("/add-facility", h.Facility.Add)
		admin.PUT("/edit-facility/:facility_id", h.Facility.Edit)
		admin.GET("/get-facility", h.Facility.List)
		admin.GET("/get-facility-by-id/:id", h.Facility.Get)
		admin.DELETE("/delete-facility/:id", h.Facility.Delete)
		admin.DELETE("/delete-service/:id/:role", h.Facility.DeleteService)

		admin.GET("/get-coordinators-by-facility/:id", h.Coordinator.ListByFacility)
		admin.GET("/get-coordinator-by-id/:id", h.Coordinator.Get)
		admin.DELETE("/delete-coordinator/:id", h.Coordinator.Delete)

		admin.GET("/get-nurses", h.Nurse.List)
		admin.GET("/get-nurse-by-id/:id", h.Nurse.Get)
		admin.POST("/add-nurse", h.Nurse.Add)
		admin.PUT("/edit-nurse/:id", h.Nurse.Edit)
		admin.DELETE("/delete-nurse/:id", h.Nurse.Delete)

		admin.POST("/add-nurse-type", h.NurseType.Add)
		admin.GET("/get-nurse-type", h.NurseType.List)
		admin.GET("/get-nurse-types", h.NurseType.List)
		admin.DELETE("/delete-nurse-type/:id", h.NurseType.Delete)
		admin.PUT("/edit-nurse-type/:id", h.NurseType.Edit)

		admin.GET("/get-shifts", h.Shift.Calendar)
		admin.GET("/get-all-shifts", h.Shift.List)
		admin.GET("/get-shift-by-id/:id", h.Shift.Get)
		admin.POST("/add-shift", h.Shift.Add)
		admin.PUT("/edit-shift/:id", h.Shift.Edit)
		admin.DELETE("/delete-shift/:shift_id", h.Shift.Delete)

		admin.GET("/outbox/failed", h.Admin.ListFailedEvents)
		admin.POST("/outbox/replay", h.Admin.ReplayOutboxEvent)
		admin.POST("/outbox/replay-failed", h.Admin.ReplayFailedEvents)
	}

	return &Router{Engine: r}
}

// Server wraps the engine for graceful shutdown.
func (r *Router) Server(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           r.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
