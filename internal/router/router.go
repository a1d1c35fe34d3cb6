package router

import (
	"net/http"
	"time"

	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/config"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/handler"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/middleware"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/response"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Exam      *handler.ExamHandler
	AntiCheat *handler.AntiCheatHandler
	Ranking   *handler.RankingHandler
	Monitor   *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/healthz", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for session starts (30 per minute per IP). The protocol
	// endpoints inside a session are not limited; the handshake already
	// caps their useful rate.
	startLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Exam Session Protocol ──────────────────────────────────────
	api := router.Group("/api/v1")
	{
		api.POST("/exams",
			startLimiter.Middleware(),
			middleware.OptionalJWT(authService),
			handlers.Exam.Start,
		)

		exams := api.Group("/exams/:exam_id")
		{
			exams.POST("/questions", handlers.Exam.NextQuestion)
			exams.POST("/answers", handlers.Exam.CheckAnswer)
			exams.POST("/abort", handlers.Exam.Abort)
			exams.POST("/violations", handlers.AntiCheat.ReportViolation)
			exams.POST("/heartbeat", handlers.AntiCheat.Heartbeat)
		}

		// ─── 2. Leaderboard (Public) ───────────────────────────────────
		api.GET("/rankings", handlers.Ranking.GetTop)
	}

	// ─── 3. WebSocket Group (JWT via query token) ──────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireJWT(authService))
	{
		ws.GET("/exams/:exam_id/monitor", handlers.Monitor.MonitorStream)
	}

	return router
}
