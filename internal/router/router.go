package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/taleemlabs/taleem-backend/internal/config"
	"github.com/taleemlabs/taleem-backend/internal/handler"
	"github.com/taleemlabs/taleem-backend/internal/middleware"
	"github.com/taleemlabs/taleem-backend/internal/response"
	"github.com/taleemlabs/taleem-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Exam    *handler.ExamHandler
	History *handler.HistoryHandler
	Chat    *handler.ChatHandler
	WS      *handler.WSHandler
	System  *handler.SystemHandler
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
	router.GET("/health", handlers.System.Health)

	// Rate limiters: registration and collaborator-backed routes are the
	// abuse-prone surfaces.
	authLimiter := middleware.NewRateLimiter(30, time.Minute)
	llmLimiter := middleware.NewRateLimiter(20, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/session", handlers.Auth.RegisterSession)
		auth.GET("/me", middleware.RequireStudentJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Exam Group (JWT + Active Session) ──────────────────────────
	exam := router.Group("/api/v1/exam")
	exam.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckActiveSession(authService),
	)
	{
		exam.GET("", handlers.Exam.GetState)
		exam.POST("/start", llmLimiter.Middleware(), handlers.Exam.Start)
		exam.POST("/resume", handlers.Exam.Resume)
		exam.POST("/discard", handlers.Exam.Discard)
		exam.PUT("/answers/:index", handlers.Exam.EditAnswer)
		exam.POST("/submit/request", handlers.Exam.RequestSubmit)
		exam.POST("/submit/cancel", handlers.Exam.CancelSubmit)
		exam.POST("/submit/confirm", handlers.Exam.ConfirmSubmit)
		exam.POST("/reset", handlers.Exam.Reset)
		exam.GET("/report", handlers.Exam.GetReport)
	}

	// ─── 3. History Group (JWT + Active Session) ───────────────────────
	history := router.Group("/api/v1/history")
	history.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckActiveSession(authService),
	)
	{
		history.GET("", handlers.History.List)
		history.GET("/stats", handlers.History.Stats)
		history.GET("/archive", handlers.History.Archive)
	}

	// ─── 4. Collaborator Wrappers (JWT + Rate Limited) ─────────────────
	api := router.Group("/api/v1")
	api.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckActiveSession(authService),
		llmLimiter.Middleware(),
	)
	{
		api.POST("/chat", handlers.Chat.Chat)
		api.POST("/translate", handlers.Chat.Translate)
	}

	// ─── 5. WebSocket Group (Student WS Auth) ──────────────────────────
	wsGroup := router.Group("/ws/v1")
	wsGroup.Use(middleware.RequireStudentWSAuth(authService))
	{
		wsGroup.GET("/exam", handlers.WS.ExamStream)
	}

	return router
}
