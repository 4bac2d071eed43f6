package router

import (
	"github.com/admiralorbiter/DataDeckv2/internal/config"
	"github.com/admiralorbiter/DataDeckv2/internal/generator"
	"github.com/admiralorbiter/DataDeckv2/internal/handler"
	"github.com/admiralorbiter/DataDeckv2/internal/middleware"
	"github.com/admiralorbiter/DataDeckv2/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin engine and wires the API.
func SetupRouter(cfg *config.Config, db *gorm.DB, gen *generator.Generator) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	sessions := service.NewSessionService(db, gen)
	roster := service.NewRosterService(db, gen)

	jwtSecret := cfg.JWT.Secret

	// ====== API ======
	api := r.Group("/api")

	// teacher auth (no token required)
	authHandler := handler.NewAuthHandler(db, jwtSecret, cfg.JWT.ExpireHours, cfg.Security.BcryptCost)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// student self-serve login (PIN card credentials, no token required)
	studentHandler := handler.NewStudentHandler(db, sessions, roster, jwtSecret)
	api.POST("/student/login", studentHandler.Login)

	// teacher endpoints
	protected := api.Group("")
	protected.Use(
		middleware.AuthMiddleware(jwtSecret, db),
		middleware.AuditMiddleware(db),
	)

	protected.GET("/me", handler.GetMe)
	protected.POST("/profile/password", authHandler.ChangePassword)

	sessionHandler := handler.NewSessionHandler(sessions, cfg.Roster.MinCount, cfg.Roster.MaxCount)
	protected.GET("/modules", sessionHandler.Modules)
	protected.POST("/sessions", sessionHandler.Create)
	protected.GET("/sessions", sessionHandler.List)
	protected.GET("/sessions/:id", sessionHandler.Detail)
	protected.POST("/sessions/:id/archive", sessionHandler.Archive)
	protected.POST("/sessions/:id/unarchive", sessionHandler.Unarchive)
	protected.POST("/sessions/:id/pause", sessionHandler.Pause)
	protected.POST("/sessions/:id/resume", sessionHandler.Resume)
	protected.DELETE("/sessions/:id", sessionHandler.Delete)

	protected.GET("/students", studentHandler.List)
	protected.POST("/students/:id/reset-pin", studentHandler.ResetPin)
	protected.DELETE("/students/:id", studentHandler.Delete)

	pinCards := handler.NewPinCardsHandler(roster)
	protected.GET("/sessions/:id/pin-cards", pinCards.Export)

	return r
}
