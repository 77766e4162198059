package api

import (
	authUsecasePkg "fieldline-backend/internal/auth/usecase"
	projectDelivery "fieldline-backend/internal/project/delivery"
	threadDelivery "fieldline-backend/internal/thread/delivery"
	"fieldline-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

// Handler owns the HTTP surface: it glues the feature handlers to a Gin
// engine. All business collaborators arrive fully constructed from main.
type Handler struct {
	authUsecase     authUsecasePkg.AuthUsecase
	threadHandler   *threadDelivery.ThreadHandler
	projectHandler  *projectDelivery.ProjectHandler
	settingsHandler *SettingsHandler
	config          *config.Config
}

func NewHandler(authUc authUsecasePkg.AuthUsecase, threadHandler *threadDelivery.ThreadHandler, projectHandler *projectDelivery.ProjectHandler, settingsHandler *SettingsHandler, cfg *config.Config) *Handler {
	return &Handler{
		authUsecase:     authUc,
		threadHandler:   threadHandler,
		projectHandler:  projectHandler,
		settingsHandler: settingsHandler,
		config:          cfg,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.threadHandler, h.projectHandler, h.settingsHandler)

	return r.Run(addr)
}
