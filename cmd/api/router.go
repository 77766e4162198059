package api

import (
	"net/http"

	"fieldline-backend/internal/auth/delivery"
	authUsecasePkg "fieldline-backend/internal/auth/usecase"
	"fieldline-backend/internal/permission"
	projectDelivery "fieldline-backend/internal/project/delivery"
	threadDelivery "fieldline-backend/internal/thread/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUsecase authUsecasePkg.AuthUsecase, threadHandler *threadDelivery.ThreadHandler, projectHandler *projectDelivery.ProjectHandler, settingsHandler *SettingsHandler) {
	authHandler := delivery.NewAuthHandler(authUsecase)

	authRequired := delivery.AuthMiddleware(authUsecase)
	can := func(category, action string) gin.HandlerFunc {
		return delivery.RequirePermission(authUsecase, category, action)
	}

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
			auth.POST("/google", authHandler.GoogleSignIn)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", authRequired, authHandler.Me)
		}

		// FCM routes (protected)
		fcm := api.Group("/fcm")
		fcm.Use(authRequired)
		{
			fcm.POST("/register", authHandler.RegisterFCMToken)
			fcm.DELETE("/:token", authHandler.UnregisterFCMToken)
		}

		// Team and role administration
		team := api.Group("/team")
		team.Use(authRequired)
		{
			team.GET("/members", can(permission.CategoryTeam, permission.ActionView), authHandler.ListTeamMembers)
			team.GET("/roles", delivery.RequireAdmin(), authHandler.ListRoles)
			team.POST("/roles", delivery.RequireAdmin(), authHandler.CreateRole)
			team.PUT("/roles/:id", delivery.RequireAdmin(), authHandler.UpdateRole)
			team.DELETE("/roles/:id", delivery.RequireAdmin(), authHandler.DeleteRole)
		}

		// Thread routes (protected, permission-gated per action)
		threads := api.Group("/threads")
		threads.Use(authRequired)
		{
			threads.GET("", can(permission.CategoryInbox, permission.ActionView), threadHandler.List)
			threads.GET("/search", can(permission.CategoryInbox, permission.ActionView), threadHandler.Search)
			threads.POST("/sync", can(permission.CategoryInbox, permission.ActionManage), threadHandler.Sync)
			threads.GET("/:id", can(permission.CategoryInbox, permission.ActionView), threadHandler.Get)
			threads.DELETE("/:id", can(permission.CategoryInbox, permission.ActionDelete), threadHandler.Delete)

			threads.POST("/:id/close", can(permission.CategoryInbox, permission.ActionClose), threadHandler.Close)
			threads.POST("/:id/reopen", can(permission.CategoryInbox, permission.ActionClose), threadHandler.Reopen)
			threads.POST("/:id/pin", can(permission.CategoryInbox, permission.ActionEdit), threadHandler.Pin)
			threads.POST("/:id/unpin", can(permission.CategoryInbox, permission.ActionEdit), threadHandler.Unpin)
			threads.POST("/:id/assign", can(permission.CategoryInbox, permission.ActionAssign), threadHandler.Assign)

			threads.POST("/:id/link", can(permission.CategoryInbox, permission.ActionLink), threadHandler.Link)
			threads.POST("/:id/unlink", can(permission.CategoryInbox, permission.ActionLink), threadHandler.Unlink)
			threads.POST("/:id/links", can(permission.CategoryInbox, permission.ActionLink), threadHandler.AddLink)
			threads.DELETE("/:id/links/:linkId", can(permission.CategoryInbox, permission.ActionLink), threadHandler.RemoveLink)

			threads.POST("/:id/suggestion/accept", can(permission.CategoryInbox, permission.ActionLink), threadHandler.AcceptSuggestion)
			threads.POST("/:id/suggestion/reject", can(permission.CategoryInbox, permission.ActionLink), threadHandler.RejectSuggestion)
			threads.POST("/:id/suggestion/dismiss", can(permission.CategoryInbox, permission.ActionView), threadHandler.DismissSuggestion)
			threads.POST("/:id/triage", can(permission.CategoryInbox, permission.ActionView), threadHandler.Triage)
			threads.POST("/:id/summarize", can(permission.CategoryInbox, permission.ActionView), threadHandler.Summarize)

			threads.POST("/:id/draft", can(permission.CategoryInbox, permission.ActionSend), threadHandler.DraftReply)
			threads.POST("/:id/reply", can(permission.CategoryInbox, permission.ActionSend), threadHandler.Reply)

			threads.POST("/:id/notes", can(permission.CategoryInbox, permission.ActionEdit), threadHandler.AddNote)
			threads.PUT("/:id/notes/:noteId", can(permission.CategoryInbox, permission.ActionEdit), threadHandler.UpdateNote)
			threads.POST("/:id/notes/:noteId/flush", can(permission.CategoryInbox, permission.ActionEdit), threadHandler.FlushNote)
			threads.DELETE("/:id/notes/:noteId", can(permission.CategoryInbox, permission.ActionEdit), threadHandler.DeleteNote)

			threads.POST("/:id/presence", can(permission.CategoryInbox, permission.ActionView), threadHandler.Heartbeat)
			threads.DELETE("/:id/presence", can(permission.CategoryInbox, permission.ActionView), threadHandler.LeavePresence)
		}

		// Project / job lookup routes
		projects := api.Group("/projects")
		projects.Use(authRequired)
		{
			projects.GET("", can(permission.CategoryProjects, permission.ActionView), projectHandler.ListProjects)
			projects.POST("", can(permission.CategoryProjects, permission.ActionCreate), projectHandler.CreateProject)
			projects.GET("/:id", can(permission.CategoryProjects, permission.ActionView), projectHandler.GetProject)
		}

		jobs := api.Group("/jobs")
		jobs.Use(authRequired)
		{
			jobs.GET("", can(permission.CategoryJobs, permission.ActionView), projectHandler.ListJobs)
			jobs.POST("", can(permission.CategoryJobs, permission.ActionCreate), projectHandler.CreateJob)
			jobs.GET("/:id", can(permission.CategoryJobs, permission.ActionView), projectHandler.GetJob)
		}

		// Settings routes (admin only) - runtime configuration
		settings := api.Group("/settings")
		settings.Use(authRequired, delivery.RequireAdmin())
		{
			settings.GET("/ollama", settingsHandler.GetOllamaSettings)
			settings.PUT("/ollama", settingsHandler.UpdateOllamaSettings)
			settings.POST("/ollama/test", settingsHandler.TestOllamaConnection)

			settings.GET("/mailbox", authHandler.MailboxStatus)
			settings.GET("/mailbox/auth-url", authHandler.MailboxAuthURL)
			settings.POST("/mailbox/connect", authHandler.ConnectMailbox)
			settings.POST("/mailbox/disconnect", authHandler.DisconnectMailbox)
		}
	}
}
