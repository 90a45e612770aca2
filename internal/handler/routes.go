package handler

import "github.com/gin-gonic/gin"

// Handlers bundles the API handlers mounted under /api/v1
type Handlers struct {
	Match        *MatchHandler
	Notification *NotificationHandler
	Dashboard    *DashboardHandler
	Upload       *UploadHandler
}

// Register mounts every API route on api. sendLimit guards the manual push endpoints.
func (h Handlers) Register(api *gin.RouterGroup, sendLimit gin.HandlerFunc) {
	// Dashboard
	if h.Dashboard != nil {
		api.GET("/dashboard/stats", h.Dashboard.Stats)
	}

	// Matches
	if h.Match != nil {
		matches := api.Group("/matches")
		{
			matches.GET("", h.Match.List)
			matches.POST("", h.Match.Create)
			matches.GET("/timeline", h.Match.Timeline)
			matches.POST("/refresh", h.Match.Refresh)
			matches.GET("/:id", h.Match.Get)
			matches.PUT("/:id", h.Match.Update)
			matches.PATCH("/:id/active", h.Match.SetActive)
			matches.DELETE("/:id", h.Match.Delete)
		}
	}

	// Notifications
	if h.Notification != nil {
		notifications := api.Group("/notifications")
		{
			notifications.GET("/stats", h.Notification.Stats)
			notifications.GET("/logs", h.Notification.Logs)
			notifications.POST("/send", sendLimit, h.Notification.Send)
			notifications.POST("/test", sendLimit, h.Notification.SendTest)
		}
	}

	// Upload
	if h.Upload != nil {
		api.POST("/upload", h.Upload.UploadImage)
		api.POST("/upload/presign", h.Upload.Presign)
	}
}
