package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quocanhngo/sportcast/internal/model"
	"github.com/quocanhngo/sportcast/internal/service"
)

// NotificationHandler handles the manual push screen
type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// Send godoc
// @Summary Send a push notification to every device
// @Tags Notifications
// @Accept json
// @Produce json
// @Param body body model.SendNotificationRequest true "Notification"
// @Success 200 {object} model.SendResult
// @Failure 400 {object} model.ErrorResponse
// @Failure 502 {object} model.SendResult
// @Router /notifications/send [post]
func (h *NotificationHandler) Send(c *gin.Context) {
	var req model.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}
	respondSend(c, h.notificationService.SendCustom(c.Request.Context(), req.Title, req.Message))
}

// SendTest godoc
// @Summary Send a test push notification
// @Tags Notifications
// @Produce json
// @Success 200 {object} model.SendResult
// @Failure 502 {object} model.SendResult
// @Router /notifications/test [post]
func (h *NotificationHandler) SendTest(c *gin.Context) {
	respondSend(c, h.notificationService.SendTest(c.Request.Context()))
}

// Stats godoc
// @Summary Audience size and recent notifications
// @Tags Notifications
// @Produce json
// @Success 200 {object} model.NotificationStats
// @Router /notifications/stats [get]
func (h *NotificationHandler) Stats(c *gin.Context) {
	stats, err := h.notificationService.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to load stats", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Logs godoc
// @Summary Page through the notification log
// @Tags Notifications
// @Produce json
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]interface{}
// @Router /notifications/logs [get]
func (h *NotificationHandler) Logs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	logs, total, err := h.notificationService.ListLogs(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to load logs", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "total": total})
}

func respondSend(c *gin.Context, result model.SendResult) {
	if !result.Success {
		c.JSON(http.StatusBadGateway, result)
		return
	}
	c.JSON(http.StatusOK, result)
}
