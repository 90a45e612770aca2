package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quocanhngo/sportcast/internal/model"
	"github.com/quocanhngo/sportcast/internal/service"
)

// TickRunner runs one lifecycle and retention pass on demand
type TickRunner interface {
	RunOnce(ctx context.Context) (model.TickReport, error)
}

// MatchHandler handles match endpoints
type MatchHandler struct {
	matchService *service.MatchService
	ticks        TickRunner
}

func NewMatchHandler(matchService *service.MatchService, ticks TickRunner) *MatchHandler {
	return &MatchHandler{matchService: matchService, ticks: ticks}
}

// List godoc
// @Summary List matches
// @Tags Matches
// @Produce json
// @Success 200 {array} model.Match
// @Router /matches [get]
func (h *MatchHandler) List(c *gin.Context) {
	matches, err := h.matchService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to load matches", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, matches)
}

// Timeline godoc
// @Summary Matches grouped by date
// @Tags Matches
// @Produce json
// @Success 200 {array} model.TimelineDay
// @Router /matches/timeline [get]
func (h *MatchHandler) Timeline(c *gin.Context) {
	days, err := h.matchService.Timeline(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to load matches", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, days)
}

// Get godoc
// @Summary Get a match
// @Tags Matches
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {object} model.Match
// @Failure 404 {object} model.ErrorResponse
// @Router /matches/{id} [get]
func (h *MatchHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	match, err := h.matchService.Get(c.Request.Context(), id)
	if err != nil {
		respondMatchError(c, err)
		return
	}
	c.JSON(http.StatusOK, match)
}

// Create godoc
// @Summary Create a match
// @Tags Matches
// @Accept json
// @Produce json
// @Param body body model.CreateMatchRequest true "Match"
// @Success 201 {object} model.Match
// @Failure 400 {object} model.ErrorResponse
// @Router /matches [post]
func (h *MatchHandler) Create(c *gin.Context) {
	var req model.CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}
	match, err := h.matchService.Create(c.Request.Context(), req)
	if err != nil {
		respondMatchError(c, err)
		return
	}
	c.JSON(http.StatusCreated, match)
}

// Update godoc
// @Summary Update a match
// @Description Setting status to live sends the live notification if it was not sent yet.
// @Tags Matches
// @Accept json
// @Produce json
// @Param id path string true "Match ID"
// @Param body body model.UpdateMatchRequest true "Fields to change"
// @Success 200 {object} model.Match
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /matches/{id} [put]
func (h *MatchHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req model.UpdateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}
	match, err := h.matchService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondMatchError(c, err)
		return
	}
	c.JSON(http.StatusOK, match)
}

// SetActive godoc
// @Summary Enable or disable a match
// @Tags Matches
// @Accept json
// @Produce json
// @Param id path string true "Match ID"
// @Param body body model.SetActiveRequest true "Active flag"
// @Success 200 {object} model.Match
// @Router /matches/{id}/active [patch]
func (h *MatchHandler) SetActive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req model.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}
	match, err := h.matchService.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondMatchError(c, err)
		return
	}
	c.JSON(http.StatusOK, match)
}

// Delete godoc
// @Summary Delete a match
// @Tags Matches
// @Param id path string true "Match ID"
// @Success 200 {object} model.SuccessResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /matches/{id} [delete]
func (h *MatchHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.matchService.Delete(c.Request.Context(), id); err != nil {
		respondMatchError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Match deleted"})
}

// Refresh godoc
// @Summary Run the status and reminder pass now
// @Tags Matches
// @Produce json
// @Success 200 {object} model.TickReport
// @Failure 409 {object} model.ErrorResponse
// @Router /matches/refresh [post]
func (h *MatchHandler) Refresh(c *gin.Context) {
	report, err := h.ticks.RunOnce(c.Request.Context())
	if errors.Is(err, service.ErrTickInFlight) {
		c.JSON(http.StatusConflict, model.ErrorResponse{Error: "Refresh already running", Message: err.Error()})
		return
	}
	// Per-match errors are reported in the body; the pass itself completed
	c.JSON(http.StatusOK, report)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid ID"})
		return uuid.Nil, false
	}
	return id, true
}

func respondMatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMatchNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Match not found"})
	case errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Internal error", Message: err.Error()})
	}
}
