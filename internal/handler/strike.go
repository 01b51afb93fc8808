package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tripguard/internal/domain"
	"tripguard/internal/service"
)

// StrikeHandler handles HTTP requests for safety strikes.
type StrikeHandler struct {
	strikeService *service.StrikeService
}

// NewStrikeHandler creates a new StrikeHandler.
func NewStrikeHandler(strikeService *service.StrikeService) *StrikeHandler {
	return &StrikeHandler{strikeService: strikeService}
}

// StrikeResponse is the HTTP representation of a strike.
type StrikeResponse struct {
	StrikeID  string `json:"strike_id"`
	DriverID  string `json:"driver_id"`
	TripID    string `json:"trip_id"`
	Type      string `json:"type"`
	Reason    string `json:"reason"`
	Severity  string `json:"severity"`
	Status    string `json:"status"`
	IssuedAt  string `json:"issued_at"`
	ExpiresAt string `json:"expires_at"`
}

func toStrikeResponse(strike *domain.Strike) StrikeResponse {
	return StrikeResponse{
		StrikeID:  strike.ID,
		DriverID:  strike.DriverID,
		TripID:    strike.TripID,
		Type:      string(strike.Type),
		Reason:    strike.Reason,
		Severity:  string(strike.Severity),
		Status:    string(strike.Status),
		IssuedAt:  strike.IssuedAt.Format(time.RFC3339),
		ExpiresAt: strike.ExpiresAt.Format(time.RFC3339),
	}
}

// IssueStrikeRequest is the payload for issuing a strike.
type IssueStrikeRequest struct {
	DriverID string `json:"driver_id" binding:"required"`
	TripID   string `json:"trip_id" binding:"required"`
	Type     string `json:"type" binding:"required"`
	Reason   string `json:"reason"`
	Severity string `json:"severity"`
}

// IssueStrike handles POST /v1/admin/strikes
func (h *StrikeHandler) IssueStrike(c *gin.Context) {
	var req IssueStrikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidStrikeType)
		return
	}

	strike, err := h.strikeService.IssueStrike(c.Request.Context(), service.IssueStrikeRequest{
		DriverID: req.DriverID,
		TripID:   req.TripID,
		Type:     domain.StrikeType(req.Type),
		Reason:   req.Reason,
		Severity: domain.StrikeSeverity(req.Severity),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toStrikeResponse(strike))
}

// EnqueueCandidateRequest is the payload for a detector-submitted candidate.
type EnqueueCandidateRequest struct {
	DriverID string `json:"driver_id" binding:"required"`
	TripID   string `json:"trip_id" binding:"required"`
	Type     string `json:"type" binding:"required"`
	Reason   string `json:"reason"`
	Severity string `json:"severity"`
}

// EnqueueCandidate handles POST /v1/strikes/candidates
func (h *StrikeHandler) EnqueueCandidate(c *gin.Context) {
	var req EnqueueCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidStrikeType)
		return
	}

	err := h.strikeService.EnqueueCandidate(c.Request.Context(), &domain.StrikeCandidate{
		DriverID: req.DriverID,
		TripID:   req.TripID,
		Type:     domain.StrikeType(req.Type),
		Reason:   req.Reason,
		Severity: domain.StrikeSeverity(req.Severity),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusAccepted, gin.H{"enqueued": true})
}

// ListDriverStrikes handles GET /v1/drivers/:id/strikes
func (h *StrikeHandler) ListDriverStrikes(c *gin.Context) {
	strikes, err := h.strikeService.ListActive(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]StrikeResponse, 0, len(strikes))
	for _, strike := range strikes {
		response = append(response, toStrikeResponse(strike))
	}

	respondJSON(c, http.StatusOK, response)
}
