package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tripguard/internal/domain"
	"tripguard/internal/service"
)

// TripHandler handles HTTP requests for the trip payment lifecycle.
type TripHandler struct {
	holdService *service.HoldService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(holdService *service.HoldService) *TripHandler {
	return &TripHandler{holdService: holdService}
}

// HoldResponse is the HTTP representation of a payment hold.
type HoldResponse struct {
	HoldID         string  `json:"hold_id"`
	TripID         string  `json:"trip_id"`
	RiderID        string  `json:"rider_id"`
	Amount         float64 `json:"amount"`
	RefundedAmount float64 `json:"refunded_amount,omitempty"`
	Currency       string  `json:"currency"`
	Status         string  `json:"status"`
	Settled        bool    `json:"settled"`
	PlacedAt       string  `json:"placed_at"`
	CapturedAt     string  `json:"captured_at,omitempty"`
	ReleasedAt     string  `json:"released_at,omitempty"`
	RefundedAt     string  `json:"refunded_at,omitempty"`
}

// TransitionResponse is one audit record in a hold's history.
type TransitionResponse struct {
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	Actor      string `json:"actor"`
	Reason     string `json:"reason"`
	OccurredAt string `json:"occurred_at"`
}

func toHoldResponse(hold *domain.PaymentHold) HoldResponse {
	resp := HoldResponse{
		HoldID:         hold.ID,
		TripID:         hold.TripID,
		RiderID:        hold.RiderID,
		Amount:         hold.Amount,
		RefundedAmount: hold.RefundedAmount,
		Currency:       hold.Currency,
		Status:         string(hold.Status),
		Settled:        hold.Settled,
		PlacedAt:       hold.PlacedAt.Format(time.RFC3339),
	}
	if !hold.CapturedAt.IsZero() {
		resp.CapturedAt = hold.CapturedAt.Format(time.RFC3339)
	}
	if !hold.ReleasedAt.IsZero() {
		resp.ReleasedAt = hold.ReleasedAt.Format(time.RFC3339)
	}
	if !hold.RefundedAt.IsZero() {
		resp.RefundedAt = hold.RefundedAt.Format(time.RFC3339)
	}
	return resp
}

// RequestTripRequest is the payload for requesting a trip with payment.
type RequestTripRequest struct {
	TripID        string  `json:"trip_id"`
	RiderID       string  `json:"rider_id" binding:"required"`
	PayerRef      string  `json:"payer_ref" binding:"required"`
	EstimatedFare float64 `json:"estimated_fare" binding:"required"`
	Currency      string  `json:"currency" binding:"required"`
}

// RequestTrip handles POST /v1/trips
func (h *TripHandler) RequestTrip(c *gin.Context) {
	var req RequestTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidTripID)
		return
	}
	if req.TripID == "" {
		req.TripID = uuid.New().String()
	}

	hold, err := h.holdService.RequestTrip(c.Request.Context(), service.RequestTripRequest{
		TripID:        req.TripID,
		RiderID:       req.RiderID,
		PayerRef:      req.PayerRef,
		EstimatedFare: req.EstimatedFare,
		Currency:      req.Currency,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toHoldResponse(hold))
}

// AcceptTripRequest is the payload for a driver accepting a trip.
type AcceptTripRequest struct {
	DriverID string `json:"driver_id" binding:"required"`
}

// AcceptTrip handles POST /v1/trips/:id/accept
func (h *TripHandler) AcceptTrip(c *gin.Context) {
	var req AcceptTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidDriverID)
		return
	}

	hold, err := h.holdService.CaptureOnAccept(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toHoldResponse(hold))
}

// CancelTripRequest is the payload for cancelling a trip before acceptance.
type CancelTripRequest struct {
	Reason string `json:"reason"`
}

// CancelTrip handles POST /v1/trips/:id/cancel
func (h *TripHandler) CancelTrip(c *gin.Context) {
	var req CancelTripRequest
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "cancelled before acceptance"
	}

	hold, err := h.holdService.ReleaseHold(c.Request.Context(), c.Param("id"), req.Reason, domain.ActorSystem)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toHoldResponse(hold))
}

// StartTrip handles POST /v1/trips/:id/start
func (h *TripHandler) StartTrip(c *gin.Context) {
	if err := h.holdService.StartTrip(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"trip_id": c.Param("id"), "status": string(domain.TripStatusInProgress)})
}

// CompleteTrip handles POST /v1/trips/:id/complete
func (h *TripHandler) CompleteTrip(c *gin.Context) {
	if err := h.holdService.CompleteTrip(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"trip_id": c.Param("id"), "status": string(domain.TripStatusCompleted)})
}

// GetHold handles GET /v1/trips/:id/hold
func (h *TripHandler) GetHold(c *gin.Context) {
	hold, transitions, err := h.holdService.GetHold(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	history := make([]TransitionResponse, 0, len(transitions))
	for _, t := range transitions {
		history = append(history, TransitionResponse{
			FromStatus: string(t.FromStatus),
			ToStatus:   string(t.ToStatus),
			Actor:      string(t.Actor),
			Reason:     t.Reason,
			OccurredAt: t.OccurredAt.Format(time.RFC3339),
		})
	}

	respondJSON(c, http.StatusOK, gin.H{
		"hold":        toHoldResponse(hold),
		"transitions": history,
	})
}
