package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tripguard/internal/domain"
	"tripguard/internal/middleware"
	"tripguard/internal/service"
)

// AdminHandler handles HTTP requests for disputes and appeals.
type AdminHandler struct {
	adminService *service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// DisputeResponse is the HTTP representation of a dispute.
type DisputeResponse struct {
	DisputeID       string  `json:"dispute_id"`
	TripID          string  `json:"trip_id"`
	HoldID          string  `json:"hold_id"`
	RaisedBy        string  `json:"raised_by"`
	Status          string  `json:"status"`
	Description     string  `json:"description,omitempty"`
	RequestedAmount float64 `json:"requested_amount,omitempty"`
	Resolution      string  `json:"resolution,omitempty"`
	ResolvedBy      string  `json:"resolved_by,omitempty"`
	CreatedAt       string  `json:"created_at"`
	ResolvedAt      string  `json:"resolved_at,omitempty"`
}

func toDisputeResponse(dispute *domain.Dispute) DisputeResponse {
	resp := DisputeResponse{
		DisputeID:       dispute.ID,
		TripID:          dispute.TripID,
		HoldID:          dispute.HoldID,
		RaisedBy:        dispute.RaisedBy,
		Status:          string(dispute.Status),
		Description:     dispute.Description,
		RequestedAmount: dispute.RequestedAmount,
		Resolution:      dispute.Resolution,
		ResolvedBy:      dispute.ResolvedBy,
		CreatedAt:       dispute.CreatedAt.Format(time.RFC3339),
	}
	if !dispute.ResolvedAt.IsZero() {
		resp.ResolvedAt = dispute.ResolvedAt.Format(time.RFC3339)
	}
	return resp
}

// AppealResponse is the HTTP representation of an appeal.
type AppealResponse struct {
	AppealID     string `json:"appeal_id"`
	DriverID     string `json:"driver_id"`
	StrikeID     string `json:"strike_id,omitempty"`
	SuspensionID string `json:"suspension_id,omitempty"`
	Status       string `json:"status"`
	Description  string `json:"description,omitempty"`
	Resolution   string `json:"resolution,omitempty"`
	ResolvedBy   string `json:"resolved_by,omitempty"`
	CreatedAt    string `json:"created_at"`
	ResolvedAt   string `json:"resolved_at,omitempty"`
}

func toAppealResponse(appeal *domain.Appeal) AppealResponse {
	resp := AppealResponse{
		AppealID:     appeal.ID,
		DriverID:     appeal.DriverID,
		StrikeID:     appeal.StrikeID,
		SuspensionID: appeal.SuspensionID,
		Status:       string(appeal.Status),
		Description:  appeal.Description,
		Resolution:   appeal.Resolution,
		ResolvedBy:   appeal.ResolvedBy,
		CreatedAt:    appeal.CreatedAt.Format(time.RFC3339),
	}
	if !appeal.ResolvedAt.IsZero() {
		resp.ResolvedAt = appeal.ResolvedAt.Format(time.RFC3339)
	}
	return resp
}

// OpenDisputeRequest is the payload for a rider opening a dispute.
type OpenDisputeRequest struct {
	TripID          string  `json:"trip_id" binding:"required"`
	RiderID         string  `json:"rider_id" binding:"required"`
	Description     string  `json:"description"`
	RequestedAmount float64 `json:"requested_amount"`
}

// OpenDispute handles POST /v1/disputes
func (h *AdminHandler) OpenDispute(c *gin.Context) {
	var req OpenDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidTripID)
		return
	}

	dispute, err := h.adminService.OpenDispute(c.Request.Context(), service.OpenDisputeRequest{
		TripID:          req.TripID,
		RiderID:         req.RiderID,
		Description:     req.Description,
		RequestedAmount: req.RequestedAmount,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toDisputeResponse(dispute))
}

// ResolveDisputeRequest is the payload for an admin dispute decision.
type ResolveDisputeRequest struct {
	Approve      bool    `json:"approve"`
	RefundAmount float64 `json:"refund_amount"`
	Resolution   string  `json:"resolution"`
	IssueStrike  bool    `json:"issue_strike"`
	StrikeType   string  `json:"strike_type"`
	StrikeReason string  `json:"strike_reason"`
}

// ResolveDispute handles POST /v1/admin/disputes/:id/resolve
func (h *AdminHandler) ResolveDispute(c *gin.Context) {
	var req ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	dispute, err := h.adminService.ResolveDispute(c.Request.Context(), service.ResolveDisputeRequest{
		AdminID:      middleware.AdminID(c),
		DisputeID:    c.Param("id"),
		Approve:      req.Approve,
		RefundAmount: req.RefundAmount,
		Resolution:   req.Resolution,
		IssueStrike:  req.IssueStrike,
		StrikeType:   domain.StrikeType(req.StrikeType),
		StrikeReason: req.StrikeReason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDisputeResponse(dispute))
}

// OpenAppealRequest is the payload for a driver opening an appeal.
type OpenAppealRequest struct {
	DriverID     string `json:"driver_id" binding:"required"`
	StrikeID     string `json:"strike_id"`
	SuspensionID string `json:"suspension_id"`
	Description  string `json:"description"`
}

// OpenAppeal handles POST /v1/appeals
func (h *AdminHandler) OpenAppeal(c *gin.Context) {
	var req OpenAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidDriverID)
		return
	}

	appeal, err := h.adminService.OpenAppeal(c.Request.Context(), service.OpenAppealRequest{
		DriverID:     req.DriverID,
		StrikeID:     req.StrikeID,
		SuspensionID: req.SuspensionID,
		Description:  req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toAppealResponse(appeal))
}

// ResolveAppealRequest is the payload for an admin appeal decision.
type ResolveAppealRequest struct {
	Approve    bool   `json:"approve"`
	Resolution string `json:"resolution"`
}

// ResolveAppeal handles POST /v1/admin/appeals/:id/resolve
func (h *AdminHandler) ResolveAppeal(c *gin.Context) {
	var req ResolveAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	appeal, err := h.adminService.ResolveAppeal(c.Request.Context(), service.ResolveAppealRequest{
		AdminID:    middleware.AdminID(c),
		AppealID:   c.Param("id"),
		Approve:    req.Approve,
		Resolution: req.Resolution,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toAppealResponse(appeal))
}
