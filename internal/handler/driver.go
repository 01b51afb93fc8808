package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tripguard/internal/domain"
	"tripguard/internal/repository"
	"tripguard/internal/service"
)

// DriverHandler handles HTTP requests for driver registration, the online
// toggle, and the eligibility view.
type DriverHandler struct {
	driverRepo repository.DriverRepository
	engine     *service.SuspensionEngine
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverRepo repository.DriverRepository, engine *service.SuspensionEngine) *DriverHandler {
	return &DriverHandler{driverRepo: driverRepo, engine: engine}
}

// DriverResponse is the HTTP representation of a driver.
type DriverResponse struct {
	DriverID   string              `json:"driver_id"`
	Name       string              `json:"name"`
	Phone      string              `json:"phone,omitempty"`
	Status     string              `json:"status"`
	Eligible   bool                `json:"eligible"`
	Suspension *SuspensionResponse `json:"suspension,omitempty"`
}

// SuspensionResponse is the HTTP representation of an active suspension.
type SuspensionResponse struct {
	SuspensionID string `json:"suspension_id"`
	Type         string `json:"type"`
	Reason       string `json:"reason"`
	StartedAt    string `json:"started_at"`
	ExpiresAt    string `json:"expires_at,omitempty"`
}

// RegisterDriverRequest is the payload for driver registration.
type RegisterDriverRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

// Register handles POST /v1/drivers/register
func (h *DriverHandler) Register(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	driver := &domain.Driver{
		ID:       uuid.New().String(),
		Name:     req.Name,
		Phone:    req.Phone,
		Status:   domain.DriverStatusOffline,
		Eligible: true,
	}
	if err := h.driverRepo.Create(c.Request.Context(), driver); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, DriverResponse{
		DriverID: driver.ID,
		Name:     driver.Name,
		Phone:    driver.Phone,
		Status:   string(driver.Status),
		Eligible: driver.Eligible,
	})
}

// GoOnline handles POST /v1/drivers/:id/online. A suspended driver cannot go
// online; the attempt is rejected rather than silently ignored.
func (h *DriverHandler) GoOnline(c *gin.Context) {
	driverID := c.Param("id")

	err := h.driverRepo.SetStatus(c.Request.Context(), driverID, domain.DriverStatusOnline)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			respondError(c, service.ErrDriverSuspended)
			return
		}
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"driver_id": driverID, "status": string(domain.DriverStatusOnline)})
}

// GoOffline handles POST /v1/drivers/:id/offline
func (h *DriverHandler) GoOffline(c *gin.Context) {
	driverID := c.Param("id")

	if err := h.driverRepo.SetStatus(c.Request.Context(), driverID, domain.DriverStatusOffline); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"driver_id": driverID, "status": string(domain.DriverStatusOffline)})
}

// GetDriver handles GET /v1/drivers/:id, returning the driver together with
// any active suspension.
func (h *DriverHandler) GetDriver(c *gin.Context) {
	driverID := c.Param("id")

	driver, err := h.driverRepo.GetByID(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := DriverResponse{
		DriverID: driver.ID,
		Name:     driver.Name,
		Phone:    driver.Phone,
		Status:   string(driver.Status),
		Eligible: driver.Eligible,
	}

	suspension, err := h.engine.GetActive(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, err)
		return
	}
	if suspension != nil {
		response.Suspension = &SuspensionResponse{
			SuspensionID: suspension.ID,
			Type:         string(suspension.Type),
			Reason:       suspension.Reason,
			StartedAt:    suspension.StartedAt.Format(time.RFC3339),
		}
		if !suspension.ExpiresAt.IsZero() {
			response.Suspension.ExpiresAt = suspension.ExpiresAt.Format(time.RFC3339)
		}
	}

	respondJSON(c, http.StatusOK, response)
}
