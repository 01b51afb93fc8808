package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"tripguard/internal/service"
)

const signatureHeader = "X-Webhook-Signature"

// WebhookHandler receives asynchronous payment processor events.
type WebhookHandler struct {
	webhookService *service.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookService *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

// HandlePaymentEvent handles POST /v1/webhooks/payment. The raw body is
// verified against the signature header before anything in it is trusted.
// A 2xx acknowledges the event; the processor retries anything else.
func (h *WebhookHandler) HandlePaymentEvent(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, err)
		return
	}

	signature := c.GetHeader(signatureHeader)
	if err := h.webhookService.VerifyAndReconcile(c.Request.Context(), payload, signature); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"received": true})
}
