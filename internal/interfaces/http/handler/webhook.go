package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	shippingapp "github.com/retailcore/shipping/internal/application/shipping"
	"github.com/retailcore/shipping/internal/domain/shipping"
)

// Maximum webhook payload size (64KB - carrier status pushes are small)
const maxWebhookPayloadSize = 65536

// SignatureHeader carries the HMAC signature of the webhook body
const SignatureHeader = "X-Webhook-Signature"

// WebhookHandler handles carrier webhook endpoints
// These endpoints are called by the carrier and do not require authentication
// beyond the payload signature
type WebhookHandler struct {
	BaseHandler
	webhookService *shippingapp.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhookService *shippingapp.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// CarrierWebhookResponse represents the response for a carrier status push
type CarrierWebhookResponse struct {
	Received         bool   `json:"received" example:"true"`
	CarrierOrderCode string `json:"carrier_order_code,omitempty" example:"S1.A2.17373471"`
	Status           string `json:"status,omitempty" example:"Đã giao hàng"`
	Duplicate        bool   `json:"duplicate,omitempty"`
	Message          string `json:"message,omitempty"`
}

// HandleCarrierWebhook godoc
//
//	@ID				handleCarrierWebhook
//	@Summary		Handle carrier status push
//	@Description	Receive and process shipment status pushes from the carrier
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			X-Tenant-ID			header		string					true	"Tenant ID"
//	@Param			X-Webhook-Signature	header		string					false	"HMAC-SHA256 signature of the body"
//	@Success		200					{object}	CarrierWebhookResponse	"Push processed or deduplicated"
//	@Failure		400					{object}	CarrierWebhookResponse	"Malformed payload"
//	@Failure		401					{object}	CarrierWebhookResponse	"Invalid signature"
//	@Failure		413					{object}	CarrierWebhookResponse	"Payload too large"
//	@Failure		500					{object}	CarrierWebhookResponse	"Processing failed, safe to redeliver"
//	@Router			/webhooks/carrier [post]
func (h *WebhookHandler) HandleCarrierWebhook(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, CarrierWebhookResponse{
			Received: false,
			Message:  "Missing or invalid tenant ID",
		})
		return
	}

	// The raw body is needed for signature verification, read it with a
	// size limit before any parsing.
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, CarrierWebhookResponse{
			Received: false,
			Message:  "Failed to read request body",
		})
		return
	}
	if len(payload) > maxWebhookPayloadSize {
		c.JSON(http.StatusRequestEntityTooLarge, CarrierWebhookResponse{
			Received: false,
			Message:  "Payload too large",
		})
		return
	}

	signature := c.GetHeader(SignatureHeader)

	result, err := h.webhookService.Process(c.Request.Context(), tenantID, payload, signature)
	if err != nil {
		switch {
		case errors.Is(err, shipping.ErrInvalidSignature):
			c.JSON(http.StatusUnauthorized, CarrierWebhookResponse{
				Received: false,
				Message:  "Webhook signature verification failed",
			})
		case errors.Is(err, shipping.ErrMalformedPayload):
			c.JSON(http.StatusBadRequest, CarrierWebhookResponse{
				Received: false,
				Message:  "Malformed webhook payload",
			})
		default:
			// A non-2xx answer makes the carrier redeliver, which is what
			// we want for transient persistence failures.
			c.JSON(http.StatusInternalServerError, CarrierWebhookResponse{
				Received: false,
				Message:  "Webhook received but processing failed",
			})
		}
		return
	}

	c.JSON(http.StatusOK, CarrierWebhookResponse{
		Received:         true,
		CarrierOrderCode: result.CarrierOrderCode,
		Status:           result.Status,
		Duplicate:        result.Duplicate,
	})
}

// RegisterRoutes registers all webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	webhooks := rg.Group("/webhooks")
	{
		webhooks.POST("/carrier", h.HandleCarrierWebhook)
	}
}
