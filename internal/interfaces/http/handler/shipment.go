package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	shippingapp "github.com/retailcore/shipping/internal/application/shipping"
	"github.com/retailcore/shipping/internal/domain/shipping"
)

// ShipmentHandler handles shipment-related API endpoints
type ShipmentHandler struct {
	BaseHandler
	shipmentService *shippingapp.ShipmentService
}

// NewShipmentHandler creates a new ShipmentHandler
func NewShipmentHandler(shipmentService *shippingapp.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{
		shipmentService: shipmentService,
	}
}

// QuoteFee godoc
//
//	@ID				quoteShippingFee
//	@Summary		Quote a delivery fee
//	@Description	Ask the carrier for a fee estimate for a pick/deliver address pair
//	@Tags			shipments
//	@Accept			json
//	@Produce		json
//	@Param			request	body		shippingapp.FeeQuoteRequest	true	"Fee quote request"
//	@Success		200		{object}	APIResponse[shippingapp.FeeQuoteResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/shipments/fee [post]
func (h *ShipmentHandler) QuoteFee(c *gin.Context) {
	var req shippingapp.FeeQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	quote, err := h.shipmentService.QuoteFee(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// CreateShipment godoc
//
//	@ID				createShipment
//	@Summary		Create a shipment
//	@Description	Submit a delivery order to the carrier, idempotently on the local order id
//	@Tags			shipments
//	@Accept			json
//	@Produce		json
//	@Param			request	body		shippingapp.CreateShipmentRequest	true	"Shipment request"
//	@Success		200		{object}	APIResponse[shippingapp.CreateShipmentResponse]	"Shipment already existed"
//	@Success		201		{object}	APIResponse[shippingapp.CreateShipmentResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse	"Address rejected by carrier"
//	@Router			/shipments [post]
func (h *ShipmentHandler) CreateShipment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req shippingapp.CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.shipmentService.CreateShipment(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if resp.AlreadyExisted {
		h.Success(c, resp)
		return
	}
	h.Created(c, resp)
}

// ListShipments godoc
//
//	@ID			listShipments
//	@Summary	List shipments
//	@Tags		shipments
//	@Produce	json
//	@Param		status		query		string	false	"Filter by status"
//	@Param		page		query		int		false	"Page number"
//	@Param		page_size	query		int		false	"Page size"
//	@Success	200			{object}	APIResponse[[]shippingapp.ShipmentResponse]
//	@Router		/shipments [get]
func (h *ShipmentHandler) ListShipments(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter shippingapp.ShipmentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.shipmentService.ListShipments(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, resp.Items, resp.Total, page, pageSize)
}

// GetShipment godoc
//
//	@ID			getShipment
//	@Summary	Get a shipment
//	@Tags		shipments
//	@Produce	json
//	@Param		code	path		string	true	"Carrier order code"
//	@Success	200		{object}	APIResponse[shippingapp.ShipmentResponse]
//	@Failure	404		{object}	ErrorResponse
//	@Router		/shipments/{code} [get]
func (h *ShipmentHandler) GetShipment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	resp, err := h.shipmentService.GetShipment(c.Request.Context(), tenantID, c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetTimeline godoc
//
//	@ID			getShipmentTimeline
//	@Summary	Get a shipment's event timeline
//	@Description	Events are ordered by when they occurred, not when they were recorded
//	@Tags		shipments
//	@Produce	json
//	@Param		code	path		string	true	"Carrier order code"
//	@Success	200		{object}	APIResponse[[]shippingapp.ShipmentEventResponse]
//	@Router		/shipments/{code}/events [get]
func (h *ShipmentHandler) GetTimeline(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	events, err := h.shipmentService.Timeline(c.Request.Context(), tenantID, c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, events)
}

// Track godoc
//
//	@ID			trackShipment
//	@Summary	Track a shipment
//	@Description	Fetch the carrier's live status and fold it into the local record
//	@Tags		shipments
//	@Produce	json
//	@Param		code	path		string	true	"Carrier order code"
//	@Success	200		{object}	APIResponse[shippingapp.TrackingResponse]
//	@Failure	404		{object}	ErrorResponse
//	@Router		/shipments/{code}/tracking [get]
func (h *ShipmentHandler) Track(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	resp, err := h.shipmentService.Track(c.Request.Context(), tenantID, c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetLabel godoc
//
//	@ID			getShipmentLabel
//	@Summary	Download a shipment label
//	@Description	Streams the label PDF from the carrier without buffering it
//	@Tags		shipments
//	@Produce	application/pdf
//	@Param		code		path	string	true	"Carrier order code"
//	@Param		original	query	string	false	"Orientation: portrait or landscape"
//	@Param		page_size	query	string	false	"Paper size: A5 or A6"
//	@Success	200	{file}		binary
//	@Failure	404	{object}	ErrorResponse
//	@Router		/shipments/{code}/label [get]
func (h *ShipmentHandler) GetLabel(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	opts := shipping.LabelOptions{
		Original: c.Query("original"),
		PageSize: c.Query("page_size"),
	}
	doc, err := h.shipmentService.GetLabel(c.Request.Context(), tenantID, c.Param("code"), opts)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer doc.Body.Close()

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", "inline")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, doc.Body); err != nil {
		// headers are already on the wire, nothing sensible left to send
		c.Abort()
	}
}

// CancelShipment godoc
//
//	@ID				cancelShipment
//	@Summary		Cancel a shipment
//	@Tags			shipments
//	@Accept			json
//	@Produce		json
//	@Param			code	path		string								true	"Carrier order code"
//	@Param			request	body		shippingapp.CancelShipmentRequest	false	"Cancel reason"
//	@Success		200		{object}	SuccessResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/shipments/{code}/cancel [post]
func (h *ShipmentHandler) CancelShipment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req shippingapp.CancelShipmentRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.shipmentService.CancelShipment(c.Request.Context(), tenantID, c.Param("code"), req.Reason); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"cancelled": true})
}

// SyncShipments godoc
//
//	@ID				syncShipments
//	@Summary		Sync shipments from the carrier
//	@Description	Refresh local rows for the given carrier order codes from the carrier's live state
//	@Tags			shipments
//	@Accept			json
//	@Produce		json
//	@Param			request	body		shippingapp.SyncRequest	true	"Codes to sync"
//	@Success		200		{object}	APIResponse[shippingapp.SyncResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Router			/shipments/sync [post]
func (h *ShipmentHandler) SyncShipments(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req shippingapp.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.shipmentService.SyncByCodes(c.Request.Context(), tenantID, req.Codes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// VerifyAndPurge godoc
//
//	@ID				verifyAndPurgeShipments
//	@Summary		Verify shipments and purge unknown ones
//	@Description	Delete local rows the carrier no longer recognizes; transient carrier failures keep the row. Without a body every stored order of the tenant is verified.
//	@Tags			shipments
//	@Accept			json
//	@Produce		json
//	@Param			request	body		shippingapp.VerifyPurgeRequest	false	"Optional codes to narrow the pass"
//	@Success		200		{object}	APIResponse[shippingapp.SyncResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Router			/shipments/verify-purge [post]
func (h *ShipmentHandler) VerifyAndPurge(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	// the body is optional; no body means the whole tenant
	var req shippingapp.VerifyPurgeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	resp, err := h.shipmentService.VerifyAndPurge(c.Request.Context(), tenantID, req.Codes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListPickAddresses godoc
//
//	@ID			listPickAddresses
//	@Summary	List registered pickup points
//	@Tags		shipments
//	@Produce	json
//	@Success	200	{object}	APIResponse[[]shippingapp.PickAddressResponse]
//	@Router		/shipments/pick-addresses [get]
func (h *ShipmentHandler) ListPickAddresses(c *gin.Context) {
	addrs, err := h.shipmentService.ListPickAddresses(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, addrs)
}

// RegisterRoutes registers all shipment routes
func (h *ShipmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	shipments := rg.Group("/shipments")
	{
		shipments.POST("", h.CreateShipment)
		shipments.GET("", h.ListShipments)
		shipments.POST("/fee", h.QuoteFee)
		shipments.POST("/sync", h.SyncShipments)
		shipments.POST("/verify-purge", h.VerifyAndPurge)
		shipments.GET("/pick-addresses", h.ListPickAddresses)
		shipments.GET("/:code", h.GetShipment)
		shipments.GET("/:code/events", h.GetTimeline)
		shipments.GET("/:code/tracking", h.Track)
		shipments.GET("/:code/label", h.GetLabel)
		shipments.POST("/:code/cancel", h.CancelShipment)
	}
}
