package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	shippingapp "github.com/retailcore/shipping/internal/application/shipping"
	"github.com/retailcore/shipping/internal/interfaces/http/dto"
)

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	startTime       time.Time
	shipmentService *shippingapp.ShipmentService
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(shipmentService *shippingapp.ShipmentService) *SystemHandler {
	return &SystemHandler{
		startTime:       time.Now(),
		shipmentService: shipmentService,
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name" example:"Shipping Gateway API"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// GetSystemInfo godoc
// @ID           getSystemSystemInfo
// @Summary      Get system information
// @Description  Returns basic system information including version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      "Shipping Gateway API",
		Version:   "1.0.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @ID           pingSystem
// @Summary      Ping the API
// @Description  Simple ping endpoint to check if the API is responsive
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[PingResponse]
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	response := PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}

// CarrierHealthResponse represents the carrier connectivity check response
type CarrierHealthResponse struct {
	Carrier string `json:"carrier" example:"ghtk"`
	Status  string `json:"status" example:"ok"`
	Time    string `json:"time" example:"2026-01-23T12:00:00Z"`
}

// CarrierHealth godoc
// @ID           getCarrierHealth
// @Summary      Check carrier connectivity
// @Description  Verifies that the carrier accepts the configured credentials
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[CarrierHealthResponse]
// @Failure      503 {object} ErrorResponse
// @Router       /system/carrier [get]
func (h *SystemHandler) CarrierHealth(c *gin.Context) {
	if err := h.shipmentService.CarrierHealth(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(CarrierHealthResponse{
		Carrier: "ghtk",
		Status:  "ok",
		Time:    time.Now().Format(time.RFC3339),
	}))
}

// RegisterRoutes registers all system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	system := rg.Group("/system")
	{
		system.GET("/info", h.GetSystemInfo)
		system.GET("/ping", h.Ping)
		system.GET("/carrier", h.CarrierHealth)
	}
}
