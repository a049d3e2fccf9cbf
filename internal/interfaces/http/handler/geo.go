package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/retailcore/shipping/internal/domain/geo"
)

// GeoHandler handles administrative geography endpoints. The canonical
// directory is served from the embedded dataset; carrier-sourced region
// listings are proxied through the gateway by the shipment endpoints.
type GeoHandler struct {
	BaseHandler
}

// NewGeoHandler creates a new GeoHandler
func NewGeoHandler() *GeoHandler {
	return &GeoHandler{}
}

// GeoDatasetResponse wraps a directory listing with its dataset revision
type GeoDatasetResponse struct {
	Version string `json:"version" example:"2025-07"`
	Items   any    `json:"items"`
}

// ListProvinces godoc
//
//	@ID			listProvinces
//	@Summary	List canonical provinces
//	@Description	The fixed post-2025-reorganization province list
//	@Tags		geo
//	@Produce	json
//	@Success	200	{object}	APIResponse[GeoDatasetResponse]
//	@Router		/geo/provinces [get]
func (h *GeoHandler) ListProvinces(c *gin.Context) {
	h.Success(c, GeoDatasetResponse{
		Version: geo.DatasetVersion,
		Items:   geo.Provinces(),
	})
}

// ListDistricts godoc
//
//	@ID			listDistricts
//	@Summary	List districts of a province
//	@Tags		geo
//	@Produce	json
//	@Param		province_id	query		int	true	"Province ID"
//	@Success	200			{object}	APIResponse[GeoDatasetResponse]
//	@Failure	400			{object}	ErrorResponse
//	@Router		/geo/districts [get]
func (h *GeoHandler) ListDistricts(c *gin.Context) {
	provinceID, err := strconv.Atoi(c.Query("province_id"))
	if err != nil {
		h.BadRequest(c, "Invalid province ID")
		return
	}
	h.Success(c, GeoDatasetResponse{
		Version: geo.DatasetVersion,
		Items:   geo.DistrictsOf(provinceID),
	})
}

// ListWards godoc
//
//	@ID			listWards
//	@Summary	List wards of a district
//	@Tags		geo
//	@Produce	json
//	@Param		district_id	query		int	true	"District ID"
//	@Success	200			{object}	APIResponse[GeoDatasetResponse]
//	@Failure	400			{object}	ErrorResponse
//	@Router		/geo/wards [get]
func (h *GeoHandler) ListWards(c *gin.Context) {
	districtID, err := strconv.Atoi(c.Query("district_id"))
	if err != nil {
		h.BadRequest(c, "Invalid district ID")
		return
	}
	h.Success(c, GeoDatasetResponse{
		Version: geo.DatasetVersion,
		Items:   geo.WardsOf(districtID),
	})
}

// SearchDirectory godoc
//
//	@ID			searchGeoDirectory
//	@Summary	Search the administrative directory
//	@Description	Diacritic-insensitive substring search across provinces, districts and wards
//	@Tags		geo
//	@Produce	json
//	@Param		q	query		string	true	"Search query"
//	@Success	200	{object}	APIResponse[[]geo.SearchResult]
//	@Failure	400	{object}	ErrorResponse
//	@Router		/geo/search [get]
func (h *GeoHandler) SearchDirectory(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		h.BadRequest(c, "Missing search query")
		return
	}
	h.Success(c, geo.Search(query))
}

// ValidateAddressRequest is a raw address to resolve against the dataset
type ValidateAddressRequest struct {
	Province    string `json:"province" binding:"required"`
	District    string `json:"district"`
	Ward        string `json:"ward"`
	Street      string `json:"street"`
	Hamlet      string `json:"hamlet"`
	HouseNumber string `json:"house_number"`
}

// ValidateAddress godoc
//
//	@ID				validateAddress
//	@Summary		Canonicalize and validate an address
//	@Description	Resolves aliases from the pre-reorganization naming and reports how the province matched
//	@Tags			geo
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ValidateAddressRequest	true	"Raw address"
//	@Success		200		{object}	APIResponse[geo.ValidationResult]
//	@Failure		400		{object}	ErrorResponse
//	@Router			/geo/validate [post]
func (h *GeoHandler) ValidateAddress(c *gin.Context) {
	var req ValidateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result := geo.Validate(geo.Address{
		Province:    req.Province,
		District:    req.District,
		Ward:        req.Ward,
		Street:      req.Street,
		Hamlet:      req.Hamlet,
		HouseNumber: req.HouseNumber,
	})
	h.Success(c, result)
}

// RegisterRoutes registers all geo routes
func (h *GeoHandler) RegisterRoutes(rg *gin.RouterGroup) {
	geoGroup := rg.Group("/geo")
	{
		geoGroup.GET("/provinces", h.ListProvinces)
		geoGroup.GET("/districts", h.ListDistricts)
		geoGroup.GET("/wards", h.ListWards)
		geoGroup.GET("/search", h.SearchDirectory)
		geoGroup.POST("/validate", h.ValidateAddress)
	}
}
