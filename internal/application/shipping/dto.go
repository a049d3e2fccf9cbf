package shipping

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/shipping/internal/domain/geo"
	"github.com/retailcore/shipping/internal/domain/shipping"
)

// AddressInput carries one postal address as entered by the back office
type AddressInput struct {
	Province    string `json:"province" binding:"required,min=1,max=100"`
	District    string `json:"district" binding:"required,min=1,max=100"`
	Ward        string `json:"ward" binding:"max=100"`
	Street      string `json:"street" binding:"max=200"`
	Hamlet      string `json:"hamlet" binding:"max=100"`
	HouseNumber string `json:"house_number" binding:"max=50"`
}

func (a AddressInput) toDomain() geo.Address {
	return geo.Address{
		Province:    a.Province,
		District:    a.District,
		Ward:        a.Ward,
		Street:      a.Street,
		Hamlet:      a.Hamlet,
		HouseNumber: a.HouseNumber,
	}
}

// FeeQuoteRequest asks for a delivery fee estimate
type FeeQuoteRequest struct {
	PickAddress    AddressInput    `json:"pick_address" binding:"required"`
	DeliverAddress AddressInput    `json:"deliver_address" binding:"required"`
	WeightGrams    int             `json:"weight_grams" binding:"required,min=1"`
	DeclaredValue  decimal.Decimal `json:"declared_value"`
	Transport      string          `json:"transport" binding:"omitempty,oneof=road fly"`
	Tags           []int           `json:"tags"`
}

// FeeQuoteResponse is the carrier's fee answer
type FeeQuoteResponse struct {
	Fee          decimal.Decimal `json:"fee"`
	InsuranceFee decimal.Decimal `json:"insurance_fee"`
	Deliverable  bool            `json:"deliverable"`
	DeliverType  string          `json:"deliver_type,omitempty"`
}

// ParcelItemInput is one product line inside a shipment
type ParcelItemInput struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	WeightGrams int    `json:"weight_grams" binding:"required,min=1"`
	Quantity    int    `json:"quantity" binding:"required,min=1"`
	ProductCode string `json:"product_code" binding:"max=50"`
}

// CreateShipmentRequest submits a new delivery order
type CreateShipmentRequest struct {
	LocalOrderID   string            `json:"local_order_id" binding:"required,min=1,max=64"`
	Items          []ParcelItemInput `json:"items" binding:"required,min=1,dive"`
	PickName       string            `json:"pick_name" binding:"required,min=1,max=200"`
	PickPhone      string            `json:"pick_phone" binding:"required,min=8,max=20"`
	PickAddress    AddressInput      `json:"pick_address" binding:"required"`
	DeliverName    string            `json:"deliver_name" binding:"required,min=1,max=200"`
	DeliverPhone   string            `json:"deliver_phone" binding:"required,min=8,max=20"`
	DeliverAddress AddressInput      `json:"deliver_address" binding:"required"`
	CODAmount      decimal.Decimal   `json:"cod_amount"`
	DeclaredValue  decimal.Decimal   `json:"declared_value"`
	Transport      string            `json:"transport" binding:"omitempty,oneof=road fly"`
	ServiceTier    string            `json:"service_tier" binding:"omitempty,oneof=none xteam"`
	IsFreeship     bool              `json:"is_freeship"`
	Note           string            `json:"note" binding:"max=500"`
}

// ShipmentResponse represents a shipping order in API responses
type ShipmentResponse struct {
	ID               uuid.UUID       `json:"id"`
	TenantID         uuid.UUID       `json:"tenant_id"`
	Carrier          string          `json:"carrier"`
	LocalOrderID     *string         `json:"local_order_id"`
	CarrierOrderCode *string         `json:"carrier_order_code"`
	Status           string          `json:"status"`
	Fee              decimal.Decimal `json:"fee"`
	ServiceTier      string          `json:"service_tier,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// CreateShipmentResponse is the outcome of a creation call. AlreadyExisted
// is true when the local order id matched a previously created shipment and
// no new carrier order was submitted.
type CreateShipmentResponse struct {
	ShipmentResponse
	EstimatedPickTime    string `json:"estimated_pick_time,omitempty"`
	EstimatedDeliverTime string `json:"estimated_deliver_time,omitempty"`
	AddressVariant       int    `json:"address_variant,omitempty"`
	AlreadyExisted       bool   `json:"already_existed"`
}

// TrackingResponse is the carrier's current view of a shipment
type TrackingResponse struct {
	CarrierOrderCode string          `json:"carrier_order_code"`
	LocalOrderID     string          `json:"local_order_id,omitempty"`
	StatusID         int             `json:"status_id"`
	Status           string          `json:"status"`
	PickDate         string          `json:"pick_date,omitempty"`
	DeliverDate      string          `json:"deliver_date,omitempty"`
	ShipMoney        decimal.Decimal `json:"ship_money"`
	IsReturn         bool            `json:"is_return"`
}

// ShipmentListFilter represents filter options for shipment listing
type ShipmentListFilter struct {
	Status   string `form:"status"`
	SortBy   string `form:"sort_by"`
	SortDir  string `form:"sort_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ShipmentListResponse wraps a page of shipments
type ShipmentListResponse struct {
	Items []ShipmentResponse `json:"items"`
	Total int64              `json:"total"`
}

// ShipmentEventResponse is one entry on a shipment's timeline
type ShipmentEventResponse struct {
	ID         uuid.UUID `json:"id"`
	EventType  string    `json:"event_type"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    string    `json:"payload,omitempty"`
}

// CancelShipmentRequest cancels a shipment at the carrier
type CancelShipmentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// SyncRequest asks for a carrier-state refresh of the given order codes
type SyncRequest struct {
	Codes []string `json:"codes" binding:"required,min=1,max=100,dive,min=1"`
}

// VerifyPurgeRequest optionally narrows a verification pass to specific
// codes. An absent or empty list verifies every stored order of the tenant.
type VerifyPurgeRequest struct {
	Codes []string `json:"codes" binding:"omitempty,max=100,dive,min=1"`
}

// SyncItemResult is the per-code outcome of a sync or purge pass
type SyncItemResult struct {
	CarrierOrderCode string `json:"carrier_order_code"`
	Outcome          string `json:"outcome"` // synced, purged, kept, failed
	Status           string `json:"status,omitempty"`
	Error            string `json:"error,omitempty"`
}

// SyncResponse summarizes a sync or verify-and-purge pass
type SyncResponse struct {
	Results []SyncItemResult `json:"results"`
}

// PickAddressResponse is a registered pickup point
type PickAddressResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// ToShipmentResponse converts a domain ShippingOrder to ShipmentResponse
func ToShipmentResponse(o *shipping.ShippingOrder) ShipmentResponse {
	return ShipmentResponse{
		ID:               o.ID,
		TenantID:         o.TenantID,
		Carrier:          o.Carrier,
		LocalOrderID:     o.LocalOrderID,
		CarrierOrderCode: o.CarrierOrderCode,
		Status:           o.Status,
		Fee:              o.Fee,
		ServiceTier:      o.ServiceTier,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

// ToShipmentEventResponse converts a domain ShippingEvent to its API shape
func ToShipmentEventResponse(e *shipping.ShippingEvent) ShipmentEventResponse {
	return ShipmentEventResponse{
		ID:         e.ID,
		EventType:  e.EventType,
		Status:     e.Status,
		OccurredAt: e.OccurredAt,
		Payload:    e.Payload,
	}
}
