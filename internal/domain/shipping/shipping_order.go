package shipping

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/shipping/internal/domain/shared"
)

// CarrierGHTK is the single carrier currently modeled
const CarrierGHTK = "ghtk"

// ShippingOrder represents one physical shipment tracked against the carrier.
//
// Identity invariant: once the carrier-assigned order code is known, at most
// one order exists per (tenant, carrier, carrier_order_code). Before the code
// is known, at most one order exists per (tenant, carrier, local_order_id).
// That composite key is the idempotency anchor that prevents a network retry
// from creating a second physical shipment for the same order.
type ShippingOrder struct {
	shared.TenantAggregateRoot
	Carrier          string
	LocalOrderID     *string
	CarrierOrderCode *string
	Status           string
	Fee              decimal.Decimal
	ServiceTier      string
	RequestPayload   string
	ResponsePayload  string
}

// NewShippingOrder creates a shipping order pending carrier acceptance
func NewShippingOrder(tenantID uuid.UUID, carrier string, localOrderID *string) *ShippingOrder {
	return &ShippingOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Carrier:             carrier,
		LocalOrderID:        localOrderID,
		Status:              StatusPending,
	}
}

// Lifecycle statuses local to this system. Carrier-pushed statuses are
// free-text and stored verbatim alongside these.
const (
	StatusPending   = "pending"
	StatusCreated   = "created"
	StatusCancelled = "cancelled"
	StatusDelivered = "delivered"
	StatusReturned  = "returned"
	StatusFailed    = "failed"
)

// AssignCarrierCode records the carrier-assigned order code after acceptance
func (o *ShippingOrder) AssignCarrierCode(code string) {
	code = strings.TrimSpace(code)
	if code == "" {
		return
	}
	o.CarrierOrderCode = &code
	if o.Status == StatusPending {
		o.Status = StatusCreated
	}
	o.Touch()
}

// ApplyStatus updates the lifecycle status. Statuses are carrier vocabulary
// and stored verbatim; this system interprets only cancellation and terminal
// delivery for its own bookkeeping.
func (o *ShippingOrder) ApplyStatus(status string) {
	status = strings.TrimSpace(status)
	if status == "" {
		return
	}
	o.Status = status
	o.Touch()
}

// HasCarrierCode reports whether the carrier has accepted this order
func (o *ShippingOrder) HasCarrierCode() bool {
	return o.CarrierOrderCode != nil && *o.CarrierOrderCode != ""
}

// OrderKey identifies a shipping order for idempotent upserts
type OrderKey struct {
	TenantID         uuid.UUID
	Carrier          string
	CarrierOrderCode string
}

// OrderPatch carries the fields an upsert may change. Nil fields are left
// untouched on an existing row.
type OrderPatch struct {
	LocalOrderID    *string
	Status          *string
	Fee             *decimal.Decimal
	ServiceTier     *string
	RequestPayload  *string
	ResponsePayload *string
	CreatedBy       *uuid.UUID
}
