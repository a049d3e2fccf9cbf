package shipping

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows order listings
type ListFilter struct {
	Status  string
	Carrier string
	SortBy  string
	SortDir string
	Limit   int
	Offset  int
}

// ShippingOrderRepository persists shipping orders.
//
// Upsert is a read-then-write: an existing row matched by the key is patched
// with the non-nil fields of the patch, an absent row is inserted. There is
// no atomic compare-and-set; the unique index on the key makes a lost race
// fail on insert rather than produce a duplicate shipment.
type ShippingOrderRepository interface {
	Upsert(ctx context.Context, key OrderKey, patch OrderPatch) (*ShippingOrder, error)
	FindByCarrierCode(ctx context.Context, tenantID uuid.UUID, carrier, carrierOrderCode string) (*ShippingOrder, error)
	FindByLocalOrderID(ctx context.Context, tenantID uuid.UUID, carrier, localOrderID string) (*ShippingOrder, error)
	ListForTenant(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]ShippingOrder, int64, error)
	// DeleteByCarrierCode removes a row the carrier no longer recognizes.
	// Only the reconciliation purge calls this.
	DeleteByCarrierCode(ctx context.Context, tenantID uuid.UUID, carrier, carrierOrderCode string) error
}

// ShippingEventRepository persists timeline events. Append-only.
type ShippingEventRepository interface {
	Append(ctx context.Context, event *ShippingEvent) error
	ListByCarrierCode(ctx context.Context, tenantID uuid.UUID, carrier, carrierOrderCode string) ([]ShippingEvent, error)
}
