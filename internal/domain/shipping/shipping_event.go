package shipping

import (
	"time"

	"github.com/google/uuid"

	"github.com/retailcore/shipping/internal/domain/shared"
)

// Event types recorded on the shipment timeline. Carrier-pushed webhook
// events use the carrier's own vocabulary prefixed with "carrier.".
const (
	EventCreated       = "created"
	EventTrackingFetch = "tracking_fetch"
	EventLabelFetch    = "label_fetch"
	EventCancel        = "cancel"
	EventSync          = "sync"
	EventPurge         = "purge"
	EventWebhookPrefix = "carrier."
)

// ShippingEvent is an append-only audit entry on a shipment's timeline.
// Events are immutable once written. Ordering is by OccurredAt, not
// insertion order, because carrier webhooks arrive out of temporal order.
type ShippingEvent struct {
	shared.BaseEntity
	TenantID         uuid.UUID
	OrderID          *uuid.UUID
	Carrier          string
	CarrierOrderCode string
	EventType        string
	Status           string
	OccurredAt       time.Time
	Payload          string
}

// NewShippingEvent creates a timeline event occurring now
func NewShippingEvent(tenantID uuid.UUID, carrier, carrierOrderCode, eventType string) *ShippingEvent {
	return &ShippingEvent{
		BaseEntity:       shared.NewBaseEntity(),
		TenantID:         tenantID,
		Carrier:          carrier,
		CarrierOrderCode: carrierOrderCode,
		EventType:        eventType,
		OccurredAt:       time.Now(),
	}
}

// WithStatus sets the status text carried by the event
func (e *ShippingEvent) WithStatus(status string) *ShippingEvent {
	e.Status = status
	return e
}

// WithPayload attaches the raw carrier payload
func (e *ShippingEvent) WithPayload(payload string) *ShippingEvent {
	e.Payload = payload
	return e
}

// WithOccurredAt overrides the event time with the carrier-supplied one
func (e *ShippingEvent) WithOccurredAt(t time.Time) *ShippingEvent {
	if !t.IsZero() {
		e.OccurredAt = t
	}
	return e
}

// WithOrderID links the event to a resolved local order row
func (e *ShippingEvent) WithOrderID(id uuid.UUID) *ShippingEvent {
	e.OrderID = &id
	return e
}
