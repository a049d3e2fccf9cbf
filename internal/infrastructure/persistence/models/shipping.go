package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/shipping/internal/domain/shipping"
)

// ShippingOrderModel persists shipping orders.
//
// The unique index on (tenant_id, carrier, carrier_order_code) backs the
// idempotent upsert: when the read-then-write race is lost, the second
// insert fails on the index instead of creating a duplicate shipment row.
type ShippingOrderModel struct {
	BaseModel
	Version          int             `gorm:"not null;default:1"`
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_shipping_orders_code,priority:1;index:ix_shipping_orders_local,priority:1"`
	CreatedBy        *uuid.UUID      `gorm:"type:uuid"`
	Carrier          string          `gorm:"size:32;not null;uniqueIndex:ux_shipping_orders_code,priority:2;index:ix_shipping_orders_local,priority:2"`
	CarrierOrderCode *string         `gorm:"size:64;uniqueIndex:ux_shipping_orders_code,priority:3"`
	LocalOrderID     *string         `gorm:"size:64;index:ix_shipping_orders_local,priority:3"`
	Status           string          `gorm:"size:64;not null;index"`
	Fee              decimal.Decimal `gorm:"type:decimal(18,2)"`
	ServiceTier      string          `gorm:"size:32"`
	RequestPayload   string          `gorm:"type:jsonb"`
	ResponsePayload  string          `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (ShippingOrderModel) TableName() string {
	return "shipping_orders"
}

// ToDomain converts the persistence model to the domain aggregate
func (m *ShippingOrderModel) ToDomain() *shipping.ShippingOrder {
	order := &shipping.ShippingOrder{
		Carrier:          m.Carrier,
		LocalOrderID:     m.LocalOrderID,
		CarrierOrderCode: m.CarrierOrderCode,
		Status:           m.Status,
		Fee:              m.Fee,
		ServiceTier:      m.ServiceTier,
		RequestPayload:   m.RequestPayload,
		ResponsePayload:  m.ResponsePayload,
	}
	order.ID = m.ID
	order.CreatedAt = m.CreatedAt
	order.UpdatedAt = m.UpdatedAt
	order.Version = m.Version
	order.TenantID = m.TenantID
	order.CreatedBy = m.CreatedBy
	return order
}

// FromDomain populates the persistence model from the domain aggregate
func (m *ShippingOrderModel) FromDomain(o *shipping.ShippingOrder) {
	m.ID = o.ID
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt
	m.Version = o.Version
	m.TenantID = o.TenantID
	m.CreatedBy = o.CreatedBy
	m.Carrier = o.Carrier
	m.LocalOrderID = o.LocalOrderID
	m.CarrierOrderCode = o.CarrierOrderCode
	m.Status = o.Status
	m.Fee = o.Fee
	m.ServiceTier = o.ServiceTier
	m.RequestPayload = o.RequestPayload
	m.ResponsePayload = o.ResponsePayload
}

// ShippingEventModel persists shipment timeline events. Rows are append-only
// and never updated; OccurredAt carries the carrier-supplied event time.
type ShippingEventModel struct {
	BaseModel
	TenantID         uuid.UUID  `gorm:"type:uuid;not null;index:ix_shipping_events_code,priority:1"`
	OrderID          *uuid.UUID `gorm:"type:uuid;index"`
	Carrier          string     `gorm:"size:32;not null;index:ix_shipping_events_code,priority:2"`
	CarrierOrderCode string     `gorm:"size:64;index:ix_shipping_events_code,priority:3"`
	EventType        string     `gorm:"size:64;not null"`
	Status           string     `gorm:"size:64"`
	OccurredAt       time.Time  `gorm:"not null;index"`
	Payload          string     `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (ShippingEventModel) TableName() string {
	return "shipping_events"
}

// ToDomain converts the persistence model to the domain entity
func (m *ShippingEventModel) ToDomain() *shipping.ShippingEvent {
	event := &shipping.ShippingEvent{
		TenantID:         m.TenantID,
		OrderID:          m.OrderID,
		Carrier:          m.Carrier,
		CarrierOrderCode: m.CarrierOrderCode,
		EventType:        m.EventType,
		Status:           m.Status,
		OccurredAt:       m.OccurredAt,
		Payload:          m.Payload,
	}
	event.ID = m.ID
	event.CreatedAt = m.CreatedAt
	event.UpdatedAt = m.UpdatedAt
	return event
}

// FromDomain populates the persistence model from the domain entity
func (m *ShippingEventModel) FromDomain(e *shipping.ShippingEvent) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
	m.TenantID = e.TenantID
	m.OrderID = e.OrderID
	m.Carrier = e.Carrier
	m.CarrierOrderCode = e.CarrierOrderCode
	m.EventType = e.EventType
	m.Status = e.Status
	m.OccurredAt = e.OccurredAt
	m.Payload = e.Payload
}
