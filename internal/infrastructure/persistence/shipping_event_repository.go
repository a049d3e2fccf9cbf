package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailcore/shipping/internal/domain/shipping"
	"github.com/retailcore/shipping/internal/infrastructure/persistence/models"
)

// GormShippingEventRepository implements ShippingEventRepository using GORM.
// Events are append-only; there is no update or delete path.
type GormShippingEventRepository struct {
	db *gorm.DB
}

// NewGormShippingEventRepository creates a new GormShippingEventRepository
func NewGormShippingEventRepository(db *gorm.DB) *GormShippingEventRepository {
	return &GormShippingEventRepository{db: db}
}

// Append writes a new timeline event
func (r *GormShippingEventRepository) Append(ctx context.Context, event *shipping.ShippingEvent) error {
	var model models.ShippingEventModel
	model.FromDomain(event)
	return r.db.WithContext(ctx).Create(&model).Error
}

// ListByCarrierCode returns a shipment's timeline ordered by when each event
// occurred, not by insertion order, because carrier webhooks can arrive out
// of temporal order.
func (r *GormShippingEventRepository) ListByCarrierCode(ctx context.Context, tenantID uuid.UUID, carrier, carrierOrderCode string) ([]shipping.ShippingEvent, error) {
	var rows []models.ShippingEventModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND carrier = ? AND carrier_order_code = ?", tenantID, carrier, carrierOrderCode).
		Order("occurred_at ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	events := make([]shipping.ShippingEvent, 0, len(rows))
	for i := range rows {
		events = append(events, *rows[i].ToDomain())
	}
	return events, nil
}

// Ensure GormShippingEventRepository implements ShippingEventRepository
var _ shipping.ShippingEventRepository = (*GormShippingEventRepository)(nil)
