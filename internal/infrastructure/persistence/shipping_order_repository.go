package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailcore/shipping/internal/domain/shared"
	"github.com/retailcore/shipping/internal/domain/shipping"
	"github.com/retailcore/shipping/internal/infrastructure/persistence/models"
)

// GormShippingOrderRepository implements ShippingOrderRepository using GORM
type GormShippingOrderRepository struct {
	db *gorm.DB
}

// NewGormShippingOrderRepository creates a new GormShippingOrderRepository
func NewGormShippingOrderRepository(db *gorm.DB) *GormShippingOrderRepository {
	return &GormShippingOrderRepository{db: db}
}

// Upsert reads the row matched by the key and patches it, or inserts a new
// one when absent. Non-nil patch fields overwrite; nil fields leave existing
// values untouched, so repeated webhooks and retried creations converge on
// one row. The unique index on the key columns catches a lost race.
func (r *GormShippingOrderRepository) Upsert(ctx context.Context, key shipping.OrderKey, patch shipping.OrderPatch) (*shipping.ShippingOrder, error) {
	var model models.ShippingOrderModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND carrier = ? AND carrier_order_code = ?",
			key.TenantID, key.Carrier, key.CarrierOrderCode).
		First(&model).Error

	switch {
	case err == nil:
		order := model.ToDomain()
		applyOrderPatch(order, patch)
		order.Touch()
		model.FromDomain(order)
		if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
			return nil, err
		}
		return model.ToDomain(), nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		order := shipping.NewShippingOrder(key.TenantID, key.Carrier, patch.LocalOrderID)
		order.AssignCarrierCode(key.CarrierOrderCode)
		applyOrderPatch(order, patch)
		var created models.ShippingOrderModel
		created.FromDomain(order)
		if err := r.db.WithContext(ctx).Create(&created).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, shared.ErrConcurrencyConflict
			}
			return nil, err
		}
		return created.ToDomain(), nil

	default:
		return nil, err
	}
}

// FindByCarrierCode finds an order by its carrier-assigned code
func (r *GormShippingOrderRepository) FindByCarrierCode(ctx context.Context, tenantID uuid.UUID, carrier, carrierOrderCode string) (*shipping.ShippingOrder, error) {
	var model models.ShippingOrderModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND carrier = ? AND carrier_order_code = ?", tenantID, carrier, carrierOrderCode).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByLocalOrderID finds an order by the back-office order identifier
func (r *GormShippingOrderRepository) FindByLocalOrderID(ctx context.Context, tenantID uuid.UUID, carrier, localOrderID string) (*shipping.ShippingOrder, error) {
	var model models.ShippingOrderModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND carrier = ? AND local_order_id = ?", tenantID, carrier, localOrderID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListForTenant lists orders for a tenant, newest first unless the filter
// asks for another sort. Sort inputs are whitelisted before reaching SQL.
func (r *GormShippingOrderRepository) ListForTenant(ctx context.Context, tenantID uuid.UUID, filter shipping.ListFilter) ([]shipping.ShippingOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ShippingOrderModel{}).Where("tenant_id = ?", tenantID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Carrier != "" {
		query = query.Where("carrier = ?", filter.Carrier)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	sortField := ValidateSortField(filter.SortBy, ShippingOrderSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.SortDir)

	var rows []models.ShippingOrderModel
	if err := query.Order(sortField + " " + sortOrder).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]shipping.ShippingOrder, 0, len(rows))
	for i := range rows {
		orders = append(orders, *rows[i].ToDomain())
	}
	return orders, total, nil
}

// DeleteByCarrierCode removes an order row. Only reconciliation purging of
// codes the carrier no longer recognizes calls this.
func (r *GormShippingOrderRepository) DeleteByCarrierCode(ctx context.Context, tenantID uuid.UUID, carrier, carrierOrderCode string) error {
	result := r.db.WithContext(ctx).
		Delete(&models.ShippingOrderModel{}, "tenant_id = ? AND carrier = ? AND carrier_order_code = ?",
			tenantID, carrier, carrierOrderCode)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyOrderPatch copies the non-nil patch fields onto the order
func applyOrderPatch(order *shipping.ShippingOrder, patch shipping.OrderPatch) {
	if patch.LocalOrderID != nil {
		order.LocalOrderID = patch.LocalOrderID
	}
	if patch.Status != nil {
		order.ApplyStatus(*patch.Status)
	}
	if patch.Fee != nil {
		order.Fee = *patch.Fee
	}
	if patch.ServiceTier != nil {
		order.ServiceTier = *patch.ServiceTier
	}
	if patch.RequestPayload != nil {
		order.RequestPayload = *patch.RequestPayload
	}
	if patch.ResponsePayload != nil {
		order.ResponsePayload = *patch.ResponsePayload
	}
	if patch.CreatedBy != nil {
		order.SetCreatedBy(*patch.CreatedBy)
	}
}

// Ensure GormShippingOrderRepository implements ShippingOrderRepository
var _ shipping.ShippingOrderRepository = (*GormShippingOrderRepository)(nil)
