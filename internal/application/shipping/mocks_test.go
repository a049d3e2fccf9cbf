package shipping

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/retailcore/shipping/internal/domain/shipping"
)

// MockOrderRepository is a mock implementation of shipping.ShippingOrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Upsert(ctx context.Context, key shipping.OrderKey, patch shipping.OrderPatch) (*shipping.ShippingOrder, error) {
	args := m.Called(ctx, key, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.ShippingOrder), args.Error(1)
}

func (m *MockOrderRepository) FindByCarrierCode(ctx context.Context, tenantID uuid.UUID, carrier, carrierOrderCode string) (*shipping.ShippingOrder, error) {
	args := m.Called(ctx, tenantID, carrier, carrierOrderCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.ShippingOrder), args.Error(1)
}

func (m *MockOrderRepository) FindByLocalOrderID(ctx context.Context, tenantID uuid.UUID, carrier, localOrderID string) (*shipping.ShippingOrder, error) {
	args := m.Called(ctx, tenantID, carrier, localOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.ShippingOrder), args.Error(1)
}

func (m *MockOrderRepository) ListForTenant(ctx context.Context, tenantID uuid.UUID, filter shipping.ListFilter) ([]shipping.ShippingOrder, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]shipping.ShippingOrder), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) DeleteByCarrierCode(ctx context.Context, tenantID uuid.UUID, carrier, carrierOrderCode string) error {
	args := m.Called(ctx, tenantID, carrier, carrierOrderCode)
	return args.Error(0)
}

// MockEventRepository is a mock implementation of shipping.ShippingEventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Append(ctx context.Context, event *shipping.ShippingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) ListByCarrierCode(ctx context.Context, tenantID uuid.UUID, carrier, carrierOrderCode string) ([]shipping.ShippingEvent, error) {
	args := m.Called(ctx, tenantID, carrier, carrierOrderCode)
	return args.Get(0).([]shipping.ShippingEvent), args.Error(1)
}

// MockCarrierGateway is a mock implementation of shipping.CarrierGateway
type MockCarrierGateway struct {
	mock.Mock
}

func (m *MockCarrierGateway) CarrierName() string {
	return shipping.CarrierGHTK
}

func (m *MockCarrierGateway) QuoteFee(ctx context.Context, req *shipping.FeeQuoteRequest) (*shipping.FeeQuote, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.FeeQuote), args.Error(1)
}

func (m *MockCarrierGateway) CreateOrder(ctx context.Context, req *shipping.CreateOrderRequest) (*shipping.CreateOrderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.CreateOrderResult), args.Error(1)
}

func (m *MockCarrierGateway) GetOrderStatus(ctx context.Context, carrierOrderCode string) (*shipping.TrackingStatus, error) {
	args := m.Called(ctx, carrierOrderCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.TrackingStatus), args.Error(1)
}

func (m *MockCarrierGateway) GetLabel(ctx context.Context, carrierOrderCode string, opts shipping.LabelOptions) (*shipping.LabelDocument, error) {
	args := m.Called(ctx, carrierOrderCode, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.LabelDocument), args.Error(1)
}

func (m *MockCarrierGateway) CancelOrder(ctx context.Context, carrierOrderCode, reason string) error {
	args := m.Called(ctx, carrierOrderCode, reason)
	return args.Error(0)
}

func (m *MockCarrierGateway) ListPickAddresses(ctx context.Context) ([]shipping.PickAddress, error) {
	args := m.Called(ctx)
	return args.Get(0).([]shipping.PickAddress), args.Error(1)
}

func (m *MockCarrierGateway) ListProvinces(ctx context.Context) ([]shipping.Region, error) {
	args := m.Called(ctx)
	return args.Get(0).([]shipping.Region), args.Error(1)
}

func (m *MockCarrierGateway) ListDistricts(ctx context.Context, provinceID string) ([]shipping.Region, error) {
	args := m.Called(ctx, provinceID)
	return args.Get(0).([]shipping.Region), args.Error(1)
}

func (m *MockCarrierGateway) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
