package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	shippingapp "github.com/retailcore/shipping/internal/application/shipping"
	"github.com/retailcore/shipping/internal/domain/shared"
	"github.com/retailcore/shipping/internal/domain/shipping"
	"github.com/retailcore/shipping/internal/interfaces/http/dto"
)

// MockOrderRepository implements shipping.ShippingOrderRepository for testing
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

// MockEventRepository implements shipping.ShippingEventRepository for testing
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

// MockCarrierGateway implements shipping.CarrierGateway for testing
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

func setupShipmentRouter(orderRepo *MockOrderRepository, eventRepo *MockEventRepository, gateway *MockCarrierGateway) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := shippingapp.NewShipmentService(shippingapp.ShipmentServiceConfig{
		OrderRepo: orderRepo,
		EventRepo: eventRepo,
		Gateway:   gateway,
	})
	engine := gin.New()
	api := engine.Group("/api/v1")
	NewShipmentHandler(svc).RegisterRoutes(api)
	return engine
}

func shipmentRequestBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(shippingapp.CreateShipmentRequest{
		LocalOrderID: "ORD-2026-0042",
		Items: []shippingapp.ParcelItemInput{
			{Name: "Áo thun", WeightGrams: 400, Quantity: 1},
		},
		PickName:  "Kho HN",
		PickPhone: "0900000001",
		PickAddress: shippingapp.AddressInput{
			Province: "Hà Nội",
			District: "Hoàn Kiếm",
			Ward:     "Phường Hàng Bạc",
			Street:   "Hàng Bè",
		},
		DeliverName:  "Nguyễn Văn A",
		DeliverPhone: "0900000002",
		DeliverAddress: shippingapp.AddressInput{
			Province: "Phú Thọ",
			District: "Hòa Bình",
			Ward:     "Phường 1",
			Street:   "Trần Hưng Đạo",
		},
		CODAmount:     decimal.NewFromInt(250000),
		DeclaredValue: decimal.NewFromInt(250000),
		Transport:     "road",
		ServiceTier:   "none",
	})
	require.NoError(t, err)
	return body
}

func TestShipmentHandler_CreateShipment(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates shipment", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		eventRepo := new(MockEventRepository)
		gateway := new(MockCarrierGateway)
		engine := setupShipmentRouter(orderRepo, eventRepo, gateway)

		orderRepo.On("FindByLocalOrderID", mock.Anything, tenantID, shipping.CarrierGHTK, "ORD-2026-0042").
			Return(nil, shared.ErrNotFound)
		gateway.On("CreateOrder", mock.Anything, mock.Anything).
			Return(&shipping.CreateOrderResult{
				CarrierOrderCode: "S1.A2.17373471",
				Status:           "Đã tiếp nhận",
				Fee:              decimal.NewFromInt(35000),
			}, nil)
		localID := "ORD-2026-0042"
		created := shipping.NewShippingOrder(tenantID, shipping.CarrierGHTK, &localID)
		created.AssignCarrierCode("S1.A2.17373471")
		orderRepo.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(created, nil)
		eventRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/shipments", bytes.NewReader(shipmentRequestBody(t)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(TenantIDHeader, tenantID.String())
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "S1.A2.17373471", data["carrier_order_code"])
	})

	t.Run("returns 200 when shipment already exists", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		eventRepo := new(MockEventRepository)
		gateway := new(MockCarrierGateway)
		engine := setupShipmentRouter(orderRepo, eventRepo, gateway)

		localID := "ORD-2026-0042"
		existing := shipping.NewShippingOrder(tenantID, shipping.CarrierGHTK, &localID)
		existing.AssignCarrierCode("S1.A2.17373471")
		orderRepo.On("FindByLocalOrderID", mock.Anything, tenantID, shipping.CarrierGHTK, "ORD-2026-0042").
			Return(existing, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/shipments", bytes.NewReader(shipmentRequestBody(t)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(TenantIDHeader, tenantID.String())
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		gateway.AssertNotCalled(t, "CreateOrder")
	})

	t.Run("rejects missing tenant header", func(t *testing.T) {
		engine := setupShipmentRouter(new(MockOrderRepository), new(MockEventRepository), new(MockCarrierGateway))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/shipments", bytes.NewReader(shipmentRequestBody(t)))
		req.Header.Set("Content-Type", "application/json")
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("maps address rejection to 422", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		gateway := new(MockCarrierGateway)
		engine := setupShipmentRouter(orderRepo, new(MockEventRepository), gateway)

		orderRepo.On("FindByLocalOrderID", mock.Anything, tenantID, shipping.CarrierGHTK, "ORD-2026-0042").
			Return(nil, shared.ErrNotFound)
		gateway.On("CreateOrder", mock.Anything, mock.Anything).
			Return(nil, shipping.ErrAddressRejected)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/shipments", bytes.NewReader(shipmentRequestBody(t)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(TenantIDHeader, tenantID.String())
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeAddressRejected, resp.Error.Code)
	})
}

func TestShipmentHandler_GetShipment(t *testing.T) {
	tenantID := uuid.New()

	t.Run("returns stored shipment", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		engine := setupShipmentRouter(orderRepo, new(MockEventRepository), new(MockCarrierGateway))

		localID := "ORD-2026-0042"
		order := shipping.NewShippingOrder(tenantID, shipping.CarrierGHTK, &localID)
		order.AssignCarrierCode("S1.A2.17373471")
		orderRepo.On("FindByCarrierCode", mock.Anything, tenantID, shipping.CarrierGHTK, "S1.A2.17373471").
			Return(order, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/shipments/S1.A2.17373471", nil)
		req.Header.Set(TenantIDHeader, tenantID.String())
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("returns 404 for unknown code", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		engine := setupShipmentRouter(orderRepo, new(MockEventRepository), new(MockCarrierGateway))

		orderRepo.On("FindByCarrierCode", mock.Anything, tenantID, shipping.CarrierGHTK, "UNKNOWN").
			Return(nil, shared.ErrNotFound)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/shipments/UNKNOWN", nil)
		req.Header.Set(TenantIDHeader, tenantID.String())
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestShipmentHandler_CancelShipment(t *testing.T) {
	tenantID := uuid.New()
	orderRepo := new(MockOrderRepository)
	eventRepo := new(MockEventRepository)
	gateway := new(MockCarrierGateway)
	engine := setupShipmentRouter(orderRepo, eventRepo, gateway)

	gateway.On("CancelOrder", mock.Anything, "S1.A2.17373471", "duplicate order").Return(nil)
	localID := "ORD-2026-0042"
	order := shipping.NewShippingOrder(tenantID, shipping.CarrierGHTK, &localID)
	orderRepo.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(order, nil)
	eventRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

	body, _ := json.Marshal(shippingapp.CancelShipmentRequest{Reason: "duplicate order"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipments/S1.A2.17373471/cancel", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TenantIDHeader, tenantID.String())
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	gateway.AssertExpectations(t)
}

func TestShipmentHandler_SyncShipments(t *testing.T) {
	tenantID := uuid.New()
	orderRepo := new(MockOrderRepository)
	eventRepo := new(MockEventRepository)
	gateway := new(MockCarrierGateway)
	engine := setupShipmentRouter(orderRepo, eventRepo, gateway)

	gateway.On("GetOrderStatus", mock.Anything, "S1.A2.1").
		Return(&shipping.TrackingStatus{CarrierOrderCode: "S1.A2.1", Status: "Đã giao hàng"}, nil)
	localID := "ORD-1"
	order := shipping.NewShippingOrder(tenantID, shipping.CarrierGHTK, &localID)
	orderRepo.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(order, nil)
	eventRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

	body, _ := json.Marshal(shippingapp.SyncRequest{Codes: []string{"S1.A2.1"}})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipments/sync", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TenantIDHeader, tenantID.String())
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	results := data["results"].([]interface{})
	require.Len(t, results, 1)
	first := results[0].(map[string]interface{})
	assert.Equal(t, "synced", first["outcome"])
}

func TestShipmentHandler_SyncRejectsEmptyCodes(t *testing.T) {
	engine := setupShipmentRouter(new(MockOrderRepository), new(MockEventRepository), new(MockCarrierGateway))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipments/sync", bytes.NewReader([]byte(`{"codes":[]}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TenantIDHeader, uuid.New().String())
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShipmentHandler_GetLabel(t *testing.T) {
	tenantID := uuid.New()
	eventRepo := new(MockEventRepository)
	gateway := new(MockCarrierGateway)
	engine := setupShipmentRouter(new(MockOrderRepository), eventRepo, gateway)

	gateway.On("GetLabel", mock.Anything, "S1.A2.17373471", shipping.LabelOptions{}).
		Return(&shipping.LabelDocument{
			ContentType: "application/pdf",
			Body:        io.NopCloser(strings.NewReader("%PDF-1.4 label")),
		}, nil)
	eventRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/shipments/S1.A2.17373471/label", nil)
	req.Header.Set(TenantIDHeader, tenantID.String())
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "inline", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4 label", w.Body.String())
}

func TestShipmentHandler_VerifyPurgeWithoutBody(t *testing.T) {
	tenantID := uuid.New()
	orderRepo := new(MockOrderRepository)
	eventRepo := new(MockEventRepository)
	gateway := new(MockCarrierGateway)
	engine := setupShipmentRouter(orderRepo, eventRepo, gateway)

	localID := "ORD-1"
	order := shipping.NewShippingOrder(tenantID, shipping.CarrierGHTK, &localID)
	order.AssignCarrierCode("S1.A2.1")
	orderRepo.On("ListForTenant", mock.Anything, tenantID, shipping.ListFilter{
		Carrier: shipping.CarrierGHTK, Limit: 100, Offset: 0,
	}).Return([]shipping.ShippingOrder{*order}, int64(1), nil)
	gateway.On("GetOrderStatus", mock.Anything, "S1.A2.1").
		Return(&shipping.TrackingStatus{CarrierOrderCode: "S1.A2.1", Status: "Đang giao hàng"}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipments/verify-purge", nil)
	req.Header.Set(TenantIDHeader, tenantID.String())
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	results := data["results"].([]interface{})
	require.Len(t, results, 1)
	first := results[0].(map[string]interface{})
	assert.Equal(t, "kept", first["outcome"])
	orderRepo.AssertExpectations(t)
}
