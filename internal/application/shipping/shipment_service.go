package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailcore/shipping/internal/domain/shared"
	"github.com/retailcore/shipping/internal/domain/shipping"
)

// ShipmentService orchestrates carrier calls and local persistence. The
// carrier is the source of truth for shipment state; the local store is a
// cache that must converge on it, never fork from it.
type ShipmentService struct {
	orderRepo shipping.ShippingOrderRepository
	eventRepo shipping.ShippingEventRepository
	gateway   shipping.CarrierGateway
	logger    *zap.Logger
}

// ShipmentServiceConfig contains dependencies for ShipmentService
type ShipmentServiceConfig struct {
	OrderRepo shipping.ShippingOrderRepository
	EventRepo shipping.ShippingEventRepository
	Gateway   shipping.CarrierGateway
	Logger    *zap.Logger
}

// NewShipmentService creates a new ShipmentService
func NewShipmentService(cfg ShipmentServiceConfig) *ShipmentService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShipmentService{
		orderRepo: cfg.OrderRepo,
		eventRepo: cfg.EventRepo,
		gateway:   cfg.Gateway,
		logger:    logger,
	}
}

// QuoteFee asks the carrier for a delivery fee estimate
func (s *ShipmentService) QuoteFee(ctx context.Context, req FeeQuoteRequest) (*FeeQuoteResponse, error) {
	pick := req.PickAddress.toDomain()
	deliver := req.DeliverAddress.toDomain()

	quote, err := s.gateway.QuoteFee(ctx, &shipping.FeeQuoteRequest{
		PickProvince:    pick.Province,
		PickDistrict:    pick.District,
		PickWard:        pick.Ward,
		PickAddress:     pick.FullStreet(),
		DeliverProvince: deliver.Province,
		DeliverDistrict: deliver.District,
		DeliverWard:     deliver.Ward,
		DeliverAddress:  deliver.FullStreet(),
		WeightGrams:     req.WeightGrams,
		DeclaredValue:   req.DeclaredValue,
		Transport:       req.Transport,
		Tags:            req.Tags,
	})
	if err != nil {
		return nil, err
	}
	return &FeeQuoteResponse{
		Fee:          quote.Fee,
		InsuranceFee: quote.InsuranceFee,
		Deliverable:  quote.Deliverable,
		DeliverType:  quote.DeliverType,
	}, nil
}

// CreateShipment submits a delivery order to the carrier, idempotently on
// the local order id: if a shipment for that id already holds a carrier
// code, the stored result is returned and no carrier call is made. The
// local order id doubles as the carrier-facing idempotency key, so even a
// retry that races past the local check cannot create a second shipment.
func (s *ShipmentService) CreateShipment(ctx context.Context, tenantID uuid.UUID, req CreateShipmentRequest) (*CreateShipmentResponse, error) {
	existing, err := s.orderRepo.FindByLocalOrderID(ctx, tenantID, s.gateway.CarrierName(), req.LocalOrderID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if err == nil && existing.HasCarrierCode() {
		s.logger.Info("shipment already created for local order, returning stored result",
			zap.String("local_order_id", req.LocalOrderID),
			zap.String("carrier_order_code", *existing.CarrierOrderCode),
		)
		return &CreateShipmentResponse{
			ShipmentResponse: ToShipmentResponse(existing),
			AlreadyExisted:   true,
		}, nil
	}

	items := make([]shipping.ParcelItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, shipping.ParcelItem{
			Name:        item.Name,
			WeightGrams: item.WeightGrams,
			Quantity:    item.Quantity,
			ProductCode: item.ProductCode,
		})
	}
	gwReq := &shipping.CreateOrderRequest{
		IdempotencyKey: req.LocalOrderID,
		Items:          items,
		PickName:       req.PickName,
		PickPhone:      req.PickPhone,
		PickAddress:    req.PickAddress.toDomain(),
		DeliverName:    req.DeliverName,
		DeliverPhone:   req.DeliverPhone,
		DeliverAddress: req.DeliverAddress.toDomain(),
		CODAmount:      req.CODAmount,
		DeclaredValue:  req.DeclaredValue,
		Transport:      req.Transport,
		ServiceTier:    req.ServiceTier,
		IsFreeship:     req.IsFreeship,
		Note:           req.Note,
	}

	requestPayload := ""
	if raw, err := json.Marshal(gwReq); err == nil {
		requestPayload = string(raw)
	}

	result, err := s.gateway.CreateOrder(ctx, gwReq)
	if err != nil {
		return nil, err
	}

	resp := &CreateShipmentResponse{
		ShipmentResponse: ShipmentResponse{
			TenantID:         tenantID,
			Carrier:          s.gateway.CarrierName(),
			LocalOrderID:     &req.LocalOrderID,
			CarrierOrderCode: &result.CarrierOrderCode,
			Status:           shipping.StatusCreated,
			Fee:              result.Fee,
			ServiceTier:      req.ServiceTier,
		},
		EstimatedPickTime:    result.EstimatedPickTime,
		EstimatedDeliverTime: result.EstimatedDeliverTime,
		AddressVariant:       result.AddressVariant,
	}

	key := shipping.OrderKey{
		TenantID:         tenantID,
		Carrier:          s.gateway.CarrierName(),
		CarrierOrderCode: result.CarrierOrderCode,
	}
	order, err := s.orderRepo.Upsert(ctx, key, shipping.OrderPatch{
		LocalOrderID:    &req.LocalOrderID,
		Fee:             &result.Fee,
		ServiceTier:     &req.ServiceTier,
		RequestPayload:  &requestPayload,
		ResponsePayload: &result.RawResponse,
	})
	if err != nil {
		// The carrier accepted the order. Losing the local row is bad, but
		// telling the caller the creation failed would be worse: a retry
		// would hit the idempotency key, not a fresh shipment.
		s.logger.Error("carrier accepted order but persisting it failed",
			zap.String("carrier_order_code", result.CarrierOrderCode),
			zap.String("local_order_id", req.LocalOrderID),
			zap.Error(err),
		)
		return resp, nil
	}
	resp.ShipmentResponse = ToShipmentResponse(order)
	resp.EstimatedPickTime = result.EstimatedPickTime
	resp.EstimatedDeliverTime = result.EstimatedDeliverTime
	resp.AddressVariant = result.AddressVariant

	s.appendEvent(ctx, shipping.NewShippingEvent(tenantID, order.Carrier, result.CarrierOrderCode, shipping.EventCreated).
		WithStatus(result.Status).
		WithPayload(result.RawResponse).
		WithOrderID(order.ID))

	s.logger.Info("shipment created",
		zap.String("carrier_order_code", result.CarrierOrderCode),
		zap.String("local_order_id", req.LocalOrderID),
		zap.Int("address_variant", result.AddressVariant),
	)
	return resp, nil
}

// GetShipment returns the locally persisted view of a shipment
func (s *ShipmentService) GetShipment(ctx context.Context, tenantID uuid.UUID, carrierOrderCode string) (*ShipmentResponse, error) {
	order, err := s.orderRepo.FindByCarrierCode(ctx, tenantID, s.gateway.CarrierName(), carrierOrderCode)
	if err != nil {
		return nil, err
	}
	resp := ToShipmentResponse(order)
	return &resp, nil
}

// ListShipments lists a tenant's shipments, newest first
func (s *ShipmentService) ListShipments(ctx context.Context, tenantID uuid.UUID, filter ShipmentListFilter) (*ShipmentListResponse, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	orders, total, err := s.orderRepo.ListForTenant(ctx, tenantID, shipping.ListFilter{
		Status:  filter.Status,
		SortBy:  filter.SortBy,
		SortDir: filter.SortDir,
		Limit:   pageSize,
		Offset:  (page - 1) * pageSize,
	})
	if err != nil {
		return nil, err
	}

	items := make([]ShipmentResponse, 0, len(orders))
	for i := range orders {
		items = append(items, ToShipmentResponse(&orders[i]))
	}
	return &ShipmentListResponse{Items: items, Total: total}, nil
}

// Timeline returns a shipment's event history ordered by occurrence
func (s *ShipmentService) Timeline(ctx context.Context, tenantID uuid.UUID, carrierOrderCode string) ([]ShipmentEventResponse, error) {
	events, err := s.eventRepo.ListByCarrierCode(ctx, tenantID, s.gateway.CarrierName(), carrierOrderCode)
	if err != nil {
		return nil, err
	}
	out := make([]ShipmentEventResponse, 0, len(events))
	for i := range events {
		out = append(out, ToShipmentEventResponse(&events[i]))
	}
	return out, nil
}

// Track fetches the carrier's live status and folds it into the local row
func (s *ShipmentService) Track(ctx context.Context, tenantID uuid.UUID, carrierOrderCode string) (*TrackingResponse, error) {
	status, err := s.gateway.GetOrderStatus(ctx, carrierOrderCode)
	if err != nil {
		return nil, err
	}

	if _, err := s.orderRepo.Upsert(ctx, shipping.OrderKey{
		TenantID:         tenantID,
		Carrier:          s.gateway.CarrierName(),
		CarrierOrderCode: carrierOrderCode,
	}, shipping.OrderPatch{Status: &status.Status}); err != nil {
		s.logger.Error("failed to persist tracked status",
			zap.String("carrier_order_code", carrierOrderCode),
			zap.Error(err),
		)
	}

	s.appendEvent(ctx, shipping.NewShippingEvent(tenantID, s.gateway.CarrierName(), carrierOrderCode, shipping.EventTrackingFetch).
		WithStatus(status.Status).
		WithPayload(status.RawResponse))

	return &TrackingResponse{
		CarrierOrderCode: status.CarrierOrderCode,
		LocalOrderID:     status.LocalOrderID,
		StatusID:         status.StatusID,
		Status:           status.Status,
		PickDate:         status.PickDate,
		DeliverDate:      status.DeliverDate,
		ShipMoney:        status.ShipMoney,
		IsReturn:         status.IsReturn,
	}, nil
}

// GetLabel streams the shipment label from the carrier. The caller owns
// closing the returned document body.
func (s *ShipmentService) GetLabel(ctx context.Context, tenantID uuid.UUID, carrierOrderCode string, opts shipping.LabelOptions) (*shipping.LabelDocument, error) {
	doc, err := s.gateway.GetLabel(ctx, carrierOrderCode, opts)
	if err != nil {
		return nil, err
	}

	s.appendEvent(ctx, shipping.NewShippingEvent(tenantID, s.gateway.CarrierName(), carrierOrderCode, shipping.EventLabelFetch))

	return doc, nil
}

// CancelShipment cancels the shipment at the carrier and records it locally
func (s *ShipmentService) CancelShipment(ctx context.Context, tenantID uuid.UUID, carrierOrderCode, reason string) error {
	if err := s.gateway.CancelOrder(ctx, carrierOrderCode, reason); err != nil {
		return err
	}

	cancelled := shipping.StatusCancelled
	if _, err := s.orderRepo.Upsert(ctx, shipping.OrderKey{
		TenantID:         tenantID,
		Carrier:          s.gateway.CarrierName(),
		CarrierOrderCode: carrierOrderCode,
	}, shipping.OrderPatch{Status: &cancelled}); err != nil {
		s.logger.Error("carrier cancelled order but persisting the status failed",
			zap.String("carrier_order_code", carrierOrderCode),
			zap.Error(err),
		)
	}

	event := shipping.NewShippingEvent(tenantID, s.gateway.CarrierName(), carrierOrderCode, shipping.EventCancel).
		WithStatus(cancelled)
	if reason != "" {
		if raw, err := json.Marshal(map[string]string{"reason": reason}); err == nil {
			event = event.WithPayload(string(raw))
		}
	}
	s.appendEvent(ctx, event)

	s.logger.Info("shipment cancelled",
		zap.String("carrier_order_code", carrierOrderCode),
	)
	return nil
}

// SyncByCodes refreshes the local rows for the given carrier order codes
// from the carrier's live state. Each code succeeds or fails independently.
func (s *ShipmentService) SyncByCodes(ctx context.Context, tenantID uuid.UUID, codes []string) (*SyncResponse, error) {
	results := make([]SyncItemResult, 0, len(codes))
	for _, code := range codes {
		status, err := s.gateway.GetOrderStatus(ctx, code)
		if err != nil {
			results = append(results, SyncItemResult{
				CarrierOrderCode: code,
				Outcome:          "failed",
				Error:            err.Error(),
			})
			continue
		}

		if _, err := s.orderRepo.Upsert(ctx, shipping.OrderKey{
			TenantID:         tenantID,
			Carrier:          s.gateway.CarrierName(),
			CarrierOrderCode: code,
		}, shipping.OrderPatch{Status: &status.Status}); err != nil {
			results = append(results, SyncItemResult{
				CarrierOrderCode: code,
				Outcome:          "failed",
				Error:            err.Error(),
			})
			continue
		}

		s.appendEvent(ctx, shipping.NewShippingEvent(tenantID, s.gateway.CarrierName(), code, shipping.EventSync).
			WithStatus(status.Status).
			WithPayload(status.RawResponse))

		results = append(results, SyncItemResult{
			CarrierOrderCode: code,
			Outcome:          "synced",
			Status:           status.Status,
		})
	}
	return &SyncResponse{Results: results}, nil
}

// VerifyAndPurge checks codes against the carrier and deletes local rows the
// carrier no longer recognizes. An empty code list means the whole tenant:
// every stored order is enumerated and verified. A transient carrier failure
// keeps the row: only a definitive not-found answer justifies purging.
func (s *ShipmentService) VerifyAndPurge(ctx context.Context, tenantID uuid.UUID, codes []string) (*SyncResponse, error) {
	if len(codes) == 0 {
		var err error
		codes, err = s.storedCarrierCodes(ctx, tenantID)
		if err != nil {
			return nil, err
		}
	}

	results := make([]SyncItemResult, 0, len(codes))
	for _, code := range codes {
		status, err := s.gateway.GetOrderStatus(ctx, code)
		switch {
		case err == nil:
			results = append(results, SyncItemResult{
				CarrierOrderCode: code,
				Outcome:          "kept",
				Status:           status.Status,
			})

		case errors.Is(err, shipping.ErrOrderNotFound):
			if err := s.orderRepo.DeleteByCarrierCode(ctx, tenantID, s.gateway.CarrierName(), code); err != nil && !errors.Is(err, shared.ErrNotFound) {
				results = append(results, SyncItemResult{
					CarrierOrderCode: code,
					Outcome:          "failed",
					Error:            err.Error(),
				})
				continue
			}
			s.appendEvent(ctx, shipping.NewShippingEvent(tenantID, s.gateway.CarrierName(), code, shipping.EventPurge))
			s.logger.Info("purged order unknown to carrier",
				zap.String("carrier_order_code", code),
			)
			results = append(results, SyncItemResult{
				CarrierOrderCode: code,
				Outcome:          "purged",
			})

		default:
			results = append(results, SyncItemResult{
				CarrierOrderCode: code,
				Outcome:          "failed",
				Error:            err.Error(),
			})
		}
	}
	return &SyncResponse{Results: results}, nil
}

// storedCarrierCodes pages through every stored order of the tenant and
// collects the carrier-assigned codes. Orders still waiting for a carrier
// code have nothing to verify and are skipped.
func (s *ShipmentService) storedCarrierCodes(ctx context.Context, tenantID uuid.UUID) ([]string, error) {
	const pageSize = 100
	var codes []string
	for offset := 0; ; offset += pageSize {
		orders, total, err := s.orderRepo.ListForTenant(ctx, tenantID, shipping.ListFilter{
			Carrier: s.gateway.CarrierName(),
			Limit:   pageSize,
			Offset:  offset,
		})
		if err != nil {
			return nil, err
		}
		for i := range orders {
			if orders[i].CarrierOrderCode != nil && *orders[i].CarrierOrderCode != "" {
				codes = append(codes, *orders[i].CarrierOrderCode)
			}
		}
		if len(orders) == 0 || int64(offset+len(orders)) >= total {
			return codes, nil
		}
	}
}

// ListPickAddresses lists pickup points registered with the carrier
func (s *ShipmentService) ListPickAddresses(ctx context.Context) ([]PickAddressResponse, error) {
	addrs, err := s.gateway.ListPickAddresses(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PickAddressResponse, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, PickAddressResponse{ID: a.ID, Name: a.Name, Address: a.Address})
	}
	return out, nil
}

// CarrierHealth checks that the carrier accepts our credentials
func (s *ShipmentService) CarrierHealth(ctx context.Context) error {
	if err := s.gateway.Ping(ctx); err != nil {
		return fmt.Errorf("carrier health check: %w", err)
	}
	return nil
}

// appendEvent writes a timeline event; failures are logged, never surfaced.
// The timeline is an audit trail, not a transactional participant.
func (s *ShipmentService) appendEvent(ctx context.Context, event *shipping.ShippingEvent) {
	if err := s.eventRepo.Append(ctx, event); err != nil {
		s.logger.Error("failed to append shipping event",
			zap.String("carrier_order_code", event.CarrierOrderCode),
			zap.String("event_type", event.EventType),
			zap.Error(err),
		)
	}
}
