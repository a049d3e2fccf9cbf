package shipping

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailcore/shipping/internal/domain/shared"
	"github.com/retailcore/shipping/internal/domain/shipping"
	"github.com/retailcore/shipping/internal/infrastructure/carrier"
)

// WebhookService processes carrier status pushes exactly once.
//
// Deduplication is keyed on tenant, carrier, order code, status and a digest
// of the payload body, so the same push delivered twice is dropped while a
// genuinely new status for the same order is processed. A push that arrives
// before the creation response was persisted creates the order row itself;
// the late creation then converges onto it.
type WebhookService struct {
	secret      string
	idempotency shared.IdempotencyStore
	ttl         time.Duration
	carrierName string
	orderRepo   shipping.ShippingOrderRepository
	eventRepo   shipping.ShippingEventRepository
	logger      *zap.Logger
}

// WebhookServiceConfig contains dependencies for WebhookService
type WebhookServiceConfig struct {
	// Secret verifies inbound payload signatures. Empty disables
	// verification and payloads are trusted as received.
	Secret      string
	Idempotency shared.IdempotencyStore
	TTL         time.Duration
	CarrierName string
	OrderRepo   shipping.ShippingOrderRepository
	EventRepo   shipping.ShippingEventRepository
	Logger      *zap.Logger
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(cfg WebhookServiceConfig) *WebhookService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	carrierName := cfg.CarrierName
	if carrierName == "" {
		carrierName = shipping.CarrierGHTK
	}
	return &WebhookService{
		secret:      cfg.Secret,
		idempotency: cfg.Idempotency,
		ttl:         ttl,
		carrierName: carrierName,
		orderRepo:   cfg.OrderRepo,
		eventRepo:   cfg.EventRepo,
		logger:      logger,
	}
}

// WebhookResult contains the result of processing a carrier push
type WebhookResult struct {
	CarrierOrderCode string `json:"carrier_order_code"`
	Status           string `json:"status"`
	Processed        bool   `json:"processed"`
	Duplicate        bool   `json:"duplicate,omitempty"`
}

// Process handles one carrier status push
func (s *WebhookService) Process(ctx context.Context, tenantID uuid.UUID, payload []byte, signature string) (*WebhookResult, error) {
	if err := s.verifySignature(payload, signature); err != nil {
		return nil, err
	}

	push, err := carrier.ParseWebhook(payload)
	if err != nil {
		return nil, err
	}

	status := push.StatusText()
	eventID := s.eventID(tenantID, push.LabelID, status, payload)

	newly, err := s.idempotency.MarkProcessed(ctx, eventID, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("idempotency check: %w", err)
	}
	if !newly {
		s.logger.Info("duplicate webhook dropped",
			zap.String("carrier_order_code", push.LabelID),
			zap.String("status", status),
		)
		return &WebhookResult{
			CarrierOrderCode: push.LabelID,
			Status:           status,
			Processed:        false,
			Duplicate:        true,
		}, nil
	}

	patch := shipping.OrderPatch{Status: &status}
	if push.PartnerID != "" {
		patch.LocalOrderID = &push.PartnerID
	}
	order, err := s.orderRepo.Upsert(ctx, shipping.OrderKey{
		TenantID:         tenantID,
		Carrier:          s.carrierName,
		CarrierOrderCode: push.LabelID,
	}, patch)
	if err != nil {
		// The push is already claimed in the idempotency store; losing the
		// write here means the carrier's retry will be dropped too. Loud
		// error so reconciliation (sync by codes) can repair the row.
		s.logger.Error("failed to persist webhook status",
			zap.String("carrier_order_code", push.LabelID),
			zap.String("status", status),
			zap.Error(err),
		)
		return nil, err
	}

	event := shipping.NewShippingEvent(tenantID, s.carrierName, push.LabelID, s.eventType(push)).
		WithStatus(status).
		WithPayload(string(payload)).
		WithOccurredAt(push.OccurredAt()).
		WithOrderID(order.ID)
	if err := s.eventRepo.Append(ctx, event); err != nil {
		s.logger.Error("failed to append webhook event",
			zap.String("carrier_order_code", push.LabelID),
			zap.Error(err),
		)
	}

	s.logger.Info("webhook processed",
		zap.String("carrier_order_code", push.LabelID),
		zap.String("status", status),
	)
	return &WebhookResult{
		CarrierOrderCode: push.LabelID,
		Status:           status,
		Processed:        true,
	}, nil
}

// verifySignature checks the HMAC-SHA256 hex signature over the raw body.
// With no secret configured the payload is accepted as-is.
func (s *WebhookService) verifySignature(payload []byte, signature string) error {
	if s.secret == "" {
		return nil
	}
	if signature == "" {
		return fmt.Errorf("%w: missing signature", shipping.ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("%w: signature mismatch", shipping.ErrInvalidSignature)
	}
	return nil
}

// eventID builds the deduplication key for one push
func (s *WebhookService) eventID(tenantID uuid.UUID, carrierOrderCode, status string, payload []byte) string {
	digest := sha256.Sum256(payload)
	return fmt.Sprintf("%s:%s:%s:%s:%s",
		tenantID, s.carrierName, carrierOrderCode, status, hex.EncodeToString(digest[:8]))
}

// eventType names the timeline entry for a push
func (s *WebhookService) eventType(push *carrier.WebhookPayload) string {
	if push.StatusID != 0 {
		return shipping.EventWebhookPrefix + strconv.Itoa(int(push.StatusID))
	}
	return shipping.EventWebhookPrefix + "status"
}
