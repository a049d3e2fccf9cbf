package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/retailcore/shipping/internal/domain/geo"
	"github.com/retailcore/shipping/internal/domain/shipping"
)

const (
	// maxResponseSize limits response bodies to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024

	gramsPerKilogram = 1000
)

// Client is the authenticated HTTP client for the carrier API. It owns
// retry/backoff and the address-variant fallback on order creation.
type Client struct {
	cfg        *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a carrier client. A missing token fails here, before
// any network call is made.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: logger.Named("carrier"),
	}, nil
}

// CarrierName returns the carrier identifier persisted on orders and events
func (c *Client) CarrierName() string {
	return shipping.CarrierGHTK
}

// QuoteFee asks the carrier for a delivery fee quote
func (c *Client) QuoteFee(ctx context.Context, req *shipping.FeeQuoteRequest) (*shipping.FeeQuote, error) {
	q := url.Values{}
	q.Set("pick_province", geo.CanonicalizeProvince(req.PickProvince))
	q.Set("pick_district", geo.CanonicalizeDistrict(req.PickDistrict))
	if req.PickWard != "" {
		q.Set("pick_ward", geo.CanonicalizeWard(req.PickWard))
	}
	if req.PickAddress != "" {
		q.Set("pick_address", req.PickAddress)
	}
	q.Set("province", geo.CanonicalizeProvince(req.DeliverProvince))
	q.Set("district", geo.CanonicalizeDistrict(req.DeliverDistrict))
	if req.DeliverWard != "" {
		q.Set("ward", geo.CanonicalizeWard(req.DeliverWard))
	}
	if req.DeliverAddress != "" {
		q.Set("address", req.DeliverAddress)
	}
	q.Set("weight", strconv.Itoa(req.WeightGrams))
	if !req.DeclaredValue.IsZero() {
		q.Set("value", req.DeclaredValue.String())
	}
	if req.Transport != "" {
		q.Set("transport", req.Transport)
	}
	for _, tag := range req.Tags {
		q.Add("tags[]", strconv.Itoa(tag))
	}

	env, _, err := c.doJSON(ctx, http.MethodGet, "/services/shipment/fee", q, nil)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, carrierError(env.Message)
	}
	fee, err := decodeFee(env)
	if err != nil {
		return nil, err
	}
	return &shipping.FeeQuote{
		Fee:          fee.Fee,
		InsuranceFee: fee.InsuranceFee,
		Deliverable:  fee.Delivery,
		DeliverType:  fee.DeliverType,
	}, nil
}

// CreateOrder submits a delivery order. The idempotency key is sent as the
// carrier-facing order identifier and held constant while up to three
// progressively simplified address variants are tried, so a stricter-than-
// expected carrier address parser never causes a duplicate shipment.
func (c *Client) CreateOrder(ctx context.Context, req *shipping.CreateOrderRequest) (*shipping.CreateOrderResult, error) {
	if req.IdempotencyKey == "" {
		return nil, fmt.Errorf("%w: idempotency key is required", shipping.ErrCarrierRequestFailed)
	}

	variants := buildAddressVariants(req.DeliverAddress)
	var lastMessage string
	for i, variant := range variants {
		body := c.buildOrderBody(req, variant)

		env, raw, err := c.doJSON(ctx, http.MethodPost, "/services/shipment/order", nil, body)
		if err != nil {
			return nil, err
		}
		if !env.Success {
			lastMessage = env.Message
			if isAddressError(env.Message) && i < len(variants)-1 {
				c.logger.Info("carrier rejected address variant, retrying with simpler form",
					zap.Int("variant", i+1),
					zap.String("order_id", req.IdempotencyKey),
					zap.String("message", env.Message),
				)
				continue
			}
			if isAddressError(env.Message) {
				return nil, fmt.Errorf("%w: %s", shipping.ErrAddressRejected, env.Message)
			}
			return nil, carrierError(env.Message)
		}

		payload, err := decodeCreateOrder(env)
		if err != nil {
			return nil, err
		}
		code := payload.Label
		if code == "" {
			code = strconv.Itoa(int(payload.TrackingID))
		}
		return &shipping.CreateOrderResult{
			CarrierOrderCode:     code,
			Fee:                  payload.Fee,
			InsuranceFee:         payload.InsuranceFee,
			Status:               StatusText(int(payload.StatusID)),
			EstimatedPickTime:    payload.EstimatedPickTime,
			EstimatedDeliverTime: payload.EstimatedDeliverTime,
			AddressVariant:       i + 1,
			RawResponse:          string(raw),
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", shipping.ErrAddressRejected, lastMessage)
}

// GetOrderStatus fetches the carrier's current view of a shipment
func (c *Client) GetOrderStatus(ctx context.Context, carrierOrderCode string) (*shipping.TrackingStatus, error) {
	path := "/services/shipment/v2/" + url.PathEscape(carrierOrderCode)
	env, raw, err := c.doJSON(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, carrierError(env.Message)
	}
	payload, err := decodeTracking(env)
	if err != nil {
		return nil, err
	}
	status := payload.StatusText
	if status == "" {
		status = StatusText(int(payload.Status))
	}
	return &shipping.TrackingStatus{
		CarrierOrderCode: payload.LabelID,
		LocalOrderID:     payload.PartnerID,
		StatusID:         int(payload.Status),
		Status:           status,
		PickDate:         payload.PickDate,
		DeliverDate:      payload.DeliverDate,
		ShipMoney:        payload.ShipMoney,
		IsReturn:         payload.IsReturn != 0,
		RawResponse:      string(raw),
	}, nil
}

// GetLabel streams the shipment label document. A non-success carrier
// response is parsed as JSON and surfaced as a structured error instead of
// a malformed binary body. The caller must close the returned Body.
func (c *Client) GetLabel(ctx context.Context, carrierOrderCode string, opts shipping.LabelOptions) (*shipping.LabelDocument, error) {
	q := url.Values{}
	if opts.Original != "" {
		q.Set("original", opts.Original)
	}
	if opts.PageSize != "" {
		q.Set("page_size", opts.PageSize)
	}
	path := "/services/label/" + url.PathEscape(carrierOrderCode)

	resp, err := c.doRaw(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode != http.StatusOK || strings.Contains(contentType, "application/json") {
		defer resp.Body.Close()
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if readErr != nil {
			return nil, fmt.Errorf("%w: reading label error body: %v", shipping.ErrCarrierRequestFailed, readErr)
		}
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("%w: HTTP %d", shipping.ErrCarrierRequestFailed, resp.StatusCode)
		}
		return nil, carrierError(env.Message)
	}

	return &shipping.LabelDocument{
		ContentType: contentType,
		Body:        resp.Body,
	}, nil
}

// CancelOrder cancels a shipment. Carrier-native tracking codes contain
// separator dots and go to the label endpoint; anything else is treated as
// the partner-assigned identifier and routed accordingly.
func (c *Client) CancelOrder(ctx context.Context, carrierOrderCode, reason string) error {
	var path string
	if strings.Contains(carrierOrderCode, ".") {
		path = "/services/shipment/cancel/" + url.PathEscape(carrierOrderCode)
	} else {
		path = "/services/shipment/cancel/partner_id:" + url.PathEscape(carrierOrderCode)
	}

	var body any
	if reason != "" {
		body = map[string]string{"reason": reason}
	}
	env, _, err := c.doJSON(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}
	if !env.Success {
		return carrierError(env.Message)
	}
	return nil
}

// ListPickAddresses lists the pickup points registered with the carrier
func (c *Client) ListPickAddresses(ctx context.Context) ([]shipping.PickAddress, error) {
	env, _, err := c.doJSON(ctx, http.MethodGet, "/services/shipment/list_pick_add", nil, nil)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, carrierError(env.Message)
	}
	var payloads []pickAddressPayload
	if err := json.Unmarshal(env.Data, &payloads); err != nil {
		return nil, errInvalidResponse("pick address listing is not a list")
	}
	out := make([]shipping.PickAddress, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, shipping.PickAddress{
			ID:      strconv.Itoa(int(p.PickAddressID)),
			Name:    p.Name,
			Address: p.Address,
		})
	}
	return out, nil
}

// ListProvinces fetches the carrier's own province listing
func (c *Client) ListProvinces(ctx context.Context) ([]shipping.Region, error) {
	return c.listRegions(ctx, "/services/address/province", nil)
}

// ListDistricts fetches the carrier's district listing for a province
func (c *Client) ListDistricts(ctx context.Context, provinceID string) ([]shipping.Region, error) {
	q := url.Values{}
	q.Set("province_id", provinceID)
	return c.listRegions(ctx, "/services/address/district", q)
}

func (c *Client) listRegions(ctx context.Context, path string, q url.Values) ([]shipping.Region, error) {
	env, _, err := c.doJSON(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, carrierError(env.Message)
	}
	var payloads []regionPayload
	if err := json.Unmarshal(env.Data, &payloads); err != nil {
		return nil, errInvalidResponse("region listing is not a list")
	}
	out := make([]shipping.Region, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, shipping.Region{
			ID:       strconv.Itoa(int(p.ID)),
			Name:     p.Name,
			ParentID: strconv.Itoa(int(p.ParentID)),
		})
	}
	return out, nil
}

// Ping checks that the token authenticates against the carrier
func (c *Client) Ping(ctx context.Context) error {
	env, _, err := c.doJSON(ctx, http.MethodGet, "/services/authenticated", nil, nil)
	if err != nil {
		return err
	}
	if !env.Success {
		return carrierError(env.Message)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// doJSON performs a request and decodes the carrier's response envelope
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body any) (*envelope, []byte, error) {
	resp, err := c.doRaw(ctx, method, path, query, body)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading response: %v", shipping.ErrCarrierRequestFailed, err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, fmt.Errorf("%w: undecodable response (HTTP %d)", shipping.ErrCarrierRequestFailed, resp.StatusCode)
	}
	return &env, raw, nil
}

// doRaw performs an authenticated request with retry. Transient failures
// (network errors, 5xx) are retried up to MaxRetries with linearly
// increasing delay; 401/403 fail immediately with a credentials error.
func (c *Client) doRaw(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: marshaling request: %v", shipping.ErrCarrierRequestFailed, err)
		}
	}

	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * c.cfg.RetryBaseDelay
			c.logger.Warn("retrying carrier request",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		var reader io.Reader
		if bodyBytes != nil {
			reader = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return nil, fmt.Errorf("%w: building request: %v", shipping.ErrCarrierRequestFailed, err)
		}
		req.Header.Set("Token", c.cfg.Token)
		if c.cfg.PartnerCode != "" {
			req.Header.Set("X-Client-Source", c.cfg.PartnerCode)
		}
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			resp.Body.Close()
			return nil, fmt.Errorf("%w: HTTP %d", shipping.ErrInvalidCredentials, resp.StatusCode)
		case resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = fmt.Errorf("carrier returned HTTP %d", resp.StatusCode)
			continue
		default:
			return resp, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", shipping.ErrCarrierUnavailable, lastErr)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// buildAddressVariants returns the delivery-address forms tried in order:
// the full canonicalized composition, street and ward only, then the
// caller's unmodified input.
func buildAddressVariants(addr geo.Address) []geo.Address {
	canonical := geo.Canonicalize(addr)
	streetOnly := geo.Address{
		Province: canonical.Province,
		District: canonical.District,
		Ward:     canonical.Ward,
		Street:   strings.TrimSpace(addr.Street),
	}
	return []geo.Address{canonical, streetOnly, addr}
}

func (c *Client) buildOrderBody(req *shipping.CreateOrderRequest, deliver geo.Address) *createOrderBody {
	products := make([]orderProductBody, 0, len(req.Items))
	for _, item := range req.Items {
		products = append(products, orderProductBody{
			Name:     item.Name,
			Weight:   float64(item.WeightGrams) / gramsPerKilogram,
			Quantity: item.Quantity,
			Code:     item.ProductCode,
		})
	}

	pick := geo.Canonicalize(req.PickAddress)
	info := orderInfoBody{
		ID:           req.IdempotencyKey,
		PickName:     req.PickName,
		PickAddress:  pick.FullStreet(),
		PickProvince: pick.Province,
		PickDistrict: pick.District,
		PickWard:     pick.Ward,
		PickTel:      req.PickPhone,
		Name:         req.DeliverName,
		Address:      deliver.FullStreet(),
		Province:     deliver.Province,
		District:     deliver.District,
		Ward:         deliver.Ward,
		Hamlet:       deliver.Hamlet,
		Tel:          req.DeliverPhone,
		Note:         req.Note,
		PickMoney:    req.CODAmount.IntPart(),
		Value:        req.DeclaredValue.IntPart(),
		Transport:    req.Transport,
		DeliverOpt:   req.ServiceTier,
	}
	if req.IsFreeship {
		info.IsFreeship = "1"
	}
	return &createOrderBody{Products: products, Order: info}
}

// StatusText maps the carrier's numeric status to its display vocabulary
func StatusText(statusID int) string {
	switch statusID {
	case -1:
		return "Hủy đơn hàng"
	case 1:
		return "Chưa tiếp nhận"
	case 2:
		return "Đã tiếp nhận"
	case 3:
		return "Đã lấy hàng"
	case 4:
		return "Đã điều phối giao hàng"
	case 5:
		return "Đã giao hàng"
	case 6:
		return "Đã đối soát"
	case 7:
		return "Không lấy được hàng"
	case 9:
		return "Không giao được hàng"
	case 20:
		return "Đang trả hàng"
	case 21:
		return "Đã trả hàng"
	default:
		return strconv.Itoa(statusID)
	}
}

// notFoundKeywords mark carrier messages that mean the order code is unknown
var notFoundKeywords = []string{
	"không tồn tại",
	"khong ton tai",
	"not found",
	"not exist",
	"không tìm thấy đơn",
}

// carrierError classifies a carrier failure message
func carrierError(message string) error {
	m := strings.ToLower(message)
	for _, kw := range notFoundKeywords {
		if strings.Contains(m, kw) {
			return fmt.Errorf("%w: %s", shipping.ErrOrderNotFound, message)
		}
	}
	return fmt.Errorf("%w: %s", shipping.ErrCarrierRequestFailed, message)
}

func errInvalidResponse(msg string) error {
	return fmt.Errorf("%w: %s", shipping.ErrCarrierRequestFailed, msg)
}

// Ensure Client implements the gateway port
var _ shipping.CarrierGateway = (*Client)(nil)
