package shipping

import (
	"context"
	"io"

	"github.com/shopspring/decimal"

	"github.com/retailcore/shipping/internal/domain/geo"
)

// FeeQuoteRequest asks the carrier for a delivery fee
type FeeQuoteRequest struct {
	PickProvince    string
	PickDistrict    string
	PickWard        string
	PickAddress     string
	DeliverProvince string
	DeliverDistrict string
	DeliverWard     string
	DeliverAddress  string
	WeightGrams     int
	DeclaredValue   decimal.Decimal
	Transport       string // road, fly
	Tags            []int
}

// FeeQuote is the carrier's answer to a fee request
type FeeQuote struct {
	Fee          decimal.Decimal
	InsuranceFee decimal.Decimal
	Deliverable  bool
	DeliverType  string
}

// ParcelItem describes one product line inside a shipment
type ParcelItem struct {
	Name        string
	WeightGrams int
	Quantity    int
	ProductCode string
}

// CreateOrderRequest submits a new delivery order to the carrier.
// IdempotencyKey becomes the carrier-facing partner order identifier; it is
// held constant across address-variant retries so the carrier deduplicates.
type CreateOrderRequest struct {
	IdempotencyKey  string
	Items           []ParcelItem
	PickName        string
	PickPhone       string
	PickAddress     geo.Address
	DeliverName     string
	DeliverPhone    string
	DeliverAddress  geo.Address
	CODAmount       decimal.Decimal
	DeclaredValue   decimal.Decimal
	Transport       string
	ServiceTier     string // none, xteam
	IsFreeship      bool
	Note            string
}

// CreateOrderResult is the normalized outcome of a successful creation,
// regardless of which nested location the carrier response carried it in.
type CreateOrderResult struct {
	CarrierOrderCode     string
	Fee                  decimal.Decimal
	InsuranceFee         decimal.Decimal
	Status               string
	EstimatedPickTime    string
	EstimatedDeliverTime string
	AddressVariant       int
	RawResponse          string
}

// TrackingStatus is the carrier's current view of a shipment
type TrackingStatus struct {
	CarrierOrderCode string
	LocalOrderID     string
	StatusID         int
	Status           string
	PickDate         string
	DeliverDate      string
	ShipMoney        decimal.Decimal
	IsReturn         bool
	RawResponse      string
}

// LabelOptions controls label rendering
type LabelOptions struct {
	Original string // portrait, landscape
	PageSize string // A5, A6
}

// LabelDocument streams a binary label returned by the carrier. The caller
// must close Body.
type LabelDocument struct {
	ContentType string
	Body        io.ReadCloser
}

// PickAddress is a registered pickup point on the carrier side
type PickAddress struct {
	ID      string
	Name    string
	Address string
}

// Region is a carrier-sourced administrative region entry
type Region struct {
	ID       string
	Name     string
	ParentID string
}

// CarrierGateway is the port to the remote shipping carrier. The concrete
// client owns authentication, retry/backoff and address-variant fallback.
type CarrierGateway interface {
	CarrierName() string
	QuoteFee(ctx context.Context, req *FeeQuoteRequest) (*FeeQuote, error)
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResult, error)
	GetOrderStatus(ctx context.Context, carrierOrderCode string) (*TrackingStatus, error)
	GetLabel(ctx context.Context, carrierOrderCode string, opts LabelOptions) (*LabelDocument, error)
	CancelOrder(ctx context.Context, carrierOrderCode, reason string) error
	ListPickAddresses(ctx context.Context) ([]PickAddress, error)
	ListProvinces(ctx context.Context) ([]Region, error)
	ListDistricts(ctx context.Context, provinceID string) ([]Region, error)
	Ping(ctx context.Context) error
}
