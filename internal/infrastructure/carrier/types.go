package carrier

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// flexInt decodes an integer the carrier serializes as either a JSON number
// or a quoted string, depending on endpoint and error state.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// flexString decodes an identifier the carrier serializes as either a quoted
// string or a bare JSON number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		*f = ""
		return nil
	}
	*f = flexString(s)
	return nil
}

// envelope is the carrier's common response wrapper. Success payloads appear
// in different nested locations depending on the call; each decode helper
// below reads the one location its endpoint uses.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	LogID   string          `json:"log_id,omitempty"`
	Fee     json.RawMessage `json:"fee,omitempty"`
	Order   json.RawMessage `json:"order,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// feePayload is the fee-quote shape. The fee amount arrives either as the
// whole "fee" object or as a bare number under it.
type feePayload struct {
	Name         string          `json:"name"`
	Fee          decimal.Decimal `json:"fee"`
	InsuranceFee decimal.Decimal `json:"insurance_fee"`
	Delivery     bool            `json:"delivery"`
	DeliverType  string          `json:"delivery_type"`
}

func decodeFee(env *envelope) (*feePayload, error) {
	if len(env.Fee) == 0 {
		return nil, errInvalidResponse("fee quote missing fee payload")
	}
	var p feePayload
	if err := json.Unmarshal(env.Fee, &p); err != nil {
		// Some variants return the amount as a bare number.
		var amount decimal.Decimal
		if err2 := json.Unmarshal(env.Fee, &amount); err2 != nil {
			return nil, err
		}
		p = feePayload{Fee: amount, Delivery: true}
	}
	return &p, nil
}

// createOrderPayload is the order-creation shape
type createOrderPayload struct {
	PartnerID            string          `json:"partner_id"`
	Label                string          `json:"label"`
	Area                 string          `json:"area"`
	Fee                  decimal.Decimal `json:"fee"`
	InsuranceFee         decimal.Decimal `json:"insurance_fee"`
	EstimatedPickTime    string          `json:"estimated_pick_time"`
	EstimatedDeliverTime string          `json:"estimated_deliver_time"`
	StatusID             flexInt         `json:"status_id"`
	TrackingID           flexInt         `json:"tracking_id"`
	SortingCode          string          `json:"sorting_code"`
}

func decodeCreateOrder(env *envelope) (*createOrderPayload, error) {
	raw := env.Order
	if len(raw) == 0 {
		// Some error-recovery responses nest the order under "data".
		raw = env.Data
	}
	if len(raw) == 0 {
		return nil, errInvalidResponse("order creation missing order payload")
	}
	var p createOrderPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if p.Label == "" && p.TrackingID == 0 {
		return nil, errInvalidResponse("order creation returned no tracking code")
	}
	return &p, nil
}

// trackPayload is the tracking-status shape
type trackPayload struct {
	LabelID     string          `json:"label_id"`
	PartnerID   string          `json:"partner_id"`
	Status      flexInt         `json:"status"`
	StatusText  string          `json:"status_text"`
	PickDate    string          `json:"pick_date"`
	DeliverDate string          `json:"deliver_date"`
	ShipMoney   decimal.Decimal `json:"ship_money"`
	IsReturn    flexInt         `json:"is_return"`
}

func decodeTracking(env *envelope) (*trackPayload, error) {
	if len(env.Order) == 0 {
		return nil, errInvalidResponse("tracking response missing order payload")
	}
	var p trackPayload
	if err := json.Unmarshal(env.Order, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// pickAddressPayload is one entry of the pick-address listing
type pickAddressPayload struct {
	PickAddressID flexInt `json:"pick_address_id"`
	Name          string  `json:"pick_name"`
	Address       string  `json:"address"`
}

// regionPayload is one entry of the carrier's region listing
type regionPayload struct {
	ID       flexInt `json:"id"`
	Name     string  `json:"name"`
	ParentID flexInt `json:"parent_id"`
}

// Outbound request bodies

type orderProductBody struct {
	Name     string  `json:"name"`
	Weight   float64 `json:"weight"` // kilograms
	Quantity int     `json:"quantity"`
	Code     string  `json:"product_code,omitempty"`
}

type orderInfoBody struct {
	ID           string `json:"id"`
	PickName     string `json:"pick_name"`
	PickAddress  string `json:"pick_address"`
	PickProvince string `json:"pick_province"`
	PickDistrict string `json:"pick_district"`
	PickWard     string `json:"pick_ward,omitempty"`
	PickTel      string `json:"pick_tel"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	Province     string `json:"province"`
	District     string `json:"district"`
	Ward         string `json:"ward,omitempty"`
	Hamlet       string `json:"hamlet,omitempty"`
	Tel          string `json:"tel"`
	Note         string `json:"note,omitempty"`
	PickMoney    int64  `json:"pick_money"`
	Value        int64  `json:"value"`
	Transport    string `json:"transport,omitempty"`
	DeliverOpt   string `json:"deliver_option,omitempty"`
	IsFreeship   string `json:"is_freeship,omitempty"`
}

type createOrderBody struct {
	Products []orderProductBody `json:"products"`
	Order    orderInfoBody      `json:"order"`
}

// addressKeywords are the substrings of carrier error messages that indicate
// the address was rejected for formatting rather than a hard failure. The
// carrier exposes no error-code taxonomy, so this keyword heuristic is the
// trigger for the address-variant retry.
var addressKeywords = []string{
	"địa chỉ",
	"dia chi",
	"không tìm thấy",
	"khong tim thay",
	"phường",
	"phuong",
	"quận",
	"quan",
	"xã",
	"address",
}

// isAddressError reports whether a carrier error message looks like an
// address-validation rejection
func isAddressError(message string) bool {
	m := strings.ToLower(message)
	for _, kw := range addressKeywords {
		if strings.Contains(m, kw) {
			return true
		}
	}
	return false
}
