package carrier

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/retailcore/shipping/internal/domain/shipping"
)

// WebhookPayload is the carrier's status push. Field types follow the same
// loose conventions as the pull API: identifiers and numerics may arrive as
// either numbers or strings.
type WebhookPayload struct {
	LabelID    string          `json:"-"`
	PartnerID  string          `json:"-"`
	StatusID   flexInt         `json:"status_id"`
	Status     string          `json:"status"`
	ActionTime string          `json:"action_time"`
	ReasonCode string          `json:"reason_code"`
	Reason     string          `json:"reason"`
	Weight     float64         `json:"weight"`
	Fee        decimal.Decimal `json:"fee"`
}

// UnmarshalJSON decodes the identifier fields through flexString so a push
// serializing label_id or partner_id as a bare number is still accepted.
func (p *WebhookPayload) UnmarshalJSON(data []byte) error {
	type plain WebhookPayload
	aux := struct {
		*plain
		LabelID   flexString `json:"label_id"`
		PartnerID flexString `json:"partner_id"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.LabelID = string(aux.LabelID)
	p.PartnerID = string(aux.PartnerID)
	return nil
}

// ParseWebhook decodes a carrier status push. A payload without a label id
// cannot be attached to any shipment and is rejected as malformed.
func ParseWebhook(raw []byte) (*WebhookPayload, error) {
	var p WebhookPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", shipping.ErrMalformedPayload, err)
	}
	if p.LabelID == "" {
		return nil, fmt.Errorf("%w: missing label_id", shipping.ErrMalformedPayload)
	}
	return &p, nil
}

// StatusText returns the human status pushed by the carrier, falling back
// to the numeric status vocabulary.
func (p *WebhookPayload) StatusText() string {
	if p.Status != "" {
		return p.Status
	}
	return StatusText(int(p.StatusID))
}

// OccurredAt parses the carrier's action time. The carrier sends local
// wall-clock timestamps without a zone; a zero time is returned when the
// field is absent or unparseable so callers can substitute receipt time.
func (p *WebhookPayload) OccurredAt() time.Time {
	if p.ActionTime == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, p.ActionTime); err == nil {
			return t
		}
	}
	return time.Time{}
}
