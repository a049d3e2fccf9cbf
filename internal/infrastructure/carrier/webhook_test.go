package carrier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcore/shipping/internal/domain/shipping"
)

func TestParseWebhook(t *testing.T) {
	t.Run("string identifiers", func(t *testing.T) {
		p, err := ParseWebhook([]byte(`{
			"label_id": "S1.A2.17373471",
			"partner_id": "ORD-2026-0042",
			"status_id": "5",
			"action_time": "2026-08-30 14:05:00"
		}`))
		require.NoError(t, err)
		assert.Equal(t, "S1.A2.17373471", p.LabelID)
		assert.Equal(t, "ORD-2026-0042", p.PartnerID)
		assert.Equal(t, 5, int(p.StatusID))
	})

	t.Run("numeric identifiers", func(t *testing.T) {
		p, err := ParseWebhook([]byte(`{
			"label_id": 17373471,
			"partner_id": 42,
			"status_id": 5
		}`))
		require.NoError(t, err)
		assert.Equal(t, "17373471", p.LabelID)
		assert.Equal(t, "42", p.PartnerID)
		assert.Equal(t, 5, int(p.StatusID))
	})

	t.Run("missing label_id is malformed", func(t *testing.T) {
		_, err := ParseWebhook([]byte(`{"partner_id": "ORD-1", "status_id": 5}`))
		assert.ErrorIs(t, err, shipping.ErrMalformedPayload)
	})

	t.Run("invalid json is malformed", func(t *testing.T) {
		_, err := ParseWebhook([]byte(`{`))
		assert.ErrorIs(t, err, shipping.ErrMalformedPayload)
	})
}

func TestWebhookPayloadStatusText(t *testing.T) {
	p := &WebhookPayload{Status: "Đã giao hàng", StatusID: 5}
	assert.Equal(t, "Đã giao hàng", p.StatusText())

	p = &WebhookPayload{StatusID: 5}
	assert.Equal(t, StatusText(5), p.StatusText())
}
