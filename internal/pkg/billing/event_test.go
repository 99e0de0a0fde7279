package billing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGatewayEvent_Payment(t *testing.T) {
	raw := []byte(`{
		"id": "evt_1",
		"event": "PAYMENT_RECEIVED",
		"dateCreated": "2026-03-02 10:15:00",
		"payment": {
			"id": "pay_1",
			"customer": "cus_1",
			"subscription": null,
			"value": 129.9,
			"billingType": "PIX",
			"status": "RECEIVED",
			"dueDate": "2026-03-05",
			"unknownField": {"nested": true}
		}
	}`)

	ev, err := ParseGatewayEvent(raw)
	require.NoError(t, err)

	assert.Equal(t, "evt_1", ev.EventID)
	assert.Equal(t, EventPaymentReceived, ev.Type)
	assert.Equal(t, "pay_1", ev.GatewayPaymentID)
	assert.Equal(t, "cus_1", ev.GatewayCustomerID)
	assert.Empty(t, ev.GatewaySubscriptionID)
	assert.Equal(t, int64(12990), ev.AmountCents)
	assert.Equal(t, "PIX", ev.BillingMethod)
	assert.Equal(t, time.Date(2026, 3, 2, 10, 15, 0, 0, time.UTC), ev.OccurredAt)
	require.NotNil(t, ev.DueDate)
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), *ev.DueDate)
	assert.Equal(t, raw, ev.Raw)
}

func TestParseGatewayEvent_SubscriptionPayload(t *testing.T) {
	raw := []byte(`{
		"id": "evt_sub",
		"event": "subscription_created",
		"subscription": {
			"id": "sub_9",
			"customer": "cus_9",
			"value": 89.5,
			"cycle": "weekly",
			"nextDueDate": "2026-04-01",
			"externalReference": "plan:veggie-box"
		}
	}`)

	ev, err := ParseGatewayEvent(raw)
	require.NoError(t, err)

	assert.Equal(t, EventSubscriptionCreated, ev.Type)
	assert.Equal(t, "sub_9", ev.GatewaySubscriptionID)
	assert.Equal(t, "cus_9", ev.GatewayCustomerID)
	assert.Empty(t, ev.GatewayPaymentID)
	assert.Equal(t, SourceSubscription, ev.Source)
	assert.Equal(t, "WEEKLY", ev.Cycle)
	assert.Equal(t, "plan:veggie-box", ev.ExternalReference)
	require.NotNil(t, ev.NextDueDate)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), *ev.NextDueDate)
}

func TestParseGatewayEvent_SubscriptionPaymentReference(t *testing.T) {
	ev, err := ParseGatewayEvent([]byte(`{"id":"evt_2","event":"PAYMENT_CONFIRMED","payment":{"id":"pay_7","customer":"cus_9","subscription":"sub_9"}}`))
	require.NoError(t, err)

	assert.Equal(t, "pay_7", ev.GatewayPaymentID)
	assert.Equal(t, "sub_9", ev.GatewaySubscriptionID)
}

func TestParseGatewayEvent_SubscriptionEventWithOnlyPayment(t *testing.T) {
	ev, err := ParseGatewayEvent([]byte(`{"id":"evt_3","event":"SUBSCRIPTION_CANCELED","payment":{"id":"pay_1"}}`))
	require.NoError(t, err)

	assert.Equal(t, EventSubscriptionCanceled, ev.Type)
	assert.Equal(t, SourcePayment, ev.Source)
	assert.Equal(t, "pay_1", ev.GatewayPaymentID)
	assert.Empty(t, ev.GatewaySubscriptionID)
}

func TestParseGatewayEvent_DerivesEventIDFromBody(t *testing.T) {
	raw := []byte(`{"event":"PAYMENT_OVERDUE","payment":{"id":"pay_1"}}`)

	first, err := ParseGatewayEvent(raw)
	require.NoError(t, err)
	second, err := ParseGatewayEvent(raw)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first.EventID, "hash:"))
	assert.Len(t, first.EventID, len("hash:")+64)
	assert.Equal(t, first.EventID, second.EventID)
}

func TestParseGatewayEvent_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `event=PAYMENT_RECEIVED`},
		{name: "empty body", raw: ``},
		{name: "missing event", raw: `{"id":"evt","payment":{"id":"pay_1"}}`},
		{name: "blank event", raw: `{"id":"evt","event":"  ","payment":{"id":"pay_1"}}`},
		{name: "event wrong type", raw: `{"id":"evt","event":42,"payment":{"id":"pay_1"}}`},
		{name: "no object", raw: `{"id":"evt","event":"PAYMENT_RECEIVED"}`},
		{name: "payment without id", raw: `{"id":"evt","event":"PAYMENT_RECEIVED","payment":{"customer":"cus_1"}}`},
		{name: "payment wrong shape", raw: `{"id":"evt","event":"PAYMENT_RECEIVED","payment":"pay_1"}`},
		{name: "value wrong type", raw: `{"id":"evt","event":"PAYMENT_RECEIVED","payment":{"id":"pay_1","value":"ten"}}`},
		{name: "payment event with subscription only", raw: `{"id":"evt","event":"PAYMENT_RECEIVED","subscription":{"id":"sub_1"}}`},
		{name: "bad due date", raw: `{"id":"evt","event":"PAYMENT_RECEIVED","payment":{"id":"pay_1","dueDate":"05/03/2026"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGatewayEvent([]byte(tt.raw))
			assert.ErrorIs(t, err, ErrMalformedPayload)
			assert.True(t, IsRejection(err))
		})
	}
}

func TestParseGatewayEvent_UnknownEventType(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "with payment", raw: `{"id":"evt","event":"PAYMENT_CHARGEBACK_REQUESTED","payment":{"id":"pay_1"}}`},
		{name: "without object", raw: `{"id":"evt","event":"FOO"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGatewayEvent([]byte(tt.raw))
			assert.ErrorIs(t, err, ErrUnknownEventType)
			assert.NotErrorIs(t, err, ErrMalformedPayload)
			assert.True(t, IsRejection(err))
		})
	}
}
