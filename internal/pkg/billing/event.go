package billing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var payloadValidator = validator.New()

// gatewayDateLayouts are tried in order; the gateway mixes plain dates,
// local timestamps and RFC 3339 depending on the field.
var gatewayDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type webhookEnvelope struct {
	ID           string              `json:"id"`
	Event        string              `json:"event" validate:"required"`
	DateCreated  string              `json:"dateCreated"`
	Payment      *paymentObject      `json:"payment" validate:"required_without=Subscription"`
	Subscription *subscriptionObject `json:"subscription" validate:"required_without=Payment"`
}

type paymentObject struct {
	ID                string   `json:"id" validate:"required"`
	Customer          string   `json:"customer"`
	Subscription      *string  `json:"subscription"`
	Value             *float64 `json:"value"`
	BillingType       string   `json:"billingType"`
	Status            string   `json:"status"`
	DueDate           string   `json:"dueDate"`
	ExternalReference *string  `json:"externalReference"`
}

type subscriptionObject struct {
	ID                string   `json:"id" validate:"required"`
	Customer          string   `json:"customer"`
	Value             *float64 `json:"value"`
	Cycle             string   `json:"cycle"`
	BillingType       string   `json:"billingType"`
	Status            string   `json:"status"`
	NextDueDate       string   `json:"nextDueDate"`
	ExternalReference *string  `json:"externalReference"`
}

// ParseGatewayEvent validates a raw webhook body and normalizes it into a
// GatewayEvent. It fails with ErrMalformedPayload or ErrUnknownEventType.
func ParseGatewayEvent(raw []byte) (*GatewayEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	env.Event = strings.TrimSpace(env.Event)
	eventType := EventType(strings.ToUpper(env.Event))
	if env.Event != "" && !eventType.IsKnown() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, env.Event)
	}
	if err := payloadValidator.Struct(env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	ev := &GatewayEvent{
		EventID: strings.TrimSpace(env.ID),
		Type:    eventType,
		Raw:     append([]byte(nil), raw...),
	}
	if ev.EventID == "" {
		sum := sha256.Sum256(raw)
		ev.EventID = "hash:" + hex.EncodeToString(sum[:])
	}

	occurredAt, err := parseGatewayTime(env.DateCreated)
	if err != nil {
		return nil, fmt.Errorf("%w: dateCreated: %v", ErrMalformedPayload, err)
	}
	if occurredAt != nil {
		ev.OccurredAt = *occurredAt
	}

	switch {
	case eventType.IsSubscriptionEvent() && env.Subscription != nil:
		if err := ev.applySubscription(env.Subscription); err != nil {
			return nil, err
		}
	case env.Payment != nil:
		// A subscription event that only carries a payment object is kept as
		// a payment reference; the resolver rejects it as a bad transition.
		if err := ev.applyPayment(env.Payment); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s requires a payment object", ErrMalformedPayload, eventType)
	}

	return ev, nil
}

func (ev *GatewayEvent) applyPayment(p *paymentObject) error {
	ev.Source = SourcePayment
	ev.GatewayPaymentID = strings.TrimSpace(p.ID)
	ev.GatewayCustomerID = strings.TrimSpace(p.Customer)
	if p.Subscription != nil {
		ev.GatewaySubscriptionID = strings.TrimSpace(*p.Subscription)
	}
	ev.AmountCents = toCents(p.Value)
	ev.BillingMethod = strings.TrimSpace(p.BillingType)
	ev.GatewayStatus = strings.TrimSpace(p.Status)
	if p.ExternalReference != nil {
		ev.ExternalReference = strings.TrimSpace(*p.ExternalReference)
	}

	due, err := parseGatewayTime(p.DueDate)
	if err != nil {
		return fmt.Errorf("%w: payment.dueDate: %v", ErrMalformedPayload, err)
	}
	ev.DueDate = due
	return nil
}

func (ev *GatewayEvent) applySubscription(s *subscriptionObject) error {
	ev.Source = SourceSubscription
	ev.GatewaySubscriptionID = strings.TrimSpace(s.ID)
	ev.GatewayCustomerID = strings.TrimSpace(s.Customer)
	ev.AmountCents = toCents(s.Value)
	ev.BillingMethod = strings.TrimSpace(s.BillingType)
	ev.GatewayStatus = strings.TrimSpace(s.Status)
	ev.Cycle = strings.ToUpper(strings.TrimSpace(s.Cycle))
	if s.ExternalReference != nil {
		ev.ExternalReference = strings.TrimSpace(*s.ExternalReference)
	}

	next, err := parseGatewayTime(s.NextDueDate)
	if err != nil {
		return fmt.Errorf("%w: subscription.nextDueDate: %v", ErrMalformedPayload, err)
	}
	ev.NextDueDate = next
	return nil
}

func parseGatewayTime(value string) (*time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil, nil
	}
	for _, layout := range gatewayDateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unsupported date format %q", v)
}

func toCents(value *float64) int64 {
	if value == nil {
		return 0
	}
	return int64(math.Round(*value * 100))
}
