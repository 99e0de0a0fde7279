package billing

import "errors"

// Business rejections. Webhooks failing with one of these are acknowledged
// to the gateway and logged; retrying them can never succeed.
var (
	ErrMalformedPayload    = errors.New("malformed webhook payload")
	ErrUnknownEventType    = errors.New("unknown webhook event type")
	ErrUnresolvedReference = errors.New("webhook references unknown order or subscription")
	ErrInvalidTransition   = errors.New("no transition defined for event in current status")
)

// IsRejection reports whether err is a business rejection. Any other error
// is treated as transient so the gateway redelivers.
func IsRejection(err error) bool {
	return errors.Is(err, ErrMalformedPayload) ||
		errors.Is(err, ErrUnknownEventType) ||
		errors.Is(err, ErrUnresolvedReference) ||
		errors.Is(err, ErrInvalidTransition)
}
