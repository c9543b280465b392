package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks caller mistakes: missing prompt, unknown action,
	// missing action data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a referenced resource that no longer exists.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration marks missing or invalid configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrPaymentRequiresMethod means the customer has no usable default
	// payment method. It is remediated with a setup flow.
	ErrPaymentRequiresMethod = errors.New("no default payment method")
	// ErrPaymentDeclined is a business outcome: the card was declined or
	// the invoice cannot be paid in its current state.
	ErrPaymentDeclined = errors.New("payment declined")
	// ErrProvider covers network, auth and provider-side failures.
	ErrProvider = errors.New("payments provider error")
)

// PaymentError is a classified failure from paying an invoice.
type PaymentError struct {
	InvoiceID string
	Kind      error
	Err       error
	// Message is the provider's human-readable explanation, when it has one.
	Message string
}

func (e *PaymentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invoice %s: %v", e.InvoiceID, e.Kind)
	}
	return fmt.Sprintf("invoice %s: %v: %v", e.InvoiceID, e.Kind, e.Err)
}

// Unwrap exposes both the classification and the cause to errors.Is/As.
func (e *PaymentError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Detail returns the provider's explanation without the classification.
func (e *PaymentError) Detail() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Err.Error()
}

// InvalidInputf builds an ErrInvalidInput with a message.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// NotFoundf builds an ErrNotFound with a message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
