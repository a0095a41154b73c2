// Package service holds the business rules of the storefront: admin
// sessions, the order lifecycle and promo-code redemption.  Services talk to
// storage through small interfaces satisfied by the repository package and
// report failures through the sentinels below.
package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrAdminNotFound   = errors.New("admin not found")
	ErrAdminInactive   = errors.New("admin is inactive")
	ErrBadCredential   = errors.New("bad credentials")
	ErrUnauthenticated = errors.New("unauthenticated")

	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("order status transition not allowed")

	ErrPromoNotFound      = errors.New("promo code not found")
	ErrPromoInactive      = errors.New("promo code is not active")
	ErrPromoUsageExceeded = errors.New("promo code usage limit reached")
	ErrPromoExpired       = errors.New("promo code has expired")
	ErrPromoNotYetValid   = errors.New("promo code is not valid yet")
	ErrPromoCodeExists    = errors.New("promo code already exists")
)

// ValidationError carries field-level problems found in client input.
// Fields maps the JSON field name to a short message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// orNil returns nil when no field was flagged so callers can write
// `return verr.orNil()`.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// IsPromoRejection reports whether err is one of the promo eligibility
// failures surfaced to customers as a 400.
func IsPromoRejection(err error) bool {
	return errors.Is(err, ErrPromoNotFound) || errors.Is(err, ErrPromoInactive) ||
		errors.Is(err, ErrPromoUsageExceeded) || errors.Is(err, ErrPromoExpired) ||
		errors.Is(err, ErrPromoNotYetValid)
}
