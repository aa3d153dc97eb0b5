// Package domain holds validated value types shared across the delivery
// pipeline.
package domain

import (
	"fmt"
	"regexp"
)

// Mirrors the WHATWG HTML5 email production. Addresses are stored raw in the
// queue and only validated here, at the last moment before sending.
var emailRegex = regexp.MustCompile(
	"^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

const maxEmailLength = 254

// SubscriberEmail is an email address that passed well-formedness validation.
// The zero value is invalid; obtain one through ParseSubscriberEmail.
type SubscriberEmail struct {
	value string
}

// ParseSubscriberEmail validates a raw recipient string. A parse failure is a
// permanent condition: the caller must not retry the address later.
func ParseSubscriberEmail(raw string) (SubscriberEmail, error) {
	if raw == "" {
		return SubscriberEmail{}, fmt.Errorf("subscriber email is empty")
	}
	if len(raw) > maxEmailLength {
		return SubscriberEmail{}, fmt.Errorf("subscriber email exceeds %d characters", maxEmailLength)
	}
	if !emailRegex.MatchString(raw) {
		return SubscriberEmail{}, fmt.Errorf("%q is not a valid subscriber email", raw)
	}
	return SubscriberEmail{value: raw}, nil
}

func (e SubscriberEmail) String() string {
	return e.value
}
