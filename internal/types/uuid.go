package types

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex subs_01HZX4Y2K8FJOOFXTY1KQ3M9AB
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

const (
	// Prefixes for all domains and entities

	UUID_PREFIX_CUSTOMER       = "cust"
	UUID_PREFIX_ADDRESS        = "addr"
	UUID_PREFIX_PAYMENT_METHOD = "pm"
	UUID_PREFIX_SUBSCRIPTION   = "subs"
	UUID_PREFIX_DISCOUNT       = "disc"
	UUID_PREFIX_TRANSACTION    = "txn"
	UUID_PREFIX_PLAN           = "plan"
	UUID_PREFIX_COUPON         = "coupon"
	UUID_PREFIX_EVENT          = "event"
)
