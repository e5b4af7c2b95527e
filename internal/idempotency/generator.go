package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Scope represents the processor operation a key guards
type Scope string

const (
	ScopeCustomerCreate     Scope = "customer_create"
	ScopeSubscriptionCreate Scope = "subscription_create"
	ScopeDiscountCreate     Scope = "discount_create"
)

// Generator generates idempotency keys for processor create calls. A retry
// of an identical request reuses the key, so the processor answers with the
// object it already created instead of creating a second one.
type Generator struct{}

// NewGenerator creates a new idempotency key generator
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateKey generates an idempotency key from a scope and parameters
func (g *Generator) GenerateKey(scope Scope, params map[string]any) string {
	// Sort params for consistent hashing
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Build hash input
	var b strings.Builder
	b.WriteString(string(scope))
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(":%s=%v", k, params[k]))
	}

	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s-%s", scope, hex.EncodeToString(hash[:16]))
}

// ValidateKey validates if an idempotency key matches expected parameters
func (g *Generator) ValidateKey(scope Scope, params map[string]any, key string) bool {
	return g.GenerateKey(scope, params) == key
}
