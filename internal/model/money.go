package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MethodAmounts is a per-payment-method money map, stored as jsonb with
// decimal string values.
type MethodAmounts map[PaymentMethod]decimal.Decimal

// NewMethodAmounts returns a map with every declared method set to zero.
func NewMethodAmounts() MethodAmounts {
	m := make(MethodAmounts, len(paymentMethods))
	for _, pm := range paymentMethods {
		m[pm] = decimal.Zero
	}
	return m
}

// Complete returns a copy of m carrying every declared method; absent keys
// are zero and undeclared keys are dropped.
func (m MethodAmounts) Complete() MethodAmounts {
	out := NewMethodAmounts()
	for _, pm := range paymentMethods {
		if v, ok := m[pm]; ok {
			out[pm] = v
		}
	}
	return out
}

func (m MethodAmounts) Get(pm PaymentMethod) decimal.Decimal {
	if v, ok := m[pm]; ok {
		return v
	}
	return decimal.Zero
}

func (m MethodAmounts) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range m {
		total = total.Add(v)
	}
	return total
}

// ParseMethodAmounts converts a string-keyed input map, rejecting unknown
// methods, keys that name the same method twice and negative amounts. The
// result is complete.
func ParseMethodAmounts(in map[string]decimal.Decimal) (MethodAmounts, error) {
	out := NewMethodAmounts()
	seen := make(map[PaymentMethod]string, len(in))
	for k, v := range in {
		pm, err := ParsePaymentMethod(k)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[pm]; dup {
			return nil, fmt.Errorf("%w: %q and %q both name %s", ErrInvalidPaymentMethod, prev, k, pm)
		}
		seen[pm] = k
		if v.IsNegative() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, pm)
		}
		out[pm] = v
	}
	return out, nil
}

func (m MethodAmounts) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[PaymentMethod]decimal.Decimal(m))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *MethodAmounts) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = MethodAmounts{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("method amounts: unsupported column type")
	}
	out := MethodAmounts{}
	if err := json.Unmarshal(raw, (*map[PaymentMethod]decimal.Decimal)(&out)); err != nil {
		return fmt.Errorf("method amounts: %w", err)
	}
	*m = out
	return nil
}
