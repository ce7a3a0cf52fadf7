// Package normalize converts decoded change-event payloads into canonical
// entity records. All number-or-string coercion and fallback defaulting
// happens here; downstream code only sees typed values.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"gdash/internal/model"
)

// Now returns current wall-clock time, the final fallback for order
// timestamps. Split for testability.
var Now = func() time.Time { return time.Now().UTC() }

// SkipError reports a payload whose required identifier could not be
// resolved. Keys lists the field names that were present, for diagnosis.
type SkipError struct {
	Entity string
	Keys   []string
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("%s payload has no resolvable id (keys: %s)", e.Entity, strings.Join(e.Keys, ", "))
}

// Normalizer builds canonical records from untyped payloads, logging every
// coercion fallback it takes.
type Normalizer struct {
	log *zap.SugaredLogger
}

func New(log *zap.SugaredLogger) *Normalizer {
	return &Normalizer{log: log}
}

// Customer resolves the customer id from user_id first, then id. Orders
// reference customers by user_id, so it wins when both are present. Neither
// present yields a SkipError.
func (n *Normalizer) Customer(payload map[string]interface{}) (model.Customer, error) {
	id := idField(payload, "user_id")
	if id == "" {
		id = idField(payload, "id")
	}
	if id == "" {
		return model.Customer{}, &SkipError{Entity: "customer", Keys: payloadKeys(payload)}
	}

	first := stringField(payload, "first_name")
	last := stringField(payload, "last_name")
	return model.Customer{
		ID:    id,
		Name:  strings.TrimSpace(first + " " + last),
		Email: stringField(payload, "email"),
	}, nil
}

// Order builds an order record. A missing id yields an empty ID string; the
// store rejects those at upsert time. total_amount is only an initial value,
// replaced by recomputation as soon as line items are known.
func (n *Normalizer) Order(payload map[string]interface{}) model.Order {
	total, ok := floatField(payload, "total_amount")
	if !ok {
		n.log.Warnw("unparsable total_amount, defaulting to 0.0", "value", payload["total_amount"])
	}
	return model.Order{
		ID:          idField(payload, "id"),
		CustomerID:  stringField(payload, "customer_id"),
		TotalAmount: total,
		CreatedAt:   n.orderTimestamp(payload),
	}
}

// orderTimestamp applies the fallback chain: order_ts as microseconds since
// epoch, then created_at as an RFC3339 string, then now. Each step that
// fails falls through to the next, never to the caller.
func (n *Normalizer) orderTimestamp(payload map[string]interface{}) time.Time {
	if micros, ok := int64Field(payload, "order_ts"); ok {
		return time.Unix(micros/1_000_000, (micros%1_000_000)*1_000).UTC()
	}
	if s := stringField(payload, "created_at"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err == nil {
			return t.UTC()
		}
		n.log.Warnw("unparsable created_at, using current time", "created_at", s, "err", err)
	}
	return Now()
}

// LineItem builds a line-item record. product_code carries the display name
// upstream; price may arrive as a numeric string.
func (n *Normalizer) LineItem(payload map[string]interface{}) model.LineItem {
	price, ok := floatField(payload, "price")
	if !ok {
		n.log.Warnw("unparsable price, defaulting to 0.0", "value", payload["price"])
	}
	return model.LineItem{
		ID:          idField(payload, "id"),
		OrderID:     idField(payload, "order_id"),
		ProductName: stringField(payload, "product_code"),
		Quantity:    intField(payload, "quantity"),
		UnitPrice:   price,
	}
}
