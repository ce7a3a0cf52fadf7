// Package envelope parses the Debezium-style change-event envelope shared by
// all three ingestion streams.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Op is the change-event operation code carried in the envelope.
type Op string

const (
	OpCreate   Op = "c"
	OpUpdate   Op = "u"
	OpSnapshot Op = "r"
)

// ErrMalformed marks an envelope that cannot be parsed at all. Callers drop
// the message without retry.
var ErrMalformed = errors.New("malformed change-event envelope")

// Message is the decoded envelope. Before is carried for completeness but
// nothing downstream reads it; only After is materialized.
type Message struct {
	Op     string                 `json:"op"`
	After  map[string]interface{} `json:"after"`
	Before map[string]interface{} `json:"before"`
}

// Materialize reports whether the operation kind means "apply the After
// payload". Create, update and snapshot reads are treated identically;
// anything else (deletes, truncates, missing op) is skipped.
func (m Message) Materialize() bool {
	switch Op(m.Op) {
	case OpCreate, OpUpdate, OpSnapshot:
		return true
	}
	return false
}

// Decode parses a raw change event. A nil payload with a nil error means the
// message is a recognized no-op (unhandled op kind, or no after image) and
// should be skipped, not retried.
func Decode(raw []byte) (Message, map[string]interface{}, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !m.Materialize() {
		return m, nil, nil
	}
	if m.After == nil {
		return m, nil, nil
	}
	return m, m.After, nil
}
