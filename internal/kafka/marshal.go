package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-stockorders/internal/orders"
	"github.com/segmentio/kafka-go"
)

// MustMarshal is only used on our own envelope and payload types, which
// always encode.
func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// DecodeEnvelope parses m into an envelope. Redelivery cannot fix bad bytes
// or a newer schema, so every failure wraps ErrPermanent.
func DecodeEnvelope(m kafka.Message) (orders.Envelope, error) {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return env, fmt.Errorf("%w: decode envelope: %v", ErrPermanent, err)
	}
	if env.EventType == "" {
		env.EventType = header(m, "x-event-type")
	}
	if env.EventVersion > eventVersion {
		return env, fmt.Errorf("%w: unsupported %s version %d", ErrPermanent, env.EventType, env.EventVersion)
	}
	return env, nil
}

// UnwrapPayload decodes the envelope payload into T.
func UnwrapPayload[T any](env orders.Envelope) (T, error) {
	var t T
	if err := json.Unmarshal(env.Payload, &t); err != nil {
		return t, fmt.Errorf("%w: decode %s payload: %v", ErrPermanent, env.EventType, err)
	}
	return t, nil
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
