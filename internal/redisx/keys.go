package redisx

import "time"

const (
	// Idempotency place order: idem:order:place:{user_id}:{key} -> order_id ("" while in flight)
	KeyIdemOrderPlace = "idem:order:place:%d:%s"

	// Cache order: order:{order_id} -> order JSON
	KeyOrder = "order:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	// in-flight marker, so a crashed request frees its key quickly
	TTLInFlight   = 30 * time.Second
	TTLOrderCache = 5 * time.Minute
	TTLDedup      = 48 * time.Hour
)
