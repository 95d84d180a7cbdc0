// Package idempotency replays a previous result when a client retries with the same key.
package idempotency

import (
	"context"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// MaxKeyLength matches the width of the idempotency_key columns.
const MaxKeyLength = 255

// LookupFunc finds a record previously created under key. Callers scope it to the
// requesting user.
type LookupFunc[T any] func(ctx context.Context, key string) (T, bool, error)

// CreateFunc performs the side effect being protected.
type CreateFunc[T any] func(ctx context.Context) (T, error)

// NormalizeKey trims the key and rejects keys wider than the stored column.
// An empty result means the request carries no key.
func NormalizeKey(raw string) (string, error) {
	key := strings.TrimSpace(raw)
	if len(key) > MaxKeyLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "idempotency key too long").
			WithDetails(map[string]string{"field": "idempotency_key", "reason": "too_long"})
	}
	return key, nil
}

// CheckOrCreate returns the record stored under key when there is one, otherwise runs
// create. The boolean reports whether create produced the returned value.
//
// When create fails, lookup runs once more: a concurrent request holding the same key
// may have committed first, and its record is returned as a replay.
func CheckOrCreate[T any](ctx context.Context, key string, lookup LookupFunc[T], create CreateFunc[T]) (T, bool, error) {
	var zero T
	if key == "" {
		out, err := create(ctx)
		if err != nil {
			return zero, false, err
		}
		return out, true, nil
	}

	existing, found, err := lookup(ctx, key)
	if err != nil {
		return zero, false, err
	}
	if found {
		return existing, false, nil
	}

	out, createErr := create(ctx)
	if createErr == nil {
		return out, true, nil
	}

	winner, found, err := lookup(ctx, key)
	if err == nil && found {
		return winner, false, nil
	}
	return zero, false, createErr
}
