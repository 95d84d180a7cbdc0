package enums

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownValue is wrapped by every Parse function in this package.
var ErrUnknownValue = errors.New("unknown enum value")

// set is the closed list of values for one string-backed enum. Matching is
// case sensitive; the database enums are lowercase.
type set[T ~string] struct {
	kind   string
	values []T
}

func newSet[T ~string](kind string, values ...T) set[T] {
	return set[T]{kind: kind, values: values}
}

func (s set[T]) has(value T) bool {
	return slices.Contains(s.values, value)
}

func (s set[T]) parse(raw string) (T, error) {
	if value := T(raw); s.has(value) {
		return value, nil
	}
	var zero T
	return zero, fmt.Errorf("%w: %s %q", ErrUnknownValue, s.kind, raw)
}

func (s set[T]) all() []T {
	return slices.Clone(s.values)
}
