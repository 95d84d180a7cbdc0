// Package money validates and rounds client-supplied currency amounts.
package money

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Places is the number of fractional digits kept for every stored amount.
const Places = 2

// Comparing or rounding a decimal rescales its coefficient to the exponent, so
// both the literal and the exponent are bounded before any arithmetic.
const (
	maxLiteralLen = 40
	maxExponent   = 18
)

// Failure reasons reported in validation error details.
const (
	ReasonRequired  = "required"
	ReasonMalformed = "malformed"
	ReasonNegative  = "negative"
	ReasonZero      = "zero"
	ReasonTooLarge  = "too_large"
)

// Constraints narrows what Validate accepts. The zero value allows zero and has no ceiling.
type Constraints struct {
	DisallowZero bool
	Max          *decimal.Decimal
}

// FieldError is the details payload attached to money validation failures.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// InvalidMoneyError builds the validation error returned for a rejected amount.
func InvalidMoneyError(field, reason string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid %s", field)).
		WithDetails(FieldError{Field: field, Reason: reason})
}

// Validate parses raw as a decimal amount, checks it against c and returns it
// rounded half-up to two places.
func Validate(raw, field string, c Constraints) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, InvalidMoneyError(field, ReasonRequired)
	}

	if len(trimmed) > maxLiteralLen {
		return decimal.Zero, InvalidMoneyError(field, ReasonMalformed)
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, InvalidMoneyError(field, ReasonMalformed)
	}
	if exp := value.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Zero, InvalidMoneyError(field, ReasonMalformed)
	}
	if value.IsNegative() {
		return decimal.Zero, InvalidMoneyError(field, ReasonNegative)
	}
	if c.DisallowZero && value.IsZero() {
		return decimal.Zero, InvalidMoneyError(field, ReasonZero)
	}
	if c.Max != nil && value.GreaterThan(*c.Max) {
		return decimal.Zero, InvalidMoneyError(field, ReasonTooLarge)
	}

	return Round(value), nil
}

// Round applies currency rounding: half away from zero at two places, which is
// half-up for the non-negative amounts this service stores.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Sum adds values without rounding.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Input carries an optional amount from a JSON body. Both "12.50" and 12.50 decode.
type Input struct {
	Raw     string
	Present bool
}

// UnmarshalJSON records presence and keeps the literal text for Validate.
func (in *Input) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*in = Input{}
		return nil
	}

	in.Present = true
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		in.Raw = s
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		// keep the literal so Validate reports it as malformed
		in.Raw = string(trimmed)
		return nil
	}
	in.Raw = n.String()
	return nil
}

// MarshalJSON writes the raw value back as a string, or null when absent.
func (in Input) MarshalJSON() ([]byte, error) {
	if !in.Present {
		return []byte("null"), nil
	}
	return json.Marshal(in.Raw)
}

// ValidateOptional defaults an absent or blank field to 0.00 and validates
// everything else.
func ValidateOptional(in Input, field string, c Constraints) (decimal.Decimal, error) {
	if !in.Present || strings.TrimSpace(in.Raw) == "" {
		return Round(decimal.Zero), nil
	}
	return Validate(in.Raw, field, c)
}
