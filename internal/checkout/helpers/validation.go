package helpers

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/money"
)

// MaxNotesLength bounds the free-text note stored on an order.
const MaxNotesLength = 1000

// Charges are the validated client-supplied order adjustments.
type Charges struct {
	ShippingCost decimal.Decimal
	Tax          decimal.Decimal
	Discount     decimal.Decimal
}

// AddressDetails is attached to address validation errors.
type AddressDetails struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func MissingAddressError(field string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, field+" is required").
		WithDetails(AddressDetails{Field: field, Reason: "required"})
}

func InvalidAddressError(field string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid "+field).
		WithDetails(AddressDetails{Field: field, Reason: "not_owned"})
}

// ValidateAddressIDs requires both address references before any work is done.
func ValidateAddressIDs(shipping, billing *int64) (int64, int64, error) {
	if shipping == nil || *shipping <= 0 {
		return 0, 0, MissingAddressError("shipping_address")
	}
	if billing == nil || *billing <= 0 {
		return 0, 0, MissingAddressError("billing_address")
	}
	return *shipping, *billing, nil
}

// ValidateCharges checks each charge component; absent components default to zero.
func ValidateCharges(shipping, tax, discount money.Input, max decimal.Decimal) (Charges, error) {
	c := money.Constraints{}
	if max.IsPositive() {
		c.Max = &max
	}

	var out Charges
	var err error
	if out.ShippingCost, err = money.ValidateOptional(shipping, "shipping_cost", c); err != nil {
		return Charges{}, err
	}
	if out.Tax, err = money.ValidateOptional(tax, "tax", c); err != nil {
		return Charges{}, err
	}
	if out.Discount, err = money.ValidateOptional(discount, "discount", c); err != nil {
		return Charges{}, err
	}
	return out, nil
}

// ValidateNotes trims the note and enforces its length limit.
func ValidateNotes(notes string) (string, error) {
	trimmed := strings.TrimSpace(notes)
	if utf8.RuneCountInString(trimmed) > MaxNotesLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "notes too long").
			WithDetails(map[string]string{"field": "notes", "reason": "too_long"})
	}
	return trimmed, nil
}

// NewOrderNumber returns a human-facing order reference such as ORD-1A2B3C4D5E6F.
func NewOrderNumber() string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "ORD-" + hex[:12]
}
