package cart

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Selection failure reasons.
const (
	ReasonInvalidItemIDs  = "invalid_item_ids"
	ReasonNoItemsSelected = "no_items_selected"
	ReasonItemsMissing    = "items_missing"
	ReasonEmptyCart       = "empty_cart"
)

// SelectionDetails explains why a checkout line selection was rejected.
type SelectionDetails struct {
	Reason     string   `json:"reason"`
	Invalid    []string `json:"invalid,omitempty"`
	MissingIDs []int64  `json:"missing_ids,omitempty"`
}

func InvalidItemIdsError(invalid []string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "item_ids must be positive integers").
		WithDetails(SelectionDetails{Reason: ReasonInvalidItemIDs, Invalid: invalid})
}

func NoItemsSelectedError() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "no items selected").
		WithDetails(SelectionDetails{Reason: ReasonNoItemsSelected})
}

func ItemsMissingError(missing []int64) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "selected items are not in the cart").
		WithDetails(SelectionDetails{Reason: ReasonItemsMissing, MissingIDs: missing})
}

func EmptyCartError() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty").
		WithDetails(SelectionDetails{Reason: ReasonEmptyCart})
}

// ParseLineIDs normalizes client-supplied cart line ids. Integers and numeric
// strings are accepted; duplicates are dropped keeping first-seen order.
// A nil input stays nil so callers can tell "absent" from "empty".
func ParseLineIDs(raw []json.RawMessage) ([]int64, error) {
	if raw == nil {
		return nil, nil
	}

	ids := make([]int64, 0, len(raw))
	seen := make(map[int64]struct{}, len(raw))
	var invalid []string
	for _, item := range raw {
		id, ok := parseLineID(item)
		if !ok {
			invalid = append(invalid, string(bytes.TrimSpace(item)))
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(invalid) > 0 {
		return nil, InvalidItemIdsError(invalid)
	}
	return ids, nil
}

func parseLineID(item json.RawMessage) (int64, bool) {
	trimmed := bytes.TrimSpace(item)
	if len(trimmed) == 0 {
		return 0, false
	}

	text := string(trimmed)
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return 0, false
		}
		text = strings.TrimSpace(s)
	}
	if text == "" || strings.ContainsAny(text, "+-.eE") {
		return 0, false
	}

	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ResolveCheckoutLines picks the lines to check out. A nil selection takes the
// whole cart; an explicit empty selection is rejected.
func ResolveCheckoutLines(lines []models.CartItem, requested []int64) ([]models.CartItem, error) {
	if requested == nil {
		if len(lines) == 0 {
			return nil, EmptyCartError()
		}
		out := make([]models.CartItem, len(lines))
		copy(out, lines)
		return out, nil
	}
	if len(requested) == 0 {
		return nil, NoItemsSelectedError()
	}

	byID := make(map[int64]models.CartItem, len(lines))
	for _, line := range lines {
		byID[line.ID] = line
	}

	selected := make([]models.CartItem, 0, len(requested))
	var missing []int64
	for _, id := range requested {
		line, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		selected = append(selected, line)
	}
	if len(missing) > 0 {
		return nil, ItemsMissingError(missing)
	}
	if len(selected) == 0 {
		return nil, EmptyCartError()
	}
	return selected, nil
}
