package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const IdempotencyHeader = "Idempotency-Key"

// KeyDetails is the error detail for a header/body key disagreement.
type KeyDetails struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// IdempotencyKey picks the key from the header or the body. When both are present
// they must match.
func IdempotencyKey(r *http.Request, bodyKey string) (string, error) {
	header := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	body := strings.TrimSpace(bodyKey)

	switch {
	case header != "" && body != "" && header != body:
		return "", pkgerrors.New(pkgerrors.CodeValidation, "idempotency key mismatch").
			WithDetails(KeyDetails{Field: "idempotency_key", Reason: "mismatch"})
	case header != "":
		return header, nil
	default:
		return body, nil
	}
}
