package auth

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID int64
	Role   enums.UserRole
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued by the identity service.
type AccessTokenClaims struct {
	UserID int64          `json:"user_id"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// validate checks the private claims. The subject is optional but, when present,
// must name the same user as user_id.
func (c *AccessTokenClaims) validate() error {
	if c.UserID <= 0 {
		return errors.New("token missing user id")
	}
	if !c.Role.IsValid() {
		return fmt.Errorf("token carries unknown role %q", c.Role)
	}
	if c.Subject != "" && c.Subject != strconv.FormatInt(c.UserID, 10) {
		return fmt.Errorf("token subject %q does not match user id %d", c.Subject, c.UserID)
	}
	return nil
}
