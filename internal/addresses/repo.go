// Package addresses is the read side of the address book owned by the account service.
package addresses

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Reader resolves addresses on behalf of their owner.
type Reader interface {
	FindOwned(ctx context.Context, id, userID int64) (*models.Address, error)
}

// Repository exposes address lookups.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an address repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindOwned returns the address only if it belongs to userID. A foreign address
// is indistinguishable from a missing one and yields gorm.ErrRecordNotFound.
func (r *Repository) FindOwned(ctx context.Context, id, userID int64) (*models.Address, error) {
	var addr models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&addr).Error
	if err != nil {
		return nil, err
	}
	return &addr, nil
}
