package cart

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service and checkout.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByUser(ctx context.Context, userID int64) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	ListItems(ctx context.Context, cartID int64) ([]models.CartItem, error)
	FindItem(ctx context.Context, cartID, itemID int64) (*models.CartItem, error)
	FindLine(ctx context.Context, cartID, productID int64, variantID *int64) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error
	DeleteItems(ctx context.Context, cartID int64, itemIDs []int64) (int64, error)
	ClearItems(ctx context.Context, cartID int64) error
	FindProduct(ctx context.Context, productID int64) (*models.Product, error)
	FindVariant(ctx context.Context, variantID int64) (*models.ProductVariant, error)
}
