package cart

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository exposes persistence operations for carts and their lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByUser loads the user's cart without its lines.
func (r *Repository) FindByUser(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// Create inserts a new cart.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// ListItems returns the cart's lines with product and variant loaded, oldest first.
func (r *Repository) ListItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Variant").
		Where("cart_id = ?", cartID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindItem returns one line of the cart.
func (r *Repository) FindItem(ctx context.Context, cartID, itemID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindLine returns the line for the (product, variant) pair, if any.
func (r *Repository) FindLine(ctx context.Context, cartID, productID int64, variantID *int64) (*models.CartItem, error) {
	q := r.db.WithContext(ctx).Where("cart_id = ? AND product_id = ?", cartID, productID)
	if variantID == nil {
		q = q.Where("variant_id IS NULL")
	} else {
		q = q.Where("variant_id = ?", *variantID)
	}
	var item models.CartItem
	if err := q.First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a cart line.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if err := r.db.WithContext(ctx).Omit("Product", "Variant").Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItemQuantity overwrites a line's quantity.
func (r *Repository) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

// DeleteItems removes the given lines of the cart and reports how many were deleted.
func (r *Repository) DeleteItems(ctx context.Context, cartID int64, itemIDs []int64) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND id IN ?", cartID, itemIDs).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// ClearItems removes every line of the cart.
func (r *Repository) ClearItems(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

// FindProduct loads a catalog product.
func (r *Repository) FindProduct(ctx context.Context, productID int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, productID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindVariant loads a catalog variant.
func (r *Repository) FindVariant(ctx context.Context, variantID int64) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, variantID).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}
