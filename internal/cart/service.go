package cart

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart mutations on behalf of the cart owner.
type Service interface {
	Get(ctx context.Context, userID int64) (*models.Cart, error)
	AddItem(ctx context.Context, userID int64, input AddItemInput) (*models.Cart, error)
	SetQuantity(ctx context.Context, userID, itemID int64, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID int64) (*models.Cart, error)
	Clear(ctx context.Context, userID int64) (*models.Cart, error)
}

// AddItemInput is a request to put quantity units of a product (and optional variant) in the cart.
type AddItemInput struct {
	ProductID int64
	VariantID *int64
	Quantity  int
}

type service struct {
	repo CartRepository
	tx   txRunner
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Get returns the user's cart with lines. A user without a cart gets an empty, unsaved one.
func (s *service) Get(ctx context.Context, userID int64) (*models.Cart, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	cart, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.hydrate(ctx, s.repo, cart)
}

func (s *service) AddItem(ctx context.Context, userID int64, input AddItemInput) (*models.Cart, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if input.ProductID <= 0 {
		return nil, fieldError("product_id", "required")
	}
	if input.Quantity <= 0 {
		return nil, fieldError("quantity", "must_be_positive")
	}

	var result *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := s.checkSellable(ctx, repo, input.ProductID, input.VariantID); err != nil {
			return err
		}

		cart, err := s.findOrCreate(ctx, repo, userID)
		if err != nil {
			return err
		}

		line, err := repo.FindLine(ctx, cart.ID, input.ProductID, input.VariantID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if _, err := repo.CreateItem(ctx, &models.CartItem{
				CartID:    cart.ID,
				ProductID: input.ProductID,
				VariantID: input.VariantID,
				Quantity:  input.Quantity,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
			}
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		default:
			if err := repo.UpdateItemQuantity(ctx, line.ID, line.Quantity+input.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
			}
		}

		result, err = s.hydrate(ctx, repo, cart)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SetQuantity overwrites a line's quantity; zero removes the line.
func (s *service) SetQuantity(ctx context.Context, userID, itemID int64, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, fieldError("quantity", "negative")
	}
	return s.mutateLine(ctx, userID, itemID, func(repo CartRepository, cart *models.Cart, item *models.CartItem) error {
		if quantity == 0 {
			_, err := repo.DeleteItems(ctx, cart.ID, []int64{item.ID})
			return err
		}
		return repo.UpdateItemQuantity(ctx, item.ID, quantity)
	})
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID int64) (*models.Cart, error) {
	return s.mutateLine(ctx, userID, itemID, func(repo CartRepository, cart *models.Cart, item *models.CartItem) error {
		_, err := repo.DeleteItems(ctx, cart.ID, []int64{item.ID})
		return err
	})
}

func (s *service) Clear(ctx context.Context, userID int64) (*models.Cart, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	var result *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.findOrCreate(ctx, repo, userID)
		if err != nil {
			return err
		}
		if err := repo.ClearItems(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		result, err = s.hydrate(ctx, repo, cart)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) mutateLine(ctx context.Context, userID, itemID int64, fn func(CartRepository, *models.Cart, *models.CartItem) error) (*models.Cart, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if itemID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	var result *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := repo.FindByUser(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		item, err := repo.FindItem(ctx, cart.ID, itemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		if err := fn(repo, cart, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		result, err = s.hydrate(ctx, repo, cart)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) findOrCreate(ctx context.Context, repo CartRepository, userID int64) (*models.Cart, error) {
	cart, err := repo.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	cart, err = repo.Create(ctx, &models.Cart{UserID: userID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return cart, nil
}

func (s *service) checkSellable(ctx context.Context, repo CartRepository, productID int64, variantID *int64) error {
	product, err := repo.FindProduct(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return fieldError("product_id", "inactive")
	}
	if variantID == nil {
		return nil
	}

	variant, err := repo.FindVariant(ctx, *variantID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && variant.ProductID != productID) {
		return fieldError("variant_id", "not_found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	if !variant.IsActive {
		return fieldError("variant_id", "inactive")
	}
	return nil
}

func (s *service) hydrate(ctx context.Context, repo CartRepository, cart *models.Cart) (*models.Cart, error) {
	items, err := repo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
	}
	cart.Items = items
	return cart, nil
}

func fieldError(field, reason string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid %s", field)).
		WithDetails(map[string]string{"field": field, "reason": reason})
}
