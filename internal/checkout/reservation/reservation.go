package reservation

import (
	"context"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Failure reasons attached to individual lines.
const (
	ReasonInvalidQuantity   = "invalid_quantity"
	ReasonProductNotFound   = "product_not_found"
	ReasonVariantNotFound   = "variant_not_found"
	ReasonInsufficientStock = "insufficient_stock"

	reasonStockUnavailable = "stock_unavailable"
)

// Line is one cart line asking for stock.
type Line struct {
	CartItemID int64
	ProductID  int64
	VariantID  *int64
	Quantity   int
}

// LineFailure describes why a line could not be reserved.
type LineFailure struct {
	CartItemID int64  `json:"cart_item_id"`
	ProductID  int64  `json:"product_id"`
	VariantID  *int64 `json:"variant_id,omitempty"`
	Reason     string `json:"reason"`
	Requested  int    `json:"requested,omitempty"`
	Available  *int   `json:"available,omitempty"`
}

// ConflictDetails is the payload carried by a stock conflict error.
type ConflictDetails struct {
	Reason string        `json:"reason"`
	Lines  []LineFailure `json:"lines"`
}

// Result holds the rows locked during reservation, with stock already decremented.
type Result struct {
	Products map[int64]models.Product
	Variants map[int64]models.ProductVariant
}

// Product returns the locked product for a line.
func (r *Result) Product(id int64) (models.Product, bool) {
	p, ok := r.Products[id]
	return p, ok
}

// Variant returns the locked variant for a line, if the line has one.
func (r *Result) Variant(id *int64) *models.ProductVariant {
	if id == nil {
		return nil
	}
	v, ok := r.Variants[*id]
	if !ok {
		return nil
	}
	return &v
}

// ConflictError reports every failing line at once.
func ConflictError(failures []LineFailure) error {
	return pkgerrors.New(pkgerrors.CodeStockConflict, "insufficient stock for one or more items").
		WithDetails(ConflictDetails{Reason: reasonStockUnavailable, Lines: failures})
}

type target struct {
	variant bool
	id      int64
}

// Reserve locks the referenced products and variants, validates every line against the
// combined demand, and decrements stock only when all lines succeed. It must run inside tx.
func Reserve(ctx context.Context, tx *gorm.DB, lines []Line) (*Result, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reservation requires a transaction")
	}
	tx = tx.WithContext(ctx)

	productIDs, variantIDs := collectIDs(lines)

	products, err := lockProducts(tx, productIDs)
	if err != nil {
		return nil, lockError(err, "lock products")
	}
	variants, err := lockVariants(tx, variantIDs)
	if err != nil {
		return nil, lockError(err, "lock variants")
	}

	remaining := make(map[target]int)
	for id, p := range products {
		remaining[target{id: id}] = p.Stock
	}
	for id, v := range variants {
		remaining[target{variant: true, id: id}] = v.Stock
	}

	demand := make(map[target]int)
	var order []target
	var failures []LineFailure

	for _, line := range lines {
		failure := LineFailure{CartItemID: line.CartItemID, ProductID: line.ProductID, VariantID: line.VariantID}

		if line.Quantity <= 0 {
			failure.Reason = ReasonInvalidQuantity
			failure.Requested = line.Quantity
			failures = append(failures, failure)
			continue
		}

		if _, ok := products[line.ProductID]; !ok {
			failure.Reason = ReasonProductNotFound
			failures = append(failures, failure)
			continue
		}

		key := target{id: line.ProductID}
		if line.VariantID != nil {
			v, ok := variants[*line.VariantID]
			if !ok || v.ProductID != line.ProductID {
				failure.Reason = ReasonVariantNotFound
				failures = append(failures, failure)
				continue
			}
			key = target{variant: true, id: *line.VariantID}
		}

		available := remaining[key]
		if available < line.Quantity {
			failure.Reason = ReasonInsufficientStock
			failure.Requested = line.Quantity
			failure.Available = intPtr(available)
			failures = append(failures, failure)
			continue
		}
		remaining[key] = available - line.Quantity

		if _, seen := demand[key]; !seen {
			order = append(order, key)
		}
		demand[key] += line.Quantity
	}

	if len(failures) > 0 {
		return nil, ConflictError(failures)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].variant != order[j].variant {
			return !order[i].variant
		}
		return order[i].id < order[j].id
	})

	for _, key := range order {
		qty := demand[key]
		affected, err := decrement(tx, key, qty)
		if err != nil {
			return nil, lockError(err, "decrement stock")
		}
		if affected == 0 {
			return nil, ConflictError([]LineFailure{guardFailure(lines, key, qty)})
		}
		if key.variant {
			v := variants[key.id]
			v.Stock -= qty
			variants[key.id] = v
		} else {
			p := products[key.id]
			p.Stock -= qty
			products[key.id] = p
		}
	}

	return &Result{Products: products, Variants: variants}, nil
}

func collectIDs(lines []Line) ([]int64, []int64) {
	productSet := make(map[int64]struct{})
	variantSet := make(map[int64]struct{})
	for _, line := range lines {
		if line.ProductID > 0 {
			productSet[line.ProductID] = struct{}{}
		}
		if line.VariantID != nil && *line.VariantID > 0 {
			variantSet[*line.VariantID] = struct{}{}
		}
	}
	return sortedIDs(productSet), sortedIDs(variantSet)
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func lockProducts(tx *gorm.DB, ids []int64) (map[int64]models.Product, error) {
	out := make(map[int64]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.IsActive {
			out[row.ID] = row
		}
	}
	return out, nil
}

func lockVariants(tx *gorm.DB, ids []int64) (map[int64]models.ProductVariant, error) {
	out := make(map[int64]models.ProductVariant, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.ProductVariant
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.IsActive {
			out[row.ID] = row
		}
	}
	return out, nil
}

func decrement(tx *gorm.DB, key target, qty int) (int64, error) {
	model := any(&models.Product{})
	if key.variant {
		model = &models.ProductVariant{}
	}
	res := tx.Model(model).
		Where("id = ? AND stock >= ?", key.id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	return res.RowsAffected, res.Error
}

func guardFailure(lines []Line, key target, qty int) LineFailure {
	for _, line := range lines {
		matches := (!key.variant && line.VariantID == nil && line.ProductID == key.id) ||
			(key.variant && line.VariantID != nil && *line.VariantID == key.id)
		if matches {
			return LineFailure{
				CartItemID: line.CartItemID,
				ProductID:  line.ProductID,
				VariantID:  line.VariantID,
				Reason:     ReasonInsufficientStock,
				Requested:  qty,
			}
		}
	}
	return LineFailure{Reason: ReasonInsufficientStock, Requested: qty}
}

func lockError(err error, message string) error {
	if db.IsLockContention(err) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inventory is busy, retry")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func intPtr(v int) *int {
	return &v
}
