package models

// All lists every table the service owns, in foreign-key dependency order.
func All() []any {
	return []any{
		&User{},
		&Address{},
		&Product{},
		&ProductVariant{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&OrderStatusHistory{},
		&Payment{},
		&OutboxEvent{},
	}
}
