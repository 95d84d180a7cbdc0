package models

import "time"

// Address is a postal address owned by a single user.
type Address struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      int64     `gorm:"column:user_id;not null;index"`
	AddressType string    `gorm:"column:address_type;not null;default:'shipping'"`
	FullName    string    `gorm:"column:full_name;not null"`
	Line1       string    `gorm:"column:line1;not null"`
	Line2       *string   `gorm:"column:line2"`
	City        string    `gorm:"column:city;not null"`
	State       string    `gorm:"column:state;not null"`
	PostalCode  string    `gorm:"column:postal_code;not null"`
	Country     string    `gorm:"column:country;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
