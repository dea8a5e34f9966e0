package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a stock-keeping item in the master catalog.
type Product struct {
	ID        uuid.UUID           `db:"id" json:"id"`
	Code      string              `db:"code" json:"code"`
	Name      string              `db:"name" json:"name"`
	SKU       string              `db:"sku" json:"sku"`
	Barcode   *string             `db:"barcode" json:"barcode,omitempty"`
	Price     decimal.Decimal     `db:"price" json:"price"`
	Weight    decimal.NullDecimal `db:"weight" json:"weight"`
	IsActive  bool                `db:"is_active" json:"isActive"`
	CreatedAt time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time           `db:"updated_at" json:"updatedAt"`
}

// ListFilter narrows product listings.
type ListFilter struct {
	Search     string
	ActiveOnly bool
	Page       int
	Limit      int
}

// CreateProductRequest holds data for adding a product to the catalog.
type CreateProductRequest struct {
	Code    string           `json:"code"`
	Name    string           `json:"name"`
	SKU     string           `json:"sku"`
	Barcode string           `json:"barcode,omitempty"`
	Price   decimal.Decimal  `json:"price"`
	Weight  *decimal.Decimal `json:"weight,omitempty"`
}

// UpdateProductRequest changes mutable catalog fields. Nil fields are left untouched.
type UpdateProductRequest struct {
	Name     *string          `json:"name,omitempty"`
	Barcode  *string          `json:"barcode,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Weight   *decimal.Decimal `json:"weight,omitempty"`
	IsActive *bool            `json:"isActive,omitempty"`
}
