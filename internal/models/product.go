package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Bills link to it by name but never change it.
type Product struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	CompanyID uuid.UUID       `json:"company_id" db:"company_id"`
	Code      *string         `json:"code,omitempty" db:"code"`
	Name      string          `json:"product_name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

type ProductRequest struct {
	Code  *string         `json:"code" validate:"omitempty,max=6,alphanum"`
	Name  string          `json:"product_name" validate:"notblank,min=2,max=100"`
	Price decimal.Decimal `json:"price" validate:"gte=0.01,lte=10000000"`
}
