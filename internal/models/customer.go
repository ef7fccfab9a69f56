package models

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CompanyID uuid.UUID `json:"company_id" db:"company_id"`
	Name      string    `json:"customer_name" db:"name"`
	Email     *string   `json:"email,omitempty" db:"email"`
	Address   *string   `json:"address,omitempty" db:"address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CustomerRequest struct {
	Name    string  `json:"customer_name" validate:"notblank,min=2,max=100"`
	Address *string `json:"address" validate:"omitempty,min=5,max=200"`
	Email   *string `json:"email" validate:"omitempty,email,max=100"`
}
