package models

import (
	"time"

	"github.com/google/uuid"
)

// Company is the tenant: every customer, product and bill belongs to one.
type Company struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"company_name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Address      *string   `json:"address,omitempty" db:"address"`
	LogoPath     *string   `json:"logo_path,omitempty" db:"logo_path"`
	Verified     bool      `json:"verified" db:"verified"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	// Loaded separately from payment_credentials. Tokens never serialize.
	PaymentCredential *PaymentCredential `json:"payment_credential,omitempty" db:"-"`
}

// PaymentLinked reports whether the company has a MercadoPago credential.
func (c *Company) PaymentLinked() bool {
	return c.PaymentCredential != nil
}

// PaymentCredentialRefreshLeeway is how close to expiry a credential may get
// before it is refreshed ahead of use.
const PaymentCredentialRefreshLeeway = 60 * time.Second

// PaymentCredential is the optional MercadoPago OAuth credential owned by a company.
type PaymentCredential struct {
	CompanyID    uuid.UUID `json:"company_id" db:"company_id"`
	AccessToken  string    `json:"-" db:"access_token"`
	RefreshToken string    `json:"-" db:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at" db:"expires_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// NeedsRefresh reports whether the access token expires within the leeway.
func (p *PaymentCredential) NeedsRefresh(now time.Time) bool {
	return p.ExpiresAt.Before(now.Add(PaymentCredentialRefreshLeeway))
}

// Refresh replaces the token pair with a freshly issued one.
func (p *PaymentCredential) Refresh(accessToken, refreshToken string, expiresIn time.Duration, now time.Time) {
	p.AccessToken = accessToken
	if refreshToken != "" {
		p.RefreshToken = refreshToken
	}
	p.ExpiresAt = now.Add(expiresIn)
	p.UpdatedAt = now
}

// CompanyResponse is the public projection of a company.
type CompanyResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"company_name"`
	Email          string    `json:"email"`
	Address        *string   `json:"address,omitempty"`
	LogoPath       *string   `json:"logo_path,omitempty"`
	Verified       bool      `json:"verified"`
	MercadoPagoSet bool      `json:"mercado_pago_linked"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewCompanyResponse(c *Company) *CompanyResponse {
	return &CompanyResponse{
		ID:             c.ID,
		Name:           c.Name,
		Email:          c.Email,
		Address:        c.Address,
		LogoPath:       c.LogoPath,
		Verified:       c.Verified,
		MercadoPagoSet: c.PaymentLinked(),
		CreatedAt:      c.CreatedAt,
	}
}

type SignUpRequest struct {
	CompanyName string `json:"company_name" validate:"notblank,min=3,max=100"`
	Email       string `json:"email" validate:"required,email,max=100"`
	Password    string `json:"password" validate:"required,min=8,max=64,strongpassword"`
}

type LogInRequest struct {
	// CompanyName accepts either the company name or its email.
	CompanyName string `json:"company_name" validate:"notblank"`
	Password    string `json:"password" validate:"required"`
	StayLogged  bool   `json:"stay_logged"`
}

type AuthResponse struct {
	CompanyName string `json:"company_name"`
	Message     string `json:"message"`
	Token       string `json:"token,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}

type UpdateCompanyNameRequest struct {
	CompanyName string `json:"company_name" validate:"notblank,min=3,max=100"`
}

type UpdateCompanyEmailRequest struct {
	Email string `json:"email" validate:"required,email,max=100"`
}

type UpdateCompanyAddressRequest struct {
	Address string `json:"address" validate:"notblank,min=5,max=200"`
}

type UpdateCompanyPasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=64,strongpassword"`
}
