package services

import (
	"context"
	"time"

	"billdesk/internal/caching"
	"billdesk/internal/common"
	"billdesk/internal/logger"
	"billdesk/internal/models"
	"billdesk/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const oauthStateTTL = 10 * time.Minute

// PaymentLinkService owns the company's MercadoPago credential lifecycle and
// turns bill totals into checkout URLs.
type PaymentLinkService interface {
	CreatePaymentLink(ctx context.Context, company *models.Company, amount decimal.Decimal) (string, error)
	ConnectURL(ctx context.Context, companyID uuid.UUID) (string, error)
	CompleteConnect(ctx context.Context, state, code string) (uuid.UUID, error)
	RefreshExpiring(ctx context.Context, horizon time.Duration, limit int) (int, error)
}

type oauthStateClaims struct {
	Nonce     string `json:"nonce"`
	CompanyID string `json:"company_id"`
	jwt.RegisteredClaims
}

type paymentLinkService struct {
	companies   repositories.CompanyRepository
	mercadoPago MercadoPagoService
	cache       caching.CacheService
	jwtSecret   []byte
	log         *logger.Logger
	now         func() time.Time
}

func NewPaymentLinkService(companies repositories.CompanyRepository, mercadoPago MercadoPagoService, cache caching.CacheService, jwtSecret string, log *logger.Logger) PaymentLinkService {
	return &paymentLinkService{
		companies:   companies,
		mercadoPago: mercadoPago,
		cache:       cache,
		jwtSecret:   []byte(jwtSecret),
		log:         log,
		now:         time.Now,
	}
}

// CreatePaymentLink refreshes the credential when it is about to expire and
// creates a checkout preference for amount.
func (s *paymentLinkService) CreatePaymentLink(ctx context.Context, company *models.Company, amount decimal.Decimal) (string, error) {
	if !company.PaymentLinked() {
		return "", common.NewError("company has no payment credential").
			WithHint(common.MsgPaymentNotLinked).
			Mark(common.ErrUnprocessable)
	}

	cred := company.PaymentCredential
	if cred.NeedsRefresh(s.now()) {
		if err := s.refresh(ctx, cred); err != nil {
			return "", err
		}
	}

	return s.mercadoPago.CreatePreference(ctx, cred.AccessToken, "Invoice from "+company.Name, amount)
}

func (s *paymentLinkService) refresh(ctx context.Context, cred *models.PaymentCredential) error {
	tok, err := s.mercadoPago.RefreshToken(ctx, cred.RefreshToken)
	if err != nil {
		return err
	}
	cred.Refresh(tok.AccessToken, tok.RefreshToken, tok.Lifetime(), s.now())
	if err := s.companies.SavePaymentCredential(ctx, cred); err != nil {
		return err
	}
	s.log.Infow("Refreshed MercadoPago credential", "company_id", cred.CompanyID, "expires_at", cred.ExpiresAt)
	return nil
}

// ConnectURL issues a single-use signed state and returns the MercadoPago
// authorization URL carrying it.
func (s *paymentLinkService) ConnectURL(ctx context.Context, companyID uuid.UUID) (string, error) {
	nonce := uuid.NewString()
	now := s.now()
	claims := oauthStateClaims{
		Nonce:     nonce,
		CompanyID: companyID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   companyID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(oauthStateTTL)),
		},
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", common.WithError(err).WithMessage("sign oauth state").Mark(common.ErrInternal)
	}
	if err := s.cache.SetOAuthState(ctx, nonce, companyID, oauthStateTTL); err != nil {
		return "", common.WithError(err).WithMessage("store oauth state").Mark(common.ErrInternal)
	}
	return s.mercadoPago.AuthorizationURL(state), nil
}

// CompleteConnect validates the callback state, exchanges the code and
// stores the resulting credential.
func (s *paymentLinkService) CompleteConnect(ctx context.Context, state, code string) (uuid.UUID, error) {
	invalid := func(err error) error {
		b := common.NewError("invalid oauth state")
		if err != nil {
			b = common.WithError(err)
		}
		return b.WithHint("The authorization request is invalid or expired").Mark(common.ErrInvalidField)
	}
	if code == "" {
		return uuid.Nil, invalid(nil)
	}

	var claims oauthStateClaims
	_, err := jwt.ParseWithClaims(state, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return uuid.Nil, invalid(err)
	}
	companyID, err := uuid.Parse(claims.CompanyID)
	if err != nil {
		return uuid.Nil, invalid(err)
	}

	issuedFor, ok, err := s.cache.ConsumeOAuthState(ctx, claims.Nonce)
	if err != nil {
		return uuid.Nil, common.WithError(err).WithMessage("consume oauth state").Mark(common.ErrInternal)
	}
	if !ok || issuedFor != companyID {
		return uuid.Nil, invalid(nil)
	}

	tok, err := s.mercadoPago.ExchangeCode(ctx, code)
	if err != nil {
		return uuid.Nil, err
	}
	now := s.now()
	cred := &models.PaymentCredential{CompanyID: companyID}
	cred.Refresh(tok.AccessToken, tok.RefreshToken, tok.Lifetime(), now)
	if err := s.companies.SavePaymentCredential(ctx, cred); err != nil {
		return uuid.Nil, err
	}
	if err := s.cache.InvalidateCompanyCache(ctx, companyID); err != nil {
		s.log.Warnw("Failed to invalidate company cache", "company_id", companyID, "error", err)
	}
	return companyID, nil
}

// RefreshExpiring refreshes credentials expiring within horizon and returns
// how many were renewed. A failing credential does not stop the batch.
func (s *paymentLinkService) RefreshExpiring(ctx context.Context, horizon time.Duration, limit int) (int, error) {
	creds, err := s.companies.ListCredentialsExpiringBefore(ctx, s.now().Add(horizon), limit)
	if err != nil {
		return 0, err
	}
	refreshed := 0
	for _, cred := range creds {
		if err := s.refresh(ctx, cred); err != nil {
			s.log.Errorw("Failed to refresh MercadoPago credential", "company_id", cred.CompanyID, "error", err)
			continue
		}
		refreshed++
	}
	return refreshed, nil
}
