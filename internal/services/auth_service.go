package services

import (
	"context"
	"strings"
	"time"

	"billdesk/internal/common"
	"billdesk/internal/logger"
	"billdesk/internal/models"
	"billdesk/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenPurposeAccess = "access"
	TokenPurposeVerify = "verify"

	verificationTokenTTL = 24 * time.Hour
	stayLoggedFactor     = 7
	tokenIssuer          = "billdesk"
)

// AuthService handles company sign-up, email verification and log-in.
type AuthService interface {
	SignUp(ctx context.Context, req *models.SignUpRequest) (*models.AuthResponse, error)
	Verify(ctx context.Context, token string) (bool, error)
	LogIn(ctx context.Context, req *models.LogInRequest) (*models.AuthResponse, error)
	ValidateToken(token, purpose string) (*TokenClaims, error)
}

// TokenClaims are the claims of access and verification tokens.
type TokenClaims struct {
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
	Purpose     string `json:"purpose"`
	jwt.RegisteredClaims
}

// Company parses the company id claim.
func (c *TokenClaims) Company() (uuid.UUID, error) {
	return uuid.Parse(c.CompanyID)
}

type authService struct {
	companyRepo repositories.CompanyRepository
	email       EmailService
	jwtSecret   []byte
	tokenTTL    time.Duration
	publicURL   string
	log         *logger.Logger
	now         func() time.Time
}

func NewAuthService(companyRepo repositories.CompanyRepository, email EmailService, jwtSecret string, tokenTTL time.Duration, publicURL string, log *logger.Logger) AuthService {
	return &authService{
		companyRepo: companyRepo,
		email:       email,
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTL,
		publicURL:   strings.TrimSuffix(publicURL, "/"),
		log:         log,
		now:         time.Now,
	}
}

func (s *authService) SignUp(ctx context.Context, req *models.SignUpRequest) (*models.AuthResponse, error) {
	name := strings.TrimSpace(req.CompanyName)
	email := strings.TrimSpace(req.Email)

	taken, err := s.companyRepo.ExistsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, common.NewError("company name taken").
			WithHint("A company with that name already exists").
			Mark(common.ErrResourceConflict)
	}
	if taken, err = s.companyRepo.ExistsByEmail(ctx, email); err != nil {
		return nil, err
	}
	if taken {
		return nil, common.NewError("company email taken").
			WithHint("That email is already registered").
			Mark(common.ErrResourceConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.WithError(err).WithMessage("hash password").Mark(common.ErrInternal)
	}

	company := &models.Company{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.companyRepo.Create(ctx, company); err != nil {
		return nil, err
	}

	token, err := s.issue(company, TokenPurposeVerify, verificationTokenTTL)
	if err != nil {
		return nil, err
	}
	if err := s.email.SendVerification(ctx, company.Email, company.Name, VerificationURL(s.publicURL, token)); err != nil {
		s.log.Errorw("Failed to send verification email", "company_id", company.ID, "error", err)
	}

	s.log.Infow("Company registered", "company_id", company.ID)
	return &models.AuthResponse{
		CompanyName: company.Name,
		Message:     "Company registered, check your email to verify the account",
	}, nil
}

// Verify marks the company of a verification token as verified. It reports
// false when the company was already verified.
func (s *authService) Verify(ctx context.Context, token string) (bool, error) {
	claims, err := s.ValidateToken(token, TokenPurposeVerify)
	if err != nil {
		return false, err
	}
	companyID, err := claims.Company()
	if err != nil {
		return false, common.WithError(err).WithHint("Invalid verification link").Mark(common.ErrInvalidField)
	}
	return s.companyRepo.MarkVerified(ctx, companyID)
}

func (s *authService) LogIn(ctx context.Context, req *models.LogInRequest) (*models.AuthResponse, error) {
	badCredentials := common.NewError("bad credentials").
		WithHint("Invalid company name or password").
		Mark(common.ErrBadCredentials)

	company, err := s.companyRepo.GetByNameOrEmail(ctx, strings.TrimSpace(req.CompanyName))
	if err != nil {
		if common.IsNotFound(err) {
			return nil, badCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(company.PasswordHash), []byte(req.Password)) != nil {
		return nil, badCredentials
	}
	if !company.Verified {
		return nil, common.NewError("company not verified").
			WithHint("Verify your email before logging in").
			Mark(common.ErrAccessDenied)
	}

	ttl := s.tokenTTL
	if req.StayLogged {
		ttl *= stayLoggedFactor
	}
	token, err := s.issue(company, TokenPurposeAccess, ttl)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{
		CompanyName: company.Name,
		Message:     "Logged in",
		Token:       token,
		ExpiresIn:   int64(ttl.Seconds()),
	}, nil
}

func (s *authService) issue(company *models.Company, purpose string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := TokenClaims{
		CompanyID:   company.ID.String(),
		CompanyName: company.Name,
		Purpose:     purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   company.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", common.WithError(err).WithMessage("sign token").Mark(common.ErrInternal)
	}
	return signed, nil
}

// ValidateToken parses a token signed by this service and checks its purpose.
func (s *authService) ValidateToken(token, purpose string) (*TokenClaims, error) {
	var claims TokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || claims.Purpose != purpose {
		b := common.NewError("token purpose mismatch")
		if err != nil {
			b = common.WithError(err)
		}
		return nil, b.WithHint("Invalid or expired token").Mark(common.ErrInvalidField)
	}
	return &claims, nil
}
