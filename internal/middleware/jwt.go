package middleware

import (
	"billdesk/internal/common"
	"billdesk/internal/services"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// ClaimsContextKey is where the validated token claims are stored on the echo context.
const ClaimsContextKey = "claims"

// TokenValidator checks a bearer token issued for the given purpose.
type TokenValidator interface {
	ValidateToken(token, purpose string) (*services.TokenClaims, error)
}

// CompanyAuth accepts access tokens only and puts the company id on the
// request context for handlers and repositories.
func CompanyAuth(validator TokenValidator) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: ClaimsContextKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			claims, err := validator.ValidateToken(auth, services.TokenPurposeAccess)
			if err != nil {
				return nil, err
			}
			companyID, err := claims.Company()
			if err != nil {
				return nil, err
			}
			c.SetRequest(c.Request().WithContext(common.WithTenantID(c.Request().Context(), companyID)))
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			// Always 401, whatever kind the validator marked.
			return common.SendError(c, common.NewError("unauthorized: "+err.Error()).
				WithHint("Missing or invalid token").
				Mark(common.ErrBadCredentials))
		},
	})
}

// ClaimsFromContext returns the claims stored by CompanyAuth.
func ClaimsFromContext(c echo.Context) (*services.TokenClaims, bool) {
	claims, ok := c.Get(ClaimsContextKey).(*services.TokenClaims)
	return claims, ok
}
