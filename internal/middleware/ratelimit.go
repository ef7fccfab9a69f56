package middleware

import (
	"net/http"
	"strconv"
	"time"

	"billdesk/internal/caching"
	"billdesk/internal/common"
	"billdesk/internal/logger"

	"github.com/labstack/echo/v4"
)

// RateLimitPerCompany allows at most limit requests per window for each
// authenticated company. A limit of zero disables the check. Cache failures
// let the request through.
func RateLimitPerCompany(cache caching.CacheService, scope string, limit int, window time.Duration, log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if limit <= 0 {
			return next
		}
		return func(c echo.Context) error {
			companyID, ok := common.GetTenantIDFromContext(c.Request().Context())
			if !ok {
				return common.SendUnauthorizedError(c)
			}

			limited, err := cache.IsRateLimited(c.Request().Context(), scope+":"+companyID.String(), limit, window)
			if err != nil {
				log.Warnw("Rate limit check failed", "company_id", companyID, "scope", scope, "error", err)
				return next(c)
			}
			if limited {
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				return c.JSON(http.StatusTooManyRequests,
					common.CreateErrorResponse("RATE_LIMITED", "Too many requests, try again later", nil))
			}
			return next(c)
		}
	}
}
