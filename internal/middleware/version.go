package middleware

import "github.com/labstack/echo/v4"

// HeaderAPIVersion carries the billdesk build serving the request.
const HeaderAPIVersion = "X-API-Version"

// VersionHeader stamps HeaderAPIVersion on every response, errors included,
// so clients can tell which build produced a bill.
func VersionHeader(version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(HeaderAPIVersion, version)
			return next(c)
		}
	}
}
