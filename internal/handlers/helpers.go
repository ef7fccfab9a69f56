package handlers

import (
	"strconv"

	"billdesk/internal/common"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// bindAndValidate decodes the request body into req and runs its validation tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return common.WithError(err).
			WithHint("Invalid request format").
			Mark(common.ErrInvalidField)
	}
	return common.ValidateRequest(req)
}

func companyFromContext(c echo.Context) (uuid.UUID, bool) {
	return common.GetTenantIDFromContext(c.Request().Context())
}

func pagination(c echo.Context) (int, int, error) {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	return common.ValidatePaginationParams(limit, offset)
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		return uuid.Nil, common.WithError(err).WithHint(err.Error()).Mark(common.ErrInvalidField)
	}
	return id, nil
}
