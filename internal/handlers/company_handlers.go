package handlers

import (
	"io"
	"net/http"

	"billdesk/internal/common"
	"billdesk/internal/models"
	"billdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// CompanyHandlers serves the authenticated company's own account.
type CompanyHandlers struct {
	companyService services.CompanyService
}

func NewCompanyHandlers(companyService services.CompanyService) *CompanyHandlers {
	return &CompanyHandlers{companyService: companyService}
}

// GetCompany handles GET /companies
func (h *CompanyHandlers) GetCompany(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	company, err := h.companyService.Get(c.Request().Context(), companyID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, models.NewCompanyResponse(company))
}

// UpdateName handles PUT /companies/name
func (h *CompanyHandlers) UpdateName(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	var req models.UpdateCompanyNameRequest
	if err := bindAndValidate(c, &req); err != nil {
		return common.SendError(c, err)
	}

	if _, err := h.companyService.UpdateName(c.Request().Context(), companyID, req.CompanyName); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateEmail handles PUT /companies/email
func (h *CompanyHandlers) UpdateEmail(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	var req models.UpdateCompanyEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return common.SendError(c, err)
	}

	if _, err := h.companyService.UpdateEmail(c.Request().Context(), companyID, req.Email); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateAddress handles PUT /companies/address
func (h *CompanyHandlers) UpdateAddress(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	var req models.UpdateCompanyAddressRequest
	if err := bindAndValidate(c, &req); err != nil {
		return common.SendError(c, err)
	}

	if _, err := h.companyService.UpdateAddress(c.Request().Context(), companyID, req.Address); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdatePassword handles PUT /companies/password
func (h *CompanyHandlers) UpdatePassword(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	var req models.UpdateCompanyPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return common.SendError(c, err)
	}

	if err := h.companyService.UpdatePassword(c.Request().Context(), companyID, req.CurrentPassword, req.NewPassword); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteCompany handles DELETE /companies
func (h *CompanyHandlers) DeleteCompany(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	if err := h.companyService.Delete(c.Request().Context(), companyID); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetLogo handles GET /companies/logo. A company without a logo gets 204.
func (h *CompanyHandlers) GetLogo(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	link, err := h.companyService.LogoURL(c.Request().Context(), companyID)
	if err != nil {
		if common.IsNotFound(err) {
			return c.NoContent(http.StatusNoContent)
		}
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": link})
}

// UploadLogo handles POST /companies/logo with a multipart "file" field.
func (h *CompanyHandlers) UploadLogo(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return common.SendValidationError(c, "file", "is required")
	}
	if fileHeader.Size > services.MaxLogoSize {
		return common.SendValidationError(c, "file", "must be at most 2 MiB")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return common.SendClientError(c, "Could not read the uploaded file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, services.MaxLogoSize+1))
	if err != nil {
		return common.SendClientError(c, "Could not read the uploaded file")
	}

	company, err := h.companyService.UploadLogo(c.Request().Context(), companyID, http.DetectContentType(data), data)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, models.NewCompanyResponse(company))
}
