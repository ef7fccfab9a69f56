package handlers

import (
	"net/http"

	"billdesk/internal/common"
	"billdesk/internal/models"
	"billdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// CustomerHandlers handles HTTP requests for customers
type CustomerHandlers struct {
	customerService services.CustomerService
}

func NewCustomerHandlers(customerService services.CustomerService) *CustomerHandlers {
	return &CustomerHandlers{customerService: customerService}
}

// ListCustomers handles GET /customers
func (h *CustomerHandlers) ListCustomers(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	customers, err := h.customerService.List(c.Request().Context(), companyID, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, customers)
}

// GetCustomer handles GET /customers/:id
func (h *CustomerHandlers) GetCustomer(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := pathID(c)
	if err != nil {
		return common.SendError(c, err)
	}

	customer, err := h.customerService.GetByID(c.Request().Context(), companyID, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, customer)
}

// CreateCustomer handles POST /customers
func (h *CustomerHandlers) CreateCustomer(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	var req models.CustomerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return common.SendError(c, err)
	}

	customer, err := h.customerService.Create(c.Request().Context(), companyID, &req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, customer)
}

// UpdateCustomer handles PUT /customers/:id
func (h *CustomerHandlers) UpdateCustomer(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := pathID(c)
	if err != nil {
		return common.SendError(c, err)
	}
	var req models.CustomerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return common.SendError(c, err)
	}

	customer, err := h.customerService.Update(c.Request().Context(), companyID, id, &req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, customer)
}

// DeleteCustomer handles DELETE /customers/:id
func (h *CustomerHandlers) DeleteCustomer(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := pathID(c)
	if err != nil {
		return common.SendError(c, err)
	}

	if err := h.customerService.Delete(c.Request().Context(), companyID, id); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
