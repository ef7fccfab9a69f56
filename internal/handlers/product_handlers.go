package handlers

import (
	"net/http"

	"billdesk/internal/common"
	"billdesk/internal/models"
	"billdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// ProductHandlers handles HTTP requests for catalog products
type ProductHandlers struct {
	productService services.ProductService
}

func NewProductHandlers(productService services.ProductService) *ProductHandlers {
	return &ProductHandlers{productService: productService}
}

// ListProducts handles GET /products
func (h *ProductHandlers) ListProducts(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	products, err := h.productService.List(c.Request().Context(), companyID, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /products/:id
func (h *ProductHandlers) GetProduct(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := pathID(c)
	if err != nil {
		return common.SendError(c, err)
	}

	product, err := h.productService.GetByID(c.Request().Context(), companyID, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// CreateProduct handles POST /products
func (h *ProductHandlers) CreateProduct(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	var req models.ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return common.SendError(c, err)
	}

	product, err := h.productService.Create(c.Request().Context(), companyID, &req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /products/:id
func (h *ProductHandlers) UpdateProduct(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := pathID(c)
	if err != nil {
		return common.SendError(c, err)
	}
	var req models.ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return common.SendError(c, err)
	}

	product, err := h.productService.Update(c.Request().Context(), companyID, id, &req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /products/:id
func (h *ProductHandlers) DeleteProduct(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := pathID(c)
	if err != nil {
		return common.SendError(c, err)
	}

	if err := h.productService.Delete(c.Request().Context(), companyID, id); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
