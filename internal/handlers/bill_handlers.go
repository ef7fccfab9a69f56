package handlers

import (
	"fmt"
	"net/http"

	"billdesk/internal/common"
	"billdesk/internal/models"
	"billdesk/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
)

// BillHandlers handles HTTP requests for bills
type BillHandlers struct {
	billService services.BillService
}

func NewBillHandlers(billService services.BillService) *BillHandlers {
	return &BillHandlers{billService: billService}
}

// CreateBill handles POST /bills
func (h *BillHandlers) CreateBill(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	var req models.CreateBillRequest
	if err := bindAndValidate(c, &req); err != nil {
		return common.SendError(c, err)
	}

	bill, err := h.billService.Create(c.Request().Context(), companyID, &req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, models.NewBillResponse(bill))
}

// ListBills handles GET /bills
func (h *BillHandlers) ListBills(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	bills, err := h.billService.List(c.Request().Context(), companyID, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, lo.Map(bills, func(b *models.Bill, _ int) *models.BillResponse {
		return models.NewBillResponse(b)
	}))
}

// GetBill handles GET /bills/:id
func (h *BillHandlers) GetBill(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := pathID(c)
	if err != nil {
		return common.SendError(c, err)
	}

	bill, err := h.billService.GetByID(c.Request().Context(), companyID, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, models.NewBillResponse(bill))
}

// GetBillPDF handles GET /bills/:id/pdf
func (h *BillHandlers) GetBillPDF(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := pathID(c)
	if err != nil {
		return common.SendError(c, err)
	}

	data, filename, err := h.billService.GetPDF(c.Request().Context(), companyID, id)
	if err != nil {
		return common.SendError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", filename))
	return c.Blob(http.StatusOK, "application/pdf", data)
}

// GetBillPDFURL handles GET /bills/:id/pdf-url
func (h *BillHandlers) GetBillPDFURL(c echo.Context) error {
	companyID, ok := companyFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := pathID(c)
	if err != nil {
		return common.SendError(c, err)
	}

	link, err := h.billService.GetPDFURL(c.Request().Context(), companyID, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": link})
}
