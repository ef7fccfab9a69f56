package services

import (
	"context"
	"strings"

	"billdesk/internal/common"
	"billdesk/internal/models"
	"billdesk/internal/repositories"

	"github.com/shopspring/decimal"
)

// BillLineBuilder prices a requested line, links it to the catalog product of
// the same name when one exists and persists it.
type BillLineBuilder interface {
	Build(ctx context.Context, store *repositories.Store, bill *models.Bill, position int, req models.BillLineRequest) (*models.BillLine, error)
}

type billLineBuilder struct{}

func NewBillLineBuilder() BillLineBuilder {
	return billLineBuilder{}
}

func (billLineBuilder) Build(ctx context.Context, store *repositories.Store, bill *models.Bill, position int, req models.BillLineRequest) (*models.BillLine, error) {
	if err := checkLinePricing(req.Price, req.Quantity); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	line := &models.BillLine{
		BillID:   bill.ID,
		Position: position,
		Code:     common.OptionalString(req.Code),
		Name:     name,
		Quantity: req.Quantity,
		Price:    req.Price,
		Total:    models.LineTotal(req.Price, req.Quantity),
	}

	product, err := store.Products.FindByName(ctx, bill.CompanyID, name)
	if err != nil {
		return nil, err
	}
	if product != nil {
		line.ProductID = &product.ID
	}

	if err := store.BillLines.Create(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}

// checkLinePricing enforces quantity >= 1 and a positive price with at most
// two decimal places.
func checkLinePricing(price decimal.Decimal, quantity int) error {
	if quantity < 1 {
		return common.NewError("non-positive quantity").
			WithHint("Quantity must be at least 1").
			Mark(common.ErrInvalidField)
	}
	if !price.IsPositive() {
		return common.NewError("non-positive price").
			WithHint("Price must be greater than zero").
			Mark(common.ErrInvalidField)
	}
	if !price.Equal(price.Truncate(2)) {
		return common.NewError("price precision").
			WithHint("Price may have at most two decimal places").
			Mark(common.ErrInvalidField)
	}
	return nil
}
