package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// BillStatus tracks how far the creation saga of a bill got.
type BillStatus string

const (
	BillStatusDraft         BillStatus = "draft"
	BillStatusLinesAttached BillStatus = "lines_attached"
	BillStatusRendered      BillStatus = "rendered"
	BillStatusDelivered     BillStatus = "delivered"
	BillStatusFailed        BillStatus = "failed"
)

// BillStage names the saga step a failed bill stopped at.
type BillStage string

const (
	BillStageRender   BillStage = "render"
	BillStageDelivery BillStage = "delivery"
)

// MaxBillTotal is the largest total bills.total_amount (NUMERIC(18,2)) holds.
var MaxBillTotal = decimal.RequireFromString("9999999999999999.99")

// PaymentDueDays is the due date offset of bills that carry a payment QR.
const PaymentDueDays = 30

// Bill is an immutable invoice. Company and customer fields are snapshots
// taken at creation time.
type Bill struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	CompanyID       uuid.UUID       `json:"company_id" db:"company_id"`
	CustomerID      *uuid.UUID      `json:"customer_id,omitempty" db:"customer_id"`
	BillNumber      int64           `json:"bill_number" db:"bill_number"`
	IssueDate       time.Time       `json:"issue_date" db:"issue_date"`
	DueDate         *time.Time      `json:"due_date,omitempty" db:"due_date"`
	TotalAmount     decimal.Decimal `json:"total_amount" db:"total_amount"`
	CompanyName     string          `json:"company_name" db:"company_name"`
	CompanyEmail    *string         `json:"company_email,omitempty" db:"company_email"`
	CompanyAddress  *string         `json:"company_address,omitempty" db:"company_address"`
	CustomerName    string          `json:"customer_name" db:"customer_name"`
	CustomerEmail   *string         `json:"customer_email,omitempty" db:"customer_email"`
	CustomerAddress *string         `json:"customer_address,omitempty" db:"customer_address"`
	PDFPath         *string         `json:"pdf_path,omitempty" db:"pdf_path"`
	PaymentURL      *string         `json:"payment_url,omitempty" db:"payment_url"`
	Status          BillStatus      `json:"status" db:"status"`
	FailedStage     *BillStage      `json:"failed_stage,omitempty" db:"failed_stage"`
	FailureReason   *string         `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`

	Lines []*BillLine `json:"lines,omitempty" db:"-"`
}

// LinesTotal sums the extended totals of the attached lines.
func (b *Bill) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range b.Lines {
		total = total.Add(l.Total)
	}
	return total
}

// BillLine is one priced, quantified entry of a bill.
type BillLine struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	BillID    uuid.UUID       `json:"bill_id" db:"bill_id"`
	ProductID *uuid.UUID      `json:"product_id,omitempty" db:"product_id"`
	Position  int             `json:"position" db:"position"`
	Code      *string         `json:"code,omitempty" db:"code"`
	Name      string          `json:"name" db:"name"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Total     decimal.Decimal `json:"total" db:"total"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// LineTotal is price × quantity in exact decimal arithmetic.
func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

type CreateBillRequest struct {
	CustomerName    string            `json:"customer_name" validate:"notblank,min=2,max=100"`
	CustomerAddress *string           `json:"customer_address" validate:"omitempty,max=200"`
	CustomerEmail   *string           `json:"customer_email" validate:"omitempty,email,max=100"`
	IncludeQR       bool              `json:"include_qr"`
	SendEmail       bool              `json:"send_email"`
	Lines           []BillLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type BillLineRequest struct {
	Name     string          `json:"name" validate:"notblank,min=2,max=100"`
	Code     *string         `json:"code" validate:"omitempty,max=8,billcode"`
	Quantity int             `json:"quantity" validate:"gte=1,lte=10000"`
	Price    decimal.Decimal `json:"price" validate:"gte=0.01,lte=10000000"`
}

// BillResponse is the projection returned by the bill endpoints.
type BillResponse struct {
	ID              uuid.UUID           `json:"id"`
	BillNumber      int64               `json:"bill_number"`
	IssueDate       string              `json:"issue_date"`
	DueDate         *string             `json:"due_date,omitempty"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	CompanyName     string              `json:"company_name"`
	CompanyEmail    *string             `json:"company_email,omitempty"`
	CompanyAddress  *string             `json:"company_address,omitempty"`
	CustomerName    string              `json:"customer_name"`
	CustomerEmail   *string             `json:"customer_email,omitempty"`
	CustomerAddress *string             `json:"customer_address,omitempty"`
	PDFPath         *string             `json:"pdf_path,omitempty"`
	Status          BillStatus          `json:"status"`
	CustomerID      *uuid.UUID          `json:"customer_id,omitempty"`
	LineIDs         []uuid.UUID         `json:"line_ids"`
	Lines           []*BillLineResponse `json:"lines"`
}

type BillLineResponse struct {
	ID        uuid.UUID       `json:"id"`
	Code      *string         `json:"code,omitempty"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
	ProductID *uuid.UUID      `json:"product_id,omitempty"`
}

// DateLayout is how bill dates are serialized in responses.
const DateLayout = "2006-01-02"

func NewBillResponse(b *Bill) *BillResponse {
	resp := &BillResponse{
		ID:              b.ID,
		BillNumber:      b.BillNumber,
		IssueDate:       b.IssueDate.Format(DateLayout),
		TotalAmount:     b.TotalAmount,
		CompanyName:     b.CompanyName,
		CompanyEmail:    b.CompanyEmail,
		CompanyAddress:  b.CompanyAddress,
		CustomerName:    b.CustomerName,
		CustomerEmail:   b.CustomerEmail,
		CustomerAddress: b.CustomerAddress,
		PDFPath:         b.PDFPath,
		Status:          b.Status,
		CustomerID:      b.CustomerID,
		LineIDs:         lo.Map(b.Lines, func(l *BillLine, _ int) uuid.UUID { return l.ID }),
		Lines: lo.Map(b.Lines, func(l *BillLine, _ int) *BillLineResponse {
			return &BillLineResponse{
				ID:        l.ID,
				Code:      l.Code,
				Name:      l.Name,
				Quantity:  l.Quantity,
				Price:     l.Price,
				Total:     l.Total,
				ProductID: l.ProductID,
			}
		}),
	}
	if b.DueDate != nil {
		resp.DueDate = lo.ToPtr(b.DueDate.Format(DateLayout))
	}
	return resp
}
