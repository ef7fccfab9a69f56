package repositories

import (
	"context"

	"billdesk/internal/common"
	"billdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type BillRepository interface {
	NextBillNumber(ctx context.Context, companyID uuid.UUID) (int64, error)
	Create(ctx context.Context, bill *models.Bill) error
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Bill, error)
	List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*models.Bill, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.BillStatus) error
	AttachPDF(ctx context.Context, id uuid.UUID, pdfPath string) error
	MarkFailed(ctx context.Context, id uuid.UUID, stage models.BillStage, reason string) error
	ListFailed(ctx context.Context, stage models.BillStage, limit int) ([]*models.Bill, error)
}

type billRepo struct {
	db DBTX
}

func NewBillRepo(db DBTX) BillRepository {
	return &billRepo{db: db}
}

const billColumns = `id, company_id, customer_id, bill_number, issue_date, due_date, total_amount,
	company_name, company_email, company_address, customer_name, customer_email, customer_address,
	pdf_path, payment_url, status, failed_stage, failure_reason, created_at, updated_at`

func scanBill(row scanner) (*models.Bill, error) {
	b := &models.Bill{}
	err := row.Scan(
		&b.ID, &b.CompanyID, &b.CustomerID, &b.BillNumber, &b.IssueDate, &b.DueDate, &b.TotalAmount,
		&b.CompanyName, &b.CompanyEmail, &b.CompanyAddress, &b.CustomerName, &b.CustomerEmail, &b.CustomerAddress,
		&b.PDFPath, &b.PaymentURL, &b.Status, &b.FailedStage, &b.FailureReason, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// NextBillNumber increments the per-company counter. The first call for a
// company seeds it from the bills already stored. Must run in the same
// transaction as the insert that consumes the number.
func (r *billRepo) NextBillNumber(ctx context.Context, companyID uuid.UUID) (int64, error) {
	query := `
		INSERT INTO bill_sequences (company_id, last_number)
		VALUES ($1, (SELECT COUNT(*) FROM bills WHERE company_id = $1) + 1)
		ON CONFLICT (company_id) DO UPDATE SET last_number = bill_sequences.last_number + 1
		RETURNING last_number
	`
	var number int64
	if err := r.db.QueryRow(ctx, query, companyID).Scan(&number); err != nil {
		return 0, dbError(err, "next bill number")
	}
	return number, nil
}

func (r *billRepo) Create(ctx context.Context, bill *models.Bill) error {
	if bill.ID == uuid.Nil {
		bill.ID = uuid.New()
	}
	query := `
		INSERT INTO bills (
			id, company_id, customer_id, bill_number, issue_date, due_date, total_amount,
			company_name, company_email, company_address, customer_name, customer_email, customer_address,
			payment_url, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		bill.ID, bill.CompanyID, bill.CustomerID, bill.BillNumber, bill.IssueDate, bill.DueDate, bill.TotalAmount,
		bill.CompanyName, bill.CompanyEmail, bill.CompanyAddress, bill.CustomerName, bill.CustomerEmail, bill.CustomerAddress,
		bill.PaymentURL, bill.Status,
	)
	if err != nil {
		return dbError(err, "create bill")
	}
	return nil
}

// GetByID returns AccessDenied when the bill belongs to another company.
// Lines are not loaded.
func (r *billRepo) GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE id = $1`
	bill, err := scanBill(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dbError(err, "get bill")
	}
	if err := checkOwner(companyID, bill.CompanyID, common.MsgAccessDeniedRead); err != nil {
		return nil, err
	}
	return bill, nil
}

func (r *billRepo) List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*models.Bill, error) {
	query := `
		SELECT ` + billColumns + `
		FROM bills
		WHERE company_id = $1
		ORDER BY bill_number DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, "list bills", query, companyID, limit, offset)
}

func (r *billRepo) list(ctx context.Context, op, query string, args ...any) ([]*models.Bill, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, dbError(err, op)
	}
	defer rows.Close()

	var bills []*models.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, dbError(err, "scan bill")
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, op)
	}
	return bills, nil
}

func (r *billRepo) exec(ctx context.Context, op, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return dbError(err, op)
	}
	if tag.RowsAffected() == 0 {
		return dbError(pgx.ErrNoRows, op)
	}
	return nil
}

func (r *billRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.BillStatus) error {
	query := `UPDATE bills SET status = $1, updated_at = NOW() WHERE id = $2`
	return r.exec(ctx, "update bill status", query, status, id)
}

// AttachPDF records the stored document and clears any earlier render failure.
func (r *billRepo) AttachPDF(ctx context.Context, id uuid.UUID, pdfPath string) error {
	query := `
		UPDATE bills
		SET pdf_path = $1, status = $2, failed_stage = NULL, failure_reason = NULL, updated_at = NOW()
		WHERE id = $3
	`
	return r.exec(ctx, "attach bill pdf", query, pdfPath, models.BillStatusRendered, id)
}

func (r *billRepo) MarkFailed(ctx context.Context, id uuid.UUID, stage models.BillStage, reason string) error {
	query := `
		UPDATE bills
		SET status = $1, failed_stage = $2, failure_reason = $3, updated_at = NOW()
		WHERE id = $4
	`
	return r.exec(ctx, "mark bill failed", query, models.BillStatusFailed, stage, reason, id)
}

// ListFailed returns the oldest bills stuck at the given stage.
func (r *billRepo) ListFailed(ctx context.Context, stage models.BillStage, limit int) ([]*models.Bill, error) {
	query := `
		SELECT ` + billColumns + `
		FROM bills
		WHERE status = $1 AND failed_stage = $2
		ORDER BY updated_at
		LIMIT $3
	`
	return r.list(ctx, "list failed bills", query, models.BillStatusFailed, stage, limit)
}
