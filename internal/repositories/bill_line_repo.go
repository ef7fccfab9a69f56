package repositories

import (
	"context"

	"billdesk/internal/models"

	"github.com/google/uuid"
)

type BillLineRepository interface {
	Create(ctx context.Context, line *models.BillLine) error
	ListByBill(ctx context.Context, billID uuid.UUID) ([]*models.BillLine, error)
	ListByBills(ctx context.Context, billIDs []uuid.UUID) (map[uuid.UUID][]*models.BillLine, error)
}

type billLineRepo struct {
	db DBTX
}

func NewBillLineRepo(db DBTX) BillLineRepository {
	return &billLineRepo{db: db}
}

const billLineColumns = `id, bill_id, product_id, position, code, name, quantity, price, total, created_at`

func scanBillLine(row scanner) (*models.BillLine, error) {
	l := &models.BillLine{}
	err := row.Scan(&l.ID, &l.BillID, &l.ProductID, &l.Position, &l.Code, &l.Name, &l.Quantity, &l.Price, &l.Total, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *billLineRepo) Create(ctx context.Context, line *models.BillLine) error {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	query := `
		INSERT INTO bill_lines (id, bill_id, product_id, position, code, name, quantity, price, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	`
	_, err := r.db.Exec(ctx, query,
		line.ID, line.BillID, line.ProductID, line.Position, line.Code, line.Name, line.Quantity, line.Price, line.Total,
	)
	if err != nil {
		return dbError(err, "create bill line")
	}
	return nil
}

func (r *billLineRepo) ListByBill(ctx context.Context, billID uuid.UUID) ([]*models.BillLine, error) {
	query := `SELECT ` + billLineColumns + ` FROM bill_lines WHERE bill_id = $1 ORDER BY position`
	rows, err := r.db.Query(ctx, query, billID)
	if err != nil {
		return nil, dbError(err, "list bill lines")
	}
	defer rows.Close()

	var lines []*models.BillLine
	for rows.Next() {
		line, err := scanBillLine(rows)
		if err != nil {
			return nil, dbError(err, "scan bill line")
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "list bill lines")
	}
	return lines, nil
}

// ListByBills groups the lines of several bills, each group in position order.
func (r *billLineRepo) ListByBills(ctx context.Context, billIDs []uuid.UUID) (map[uuid.UUID][]*models.BillLine, error) {
	grouped := make(map[uuid.UUID][]*models.BillLine, len(billIDs))
	if len(billIDs) == 0 {
		return grouped, nil
	}
	query := `SELECT ` + billLineColumns + ` FROM bill_lines WHERE bill_id = ANY($1) ORDER BY bill_id, position`
	rows, err := r.db.Query(ctx, query, billIDs)
	if err != nil {
		return nil, dbError(err, "list bill lines")
	}
	defer rows.Close()

	for rows.Next() {
		line, err := scanBillLine(rows)
		if err != nil {
			return nil, dbError(err, "scan bill line")
		}
		grouped[line.BillID] = append(grouped[line.BillID], line)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "list bill lines")
	}
	return grouped, nil
}
