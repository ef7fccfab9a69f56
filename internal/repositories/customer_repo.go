package repositories

import (
	"context"
	"errors"

	"billdesk/internal/common"
	"billdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Customer, error)
	FindByName(ctx context.Context, companyID uuid.UUID, name string) (*models.Customer, error)
	List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
	Delete(ctx context.Context, companyID, id uuid.UUID) error
}

type customerRepo struct {
	db DBTX
}

func NewCustomerRepo(db DBTX) CustomerRepository {
	return &customerRepo{db: db}
}

const customerColumns = `id, company_id, name, email, address, created_at, updated_at`

func scanCustomer(row scanner) (*models.Customer, error) {
	c := &models.Customer{}
	if err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Email, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *customerRepo) Create(ctx context.Context, customer *models.Customer) error {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	query := `
		INSERT INTO customers (id, company_id, name, email, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, customer.ID, customer.CompanyID, customer.Name, customer.Email, customer.Address)
	if err != nil {
		return dbError(err, "create customer")
	}
	return nil
}

// GetByID returns AccessDenied when the customer belongs to another company.
func (r *customerRepo) GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	customer, err := scanCustomer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dbError(err, "get customer")
	}
	if err := checkOwner(companyID, customer.CompanyID, common.MsgAccessDeniedRead); err != nil {
		return nil, err
	}
	return customer, nil
}

// FindByName matches case-insensitively and returns nil, nil on a miss.
func (r *customerRepo) FindByName(ctx context.Context, companyID uuid.UUID, name string) (*models.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE company_id = $1 AND LOWER(name) = LOWER($2)
		ORDER BY created_at
		LIMIT 1
	`
	customer, err := scanCustomer(r.db.QueryRow(ctx, query, companyID, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err, "find customer by name")
	}
	return customer, nil
}

func (r *customerRepo) List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*models.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE company_id = $1
		ORDER BY name
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, companyID, limit, offset)
	if err != nil {
		return nil, dbError(err, "list customers")
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, dbError(err, "scan customer")
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "list customers")
	}
	return customers, nil
}

func (r *customerRepo) Update(ctx context.Context, customer *models.Customer) error {
	query := `
		UPDATE customers
		SET name = $1, email = $2, address = $3, updated_at = NOW()
		WHERE company_id = $4 AND id = $5
	`
	tag, err := r.db.Exec(ctx, query, customer.Name, customer.Email, customer.Address, customer.CompanyID, customer.ID)
	if err != nil {
		return dbError(err, "update customer")
	}
	if tag.RowsAffected() == 0 {
		return dbError(pgx.ErrNoRows, "update customer")
	}
	return nil
}

func (r *customerRepo) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return dbError(err, "delete customer")
	}
	if tag.RowsAffected() == 0 {
		return dbError(pgx.ErrNoRows, "delete customer")
	}
	return nil
}
