package repositories

import (
	"context"
	"errors"

	"billdesk/internal/common"
	"billdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Product, error)
	FindByName(ctx context.Context, companyID uuid.UUID, name string) (*models.Product, error)
	FindByCode(ctx context.Context, companyID uuid.UUID, code string) (*models.Product, error)
	List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, companyID, id uuid.UUID) error
}

type productRepo struct {
	db DBTX
}

func NewProductRepo(db DBTX) ProductRepository {
	return &productRepo{db: db}
}

const productColumns = `id, company_id, code, name, price, created_at, updated_at`

func scanProduct(row scanner) (*models.Product, error) {
	p := &models.Product{}
	if err := row.Scan(&p.ID, &p.CompanyID, &p.Code, &p.Name, &p.Price, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepo) Create(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	query := `
		INSERT INTO products (id, company_id, code, name, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, product.ID, product.CompanyID, product.Code, product.Name, product.Price)
	if err != nil {
		return dbError(err, "create product")
	}
	return nil
}

func (r *productRepo) GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	product, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dbError(err, "get product")
	}
	if err := checkOwner(companyID, product.CompanyID, common.MsgAccessDeniedRead); err != nil {
		return nil, err
	}
	return product, nil
}

// FindByName is the catalog lookup used by bill lines: case-insensitive,
// first match wins, nil, nil on a miss.
func (r *productRepo) FindByName(ctx context.Context, companyID uuid.UUID, name string) (*models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE company_id = $1 AND LOWER(name) = LOWER($2)
		ORDER BY created_at
		LIMIT 1
	`
	return r.findOne(ctx, query, "find product by name", companyID, name)
}

// FindByCode matches case-insensitively and returns nil, nil on a miss.
func (r *productRepo) FindByCode(ctx context.Context, companyID uuid.UUID, code string) (*models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE company_id = $1 AND LOWER(code) = LOWER($2)
		LIMIT 1
	`
	return r.findOne(ctx, query, "find product by code", companyID, code)
}

func (r *productRepo) findOne(ctx context.Context, query, op string, args ...any) (*models.Product, error) {
	product, err := scanProduct(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err, op)
	}
	return product, nil
}

func (r *productRepo) List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE company_id = $1
		ORDER BY name
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, companyID, limit, offset)
	if err != nil {
		return nil, dbError(err, "list products")
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, dbError(err, "scan product")
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "list products")
	}
	return products, nil
}

func (r *productRepo) Update(ctx context.Context, product *models.Product) error {
	query := `
		UPDATE products
		SET code = $1, name = $2, price = $3, updated_at = NOW()
		WHERE company_id = $4 AND id = $5
	`
	tag, err := r.db.Exec(ctx, query, product.Code, product.Name, product.Price, product.CompanyID, product.ID)
	if err != nil {
		return dbError(err, "update product")
	}
	if tag.RowsAffected() == 0 {
		return dbError(pgx.ErrNoRows, "update product")
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return dbError(err, "delete product")
	}
	if tag.RowsAffected() == 0 {
		return dbError(pgx.ErrNoRows, "delete product")
	}
	return nil
}
