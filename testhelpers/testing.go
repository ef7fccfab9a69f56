package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"billdesk/internal/logger"
	"billdesk/internal/models"
	"billdesk/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func() error
}

// SetupTestDB connects to TEST_DATABASE_URL and applies the migrations.
// The test is skipped when the variable is unset.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, connString, 4, logger.NewNop())
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := database.Migrate(ctx, pool, logger.NewNop()); err != nil {
		pool.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return &TestDB{
		Pool: pool,
		Cleanup: func() error {
			defer pool.Close()
			_, err := pool.Exec(context.Background(),
				`TRUNCATE bill_lines, bills, bill_sequences, products, customers, payment_credentials, companies`)
			return err
		},
	}
}

// SetupTestCompany creates a verified company with a unique name.
func SetupTestCompany(t *testing.T, db *TestDB) *models.Company {
	t.Helper()

	suffix := uuid.NewString()[:8]
	company := &models.Company{
		ID:           uuid.New(),
		Name:         "Company " + suffix,
		Email:        suffix + "@billdesk.test",
		PasswordHash: "x",
		Verified:     true,
	}
	query := `
		INSERT INTO companies (id, name, email, password_hash, verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`
	_, err := db.Pool.Exec(context.Background(), query,
		company.ID, company.Name, company.Email, company.PasswordHash, company.Verified, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test company: %v", err)
	}

	return company
}

// SetupTestProduct creates a catalog product for companyID.
func SetupTestProduct(t *testing.T, db *TestDB, companyID uuid.UUID, name, price string) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:        uuid.New(),
		CompanyID: companyID,
		Name:      name,
		Price:     decimal.RequireFromString(price),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	query := `
		INSERT INTO products (id, company_id, name, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := db.Pool.Exec(context.Background(), query,
		product.ID, product.CompanyID, product.Name, product.Price, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create test product: %v", err)
	}

	return product
}
