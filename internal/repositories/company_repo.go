package repositories

import (
	"context"
	"errors"
	"time"

	"billdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CompanyRepository interface {
	Create(ctx context.Context, company *models.Company) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	GetByEmail(ctx context.Context, email string) (*models.Company, error)
	GetByNameOrEmail(ctx context.Context, identifier string) (*models.Company, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) error
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) error
	UpdateAddress(ctx context.Context, id uuid.UUID, address string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateLogo(ctx context.Context, id uuid.UUID, logoPath string) error
	MarkVerified(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error

	GetPaymentCredential(ctx context.Context, companyID uuid.UUID) (*models.PaymentCredential, error)
	SavePaymentCredential(ctx context.Context, cred *models.PaymentCredential) error
	ListCredentialsExpiringBefore(ctx context.Context, before time.Time, limit int) ([]*models.PaymentCredential, error)
}

type companyRepo struct {
	db DBTX
}

func NewCompanyRepo(db DBTX) CompanyRepository {
	return &companyRepo{db: db}
}

const companyColumns = `id, name, email, password_hash, address, logo_path, verified, created_at, updated_at`

func scanCompany(row scanner) (*models.Company, error) {
	c := &models.Company{}
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.Address, &c.LogoPath, &c.Verified, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *companyRepo) Create(ctx context.Context, company *models.Company) error {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	query := `
		INSERT INTO companies (id, name, email, password_hash, address, verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, company.ID, company.Name, company.Email, company.PasswordHash, company.Address, company.Verified)
	if err != nil {
		return dbError(err, "create company")
	}
	return nil
}

// GetByID loads the company together with its payment credential, if any.
func (r *companyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`
	company, err := scanCompany(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dbError(err, "get company")
	}
	cred, err := r.GetPaymentCredential(ctx, id)
	if err != nil {
		return nil, err
	}
	company.PaymentCredential = cred
	return company, nil
}

func (r *companyRepo) GetByEmail(ctx context.Context, email string) (*models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE LOWER(email) = LOWER($1)`
	company, err := scanCompany(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, dbError(err, "get company by email")
	}
	return company, nil
}

func (r *companyRepo) GetByNameOrEmail(ctx context.Context, identifier string) (*models.Company, error) {
	query := `
		SELECT ` + companyColumns + `
		FROM companies
		WHERE LOWER(name) = LOWER($1) OR LOWER(email) = LOWER($1)
		LIMIT 1
	`
	company, err := scanCompany(r.db.QueryRow(ctx, query, identifier))
	if err != nil {
		return nil, dbError(err, "get company by name or email")
	}
	return company, nil
}

func (r *companyRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM companies WHERE LOWER(name) = LOWER($1))`
	if err := r.db.QueryRow(ctx, query, name).Scan(&exists); err != nil {
		return false, dbError(err, "check company name")
	}
	return exists, nil
}

func (r *companyRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM companies WHERE LOWER(email) = LOWER($1))`
	if err := r.db.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, dbError(err, "check company email")
	}
	return exists, nil
}

func (r *companyRepo) updateColumn(ctx context.Context, id uuid.UUID, query string, value any, op string) error {
	tag, err := r.db.Exec(ctx, query, value, id)
	if err != nil {
		return dbError(err, op)
	}
	if tag.RowsAffected() == 0 {
		return dbError(pgx.ErrNoRows, op)
	}
	return nil
}

func (r *companyRepo) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	return r.updateColumn(ctx, id, `UPDATE companies SET name = $1, updated_at = NOW() WHERE id = $2`, name, "update company name")
}

func (r *companyRepo) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	return r.updateColumn(ctx, id, `UPDATE companies SET email = $1, updated_at = NOW() WHERE id = $2`, email, "update company email")
}

func (r *companyRepo) UpdateAddress(ctx context.Context, id uuid.UUID, address string) error {
	return r.updateColumn(ctx, id, `UPDATE companies SET address = $1, updated_at = NOW() WHERE id = $2`, address, "update company address")
}

func (r *companyRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.updateColumn(ctx, id, `UPDATE companies SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, "update company password")
}

func (r *companyRepo) UpdateLogo(ctx context.Context, id uuid.UUID, logoPath string) error {
	return r.updateColumn(ctx, id, `UPDATE companies SET logo_path = $1, updated_at = NOW() WHERE id = $2`, logoPath, "update company logo")
}

// MarkVerified flips the verification flag and reports whether it changed.
func (r *companyRepo) MarkVerified(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE companies SET verified = TRUE, updated_at = NOW() WHERE id = $1 AND verified = FALSE`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, dbError(err, "verify company")
	}
	return tag.RowsAffected() == 1, nil
}

func (r *companyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return dbError(err, "delete company")
	}
	if tag.RowsAffected() == 0 {
		return dbError(pgx.ErrNoRows, "delete company")
	}
	return nil
}

// GetPaymentCredential returns nil, nil when the company never linked MercadoPago.
func (r *companyRepo) GetPaymentCredential(ctx context.Context, companyID uuid.UUID) (*models.PaymentCredential, error) {
	query := `
		SELECT company_id, access_token, refresh_token, expires_at, updated_at
		FROM payment_credentials
		WHERE company_id = $1
	`
	cred := &models.PaymentCredential{}
	err := r.db.QueryRow(ctx, query, companyID).Scan(&cred.CompanyID, &cred.AccessToken, &cred.RefreshToken, &cred.ExpiresAt, &cred.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err, "get payment credential")
	}
	return cred, nil
}

func (r *companyRepo) SavePaymentCredential(ctx context.Context, cred *models.PaymentCredential) error {
	query := `
		INSERT INTO payment_credentials (company_id, access_token, refresh_token, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (company_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, cred.CompanyID, cred.AccessToken, cred.RefreshToken, cred.ExpiresAt)
	if err != nil {
		return dbError(err, "save payment credential")
	}
	return nil
}

func (r *companyRepo) ListCredentialsExpiringBefore(ctx context.Context, before time.Time, limit int) ([]*models.PaymentCredential, error) {
	query := `
		SELECT company_id, access_token, refresh_token, expires_at, updated_at
		FROM payment_credentials
		WHERE expires_at < $1
		ORDER BY expires_at
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, before, limit)
	if err != nil {
		return nil, dbError(err, "list expiring credentials")
	}
	defer rows.Close()

	var creds []*models.PaymentCredential
	for rows.Next() {
		cred := &models.PaymentCredential{}
		if err := rows.Scan(&cred.CompanyID, &cred.AccessToken, &cred.RefreshToken, &cred.ExpiresAt, &cred.UpdatedAt); err != nil {
			return nil, dbError(err, "scan payment credential")
		}
		creds = append(creds, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "list expiring credentials")
	}
	return creds, nil
}
