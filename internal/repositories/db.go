package repositories

import (
	"context"
	"errors"

	"billdesk/internal/common"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the part of pgx shared by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type scanner interface {
	Scan(dest ...any) error
}

// Store bundles the repositories bound to one connection or transaction.
type Store struct {
	Companies CompanyRepository
	Customers CustomerRepository
	Products  ProductRepository
	Bills     BillRepository
	BillLines BillLineRepository
}

func NewStore(db DBTX) *Store {
	return &Store{
		Companies: NewCompanyRepo(db),
		Customers: NewCustomerRepo(db),
		Products:  NewProductRepo(db),
		Bills:     NewBillRepo(db),
		BillLines: NewBillLineRepo(db),
	}
}

// TxRunner runs a unit of work in one database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(store *Store) error) error
}

type txRunner struct {
	db DBTX
}

func NewTxRunner(db DBTX) TxRunner {
	return &txRunner{db: db}
}

// RunInTx commits when fn returns nil and rolls back otherwise.
func (r *txRunner) RunInTx(ctx context.Context, fn func(store *Store) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return common.WithError(err).
			WithMessage("begin transaction").
			Mark(common.ErrInternal)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewStore(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return common.WithError(err).
			WithMessage("commit transaction").
			Mark(common.ErrInternal)
	}
	return nil
}

// dbError marks a pgx error with its taxonomy kind.
func dbError(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return common.WithError(err).WithMessage(op).Mark(common.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return common.WithError(err).WithMessage(op).Mark(common.ErrResourceConflict)
	}
	return common.WithError(err).WithMessage(op).Mark(common.ErrInternal)
}

// checkOwner reports AccessDenied when a row exists but belongs to another company.
func checkOwner(companyID, ownerID uuid.UUID, hint string) error {
	if companyID != ownerID {
		return common.NewError("record owned by another company").
			WithHint(hint).
			Mark(common.ErrAccessDenied)
	}
	return nil
}
