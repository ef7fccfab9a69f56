package repositories_test

import (
	"context"
	"errors"
	"testing"

	"billdesk/internal/repositories"
	"billdesk/testhelpers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillNumbersAgainstPostgres(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	defer func() { require.NoError(t, db.Cleanup()) }()

	ctx := context.Background()
	acme := testhelpers.SetupTestCompany(t, db)
	other := testhelpers.SetupTestCompany(t, db)
	tx := repositories.NewTxRunner(db.Pool)

	next := func(companyID uuid.UUID) int64 {
		var n int64
		require.NoError(t, tx.RunInTx(ctx, func(store *repositories.Store) error {
			var err error
			n, err = store.Bills.NextBillNumber(ctx, companyID)
			return err
		}))
		return n
	}

	assert.Equal(t, int64(1), next(acme.ID))
	assert.Equal(t, int64(2), next(acme.ID))
	assert.Equal(t, int64(1), next(other.ID))

	// A rolled back bill leaves no gap.
	errAbort := errors.New("abort")
	err := tx.RunInTx(ctx, func(store *repositories.Store) error {
		_, err := store.Bills.NextBillNumber(ctx, acme.ID)
		require.NoError(t, err)
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)
	assert.Equal(t, int64(3), next(acme.ID))
}

func TestProductLookupIsCaseInsensitive(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	defer func() { require.NoError(t, db.Cleanup()) }()

	ctx := context.Background()
	company := testhelpers.SetupTestCompany(t, db)
	product := testhelpers.SetupTestProduct(t, db, company.ID, "Widget", "12.50")
	repo := repositories.NewProductRepo(db.Pool)

	found, err := repo.FindByName(ctx, company.ID, "WIDGET")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, product.ID, found.ID)
	assert.Equal(t, "12.50", found.Price.StringFixed(2))

	other := testhelpers.SetupTestCompany(t, db)
	missing, err := repo.FindByName(ctx, other.ID, "Widget")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
