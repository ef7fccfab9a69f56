package jobs

import (
	"context"
	"time"

	"billdesk/internal/logger"
)

// CredentialRefresher renews payment credentials close to expiry.
type CredentialRefresher interface {
	RefreshExpiring(ctx context.Context, horizon time.Duration, limit int) (int, error)
}

// CredentialRefreshJob renews MercadoPago tokens before a bill needs them.
type CredentialRefreshJob struct {
	payments CredentialRefresher
	horizon  time.Duration
	batch    int
	log      *logger.Logger
}

// NewCredentialRefreshJob refreshes credentials expiring within horizon,
// at most batch per run.
func NewCredentialRefreshJob(payments CredentialRefresher, horizon time.Duration, batch int, log *logger.Logger) *CredentialRefreshJob {
	if batch <= 0 {
		batch = 50
	}
	return &CredentialRefreshJob{payments: payments, horizon: horizon, batch: batch, log: log}
}

func (j *CredentialRefreshJob) Name() string {
	return "payment-credential-refresh"
}

func (j *CredentialRefreshJob) Run(ctx context.Context) error {
	refreshed, err := j.payments.RefreshExpiring(ctx, j.horizon, j.batch)
	if err != nil {
		j.log.Errorw("Credential refresh failed", "error", err)
		return err
	}
	j.log.Debugw("Credential refresh finished", "refreshed", refreshed)
	return nil
}
