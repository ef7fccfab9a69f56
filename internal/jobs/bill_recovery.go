package jobs

import (
	"context"
	"time"

	"billdesk/internal/logger"
)

// BillRecoverer re-renders bills whose render stage failed.
type BillRecoverer interface {
	RetryFailedRenders(ctx context.Context, limit int) (int, error)
}

// BillRecoveryJob periodically retries bills stuck at the render stage.
type BillRecoveryJob struct {
	bills   BillRecoverer
	batch   int
	timeout time.Duration
	log     *logger.Logger
}

func NewBillRecoveryJob(bills BillRecoverer, batch int, timeout time.Duration, log *logger.Logger) *BillRecoveryJob {
	if batch <= 0 {
		batch = 20
	}
	return &BillRecoveryJob{bills: bills, batch: batch, timeout: timeout, log: log}
}

func (j *BillRecoveryJob) Name() string {
	return "bill-render-recovery"
}

func (j *BillRecoveryJob) Run(ctx context.Context) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	recovered, err := j.bills.RetryFailedRenders(ctx, j.batch)
	if err != nil {
		j.log.Errorw("Bill recovery failed", "recovered", recovered, "error", err)
		return err
	}
	if recovered > 0 {
		j.log.Infow("Recovered failed bills", "recovered", recovered)
	}
	return nil
}
