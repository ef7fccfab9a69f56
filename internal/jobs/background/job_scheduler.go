package background

import (
	"context"
	"sync"
	"time"

	"billdesk/internal/logger"

	"github.com/go-co-op/gocron/v2"
)

// Job is a unit of periodic background work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobScheduler runs registered jobs on fixed intervals. A job never overlaps
// with its own previous run.
type JobScheduler struct {
	scheduler gocron.Scheduler
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	log       *logger.Logger
}

func NewJobScheduler(log *logger.Logger) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &JobScheduler{
		scheduler: scheduler,
		jobs:      make(map[string]gocron.Job),
		ctx:       ctx,
		cancel:    cancel,
		log:       log,
	}, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	js.log.Infow("Starting background job scheduler", "jobs", len(js.jobs))
	js.scheduler.Start()
}

// Stop cancels running jobs and waits for them to return.
func (js *JobScheduler) Stop() error {
	js.log.Infow("Stopping background job scheduler")
	js.cancel()
	return js.scheduler.Shutdown()
}

// AddJob schedules job every interval. The first run happens one interval after Start
// unless immediate is set.
func (js *JobScheduler) AddJob(job Job, interval time.Duration, immediate bool) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	opts := []gocron.JobOption{
		gocron.WithName(job.Name()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if immediate {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	scheduled, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(js.run, job),
		opts...,
	)
	if err != nil {
		return err
	}
	js.jobs[job.Name()] = scheduled
	js.log.Infow("Registered background job", "job", job.Name(), "interval", interval.String())
	return nil
}

func (js *JobScheduler) run(job Job) {
	started := time.Now()
	if err := job.Run(js.ctx); err != nil {
		js.log.Warnw("Background job failed", "job", job.Name(), "duration", time.Since(started).String(), "error", err)
	}
}

// RemoveJob removes a job from the scheduler
func (js *JobScheduler) RemoveJob(name string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobs[name]; exists {
		err := js.scheduler.RemoveJob(job.ID())
		delete(js.jobs, name)
		return err
	}
	return nil
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	jobs := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		jobs = append(jobs, name)
	}
	return map[string]interface{}{
		"total_jobs": len(js.jobs),
		"jobs":       jobs,
	}
}
