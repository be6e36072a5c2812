package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs jobs on five-field cron specs. A job never overlaps itself.
type Scheduler struct {
	mu    sync.Mutex
	cron  *cron.Cron
	tasks map[string]*task
	ctx   context.Context
}

type task struct {
	job     Job
	spec    string
	running atomic.Bool
}

func New() *Scheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Scheduler{
		cron:  cron.New(cron.WithParser(parser)),
		tasks: make(map[string]*task),
		ctx:   context.Background(),
	}
}

func (s *Scheduler) Add(job Job, spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := job.Name()
	if _, ok := s.tasks[name]; ok {
		return fmt.Errorf("job %s already scheduled", name)
	}
	t := &task{job: job, spec: spec}
	if _, err := s.cron.AddFunc(spec, func() { s.execute(s.context(), t) }); err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}
	s.tasks[name] = t
	logutil.GetLogger(context.Background()).Info("job scheduled", zap.String("job", name), zap.String("spec", spec))
	return nil
}

// Names lists scheduled jobs in name order.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunNow executes a scheduled job synchronously, unless it is already running.
func (s *Scheduler) RunNow(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	t, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("job %s not found", name)
	}
	return s.execute(ctx, t)
}

func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.cron.Start()
}

// Stop waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *Scheduler) execute(ctx context.Context, t *task) (bool, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("job", t.job.Name()), zap.String("spec", t.spec))
	if !t.running.CompareAndSwap(false, true) {
		logger.Info("job skipped, previous run still active")
		return false, nil
	}
	defer t.running.Store(false)
	start := time.Now()
	err := t.job.Run(ctx)
	if err != nil {
		logger.Error("job failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return true, err
	}
	logger.Info("job done", zap.Duration("duration", time.Since(start)))
	return true, nil
}
