// application/scheduler/scheduler.go
package scheduler

import (
	"context"
	"sync"
	"time"

	"game-topup-bot/pkg/logger"
)

// Job описывает одну периодическую задачу
type Job struct {
	Name        string
	Description string
	Every       time.Duration
	Timeout     time.Duration // 0 - одна минута
	Handler     func(ctx context.Context) error

	mu      sync.Mutex
	nextRun time.Time
	lastRun time.Time
	lastErr error
	runs    int
	running bool
}

// Status возвращает текущее состояние задачи
func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobStatus{
		Name:        j.Name,
		Description: j.Description,
		NextRun:     j.nextRun,
		LastRun:     j.lastRun,
		LastErr:     j.lastErr,
		Runs:        j.runs,
	}
}

// JobStatus снапшот состояния задачи
type JobStatus struct {
	Name        string
	Description string
	NextRun     time.Time
	LastRun     time.Time
	LastErr     error
	Runs        int
}

// Scheduler управляет фоновыми задачами приложения
type Scheduler struct {
	jobs     []*Job
	tick     time.Duration
	mu       sync.RWMutex
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	logger   *logger.Logger
}

// New создает планировщик, проверяющий задачи каждые tick (0 - 30 секунд)
func New(tick time.Duration) *Scheduler {
	if tick <= 0 {
		tick = 30 * time.Second
	}
	return &Scheduler{
		tick:     tick,
		stopChan: make(chan struct{}),
		logger:   logger.Named("scheduler"),
	}
}

// Register добавляет задачу. Должен вызываться до Start().
func (s *Scheduler) Register(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job.nextRun = time.Now().Add(job.Every)
	s.jobs = append(s.jobs, job)

	s.logger.Info("📋 Зарегистрирована задача %q (каждые %s)", job.Name, job.Every)
}

// Start запускает цикл планировщика в фоновой горутине
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()
	s.logger.Info("✅ Запущен (%d задач)", len(s.jobs))
}

// Stop останавливает планировщик и ждёт завершения текущих задач
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	s.logger.Info("🛑 Остановлен")
}

// Jobs возвращает статус всех задач
func (s *Scheduler) Jobs() []JobStatus {
	s.mu.RLock()
	jobs := make([]*Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.RUnlock()

	statuses := make([]JobStatus, len(jobs))
	for i, j := range jobs {
		statuses[i] = j.Status()
	}
	return statuses
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runDue(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// runDue запускает задачи, у которых наступило время. Задача, которая
// еще выполняется, повторно не запускается.
func (s *Scheduler) runDue(ctx context.Context) {
	now := time.Now()

	s.mu.RLock()
	jobs := make([]*Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.RUnlock()

	for _, job := range jobs {
		job.mu.Lock()
		due := !job.running && !now.Before(job.nextRun)
		if due {
			job.running = true
		}
		job.mu.Unlock()

		if due {
			s.wg.Add(1)
			go s.run(ctx, job)
		}
	}
}

func (s *Scheduler) run(parent context.Context, job *Job) {
	defer s.wg.Done()

	timeout := job.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	start := time.Now()
	err := job.Handler(ctx)
	elapsed := time.Since(start)

	job.mu.Lock()
	job.lastRun = start
	job.lastErr = err
	job.runs++
	job.running = false
	job.nextRun = time.Now().Add(job.Every)
	job.mu.Unlock()

	if err != nil {
		s.logger.Error("❌ Задача %q завершилась с ошибкой за %v: %v", job.Name, elapsed, err)
		return
	}
	s.logger.Debug("✅ Задача %q выполнена за %v", job.Name, elapsed)
}
