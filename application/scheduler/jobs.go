// application/scheduler/jobs.go
package scheduler

import (
	"context"
	"time"

	"game-topup-bot/pkg/logger"
)

// SessionSweeper - хранилище сессий, которому нужна ручная очистка
type SessionSweeper interface {
	Sweep() int
}

// Deps зависимости задач
type Deps struct {
	Sessions      SessionSweeper // nil - хранилище чистит себя само (Redis TTL)
	SweepInterval time.Duration
}

// RegisterAll регистрирует все задачи, для которых есть зависимости
func RegisterAll(s *Scheduler, deps Deps) {
	if deps.Sessions != nil {
		interval := deps.SweepInterval
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		s.Register(sessionSweepJob(deps.Sessions, interval))
	}
}

func sessionSweepJob(store SessionSweeper, every time.Duration) *Job {
	return &Job{
		Name:        "session_sweep",
		Description: "Удаление истекших сессий диалога",
		Every:       every,
		Handler: func(ctx context.Context) error {
			if removed := store.Sweep(); removed > 0 {
				logger.Info("🧹 Удалено истекших сессий: %d", removed)
			}
			return nil
		},
	}
}
