package user

import (
	"context"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var TaskModule = fx.Module("task.user",
	fx.Provide(NewTask),
)

// Task consumes ranking refresh events from asynq.
type Task struct {
	service *Service
}

type TaskParams struct {
	fx.In

	Service *Service
}

func NewTask(p TaskParams) *Task {
	return &Task{service: p.Service}
}

func (s *Task) HandleRankingSync(ctx context.Context, t *asynq.Task) error {
	if err := s.service.SyncRanking(ctx); err != nil {
		zap.L().Error("failed to sync ranking", zap.Error(err))
		return err
	}
	return nil
}
