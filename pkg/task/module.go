package task

import (
	"context"
	"os"

	"eps-campanhas/pkg/config"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Client provides the enqueue side, wired into the API binary.
var Client = fx.Module("asynq:client",
	fx.Provide(provideClient, NewEnqueuer),
)

func brokerOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}

func provideClient(lc fx.Lifecycle, cfg *config.Config) *asynq.Client {
	client := asynq.NewClient(brokerOpt(cfg))

	if err := client.Ping(); err != nil {
		zap.L().Warn("task broker unreachable, enqueues will fail until redis is up", zap.Error(err))
	} else {
		zap.L().Info("connected to task broker", zap.String("addr", cfg.Redis.Addr))
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return client
}

// Server provides the consume side, wired into the worker binary only.
var Server = fx.Module("asynq:server",
	fx.Provide(provideServeMux),
	fx.Invoke(runServer),
)

func provideServeMux() *asynq.ServeMux {
	return asynq.NewServeMux()
}

func runServer(lc fx.Lifecycle, cfg *config.Config, mux *asynq.ServeMux) {
	server := asynq.NewServer(
		brokerOpt(cfg),
		asynq.Config{
			Concurrency:    10,
			RetryDelayFunc: asynq.DefaultRetryDelayFunc,
			Queues: map[string]int{
				"critical": 10,
				"default":  5,
				"low":      3,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				zap.L().Error("task permanently failed",
					zap.String("task_type", task.Type()),
					zap.Error(err),
				)
			}),
		},
	)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := server.Start(mux); err != nil {
					zap.L().Error("failed to start task server", zap.Error(err))
					os.Exit(1)
				}
			}()
			zap.L().Info("task server started", zap.String("broker", cfg.Redis.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			server.Stop()
			return nil
		},
	})
}
