package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/db"
	"eps-campanhas/pkg/hashistack/secretmanager"
	"eps-campanhas/pkg/logger"
	"eps-campanhas/pkg/redis"
	"eps-campanhas/pkg/sequence"
	"eps-campanhas/pkg/task"
	"eps-campanhas/pkg/taskname"
	"eps-campanhas/services/campaign"
	"eps-campanhas/services/notification"
	"eps-campanhas/services/user"
	"eps-campanhas/services/validation"
)

func main() {
	opts := []fx.Option{
		secretmanager.Module,
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		task.Client,
		task.Server,
		sequence.Module,
		fx.Provide(provideSnowflakeNode),
		campaign.Module,
		user.Module,
		user.TaskModule,
		notification.Module,
		notification.TaskModule,
		validation.Module,
		fx.Invoke(registerHandlers),
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func registerHandlers(mux *asynq.ServeMux, notifications *notification.Task, users *user.Task, expiry *validation.Service) {
	mux.HandleFunc(taskname.SubmissionCreated, notifications.HandleSubmissionCreated)
	mux.HandleFunc(taskname.SubmissionValidated, notifications.HandleSubmissionValidated)
	mux.HandleFunc(taskname.SubmissionRejected, notifications.HandleSubmissionRejected)
	mux.HandleFunc(taskname.KitCompleted, notifications.HandleKitCompleted)
	mux.HandleFunc(taskname.EarningPaid, notifications.HandleEarningPaid)
	mux.HandleFunc(taskname.PremioRedeemed, notifications.HandlePremioRedeemed)
	mux.HandleFunc(taskname.RankingSync, users.HandleRankingSync)
	mux.HandleFunc(taskname.CampaignExpiryRun, expiry.HandleExpiryTask)
}
