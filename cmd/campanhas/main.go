package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"eps-campanhas/pkg/authz"
	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/db"
	"eps-campanhas/pkg/featureflags"
	"eps-campanhas/pkg/hashistack/secretmanager"
	"eps-campanhas/pkg/hashistack/servicediscover"
	"eps-campanhas/pkg/health"
	"eps-campanhas/pkg/httpapi"
	"eps-campanhas/pkg/logger"
	"eps-campanhas/pkg/minio"
	"eps-campanhas/pkg/otelcol"
	"eps-campanhas/pkg/profiling"
	"eps-campanhas/pkg/redis"
	"eps-campanhas/pkg/sequence"
	"eps-campanhas/pkg/server"
	"eps-campanhas/pkg/task"
	"eps-campanhas/services/activity"
	"eps-campanhas/services/auth"
	"eps-campanhas/services/bootstrap"
	"eps-campanhas/services/campaign"
	"eps-campanhas/services/earning"
	"eps-campanhas/services/notification"
	"eps-campanhas/services/premio"
	"eps-campanhas/services/rule"
	"eps-campanhas/services/submission"
	"eps-campanhas/services/user"
)

func main() {
	opts := []fx.Option{
		secretmanager.Module,
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		task.Client,
		sequence.Module,
		authz.Module,
		featureflags.Module,
		minio.Client,
		otelcol.Module,
		profiling.Module,
		servicediscover.Module,
		fx.Provide(
			provideMeterProvider,
			provideSnowflakeNode,
		),
		health.Module,
		httpapi.Module,
		bootstrap.Module,
		user.Module,
		user.Gateway,
		auth.Module,
		auth.Gateway,
		campaign.Module,
		campaign.Gateway,
		submission.Module,
		submission.Gateway,
		earning.Module,
		earning.Gateway,
		premio.Module,
		premio.Gateway,
		notification.Module,
		notification.Gateway,
		activity.Module,
		activity.Gateway,
		rule.Module,
		rule.Gateway,
		server.ProvideGRPCServer,
		server.ProvideHTTPServer,
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

func provideMeterProvider() metric.MeterProvider {
	return otel.GetMeterProvider()
}

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
