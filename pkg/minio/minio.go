package minio

import (
	"context"

	"eps-campanhas/pkg/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Client = fx.Module("minio.client", fx.Provide(provideClient))

// provideClient connects to the object storage that holds receipt scans.
// Without an endpoint configured the client is nil and receipt upload
// reports itself unavailable.
func provideClient(c *config.Config) *minio.Client {
	if c.Minio.Endpoint == "" {
		zap.L().Info("object storage disabled, MINIO.ENDPOINT not set")
		return nil
	}

	client, err := minio.New(c.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Minio.AccessKey, c.Minio.SecretKey, ""),
		Secure: c.Minio.Secure,
	})
	if err != nil {
		zap.L().Fatal("failed to create minio client", zap.Error(err))
	}

	exists, err := client.BucketExists(context.Background(), c.Minio.BucketName)
	if err != nil {
		zap.L().Fatal("failed to reach minio",
			zap.String("endpoint", c.Minio.Endpoint),
			zap.Error(err),
		)
	}
	if !exists {
		zap.L().Warn("minio bucket does not exist yet",
			zap.String("bucket", c.Minio.BucketName),
		)
	}

	zap.L().Info("minio client initialized",
		zap.String("endpoint", c.Minio.Endpoint),
		zap.String("bucket", c.Minio.BucketName),
	)
	return client
}
