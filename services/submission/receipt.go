package submission

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"eps-campanhas/pkg/errutil"

	"github.com/minio/minio-go/v7"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// maxReceiptSize limits uploaded nota fiscal scans to 10MB.
const maxReceiptSize = 10 * 1024 * 1024

var receiptContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// UploadReceipt stores a receipt scan in the object storage and returns the
// URL the client passes back on CreateSubmission. When no submission exists
// yet the object is keyed under a generated id.
func (s *Service) UploadReceipt(ctx context.Context, submissionID, filename string, r io.Reader, size int64, contentType string) (string, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	if s.storage == nil {
		return "", errutil.ServiceUnavailable("Envio de comprovantes não está disponível", nil)
	}
	if size > maxReceiptSize {
		return "", errutil.BadRequest("Comprovante excede o tamanho máximo de 10MB", nil)
	}
	if !receiptContentTypes[contentType] {
		return "", errutil.UnsupportedMediaType("Formato de comprovante não suportado", nil)
	}

	id := submissionID
	if id == "" {
		id = s.node.Generate().String()
	}

	objectName := fmt.Sprintf("receipts/%s/%s", id, filepath.Base(filename))

	if _, err := s.storage.PutObject(ctx, s.cfg.Minio.BucketName, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		zap.L().Error("failed to upload receipt",
			zap.String("object", objectName),
			zap.Error(err),
		)
		return "", errutil.Internal("Erro ao enviar comprovante", err)
	}

	scheme := "http"
	if s.cfg.Minio.Secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.Minio.Endpoint, s.cfg.Minio.BucketName, objectName), nil
}
