package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var TaskModule = fx.Module("task.notification",
	fx.Provide(NewTask),
)

// Task handles the notification side of domain events consumed from asynq.
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

func (s *Task) HandleSubmissionCreated(ctx context.Context, t *asynq.Task) error {
	var payload SubmissionEventPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	zapLog := zap.L().With(
		zap.String("task_type", t.Type()),
		zap.String("submission_id", payload.SubmissionID),
		zap.String("trace_id", payload.TraceID),
	)

	if payload.ManagerID == "" {
		zapLog.Warn("submission without manager, skipping notification")
		return nil
	}

	meta, _ := json.Marshal(payload)
	if err := s.service.Notify(ctx, Notification{
		UserID:   payload.ManagerID,
		Type:     TypeSubmissionCreated,
		Title:    "Nova venda para validar",
		Message:  fmt.Sprintf("O pedido %s aguarda sua validação.", payload.OrderNumber),
		Metadata: datatypes.JSON(meta),
	}); err != nil {
		return err
	}

	zapLog.Info("submission created notification delivered")
	return nil
}

func (s *Task) HandleSubmissionValidated(ctx context.Context, t *asynq.Task) error {
	var payload SubmissionEventPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	meta, _ := json.Marshal(payload)
	return s.service.Notify(ctx, Notification{
		UserID:   payload.SellerID,
		Type:     TypeSubmissionValidated,
		Title:    "Venda validada",
		Message:  fmt.Sprintf("Sua venda %s foi validada.", payload.OrderNumber),
		Metadata: datatypes.JSON(meta),
	})
}

func (s *Task) HandleSubmissionRejected(ctx context.Context, t *asynq.Task) error {
	var payload SubmissionEventPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	msg := fmt.Sprintf("Sua venda %s foi rejeitada.", payload.OrderNumber)
	if payload.Reason != "" {
		msg = fmt.Sprintf("Sua venda %s foi rejeitada: %s", payload.OrderNumber, payload.Reason)
	}

	meta, _ := json.Marshal(payload)
	return s.service.Notify(ctx, Notification{
		UserID:   payload.SellerID,
		Type:     TypeSubmissionRejected,
		Title:    "Venda rejeitada",
		Message:  msg,
		Metadata: datatypes.JSON(meta),
	})
}

func (s *Task) HandleKitCompleted(ctx context.Context, t *asynq.Task) error {
	var payload KitCompletedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	zapLog := zap.L().With(
		zap.String("task_type", t.Type()),
		zap.String("kit_id", payload.KitID),
		zap.String("trace_id", payload.TraceID),
	)

	meta, _ := json.Marshal(payload)
	if err := s.service.Notify(ctx, Notification{
		UserID:   payload.SellerID,
		Type:     TypeKitCompleted,
		Title:    "Kit completo!",
		Message:  fmt.Sprintf("Parabéns! Você completou a campanha %s e ganhou %d pontos.", payload.CampaignTitle, payload.SellerPoints),
		Metadata: datatypes.JSON(meta),
	}); err != nil {
		return err
	}

	if payload.ManagerID != "" && payload.ManagerPoints > 0 {
		if err := s.service.Notify(ctx, Notification{
			UserID:   payload.ManagerID,
			Type:     TypeKitCompleted,
			Title:    "Kit completo no seu time",
			Message:  fmt.Sprintf("Um vendedor do seu time completou a campanha %s. Você ganhou %d pontos.", payload.CampaignTitle, payload.ManagerPoints),
			Metadata: datatypes.JSON(meta),
		}); err != nil {
			return err
		}
	}

	zapLog.Info("kit completed notifications delivered")
	return nil
}

func (s *Task) HandleEarningPaid(ctx context.Context, t *asynq.Task) error {
	var payload EarningPaidPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	meta, _ := json.Marshal(payload)
	return s.service.Notify(ctx, Notification{
		UserID:   payload.UserID,
		Type:     TypeEarningPaid,
		Title:    "Premiação paga",
		Message:  fmt.Sprintf("Sua premiação de %d pontos foi paga.", payload.Points),
		Metadata: datatypes.JSON(meta),
	})
}

func (s *Task) HandlePremioRedeemed(ctx context.Context, t *asynq.Task) error {
	var payload PremioRedeemedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	meta, _ := json.Marshal(payload)
	return s.service.Notify(ctx, Notification{
		UserID:   payload.UserID,
		Type:     TypePremioRedeemed,
		Title:    "Resgate confirmado",
		Message:  fmt.Sprintf("Seu resgate %s do prêmio %s foi confirmado.", payload.Code, payload.PremioName),
		Metadata: datatypes.JSON(meta),
	})
}
