package notification

import (
	"context"
	"encoding/json"
	"testing"

	"eps-campanhas/pkg/taskname"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestTask(t *testing.T) (*Task, *gorm.DB) {
	t.Helper()

	svc, gdb := newTestService(t)
	return NewTask(TaskParams{Service: svc}), gdb
}

func TestTaskFanOut(t *testing.T) {
	created := NewSubmissionCreatedTasks(SubmissionEventPayload{
		SubmissionID: "s-1",
		OrderNumber:  "PED-001",
	})
	require.Len(t, created, 1)
	require.Equal(t, taskname.SubmissionCreated, created[0].Type())

	var payload SubmissionEventPayload
	require.NoError(t, json.Unmarshal(created[0].Payload(), &payload))
	require.Equal(t, "PED-001", payload.OrderNumber)

	// kit completo tambem dispara a atualizacao do ranking
	completed := NewKitCompletedTasks(KitCompletedPayload{KitID: "k-1"})
	require.Len(t, completed, 2)
	require.Equal(t, taskname.KitCompleted, completed[0].Type())
	require.Equal(t, taskname.RankingSync, completed[1].Type())

	redeemed := NewPremioRedeemedTasks(PremioRedeemedPayload{RedemptionID: "r-1"})
	require.Len(t, redeemed, 2)
	require.Equal(t, taskname.PremioRedeemed, redeemed[0].Type())
	require.Equal(t, taskname.RankingSync, redeemed[1].Type())
}

func TestHandleSubmissionCreated(t *testing.T) {
	task, gdb := newTestTask(t)
	ctx := context.Background()

	payload, _ := json.Marshal(SubmissionEventPayload{
		SubmissionID: "s-1",
		ManagerID:    "g-1",
		SellerID:     "v-1",
		OrderNumber:  "PED-001",
	})
	require.NoError(t, task.HandleSubmissionCreated(ctx, asynq.NewTask(taskname.SubmissionCreated, payload)))

	var stored Notification
	require.NoError(t, gdb.First(&stored, "user_id = ?", "g-1").Error)
	require.Equal(t, TypeSubmissionCreated, stored.Type)
	require.Contains(t, stored.Message, "PED-001")

	// sem gerente nao ha quem avisar
	orphan, _ := json.Marshal(SubmissionEventPayload{SubmissionID: "s-2", SellerID: "v-1"})
	require.NoError(t, task.HandleSubmissionCreated(ctx, asynq.NewTask(taskname.SubmissionCreated, orphan)))

	var count int64
	require.NoError(t, gdb.Model(&Notification{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestHandleSubmissionRejected(t *testing.T) {
	task, gdb := newTestTask(t)
	ctx := context.Background()

	payload, _ := json.Marshal(SubmissionEventPayload{
		SubmissionID: "s-1",
		SellerID:     "v-1",
		OrderNumber:  "PED-001",
		Reason:       "Nota fiscal ilegível",
	})
	require.NoError(t, task.HandleSubmissionRejected(ctx, asynq.NewTask(taskname.SubmissionRejected, payload)))

	var stored Notification
	require.NoError(t, gdb.First(&stored, "user_id = ?", "v-1").Error)
	require.Equal(t, TypeSubmissionRejected, stored.Type)
	require.Contains(t, stored.Message, "Nota fiscal ilegível")
}

func TestHandleKitCompleted(t *testing.T) {
	task, gdb := newTestTask(t)
	ctx := context.Background()

	payload, _ := json.Marshal(KitCompletedPayload{
		KitID:         "k-1",
		CampaignTitle: "Campanha Multifocal",
		SellerID:      "v-1",
		ManagerID:     "g-1",
		SellerPoints:  500,
		ManagerPoints: 50,
	})
	require.NoError(t, task.HandleKitCompleted(ctx, asynq.NewTask(taskname.KitCompleted, payload)))

	var count int64
	require.NoError(t, gdb.Model(&Notification{}).Count(&count).Error)
	require.EqualValues(t, 2, count)

	var toSeller Notification
	require.NoError(t, gdb.First(&toSeller, "user_id = ?", "v-1").Error)
	require.Contains(t, toSeller.Message, "500 pontos")

	// gerente sem comissao nao recebe aviso
	solo, _ := json.Marshal(KitCompletedPayload{
		KitID:         "k-2",
		CampaignTitle: "Campanha Solo",
		SellerID:      "v-2",
		SellerPoints:  300,
	})
	require.NoError(t, task.HandleKitCompleted(ctx, asynq.NewTask(taskname.KitCompleted, solo)))

	require.NoError(t, gdb.Model(&Notification{}).Count(&count).Error)
	require.EqualValues(t, 3, count)
}

func TestHandleInvalidPayload(t *testing.T) {
	task, _ := newTestTask(t)

	err := task.HandleKitCompleted(context.Background(), asynq.NewTask(taskname.KitCompleted, []byte("{")))
	require.Error(t, err)
}
