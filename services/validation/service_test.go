package validation

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/taskname"
	"eps-campanhas/services/campaign"
	"eps-campanhas/services/submission"
	"eps-campanhas/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	gdb := testutil.NewTestDB(t,
		&campaign.Campaign{},
		&submission.CampaignKit{},
		&ValidationJob{},
	)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{DB: gdb, Node: node})
	return svc, gdb
}

func seedCampaign(t *testing.T, gdb *gorm.DB, id string, status campaign.CampaignStatus, end time.Time) {
	t.Helper()

	require.NoError(t, gdb.Create(&campaign.Campaign{
		ID:        id,
		Code:      "CMP-" + id,
		Slug:      "campanha-" + id,
		Title:     "Campanha " + id,
		StartDate: end.Add(-30 * 24 * time.Hour),
		EndDate:   end,
		Status:    status,
	}).Error)
}

func seedKit(t *testing.T, gdb *gorm.DB, id, campaignID, userID string, status submission.KitStatus) {
	t.Helper()

	require.NoError(t, gdb.Create(&submission.CampaignKit{
		ID:         id,
		CampaignID: campaignID,
		UserID:     userID,
		Status:     status,
	}).Error)
}

func TestRunExpirySweep(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	seedCampaign(t, gdb, "c-1", campaign.StatusActive, time.Now().Add(-time.Hour))
	seedCampaign(t, gdb, "c-2", campaign.StatusActive, time.Now().Add(24*time.Hour))
	seedCampaign(t, gdb, "c-3", campaign.StatusDraft, time.Now().Add(-time.Hour))

	seedKit(t, gdb, "k-1", "c-1", "v-1", submission.KitInProgress)
	seedKit(t, gdb, "k-2", "c-1", "v-2", submission.KitCompleted)
	seedKit(t, gdb, "k-3", "c-2", "v-1", submission.KitInProgress)

	require.NoError(t, svc.RunExpirySweep(ctx))

	var c campaign.Campaign
	require.NoError(t, gdb.First(&c, "id = ?", "c-1").Error)
	require.Equal(t, campaign.StatusExpired, c.Status)

	require.NoError(t, gdb.First(&c, "id = ?", "c-2").Error)
	require.Equal(t, campaign.StatusActive, c.Status)

	// rascunho vencido fica como esta
	require.NoError(t, gdb.First(&c, "id = ?", "c-3").Error)
	require.Equal(t, campaign.StatusDraft, c.Status)

	var kit submission.CampaignKit
	require.NoError(t, gdb.First(&kit, "id = ?", "k-1").Error)
	require.Equal(t, submission.KitExpired, kit.Status)

	require.NoError(t, gdb.First(&kit, "id = ?", "k-2").Error)
	require.Equal(t, submission.KitCompleted, kit.Status)

	require.NoError(t, gdb.First(&kit, "id = ?", "k-3").Error)
	require.Equal(t, submission.KitInProgress, kit.Status)

	var job ValidationJob
	require.NoError(t, gdb.First(&job, "name = ?", JobCampaignExpiry).Error)
	require.Equal(t, JobSuccess, job.Status)
	require.NotNil(t, job.StartedAt)
	require.NotNil(t, job.CompletedAt)

	var counts sweepCounts
	require.NoError(t, json.Unmarshal(job.Metadata, &counts))
	require.EqualValues(t, 1, counts.CampaignsExpired)
	require.EqualValues(t, 1, counts.KitsExpired)
}

func TestRunExpirySweepNothingDue(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	seedCampaign(t, gdb, "c-1", campaign.StatusActive, time.Now().Add(24*time.Hour))

	require.NoError(t, svc.RunExpirySweep(ctx))

	var job ValidationJob
	require.NoError(t, gdb.First(&job, "name = ?", JobCampaignExpiry).Error)
	require.Equal(t, JobSuccess, job.Status)

	var counts sweepCounts
	require.NoError(t, json.Unmarshal(job.Metadata, &counts))
	require.EqualValues(t, 0, counts.CampaignsExpired)
	require.EqualValues(t, 0, counts.KitsExpired)
}

func TestEnqueueExpiryRunWithoutQueue(t *testing.T) {
	svc, gdb := newTestService(t)

	seedCampaign(t, gdb, "c-1", campaign.StatusActive, time.Now().Add(-time.Hour))

	// sem fila o sweep roda inline
	require.NoError(t, svc.EnqueueExpiryRun(context.Background()))

	var c campaign.Campaign
	require.NoError(t, gdb.First(&c, "id = ?", "c-1").Error)
	require.Equal(t, campaign.StatusExpired, c.Status)
}

func TestHandleExpiryTask(t *testing.T) {
	svc, gdb := newTestService(t)

	seedCampaign(t, gdb, "c-1", campaign.StatusActive, time.Now().Add(-time.Hour))

	task := asynq.NewTask(taskname.CampaignExpiryRun, nil)
	require.NoError(t, svc.HandleExpiryTask(context.Background(), task))

	var jobs int64
	require.NoError(t, gdb.Model(&ValidationJob{}).Count(&jobs).Error)
	require.EqualValues(t, 1, jobs)
}

func TestNextRunTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 1, 30, 0, 0, time.UTC)

	next := nextRunTime(now, 3, 0)
	require.Equal(t, time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC), next)

	// horario de hoje ja passou, agenda pra amanha
	next = nextRunTime(now, 1, 0)
	require.Equal(t, time.Date(2026, 3, 11, 1, 0, 0, 0, time.UTC), next)
}

func TestSchedulerTimezone(t *testing.T) {
	cfg := &config.Config{}
	cfg.Scheduler.Timezone = "America/Sao_Paulo"

	s := NewScheduler(nil, cfg)
	want, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	require.Equal(t, want, s.loc)

	// zona invalida cai pra UTC
	cfg.Scheduler.Timezone = "Marte/Cratera"
	s = NewScheduler(nil, cfg)
	require.Equal(t, time.UTC, s.loc)
}
