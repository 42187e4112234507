package validation

import (
	"context"
	"encoding/json"
	"time"

	"eps-campanhas/pkg/repository"
	"eps-campanhas/pkg/task"
	"eps-campanhas/pkg/taskname"
	"eps-campanhas/services/campaign"
	"eps-campanhas/services/submission"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db        *gorm.DB
	node      *snowflake.Node
	asynq     task.Enqueuer
	jobs      repository.Repository[ValidationJob]
	campaigns *campaign.Service
}

type Params struct {
	fx.In
	DB        *gorm.DB
	Node      *snowflake.Node
	Asynq     task.Enqueuer     `optional:"true"`
	Campaigns *campaign.Service `optional:"true"`
}

func NewService(p Params) *Service {
	return &Service{
		db:        p.DB,
		node:      p.Node,
		asynq:     p.Asynq,
		jobs:      repository.ProvideStore[ValidationJob](p.DB),
		campaigns: p.Campaigns,
	}
}

// EnqueueExpiryRun hands the sweep to the worker queue. Without a queue it
// runs inline so single-binary deployments still expire campaigns.
func (s *Service) EnqueueExpiryRun(ctx context.Context) error {
	if s.asynq == nil {
		return s.RunExpirySweep(ctx)
	}

	t := asynq.NewTask(taskname.CampaignExpiryRun, nil,
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
		asynq.Queue("default"),
	)
	if _, err := s.asynq.Enqueue(t); err != nil {
		return err
	}

	zap.L().Info("enqueued campaign expiry run")
	return nil
}

// HandleExpiryTask is the asynq worker entrypoint.
func (s *Service) HandleExpiryTask(ctx context.Context, t *asynq.Task) error {
	zap.L().Info("processing campaign expiry task")

	if err := s.RunExpirySweep(ctx); err != nil {
		zap.L().Error("failed to process campaign expiry task", zap.Error(err))
		return err
	}

	zap.L().Info("finished campaign expiry task")
	return nil
}

type sweepCounts struct {
	CampaignsExpired int64 `json:"campaigns_expired"`
	KitsExpired      int64 `json:"kits_expired"`
}

// RunExpirySweep expires every ACTIVE campaign whose EndDate has passed and
// the IN_PROGRESS kits under them, in one transaction, recording the run as
// a ValidationJob row.
func (s *Service) RunExpirySweep(ctx context.Context) error {
	now := time.Now()

	job := &ValidationJob{
		ID:        s.node.Generate().String(),
		Name:      JobCampaignExpiry,
		Status:    JobRunning,
		StartedAt: &now,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return err
	}

	counts, sweepErr := s.sweep(ctx, now)
	if sweepErr != nil {
		s.finishJob(ctx, job.ID, JobFailed, sweepErr.Error(), counts)
		return sweepErr
	}

	s.finishJob(ctx, job.ID, JobSuccess, "", counts)

	zap.L().Info("campaign expiry sweep finished",
		zap.Int64("campaigns_expired", counts.CampaignsExpired),
		zap.Int64("kits_expired", counts.KitsExpired),
	)
	return nil
}

func (s *Service) sweep(ctx context.Context, now time.Time) (sweepCounts, error) {
	var counts sweepCounts
	var expired []*campaign.Campaign

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("status = ? AND end_date < ?", campaign.StatusActive, now).
			Find(&expired).Error; err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}

		ids := make([]string, 0, len(expired))
		for _, c := range expired {
			ids = append(ids, c.ID)
		}

		res := tx.Model(&campaign.Campaign{}).
			Where("id IN ? AND status = ?", ids, campaign.StatusActive).
			Update("status", campaign.StatusExpired)
		if res.Error != nil {
			return res.Error
		}
		counts.CampaignsExpired = res.RowsAffected

		res = tx.Model(&submission.CampaignKit{}).
			Where("campaign_id IN ? AND status = ?", ids, submission.KitInProgress).
			Update("status", submission.KitExpired)
		if res.Error != nil {
			return res.Error
		}
		counts.KitsExpired = res.RowsAffected

		return nil
	})
	if err != nil {
		return counts, err
	}

	if s.campaigns != nil {
		for _, c := range expired {
			s.campaigns.InvalidateCache(ctx, c)
		}
	}

	return counts, nil
}

func (s *Service) finishJob(ctx context.Context, jobID, status, errMsg string, counts sweepCounts) {
	meta, _ := json.Marshal(counts)

	if err := s.jobs.Update(ctx, jobID, map[string]any{
		"status":       status,
		"error_msg":    errMsg,
		"completed_at": time.Now(),
		"metadata":     datatypes.JSON(meta),
	}); err != nil {
		zap.L().Error("failed to finish validation job",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
	}
}
