package earning

import (
	"context"
	"fmt"
	"time"

	"eps-campanhas/pkg/db/option"
	"eps-campanhas/pkg/db/pagination"
	"eps-campanhas/pkg/errutil"
	"eps-campanhas/pkg/repository"
	"eps-campanhas/pkg/task"
	"eps-campanhas/services/activity"
	"eps-campanhas/services/notification"
	"eps-campanhas/services/user"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	asynq    task.Enqueuer
	repo     repository.Repository[Earning]
	users    repository.Repository[user.User]
	activity *activity.Service
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Asynq    task.Enqueuer `optional:"true"`
	Activity *activity.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		asynq:    p.Asynq,
		repo:     repository.ProvideStore[Earning](p.DB),
		users:    repository.ProvideStore[user.User](p.DB),
		activity: p.Activity,
	}
}

// DistributeInput carries everything the kit completion payout needs.
type DistributeInput struct {
	KitID      string
	CampaignID string
	Reference  string
	Seller     *user.User
	Points     int64
	ManagerPct int
}

// DistributeOnKitCompletion creates the seller earning, the manager cut when
// there is one, and credits both balances. Must run inside the caller's
// transaction so the kit state and the payout commit together.
func (s *Service) DistributeOnKitCompletion(ctx context.Context, tx *gorm.DB, in DistributeInput) ([]*Earning, error) {
	if tx == nil {
		return nil, fmt.Errorf("distribute requires a transaction")
	}
	if in.Seller == nil {
		return nil, fmt.Errorf("distribute requires the seller")
	}

	earnings := []*Earning{{
		ID:         s.node.Generate().String(),
		UserID:     in.Seller.ID,
		KitID:      in.KitID,
		CampaignID: in.CampaignID,
		Kind:       KindSeller,
		Points:     in.Points,
		Status:     StatusPendente,
		Reference:  in.Reference,
	}}

	if in.Seller.ManagerID != nil && *in.Seller.ManagerID != "" && in.ManagerPct > 0 {
		managerPoints := in.Points * int64(in.ManagerPct) / 100
		if managerPoints > 0 {
			earnings = append(earnings, &Earning{
				ID:         s.node.Generate().String(),
				UserID:     *in.Seller.ManagerID,
				KitID:      in.KitID,
				CampaignID: in.CampaignID,
				Kind:       KindManager,
				Points:     managerPoints,
				Status:     StatusPendente,
				Reference:  in.Reference,
			})
		}
	}

	if err := s.repo.WithTrx(tx).BatchCreate(ctx, earnings); err != nil {
		return nil, fmt.Errorf("failed to create earnings: %w", err)
	}

	for _, e := range earnings {
		if err := s.creditPoints(tx, e.UserID, e.Points); err != nil {
			return nil, err
		}

		if err := s.activity.Record(ctx, tx, activity.Activity{
			UserID:   e.UserID,
			Action:   activity.ActionEarningCreated,
			Entity:   "earning",
			EntityID: e.ID,
			Message:  fmt.Sprintf("Crédito de %d pontos pela campanha %s", e.Points, in.Reference),
		}); err != nil {
			return nil, err
		}
	}

	return earnings, nil
}

// creditPoints adds points to a user balance with a guarded update.
func (s *Service) creditPoints(tx *gorm.DB, userID string, points int64) error {
	res := tx.Model(&user.User{}).
		Where("id = ?", userID).
		UpdateColumn("points", gorm.Expr("points + ?", points))
	if res.Error != nil {
		return fmt.Errorf("failed to credit points: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("user %s not found while crediting points", userID)
	}
	return nil
}

// AddBonus credits rule bonus points in its own transaction, after the
// triggering event already committed.
func (s *Service) AddBonus(ctx context.Context, userID, kitID, campaignID, reference string, points int64) (*Earning, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("user_id", userID),
	)

	if points <= 0 {
		return nil, errutil.BadRequest("Pontos de bônus devem ser maiores que zero", nil)
	}

	e := &Earning{
		ID:         s.node.Generate().String(),
		UserID:     userID,
		KitID:      kitID,
		CampaignID: campaignID,
		Kind:       KindBonus,
		Points:     points,
		Status:     StatusPendente,
		Reference:  reference,
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTrx(tx).Create(ctx, e); err != nil {
			return fmt.Errorf("failed to create bonus earning: %w", err)
		}
		if err := s.creditPoints(tx, userID, points); err != nil {
			return err
		}
		return s.activity.Record(ctx, tx, activity.Activity{
			UserID:   userID,
			Action:   activity.ActionEarningCreated,
			Entity:   "earning",
			EntityID: e.ID,
			Message:  fmt.Sprintf("Bônus de %d pontos (%s)", points, reference),
		})
	}); err != nil {
		zapLog.Error("failed to add bonus earning", zap.Error(err))
		return nil, errutil.Internal("Erro ao creditar bônus", err)
	}

	zapLog.Info("bonus earning created", zap.String("earning_id", e.ID), zap.Int64("points", points))
	return e, nil
}

type ListEarningsRequest struct {
	UserID     string
	CampaignID string
	Status     string
	// TeamManagerID restringe aos vendedores do gerente
	TeamManagerID string
	Pagination    pagination.Pagination
}

func (s *Service) ListEarnings(ctx context.Context, req ListEarningsRequest) ([]*Earning, *pagination.PageInfo, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	query := &Earning{
		UserID:     req.UserID,
		CampaignID: req.CampaignID,
		Status:     EarningStatus(req.Status),
	}

	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "created_at",
			OrderBy: "desc",
		}),
		option.ApplyPagination(req.Pagination),
	}

	// o gerente enxerga o time e as proprias premiacoes de gestor
	if req.TeamManagerID != "" {
		team := s.db.Model(&user.User{}).Select("id").Where("manager_id = ?", req.TeamManagerID)
		opts = append(opts, func(db *gorm.DB) *gorm.DB {
			return db.Where("user_id IN (?) OR user_id = ?", team, req.TeamManagerID)
		})
	}

	items, err := s.repo.Find(ctx, query, opts...)
	if err != nil {
		zap.L().Error("failed to list earnings", zap.Error(err))
		return nil, nil, errutil.Internal("Erro ao listar premiações", err)
	}

	limit := req.Pagination.Limit
	if limit <= 0 {
		limit = 10
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(limit), func(e *Earning) string {
		cursor, _ := pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: e.CreatedAt.Format(time.RFC3339Nano),
			ID:        e.ID,
		})
		return cursor
	})
	if len(items) > limit {
		items = items[:limit]
	}

	return items, pageInfo, nil
}

// PayEarning settles a PENDENTE earning. Admin only, enforced at the route.
func (s *Service) PayEarning(ctx context.Context, earningID, actorID string) (*Earning, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("earning_id", earningID),
	)

	e, err := s.repo.FindOne(ctx, &Earning{ID: earningID})
	if err != nil {
		zapLog.Error("failed to get earning", zap.Error(err))
		return nil, errutil.Internal("Erro ao buscar premiação", err)
	}
	if e == nil {
		return nil, errutil.NotFound("Premiação não encontrada", nil)
	}
	if e.Status != StatusPendente {
		return nil, errutil.Conflict("Premiação já foi paga", nil)
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Earning{}).
			Where("id = ? AND status = ?", e.ID, StatusPendente).
			Updates(map[string]any{
				"status":  StatusPago,
				"paid_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to pay earning: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return errutil.Conflict("Premiação já foi paga", nil)
		}
		return s.activity.Record(ctx, tx, activity.Activity{
			UserID:   e.UserID,
			ActorID:  actorID,
			Action:   activity.ActionEarningPaid,
			Entity:   "earning",
			EntityID: e.ID,
			Message:  fmt.Sprintf("Premiação de %d pontos paga", e.Points),
		})
	}); err != nil {
		if be, ok := err.(errutil.BaseError); ok {
			return nil, be
		}
		zapLog.Error("failed to pay earning", zap.Error(err))
		return nil, errutil.Internal("Erro ao pagar premiação", err)
	}

	e.Status = StatusPago
	e.PaidAt = &now

	if s.asynq != nil {
		tasks := notification.NewEarningPaidTasks(notification.EarningPaidPayload{
			EarningID:  e.ID,
			UserID:     e.UserID,
			CampaignID: e.CampaignID,
			Points:     e.Points,
			Reference:  e.Reference,
			TraceID:    span.SpanContext().TraceID().String(),
		})
		for _, t := range tasks {
			if _, err := s.asynq.Enqueue(t); err != nil {
				zapLog.Warn("failed to enqueue earning paid task", zap.Error(err))
			}
		}
	}

	return e, nil
}
