package activity

import (
	"context"
	"time"

	"eps-campanhas/pkg/db/option"
	"eps-campanhas/pkg/db/pagination"
	"eps-campanhas/pkg/errutil"
	"eps-campanhas/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	repo repository.Repository[Activity]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
		repo: repository.ProvideStore[Activity](p.DB),
	}
}

// Record appends an audit row. When tx is non-nil the row joins the caller's
// transaction so audit and state change commit together.
func (s *Service) Record(ctx context.Context, tx *gorm.DB, entry Activity) error {
	if entry.ID == "" {
		entry.ID = s.node.Generate().String()
	}

	if err := s.repo.WithTrx(tx).Create(ctx, &entry); err != nil {
		zap.L().Error("failed to record activity",
			zap.String("action", entry.Action),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err),
		)
		return err
	}

	return nil
}

type ListActivitiesRequest struct {
	UserID     string
	Entity     string
	EntityID   string
	Pagination pagination.Pagination
}

func (s *Service) ListActivities(ctx context.Context, req ListActivitiesRequest) ([]*Activity, *pagination.PageInfo, error) {
	filter := &Activity{
		UserID:   req.UserID,
		Entity:   req.Entity,
		EntityID: req.EntityID,
	}

	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
		option.ApplyPagination(req.Pagination),
	}

	activities, err := s.repo.Find(ctx, filter, opts...)
	if err != nil {
		zap.L().Error("failed to list activities", zap.Error(err))
		return nil, nil, errutil.Internal("Erro ao listar atividades", err)
	}

	limit := req.Pagination.Limit
	if limit <= 0 {
		limit = 10
	}

	pageInfo := pagination.BuildCursorPageInfo(activities, int32(limit), func(a *Activity) string {
		cursor, _ := pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: a.CreatedAt.Format(time.RFC3339Nano),
			ID:        a.ID,
		})
		return cursor
	})

	if len(activities) > limit {
		activities = activities[:limit]
	}

	return activities, pageInfo, nil
}
