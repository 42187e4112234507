package notification

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
	repo repository.Repository[Notification]
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
		repo: repository.ProvideStore[Notification](p.DB),
	}
}

// Notify persists an in-app notification. Called by the worker handlers.
func (s *Service) Notify(ctx context.Context, n Notification) error {
	if n.UserID == "" {
		return nil
	}
	if n.ID == "" {
		n.ID = s.node.Generate().String()
	}

	if err := s.repo.Create(ctx, &n); err != nil {
		zap.L().Error("failed to create notification",
			zap.String("user_id", n.UserID),
			zap.String("type", string(n.Type)),
			zap.Error(err),
		)
		return err
	}

	return nil
}

type ListNotificationsRequest struct {
	UserID     string
	OnlyUnread bool
	Pagination pagination.Pagination
}

func (s *Service) ListNotifications(ctx context.Context, req ListNotificationsRequest) ([]*Notification, *pagination.PageInfo, error) {
	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
		option.ApplyPagination(req.Pagination),
	}
	if req.OnlyUnread {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "read",
			Operator: option.EQ,
			Value:    false,
		}))
	}

	notifications, err := s.repo.Find(ctx, &Notification{UserID: req.UserID}, opts...)
	if err != nil {
		zap.L().Error("failed to list notifications", zap.Error(err))
		return nil, nil, errutil.Internal("Erro ao listar notificações", err)
	}

	limit := req.Pagination.Limit
	if limit <= 0 {
		limit = 10
	}

	pageInfo := pagination.BuildCursorPageInfo(notifications, int32(limit), func(n *Notification) string {
		cursor, _ := pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: n.CreatedAt.Format(time.RFC3339Nano),
			ID:        n.ID,
		})
		return cursor
	})

	if len(notifications) > limit {
		notifications = notifications[:limit]
	}

	return notifications, pageInfo, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		zap.L().Error("failed to count unread notifications", zap.Error(err))
		return 0, errutil.Internal("Erro ao contar notificações", err)
	}

	return count, nil
}

// MarkRead marks one notification as read. Users can only touch their own.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	n, err := s.repo.FindOne(ctx, &Notification{ID: notificationID})
	if err != nil {
		return errutil.Internal("Erro ao consultar notificação", err)
	}
	if n == nil || n.UserID != userID {
		return errutil.NotFound("Notificação não encontrada", nil)
	}

	if n.Read {
		return nil
	}

	if err := s.repo.Update(ctx, n.ID, map[string]interface{}{"read": true, "read_at": time.Now()}); err != nil {
		zap.L().Error("failed to mark notification read", zap.String("notification_id", n.ID), zap.Error(err))
		return errutil.Internal("Erro ao atualizar notificação", err)
	}

	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Updates(map[string]interface{}{"read": true, "read_at": time.Now()}).Error
	if err != nil {
		zap.L().Error("failed to mark all notifications read", zap.String("user_id", userID), zap.Error(err))
		return errutil.Internal("Erro ao atualizar notificações", err)
	}

	return nil
}
