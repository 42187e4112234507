package premio

import (
	"context"
	"fmt"
	"time"

	"eps-campanhas/pkg/db/option"
	"eps-campanhas/pkg/db/pagination"
	"eps-campanhas/pkg/errutil"
	"eps-campanhas/pkg/repository"
	"eps-campanhas/pkg/sequence"
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
	db          *gorm.DB
	node        *snowflake.Node
	seq         sequence.Generator
	asynq       task.Enqueuer
	repo        repository.Repository[Premio]
	redemptions repository.Repository[PremioRedemption]
	users       repository.Repository[user.User]
	activity    *activity.Service
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Seq      sequence.Generator
	Asynq    task.Enqueuer `optional:"true"`
	Activity *activity.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:          p.DB,
		node:        p.Node,
		seq:         p.Seq,
		asynq:       p.Asynq,
		repo:        repository.ProvideStore[Premio](p.DB),
		redemptions: repository.ProvideStore[PremioRedemption](p.DB),
		users:       repository.ProvideStore[user.User](p.DB),
		activity:    p.Activity,
	}
}

type CreatePremioRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	PointsCost  int64  `json:"points_cost" binding:"required,gt=0"`
	MaxStock    int64  `json:"max_stock" binding:"required,gt=0"`
}

func (s *Service) CreatePremio(ctx context.Context, req CreatePremioRequest) (*Premio, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("premio_name", req.Name),
	)

	p := &Premio{
		ID:             s.node.Generate().String(),
		Name:           req.Name,
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		PointsCost:     req.PointsCost,
		MaxStock:       req.MaxStock,
		RemainingStock: req.MaxStock,
		Status:         StatusActive,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		zapLog.Error("failed to create premio", zap.Error(err))
		return nil, errutil.Internal("Erro ao criar prêmio", err)
	}

	return p, nil
}

type ListPremiosRequest struct {
	OnlyActive bool
	Pagination pagination.Pagination
}

func (s *Service) ListPremios(ctx context.Context, req ListPremiosRequest) ([]*Premio, *pagination.PageInfo, error) {
	filter := &Premio{}
	if req.OnlyActive {
		filter.Status = StatusActive
	}

	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
		option.ApplyPagination(req.Pagination),
	}

	premios, err := s.repo.Find(ctx, filter, opts...)
	if err != nil {
		zap.L().Error("failed to list premios", zap.Error(err))
		return nil, nil, errutil.Internal("Erro ao listar prêmios", err)
	}

	limit := req.Pagination.Limit
	if limit <= 0 {
		limit = 10
	}

	pageInfo := pagination.BuildCursorPageInfo(premios, int32(limit), func(p *Premio) string {
		cursor, _ := pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: p.CreatedAt.Format(time.RFC3339Nano),
			ID:        p.ID,
		})
		return cursor
	})

	if len(premios) > limit {
		premios = premios[:limit]
	}

	return premios, pageInfo, nil
}

func (s *Service) GetPremio(ctx context.Context, premioID string) (*Premio, error) {
	p, err := s.repo.FindOne(ctx, &Premio{ID: premioID})
	if err != nil {
		zap.L().Error("failed to get premio", zap.String("premio_id", premioID), zap.Error(err))
		return nil, errutil.Internal("Erro ao buscar prêmio", err)
	}
	if p == nil {
		return nil, errutil.NotFound("Prêmio não encontrado", nil)
	}
	return p, nil
}

type UpdatePremioRequest struct {
	Name        *string       `json:"name"`
	Description *string       `json:"description"`
	ImageURL    *string       `json:"image_url"`
	PointsCost  *int64        `json:"points_cost"`
	Status      *PremioStatus `json:"status"`
	AddStock    *int64        `json:"add_stock"`
}

// UpdatePremio edits catalog fields. AddStock raises max and remaining
// stock atomically, it never rewrites the counters from the request body.
func (s *Service) UpdatePremio(ctx context.Context, premioID string, req UpdatePremioRequest) (*Premio, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("premio_id", premioID),
	)

	p, err := s.GetPremio(ctx, premioID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.PointsCost != nil {
		if *req.PointsCost <= 0 {
			return nil, errutil.BadRequest("Custo em pontos deve ser maior que zero", nil)
		}
		updates["points_cost"] = *req.PointsCost
	}
	if req.Status != nil {
		if *req.Status != StatusActive && *req.Status != StatusInactive {
			return nil, errutil.BadRequest(fmt.Sprintf("Status inválido: %s", *req.Status), nil)
		}
		updates["status"] = *req.Status
	}
	if req.AddStock != nil {
		if *req.AddStock <= 0 {
			return nil, errutil.BadRequest("Quantidade de estoque deve ser maior que zero", nil)
		}
		updates["max_stock"] = gorm.Expr("max_stock + ?", *req.AddStock)
		updates["remaining_stock"] = gorm.Expr("remaining_stock + ?", *req.AddStock)
	}

	if len(updates) == 0 {
		return p, nil
	}

	if err := s.db.WithContext(ctx).Model(&Premio{}).
		Where("id = ?", premioID).
		Updates(updates).Error; err != nil {
		zapLog.Error("failed to update premio", zap.Error(err))
		return nil, errutil.Internal("Erro ao atualizar prêmio", err)
	}

	return s.GetPremio(ctx, premioID)
}

// Redeem debits the user's points and reserves one unit of stock in a
// single transaction. Both rows are read under FOR UPDATE and the writes
// are guarded so concurrent redeems can never oversell or overdraw.
func (s *Service) Redeem(ctx context.Context, premioID, userID string) (*PremioRedemption, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("premio_id", premioID),
		zap.String("user_id", userID),
	)

	code, err := s.seq.NextRedemptionCode(ctx)
	if err != nil {
		zapLog.Error("failed to generate redemption code", zap.Error(err))
		return nil, errutil.Internal("Erro ao resgatar prêmio", err)
	}

	redemption := &PremioRedemption{
		ID:       s.node.Generate().String(),
		PremioID: premioID,
		UserID:   userID,
		Code:     code,
		Status:   RedemptionRequested,
	}

	var premioName string

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.repo.WithTrx(tx).FindOne(ctx, &Premio{ID: premioID}, option.WithLockingUpdate())
		if err != nil {
			return fmt.Errorf("failed to lock premio: %w", err)
		}
		if p == nil {
			return errutil.NotFound("Prêmio não encontrado", nil)
		}
		if p.Status != StatusActive {
			return errutil.Conflict("Prêmio não está disponível", nil)
		}
		if p.RemainingStock <= 0 {
			return errutil.Conflict("Prêmio esgotado", nil)
		}

		u, err := s.users.WithTrx(tx).FindOne(ctx, &user.User{ID: userID}, option.WithLockingUpdate())
		if err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}
		if u == nil {
			return errutil.NotFound("Usuário não encontrado", nil)
		}
		if u.Points < p.PointsCost {
			return errutil.BadRequest("Pontos insuficientes", nil)
		}

		// decremento guardado, o WHERE reconfere estoque e saldo mesmo com o lock
		stock := tx.Model(&Premio{}).
			Where("id = ? AND remaining_stock > 0", premioID).
			Update("remaining_stock", gorm.Expr("remaining_stock - 1"))
		if stock.Error != nil {
			return fmt.Errorf("failed to decrement stock: %w", stock.Error)
		}
		if stock.RowsAffected == 0 {
			return errutil.Conflict("Prêmio esgotado", nil)
		}

		points := tx.Model(&user.User{}).
			Where("id = ? AND points >= ?", userID, p.PointsCost).
			Update("points", gorm.Expr("points - ?", p.PointsCost))
		if points.Error != nil {
			return fmt.Errorf("failed to debit points: %w", points.Error)
		}
		if points.RowsAffected == 0 {
			return errutil.BadRequest("Pontos insuficientes", nil)
		}

		redemption.PointsSpent = p.PointsCost
		premioName = p.Name

		if err := s.redemptions.WithTrx(tx).Create(ctx, redemption); err != nil {
			return fmt.Errorf("failed to create redemption: %w", err)
		}

		return s.activity.Record(ctx, tx, activity.Activity{
			UserID:   userID,
			ActorID:  userID,
			Action:   activity.ActionPremioRedeemed,
			Entity:   "premio_redemption",
			EntityID: redemption.ID,
			Message:  fmt.Sprintf("Resgate de %s por %d pontos", p.Name, p.PointsCost),
		})
	}); err != nil {
		if be, ok := err.(errutil.BaseError); ok {
			return nil, be
		}
		zapLog.Error("failed to redeem premio", zap.Error(err))
		return nil, errutil.Internal("Erro ao resgatar prêmio", err)
	}

	if s.asynq != nil {
		tasks := notification.NewPremioRedeemedTasks(notification.PremioRedeemedPayload{
			RedemptionID: redemption.ID,
			PremioID:     premioID,
			PremioName:   premioName,
			UserID:       userID,
			Code:         redemption.Code,
			PointsSpent:  redemption.PointsSpent,
			TraceID:      span.SpanContext().TraceID().String(),
		})
		for _, t := range tasks {
			if _, err := s.asynq.Enqueue(t); err != nil {
				zapLog.Warn("failed to enqueue premio redeemed task", zap.Error(err))
			}
		}
	}

	return redemption, nil
}

// CancelRedemption returns the points and the unit of stock. Only the
// owner or an admin can cancel, and only while the premio has not been
// delivered.
func (s *Service) CancelRedemption(ctx context.Context, redemptionID, actorID string, actorRole user.Role) (*PremioRedemption, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("redemption_id", redemptionID),
	)

	r, err := s.redemptions.FindOne(ctx, &PremioRedemption{ID: redemptionID})
	if err != nil {
		zapLog.Error("failed to get redemption", zap.Error(err))
		return nil, errutil.Internal("Erro ao buscar resgate", err)
	}
	if r == nil {
		return nil, errutil.NotFound("Resgate não encontrado", nil)
	}
	if actorRole != user.RoleAdmin && r.UserID != actorID {
		return nil, errutil.Forbidden("Acesso negado", nil)
	}
	if r.Status != RedemptionRequested {
		return nil, errutil.Conflict("Resgate não pode mais ser cancelado", nil)
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&PremioRedemption{}).
			Where("id = ? AND status = ?", r.ID, RedemptionRequested).
			Updates(map[string]any{
				"status":       RedemptionCancelled,
				"cancelled_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to cancel redemption: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return errutil.Conflict("Resgate não pode mais ser cancelado", nil)
		}

		if err := tx.Model(&Premio{}).
			Where("id = ?", r.PremioID).
			Update("remaining_stock", gorm.Expr("remaining_stock + 1")).Error; err != nil {
			return fmt.Errorf("failed to restock premio: %w", err)
		}

		if err := tx.Model(&user.User{}).
			Where("id = ?", r.UserID).
			Update("points", gorm.Expr("points + ?", r.PointsSpent)).Error; err != nil {
			return fmt.Errorf("failed to refund points: %w", err)
		}

		return s.activity.Record(ctx, tx, activity.Activity{
			UserID:   r.UserID,
			ActorID:  actorID,
			Action:   activity.ActionRedemptionCancelled,
			Entity:   "premio_redemption",
			EntityID: r.ID,
			Message:  fmt.Sprintf("Resgate cancelado, %d pontos devolvidos", r.PointsSpent),
		})
	}); err != nil {
		if be, ok := err.(errutil.BaseError); ok {
			return nil, be
		}
		zapLog.Error("failed to cancel redemption", zap.Error(err))
		return nil, errutil.Internal("Erro ao cancelar resgate", err)
	}

	r.Status = RedemptionCancelled
	r.CancelledAt = &now
	return r, nil
}

// DeliverRedemption marks the premio as handed over.
func (s *Service) DeliverRedemption(ctx context.Context, redemptionID, actorID string) (*PremioRedemption, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("redemption_id", redemptionID),
	)

	r, err := s.redemptions.FindOne(ctx, &PremioRedemption{ID: redemptionID})
	if err != nil {
		zapLog.Error("failed to get redemption", zap.Error(err))
		return nil, errutil.Internal("Erro ao buscar resgate", err)
	}
	if r == nil {
		return nil, errutil.NotFound("Resgate não encontrado", nil)
	}
	if r.Status != RedemptionRequested {
		return nil, errutil.Conflict("Resgate não está pendente de entrega", nil)
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&PremioRedemption{}).
			Where("id = ? AND status = ?", r.ID, RedemptionRequested).
			Updates(map[string]any{
				"status":       RedemptionDelivered,
				"delivered_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to deliver redemption: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return errutil.Conflict("Resgate não está pendente de entrega", nil)
		}
		return s.activity.Record(ctx, tx, activity.Activity{
			UserID:   r.UserID,
			ActorID:  actorID,
			Action:   activity.ActionRedemptionDelivered,
			Entity:   "premio_redemption",
			EntityID: r.ID,
			Message:  "Prêmio entregue",
		})
	}); err != nil {
		if be, ok := err.(errutil.BaseError); ok {
			return nil, be
		}
		zapLog.Error("failed to deliver redemption", zap.Error(err))
		return nil, errutil.Internal("Erro ao entregar resgate", err)
	}

	r.Status = RedemptionDelivered
	r.DeliveredAt = &now
	return r, nil
}

type ListRedemptionsRequest struct {
	UserID     string
	PremioID   string
	Status     RedemptionStatus
	Pagination pagination.Pagination
}

func (s *Service) ListRedemptions(ctx context.Context, req ListRedemptionsRequest) ([]*PremioRedemption, *pagination.PageInfo, error) {
	filter := &PremioRedemption{
		UserID:   req.UserID,
		PremioID: req.PremioID,
		Status:   req.Status,
	}

	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
		option.ApplyPagination(req.Pagination),
	}

	redemptions, err := s.redemptions.Find(ctx, filter, opts...)
	if err != nil {
		zap.L().Error("failed to list redemptions", zap.Error(err))
		return nil, nil, errutil.Internal("Erro ao listar resgates", err)
	}

	limit := req.Pagination.Limit
	if limit <= 0 {
		limit = 10
	}

	pageInfo := pagination.BuildCursorPageInfo(redemptions, int32(limit), func(r *PremioRedemption) string {
		cursor, _ := pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: r.CreatedAt.Format(time.RFC3339Nano),
			ID:        r.ID,
		})
		return cursor
	})

	if len(redemptions) > limit {
		redemptions = redemptions[:limit]
	}

	return redemptions, pageInfo, nil
}
