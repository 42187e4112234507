package submission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/db/option"
	"eps-campanhas/pkg/db/pagination"
	"eps-campanhas/pkg/errutil"
	"eps-campanhas/pkg/featureflags"
	"eps-campanhas/pkg/middleware"
	"eps-campanhas/pkg/repository"
	"eps-campanhas/pkg/task"
	"eps-campanhas/services/activity"
	"eps-campanhas/services/campaign"
	"eps-campanhas/services/earning"
	"eps-campanhas/services/notification"
	"eps-campanhas/services/rule"
	"eps-campanhas/services/user"

	"github.com/bwmarrin/snowflake"
	"github.com/minio/minio-go/v7"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FlagAutoValidate short-circuits manager review when enabled in Flagsmith.
const FlagAutoValidate = "auto_validate_submissions"

// autoValidator is recorded as ValidatedBy when the feature flag validates
// on behalf of the manager.
const autoValidator = "auto"

type Service struct {
	db            *gorm.DB
	node          *snowflake.Node
	cfg           *config.Config
	asynq         task.Enqueuer
	flags         featureflags.FeatureFlag
	storage       *minio.Client
	repo          repository.Repository[CampaignSubmission]
	kits          repository.Repository[CampaignKit]
	users         repository.Repository[user.User]
	campaigns     *campaign.Service
	earnings      *earning.Service
	rules         *rule.Service
	notifications *notification.Service
	activity      *activity.Service
}

type ServiceParams struct {
	fx.In
	DB            *gorm.DB
	Node          *snowflake.Node
	Config        *config.Config
	Asynq         task.Enqueuer            `optional:"true"`
	Flags         featureflags.FeatureFlag `optional:"true"`
	Storage       *minio.Client            `optional:"true"`
	Campaigns     *campaign.Service
	Earnings      *earning.Service
	Rules         *rule.Service
	Notifications *notification.Service
	Activity      *activity.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:            p.DB,
		node:          p.Node,
		cfg:           p.Config,
		asynq:         p.Asynq,
		flags:         p.Flags,
		storage:       p.Storage,
		repo:          repository.ProvideStore[CampaignSubmission](p.DB),
		kits:          repository.ProvideStore[CampaignKit](p.DB),
		users:         repository.ProvideStore[user.User](p.DB),
		campaigns:     p.Campaigns,
		earnings:      p.Earnings,
		rules:         p.Rules,
		notifications: p.Notifications,
		activity:      p.Activity,
	}
}

type CreateSubmissionRequest struct {
	CampaignID    string    `json:"campaign_id" binding:"required"`
	RequirementID string    `json:"requirement_id" binding:"required"`
	OrderNumber   string    `json:"order_number" binding:"required"`
	Quantity      int64     `json:"quantity" binding:"required,gt=0"`
	SaleDate      time.Time `json:"sale_date" binding:"required"`
	ReceiptURL    string    `json:"receipt_url"`
}

// CreateSubmission registers a claimed sale for the caller against one of
// the campaign's goal requirements. The kit is found or created inside the
// same transaction as the insert.
func (s *Service) CreateSubmission(ctx context.Context, req CreateSubmissionRequest, sellerID string) (*CampaignSubmission, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("campaign_id", req.CampaignID),
		zap.String("order_number", req.OrderNumber),
	)

	camp, err := s.campaigns.GetCampaign(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}
	if !camp.IsActive(time.Now()) {
		return nil, errutil.BadRequest("Campanha não está ativa", nil)
	}

	seller, err := s.users.FindOne(ctx, &user.User{ID: sellerID})
	if err != nil {
		zapLog.Error("failed to load seller", zap.Error(err))
		return nil, errutil.Internal("Erro ao buscar usuário", err)
	}
	if seller == nil {
		return nil, errutil.NotFound("Usuário não encontrado", nil)
	}
	if !camp.IsEligible(seller.OpticCNPJ) {
		return nil, errutil.Forbidden("Ótica não participa desta campanha", nil)
	}

	var requirement *campaign.GoalRequirement
	for i := range camp.Requirements {
		if camp.Requirements[i].ID == req.RequirementID {
			requirement = &camp.Requirements[i]
			break
		}
	}
	if requirement == nil {
		return nil, errutil.BadRequest("Meta não pertence à campanha", nil)
	}

	// pre-checagem amigavel, o indice unico segura a corrida
	existing, err := s.repo.FindOne(ctx, &CampaignSubmission{OrderNumber: req.OrderNumber})
	if err != nil {
		zapLog.Error("failed to check order number", zap.Error(err))
		return nil, errutil.Internal("Erro ao cadastrar venda", err)
	}
	if existing != nil {
		return nil, errutil.Conflict("Número de pedido já cadastrado", nil)
	}

	sub := &CampaignSubmission{
		ID:            s.node.Generate().String(),
		CampaignID:    camp.ID,
		RequirementID: requirement.ID,
		UserID:        seller.ID,
		OrderNumber:   req.OrderNumber,
		Quantity:      req.Quantity,
		SaleDate:      req.SaleDate,
		Channel:       middleware.GetChannel(ctx),
		ReceiptURL:    req.ReceiptURL,
		Status:        StatusPending,
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		kit, err := s.kits.WithTrx(tx).FindOne(ctx, &CampaignKit{CampaignID: camp.ID, UserID: seller.ID}, option.WithLockingUpdate())
		if err != nil {
			return fmt.Errorf("failed to load kit: %w", err)
		}
		if kit == nil {
			kit = &CampaignKit{
				ID:         s.node.Generate().String(),
				CampaignID: camp.ID,
				UserID:     seller.ID,
				Status:     KitInProgress,
			}
			if err := s.kits.WithTrx(tx).Create(ctx, kit); err != nil {
				return fmt.Errorf("failed to create kit: %w", err)
			}
		} else if kit.Status == KitCompleted {
			return errutil.Conflict("Kit desta campanha já foi concluído", nil)
		} else if kit.Status == KitExpired {
			return errutil.Conflict("Kit desta campanha está expirado", nil)
		}

		sub.KitID = kit.ID
		if err := s.repo.WithTrx(tx).Create(ctx, sub); err != nil {
			return fmt.Errorf("failed to create submission: %w", err)
		}

		return s.activity.Record(ctx, tx, activity.Activity{
			UserID:   seller.ID,
			ActorID:  seller.ID,
			Action:   activity.ActionSubmissionCreated,
			Entity:   "submission",
			EntityID: sub.ID,
			Message:  fmt.Sprintf("Venda %s cadastrada na campanha %s", sub.OrderNumber, camp.Title),
		})
	}); err != nil {
		if be, ok := err.(errutil.BaseError); ok {
			return nil, be
		}
		zapLog.Error("failed to create submission", zap.Error(err))
		return nil, errutil.Internal("Erro ao cadastrar venda", err)
	}

	if s.asynq != nil {
		managerID := ""
		if seller.ManagerID != nil {
			managerID = *seller.ManagerID
		}
		tasks := notification.NewSubmissionCreatedTasks(notification.SubmissionEventPayload{
			SubmissionID: sub.ID,
			CampaignID:   camp.ID,
			KitID:        sub.KitID,
			SellerID:     seller.ID,
			ManagerID:    managerID,
			OrderNumber:  sub.OrderNumber,
			TraceID:      span.SpanContext().TraceID().String(),
		})
		for _, t := range tasks {
			if _, err := s.asynq.Enqueue(t); err != nil {
				zapLog.Warn("failed to enqueue submission created task", zap.Error(err))
			}
		}
	}

	if s.flags != nil && s.flags.IsEnabled(ctx, FlagAutoValidate) {
		validated, err := s.validate(ctx, sub, seller, autoValidator)
		if err != nil {
			zapLog.Warn("auto validation failed", zap.Error(err))
			return sub, nil
		}
		return validated, nil
	}

	return sub, nil
}

func (s *Service) GetSubmission(ctx context.Context, submissionID string) (*CampaignSubmission, error) {
	sub, err := s.repo.FindOne(ctx, &CampaignSubmission{ID: submissionID})
	if err != nil {
		zap.L().Error("failed to get submission", zap.String("submission_id", submissionID), zap.Error(err))
		return nil, errutil.Internal("Erro ao buscar submissão", err)
	}
	if sub == nil {
		return nil, errutil.NotFound("Submissão não encontrada", nil)
	}
	return sub, nil
}

// GetSubmissionForActor applies read scoping: the seller sees their own
// rows, a GERENTE the team's, ADMIN everything.
func (s *Service) GetSubmissionForActor(ctx context.Context, submissionID, actorID string, actorRole user.Role) (*CampaignSubmission, error) {
	sub, err := s.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	if actorRole == user.RoleAdmin || sub.UserID == actorID {
		return sub, nil
	}

	if actorRole == user.RoleGerente {
		seller, err := s.users.FindOne(ctx, &user.User{ID: sub.UserID})
		if err != nil {
			zap.L().Error("failed to load seller", zap.String("user_id", sub.UserID), zap.Error(err))
			return nil, errutil.Internal("Erro ao buscar usuário", err)
		}
		if seller != nil && seller.ManagerID != nil && *seller.ManagerID == actorID {
			return sub, nil
		}
	}

	return nil, errutil.Forbidden("Acesso negado", nil)
}

// getForReview loads the submission and its seller and checks the caller
// may decide it. ADMIN decides anything, a GERENTE only their own sellers'.
func (s *Service) getForReview(ctx context.Context, submissionID, actorID string, actorRole user.Role) (*CampaignSubmission, *user.User, error) {
	sub, err := s.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, nil, err
	}

	seller, err := s.users.FindOne(ctx, &user.User{ID: sub.UserID})
	if err != nil {
		zap.L().Error("failed to load seller", zap.String("user_id", sub.UserID), zap.Error(err))
		return nil, nil, errutil.Internal("Erro ao buscar usuário", err)
	}
	if seller == nil {
		return nil, nil, errutil.NotFound("Usuário não encontrado", nil)
	}

	switch actorRole {
	case user.RoleAdmin:
	case user.RoleGerente:
		if seller.ManagerID == nil || *seller.ManagerID != actorID {
			return nil, nil, errutil.Forbidden("Acesso negado", nil)
		}
	default:
		return nil, nil, errutil.Forbidden("Acesso negado", nil)
	}

	return sub, seller, nil
}

func (s *Service) ValidateSubmission(ctx context.Context, submissionID, actorID string, actorRole user.Role) (*CampaignSubmission, error) {
	sub, seller, err := s.getForReview(ctx, submissionID, actorID, actorRole)
	if err != nil {
		return nil, err
	}
	return s.validate(ctx, sub, seller, actorID)
}

// validate marks the submission VALIDATED and, when every requirement of
// the campaign is met, completes the kit and distributes earnings in the
// same transaction. The kit row is locked so concurrent validations of
// sibling submissions serialize and the payout happens exactly once.
func (s *Service) validate(ctx context.Context, sub *CampaignSubmission, seller *user.User, actorID string) (*CampaignSubmission, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("submission_id", sub.ID),
	)

	if sub.Status != StatusPending {
		return nil, errutil.Conflict("Submissão já foi processada", nil)
	}

	camp, err := s.campaigns.GetCampaign(ctx, sub.CampaignID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	completed := false

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		kit, err := s.kits.WithTrx(tx).FindOne(ctx, &CampaignKit{ID: sub.KitID}, option.WithLockingUpdate())
		if err != nil {
			return fmt.Errorf("failed to lock kit: %w", err)
		}
		if kit == nil {
			return errutil.NotFound("Kit não encontrado", nil)
		}

		res := tx.Model(&CampaignSubmission{}).
			Where("id = ? AND status = ?", sub.ID, StatusPending).
			Updates(map[string]any{
				"status":       StatusValidated,
				"validated_by": actorID,
				"validated_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to validate submission: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return errutil.Conflict("Submissão já foi processada", nil)
		}

		if err := s.activity.Record(ctx, tx, activity.Activity{
			UserID:   sub.UserID,
			ActorID:  actorID,
			Action:   activity.ActionSubmissionValidated,
			Entity:   "submission",
			EntityID: sub.ID,
			Message:  fmt.Sprintf("Venda %s validada", sub.OrderNumber),
		}); err != nil {
			return err
		}

		// kit fechado ou expirado nao recomputa nem paga de novo
		if kit.Status != KitInProgress {
			return nil
		}

		done, err := s.kitComplete(tx, kit.ID, camp)
		if err != nil {
			return err
		}
		if !done {
			return nil
		}

		res = tx.Model(&CampaignKit{}).
			Where("id = ? AND status = ?", kit.ID, KitInProgress).
			Updates(map[string]any{
				"status":       KitCompleted,
				"completed_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to complete kit: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		completed = true

		if err := s.activity.Record(ctx, tx, activity.Activity{
			UserID:   sub.UserID,
			ActorID:  actorID,
			Action:   activity.ActionKitCompleted,
			Entity:   "campaign_kit",
			EntityID: kit.ID,
			Message:  fmt.Sprintf("Kit da campanha %s concluído", camp.Title),
		}); err != nil {
			return err
		}

		_, err = s.earnings.DistributeOnKitCompletion(ctx, tx, earning.DistributeInput{
			KitID:      kit.ID,
			CampaignID: camp.ID,
			Reference:  camp.Code,
			Seller:     seller,
			Points:     camp.PointsOnCompletion,
			ManagerPct: camp.ManagerPointsPercentage,
		})
		return err
	}); err != nil {
		if be, ok := err.(errutil.BaseError); ok {
			return nil, be
		}
		zapLog.Error("failed to validate submission", zap.Error(err))
		return nil, errutil.Internal("Erro ao validar submissão", err)
	}

	sub.Status = StatusValidated
	sub.ValidatedBy = &actorID
	sub.ValidatedAt = &now

	s.afterValidation(ctx, sub, seller, camp, completed)

	return sub, nil
}

type requirementTotal struct {
	RequirementID string `gorm:"column:requirement_id"`
	Total         int64  `gorm:"column:total"`
}

// kitComplete reports whether every requirement of the campaign has enough
// validated quantity in the kit. Runs on the caller's transaction so it
// sees the row validated moments before.
func (s *Service) kitComplete(tx *gorm.DB, kitID string, camp *campaign.Campaign) (bool, error) {
	if len(camp.Requirements) == 0 {
		return false, nil
	}

	var sums []requirementTotal
	if err := tx.Model(&CampaignSubmission{}).
		Select("requirement_id, SUM(quantity) AS total").
		Where("kit_id = ? AND status = ?", kitID, StatusValidated).
		Group("requirement_id").
		Scan(&sums).Error; err != nil {
		return false, fmt.Errorf("failed to sum kit progress: %w", err)
	}

	byRequirement := make(map[string]int64, len(sums))
	for _, row := range sums {
		byRequirement[row.RequirementID] = row.Total
	}

	for _, r := range camp.Requirements {
		if byRequirement[r.ID] < r.TargetQuantity {
			return false, nil
		}
	}
	return true, nil
}

func (s *Service) afterValidation(ctx context.Context, sub *CampaignSubmission, seller *user.User, camp *campaign.Campaign, completed bool) {
	span := trace.SpanFromContext(ctx)
	traceID := span.SpanContext().TraceID().String()

	managerID := ""
	if seller.ManagerID != nil {
		managerID = *seller.ManagerID
	}

	if s.asynq != nil {
		tasks := notification.NewSubmissionValidatedTasks(notification.SubmissionEventPayload{
			SubmissionID: sub.ID,
			CampaignID:   camp.ID,
			KitID:        sub.KitID,
			SellerID:     seller.ID,
			ManagerID:    managerID,
			OrderNumber:  sub.OrderNumber,
			TraceID:      traceID,
		})

		if completed {
			managerPoints := int64(0)
			if managerID != "" && camp.ManagerPointsPercentage > 0 {
				managerPoints = camp.PointsOnCompletion * int64(camp.ManagerPointsPercentage) / 100
			}
			tasks = append(tasks, notification.NewKitCompletedTasks(notification.KitCompletedPayload{
				KitID:         sub.KitID,
				CampaignID:    camp.ID,
				CampaignTitle: camp.Title,
				SellerID:      seller.ID,
				ManagerID:     managerID,
				SellerPoints:  camp.PointsOnCompletion,
				ManagerPoints: managerPoints,
				TraceID:       traceID,
			})...)
		}

		for _, t := range tasks {
			if _, err := s.asynq.Enqueue(t); err != nil {
				zap.L().Warn("failed to enqueue validation task",
					zap.String("task", t.Type()),
					zap.Error(err),
				)
			}
		}
	}

	s.applyBonusRules(ctx, sub, seller, camp, completed)
}

// applyBonusRules evaluates the campaign bonus rules for the validation
// triggers. Bonus points land in a follow-up transaction so a broken rule
// never rolls back the validation itself.
func (s *Service) applyBonusRules(ctx context.Context, sub *CampaignSubmission, seller *user.User, camp *campaign.Campaign, completed bool) {
	if s.rules == nil {
		return
	}

	attrs := map[string]any{
		"quantity":        sub.Quantity,
		"channel":         sub.Channel,
		"optic_cnpj":      seller.OpticCNPJ,
		"seller_id":       seller.ID,
		"campaign_id":     camp.ID,
		"campaign_points": camp.PointsOnCompletion,
	}
	for _, r := range camp.Requirements {
		if r.ID == sub.RequirementID {
			attrs["product_type"] = r.ProductType
			break
		}
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&CampaignSubmission{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("kit_id = ? AND status = ?", sub.KitID, StatusValidated).
		Scan(&total).Error; err == nil {
		attrs["total_quantity"] = total
	}

	triggers := []rule.RuleTrigger{rule.TriggerSubmissionValidated}
	if completed {
		triggers = append(triggers, rule.TriggerKitCompleted)
	}

	for _, trigger := range triggers {
		result, err := s.rules.EvaluateTrigger(ctx, trigger, attrs)
		if err != nil {
			zap.L().Warn("bonus rule evaluation failed",
				zap.String("trigger", string(trigger)),
				zap.Error(err),
			)
			continue
		}

		if result.BonusPoints > 0 {
			reference := fmt.Sprintf("rules:%s", strings.Join(result.MatchedRuleIDs, ","))
			if _, err := s.earnings.AddBonus(ctx, seller.ID, sub.KitID, camp.ID, reference, result.BonusPoints); err != nil {
				zap.L().Error("failed to credit bonus points",
					zap.String("submission_id", sub.ID),
					zap.Error(err),
				)
			}
		}

		for _, note := range result.Notes {
			if err := s.notifications.Notify(ctx, notification.Notification{
				UserID:  seller.ID,
				Type:    notification.TypeRuleBonus,
				Title:   note.Title,
				Message: note.Message,
			}); err != nil {
				zap.L().Warn("failed to notify rule action", zap.Error(err))
			}
		}
	}
}

func (s *Service) RejectSubmission(ctx context.Context, submissionID, actorID string, actorRole user.Role, reason string) (*CampaignSubmission, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("submission_id", submissionID),
	)

	if strings.TrimSpace(reason) == "" {
		return nil, errutil.BadRequest("Motivo da rejeição é obrigatório", nil)
	}

	sub, seller, err := s.getForReview(ctx, submissionID, actorID, actorRole)
	if err != nil {
		return nil, err
	}
	if sub.Status != StatusPending {
		return nil, errutil.Conflict("Submissão já foi processada", nil)
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&CampaignSubmission{}).
			Where("id = ? AND status = ?", sub.ID, StatusPending).
			Updates(map[string]any{
				"status":        StatusRejected,
				"reject_reason": reason,
				"validated_by":  actorID,
				"validated_at":  now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to reject submission: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return errutil.Conflict("Submissão já foi processada", nil)
		}

		return s.activity.Record(ctx, tx, activity.Activity{
			UserID:   sub.UserID,
			ActorID:  actorID,
			Action:   activity.ActionSubmissionRejected,
			Entity:   "submission",
			EntityID: sub.ID,
			Message:  fmt.Sprintf("Venda %s rejeitada: %s", sub.OrderNumber, reason),
		})
	}); err != nil {
		if be, ok := err.(errutil.BaseError); ok {
			return nil, be
		}
		zapLog.Error("failed to reject submission", zap.Error(err))
		return nil, errutil.Internal("Erro ao rejeitar submissão", err)
	}

	sub.Status = StatusRejected
	sub.RejectReason = reason
	sub.ValidatedBy = &actorID
	sub.ValidatedAt = &now

	if s.asynq != nil {
		managerID := ""
		if seller.ManagerID != nil {
			managerID = *seller.ManagerID
		}
		tasks := notification.NewSubmissionRejectedTasks(notification.SubmissionEventPayload{
			SubmissionID: sub.ID,
			CampaignID:   sub.CampaignID,
			KitID:        sub.KitID,
			SellerID:     seller.ID,
			ManagerID:    managerID,
			OrderNumber:  sub.OrderNumber,
			Reason:       reason,
			TraceID:      span.SpanContext().TraceID().String(),
		})
		for _, t := range tasks {
			if _, err := s.asynq.Enqueue(t); err != nil {
				zapLog.Warn("failed to enqueue submission rejected task", zap.Error(err))
			}
		}
	}

	return sub, nil
}

type ListSubmissionsRequest struct {
	UserID     string
	CampaignID string
	KitID      string
	Status     SubmissionStatus
	// TeamManagerID scopes the listing to a manager's sellers.
	TeamManagerID string
	Pagination    pagination.Pagination
}

func (s *Service) ListSubmissions(ctx context.Context, req ListSubmissionsRequest) ([]*CampaignSubmission, *pagination.PageInfo, error) {
	filter := &CampaignSubmission{
		UserID:     req.UserID,
		CampaignID: req.CampaignID,
		KitID:      req.KitID,
		Status:     req.Status,
	}

	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
		option.ApplyPagination(req.Pagination),
	}

	if req.TeamManagerID != "" {
		managerID := req.TeamManagerID
		opts = append(opts, func(db *gorm.DB) *gorm.DB {
			team := s.db.Model(&user.User{}).Select("id").Where("manager_id = ?", managerID)
			return db.Where("user_id IN (?)", team)
		})
	}

	subs, err := s.repo.Find(ctx, filter, opts...)
	if err != nil {
		zap.L().Error("failed to list submissions", zap.Error(err))
		return nil, nil, errutil.Internal("Erro ao listar submissões", err)
	}

	limit := req.Pagination.Limit
	if limit <= 0 {
		limit = 10
	}

	pageInfo := pagination.BuildCursorPageInfo(subs, int32(limit), func(sub *CampaignSubmission) string {
		cursor, _ := pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: sub.CreatedAt.Format(time.RFC3339Nano),
			ID:        sub.ID,
		})
		return cursor
	})

	if len(subs) > limit {
		subs = subs[:limit]
	}

	return subs, pageInfo, nil
}
