package campaign

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/db/option"
	"eps-campanhas/pkg/db/pagination"
	"eps-campanhas/pkg/errutil"
	"eps-campanhas/pkg/rediskey"
	"eps-campanhas/pkg/repository"
	"eps-campanhas/pkg/sequence"
	"eps-campanhas/services/user"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const cacheTTL = 5 * time.Minute

type Service struct {
	db      *gorm.DB
	node    *snowflake.Node
	seq     sequence.Generator
	rdb     *redis.Client
	config  *config.Config
	repo    repository.Repository[Campaign]
	reqRepo repository.Repository[GoalRequirement]
	users   repository.Repository[user.User]
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Seq    sequence.Generator
	Rdb    *redis.Client `optional:"true"`
	Config *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:      p.DB,
		node:    p.Node,
		seq:     p.Seq,
		rdb:     p.Rdb,
		config:  p.Config,
		repo:    repository.ProvideStore[Campaign](p.DB),
		reqRepo: repository.ProvideStore[GoalRequirement](p.DB),
		users:   repository.ProvideStore[user.User](p.DB),
	}
}

type RequirementInput struct {
	Description    string `json:"description" binding:"required"`
	ProductType    string `json:"product_type"`
	TargetQuantity int64  `json:"target_quantity" binding:"required,gt=0"`
	Unit           string `json:"unit"`
}

type CreateCampaignRequest struct {
	Title                   string             `json:"title" binding:"required"`
	Description             string             `json:"description"`
	BannerURL               string             `json:"banner_url"`
	StartDate               time.Time          `json:"start_date" binding:"required"`
	EndDate                 time.Time          `json:"end_date" binding:"required"`
	PointsOnCompletion      int64              `json:"points_on_completion" binding:"required,gt=0"`
	ManagerPointsPercentage int                `json:"manager_points_percentage" binding:"gte=0,lte=100"`
	EligibleCNPJs           []string           `json:"eligible_cnpjs"`
	Metadata                json.RawMessage    `json:"metadata"`
	Requirements            []RequirementInput `json:"requirements" binding:"required,min=1,dive"`
}

type UpdateCampaignRequest struct {
	Title                   *string    `json:"title"`
	Description             *string    `json:"description"`
	BannerURL               *string    `json:"banner_url"`
	StartDate               *time.Time `json:"start_date"`
	EndDate                 *time.Time `json:"end_date"`
	PointsOnCompletion      *int64     `json:"points_on_completion"`
	ManagerPointsPercentage *int       `json:"manager_points_percentage"`
	EligibleCNPJs           *[]string  `json:"eligible_cnpjs"`
}

type ListCampaignsRequest struct {
	Status        string
	EligibleCNPJ  string
	SellerID      string
	OnlyAvailable bool
	Pagination    pagination.Pagination
}

func (s *Service) CreateCampaign(ctx context.Context, req CreateCampaignRequest, createdBy string) (*Campaign, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	if !req.EndDate.After(req.StartDate) {
		return nil, errutil.BadRequest("Data final deve ser posterior à data inicial", nil)
	}

	code, err := s.seq.NextCampaignCode(ctx)
	if err != nil {
		zapLog.Error("failed to generate campaign code", zap.Error(err))
		return nil, errutil.Internal("Erro ao criar campanha", err)
	}

	slugName := slug.Make(req.Title)
	exist, err := s.repo.FindOne(ctx, &Campaign{Slug: slugName})
	if err != nil {
		zapLog.Error("failed to check campaign slug", zap.Error(err))
		return nil, errutil.Internal("Erro ao criar campanha", err)
	}
	if exist != nil {
		// slug ja em uso, sufixa com o codigo pra manter unico
		slugName = fmt.Sprintf("%s-%s", slugName, strings.ToLower(code))
	}

	campaignID := s.node.Generate().String()
	c := &Campaign{
		ID:                      campaignID,
		Code:                    code,
		Slug:                    slugName,
		Title:                   req.Title,
		Description:             req.Description,
		BannerURL:               req.BannerURL,
		StartDate:               req.StartDate,
		EndDate:                 req.EndDate,
		PointsOnCompletion:      req.PointsOnCompletion,
		ManagerPointsPercentage: req.ManagerPointsPercentage,
		EligibleCNPJs:           req.EligibleCNPJs,
		Status:                  StatusDraft,
		CreatedBy:               createdBy,
	}
	if len(req.Metadata) > 0 {
		c.Metadata = []byte(req.Metadata)
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("failed to create campaign: %w", err)
		}

		requirements := make([]*GoalRequirement, 0, len(req.Requirements))
		for _, in := range req.Requirements {
			requirements = append(requirements, s.buildRequirement(campaignID, in))
		}

		if err := s.reqRepo.WithTrx(tx).BatchCreate(ctx, requirements); err != nil {
			return fmt.Errorf("failed to create goal requirements: %w", err)
		}

		c.Requirements = make([]GoalRequirement, 0, len(requirements))
		for _, r := range requirements {
			c.Requirements = append(c.Requirements, *r)
		}
		return nil
	}); err != nil {
		zapLog.Error("failed to create campaign", zap.Error(err))
		return nil, errutil.Internal("Erro ao criar campanha", err)
	}

	zapLog.Info("campaign created",
		zap.String("campaign_id", campaignID),
		zap.String("code", code),
		zap.String("slug", slugName),
	)

	return c, nil
}

func (s *Service) buildRequirement(campaignID string, in RequirementInput) *GoalRequirement {
	unit := in.Unit
	if unit == "" {
		unit = "UNIDADES"
	}
	return &GoalRequirement{
		ID:             s.node.Generate().String(),
		CampaignID:     campaignID,
		Description:    in.Description,
		ProductType:    in.ProductType,
		TargetQuantity: in.TargetQuantity,
		Unit:           unit,
	}
}

// GetCampaign resolves by ID first and falls back to slug, with a short
// read-through cache.
func (s *Service) GetCampaign(ctx context.Context, idOrSlug string) (*Campaign, error) {
	if c := s.fromCache(ctx, idOrSlug); c != nil {
		return c, nil
	}

	var c Campaign
	err := s.db.WithContext(ctx).
		Preload("Requirements").
		Where("id = ? OR slug = ?", idOrSlug, idOrSlug).
		First(&c).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errutil.NotFound("Campanha não encontrada", nil)
		}
		zap.L().Error("failed to get campaign", zap.Error(err))
		return nil, errutil.Internal("Erro ao buscar campanha", err)
	}

	s.toCache(ctx, &c)
	return &c, nil
}

func (s *Service) fromCache(ctx context.Context, idOrSlug string) *Campaign {
	if s.rdb == nil {
		return nil
	}
	for _, key := range []string{rediskey.BuildCampaignIDKey(idOrSlug), rediskey.BuildCampaignSlugKey(idOrSlug)} {
		raw, err := s.rdb.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var c Campaign
		if err := json.Unmarshal(raw, &c); err != nil {
			continue
		}
		return &c
	}
	return nil
}

func (s *Service) toCache(ctx context.Context, c *Campaign) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return
	}
	s.rdb.Set(ctx, rediskey.BuildCampaignIDKey(c.ID), raw, cacheTTL)
	s.rdb.Set(ctx, rediskey.BuildCampaignSlugKey(c.Slug), raw, cacheTTL)
}

func (s *Service) invalidateCache(ctx context.Context, c *Campaign) {
	if s.rdb == nil {
		return
	}
	s.rdb.Del(ctx, rediskey.BuildCampaignIDKey(c.ID), rediskey.BuildCampaignSlugKey(c.Slug))
}

// InvalidateCache drops the cached entries of a campaign. The expiry sweep
// calls it after flipping statuses outside this service.
func (s *Service) InvalidateCache(ctx context.Context, c *Campaign) {
	s.invalidateCache(ctx, c)
}

func (s *Service) ListCampaigns(ctx context.Context, req ListCampaignsRequest) ([]*Campaign, *pagination.PageInfo, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	filterCNPJ := req.EligibleCNPJ != ""
	if req.SellerID != "" {
		seller, err := s.users.FindOne(ctx, &user.User{ID: req.SellerID})
		if err != nil {
			zap.L().Error("failed to resolve seller", zap.Error(err))
			return nil, nil, errutil.Internal("Erro ao listar campanhas", err)
		}
		if seller != nil {
			req.EligibleCNPJ = seller.OpticCNPJ
			filterCNPJ = true
		}
	}

	query := &Campaign{}
	if req.Status != "" {
		query.Status = CampaignStatus(req.Status)
	}
	if req.OnlyAvailable {
		query.Status = StatusActive
	}

	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "created_at",
			OrderBy: "desc",
		}),
		option.ApplyPagination(req.Pagination),
	}

	items, err := s.repo.Find(ctx, query, opts...)
	if err != nil {
		zap.L().Error("failed to list campaigns", zap.Error(err))
		return nil, nil, errutil.Internal("Erro ao listar campanhas", err)
	}

	// filtro de elegibilidade por CNPJ acontece em memoria pra nao depender
	// de operador de array do dialeto
	if filterCNPJ {
		filtered := items[:0]
		for _, c := range items {
			if c.IsEligible(req.EligibleCNPJ) {
				filtered = append(filtered, c)
			}
		}
		items = filtered
	}

	if req.OnlyAvailable {
		now := time.Now()
		filtered := items[:0]
		for _, c := range items {
			if c.IsActive(now) {
				filtered = append(filtered, c)
			}
		}
		items = filtered
	}

	limit := req.Pagination.Limit
	if limit <= 0 {
		limit = 10
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(limit), func(c *Campaign) string {
		cursor, _ := pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: c.CreatedAt.Format(time.RFC3339Nano),
			ID:        c.ID,
		})
		return cursor
	})
	if len(items) > limit {
		items = items[:limit]
	}

	return items, pageInfo, nil
}

func (s *Service) UpdateCampaign(ctx context.Context, campaignID string, req UpdateCampaignRequest) (*Campaign, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("campaign_id", campaignID),
	)

	c, err := s.repo.FindOne(ctx, &Campaign{ID: campaignID})
	if err != nil {
		zapLog.Error("failed to get campaign", zap.Error(err))
		return nil, errutil.Internal("Erro ao buscar campanha", err)
	}
	if c == nil {
		return nil, errutil.NotFound("Campanha não encontrada", nil)
	}

	structural := req.StartDate != nil || req.EndDate != nil ||
		req.PointsOnCompletion != nil || req.ManagerPointsPercentage != nil ||
		req.EligibleCNPJs != nil
	if c.Status != StatusDraft && structural {
		return nil, errutil.Conflict("Campanha ativa não pode ter metas ou pontuação alteradas", nil)
	}

	updates := map[string]any{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.BannerURL != nil {
		updates["banner_url"] = *req.BannerURL
	}
	if req.StartDate != nil {
		updates["start_date"] = *req.StartDate
	}
	if req.EndDate != nil {
		updates["end_date"] = *req.EndDate
	}
	if req.PointsOnCompletion != nil {
		updates["points_on_completion"] = *req.PointsOnCompletion
	}
	if req.ManagerPointsPercentage != nil {
		updates["manager_points_percentage"] = *req.ManagerPointsPercentage
	}
	if req.EligibleCNPJs != nil {
		updates["eligible_cnpjs"] = pq.StringArray(*req.EligibleCNPJs)
	}

	if len(updates) == 0 {
		return c, nil
	}

	if err := s.repo.Update(ctx, campaignID, updates); err != nil {
		zapLog.Error("failed to update campaign", zap.Error(err))
		return nil, errutil.Internal("Erro ao atualizar campanha", err)
	}

	s.invalidateCache(ctx, c)
	return s.GetCampaign(ctx, campaignID)
}

// ActivateCampaign moves a draft into ACTIVE so it starts accepting
// submissions inside its date window.
func (s *Service) ActivateCampaign(ctx context.Context, campaignID string) (*Campaign, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("campaign_id", campaignID),
	)

	c, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	switch c.Status {
	case StatusActive:
		return nil, errutil.Conflict("Campanha já está ativa", nil)
	case StatusExpired:
		return nil, errutil.Conflict("Campanha expirada não pode ser ativada", nil)
	}

	if len(c.Requirements) == 0 {
		return nil, errutil.BadRequest("Campanha precisa de pelo menos uma meta", nil)
	}
	if time.Now().After(c.EndDate) {
		return nil, errutil.BadRequest("Data final da campanha já passou", nil)
	}

	if err := s.repo.Update(ctx, campaignID, map[string]any{"status": StatusActive}); err != nil {
		zapLog.Error("failed to activate campaign", zap.Error(err))
		return nil, errutil.Internal("Erro ao ativar campanha", err)
	}

	s.invalidateCache(ctx, c)
	zapLog.Info("campaign activated", zap.String("code", c.Code))

	c.Status = StatusActive
	return c, nil
}

// CloneCampaign copies a campaign and its goals into a fresh draft, handy
// when the same incentive runs every quarter.
func (s *Service) CloneCampaign(ctx context.Context, campaignID, newTitle, createdBy string) (*Campaign, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("campaign_id", campaignID),
	)

	original, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	req := CreateCampaignRequest{
		Title:                   newTitle,
		Description:             original.Description,
		BannerURL:               original.BannerURL,
		StartDate:               original.StartDate,
		EndDate:                 original.EndDate,
		PointsOnCompletion:      original.PointsOnCompletion,
		ManagerPointsPercentage: original.ManagerPointsPercentage,
		EligibleCNPJs:           original.EligibleCNPJs,
	}
	if len(original.Metadata) > 0 {
		req.Metadata = json.RawMessage(original.Metadata)
	}
	for _, r := range original.Requirements {
		req.Requirements = append(req.Requirements, RequirementInput{
			Description:    r.Description,
			ProductType:    r.ProductType,
			TargetQuantity: r.TargetQuantity,
			Unit:           r.Unit,
		})
	}

	cloned, err := s.CreateCampaign(ctx, req, createdBy)
	if err != nil {
		return nil, err
	}

	zapLog.Info("campaign cloned", zap.String("cloned_id", cloned.ID))
	return cloned, nil
}

// AddRequirement appends a goal to a draft campaign.
func (s *Service) AddRequirement(ctx context.Context, campaignID string, in RequirementInput) (*GoalRequirement, error) {
	c, err := s.repo.FindOne(ctx, &Campaign{ID: campaignID})
	if err != nil {
		zap.L().Error("failed to get campaign", zap.Error(err))
		return nil, errutil.Internal("Erro ao buscar campanha", err)
	}
	if c == nil {
		return nil, errutil.NotFound("Campanha não encontrada", nil)
	}
	if c.Status != StatusDraft {
		return nil, errutil.Conflict("Metas só podem ser adicionadas em campanhas em rascunho", nil)
	}

	r := s.buildRequirement(campaignID, in)
	if err := s.reqRepo.Create(ctx, r); err != nil {
		zap.L().Error("failed to create goal requirement", zap.Error(err))
		return nil, errutil.Internal("Erro ao adicionar meta", err)
	}

	s.invalidateCache(ctx, c)
	return r, nil
}
