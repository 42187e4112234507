package rule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eps-campanhas/pkg/errutil"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	ruleCacheTTL    = time.Minute
)

// Service owns bonus rule CRUD and evaluation.
type Service struct {
	repo      Repository
	evaluator *Evaluator
	cache     *RuleCache
	logger    *zap.Logger
	node      *snowflake.Node
}

// ServiceParams defines dependencies for Service construction.
type ServiceParams struct {
	fx.In

	Repository Repository
	Evaluator  *Evaluator
	Cache      *RuleCache
	Logger     *zap.Logger
	Node       *snowflake.Node
}

// NewService constructs a new Service instance.
func NewService(p ServiceParams) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if p.Repository == nil {
		panic("rule service requires repository dependency")
	}
	if p.Evaluator == nil {
		p.Evaluator = NewEvaluator()
	}
	if p.Cache == nil {
		p.Cache = NewRuleCache(ruleCacheTTL)
	}
	return &Service{
		repo:      p.Repository,
		evaluator: p.Evaluator,
		cache:     p.Cache,
		logger:    logger,
		node:      p.Node,
	}
}

type CreateRuleRequest struct {
	CampaignID  string       `json:"campaign_id"`
	Name        string       `json:"name" binding:"required"`
	Description string       `json:"description"`
	Trigger     string       `json:"trigger" binding:"required"`
	Expression  string       `json:"expression" binding:"required"`
	Actions     []RuleAction `json:"actions" binding:"required,min=1,dive"`
	IsActive    bool         `json:"is_active"`
	Priority    int32        `json:"priority"`
}

type ListRulesRequest struct {
	Cursor          string
	Limit           int
	IncludeInactive bool
	Triggers        []string
}

type ListPage struct {
	NextCursor string `json:"next_cursor"`
	HasMore    bool   `json:"has_more"`
	TotalCount int32  `json:"total_count"`
}

func (s *Service) validateRule(req CreateRuleRequest) (RuleTrigger, error) {
	trigger := RuleTrigger(strings.ToUpper(strings.TrimSpace(req.Trigger)))
	if !trigger.Valid() {
		return "", errutil.BadRequest(fmt.Sprintf("Gatilho inválido: %s", req.Trigger), nil)
	}

	for _, action := range req.Actions {
		switch action.Type {
		case ActionTypeBonusPoints:
			if action.Points <= 0 {
				return "", errutil.BadRequest("Ação de bônus precisa de pontos maiores que zero", nil)
			}
		case ActionTypeNotify:
			if strings.TrimSpace(action.Title) == "" {
				return "", errutil.BadRequest("Ação de notificação precisa de título", nil)
			}
		default:
			return "", errutil.BadRequest(fmt.Sprintf("Tipo de ação inválido: %s", action.Type), nil)
		}
	}

	// rejeita CEL quebrado na escrita, nao na avaliacao
	env, err := newRuleEnv()
	if err != nil {
		return "", errutil.Internal("Erro ao validar expressão", err)
	}
	if _, err := compileRule(env, Rule{ID: "candidate", Expression: req.Expression}); err != nil {
		return "", errutil.BadRequest("Expressão inválida", err)
	}

	return trigger, nil
}

// CreateRule stores a new bonus rule.
func (s *Service) CreateRule(ctx context.Context, req CreateRuleRequest) (*Rule, error) {
	trigger, err := s.validateRule(req)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rule := &Rule{
		ID:          s.nextRuleID(),
		CampaignID:  req.CampaignID,
		Name:        req.Name,
		Description: req.Description,
		Trigger:     trigger,
		Expression:  req.Expression,
		IsActive:    req.IsActive,
		Priority:    req.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := rule.SetActions(req.Actions); err != nil {
		s.logger.Error("failed to encode actions", zap.Error(err))
		return nil, errutil.BadRequest("Ações inválidas", err)
	}

	if err := s.repo.Create(ctx, rule); err != nil {
		s.logger.Error("failed to create rule", zap.Error(err))
		return nil, errutil.Internal("Erro ao criar regra", err)
	}

	s.cache.Invalidate(RuleSetKey{Trigger: trigger})
	return rule, nil
}

// GetRule loads a rule by id.
func (s *Service) GetRule(ctx context.Context, ruleID string) (*Rule, error) {
	rule, err := s.repo.GetByID(ctx, ruleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound("Regra não encontrada", nil)
	}
	if err != nil {
		s.logger.Error("failed to get rule", zap.String("rule_id", ruleID), zap.Error(err))
		return nil, errutil.Internal("Erro ao buscar regra", err)
	}
	return rule, nil
}

// ListRules pages rules ordered by priority.
func (s *Service) ListRules(ctx context.Context, req ListRulesRequest) ([]Rule, *ListPage, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	var afterPriority *int32
	afterRuleID := ""
	if req.Cursor != "" {
		priority, ruleID, decodeErr := decodeCursor(req.Cursor)
		if decodeErr != nil {
			return nil, nil, errutil.BadRequest("Cursor inválido", decodeErr)
		}
		afterPriority = &priority
		afterRuleID = ruleID
	}

	triggers := make([]RuleTrigger, 0, len(req.Triggers))
	for _, raw := range req.Triggers {
		triggers = append(triggers, RuleTrigger(strings.ToUpper(strings.TrimSpace(raw))))
	}

	params := ListParams{
		AfterPriority:   afterPriority,
		AfterRuleID:     afterRuleID,
		Limit:           limit + 1,
		IncludeInactive: req.IncludeInactive,
		Triggers:        triggers,
	}

	rules, err := s.repo.List(ctx, params)
	if err != nil {
		s.logger.Error("failed to list rules", zap.Error(err))
		return nil, nil, errutil.Internal("Erro ao listar regras", err)
	}

	hasMore := len(rules) > limit
	if hasMore {
		rules = rules[:limit]
	}

	var nextCursor string
	if hasMore && len(rules) > 0 {
		last := rules[len(rules)-1]
		nextCursor = encodeCursor(last.Priority, last.ID)
	}

	page := &ListPage{
		NextCursor: nextCursor,
		HasMore:    hasMore,
		TotalCount: int32(len(rules)),
	}

	return rules, page, nil
}

// UpdateRule replaces every editable field of a rule.
func (s *Service) UpdateRule(ctx context.Context, ruleID string, req CreateRuleRequest) (*Rule, error) {
	trigger, err := s.validateRule(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, ruleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound("Regra não encontrada", nil)
	}
	if err != nil {
		s.logger.Error("failed to fetch rule", zap.String("rule_id", ruleID), zap.Error(err))
		return nil, errutil.Internal("Erro ao atualizar regra", err)
	}

	oldTrigger := existing.Trigger

	existing.CampaignID = req.CampaignID
	existing.Name = req.Name
	existing.Description = req.Description
	existing.IsActive = req.IsActive
	existing.Priority = req.Priority
	existing.Trigger = trigger
	existing.Expression = req.Expression
	existing.UpdatedAt = time.Now().UTC()
	if err := existing.SetActions(req.Actions); err != nil {
		s.logger.Error("failed to encode actions", zap.Error(err))
		return nil, errutil.BadRequest("Ações inválidas", err)
	}

	if err := s.repo.Update(ctx, existing); errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.NotFound("Regra não encontrada", nil)
	} else if err != nil {
		s.logger.Error("failed to update rule", zap.String("rule_id", existing.ID), zap.Error(err))
		return nil, errutil.Internal("Erro ao atualizar regra", err)
	}

	s.cache.Invalidate(RuleSetKey{Trigger: oldTrigger})
	s.cache.Invalidate(RuleSetKey{Trigger: trigger})
	return existing, nil
}

// DeleteRule removes a rule.
func (s *Service) DeleteRule(ctx context.Context, ruleID string) error {
	existing, err := s.repo.GetByID(ctx, ruleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errutil.NotFound("Regra não encontrada", nil)
	}
	if err != nil {
		s.logger.Error("failed to fetch rule", zap.String("rule_id", ruleID), zap.Error(err))
		return errutil.Internal("Erro ao remover regra", err)
	}

	if err := s.repo.Delete(ctx, ruleID); errors.Is(err, gorm.ErrRecordNotFound) {
		return errutil.NotFound("Regra não encontrada", nil)
	} else if err != nil {
		s.logger.Error("failed to delete rule", zap.String("rule_id", ruleID), zap.Error(err))
		return errutil.Internal("Erro ao remover regra", err)
	}

	s.cache.Invalidate(RuleSetKey{Trigger: existing.Trigger})
	return nil
}

// EvaluationResult aggregates everything matched rules want done.
type EvaluationResult struct {
	MatchedRuleIDs []string     `json:"matched_rule_ids"`
	BonusPoints    int64        `json:"bonus_points"`
	Notes          []RuleAction `json:"notes,omitempty"`
}

// EvaluateTrigger runs every active rule of the trigger against the event
// attributes. Rules that fail to evaluate are skipped, never fatal.
func (s *Service) EvaluateTrigger(ctx context.Context, trigger RuleTrigger, attrs map[string]any) (*EvaluationResult, error) {
	if !trigger.Valid() {
		return nil, errutil.BadRequest(fmt.Sprintf("Gatilho inválido: %s", trigger), nil)
	}

	set, err := s.cache.GetOrLoad(RuleSetKey{Trigger: trigger}, func() (*CompiledRuleSet, error) {
		return s.loadCompiledSet(ctx, trigger)
	})
	if err != nil {
		s.logger.Error("failed to load rules for evaluation", zap.Error(err))
		return nil, errutil.Internal("Erro ao avaliar regras", err)
	}

	campaignID, _ := attrs["campaign_id"].(string)

	result := &EvaluationResult{}
	for _, compiled := range set.Rules {
		if compiled.Rule.CampaignID != "" && compiled.Rule.CampaignID != campaignID {
			continue
		}

		matched, evalErr := compiled.evaluate(attrs)
		if evalErr != nil {
			s.logger.Warn("rule evaluation failed", zap.String("rule_id", compiled.ID), zap.Error(evalErr))
			continue
		}
		if !matched {
			continue
		}

		actions, err := compiled.Rule.ActionsList()
		if err != nil {
			s.logger.Error("failed to decode actions", zap.String("rule_id", compiled.ID), zap.Error(err))
			continue
		}

		result.MatchedRuleIDs = append(result.MatchedRuleIDs, compiled.ID)
		for _, action := range actions {
			switch action.Type {
			case ActionTypeBonusPoints:
				result.BonusPoints += action.Points
			case ActionTypeNotify:
				result.Notes = append(result.Notes, action)
			}
		}
	}

	return result, nil
}

func (s *Service) loadCompiledSet(ctx context.Context, trigger RuleTrigger) (*CompiledRuleSet, error) {
	rules, err := s.repo.ListActiveByTrigger(ctx, trigger)
	if err != nil {
		return nil, err
	}

	env, err := newRuleEnv()
	if err != nil {
		return nil, err
	}

	compiled := make([]*CompiledRule, 0, len(rules))
	for _, r := range rules {
		cr, err := compileRule(env, r)
		if err != nil {
			s.logger.Warn("skipping rule that no longer compiles", zap.String("rule_id", r.ID), zap.Error(err))
			continue
		}
		compiled = append(compiled, cr)
	}

	return &CompiledRuleSet{Rules: compiled, UpdatedAt: time.Now()}, nil
}

// EvaluateExpression runs an ad-hoc expression, used by admins to test a
// rule before saving it.
func (s *Service) EvaluateExpression(ctx context.Context, expression string, attrs map[string]any) (bool, error) {
	matched, err := s.evaluator.Evaluate(expression, attrs)
	if err != nil {
		return false, errutil.BadRequest("Expressão inválida", err)
	}
	return matched, nil
}

func (s *Service) nextRuleID() string {
	if s.node == nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	id := s.node.Generate()
	return id.String()
}
