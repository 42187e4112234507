package rule

import (
	"context"

	"gorm.io/gorm"
)

// ListParams describes filters applied when listing rules from the repository.
type ListParams struct {
	AfterPriority   *int32
	AfterRuleID     string
	Limit           int
	IncludeInactive bool
	Triggers        []RuleTrigger
}

// Repository describes database operations available for rules.
type Repository interface {
	Create(ctx context.Context, rule *Rule) error
	GetByID(ctx context.Context, ruleID string) (*Rule, error)
	List(ctx context.Context, params ListParams) ([]Rule, error)
	Update(ctx context.Context, rule *Rule) error
	Delete(ctx context.Context, ruleID string) error
	ListActiveByTrigger(ctx context.Context, trigger RuleTrigger) ([]Rule, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns a gorm backed Repository implementation.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, rule *Rule) error {
	if r == nil || r.db == nil {
		return gorm.ErrInvalidDB
	}
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *gormRepository) GetByID(ctx context.Context, ruleID string) (*Rule, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var rule Rule
	err := r.db.WithContext(ctx).
		Where("id = ?", ruleID).
		First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *gormRepository) List(ctx context.Context, params ListParams) ([]Rule, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	query := r.db.WithContext(ctx).Model(&Rule{})

	if len(params.Triggers) > 0 {
		query = query.Where("trigger IN ?", params.Triggers)
	}
	if !params.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if params.AfterPriority != nil && params.AfterRuleID != "" {
		query = query.Where("(priority < ?) OR (priority = ? AND id > ?)", *params.AfterPriority, *params.AfterPriority, params.AfterRuleID)
	}

	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}

	query = query.Order("priority DESC").Order("id ASC")

	var rules []Rule
	if err := query.Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *gormRepository) Update(ctx context.Context, rule *Rule) error {
	if r == nil || r.db == nil {
		return gorm.ErrInvalidDB
	}

	res := r.db.WithContext(ctx).
		Model(&Rule{}).
		Where("id = ?", rule.ID).
		Updates(map[string]any{
			"campaign_id": rule.CampaignID,
			"name":        rule.Name,
			"description": rule.Description,
			"is_active":   rule.IsActive,
			"priority":    rule.Priority,
			"trigger":     rule.Trigger,
			"expression":  rule.Expression,
			"actions":     rule.Actions,
			"updated_at":  rule.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, ruleID string) error {
	if r == nil || r.db == nil {
		return gorm.ErrInvalidDB
	}

	res := r.db.WithContext(ctx).
		Where("id = ?", ruleID).
		Delete(&Rule{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gormRepository) ListActiveByTrigger(ctx context.Context, trigger RuleTrigger) ([]Rule, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	query := r.db.WithContext(ctx).Model(&Rule{}).
		Where("trigger = ? AND is_active = ?", trigger, true).
		Order("priority DESC").Order("id ASC")

	var rules []Rule
	if err := query.Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}
