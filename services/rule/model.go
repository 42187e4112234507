package rule

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type RuleTrigger string

const (
	TriggerSubmissionValidated RuleTrigger = "SUBMISSION_VALIDATED"
	TriggerKitCompleted        RuleTrigger = "KIT_COMPLETED"
)

func (t RuleTrigger) Valid() bool {
	switch t {
	case TriggerSubmissionValidated, TriggerKitCompleted:
		return true
	}
	return false
}

const (
	ActionTypeBonusPoints = "BONUS_POINTS"
	ActionTypeNotify      = "NOTIFY"
)

// RuleAction is one consequence of a matched rule. BONUS_POINTS credits
// extra points to the seller, NOTIFY pushes an extra notification.
type RuleAction struct {
	Type    string `json:"type"`
	Points  int64  `json:"points,omitempty"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
}

// Rule represents a bonus rule stored in the database. The expression is
// CEL and runs against the attributes of the triggering event. An empty
// CampaignID means the rule applies to every campaign.
type Rule struct {
	ID          string         `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	CampaignID  string         `gorm:"column:campaign_id;index" json:"campaign_id,omitempty"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Description string         `gorm:"column:description" json:"description"`
	Trigger     RuleTrigger    `gorm:"column:trigger;index;not null" json:"trigger"`
	Expression  string         `gorm:"column:expression;not null" json:"expression"`
	Actions     datatypes.JSON `gorm:"column:actions" json:"actions"`
	IsActive    bool           `gorm:"column:is_active;index;default:true" json:"is_active"`
	Priority    int32          `gorm:"column:priority;default:0" json:"priority"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the Rule model.
func (Rule) TableName() string { return "rules" }

func (r *Rule) SetActions(actions []RuleAction) error {
	b, err := json.Marshal(actions)
	if err != nil {
		return err
	}
	r.Actions = datatypes.JSON(b)
	return nil
}

func (r *Rule) ActionsList() ([]RuleAction, error) {
	if len(r.Actions) == 0 {
		return nil, nil
	}
	var actions []RuleAction
	if err := json.Unmarshal(r.Actions, &actions); err != nil {
		return nil, err
	}
	return actions, nil
}
