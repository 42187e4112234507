package activity

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ActionSubmissionCreated   = "submission.created"
	ActionSubmissionValidated = "submission.validated"
	ActionSubmissionRejected  = "submission.rejected"
	ActionKitCompleted        = "kit.completed"
	ActionEarningCreated      = "earning.created"
	ActionEarningPaid         = "earning.paid"
	ActionPremioRedeemed      = "premio.redeemed"
	ActionRedemptionCancelled = "redemption.cancelled"
	ActionRedemptionDelivered = "redemption.delivered"
	ActionCampaignExpired     = "campaign.expired"
)

// Activity is an append-only audit record of domain events. UserID is who
// the event is about, ActorID who triggered it (a manager validating a
// seller's sale leaves both).
type Activity struct {
	ID        string         `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	UserID    string         `gorm:"column:user_id;index" json:"user_id"`
	ActorID   string         `gorm:"column:actor_id;type:varchar(32)" json:"actor_id,omitempty"`
	Action    string         `gorm:"column:action;type:varchar(64);not null;index" json:"action"`
	Entity    string         `gorm:"column:entity;type:varchar(32)" json:"entity"`
	EntityID  string         `gorm:"column:entity_id;type:varchar(32);index" json:"entity_id"`
	Message   string         `gorm:"column:message;type:text" json:"message"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Activity) TableName() string {
	return "activities"
}
