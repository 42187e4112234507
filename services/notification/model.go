package notification

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	TypeSubmissionCreated   NotificationType = "SUBMISSION_CREATED"
	TypeSubmissionValidated NotificationType = "SUBMISSION_VALIDATED"
	TypeSubmissionRejected  NotificationType = "SUBMISSION_REJECTED"
	TypeKitCompleted        NotificationType = "KIT_COMPLETED"
	TypeEarningPaid         NotificationType = "EARNING_PAID"
	TypePremioRedeemed      NotificationType = "PREMIO_REDEEMED"
	TypeCampaignExpired     NotificationType = "CAMPAIGN_EXPIRED"
	TypeRuleBonus           NotificationType = "RULE_BONUS"
)

// Notification is an in-app message addressed to a single user.
type Notification struct {
	ID        string           `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	UserID    string           `gorm:"column:user_id;index;not null" json:"user_id"`
	Type      NotificationType `gorm:"column:type;type:varchar(40);not null" json:"type"`
	Title     string           `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Message   string           `gorm:"column:message;type:text" json:"message"`
	Read      bool             `gorm:"column:read;not null;default:false" json:"read"`
	ReadAt    *time.Time       `gorm:"column:read_at" json:"read_at,omitempty"`
	Metadata  datatypes.JSON   `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
