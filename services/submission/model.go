package submission

import "time"

type KitStatus string

const (
	KitInProgress KitStatus = "IN_PROGRESS"
	KitCompleted  KitStatus = "COMPLETED"
	KitExpired    KitStatus = "EXPIRED"
)

// CampaignKit is the per-user progress card of a campaign. One kit per
// campaign and user for the campaign's lifetime, enforced by the unique
// index.
type CampaignKit struct {
	ID          string     `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	CampaignID  string     `gorm:"column:campaign_id;uniqueIndex:idx_kit_campaign_user;not null" json:"campaign_id"`
	UserID      string     `gorm:"column:user_id;uniqueIndex:idx_kit_campaign_user;index;not null" json:"user_id"`
	Status      KitStatus  `gorm:"column:status;type:varchar(15);not null;default:'IN_PROGRESS'" json:"status"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (CampaignKit) TableName() string {
	return "campaign_kits"
}

type SubmissionStatus string

const (
	StatusPending   SubmissionStatus = "PENDING"
	StatusValidated SubmissionStatus = "VALIDATED"
	StatusRejected  SubmissionStatus = "REJECTED"
)

// CampaignSubmission is a claimed sale awaiting manager validation.
type CampaignSubmission struct {
	ID            string           `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	KitID         string           `gorm:"column:kit_id;index;not null" json:"kit_id"`
	CampaignID    string           `gorm:"column:campaign_id;index;not null" json:"campaign_id"`
	RequirementID string           `gorm:"column:requirement_id;index;not null" json:"requirement_id"`
	UserID        string           `gorm:"column:user_id;index;not null" json:"user_id"`
	OrderNumber   string           `gorm:"column:order_number;uniqueIndex;not null" json:"order_number"`
	Quantity      int64            `gorm:"column:quantity;not null" json:"quantity"`
	SaleDate      time.Time        `gorm:"column:sale_date;not null" json:"sale_date"`
	Channel       string           `gorm:"column:channel;type:varchar(10)" json:"channel"`
	ReceiptURL    string           `gorm:"column:receipt_url;type:text" json:"receipt_url,omitempty"`
	Status        SubmissionStatus `gorm:"column:status;type:varchar(10);not null;default:'PENDING';index" json:"status"`
	RejectReason  string           `gorm:"column:reject_reason;type:text" json:"reject_reason,omitempty"`
	ValidatedBy   *string          `gorm:"column:validated_by;type:varchar(32)" json:"validated_by,omitempty"`
	ValidatedAt   *time.Time       `gorm:"column:validated_at" json:"validated_at,omitempty"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (CampaignSubmission) TableName() string {
	return "campaign_submissions"
}
