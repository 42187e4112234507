package premio

import "time"

type PremioStatus string

const (
	StatusActive   PremioStatus = "ACTIVE"
	StatusInactive PremioStatus = "INACTIVE"
)

// Premio is a redeemable prize from the points catalog.
type Premio struct {
	ID             string       `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	Name           string       `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Description    string       `gorm:"column:description;type:text" json:"description"`
	ImageURL       string       `gorm:"column:image_url;type:text" json:"image_url,omitempty"`
	PointsCost     int64        `gorm:"column:points_cost;not null" json:"points_cost"`
	MaxStock       int64        `gorm:"column:max_stock;not null;default:0" json:"max_stock"`
	RemainingStock int64        `gorm:"column:remaining_stock;not null;default:0" json:"remaining_stock"`
	Status         PremioStatus `gorm:"column:status;type:varchar(10);not null;default:'ACTIVE'" json:"status"`
	CreatedAt      time.Time    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Premio) TableName() string {
	return "premios"
}

type RedemptionStatus string

const (
	RedemptionRequested RedemptionStatus = "REQUESTED"
	RedemptionDelivered RedemptionStatus = "DELIVERED"
	RedemptionCancelled RedemptionStatus = "CANCELLED"
)

// PremioRedemption records one redeem with the code the user presents at
// pickup.
type PremioRedemption struct {
	ID          string           `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	PremioID    string           `gorm:"column:premio_id;index;not null" json:"premio_id"`
	UserID      string           `gorm:"column:user_id;index;not null" json:"user_id"`
	Code        string           `gorm:"column:code;uniqueIndex;not null" json:"code"`
	PointsSpent int64            `gorm:"column:points_spent;not null" json:"points_spent"`
	Status      RedemptionStatus `gorm:"column:status;type:varchar(10);not null;default:'REQUESTED'" json:"status"`
	DeliveredAt *time.Time       `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	CancelledAt *time.Time       `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (PremioRedemption) TableName() string {
	return "premio_redemptions"
}
