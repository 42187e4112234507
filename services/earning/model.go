package earning

import (
	"time"

	"gorm.io/datatypes"
)

type EarningKind string

const (
	KindSeller  EarningKind = "SELLER"
	KindManager EarningKind = "MANAGER"
	KindBonus   EarningKind = "BONUS"
)

type EarningStatus string

const (
	StatusPendente EarningStatus = "PENDENTE"
	StatusPago     EarningStatus = "PAGO"
)

// Earning is a point credit granted to a seller or manager. Points land on
// the user balance immediately, the PENDENTE -> PAGO transition tracks the
// back-office payout.
type Earning struct {
	ID         string         `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	UserID     string         `gorm:"column:user_id;index;not null" json:"user_id"`
	KitID      string         `gorm:"column:kit_id;index" json:"kit_id,omitempty"`
	CampaignID string         `gorm:"column:campaign_id;index" json:"campaign_id,omitempty"`
	Kind       EarningKind    `gorm:"column:kind;type:varchar(10);not null" json:"kind"`
	Points     int64          `gorm:"column:points;not null" json:"points"`
	Status     EarningStatus  `gorm:"column:status;type:varchar(10);not null;default:'PENDENTE'" json:"status"`
	Reference  string         `gorm:"column:reference" json:"reference,omitempty"`
	PaidAt     *time.Time     `gorm:"column:paid_at" json:"paid_at,omitempty"`
	Metadata   datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Earning) TableName() string {
	return "earnings"
}
