package campaign

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type CampaignStatus string

const (
	StatusDraft   CampaignStatus = "DRAFT"
	StatusActive  CampaignStatus = "ACTIVE"
	StatusExpired CampaignStatus = "EXPIRED"
)

// Campaign is a sales incentive with a date window and a set of goal
// requirements. Sellers complete a kit by having one validated submission
// volume per requirement.
type Campaign struct {
	ID                      string         `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	Code                    string         `gorm:"column:code;uniqueIndex;not null" json:"code"`
	Slug                    string         `gorm:"column:slug;uniqueIndex;not null" json:"slug"`
	Title                   string         `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Description             string         `gorm:"column:description;type:text" json:"description"`
	BannerURL               string         `gorm:"column:banner_url;type:text" json:"banner_url,omitempty"`
	StartDate               time.Time      `gorm:"column:start_date;not null" json:"start_date"`
	EndDate                 time.Time      `gorm:"column:end_date;not null" json:"end_date"`
	PointsOnCompletion      int64          `gorm:"column:points_on_completion;not null;default:0" json:"points_on_completion"`
	ManagerPointsPercentage int            `gorm:"column:manager_points_percentage;not null;default:0" json:"manager_points_percentage"`
	EligibleCNPJs           pq.StringArray `gorm:"column:eligible_cnpjs;type:text[]" json:"eligible_cnpjs,omitempty"`
	Status                  CampaignStatus `gorm:"column:status;type:varchar(20);not null;default:'DRAFT'" json:"status"`
	Metadata                datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedBy               string         `gorm:"column:created_by;type:varchar(32)" json:"created_by"`
	CreatedAt               time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Requirements []GoalRequirement `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"requirements,omitempty"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

// IsActive checks if the campaign currently accepts submissions.
func (c *Campaign) IsActive(now time.Time) bool {
	if c.Status != StatusActive {
		return false
	}
	if now.Before(c.StartDate) {
		return false
	}
	if now.After(c.EndDate) {
		return false
	}
	return true
}

// IsEligible reports whether an optic may join. An empty CNPJ list means the
// campaign is open to everyone.
func (c *Campaign) IsEligible(cnpj string) bool {
	if len(c.EligibleCNPJs) == 0 {
		return true
	}
	for _, eligible := range c.EligibleCNPJs {
		if eligible == cnpj {
			return true
		}
	}
	return false
}

// GoalRequirement is one target inside a campaign, e.g. "10 PARES of
// multifocal lenses".
type GoalRequirement struct {
	ID             string    `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	CampaignID     string    `gorm:"column:campaign_id;index;not null" json:"campaign_id"`
	Description    string    `gorm:"column:description;type:varchar(255);not null" json:"description"`
	ProductType    string    `gorm:"column:product_type;type:varchar(100)" json:"product_type,omitempty"`
	TargetQuantity int64     `gorm:"column:target_quantity;not null" json:"target_quantity"`
	Unit           string    `gorm:"column:unit;type:varchar(20);not null;default:'UNIDADES'" json:"unit"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (GoalRequirement) TableName() string {
	return "goal_requirements"
}
