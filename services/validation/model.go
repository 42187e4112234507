package validation

import (
	"time"

	"gorm.io/datatypes"
)

// JobCampaignExpiry names the daily sweep that expires overdue campaigns.
const JobCampaignExpiry = "campaign_expiry"

const (
	JobPending = "pending"
	JobRunning = "running"
	JobSuccess = "success"
	JobFailed  = "failed"
)

// ValidationJob is an execution record of a scheduled run.
type ValidationJob struct {
	ID          string         `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	Name        string         `gorm:"column:name;index;type:varchar(100);not null" json:"name"`
	Status      string         `gorm:"column:status;type:varchar(20);default:'pending'" json:"status"`
	ErrorMsg    string         `gorm:"column:error_msg;type:text" json:"error_msg,omitempty"`
	StartedAt   *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	Metadata    datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ValidationJob) TableName() string {
	return "validation_jobs"
}
