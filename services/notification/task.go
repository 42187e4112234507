package notification

import (
	"encoding/json"
	"time"

	"eps-campanhas/pkg/taskname"

	"github.com/hibiken/asynq"
)

type SubmissionEventPayload struct {
	SubmissionID string `json:"submission_id"`
	CampaignID   string `json:"campaign_id"`
	KitID        string `json:"kit_id"`
	SellerID     string `json:"seller_id"`
	ManagerID    string `json:"manager_id,omitempty"`
	OrderNumber  string `json:"order_number"`
	Reason       string `json:"reason,omitempty"`
	TraceID      string `json:"trace_id,omitempty"`
}

type KitCompletedPayload struct {
	KitID         string `json:"kit_id"`
	CampaignID    string `json:"campaign_id"`
	CampaignTitle string `json:"campaign_title"`
	SellerID      string `json:"seller_id"`
	ManagerID     string `json:"manager_id,omitempty"`
	SellerPoints  int64  `json:"seller_points"`
	ManagerPoints int64  `json:"manager_points"`
	TraceID       string `json:"trace_id,omitempty"`
}

type EarningPaidPayload struct {
	EarningID  string `json:"earning_id"`
	UserID     string `json:"user_id"`
	CampaignID string `json:"campaign_id"`
	Points     int64  `json:"points"`
	Reference  string `json:"reference,omitempty"`
	TraceID    string `json:"trace_id,omitempty"`
}

type PremioRedeemedPayload struct {
	RedemptionID string `json:"redemption_id"`
	PremioID     string `json:"premio_id"`
	PremioName   string `json:"premio_name"`
	UserID       string `json:"user_id"`
	Code         string `json:"code"`
	PointsSpent  int64  `json:"points_spent"`
	TraceID      string `json:"trace_id,omitempty"`
}

func NewSubmissionCreatedTasks(p SubmissionEventPayload) []*asynq.Task {
	payload, _ := json.Marshal(p)
	return []*asynq.Task{
		asynq.NewTask(taskname.SubmissionCreated, payload,
			asynq.MaxRetry(3),
			asynq.Timeout(30*time.Second),
			asynq.Queue("default")),
	}
}

func NewSubmissionValidatedTasks(p SubmissionEventPayload) []*asynq.Task {
	payload, _ := json.Marshal(p)
	return []*asynq.Task{
		asynq.NewTask(taskname.SubmissionValidated, payload,
			asynq.MaxRetry(3),
			asynq.Timeout(30*time.Second),
			asynq.Queue("default")),
	}
}

func NewSubmissionRejectedTasks(p SubmissionEventPayload) []*asynq.Task {
	payload, _ := json.Marshal(p)
	return []*asynq.Task{
		asynq.NewTask(taskname.SubmissionRejected, payload,
			asynq.MaxRetry(3),
			asynq.Timeout(30*time.Second),
			asynq.Queue("default")),
	}
}

// NewKitCompletedTasks fans out the completion notification and a ranking
// refresh, points changed for the seller and possibly the manager.
func NewKitCompletedTasks(p KitCompletedPayload) []*asynq.Task {
	payload, _ := json.Marshal(p)
	return []*asynq.Task{
		asynq.NewTask(taskname.KitCompleted, payload,
			asynq.MaxRetry(3),
			asynq.Timeout(30*time.Second),
			asynq.Queue("critical")),
		asynq.NewTask(taskname.RankingSync, nil,
			asynq.MaxRetry(1),
			asynq.Queue("low")),
	}
}

func NewEarningPaidTasks(p EarningPaidPayload) []*asynq.Task {
	payload, _ := json.Marshal(p)
	return []*asynq.Task{
		asynq.NewTask(taskname.EarningPaid, payload,
			asynq.MaxRetry(3),
			asynq.Timeout(30*time.Second),
			asynq.Queue("default")),
	}
}

func NewPremioRedeemedTasks(p PremioRedeemedPayload) []*asynq.Task {
	payload, _ := json.Marshal(p)
	return []*asynq.Task{
		asynq.NewTask(taskname.PremioRedeemed, payload,
			asynq.MaxRetry(3),
			asynq.Timeout(30*time.Second),
			asynq.Queue("default")),
		asynq.NewTask(taskname.RankingSync, nil,
			asynq.MaxRetry(1),
			asynq.Queue("low")),
	}
}
