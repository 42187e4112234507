package taskname

const (
	// Submission tasks
	SubmissionCreated   = "submission:created"
	SubmissionValidated = "submission:validated"
	SubmissionRejected  = "submission:rejected"

	// Kit tasks
	KitCompleted = "kit:completed"

	// Earning tasks
	EarningPaid = "earning:paid"

	// Campaign tasks
	CampaignExpiryRun = "campaign:expiry:run"

	// Premio tasks
	PremioRedeemed = "premio:redeemed"

	// Ranking tasks
	RankingSync = "ranking:sync"
)
