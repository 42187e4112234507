package auth

import "time"

// RefreshToken stores only the argon2id hash of the secret half. The raw
// token handed to the client is "<id>.<secret>", so the id is the lookup
// handle and the secret never touches the database.
type RefreshToken struct {
	ID        string     `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	UserID    string     `gorm:"column:user_id;index;not null" json:"user_id"`
	TokenHash string     `gorm:"column:token_hash;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null" json:"expires_at"`
	RevokedAt *time.Time `gorm:"column:revoked_at" json:"revoked_at,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (t *RefreshToken) Usable(now time.Time) bool {
	if t.RevokedAt != nil {
		return false
	}
	return now.Before(t.ExpiresAt)
}
