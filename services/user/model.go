package user

import (
	"time"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleGerente  Role = "GERENTE"
	RoleVendedor Role = "VENDEDOR"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleGerente, RoleVendedor:
		return true
	default:
		return false
	}
}

type UserStatus string

const (
	StatusActive   UserStatus = "ACTIVE"
	StatusInactive UserStatus = "INACTIVE"
)

// User represents a platform account. VENDEDOR accounts report to a GERENTE
// through ManagerID and belong to an optic identified by CNPJ.
type User struct {
	ID        string     `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	Name      string     `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Email     string     `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string     `gorm:"column:password;not null" json:"-"`
	Role      Role       `gorm:"column:role;type:varchar(20);not null;default:'VENDEDOR'" json:"role"`
	Points    int64      `gorm:"column:points;not null;default:0" json:"points"`
	ManagerID *string    `gorm:"column:manager_id;type:varchar(32);index" json:"manager_id,omitempty"`
	OpticCNPJ string     `gorm:"column:optic_cnpj;type:varchar(18);index" json:"optic_cnpj,omitempty"`
	Status    UserStatus `gorm:"column:status;type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// RankingEntry is a single row of the points leaderboard.
type RankingEntry struct {
	Position  int    `json:"position"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	OpticCNPJ string `json:"optic_cnpj,omitempty"`
	Points    int64  `json:"points"`
}
