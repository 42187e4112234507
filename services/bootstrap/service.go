package bootstrap

import (
	"context"
	"fmt"

	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/repository"
	"eps-campanhas/pkg/security"
	"eps-campanhas/services/activity"
	"eps-campanhas/services/auth"
	"eps-campanhas/services/campaign"
	"eps-campanhas/services/earning"
	"eps-campanhas/services/notification"
	"eps-campanhas/services/premio"
	"eps-campanhas/services/rule"
	"eps-campanhas/services/submission"
	"eps-campanhas/services/user"
	"eps-campanhas/services/validation"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	config *config.Config
	users  repository.Repository[user.User]
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Config *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:     p.DB,
		node:   p.Node,
		config: p.Config,
		users:  repository.ProvideStore[user.User](p.DB),
	}
}

// Migrate syncs the schema for every domain model.
func (s *Service) Migrate() error {
	return s.db.AutoMigrate(
		&user.User{},
		&auth.RefreshToken{},
		&campaign.Campaign{},
		&campaign.GoalRequirement{},
		&submission.CampaignKit{},
		&submission.CampaignSubmission{},
		&earning.Earning{},
		&premio.Premio{},
		&premio.PremioRedemption{},
		&notification.Notification{},
		&activity.Activity{},
		&rule.Rule{},
		&validation.ValidationJob{},
	)
}

// SeedAdmin creates the default admin account from config when no user with
// that email exists yet.
func (s *Service) SeedAdmin(ctx context.Context) error {
	cfg := s.config.Bootstrap
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		zap.L().Warn("[bootstrap] admin credentials not configured, skipping default admin")
		return nil
	}

	exist, err := s.users.FindOne(ctx, &user.User{Email: cfg.AdminEmail})
	if err != nil {
		zap.L().Error("[bootstrap] error checking admin user", zap.Error(err))
		return fmt.Errorf("failed to check existing admin: %w", err)
	}
	if exist != nil {
		zap.L().Info("[bootstrap] default admin already exists", zap.String("email", cfg.AdminEmail))
		return nil
	}

	hash, err := security.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	name := cfg.AdminName
	if name == "" {
		name = "Administrador"
	}

	admin := &user.User{
		ID:       s.node.Generate().String(),
		Name:     name,
		Email:    cfg.AdminEmail,
		Password: hash,
		Role:     user.RoleAdmin,
		Status:   user.StatusActive,
	}

	if err := s.users.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create default admin: %w", err)
	}

	zap.L().Info("[bootstrap] default admin created", zap.String("email", admin.Email))
	return nil
}
