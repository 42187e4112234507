package bootstrap

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/security"
	"eps-campanhas/services/testutil"
	"eps-campanhas/services/user"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T, cfg *config.Config) (*Service, *gorm.DB) {
	t.Helper()

	gdb := testutil.NewTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParams{
		DB:     gdb,
		Node:   node,
		Config: cfg,
	})
	return svc, gdb
}

func TestMigrateAndSeedAdmin(t *testing.T) {
	cfg := &config.Config{}
	cfg.Bootstrap.AdminName = "Admin EPS"
	cfg.Bootstrap.AdminEmail = "admin@epscampanhas.com.br"
	cfg.Bootstrap.AdminPassword = "senha-bem-forte"

	svc, gdb := newTestService(t, cfg)
	ctx := context.Background()

	require.NoError(t, svc.Migrate())
	require.NoError(t, svc.SeedAdmin(ctx))

	var admin user.User
	require.NoError(t, gdb.Where("email = ?", cfg.Bootstrap.AdminEmail).First(&admin).Error)
	require.Equal(t, "Admin EPS", admin.Name)
	require.Equal(t, user.RoleAdmin, admin.Role)
	require.Equal(t, user.StatusActive, admin.Status)
	require.True(t, security.CheckPassword("senha-bem-forte", admin.Password))

	// rodar de novo nao duplica a conta
	require.NoError(t, svc.SeedAdmin(ctx))

	var count int64
	require.NoError(t, gdb.Model(&user.User{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestSeedAdminSkipsWithoutCredentials(t *testing.T) {
	svc, gdb := newTestService(t, &config.Config{})
	ctx := context.Background()

	require.NoError(t, svc.Migrate())
	require.NoError(t, svc.SeedAdmin(ctx))

	var count int64
	require.NoError(t, gdb.Model(&user.User{}).Count(&count).Error)
	require.EqualValues(t, 0, count)
}
