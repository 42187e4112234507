package auth

import (
	"context"
	"testing"
	"time"

	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/errutil"
	"eps-campanhas/pkg/security"
	"eps-campanhas/services/testutil"
	"eps-campanhas/services/user"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	gdb := testutil.NewTestDB(t, &RefreshToken{}, &user.User{})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Auth.Secret = "segredo-de-teste"

	return NewService(ServiceParams{DB: gdb, Node: node, Config: cfg}), gdb
}

func requireStatus(t *testing.T, err error, status errutil.CoreStatus) {
	t.Helper()

	require.Error(t, err)
	var be errutil.BaseError
	require.ErrorAs(t, err, &be)
	require.Equal(t, status, be.Status())
}

func seedLogin(t *testing.T, gdb *gorm.DB, id, email, password string, status user.UserStatus) *user.User {
	t.Helper()

	hash, err := security.HashPassword(password)
	require.NoError(t, err)

	u := &user.User{
		ID:       id,
		Name:     "João Vendedor",
		Email:    email,
		Password: hash,
		Role:     user.RoleVendedor,
		Status:   status,
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

func TestLogin(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	seedLogin(t, gdb, "v-1", "joao@otica.com.br", "senha-forte", user.StatusActive)

	pair, u, err := svc.Login(ctx, LoginRequest{Email: "joao@otica.com.br", Password: "senha-forte"})
	require.NoError(t, err)
	require.Equal(t, "v-1", u.ID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.True(t, pair.ExpiresAt.After(time.Now()))

	claims, err := security.ParseToken(pair.AccessToken, "segredo-de-teste")
	require.NoError(t, err)
	require.Equal(t, "v-1", claims.UserID)
	require.Equal(t, string(user.RoleVendedor), claims.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	seedLogin(t, gdb, "v-1", "joao@otica.com.br", "senha-forte", user.StatusActive)
	seedLogin(t, gdb, "v-2", "inativo@otica.com.br", "senha-forte", user.StatusInactive)

	_, _, err := svc.Login(ctx, LoginRequest{Email: "joao@otica.com.br", Password: "senha-errada"})
	requireStatus(t, err, errutil.StatusUnauthorized)

	_, _, err = svc.Login(ctx, LoginRequest{Email: "ninguem@otica.com.br", Password: "senha-forte"})
	requireStatus(t, err, errutil.StatusUnauthorized)

	// conta desativada nao entra mesmo com a senha certa
	_, _, err = svc.Login(ctx, LoginRequest{Email: "inativo@otica.com.br", Password: "senha-forte"})
	requireStatus(t, err, errutil.StatusUnauthorized)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	seedLogin(t, gdb, "v-1", "joao@otica.com.br", "senha-forte", user.StatusActive)

	pair, _, err := svc.Login(ctx, LoginRequest{Email: "joao@otica.com.br", Password: "senha-forte"})
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, RefreshRequest{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// token antigo foi revogado na rotacao
	_, err = svc.Refresh(ctx, RefreshRequest{RefreshToken: pair.RefreshToken})
	requireStatus(t, err, errutil.StatusUnauthorized)

	_, err = svc.Refresh(ctx, RefreshRequest{RefreshToken: rotated.RefreshToken})
	require.NoError(t, err)
}

func TestRefreshValidations(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	seedLogin(t, gdb, "v-1", "joao@otica.com.br", "senha-forte", user.StatusActive)

	pair, _, err := svc.Login(ctx, LoginRequest{Email: "joao@otica.com.br", Password: "senha-forte"})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, RefreshRequest{RefreshToken: "sem-separador"})
	requireStatus(t, err, errutil.StatusUnauthorized)

	_, err = svc.Refresh(ctx, RefreshRequest{RefreshToken: "999.segredo-qualquer"})
	requireStatus(t, err, errutil.StatusUnauthorized)

	var stored RefreshToken
	require.NoError(t, gdb.First(&stored, "user_id = ?", "v-1").Error)

	_, err = svc.Refresh(ctx, RefreshRequest{RefreshToken: stored.ID + ".segredo-errado"})
	requireStatus(t, err, errutil.StatusUnauthorized)

	require.NoError(t, gdb.Model(&RefreshToken{}).
		Where("id = ?", stored.ID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	_, err = svc.Refresh(ctx, RefreshRequest{RefreshToken: pair.RefreshToken})
	requireStatus(t, err, errutil.StatusUnauthorized)
}

func TestRefreshRejectsInactiveUser(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	seedLogin(t, gdb, "v-1", "joao@otica.com.br", "senha-forte", user.StatusActive)

	pair, _, err := svc.Login(ctx, LoginRequest{Email: "joao@otica.com.br", Password: "senha-forte"})
	require.NoError(t, err)

	require.NoError(t, gdb.Model(&user.User{}).
		Where("id = ?", "v-1").
		Update("status", user.StatusInactive).Error)

	_, err = svc.Refresh(ctx, RefreshRequest{RefreshToken: pair.RefreshToken})
	requireStatus(t, err, errutil.StatusUnauthorized)
}

func TestLogout(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	seedLogin(t, gdb, "v-1", "joao@otica.com.br", "senha-forte", user.StatusActive)

	first, _, err := svc.Login(ctx, LoginRequest{Email: "joao@otica.com.br", Password: "senha-forte"})
	require.NoError(t, err)
	second, _, err := svc.Login(ctx, LoginRequest{Email: "joao@otica.com.br", Password: "senha-forte"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, "v-1"))

	var live int64
	require.NoError(t, gdb.Model(&RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", "v-1").
		Count(&live).Error)
	require.EqualValues(t, 0, live)

	_, err = svc.Refresh(ctx, RefreshRequest{RefreshToken: first.RefreshToken})
	requireStatus(t, err, errutil.StatusUnauthorized)
	_, err = svc.Refresh(ctx, RefreshRequest{RefreshToken: second.RefreshToken})
	requireStatus(t, err, errutil.StatusUnauthorized)
}

func TestMe(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	seedLogin(t, gdb, "v-1", "joao@otica.com.br", "senha-forte", user.StatusActive)

	u, err := svc.Me(ctx, "v-1")
	require.NoError(t, err)
	require.Equal(t, "joao@otica.com.br", u.Email)

	_, err = svc.Me(ctx, "999")
	requireStatus(t, err, errutil.StatusNotFound)
}
