package user

import (
	"context"
	"fmt"
	"testing"

	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/errutil"
	"eps-campanhas/pkg/security"
	"eps-campanhas/services/testutil"

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

	gdb := testutil.NewTestDB(t, &User{})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParams{
		DB:     gdb,
		Node:   node,
		Config: &config.Config{},
	})

	return svc, gdb
}

func requireStatus(t *testing.T, err error, status errutil.CoreStatus) {
	t.Helper()

	require.Error(t, err)
	var be errutil.BaseError
	require.ErrorAs(t, err, &be)
	require.Equal(t, status, be.Status())
}

func createManager(t *testing.T, svc *Service, email string) *User {
	t.Helper()

	manager, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Name:     "Maria Gerente",
		Email:    email,
		Password: "senha-segura",
		Role:     RoleGerente,
	})
	require.NoError(t, err)
	return manager
}

func TestCreateUserHierarchy(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	manager := createManager(t, svc, "maria@otica.com.br")
	require.Equal(t, RoleGerente, manager.Role)
	require.Equal(t, StatusActive, manager.Status)
	require.Nil(t, manager.ManagerID)
	require.NotEqual(t, "senha-segura", manager.Password)
	require.True(t, security.CheckPassword("senha-segura", manager.Password))

	seller, err := svc.CreateUser(ctx, CreateUserRequest{
		Name:      "João Vendedor",
		Email:     "joao@otica.com.br",
		Password:  "senha-segura",
		Role:      RoleVendedor,
		ManagerID: manager.ID,
		OpticCNPJ: "11.111.111/0001-11",
	})
	require.NoError(t, err)
	require.NotNil(t, seller.ManagerID)
	require.Equal(t, manager.ID, *seller.ManagerID)
	require.Equal(t, "11.111.111/0001-11", seller.OpticCNPJ)
}

func TestCreateUserValidations(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	manager := createManager(t, svc, "maria@otica.com.br")

	_, err := svc.CreateUser(ctx, CreateUserRequest{
		Name:     "Perfil Errado",
		Email:    "perfil@otica.com.br",
		Password: "senha-segura",
		Role:     Role("SUPERVISOR"),
	})
	requireStatus(t, err, errutil.StatusBadRequest)

	_, err = svc.CreateUser(ctx, CreateUserRequest{
		Name:     "Duplicada",
		Email:    "maria@otica.com.br",
		Password: "senha-segura",
		Role:     RoleGerente,
	})
	requireStatus(t, err, errutil.StatusConflict)

	_, err = svc.CreateUser(ctx, CreateUserRequest{
		Name:     "Sem Gerente",
		Email:    "sem.gerente@otica.com.br",
		Password: "senha-segura",
		Role:     RoleVendedor,
	})
	requireStatus(t, err, errutil.StatusBadRequest)

	_, err = svc.CreateUser(ctx, CreateUserRequest{
		Name:      "Gerente Fantasma",
		Email:     "fantasma@otica.com.br",
		Password:  "senha-segura",
		Role:      RoleVendedor,
		ManagerID: "999",
	})
	requireStatus(t, err, errutil.StatusBadRequest)

	seller, err := svc.CreateUser(ctx, CreateUserRequest{
		Name:      "João Vendedor",
		Email:     "joao@otica.com.br",
		Password:  "senha-segura",
		Role:      RoleVendedor,
		ManagerID: manager.ID,
	})
	require.NoError(t, err)

	// vendedor nao pode ser gerente de outro vendedor
	_, err = svc.CreateUser(ctx, CreateUserRequest{
		Name:      "Subordinado Errado",
		Email:     "subordinado@otica.com.br",
		Password:  "senha-segura",
		Role:      RoleVendedor,
		ManagerID: seller.ID,
	})
	requireStatus(t, err, errutil.StatusBadRequest)
}

func TestGetUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	manager := createManager(t, svc, "maria@otica.com.br")

	found, err := svc.GetUser(ctx, manager.ID)
	require.NoError(t, err)
	require.Equal(t, manager.Email, found.Email)

	_, err = svc.GetUser(ctx, "999")
	requireStatus(t, err, errutil.StatusNotFound)
}

func TestUpdateUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	manager := createManager(t, svc, "maria@otica.com.br")
	other := createManager(t, svc, "clara@otica.com.br")

	seller, err := svc.CreateUser(ctx, CreateUserRequest{
		Name:      "João Vendedor",
		Email:     "joao@otica.com.br",
		Password:  "senha-segura",
		Role:      RoleVendedor,
		ManagerID: manager.ID,
	})
	require.NoError(t, err)

	name := "João da Silva"
	updated, err := svc.UpdateUser(ctx, seller.ID, UpdateUserRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, name, updated.Name)

	badStatus := UserStatus("SUSPENDED")
	_, err = svc.UpdateUser(ctx, seller.ID, UpdateUserRequest{Status: &badStatus})
	requireStatus(t, err, errutil.StatusBadRequest)

	inactive := StatusInactive
	updated, err = svc.UpdateUser(ctx, seller.ID, UpdateUserRequest{Status: &inactive})
	require.NoError(t, err)
	require.Equal(t, StatusInactive, updated.Status)

	newManager := other.ID
	updated, err = svc.UpdateUser(ctx, seller.ID, UpdateUserRequest{ManagerID: &newManager})
	require.NoError(t, err)
	require.NotNil(t, updated.ManagerID)
	require.Equal(t, other.ID, *updated.ManagerID)

	invalidManager := seller.ID
	_, err = svc.UpdateUser(ctx, seller.ID, UpdateUserRequest{ManagerID: &invalidManager})
	requireStatus(t, err, errutil.StatusBadRequest)

	none := ""
	updated, err = svc.UpdateUser(ctx, seller.ID, UpdateUserRequest{ManagerID: &none})
	require.NoError(t, err)
	require.Nil(t, updated.ManagerID)

	_, err = svc.UpdateUser(ctx, "999", UpdateUserRequest{Name: &name})
	requireStatus(t, err, errutil.StatusNotFound)
}

func TestListUsersFilters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	manager := createManager(t, svc, "maria@otica.com.br")
	other := createManager(t, svc, "clara@otica.com.br")

	for i := 0; i < 2; i++ {
		_, err := svc.CreateUser(ctx, CreateUserRequest{
			Name:      fmt.Sprintf("Vendedor %d", i),
			Email:     fmt.Sprintf("vendedor%d@otica.com.br", i),
			Password:  "senha-segura",
			Role:      RoleVendedor,
			ManagerID: manager.ID,
			OpticCNPJ: "11.111.111/0001-11",
		})
		require.NoError(t, err)
	}

	_, err := svc.CreateUser(ctx, CreateUserRequest{
		Name:      "Vendedor Alheio",
		Email:     "alheio@otica.com.br",
		Password:  "senha-segura",
		Role:      RoleVendedor,
		ManagerID: other.ID,
		OpticCNPJ: "22.222.222/0001-22",
	})
	require.NoError(t, err)

	sellers, _, err := svc.ListUsers(ctx, ListUsersRequest{Role: RoleVendedor})
	require.NoError(t, err)
	require.Len(t, sellers, 3)

	team, _, err := svc.ListUsers(ctx, ListUsersRequest{ManagerID: manager.ID})
	require.NoError(t, err)
	require.Len(t, team, 2)

	optic, _, err := svc.ListUsers(ctx, ListUsersRequest{OpticCNPJ: "22.222.222/0001-22"})
	require.NoError(t, err)
	require.Len(t, optic, 1)
	require.Equal(t, "Vendedor Alheio", optic[0].Name)
}

func TestRankingFallsBackToDatabase(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	rows := []*User{
		{ID: "v-1", Name: "Primeiro", Email: "primeiro@otica.com.br", Password: "hash", Role: RoleVendedor, Points: 300, Status: StatusActive},
		{ID: "v-2", Name: "Segundo", Email: "segundo@otica.com.br", Password: "hash", Role: RoleVendedor, Points: 200, Status: StatusActive},
		{ID: "v-3", Name: "Terceiro", Email: "terceiro@otica.com.br", Password: "hash", Role: RoleVendedor, Points: 100, Status: StatusActive},
		{ID: "v-4", Name: "Inativo", Email: "inativo@otica.com.br", Password: "hash", Role: RoleVendedor, Points: 999, Status: StatusInactive},
		{ID: "g-1", Name: "Gerente", Email: "gerente@otica.com.br", Password: "hash", Role: RoleGerente, Points: 500, Status: StatusActive},
	}
	for _, u := range rows {
		require.NoError(t, gdb.Create(u).Error)
	}

	entries, err := svc.Ranking(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "v-1", entries[0].UserID)
	require.Equal(t, 1, entries[0].Position)
	require.EqualValues(t, 300, entries[0].Points)
	require.Equal(t, "v-3", entries[2].UserID)
	require.Equal(t, 3, entries[2].Position)

	top, err := svc.Ranking(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
}

func TestSyncRankingWithoutRedis(t *testing.T) {
	svc, _ := newTestService(t)

	require.NoError(t, svc.SyncRanking(context.Background()))
}
