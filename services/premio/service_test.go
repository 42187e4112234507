package premio

import (
	"context"
	"fmt"
	"testing"

	"eps-campanhas/pkg/errutil"
	"eps-campanhas/services/activity"
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

type seqStub struct {
	redemptions int
}

func (s *seqStub) NextCampaignCode(ctx context.Context) (string, error) {
	return "CMP-001", nil
}

func (s *seqStub) NextRedemptionCode(ctx context.Context) (string, error) {
	s.redemptions++
	return fmt.Sprintf("RSG-%03d", s.redemptions), nil
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	gdb := testutil.NewTestDB(t, &Premio{}, &PremioRedemption{}, &user.User{}, &activity.Activity{})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	acts := activity.NewService(activity.ServiceParams{DB: gdb, Node: node})
	svc := NewService(ServiceParams{
		DB:       gdb,
		Node:     node,
		Seq:      &seqStub{},
		Activity: acts,
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

func seedUser(t *testing.T, gdb *gorm.DB, id string, points int64) *user.User {
	t.Helper()

	u := &user.User{
		ID:       id,
		Name:     "Usuário " + id,
		Email:    id + "@otica.com.br",
		Password: "hash",
		Role:     user.RoleVendedor,
		Points:   points,
		Status:   user.StatusActive,
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

func loadPremio(t *testing.T, gdb *gorm.DB, id string) *Premio {
	t.Helper()

	var p Premio
	require.NoError(t, gdb.First(&p, "id = ?", id).Error)
	return &p
}

func loadPoints(t *testing.T, gdb *gorm.DB, userID string) int64 {
	t.Helper()

	var u user.User
	require.NoError(t, gdb.First(&u, "id = ?", userID).Error)
	return u.Points
}

func TestCreatePremio(t *testing.T) {
	svc, _ := newTestService(t)

	p, err := svc.CreatePremio(context.Background(), CreatePremioRequest{
		Name:       "Vale-compras R$ 100",
		PointsCost: 1000,
		MaxStock:   50,
	})
	require.NoError(t, err)
	require.Equal(t, StatusActive, p.Status)
	require.EqualValues(t, 50, p.MaxStock)
	require.EqualValues(t, 50, p.RemainingStock)
}

func TestUpdatePremio(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreatePremio(ctx, CreatePremioRequest{
		Name:       "Fone Bluetooth",
		PointsCost: 2500,
		MaxStock:   10,
	})
	require.NoError(t, err)

	name := "Fone Bluetooth Pro"
	updated, err := svc.UpdatePremio(ctx, p.ID, UpdatePremioRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, name, updated.Name)

	badCost := int64(0)
	_, err = svc.UpdatePremio(ctx, p.ID, UpdatePremioRequest{PointsCost: &badCost})
	requireStatus(t, err, errutil.StatusBadRequest)

	badStatus := PremioStatus("PAUSED")
	_, err = svc.UpdatePremio(ctx, p.ID, UpdatePremioRequest{Status: &badStatus})
	requireStatus(t, err, errutil.StatusBadRequest)

	add := int64(5)
	updated, err = svc.UpdatePremio(ctx, p.ID, UpdatePremioRequest{AddStock: &add})
	require.NoError(t, err)
	require.EqualValues(t, 15, updated.MaxStock)
	require.EqualValues(t, 15, updated.RemainingStock)

	badAdd := int64(-1)
	_, err = svc.UpdatePremio(ctx, p.ID, UpdatePremioRequest{AddStock: &badAdd})
	requireStatus(t, err, errutil.StatusBadRequest)

	_, err = svc.UpdatePremio(ctx, "999", UpdatePremioRequest{Name: &name})
	requireStatus(t, err, errutil.StatusNotFound)
}

func TestRedeemDebitsAndReserves(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	buyer := seedUser(t, gdb, "v-1", 2000)
	p, err := svc.CreatePremio(ctx, CreatePremioRequest{
		Name:       "Vale-compras R$ 100",
		PointsCost: 1000,
		MaxStock:   2,
	})
	require.NoError(t, err)

	r, err := svc.Redeem(ctx, p.ID, buyer.ID)
	require.NoError(t, err)
	require.Equal(t, "RSG-001", r.Code)
	require.Equal(t, RedemptionRequested, r.Status)
	require.EqualValues(t, 1000, r.PointsSpent)

	require.EqualValues(t, 1000, loadPoints(t, gdb, buyer.ID))
	require.EqualValues(t, 1, loadPremio(t, gdb, p.ID).RemainingStock)

	var audit activity.Activity
	require.NoError(t, gdb.First(&audit, "action = ?", activity.ActionPremioRedeemed).Error)
	require.Equal(t, buyer.ID, audit.UserID)
	require.Equal(t, r.ID, audit.EntityID)
}

func TestRedeemValidations(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	rich := seedUser(t, gdb, "v-rico", 10000)
	poor := seedUser(t, gdb, "v-pobre", 10)

	p, err := svc.CreatePremio(ctx, CreatePremioRequest{
		Name:       "Smartwatch",
		PointsCost: 8000,
		MaxStock:   1,
	})
	require.NoError(t, err)

	_, err = svc.Redeem(ctx, "999", rich.ID)
	requireStatus(t, err, errutil.StatusNotFound)

	_, err = svc.Redeem(ctx, p.ID, "v-fantasma")
	requireStatus(t, err, errutil.StatusNotFound)

	_, err = svc.Redeem(ctx, p.ID, poor.ID)
	requireStatus(t, err, errutil.StatusBadRequest)

	// a tentativa sem saldo nao pode reter estoque nem gravar resgate
	require.EqualValues(t, 1, loadPremio(t, gdb, p.ID).RemainingStock)
	var count int64
	require.NoError(t, gdb.Model(&PremioRedemption{}).Count(&count).Error)
	require.EqualValues(t, 0, count)

	inactive := StatusInactive
	_, err = svc.UpdatePremio(ctx, p.ID, UpdatePremioRequest{Status: &inactive})
	require.NoError(t, err)

	_, err = svc.Redeem(ctx, p.ID, rich.ID)
	requireStatus(t, err, errutil.StatusConflict)

	active := StatusActive
	_, err = svc.UpdatePremio(ctx, p.ID, UpdatePremioRequest{Status: &active})
	require.NoError(t, err)

	_, err = svc.Redeem(ctx, p.ID, rich.ID)
	require.NoError(t, err)

	// estoque zerou com o resgate anterior
	_, err = svc.Redeem(ctx, p.ID, rich.ID)
	requireStatus(t, err, errutil.StatusConflict)
}

func TestCancelRedemption(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	buyer := seedUser(t, gdb, "v-1", 3000)
	intruder := seedUser(t, gdb, "v-2", 3000)

	p, err := svc.CreatePremio(ctx, CreatePremioRequest{
		Name:       "Caixa de som",
		PointsCost: 1000,
		MaxStock:   5,
	})
	require.NoError(t, err)

	r, err := svc.Redeem(ctx, p.ID, buyer.ID)
	require.NoError(t, err)

	_, err = svc.CancelRedemption(ctx, r.ID, intruder.ID, user.RoleVendedor)
	requireStatus(t, err, errutil.StatusForbidden)

	cancelled, err := svc.CancelRedemption(ctx, r.ID, buyer.ID, user.RoleVendedor)
	require.NoError(t, err)
	require.Equal(t, RedemptionCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	require.EqualValues(t, 3000, loadPoints(t, gdb, buyer.ID))
	require.EqualValues(t, 5, loadPremio(t, gdb, p.ID).RemainingStock)

	_, err = svc.CancelRedemption(ctx, r.ID, buyer.ID, user.RoleVendedor)
	requireStatus(t, err, errutil.StatusConflict)

	// admin cancela resgate de terceiro
	second, err := svc.Redeem(ctx, p.ID, buyer.ID)
	require.NoError(t, err)

	_, err = svc.CancelRedemption(ctx, second.ID, "admin-1", user.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.CancelRedemption(ctx, "999", buyer.ID, user.RoleVendedor)
	requireStatus(t, err, errutil.StatusNotFound)
}

func TestDeliverRedemption(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	buyer := seedUser(t, gdb, "v-1", 3000)
	p, err := svc.CreatePremio(ctx, CreatePremioRequest{
		Name:       "Caixa de som",
		PointsCost: 1000,
		MaxStock:   5,
	})
	require.NoError(t, err)

	r, err := svc.Redeem(ctx, p.ID, buyer.ID)
	require.NoError(t, err)

	delivered, err := svc.DeliverRedemption(ctx, r.ID, "admin-1")
	require.NoError(t, err)
	require.Equal(t, RedemptionDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)

	_, err = svc.DeliverRedemption(ctx, r.ID, "admin-1")
	requireStatus(t, err, errutil.StatusConflict)

	// entregue nao volta pro estoque
	_, err = svc.CancelRedemption(ctx, r.ID, buyer.ID, user.RoleVendedor)
	requireStatus(t, err, errutil.StatusConflict)

	_, err = svc.DeliverRedemption(ctx, "999", "admin-1")
	requireStatus(t, err, errutil.StatusNotFound)
}

func TestListRedemptions(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	buyer := seedUser(t, gdb, "v-1", 10000)
	other := seedUser(t, gdb, "v-2", 10000)

	p1, err := svc.CreatePremio(ctx, CreatePremioRequest{Name: "Vale-compras", PointsCost: 1000, MaxStock: 10})
	require.NoError(t, err)
	p2, err := svc.CreatePremio(ctx, CreatePremioRequest{Name: "Fone", PointsCost: 2000, MaxStock: 10})
	require.NoError(t, err)

	first, err := svc.Redeem(ctx, p1.ID, buyer.ID)
	require.NoError(t, err)
	_, err = svc.Redeem(ctx, p2.ID, buyer.ID)
	require.NoError(t, err)
	_, err = svc.Redeem(ctx, p1.ID, other.ID)
	require.NoError(t, err)

	_, err = svc.CancelRedemption(ctx, first.ID, buyer.ID, user.RoleVendedor)
	require.NoError(t, err)

	mine, _, err := svc.ListRedemptions(ctx, ListRedemptionsRequest{UserID: buyer.ID})
	require.NoError(t, err)
	require.Len(t, mine, 2)

	requested, _, err := svc.ListRedemptions(ctx, ListRedemptionsRequest{UserID: buyer.ID, Status: RedemptionRequested})
	require.NoError(t, err)
	require.Len(t, requested, 1)

	byPremio, _, err := svc.ListRedemptions(ctx, ListRedemptionsRequest{PremioID: p1.ID})
	require.NoError(t, err)
	require.Len(t, byPremio, 2)
}
