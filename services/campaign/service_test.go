package campaign

import (
	"context"
	"fmt"
	"testing"
	"time"

	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/db/pagination"
	"eps-campanhas/pkg/errutil"
	"eps-campanhas/services/testutil"
	"eps-campanhas/services/user"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type seqStub struct {
	campaigns   int
	redemptions int
}

func (s *seqStub) NextCampaignCode(ctx context.Context) (string, error) {
	s.campaigns++
	return fmt.Sprintf("CMP-%03d", s.campaigns), nil
}

func (s *seqStub) NextRedemptionCode(ctx context.Context) (string, error) {
	s.redemptions++
	return fmt.Sprintf("RSG-%03d", s.redemptions), nil
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	gdb := testutil.NewTestDB(t, &Campaign{}, &GoalRequirement{}, &user.User{})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParams{
		DB:     gdb,
		Node:   node,
		Seq:    &seqStub{},
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

func createReq(title string) CreateCampaignRequest {
	return CreateCampaignRequest{
		Title:                   title,
		Description:             "Campanha de incentivo para lentes multifocais",
		StartDate:               time.Now().Add(-24 * time.Hour),
		EndDate:                 time.Now().Add(30 * 24 * time.Hour),
		PointsOnCompletion:      500,
		ManagerPointsPercentage: 10,
		Requirements: []RequirementInput{
			{Description: "Lentes multifocais", ProductType: "multifocal", TargetQuantity: 10, Unit: "PARES"},
			{Description: "Tratamento antirreflexo", ProductType: "antirreflexo", TargetQuantity: 5},
		},
	}
}

func TestCreateCampaignPersistsGoals(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	c, err := svc.CreateCampaign(ctx, createReq("Campanha Multifocal"), "admin-1")
	require.NoError(t, err)
	require.Equal(t, StatusDraft, c.Status)
	require.Equal(t, "CMP-001", c.Code)
	require.Equal(t, "campanha-multifocal", c.Slug)
	require.Len(t, c.Requirements, 2)
	require.Equal(t, "PARES", c.Requirements[0].Unit)
	require.Equal(t, "UNIDADES", c.Requirements[1].Unit)

	var count int64
	require.NoError(t, gdb.Model(&GoalRequirement{}).Where("campaign_id = ?", c.ID).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestCreateCampaignRejectsBadWindow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := createReq("Campanha Invertida")
	req.StartDate = time.Now().Add(48 * time.Hour)
	req.EndDate = time.Now().Add(24 * time.Hour)

	_, err := svc.CreateCampaign(ctx, req, "admin-1")
	requireStatus(t, err, errutil.StatusBadRequest)

	req.EndDate = req.StartDate
	_, err = svc.CreateCampaign(ctx, req, "admin-1")
	requireStatus(t, err, errutil.StatusBadRequest)
}

func TestCreateCampaignDisambiguatesSlug(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateCampaign(ctx, createReq("Campanha Multifocal"), "admin-1")
	require.NoError(t, err)
	require.Equal(t, "campanha-multifocal", first.Slug)

	second, err := svc.CreateCampaign(ctx, createReq("Campanha Multifocal"), "admin-1")
	require.NoError(t, err)
	require.Equal(t, "campanha-multifocal-cmp-002", second.Slug)
}

func TestGetCampaignByIDOrSlug(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateCampaign(ctx, createReq("Campanha Multifocal"), "admin-1")
	require.NoError(t, err)

	byID, err := svc.GetCampaign(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, byID.ID)
	require.Len(t, byID.Requirements, 2)

	bySlug, err := svc.GetCampaign(ctx, "campanha-multifocal")
	require.NoError(t, err)
	require.Equal(t, created.ID, bySlug.ID)

	_, err = svc.GetCampaign(ctx, "nao-existe")
	requireStatus(t, err, errutil.StatusNotFound)
}

func TestActivateCampaign(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateCampaign(ctx, createReq("Campanha Multifocal"), "admin-1")
	require.NoError(t, err)

	activated, err := svc.ActivateCampaign(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusActive, activated.Status)

	stored, err := svc.GetCampaign(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusActive, stored.Status)

	_, err = svc.ActivateCampaign(ctx, created.ID)
	requireStatus(t, err, errutil.StatusConflict)

	expired := &Campaign{
		ID:                 svc.node.Generate().String(),
		Code:               "CMP-900",
		Slug:               "campanha-expirada",
		Title:              "Campanha Expirada",
		StartDate:          time.Now().Add(-60 * 24 * time.Hour),
		EndDate:            time.Now().Add(-30 * 24 * time.Hour),
		PointsOnCompletion: 100,
		Status:             StatusExpired,
	}
	require.NoError(t, gdb.Create(expired).Error)

	_, err = svc.ActivateCampaign(ctx, expired.ID)
	requireStatus(t, err, errutil.StatusConflict)
}

func TestActivateCampaignValidations(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	noGoals := &Campaign{
		ID:                 svc.node.Generate().String(),
		Code:               "CMP-901",
		Slug:               "campanha-sem-metas",
		Title:              "Campanha Sem Metas",
		StartDate:          time.Now().Add(-24 * time.Hour),
		EndDate:            time.Now().Add(24 * time.Hour),
		PointsOnCompletion: 100,
		Status:             StatusDraft,
	}
	require.NoError(t, gdb.Create(noGoals).Error)

	_, err := svc.ActivateCampaign(ctx, noGoals.ID)
	requireStatus(t, err, errutil.StatusBadRequest)

	past := &Campaign{
		ID:                 svc.node.Generate().String(),
		Code:               "CMP-902",
		Slug:               "campanha-encerrada",
		Title:              "Campanha Encerrada",
		StartDate:          time.Now().Add(-60 * 24 * time.Hour),
		EndDate:            time.Now().Add(-24 * time.Hour),
		PointsOnCompletion: 100,
		Status:             StatusDraft,
	}
	require.NoError(t, gdb.Create(past).Error)
	require.NoError(t, gdb.Create(&GoalRequirement{
		ID:             svc.node.Generate().String(),
		CampaignID:     past.ID,
		Description:    "Lentes multifocais",
		TargetQuantity: 10,
		Unit:           "PARES",
	}).Error)

	_, err = svc.ActivateCampaign(ctx, past.ID)
	requireStatus(t, err, errutil.StatusBadRequest)
}

func TestUpdateCampaignGuardsStructuralFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateCampaign(ctx, createReq("Campanha Multifocal"), "admin-1")
	require.NoError(t, err)

	newEnd := time.Now().Add(60 * 24 * time.Hour)
	updated, err := svc.UpdateCampaign(ctx, created.ID, UpdateCampaignRequest{EndDate: &newEnd})
	require.NoError(t, err)
	require.WithinDuration(t, newEnd, updated.EndDate, time.Second)

	_, err = svc.ActivateCampaign(ctx, created.ID)
	require.NoError(t, err)

	points := int64(999)
	_, err = svc.UpdateCampaign(ctx, created.ID, UpdateCampaignRequest{PointsOnCompletion: &points})
	requireStatus(t, err, errutil.StatusConflict)

	title := "Campanha Multifocal 2026"
	updated, err = svc.UpdateCampaign(ctx, created.ID, UpdateCampaignRequest{Title: &title})
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)
	require.EqualValues(t, 500, updated.PointsOnCompletion)
}

func TestUpdateCampaignNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	title := "Nova"
	_, err := svc.UpdateCampaign(context.Background(), "999", UpdateCampaignRequest{Title: &title})
	requireStatus(t, err, errutil.StatusNotFound)
}

func TestCloneCampaignCopiesGoals(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := createReq("Campanha Multifocal")
	req.EligibleCNPJs = []string{"11.111.111/0001-11"}
	original, err := svc.CreateCampaign(ctx, req, "admin-1")
	require.NoError(t, err)

	_, err = svc.ActivateCampaign(ctx, original.ID)
	require.NoError(t, err)

	cloned, err := svc.CloneCampaign(ctx, original.ID, "Campanha Multifocal Q2", "admin-1")
	require.NoError(t, err)
	require.Equal(t, StatusDraft, cloned.Status)
	require.Equal(t, "CMP-002", cloned.Code)
	require.Equal(t, "campanha-multifocal-q2", cloned.Slug)
	require.NotEqual(t, original.ID, cloned.ID)
	require.Equal(t, pq.StringArray{"11.111.111/0001-11"}, cloned.EligibleCNPJs)

	require.Len(t, cloned.Requirements, 2)
	type goal struct {
		Description string
		Quantity    int64
	}
	got := make([]goal, 0, len(cloned.Requirements))
	originalIDs := map[string]bool{}
	for _, r := range original.Requirements {
		originalIDs[r.ID] = true
	}
	for _, r := range cloned.Requirements {
		require.False(t, originalIDs[r.ID])
		got = append(got, goal{r.Description, r.TargetQuantity})
	}
	require.ElementsMatch(t, []goal{
		{"Lentes multifocais", 10},
		{"Tratamento antirreflexo", 5},
	}, got)
}

func TestAddRequirementOnlyOnDraft(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateCampaign(ctx, createReq("Campanha Multifocal"), "admin-1")
	require.NoError(t, err)

	r, err := svc.AddRequirement(ctx, created.ID, RequirementInput{
		Description:    "Lentes fotossensíveis",
		TargetQuantity: 3,
	})
	require.NoError(t, err)
	require.Equal(t, "UNIDADES", r.Unit)

	stored, err := svc.GetCampaign(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, stored.Requirements, 3)

	_, err = svc.ActivateCampaign(ctx, created.ID)
	require.NoError(t, err)

	_, err = svc.AddRequirement(ctx, created.ID, RequirementInput{
		Description:    "Meta tardia",
		TargetQuantity: 1,
	})
	requireStatus(t, err, errutil.StatusConflict)

	_, err = svc.AddRequirement(ctx, "999", RequirementInput{
		Description:    "Meta perdida",
		TargetQuantity: 1,
	})
	requireStatus(t, err, errutil.StatusNotFound)
}

func TestListCampaignsOnlyAvailable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	running, err := svc.CreateCampaign(ctx, createReq("Campanha Corrente"), "admin-1")
	require.NoError(t, err)
	_, err = svc.ActivateCampaign(ctx, running.ID)
	require.NoError(t, err)

	_, err = svc.CreateCampaign(ctx, createReq("Campanha Rascunho"), "admin-1")
	require.NoError(t, err)

	future := createReq("Campanha Futura")
	future.StartDate = time.Now().Add(48 * time.Hour)
	future.EndDate = time.Now().Add(72 * time.Hour)
	notStarted, err := svc.CreateCampaign(ctx, future, "admin-1")
	require.NoError(t, err)
	_, err = svc.ActivateCampaign(ctx, notStarted.ID)
	require.NoError(t, err)

	items, pageInfo, err := svc.ListCampaigns(ctx, ListCampaignsRequest{OnlyAvailable: true})
	require.NoError(t, err)
	require.NotNil(t, pageInfo)
	require.Len(t, items, 1)
	require.Equal(t, running.ID, items[0].ID)
}

func TestListCampaignsFiltersEligibility(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	open, err := svc.CreateCampaign(ctx, createReq("Campanha Aberta"), "admin-1")
	require.NoError(t, err)

	restricted := createReq("Campanha Restrita")
	restricted.EligibleCNPJs = []string{"11.111.111/0001-11"}
	mine, err := svc.CreateCampaign(ctx, restricted, "admin-1")
	require.NoError(t, err)

	other := createReq("Campanha Alheia")
	other.EligibleCNPJs = []string{"22.222.222/0001-22"}
	theirs, err := svc.CreateCampaign(ctx, other, "admin-1")
	require.NoError(t, err)

	items, _, err := svc.ListCampaigns(ctx, ListCampaignsRequest{EligibleCNPJ: "11.111.111/0001-11"})
	require.NoError(t, err)
	ids := make([]string, 0, len(items))
	for _, c := range items {
		ids = append(ids, c.ID)
	}
	require.ElementsMatch(t, []string{open.ID, mine.ID}, ids)

	seller := &user.User{
		ID:        "seller-1",
		Name:      "João Vendedor",
		Email:     "joao@otica.com.br",
		Password:  "hash",
		Role:      user.RoleVendedor,
		OpticCNPJ: "22.222.222/0001-22",
	}
	require.NoError(t, gdb.Create(seller).Error)

	items, _, err = svc.ListCampaigns(ctx, ListCampaignsRequest{SellerID: seller.ID})
	require.NoError(t, err)
	ids = ids[:0]
	for _, c := range items {
		ids = append(ids, c.ID)
	}
	require.ElementsMatch(t, []string{open.ID, theirs.ID}, ids)
}

func TestListCampaignsPaginates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.CreateCampaign(ctx, createReq(fmt.Sprintf("Campanha %d", i)), "admin-1")
		require.NoError(t, err)
	}

	items, pageInfo, err := svc.ListCampaigns(ctx, ListCampaignsRequest{
		Pagination: pagination.Pagination{Limit: 2},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.True(t, pageInfo.HasMore)
	require.NotEmpty(t, pageInfo.NextCursor)

	cursor, err := pagination.DecodeCursor(pageInfo.NextCursor)
	require.NoError(t, err)
	require.Equal(t, items[1].ID, cursor.ID)
}
