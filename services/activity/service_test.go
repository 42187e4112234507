package activity

import (
	"context"
	"testing"
	"time"

	"eps-campanhas/pkg/db/pagination"
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

	gdb := testutil.NewTestDB(t, &Activity{})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{DB: gdb, Node: node}), gdb
}

func seedActivity(t *testing.T, gdb *gorm.DB, id, userID, action, entity, entityID string, age time.Duration) {
	t.Helper()

	require.NoError(t, gdb.Create(&Activity{
		ID:        id,
		UserID:    userID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		CreatedAt: time.Now().Add(-age),
	}).Error)
}

func TestRecord(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, nil, Activity{
		UserID:   "v-1",
		ActorID:  "g-1",
		Action:   ActionSubmissionValidated,
		Entity:   "submission",
		EntityID: "s-1",
		Message:  "Venda PED-001 validada",
	}))

	var stored Activity
	require.NoError(t, gdb.First(&stored, "entity_id = ?", "s-1").Error)
	require.NotEmpty(t, stored.ID)
	require.Equal(t, "g-1", stored.ActorID)
	require.Equal(t, ActionSubmissionValidated, stored.Action)
}

func TestRecordJoinsTransaction(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	err := gdb.Transaction(func(tx *gorm.DB) error {
		if err := svc.Record(ctx, tx, Activity{
			UserID: "v-1",
			Action: ActionKitCompleted,
		}); err != nil {
			return err
		}
		return gorm.ErrInvalidData
	})
	require.Error(t, err)

	// rollback leva a auditoria junto
	var count int64
	require.NoError(t, gdb.Model(&Activity{}).Count(&count).Error)
	require.EqualValues(t, 0, count)
}

func TestListActivities(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	seedActivity(t, gdb, "a-1", "v-1", ActionSubmissionCreated, "submission", "s-1", 4*time.Hour)
	seedActivity(t, gdb, "a-2", "v-1", ActionSubmissionValidated, "submission", "s-1", 3*time.Hour)
	seedActivity(t, gdb, "a-3", "v-1", ActionKitCompleted, "kit", "k-1", 2*time.Hour)
	seedActivity(t, gdb, "a-4", "v-2", ActionSubmissionCreated, "submission", "s-9", time.Hour)

	mine, _, err := svc.ListActivities(ctx, ListActivitiesRequest{UserID: "v-1"})
	require.NoError(t, err)
	require.Len(t, mine, 3)
	require.Equal(t, "a-3", mine[0].ID)

	kits, _, err := svc.ListActivities(ctx, ListActivitiesRequest{Entity: "kit"})
	require.NoError(t, err)
	require.Len(t, kits, 1)
	require.Equal(t, "a-3", kits[0].ID)

	trail, _, err := svc.ListActivities(ctx, ListActivitiesRequest{EntityID: "s-1"})
	require.NoError(t, err)
	require.Len(t, trail, 2)
}

func TestListActivitiesPaginates(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	seedActivity(t, gdb, "a-1", "v-1", ActionSubmissionCreated, "submission", "s-1", 3*time.Hour)
	seedActivity(t, gdb, "a-2", "v-1", ActionSubmissionCreated, "submission", "s-2", 2*time.Hour)
	seedActivity(t, gdb, "a-3", "v-1", ActionSubmissionCreated, "submission", "s-3", time.Hour)

	page, pageInfo, err := svc.ListActivities(ctx, ListActivitiesRequest{
		UserID:     "v-1",
		Pagination: pagination.Pagination{Limit: 2},
	})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.True(t, pageInfo.HasMore)

	cursor, err := pagination.DecodeCursor(pageInfo.NextCursor)
	require.NoError(t, err)
	require.Equal(t, page[1].ID, cursor.ID)
}
