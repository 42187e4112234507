package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health/readiness", nil)
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Health {
	t.Helper()

	var h Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &h))
	return h
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	return gdb
}

func TestLiveness(t *testing.T) {
	c, w := newContext(t)

	svc := ProvideHealth(HealthParams{})
	svc.Liveness(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, StatusHealthy, decode(t, w).Status)
}

func TestReadinessHealthy(t *testing.T) {
	c, w := newContext(t)

	svc := ProvideHealth(HealthParams{DB: openDB(t)})
	svc.Readiness(c)

	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	require.Equal(t, StatusHealthy, resp.Status)
	require.Len(t, resp.Deps, 1)
	require.Equal(t, "sqlite", resp.Deps[0].Name)
}

func TestReadinessDatabaseDown(t *testing.T) {
	gdb := openDB(t)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	c, w := newContext(t)

	svc := ProvideHealth(HealthParams{DB: gdb})
	svc.Readiness(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	resp := decode(t, w)
	require.Equal(t, StatusUnhealthy, resp.Status)
	require.Equal(t, StatusUnhealthy, resp.Deps[0].Status)
}

func TestReadinessRedisOnlyDegrades(t *testing.T) {
	// porta fechada, o ping falha na hora
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})

	c, w := newContext(t)

	svc := ProvideHealth(HealthParams{DB: openDB(t), Redis: rdb})
	svc.Readiness(c)

	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	require.Equal(t, StatusDegraded, resp.Status)
	require.Len(t, resp.Deps, 2)
	require.Equal(t, StatusUnhealthy, resp.Deps[1].Status)
}
