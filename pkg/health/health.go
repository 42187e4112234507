package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("health", fx.Provide(ProvideHealth))

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

type Dependency struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type Health struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Deps    []Dependency `json:"deps"`
}

type HealthService interface {
	Liveness(c *gin.Context)
	Readiness(c *gin.Context)
}

type health struct {
	db    *gorm.DB
	redis *redis.Client
}

type HealthParams struct {
	fx.In
	DB    *gorm.DB      `optional:"true"`
	Redis *redis.Client `optional:"true"`
}

func ProvideHealth(p HealthParams) HealthService {
	return &health{
		db:    p.DB,
		redis: p.Redis,
	}
}

func (h *health) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, &Health{
		Status:  StatusHealthy,
		Message: "OK",
	})
}

// Readiness pings the wired dependencies. A dead database answers 503 so
// the service drops out of rotation. Redis only degrades the report, the
// callers that use it all fall back to the database.
func (h *health) Readiness(c *gin.Context) {
	resp := &Health{
		Status:  StatusHealthy,
		Message: "OK",
		Deps:    make([]Dependency, 0),
	}

	code := http.StatusOK

	if h.db != nil {
		dep := h.checkDB()
		resp.Deps = append(resp.Deps, dep)
		if dep.Status != StatusHealthy {
			resp.Status = StatusUnhealthy
			resp.Message = dep.Name + " unavailable"
			code = http.StatusServiceUnavailable
		}
	}

	if h.redis != nil {
		dep := Dependency{Name: "redis", Status: StatusHealthy, Message: "OK"}
		if err := h.redis.Ping(c.Request.Context()).Err(); err != nil {
			dep.Status = StatusUnhealthy
			dep.Message = err.Error()
			if resp.Status == StatusHealthy {
				resp.Status = StatusDegraded
				resp.Message = "redis unavailable"
			}
		}
		resp.Deps = append(resp.Deps, dep)
	}

	c.JSON(code, resp)
}

func (h *health) checkDB() Dependency {
	dep := Dependency{Name: h.db.Name(), Status: StatusHealthy, Message: "OK"}

	sql, err := h.db.DB()
	if err != nil {
		dep.Status = StatusUnhealthy
		dep.Message = err.Error()
		return dep
	}

	if err := sql.Ping(); err != nil {
		dep.Status = StatusUnhealthy
		dep.Message = err.Error()
	}

	return dep
}
