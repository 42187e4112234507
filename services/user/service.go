package user

import (
	"context"
	"fmt"
	"time"

	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/db/option"
	"eps-campanhas/pkg/db/pagination"
	"eps-campanhas/pkg/errutil"
	"eps-campanhas/pkg/rediskey"
	"eps-campanhas/pkg/repository"
	"eps-campanhas/pkg/security"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	rdb    *redis.Client
	config *config.Config
	repo   repository.Repository[User]
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Redis  *redis.Client `optional:"true"`
	Config *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:     p.DB,
		node:   p.Node,
		rdb:    p.Redis,
		config: p.Config,
		repo:   repository.ProvideStore[User](p.DB),
	}
}

type CreateUserRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Role      Role   `json:"role" binding:"required"`
	ManagerID string `json:"manager_id"`
	OpticCNPJ string `json:"optic_cnpj"`
}

type UpdateUserRequest struct {
	Name      *string     `json:"name"`
	ManagerID *string     `json:"manager_id"`
	OpticCNPJ *string     `json:"optic_cnpj"`
	Status    *UserStatus `json:"status"`
}

type ListUsersRequest struct {
	Role       Role
	ManagerID  string
	OpticCNPJ  string
	Pagination pagination.Pagination
}

func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	if !req.Role.Valid() {
		return nil, errutil.BadRequest("Perfil de usuário inválido", nil)
	}

	exist, err := s.repo.FindOne(ctx, &User{Email: req.Email})
	if err != nil {
		zapLog.Error("failed to check existing email", zap.Error(err))
		return nil, errutil.Internal("Erro ao consultar usuário", err)
	}
	if exist != nil {
		return nil, errutil.Conflict("E-mail já cadastrado", nil)
	}

	var managerID *string
	if req.ManagerID != "" {
		manager, err := s.repo.FindOne(ctx, &User{ID: req.ManagerID})
		if err != nil {
			zapLog.Error("failed to check manager", zap.Error(err))
			return nil, errutil.Internal("Erro ao consultar gerente", err)
		}
		if manager == nil || manager.Role != RoleGerente {
			return nil, errutil.BadRequest("Gerente não encontrado", nil)
		}
		managerID = &manager.ID
	}

	if req.Role == RoleVendedor && managerID == nil {
		return nil, errutil.BadRequest("Vendedor precisa de um gerente", nil)
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		zapLog.Error("failed to hash password", zap.Error(err))
		return nil, errutil.Internal("Erro ao criar usuário", err)
	}

	user := &User{
		ID:        s.node.Generate().String(),
		Name:      req.Name,
		Email:     req.Email,
		Password:  hash,
		Role:      req.Role,
		ManagerID: managerID,
		OpticCNPJ: req.OpticCNPJ,
		Status:    StatusActive,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		zapLog.Error("failed to create user", zap.Error(err))
		return nil, errutil.Internal("Erro ao criar usuário", err)
	}

	zapLog.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	user, err := s.repo.FindOne(ctx, &User{ID: id})
	if err != nil {
		zap.L().Error("failed to get user", zap.String("user_id", id), zap.Error(err))
		return nil, errutil.Internal("Erro ao consultar usuário", err)
	}
	if user == nil {
		return nil, errutil.NotFound("Usuário não encontrado", nil)
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context, req ListUsersRequest) ([]*User, *pagination.PageInfo, error) {
	filter := &User{
		Role:      req.Role,
		OpticCNPJ: req.OpticCNPJ,
	}
	if req.ManagerID != "" {
		filter.ManagerID = &req.ManagerID
	}

	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
		option.ApplyPagination(req.Pagination),
	}

	users, err := s.repo.Find(ctx, filter, opts...)
	if err != nil {
		zap.L().Error("failed to list users", zap.Error(err))
		return nil, nil, errutil.Internal("Erro ao listar usuários", err)
	}

	limit := req.Pagination.Limit
	if limit <= 0 {
		limit = 10
	}

	pageInfo := pagination.BuildCursorPageInfo(users, int32(limit), func(u *User) string {
		cursor, _ := pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: u.CreatedAt.Format(time.RFC3339Nano),
			ID:        u.ID,
		})
		return cursor
	})

	if len(users) > limit {
		users = users[:limit]
	}

	return users, pageInfo, nil
}

func (s *Service) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.OpticCNPJ != nil {
		updates["optic_cnpj"] = *req.OpticCNPJ
	}
	if req.Status != nil {
		if *req.Status != StatusActive && *req.Status != StatusInactive {
			return nil, errutil.BadRequest("Status de usuário inválido", nil)
		}
		updates["status"] = *req.Status
	}
	if req.ManagerID != nil {
		if *req.ManagerID == "" {
			updates["manager_id"] = nil
		} else {
			manager, err := s.repo.FindOne(ctx, &User{ID: *req.ManagerID})
			if err != nil {
				return nil, errutil.Internal("Erro ao consultar gerente", err)
			}
			if manager == nil || manager.Role != RoleGerente {
				return nil, errutil.BadRequest("Gerente não encontrado", nil)
			}
			updates["manager_id"] = manager.ID
		}
	}

	if len(updates) == 0 {
		return user, nil
	}

	if err := s.repo.Update(ctx, user.ID, updates); err != nil {
		zap.L().Error("failed to update user", zap.String("user_id", id), zap.Error(err))
		return nil, errutil.Internal("Erro ao atualizar usuário", err)
	}

	return s.GetUser(ctx, id)
}

// Ranking returns the points leaderboard. It reads from the redis sorted set
// kept by the ranking sync task and falls back to the database when the set
// is empty.
func (s *Service) Ranking(ctx context.Context, limit int) ([]RankingEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	if s.rdb != nil {
		entries, err := s.rankingFromRedis(ctx, limit)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
	}

	return s.rankingFromDB(ctx, limit)
}

func (s *Service) rankingFromRedis(ctx context.Context, limit int) ([]RankingEntry, error) {
	members, err := s.rdb.ZRevRangeWithScores(ctx, rediskey.UserRankingKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]RankingEntry, 0, len(members))
	for i, m := range members {
		id, _ := m.Member.(string)
		user, err := s.repo.FindOne(ctx, &User{ID: id})
		if err != nil || user == nil {
			continue
		}
		entries = append(entries, RankingEntry{
			Position:  i + 1,
			UserID:    user.ID,
			Name:      user.Name,
			OpticCNPJ: user.OpticCNPJ,
			Points:    int64(m.Score),
		})
	}

	return entries, nil
}

func (s *Service) rankingFromDB(ctx context.Context, limit int) ([]RankingEntry, error) {
	var users []*User
	err := s.db.WithContext(ctx).
		Where("role = ? AND status = ?", RoleVendedor, StatusActive).
		Order("points DESC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		zap.L().Error("failed to load ranking", zap.Error(err))
		return nil, errutil.Internal("Erro ao carregar ranking", err)
	}

	entries := make([]RankingEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, RankingEntry{
			Position:  i + 1,
			UserID:    u.ID,
			Name:      u.Name,
			OpticCNPJ: u.OpticCNPJ,
			Points:    u.Points,
		})
	}

	return entries, nil
}

// SyncRanking rebuilds the redis leaderboard from the database. The worker
// runs it whenever points change.
func (s *Service) SyncRanking(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}

	users, err := s.repo.Find(ctx, &User{Role: RoleVendedor, Status: StatusActive})
	if err != nil {
		return fmt.Errorf("failed to load users for ranking sync: %w", err)
	}

	if len(users) == 0 {
		return nil
	}

	members := make([]redis.Z, 0, len(users))
	for _, u := range users {
		members = append(members, redis.Z{Score: float64(u.Points), Member: u.ID})
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, rediskey.UserRankingKey)
	pipe.ZAdd(ctx, rediskey.UserRankingKey, members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to sync ranking: %w", err)
	}

	zap.L().Info("ranking synced", zap.Int("users", len(users)))
	return nil
}
