package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/errutil"
	"eps-campanhas/pkg/repository"
	"eps-campanhas/pkg/security"
	"eps-campanhas/services/user"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 30 * 24 * time.Hour
)

type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	config *config.Config
	repo   repository.Repository[RefreshToken]
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
		repo:   repository.ProvideStore[RefreshToken](p.DB),
		users:  repository.ProvideStore[user.User](p.DB),
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (s *Service) accessTokenTTL() time.Duration {
	if s.config.Auth.AccessTokenTTL > 0 {
		return s.config.Auth.AccessTokenTTL
	}
	return defaultAccessTokenTTL
}

func (s *Service) refreshTokenTTL() time.Duration {
	if s.config.Auth.RefreshTokenTTL > 0 {
		return s.config.Auth.RefreshTokenTTL
	}
	return defaultRefreshTokenTTL
}

// Login checks credentials and issues an access/refresh token pair. Wrong
// email and wrong password return the same message on purpose.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*TokenPair, *user.User, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	u, err := s.users.FindOne(ctx, &user.User{Email: req.Email})
	if err != nil {
		zapLog.Error("failed to query user by email", zap.Error(err))
		return nil, nil, errutil.Internal("Erro ao autenticar", err)
	}
	if u == nil || !u.IsActive() {
		return nil, nil, errutil.Unauthorized("Credenciais inválidas", nil)
	}

	if !security.CheckPassword(req.Password, u.Password) {
		zapLog.Warn("invalid password", zap.String("user_id", u.ID))
		return nil, nil, errutil.Unauthorized("Credenciais inválidas", nil)
	}

	pair, err := s.issueTokens(ctx, nil, u)
	if err != nil {
		zapLog.Error("failed to issue tokens", zap.Error(err))
		return nil, nil, errutil.Internal("Erro ao autenticar", err)
	}

	zapLog.Info("user logged in", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return pair, u, nil
}

// issueTokens creates the JWT plus a fresh refresh token row. Runs inside
// the caller's transaction when tx is non-nil.
func (s *Service) issueTokens(ctx context.Context, tx *gorm.DB, u *user.User) (*TokenPair, error) {
	now := time.Now()
	accessTTL := s.accessTokenTTL()

	access, err := security.GenerateToken(u.ID, string(u.Role), s.config.Auth.Secret, accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	secret, err := security.GenerateBase64Secret(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh secret: %w", err)
	}

	hash, err := security.HashArgon2(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to hash refresh secret: %w", err)
	}

	token := &RefreshToken{
		ID:        s.node.Generate().String(),
		UserID:    u.ID,
		TokenHash: hash,
		ExpiresAt: now.Add(s.refreshTokenTTL()),
	}

	repo := s.repo
	if tx != nil {
		repo = repo.WithTrx(tx)
	}
	if err := repo.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: fmt.Sprintf("%s.%s", token.ID, secret),
		ExpiresAt:    now.Add(accessTTL),
	}, nil
}

// Refresh rotates a refresh token. The old token is revoked in the same
// transaction that records the new one, so a replayed token always fails.
func (s *Service) Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	parts := strings.SplitN(req.RefreshToken, ".", 2)
	if len(parts) != 2 {
		return nil, errutil.Unauthorized("Sessão inválida ou expirada", nil)
	}
	tokenID, secret := parts[0], parts[1]

	stored, err := s.repo.FindOne(ctx, &RefreshToken{ID: tokenID})
	if err != nil {
		zapLog.Error("failed to query refresh token", zap.Error(err))
		return nil, errutil.Internal("Erro ao renovar sessão", err)
	}
	if stored == nil || !stored.Usable(time.Now()) {
		return nil, errutil.Unauthorized("Sessão inválida ou expirada", nil)
	}
	if !security.VerifyArgon2(secret, stored.TokenHash) {
		zapLog.Warn("refresh token hash mismatch", zap.String("token_id", tokenID))
		return nil, errutil.Unauthorized("Sessão inválida ou expirada", nil)
	}

	u, err := s.users.FindOne(ctx, &user.User{ID: stored.UserID})
	if err != nil {
		zapLog.Error("failed to query user", zap.Error(err))
		return nil, errutil.Internal("Erro ao renovar sessão", err)
	}
	if u == nil || !u.IsActive() {
		return nil, errutil.Unauthorized("Sessão inválida ou expirada", nil)
	}

	var pair *TokenPair
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := s.repo.WithTrx(tx).Update(ctx, stored.ID, map[string]any{"revoked_at": now}); err != nil {
			return fmt.Errorf("failed to revoke refresh token: %w", err)
		}

		pair, err = s.issueTokens(ctx, tx, u)
		return err
	}); err != nil {
		zapLog.Error("failed to rotate refresh token", zap.Error(err))
		return nil, errutil.Internal("Erro ao renovar sessão", err)
	}

	return pair, nil
}

// Logout revokes every live refresh token of the user.
func (s *Service) Logout(ctx context.Context, userID string) error {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	err := s.db.WithContext(ctx).
		Model(&RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now()).Error
	if err != nil {
		zap.L().Error("failed to revoke refresh tokens", zap.Error(err), zap.String("user_id", userID))
		return errutil.Internal("Erro ao encerrar sessão", err)
	}

	return nil
}

// Me returns the authenticated user's profile.
func (s *Service) Me(ctx context.Context, userID string) (*user.User, error) {
	u, err := s.users.FindOne(ctx, &user.User{ID: userID})
	if err != nil {
		zap.L().Error("failed to query user", zap.Error(err))
		return nil, errutil.Internal("Erro ao buscar perfil", err)
	}
	if u == nil {
		return nil, errutil.NotFound("Usuário não encontrado", nil)
	}
	return u, nil
}
