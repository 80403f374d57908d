// Package auth はトークンの発行と検証、ログイン処理を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/eventgate/internal/model"
	"github.com/hitoshi/eventgate/internal/policy"
	"github.com/hitoshi/eventgate/internal/repository"
	"github.com/hitoshi/eventgate/internal/validator"
)

// LoginResult はログイン成功時の結果。
type LoginResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// Service はアカウントに関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	issuer   *TokenIssuer
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, issuer *TokenIssuer) *Service {
	return &Service{
		userRepo: userRepo,
		issuer:   issuer,
	}
}

// Login はユーザー名とパスワードを照合し、トークンを発行する。
// ユーザーが存在しない場合とパスワード不一致の場合は同じAUTHENTICATION_ERRORを返す。
func (s *Service) Login(ctx context.Context, in model.LoginInput) (*LoginResult, error) {
	if err := validator.Validate(ctx, in); err != nil {
		return nil, model.NewValidationError(err.Error())
	}

	user, err := s.userRepo.FindByUsername(ctx, in.Username)
	if err != nil {
		return nil, model.NewInternalError(fmt.Errorf("failed to find user: %w", err))
	}
	if user == nil {
		slog.Info("login failed", slog.String("username", in.Username), slog.String("reason", "unknown_user"))
		return nil, model.NewAuthenticationError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		slog.Info("login failed", slog.String("username", in.Username), slog.String("reason", "password_mismatch"))
		return nil, model.NewAuthenticationError()
	}

	token, expiresAt, err := s.issuer.Issue(user)
	if err != nil {
		return nil, model.NewInternalError(err)
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)

	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Me は呼び出し元のアカウントを返す。
func (s *Service) Me(ctx context.Context, identity *model.Identity) (*model.User, error) {
	if err := policy.Decide(identity, policy.OpAccountMe, nil).Err(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, identity.ID)
	if err != nil {
		return nil, model.NewInternalError(fmt.Errorf("failed to find user: %w", err))
	}
	if user == nil {
		return nil, model.NewNotFoundError("user", identity.ID)
	}
	return user, nil
}

// HashPassword はパスワードをbcryptでハッシュ化する。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
