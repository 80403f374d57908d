package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/eventgate/internal/model"
)

const bearerPrefix = "Bearer "

// TokenConfig はトークンの署名と検証の設定。
type TokenConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	// Now は現在時刻を返す。nilの場合はtime.Now。
	Now func() time.Time
}

func (c TokenConfig) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// tokenClaims はJWTのペイロード。subにユーザーIDを格納する。
type tokenClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
	UnitCode string `json:"unit_code,omitempty"`
}

// TokenIssuer はログイン成功時にHS256署名のトークンを発行する。
type TokenIssuer struct {
	cfg TokenConfig
}

// NewTokenIssuer はTokenIssuerを生成する。
func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	return &TokenIssuer{cfg: cfg}
}

// Issue はユーザーのトークンと有効期限を返す。
func (i *TokenIssuer) Issue(user *model.User) (string, time.Time, error) {
	if len(i.cfg.Secret) == 0 {
		return "", time.Time{}, errors.New("token secret is not configured")
	}
	now := i.cfg.now()
	expiresAt := now.Add(i.cfg.TTL)

	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    i.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username: user.Username,
		Role:     string(user.Role),
		UnitCode: user.UnitCode,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// TokenVerifier はAuthorizationヘッダーの値から呼び出し元を復元する。
// バックエンドへの問い合わせは行わない。
type TokenVerifier struct {
	cfg TokenConfig
}

// NewTokenVerifier はTokenVerifierを生成する。
func NewTokenVerifier(cfg TokenConfig) *TokenVerifier {
	return &TokenVerifier{cfg: cfg}
}

// Verify はヘッダー値を検証し、Identityを返す。
// 空、署名不正、期限切れ、発行者不一致、未知のロールのいずれもnilを返し、エラーにはしない。
func (v *TokenVerifier) Verify(rawHeader string) *model.Identity {
	raw := strings.TrimSpace(rawHeader)
	if raw == "" {
		return nil
	}
	raw = strings.TrimSpace(strings.TrimPrefix(raw, bearerPrefix))
	if raw == "" || len(v.cfg.Secret) == 0 {
		return nil
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.cfg.now),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.cfg.Secret, nil
	}, opts...)
	if err != nil {
		slog.Debug("bearer token rejected", slog.String("reason", err.Error()))
		return nil
	}

	if claims.Subject == "" {
		return nil
	}

	role, err := model.ParseRole(claims.Role)
	if err != nil {
		slog.Warn("token carries unknown role",
			slog.String("user_id", claims.Subject),
			slog.String("role", claims.Role),
		)
		return nil
	}

	return &model.Identity{
		ID:       claims.Subject,
		Username: claims.Username,
		Role:     role,
		UnitCode: claims.UnitCode,
	}
}
