// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"

	"github.com/hitoshi/eventgate/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに呼び出し元のIdentityを格納するためのキー。
var identityContextKey = contextKey("identity")

// IdentityVerifier はAuthorizationヘッダーから呼び出し元を復元するインターフェース。
// auth.TokenVerifierが実装する。
type IdentityVerifier interface {
	Verify(rawHeader string) *model.Identity
}

// NewAuthMiddleware はAuthorizationヘッダーを1回だけ検証し、
// 結果のIdentityをリクエストコンテキストに注入するミドルウェアを返す。
// 検証に失敗したリクエストも匿名として通過させ、拒否はオペレーションごとのポリシーに任せる。
func NewAuthMiddleware(verifier IdentityVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := verifier.Verify(r.Header.Get("Authorization"))
			if identity == nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// IdentityFromContext はリクエストコンテキストからIdentityを取得する。
// 匿名リクエストの場合はnilを返す。
func IdentityFromContext(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(identityContextKey).(*model.Identity)
	return identity
}

// ContextWithIdentity はコンテキストにIdentityを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
