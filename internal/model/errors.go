package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, record, system
	Action   string // ユーザー向け対処方法

	// cause はログ出力専用の内部原因。レスポンスには含めない。
	cause error
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は内部原因を返す。
func (e *APIError) Unwrap() error {
	return e.cause
}

// 定義済みエラーコード
const (
	ErrCodeUnauthenticated    = "UNAUTHENTICATED"
	ErrCodeForbiddenRole      = "FORBIDDEN_ROLE"
	ErrCodeForbiddenOwnership = "FORBIDDEN_OWNERSHIP"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeAuthentication     = "AUTHENTICATION_ERROR"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
)

// NewUnauthenticatedError は未ログインエラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "You must be logged in to perform this action",
		Category: "auth",
		Action:   "Log in and retry with a bearer token.",
	}
}

// NewForbiddenRoleError はロール不足エラーを生成する。
func NewForbiddenRoleError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeForbiddenRole,
		Message:  message,
		Category: "auth",
		Action:   "Use an account with the required role.",
	}
}

// NewForbiddenOwnershipError は所有者不一致エラーを生成する。
// 対象が存在しない場合にも同じエラーを返し、存在有無を漏らさない。
func NewForbiddenOwnershipError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeForbiddenOwnership,
		Message:  message,
		Category: "auth",
		Action:   "Only the operator who created the record can change it.",
	}
}

// NewValidationError は入力値エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "Fix the highlighted field and retry.",
	}
}

// NewNotFoundError はレコード未検出エラーを生成する。
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("%s not found: %s", resource, id),
		Category: "record",
		Action:   "Check the identifier.",
	}
}

// NewConflictError は一意制約違反や状態競合のエラーを生成する。
func NewConflictError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeConflict,
		Message:  message,
		Category: "record",
		Action:   "Reload the record and retry.",
	}
}

// NewAuthenticationError はログイン失敗エラーを生成する。
// ユーザー名不一致とパスワード不一致を区別しない。
func NewAuthenticationError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthentication,
		Message:  "Invalid credentials",
		Category: "auth",
		Action:   "Check the username and password.",
	}
}

// NewInternalError は内部エラーを生成する。
// causeはログにのみ記録され、レスポンスには一般的なメッセージのみを返す。
func NewInternalError(cause error) *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "An internal error occurred",
		Category: "system",
		Action:   "Please retry later.",
		cause:    cause,
	}
}
