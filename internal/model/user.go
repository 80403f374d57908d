// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
	"time"
)

// Role はアカウントのロールを表す。OPERATORとVERIFIKATORのみが有効な値。
type Role string

const (
	// RoleOperator は自分のイベント許可申請を作成・更新・削除できるロール。
	RoleOperator Role = "OPERATOR"
	// RoleVerifikator は未検証の申請を一覧し、検証済みにできるロール。
	RoleVerifikator Role = "VERIFIKATOR"
)

// ParseRole は文字列をRoleに変換する。大文字小文字は区別しない。
// 列挙外の値は設定ミスとしてエラーを返す。
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(RoleOperator):
		return RoleOperator, nil
	case string(RoleVerifikator):
		return RoleVerifikator, nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// Valid はRoleが列挙値のいずれかであるかを返す。
func (r Role) Valid() bool {
	switch r {
	case RoleOperator, RoleVerifikator:
		return true
	default:
		return false
	}
}

// User はゲートウェイを利用するアカウントを表す。
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	UnitCode     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity はベアラートークンから復元した呼び出し元の情報。
// リクエスト単位の値であり、永続化しない。
type Identity struct {
	ID       string
	Username string
	Role     Role
	UnitCode string
}

// LoginInput はログインリクエストの入力。
type LoginInput struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Password string `json:"password" validate:"required,min=6"`
}
