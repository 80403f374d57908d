package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/eventgate/internal/auth"
	"github.com/hitoshi/eventgate/internal/model"
	"github.com/hitoshi/eventgate/internal/repository"
)

type seedAccount struct {
	username string
	role     model.Role
	unitCode string
}

// seedAccounts は開発用のサンプルアカウント。全員が同じパスワードを持つ。
var seedAccounts = []seedAccount{
	{"operator_jakarta_1", model.RoleOperator, "JAKARTA_01"},
	{"operator_jakarta_2", model.RoleOperator, "JAKARTA_01"},
	{"verifikator_jakarta", model.RoleVerifikator, "JAKARTA_01"},
	{"operator_bandung_1", model.RoleOperator, "BANDUNG_02"},
	{"operator_bandung_2", model.RoleOperator, "BANDUNG_02"},
	{"verifikator_bandung", model.RoleVerifikator, "BANDUNG_02"},
	{"operator_semarang", model.RoleOperator, "SEMARANG_03"},
	{"verifikator_semarang", model.RoleVerifikator, "SEMARANG_03"},
}

// seedUsers はサンプルアカウントを作成し、新規作成した件数を返す。
// 既に存在するユーザー名はスキップする。
func seedUsers(ctx context.Context, users repository.UserRepository, password string) (int, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, a := range seedAccounts {
		u := &model.User{
			Username:     a.username,
			PasswordHash: hash,
			Role:         a.role,
			UnitCode:     a.unitCode,
		}
		err := users.Create(ctx, u)
		if errors.Is(err, repository.ErrConflict) {
			slog.Info("seed user already exists", slog.String("username", a.username))
			continue
		}
		if err != nil {
			return created, fmt.Errorf("failed to seed user %s: %w", a.username, err)
		}
		created++
	}
	return created, nil
}
