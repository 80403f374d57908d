package app

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/eventgate/internal/model"
	"github.com/hitoshi/eventgate/internal/repository"
)

type mockUserRepo struct {
	createFn func(ctx context.Context, user *model.User) error
	created  []*model.User
}

func (m *mockUserRepo) FindByID(context.Context, string) (*model.User, error) { return nil, nil }

func (m *mockUserRepo) FindByUsername(context.Context, string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		if err := m.createFn(ctx, user); err != nil {
			return err
		}
	}
	m.created = append(m.created, user)
	return nil
}

func TestSeedUsers_CreatesAllAccounts(t *testing.T) {
	repo := &mockUserRepo{}

	n, err := seedUsers(context.Background(), repo, "password123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n != len(seedAccounts) {
		t.Errorf("created = %d, want %d", n, len(seedAccounts))
	}

	roles := map[model.Role]int{}
	for _, u := range repo.created {
		roles[u.Role]++
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")); err != nil {
			t.Errorf("%s: パスワードハッシュが一致しない: %v", u.Username, err)
		}
		if u.UnitCode == "" {
			t.Errorf("%s: unit_codeが空", u.Username)
		}
	}
	if roles[model.RoleOperator] != 5 || roles[model.RoleVerifikator] != 3 {
		t.Errorf("roles = %v, want 5 OPERATOR / 3 VERIFIKATOR", roles)
	}
}

func TestSeedUsers_SkipsExisting(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(_ context.Context, u *model.User) error {
			if u.Username == "verifikator_jakarta" {
				return repository.ErrConflict
			}
			return nil
		},
	}

	n, err := seedUsers(context.Background(), repo, "password123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n != len(seedAccounts)-1 {
		t.Errorf("created = %d, want %d", n, len(seedAccounts)-1)
	}
}

func TestSeedUsers_BackendError(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(context.Context, *model.User) error {
			return errors.New("connection reset")
		},
	}

	if _, err := seedUsers(context.Background(), repo, "password123"); err == nil {
		t.Fatal("expected error, got nil")
	}
}
