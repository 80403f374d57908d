package auth

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/eventgate/internal/model"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn       func(ctx context.Context, id string) (*model.User, error)
	findByUsernameFn func(ctx context.Context, username string) (*model.User, error)
	createFn         func(ctx context.Context, user *model.User) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.findByUsernameFn != nil {
		return m.findByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func hashedUser(t *testing.T, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := testUser()
	u.PasswordHash = string(hash)
	return u
}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v (%T), want *model.APIError", err, err)
	}
	if apiErr.Code != code {
		t.Errorf("Code = %q, want %q", apiErr.Code, code)
	}
}

func TestService_Login_Success(t *testing.T) {
	user := hashedUser(t, "password123")
	repo := &mockUserRepo{
		findByUsernameFn: func(_ context.Context, username string) (*model.User, error) {
			if username == user.Username {
				return user, nil
			}
			return nil, nil
		},
	}
	cfg := testTokenConfig()
	svc := NewService(repo, NewTokenIssuer(cfg))

	res, err := svc.Login(context.Background(), model.LoginInput{Username: user.Username, Password: "password123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.User.ID != user.ID || res.Token == "" {
		t.Errorf("result = %+v", res)
	}

	id := NewTokenVerifier(cfg).Verify("Bearer " + res.Token)
	if id == nil || id.ID != user.ID || id.Role != model.RoleOperator {
		t.Errorf("issued token verifies to %+v", id)
	}
}

// ユーザー不在とパスワード不一致が同じエラーになることを検証する。
func TestService_Login_InvalidCredentials(t *testing.T) {
	user := hashedUser(t, "password123")
	repo := &mockUserRepo{
		findByUsernameFn: func(_ context.Context, username string) (*model.User, error) {
			if username == user.Username {
				return user, nil
			}
			return nil, nil
		},
	}
	svc := NewService(repo, NewTokenIssuer(testTokenConfig()))

	tests := []struct {
		name string
		in   model.LoginInput
	}{
		{"unknown user", model.LoginInput{Username: "nobody_here", Password: "password123"}},
		{"wrong password", model.LoginInput{Username: user.Username, Password: "wrongpass"}},
	}
	var messages []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.in)
			assertAPIErrorCode(t, err, model.ErrCodeAuthentication)
			messages = append(messages, err.Error())
		})
	}
	if len(messages) == 2 && messages[0] != messages[1] {
		t.Errorf("error messages differ: %q vs %q", messages[0], messages[1])
	}
}

func TestService_Login_ValidationError(t *testing.T) {
	called := false
	repo := &mockUserRepo{
		findByUsernameFn: func(context.Context, string) (*model.User, error) {
			called = true
			return nil, nil
		},
	}
	svc := NewService(repo, NewTokenIssuer(testTokenConfig()))

	_, err := svc.Login(context.Background(), model.LoginInput{Username: "ab", Password: "123"})
	assertAPIErrorCode(t, err, model.ErrCodeValidation)
	if called {
		t.Error("repository should not be called for invalid input")
	}
}

func TestService_Login_RepositoryFailure(t *testing.T) {
	repo := &mockUserRepo{
		findByUsernameFn: func(context.Context, string) (*model.User, error) {
			return nil, errors.New("backend down")
		},
	}
	svc := NewService(repo, NewTokenIssuer(testTokenConfig()))

	_, err := svc.Login(context.Background(), model.LoginInput{Username: "operator_x", Password: "password123"})
	assertAPIErrorCode(t, err, model.ErrCodeInternal)
}

func TestService_Me(t *testing.T) {
	user := testUser()
	repo := &mockUserRepo{
		findByIDFn: func(_ context.Context, id string) (*model.User, error) {
			if id == user.ID {
				return user, nil
			}
			return nil, nil
		},
	}
	svc := NewService(repo, NewTokenIssuer(testTokenConfig()))

	t.Run("anonymous", func(t *testing.T) {
		_, err := svc.Me(context.Background(), nil)
		assertAPIErrorCode(t, err, model.ErrCodeUnauthenticated)
	})

	t.Run("known user", func(t *testing.T) {
		got, err := svc.Me(context.Background(), &model.Identity{ID: user.ID, Role: model.RoleOperator})
		if err != nil {
			t.Fatalf("Me: %v", err)
		}
		if got.Username != user.Username {
			t.Errorf("Username = %q", got.Username)
		}
	})

	t.Run("deleted account", func(t *testing.T) {
		_, err := svc.Me(context.Background(), &model.Identity{ID: "gone", Role: model.RoleOperator})
		assertAPIErrorCode(t, err, model.ErrCodeNotFound)
	})
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("password123")) != nil {
		t.Error("hash does not match password")
	}
}
