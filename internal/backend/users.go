package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hitoshi/eventgate/internal/model"
	"github.com/hitoshi/eventgate/internal/repository"
)

// UserClient はアカウント（users）エンドポイントのクライアント。
type UserClient struct {
	c *Client
}

var _ repository.UserRepository = (*UserClient)(nil)

// Users は同じ接続設定を使うUserClientを返す。
func (c *Client) Users() *UserClient {
	return &UserClient{c: c}
}

// FindByID はアカウントを取得する。見つからない場合はnilを返す。
func (u *UserClient) FindByID(ctx context.Context, id string) (*model.User, error) {
	return u.find(ctx, "users/"+segment(id))
}

// FindByUsername はユーザー名でアカウントを取得する。見つからない場合はnilを返す。
func (u *UserClient) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return u.find(ctx, "users/by-username/"+segment(username))
}

func (u *UserClient) find(ctx context.Context, path string) (*model.User, error) {
	var out userJSON
	err := u.c.do(ctx, http.MethodGet, path, nil, nil, &out)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user, err := out.toModel()
	if err != nil {
		return nil, fmt.Errorf("invalid user from backend: %w", err)
	}
	return user, nil
}

// Create はアカウントを作成し、採番されたIDとタイムスタンプをuserに反映する。
func (u *UserClient) Create(ctx context.Context, user *model.User) error {
	body := userJSON{
		ID:           user.ID,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		UnitCode:     user.UnitCode,
	}
	var out userJSON
	if err := u.c.do(ctx, http.MethodPost, "users", nil, body, &out); err != nil {
		if errors.Is(err, errNotFound) {
			return &StatusError{Method: http.MethodPost, Path: "users", StatusCode: http.StatusNotFound}
		}
		return err
	}
	if out.ID != "" {
		user.ID = out.ID
	}
	user.CreatedAt = out.CreatedAt
	user.UpdatedAt = out.UpdatedAt
	return nil
}
