package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hitoshi/eventgate/internal/model"
	"github.com/hitoshi/eventgate/internal/repository"
)

var _ repository.EventPermissionRepository = (*Client)(nil)

// FindByID は申請を1件取得する。
func (c *Client) FindByID(ctx context.Context, id string) (*model.EventPermission, error) {
	var out eventPermissionJSON
	err := c.do(ctx, http.MethodGet, "event-permissions/"+segment(id), nil, nil, &out)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out.toModel(), nil
}

// List は申請一覧を取得する。
func (c *Client) List(ctx context.Context, p model.Pagination, ownerID string) (*model.EventPermissionList, error) {
	q := paginationQuery(p)
	if ownerID != "" {
		q.Set("user_id", ownerID)
	}
	return c.list(ctx, "event-permissions", q)
}

// ListUnverified は未検証の申請一覧を取得する。verified=falseは常に付与する。
func (c *Client) ListUnverified(ctx context.Context, p model.Pagination) (*model.EventPermissionList, error) {
	q := paginationQuery(p)
	q.Set("verified", "false")
	return c.list(ctx, "event-permissions/verifikasi", q)
}

func (c *Client) list(ctx context.Context, path string, q url.Values) (*model.EventPermissionList, error) {
	var out listJSON
	err := c.do(ctx, http.MethodGet, path, q, nil, &out)
	if errors.Is(err, errNotFound) {
		return &model.EventPermissionList{Data: []*model.EventPermission{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return out.toModel(), nil
}

func paginationQuery(p model.Pagination) url.Values {
	q := url.Values{}
	q.Set("take", strconv.Itoa(p.Take))
	q.Set("skip", strconv.Itoa(p.Skip))
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	q.Set("sort", p.Sort)
	q.Set("sortDirection", p.SortDirection)
	return q
}

// Create は申請と初期登壇者を作成する。
func (c *Client) Create(ctx context.Context, ep *model.EventPermission, speakers []model.SpeakerInput) (*model.EventPermission, error) {
	body := fromEventPermission(ep, speakers)
	var out eventPermissionJSON
	if err := c.do(ctx, http.MethodPost, "event-permissions", nil, body, &out); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, &StatusError{Method: http.MethodPost, Path: "event-permissions", StatusCode: http.StatusNotFound}
		}
		return nil, err
	}
	return out.toModel(), nil
}

// Update は申請を更新する。見つからない場合はnilを返す。
func (c *Client) Update(ctx context.Context, ep *model.EventPermission, speakers []model.SpeakerInput) (*model.EventPermission, error) {
	body := fromEventPermission(ep, speakers)
	// 所有者と検証情報はAPI側で管理するため送らない
	body.ID = ""
	body.OwnerID = ""

	var out eventPermissionJSON
	err := c.do(ctx, http.MethodPatch, "event-permissions/"+segment(ep.ID), nil, body, &out)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out.toModel(), nil
}

// Delete は申請を削除する。
func (c *Client) Delete(ctx context.Context, id string) (bool, error) {
	err := c.do(ctx, http.MethodDelete, "event-permissions/"+segment(id), nil, nil, nil)
	if errors.Is(err, errNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkVerified は申請を検証済みにする。
// APIが409を返した場合は既に検証済みとしてnil、404の場合はrepository.ErrNotFoundを返す。
func (c *Client) MarkVerified(ctx context.Context, id, verifiedBy string, verifiedAt time.Time) (*model.EventPermission, error) {
	body := verifyJSON{VerifiedBy: verifiedBy, VerifiedAt: verifiedAt.UTC()}
	var out eventPermissionJSON
	err := c.do(ctx, http.MethodPatch, "event-permissions/"+segment(id)+"/verify", nil, body, &out)
	if errors.Is(err, errNotFound) {
		return nil, repository.ErrNotFound
	}
	if errors.Is(err, repository.ErrConflict) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out.toModel(), nil
}
