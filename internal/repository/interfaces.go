// Package repository はバックエンドゲートウェイのインターフェースと
// PostgreSQLによる実装を定義する。
//
// 見つからない場合はnil（およびnilエラー）を返し、一意制約違反はErrConflictでラップする。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/eventgate/internal/model"
)

// ErrConflict は一意制約違反などでバックエンドが書き込みを拒否したことを示す。
var ErrConflict = errors.New("repository: conflict")

// ErrNotFound は条件付き更新の対象が存在しなかったことを示す。
// 読み取り系のメソッドは使わず、nilを返す。
var ErrNotFound = errors.New("repository: not found")

// UserRepository はアカウントデータへのアクセスインターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsername はユーザー名でユーザーを取得する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成する。ユーザー名が重複する場合はErrConflictを返す。
	Create(ctx context.Context, user *model.User) error
}

// ReferenceRepository は参照データ（州、市、イベントカテゴリ）の読み取りインターフェース。
type ReferenceRepository interface {
	ListProvinces(ctx context.Context) ([]*model.Province, error)
	FindProvinceByID(ctx context.Context, id int) (*model.Province, error)

	// ListCities は指定州に属する市の一覧を返す。
	ListCities(ctx context.Context, provinceID int) ([]*model.City, error)
	FindCityByID(ctx context.Context, id int) (*model.City, error)

	// ListCategories はカテゴリ一覧を返す。isActiveがnilの場合は全件を返す。
	ListCategories(ctx context.Context, isActive *bool) ([]*model.Category, error)
	FindCategoryByID(ctx context.Context, id int) (*model.Category, error)
}

// EventPermissionRepository はイベント許可申請の永続化インターフェース。
type EventPermissionRepository interface {
	// FindByID は指定IDの申請を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.EventPermission, error)

	// List はページネーション条件で申請を取得する。
	// ownerIDが空でない場合はその所有者の申請に限定する。
	List(ctx context.Context, p model.Pagination, ownerID string) (*model.EventPermissionList, error)

	// ListUnverified は未検証（verified_at IS NULL）の申請のみを取得する。
	ListUnverified(ctx context.Context, p model.Pagination) (*model.EventPermissionList, error)

	// Create は申請と初期登壇者を同一トランザクションで作成し、保存後のレコードを返す。
	Create(ctx context.Context, ep *model.EventPermission, speakers []model.SpeakerInput) (*model.EventPermission, error)

	// Update は申請の編集可能フィールドを更新し、保存後のレコードを返す。
	// speakersがnilでない場合は登壇者一覧を置き換える。見つからない場合はnilを返す。
	Update(ctx context.Context, ep *model.EventPermission, speakers []model.SpeakerInput) (*model.EventPermission, error)

	// Delete は申請を削除する。登壇者はCASCADE削除される。
	// 削除対象が存在した場合にtrueを返す。
	Delete(ctx context.Context, id string) (bool, error)

	// MarkVerified は未検証の申請に検証者と検証日時を記録する。
	// 既に検証済みの場合はnil、申請が存在しない場合はErrNotFoundを返す。
	MarkVerified(ctx context.Context, id, verifiedBy string, verifiedAt time.Time) (*model.EventPermission, error)
}

// SpeakerRepository は登壇者の永続化インターフェース。操作はすべて親申請IDでスコープされる。
type SpeakerRepository interface {
	// ListByEventID は申請の登壇者をID順に返す。
	ListByEventID(ctx context.Context, eventID string) ([]*model.Speaker, error)

	// FindByID は申請に属する登壇者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, eventID string, id int) (*model.Speaker, error)

	Create(ctx context.Context, eventID string, in model.SpeakerInput) (*model.Speaker, error)

	// Update は登壇者を更新する。見つからない場合はnilを返す。
	Update(ctx context.Context, eventID string, id int, in model.SpeakerInput) (*model.Speaker, error)

	// Delete は登壇者を削除する。削除対象が存在した場合にtrueを返す。
	Delete(ctx context.Context, eventID string, id int) (bool, error)
}
