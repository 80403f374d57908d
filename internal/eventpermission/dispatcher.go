// Package eventpermission はイベント許可申請と登壇者のオペレーションを
// アクセスポリシーに従ってバックエンドへ振り分ける。
//
// 所有者チェックは「取得 → 判定 → 実行」の順で行い、原子的ではない。
// 取得後に所有者自身が別リクエストで削除・更新した場合の競合は許容し、
// 単一レコードの整合性はバックエンドのストレージに委ねる。
package eventpermission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/eventgate/internal/metrics"
	"github.com/hitoshi/eventgate/internal/model"
	"github.com/hitoshi/eventgate/internal/policy"
	"github.com/hitoshi/eventgate/internal/repository"
	"github.com/hitoshi/eventgate/internal/security"
	"github.com/hitoshi/eventgate/internal/validator"
)

// Dispatcher は申請オペレーションの認可、入力検証、バックエンド呼び出しを行う。
type Dispatcher struct {
	events    repository.EventPermissionRepository
	speakers  repository.SpeakerRepository
	refs      repository.ReferenceRepository
	sanitizer security.Sanitizer
	metrics   metrics.MetricsCollector
	now       func() time.Time
}

// NewDispatcher はDispatcherを生成する。
func NewDispatcher(
	events repository.EventPermissionRepository,
	speakers repository.SpeakerRepository,
	refs repository.ReferenceRepository,
	sanitizer security.Sanitizer,
	collector metrics.MetricsCollector,
) *Dispatcher {
	return &Dispatcher{
		events:    events,
		speakers:  speakers,
		refs:      refs,
		sanitizer: sanitizer,
		metrics:   collector,
		now:       time.Now,
	}
}

// List は申請一覧を返す。ownerFilterが空でない場合はその所有者の申請に限定する。
func (d *Dispatcher) List(ctx context.Context, identity *model.Identity, in *model.PaginationInput, ownerFilter string) (_ *model.EventPermissionList, err error) {
	op := policy.OpEventPermissionList
	defer d.observe(op, &err)

	if err := policy.Decide(identity, op, nil).Err(); err != nil {
		return nil, err
	}
	p, err := resolvePagination(ctx, in)
	if err != nil {
		return nil, err
	}

	var list *model.EventPermissionList
	err = d.call(op, func() (err error) {
		list, err = d.events.List(ctx, p, ownerFilter)
		return err
	})
	if err != nil {
		return nil, d.backendError(err)
	}
	return normalizeList(list), nil
}

// Get は申請を1件返す。ownerFilterが空でなく所有者が異なる場合は見つからない扱いにする。
func (d *Dispatcher) Get(ctx context.Context, identity *model.Identity, id, ownerFilter string) (_ *model.EventPermission, err error) {
	op := policy.OpEventPermissionGet
	defer d.observe(op, &err)

	if err := policy.Decide(identity, op, nil).Err(); err != nil {
		return nil, err
	}

	ep, err := d.find(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if ep == nil || (ownerFilter != "" && ep.OwnerID != ownerFilter) {
		return nil, model.NewNotFoundError("event permission", id)
	}
	return ep, nil
}

// ListForVerification は未検証の申請一覧を返す。
// 未検証の条件は呼び出し元が上書きできず、バックエンドが検証済みを返しても除外する。
func (d *Dispatcher) ListForVerification(ctx context.Context, identity *model.Identity, in *model.PaginationInput) (_ *model.EventPermissionList, err error) {
	op := policy.OpEventPermissionListForVerification
	defer d.observe(op, &err)

	if err := policy.Decide(identity, op, nil).Err(); err != nil {
		return nil, err
	}
	p, err := resolvePagination(ctx, in)
	if err != nil {
		return nil, err
	}

	var list *model.EventPermissionList
	err = d.call(op, func() (err error) {
		list, err = d.events.ListUnverified(ctx, p)
		return err
	})
	if err != nil {
		return nil, d.backendError(err)
	}

	list = normalizeList(list)
	unverified := list.Data[:0:0]
	for _, ep := range list.Data {
		if ep.IsVerified() {
			slog.Warn("backend returned verified record in verification list",
				slog.String("event_permission_id", ep.ID),
			)
			continue
		}
		unverified = append(unverified, ep)
	}
	list.Data = unverified
	return list, nil
}

// Create は呼び出し元を所有者として申請を作成する。入力のspeakersも同時に作成する。
func (d *Dispatcher) Create(ctx context.Context, identity *model.Identity, in model.EventPermissionInput) (_ *model.EventPermission, err error) {
	op := policy.OpEventPermissionCreate
	defer d.observe(op, &err)

	if err := policy.Decide(identity, op, nil).Err(); err != nil {
		return nil, err
	}
	if err := d.validateInput(ctx, &in); err != nil {
		return nil, err
	}

	ep := &model.EventPermission{OwnerID: identity.ID}
	ep.Apply(in)

	var created *model.EventPermission
	err = d.call(op, func() (err error) {
		created, err = d.events.Create(ctx, ep, in.Speakers)
		return err
	})
	if err != nil {
		return nil, d.backendError(err)
	}

	slog.Info("event permission created",
		slog.String("event_permission_id", created.ID),
		slog.String("owner_id", created.OwnerID),
	)
	return created, nil
}

// Update は所有者による申請の更新を行う。検証済みの申請は更新できない。
// in.Speakersがnilでない場合は登壇者一覧を置き換える。
func (d *Dispatcher) Update(ctx context.Context, identity *model.Identity, id string, in model.EventPermissionInput) (_ *model.EventPermission, err error) {
	op := policy.OpEventPermissionUpdate
	defer d.observe(op, &err)

	current, err := d.authorizeOwned(ctx, identity, op, id)
	if err != nil {
		return nil, err
	}
	if current.IsVerified() {
		return nil, model.NewConflictError("Verified event permissions can no longer be changed")
	}
	if err := d.validateInput(ctx, &in); err != nil {
		return nil, err
	}

	current.Apply(in)

	var updated *model.EventPermission
	err = d.call(op, func() (err error) {
		updated, err = d.events.Update(ctx, current, in.Speakers)
		return err
	})
	if err != nil {
		return nil, d.backendError(err)
	}
	if updated == nil {
		// 取得後に削除された
		return nil, model.NewNotFoundError("event permission", id)
	}
	return updated, nil
}

// Delete は所有者による申請の削除を行う。検証済みの申請も削除できる。
func (d *Dispatcher) Delete(ctx context.Context, identity *model.Identity, id string) (err error) {
	op := policy.OpEventPermissionDelete
	defer d.observe(op, &err)

	if _, err := d.authorizeOwned(ctx, identity, op, id); err != nil {
		return err
	}

	var deleted bool
	err = d.call(op, func() (err error) {
		deleted, err = d.events.Delete(ctx, id)
		return err
	})
	if err != nil {
		return d.backendError(err)
	}
	if !deleted {
		return model.NewNotFoundError("event permission", id)
	}

	slog.Info("event permission deleted",
		slog.String("event_permission_id", id),
		slog.String("owner_id", identity.ID),
	)
	return nil
}

// Verify は申請を検証済みにする。検証者と検証日時はサーバー側で設定する。
// 検証済みの申請の再検証はCONFLICTとして拒否する。
func (d *Dispatcher) Verify(ctx context.Context, identity *model.Identity, id string) (_ *model.EventPermission, err error) {
	op := policy.OpEventPermissionVerify
	defer d.observe(op, &err)

	if err := policy.Decide(identity, op, nil).Err(); err != nil {
		return nil, err
	}

	current, err := d.find(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, model.NewNotFoundError("event permission", id)
	}
	if current.IsVerified() {
		return nil, model.NewConflictError("Event permission is already verified")
	}

	verifiedAt := d.now().UTC()
	var verified *model.EventPermission
	err = d.call(op, func() (err error) {
		verified, err = d.events.MarkVerified(ctx, id, identity.Username, verifiedAt)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		// 取得後に削除された
		return nil, model.NewNotFoundError("event permission", id)
	}
	if err != nil {
		return nil, d.backendError(err)
	}
	if verified == nil {
		// 同時に別の検証者が検証した
		return nil, model.NewConflictError("Event permission is already verified")
	}

	slog.Info("event permission verified",
		slog.String("event_permission_id", id),
		slog.String("verified_by", identity.Username),
	)
	return verified, nil
}

// authorizeOwned は所有者チェックが必要なオペレーションの認可を行い、対象を返す。
// 対象が存在しない場合も所有者不一致と同じエラーにする。
func (d *Dispatcher) authorizeOwned(ctx context.Context, identity *model.Identity, op policy.Operation, id string) (*model.EventPermission, error) {
	if err := policy.Authorize(identity, op).Err(); err != nil {
		return nil, err
	}

	current, err := d.find(ctx, op, id)
	if err != nil {
		return nil, err
	}

	var owner *string
	if current != nil {
		owner = &current.OwnerID
	}
	if err := policy.Decide(identity, op, owner).Err(); err != nil {
		slog.Info("ownership check denied",
			slog.String("operation", string(op)),
			slog.String("user_id", identity.ID),
			slog.String("event_permission_id", id),
			slog.Bool("found", current != nil),
		)
		return nil, err
	}
	return current, nil
}

// find は申請を取得する。UUIDでないIDはバックエンドに問い合わせず、存在しないものとして扱う。
func (d *Dispatcher) find(ctx context.Context, op policy.Operation, id string) (*model.EventPermission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	var ep *model.EventPermission
	err := d.call(op, func() (err error) {
		ep, err = d.events.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, d.backendError(err)
	}
	return ep, nil
}

// validateInput は入力を検証する。説明文はサニタイズで書き換わる場合に拒否し、
// 受け付けた値はそのまま保存する。
// 参照データ（州、市、カテゴリ）の存在と州・市の整合性も確認する。
func (d *Dispatcher) validateInput(ctx context.Context, in *model.EventPermissionInput) error {
	if err := validator.Validate(ctx, in); err != nil {
		return model.NewValidationError(err.Error())
	}

	if in.Description != nil && !d.sanitizer.Safe(*in.Description) {
		return model.NewValidationError("Description contains HTML that is not allowed: description")
	}

	province, err := d.refs.FindProvinceByID(ctx, in.ProvinceID)
	if err != nil {
		return model.NewInternalError(fmt.Errorf("failed to find province: %w", err))
	}
	if province == nil {
		return model.NewValidationError(fmt.Sprintf("Province does not exist: province_id %d", in.ProvinceID))
	}

	city, err := d.refs.FindCityByID(ctx, in.CityID)
	if err != nil {
		return model.NewInternalError(fmt.Errorf("failed to find city: %w", err))
	}
	if city == nil || city.ProvinceID != in.ProvinceID {
		return model.NewValidationError(fmt.Sprintf("City does not belong to the province: city_id %d", in.CityID))
	}

	if in.CategoryID != nil {
		category, err := d.refs.FindCategoryByID(ctx, *in.CategoryID)
		if err != nil {
			return model.NewInternalError(fmt.Errorf("failed to find category: %w", err))
		}
		if category == nil {
			return model.NewValidationError(fmt.Sprintf("Event category does not exist: category_id %d", *in.CategoryID))
		}
	}
	return nil
}

// call はバックエンド呼び出しのレイテンシを記録する。
func (d *Dispatcher) call(op policy.Operation, fn func() error) error {
	start := time.Now()
	err := fn()
	d.metrics.ObserveBackendLatency(string(op), time.Since(start))
	return err
}

// backendError はバックエンドのエラーを呼び出し元向けのAPIErrorに変換する。
// 内部のエラー文言はレスポンスに含めない。
func (d *Dispatcher) backendError(err error) error {
	var apiErr *model.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, repository.ErrConflict):
		return model.NewConflictError("The record conflicts with existing data")
	case errors.Is(err, repository.ErrInvalidReference):
		return model.NewValidationError("Referenced province, city or category does not exist")
	default:
		return model.NewInternalError(err)
	}
}

// observe はオペレーションの結果をメトリクスに記録する。
func (d *Dispatcher) observe(op policy.Operation, errp *error) {
	d.metrics.RecordOperation(string(op), outcomeOf(*errp))
}

func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		return metrics.OutcomeError
	}
	switch apiErr.Code {
	case model.ErrCodeUnauthenticated, model.ErrCodeForbiddenRole, model.ErrCodeForbiddenOwnership:
		return metrics.OutcomeDenied
	case model.ErrCodeValidation, model.ErrCodeNotFound, model.ErrCodeConflict:
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

func validateSpeaker(ctx context.Context, in *model.SpeakerInput) error {
	if err := validator.Validate(ctx, in); err != nil {
		return model.NewValidationError(err.Error())
	}
	return nil
}

func resolvePagination(ctx context.Context, in *model.PaginationInput) (model.Pagination, error) {
	p := in.Resolve()
	if err := validator.Validate(ctx, p); err != nil {
		return p, model.NewValidationError(err.Error())
	}
	return p, nil
}

// normalizeList はnilの結果を空の一覧に揃える。
func normalizeList(list *model.EventPermissionList) *model.EventPermissionList {
	if list == nil {
		return &model.EventPermissionList{Data: []*model.EventPermission{}}
	}
	if list.Data == nil {
		list.Data = []*model.EventPermission{}
	}
	return list
}
