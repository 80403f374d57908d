package eventpermission

import (
	"context"

	"github.com/hitoshi/eventgate/internal/model"
	"github.com/hitoshi/eventgate/internal/policy"
)

// ListProvinces は州の一覧を返す。
func (d *Dispatcher) ListProvinces(ctx context.Context, identity *model.Identity) (_ []*model.Province, err error) {
	op := policy.OpReferenceList
	defer d.observe(op, &err)

	if err := policy.Decide(identity, op, nil).Err(); err != nil {
		return nil, err
	}

	var list []*model.Province
	err = d.call(op, func() (err error) {
		list, err = d.refs.ListProvinces(ctx)
		return err
	})
	if err != nil {
		return nil, d.backendError(err)
	}
	if list == nil {
		list = []*model.Province{}
	}
	return list, nil
}

// ListCities は州に属する市の一覧を返す。州が存在しない場合は空の一覧を返す。
func (d *Dispatcher) ListCities(ctx context.Context, identity *model.Identity, provinceID int) (_ []*model.City, err error) {
	op := policy.OpReferenceList
	defer d.observe(op, &err)

	if err := policy.Decide(identity, op, nil).Err(); err != nil {
		return nil, err
	}
	if provinceID < 1 {
		return nil, model.NewValidationError("province_id must be a positive integer")
	}

	var list []*model.City
	err = d.call(op, func() (err error) {
		list, err = d.refs.ListCities(ctx, provinceID)
		return err
	})
	if err != nil {
		return nil, d.backendError(err)
	}
	if list == nil {
		list = []*model.City{}
	}
	return list, nil
}

// ListCategories はイベントカテゴリの一覧を返す。isActiveがnilの場合は全件を返す。
func (d *Dispatcher) ListCategories(ctx context.Context, identity *model.Identity, isActive *bool) (_ []*model.Category, err error) {
	op := policy.OpReferenceList
	defer d.observe(op, &err)

	if err := policy.Decide(identity, op, nil).Err(); err != nil {
		return nil, err
	}

	var list []*model.Category
	err = d.call(op, func() (err error) {
		list, err = d.refs.ListCategories(ctx, isActive)
		return err
	})
	if err != nil {
		return nil, d.backendError(err)
	}
	if list == nil {
		list = []*model.Category{}
	}
	return list, nil
}
