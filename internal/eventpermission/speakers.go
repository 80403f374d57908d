package eventpermission

import (
	"context"
	"strconv"

	"github.com/hitoshi/eventgate/internal/model"
	"github.com/hitoshi/eventgate/internal/policy"
)

// ListSpeakers は申請の登壇者一覧を返す。申請が存在しない場合はNOT_FOUND。
func (d *Dispatcher) ListSpeakers(ctx context.Context, identity *model.Identity, eventID string) (_ []*model.Speaker, err error) {
	op := policy.OpSpeakerList
	defer d.observe(op, &err)

	if err := policy.Decide(identity, op, nil).Err(); err != nil {
		return nil, err
	}
	parent, err := d.find(ctx, op, eventID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, model.NewNotFoundError("event permission", eventID)
	}

	var list []*model.Speaker
	err = d.call(op, func() (err error) {
		list, err = d.speakers.ListByEventID(ctx, eventID)
		return err
	})
	if err != nil {
		return nil, d.backendError(err)
	}
	if list == nil {
		list = []*model.Speaker{}
	}
	return list, nil
}

// CreateSpeaker は親申請の所有者として登壇者を追加する。
func (d *Dispatcher) CreateSpeaker(ctx context.Context, identity *model.Identity, eventID string, in model.SpeakerInput) (_ *model.Speaker, err error) {
	op := policy.OpSpeakerCreate
	defer d.observe(op, &err)

	if err := d.authorizeSpeakerChange(ctx, identity, op, eventID, &in); err != nil {
		return nil, err
	}

	var created *model.Speaker
	err = d.call(op, func() (err error) {
		created, err = d.speakers.Create(ctx, eventID, in)
		return err
	})
	if err != nil {
		return nil, d.backendError(err)
	}
	return created, nil
}

// UpdateSpeaker は親申請の所有者として登壇者を更新する。
func (d *Dispatcher) UpdateSpeaker(ctx context.Context, identity *model.Identity, eventID string, speakerID int, in model.SpeakerInput) (_ *model.Speaker, err error) {
	op := policy.OpSpeakerUpdate
	defer d.observe(op, &err)

	if err := d.authorizeSpeakerChange(ctx, identity, op, eventID, &in); err != nil {
		return nil, err
	}

	var updated *model.Speaker
	err = d.call(op, func() (err error) {
		updated, err = d.speakers.Update(ctx, eventID, speakerID, in)
		return err
	})
	if err != nil {
		return nil, d.backendError(err)
	}
	if updated == nil {
		return nil, model.NewNotFoundError("speaker", strconv.Itoa(speakerID))
	}
	return updated, nil
}

// DeleteSpeaker は親申請の所有者として登壇者を削除する。
func (d *Dispatcher) DeleteSpeaker(ctx context.Context, identity *model.Identity, eventID string, speakerID int) (err error) {
	op := policy.OpSpeakerDelete
	defer d.observe(op, &err)

	if err := d.authorizeSpeakerChange(ctx, identity, op, eventID, nil); err != nil {
		return err
	}

	var deleted bool
	err = d.call(op, func() (err error) {
		deleted, err = d.speakers.Delete(ctx, eventID, speakerID)
		return err
	})
	if err != nil {
		return d.backendError(err)
	}
	if !deleted {
		return model.NewNotFoundError("speaker", strconv.Itoa(speakerID))
	}
	return nil
}

// authorizeSpeakerChange は親申請の所有者チェックと入力検証を行う。
// 検証済みの申請の登壇者は変更できない。
func (d *Dispatcher) authorizeSpeakerChange(ctx context.Context, identity *model.Identity, op policy.Operation, eventID string, in *model.SpeakerInput) error {
	parent, err := d.authorizeOwned(ctx, identity, op, eventID)
	if err != nil {
		return err
	}
	if parent.IsVerified() {
		return model.NewConflictError("Speakers of a verified event permission can no longer be changed")
	}
	if in != nil {
		if err := validateSpeaker(ctx, in); err != nil {
			return err
		}
	}
	return nil
}
