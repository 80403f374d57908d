package backend

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/hitoshi/eventgate/internal/model"
	"github.com/hitoshi/eventgate/internal/repository"
)

// SpeakerClient は登壇者（pengisi-event）エンドポイントのクライアント。
// メソッド名がClientの申請操作と重なるため、別の型として公開する。
type SpeakerClient struct {
	c *Client
}

var _ repository.SpeakerRepository = (*SpeakerClient)(nil)

// Speakers は同じ接続設定を使うSpeakerClientを返す。
func (c *Client) Speakers() *SpeakerClient {
	return &SpeakerClient{c: c}
}

func speakersPath(eventID string) string {
	return "event-permissions/" + segment(eventID) + "/pengisi-event"
}

func speakerPath(eventID string, id int) string {
	return speakersPath(eventID) + "/" + strconv.Itoa(id)
}

// ListByEventID は申請の登壇者一覧を取得する。
func (s *SpeakerClient) ListByEventID(ctx context.Context, eventID string) ([]*model.Speaker, error) {
	var out []speakerJSON
	err := s.c.do(ctx, http.MethodGet, speakersPath(eventID), nil, nil, &out)
	if errors.Is(err, errNotFound) {
		return []*model.Speaker{}, nil
	}
	if err != nil {
		return nil, err
	}
	list := make([]*model.Speaker, 0, len(out))
	for i := range out {
		list = append(list, out[i].toModel())
	}
	return list, nil
}

// FindByID は登壇者を1件取得する。見つからない場合はnilを返す。
func (s *SpeakerClient) FindByID(ctx context.Context, eventID string, id int) (*model.Speaker, error) {
	var out speakerJSON
	err := s.c.do(ctx, http.MethodGet, speakerPath(eventID, id), nil, nil, &out)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out.toModel(), nil
}

// Create は登壇者を追加する。親申請がない場合はrepository.ErrInvalidReferenceを返す。
func (s *SpeakerClient) Create(ctx context.Context, eventID string, in model.SpeakerInput) (*model.Speaker, error) {
	body := speakerJSON{SpeakerName: in.SpeakerName, TopicTitle: in.TopicTitle}
	var out speakerJSON
	if err := s.c.do(ctx, http.MethodPost, speakersPath(eventID), nil, body, &out); err != nil {
		if errors.Is(err, errNotFound) {
			// 親申請が存在しない
			return nil, repository.ErrInvalidReference
		}
		return nil, err
	}
	return out.toModel(), nil
}

// Update は登壇者を更新する。見つからない場合はnilを返す。
func (s *SpeakerClient) Update(ctx context.Context, eventID string, id int, in model.SpeakerInput) (*model.Speaker, error) {
	body := speakerJSON{SpeakerName: in.SpeakerName, TopicTitle: in.TopicTitle}
	var out speakerJSON
	err := s.c.do(ctx, http.MethodPatch, speakerPath(eventID, id), nil, body, &out)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out.toModel(), nil
}

// Delete は登壇者を削除する。
func (s *SpeakerClient) Delete(ctx context.Context, eventID string, id int) (bool, error) {
	err := s.c.do(ctx, http.MethodDelete, speakerPath(eventID, id), nil, nil, nil)
	if errors.Is(err, errNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
