package backend

import (
	"time"

	"github.com/hitoshi/eventgate/internal/model"
)

// eventPermissionJSON はREST APIとやり取りする申請の形式。
type eventPermissionJSON struct {
	ID               string     `json:"id,omitempty"`
	EventName        string     `json:"event_name"`
	Organizer        string     `json:"organizer"`
	ParticipantCount int        `json:"participant_count"`
	StartDate        string     `json:"start_date"`
	EndDate          string     `json:"end_date"`
	StartTime        *string    `json:"start_time"`
	EndTime          *string    `json:"end_time"`
	Location         string     `json:"location"`
	ProvinceID       int        `json:"province_id"`
	CityID           int        `json:"city_id"`
	CategoryID       *int       `json:"category_id"`
	Cost             *string    `json:"cost"`
	Description      *string    `json:"description"`
	DocumentationURL *string    `json:"documentation_url"`
	OwnerID          string     `json:"user_id,omitempty"` // 一覧の絞り込みと同じ名前
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
	VerifiedBy       *string    `json:"verified_by,omitempty"`
	CreatedAt        time.Time  `json:"created_at,omitzero"`
	UpdatedAt        time.Time  `json:"updated_at,omitzero"`

	// Speakers は作成・更新時のみ送信する。nilの場合は省略する。
	Speakers []speakerJSON `json:"pengisi_event,omitempty"`
}

func fromEventPermission(ep *model.EventPermission, speakers []model.SpeakerInput) eventPermissionJSON {
	out := eventPermissionJSON{
		ID:               ep.ID,
		EventName:        ep.EventName,
		Organizer:        ep.Organizer,
		ParticipantCount: ep.ParticipantCount,
		StartDate:        ep.StartDate,
		EndDate:          ep.EndDate,
		StartTime:        ep.StartTime,
		EndTime:          ep.EndTime,
		Location:         ep.Location,
		ProvinceID:       ep.ProvinceID,
		CityID:           ep.CityID,
		CategoryID:       ep.CategoryID,
		Cost:             ep.Cost,
		Description:      ep.Description,
		DocumentationURL: ep.DocumentationURL,
		OwnerID:          ep.OwnerID,
	}
	if speakers != nil {
		out.Speakers = make([]speakerJSON, 0, len(speakers))
		for _, s := range speakers {
			out.Speakers = append(out.Speakers, speakerJSON{SpeakerName: s.SpeakerName, TopicTitle: s.TopicTitle})
		}
	}
	return out
}

func (j *eventPermissionJSON) toModel() *model.EventPermission {
	ep := &model.EventPermission{
		ID:               j.ID,
		EventName:        j.EventName,
		Organizer:        j.Organizer,
		ParticipantCount: j.ParticipantCount,
		StartDate:        j.StartDate,
		EndDate:          j.EndDate,
		StartTime:        j.StartTime,
		EndTime:          j.EndTime,
		Location:         j.Location,
		ProvinceID:       j.ProvinceID,
		CityID:           j.CityID,
		CategoryID:       j.CategoryID,
		Cost:             j.Cost,
		Description:      j.Description,
		DocumentationURL: j.DocumentationURL,
		OwnerID:          j.OwnerID,
		CreatedAt:        j.CreatedAt,
		UpdatedAt:        j.UpdatedAt,
	}
	// 検証情報は両方そろっている場合のみ採用する
	if j.VerifiedAt != nil && j.VerifiedBy != nil {
		at := j.VerifiedAt.UTC()
		ep.VerifiedAt = &at
		ep.VerifiedBy = j.VerifiedBy
	}
	return ep
}

// listJSON は一覧レスポンスの形式。
type listJSON struct {
	Data          []eventPermissionJSON `json:"data"`
	Total         int                   `json:"total"`
	TotalFiltered int                   `json:"totalFiltered"`
}

func (l *listJSON) toModel() *model.EventPermissionList {
	out := &model.EventPermissionList{
		Data:          make([]*model.EventPermission, 0, len(l.Data)),
		Total:         l.Total,
		TotalFiltered: l.TotalFiltered,
	}
	for i := range l.Data {
		out.Data = append(out.Data, l.Data[i].toModel())
	}
	return out
}

type verifyJSON struct {
	VerifiedBy string    `json:"verified_by"`
	VerifiedAt time.Time `json:"verified_at"`
}

type speakerJSON struct {
	ID                int       `json:"id,omitempty"`
	EventPermissionID string    `json:"event_permission_id,omitempty"`
	SpeakerName       string    `json:"speaker_name"`
	TopicTitle        string    `json:"topic_title"`
	CreatedAt         time.Time `json:"created_at,omitzero"`
	UpdatedAt         time.Time `json:"updated_at,omitzero"`
}

func (j *speakerJSON) toModel() *model.Speaker {
	return &model.Speaker{
		ID:                j.ID,
		EventPermissionID: j.EventPermissionID,
		SpeakerName:       j.SpeakerName,
		TopicTitle:        j.TopicTitle,
		CreatedAt:         j.CreatedAt,
		UpdatedAt:         j.UpdatedAt,
	}
}

// userJSON はアカウントの形式。password_hashはログイン照合のためにのみ受け取る。
type userJSON struct {
	ID           string    `json:"id,omitempty"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	UnitCode     string    `json:"unit_code"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
	UpdatedAt    time.Time `json:"updated_at,omitzero"`
}

func (j *userJSON) toModel() (*model.User, error) {
	role, err := model.ParseRole(j.Role)
	if err != nil {
		return nil, err
	}
	return &model.User{
		ID:           j.ID,
		Username:     j.Username,
		PasswordHash: j.PasswordHash,
		Role:         role,
		UnitCode:     j.UnitCode,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}, nil
}
