package model

import "time"

// EventPermission はイベント許可申請のレコードを表す。
// VerifiedAtとVerifiedByは両方設定済みか両方nilのいずれかである。
type EventPermission struct {
	ID               string
	EventName        string
	Organizer        string
	ParticipantCount int
	StartDate        string // YYYY-MM-DD
	EndDate          string // YYYY-MM-DD
	StartTime        *string // HH:MM
	EndTime          *string // HH:MM
	Location         string
	ProvinceID       int
	CityID           int
	CategoryID       *int
	Cost             *string
	Description      *string
	DocumentationURL *string
	OwnerID          string
	VerifiedAt       *time.Time
	VerifiedBy       *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsVerified は申請が検証済みかどうかを返す。
func (e *EventPermission) IsVerified() bool {
	return e.VerifiedAt != nil
}

// Apply は入力値をレコードのクライアント編集可能フィールドにコピーする。
// ID、OwnerID、検証情報、タイムスタンプは変更しない。
func (e *EventPermission) Apply(in EventPermissionInput) {
	e.EventName = in.EventName
	e.Organizer = in.Organizer
	e.ParticipantCount = in.ParticipantCount
	e.StartDate = in.StartDate
	e.EndDate = in.EndDate
	e.StartTime = in.StartTime
	e.EndTime = in.EndTime
	e.Location = in.Location
	e.ProvinceID = in.ProvinceID
	e.CityID = in.CityID
	e.CategoryID = in.CategoryID
	e.Cost = in.Cost
	e.Description = in.Description
	e.DocumentationURL = in.DocumentationURL
}

// EventPermissionInput は申請の作成・更新リクエストの入力。
// owner_idは含まない（呼び出し元のIDがサーバー側で設定される）。
type EventPermissionInput struct {
	EventName        string         `json:"event_name" validate:"required,min=5,max=200"`
	Organizer        string         `json:"organizer" validate:"required,min=3,max=200"`
	ParticipantCount int            `json:"participant_count" validate:"min=1,max=10000"`
	StartDate        string         `json:"start_date" validate:"required,calendar_date"`
	EndDate          string         `json:"end_date" validate:"required,calendar_date"`
	StartTime        *string        `json:"start_time" validate:"omitempty,clock_time"`
	EndTime          *string        `json:"end_time" validate:"omitempty,clock_time"`
	Location         string         `json:"location" validate:"required,max=1000"`
	ProvinceID       int            `json:"province_id" validate:"min=1"`
	CityID           int            `json:"city_id" validate:"min=1"`
	CategoryID       *int           `json:"category_id" validate:"omitempty,min=1"`
	Cost             *string        `json:"cost" validate:"omitempty,max=100"`
	Description      *string        `json:"description" validate:"omitempty,max=5000"`
	DocumentationURL *string        `json:"documentation_url" validate:"omitempty,max=500,public_url"`
	Speakers         []SpeakerInput `json:"speakers" validate:"omitempty,dive"`
}

// Speaker はイベントの登壇者（pengisi event）を表す。親申請と運命を共にする。
type Speaker struct {
	ID                int
	EventPermissionID string
	SpeakerName       string
	TopicTitle        string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SpeakerInput は登壇者の作成・更新リクエストの入力。
type SpeakerInput struct {
	SpeakerName string `json:"speaker_name" validate:"required,max=200"`
	TopicTitle  string `json:"topic_title" validate:"required,max=300"`
}

// 一覧取得のデフォルト値
const (
	DefaultTake          = 10
	DefaultSkip          = 0
	DefaultSort          = "created_at"
	DefaultSortDirection = "desc"
)

// PaginationInput はクライアントから受け取るページネーション指定。
// nilのフィールドにはデフォルト値が適用される。
type PaginationInput struct {
	Take          *int    `json:"take"`
	Skip          *int    `json:"skip"`
	Search        *string `json:"search"`
	Sort          *string `json:"sort"`
	SortDirection *string `json:"sortDirection"`
}

// Pagination はデフォルト適用済みのページネーション指定。
type Pagination struct {
	Take          int    `validate:"min=1,max=100"`
	Skip          int    `validate:"min=0"`
	Search        string `validate:"max=200"`
	Sort          string `validate:"oneof=created_at updated_at event_name organizer start_date end_date participant_count"`
	SortDirection string `validate:"oneof=asc desc"`
}

// Resolve はデフォルト値を補完したPaginationを返す。
func (p *PaginationInput) Resolve() Pagination {
	out := Pagination{
		Take:          DefaultTake,
		Skip:          DefaultSkip,
		Sort:          DefaultSort,
		SortDirection: DefaultSortDirection,
	}
	if p == nil {
		return out
	}
	if p.Take != nil {
		out.Take = *p.Take
	}
	if p.Skip != nil {
		out.Skip = *p.Skip
	}
	if p.Search != nil {
		out.Search = *p.Search
	}
	if p.Sort != nil && *p.Sort != "" {
		out.Sort = *p.Sort
	}
	if p.SortDirection != nil && *p.SortDirection != "" {
		out.SortDirection = *p.SortDirection
	}
	return out
}

// EventPermissionList は一覧取得の結果。
// Totalはスコープ内の全件数、TotalFilteredは検索条件適用後の件数。
type EventPermissionList struct {
	Data          []*EventPermission
	Total         int
	TotalFiltered int
}
