package handler

import (
	"time"

	"github.com/hitoshi/eventgate/internal/model"
	"github.com/hitoshi/eventgate/internal/resolver"
)

type provinceResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type cityResponse struct {
	ID         int    `json:"id"`
	ProvinceID int    `json:"province_id"`
	Name       string `json:"name"`
	Code       string `json:"code"`
}

type categoryResponse struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Description *string `json:"description"`
	IsActive    bool    `json:"is_active"`
}

type speakerResponse struct {
	ID                int       `json:"id"`
	EventPermissionID string    `json:"event_permission_id"`
	SpeakerName       string    `json:"speaker_name"`
	TopicTitle        string    `json:"topic_title"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// eventPermissionResponse は申請のAPIレスポンス。関連する参照データと登壇者を含む。
type eventPermissionResponse struct {
	ID               string     `json:"id"`
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
	OwnerID          string     `json:"owner_id"`
	VerifiedAt       *time.Time `json:"verified_at"`
	VerifiedBy       *string    `json:"verified_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Province *provinceResponse `json:"province"`
	City     *cityResponse     `json:"city"`
	Category *categoryResponse `json:"category"`
	Speakers []speakerResponse `json:"speakers"`
}

type eventPermissionListResponse struct {
	Data          []eventPermissionResponse `json:"data"`
	Total         int                       `json:"total"`
	TotalFiltered int                       `json:"totalFiltered"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	UnitCode  string    `json:"unit_code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type loginResponse struct {
	User      userResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// --- 変換 ---

func toEventPermissionResponse(r *resolver.Resolved) eventPermissionResponse {
	ep := r.EventPermission
	resp := eventPermissionResponse{
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
		VerifiedAt:       ep.VerifiedAt,
		VerifiedBy:       ep.VerifiedBy,
		CreatedAt:        ep.CreatedAt,
		UpdatedAt:        ep.UpdatedAt,
		Speakers:         toSpeakerResponses(r.Speakers),
	}
	if r.Province != nil {
		p := toProvinceResponse(r.Province)
		resp.Province = &p
	}
	if r.City != nil {
		c := toCityResponse(r.City)
		resp.City = &c
	}
	if r.Category != nil {
		c := toCategoryResponse(r.Category)
		resp.Category = &c
	}
	return resp
}

func toProvinceResponse(p *model.Province) provinceResponse {
	return provinceResponse{ID: p.ID, Name: p.Name, Code: p.Code}
}

func toCityResponse(c *model.City) cityResponse {
	return cityResponse{ID: c.ID, ProvinceID: c.ProvinceID, Name: c.Name, Code: c.Code}
}

func toCategoryResponse(c *model.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Code: c.Code, Description: c.Description, IsActive: c.IsActive}
}

func toSpeakerResponse(s *model.Speaker) speakerResponse {
	return speakerResponse{
		ID:                s.ID,
		EventPermissionID: s.EventPermissionID,
		SpeakerName:       s.SpeakerName,
		TopicTitle:        s.TopicTitle,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

func toSpeakerResponses(list []*model.Speaker) []speakerResponse {
	out := make([]speakerResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toSpeakerResponse(s))
	}
	return out
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      string(u.Role),
		UnitCode:  u.UnitCode,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
