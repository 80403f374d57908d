package handler

import (
	"context"
	"time"

	"github.com/hitoshi/eventgate/internal/auth"
	"github.com/hitoshi/eventgate/internal/middleware"
	"github.com/hitoshi/eventgate/internal/model"
	"github.com/hitoshi/eventgate/internal/resolver"
)

// --- モック: AuthServiceInterface ---

type mockAuthService struct {
	loginFn func(ctx context.Context, in model.LoginInput) (*auth.LoginResult, error)
	meFn    func(ctx context.Context, identity *model.Identity) (*model.User, error)
}

func (m *mockAuthService) Login(ctx context.Context, in model.LoginInput) (*auth.LoginResult, error) {
	return m.loginFn(ctx, in)
}

func (m *mockAuthService) Me(ctx context.Context, identity *model.Identity) (*model.User, error) {
	return m.meFn(ctx, identity)
}

// --- モック: EventPermissionServiceInterface ---

type mockEventService struct {
	listFn                func(ctx context.Context, identity *model.Identity, in *model.PaginationInput, ownerFilter string) (*model.EventPermissionList, error)
	getFn                 func(ctx context.Context, identity *model.Identity, id, ownerFilter string) (*model.EventPermission, error)
	listForVerificationFn func(ctx context.Context, identity *model.Identity, in *model.PaginationInput) (*model.EventPermissionList, error)
	createFn              func(ctx context.Context, identity *model.Identity, in model.EventPermissionInput) (*model.EventPermission, error)
	updateFn              func(ctx context.Context, identity *model.Identity, id string, in model.EventPermissionInput) (*model.EventPermission, error)
	deleteFn              func(ctx context.Context, identity *model.Identity, id string) error
	verifyFn              func(ctx context.Context, identity *model.Identity, id string) (*model.EventPermission, error)
}

func (m *mockEventService) List(ctx context.Context, identity *model.Identity, in *model.PaginationInput, ownerFilter string) (*model.EventPermissionList, error) {
	return m.listFn(ctx, identity, in, ownerFilter)
}

func (m *mockEventService) Get(ctx context.Context, identity *model.Identity, id, ownerFilter string) (*model.EventPermission, error) {
	return m.getFn(ctx, identity, id, ownerFilter)
}

func (m *mockEventService) ListForVerification(ctx context.Context, identity *model.Identity, in *model.PaginationInput) (*model.EventPermissionList, error) {
	return m.listForVerificationFn(ctx, identity, in)
}

func (m *mockEventService) Create(ctx context.Context, identity *model.Identity, in model.EventPermissionInput) (*model.EventPermission, error) {
	return m.createFn(ctx, identity, in)
}

func (m *mockEventService) Update(ctx context.Context, identity *model.Identity, id string, in model.EventPermissionInput) (*model.EventPermission, error) {
	return m.updateFn(ctx, identity, id, in)
}

func (m *mockEventService) Delete(ctx context.Context, identity *model.Identity, id string) error {
	return m.deleteFn(ctx, identity, id)
}

func (m *mockEventService) Verify(ctx context.Context, identity *model.Identity, id string) (*model.EventPermission, error) {
	return m.verifyFn(ctx, identity, id)
}

// --- モック: SpeakerServiceInterface ---

type mockSpeakerService struct {
	listFn   func(ctx context.Context, identity *model.Identity, eventID string) ([]*model.Speaker, error)
	createFn func(ctx context.Context, identity *model.Identity, eventID string, in model.SpeakerInput) (*model.Speaker, error)
	updateFn func(ctx context.Context, identity *model.Identity, eventID string, speakerID int, in model.SpeakerInput) (*model.Speaker, error)
	deleteFn func(ctx context.Context, identity *model.Identity, eventID string, speakerID int) error
}

func (m *mockSpeakerService) ListSpeakers(ctx context.Context, identity *model.Identity, eventID string) ([]*model.Speaker, error) {
	return m.listFn(ctx, identity, eventID)
}

func (m *mockSpeakerService) CreateSpeaker(ctx context.Context, identity *model.Identity, eventID string, in model.SpeakerInput) (*model.Speaker, error) {
	return m.createFn(ctx, identity, eventID, in)
}

func (m *mockSpeakerService) UpdateSpeaker(ctx context.Context, identity *model.Identity, eventID string, speakerID int, in model.SpeakerInput) (*model.Speaker, error) {
	return m.updateFn(ctx, identity, eventID, speakerID, in)
}

func (m *mockSpeakerService) DeleteSpeaker(ctx context.Context, identity *model.Identity, eventID string, speakerID int) error {
	return m.deleteFn(ctx, identity, eventID, speakerID)
}

// --- モック: ReferenceServiceInterface ---

type mockReferenceService struct {
	listProvincesFn  func(ctx context.Context, identity *model.Identity) ([]*model.Province, error)
	listCitiesFn     func(ctx context.Context, identity *model.Identity, provinceID int) ([]*model.City, error)
	listCategoriesFn func(ctx context.Context, identity *model.Identity, isActive *bool) ([]*model.Category, error)
}

func (m *mockReferenceService) ListProvinces(ctx context.Context, identity *model.Identity) ([]*model.Province, error) {
	return m.listProvincesFn(ctx, identity)
}

func (m *mockReferenceService) ListCities(ctx context.Context, identity *model.Identity, provinceID int) ([]*model.City, error) {
	return m.listCitiesFn(ctx, identity, provinceID)
}

func (m *mockReferenceService) ListCategories(ctx context.Context, identity *model.Identity, isActive *bool) ([]*model.Category, error) {
	return m.listCategoriesFn(ctx, identity, isActive)
}

// --- モック: RelationResolver ---

// stubResolver は州と市だけを固定値で埋める。
type stubResolver struct {
	err error
}

func (s *stubResolver) Resolve(ctx context.Context, ep *model.EventPermission) (*resolver.Resolved, error) {
	list, err := s.ResolveAll(ctx, []*model.EventPermission{ep})
	if err != nil {
		return nil, err
	}
	return list[0], nil
}

func (s *stubResolver) ResolveAll(_ context.Context, eps []*model.EventPermission) ([]*resolver.Resolved, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*resolver.Resolved, 0, len(eps))
	for _, ep := range eps {
		out = append(out, &resolver.Resolved{
			EventPermission: ep,
			Province:        &model.Province{ID: ep.ProvinceID, Name: "DKI Jakarta", Code: "31"},
			City:            &model.City{ID: ep.CityID, ProvinceID: ep.ProvinceID, Name: "Jakarta Selatan", Code: "3171"},
		})
	}
	return out, nil
}

// --- モック: IdentityVerifier ---

// tokenVerifier は "Bearer <token>" をtokensから引く。
type tokenVerifier struct {
	tokens map[string]*model.Identity
}

func (v *tokenVerifier) Verify(header string) *model.Identity {
	const prefix = "Bearer "
	if len(header) <= len(prefix) {
		return nil
	}
	return v.tokens[header[len(prefix):]]
}

var _ middleware.IdentityVerifier = (*tokenVerifier)(nil)

// --- テストデータ ---

var (
	operatorIdentity    = &model.Identity{ID: "op-1", Username: "operator1", Role: model.RoleOperator, UnitCode: "U01"}
	verifikatorIdentity = &model.Identity{ID: "vf-1", Username: "verifikator1", Role: model.RoleVerifikator, UnitCode: "U02"}
)

var fixedTime = time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)

func sampleEventPermission(id string) *model.EventPermission {
	return &model.EventPermission{
		ID:               id,
		EventName:        "Tech Conference",
		Organizer:        "Dinas Kominfo",
		ParticipantCount: 150,
		StartDate:        "2026-11-01",
		EndDate:          "2026-11-02",
		Location:         "Balai Kota",
		ProvinceID:       1,
		CityID:           2,
		OwnerID:          operatorIdentity.ID,
		CreatedAt:        fixedTime,
		UpdatedAt:        fixedTime,
	}
}
