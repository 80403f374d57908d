package eventpermission

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/eventgate/internal/model"
	"github.com/hitoshi/eventgate/internal/repository"
)

// --- モック定義 ---

// mockEventRepo はメモリ上に申請を保持する。Fnフィールドが設定されていればそちらを優先する。
type mockEventRepo struct {
	mu      sync.Mutex
	records map[string]*model.EventPermission
	seq     int
	now     time.Time

	// 作成・置換された登壇者入力（申請IDごと）
	speakerInputs map[string][]model.SpeakerInput

	findByIDFn       func(ctx context.Context, id string) (*model.EventPermission, error)
	listFn           func(ctx context.Context, p model.Pagination, ownerID string) (*model.EventPermissionList, error)
	listUnverifiedFn func(ctx context.Context, p model.Pagination) (*model.EventPermissionList, error)
	createFn         func(ctx context.Context, ep *model.EventPermission, speakers []model.SpeakerInput) (*model.EventPermission, error)
	updateFn         func(ctx context.Context, ep *model.EventPermission, speakers []model.SpeakerInput) (*model.EventPermission, error)
	deleteFn         func(ctx context.Context, id string) (bool, error)
	markVerifiedFn   func(ctx context.Context, id, verifiedBy string, verifiedAt time.Time) (*model.EventPermission, error)

	listCalls          []model.Pagination
	markVerifiedCalled bool
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{
		records:       make(map[string]*model.EventPermission),
		speakerInputs: make(map[string][]model.SpeakerInput),
		now:           time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func clone(ep *model.EventPermission) *model.EventPermission {
	c := *ep
	return &c
}

func (m *mockEventRepo) FindByID(ctx context.Context, id string) (*model.EventPermission, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if ep, ok := m.records[id]; ok {
		return clone(ep), nil
	}
	return nil, nil
}

func (m *mockEventRepo) List(ctx context.Context, p model.Pagination, ownerID string) (*model.EventPermissionList, error) {
	m.mu.Lock()
	m.listCalls = append(m.listCalls, p)
	m.mu.Unlock()
	if m.listFn != nil {
		return m.listFn(ctx, p, ownerID)
	}
	return m.filter(p, func(ep *model.EventPermission) bool { return ownerID == "" || ep.OwnerID == ownerID }), nil
}

func (m *mockEventRepo) ListUnverified(ctx context.Context, p model.Pagination) (*model.EventPermissionList, error) {
	m.mu.Lock()
	m.listCalls = append(m.listCalls, p)
	m.mu.Unlock()
	if m.listUnverifiedFn != nil {
		return m.listUnverifiedFn(ctx, p)
	}
	return m.filter(p, func(ep *model.EventPermission) bool { return !ep.IsVerified() }), nil
}

func (m *mockEventRepo) filter(p model.Pagination, keep func(*model.EventPermission) bool) *model.EventPermissionList {
	m.mu.Lock()
	defer m.mu.Unlock()
	var data []*model.EventPermission
	for _, ep := range m.records {
		if keep(ep) {
			data = append(data, clone(ep))
		}
	}
	sort.Slice(data, func(i, j int) bool { return data[i].ID < data[j].ID })
	total := len(data)
	if p.Skip < len(data) {
		data = data[p.Skip:]
	} else {
		data = nil
	}
	if len(data) > p.Take {
		data = data[:p.Take]
	}
	return &model.EventPermissionList{Data: data, Total: total, TotalFiltered: total}
}

func (m *mockEventRepo) Create(ctx context.Context, ep *model.EventPermission, speakers []model.SpeakerInput) (*model.EventPermission, error) {
	if m.createFn != nil {
		return m.createFn(ctx, ep, speakers)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	c := clone(ep)
	c.ID = fmt.Sprintf("00000000-0000-4000-8000-%012d", m.seq)
	c.CreatedAt = m.now
	c.UpdatedAt = m.now
	m.records[c.ID] = c
	m.speakerInputs[c.ID] = speakers
	return clone(c), nil
}

func (m *mockEventRepo) Update(ctx context.Context, ep *model.EventPermission, speakers []model.SpeakerInput) (*model.EventPermission, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, ep, speakers)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[ep.ID]; !ok {
		return nil, nil
	}
	c := clone(ep)
	c.UpdatedAt = m.now.Add(time.Hour)
	m.records[c.ID] = c
	if speakers != nil {
		m.speakerInputs[c.ID] = speakers
	}
	return clone(c), nil
}

func (m *mockEventRepo) Delete(ctx context.Context, id string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return false, nil
	}
	delete(m.records, id)
	return true, nil
}

func (m *mockEventRepo) MarkVerified(ctx context.Context, id, verifiedBy string, verifiedAt time.Time) (*model.EventPermission, error) {
	m.mu.Lock()
	m.markVerifiedCalled = true
	m.mu.Unlock()
	if m.markVerifiedFn != nil {
		return m.markVerifiedFn(ctx, id, verifiedBy, verifiedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ep, ok := m.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if ep.IsVerified() {
		return nil, nil
	}
	ep.VerifiedAt = &verifiedAt
	ep.VerifiedBy = &verifiedBy
	return clone(ep), nil
}

type mockSpeakerRepo struct {
	listByEventIDFn func(ctx context.Context, eventID string) ([]*model.Speaker, error)
	createFn        func(ctx context.Context, eventID string, in model.SpeakerInput) (*model.Speaker, error)
	updateFn        func(ctx context.Context, eventID string, id int, in model.SpeakerInput) (*model.Speaker, error)
	deleteFn        func(ctx context.Context, eventID string, id int) (bool, error)
}

func (m *mockSpeakerRepo) ListByEventID(ctx context.Context, eventID string) ([]*model.Speaker, error) {
	if m.listByEventIDFn != nil {
		return m.listByEventIDFn(ctx, eventID)
	}
	return nil, nil
}

func (m *mockSpeakerRepo) FindByID(context.Context, string, int) (*model.Speaker, error) {
	return nil, nil
}

func (m *mockSpeakerRepo) Create(ctx context.Context, eventID string, in model.SpeakerInput) (*model.Speaker, error) {
	if m.createFn != nil {
		return m.createFn(ctx, eventID, in)
	}
	return &model.Speaker{ID: 1, EventPermissionID: eventID, SpeakerName: in.SpeakerName, TopicTitle: in.TopicTitle}, nil
}

func (m *mockSpeakerRepo) Update(ctx context.Context, eventID string, id int, in model.SpeakerInput) (*model.Speaker, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, eventID, id, in)
	}
	return nil, nil
}

func (m *mockSpeakerRepo) Delete(ctx context.Context, eventID string, id int) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, eventID, id)
	}
	return false, nil
}

// mockReferenceRepo はシードデータ相当の州1（市1,2）、州2（市4）、カテゴリ1を返す。
type mockReferenceRepo struct {
	findProvinceByIDFn func(ctx context.Context, id int) (*model.Province, error)
	listProvincesFn    func(ctx context.Context) ([]*model.Province, error)
	listCitiesFn       func(ctx context.Context, provinceID int) ([]*model.City, error)
	listCategoriesFn   func(ctx context.Context, isActive *bool) ([]*model.Category, error)
}

func (m *mockReferenceRepo) ListProvinces(ctx context.Context) ([]*model.Province, error) {
	if m.listProvincesFn != nil {
		return m.listProvincesFn(ctx)
	}
	return nil, nil
}

func (m *mockReferenceRepo) FindProvinceByID(ctx context.Context, id int) (*model.Province, error) {
	if m.findProvinceByIDFn != nil {
		return m.findProvinceByIDFn(ctx, id)
	}
	if id == 1 || id == 2 {
		return &model.Province{ID: id}, nil
	}
	return nil, nil
}

func (m *mockReferenceRepo) ListCities(ctx context.Context, provinceID int) ([]*model.City, error) {
	if m.listCitiesFn != nil {
		return m.listCitiesFn(ctx, provinceID)
	}
	return nil, nil
}

func (m *mockReferenceRepo) FindCityByID(_ context.Context, id int) (*model.City, error) {
	switch id {
	case 1, 2:
		return &model.City{ID: id, ProvinceID: 1}, nil
	case 4:
		return &model.City{ID: id, ProvinceID: 2}, nil
	}
	return nil, nil
}

func (m *mockReferenceRepo) ListCategories(ctx context.Context, isActive *bool) ([]*model.Category, error) {
	if m.listCategoriesFn != nil {
		return m.listCategoriesFn(ctx, isActive)
	}
	return nil, nil
}

func (m *mockReferenceRepo) FindCategoryByID(_ context.Context, id int) (*model.Category, error) {
	if id == 1 {
		return &model.Category{ID: 1, IsActive: true}, nil
	}
	return nil, nil
}

type mockSanitizer struct {
	sanitizeFn func(raw string) string
	safeFn     func(raw string) bool
}

func (m *mockSanitizer) Sanitize(raw string) string {
	if m.sanitizeFn != nil {
		return m.sanitizeFn(raw)
	}
	return raw
}

func (m *mockSanitizer) Safe(raw string) bool {
	if m.safeFn != nil {
		return m.safeFn(raw)
	}
	return true
}

type operationRecord struct {
	operation, outcome string
}

type mockMetrics struct {
	mu         sync.Mutex
	operations []operationRecord
	latencies  int
}

func (m *mockMetrics) RecordOperation(operation, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations = append(m.operations, operationRecord{operation, outcome})
}

func (m *mockMetrics) RecordHTTPStatus(int) {}

func (m *mockMetrics) ObserveBackendLatency(string, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies++
}

func (m *mockMetrics) RecordRateLimited(string) {}
