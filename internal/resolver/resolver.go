// Package resolver はイベント許可申請に関連する参照データと登壇者を解決する。
package resolver

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/eventgate/internal/model"
	"github.com/hitoshi/eventgate/internal/repository"
)

// maxConcurrentLookups は1回の解決で同時に実行するバックエンド呼び出しの上限。
const maxConcurrentLookups = 8

// Resolved は関連を解決済みの申請。見つからない参照はnil。
type Resolved struct {
	EventPermission *model.EventPermission
	Province        *model.Province
	City            *model.City
	Category        *model.Category
	Speakers        []*model.Speaker
}

// Resolver は申請の関連を解決する。アクセス制御は行わず、データも変更しない。
type Resolver struct {
	refs     repository.ReferenceRepository
	speakers repository.SpeakerRepository
}

// New はResolverを生成する。
func New(refs repository.ReferenceRepository, speakers repository.SpeakerRepository) *Resolver {
	return &Resolver{refs: refs, speakers: speakers}
}

// Resolve は1件の申請の関連を解決する。
func (r *Resolver) Resolve(ctx context.Context, ep *model.EventPermission) (*Resolved, error) {
	out, err := r.ResolveAll(ctx, []*model.EventPermission{ep})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// ResolveAll は複数の申請の関連を並行して解決する。
// 同じ参照IDは1回だけ問い合わせる。結果の順序は入力と同じ。
func (r *Resolver) ResolveAll(ctx context.Context, eps []*model.EventPermission) ([]*Resolved, error) {
	memo := newLookups(eps)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)

	for _, id := range memo.provinceIDs {
		g.Go(func() error {
			p, err := r.refs.FindProvinceByID(gctx, id)
			if err != nil {
				return fmt.Errorf("resolve province %d: %w", id, err)
			}
			memo.setProvince(id, p)
			return nil
		})
	}
	for _, id := range memo.cityIDs {
		g.Go(func() error {
			c, err := r.refs.FindCityByID(gctx, id)
			if err != nil {
				return fmt.Errorf("resolve city %d: %w", id, err)
			}
			memo.setCity(id, c)
			return nil
		})
	}
	for _, id := range memo.categoryIDs {
		g.Go(func() error {
			c, err := r.refs.FindCategoryByID(gctx, id)
			if err != nil {
				return fmt.Errorf("resolve category %d: %w", id, err)
			}
			memo.setCategory(id, c)
			return nil
		})
	}

	speakers := make([][]*model.Speaker, len(eps))
	for i, ep := range eps {
		g.Go(func() error {
			list, err := r.speakers.ListByEventID(gctx, ep.ID)
			if err != nil {
				return fmt.Errorf("resolve speakers of %s: %w", ep.ID, err)
			}
			speakers[i] = list
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*Resolved, len(eps))
	for i, ep := range eps {
		res := &Resolved{
			EventPermission: ep,
			Province:        memo.provinces[ep.ProvinceID],
			City:            memo.cities[ep.CityID],
			Speakers:        speakers[i],
		}
		if ep.CategoryID != nil {
			res.Category = memo.categories[*ep.CategoryID]
		}
		if res.Speakers == nil {
			res.Speakers = []*model.Speaker{}
		}
		out[i] = res
	}
	return out, nil
}

// lookups は1回の解決処理内で参照IDごとの結果を保持する。
// ID一覧は生成後に変更しない。結果のマップはmuで保護する。
type lookups struct {
	provinceIDs []int
	cityIDs     []int
	categoryIDs []int

	mu         sync.Mutex
	provinces  map[int]*model.Province
	cities     map[int]*model.City
	categories map[int]*model.Category
}

// newLookups は解決が必要な参照IDを重複なく集める。0以下のIDは未設定として扱う。
func newLookups(eps []*model.EventPermission) *lookups {
	l := &lookups{
		provinces:  make(map[int]*model.Province),
		cities:     make(map[int]*model.City),
		categories: make(map[int]*model.Category),
	}
	seen := map[string]map[int]bool{"province": {}, "city": {}, "category": {}}
	collect := func(kind string, id int, ids *[]int) {
		if id <= 0 || seen[kind][id] {
			return
		}
		seen[kind][id] = true
		*ids = append(*ids, id)
	}
	for _, ep := range eps {
		collect("province", ep.ProvinceID, &l.provinceIDs)
		collect("city", ep.CityID, &l.cityIDs)
		if ep.CategoryID != nil {
			collect("category", *ep.CategoryID, &l.categoryIDs)
		}
	}
	return l
}

func (l *lookups) setProvince(id int, p *model.Province) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.provinces[id] = p
}

func (l *lookups) setCity(id int, c *model.City) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cities[id] = c
}

func (l *lookups) setCategory(id int, c *model.Category) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.categories[id] = c
}
