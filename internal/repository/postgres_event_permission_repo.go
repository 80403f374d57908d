package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/eventgate/internal/model"
)

// PostgresEventPermissionRepo はPostgreSQLを使用したイベント許可申請リポジトリ。
type PostgresEventPermissionRepo struct {
	db *sql.DB
}

// NewPostgresEventPermissionRepo はPostgresEventPermissionRepoを生成する。
func NewPostgresEventPermissionRepo(db *sql.DB) *PostgresEventPermissionRepo {
	return &PostgresEventPermissionRepo{db: db}
}

const eventPermissionColumns = `id, event_name, organizer, participant_count,
	to_char(start_date, 'YYYY-MM-DD'), to_char(end_date, 'YYYY-MM-DD'),
	start_time, end_time, location, province_id, city_id, category_id,
	cost, description, documentation_url, owner_id, verified_at, verified_by,
	created_at, updated_at`

// sortColumns はクライアント指定のソートキーとカラムの対応。ここにないキーは使用しない。
var sortColumns = map[string]string{
	"created_at":        "created_at",
	"updated_at":        "updated_at",
	"event_name":        "event_name",
	"organizer":         "organizer",
	"start_date":        "start_date",
	"end_date":          "end_date",
	"participant_count": "participant_count",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func scanEventPermission(row rowScanner) (*model.EventPermission, error) {
	ep := &model.EventPermission{}
	var startTime, endTime, cost, description, docURL, verifiedBy sql.NullString
	var categoryID sql.NullInt64
	var verifiedAt sql.NullTime

	if err := row.Scan(
		&ep.ID, &ep.EventName, &ep.Organizer, &ep.ParticipantCount,
		&ep.StartDate, &ep.EndDate,
		&startTime, &endTime, &ep.Location, &ep.ProvinceID, &ep.CityID, &categoryID,
		&cost, &description, &docURL, &ep.OwnerID, &verifiedAt, &verifiedBy,
		&ep.CreatedAt, &ep.UpdatedAt,
	); err != nil {
		return nil, err
	}

	ep.StartTime = stringPtr(startTime)
	ep.EndTime = stringPtr(endTime)
	ep.CategoryID = intPtr(categoryID)
	ep.Cost = stringPtr(cost)
	ep.Description = stringPtr(description)
	ep.DocumentationURL = stringPtr(docURL)
	ep.VerifiedBy = stringPtr(verifiedBy)
	if verifiedAt.Valid {
		at := verifiedAt.Time.UTC()
		ep.VerifiedAt = &at
	}
	return ep, nil
}

// FindByID は指定IDの申請を取得する。見つからない場合はnilを返す。
func (r *PostgresEventPermissionRepo) FindByID(ctx context.Context, id string) (*model.EventPermission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	ep, err := scanEventPermission(r.db.QueryRowContext(ctx,
		`SELECT `+eventPermissionColumns+` FROM event_permissions WHERE id = $1`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find event permission: %w", err)
	}
	return ep, nil
}

// List はページネーション条件で申請を取得する。ownerIDが空でなければ所有者で絞り込む。
func (r *PostgresEventPermissionRepo) List(ctx context.Context, p model.Pagination, ownerID string) (*model.EventPermissionList, error) {
	var scope listScope
	if ownerID != "" {
		if _, err := uuid.Parse(ownerID); err != nil {
			return &model.EventPermissionList{Data: []*model.EventPermission{}}, nil
		}
		scope.add("owner_id = $%d", ownerID)
	}
	return r.list(ctx, p, scope)
}

// ListUnverified は未検証の申請のみを取得する。
func (r *PostgresEventPermissionRepo) ListUnverified(ctx context.Context, p model.Pagination) (*model.EventPermissionList, error) {
	var scope listScope
	scope.add("verified_at IS NULL")
	return r.list(ctx, p, scope)
}

// listScope はWHERE句の条件とプレースホルダ引数を組み立てる。
// 条件中の%dには次のプレースホルダ番号が入る。
type listScope struct {
	conds []string
	args  []any
}

func (s *listScope) add(cond string, args ...any) {
	if len(args) > 0 {
		cond = fmt.Sprintf(cond, len(s.args)+1)
	}
	s.conds = append(s.conds, cond)
	s.args = append(s.args, args...)
}

func (s listScope) where() string {
	if len(s.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(s.conds, " AND ")
}

// withSearch は検索語の条件を追加した新しいスコープを返す。
func (s listScope) withSearch(search string) listScope {
	out := listScope{
		conds: append([]string(nil), s.conds...),
		args:  append([]any(nil), s.args...),
	}
	search = strings.TrimSpace(search)
	if search == "" {
		return out
	}
	out.add("(event_name ILIKE $%[1]d OR organizer ILIKE $%[1]d OR location ILIKE $%[1]d)",
		"%"+likeEscaper.Replace(search)+"%")
	return out
}

// orderBy は許可リストに基づくORDER BY句を返す。idを第2キーにして順序を安定させる。
func orderBy(p model.Pagination) string {
	col, ok := sortColumns[p.Sort]
	if !ok {
		col = sortColumns[model.DefaultSort]
	}
	dir := "DESC"
	if strings.EqualFold(p.SortDirection, "asc") {
		dir = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir)
}

func (r *PostgresEventPermissionRepo) count(ctx context.Context, s listScope) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM event_permissions`+s.where(), s.args...).Scan(&n)
	return n, err
}

func (r *PostgresEventPermissionRepo) list(ctx context.Context, p model.Pagination, scope listScope) (*model.EventPermissionList, error) {
	total, err := r.count(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to count event permissions: %w", err)
	}

	filtered := scope.withSearch(p.Search)
	totalFiltered := total
	if len(filtered.conds) > len(scope.conds) {
		if totalFiltered, err = r.count(ctx, filtered); err != nil {
			return nil, fmt.Errorf("failed to count filtered event permissions: %w", err)
		}
	}

	n := len(filtered.args)
	query := `SELECT ` + eventPermissionColumns + ` FROM event_permissions` +
		filtered.where() + orderBy(p) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2)
	args := append(filtered.args, p.Take, p.Skip)

	data, err := queryAll(ctx, r.db, scanEventPermission, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list event permissions: %w", err)
	}

	return &model.EventPermissionList{Data: data, Total: total, TotalFiltered: totalFiltered}, nil
}

// Create は申請と初期登壇者を同一トランザクションで作成する。
func (r *PostgresEventPermissionRepo) Create(ctx context.Context, ep *model.EventPermission, speakers []model.SpeakerInput) (*model.EventPermission, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := ep.ID
	if id == "" {
		id = uuid.NewString()
	}

	created, err := scanEventPermission(tx.QueryRowContext(ctx,
		`INSERT INTO event_permissions (
			id, event_name, organizer, participant_count, start_date, end_date,
			start_time, end_time, location, province_id, city_id, category_id,
			cost, description, documentation_url, owner_id
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 RETURNING `+eventPermissionColumns,
		id, ep.EventName, ep.Organizer, ep.ParticipantCount, ep.StartDate, ep.EndDate,
		ep.StartTime, ep.EndTime, ep.Location, ep.ProvinceID, ep.CityID, ep.CategoryID,
		ep.Cost, ep.Description, ep.DocumentationURL, ep.OwnerID,
	))
	if err != nil {
		return nil, wrapWriteError("failed to insert event permission", err)
	}

	if err := insertSpeakers(ctx, tx, created.ID, speakers); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}

// Update は申請の編集可能フィールドを更新する。speakersがnilでなければ登壇者を置き換える。
func (r *PostgresEventPermissionRepo) Update(ctx context.Context, ep *model.EventPermission, speakers []model.SpeakerInput) (*model.EventPermission, error) {
	if _, err := uuid.Parse(ep.ID); err != nil {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	updated, err := scanEventPermission(tx.QueryRowContext(ctx,
		`UPDATE event_permissions SET
			event_name = $2, organizer = $3, participant_count = $4,
			start_date = $5, end_date = $6, start_time = $7, end_time = $8,
			location = $9, province_id = $10, city_id = $11, category_id = $12,
			cost = $13, description = $14, documentation_url = $15,
			updated_at = now()
		 WHERE id = $1
		 RETURNING `+eventPermissionColumns,
		ep.ID, ep.EventName, ep.Organizer, ep.ParticipantCount,
		ep.StartDate, ep.EndDate, ep.StartTime, ep.EndTime,
		ep.Location, ep.ProvinceID, ep.CityID, ep.CategoryID,
		ep.Cost, ep.Description, ep.DocumentationURL,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapWriteError("failed to update event permission", err)
	}

	if speakers != nil {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM speakers WHERE event_permission_id = $1`, ep.ID,
		); err != nil {
			return nil, fmt.Errorf("failed to replace speakers: %w", err)
		}
		if err := insertSpeakers(ctx, tx, ep.ID, speakers); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, nil
}

// Delete は申請を削除する。登壇者はCASCADE削除される。
func (r *PostgresEventPermissionRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM event_permissions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete event permission: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// MarkVerified は未検証の申請だけを検証済みにする。
// 同時に検証された場合は一方のみが更新され、他方はnilを受け取る。
func (r *PostgresEventPermissionRepo) MarkVerified(ctx context.Context, id, verifiedBy string, verifiedAt time.Time) (*model.EventPermission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	ep, err := scanEventPermission(r.db.QueryRowContext(ctx,
		`UPDATE event_permissions
		 SET verified_by = $2, verified_at = $3, updated_at = now()
		 WHERE id = $1 AND verified_at IS NULL
		 RETURNING `+eventPermissionColumns,
		id, verifiedBy, verifiedAt,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.existsOrNotFound(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark event permission verified: %w", err)
	}
	return ep, nil
}

// existsOrNotFound は申請が存在すればnil、存在しなければErrNotFoundを返す。
func (r *PostgresEventPermissionRepo) existsOrNotFound(ctx context.Context, id string) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM event_permissions WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check event permission: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

func insertSpeakers(ctx context.Context, tx *sql.Tx, eventID string, speakers []model.SpeakerInput) error {
	for _, s := range speakers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO speakers (event_permission_id, speaker_name, topic_title) VALUES ($1, $2, $3)`,
			eventID, s.SpeakerName, s.TopicTitle,
		); err != nil {
			return wrapWriteError("failed to insert speaker", err)
		}
	}
	return nil
}

// compile-time interface check
var _ EventPermissionRepository = (*PostgresEventPermissionRepo)(nil)
