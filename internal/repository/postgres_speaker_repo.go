package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/eventgate/internal/model"
)

// PostgresSpeakerRepo はPostgreSQLを使用した登壇者リポジトリ。
type PostgresSpeakerRepo struct {
	db *sql.DB
}

// NewPostgresSpeakerRepo はPostgresSpeakerRepoを生成する。
func NewPostgresSpeakerRepo(db *sql.DB) *PostgresSpeakerRepo {
	return &PostgresSpeakerRepo{db: db}
}

const speakerColumns = `id, event_permission_id, speaker_name, topic_title, created_at, updated_at`

func scanSpeaker(row rowScanner) (*model.Speaker, error) {
	s := &model.Speaker{}
	if err := row.Scan(&s.ID, &s.EventPermissionID, &s.SpeakerName, &s.TopicTitle, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

// ListByEventID は申請の登壇者をID順に返す。
func (r *PostgresSpeakerRepo) ListByEventID(ctx context.Context, eventID string) ([]*model.Speaker, error) {
	if _, err := uuid.Parse(eventID); err != nil {
		return []*model.Speaker{}, nil
	}
	out, err := queryAll(ctx, r.db, scanSpeaker,
		`SELECT `+speakerColumns+` FROM speakers WHERE event_permission_id = $1 ORDER BY id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list speakers: %w", err)
	}
	return out, nil
}

// FindByID は申請に属する登壇者を取得する。見つからない場合はnilを返す。
func (r *PostgresSpeakerRepo) FindByID(ctx context.Context, eventID string, id int) (*model.Speaker, error) {
	if _, err := uuid.Parse(eventID); err != nil {
		return nil, nil
	}
	s, err := queryOne(ctx, r.db, scanSpeaker,
		`SELECT `+speakerColumns+` FROM speakers WHERE event_permission_id = $1 AND id = $2`, eventID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find speaker: %w", err)
	}
	return s, nil
}

// Create は登壇者を作成する。
func (r *PostgresSpeakerRepo) Create(ctx context.Context, eventID string, in model.SpeakerInput) (*model.Speaker, error) {
	s, err := scanSpeaker(r.db.QueryRowContext(ctx,
		`INSERT INTO speakers (event_permission_id, speaker_name, topic_title)
		 VALUES ($1, $2, $3)
		 RETURNING `+speakerColumns,
		eventID, in.SpeakerName, in.TopicTitle,
	))
	if err != nil {
		return nil, wrapWriteError("failed to insert speaker", err)
	}
	return s, nil
}

// Update は登壇者を更新する。見つからない場合はnilを返す。
func (r *PostgresSpeakerRepo) Update(ctx context.Context, eventID string, id int, in model.SpeakerInput) (*model.Speaker, error) {
	if _, err := uuid.Parse(eventID); err != nil {
		return nil, nil
	}
	s, err := scanSpeaker(r.db.QueryRowContext(ctx,
		`UPDATE speakers SET speaker_name = $3, topic_title = $4, updated_at = now()
		 WHERE event_permission_id = $1 AND id = $2
		 RETURNING `+speakerColumns,
		eventID, id, in.SpeakerName, in.TopicTitle,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapWriteError("failed to update speaker", err)
	}
	return s, nil
}

// Delete は登壇者を削除する。
func (r *PostgresSpeakerRepo) Delete(ctx context.Context, eventID string, id int) (bool, error) {
	if _, err := uuid.Parse(eventID); err != nil {
		return false, nil
	}
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM speakers WHERE event_permission_id = $1 AND id = $2`, eventID, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete speaker: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ SpeakerRepository = (*PostgresSpeakerRepo)(nil)
