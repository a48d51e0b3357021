package repository

import (
	"context"
	"fmt"

	"procurement/internal/model"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

// ActivityQuery selects one page of an entity's trail
type ActivityQuery struct {
	EntityType string
	EntityID   uuid.UUID
	Search     string
	Limit      int
	Offset     int
}

// ActivityRepository appends entries through GORM so they commit with the
// mutation they describe, and reads the feed with plain SQL through sqlx.
type ActivityRepository interface {
	Append(ctx context.Context, entry *model.ActivityLog) error
	Feed(ctx context.Context, q ActivityQuery) ([]model.ActivityLog, int64, error)
}

type activityRepository struct {
	db   *gorm.DB
	feed *sqlx.DB
}

func NewActivityRepository(db *gorm.DB, feed *sqlx.DB) ActivityRepository {
	return &activityRepository{db: db, feed: feed}
}

func (r *activityRepository) Append(ctx context.Context, entry *model.ActivityLog) error {
	if entry.Changes == "" {
		entry.Changes = "{}"
	}
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *activityRepository) Feed(ctx context.Context, q ActivityQuery) ([]model.ActivityLog, int64, error) {
	where := `WHERE entity_type = $1 AND entity_id = $2`
	args := []interface{}{q.EntityType, q.EntityID}
	if q.Search != "" {
		where += ` AND (action ILIKE $3 OR actor_name ILIKE $3 OR changes::text ILIKE $3 OR ip_address ILIKE $3)`
		args = append(args, ilike(q.Search))
	}

	var total int64
	if err := r.feed.GetContext(ctx, &total, `SELECT COUNT(*) FROM activity_logs `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count activity: %w", err)
	}

	query := fmt.Sprintf(`
        SELECT id, entity_type, entity_id, action, actor_id, COALESCE(actor_name, '') AS actor_name,
               changes::text AS changes, COALESCE(ip_address, '') AS ip_address,
               COALESCE(user_agent, '') AS user_agent, created_at
        FROM activity_logs
        %s
        ORDER BY created_at DESC
        LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset)

	entries := []model.ActivityLog{}
	if err := r.feed.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("select activity: %w", err)
	}
	return entries, total, nil
}
