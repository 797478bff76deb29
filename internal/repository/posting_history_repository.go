package repository

import (
	"context"
	"database/sql"
	"log/slog"

	sq "github.com/Masterminds/squirrel"

	"github.com/maheshrc27/postpipe/internal/models"
)

// PostingHistoryRepository keeps every publish attempt. The schedule stage is
// rewritten on each scheduling run, this table is not.
type PostingHistoryRepository interface {
	Create(ctx context.Context, ph *models.PostingHistory) (int64, error)
	List(ctx context.Context, platform string, limit uint64) ([]*models.PostingHistory, error)
}

type postingHistoryRepository struct {
	db *sql.DB
	qb sq.StatementBuilderType
}

func NewPostingHistoryRepository(db *sql.DB) PostingHistoryRepository {
	return &postingHistoryRepository{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *postingHistoryRepository) Create(ctx context.Context, ph *models.PostingHistory) (int64, error) {
	query, args, err := r.qb.Insert("posting_history").
		Columns("platform", "post_id", "scheduled_time", "success", "result").
		Values(ph.Platform, ph.PostID, ph.ScheduledTime, ph.Success, ph.Result).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, err
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postingHistoryRepository) List(ctx context.Context, platform string, limit uint64) ([]*models.PostingHistory, error) {
	q := r.qb.Select("id", "platform", "post_id", "scheduled_time", "success", "result", "created_at").
		From("posting_history").
		OrderBy("created_at DESC", "id DESC")
	if platform != "" {
		q = q.Where(sq.Eq{"platform": platform})
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var phs []*models.PostingHistory
	for rows.Next() {
		var ph models.PostingHistory
		err := rows.Scan(&ph.ID, &ph.Platform, &ph.PostID, &ph.ScheduledTime, &ph.Success, &ph.Result, &ph.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		phs = append(phs, &ph)
	}
	return phs, rows.Err()
}
