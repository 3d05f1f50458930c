package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/EduardoCrCo/final-backend-sub000/db"
	"github.com/EduardoCrCo/final-backend-sub000/models"
	"github.com/EduardoCrCo/final-backend-sub000/store"
	"github.com/google/uuid"
)

type reviewRepo struct {
	db *db.CompatDB
}

const reviewColumns = `id, user_id, video_id, video_title, video_thumbnail, rating, title, content,
	tags, is_public, created_at, updated_at`

func scanReview(row scanner) (models.Review, error) {
	var rv models.Review
	var tags, createdAt, updatedAt string
	if err := row.Scan(&rv.ID, &rv.UserID, &rv.VideoID, &rv.VideoTitle, &rv.VideoThumbnail, &rv.Rating,
		&rv.Title, &rv.Content, &tags, &rv.IsPublic, &createdAt, &updatedAt); err != nil {
		return models.Review{}, notFound(err)
	}
	rv.Tags = []string{}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &rv.Tags); err != nil {
			return models.Review{}, fmt.Errorf("decode tags: %w", err)
		}
	}
	rv.CreatedAt = db.ParseTime(createdAt)
	rv.UpdatedAt = db.ParseTime(updatedAt)
	return rv, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func (r *reviewRepo) Create(ctx context.Context, rv *models.Review) error {
	if rv.ID == "" {
		rv.ID = uuid.New().String()
	}
	if rv.Tags == nil {
		rv.Tags = []string{}
	}
	tags, err := encodeTags(rv.Tags)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	rv.CreatedAt, rv.UpdatedAt = now, now

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO reviews (id, user_id, video_id, video_title, video_thumbnail, rating, title, content,
			tags, is_public, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rv.ID, rv.UserID, rv.VideoID, rv.VideoTitle, rv.VideoThumbnail, rv.Rating, rv.Title, rv.Content,
		tags, rv.IsPublic, db.FormatTime(now), db.FormatTime(now))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *reviewRepo) ByID(ctx context.Context, id string) (models.Review, error) {
	return scanReview(r.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id))
}

func (r *reviewRepo) list(ctx context.Context, query string, args ...interface{}) ([]models.Review, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]models.Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, nil
}

func (r *reviewRepo) ListByUser(ctx context.Context, userID string) ([]models.Review, error) {
	return r.list(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

func (r *reviewRepo) ListByVideo(ctx context.Context, externalID string) ([]models.Review, error) {
	return r.list(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE video_id = ? ORDER BY created_at DESC`, externalID)
}

func (r *reviewRepo) ListPublic(ctx context.Context, f store.PublicFilter) ([]models.Review, int, error) {
	where := ` WHERE is_public`
	var args []interface{}
	if f.VideoID != "" {
		where += ` AND video_id = ?`
		args = append(args, f.VideoID)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count public reviews: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	reviews, err := r.list(ctx,
		`SELECT `+reviewColumns+` FROM reviews`+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *reviewRepo) Update(ctx context.Context, rv models.Review) (models.Review, error) {
	tags, err := encodeTags(rv.Tags)
	if err != nil {
		return models.Review{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET rating = ?, title = ?, content = ?, tags = ?, is_public = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		rv.Rating, rv.Title, rv.Content, tags, rv.IsPublic, db.FormatTime(time.Now()), rv.ID, rv.UserID)
	if err != nil {
		return models.Review{}, fmt.Errorf("update review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Review{}, store.ErrNotFound
	}
	return r.ByID(ctx, rv.ID)
}

func (r *reviewRepo) Delete(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}
