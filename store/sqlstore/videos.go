package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/EduardoCrCo/final-backend-sub000/db"
	"github.com/EduardoCrCo/final-backend-sub000/models"
	"github.com/EduardoCrCo/final-backend-sub000/store"
	"github.com/google/uuid"
)

type videoRepo struct {
	db *db.CompatDB
}

// membership names a join table and the counter column it drives.
type membership struct {
	table   string
	counter string
}

var (
	likes = membership{table: "video_likes", counter: "likes_count"}
	saves = membership{table: "video_saves", counter: "saves_count"}
)

const videoColumns = `v.id, v.external_id, v.title, v.description, v.channel_title, v.published_at,
	v.thumbnails, v.duration, v.user_id, v.likes_count, v.saves_count, v.created_at, v.updated_at`

func scanVideo(row scanner) (models.Video, error) {
	var v models.Video
	var publishedAt, thumbs, createdAt, updatedAt string
	var userID sql.NullString
	if err := row.Scan(&v.ID, &v.ExternalID, &v.Title, &v.Description, &v.ChannelTitle, &publishedAt,
		&thumbs, &v.Duration, &userID, &v.LikesCount, &v.SavesCount, &createdAt, &updatedAt); err != nil {
		return models.Video{}, notFound(err)
	}
	if thumbs != "" {
		if err := json.Unmarshal([]byte(thumbs), &v.Thumbnails); err != nil {
			return models.Video{}, fmt.Errorf("decode thumbnails: %w", err)
		}
	}
	v.UserID = userID.String
	v.PublishedAt = db.ParseTime(publishedAt)
	v.CreatedAt = db.ParseTime(createdAt)
	v.UpdatedAt = db.ParseTime(updatedAt)
	v.LikedBy = []string{}
	v.SavedBy = []string{}
	return v, nil
}

func (r *videoRepo) UpsertByExternalID(ctx context.Context, v models.Video, ownerID string) (models.Video, error) {
	thumbs, err := json.Marshal(v.Thumbnails)
	if err != nil {
		return models.Video{}, fmt.Errorf("encode thumbnails: %w", err)
	}
	now := db.FormatTime(time.Now())
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO videos (id, external_id, title, description, channel_title, published_at,
			thumbnails, duration, user_id, likes_count, saves_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)
		 ON CONFLICT (external_id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			channel_title = excluded.channel_title,
			published_at = excluded.published_at,
			thumbnails = excluded.thumbnails,
			duration = CASE WHEN excluded.duration <> '' THEN excluded.duration ELSE videos.duration END,
			user_id = COALESCE(videos.user_id, excluded.user_id),
			updated_at = excluded.updated_at`,
		uuid.New().String(), v.ExternalID, v.Title, v.Description, v.ChannelTitle,
		db.FormatTime(v.PublishedAt), string(thumbs), v.Duration, nullable(ownerID), now, now)
	if err != nil {
		return models.Video{}, fmt.Errorf("upsert video %s: %w", v.ExternalID, err)
	}
	return r.ByExternalID(ctx, v.ExternalID)
}

func (r *videoRepo) one(ctx context.Context, where string, arg string) (models.Video, error) {
	v, err := scanVideo(r.db.QueryRowContext(ctx,
		`SELECT `+videoColumns+` FROM videos v WHERE `+where, arg))
	if err != nil {
		return models.Video{}, err
	}
	list := []models.Video{v}
	if err := r.attachMembers(ctx, list); err != nil {
		return models.Video{}, err
	}
	return list[0], nil
}

func (r *videoRepo) ByID(ctx context.Context, id string) (models.Video, error) {
	return r.one(ctx, `v.id = ?`, id)
}

func (r *videoRepo) ByExternalID(ctx context.Context, externalID string) (models.Video, error) {
	return r.one(ctx, `v.external_id = ?`, externalID)
}

func (r *videoRepo) list(ctx context.Context, query string, args ...interface{}) ([]models.Video, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	videos := make([]models.Video, 0)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	if err := r.attachMembers(ctx, videos); err != nil {
		return nil, err
	}
	return videos, nil
}

func (r *videoRepo) List(ctx context.Context) ([]models.Video, error) {
	return r.list(ctx, `SELECT `+videoColumns+` FROM videos v ORDER BY v.created_at DESC`)
}

func (r *videoRepo) ListByOwner(ctx context.Context, userID string) ([]models.Video, error) {
	return r.list(ctx, `SELECT `+videoColumns+` FROM videos v WHERE v.user_id = ? ORDER BY v.created_at DESC`, userID)
}

func (r *videoRepo) ListLikedBy(ctx context.Context, userID string) ([]models.Video, error) {
	return r.list(ctx, `SELECT `+videoColumns+` FROM videos v
		JOIN video_likes m ON m.video_id = v.id
		WHERE m.user_id = ? ORDER BY m.created_at DESC`, userID)
}

func (r *videoRepo) ListSavedBy(ctx context.Context, userID string) ([]models.Video, error) {
	return r.list(ctx, `SELECT `+videoColumns+` FROM videos v
		JOIN video_saves m ON m.video_id = v.id
		WHERE m.user_id = ? ORDER BY m.created_at DESC`, userID)
}

// attachMembers fills LikedBy and SavedBy from the join tables.
func (r *videoRepo) attachMembers(ctx context.Context, videos []models.Video) error {
	if len(videos) == 0 {
		return nil
	}
	index := make(map[string]int, len(videos))
	ids := make([]string, len(videos))
	for i, v := range videos {
		index[v.ID] = i
		ids[i] = v.ID
	}
	for _, m := range []membership{likes, saves} {
		rows, err := r.db.QueryContext(ctx,
			`SELECT video_id, user_id FROM `+m.table+` WHERE video_id IN (`+db.Placeholders(len(ids))+`) ORDER BY created_at ASC`,
			idArgs(ids)...)
		if err != nil {
			return fmt.Errorf("query %s: %w", m.table, err)
		}
		for rows.Next() {
			var videoID, userID string
			if err := rows.Scan(&videoID, &userID); err != nil {
				rows.Close()
				return fmt.Errorf("scan %s: %w", m.table, err)
			}
			i := index[videoID]
			if m == likes {
				videos[i].LikedBy = append(videos[i].LikedBy, userID)
			} else {
				videos[i].SavedBy = append(videos[i].SavedBy, userID)
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return fmt.Errorf("iterate %s: %w", m.table, err)
		}
	}
	return nil
}

func videoExists(ctx context.Context, q db.Querier, videoID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM videos WHERE id = ?`, videoID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func (r *videoRepo) add(ctx context.Context, m membership, videoID, userID string) (models.Video, error) {
	err := db.WithTx(ctx, r.db, func(conn *db.CompatConn) error {
		if err := videoExists(ctx, conn, videoID); err != nil {
			return err
		}
		now := db.FormatTime(time.Now())
		res, err := conn.ExecContext(ctx,
			`INSERT INTO `+m.table+` (video_id, user_id, created_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
			videoID, userID, now)
		if err != nil {
			return fmt.Errorf("insert %s: %w", m.table, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrAlreadyMember
		}
		_, err = conn.ExecContext(ctx,
			`UPDATE videos SET `+m.counter+` = `+m.counter+` + 1, updated_at = ? WHERE id = ?`, now, videoID)
		return err
	})
	if err != nil {
		return models.Video{}, err
	}
	return r.ByID(ctx, videoID)
}

func (r *videoRepo) remove(ctx context.Context, m membership, videoID, userID string) (models.Video, error) {
	err := db.WithTx(ctx, r.db, func(conn *db.CompatConn) error {
		if err := videoExists(ctx, conn, videoID); err != nil {
			return err
		}
		res, err := conn.ExecContext(ctx,
			`DELETE FROM `+m.table+` WHERE video_id = ? AND user_id = ?`, videoID, userID)
		if err != nil {
			return fmt.Errorf("delete %s: %w", m.table, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		_, err = conn.ExecContext(ctx,
			`UPDATE videos SET `+m.counter+` = CASE WHEN `+m.counter+` > 0 THEN `+m.counter+` - 1 ELSE 0 END,
			 updated_at = ? WHERE id = ?`, db.FormatTime(time.Now()), videoID)
		return err
	})
	if err != nil {
		return models.Video{}, err
	}
	return r.ByID(ctx, videoID)
}

func (r *videoRepo) AddLike(ctx context.Context, videoID, userID string) (models.Video, error) {
	return r.add(ctx, likes, videoID, userID)
}

func (r *videoRepo) RemoveLike(ctx context.Context, videoID, userID string) (models.Video, error) {
	return r.remove(ctx, likes, videoID, userID)
}

func (r *videoRepo) AddSave(ctx context.Context, videoID, userID string) (models.Video, error) {
	return r.add(ctx, saves, videoID, userID)
}

func (r *videoRepo) RemoveSave(ctx context.Context, videoID, userID string) (models.Video, error) {
	return r.remove(ctx, saves, videoID, userID)
}
