package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/EduardoCrCo/final-backend-sub000/db"
	"github.com/EduardoCrCo/final-backend-sub000/models"
	"github.com/EduardoCrCo/final-backend-sub000/store"
	"github.com/google/uuid"
)

type playlistRepo struct {
	db *db.CompatDB
}

const playlistColumns = `id, user_id, name, description, created_at, updated_at`

func scanPlaylist(row scanner) (models.Playlist, error) {
	var p models.Playlist
	var createdAt, updatedAt string
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &createdAt, &updatedAt); err != nil {
		return models.Playlist{}, notFound(err)
	}
	p.CreatedAt = db.ParseTime(createdAt)
	p.UpdatedAt = db.ParseTime(updatedAt)
	p.Videos = []models.VideoSnapshot{}
	return p, nil
}

func (r *playlistRepo) Create(ctx context.Context, p *models.Playlist) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Videos == nil {
		p.Videos = []models.VideoSnapshot{}
	}

	return db.WithTx(ctx, r.db, func(conn *db.CompatConn) error {
		if _, err := conn.ExecContext(ctx,
			`INSERT INTO playlists (id, user_id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, p.UserID, p.Name, p.Description, db.FormatTime(now), db.FormatTime(now)); err != nil {
			return fmt.Errorf("insert playlist: %w", err)
		}
		for i, snap := range p.Videos {
			if err := insertSnapshot(ctx, conn, p.ID, i, snap); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertSnapshot(ctx context.Context, q db.Querier, playlistID string, position int, s models.VideoSnapshot) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO playlist_videos (playlist_id, position, video_id, title, thumbnail, channel_title, published_at, added_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		playlistID, position, s.VideoID, s.Title, s.Thumbnail, s.ChannelTitle, s.PublishedAt, db.FormatTime(s.AddedAt))
	if err != nil {
		return fmt.Errorf("insert playlist video: %w", err)
	}
	return nil
}

func (r *playlistRepo) ByID(ctx context.Context, id string) (models.Playlist, error) {
	p, err := scanPlaylist(r.db.QueryRowContext(ctx,
		`SELECT `+playlistColumns+` FROM playlists WHERE id = ?`, id))
	if err != nil {
		return models.Playlist{}, err
	}
	list := []models.Playlist{p}
	if err := r.attachVideos(ctx, list); err != nil {
		return models.Playlist{}, err
	}
	return list[0], nil
}

func (r *playlistRepo) list(ctx context.Context, query string, args ...interface{}) ([]models.Playlist, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query playlists: %w", err)
	}
	playlists := make([]models.Playlist, 0)
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}
	if err := r.attachVideos(ctx, playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}

func (r *playlistRepo) ListByUser(ctx context.Context, userID string) ([]models.Playlist, error) {
	return r.list(ctx, `SELECT `+playlistColumns+` FROM playlists WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

func (r *playlistRepo) List(ctx context.Context) ([]models.Playlist, error) {
	return r.list(ctx, `SELECT `+playlistColumns+` FROM playlists ORDER BY created_at ASC`)
}

func (r *playlistRepo) ListContaining(ctx context.Context, externalID, title string) ([]models.Playlist, error) {
	// Candidates are narrowed in SQL and confirmed with Playlist.Matches,
	// which also resolves legacy entries stored without a video id.
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT playlist_id FROM playlist_videos
		 WHERE (video_id = ? AND video_id <> '')
		    OR (title = ? AND title <> '')
		    OR (video_id = '' AND thumbnail LIKE '%/vi/%')`,
		externalID, title)
	if err != nil {
		return nil, fmt.Errorf("query playlist candidates: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan playlist candidate: %w", err)
		}
		ids = append(ids, id)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterate playlist candidates: %w", err)
	}
	if len(ids) == 0 {
		return []models.Playlist{}, nil
	}

	candidates, err := r.list(ctx,
		`SELECT `+playlistColumns+` FROM playlists WHERE id IN (`+db.Placeholders(len(ids))+`) ORDER BY created_at ASC`,
		idArgs(ids)...)
	if err != nil {
		return nil, err
	}
	matched := make([]models.Playlist, 0, len(candidates))
	for _, p := range candidates {
		if p.Matches(externalID, title) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (r *playlistRepo) attachVideos(ctx context.Context, playlists []models.Playlist) error {
	if len(playlists) == 0 {
		return nil
	}
	index := make(map[string]int, len(playlists))
	ids := make([]string, len(playlists))
	for i, p := range playlists {
		index[p.ID] = i
		ids[i] = p.ID
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT playlist_id, video_id, title, thumbnail, channel_title, published_at, added_at
		 FROM playlist_videos WHERE playlist_id IN (`+db.Placeholders(len(ids))+`)
		 ORDER BY playlist_id, position`,
		idArgs(ids)...)
	if err != nil {
		return fmt.Errorf("query playlist videos: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var playlistID, addedAt string
		var s models.VideoSnapshot
		if err := rows.Scan(&playlistID, &s.VideoID, &s.Title, &s.Thumbnail, &s.ChannelTitle, &s.PublishedAt, &addedAt); err != nil {
			return fmt.Errorf("scan playlist video: %w", err)
		}
		s.AddedAt = db.ParseTime(addedAt)
		i := index[playlistID]
		playlists[i].Videos = append(playlists[i].Videos, s)
	}
	return rows.Err()
}

func ownPlaylist(ctx context.Context, q db.Querier, id, userID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM playlists WHERE id = ? AND user_id = ?`, id, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func (r *playlistRepo) Update(ctx context.Context, id, userID, name, description string) (models.Playlist, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE playlists SET name = ?, description = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		name, description, db.FormatTime(time.Now()), id, userID)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("update playlist: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Playlist{}, store.ErrNotFound
	}
	return r.ByID(ctx, id)
}

func (r *playlistRepo) Delete(ctx context.Context, id, userID string) error {
	return db.WithTx(ctx, r.db, func(conn *db.CompatConn) error {
		if err := ownPlaylist(ctx, conn, id, userID); err != nil {
			return err
		}
		if _, err := conn.ExecContext(ctx, `DELETE FROM playlist_videos WHERE playlist_id = ?`, id); err != nil {
			return fmt.Errorf("delete playlist videos: %w", err)
		}
		if _, err := conn.ExecContext(ctx, `DELETE FROM playlists WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete playlist: %w", err)
		}
		return nil
	})
}

// snapshotRefs lists position and resolved id for each entry of a playlist.
func snapshotRefs(ctx context.Context, q db.Querier, id string) (map[int]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT position, video_id, thumbnail FROM playlist_videos WHERE playlist_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query playlist videos: %w", err)
	}
	defer rows.Close()
	refs := make(map[int]string)
	for rows.Next() {
		var pos int
		var s models.VideoSnapshot
		if err := rows.Scan(&pos, &s.VideoID, &s.Thumbnail); err != nil {
			return nil, fmt.Errorf("scan playlist video: %w", err)
		}
		refs[pos] = s.ResolvedID()
	}
	return refs, rows.Err()
}

func (r *playlistRepo) AppendVideo(ctx context.Context, id, userID string, snap models.VideoSnapshot) (models.Playlist, error) {
	resolved := snap.ResolvedID()
	err := db.WithTx(ctx, r.db, func(conn *db.CompatConn) error {
		if err := ownPlaylist(ctx, conn, id, userID); err != nil {
			return err
		}
		refs, err := snapshotRefs(ctx, conn, id)
		if err != nil {
			return err
		}
		next := 0
		for pos, ref := range refs {
			if resolved != "" && ref == resolved {
				return store.ErrAlreadyMember
			}
			if pos >= next {
				next = pos + 1
			}
		}
		if snap.AddedAt.IsZero() {
			snap.AddedAt = time.Now().UTC()
		}
		if err := insertSnapshot(ctx, conn, id, next, snap); err != nil {
			return err
		}
		_, err = conn.ExecContext(ctx, `UPDATE playlists SET updated_at = ? WHERE id = ?`, db.FormatTime(time.Now()), id)
		return err
	})
	if err != nil {
		return models.Playlist{}, err
	}
	return r.ByID(ctx, id)
}

func (r *playlistRepo) RemoveVideo(ctx context.Context, id, userID, videoID string) (models.Playlist, error) {
	err := db.WithTx(ctx, r.db, func(conn *db.CompatConn) error {
		if err := ownPlaylist(ctx, conn, id, userID); err != nil {
			return err
		}
		refs, err := snapshotRefs(ctx, conn, id)
		if err != nil {
			return err
		}
		removed := 0
		for pos, ref := range refs {
			if videoID == "" || ref != videoID {
				continue
			}
			if _, err := conn.ExecContext(ctx,
				`DELETE FROM playlist_videos WHERE playlist_id = ? AND position = ?`, id, pos); err != nil {
				return fmt.Errorf("delete playlist video: %w", err)
			}
			removed++
		}
		if removed == 0 {
			return nil
		}
		_, err = conn.ExecContext(ctx, `UPDATE playlists SET updated_at = ? WHERE id = ?`, db.FormatTime(time.Now()), id)
		return err
	})
	if err != nil {
		return models.Playlist{}, err
	}
	return r.ByID(ctx, id)
}
