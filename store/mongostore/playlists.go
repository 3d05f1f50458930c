package mongostore

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/EduardoCrCo/final-backend-sub000/models"
	"github.com/EduardoCrCo/final-backend-sub000/store"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type playlistRepo struct {
	coll *mongo.Collection
}

func fillVideos(p models.Playlist) models.Playlist {
	if p.Videos == nil {
		p.Videos = []models.VideoSnapshot{}
	}
	return p
}

// thumbnailFor matches snapshot thumbnails that embed externalID.
func thumbnailFor(externalID string) bson.M {
	return bson.M{"$regex": "/vi/" + regexp.QuoteMeta(externalID) + "/"}
}

func (r *playlistRepo) Create(ctx context.Context, p *models.Playlist) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	*p = fillVideos(*p)
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert playlist: %w", err)
	}
	return nil
}

func (r *playlistRepo) ByID(ctx context.Context, id string) (models.Playlist, error) {
	var p models.Playlist
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return models.Playlist{}, notFound(err)
	}
	return fillVideos(p), nil
}

func (r *playlistRepo) owned(ctx context.Context, id, userID string) (models.Playlist, error) {
	p, err := r.ByID(ctx, id)
	if err != nil {
		return models.Playlist{}, err
	}
	if p.UserID != userID {
		return models.Playlist{}, store.ErrNotFound
	}
	return p, nil
}

func (r *playlistRepo) list(ctx context.Context, filter bson.M, newestFirst bool) ([]models.Playlist, error) {
	opts := oldest()
	if newestFirst {
		opts = newest()
	}
	playlists, err := findAll[models.Playlist](ctx, r.coll, filter, opts)
	if err != nil {
		return nil, err
	}
	for i := range playlists {
		playlists[i] = fillVideos(playlists[i])
	}
	return playlists, nil
}

func (r *playlistRepo) ListByUser(ctx context.Context, userID string) ([]models.Playlist, error) {
	return r.list(ctx, bson.M{"userId": userID}, true)
}

func (r *playlistRepo) List(ctx context.Context) ([]models.Playlist, error) {
	return r.list(ctx, bson.M{}, false)
}

func (r *playlistRepo) ListContaining(ctx context.Context, externalID, title string) ([]models.Playlist, error) {
	var or bson.A
	if externalID != "" {
		or = append(or,
			bson.M{"videos.videoId": externalID},
			bson.M{"videos.thumbnail": thumbnailFor(externalID)})
	}
	if title != "" {
		or = append(or, bson.M{"videos.title": title})
	}
	if len(or) == 0 {
		return []models.Playlist{}, nil
	}
	candidates, err := r.list(ctx, bson.M{"$or": or}, false)
	if err != nil {
		return nil, err
	}
	// A thumbnail hit only counts for entries without an explicit id.
	matched := make([]models.Playlist, 0, len(candidates))
	for _, p := range candidates {
		if p.Matches(externalID, title) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (r *playlistRepo) Update(ctx context.Context, id, userID, name, description string) (models.Playlist, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": bson.M{"name": name, "description": description, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return models.Playlist{}, fmt.Errorf("update playlist: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.Playlist{}, store.ErrNotFound
	}
	return r.ByID(ctx, id)
}

func (r *playlistRepo) Delete(ctx context.Context, id, userID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *playlistRepo) AppendVideo(ctx context.Context, id, userID string, snap models.VideoSnapshot) (models.Playlist, error) {
	p, err := r.owned(ctx, id, userID)
	if err != nil {
		return models.Playlist{}, err
	}
	resolved := snap.ResolvedID()
	if p.Contains(resolved) {
		return models.Playlist{}, store.ErrAlreadyMember
	}
	if snap.AddedAt.IsZero() {
		snap.AddedAt = time.Now().UTC()
	}

	filter := bson.M{"_id": id, "userId": userID}
	if resolved != "" {
		filter["videos.videoId"] = bson.M{"$ne": resolved}
	}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{
		"$push": bson.M{"videos": snap},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return models.Playlist{}, fmt.Errorf("append playlist video: %w", err)
	}
	if res.MatchedCount == 0 {
		// A concurrent append won.
		return models.Playlist{}, store.ErrAlreadyMember
	}
	return r.ByID(ctx, id)
}

func (r *playlistRepo) RemoveVideo(ctx context.Context, id, userID, videoID string) (models.Playlist, error) {
	p, err := r.owned(ctx, id, userID)
	if err != nil {
		return models.Playlist{}, err
	}
	if !p.Contains(videoID) {
		return p, nil
	}
	_, err = r.coll.UpdateOne(ctx, bson.M{"_id": id, "userId": userID}, bson.M{
		"$pull": bson.M{"videos": bson.M{"$or": bson.A{
			bson.M{"videoId": videoID},
			bson.M{"videoId": bson.M{"$in": bson.A{nil, ""}}, "thumbnail": thumbnailFor(videoID)},
		}}},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return models.Playlist{}, fmt.Errorf("remove playlist video: %w", err)
	}
	return r.ByID(ctx, id)
}
