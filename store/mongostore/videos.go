package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/EduardoCrCo/final-backend-sub000/models"
	"github.com/EduardoCrCo/final-backend-sub000/store"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type videoRepo struct {
	coll *mongo.Collection
}

// membership names the member array and the counter it drives.
type membership struct {
	members string
	counter string
}

var (
	likes = membership{members: "likedBy", counter: "likesCount"}
	saves = membership{members: "savedBy", counter: "savesCount"}
)

func afterUpdate() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

func (r *videoRepo) UpsertByExternalID(ctx context.Context, v models.Video, ownerID string) (models.Video, error) {
	now := time.Now().UTC()
	set := bson.M{
		"title":        v.Title,
		"description":  v.Description,
		"channelTitle": v.ChannelTitle,
		"publishedAt":  v.PublishedAt,
		"thumbnails":   v.Thumbnails,
		"updatedAt":    now,
	}
	if v.Duration != "" {
		set["duration"] = v.Duration
	}
	onInsert := bson.M{
		"_id":        uuid.New().String(),
		"likesCount": 0,
		"savesCount": 0,
		"likedBy":    []string{},
		"savedBy":    []string{},
		"createdAt":  now,
	}
	update := bson.M{"$set": set, "$setOnInsert": onInsert}

	var out models.Video
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"externalId": v.ExternalID}, update,
		afterUpdate().SetUpsert(true)).Decode(&out)
	if mongo.IsDuplicateKeyError(err) {
		// Lost an insert race on the unique index; the document exists now.
		err = r.coll.FindOneAndUpdate(ctx, bson.M{"externalId": v.ExternalID},
			bson.M{"$set": set}, afterUpdate()).Decode(&out)
	}
	if err != nil {
		return models.Video{}, fmt.Errorf("upsert video %s: %w", v.ExternalID, err)
	}

	if ownerID != "" && out.UserID == "" {
		err := r.coll.FindOneAndUpdate(ctx,
			bson.M{"_id": out.ID, "userId": bson.M{"$in": bson.A{nil, ""}}},
			bson.M{"$set": bson.M{"userId": ownerID}}, afterUpdate()).Decode(&out)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return models.Video{}, fmt.Errorf("claim video %s: %w", v.ExternalID, err)
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			return r.ByID(ctx, out.ID)
		}
	}
	return normalize(out), nil
}

// normalize guarantees non-nil member arrays for documents written by other
// tools.
func normalize(v models.Video) models.Video {
	if v.LikedBy == nil {
		v.LikedBy = []string{}
	}
	if v.SavedBy == nil {
		v.SavedBy = []string{}
	}
	return v
}

func (r *videoRepo) findOne(ctx context.Context, filter bson.M) (models.Video, error) {
	var v models.Video
	if err := r.coll.FindOne(ctx, filter).Decode(&v); err != nil {
		return models.Video{}, notFound(err)
	}
	return normalize(v), nil
}

func (r *videoRepo) ByID(ctx context.Context, id string) (models.Video, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *videoRepo) ByExternalID(ctx context.Context, externalID string) (models.Video, error) {
	return r.findOne(ctx, bson.M{"externalId": externalID})
}

func (r *videoRepo) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Video, error) {
	videos, err := findAll[models.Video](ctx, r.coll, filter, opts)
	if err != nil {
		return nil, err
	}
	for i := range videos {
		videos[i] = normalize(videos[i])
	}
	return videos, nil
}

func (r *videoRepo) List(ctx context.Context) ([]models.Video, error) {
	return r.list(ctx, bson.M{}, newest())
}

func (r *videoRepo) ListByOwner(ctx context.Context, userID string) ([]models.Video, error) {
	return r.list(ctx, bson.M{"userId": userID}, newest())
}

func (r *videoRepo) ListLikedBy(ctx context.Context, userID string) ([]models.Video, error) {
	return r.list(ctx, bson.M{likes.members: userID}, options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}))
}

func (r *videoRepo) ListSavedBy(ctx context.Context, userID string) ([]models.Video, error) {
	return r.list(ctx, bson.M{saves.members: userID}, options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}))
}

func (r *videoRepo) add(ctx context.Context, m membership, videoID, userID string) (models.Video, error) {
	var v models.Video
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": videoID, m.members: bson.M{"$ne": userID}},
		bson.M{
			"$addToSet": bson.M{m.members: userID},
			"$inc":      bson.M{m.counter: 1},
			"$set":      bson.M{"updatedAt": time.Now().UTC()},
		},
		afterUpdate(),
	).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either the video is missing or the user is already a member.
		if _, err := r.ByID(ctx, videoID); err != nil {
			return models.Video{}, err
		}
		return models.Video{}, store.ErrAlreadyMember
	}
	if err != nil {
		return models.Video{}, fmt.Errorf("add %s: %w", m.members, err)
	}
	return normalize(v), nil
}

func (r *videoRepo) remove(ctx context.Context, m membership, videoID, userID string) (models.Video, error) {
	var v models.Video
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": videoID, m.members: userID},
		bson.M{
			"$pull": bson.M{m.members: userID},
			"$inc":  bson.M{m.counter: -1},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
		afterUpdate(),
	).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return r.ByID(ctx, videoID)
	}
	if err != nil {
		return models.Video{}, fmt.Errorf("remove %s: %w", m.members, err)
	}
	return normalize(v), nil
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
