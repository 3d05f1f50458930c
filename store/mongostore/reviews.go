package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/EduardoCrCo/final-backend-sub000/models"
	"github.com/EduardoCrCo/final-backend-sub000/store"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type reviewRepo struct {
	coll *mongo.Collection
}

func fillTags(rv models.Review) models.Review {
	if rv.Tags == nil {
		rv.Tags = []string{}
	}
	return rv
}

func (r *reviewRepo) Create(ctx context.Context, rv *models.Review) error {
	if rv.ID == "" {
		rv.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	rv.CreatedAt, rv.UpdatedAt = now, now
	*rv = fillTags(*rv)
	if _, err := r.coll.InsertOne(ctx, rv); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *reviewRepo) ByID(ctx context.Context, id string) (models.Review, error) {
	var rv models.Review
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rv); err != nil {
		return models.Review{}, notFound(err)
	}
	return fillTags(rv), nil
}

func (r *reviewRepo) list(ctx context.Context, filter bson.M) ([]models.Review, error) {
	reviews, err := findAll[models.Review](ctx, r.coll, filter, newest())
	if err != nil {
		return nil, err
	}
	for i := range reviews {
		reviews[i] = fillTags(reviews[i])
	}
	return reviews, nil
}

func (r *reviewRepo) ListByUser(ctx context.Context, userID string) ([]models.Review, error) {
	return r.list(ctx, bson.M{"userId": userID})
}

func (r *reviewRepo) ListByVideo(ctx context.Context, externalID string) ([]models.Review, error) {
	return r.list(ctx, bson.M{"videoId": externalID})
}

func (r *reviewRepo) ListPublic(ctx context.Context, f store.PublicFilter) ([]models.Review, int, error) {
	filter := bson.M{"isPublic": true}
	if f.VideoID != "" {
		filter["videoId"] = f.VideoID
	}
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count public reviews: %w", err)
	}
	opts := newest().SetSkip(int64(f.Offset)).SetLimit(int64(f.Limit))
	reviews, err := findAll[models.Review](ctx, r.coll, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	for i := range reviews {
		reviews[i] = fillTags(reviews[i])
	}
	return reviews, int(total), nil
}

func (r *reviewRepo) Update(ctx context.Context, rv models.Review) (models.Review, error) {
	rv = fillTags(rv)
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": rv.ID, "userId": rv.UserID},
		bson.M{"$set": bson.M{
			"rating":    rv.Rating,
			"title":     rv.Title,
			"content":   rv.Content,
			"tags":      rv.Tags,
			"isPublic":  rv.IsPublic,
			"updatedAt": time.Now().UTC(),
		}})
	if err != nil {
		return models.Review{}, fmt.Errorf("update review: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.Review{}, store.ErrNotFound
	}
	return r.ByID(ctx, rv.ID)
}

func (r *reviewRepo) Delete(ctx context.Context, id, userID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
