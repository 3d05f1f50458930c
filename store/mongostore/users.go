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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userRepo struct {
	coll *mongo.Collection
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepo) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		return models.User{}, notFound(err)
	}
	return u, nil
}

func (r *userRepo) ByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *userRepo) ByEmail(ctx context.Context, email string, activeOnly bool) (models.User, error) {
	filter := bson.M{"email": email}
	if activeOnly {
		filter["isActive"] = true
	}
	return r.findOne(ctx, filter)
}

func (r *userRepo) ListActive(ctx context.Context) ([]models.User, error) {
	return findAll[models.User](ctx, r.coll, bson.M{"isActive": true}, oldest())
}

func (r *userRepo) updateActive(ctx context.Context, id string, set bson.M) (models.User, error) {
	set["updatedAt"] = time.Now().UTC()
	var u models.User
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "isActive": true},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		return models.User{}, notFound(err)
	}
	return u, nil
}

func (r *userRepo) UpdateProfile(ctx context.Context, id, name, about string) (models.User, error) {
	return r.updateActive(ctx, id, bson.M{"name": name, "about": about})
}

func (r *userRepo) UpdateAvatar(ctx context.Context, id, avatar string) (models.User, error) {
	return r.updateActive(ctx, id, bson.M{"avatar": avatar})
}

func (r *userRepo) Deactivate(ctx context.Context, id string) error {
	_, err := r.updateActive(ctx, id, bson.M{"isActive": false})
	return err
}

func (r *userRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if _, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"lastLogin": at.UTC()}}); err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}
