// Package mongostore implements store.Store on MongoDB. Playlists embed their
// video snapshots; likes and saves live on the video document so membership
// and counter change in one single-document update.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/EduardoCrCo/final-backend-sub000/store"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection     = "users"
	videosCollection    = "videos"
	playlistsCollection = "playlists"
	reviewsCollection   = "reviews"
)

// Store is the MongoDB-backed store.Store.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to uri, selects database and ensures indexes.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.EnsureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	log.Info().Str("database", database).Msg("connected to mongo")
	return s, nil
}

// NewFromDatabase wraps an existing database handle. Close is a no-op.
func NewFromDatabase(db *mongo.Database) *Store {
	return &Store{db: db}
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		videosCollection: {
			{Keys: bson.D{{Key: "externalId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
			{Keys: bson.D{{Key: "likedBy", Value: 1}}},
			{Keys: bson.D{{Key: "savedBy", Value: 1}}},
		},
		playlistsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
			{Keys: bson.D{{Key: "videos.videoId", Value: 1}}},
		},
		reviewsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "videoId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "isPublic", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for coll, idx := range specs {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

func (s *Store) Users() store.Users {
	return &userRepo{coll: s.db.Collection(usersCollection)}
}

func (s *Store) Videos() store.Videos {
	return &videoRepo{coll: s.db.Collection(videosCollection)}
}

func (s *Store) Playlists() store.Playlists {
	return &playlistRepo{coll: s.db.Collection(playlistsCollection)}
}

func (s *Store) Reviews() store.Reviews {
	return &reviewRepo{coll: s.db.Collection(reviewsCollection)}
}

func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

// findAll decodes every document matched by filter into a non-nil slice.
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", coll.Name(), err)
	}
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

func newest() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}

func oldest() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
}
