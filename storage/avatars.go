// Package storage keeps user avatar images in a MinIO (S3-compatible) bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/EduardoCrCo/final-backend-sub000/apperr"
	"github.com/EduardoCrCo/final-backend-sub000/config"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// MaxAvatarSize is the largest accepted avatar upload (2 MB).
const MaxAvatarSize int64 = 2 << 20

var ErrUnsupportedType = apperr.Validation("avatar must be a JPEG, PNG, GIF or WebP image")

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// bucketClient is the subset of *minio.Client used here.
type bucketClient interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	SetBucketPolicy(ctx context.Context, bucket, policy string) error
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Avatars stores avatar images and hands out their public URLs.
type Avatars struct {
	client    bucketClient
	bucket    string
	publicURL string
}

// New connects to the endpoint in cfg. It does not touch the network until
// EnsureBucket or Put is called.
func New(cfg config.StorageConfig) (*Avatars, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	base := cfg.PublicURL
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint
	}
	return newAvatars(client, cfg.Bucket, base), nil
}

func newAvatars(client bucketClient, bucket, publicURL string) *Avatars {
	return &Avatars{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

// EnsureBucket creates the bucket when missing and makes its objects
// publicly readable.
func (a *Avatars) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", a.bucket, err)
	}
	if err := a.client.SetBucketPolicy(ctx, a.bucket, readOnlyPolicy(a.bucket)); err != nil {
		return fmt.Errorf("set bucket policy %s: %w", a.bucket, err)
	}
	log.Info().Str("bucket", a.bucket).Msg("created avatar bucket")
	return nil
}

func readOnlyPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}

// Put uploads one avatar for userID and returns its public URL. Every upload
// gets a fresh key so clients never see a cached older image.
func (a *Avatars) Put(ctx context.Context, userID, contentType string, r io.Reader, size int64) (string, error) {
	ext, ok := extensions[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}
	key := fmt.Sprintf("%s/%s.%s", url.PathEscape(userID), uuid.NewString(), ext)
	if _, err := a.client.PutObject(ctx, a.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", apperr.External("avatar upload failed", err)
	}
	return a.publicURL + "/" + a.bucket + "/" + key, nil
}
