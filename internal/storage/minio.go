package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// AvatarStore keeps profile pictures in a MinIO bucket; the stored object key
// backs the user's photoURL.
type AvatarStore struct {
	client *minio.Client
	bucket string
}

// NewAvatarStore creates a MinIO-backed avatar store and ensures the bucket exists.
func NewAvatarStore(cfg *MinIOConfig) (*AvatarStore, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &AvatarStore{client: mc, bucket: cfg.Bucket}
	// ensure bucket exists (idempotent)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		exist, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

// avatarKey derives the object key for a user's avatar; one object per user,
// overwritten on re-upload.
func avatarKey(uid string) string {
	return "avatars/" + uid
}

// Upload stores the avatar and returns its object key.
func (s *AvatarStore) Upload(ctx context.Context, uid string, reader io.Reader, size int64, contentType string) (string, error) {
	key := avatarKey(uid)
	if _, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", err
	}
	return key, nil
}

// URL returns a presigned GET URL for the user's avatar valid for the given duration.
func (s *AvatarStore) URL(ctx context.Context, uid string, expires time.Duration) (string, error) {
	reqParams := make(url.Values)
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, avatarKey(uid), expires, reqParams)
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}
