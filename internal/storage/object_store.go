package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"librarium/api/internal/config"
)

// ObjectStore holds uploaded ID-proof documents. Objects are keyed by
// date prefix and subject id; re-uploads overwrite the previous document.
type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *ObjectStore) EnsureBuckets(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.BucketIDProofs)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.BucketIDProofs, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.BucketIDProofs, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.BucketIDProofs, err)
		}
	}
	return nil
}

// PutIDProof stores the document and returns its object URL.
func (s *ObjectStore) PutIDProof(ctx context.Context, subjectID string, data []byte, contentType, ext string) (string, error) {
	datePrefix := time.Now().UTC().Format("2006/01/02")
	objectKey := path.Join("id-proofs", datePrefix, fmt.Sprintf("%s.%s", subjectID, ext))

	_, err := s.client.PutObject(ctx, s.cfg.BucketIDProofs, objectKey,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return s.objectURL(objectKey), nil
}

// PresignIDProof returns a short-lived read URL for operator review.
func (s *ObjectStore) PresignIDProof(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.cfg.BucketIDProofs, objectKey, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign object: %w", err)
	}
	return u.String(), nil
}

func (s *ObjectStore) objectURL(objectKey string) string {
	base := strings.TrimSuffix(s.cfg.Endpoint, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/%s/%s", base, s.cfg.BucketIDProofs, objectKey)
}
