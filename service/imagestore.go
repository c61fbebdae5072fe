package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/thamerkt/contract-service/config"
)

const signatureDir = "signatures"

// ImageStore persists signature images under the signatures/ subtree and
// returns the relative storage path.
type ImageStore interface {
	Save(ctx context.Context, ownerName string, data []byte) (string, error)
	URL(relPath string) string
}

// DecodeSignatureImage decodes a data-URI-encoded image
// ("<header>,<base64-payload>"). A missing separator or an undecodable
// payload fails with a *ValidationError before any side effect.
func DecodeSignatureImage(dataURI string) ([]byte, error) {
	_, encoded, ok := strings.Cut(dataURI, ",")
	if !ok {
		return nil, &ValidationError{Msg: "Invalid base64 image data"}
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &ValidationError{Msg: "Invalid base64 image data"}
	}
	return data, nil
}

// imageName derives the storage filename from the owner name (whitespace
// replaced) and the current timestamp at second resolution.
func imageName(ownerName string, now time.Time) string {
	return fmt.Sprintf("%s_%s.png", strings.ReplaceAll(ownerName, " ", "_"), now.Format("20060102150405"))
}

// LocalImageStore persists signature images on the local filesystem under
// a media root directory.
type LocalImageStore struct {
	root    string
	baseURL string
	now     func() time.Time
}

func NewLocalImageStore(cfg *config.MediaConfig) *LocalImageStore {
	return &LocalImageStore{
		root:    cfg.Root,
		baseURL: cfg.BaseURL,
		now:     time.Now,
	}
}

func (s *LocalImageStore) Save(_ context.Context, ownerName string, data []byte) (string, error) {
	dir := filepath.Join(s.root, signatureDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create signature directory: %w", err)
	}

	name := imageName(ownerName, s.now())
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write signature image: %w", err)
	}

	return path.Join(signatureDir, name), nil
}

func (s *LocalImageStore) URL(relPath string) string {
	return strings.TrimSuffix(s.baseURL, "/") + "/" + relPath
}

// MinioImageStore persists signature images in a MinIO bucket, keyed by the
// same signatures/ relative path.
type MinioImageStore struct {
	client *minio.Client
	bucket string
	config *config.MinioConfig
	now    func() time.Time
}

func NewMinioImageStore(cfg *config.MinioConfig) (*MinioImageStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioImageStore{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
		now:    time.Now,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *MinioImageStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

func (s *MinioImageStore) Save(ctx context.Context, ownerName string, data []byte) (string, error) {
	objectName := path.Join(signatureDir, imageName(ownerName, s.now()))

	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "image/png",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload signature image: %w", err)
	}

	return objectName, nil
}

func (s *MinioImageStore) URL(relPath string) string {
	protocol := "http"
	if s.config.UseSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, s.config.Endpoint, s.bucket, relPath)
}
