// Package minio stores model snapshots and standardization reports as
// object-storage blobs.
package minio

import (
	"bytes"
	"context"
	"io"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/modelseed/kbutil/internal/config"
	"github.com/modelseed/kbutil/internal/infrastructure/logging"
	"github.com/modelseed/kbutil/pkg/errors"
)

// API is the slice of the minio-go client the store uses; it exists so tests
// can substitute a fake.
type API interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// Store persists model and report blobs under a single bucket, prefixed by
// kind ("models/", "reports/").
type Store struct {
	client API
	bucket string
	log    logging.Logger
}

// NewStore dials the object store and ensures the configured bucket exists.
func NewStore(ctx context.Context, cfg config.MinioConfig, log logging.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBlobError, "creating object-store client")
	}
	s := &Store{client: client, bucket: cfg.Bucket, log: log}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	log.Info("object store connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket))
	return s, nil
}

// NewStoreWithAPI builds a Store over an existing API without dialing.
func NewStoreWithAPI(client API, bucket string, log logging.Logger) *Store {
	return &Store{client: client, bucket: bucket, log: log}
}

func (s *Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeBlobError, "checking bucket")
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Wrapf(err, errors.ErrCodeBlobError, "creating bucket %s", s.bucket)
	}
	s.log.Info("created bucket", logging.String("bucket", s.bucket))
	return nil
}

// PutModel stores a serialized model under models/<id>/<version>.json.
func (s *Store) PutModel(ctx context.Context, modelID, version string, data []byte) error {
	return s.put(ctx, modelKey(modelID, version), data, "application/json")
}

// GetModel retrieves a serialized model.
func (s *Store) GetModel(ctx context.Context, modelID, version string) ([]byte, error) {
	return s.get(ctx, modelKey(modelID, version))
}

// PutReport stores a rendered standardization report under
// reports/<id>/<timestamp>.html.
func (s *Store) PutReport(ctx context.Context, modelID string, stamp time.Time, html []byte) (string, error) {
	key := reportKey(modelID, stamp)
	if err := s.put(ctx, key, html, "text/html"); err != nil {
		return "", err
	}
	return key, nil
}

// GetReport retrieves a rendered report by key.
func (s *Store) GetReport(ctx context.Context, key string) ([]byte, error) {
	return s.get(ctx, key)
}

// ListReports lists report keys for a model, newest last.
func (s *Store) ListReports(ctx context.Context, modelID string) ([]string, error) {
	prefix := path.Join("reports", modelID) + "/"
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeBlobError, "listing reports")
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// Delete removes one object by key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrapf(err, errors.ErrCodeBlobError, "removing %s", key)
	}
	return nil
}

func (s *Store) put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return errors.Wrapf(err, errors.ErrCodeBlobError, "storing %s", key)
	}
	s.log.Debug("stored object", logging.String("key", key), logging.Int("bytes", len(data)))
	return nil
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeBlobError, "fetching %s", key)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeBlobError, "reading %s", key)
	}
	return data, nil
}

func modelKey(modelID, version string) string {
	return path.Join("models", modelID, version+".json")
}

func reportKey(modelID string, stamp time.Time) string {
	return path.Join("reports", modelID, stamp.UTC().Format("20060102T150405Z")+".html")
}
