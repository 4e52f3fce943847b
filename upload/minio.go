package upload

import (
	"context"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// MinioStore keeps uploads in an S3 compatible bucket under <id>/<name>.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{})
		if err != nil {
			return nil, err
		}
	}

	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinioStore) Put(ctx context.Context, name, contentType string, r io.Reader, size int64) (Artifact, error) {
	id, err := newID()
	if err != nil {
		return Artifact{}, err
	}
	name = cleanName(name)

	info, err := s.client.PutObject(ctx, s.bucket, path.Join(id, name), r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{ID: id, Name: name, Size: info.Size, ContentType: contentType}, nil
}

func (s *MinioStore) Stat(ctx context.Context, id string) (Artifact, error) {
	if !validID(id) {
		return Artifact{}, ErrNotFound
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: id + "/"}) {
		if obj.Err != nil {
			return Artifact{}, obj.Err
		}
		// listings carry no content type
		info, err := s.client.StatObject(ctx, s.bucket, obj.Key, minio.StatObjectOptions{})
		if err != nil {
			return Artifact{}, err
		}
		return artifactOf(id, info), nil
	}
	return Artifact{}, ErrNotFound
}

func artifactOf(id string, info minio.ObjectInfo) Artifact {
	return Artifact{
		ID:          id,
		Name:        path.Base(info.Key),
		Size:        info.Size,
		ContentType: info.ContentType,
	}
}
