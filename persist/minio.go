package persist

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/brettbedarf/sandfs/config"
)

// MinioConfig configures an S3 compatible backend.
type MinioConfig struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// Prefix is prepended to every object key.
	Prefix string

	// Client, when set, is used instead of building one from the fields above.
	Client *minio.Client
}

func (c *MinioConfig) validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	if c.Client != nil {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when client is not provided")
	}
	if c.AccessKey == "" {
		return fmt.Errorf("access key is required when client is not provided")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("secret key is required when client is not provided")
	}
	return nil
}

// Minio stores each blob as one object.
type Minio struct {
	client *minio.Client
	bucket string
	prefix string
}

func NewMinio(cfg MinioConfig) (*Minio, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
	}

	return &Minio{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func newMinioFromOptions(opts config.PersistenceOptions) (Backend, error) {
	return NewMinio(MinioConfig{
		Endpoint:  opts.Endpoint,
		Bucket:    opts.Bucket,
		AccessKey: opts.AccessKey,
		SecretKey: opts.SecretKey,
		UseSSL:    opts.UseSSL,
		Prefix:    opts.Prefix,
	})
}

func (m *Minio) objectKey(key string) string {
	if m.prefix == "" {
		return key + snapshotExt
	}
	return m.prefix + "/" + key + snapshotExt
}

func (m *Minio) Save(ctx context.Context, key string, blob []byte) error {
	_, err := m.client.PutObject(ctx, m.bucket, m.objectKey(key), bytes.NewReader(blob), int64(len(blob)),
		minio.PutObjectOptions{ContentType: "application/json"})
	return translate(err, key)
}

func (m *Minio) Load(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, m.objectKey(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, translate(err, key)
	}
	defer obj.Close()

	// GetObject is lazy; errors such as NoSuchKey surface on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, translate(err, key)
	}
	return data, nil
}

func (m *Minio) Clear(ctx context.Context, key string) error {
	err := translate(m.client.RemoveObject(ctx, m.bucket, m.objectKey(key), minio.RemoveObjectOptions{}), key)
	if isNotFound(err) {
		return nil
	}
	return err
}

// translate converts MinIO errors to coded errors.
func translate(err error, key string) error {
	if err == nil {
		return nil
	}

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket":
		return notFound(key)
	case "":
		// Not an S3 error response: the request never got an answer.
		return unavailable(err, "minio unreachable")
	case "ServiceUnavailable", "SlowDown", "RequestTimeout", "InternalError":
		return unavailable(err, "minio: "+resp.Code)
	}
	return writeFailed(err, "minio: "+resp.Code)
}
