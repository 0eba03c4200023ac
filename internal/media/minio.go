package media

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/terrenospy/terrenospy/internal/config"
	"github.com/terrenospy/terrenospy/pkg/metrics"
)

// MinIOUploader stores media in a self-hosted MinIO bucket and returns the
// object's public URL. Deployments that do not want a third-party media host
// use this backend instead of Cloudinary.
type MinIOUploader struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewMinIO creates the uploader and ensures the bucket exists.
func NewMinIO(cfg config.MinIOConfig) (*MinIOUploader, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	u := &MinIOUploader{
		client:     mc,
		bucket:     cfg.Bucket,
		publicBase: fmt.Sprintf("%s://%s/%s/", scheme, cfg.Endpoint, cfg.Bucket),
	}
	// ensure bucket exists (idempotent)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
		exist, xerr := mc.BucketExists(ctx, u.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return u, nil
}

func (u *MinIOUploader) Hosted(url string) bool {
	return strings.HasPrefix(url, u.publicBase)
}

func (u *MinIOUploader) Upload(ctx context.Context, p Payload) (Result, error) {
	if err := Validate(p); err != nil {
		return Result{}, err
	}
	if u.Hosted(p.Data) {
		return Result{URL: p.Data, ResourceType: p.Kind}, nil
	}
	if !IsDataURI(p.Data) {
		return Result{URL: p.Data, ResourceType: p.Kind}, nil
	}
	mimeType, data, err := DecodeDataURI(p.Data)
	if err != nil {
		return Result{}, err
	}
	key := p.Filename
	if key == "" {
		key = fmt.Sprintf("media_%d.%s", time.Now().UnixMilli(), FormatFromDataURI(p.Data))
	}
	_, err = u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: mimeType})
	if err != nil {
		metrics.MediaUploads.WithLabelValues("minio", "error").Inc()
		return Result{}, fmt.Errorf("minio put %s: %w", key, err)
	}
	metrics.MediaUploads.WithLabelValues("minio", "ok").Inc()
	return Result{URL: u.publicBase + key, PublicID: key, Format: FormatFromDataURI(p.Data), ResourceType: p.Kind}, nil
}
