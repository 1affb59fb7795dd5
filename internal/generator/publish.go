package generator

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	commons3 "github.com/xxxsen/common/s3"

	"github.com/fedro86/almost-a-cms/internal/config"
)

type s3Publisher struct {
	client *commons3.S3Client
	key    string
}

// NewS3Publisher uploads the generated page to a bucket after each run.
func NewS3Publisher(cfg config.PublishConfig) (Publisher, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" || cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("publish endpoint/bucket/secret_id/secret_key are required")
	}
	region := cfg.Region
	if region == "" {
		region = "cn"
	}
	client, err := commons3.New(
		commons3.WithEndpoint(cfg.Endpoint),
		commons3.WithSecret(cfg.SecretID, cfg.SecretKey),
		commons3.WithBucket(cfg.Bucket),
		commons3.WithRegion(region),
		commons3.WithSSL(cfg.UseSSL),
	)
	if err != nil {
		return nil, fmt.Errorf("init s3 publisher: %w", err)
	}
	key := strings.TrimPrefix(cfg.Key, "/")
	if key == "" {
		key = "index.html"
	}
	return &s3Publisher{client: client, key: key}, nil
}

func (p *s3Publisher) Publish(ctx context.Context, page []byte) error {
	r := pageReader{Reader: bytes.NewReader(page)}
	if _, err := p.client.Upload(ctx, p.key, r, int64(len(page))); err != nil {
		return fmt.Errorf("upload %s: %w", p.key, err)
	}
	return nil
}

type pageReader struct {
	*bytes.Reader
}

func (pageReader) Close() error {
	return nil
}
