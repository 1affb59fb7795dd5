package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/fedro86/almost-a-cms/internal/model"
	appErr "github.com/fedro86/almost-a-cms/internal/pkg/errors"
)

type s3Config struct {
	Endpoint  string `json:"endpoint"`
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	Prefix    string `json:"prefix"`
	// AssetsPrefix defaults to assets/images at the bucket root.
	AssetsPrefix string `json:"assets_prefix"`
	UseSSL       bool   `json:"use_ssl"`
}

type s3Store struct {
	client       *s3.Client
	bucket       string
	prefix       string
	assetsPrefix string
}

func init() {
	Register("s3", createS3Store)
}

func createS3Store(args interface{}) (Store, error) {
	config := &s3Config{}
	if err := decodeConfig(args, config); err != nil {
		return nil, err
	}
	if config.Endpoint == "" || config.Bucket == "" || config.SecretID == "" || config.SecretKey == "" {
		return nil, fmt.Errorf("s3 endpoint/bucket/secret_id/secret_key are required")
	}
	if config.Region == "" {
		config.Region = "cn"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(config.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(config.SecretID, config.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}
	endpoint := buildEndpoint(config.Endpoint, config.UseSSL)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})
	assetsPrefix := strings.Trim(config.AssetsPrefix, "/")
	if assetsPrefix == "" {
		assetsPrefix = model.AssetDir
	}
	return &s3Store{
		client:       client,
		bucket:       config.Bucket,
		prefix:       strings.Trim(config.Prefix, "/"),
		assetsPrefix: assetsPrefix,
	}, nil
}

func (s *s3Store) Type() string {
	return "s3"
}

func (s *s3Store) Load(ctx context.Context, name string) ([]byte, error) {
	key, err := s.objectKey(name)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("document %s: %w", name, appErr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: get %s: %w", appErr.ErrIO, key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", appErr.ErrIO, key, err)
	}
	return data, nil
}

func (s *s3Store) Save(ctx context.Context, name string, data []byte) error {
	key, err := s.objectKey(name)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %w", appErr.ErrIO, key, err)
	}
	return nil
}

func (s *s3Store) List(ctx context.Context) ([]string, error) {
	files, err := s.listDir(ctx, s.prefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for _, file := range files {
		name, ok := nameFromFile(file)
		if !ok || model.ValidateName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// listDir returns the base names of objects directly under dir.
func (s *s3Store) listDir(ctx context.Context, dir string) ([]string, error) {
	listPrefix := ""
	if dir != "" {
		listPrefix = dir + "/"
	}
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(listPrefix),
	})
	files := make([]string, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list %s: %w", appErr.ErrIO, s.bucket, err)
		}
		for _, obj := range page.Contents {
			rel := strings.TrimPrefix(aws.ToString(obj.Key), listPrefix)
			if rel == "" || strings.Contains(rel, "/") {
				continue
			}
			files = append(files, rel)
		}
	}
	return files, nil
}

func (s *s3Store) SaveAsset(ctx context.Context, name string, r ReadSeekCloser, size int64) error {
	if err := model.ValidateAssetName(name); err != nil {
		return err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: rewind %s: %w", appErr.ErrIO, name, err)
	}
	key := path.Join(s.assetsPrefix, name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(model.AssetContentType(name)),
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %w", appErr.ErrIO, key, err)
	}
	return nil
}

func (s *s3Store) OpenAsset(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := model.ValidateAssetName(name); err != nil {
		return nil, err
	}
	key := path.Join(s.assetsPrefix, name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("asset %s: %w", name, appErr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: get %s: %w", appErr.ErrIO, key, err)
	}
	return out.Body, nil
}

func (s *s3Store) ListAssets(ctx context.Context) ([]string, error) {
	files, err := s.listDir(ctx, s.assetsPrefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for _, file := range files {
		if model.ValidateAssetName(file) == nil {
			names = append(names, file)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *s3Store) objectKey(name string) (string, error) {
	if err := model.ValidateName(name); err != nil {
		return "", err
	}
	if s.prefix == "" {
		return fileName(name), nil
	}
	return path.Join(s.prefix, fileName(name)), nil
}

func buildEndpoint(endpoint string, useSSL bool) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return strings.TrimSuffix(endpoint, "/")
	}
	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	return scheme + "://" + strings.TrimSuffix(endpoint, "/")
}
