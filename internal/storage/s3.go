package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"yd-go/internal/yd"
)

// S3Storage keeps each item as an object under a key prefix:
//
//	s3://<bucket>/<prefix><key>.json
type S3Storage struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Storage creates a store in bucket using the default credential chain.
func NewS3Storage(ctx context.Context, bucket, prefix, region string) (*S3Storage, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 storage requires s3_bucket to be set")
	}
	cfg, err := loadAWSConfig(ctx, region, "")
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg)
	return &S3Storage{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
	}, nil
}

func (s *S3Storage) objectKey(key string) string {
	return objectKey(s.prefix, key)
}

func objectKey(prefix, key string) string {
	return prefix + key + itemExt
}

// itemKey reverses objectKey, reporting false for foreign objects.
func itemKey(prefix, object string) (string, bool) {
	if !strings.HasPrefix(object, prefix) || !strings.HasSuffix(object, itemExt) {
		return "", false
	}
	key := strings.TrimSuffix(strings.TrimPrefix(object, prefix), itemExt)
	if key == "" || strings.Contains(key, "/") {
		return "", false
	}
	return key, true
}

func (s *S3Storage) GetItem(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading item %q: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", false, fmt.Errorf("reading item %q: %w", key, err)
	}
	return string(data), true, nil
}

func (s *S3Storage) SetItem(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        strings.NewReader(value),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("writing item %q: %w", key, err)
	}
	return nil
}

func (s *S3Storage) RemoveItem(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("removing item %q: %w", key, err)
	}
	return nil
}

func (s *S3Storage) Keys() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var keys []string
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing keys: %w", err)
		}
		for _, obj := range page.Contents {
			if key, ok := itemKey(s.prefix, aws.ToString(obj.Key)); ok {
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}

var _ yd.Storage = (*S3Storage)(nil)
