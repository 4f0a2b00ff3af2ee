// Package storage uploads product images to object storage and returns their
// public URL.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const MaxImageBytes = 10 << 20

var (
	ErrTooLarge = errors.New("image exceeds size limit")

	unsafeName = regexp.MustCompile(`[^a-z0-9._-]+`)
)

type ImageStore interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}

type Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

type putAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Store struct {
	api      putAPI
	bucket   string
	region   string
	endpoint string
	now      func() time.Time
}

// NewS3Store uses static credentials when both keys are set and the default
// AWS credential chain otherwise. A custom endpoint switches to path-style
// addressing.
func NewS3Store(ctx context.Context, o Options) (*S3Store, error) {
	if o.Bucket == "" {
		return nil, errors.New("S3 bucket is empty")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(o.Region)}
	if o.AccessKey != "" && o.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
			so.UsePathStyle = true
		}
	})
	return &S3Store{
		api:      client,
		bucket:   o.Bucket,
		region:   o.Region,
		endpoint: strings.TrimRight(o.Endpoint, "/"),
		now:      time.Now,
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(body, MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(raw) > MaxImageBytes {
		return "", ErrTooLarge
	}

	key := ObjectKey(filename, s.now())
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(raw),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(raw))),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.URL(key), nil
}

func (s *S3Store) URL(key string) string {
	if s.endpoint != "" {
		return s.endpoint + "/" + s.bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// ObjectKey is products/<unix-ms>-<name> with the name lowercased and
// reduced to URL-safe characters.
func ObjectKey(filename string, at time.Time) string {
	name := unsafeName.ReplaceAllString(strings.ToLower(path.Base(strings.ReplaceAll(filename, "\\", "/"))), "-")
	name = strings.Trim(name, "-.")
	if name == "" {
		name = "image"
	}
	return "products/" + strconv.FormatInt(at.UnixMilli(), 10) + "-" + name
}
