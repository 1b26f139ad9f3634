package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures the S3 driver.
type S3Options struct {
	Bucket string
	Region string
	// Endpoint points at an S3 compatible service instead of AWS.
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
	UsePathStyle bool
	// PublicURL overrides the URL prefix returned by URL, e.g. a CDN.
	PublicURL string
}

// S3 stores objects in an S3 bucket.
type S3 struct {
	client *s3.Client
	bucket string
	base   string
}

// NewS3 loads the default AWS config, honoring static keys when set.
func NewS3(ctx context.Context, opts S3Options) (*S3, error) {
	if opts.Bucket == "" {
		return nil, ErrBucketRequired
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" || opts.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, opts.SessionToken),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	return &S3{client: client, bucket: opts.Bucket, base: s3PublicBase(opts)}, nil
}

func s3PublicBase(opts S3Options) string {
	switch {
	case opts.PublicURL != "":
		return opts.PublicURL
	case opts.Endpoint != "" && opts.UsePathStyle:
		return strings.TrimRight(opts.Endpoint, "/") + "/" + opts.Bucket
	case opts.Endpoint != "":
		scheme, host, ok := strings.Cut(opts.Endpoint, "://")
		if !ok {
			return "https://" + opts.Bucket + "." + opts.Endpoint
		}
		return scheme + "://" + opts.Bucket + "." + strings.TrimRight(host, "/")
	default:
		return "https://" + opts.Bucket + ".s3." + opts.Region + ".amazonaws.com"
	}
}

// Put uploads r. Pass a seekable reader when talking to plain HTTP endpoints.
func (s *S3) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Object, error) {
	if key == "" {
		return Object{}, ErrKeyRequired
	}

	in := &s3.PutObjectInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		Body:     r,
		Metadata: opts.Metadata,
	}
	if opts.ContentType != "" {
		in.ContentType = aws.String(opts.ContentType)
	}
	if opts.Size > 0 {
		in.ContentLength = aws.Int64(opts.Size)
	}

	out, err := s.client.PutObject(ctx, in)
	if err != nil {
		return Object{}, fmt.Errorf("storage: s3 put %s: %w", key, err)
	}

	return Object{
		Key:         key,
		Size:        opts.Size,
		ETag:        strings.Trim(aws.ToString(out.ETag), `"`),
		ContentType: opts.ContentType,
		URL:         s.URL(key),
	}, nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: s3 delete %s: %w", key, err)
	}
	return nil
}

func (s *S3) URL(key string) string { return joinURL(s.base, key) }

func (s *S3) Close() error { return nil }
