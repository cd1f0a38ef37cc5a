// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides the S3-compatible blob store used for post cover
// images. It wraps the AWS SDK v2 with path-style access and knows two
// buckets: the public bucket that serves covers and the raw bucket that
// receives unprocessed uploads for the optimizer.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"postflow/internal/apperr"
)

// MaxObjectSize bounds downloads into memory.
const MaxObjectSize = 50 << 20

var (
	// ErrObjectNotFound is returned when the requested key does not exist.
	ErrObjectNotFound = errors.New("storage: object not found")
	// ErrObjectExists is returned by a non-upsert write to a taken key.
	ErrObjectExists = errors.New("storage: object already exists")
)

// Options configures New. Everything the client needs is passed here; the
// client never reads the environment.
type Options struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	PublicBucket  string
	RawBucket     string
	PublicBaseURL string // e.g. https://xyz.supabase.co, composes /storage/v1/object/public/...
}

// Client wraps an S3 client for cover image operations.
type Client struct {
	s3           *s3.Client
	publicBucket string
	rawBucket    string
	endpoint     string
	publicBase   string
	now          func() time.Time
}

// File is an upload as received from a form.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Object identifies a stored blob.
type Object struct {
	Key       string
	PublicURL string
}

// ObjectInfo describes a listed blob.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// New creates an S3 storage client with path-style addressing. Returns
// (nil, nil) if endpoint or credentials are empty, allowing the app to
// start without storage.
func New(opts Options) (*Client, error) {
	if opts.Endpoint == "" || opts.AccessKey == "" || opts.SecretKey == "" {
		return nil, nil
	}
	if opts.PublicBucket == "" {
		return nil, fmt.Errorf("storage: public bucket is required")
	}

	endpoint := strings.TrimRight(opts.Endpoint, "/")
	s3Client := s3.New(s3.Options{
		Region:       opts.Region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		UsePathStyle: true,
	})

	return &Client{
		s3:           s3Client,
		publicBucket: opts.PublicBucket,
		rawBucket:    opts.RawBucket,
		endpoint:     endpoint,
		publicBase:   strings.TrimRight(opts.PublicBaseURL, "/"),
		now:          time.Now,
	}, nil
}

// PublicBucket returns the name of the public bucket.
func (c *Client) PublicBucket() string {
	return c.publicBucket
}

// RawBucket returns the name of the raw upload bucket.
func (c *Client) RawBucket() string {
	return c.rawBucket
}

// Upload stores a new cover image in the public bucket under a unique key.
// The write is conditional so an existing object is never replaced. Any
// backend rejection is returned as an *apperr.UploadError.
func (c *Client) Upload(ctx context.Context, f File) (Object, error) {
	key := UniqueKey(f.Name, c.now())
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := c.PutObject(ctx, c.publicBucket, key, contentType, f.Data, false); err != nil {
		return Object{}, &apperr.UploadError{Key: key, Err: err}
	}
	return Object{Key: key, PublicURL: c.PublicURL(key)}, nil
}

// PutObject writes data to bucket/key. With upsert false the request fails
// if the key already exists.
func (c *Client) PutObject(ctx context.Context, bucket, key, contentType string, data []byte, upsert bool) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("max-age=3600"),
	}
	if !upsert {
		input.IfNoneMatch = aws.String("*")
	}

	// Public bucket objects get public-read ACL.
	if bucket == c.publicBucket {
		input.ACL = s3types.ObjectCannedACLPublicRead
	}

	if _, err := c.s3.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", bucket, key, classify(err))
	}
	return nil
}

// Download retrieves an object and returns its contents. Objects larger
// than MaxObjectSize are rejected.
func (c *Client) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	output, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 download %s/%s: %w", bucket, key, classify(err))
	}
	defer output.Body.Close()

	data, err := io.ReadAll(io.LimitReader(output.Body, MaxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("s3 read body %s/%s: %w", bucket, key, err)
	}
	if len(data) > MaxObjectSize {
		return nil, fmt.Errorf("s3 download %s/%s: object exceeds %d bytes", bucket, key, MaxObjectSize)
	}
	return data, nil
}

// Delete removes an object from the specified bucket.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Remove deletes a public bucket object, best effort. Failures are logged
// and swallowed because the post mutation that made the blob obsolete has
// already been committed.
func (c *Client) Remove(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := c.Delete(ctx, c.publicBucket, key); err != nil {
		slog.Warn("failed to remove blob", "bucket", c.publicBucket, "key", key, "error", err)
		return
	}
	slog.Debug("blob removed", "bucket", c.publicBucket, "key", key)
}

// List returns every object in bucket whose key starts with prefix.
func (c *Client) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var objects []ObjectInfo
	p := s3.NewListObjectsV2Paginator(c.s3, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list %s: %w", bucket, err)
		}
		for _, obj := range page.Contents {
			info := ObjectInfo{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			objects = append(objects, info)
		}
	}
	return objects, nil
}

// classify maps S3 API error codes onto the package sentinels, keeping the
// original error in the chain.
func classify(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NotFound":
		return fmt.Errorf("%w: %w", ErrObjectNotFound, err)
	case "PreconditionFailed":
		return fmt.Errorf("%w: %w", ErrObjectExists, err)
	}
	return err
}
