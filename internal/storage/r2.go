package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("object not found")

// CacheControlPublic matches the 2-hour edge cache the published
// artifacts are served with.
const CacheControlPublic = "public, max-age=7200"

// Object is a single artifact to publish.
type Object struct {
	Key          string
	ContentType  string
	CacheControl string
	Body         []byte
}

// Storage abstracts the object-storage bucket.
type Storage interface {
	Put(ctx context.Context, obj *Object) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// R2Client talks to an S3-compatible bucket (Cloudflare R2) using static
// credentials and a custom endpoint.
type R2Client struct {
	client *s3.Client
	bucket string
}

// NewR2Client builds a client for the given R2 endpoint and bucket.
func NewR2Client(ctx context.Context, endpoint, accessKeyID, secretAccessKey, bucket string) (*R2Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	return &R2Client{client: client, bucket: bucket}, nil
}

// Put uploads one object to the bucket.
func (c *R2Client) Put(ctx context.Context, obj *Object) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(obj.Key),
		Body:   bytes.NewReader(obj.Body),
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}
	if obj.CacheControl != "" {
		input.CacheControl = aws.String(obj.CacheControl)
	}
	if _, err := c.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put %s: %w", obj.Key, err)
	}
	log.Printf("[INFO] uploaded %s (%d bytes)", obj.Key, len(obj.Body))
	return nil
}

// Get downloads one object. Missing keys map to ErrNotFound.
func (c *R2Client) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer out.Body.Close()
	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return body, nil
}
