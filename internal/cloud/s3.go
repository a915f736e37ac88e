package cloud

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/bitergia/grimoirelab-metrics/internal/contract"
)

// S3API is the part of the S3 client used here.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ObjectStore uploads documents to S3.
type ObjectStore struct {
	client S3API
}

var _ contract.ObjectStore = &ObjectStore{} // Compile-time check

// NewObjectStore creates an ObjectStore backed by client.
func NewObjectStore(client S3API) *ObjectStore {
	return &ObjectStore{client: client}
}

// NewObjectStoreFromConfig creates an ObjectStore with a client built from cfg.
func NewObjectStoreFromConfig(cfg aws.Config) *ObjectStore {
	return NewObjectStore(s3.NewFromConfig(cfg))
}

// Put uploads body to the s3://bucket/key uri.
func (o *ObjectStore) Put(ctx context.Context, uri string, body io.Reader, contentType string) error {
	bucket, key, err := contract.ParseS3URI(uri)
	if err != nil {
		return err
	}

	_, err = o.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", uri, err)
	}
	return nil
}
