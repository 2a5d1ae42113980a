package s3blob

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redcloud442/aurora/internal/domain"
)

// PutObjectAPI is the subset of the S3 client the receipt store needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ReceiptStore implements domain.ReceiptStore.
type ReceiptStore struct {
	client  PutObjectAPI
	bucket  string
	baseURL string
}

// NewReceiptStore creates a ReceiptStore writing to bucket and serving from publicBaseURL.
func NewReceiptStore(client PutObjectAPI, bucket, publicBaseURL string) *ReceiptStore {
	return &ReceiptStore{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Upload stores the receipt under key, overwriting any previous object, and
// returns its public URL.
func (s *ReceiptStore) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("s3blob: put object %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// PublicURL returns the address the object under key is served from.
func (s *ReceiptStore) PublicURL(key string) string {
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}

var _ domain.ReceiptStore = (*ReceiptStore)(nil)
