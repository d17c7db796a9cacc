package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the slice of the S3 client the sink needs
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink archives failed generations, raw model output included, as JSON objects
type S3Sink struct {
	client PutObjectAPI
	bucket string
}

// NewS3Sink creates a sink writing to bucket
func NewS3Sink(client PutObjectAPI, bucket string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket}
}

// Key returns the object key an entry is archived under
func Key(entry *Entry) string {
	return fmt.Sprintf("failures/%s/%s.json", entry.CreatedAt.UTC().Format("2006-01-02"), entry.ID)
}

// Append uploads failed entries and skips successful ones
func (s *S3Sink) Append(ctx context.Context, entry *Entry) error {
	if !entry.Failed() {
		return nil
	}

	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(Key(entry)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload audit entry: %w", err)
	}
	return nil
}
