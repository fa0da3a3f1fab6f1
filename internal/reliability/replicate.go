package reliability

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Replicator ships immutable validation record bytes to an off-site bucket
// once they've been written locally, giving a durable append-only copy
// outside the workspace filesystem. It never participates in the record
// store's write path directly; callers fire-and-log, since replication
// failure must never block validation from completing.
type Replicator struct {
	client *s3.Client
	bucket string
}

// NewReplicator builds a Replicator for the given bucket/region. Returns
// nil, nil if bucket is empty: replication is opt-in.
func NewReplicator(ctx context.Context, bucket, region string) (*Replicator, error) {
	if bucket == "" {
		return nil, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Replicator{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

// Put uploads a single object (e.g. a validation record's YAML bytes)
// under the caller's key; uploading to a key that already exists
// overwrites that object.
func (r *Replicator) Put(ctx context.Context, key string, data []byte) error {
	if r == nil {
		return nil
	}
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("replicate %s: %w", key, err)
	}
	return nil
}
