package s3blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/alanyoungcy/tradejournal/internal/domain"
)

// Reader fetches archived statements from the bucket.
type Reader struct {
	client *s3.Client
	bucket string
}

// NewReader creates a Reader over c's bucket.
func NewReader(c *Client) *Reader {
	return &Reader{client: c.S3(), bucket: c.Bucket()}
}

// Get returns the body of the object at key; the caller closes it.
func (r *Reader) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		return out.Body, nil
	case isNotFound(err):
		return nil, fmt.Errorf("s3blob: get %s: %w", key, domain.ErrNotFound)
	default:
		return nil, fmt.Errorf("s3blob: get %s: %w", key, err)
	}
}

// List returns every object under prefix across all result pages.
func (r *Reader) List(ctx context.Context, prefix string) ([]domain.StoredUpload, error) {
	var uploads []domain.StoredUpload

	pages := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(prefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3blob: list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			uploads = append(uploads, domain.StoredUpload{
				Path:       aws.ToString(obj.Key),
				Size:       aws.ToInt64(obj.Size),
				UploadedAt: aws.ToTime(obj.LastModified),
			})
		}
	}
	return uploads, nil
}

// isNotFound matches NoSuchKey and plain 404 responses from S3-compatible
// providers.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var status interface{ HTTPStatusCode() int }
	return errors.As(err, &status) && status.HTTPStatusCode() == http.StatusNotFound
}

var _ domain.BlobReader = (*Reader)(nil)
