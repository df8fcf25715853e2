package common

/*

Buckets are opened as one-offs, as needed, rather than pooled. If you call a
bucket's Close() method (and you should call it _somewhere_) then a pooled
instance stops working for every other piece of code still holding it, so the
logistics are not worth it.

*/

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"gocloud.dev/blob"
)

// OpenBucket opens the gocloud.dev/blob bucket identified by 'uri'. Output
// roots may be local directories (file://) or remote object-storage locations
// (s3://) and everything downstream treats them the same way.
func OpenBucket(ctx context.Context, uri string) (*blob.Bucket, error) {

	bucket, err := blob.OpenBucket(ctx, uri)

	if err != nil {
		return nil, fmt.Errorf("Failed to open bucket %s, %w", uri, err)
	}

	return bucket, nil
}

// PublicReadWriterOptions returns blob.WriterOptions which assign a
// "public-read" ACL when the write targets an S3 bucket. Tiles are consumed
// by downstream tooling over plain HTTP so they are published world-readable.
func PublicReadWriterOptions() *blob.WriterOptions {

	before := func(asFunc func(interface{}) bool) error {

		s3_req := &s3manager.UploadInput{}
		ok := asFunc(&s3_req)

		if ok {
			s3_req.ACL = aws.String("public-read")
		}

		return nil
	}

	return &blob.WriterOptions{
		BeforeWrite: before,
	}
}
