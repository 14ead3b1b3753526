package storage

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/skryldev/videoproc/videoerr"
)

// S3 uploads files to an S3-compatible bucket, grounded on
// chicogong-media-pipeline's go.mod aws-sdk-go-v2 dependency.
type S3 struct {
	client *s3.Client
	bucket string
}

// NewS3 creates an S3 backend for bucket. endpoint may be empty to use
// AWS's default resolver, or set for MinIO/other S3-compatible stores.
// usePathStyle is required for most non-AWS endpoints.
func NewS3(ctx context.Context, bucket, region, endpoint string, usePathStyle bool) (*S3, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, videoerr.New(videoerr.CategoryConfig, "storage.s3.new", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = usePathStyle
	})

	return &S3{client: client, bucket: bucket}, nil
}

// Put uploads the file at localPath to bucket/destKey.
func (s *S3) Put(ctx context.Context, localPath, destKey string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return videoerr.New(videoerr.CategoryIO, "storage.s3.put", err)
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(destKey),
		Body:   f,
	})
	if err != nil {
		return videoerr.New(videoerr.CategoryIO, "storage.s3.put", err)
	}
	return nil
}
