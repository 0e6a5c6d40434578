package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"snapfeed/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// provenance tag stamped on every uploaded object
const uploadTagging = "source=snapfeed"

type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
	tracer  trace.Tracer
}

var _ BlobStore = (*S3Store)(nil)

func NewS3Store(cfg config.S3Config) (*S3Store, error) {
	client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		),
		UsePathStyle: true,
	})

	baseURL := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		// path-style fallback, good enough for dev endpoints
		baseURL = fmt.Sprintf("%s/%s", strings.TrimSuffix(cfg.Endpoint, "/"), cfg.Bucket)
	}

	return &S3Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: baseURL,
		tracer:  otel.Tracer("snapfeed/storage/s3"),
	}, nil
}

// Upload stores body under a collision-free name and returns the durable URL.
func (s *S3Store) Upload(ctx context.Context, filenameHint string, body io.Reader) (*UploadResult, error) {
	if strings.TrimSpace(filenameHint) == "" {
		return nil, fmt.Errorf("filename hint cannot be empty")
	}

	key := objectName(filenameHint)

	ctx, span := s.tracer.Start(ctx, "S3.Upload", trace.WithAttributes(attribute.String("s3.key", key)))
	defer span.End()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:  aws.String(s.bucket),
		Key:     aws.String(key),
		Body:    body,
		Tagging: aws.String(uploadTagging),
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return &UploadResult{
		URL:        s.baseURL + "/" + key,
		StoredName: key,
	}, nil
}

func (s *S3Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}

	name = strings.TrimSpace(name)

	ctx, span := s.tracer.Start(ctx, "S3.Open", trace.WithAttributes(attribute.String("s3.key", name)))

	obj := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	}

	objOutput, err := s.client.GetObject(ctx, obj)
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, err
	}

	return &spanClosingReader{
		ReadCloser: objOutput.Body,
		span:       span,
	}, nil
}

func (s *S3Store) Exists(ctx context.Context, name string) bool {
	if name == "" {
		return false
	}

	name = strings.TrimSpace(name)

	obj := &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	}

	_, err := s.client.HeadObject(ctx, obj)

	return err == nil
}

func (s *S3Store) Delete(ctx context.Context, name string) error {
	ctx, span := s.tracer.Start(ctx, "S3.Delete", trace.WithAttributes(attribute.String("s3.key", name)))
	defer span.End()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		span.RecordError(err)
	}

	return err
}

type spanClosingReader struct {
	io.ReadCloser
	span trace.Span
}

func (r *spanClosingReader) Close() error {
	r.span.End()
	return r.ReadCloser.Close()
}
