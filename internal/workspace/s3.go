package workspace

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Config configures S3Provider
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// s3Uploader is the subset of manager.Uploader used by S3Provider
type s3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// s3BucketChecker is the subset of s3.Client used for health checks
type s3BucketChecker interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Provider stores each workspace under its own key prefix in a bucket.
// Expiry is left to the bucket lifecycle policy.
type S3Provider struct {
	uploader s3Uploader
	checker  s3BucketChecker
	bucket   string
	prefix   string
}

// NewS3Provider builds an S3 client from cfg. Static credentials are used
// when both keys are set, otherwise the default AWS credential chain.
func NewS3Provider(ctx context.Context, cfg S3Config) (*S3Provider, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	p := newS3Provider(manager.NewUploader(client), cfg.Bucket, cfg.Prefix)
	p.checker = client
	return p, nil
}

func newS3Provider(uploader s3Uploader, bucket, prefix string) *S3Provider {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "workspaces"
	}
	return &S3Provider{uploader: uploader, bucket: bucket, prefix: prefix}
}

// Name implements Provider
func (p *S3Provider) Name() string {
	return "s3"
}

// CreateWorkspace allocates a new key prefix. Nothing is written until the first file.
func (p *S3Provider) CreateWorkspace(ctx context.Context) (string, error) {
	return uuid.New().String(), nil
}

// WriteFile uploads content to <prefix>/<id>/<path>
func (p *S3Provider) WriteFile(ctx context.Context, id, filePath, content string) error {
	clean, err := checkPath(filePath)
	if err != nil {
		return err
	}

	contentType := mime.TypeByExtension(path.Ext(clean))
	if contentType == "" {
		contentType = "text/plain; charset=utf-8"
	}

	_, err = p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(p.Key(id, clean)),
		Body:        strings.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 upload failed: %w", err)
	}
	return nil
}

// Key returns the object key of path inside workspace id
func (p *S3Provider) Key(id, filePath string) string {
	return path.Join(p.prefix, id, filePath)
}

// Health checks that the bucket exists and is reachable
func (p *S3Provider) Health(ctx context.Context) error {
	if p.checker == nil {
		return nil
	}
	if _, err := p.checker.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(p.bucket)}); err != nil {
		return fmt.Errorf("s3 bucket %s unavailable: %w", p.bucket, err)
	}
	return nil
}
