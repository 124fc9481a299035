package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Client is the subset of the S3 API used by S3Saver.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Saver stores files in Amazon S3 or an S3-compatible service.
// It is safe for concurrent use.
type S3Saver struct {
	client          S3Client
	bucket          string
	keyPrefix       string
	baseURL         string
	policy          CollisionPolicy
	uploadTimeout   time.Duration
	customDirectory func(r *http.Request, original string) string
}

// S3Config contains configuration for S3 storage.
type S3Config struct {
	Bucket         string
	Region         string
	AccessKeyID    string
	SecretKey      string
	Endpoint       string // Optional: for S3-compatible services
	BaseURL        string // Public URL base for serving files
	KeyPrefix      string // Optional key prefix, e.g. "uploads"
	ForcePathStyle bool   // For S3-compatible services like MinIO
}

// S3Option configures an S3Saver.
type S3Option func(*s3Options)

type s3Options struct {
	httpClient      *http.Client
	s3Client        S3Client
	s3ConfigOptions []func(*config.LoadOptions) error
	s3ClientOptions []func(*s3.Options)
	uploadTimeout   time.Duration
	policy          CollisionPolicy
	customDirectory func(r *http.Request, original string) string
}

// WithS3Client sets a pre-configured client, e.g. a mock in tests.
func WithS3Client(client S3Client) S3Option {
	return func(o *s3Options) {
		o.s3Client = client
	}
}

// WithHTTPClient sets a custom HTTP client for S3 requests.
func WithHTTPClient(client *http.Client) S3Option {
	return func(o *s3Options) {
		o.httpClient = client
	}
}

// WithS3ConfigOption adds a custom AWS config option.
func WithS3ConfigOption(option func(*config.LoadOptions) error) S3Option {
	return func(o *s3Options) {
		o.s3ConfigOptions = append(o.s3ConfigOptions, option)
	}
}

// WithS3ClientOption adds a custom S3 client option.
func WithS3ClientOption(option func(*s3.Options)) S3Option {
	return func(o *s3Options) {
		o.s3ClientOptions = append(o.s3ClientOptions, option)
	}
}

// WithS3UploadTimeout bounds a single PutObject call.
func WithS3UploadTimeout(timeout time.Duration) S3Option {
	return func(o *s3Options) {
		o.uploadTimeout = timeout
	}
}

// WithS3CollisionPolicy sets what happens when the object key is taken.
// CollisionSuffix and CollisionError rely on conditional writes (If-None-Match).
func WithS3CollisionPolicy(p CollisionPolicy) S3Option {
	return func(o *s3Options) {
		o.policy = p
	}
}

// WithS3CustomDirectory sets the directory-naming hook.
func WithS3CustomDirectory(fn func(r *http.Request, original string) string) S3Option {
	return func(o *s3Options) {
		o.customDirectory = fn
	}
}

// NewS3Saver creates an S3 saver. Bucket and region are required.
func NewS3Saver(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3Saver, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, fmt.Errorf("%w: bucket and region are required", ErrInvalidConfig)
	}

	options := &s3Options{}
	for _, opt := range opts {
		opt(options)
	}

	client := options.s3Client
	if client == nil {
		awsOptions := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOptions = append(awsOptions,
				config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretKey,
					"",
				)),
			)
		}
		if options.httpClient != nil {
			awsOptions = append(awsOptions, config.WithHTTPClient(options.httpClient))
		}
		awsOptions = append(awsOptions, options.s3ConfigOptions...)

		awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedToLoadConfig, err)
		}

		client = s3.NewFromConfig(awsConfig, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = cfg.ForcePathStyle
			for _, opt := range options.s3ClientOptions {
				opt(o)
			}
		})
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Endpoint != "" {
			baseURL = fmt.Sprintf("%s/%s", strings.TrimSuffix(cfg.Endpoint, "/"), cfg.Bucket)
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &S3Saver{
		client:          client,
		bucket:          cfg.Bucket,
		keyPrefix:       strings.Trim(cfg.KeyPrefix, "/"),
		baseURL:         baseURL,
		policy:          options.policy,
		uploadTimeout:   options.uploadTimeout,
		customDirectory: options.customDirectory,
	}, nil
}

// Directory implements DirectoryNamer.
func (s *S3Saver) Directory(r *http.Request, original string) string {
	if s.customDirectory != nil {
		return s.customDirectory(r, original)
	}
	return original
}

// Save uploads f.Content under keyPrefix/f.Directory/f.FullName and returns the public URL.
func (s *S3Saver) Save(ctx context.Context, f *File) (string, error) {
	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}

	dir := strings.Trim(f.Directory, "/")
	if strings.Contains(dir, "..") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, f.Directory)
	}
	dir = path.Join(s.keyPrefix, dir)

	if s.policy == CollisionOverwrite {
		key := path.Join(dir, f.FullName)
		if err := s.put(ctx, key, f, false); err != nil {
			return "", err
		}
		return s.baseURL + key, nil
	}

	attempts := maxCollisionAttempts
	if s.policy == CollisionError {
		attempts = 1
	}
	for attempt := range attempts {
		key := path.Join(dir, candidateName(f, attempt))
		err := s.put(ctx, key, f, true)
		if errors.Is(err, ErrFileExists) {
			if s.policy == CollisionError {
				return "", err
			}
			continue
		}
		if err != nil {
			return "", err
		}
		return s.baseURL + key, nil
	}
	return "", fmt.Errorf("%w: %s", ErrTooManyCollisions, path.Join(dir, f.FullName))
}

func (s *S3Saver) put(ctx context.Context, key string, f *File, exclusive bool) error {
	contentType := f.MIMEType.String()
	if contentType == "" {
		contentType = string(MIMEOctetStream)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(f.Content),
		ContentLength: aws.Int64(int64(len(f.Content))),
		ContentType:   aws.String(contentType),
	}
	if exclusive {
		input.IfNoneMatch = aws.String("*")
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return classifyS3Error(err, key)
	}
	return nil
}

// classifyS3Error converts S3 errors to package errors.
func classifyS3Error(err error, key string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: put %s", ErrOperationTimeout, key)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: put %s", ErrOperationCanceled, key)
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return ErrBucketNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch code {
		case "PreconditionFailed":
			return fmt.Errorf("%w: %s", ErrFileExists, key)
		case "AccessDenied":
			return fmt.Errorf("%w: put %s", ErrAccessDenied, key)
		case "RequestTimeout":
			return fmt.Errorf("%w: put %s", ErrOperationTimeout, key)
		case "SlowDown", "ServiceUnavailable":
			return fmt.Errorf("%w: put %s", ErrServiceUnavailable, key)
		case "NoSuchBucket":
			return ErrBucketNotFound
		default:
			return fmt.Errorf("put %s failed (code: %s): %w", key, code, err)
		}
	}

	return fmt.Errorf("put %s failed: %w", key, err)
}
