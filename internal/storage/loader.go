package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"

	"jobscout/internal/config"
	"jobscout/internal/errors"
	"jobscout/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3Scheme = "s3://"

// ObjectGetter is the subset of the S3 API the loader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Document is a loaded resume: its base name (used for format detection) and bytes.
type Document struct {
	Name string
	Data []byte
}

// Loader reads resumes from local paths or s3://bucket/key references. The S3
// client is created on first use.
type Loader struct {
	cfg     config.S3Config
	maxSize int64
	logger  *errors.Logger

	once      sync.Once
	client    ObjectGetter
	clientErr error
}

func NewLoader(cfg config.S3Config, maxSize int64, logger *errors.Logger) *Loader {
	if logger == nil {
		logger = errors.Nop()
	}
	return &Loader{cfg: cfg, maxSize: maxSize, logger: logger}
}

// NewLoaderWithClient uses client for every s3:// reference.
func NewLoaderWithClient(client ObjectGetter, maxSize int64, logger *errors.Logger) *Loader {
	l := NewLoader(config.S3Config{}, maxSize, logger)
	l.once.Do(func() { l.client = client })
	return l
}

// ParseS3URI splits s3://bucket/key. ok is false for anything else.
func ParseS3URI(ref string) (bucket, key string, ok bool) {
	if !strings.HasPrefix(ref, s3Scheme) {
		return "", "", false
	}
	bucket, key, found := strings.Cut(strings.TrimPrefix(ref, s3Scheme), "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// Load fetches ref from S3 when it is an s3:// URI, otherwise from disk.
func (l *Loader) Load(ctx context.Context, ref string) (Document, error) {
	if strings.HasPrefix(ref, s3Scheme) {
		bucket, key, ok := ParseS3URI(ref)
		if !ok {
			return Document{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
				"object reference must look like s3://bucket/key", nil).WithContext("ref", ref)
		}
		return l.loadObject(ctx, bucket, key)
	}
	return l.loadFile(ref)
}

func (l *Loader) loadFile(filename string) (Document, error) {
	if err := utils.ValidateInputFile(filename, l.maxSize); err != nil {
		return Document{}, err
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return Document{}, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read file", err).
			WithContext("filename", filename)
	}
	l.logger.Debug("Loaded resume from disk", "filename", filename, "size", utils.FormatFileSize(int64(len(data))))
	return Document{Name: filename, Data: data}, nil
}

func (l *Loader) loadObject(ctx context.Context, bucket, key string) (Document, error) {
	client, err := l.s3Client(ctx)
	if err != nil {
		return Document{}, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Document{}, errors.NewIOError(errors.ErrCodeStorage, "failed to get object", err).
			WithContext("bucket", bucket).
			WithContext("key", key)
	}
	defer func() { _ = out.Body.Close() }()

	if l.maxSize > 0 && out.ContentLength != nil && *out.ContentLength > l.maxSize {
		return Document{}, errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("object is %s, limit is %s", utils.FormatFileSize(*out.ContentLength), utils.FormatFileSize(l.maxSize)), nil).
			WithContext("key", key)
	}

	var buf bytes.Buffer
	reader := io.Reader(out.Body)
	if l.maxSize > 0 {
		reader = io.LimitReader(out.Body, l.maxSize+1)
	}
	if _, err := io.Copy(&buf, reader); err != nil {
		return Document{}, errors.NewIOError(errors.ErrCodeStorage, "failed to read object body", err).
			WithContext("key", key)
	}
	if l.maxSize > 0 && int64(buf.Len()) > l.maxSize {
		return Document{}, errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("object exceeds %s", utils.FormatFileSize(l.maxSize)), nil).
			WithContext("key", key)
	}

	l.logger.Debug("Loaded resume from object storage", "bucket", bucket, "key", key, "size", buf.Len())
	return Document{Name: path.Base(key), Data: buf.Bytes()}, nil
}

func (l *Loader) s3Client(ctx context.Context) (ObjectGetter, error) {
	l.once.Do(func() {
		l.client, l.clientErr = newS3Client(ctx, l.cfg)
	})
	return l.client, l.clientErr
}

func newS3Client(ctx context.Context, cfg config.S3Config) (ObjectGetter, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeStorage, "failed to load AWS configuration", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}
