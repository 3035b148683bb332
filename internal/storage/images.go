package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"

	"github.com/spec-kit/site-cms/internal/config"
)

var (
	// ErrTooLarge is returned when an upload exceeds the configured size limit.
	ErrTooLarge = errors.New("image exceeds the upload size limit")
	// ErrUnsupportedType is returned when the sniffed content is not an accepted image format.
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrEmpty is returned for zero-byte uploads.
	ErrEmpty = errors.New("empty upload")
)

// accepted maps sniffed MIME types to the key extension.
var accepted = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ObjectPutter is the slice of the S3 API the image store needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// StoredImage describes an object written to the bucket.
type StoredImage struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// ImageStore validates uploaded images and writes them to an S3-compatible bucket.
type ImageStore struct {
	client   ObjectPutter
	bucket   string
	baseURL  string
	maxBytes int64
	now      func() time.Time

	entropyMu sync.Mutex
	entropy   io.Reader
}

// NewS3Client builds an S3 client for cfg. A custom endpoint switches to
// path-style addressing for MinIO and similar servers.
func NewS3Client(ctx context.Context, cfg config.StorageConfig) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewImageStore constructs a store writing through client.
func NewImageStore(client ObjectPutter, cfg config.StorageConfig) *ImageStore {
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &ImageStore{
		client:   client,
		bucket:   cfg.Bucket,
		baseURL:  publicBaseURL(cfg),
		maxBytes: maxBytes,
		now:      time.Now,
		entropy:  ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0),
	}
}

// MaxBytes is the largest accepted upload.
func (s *ImageStore) MaxBytes() int64 {
	return s.maxBytes
}

// Save sniffs the content of r, rejects anything that is not an accepted
// image and stores it under images/YYYY/MM/<ULID><ext>.
func (s *ImageStore) Save(ctx context.Context, r io.Reader) (*StoredImage, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrTooLarge
	}

	contentType, ext, ok := sniff(data)
	if !ok {
		return nil, ErrUnsupportedType
	}

	now := s.now().UTC()
	key := fmt.Sprintf("images/%04d/%02d/%s%s", now.Year(), int(now.Month()), s.newID(now), ext)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}

	return &StoredImage{
		Key:         key,
		URL:         s.baseURL + "/" + key,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

func (s *ImageStore) newID(now time.Time) string {
	s.entropyMu.Lock()
	defer s.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), s.entropy).String()
}

func sniff(data []byte) (contentType, ext string, ok bool) {
	detected := mimetype.Detect(data)
	for candidate, extension := range accepted {
		if detected.Is(candidate) {
			return candidate, extension, true
		}
	}
	return "", "", false
}

func publicBaseURL(cfg config.StorageConfig) string {
	switch {
	case cfg.PublicBaseURL != "":
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}
