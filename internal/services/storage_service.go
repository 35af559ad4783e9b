// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/ipnexus-backend/internal/config"
)

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrInvalidFileType = errors.New("unsupported file type")
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// StorageService stores asset images on S3, or on local disk when no AWS
// credentials are configured.
type StorageService struct {
	s3Client s3iface.S3API
	aws      config.AWSConfig
	storage  config.StorageConfig
	now      func() time.Time
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	s := &StorageService{aws: cfg.AWS, storage: cfg.Storage, now: time.Now}
	if cfg.AWS.AccessKeyID == "" {
		// Local disk for development
		return s, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	s.s3Client = s3.New(sess)
	return s, nil
}

// NewStorageServiceWithClient uses the given S3 client instead of building
// one from credentials.
func NewStorageServiceWithClient(client s3iface.S3API, cfg *config.Config) *StorageService {
	return &StorageService{s3Client: client, aws: cfg.AWS, storage: cfg.Storage, now: time.Now}
}

// UploadImage checks size and image signature, then stores the file under
// the token's folder.
func (s *StorageService) UploadImage(ctx context.Context, tokenID, filename string, size int64, file io.Reader) (*UploadResult, error) {
	if s.storage.MaxImageSize > 0 && size > s.storage.MaxImageSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, size, s.storage.MaxImageSize)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtension(ext) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFileType, ext)
	}

	data, err := io.ReadAll(io.LimitReader(file, s.limit()))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if s.storage.MaxImageSize > 0 && int64(len(data)) > s.storage.MaxImageSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, s.storage.MaxImageSize)
	}

	contentType, ok := imageContentType(data)
	if !ok {
		return nil, fmt.Errorf("%w: content is not an image", ErrInvalidFileType)
	}

	key := s.generateKey(tokenID, ext)
	if s.s3Client != nil {
		return s.uploadToS3(ctx, data, key, contentType)
	}
	return s.uploadToLocal(data, key, contentType)
}

func (s *StorageService) uploadToS3(ctx context.Context, data []byte, key, contentType string) (*UploadResult, error) {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.aws.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		URL:      s.getS3URL(key),
		Key:      key,
		Size:     int64(len(data)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) uploadToLocal(data []byte, key, contentType string) (*UploadResult, error) {
	path := filepath.Join(s.storage.LocalDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	logrus.WithField("path", path).Debug("Stored upload on local disk")

	return &UploadResult{
		URL:      strings.TrimRight(s.storage.PublicURL, "/") + "/" + key,
		Key:      key,
		Size:     int64(len(data)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) generateKey(tokenID, ext string) string {
	timestamp := s.now().UTC().Format("20060102")
	return fmt.Sprintf("assets/%s/%s_%s%s", tokenID, timestamp, uuid.NewString()[:8], ext)
}

func (s *StorageService) getS3URL(key string) string {
	if s.aws.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.aws.CloudFrontURL, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.aws.S3Bucket, s.aws.Region, key)
}

func (s *StorageService) limit() int64 {
	if s.storage.MaxImageSize > 0 {
		return s.storage.MaxImageSize + 1
	}
	return 1 << 62
}

func allowedExtension(ext string) bool {
	for _, allowed := range imageExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// imageContentType sniffs common image signatures.
func imageContentType(buf []byte) (string, bool) {
	switch {
	case len(buf) >= 3 && buf[0] == 0xFF && buf[1] == 0xD8 && buf[2] == 0xFF:
		return "image/jpeg", true
	case len(buf) >= 8 && bytes.Equal(buf[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}):
		return "image/png", true
	case len(buf) >= 6 && (string(buf[:6]) == "GIF87a" || string(buf[:6]) == "GIF89a"):
		return "image/gif", true
	case len(buf) >= 12 && string(buf[:4]) == "RIFF" && string(buf[8:12]) == "WEBP":
		return "image/webp", true
	default:
		return "", false
	}
}
