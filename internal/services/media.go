package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"matchchat-backend/internal/apperr"
	appconfig "matchchat-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Upload purposes
const (
	UploadPurposePhoto   = "photo"
	UploadPurposeMessage = "message"
)

// ErrMediaDisabled is returned when no bucket is configured
var ErrMediaDisabled = errors.New("media uploads are not configured")

// Presigner issues pre-signed PUT URLs
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
}

// S3Presigner presigns uploads to an S3 bucket
type S3Presigner struct {
	client *s3.PresignClient
	bucket string
}

// NewS3Presigner creates a presigner from the AWS configuration
func NewS3Presigner(ctx context.Context, cfg appconfig.AWSConfig) (*S3Presigner, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
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
	return &S3Presigner{client: s3.NewPresignClient(client), bucket: cfg.S3Bucket}, nil
}

// PresignPut returns a URL that accepts a single PUT of key
func (p *S3Presigner) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	request, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}
	return request.URL, nil
}

// UploadRequest represents a request to get a pre-signed URL
type UploadRequest struct {
	Purpose     string `json:"purpose"`
	ChatID      string `json:"chatId"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

// UploadResponse represents the response with pre-signed URL
type UploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expiresIn"`
}

// MediaService hands out upload URLs for profile photos and image messages
type MediaService struct {
	presigner Presigner
	chats     *ChatService
	baseURL   string
	ttl       time.Duration
}

// NewMediaService creates a new media service. A nil presigner disables uploads.
func NewMediaService(presigner Presigner, chats *ChatService, cfg appconfig.AWSConfig) *MediaService {
	baseURL := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if baseURL == "" && cfg.S3Bucket != "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.Region)
	}
	ttl := cfg.UploadTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MediaService{presigner: presigner, chats: chats, baseURL: baseURL, ttl: ttl}
}

// Enabled reports whether uploads are configured
func (s *MediaService) Enabled() bool {
	return s.presigner != nil
}

// CreateUploadURL returns a pre-signed URL and the public URL the file will have
func (s *MediaService) CreateUploadURL(ctx context.Context, actingUserID string, req UploadRequest) (*UploadResponse, error) {
	if !s.Enabled() {
		return nil, ErrMediaDisabled
	}
	if !strings.HasPrefix(req.ContentType, "image/") {
		return nil, apperr.Validation("contentType must be an image type")
	}

	var prefix string
	switch req.Purpose {
	case UploadPurposePhoto:
		prefix = "photos/" + actingUserID
	case UploadPurposeMessage:
		if req.ChatID == "" {
			return nil, apperr.Validation("chatId is required for message uploads")
		}
		chat, err := s.chats.participantChat(ctx, req.ChatID, actingUserID, "Not authorized to access this chat")
		if err != nil {
			return nil, err
		}
		prefix = "chats/" + chat.ID
	default:
		return nil, apperr.Validation(`purpose must be "photo" or "message"`)
	}

	key := fmt.Sprintf("%s/%s%s", prefix, uuid.New().String(), uploadExt(req.Filename))
	uploadURL, err := s.presigner.PresignPut(ctx, key, req.ContentType, s.ttl)
	if err != nil {
		return nil, apperr.Internal("failed to presign upload", err)
	}

	return &UploadResponse{
		UploadURL: uploadURL,
		FileURL:   s.baseURL + "/" + key,
		Key:       key,
		ExpiresIn: int(s.ttl.Seconds()),
	}, nil
}

func uploadExt(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic":
		return ext
	}
	return ".jpg"
}
