package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"mime"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/deroyal/feedback-portal/backend/config"
)

// MaxAttachmentSize bounds uploads at 5MB.
const MaxAttachmentSize = 5 * 1024 * 1024

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".txt":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

var (
	ErrAttachmentTooLarge = errors.New("file size exceeds 5MB limit")
	ErrAttachmentType     = errors.New("invalid file type")
)

// AttachmentService stores submission attachments in S3.
type AttachmentService struct {
	s3Config *config.S3Config
}

func NewAttachmentService(s3Config *config.S3Config) IAttachmentService {
	return &AttachmentService{s3Config: s3Config}
}

// Upload validates and stores an attachment, returning its stored name and
// public URL. Name and URL are set together or not at all.
func (s *AttachmentService) Upload(ctx context.Context, filename string, size int64, content []byte) (*Attachment, error) {
	if size > MaxAttachmentSize || int64(len(content)) > MaxAttachmentSize {
		return nil, ErrAttachmentTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, ErrAttachmentType
	}

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("feedback-attachments/%s%s", uuid.New().String(), ext)

	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, key)
	log.Printf("[AttachmentService] Stored attachment %s at %s", filename, publicURL)

	return &Attachment{Name: filename, URL: publicURL}, nil
}
