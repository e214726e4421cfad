package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gestcard/internal/common"
	sc "github.com/dmitrijs2005/gestcard/internal/server/config"
	"github.com/dmitrijs2005/gestcard/internal/server/models"
	"github.com/dmitrijs2005/gestcard/internal/timex"
	"github.com/segmentio/ksuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// CVContentType is the only accepted upload type.
const CVContentType = "application/pdf"

const cvPrefix = "cv/"

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// PresignedURL is a time-limited direct link to the object store.
type PresignedURL struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UploadService hands out presigned URLs for CV files. The bytes never pass
// through the server.
type UploadService struct {
	config *sc.Config
	clock  timex.Clock
}

func NewUploadService(cfg *sc.Config, clock timex.Clock) *UploadService {
	if clock == nil {
		clock = timex.SystemClock{}
	}
	return &UploadService{config: cfg, clock: clock}
}

// CVKey builds a fresh object key under the account's prefix.
func CVKey(accountID string) string {
	return fmt.Sprintf("%s%s/%s.pdf", cvPrefix, accountID, ksuid.New().String())
}

func (s *UploadService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

func (s *UploadService) PresignCVUpload(ctx context.Context, accountID, contentType string) (*PresignedURL, error) {
	if contentType == "" {
		contentType = CVContentType
	}
	if contentType != CVContentType {
		return nil, common.Validation("only %s files are accepted", CVContentType)
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := CVKey(accountID)
	ttl := s.config.UploadURLValidityDuration

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}

	return &PresignedURL{Key: key, URL: req.URL, ExpiresAt: s.clock.Now().Add(ttl)}, nil
}

// PresignCVDownload signs a GET for key. Regular accounts may only read
// their own CVs; admins may read any.
func (s *UploadService) PresignCVDownload(ctx context.Context, account *models.Account, key string) (*PresignedURL, error) {
	if !strings.HasPrefix(key, cvPrefix) || strings.Contains(key, "..") {
		return nil, common.Validation("invalid object key")
	}
	if account.Role != models.RoleAdmin && !strings.HasPrefix(key, cvPrefix+account.ID+"/") {
		return nil, common.Forbidden("Access to this file is not allowed")
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	ttl := s.config.UploadURLValidityDuration

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return nil, fmt.Errorf("presign get: %w", err)
	}

	return &PresignedURL{Key: key, URL: req.URL, ExpiresAt: s.clock.Now().Add(ttl)}, nil
}
