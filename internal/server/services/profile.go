package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/sku-codemong/codemong-Backend-02/internal/common"
	"github.com/sku-codemong/codemong-Backend-02/internal/logging"
	sc "github.com/sku-codemong/codemong-Backend-02/internal/server/config"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/models"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/repositories/repomanager"
)

// MaxProfileImageSize is the largest upload a presigned URL accepts.
const MaxProfileImageSize = 3 << 20

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

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
)

// UploadRequest describes the file a client intends to PUT.
type UploadRequest struct {
	Filename    string
	ContentType string
	Size        int64
}

// PresignedUpload is a one-shot PUT target.
type PresignedUpload struct {
	Key       string
	URL       string
	ExpiresAt time.Time
}

type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	log         logging.Logger
	now         func() time.Time
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, config *sc.Config, log logging.Logger) *ProfileService {
	return &ProfileService{
		db:          db,
		repomanager: m,
		config:      config,
		log:         log,
		now:         time.Now,
	}
}

func (s *ProfileService) GetMe(ctx context.Context, userID int64) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return u, nil
}

// UpdateMe applies the non-nil fields of upd. An empty update returns the
// current user unchanged.
func (s *ProfileService) UpdateMe(ctx context.Context, userID int64, upd models.ProfileUpdate) (*models.User, error) {
	if err := validateProfileUpdate(&upd); err != nil {
		return nil, err
	}
	if upd.Empty() {
		return s.GetMe(ctx, userID)
	}

	u, err := s.repomanager.Users(s.db).UpdateProfile(ctx, userID, upd)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating profile: %w", err)
	}
	return u, nil
}

// GetProfile returns the public profile of userID. The email is only
// included when the viewer is the user.
func (s *ProfileService) GetProfile(ctx context.Context, userID int64, viewerID *int64) (*models.SafeUser, error) {
	u, err := s.GetMe(ctx, userID)
	if err != nil {
		return nil, err
	}
	if viewerID != nil && *viewerID == userID {
		return u.Safe(), nil
	}
	return u.Public(), nil
}

func validateProfileUpdate(upd *models.ProfileUpdate) error {
	if upd.Nickname != nil {
		n := strings.TrimSpace(*upd.Nickname)
		if n == "" {
			return common.NewValidationError("BAD_NICKNAME", "nickname must not be empty")
		}
		upd.Nickname = &n
	}
	if upd.Grade != nil && *upd.Grade < 0 {
		return common.NewValidationError("BAD_GRADE", "grade must be a non-negative integer")
	}
	if upd.Gender != nil && *upd.Gender != models.GenderMale && *upd.Gender != models.GenderFemale {
		return common.NewValidationError("BAD_GENDER", "gender must be Male or Female")
	}
	return nil
}

// ProfileKeyPrefix is the storage prefix owned by userID.
func ProfileKeyPrefix(userID int64) string {
	return fmt.Sprintf("profile/%d/", userID)
}

func (s *ProfileService) newProfileKey(userID int64, ext string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s%d-%s%s", ProfileKeyPrefix(userID), s.now().UnixMilli(), id, ext)
}

func (s *ProfileService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(s.config.S3Region)}
	if s.config.S3AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3AccessKey,
			s.config.S3SecretKey,
			"",
		)))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}

// PresignProfileUpload returns a presigned PUT for a new profile image of
// userID. The size and content type are signed, so the store rejects a
// different body.
func (s *ProfileService) PresignProfileUpload(ctx context.Context, userID int64, req UploadRequest) (*PresignedUpload, error) {
	ext := strings.ToLower(path.Ext(req.Filename))
	if _, ok := imageExtensions[ext]; !ok {
		return nil, common.NewValidationError("BAD_FILE_TYPE", "only jpg, jpeg, png, gif and webp images are allowed")
	}
	if !strings.HasPrefix(req.ContentType, "image/") {
		return nil, common.NewValidationError("BAD_FILE_TYPE", "content type must be image/*")
	}
	if req.Size <= 0 || req.Size > MaxProfileImageSize {
		return nil, common.NewValidationError("BAD_FILE_SIZE", "image must be at most 3MB")
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating presign client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := s.newProfileKey(userID, ext)
	ttl := s.config.S3PresignTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	signed, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		ContentType:   aws.String(req.ContentType),
		ContentLength: aws.Int64(req.Size),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return nil, fmt.Errorf("error presigning upload: %w", err)
	}

	return &PresignedUpload{Key: key, URL: signed.URL, ExpiresAt: s.now().Add(ttl)}, nil
}

// CommitProfileImage points the user's profile at an uploaded object. Only
// keys under the user's own prefix are accepted.
func (s *ProfileService) CommitProfileImage(ctx context.Context, userID int64, key string) (*models.User, error) {
	key = strings.TrimSpace(key)
	prefix := ProfileKeyPrefix(userID)
	if !strings.HasPrefix(key, prefix) || len(key) == len(prefix) || strings.Contains(key, "..") {
		return nil, common.NewValidationError("BAD_KEY", "key does not belong to this user")
	}

	url := s.publicURL(key)
	return s.UpdateMe(ctx, userID, models.ProfileUpdate{ProfileImageURL: &url})
}

func (s *ProfileService) publicURL(key string) string {
	if s.config.S3BaseEndpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.config.S3BaseEndpoint, "/"), s.config.S3Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.S3Bucket, s.config.S3Region, key)
}
