package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sku-codemong/codemong-Backend-02/internal/common"
	"github.com/sku-codemong/codemong-Backend-02/internal/logging"
	sc "github.com/sku-codemong/codemong-Backend-02/internal/server/config"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/models"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/repositories/repotest"
)

func newProfileSvc(t *testing.T) (*ProfileService, int64) {
	t.Helper()
	cfg := &sc.Config{
		S3Region:       "ap-northeast-2",
		S3AccessKey:    "minioadmin",
		S3SecretKey:    "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "codemong-profile",
		S3PresignTTL:   5 * time.Minute,
	}
	store := repotest.NewStore()
	u, err := store.Manager().Users(nil).Create(context.Background(), &models.User{Email: "a@x.com", Nickname: "a"})
	require.NoError(t, err)

	svc := NewProfileService(nil, store.Manager(), cfg, logging.Nop())
	svc.now = func() time.Time { return time.UnixMilli(1767225600000) }
	return svc, u.ID
}

// stubPresign replaces the S3 seams and restores them on cleanup.
func stubPresign(t *testing.T, put func(in *s3.PutObjectInput, opts s3.PresignOptions) (*v4.PresignedHTTPRequest, error)) {
	t.Helper()
	origLoad, origNewS3, origNewPre, origPut := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient, presignPutObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client { return &s3.Client{} }
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient { return &s3.PresignClient{} }
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		return put(in, po)
	}
}

func Test_getPresignClient_AppliesConfig(t *testing.T) {
	svc, _ := newProfileSvc(t)

	origLoad, origNewS3, origNewPre := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "ap-northeast-2", lo.Region)
		assert.NotNil(t, lo.Credentials)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient { return &s3.PresignClient{} }

	pc, err := svc.getPresignClient(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, pc)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = svc.getPresignClient(context.Background())
	assert.EqualError(t, err, "load-fail")
}

func TestPresignProfileUpload(t *testing.T) {
	svc, uid := newProfileSvc(t)

	var captured *s3.PutObjectInput
	var expires time.Duration
	stubPresign(t, func(in *s3.PutObjectInput, po s3.PresignOptions) (*v4.PresignedHTTPRequest, error) {
		captured = in
		expires = po.Expires
		return &v4.PresignedHTTPRequest{URL: "https://signed.example/" + *in.Key}, nil
	})

	up, err := svc.PresignProfileUpload(context.Background(), uid, UploadRequest{
		Filename: "Me.PNG", ContentType: "image/png", Size: 1024,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(up.Key, ProfileKeyPrefix(uid)+"1767225600000-"), up.Key)
	assert.True(t, strings.HasSuffix(up.Key, ".png"))
	assert.Len(t, strings.TrimSuffix(strings.TrimPrefix(up.Key, ProfileKeyPrefix(uid)+"1767225600000-"), ".png"), 8)
	assert.Equal(t, "https://signed.example/"+up.Key, up.URL)

	require.NotNil(t, captured)
	assert.Equal(t, "codemong-profile", *captured.Bucket)
	assert.Equal(t, "image/png", *captured.ContentType)
	assert.Equal(t, int64(1024), *captured.ContentLength)
	assert.Equal(t, 5*time.Minute, expires)
}

func TestPresignProfileUpload_Validation(t *testing.T) {
	svc, uid := newProfileSvc(t)
	stubPresign(t, func(*s3.PutObjectInput, s3.PresignOptions) (*v4.PresignedHTTPRequest, error) {
		t.Fatal("presign must not be reached")
		return nil, nil
	})

	tests := []struct {
		name string
		req  UploadRequest
		code string
	}{
		{"bad extension", UploadRequest{Filename: "a.exe", ContentType: "image/png", Size: 10}, "BAD_FILE_TYPE"},
		{"no extension", UploadRequest{Filename: "photo", ContentType: "image/png", Size: 10}, "BAD_FILE_TYPE"},
		{"not an image", UploadRequest{Filename: "a.png", ContentType: "text/plain", Size: 10}, "BAD_FILE_TYPE"},
		{"too large", UploadRequest{Filename: "a.png", ContentType: "image/png", Size: MaxProfileImageSize + 1}, "BAD_FILE_SIZE"},
		{"empty", UploadRequest{Filename: "a.png", ContentType: "image/png"}, "BAD_FILE_SIZE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PresignProfileUpload(context.Background(), uid, tt.req)
			var ve *common.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.code, ve.Code)
		})
	}
}

func TestPresignProfileUpload_PresignError(t *testing.T) {
	svc, uid := newProfileSvc(t)
	stubPresign(t, func(*s3.PutObjectInput, s3.PresignOptions) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-put-fail")
	})

	_, err := svc.PresignProfileUpload(context.Background(), uid, UploadRequest{Filename: "a.jpg", ContentType: "image/jpeg", Size: 1})
	assert.ErrorContains(t, err, "presign-put-fail")
}

func TestCommitProfileImage(t *testing.T) {
	svc, uid := newProfileSvc(t)
	key := ProfileKeyPrefix(uid) + "1767225600000-abcdef12.png"

	u, err := svc.CommitProfileImage(context.Background(), uid, key)
	require.NoError(t, err)
	require.NotNil(t, u.ProfileImageURL)
	assert.Equal(t, "http://127.0.0.1:9000/codemong-profile/"+key, *u.ProfileImageURL)

	for _, bad := range []string{"", "profile/999/x.png", ProfileKeyPrefix(uid), ProfileKeyPrefix(uid) + "../999/x.png"} {
		_, err := svc.CommitProfileImage(context.Background(), uid, bad)
		var ve *common.ValidationError
		require.ErrorAs(t, err, &ve, bad)
		assert.Equal(t, "BAD_KEY", ve.Code)
	}
}

func TestPublicURL_AWS(t *testing.T) {
	svc, _ := newProfileSvc(t)
	svc.config.S3BaseEndpoint = ""
	assert.Equal(t, "https://codemong-profile.s3.ap-northeast-2.amazonaws.com/profile/1/a.png", svc.publicURL("profile/1/a.png"))
}

func TestProfile_GetAndUpdate(t *testing.T) {
	svc, uid := newProfileSvc(t)
	ctx := context.Background()

	nick := "  studious  "
	grade := 3
	gender := models.GenderFemale
	u, err := svc.UpdateMe(ctx, uid, models.ProfileUpdate{Nickname: &nick, Grade: &grade, Gender: &gender})
	require.NoError(t, err)
	assert.Equal(t, "studious", u.Nickname)
	require.NotNil(t, u.Grade)
	assert.Equal(t, 3, *u.Grade)

	same, err := svc.UpdateMe(ctx, uid, models.ProfileUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "studious", same.Nickname)

	self, err := svc.GetProfile(ctx, uid, &uid)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", self.Email)

	other := uid + 1
	public, err := svc.GetProfile(ctx, uid, &other)
	require.NoError(t, err)
	assert.Empty(t, public.Email)

	anon, err := svc.GetProfile(ctx, uid, nil)
	require.NoError(t, err)
	assert.Empty(t, anon.Email)

	_, err = svc.GetMe(ctx, 999)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestProfile_UpdateValidation(t *testing.T) {
	svc, uid := newProfileSvc(t)

	empty := "   "
	bad := "Other"
	neg := -1
	for code, upd := range map[string]models.ProfileUpdate{
		"BAD_NICKNAME": {Nickname: &empty},
		"BAD_GENDER":   {Gender: &bad},
		"BAD_GRADE":    {Grade: &neg},
	} {
		_, err := svc.UpdateMe(context.Background(), uid, upd)
		var ve *common.ValidationError
		require.ErrorAs(t, err, &ve, code)
		assert.Equal(t, code, ve.Code)
	}
}
