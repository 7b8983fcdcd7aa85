package services

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gophsocial/internal/common"
	sc "github.com/dmitrijs2005/gophsocial/internal/server/config"
)

func newMediaSvc() *MediaService {
	return NewMediaService(&sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "gophsocial",
	})
}

// stubAWS replaces the AWS constructors for the duration of the test.
func stubAWS(t *testing.T) {
	t.Helper()
	origLoad, origNewS3, origNewPre := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient
	origPut, origGet := presignPutObject, presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
		presignGetObject = origGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client { return &s3.Client{} }
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient { return &s3.PresignClient{} }
}

func TestGetPresignClient_AppliesConfig(t *testing.T) {
	svc := newMediaSvc()
	stubAWS(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		if lo.Credentials == nil {
			t.Fatalf("credentials not applied")
		}
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	pc, err := svc.getPresignClient(context.Background())
	if err != nil || pc == nil {
		t.Fatalf("getPresignClient = %v, %v", pc, err)
	}
	if opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://127.0.0.1:9000" {
		t.Fatalf("BaseEndpoint mismatch: %v", opts.BaseEndpoint)
	}
	if !opts.UsePathStyle {
		t.Fatalf("expected path-style addressing")
	}
}

func TestGetPresignClient_LoadError(t *testing.T) {
	svc := newMediaSvc()
	stubAWS(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	if _, err := svc.PresignImageUpload(context.Background(), "u-1"); err == nil || err.Error() != "load-fail" {
		t.Fatalf("expected load-fail, got %v", err)
	}
	if _, err := svc.PresignImageDownload(context.Background(), "images/x"); err == nil || err.Error() != "load-fail" {
		t.Fatalf("expected load-fail, got %v", err)
	}
}

func TestPresignImageUpload_Success(t *testing.T) {
	svc := newMediaSvc()
	stubAWS(t)

	var gotBucket, gotKey string
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		gotBucket, gotKey = *in.Bucket, *in.Key
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		if po.Expires != presignExpiry {
			t.Fatalf("expires = %v", po.Expires)
		}
		return &v4.PresignedHTTPRequest{URL: "https://s3/put", Method: http.MethodPut}, nil
	}

	up, err := svc.PresignImageUpload(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("PresignImageUpload error: %v", err)
	}
	if up.URL != "https://s3/put" || up.Key != gotKey {
		t.Fatalf("unexpected upload %+v (key %q)", up, gotKey)
	}
	if gotBucket != "gophsocial" {
		t.Fatalf("bucket = %q", gotBucket)
	}
	if !strings.Contains(up.Key, "/u-1/") {
		t.Fatalf("key %q lacks user prefix", up.Key)
	}
	if time.Until(up.ExpiresAt) <= 0 {
		t.Fatalf("expiry in the past: %v", up.ExpiresAt)
	}
}

func TestPresignImageUpload_PresignError(t *testing.T) {
	svc := newMediaSvc()
	stubAWS(t)

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-put-fail")
	}

	if _, err := svc.PresignImageUpload(context.Background(), "u-1"); err == nil || err.Error() != "presign-put-fail" {
		t.Fatalf("want presign-put-fail, got %v", err)
	}
}

func TestPresignImageDownload(t *testing.T) {
	svc := newMediaSvc()
	stubAWS(t)

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "https://s3/get/" + *in.Key}, nil
	}

	url, err := svc.PresignImageDownload(context.Background(), "images/2025/01/02/u-1/abc")
	if err != nil || url != "https://s3/get/images/2025/01/02/u-1/abc" {
		t.Fatalf("PresignImageDownload = %q, %v", url, err)
	}

	if _, err := svc.PresignImageDownload(context.Background(), "../secrets"); !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestImageStorageKey_Format(t *testing.T) {
	at := time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)
	key := ImageStorageKey("u-9", at)

	re := regexp.MustCompile(`^images/2025/03/07/u-9/[0-9a-f-]{36}$`)
	if !re.MatchString(key) {
		t.Fatalf("unexpected key %q", key)
	}
	if key == ImageStorageKey("u-9", at) {
		t.Fatalf("keys must be unique")
	}
}
