package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/unihub-app/unihub-backend/internal/config"
	"github.com/unihub-app/unihub-backend/pkg/utils"
)

// AssetStore holds project cover images and chat attachments in an
// S3-compatible bucket (Cloudflare R2).
type AssetStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func New(cfg *appconfig.Config) (*AssetStore, error) {
	r2Resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID),
		}, nil
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithEndpointResolverWithOptions(r2Resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, err
	}

	publicURL := cfg.R2PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.r2.dev", cfg.R2BucketName)
	}

	return &AssetStore{
		client:    s3.NewFromConfig(awsCfg),
		bucket:    cfg.R2BucketName,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Upload stores the object under folder/<random-id><ext> and returns its
// public URL.
func (a *AssetStore) Upload(ctx context.Context, folder, filename, contentType string, body io.Reader) (string, error) {
	ext := filepath.Ext(filename)
	key := fmt.Sprintf("%s/%s%s", folder, utils.GenerateID(), ext)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s", a.publicURL, key), nil
}

// DeleteByURL removes an object previously returned by Upload. URLs outside
// our public prefix are ignored.
func (a *AssetStore) DeleteByURL(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, a.publicURL+"/") {
		return nil
	}
	key := strings.TrimPrefix(url, a.publicURL+"/")

	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	return err
}
