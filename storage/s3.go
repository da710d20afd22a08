package storage

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"onmydesk/config"
)

const s3Scheme = "s3://"

// S3 uploads files to a bucket (AWS S3 or any compatible endpoint), removes
// the local copy, and records s3://bucket/key. Links are presigned GET URLs.
type S3 struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	prefix  string
	expiry  time.Duration
}

// NewS3 builds the client from cfg, with static credentials when set and the
// default AWS chain otherwise.
func NewS3(ctx context.Context, cfg config.S3Config) (*S3, error) {
	return newS3(ctx, cfg, nil)
}

func newS3(ctx context.Context, cfg config.S3Config, httpClient *http.Client) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if httpClient != nil {
			o.HTTPClient = httpClient
		}
	})
	expiry := time.Duration(cfg.LinkExpiryMinutes) * time.Minute
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &S3{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(cfg.Prefix, "/"),
		expiry:  expiry,
	}, nil
}

func (s *S3) key(file string) string {
	if s.prefix == "" {
		return filepath.Base(file)
	}
	return path.Join(s.prefix, filepath.Base(file))
}

func (s *S3) Relocate(ctx context.Context, file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	key := s.key(file)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(file)),
	})
	f.Close()
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	if err := os.Remove(file); err != nil {
		return "", err
	}
	return s3Scheme + s.bucket + "/" + key, nil
}

// Link presigns a GET for results recorded as s3://bucket/key.
func (s *S3) Link(ctx context.Context, result string) (string, error) {
	bucket, key, ok := splitS3(result)
	if !ok {
		return NoLink, nil
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", result, err)
	}
	return req.URL, nil
}

func splitS3(result string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(result, s3Scheme)
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
