package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"

	cfg "github.com/maheshrc27/postpipe/configs"
)

const maxImageBytes = 20 << 20

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// BlobStorage keeps accepted chart images and hands back their public URL.
type BlobStorage interface {
	UploadImage(ctx context.Context, sourceURL, articleName string) (string, error)
}

type R2Service struct {
	config cfg.R2
	client *s3.Client
	hc     *http.Client
}

func NewR2Service(ctx context.Context, r2 cfg.R2) (*R2Service, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r2.AccessKey, r2.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	endpoint := r2.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2.AccountID)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &R2Service{config: r2, client: client, hc: defaultHTTPClient()}, nil
}

// UploadToR2 stores file under key with the given content type.
func (r *R2Service) UploadToR2(ctx context.Context, key string, file []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(contentType),
	}

	if _, err := r.client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// UploadImage downloads sourceURL and stores it as
// <article name, alphanumerics only, max 50>_<8 char id>.<ext>.
func (r *R2Service) UploadImage(ctx context.Context, sourceURL, articleName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if err := responseError("image download", resp); err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	ext, contentType := "jpg", "image/jpeg"
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		ext, contentType = kind.Extension, kind.MIME.Value
	}

	key, err := blobKey(articleName, ext)
	if err != nil {
		return "", err
	}
	if err := r.UploadToR2(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return r.publicURL(key), nil
}

func (r *R2Service) publicURL(key string) string {
	if r.config.PublicURL != "" {
		return strings.TrimRight(r.config.PublicURL, "/") + "/" + key
	}
	base := r.config.Endpoint
	if base == "" {
		base = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r.config.AccountID)
	}
	return strings.TrimRight(base, "/") + "/" + r.config.BucketName + "/" + key
}

func blobKey(articleName, ext string) (string, error) {
	safe := unsafeKeyChars.ReplaceAllString(articleName, "")
	if len(safe) > 50 {
		safe = safe[:50]
	}
	id, err := gonanoid.Generate("abcdefghijklmnopqrstuvwxyz0123456789", 8)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s.%s", safe, id, ext), nil
}
