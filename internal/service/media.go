package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"orkutbook/internal/cache"
	"orkutbook/internal/config"
	"orkutbook/internal/model"
)

// publicObjectPattern matches the public-style object links the records
// store: .../object/public/<bucket>/<path>. The capture group is the
// storage path, everything after the bucket segment.
var publicObjectPattern = regexp.MustCompile(`object/public/[^/]+/(.+)$`)

// Signer issues a time-boxed signed URL for a storage path.
type Signer interface {
	SignURL(ctx context.Context, storagePath string, lifetime time.Duration) (string, error)
}

// s3Signer signs GET URLs against an S3-compatible store (Cloudflare R2).
type s3Signer struct {
	presign *s3.PresignClient
	bucket  string
}

func (s *s3Signer) SignURL(ctx context.Context, storagePath string, lifetime time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storagePath),
	}, s3.WithPresignExpires(lifetime))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

// MediaService resolves stored media references into short-lived signed URLs
// and uploads media objects ahead of record writes.
type MediaService struct {
	s3Client  *s3.Client
	signer    Signer
	links     cache.LinkCache // optional; nil disables the memo
	bucket    string
	publicURL string
}

// NewMediaService constructs an S3-compatible client for Cloudflare R2.
// links may be nil when no cache is configured.
func NewMediaService(ctx context.Context, cfg *config.Config, links cache.LinkCache) (*MediaService, error) {
	if cfg.R2AccountID == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" || cfg.R2BucketName == "" || cfg.R2PublicURL == "" {
		return nil, fmt.Errorf("missing Cloudflare R2 configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &MediaService{
		s3Client:  s3Client,
		signer:    &s3Signer{presign: s3.NewPresignClient(s3Client), bucket: cfg.R2BucketName},
		links:     links,
		bucket:    cfg.R2BucketName,
		publicURL: strings.TrimSuffix(cfg.R2PublicURL, "/"),
	}, nil
}

// ResolveLink exchanges a stored reference for a signed URL with a fixed
// 24 hour lifetime. Resolution is best-effort: when the path cannot be
// extracted or signing fails, the original reference is returned unchanged
// so rendering never blocks on media. Returns nil only for an empty
// reference. Safe for concurrent use.
func (s *MediaService) ResolveLink(ctx context.Context, storedReference string) *model.ResolvedMediaLink {
	if storedReference == "" {
		return nil
	}

	if s.links != nil {
		if link, found, err := s.links.Get(ctx, storedReference); err == nil && found {
			return link
		}
	}

	storagePath, ok := storagePathFromPublicURL(storedReference)
	if !ok {
		log.Printf("[MediaService] ResolveLink: no storage path in ref=%q, serving as-is", storedReference)
		return &model.ResolvedMediaLink{SignedURL: storedReference}
	}

	signedURL, err := s.signer.SignURL(ctx, storagePath, model.SignedURLLifetime)
	if err != nil {
		log.Printf("[MediaService] ResolveLink FAILED: path=%s err=%v, serving unsigned ref", storagePath, err)
		return &model.ResolvedMediaLink{SignedURL: storedReference}
	}

	link := model.ResolvedMediaLink{
		SignedURL: signedURL,
		ExpiresAt: time.Now().Add(model.SignedURLLifetime),
	}

	if s.links != nil {
		if err := s.links.Set(ctx, storedReference, link); err != nil {
			log.Printf("[MediaService] ResolveLink cache set failed: ref=%s err=%v", storedReference, err)
		}
	}
	return &link
}

// InvalidateLink drops any cached signed URL for a reference. Called when
// the underlying object is replaced or deleted.
func (s *MediaService) InvalidateLink(ctx context.Context, storedReference string) error {
	if s.links == nil || storedReference == "" {
		return nil
	}
	return s.links.Invalidate(ctx, storedReference)
}

// storagePathFromPublicURL extracts the storage path from a public-style
// object link by pattern matching, never by slicing at an assumed bucket
// length. ok=false when the reference is not a public object link.
func storagePathFromPublicURL(reference string) (string, bool) {
	m := publicObjectPattern.FindStringSubmatch(reference)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// UploadPostImage validates and uploads a post attachment. The object key is
// posts/<owner_id>-<epoch_millis>.<original_extension>; the returned value is
// the public-style reference recorded on the post.
func (s *MediaService) UploadPostImage(ctx context.Context, ownerID uuid.UUID, upload model.MediaUpload) (string, error) {
	contentType, err := validateImageUpload(upload)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s-%d%s", model.PostMediaFolder, ownerID, time.Now().UnixMilli(), uploadExtension(upload, contentType))
	if err := s.putObject(ctx, key, upload.Data, contentType); err != nil {
		return "", err
	}

	return s.publicURL + "/" + key, nil
}

// UploadProfilePhoto normalizes a profile photo to a 200x200 JPEG and
// uploads it under images/<owner_id>-<epoch_millis>.jpg.
func (s *MediaService) UploadProfilePhoto(ctx context.Context, ownerID uuid.UUID, upload model.MediaUpload) (string, error) {
	if _, err := validateImageUpload(upload); err != nil {
		return "", err
	}

	jpegBytes, err := normalizeToJPEG(upload.Data, model.ProfilePhotoWidth, model.ProfilePhotoHeight, model.ProfilePhotoQuality)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s-%d.jpg", model.ProfileMediaFolder, ownerID, time.Now().UnixMilli())
	if err := s.putObject(ctx, key, jpegBytes, model.ContentTypeJPEG); err != nil {
		return "", err
	}

	return s.publicURL + "/" + key, nil
}

// validateImageUpload enforces size and content-type limits, sniffing the
// type from the bytes when the client did not send one.
func validateImageUpload(upload model.MediaUpload) (string, error) {
	if int64(len(upload.Data)) > model.MaxMediaSizeBytes {
		return "", model.ErrFileTooLarge
	}

	contentType := upload.ContentType
	if contentType == "" && len(upload.Data) > 0 {
		contentType = http.DetectContentType(upload.Data[:min(len(upload.Data), 512)])
	}
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !model.IsAllowedImageType(contentType) {
		return "", model.ErrInvalidImageType
	}
	return contentType, nil
}

func uploadExtension(upload model.MediaUpload, contentType string) string {
	if ext := strings.ToLower(path.Ext(upload.Filename)); ext != "" {
		return ext
	}
	switch contentType {
	case model.ContentTypePNG:
		return ".png"
	case model.ContentTypeGIF:
		return ".gif"
	case model.ContentTypeWebP:
		return ".webp"
	default:
		return ".jpg"
	}
}

// normalizeToJPEG centers/crops to target size and encodes as JPEG.
func normalizeToJPEG(data []byte, width, height, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *MediaService) putObject(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to r2: %w", err)
	}
	return nil
}

// RemoveObject deletes the stored object behind a public-style reference.
// References that carry no storage path (external links) are left alone.
func (s *MediaService) RemoveObject(ctx context.Context, storedReference string) error {
	storagePath, ok := storagePathFromPublicURL(storedReference)
	if !ok {
		return nil
	}
	return s.DeleteObject(ctx, storagePath)
}

// DeleteObject removes an object by key.
func (s *MediaService) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from r2: %w", err)
	}
	return nil
}
