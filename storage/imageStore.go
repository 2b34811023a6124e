package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// sniffLen is how much of an upload is read to detect its type.
const sniffLen = 512

// ErrUnsupportedImage is returned for content that is not an accepted raster image.
var ErrUnsupportedImage = errors.New("unsupported image type")

// imageExtensions maps accepted content types to the extension files are stored with.
// SVG is not accepted since it can carry script.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageStore persists uploaded issue photos and returns a retrievable path or URL.
// contentType must be one returned by SniffImage.
type ImageStore interface {
	Save(ctx context.Context, contentType string, r io.Reader) (string, error)
}

// SniffImage detects the type of r from its leading bytes, ignoring whatever
// name or header the client sent. The returned reader replays the whole content.
func SniffImage(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, err
	}
	head = head[:n]

	contentType := mimetype.Detect(head).String()
	if _, ok := imageExtensions[contentType]; !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}
	return contentType, io.MultiReader(bytes.NewReader(head), r), nil
}

// objectName builds a collision-free name with the extension of contentType.
func objectName(contentType string) (string, error) {
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}
	return uuid.NewString() + ext, nil
}

// LocalImageStore writes images to a directory served under URLPrefix.
type LocalImageStore struct {
	Dir       string
	URLPrefix string
}

func NewLocalImageStore(dir, urlPrefix string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalImageStore{Dir: dir, URLPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

func (s *LocalImageStore) Save(_ context.Context, contentType string, r io.Reader) (string, error) {
	name, err := objectName(contentType)
	if err != nil {
		return "", err
	}
	f, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return s.URLPrefix + "/" + name, nil
}

// GCSImageStore uploads images to a Google Cloud Storage bucket.
type GCSImageStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string) (*gcs.Client, error) {
	if credsPath == "" {
		return gcs.NewClient(ctx)
	}
	return gcs.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

func NewGCSImageStore(client *gcs.Client, bucket string) *GCSImageStore {
	return &GCSImageStore{client: client, bucket: bucket}
}

func (s *GCSImageStore) Save(ctx context.Context, contentType string, r io.Reader) (string, error) {
	name, err := objectName(contentType)
	if err != nil {
		return "", err
	}
	objectPath := "issues/" + name
	wc := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // images are small; upload in a single request
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return PublicURL(s.bucket, objectPath), nil
}

// PublicURL builds the public URL of an object.
func PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectPath)
}
