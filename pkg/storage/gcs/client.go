package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"github.com/inventorypro/inventorypro-backend/pkg/config"
	"github.com/inventorypro/inventorypro-backend/pkg/gcp"
	"github.com/inventorypro/inventorypro-backend/pkg/logger"
)

const (
	defaultPublicBaseURL = "https://storage.googleapis.com"
	pingTimeout          = 5 * time.Second
	avatarCacheControl   = "public, max-age=300"
)

// Client uploads public objects (user avatars) to a single bucket.
type Client struct {
	client        *storage.Client
	defaultBucket string
	publicBaseURL string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// UploadResult describes a stored object.
type UploadResult struct {
	Bucket    string
	Object    string
	PublicURL string
	Size      int64
}

func NewClient(ctx context.Context, cfg config.GCSConfig, gcpCfg config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.AvatarBucket) == "" {
		return nil, errors.New("gcs avatar bucket is required")
	}

	sc, err := storage.NewClient(ctx, gcp.ClientOptions(gcpCfg)...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	client := &Client{
		client:        sc,
		defaultBucket: cfg.AvatarBucket,
		publicBaseURL: normalizeBaseURL(cfg.PublicBaseURL),
	}

	if err := client.Ping(ctx); err != nil {
		_ = sc.Close()
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		ctx = logg.WithField(ctx, "bucket", cfg.AvatarBucket)
		logg.Info(ctx, "gcs client initialized")
	}

	return client, nil
}

// Upload streams body into object on the default bucket and returns its public URL.
func (c *Client) Upload(ctx context.Context, object, contentType string, body io.Reader) (*UploadResult, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("gcs client not initialized")
	}
	object = strings.TrimLeft(strings.TrimSpace(object), "/")
	if object == "" {
		return nil, errors.New("object name is required")
	}

	w := c.client.Bucket(c.defaultBucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = avatarCacheControl

	written, err := io.Copy(w, body)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("writing object %q: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing object %q: %w", object, err)
	}

	return &UploadResult{
		Bucket:    c.defaultBucket,
		Object:    object,
		PublicURL: c.PublicURL(object),
		Size:      written,
	}, nil
}

// Delete removes object from the default bucket. Missing objects are ignored.
func (c *Client) Delete(ctx context.Context, object string) error {
	if c == nil || c.client == nil {
		return errors.New("gcs client not initialized")
	}
	err := c.client.Bucket(c.defaultBucket).Object(object).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("deleting object %q: %w", object, err)
	}
	return nil
}

// PublicURL returns the public HTTPS URL of object.
func (c *Client) PublicURL(object string) string {
	base := defaultPublicBaseURL
	bucket := ""
	if c != nil {
		base = normalizeBaseURL(c.publicBaseURL)
		bucket = c.defaultBucket
	}
	segments := strings.Split(strings.TrimLeft(object, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/%s/%s", base, url.PathEscape(bucket), strings.Join(segments, "/"))
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("gcs client not initialized")
	}
	if c.defaultBucket == "" {
		return errors.New("gcs bucket not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.client.Bucket(c.defaultBucket).Attrs(ctx); err != nil {
		return fmt.Errorf("gcs bucket check failed: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func normalizeBaseURL(raw string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return defaultPublicBaseURL
	}
	return trimmed
}
