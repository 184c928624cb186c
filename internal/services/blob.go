// HTTP implementation of [BlobStore] for bucket-backed object storage.
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/tunebox/internal/shared"
)

// HTTPBlobStore implements [BlobStore] against a storage API that exposes
// object upload under /object/{bucket}/{path} and public resolution under
// /object/public/{bucket}/{path}.
type HTTPBlobStore struct {
	baseURL    string
	bucket     string
	anonKey    string
	httpClient *http.Client
	token      func() string
}

// NewHTTPBlobStore creates a blob store client for one fixed bucket.
func NewHTTPBlobStore(baseURL, bucket, anonKey string, client *http.Client, token func() string) *HTTPBlobStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPBlobStore{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		bucket:     bucket,
		anonKey:    anonKey,
		httpClient: client,
		token:      token,
	}
}

// Upload streams the body to the bucket under the given object path.
func (b *HTTPBlobStore) Upload(ctx context.Context, path, contentType string, body io.Reader) error {
	fullURL := fmt.Sprintf("%s/object/%s/%s", b.baseURL, b.bucket, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, body)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cache-Control", "max-age=3600")
	b.authorize(req)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRemote, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusConflict {
			return fmt.Errorf("%w: object %s already exists", shared.ErrDuplicate, path)
		}
		return fmt.Errorf("%w: upload status %d: %s", shared.ErrRemote, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return nil
}

// PublicURL returns the publicly resolvable reference for an object path.
func (b *HTTPBlobStore) PublicURL(path string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", b.baseURL, b.bucket, path)
}

// Verify checks the bucket is reachable before the first upload.
func (b *HTTPBlobStore) Verify(ctx context.Context) error {
	fullURL := fmt.Sprintf("%s/bucket/%s", b.baseURL, b.bucket)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create bucket request: %w", err)
	}
	b.authorize(req)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrBucketMissing, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: bucket %s returned status %d", shared.ErrBucketMissing, b.bucket, resp.StatusCode)
	}
	return nil
}

func (b *HTTPBlobStore) authorize(req *http.Request) {
	if b.anonKey != "" {
		req.Header.Set("apikey", b.anonKey)
	}
	if b.token != nil {
		if tok := b.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
}
