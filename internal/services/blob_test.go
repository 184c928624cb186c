package services_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/tunebox/internal/services"
	"github.com/desertthunder/tunebox/internal/shared"
	tbtesting "github.com/desertthunder/tunebox/internal/testing"
)

func newTestBlobStore(rt *tbtesting.MockRoundTripper) *services.HTTPBlobStore {
	client := &http.Client{Transport: rt}
	return services.NewHTTPBlobStore("https://api.test/storage/v1", "songs", "anon-key", client, func() string {
		return "session-token"
	})
}

func TestBlobUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("posts to the bucket object path", func(t *testing.T) {
		rt := tbtesting.NewMockRoundTripper(jsonResponse(200, `{"Key":"songs/audio/x.mp3"}`), nil)
		store := newTestBlobStore(rt)

		err := store.Upload(ctx, "audio/x.mp3", "audio/mpeg", strings.NewReader("bytes"))
		if err != nil {
			t.Fatalf("upload failed: %v", err)
		}

		req := rt.Requests[0]
		if req.URL.String() != "https://api.test/storage/v1/object/songs/audio/x.mp3" {
			t.Errorf("url = %s", req.URL)
		}
		if req.Header.Get("Content-Type") != "audio/mpeg" {
			t.Errorf("content type = %s", req.Header.Get("Content-Type"))
		}
		if req.Header.Get("Cache-Control") != "max-age=3600" {
			t.Errorf("cache control = %s", req.Header.Get("Cache-Control"))
		}
		if req.Header.Get("apikey") != "anon-key" {
			t.Error("apikey header missing")
		}
		if req.Header.Get("Authorization") != "Bearer session-token" {
			t.Errorf("authorization header = %s", req.Header.Get("Authorization"))
		}
	})

	t.Run("conflict maps to ErrDuplicate", func(t *testing.T) {
		rt := tbtesting.NewMockRoundTripper(jsonResponse(409, `{"message":"exists"}`), nil)
		store := newTestBlobStore(rt)

		err := store.Upload(ctx, "audio/x.mp3", "audio/mpeg", strings.NewReader("bytes"))
		if !errors.Is(err, shared.ErrDuplicate) {
			t.Errorf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("server failure maps to ErrRemote", func(t *testing.T) {
		rt := tbtesting.NewMockRoundTripper(jsonResponse(500, `{"message":"boom"}`), nil)
		store := newTestBlobStore(rt)

		err := store.Upload(ctx, "audio/x.mp3", "audio/mpeg", strings.NewReader("bytes"))
		if !errors.Is(err, shared.ErrRemote) {
			t.Errorf("expected ErrRemote, got %v", err)
		}
	})
}

func TestBlobPublicURL(t *testing.T) {
	store := services.NewHTTPBlobStore("https://api.test/storage/v1/", "songs", "", nil, nil)

	got := store.PublicURL("audio/x.mp3")
	want := "https://api.test/storage/v1/object/public/songs/audio/x.mp3"
	if got != want {
		t.Errorf("public url = %s, want %s", got, want)
	}
}

func TestBlobVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("reachable bucket passes", func(t *testing.T) {
		rt := tbtesting.NewMockRoundTripper(jsonResponse(200, `{"name":"songs"}`), nil)
		store := newTestBlobStore(rt)

		if err := store.Verify(ctx); err != nil {
			t.Fatalf("verify failed: %v", err)
		}
		if rt.Requests[0].URL.String() != "https://api.test/storage/v1/bucket/songs" {
			t.Errorf("url = %s", rt.Requests[0].URL)
		}
	})

	t.Run("missing bucket maps to ErrBucketMissing", func(t *testing.T) {
		rt := tbtesting.NewMockRoundTripper(jsonResponse(404, `{"message":"not found"}`), nil)
		store := newTestBlobStore(rt)

		if err := store.Verify(ctx); !errors.Is(err, shared.ErrBucketMissing) {
			t.Errorf("expected ErrBucketMissing, got %v", err)
		}
	})
}
