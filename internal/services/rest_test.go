package services_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/tunebox/internal/models"
	"github.com/desertthunder/tunebox/internal/services"
	"github.com/desertthunder/tunebox/internal/shared"
	tbtesting "github.com/desertthunder/tunebox/internal/testing"
)

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestRESTStore(rt *tbtesting.MockRoundTripper) *services.RESTStore {
	client := &http.Client{Transport: rt}
	return services.NewRESTStore("https://api.test/rest/v1", "anon-key", client, 0, func() string {
		return "session-token"
	})
}

func TestRESTSelect(t *testing.T) {
	ctx := context.Background()

	t.Run("builds query parameters and headers", func(t *testing.T) {
		rt := tbtesting.NewMockRoundTripper(jsonResponse(200, `[]`), nil)
		store := newTestRESTStore(rt)

		_, err := store.Songs().Select(ctx,
			map[string]any{"user_id": "user-1"},
			&services.Order{Column: "created_at", Descending: true},
		)
		if err != nil {
			t.Fatalf("select failed: %v", err)
		}

		if len(rt.Requests) != 1 {
			t.Fatalf("expected 1 request, got %d", len(rt.Requests))
		}
		req := rt.Requests[0]

		if req.URL.Path != "/rest/v1/songs" {
			t.Errorf("path = %s", req.URL.Path)
		}
		query := req.URL.Query()
		if query.Get("user_id") != "eq.user-1" {
			t.Errorf("user_id param = %s", query.Get("user_id"))
		}
		if query.Get("order") != "created_at.desc" {
			t.Errorf("order param = %s", query.Get("order"))
		}
		if query.Get("select") != "*" {
			t.Errorf("select param = %s", query.Get("select"))
		}
		if req.Header.Get("apikey") != "anon-key" {
			t.Error("apikey header missing")
		}
		if req.Header.Get("Authorization") != "Bearer session-token" {
			t.Errorf("authorization header = %s", req.Header.Get("Authorization"))
		}
	})

	t.Run("renders string slices as in filters", func(t *testing.T) {
		rt := tbtesting.NewMockRoundTripper(jsonResponse(200, `[]`), nil)
		store := newTestRESTStore(rt)

		_, err := store.Songs().Select(ctx, map[string]any{"id": []string{"a", "b"}}, nil)
		if err != nil {
			t.Fatalf("select failed: %v", err)
		}

		got := rt.Requests[0].URL.Query().Get("id")
		if got != "in.(a,b)" {
			t.Errorf("id param = %s, want in.(a,b)", got)
		}
	})

	t.Run("decodes rows", func(t *testing.T) {
		body := `[{"id":"s1","title":"One","artist":"A","album":"X","genre":"Rock","duration":"3:45","user_id":"user-1"}]`
		rt := tbtesting.NewMockRoundTripper(jsonResponse(200, body), nil)
		store := newTestRESTStore(rt)

		songs, err := store.Songs().Select(ctx, nil, nil)
		if err != nil {
			t.Fatalf("select failed: %v", err)
		}
		if len(songs) != 1 || songs[0].ID != "s1" || songs[0].Artist != "A" {
			t.Errorf("decoded rows = %v", songs)
		}
	})

	t.Run("maps auth failures", func(t *testing.T) {
		rt := tbtesting.NewMockRoundTripper(jsonResponse(401, `{"message":"JWT expired"}`), nil)
		store := newTestRESTStore(rt)

		if _, err := store.Songs().Select(ctx, nil, nil); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("wraps transport failures", func(t *testing.T) {
		rt := tbtesting.NewMockRoundTripper(nil, errors.New("connection refused"))
		store := newTestRESTStore(rt)

		if _, err := store.Songs().Select(ctx, nil, nil); !errors.Is(err, shared.ErrRemote) {
			t.Errorf("expected ErrRemote, got %v", err)
		}
	})
}

func TestRESTInsert(t *testing.T) {
	ctx := context.Background()

	t.Run("posts an array and returns the first row", func(t *testing.T) {
		body := `[{"id":"assigned","title":"One","artist":"A","album":"X","genre":"Rock","duration":"3:45","user_id":"user-1"}]`
		rt := tbtesting.NewMockRoundTripper(jsonResponse(201, body), nil)
		store := newTestRESTStore(rt)

		created, err := store.Songs().Insert(ctx, models.Song{Title: "One", Artist: "A", Album: "X", Genre: "Rock", Duration: "3:45", UserID: "user-1"})
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		if created.ID != "assigned" {
			t.Errorf("expected the backend-assigned id, got %s", created.ID)
		}

		req := rt.Requests[0]
		if req.Method != http.MethodPost {
			t.Errorf("method = %s", req.Method)
		}
		if req.Header.Get("Prefer") != "return=representation" {
			t.Errorf("prefer header = %s", req.Header.Get("Prefer"))
		}
		payload, _ := io.ReadAll(req.Body)
		if !strings.HasPrefix(string(payload), "[") {
			t.Errorf("payload should be an array, got %s", payload)
		}
	})

	t.Run("conflict maps to ErrDuplicate", func(t *testing.T) {
		rt := tbtesting.NewMockRoundTripper(jsonResponse(409, `{"message":"duplicate key"}`), nil)
		store := newTestRESTStore(rt)

		_, err := store.Memberships().Insert(ctx, models.Membership{PlaylistID: "p1", SongID: "s1"})
		if !errors.Is(err, shared.ErrDuplicate) {
			t.Errorf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("empty representation is a remote error", func(t *testing.T) {
		rt := tbtesting.NewMockRoundTripper(jsonResponse(201, `[]`), nil)
		store := newTestRESTStore(rt)

		if _, err := store.Songs().Insert(ctx, models.Song{}); !errors.Is(err, shared.ErrRemote) {
			t.Errorf("expected ErrRemote for empty insert echo, got %v", err)
		}
	})
}

func TestRESTUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("patches by id and returns the echoed row", func(t *testing.T) {
		body := `[{"id":"s1","title":"One (Live)","artist":"A","album":"X","genre":"Rock","duration":"3:45","user_id":"user-1"}]`
		rt := tbtesting.NewMockRoundTripper(jsonResponse(200, body), nil)
		store := newTestRESTStore(rt)

		updated, err := store.Songs().Update(ctx, "s1", map[string]any{"title": "One (Live)"})
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if updated == nil || updated.Title != "One (Live)" {
			t.Errorf("updated = %v", updated)
		}

		req := rt.Requests[0]
		if req.Method != http.MethodPatch {
			t.Errorf("method = %s", req.Method)
		}
		if req.URL.Query().Get("id") != "eq.s1" {
			t.Errorf("id param = %s", req.URL.Query().Get("id"))
		}
	})

	t.Run("missing echo falls back to nil row", func(t *testing.T) {
		rt := tbtesting.NewMockRoundTripper(jsonResponse(204, ``), nil)
		store := newTestRESTStore(rt)

		updated, err := store.Songs().Update(ctx, "s1", map[string]any{"title": "x"})
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if updated != nil {
			t.Errorf("expected nil row without representation, got %v", updated)
		}
	})
}

func TestRESTDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("counts returned rows", func(t *testing.T) {
		rt := tbtesting.NewMockRoundTripper(jsonResponse(200, `[{"id":"s1"}]`), nil)
		store := newTestRESTStore(rt)

		affected, err := store.Songs().Delete(ctx, map[string]any{"id": "s1"})
		if err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if affected != 1 {
			t.Errorf("affected = %d, want 1", affected)
		}
		if rt.Requests[0].Method != http.MethodDelete {
			t.Errorf("method = %s", rt.Requests[0].Method)
		}
	})

	t.Run("zero rows when nothing matched", func(t *testing.T) {
		rt := tbtesting.NewMockRoundTripper(jsonResponse(200, `[]`), nil)
		store := newTestRESTStore(rt)

		affected, err := store.Memberships().Delete(ctx, map[string]any{"playlist_id": "p1", "song_id": "s1"})
		if err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if affected != 0 {
			t.Errorf("affected = %d, want 0", affected)
		}
	})
}
