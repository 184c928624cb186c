package stores

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/tunebox/internal/models"
	"github.com/desertthunder/tunebox/internal/shared"
	tbtesting "github.com/desertthunder/tunebox/internal/testing"
)

func newPlaylistEnv(t *testing.T, session *models.Session) (*tbtesting.MemoryStore, *recordingNotifier, *PlaylistStore) {
	t.Helper()

	backend := tbtesting.NewMemoryStore()
	notifier := &recordingNotifier{}
	identity := tbtesting.NewScriptedIdentity(session)

	provider := NewSessionProvider(identity, notifier, quietLogger())
	t.Cleanup(provider.Close)
	provider.Resolve(context.Background())

	store := NewPlaylistStore(provider, backend, notifier, quietLogger())
	notifier.reset()
	return backend, notifier, store
}

func seedPlaylists(backend *tbtesting.MemoryStore) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	backend.PlaylistRows = []models.Playlist{
		{ID: "p1", Name: "Road Trip", Description: "Long drives", UserID: "user-1", CreatedAt: base},
		{ID: "p2", Name: "Late Night", UserID: "user-1", CreatedAt: base.Add(time.Hour)},
	}
	backend.SongRows = []models.Song{
		{ID: "s1", Title: "Bohemian Rhapsody", Artist: "Queen", Album: "A Night at the Opera", Genre: "Rock", Duration: "5:55", UserID: "user-1", CreatedAt: base},
		{ID: "s2", Title: "Hotel California", Artist: "Eagles", Album: "Hotel California", Genre: "Rock", Duration: "6:30", UserID: "user-1", CreatedAt: base},
	}
	backend.MembershipRows = []models.Membership{
		{PlaylistID: "p1", SongID: "s1"},
	}
}

func TestPlaylistStoreCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("prepends the new playlist and returns its id", func(t *testing.T) {
		_, notifier, store := newPlaylistEnv(t, testSession())

		id, err := store.Create(ctx, "Focus", "deep work")
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if id == "" {
			t.Error("create should return the backend-assigned id")
		}

		playlists := store.Playlists()
		if len(playlists) != 1 || playlists[0].ID != id {
			t.Errorf("new playlist should head the mirror, got %v", playlists)
		}
		if playlists[0].UserID != "user-1" {
			t.Errorf("playlist should carry the session's user id, got %s", playlists[0].UserID)
		}

		note := notifier.last()
		if note == nil || note.Message != "Playlist created successfully" {
			t.Errorf("expected creation confirmation, got %v", note)
		}
	})

	t.Run("rejects a blank name", func(t *testing.T) {
		_, _, store := newPlaylistEnv(t, testSession())

		if _, err := store.Create(ctx, "   ", ""); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation for blank name, got %v", err)
		}
		if len(store.Playlists()) != 0 {
			t.Error("nothing should be created for a blank name")
		}
	})

	t.Run("fails fast without a session", func(t *testing.T) {
		backend, _, store := newPlaylistEnv(t, nil)
		backend.Fail("playlists.insert", errors.New("remote should not be reached"))

		if _, err := store.Create(ctx, "Focus", ""); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestPlaylistStoreUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("reconciles from the backend's row", func(t *testing.T) {
		backend, _, store := newPlaylistEnv(t, testSession())
		seedPlaylists(backend)
		if err := store.FetchAll(ctx); err != nil {
			t.Fatal(err)
		}

		name := "Road Trip 2024"
		if err := store.Update(ctx, "p1", models.PlaylistPatch{Name: &name}); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		for _, p := range store.Playlists() {
			if p.ID == "p1" && p.Name != name {
				t.Errorf("mirror not reconciled, name = %s", p.Name)
			}
		}
	})

	t.Run("rejects an empty patch", func(t *testing.T) {
		_, _, store := newPlaylistEnv(t, testSession())
		if err := store.Update(ctx, "p1", models.PlaylistPatch{}); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestPlaylistStoreDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the playlist and cascades membership", func(t *testing.T) {
		backend, _, store := newPlaylistEnv(t, testSession())
		seedPlaylists(backend)
		if err := store.FetchAll(ctx); err != nil {
			t.Fatal(err)
		}

		if err := store.Delete(ctx, "p1"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}

		for _, p := range store.Playlists() {
			if p.ID == "p1" {
				t.Error("deleted playlist still in the mirror")
			}
		}
		if len(backend.MembershipRows) != 0 {
			t.Errorf("membership rows should cascade, %d left", len(backend.MembershipRows))
		}
	})

	t.Run("zero affected rows still converges locally", func(t *testing.T) {
		backend, _, store := newPlaylistEnv(t, testSession())
		seedPlaylists(backend)
		if err := store.FetchAll(ctx); err != nil {
			t.Fatal(err)
		}

		backend.PlaylistRows = backend.PlaylistRows[1:]

		if err := store.Delete(ctx, "p1"); err != nil {
			t.Fatalf("delete of a vanished playlist should not fail: %v", err)
		}
		for _, p := range store.Playlists() {
			if p.ID == "p1" {
				t.Error("mirror should drop the playlist regardless")
			}
		}
	})
}

func TestPlaylistStoreSongs(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves membership into song records", func(t *testing.T) {
		backend, _, store := newPlaylistEnv(t, testSession())
		seedPlaylists(backend)

		songs, err := store.GetSongs(ctx, "p1")
		if err != nil {
			t.Fatalf("get songs failed: %v", err)
		}
		if len(songs) != 1 || songs[0].ID != "s1" {
			t.Errorf("expected [s1], got %v", songs)
		}
	})

	t.Run("empty playlist yields an empty slice", func(t *testing.T) {
		backend, _, store := newPlaylistEnv(t, testSession())
		seedPlaylists(backend)

		songs, err := store.GetSongs(ctx, "p2")
		if err != nil {
			t.Fatalf("get songs failed: %v", err)
		}
		if songs == nil || len(songs) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", songs)
		}
	})

	t.Run("unknown playlist resolves like an empty one", func(t *testing.T) {
		backend, _, store := newPlaylistEnv(t, testSession())
		seedPlaylists(backend)

		songs, err := store.GetSongs(ctx, "gone")
		if err != nil {
			t.Fatalf("get songs failed: %v", err)
		}
		if len(songs) != 0 {
			t.Errorf("expected no songs, got %v", songs)
		}
	})
}

func TestPlaylistStoreAddSong(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts a membership row", func(t *testing.T) {
		backend, notifier, store := newPlaylistEnv(t, testSession())
		seedPlaylists(backend)

		if err := store.AddSong(ctx, "p1", "s2"); err != nil {
			t.Fatalf("add song failed: %v", err)
		}
		if len(backend.MembershipRows) != 2 {
			t.Errorf("expected 2 membership rows, got %d", len(backend.MembershipRows))
		}
		note := notifier.last()
		if note == nil || note.Message != "Song added to playlist" {
			t.Errorf("expected confirmation, got %v", note)
		}
	})

	t.Run("duplicate pair is non-fatal and leaves one row", func(t *testing.T) {
		backend, notifier, store := newPlaylistEnv(t, testSession())
		seedPlaylists(backend)

		if err := store.AddSong(ctx, "p1", "s1"); err != nil {
			t.Fatalf("duplicate add should not return an error: %v", err)
		}

		count := 0
		for _, m := range backend.MembershipRows {
			if m.PlaylistID == "p1" && m.SongID == "s1" {
				count++
			}
		}
		if count != 1 {
			t.Errorf("expected exactly one membership row, got %d", count)
		}

		note := notifier.last()
		if note == nil || note.Level != LevelInfo || note.Message != "This song is already in the playlist" {
			t.Errorf("expected already-in-playlist notice, got %v", note)
		}
	})

	t.Run("fails fast without a session", func(t *testing.T) {
		_, _, store := newPlaylistEnv(t, nil)
		if err := store.AddSong(ctx, "p1", "s1"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestPlaylistStoreRemoveSong(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the membership row", func(t *testing.T) {
		backend, notifier, store := newPlaylistEnv(t, testSession())
		seedPlaylists(backend)

		if err := store.RemoveSong(ctx, "p1", "s1"); err != nil {
			t.Fatalf("remove failed: %v", err)
		}
		if len(backend.MembershipRows) != 0 {
			t.Errorf("membership row should be gone, %d left", len(backend.MembershipRows))
		}
		note := notifier.last()
		if note == nil || note.Message != "Song removed from playlist" {
			t.Errorf("expected confirmation, got %v", note)
		}
	})

	t.Run("absent membership is a benign no-op", func(t *testing.T) {
		backend, notifier, store := newPlaylistEnv(t, testSession())
		seedPlaylists(backend)

		if err := store.RemoveSong(ctx, "p1", "s2"); err != nil {
			t.Fatalf("removing an absent song should not fail: %v", err)
		}
		if note := notifier.last(); note != nil {
			t.Errorf("no notification expected for a no-op removal, got %v", note)
		}
	})
}

func TestPlaylistStoreIdentityLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("sign-out clears the mirror", func(t *testing.T) {
		backend := tbtesting.NewMemoryStore()
		seedPlaylists(backend)
		identity := tbtesting.NewScriptedIdentity(testSession())
		provider := NewSessionProvider(identity, &recordingNotifier{}, quietLogger())
		defer provider.Close()
		provider.Resolve(ctx)

		store := NewPlaylistStore(provider, backend, &recordingNotifier{}, quietLogger())
		if err := store.FetchAll(ctx); err != nil {
			t.Fatal(err)
		}

		provider.SignOut(ctx)

		if len(store.Playlists()) != 0 {
			t.Error("sign-out should clear the mirror")
		}
	})

	t.Run("sign-in triggers a fetch", func(t *testing.T) {
		backend := tbtesting.NewMemoryStore()
		seedPlaylists(backend)
		identity := tbtesting.NewScriptedIdentity(nil)
		provider := NewSessionProvider(identity, &recordingNotifier{}, quietLogger())
		defer provider.Close()
		provider.Resolve(ctx)

		store := NewPlaylistStore(provider, backend, &recordingNotifier{}, quietLogger())
		identity.SetSession(testSession())

		if len(store.Playlists()) != 2 {
			t.Errorf("sign-in should populate the mirror, got %d", len(store.Playlists()))
		}
	})
}
