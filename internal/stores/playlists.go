package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunebox/internal/models"
	"github.com/desertthunder/tunebox/internal/services"
	"github.com/desertthunder/tunebox/internal/shared"
)

// PlaylistStore owns the playlist mirror and playlist-song membership.
//
// All reads are scoped to the current identity. Membership resolution
// (GetSongs) is read-through: every call re-fetches from the backend, so a
// playlist deleted elsewhere simply resolves to an empty list. Song data is
// never duplicated into this store.
type PlaylistStore struct {
	observable

	session  *SessionProvider
	backend  services.Store
	notifier Notifier
	logger   *log.Logger

	stateMu sync.Mutex
	mirror  []models.Playlist
	loading bool
}

// NewPlaylistStore creates a playlist store bound to the session provider
// and remote backend. Like the song store, it re-fetches on sign-in and
// clears on sign-out.
func NewPlaylistStore(session *SessionProvider, backend services.Store, notifier Notifier, logger *log.Logger) *PlaylistStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}

	st := &PlaylistStore{
		session:  session,
		backend:  backend,
		notifier: notifier,
		logger:   logger,
	}

	session.OnIdentity(func(s *models.Session) {
		if s == nil {
			st.clear()
			return
		}
		if err := st.FetchAll(context.Background()); err != nil {
			st.logger.Warn("initial playlist fetch failed", "error", err)
		}
	})

	return st
}

// FetchAll loads playlists owned by the current identity, newest first.
func (st *PlaylistStore) FetchAll(ctx context.Context) error {
	session, err := st.session.Require()
	if err != nil {
		return err
	}

	st.setLoading(true)
	defer st.setLoading(false)

	rows, err := st.backend.Playlists().Select(ctx,
		map[string]any{"user_id": session.UserID},
		&services.Order{Column: "created_at", Descending: true},
	)
	if err != nil {
		st.notifier.Notify(Notification{Level: LevelError, Message: "Failed to load playlists. Please try again later."})
		return fmt.Errorf("fetch playlists: %w", err)
	}

	st.stateMu.Lock()
	st.mirror = rows
	st.stateMu.Unlock()
	st.publish()
	return nil
}

// Create validates the name, creates the playlist remotely and prepends it
// to the mirror. Returns the new playlist's id so the caller can navigate
// straight to it.
func (st *PlaylistStore) Create(ctx context.Context, name, description string) (string, error) {
	session, err := st.session.Require()
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: name is required", shared.ErrValidation)
	}

	created, err := st.backend.Playlists().Insert(ctx, models.Playlist{
		Name:        name,
		Description: description,
		UserID:      session.UserID,
	})
	if err != nil {
		st.notifier.Notify(Notification{Level: LevelError, Message: "Failed to create playlist. Please try again."})
		return "", fmt.Errorf("create playlist: %w", err)
	}

	st.stateMu.Lock()
	st.mirror = append([]models.Playlist{*created}, st.mirror...)
	st.stateMu.Unlock()
	st.publish()

	st.notifier.Notify(Notification{Level: LevelSuccess, Message: "Playlist created successfully"})
	return created.ID, nil
}

// Update issues a partial update and reconciles the mirror from the
// backend's row when one is echoed back.
func (st *PlaylistStore) Update(ctx context.Context, id string, patch models.PlaylistPatch) error {
	if _, err := st.session.Require(); err != nil {
		return err
	}

	if err := patch.Validate(); err != nil {
		return err
	}

	fields := patch.Fields()
	if len(fields) == 0 {
		return fmt.Errorf("%w: empty patch", shared.ErrValidation)
	}

	updated, err := st.backend.Playlists().Update(ctx, id, fields)
	if err != nil {
		st.notifier.Notify(Notification{Level: LevelError, Message: "Failed to update playlist. Please try again."})
		return fmt.Errorf("update playlist %s: %w", id, err)
	}

	st.stateMu.Lock()
	for i, playlist := range st.mirror {
		if playlist.ID != id {
			continue
		}
		if updated != nil {
			st.mirror[i] = *updated
		} else {
			st.mirror[i] = patch.Apply(playlist)
		}
		break
	}
	st.stateMu.Unlock()
	st.publish()

	st.notifier.Notify(Notification{Level: LevelSuccess, Message: "Playlist updated successfully"})
	return nil
}

// Delete removes the playlist remotely, then from the mirror. Membership
// cleanup is the backend's cascade; zero affected rows is logged as a
// data-integrity warning but the mirror still converges.
func (st *PlaylistStore) Delete(ctx context.Context, id string) error {
	if _, err := st.session.Require(); err != nil {
		return err
	}

	affected, err := st.backend.Playlists().Delete(ctx, map[string]any{"id": id})
	if err != nil {
		st.notifier.Notify(Notification{Level: LevelError, Message: "Failed to delete playlist. Please try again."})
		return fmt.Errorf("delete playlist %s: %w", id, err)
	}

	if affected == 0 {
		st.logger.Warn("playlist delete affected zero rows", "playlist_id", id)
	}

	st.stateMu.Lock()
	kept := st.mirror[:0]
	for _, playlist := range st.mirror {
		if playlist.ID != id {
			kept = append(kept, playlist)
		}
	}
	st.mirror = kept
	st.stateMu.Unlock()
	st.publish()

	st.notifier.Notify(Notification{Level: LevelSuccess, Message: "Playlist deleted successfully"})
	return nil
}

// GetSongs resolves the playlist's membership rows into full song records.
// Read-through: every call re-fetches. An empty or deleted playlist yields
// an empty slice, never an error.
func (st *PlaylistStore) GetSongs(ctx context.Context, playlistID string) ([]models.Song, error) {
	if _, err := st.session.Require(); err != nil {
		return nil, err
	}

	memberships, err := st.backend.Memberships().Select(ctx,
		map[string]any{"playlist_id": playlistID}, nil)
	if err != nil {
		st.notifier.Notify(Notification{Level: LevelError, Message: "Failed to load playlist songs."})
		return nil, fmt.Errorf("fetch memberships for playlist %s: %w", playlistID, err)
	}

	if len(memberships) == 0 {
		return []models.Song{}, nil
	}

	ids := make([]string, len(memberships))
	for i, m := range memberships {
		ids[i] = m.SongID
	}

	songs, err := st.backend.Songs().Select(ctx, map[string]any{"id": ids}, nil)
	if err != nil {
		st.notifier.Notify(Notification{Level: LevelError, Message: "Failed to load playlist songs."})
		return nil, fmt.Errorf("fetch songs for playlist %s: %w", playlistID, err)
	}
	return songs, nil
}

// AddSong inserts a membership row. A duplicate pair is an expected,
// non-fatal outcome reported as "already in playlist".
func (st *PlaylistStore) AddSong(ctx context.Context, playlistID, songID string) error {
	if _, err := st.session.Require(); err != nil {
		return err
	}

	_, err := st.backend.Memberships().Insert(ctx, models.Membership{
		PlaylistID: playlistID,
		SongID:     songID,
	})
	if err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			st.notifier.Notify(Notification{Level: LevelInfo, Message: "This song is already in the playlist"})
			return nil
		}
		st.notifier.Notify(Notification{Level: LevelError, Message: "Failed to add song to playlist. Please try again."})
		return fmt.Errorf("add song %s to playlist %s: %w", songID, playlistID, err)
	}

	st.notifier.Notify(Notification{Level: LevelSuccess, Message: "Song added to playlist"})
	return nil
}

// RemoveSong deletes the membership row matching both keys. Zero affected
// rows means the song was already absent; that is a benign no-op.
func (st *PlaylistStore) RemoveSong(ctx context.Context, playlistID, songID string) error {
	if _, err := st.session.Require(); err != nil {
		return err
	}

	affected, err := st.backend.Memberships().Delete(ctx, map[string]any{
		"playlist_id": playlistID,
		"song_id":     songID,
	})
	if err != nil {
		st.notifier.Notify(Notification{Level: LevelError, Message: "Failed to remove song from playlist. Please try again."})
		return fmt.Errorf("remove song %s from playlist %s: %w", songID, playlistID, err)
	}

	if affected == 0 {
		st.logger.Debug("membership already absent", "playlist_id", playlistID, "song_id", songID)
		return nil
	}

	st.notifier.Notify(Notification{Level: LevelSuccess, Message: "Song removed from playlist"})
	return nil
}

// Playlists returns a copy of the mirror.
func (st *PlaylistStore) Playlists() []models.Playlist {
	st.stateMu.Lock()
	defer st.stateMu.Unlock()
	out := make([]models.Playlist, len(st.mirror))
	copy(out, st.mirror)
	return out
}

// Loading reports whether a fetch is in flight.
func (st *PlaylistStore) Loading() bool {
	st.stateMu.Lock()
	defer st.stateMu.Unlock()
	return st.loading
}

func (st *PlaylistStore) setLoading(v bool) {
	st.stateMu.Lock()
	st.loading = v
	st.stateMu.Unlock()
	st.publish()
}

func (st *PlaylistStore) clear() {
	st.stateMu.Lock()
	st.mirror = nil
	st.loading = false
	st.stateMu.Unlock()
	st.publish()
}
