package stores

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunebox/internal/models"
	"github.com/desertthunder/tunebox/internal/services"
	"github.com/desertthunder/tunebox/internal/shared"
)

// SongStore owns the local mirror of the song catalog.
//
// The mirror is ordered by created_at descending and is only ever written by
// the store's own operations. A transient [models.Filter] derives the
// filtered view; the view is recomputed from (mirror, filter) on every read
// and never stored.
type SongStore struct {
	observable

	session  *SessionProvider
	backend  services.Store
	notifier Notifier
	logger   *log.Logger

	stateMu sync.Mutex
	mirror  []models.Song
	filter  models.Filter
	loading bool
}

// NewSongStore creates a song store bound to the session provider and remote
// backend. The store re-fetches when the identity appears and clears its
// mirror when it goes away.
func NewSongStore(session *SessionProvider, backend services.Store, notifier Notifier, logger *log.Logger) *SongStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}

	st := &SongStore{
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
			st.logger.Warn("initial song fetch failed", "error", err)
		}
	})

	return st
}

// FetchAll loads the full song mirror for the current identity, newest
// first. On failure the previous mirror is left intact.
func (st *SongStore) FetchAll(ctx context.Context) error {
	session, err := st.session.Require()
	if err != nil {
		return err
	}

	st.setLoading(true)
	defer st.setLoading(false)

	rows, err := st.backend.Songs().Select(ctx,
		map[string]any{"user_id": session.UserID},
		&services.Order{Column: "created_at", Descending: true},
	)
	if err != nil {
		st.notifier.Notify(Notification{Level: LevelError, Message: "Failed to load songs. Please try again later."})
		return fmt.Errorf("fetch songs: %w", err)
	}

	st.stateMu.Lock()
	st.mirror = rows
	st.stateMu.Unlock()
	st.publish()
	return nil
}

// Add validates the draft, creates the song remotely and prepends the
// authoritative record to the mirror. Nothing is inserted optimistically: a
// remote failure leaves the mirror unchanged.
func (st *SongStore) Add(ctx context.Context, draft models.SongDraft) (*models.Song, error) {
	session, err := st.session.Require()
	if err != nil {
		return nil, err
	}

	if err := draft.Validate(); err != nil {
		return nil, err
	}

	row := models.Song{
		Title:     draft.Title,
		Artist:    draft.Artist,
		Album:     draft.Album,
		Genre:     draft.Genre,
		Duration:  draft.Duration,
		Rating:    draft.Rating,
		AudioPath: draft.AudioPath,
		UserID:    session.UserID,
	}

	created, err := st.backend.Songs().Insert(ctx, row)
	if err != nil {
		st.notifier.Notify(Notification{Level: LevelError, Message: "Failed to add song. Please try again."})
		return nil, fmt.Errorf("add song: %w", err)
	}

	st.stateMu.Lock()
	st.mirror = append([]models.Song{*created}, st.mirror...)
	st.stateMu.Unlock()
	st.publish()

	st.notifier.Notify(Notification{Level: LevelSuccess, Message: "Song added successfully"})
	return created, nil
}

// Update issues a partial update. When the backend echoes the stored row the
// mirror reconciles from it; otherwise the patch is applied locally.
func (st *SongStore) Update(ctx context.Context, id string, patch models.SongPatch) error {
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

	updated, err := st.backend.Songs().Update(ctx, id, fields)
	if err != nil {
		st.notifier.Notify(Notification{Level: LevelError, Message: "Failed to update song. Please try again."})
		return fmt.Errorf("update song %s: %w", id, err)
	}

	st.stateMu.Lock()
	for i, song := range st.mirror {
		if song.ID != id {
			continue
		}
		if updated != nil {
			st.mirror[i] = *updated
		} else {
			st.mirror[i] = patch.Apply(song)
		}
		break
	}
	st.stateMu.Unlock()
	st.publish()

	st.notifier.Notify(Notification{Level: LevelSuccess, Message: "Song updated successfully"})
	return nil
}

// Delete removes the song remotely, then from the mirror. A delete the
// backend reports as affecting zero rows still converges locally but is
// logged as a data-integrity warning.
func (st *SongStore) Delete(ctx context.Context, id string) error {
	if _, err := st.session.Require(); err != nil {
		return err
	}

	affected, err := st.backend.Songs().Delete(ctx, map[string]any{"id": id})
	if err != nil {
		st.notifier.Notify(Notification{Level: LevelError, Message: "Failed to delete song. Please try again."})
		return fmt.Errorf("delete song %s: %w", id, err)
	}

	if affected == 0 {
		st.logger.Warn("song delete affected zero rows", "song_id", id)
	}

	st.stateMu.Lock()
	kept := st.mirror[:0]
	for _, song := range st.mirror {
		if song.ID != id {
			kept = append(kept, song)
		}
	}
	st.mirror = kept
	st.stateMu.Unlock()
	st.publish()

	st.notifier.Notify(Notification{Level: LevelSuccess, Message: "Song deleted successfully"})
	return nil
}

// SetFilter replaces the current filter predicate. No remote call is made.
func (st *SongStore) SetFilter(filter models.Filter) {
	st.stateMu.Lock()
	st.filter = filter
	st.stateMu.Unlock()
	st.publish()
}

// Filter returns the current filter predicate.
func (st *SongStore) Filter() models.Filter {
	st.stateMu.Lock()
	defer st.stateMu.Unlock()
	return st.filter
}

// Songs returns a copy of the full mirror.
func (st *SongStore) Songs() []models.Song {
	st.stateMu.Lock()
	defer st.stateMu.Unlock()
	out := make([]models.Song, len(st.mirror))
	copy(out, st.mirror)
	return out
}

// FilteredSongs derives the filtered view from the mirror and the current
// predicate. Pure function of (songs, filter); no intermediate state.
func (st *SongStore) FilteredSongs() []models.Song {
	st.stateMu.Lock()
	defer st.stateMu.Unlock()

	out := make([]models.Song, 0, len(st.mirror))
	for _, song := range st.mirror {
		if st.filter.Matches(song) {
			out = append(out, song)
		}
	}
	return out
}

// Loading reports whether a fetch is in flight.
func (st *SongStore) Loading() bool {
	st.stateMu.Lock()
	defer st.stateMu.Unlock()
	return st.loading
}

func (st *SongStore) setLoading(v bool) {
	st.stateMu.Lock()
	st.loading = v
	st.stateMu.Unlock()
	st.publish()
}

func (st *SongStore) clear() {
	st.stateMu.Lock()
	st.mirror = nil
	st.filter = models.Filter{}
	st.loading = false
	st.stateMu.Unlock()
	st.publish()
}
