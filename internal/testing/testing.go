// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/tunebox/internal/models"
	"github.com/desertthunder/tunebox/internal/services"
	"github.com/desertthunder/tunebox/internal/shared"
)

// MemoryStore is a test double for [services.Store] holding rows in memory.
//
// Operations can be failed selectively via Fail, keyed by
// "<collection>.<operation>" (e.g. "songs.insert", "memberships.delete").
type MemoryStore struct {
	mu sync.Mutex

	SongRows       []models.Song
	PlaylistRows   []models.Playlist
	MembershipRows []models.Membership

	errs map[string]error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{errs: make(map[string]error)}
}

// Fail makes the given operation return err until cleared with a nil err.
func (s *MemoryStore) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.errs, op)
		return
	}
	s.errs[op] = err
}

func (s *MemoryStore) failure(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs[op]
}

func (s *MemoryStore) Songs() services.Collection[models.Song] {
	return &memorySongs{store: s}
}

func (s *MemoryStore) Playlists() services.Collection[models.Playlist] {
	return &memoryPlaylists{store: s}
}

func (s *MemoryStore) Memberships() services.Collection[models.Membership] {
	return &memoryMemberships{store: s}
}

// matches reports whether a column value satisfies a filter condition:
// []string means containment, anything else equality.
func matches(value string, cond any) bool {
	switch c := cond.(type) {
	case []string:
		for _, item := range c {
			if item == value {
				return true
			}
		}
		return false
	default:
		return fmt.Sprint(c) == value
	}
}

type memorySongs struct {
	store *MemoryStore
}

func songColumn(s models.Song, column string) string {
	switch column {
	case "id":
		return s.ID
	case "user_id":
		return s.UserID
	case "artist":
		return s.Artist
	case "album":
		return s.Album
	case "genre":
		return s.Genre
	default:
		return ""
	}
}

func (c *memorySongs) Select(ctx context.Context, filter map[string]any, order *services.Order) ([]models.Song, error) {
	if err := c.store.failure("songs.select"); err != nil {
		return nil, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	var rows []models.Song
	for _, song := range c.store.SongRows {
		keep := true
		for column, cond := range filter {
			if !matches(songColumn(song, column), cond) {
				keep = false
				break
			}
		}
		if keep {
			rows = append(rows, song)
		}
	}

	if order != nil && order.Column == "created_at" {
		sort.SliceStable(rows, func(i, j int) bool {
			if order.Descending {
				return rows[i].CreatedAt.After(rows[j].CreatedAt)
			}
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		})
	}
	return rows, nil
}

func (c *memorySongs) Insert(ctx context.Context, song models.Song) (*models.Song, error) {
	if err := c.store.failure("songs.insert"); err != nil {
		return nil, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if song.ID == "" {
		song.ID = shared.GenerateID()
	}
	if song.CreatedAt.IsZero() {
		song.CreatedAt = time.Now().UTC()
	}
	c.store.SongRows = append(c.store.SongRows, song)
	return &song, nil
}

func (c *memorySongs) Update(ctx context.Context, id string, fields map[string]any) (*models.Song, error) {
	if err := c.store.failure("songs.update"); err != nil {
		return nil, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	for i, song := range c.store.SongRows {
		if song.ID != id {
			continue
		}
		for column, value := range fields {
			switch column {
			case "title":
				song.Title = fmt.Sprint(value)
			case "artist":
				song.Artist = fmt.Sprint(value)
			case "album":
				song.Album = fmt.Sprint(value)
			case "genre":
				song.Genre = fmt.Sprint(value)
			case "duration":
				song.Duration = fmt.Sprint(value)
			case "rating":
				if rating, ok := value.(int); ok {
					song.Rating = &rating
				}
			case "audio_path":
				song.AudioPath = fmt.Sprint(value)
			}
		}
		c.store.SongRows[i] = song
		return &song, nil
	}
	return nil, fmt.Errorf("%w: song %s", shared.ErrNotFound, id)
}

func (c *memorySongs) Delete(ctx context.Context, filter map[string]any) (int64, error) {
	if err := c.store.failure("songs.delete"); err != nil {
		return 0, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	var kept []models.Song
	var removed int64
	for _, song := range c.store.SongRows {
		keep := false
		for column, cond := range filter {
			if !matches(songColumn(song, column), cond) {
				keep = true
				break
			}
		}
		if keep {
			kept = append(kept, song)
		} else {
			removed++
		}
	}
	c.store.SongRows = kept
	return removed, nil
}

type memoryPlaylists struct {
	store *MemoryStore
}

func playlistColumn(p models.Playlist, column string) string {
	switch column {
	case "id":
		return p.ID
	case "user_id":
		return p.UserID
	default:
		return ""
	}
}

func (c *memoryPlaylists) Select(ctx context.Context, filter map[string]any, order *services.Order) ([]models.Playlist, error) {
	if err := c.store.failure("playlists.select"); err != nil {
		return nil, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	var rows []models.Playlist
	for _, playlist := range c.store.PlaylistRows {
		keep := true
		for column, cond := range filter {
			if !matches(playlistColumn(playlist, column), cond) {
				keep = false
				break
			}
		}
		if keep {
			rows = append(rows, playlist)
		}
	}

	if order != nil && order.Column == "created_at" {
		sort.SliceStable(rows, func(i, j int) bool {
			if order.Descending {
				return rows[i].CreatedAt.After(rows[j].CreatedAt)
			}
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		})
	}
	return rows, nil
}

func (c *memoryPlaylists) Insert(ctx context.Context, playlist models.Playlist) (*models.Playlist, error) {
	if err := c.store.failure("playlists.insert"); err != nil {
		return nil, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if playlist.ID == "" {
		playlist.ID = shared.GenerateID()
	}
	if playlist.CreatedAt.IsZero() {
		playlist.CreatedAt = time.Now().UTC()
	}
	c.store.PlaylistRows = append(c.store.PlaylistRows, playlist)
	return &playlist, nil
}

func (c *memoryPlaylists) Update(ctx context.Context, id string, fields map[string]any) (*models.Playlist, error) {
	if err := c.store.failure("playlists.update"); err != nil {
		return nil, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	for i, playlist := range c.store.PlaylistRows {
		if playlist.ID != id {
			continue
		}
		for column, value := range fields {
			switch column {
			case "name":
				playlist.Name = fmt.Sprint(value)
			case "description":
				playlist.Description = fmt.Sprint(value)
			}
		}
		c.store.PlaylistRows[i] = playlist
		return &playlist, nil
	}
	return nil, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id)
}

func (c *memoryPlaylists) Delete(ctx context.Context, filter map[string]any) (int64, error) {
	if err := c.store.failure("playlists.delete"); err != nil {
		return 0, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	var kept []models.Playlist
	var removed []string
	for _, playlist := range c.store.PlaylistRows {
		keep := false
		for column, cond := range filter {
			if !matches(playlistColumn(playlist, column), cond) {
				keep = true
				break
			}
		}
		if keep {
			kept = append(kept, playlist)
		} else {
			removed = append(removed, playlist.ID)
		}
	}
	c.store.PlaylistRows = kept

	// Cascade membership rows like the real backends do.
	var memberships []models.Membership
	for _, m := range c.store.MembershipRows {
		cascade := false
		for _, id := range removed {
			if m.PlaylistID == id {
				cascade = true
				break
			}
		}
		if !cascade {
			memberships = append(memberships, m)
		}
	}
	c.store.MembershipRows = memberships

	return int64(len(removed)), nil
}

type memoryMemberships struct {
	store *MemoryStore
}

func membershipColumn(m models.Membership, column string) string {
	switch column {
	case "playlist_id":
		return m.PlaylistID
	case "song_id":
		return m.SongID
	default:
		return ""
	}
}

func (c *memoryMemberships) Select(ctx context.Context, filter map[string]any, order *services.Order) ([]models.Membership, error) {
	if err := c.store.failure("memberships.select"); err != nil {
		return nil, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	var rows []models.Membership
	for _, m := range c.store.MembershipRows {
		keep := true
		for column, cond := range filter {
			if !matches(membershipColumn(m, column), cond) {
				keep = false
				break
			}
		}
		if keep {
			rows = append(rows, m)
		}
	}
	return rows, nil
}

func (c *memoryMemberships) Insert(ctx context.Context, m models.Membership) (*models.Membership, error) {
	if err := c.store.failure("memberships.insert"); err != nil {
		return nil, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	for _, existing := range c.store.MembershipRows {
		if existing.PlaylistID == m.PlaylistID && existing.SongID == m.SongID {
			return nil, fmt.Errorf("%w: membership (%s, %s)", shared.ErrDuplicate, m.PlaylistID, m.SongID)
		}
	}
	c.store.MembershipRows = append(c.store.MembershipRows, m)
	return &m, nil
}

func (c *memoryMemberships) Update(ctx context.Context, id string, fields map[string]any) (*models.Membership, error) {
	return nil, shared.ErrNotImplemented
}

func (c *memoryMemberships) Delete(ctx context.Context, filter map[string]any) (int64, error) {
	if err := c.store.failure("memberships.delete"); err != nil {
		return 0, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	var kept []models.Membership
	var removed int64
	for _, m := range c.store.MembershipRows {
		keep := false
		for column, cond := range filter {
			if !matches(membershipColumn(m, column), cond) {
				keep = true
				break
			}
		}
		if keep {
			kept = append(kept, m)
		} else {
			removed++
		}
	}
	c.store.MembershipRows = kept
	return removed, nil
}

// ScriptedIdentity is a test double for [services.IdentityProvider].
type ScriptedIdentity struct {
	mu         sync.Mutex
	Session    *models.Session
	CurrentErr error
	SignOutErr error
	callbacks  map[int]func(*models.Session)
	nextID     int
}

func NewScriptedIdentity(session *models.Session) *ScriptedIdentity {
	return &ScriptedIdentity{Session: session, callbacks: make(map[int]func(*models.Session))}
}

func (s *ScriptedIdentity) Current(ctx context.Context) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CurrentErr != nil {
		return nil, s.CurrentErr
	}
	return s.Session, nil
}

func (s *ScriptedIdentity) OnChange(fn func(*models.Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.callbacks[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.callbacks, id)
	}
}

// SetSession swaps the session and fires change callbacks, simulating a
// sign-in or sign-out observed from the identity backend.
func (s *ScriptedIdentity) SetSession(session *models.Session) {
	s.mu.Lock()
	s.Session = session
	callbacks := make([]func(*models.Session), 0, len(s.callbacks))
	for _, fn := range s.callbacks {
		callbacks = append(callbacks, fn)
	}
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(session)
	}
}

func (s *ScriptedIdentity) SignOut(ctx context.Context) error {
	err := s.SignOutErr
	s.SetSession(nil)
	return err
}

// MemoryBlob is a test double for [services.BlobStore] recording uploads.
type MemoryBlob struct {
	mu        sync.Mutex
	Uploads   map[string][]byte
	Types     map[string]string
	UploadErr error
	VerifyErr error
}

func NewMemoryBlob() *MemoryBlob {
	return &MemoryBlob{Uploads: make(map[string][]byte), Types: make(map[string]string)}
}

func (b *MemoryBlob) Upload(ctx context.Context, path, contentType string, body io.Reader) error {
	if b.UploadErr != nil {
		return b.UploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Uploads[path] = data
	b.Types[path] = contentType
	return nil
}

func (b *MemoryBlob) PublicURL(path string) string {
	return "https://blob.test/object/public/songs/" + path
}

func (b *MemoryBlob) Verify(ctx context.Context) error {
	return b.VerifyErr
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
	Requests []*http.Request
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.Requests = append(m.Requests, req)
	return m.response, m.err
}
