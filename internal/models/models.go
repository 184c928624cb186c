package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/desertthunder/tunebox/internal/shared"
)

// durationPattern matches "m:ss" or "mm:ss" style track lengths.
var durationPattern = regexp.MustCompile(`^\d+:\d{2}$`)

// Song represents one catalog track. ID and CreatedAt are backend-assigned
// and immutable once set.
type Song struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Album     string    `json:"album"`
	Genre     string    `json:"genre"`
	Duration  string    `json:"duration"`
	Rating    *int      `json:"rating,omitempty"`
	AudioPath string    `json:"audio_path,omitempty"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Playlist represents a named collection of songs scoped to one owning user.
type Playlist struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Membership is the junction row binding one playlist to one song.
// The pair is unique: a song appears at most once per playlist.
type Membership struct {
	PlaylistID string `json:"playlist_id"`
	SongID     string `json:"song_id"`
}

// Session carries the authenticated user bound to the running process.
type Session struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email,omitempty"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the session's access token has passed its expiry.
// A zero ExpiresAt means the token does not expire.
func (s *Session) Expired() bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// SongDraft holds user-provided fields for a new song. The backend assigns
// id and created_at on insert.
type SongDraft struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Album     string `json:"album"`
	Genre     string `json:"genre"`
	Duration  string `json:"duration"`
	Rating    *int   `json:"rating,omitempty"`
	AudioPath string `json:"audio_path,omitempty"`
}

// Validate checks required fields and formats before any remote call is made.
func (d SongDraft) Validate() error {
	for field, value := range map[string]string{
		"title":    d.Title,
		"artist":   d.Artist,
		"album":    d.Album,
		"genre":    d.Genre,
		"duration": d.Duration,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s is required", shared.ErrValidation, field)
		}
	}

	if !durationPattern.MatchString(d.Duration) {
		return fmt.Errorf("%w: duration %q must match m:ss", shared.ErrValidation, d.Duration)
	}

	return validateRating(d.Rating)
}

// SongPatch holds a partial update. Nil fields are left untouched.
type SongPatch struct {
	Title     *string `json:"title,omitempty"`
	Artist    *string `json:"artist,omitempty"`
	Album     *string `json:"album,omitempty"`
	Genre     *string `json:"genre,omitempty"`
	Duration  *string `json:"duration,omitempty"`
	Rating    *int    `json:"rating,omitempty"`
	AudioPath *string `json:"audio_path,omitempty"`
}

// Validate rejects patches that would violate song invariants.
func (p SongPatch) Validate() error {
	for field, value := range map[string]*string{
		"title":    p.Title,
		"artist":   p.Artist,
		"album":    p.Album,
		"genre":    p.Genre,
		"duration": p.Duration,
	} {
		if value != nil && strings.TrimSpace(*value) == "" {
			return fmt.Errorf("%w: %s cannot be empty", shared.ErrValidation, field)
		}
	}

	if p.Duration != nil && !durationPattern.MatchString(*p.Duration) {
		return fmt.Errorf("%w: duration %q must match m:ss", shared.ErrValidation, *p.Duration)
	}

	return validateRating(p.Rating)
}

// Fields returns the patch as column/value pairs for the remote update call.
func (p SongPatch) Fields() map[string]any {
	fields := make(map[string]any)
	if p.Title != nil {
		fields["title"] = *p.Title
	}
	if p.Artist != nil {
		fields["artist"] = *p.Artist
	}
	if p.Album != nil {
		fields["album"] = *p.Album
	}
	if p.Genre != nil {
		fields["genre"] = *p.Genre
	}
	if p.Duration != nil {
		fields["duration"] = *p.Duration
	}
	if p.Rating != nil {
		fields["rating"] = *p.Rating
	}
	if p.AudioPath != nil {
		fields["audio_path"] = *p.AudioPath
	}
	return fields
}

// Apply overlays the patch onto a song, leaving nil fields untouched.
func (p SongPatch) Apply(s Song) Song {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Artist != nil {
		s.Artist = *p.Artist
	}
	if p.Album != nil {
		s.Album = *p.Album
	}
	if p.Genre != nil {
		s.Genre = *p.Genre
	}
	if p.Duration != nil {
		s.Duration = *p.Duration
	}
	if p.Rating != nil {
		rating := *p.Rating
		s.Rating = &rating
	}
	if p.AudioPath != nil {
		s.AudioPath = *p.AudioPath
	}
	return s
}

// PlaylistPatch holds a partial playlist update.
type PlaylistPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Validate rejects patches that would blank out the playlist name.
func (p PlaylistPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", shared.ErrValidation)
	}
	return nil
}

// Fields returns the patch as column/value pairs for the remote update call.
func (p PlaylistPatch) Fields() map[string]any {
	fields := make(map[string]any)
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	return fields
}

// Apply overlays the patch onto a playlist.
func (p PlaylistPatch) Apply(pl Playlist) Playlist {
	if p.Name != nil {
		pl.Name = *p.Name
	}
	if p.Description != nil {
		pl.Description = *p.Description
	}
	return pl
}

// Filter is a transient conjunction of optional case-insensitive substring
// matches. Empty fields impose no constraint.
type Filter struct {
	Artist string
	Album  string
	Genre  string
}

// IsZero reports whether the filter imposes no constraints at all.
func (f Filter) IsZero() bool {
	return f.Artist == "" && f.Album == "" && f.Genre == ""
}

// Matches reports whether the song satisfies every present filter field.
func (f Filter) Matches(s Song) bool {
	if f.Artist != "" && !containsFold(s.Artist, f.Artist) {
		return false
	}
	if f.Album != "" && !containsFold(s.Album, f.Album) {
		return false
	}
	if f.Genre != "" && !containsFold(s.Genre, f.Genre) {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func validateRating(r *int) error {
	if r != nil && (*r < 0 || *r > 5) {
		return fmt.Errorf("%w: rating %d out of range 0-5", shared.ErrValidation, *r)
	}
	return nil
}
