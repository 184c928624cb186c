package services

import (
	"context"
	"io"

	"github.com/desertthunder/tunebox/internal/models"
)

// Order describes the sort applied to a Select.
type Order struct {
	Column     string
	Descending bool
}

// Collection is one named collection of the relational backend.
//
// Filters map column names to values: a scalar matches by equality, a
// []string matches by containment (IN). Insert returns the authoritative row
// as stored by the backend (server-assigned id and created_at). Update
// returns the reconciled row when the backend echoes one and nil otherwise;
// Delete returns the number of affected rows.
type Collection[T any] interface {
	Select(ctx context.Context, filter map[string]any, order *Order) ([]T, error)
	Insert(ctx context.Context, row T) (*T, error)
	Update(ctx context.Context, id string, fields map[string]any) (*T, error)
	Delete(ctx context.Context, filter map[string]any) (int64, error)
}

// Store exposes the three collections the catalog mirrors.
type Store interface {
	Songs() Collection[models.Song]
	Playlists() Collection[models.Playlist]
	Memberships() Collection[models.Membership]
}

// IdentityProvider resolves and revokes the authenticated session.
type IdentityProvider interface {
	// Current returns the active session, or nil when signed out.
	Current(ctx context.Context) (*models.Session, error)

	// OnChange registers a callback fired whenever the session transitions.
	// The returned function cancels the registration.
	OnChange(fn func(*models.Session)) func()

	// SignOut revokes the session remotely and clears local credentials.
	// Local state is cleared even when the remote revoke fails.
	SignOut(ctx context.Context) error
}

// BlobStore uploads binary assets and resolves public references to them.
type BlobStore interface {
	Upload(ctx context.Context, path, contentType string, body io.Reader) error
	PublicURL(path string) string

	// Verify checks that the backing bucket is reachable before first use.
	Verify(ctx context.Context) error
}
