// Package stores implements the client-side synchronization layer: three
// cooperating state containers mirroring the remote catalog.
//
//   - [SessionProvider] : owns the signed-in identity; all mutations in the
//     other stores require a present, non-expired session
//   - [SongStore] : authoritative local mirror of the song catalog with a
//     derived filtered view
//   - [PlaylistStore] : playlists plus playlist-song membership, scoped to
//     the current identity
//
// Stores are explicit injectable objects. Consumers subscribe for change
// notification and read the mirrors through accessor methods; all writes go
// through the store's own operations. Remote failures leave the mirror in
// its last known good state and surface through a non-blocking [Notifier].
// Overlapping mutations on one entity are not serialized: the last remote
// response to resolve wins in the mirror.
package stores
