// Package services defines the capability contracts the state stores consume
// and their concrete backends.
//
// Contracts:
//   - [Store] : named collections of the remote relational backend
//     (songs, playlists, playlist_songs) with equality/containment filtering
//   - [IdentityProvider] : current session, change notification, sign out
//   - [BlobStore] : binary uploads with publicly resolvable references
//
// Implementations:
//   - [RESTStore] : PostgREST-style HTTP backend with bearer auth and
//     client-side rate limiting
//   - [SQLiteStore] : local database/sql backend sharing the same contract,
//     also used as the integration-test backend
//   - [TokenIdentityProvider] : file-persisted oauth2 token with refresh and
//     remote revoke
//   - [HTTPBlobStore] : bucket uploads over HTTP
package services
