// Package models defines domain entities for the personal song catalog.
//
// Entities mirror the rows of the remote relational backend:
//   - [Song] : one catalog track, optionally carrying an uploaded audio reference
//   - [Playlist] : a named collection of songs owned by exactly one user
//   - [Membership] : junction row binding a playlist to a song
//   - [Session] : the authenticated user context gating all mutations
//
// [Filter] is transient and never persisted: a conjunction of case-insensitive
// substring matches applied to the in-memory song mirror.
//
// Draft and patch types ([SongDraft], [SongPatch], [PlaylistPatch]) carry
// client-side validation that runs before any remote call.
package models
