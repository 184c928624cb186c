// SQLite implementation of [Store] for local/self-hosted catalogs.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/desertthunder/tunebox/internal/models"
	"github.com/desertthunder/tunebox/internal/shared"
)

// SQLiteStore implements [Store] over a database/sql connection.
//
// The schema is provisioned by shared.RunMigrations. UNIQUE violations are
// mapped to shared.ErrDuplicate so the stores treat local and hosted
// backends identically.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open database connection.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Songs() Collection[models.Song] {
	return &songTable{db: s.db}
}

func (s *SQLiteStore) Playlists() Collection[models.Playlist] {
	return &playlistTable{db: s.db}
}

func (s *SQLiteStore) Memberships() Collection[models.Membership] {
	return &membershipTable{db: s.db}
}

// whereClause renders a filter map as a SQL WHERE fragment and its arguments.
func whereClause(filter map[string]any) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var conds []string
	var args []any
	for _, column := range keys {
		switch v := filter[column].(type) {
		case []string:
			placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(v)), ", ")
			conds = append(conds, fmt.Sprintf("%s IN (%s)", column, placeholders))
			for _, item := range v {
				args = append(args, item)
			}
		default:
			conds = append(conds, column+" = ?")
			args = append(args, v)
		}
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(order *Order) string {
	if order == nil {
		return ""
	}
	dir := "ASC"
	if order.Descending {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", order.Column, dir)
}

func mapConstraintError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint") {
		return fmt.Errorf("%w: %v", shared.ErrDuplicate, err)
	}
	return err
}

type songTable struct {
	db *sql.DB
}

const songColumns = "id, title, artist, album, genre, duration, rating, audio_path, user_id, created_at"

func (t *songTable) Select(ctx context.Context, filter map[string]any, order *Order) ([]models.Song, error) {
	where, args := whereClause(filter)
	query := "SELECT " + songColumns + " FROM songs" + where + orderClause(order)

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []models.Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, *song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return songs, nil
}

func (t *songTable) Insert(ctx context.Context, song models.Song) (*models.Song, error) {
	song.ID = shared.GenerateID()
	song.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO songs (id, title, artist, album, genre, duration, rating, audio_path, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := t.db.ExecContext(ctx, query,
		song.ID,
		song.Title,
		song.Artist,
		song.Album,
		song.Genre,
		song.Duration,
		nullableInt(song.Rating),
		nullableString(song.AudioPath),
		song.UserID,
		song.CreatedAt,
	)
	if err != nil {
		return nil, mapConstraintError(fmt.Errorf("failed to insert song: %w", err))
	}

	return &song, nil
}

func (t *songTable) Update(ctx context.Context, id string, fields map[string]any) (*models.Song, error) {
	if err := execUpdate(ctx, t.db, "songs", id, fields); err != nil {
		return nil, err
	}

	// Reconcile from the stored row rather than trusting the patch.
	row := t.db.QueryRowContext(ctx, "SELECT "+songColumns+" FROM songs WHERE id = ?", id)
	song, err := scanSong(row)
	if err != nil {
		return nil, err
	}
	return song, nil
}

func (t *songTable) Delete(ctx context.Context, filter map[string]any) (int64, error) {
	return execDelete(ctx, t.db, "songs", filter)
}

type playlistTable struct {
	db *sql.DB
}

const playlistColumns = "id, name, description, user_id, created_at"

func (t *playlistTable) Select(ctx context.Context, filter map[string]any, order *Order) ([]models.Playlist, error) {
	where, args := whereClause(filter)
	query := "SELECT " + playlistColumns + " FROM playlists" + where + orderClause(order)

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, *playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return playlists, nil
}

func (t *playlistTable) Insert(ctx context.Context, playlist models.Playlist) (*models.Playlist, error) {
	playlist.ID = shared.GenerateID()
	playlist.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO playlists (id, name, description, user_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := t.db.ExecContext(ctx, query,
		playlist.ID,
		playlist.Name,
		nullableString(playlist.Description),
		playlist.UserID,
		playlist.CreatedAt,
	)
	if err != nil {
		return nil, mapConstraintError(fmt.Errorf("failed to insert playlist: %w", err))
	}

	return &playlist, nil
}

func (t *playlistTable) Update(ctx context.Context, id string, fields map[string]any) (*models.Playlist, error) {
	if err := execUpdate(ctx, t.db, "playlists", id, fields); err != nil {
		return nil, err
	}

	row := t.db.QueryRowContext(ctx, "SELECT "+playlistColumns+" FROM playlists WHERE id = ?", id)
	playlist, err := scanPlaylist(row)
	if err != nil {
		return nil, err
	}
	return playlist, nil
}

func (t *playlistTable) Delete(ctx context.Context, filter map[string]any) (int64, error) {
	return execDelete(ctx, t.db, "playlists", filter)
}

type membershipTable struct {
	db *sql.DB
}

func (t *membershipTable) Select(ctx context.Context, filter map[string]any, order *Order) ([]models.Membership, error) {
	where, args := whereClause(filter)
	query := "SELECT playlist_id, song_id FROM playlist_songs" + where + orderClause(order)

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	var memberships []models.Membership
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.PlaylistID, &m.SongID); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return memberships, nil
}

func (t *membershipTable) Insert(ctx context.Context, m models.Membership) (*models.Membership, error) {
	query := "INSERT INTO playlist_songs (playlist_id, song_id) VALUES (?, ?)"

	_, err := t.db.ExecContext(ctx, query, m.PlaylistID, m.SongID)
	if err != nil {
		return nil, mapConstraintError(fmt.Errorf("failed to insert membership: %w", err))
	}
	return &m, nil
}

func (t *membershipTable) Update(ctx context.Context, id string, fields map[string]any) (*models.Membership, error) {
	// Membership rows are immutable: they are created and deleted, never patched.
	return nil, shared.ErrNotImplemented
}

func (t *membershipTable) Delete(ctx context.Context, filter map[string]any) (int64, error) {
	return execDelete(ctx, t.db, "playlist_songs", filter)
}

// execUpdate applies a field map as a SET clause against one row by id.
func execUpdate(ctx context.Context, db *sql.DB, table, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: empty patch", shared.ErrInvalidArgument)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sets []string
	var args []any
	for _, column := range keys {
		sets = append(sets, column+" = ?")
		args = append(args, fields[column])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(sets, ", "))

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapConstraintError(fmt.Errorf("failed to update %s: %w", table, err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s id %s", shared.ErrNotFound, table, id)
	}
	return nil
}

// execDelete removes rows matching the filter and reports how many went away.
func execDelete(ctx context.Context, db *sql.DB, table string, filter map[string]any) (int64, error) {
	where, args := whereClause(filter)
	if where == "" {
		return 0, fmt.Errorf("%w: refusing unfiltered delete on %s", shared.ErrInvalidArgument, table)
	}

	result, err := db.ExecContext(ctx, "DELETE FROM "+table+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", table, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSong(row scannable) (*models.Song, error) {
	var (
		song      models.Song
		rating    sql.NullInt64
		audioPath sql.NullString
	)

	err := row.Scan(&song.ID, &song.Title, &song.Artist, &song.Album, &song.Genre, &song.Duration, &rating, &audioPath, &song.UserID, &song.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: song", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}

	if rating.Valid {
		value := int(rating.Int64)
		song.Rating = &value
	}
	if audioPath.Valid {
		song.AudioPath = audioPath.String
	}
	return &song, nil
}

func scanPlaylist(row scannable) (*models.Playlist, error) {
	var (
		playlist    models.Playlist
		description sql.NullString
	)

	err := row.Scan(&playlist.ID, &playlist.Name, &description, &playlist.UserID, &playlist.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: playlist", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	if description.Valid {
		playlist.Description = description.String
	}
	return &playlist, nil
}

func nullableInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
