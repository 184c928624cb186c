// package formatter exports playlist data to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/desertthunder/tunebox/internal/models"
)

// PlaylistExport pairs a playlist with its resolved songs for export.
type PlaylistExport struct {
	Playlist models.Playlist `json:"playlist"`
	Songs    []models.Song   `json:"songs"`
}

// ExportToCSV converts a PlaylistExport to CSV format with columns: ID, Title, Artist, Album, Genre, Duration, Rating
func ExportToCSV(export *PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Genre", "Duration", "Rating"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range export.Songs {
		record := []string{
			song.ID,
			song.Title,
			song.Artist,
			song.Album,
			song.Genre,
			song.Duration,
			ratingString(song.Rating),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a PlaylistExport to Markdown format
func ExportToMarkdown(export *PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Playlist.Name))

	if export.Playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", export.Playlist.Description))
	}

	buf.WriteString(fmt.Sprintf("**Songs**: %d\n\n", len(export.Songs)))

	buf.WriteString("## Songs\n\n")
	for i, song := range export.Songs {
		albumPart := ""
		if song.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", song.Album)
		}
		ratingPart := ""
		if song.Rating != nil {
			ratingPart = fmt.Sprintf(" %s", ratingStars(*song.Rating))
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]%s\n", i+1, song.Artist, song.Title, albumPart, song.Duration, ratingPart))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a PlaylistExport to plain text format
func ExportToText(export *PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", export.Playlist.Name))
	if export.Playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", export.Playlist.Description))
	}
	buf.WriteString(fmt.Sprintf("Songs: %d\n\n", len(export.Songs)))

	for i, song := range export.Songs {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, song.Artist, song.Title))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a PlaylistExport to indented JSON
func ExportToJSON(export *PlaylistExport) ([]byte, error) {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return data, nil
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without songs)
func ToMetadataJSON(playlist models.Playlist) ([]byte, error) {
	data, err := json.MarshalIndent(playlist, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode playlist metadata: %w", err)
	}
	return data, nil
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	SongsFile    string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV format with accompanying metadata JSON file.
//
// Defaults to playlist ID as the base filename & creates {base}_songs.csv and {base}_metadata.json
func WriteCSVExport(export *PlaylistExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.Playlist.ID
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	songsFile := baseFilepath + "_songs.csv"
	if err := os.WriteFile(songsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export.Playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		SongsFile:    songsFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteMarkdownExport exports a playlist to Markdown format in a dedicated directory.
//
// Directory name defaults to the playlist ID. Creates {dir}/README.md.
func WriteMarkdownExport(export *PlaylistExport, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = export.Playlist.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := fmt.Sprintf("%s/README.md", outputDir)
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return mdFile, nil
}

// WriteTextExport exports a playlist to plain text format.
//
// Defaults to {playlist.ID}_songs.txt as the filename.
func WriteTextExport(export *PlaylistExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_songs.txt", export.Playlist.ID)
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}

// WriteJSONExport exports a playlist with songs to a single JSON file.
//
// Defaults to {playlist.ID}.json as the filename.
func WriteJSONExport(export *PlaylistExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s.json", export.Playlist.ID)
	}

	jsonData, err := ExportToJSON(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate JSON: %w", err)
	}

	if err := os.WriteFile(filepath, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}

	return filepath, nil
}

func ratingString(rating *int) string {
	if rating == nil {
		return ""
	}
	return strconv.Itoa(*rating)
}

func ratingStars(rating int) string {
	stars := ""
	for i := 0; i < rating; i++ {
		stars += "★"
	}
	return stars
}
