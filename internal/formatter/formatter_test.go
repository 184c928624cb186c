package formatter

import (
	"strings"
	"testing"

	"github.com/desertthunder/tunebox/internal/models"
	th "github.com/desertthunder/tunebox/internal/testing"
)

func testExport() *PlaylistExport {
	rating := 4
	return &PlaylistExport{
		Playlist: models.Playlist{
			ID:          "test123",
			Name:        "Test Playlist",
			Description: "A test playlist",
			UserID:      "user-1",
		},
		Songs: []models.Song{
			{
				ID:       "song1",
				Title:    "Song One",
				Artist:   "Artist One",
				Album:    "Album One",
				Genre:    "Rock",
				Duration: "3:00",
				Rating:   &rating,
			},
			{
				ID:       "song2",
				Title:    "Song Two",
				Artist:   "Artist Two",
				Album:    "",
				Genre:    "Jazz",
				Duration: "4:00",
			},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "ID,Title,Artist,Album,Genre,Duration,Rating") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "song1,Song One,Artist One,Album One,Rock,3:00,4") {
			t.Errorf("CSV missing song1 record, got: %s", output)
		}
		if !strings.Contains(output, "song2,Song Two,Artist Two,,Jazz,4:00,") {
			t.Errorf("CSV missing song2 record with empty album and rating, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testExport())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "# Test Playlist") {
			t.Errorf("Markdown missing title")
		}
		if !strings.Contains(output, "**Description**: A test playlist") {
			t.Errorf("Markdown missing description")
		}
		if !strings.Contains(output, "**Songs**: 2") {
			t.Errorf("Markdown missing song count")
		}
		if !strings.Contains(output, "## Songs") {
			t.Errorf("Markdown missing songs section")
		}
		if !strings.Contains(output, "1. Artist One - Song One (Album One) [3:00] ★★★★") {
			t.Errorf("Markdown missing song1, got: %s", output)
		}
		if !strings.Contains(output, "2. Artist Two - Song Two [4:00]") {
			t.Errorf("Markdown missing song2 (no album, no rating)")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Playlist: Test Playlist") {
			t.Errorf("Text missing playlist name")
		}
		if !strings.Contains(output, "Description: A test playlist") {
			t.Errorf("Text missing description")
		}
		if !strings.Contains(output, "Songs: 2") {
			t.Errorf("Text missing song count")
		}
		if !strings.Contains(output, "1. Artist One - Song One") {
			t.Errorf("Text missing song1")
		}
		if !strings.Contains(output, "2. Artist Two - Song Two") {
			t.Errorf("Text missing song2")
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(testExport())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, `"test123"`) {
			t.Errorf("JSON missing playlist ID")
		}
		if !strings.Contains(output, `"Test Playlist"`) {
			t.Errorf("JSON missing playlist name")
		}
		if !strings.Contains(output, `"song1"`) {
			t.Errorf("JSON missing song1 ID")
		}
		if !strings.Contains(output, `"Song One"`) {
			t.Errorf("JSON missing song1 title")
		}
	})

	t.Run("ToMetadataJSON", func(t *testing.T) {
		data, err := ToMetadataJSON(testExport().Playlist)
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, `"test123"`) {
			t.Errorf("JSON missing ID field")
		}
		if !strings.Contains(output, `"Test Playlist"`) {
			t.Errorf("JSON missing Name field")
		}
		if strings.Contains(output, `"song1"`) {
			t.Errorf("metadata JSON should not include songs")
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteCSVExport(testExport(), "")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}

			if result.SongsFile != "test123_songs.csv" {
				t.Errorf("Expected songs file 'test123_songs.csv', got '%s'", result.SongsFile)
			}
			if result.MetadataFile != "test123_metadata.json" {
				t.Errorf("Expected metadata file 'test123_metadata.json', got '%s'", result.MetadataFile)
			}

			th.AssertFileExists(t, result.SongsFile)
			th.AssertFileExists(t, result.MetadataFile)

			csvContent := th.MustReadFile(t, result.SongsFile)
			if !strings.Contains(csvContent, "ID,Title,Artist,Album,Genre,Duration,Rating") {
				t.Errorf("CSV missing headers")
			}
			if !strings.Contains(csvContent, "song1") || !strings.Contains(csvContent, "Song One") {
				t.Errorf("CSV missing song data")
			}

			metadataContent := th.MustReadFile(t, result.MetadataFile)
			if !strings.Contains(metadataContent, "test123") || !strings.Contains(metadataContent, "Test Playlist") {
				t.Errorf("Metadata JSON missing expected fields")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteCSVExport(testExport(), "custom_export")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}

			if result.SongsFile != "custom_export_songs.csv" {
				t.Errorf("Expected 'custom_export_songs.csv', got '%s'", result.SongsFile)
			}
			if result.MetadataFile != "custom_export_metadata.json" {
				t.Errorf("Expected 'custom_export_metadata.json', got '%s'", result.MetadataFile)
			}
		})
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		t.Run("WithDefaultDirectory", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			mdFile, err := WriteMarkdownExport(testExport(), "")
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			if mdFile != "test123/README.md" {
				t.Errorf("Expected 'test123/README.md', got '%s'", mdFile)
			}
			th.AssertDirExists(t, "test123")
			th.AssertFileExists(t, mdFile)

			content := th.MustReadFile(t, mdFile)
			if !strings.Contains(content, "# Test Playlist") {
				t.Errorf("Markdown missing title")
			}
			if !strings.Contains(content, "1. Artist One - Song One (Album One)") {
				t.Errorf("Markdown missing song listing")
			}
		})

		t.Run("WithCustomDirectory", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			mdFile, err := WriteMarkdownExport(testExport(), "custom_playlist")
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			th.AssertDirExists(t, "custom_playlist")
			th.AssertFileExists(t, mdFile)
		})
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			filepath, err := WriteTextExport(testExport(), "")
			if err != nil {
				t.Fatalf("WriteTextExport failed: %v", err)
			}

			if filepath != "test123_songs.txt" {
				t.Errorf("Expected 'test123_songs.txt', got '%s'", filepath)
			}
			th.AssertFileExists(t, filepath)

			content := th.MustReadFile(t, filepath)
			if !strings.Contains(content, "Playlist: Test Playlist") {
				t.Errorf("Text missing playlist name")
			}
			if !strings.Contains(content, "1. Artist One - Song One") {
				t.Errorf("Text missing song listing")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			filepath, err := WriteTextExport(testExport(), "my_playlist.txt")
			if err != nil {
				t.Fatalf("WriteTextExport failed: %v", err)
			}

			if filepath != "my_playlist.txt" {
				t.Errorf("Expected 'my_playlist.txt', got '%s'", filepath)
			}
			th.AssertFileExists(t, filepath)
		})
	})

	t.Run("WriteJSONExport", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := th.MustGetwd(t)
		th.MustChdir(t, tempDir)
		defer th.MustChdir(t, originalDir)

		filepath, err := WriteJSONExport(testExport(), "")
		if err != nil {
			t.Fatalf("WriteJSONExport failed: %v", err)
		}

		if filepath != "test123.json" {
			t.Errorf("Expected 'test123.json', got '%s'", filepath)
		}
		th.AssertFileExists(t, filepath)

		content := th.MustReadFile(t, filepath)
		if !strings.Contains(content, `"test123"`) {
			t.Errorf("JSON missing playlist ID")
		}
		if !strings.Contains(content, `"song1"`) {
			t.Errorf("JSON missing song data")
		}
	})
}
