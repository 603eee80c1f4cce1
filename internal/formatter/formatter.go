// package formatter renders a user's top artists as CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/grantshandy/starify/internal/models"
	"github.com/grantshandy/starify/internal/shared"
)

const (
	FormatCSV      = "csv"
	FormatMarkdown = "md"
	FormatText     = "text"
)

// ArtistExport is a profile with its top artists, in rank order.
type ArtistExport struct {
	Profile models.Profile
	Artists []models.Artist
}

// ExportToCSV converts an ArtistExport to CSV format with columns: Rank, ID, Name, Genres, Popularity, URI
func ExportToCSV(export *ArtistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Rank", "ID", "Name", "Genres", "Popularity", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, artist := range export.Artists {
		record := []string{
			strconv.Itoa(i + 1),
			artist.ID,
			artist.Name,
			strings.Join(artist.Genres, ";"),
			strconv.Itoa(artist.Popularity),
			artist.URI,
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

// ExportToMarkdown converts an ArtistExport to Markdown, using the first artist's image when it has one
func ExportToMarkdown(export *ArtistExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Top artists for %s\n\n", displayName(export.Profile))

	if len(export.Artists) > 0 && export.Artists[0].ImageURL != "" {
		fmt.Fprintf(&buf, "![%s](%s)\n\n", export.Artists[0].Name, export.Artists[0].ImageURL)
	}

	fmt.Fprintf(&buf, "**Artists**: %d\n\n", len(export.Artists))

	buf.WriteString("## Artists\n\n")
	for i, artist := range export.Artists {
		genres := ""
		if len(artist.Genres) > 0 {
			genres = fmt.Sprintf(" (%s)", strings.Join(artist.Genres, ", "))
		}
		fmt.Fprintf(&buf, "%d. %s%s [%d]\n", i+1, artist.Name, genres, artist.Popularity)
	}

	return buf.Bytes(), nil
}

// ExportToText converts an ArtistExport to plain text format
func ExportToText(export *ArtistExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "User: %s\n", displayName(export.Profile))
	fmt.Fprintf(&buf, "Artists: %d\n\n", len(export.Artists))

	for i, artist := range export.Artists {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, artist.Name)
	}

	return buf.Bytes(), nil
}

// Export renders export in the named format.
func Export(export *ArtistExport, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown, "markdown":
		return ExportToMarkdown(export)
	case FormatText, "txt", "":
		return ExportToText(export)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (csv, md, text)", shared.ErrInvalidArgument, format)
	}
}

// WriteExport renders export and writes it to path.
//
// Defaults to {user id}_artists.{ext} as the filename.
func WriteExport(export *ArtistExport, format, path string) (string, error) {
	data, err := Export(export, format)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = fmt.Sprintf("%s_artists.%s", export.Profile.ID, extension(format))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

func extension(format string) string {
	switch format {
	case FormatCSV:
		return "csv"
	case FormatMarkdown, "markdown":
		return "md"
	default:
		return "txt"
	}
}

func displayName(p models.Profile) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.ID
}
