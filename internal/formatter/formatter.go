// package formatter provides functions to export catalog listings to various formats (CSV, JSON, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/cinefeed/internal/catalog"
	"github.com/desertthunder/cinefeed/internal/models"
	"github.com/desertthunder/cinefeed/internal/shared"
)

// Format is an export format name.
type Format string

const (
	Text     Format = "text"
	JSON     Format = "json"
	Markdown Format = "markdown"
	CSV      Format = "csv"
)

// ParseFormat resolves a format name; "md" and "txt" are accepted aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "txt":
		return Text, nil
	case "json":
		return JSON, nil
	case "markdown", "md":
		return Markdown, nil
	case "csv":
		return CSV, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, name)
}

// Listing is a catalog page set ready to export.
type Listing struct {
	Title     string
	Category  catalog.Category
	Movies    []models.Movie
	Genres    models.GenreTable
	ImageBase string
	Page      int
	Total     int
	HasMore   bool
}

// NewListing builds a listing from a feed snapshot.
func NewListing(title string, snap catalog.Snapshot, imageBase string) *Listing {
	return &Listing{
		Title:     title,
		Category:  snap.Filter,
		Movies:    snap.Movies,
		Genres:    snap.Genres,
		ImageBase: imageBase,
		Page:      snap.Page,
		Total:     snap.Total,
		HasMore:   snap.HasMore,
	}
}

func (l *Listing) genreNames(m models.Movie) []string {
	return l.Genres.Names(m.GenreIDs)
}

// MovieEntry is the JSON shape of an exported movie.
type MovieEntry struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Year        int      `json:"year,omitempty"`
	Overview    string   `json:"overview"`
	Genres      []string `json:"genres"`
	VoteAverage float64  `json:"vote_average"`
	Stars       int      `json:"stars"`
	PosterURL   string   `json:"poster_url,omitempty"`
}

// ListingEntry is the JSON shape of an exported listing.
type ListingEntry struct {
	Title    string       `json:"title"`
	Category string       `json:"category"`
	Page     int          `json:"page"`
	Total    int          `json:"total"`
	HasMore  bool         `json:"has_more"`
	Movies   []MovieEntry `json:"movies"`
}

// Export renders l in format.
func Export(l *Listing, format Format) ([]byte, error) {
	switch format {
	case JSON:
		return ExportToJSON(l)
	case Markdown:
		return ExportToMarkdown(l, nil)
	case CSV:
		return ExportToCSV(l)
	default:
		return ExportToText(l)
	}
}

// Write renders l in format to w.
func Write(w io.Writer, l *Listing, format Format) error {
	data, err := Export(l, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s export: %w", format, err)
	}
	return nil
}

// ExportToCSV converts a Listing to CSV format with columns: ID, Title, Year, Genres, Stars, Vote, Poster, Overview
func ExportToCSV(l *Listing) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Year", "Genres", "Stars", "Vote", "Poster", "Overview"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range l.Movies {
		year := ""
		if y := m.Year(); y > 0 {
			year = strconv.Itoa(y)
		}
		record := []string{
			strconv.Itoa(m.ID),
			m.Title,
			year,
			strings.Join(l.genreNames(m), "|"),
			strconv.Itoa(m.Stars()),
			strconv.FormatFloat(m.VoteAverage, 'f', 1, 64),
			m.PosterURL(l.ImageBase),
			m.Overview,
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

// ExportToJSON converts a Listing to indented JSON.
func ExportToJSON(l *Listing) ([]byte, error) {
	entry := ListingEntry{
		Title:    l.Title,
		Category: l.Category.String(),
		Page:     l.Page,
		Total:    l.Total,
		HasMore:  l.HasMore,
		Movies:   make([]MovieEntry, 0, len(l.Movies)),
	}
	for _, m := range l.Movies {
		entry.Movies = append(entry.Movies, MovieEntry{
			ID:          m.ID,
			Title:       m.Title,
			Year:        m.Year(),
			Overview:    m.Overview,
			Genres:      l.genreNames(m),
			VoteAverage: m.VoteAverage,
			Stars:       m.Stars(),
			PosterURL:   m.PosterURL(l.ImageBase),
		})
	}
	return shared.MarshalJSON(entry, true)
}

// ExportToMarkdown converts a Listing to Markdown format.
//
// posters maps movie ids to local image paths; movies without one link the remote poster.
func ExportToMarkdown(l *Listing, posters map[int]string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", l.Title))
	buf.WriteString(fmt.Sprintf("**Categoría**: %s\n", l.Category.Label()))
	buf.WriteString(fmt.Sprintf("**Películas**: %d\n\n", len(l.Movies)))

	for _, m := range l.Movies {
		title := m.Title
		if y := m.Year(); y > 0 {
			title = fmt.Sprintf("%s (%d)", title, y)
		}
		buf.WriteString(fmt.Sprintf("## %s\n\n", title))

		if poster, ok := posters[m.ID]; ok {
			buf.WriteString(fmt.Sprintf("![Póster](%s)\n\n", poster))
		} else if url := m.PosterURL(l.ImageBase); url != "" {
			buf.WriteString(fmt.Sprintf("![Póster](%s)\n\n", url))
		}

		buf.WriteString(fmt.Sprintf("%s %s\n\n", strings.Repeat("★", m.Stars())+strings.Repeat("☆", 5-m.Stars()), strings.Join(l.genreNames(m), ", ")))
		buf.WriteString(fmt.Sprintf("%s\n\n", m.Overview))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a Listing to plain text format
func ExportToText(l *Listing) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s\n", l.Title))
	buf.WriteString(fmt.Sprintf("Category: %s\n", l.Category.Label()))
	buf.WriteString(fmt.Sprintf("Movies: %d of %d (page %d)\n\n", len(l.Movies), l.Total, l.Page))

	for i, m := range l.Movies {
		buf.WriteString(fmt.Sprintf("%d. %s [%d/5] - %s\n", i+1, m.Title, m.Stars(), strings.Join(l.genreNames(m), ", ")))
		buf.WriteString(fmt.Sprintf("   %s\n", m.Overview))
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Posters   int
}

// WriteMarkdownExport exports a listing to Markdown format in a dedicated directory.
//
// posters maps movie ids to image paths relative to outputDir, as downloaded by the export task.
// Creates a directory structure: {dir}/README.md
func WriteMarkdownExport(l *Listing, outputDir string, posters map[int]string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "cartelera"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
		Posters:   len(posters),
	}

	mdData, err := ExportToMarkdown(l, posters)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteExport writes l in format to path.
func WriteExport(l *Listing, format Format, path string) error {
	data, err := Export(l, format)
	if err != nil {
		return fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return nil
}
