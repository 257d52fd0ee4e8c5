package scraper

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mangastore/pkg/models"
)

// CSVColumns is the header written by WriteCSV and understood by CSVFile.
var CSVColumns = []string{"key", "title", "artist", "author", "description", "genres", "status", "cover"}

// CSVFile reads a catalogue dump as a Source. Genres are separated by
// "|", or by "," in fields without any "|".
type CSVFile struct {
	Path     string
	SourceID int64
}

func (s *CSVFile) ID() int64 { return s.SourceID }

func (s *CSVFile) Name() string { return "csv:" + s.Path }

func (s *CSVFile) FetchAll(ctx context.Context) ([]models.MangaInfo, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(ctx, f)
}

// ReadCSV parses rows by header name; unknown columns are ignored.
func ReadCSV(ctx context.Context, in io.Reader) ([]models.MangaInfo, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if _, ok := header["key"]; !ok {
		return nil, errors.New("csv: missing key column")
	}

	var out []models.MangaInfo
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: line %d: %w", line, err)
		}
		if len(row) == 0 {
			continue
		}

		out = append(out, models.MangaInfo{
			Key:         valueAt(header, row, "key"),
			Title:       valueAt(header, row, "title"),
			Artist:      valueAt(header, row, "artist"),
			Author:      valueAt(header, row, "author"),
			Description: valueAt(header, row, "description"),
			Genres:      splitGenres(valueAt(header, row, "genres")),
			Status:      normalizeStatus(valueAt(header, row, "status")),
			Cover:       valueAt(header, row, "cover"),
		})
	}
	return out, nil
}

// WriteCSV writes items in the CSVColumns layout.
func WriteCSV(out io.Writer, items []models.Manga) error {
	w := csv.NewWriter(out)
	if err := w.Write(CSVColumns); err != nil {
		return err
	}
	for _, m := range items {
		if err := w.Write([]string{
			m.Key,
			m.Title,
			m.Artist,
			m.Author,
			m.Description,
			joinGenres(m.Genres),
			m.Status,
			m.Cover,
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("csv: header: %w", err)
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// joinGenres separates genres with "|". A lone genre containing a comma
// gets a trailing "|" so that splitGenres does not break it apart.
func joinGenres(genres []string) string {
	out := strings.Join(genres, "|")
	if len(genres) == 1 && strings.Contains(out, ",") {
		out += "|"
	}
	return out
}

// splitGenres splits on "|" when the field has one, otherwise on ",".
func splitGenres(raw string) []string {
	sep := ","
	if strings.Contains(raw, "|") {
		sep = "|"
	}
	out := []string{}
	for _, g := range strings.Split(raw, sep) {
		if g = strings.TrimSpace(g); g != "" {
			out = appendIfMissing(out, g)
		}
	}
	return out
}
