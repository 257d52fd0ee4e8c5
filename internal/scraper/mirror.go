package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mangastore/pkg/models"
)

// MirrorSourceID is the source id under which mirror entries are stored.
const MirrorSourceID int64 = 2

// Mirror reads a JSON catalogue served by cmd/mirror-server (or any host
// with the same shape).
type Mirror struct {
	BaseURL string
	Client  *http.Client
}

func NewMirror(baseURL string) *Mirror {
	return &Mirror{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *Mirror) ID() int64 { return MirrorSourceID }

func (s *Mirror) Name() string { return "mirror" }

// MirrorTitle is one entry of GET {BaseURL}/titles:
//
//	[
//	  {
//	    "slug": "one-piece",
//	    "name": "One Piece",
//	    "creator": "Oda Eiichiro",
//	    "illustrator": "Oda Eiichiro",
//	    "tags": ["Action", "Adventure"],
//	    "state": "finished",
//	    "summary": "...",
//	    "image_url": "..."
//	  }
//	]
type MirrorTitle struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Creator     string   `json:"creator"`
	Illustrator string   `json:"illustrator"`
	Tags        []string `json:"tags"`
	State       string   `json:"state"`
	Summary     string   `json:"summary"`
	ImageURL    string   `json:"image_url"`
}

func (s *Mirror) FetchAll(ctx context.Context) ([]models.MangaInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/titles", nil)
	if err != nil {
		return nil, fmt.Errorf("mirror: build request: %w", err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mirror: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("mirror: status %d: %s", resp.StatusCode, string(body))
	}

	var raw []MirrorTitle
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("mirror: decode json: %w", err)
	}

	result := make([]models.MangaInfo, 0, len(raw))
	for _, r := range raw {
		if r.Name == "" {
			continue
		}
		key := r.Slug
		if key == "" {
			key = normalizeKey(r.Name)
		}

		genres := make([]string, 0, len(r.Tags))
		for _, t := range r.Tags {
			if t = strings.TrimSpace(t); t != "" {
				genres = appendIfMissing(genres, t)
			}
		}

		result = append(result, models.MangaInfo{
			Key:         key,
			Title:       r.Name,
			Artist:      r.Illustrator,
			Author:      r.Creator,
			Description: r.Summary,
			Genres:      genres,
			Status:      normalizeStatus(r.State),
			Cover:       r.ImageURL,
		})
	}
	return result, nil
}

// MirrorTitleFrom is the inverse mapping, used to publish a store dump in
// the mirror format.
func MirrorTitleFrom(m models.Manga) MirrorTitle {
	tags := m.Genres
	if tags == nil {
		tags = []string{}
	}
	return MirrorTitle{
		Slug:        m.Key,
		Name:        m.Title,
		Creator:     m.Author,
		Illustrator: m.Artist,
		Tags:        tags,
		State:       m.Status,
		Summary:     m.Description,
		ImageURL:    m.Cover,
	}
}
