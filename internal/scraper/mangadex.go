package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mangastore/pkg/models"
)

const (
	mangadexBase    = "https://api.mangadex.org"
	mangadexUploads = "https://uploads.mangadex.org"
)

// MangaDexSourceID is the source id under which MangaDex entries are stored.
const MangaDexSourceID int64 = 1

// MangaDex fetches the manga list from MangaDex. Keys are MangaDex UUIDs.
type MangaDex struct {
	BaseURL     string
	UploadsBase string
	Client      *http.Client
	Limit       int // items per request
	Max         int // maximum items to fetch in total
}

func NewMangaDex() *MangaDex {
	return &MangaDex{
		BaseURL:     mangadexBase,
		UploadsBase: mangadexUploads,
		Client:      &http.Client{Timeout: 12 * time.Second},
		Limit:       50,
		Max:         200,
	}
}

func (s *MangaDex) ID() int64 { return MangaDexSourceID }
func (s *MangaDex) Name() string { return "mangadex" }

type mdResponse struct {
	Result string `json:"result"`
	Data   []struct {
		ID         string `json:"id"`
		Type       string `json:"type"`
		Attributes struct {
			Title       map[string]string `json:"title"`
			Description map[string]string `json:"description"`
			Status      string            `json:"status"`
			Tags        []struct {
				Attributes struct {
					Name map[string]string `json:"name"`
				} `json:"attributes"`
			} `json:"tags"`
		} `json:"attributes"`
		Relationships []struct {
			ID         string `json:"id"`
			Type       string `json:"type"`
			Attributes struct {
				Name     string `json:"name"`     // author, artist
				FileName string `json:"fileName"` // cover_art
			} `json:"attributes"`
		} `json:"relationships"`
	} `json:"data"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

func (s *MangaDex) FetchAll(ctx context.Context) ([]models.MangaInfo, error) {
	var all []models.MangaInfo

	offset := 0
	fetched := 0

	for fetched < s.Max {
		u, err := url.Parse(s.BaseURL + "/manga")
		if err != nil {
			return nil, fmt.Errorf("mangadex: parse base url: %w", err)
		}
		q := u.Query()
		q.Set("limit", fmt.Sprintf("%d", s.Limit))
		q.Set("offset", fmt.Sprintf("%d", offset))

		q.Add("contentRating[]", "safe")
		q.Add("contentRating[]", "suggestive")
		q.Add("includes[]", "author")
		q.Add("includes[]", "artist")
		q.Add("includes[]", "cover_art")

		u.RawQuery = q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("mangadex: build request: %w", err)
		}

		resp, err := s.Client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("mangadex: request: %w", err)
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("mangadex: status %d: %s", resp.StatusCode, string(body))
		}

		var md mdResponse
		if err := json.Unmarshal(body, &md); err != nil {
			return nil, fmt.Errorf("mangadex: decode: %w", err)
		}

		if len(md.Data) == 0 {
			break
		}

		for _, item := range md.Data {
			if item.ID == "" {
				continue
			}

			title := pickLang(item.Attributes.Title, "en")
			if title == "" {
				// fallback to any title
				for _, v := range item.Attributes.Title {
					title = v
					break
				}
			}
			if title == "" {
				continue
			}

			desc := pickLang(item.Attributes.Description, "en")

			genres := make([]string, 0, len(item.Attributes.Tags))
			for _, t := range item.Attributes.Tags {
				name := pickLang(t.Attributes.Name, "en")
				if name != "" {
					genres = append(genres, name)
				}
			}

			author, artist := "", ""
			coverFile := ""
			for _, rel := range item.Relationships {
				switch rel.Type {
				case "author":
					if author == "" && rel.Attributes.Name != "" {
						author = rel.Attributes.Name
					}
				case "artist":
					if artist == "" && rel.Attributes.Name != "" {
						artist = rel.Attributes.Name
					}
				case "cover_art":
					if coverFile == "" && rel.Attributes.FileName != "" {
						coverFile = rel.Attributes.FileName
					}
				}
			}
			cover := ""
			if coverFile != "" {
				cover = fmt.Sprintf("%s/covers/%s/%s", s.UploadsBase, item.ID, coverFile)
			}

			m := models.MangaInfo{
				Key:         item.ID,
				Title:       title,
				Artist:      artist,
				Author:      author,
				Description: desc,
				Genres:      genres,
				Status:      normalizeStatus(item.Attributes.Status),
				Cover:       cover,
			}
			all = append(all, m)
			fetched++
			if fetched >= s.Max {
				break
			}
		}

		offset += s.Limit
		if md.Total > 0 && offset >= md.Total {
			break
		}
	}

	return all, nil
}

func pickLang(m map[string]string, lang string) string {
	if m == nil {
		return ""
	}
	if v := strings.TrimSpace(m[lang]); v != "" {
		return v
	}
	return ""
}
