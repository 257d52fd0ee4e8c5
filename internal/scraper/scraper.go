package scraper

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"mangastore/internal/manga"
	"mangastore/pkg/models"
)

// Source is implemented by each external content provider. It maps its
// own format into MangaInfo; keys are only unique within the source.
type Source interface {
	ID() int64
	Name() string
	FetchAll(ctx context.Context) ([]models.MangaInfo, error)
}

// Store is the subset of *manga.Store the refresher writes through.
type Store interface {
	GetByKey(ctx context.Context, key string, sourceID int64) (*models.Manga, error)
	InsertNew(ctx context.Context, info models.MangaInfo, sourceID int64) (models.Manga, error)
	UpdateDetails(ctx context.Context, m models.Manga) error
}

var _ Store = (*manga.Store)(nil)

// Result counts what one refresh run did.
type Result struct {
	Inserted int
	Updated  int
	Skipped  int
	Failed   []string // source names that could not be fetched
}

// Refresher pulls every source and reconciles the store with it: unknown
// keys are inserted, known ones get their details refreshed. Flags and
// favorite are never touched.
type Refresher struct {
	Store   Store
	Sources []Source
	Now     func() time.Time
}

func NewRefresher(store Store, sources ...Source) *Refresher {
	return &Refresher{Store: store, Sources: sources, Now: time.Now}
}

func (r *Refresher) Run(ctx context.Context) (Result, error) {
	var res Result

	for _, src := range r.Sources {
		log.Printf("[scraper] fetching from %s", src.Name())
		infos, err := src.FetchAll(ctx)
		if err != nil {
			log.Printf("[scraper] source %s error: %v", src.Name(), err)
			// keep going: one broken source should not stop the others
			res.Failed = append(res.Failed, src.Name())
			continue
		}

		for _, info := range infos {
			info.Key = strings.TrimSpace(info.Key)
			if info.Key == "" || strings.TrimSpace(info.Title) == "" {
				res.Skipped++
				continue
			}
			inserted, err := r.save(ctx, src.ID(), info)
			if err != nil {
				return res, fmt.Errorf("save %s/%s: %w", src.Name(), info.Key, err)
			}
			if inserted {
				res.Inserted++
			} else {
				res.Updated++
			}
		}
	}
	return res, nil
}

func (r *Refresher) save(ctx context.Context, sourceID int64, info models.MangaInfo) (bool, error) {
	existing, err := r.Store.GetByKey(ctx, info.Key, sourceID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		_, err := r.Store.InsertNew(ctx, info, sourceID)
		return err == nil, err
	}

	details := info.AsDetails()
	details.LastInit = r.Now().UnixMilli()
	return false, r.Store.UpdateDetails(ctx, existing.WithDetails(details))
}

// normalizeKey converts a string to a canonical form: lowercase,
// letters and digits kept, every other run of runes becomes one dash.
func normalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// normalizeStatus maps the labels sources use onto models.Status* values.
func normalizeStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ongoing", "publishing", "running":
		return models.StatusOngoing
	case "completed", "finished", "end":
		return models.StatusCompleted
	case "hiatus", "on hiatus":
		return models.StatusHiatus
	case "cancelled", "canceled", "discontinued":
		return models.StatusCancelled
	case "licensed":
		return models.StatusLicensed
	default:
		return models.StatusUnknown
	}
}

func appendIfMissing(slice []string, v string) []string {
	for _, x := range slice {
		if x == v {
			return slice
		}
	}
	return append(slice, v)
}
