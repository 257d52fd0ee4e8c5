package models

// MangaInfo is the source-agnostic descriptor produced by a content source.
// It carries no store identity.
type MangaInfo struct {
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	Artist      string   `json:"artist,omitempty"`
	Author      string   `json:"author,omitempty"`
	Description string   `json:"description,omitempty"`
	Genres      []string `json:"genres"`
	Status      string   `json:"status,omitempty"`
	Cover       string   `json:"cover,omitempty"`
}

// Known status values. Sources normalize their own labels into these.
const (
	StatusUnknown   = "unknown"
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusHiatus    = "hiatus"
	StatusCancelled = "cancelled"
	StatusLicensed  = "licensed"
)

// ToManga maps the descriptor into a new, not yet persisted record.
func (i MangaInfo) ToManga(sourceID int64) Manga {
	genres := i.Genres
	if genres == nil {
		genres = []string{}
	}
	status := i.Status
	if status == "" {
		status = StatusUnknown
	}
	return Manga{
		SourceID:    sourceID,
		Key:         i.Key,
		Title:       i.Title,
		Artist:      i.Artist,
		Author:      i.Author,
		Description: i.Description,
		Genres:      genres,
		Status:      status,
		Cover:       i.Cover,
	}
}

// AsDetails returns the descriptor's fields as a details-only record.
func (i MangaInfo) AsDetails() Manga {
	return i.ToManga(0)
}
