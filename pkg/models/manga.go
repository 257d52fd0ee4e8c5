package models

import "slices"

// Manga is a persisted series record.
//
// ID is assigned by the store on insert and never changes afterwards.
// (Key, SourceID) is the logical identity within a content source.
type Manga struct {
	ID          int64    `json:"id"`
	SourceID    int64    `json:"source_id"`
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	Artist      string   `json:"artist,omitempty"`
	Author      string   `json:"author,omitempty"`
	Description string   `json:"description,omitempty"`
	Genres      []string `json:"genres"`
	Status      string   `json:"status,omitempty"`
	Cover       string   `json:"cover,omitempty"`
	Favorite    bool     `json:"favorite"`
	LastUpdate  int64    `json:"last_update"` // unix ms
	LastInit    int64    `json:"last_init"`   // unix ms
	DateAdded   int64    `json:"date_added"`  // unix ms
	Viewer      int      `json:"viewer"`
	Flags       int      `json:"flags"`
}

// Equal reports whether two records hold the same values.
// A nil and an empty genre list compare equal.
func (m Manga) Equal(o Manga) bool {
	return m.ID == o.ID &&
		m.SourceID == o.SourceID &&
		m.Key == o.Key &&
		m.Title == o.Title &&
		m.Artist == o.Artist &&
		m.Author == o.Author &&
		m.Description == o.Description &&
		slices.Equal(m.Genres, o.Genres) &&
		m.Status == o.Status &&
		m.Cover == o.Cover &&
		m.Favorite == o.Favorite &&
		m.LastUpdate == o.LastUpdate &&
		m.LastInit == o.LastInit &&
		m.DateAdded == o.DateAdded &&
		m.Viewer == o.Viewer &&
		m.Flags == o.Flags
}

// WithDetails returns a copy of m with only the details group replaced by d's.
func (m Manga) WithDetails(d Manga) Manga {
	m.Title = d.Title
	m.Artist = d.Artist
	m.Author = d.Author
	m.Description = d.Description
	m.Genres = d.Genres
	m.Status = d.Status
	m.Cover = d.Cover
	m.LastInit = d.LastInit
	return m
}
