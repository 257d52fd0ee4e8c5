package feed

import (
	"time"

	"mangastore/internal/manga"
)

// Event is the wire form of a committed store change, one JSON object per
// line on TCP and one text frame on websocket.
type Event struct {
	Type     string    `json:"type"` // "manga.insert", "manga.flags", ...
	MangaID  int64     `json:"manga_id,omitempty"`
	Key      string    `json:"key,omitempty"`
	SourceID int64     `json:"source_id,omitempty"`
	Removed  int64     `json:"removed,omitempty"`
	At       time.Time `json:"at"`
}

func EventFromChange(c manga.Change) Event {
	return Event{
		Type:     "manga." + string(c.Op),
		MangaID:  c.MangaID,
		Key:      c.Key,
		SourceID: c.SourceID,
		Removed:  c.Removed,
		At:       c.At,
	}
}
