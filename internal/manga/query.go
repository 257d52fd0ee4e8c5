package manga

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"mangastore/pkg/models"
)

const selectColumns = `
	SELECT id, source, key, title, artist, author, description, genres, status, cover,
	       favorite, last_update, last_init, date_added, viewer, flags
	FROM manga
`

// predicate is a single-row lookup: the WHERE clause used to query it and
// the test deciding whether a committed change may have altered its result.
type predicate struct {
	where   string
	args    []any
	affects func(Change) bool
}

func byID(id int64) predicate {
	return predicate{
		where: "id = ?",
		args:  []any{id},
		affects: func(c Change) bool {
			return c.Op == OpPurge || c.MangaID == id
		},
	}
}

func byKey(key string, sourceID int64) predicate {
	return predicate{
		where: "key = ? AND source = ?",
		args:  []any{key, sourceID},
		affects: func(c Change) bool {
			return c.Op == OpPurge || (c.Key == key && c.SourceID == sourceID)
		},
	}
}

func (p predicate) query() string {
	return selectColumns + " WHERE " + p.where + " LIMIT 1"
}

// statement is one parameterized write. Updates return the key and source
// of the row they matched so that the published change carries the stored
// identity, not whatever the caller's record held.
type statement struct {
	sql  string
	args []any
}

func insertStatement(m models.Manga) (statement, error) {
	genres, err := encodeGenres(m.Genres)
	if err != nil {
		return statement{}, err
	}
	return statement{
		sql: `
			INSERT INTO manga (source, key, title, artist, author, description, genres, status, cover,
			                   favorite, last_update, last_init, date_added, viewer, flags)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
		args: []any{
			m.SourceID, m.Key, m.Title, m.Artist, m.Author, m.Description, genres, m.Status, m.Cover,
			boolToInt(m.Favorite), m.LastUpdate, m.LastInit, m.DateAdded, m.Viewer, m.Flags,
		},
	}, nil
}

// detailsStatement writes the descriptive columns only. flags, favorite and
// the identity columns are never part of it.
func detailsStatement(m models.Manga) (statement, error) {
	genres, err := encodeGenres(m.Genres)
	if err != nil {
		return statement{}, err
	}
	return statement{
		sql: `
			UPDATE manga SET
			  title = ?,
			  artist = ?,
			  author = ?,
			  description = ?,
			  genres = ?,
			  status = ?,
			  cover = ?,
			  last_init = ?
			WHERE id = ?
			RETURNING key, source
		`,
		args: []any{m.Title, m.Artist, m.Author, m.Description, genres, m.Status, m.Cover, m.LastInit, m.ID},
	}, nil
}

func flagsStatement(id int64, flags int) statement {
	return statement{
		sql:  `UPDATE manga SET flags = ? WHERE id = ? RETURNING key, source`,
		args: []any{flags, id},
	}
}

func favoriteStatement(id int64, favorite bool) statement {
	return statement{
		sql:  `UPDATE manga SET favorite = ? WHERE id = ? RETURNING key, source`,
		args: []any{boolToInt(favorite), id},
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanManga(row rowScanner) (models.Manga, error) {
	var (
		m           models.Manga
		artist      sql.NullString
		author      sql.NullString
		description sql.NullString
		genresJSON  string
		status      sql.NullString
		cover       sql.NullString
		favorite    int
	)

	if err := row.Scan(
		&m.ID, &m.SourceID, &m.Key, &m.Title, &artist, &author, &description, &genresJSON, &status, &cover,
		&favorite, &m.LastUpdate, &m.LastInit, &m.DateAdded, &m.Viewer, &m.Flags,
	); err != nil {
		return models.Manga{}, err
	}

	m.Artist = artist.String
	m.Author = author.String
	m.Description = description.String
	m.Status = status.String
	m.Cover = cover.String
	m.Favorite = favorite != 0

	if err := json.Unmarshal([]byte(genresJSON), &m.Genres); err != nil {
		return models.Manga{}, fmt.Errorf("decode genres of manga %d: %w", m.ID, err)
	}
	if m.Genres == nil {
		m.Genres = []string{}
	}
	return m, nil
}

func encodeGenres(genres []string) (string, error) {
	if genres == nil {
		genres = []string{}
	}
	b, err := json.Marshal(genres)
	if err != nil {
		return "", fmt.Errorf("encode genres: %w", err)
	}
	return string(b), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
