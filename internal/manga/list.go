package manga

import (
	"context"
	"fmt"
	"strings"

	"mangastore/pkg/models"
)

type ListQuery struct {
	Q        string // keyword search in title/author/artist
	SourceID int64  // 0 means any source
	Favorite *bool
	Limit    int
	Offset   int
}

func (s *Store) Count(ctx context.Context, q ListQuery) (int, error) {
	sqlStr, args := buildListSQL(q, true)
	var total int
	if err := s.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, storeErr("count", err)
	}
	return total, nil
}

func (s *Store) List(ctx context.Context, q ListQuery) ([]models.Manga, error) {
	sqlStr, args := buildListSQL(q, false)

	rows, err := s.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, storeErr("list", err)
	}
	defer rows.Close()

	out := make([]models.Manga, 0, normalizeLimit(q.Limit))
	for rows.Next() {
		m, err := scanManga(rows)
		if err != nil {
			return nil, storeErr("list", fmt.Errorf("scan: %w", err))
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list", fmt.Errorf("rows err: %w", err))
	}
	return out, nil
}

// buildListSQL builds either COUNT(*) or the paged SELECT.
func buildListSQL(q ListQuery, countOnly bool) (string, []any) {
	base := selectColumns
	if countOnly {
		base = `SELECT COUNT(*) FROM manga`
	}

	var where []string
	var args []any

	if kw := strings.TrimSpace(q.Q); kw != "" {
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR LOWER(artist) LIKE ?)")
		like := "%" + strings.ToLower(kw) + "%"
		args = append(args, like, like, like)
	}
	if q.SourceID != 0 {
		where = append(where, "source = ?")
		args = append(args, q.SourceID)
	}
	if q.Favorite != nil {
		where = append(where, "favorite = ?")
		args = append(args, boolToInt(*q.Favorite))
	}

	sqlStr := base
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}

	if !countOnly {
		sqlStr += " ORDER BY title ASC, id ASC LIMIT ? OFFSET ?"
		args = append(args, normalizeLimit(q.Limit), normalizeOffset(q.Offset))
	}
	return sqlStr, args
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
