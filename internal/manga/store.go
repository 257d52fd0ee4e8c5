package manga

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"mangastore/pkg/models"
)

// DB is the part of *sql.DB the store needs.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Store is the only access point for manga rows. Writes are serialized by
// SQLite; every committed write is published to the registry so that live
// subscriptions re-query.
type Store struct {
	DB        DB
	Observers *Registry
	now       func() time.Time
}

func NewStore(db DB, observers *Registry) *Store {
	if observers == nil {
		observers = NewRegistry()
	}
	return &Store{DB: db, Observers: observers, now: time.Now}
}

// GetByID returns (nil, nil) when the row does not exist.
func (s *Store) GetByID(ctx context.Context, id int64) (*models.Manga, error) {
	return s.get(ctx, byID(id))
}

// GetByKey returns (nil, nil) when the row does not exist.
func (s *Store) GetByKey(ctx context.Context, key string, sourceID int64) (*models.Manga, error) {
	return s.get(ctx, byKey(key, sourceID))
}

func (s *Store) get(ctx context.Context, p predicate) (*models.Manga, error) {
	m, err := scanManga(s.DB.QueryRowContext(ctx, p.query(), p.args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get", err)
	}
	return &m, nil
}

// SubscribeByID streams the latest value of the row with the given id.
func (s *Store) SubscribeByID(ctx context.Context, id int64) *Subscription {
	p := byID(id)
	return s.Observers.subscribe(ctx, p, func(ctx context.Context) (*models.Manga, error) {
		return s.get(ctx, p)
	})
}

// SubscribeByKey streams the latest value of the row identified by key
// within the given source.
func (s *Store) SubscribeByKey(ctx context.Context, key string, sourceID int64) *Subscription {
	p := byKey(key, sourceID)
	return s.Observers.subscribe(ctx, p, func(ctx context.Context) (*models.Manga, error) {
		return s.get(ctx, p)
	})
}

// InsertNew persists a freshly discovered manga and returns it with the
// store-assigned id.
func (s *Store) InsertNew(ctx context.Context, info models.MangaInfo, sourceID int64) (models.Manga, error) {
	m := info.ToManga(sourceID)
	m.DateAdded = s.now().UnixMilli()

	stmt, err := insertStatement(m)
	if err != nil {
		return models.Manga{}, storeErr("insert", err)
	}

	res, err := s.DB.ExecContext(ctx, stmt.sql, stmt.args...)
	if err != nil {
		return models.Manga{}, storeErr("insert", err)
	}

	id, err := res.LastInsertId()
	if err == nil && id <= 0 {
		err = errors.New("engine reported none")
	}
	if err != nil {
		// the row was written but we cannot address it
		return models.Manga{}, storeErr("insert", fmt.Errorf("%w: no generated id for %q (source %d): %v",
			ErrIntegrity, m.Key, sourceID, err))
	}
	m.ID = id

	s.Observers.Publish(Change{Op: OpInsert, MangaID: m.ID, Key: m.Key, SourceID: m.SourceID})
	return m, nil
}

// UpdateDetails writes the descriptive fields of m, matched by m.ID.
// Flags and favorite are left untouched.
func (s *Store) UpdateDetails(ctx context.Context, m models.Manga) error {
	stmt, err := detailsStatement(m)
	if err != nil {
		return storeErr("update details", err)
	}
	return s.exec(ctx, "update details", stmt, Change{Op: OpDetails, MangaID: m.ID})
}

// SetFlags writes only the flags column of m's row.
func (s *Store) SetFlags(ctx context.Context, m models.Manga, flags int) error {
	return s.exec(ctx, "set flags", flagsStatement(m.ID, flags), Change{Op: OpFlags, MangaID: m.ID})
}

// SetFavorite writes only the favorite column of m's row.
func (s *Store) SetFavorite(ctx context.Context, m models.Manga, favorite bool) error {
	return s.exec(ctx, "set favorite", favoriteStatement(m.ID, favorite), Change{Op: OpFavorite, MangaID: m.ID})
}

// exec runs an UPDATE ... RETURNING key, source and publishes c with the
// key and source of the row actually written.
func (s *Store) exec(ctx context.Context, op string, stmt statement, c Change) error {
	err := s.DB.QueryRowContext(ctx, stmt.sql, stmt.args...).Scan(&c.Key, &c.SourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return storeErr(op, fmt.Errorf("%w: id %d", ErrNotFound, c.MangaID))
	}
	if err != nil {
		return storeErr(op, err)
	}

	s.Observers.Publish(c)
	return nil
}

// DeleteNonFavorite removes every manga not marked as favorite. Either all
// of them are removed or, on error, none.
func (s *Store) DeleteNonFavorite(ctx context.Context) (int64, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, storeErr("delete non-favorite", fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM manga WHERE favorite = ?`, 0)
	if err != nil {
		return 0, storeErr("delete non-favorite", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("delete non-favorite", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, storeErr("delete non-favorite", fmt.Errorf("commit tx: %w", err))
	}

	log.Printf("[manga] removed %d non-favorite entries", n)
	s.Observers.Publish(Change{Op: OpPurge, Removed: n})
	return n, nil
}
