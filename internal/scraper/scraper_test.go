package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangastore/internal/manga"
	"mangastore/pkg/database"
	"mangastore/pkg/models"
)

func newStore(t *testing.T) *manga.Store {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "scraper.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return manga.NewStore(db, nil)
}

type staticSource struct {
	id    int64
	name  string
	infos []models.MangaInfo
	err   error
}

func (s *staticSource) ID() int64 { return s.id }
func (s *staticSource) Name() string { return s.name }
func (s *staticSource) FetchAll(context.Context) ([]models.MangaInfo, error) {
	return s.infos, s.err
}

func TestRefresher_InsertThenRefresh(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	src := &staticSource{id: 9, name: "static", infos: []models.MangaInfo{
		{Key: "a", Title: "Alpha", Genres: []string{"Action"}},
		{Key: "b", Title: "Beta"},
		{Key: "", Title: "no key"},
		{Key: "c", Title: "  "},
	}}
	broken := &staticSource{id: 10, name: "broken", err: errors.New("offline")}

	r := NewRefresher(store, broken, src)
	r.Now = func() time.Time { return time.UnixMilli(5000) }

	res, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, []string{"broken"}, res.Failed)

	alpha, err := store.GetByKey(ctx, "a", 9)
	require.NoError(t, err)
	require.NotNil(t, alpha)
	require.NoError(t, store.SetFlags(ctx, *alpha, 3))
	require.NoError(t, store.SetFavorite(ctx, *alpha, true))

	src.infos = []models.MangaInfo{{Key: "a", Title: "Alpha (new)", Status: models.StatusCompleted}}
	res, err = r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 1, res.Updated)

	got, err := store.GetByID(ctx, alpha.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alpha (new)", got.Title)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, []string{}, got.Genres)
	assert.Equal(t, int64(5000), got.LastInit)
	assert.Equal(t, 3, got.Flags)
	assert.True(t, got.Favorite)
	assert.Equal(t, alpha.DateAdded, got.DateAdded)
}

func TestMirror_FetchAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/titles", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"slug":"one-piece","name":"One Piece","creator":"Oda","illustrator":"Oda",
			 "tags":["Action","Action"," Adventure "],"state":"publishing","summary":"Pirates","image_url":"http://x/op.jpg"},
			{"name":"Vagabond: Final Edition!","state":"hiatus"},
			{"slug":"nameless"}
		]`)
	}))
	defer srv.Close()

	m := NewMirror(srv.URL + "/")
	infos, err := m.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, models.MangaInfo{
		Key:         "one-piece",
		Title:       "One Piece",
		Artist:      "Oda",
		Author:      "Oda",
		Description: "Pirates",
		Genres:      []string{"Action", "Adventure"},
		Status:      models.StatusOngoing,
		Cover:       "http://x/op.jpg",
	}, infos[0])
	assert.Equal(t, "vagabond-final-edition", infos[1].Key)
	assert.Equal(t, models.StatusHiatus, infos[1].Status)
}

func TestMirror_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewMirror(srv.URL).FetchAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestMangaDex_FetchAllPaged(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/manga", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("offset") {
		case "0":
			fmt.Fprint(w, `{"result":"ok","total":2,"limit":1,"offset":0,"data":[{
				"id":"uuid-1","type":"manga",
				"attributes":{"title":{"en":"Frieren"},"description":{"en":"After the journey"},
				  "status":"ongoing","tags":[{"attributes":{"name":{"en":"Fantasy"}}}]},
				"relationships":[
				  {"id":"p1","type":"author","attributes":{"name":"Yamada"}},
				  {"id":"p2","type":"artist","attributes":{"name":"Abe"}},
				  {"id":"c1","type":"cover_art","attributes":{"fileName":"cover.png"}}]}]}`)
		default:
			fmt.Fprint(w, `{"result":"ok","total":2,"limit":1,"offset":1,"data":[{
				"id":"uuid-2","type":"manga",
				"attributes":{"title":{"ja":"ベルセルク"},"status":"canceled"},"relationships":[]}]}`)
		}
	}))
	defer srv.Close()

	md := NewMangaDex()
	md.BaseURL = srv.URL
	md.UploadsBase = "https://uploads.test"
	md.Limit = 1

	infos, err := md.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, 2, calls)

	assert.Equal(t, models.MangaInfo{
		Key:         "uuid-1",
		Title:       "Frieren",
		Artist:      "Abe",
		Author:      "Yamada",
		Description: "After the journey",
		Genres:      []string{"Fantasy"},
		Status:      models.StatusOngoing,
		Cover:       "https://uploads.test/covers/uuid-1/cover.png",
	}, infos[0])
	assert.Equal(t, "ベルセルク", infos[1].Title)
	assert.Equal(t, models.StatusCancelled, infos[1].Status)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "one-piece", normalizeKey("  One Piece "))
	assert.Equal(t, "a-b", normalizeKey("A -- B!!"))
	assert.Equal(t, "", normalizeKey("!!!"))

	assert.Equal(t, models.StatusCompleted, normalizeStatus("Finished"))
	assert.Equal(t, models.StatusUnknown, normalizeStatus("who knows"))
}
