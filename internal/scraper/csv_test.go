package scraper

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangastore/pkg/models"
)

func TestReadCSV(t *testing.T) {
	in := strings.NewReader("Key,Title,Author,Genres,Status,extra\n" +
		"berserk,Berserk,Miura,Action|Dark Fantasy|Action,finished,x\n" +
		"vagabond,Vagabond,Inoue,\"Seinen, Historical\",on hiatus\n")

	infos, err := ReadCSV(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, "berserk", infos[0].Key)
	assert.Equal(t, []string{"Action", "Dark Fantasy"}, infos[0].Genres)
	assert.Equal(t, models.StatusCompleted, infos[0].Status)
	assert.Equal(t, "", infos[0].Artist)

	assert.Equal(t, []string{"Seinen", "Historical"}, infos[1].Genres)
	assert.Equal(t, models.StatusHiatus, infos[1].Status)
	assert.Equal(t, "", infos[1].Cover)
}

func TestReadCSV_RequiresKeyColumn(t *testing.T) {
	_, err := ReadCSV(context.Background(), strings.NewReader("title\nX\n"))
	assert.Error(t, err)

	_, err = ReadCSV(context.Background(), strings.NewReader(""))
	assert.Error(t, err)
}

func TestCSVFile_ImportExportRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []models.Manga{
		{Key: "a", Title: "Alpha", Author: "Someone", Genres: []string{"Drama", "Romance"}, Status: models.StatusOngoing},
		{Key: "b", Title: "Beta", Genres: []string{}},
		{Key: "", Title: "No key"},
	}))

	path := filepath.Join(t.TempDir(), "dump.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	src := &CSVFile{Path: path, SourceID: 9}
	assert.Equal(t, int64(9), src.ID())

	res, err := NewRefresher(store, src).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Skipped)

	got, err := store.GetByKey(ctx, "a", 9)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alpha", got.Title)
	assert.Equal(t, []string{"Drama", "Romance"}, got.Genres)
	assert.Equal(t, models.StatusOngoing, got.Status)

	// importing the same dump again refreshes instead of duplicating
	res, err = NewRefresher(store, src).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 2, res.Updated)
}

func TestMirrorTitleFrom(t *testing.T) {
	mt := MirrorTitleFrom(models.Manga{Key: "k", Title: "T", Artist: "A", Author: "B", Status: models.StatusLicensed})
	assert.Equal(t, "k", mt.Slug)
	assert.Equal(t, "B", mt.Creator)
	assert.Equal(t, "A", mt.Illustrator)
	assert.Equal(t, []string{}, mt.Tags)
	assert.Equal(t, models.StatusLicensed, normalizeStatus(mt.State))
}

func TestCSV_GenresWithCommasRoundTrip(t *testing.T) {
	items := []models.Manga{
		{Key: "a", Title: "A", Genres: []string{"Boys, Love", "Drama"}},
		{Key: "b", Title: "B", Genres: []string{"Girls, Love"}},
		{Key: "c", Title: "C", Genres: []string{}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, items))

	infos, err := ReadCSV(context.Background(), &buf)
	require.NoError(t, err)
	require.Len(t, infos, 3)
	for i, info := range infos {
		assert.Equal(t, items[i].Genres, info.Genres, info.Key)
	}
}

func TestSplitGenres(t *testing.T) {
	assert.Equal(t, []string{"Action", "Comedy"}, splitGenres("Action, Comedy"))
	assert.Equal(t, []string{"Action, Comedy"}, splitGenres("Action, Comedy|"))
	assert.Equal(t, []string{"A", "B"}, splitGenres("A|B|A"))
	assert.Equal(t, []string{}, splitGenres(" "))
}
