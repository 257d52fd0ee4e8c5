package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangastore/internal/scraper"
)

func TestTitlesHandler_FeedsMirrorSource(t *testing.T) {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "mirror.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"One Piece","creator":"Oda","tags":["Action"],"state":"ongoing"}]`), 0o644))

	r := gin.New()
	r.GET("/titles", titlesHandler(path))
	srv := httptest.NewServer(r)
	defer srv.Close()

	infos, err := scraper.NewMirror(srv.URL).FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "one-piece", infos[0].Key)
	assert.Equal(t, "Oda", infos[0].Author)
}

func TestTitlesHandler_BadFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"not":"a list"}`), 0o644))

	r := gin.New()
	r.GET("/missing", titlesHandler(filepath.Join(dir, "nope.json")))
	r.GET("/bad", titlesHandler(bad))

	for _, p := range []string{"/missing", "/bad"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code, p)
	}
}
