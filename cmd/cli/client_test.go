package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "token.json")

	require.Error(t, saveToken(path, ""))
	require.NoError(t, saveToken(path, "abc"))

	tok, err := readToken(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, clearToken(path))
	require.NoError(t, clearToken(path))
	_, err = readToken(path)
	assert.Error(t, err)
}

func TestWebsocketURL(t *testing.T) {
	got, err := websocketURL("https://store.example:8443", "/manga/lookup/watch?key=a+b&source=2")
	require.NoError(t, err)
	assert.Equal(t, "wss://store.example:8443/manga/lookup/watch?key=a+b&source=2", got)

	got, err = websocketURL("http://localhost:8080", "/manga/3/watch")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/manga/3/watch", got)
}

func TestMangaPath(t *testing.T) {
	assert.Equal(t, "/manga/9", mangaPath(9, "", 0, ""))
	assert.Equal(t, "/manga/lookup/watch?key=k&source=4", mangaPath(0, "k", 4, "/watch"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Action", "Drama"}, splitList(" Action, ,Drama "))
	assert.Equal(t, []string{}, splitList(""))
}

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer t0k" {
			http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
			return
		}
		var in map[string]int
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]int{"flags": in["flags"] * 2})
	}))
	defer srv.Close()

	var out map[string]int
	err := doJSON(context.Background(), srv.Client(), http.MethodPut, srv.URL, "t0k", map[string]int{"flags": 3}, &out)
	require.NoError(t, err)
	assert.Equal(t, 6, out["flags"])

	err = doJSON(context.Background(), srv.Client(), http.MethodPut, srv.URL, "", nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
