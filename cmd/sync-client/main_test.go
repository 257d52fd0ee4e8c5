package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mangastore/internal/feed"
)

func TestFilter(t *testing.T) {
	all := filter{}
	assert.True(t, all.match(feed.Event{Type: "manga.flags", MangaID: 3}))

	byType := filter{types: map[string]bool{"manga.insert": true}}
	assert.True(t, byType.match(feed.Event{Type: "manga.insert"}))
	assert.False(t, byType.match(feed.Event{Type: "manga.flags"}))

	byManga := filter{mangaID: 3}
	assert.True(t, byManga.match(feed.Event{Type: "manga.flags", MangaID: 3}))
	assert.False(t, byManga.match(feed.Event{Type: "manga.flags", MangaID: 4}))
	assert.True(t, byManga.match(feed.Event{Type: "manga.purge", Removed: 2}))
}
