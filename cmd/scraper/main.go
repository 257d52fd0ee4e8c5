package main

import (
	"context"
	"flag"
	"log"
	"time"

	"mangastore/internal/manga"
	"mangastore/internal/scraper"
	"mangastore/pkg/database"
	"mangastore/pkg/utils"
)

func main() {
	var (
		mirrorURL = flag.String("mirror", utils.LoadServerConfig().MirrorURL, "mirror catalogue base URL (empty to skip)")
		mangadex  = flag.Bool("mangadex", true, "fetch from MangaDex")
		maxItems  = flag.Int("max", 200, "maximum MangaDex entries")
		timeout   = flag.Duration("timeout", 2*time.Minute, "overall timeout")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	var sources []scraper.Source
	if *mangadex {
		md := scraper.NewMangaDex()
		md.Max = *maxItems
		sources = append(sources, md)
	}
	if *mirrorURL != "" {
		sources = append(sources, scraper.NewMirror(*mirrorURL))
	}

	refresher := scraper.NewRefresher(manga.NewStore(db, nil), sources...)
	res, err := refresher.Run(ctx)
	if err != nil {
		log.Fatalf("refresh failed: %v", err)
	}

	log.Printf("[scraper] inserted=%d updated=%d skipped=%d failed_sources=%v",
		res.Inserted, res.Updated, res.Skipped, res.Failed)
}
