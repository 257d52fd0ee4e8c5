package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"mangastore/internal/scraper"
)

func main() {
	var (
		addr     = flag.String("addr", ":9000", "listen address")
		dataPath = flag.String("data", "data/mirror.json", "catalogue served at GET /titles")
	)
	flag.Parse()

	r := gin.New()
	r.Use(gin.Recovery(), gin.Logger())
	r.GET("/titles", titlesHandler(*dataPath))

	log.Printf("mirror-server listening on %s", *addr)
	log.Fatal(r.Run(*addr))
}

// titlesHandler rereads path on every request so the file can be swapped
// without a restart.
func titlesHandler(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := os.ReadFile(path)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot read catalogue: " + err.Error()})
			return
		}
		var titles []scraper.MirrorTitle
		if err := json.Unmarshal(b, &titles); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "catalogue is not a title list: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, titles)
	}
}
