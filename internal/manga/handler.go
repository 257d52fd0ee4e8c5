package manga

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"mangastore/pkg/models"
)

type Handler struct {
	Store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{Store: store}
}

// RegisterRoutes mounts the read-only routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)                    // GET /manga
	rg.GET("/lookup", h.getByKey)         // GET /manga/lookup?source=&key=
	rg.GET("/lookup/watch", h.watchByKey) // websocket
	rg.GET("/:id", h.getByID)             // GET /manga/:id
	rg.GET("/:id/watch", h.watchByID)     // websocket
}

// RegisterWriteRoutes mounts the mutating routes. The caller is expected
// to put an auth middleware in front of rg.
func (h *Handler) RegisterWriteRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.insert)
	rg.PUT("/:id/details", h.updateDetails)
	rg.PUT("/:id/flags", h.setFlags)
	rg.PUT("/:id/favorite", h.setFavorite)
	rg.DELETE("/non-favorites", h.deleteNonFavorite)
}

func (h *Handler) list(c *gin.Context) {
	q := ListQuery{
		Q:        c.Query("q"),
		SourceID: int64(parseInt(c.Query("source"), 0)),
		Limit:    parseInt(c.Query("limit"), 50),
		Offset:   parseInt(c.Query("offset"), 0),
	}
	if s := c.Query("favorite"); s != "" {
		fav, err := strconv.ParseBool(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "favorite must be a boolean"})
			return
		}
		q.Favorite = &fav
	}

	total, err := h.Store.Count(c.Request.Context(), q)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	items, err := h.Store.List(c.Request.Context(), q)
	if err != nil {
		writeStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  normalizeLimit(q.Limit),
		"offset": normalizeOffset(q.Offset),
		"items":  items,
	})
}

func (h *Handler) getByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	m, err := h.Store.GetByID(c.Request.Context(), id)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) getByKey(c *gin.Context) {
	key, sourceID, ok := parseKey(c)
	if !ok {
		return
	}
	m, err := h.Store.GetByKey(c.Request.Context(), key, sourceID)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, m)
}

type insertReq struct {
	SourceID int64            `json:"source_id"`
	Manga    models.MangaInfo `json:"manga"`
}

func (h *Handler) insert(c *gin.Context) {
	var req insertReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.Manga.Key = strings.TrimSpace(req.Manga.Key)
	if req.Manga.Key == "" || req.SourceID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source_id and manga.key required"})
		return
	}

	m, err := h.Store.InsertNew(c.Request.Context(), req.Manga, req.SourceID)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

type detailsReq struct {
	Title       string   `json:"title"`
	Artist      string   `json:"artist"`
	Author      string   `json:"author"`
	Description string   `json:"description"`
	Genres      []string `json:"genres"`
	Status      string   `json:"status"`
	Cover       string   `json:"cover"`
}

func (h *Handler) updateDetails(c *gin.Context) {
	existing, ok := h.load(c)
	if !ok {
		return
	}
	var req detailsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	details := models.MangaInfo{
		Title:       req.Title,
		Artist:      req.Artist,
		Author:      req.Author,
		Description: req.Description,
		Genres:      req.Genres,
		Status:      req.Status,
		Cover:       req.Cover,
	}.AsDetails()
	details.LastInit = time.Now().UnixMilli()
	updated := existing.WithDetails(details)
	if err := h.Store.UpdateDetails(c.Request.Context(), updated); err != nil {
		writeStoreError(c, err)
		return
	}
	h.respondFresh(c, existing.ID)
}

type flagsReq struct {
	Flags *int `json:"flags"`
}

func (h *Handler) setFlags(c *gin.Context) {
	existing, ok := h.load(c)
	if !ok {
		return
	}
	var req flagsReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Flags == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "flags required"})
		return
	}
	if err := h.Store.SetFlags(c.Request.Context(), *existing, *req.Flags); err != nil {
		writeStoreError(c, err)
		return
	}
	h.respondFresh(c, existing.ID)
}

type favoriteReq struct {
	Favorite *bool `json:"favorite"`
}

func (h *Handler) setFavorite(c *gin.Context) {
	existing, ok := h.load(c)
	if !ok {
		return
	}
	var req favoriteReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Favorite == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "favorite required"})
		return
	}
	if err := h.Store.SetFavorite(c.Request.Context(), *existing, *req.Favorite); err != nil {
		writeStoreError(c, err)
		return
	}
	h.respondFresh(c, existing.ID)
}

func (h *Handler) deleteNonFavorite(c *gin.Context) {
	n, err := h.Store.DeleteNonFavorite(c.Request.Context())
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}

// load resolves :id to an existing row or writes the error response.
func (h *Handler) load(c *gin.Context) (*models.Manga, bool) {
	id, ok := parseID(c)
	if !ok {
		return nil, false
	}
	m, err := h.Store.GetByID(c.Request.Context(), id)
	if err != nil {
		writeStoreError(c, err)
		return nil, false
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, false
	}
	return m, true
}

func (h *Handler) respondFresh(c *gin.Context, id int64) {
	m, err := h.Store.GetByID(c.Request.Context(), id)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, m)
}

func writeStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case IsConstraint(err):
		c.JSON(http.StatusConflict, gin.H{"error": "manga already exists"})
	default:
		log.Printf("[manga] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store failure"})
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func parseKey(c *gin.Context) (string, int64, bool) {
	key := strings.TrimSpace(c.Query("key"))
	sourceID, err := strconv.ParseInt(c.Query("source"), 10, 64)
	if key == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key and numeric source required"})
		return "", 0, false
	}
	return key, sourceID, true
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
