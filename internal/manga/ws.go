package manga

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"mangastore/pkg/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WatchMessage is one frame of a watch stream.
type WatchMessage struct {
	Type  string        `json:"type"` // "manga", "absent" or "error"
	Manga *models.Manga `json:"manga,omitempty"`
	Error string        `json:"error,omitempty"`
}

func (h *Handler) watchByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	h.watch(c, func(ctx context.Context) *Subscription {
		return h.Store.SubscribeByID(ctx, id)
	})
}

func (h *Handler) watchByKey(c *gin.Context) {
	key, sourceID, ok := parseKey(c)
	if !ok {
		return
	}
	h.watch(c, func(ctx context.Context) *Subscription {
		return h.Store.SubscribeByKey(ctx, key, sourceID)
	})
}

// watch streams subscription updates over a websocket until either side
// goes away or the subscription reports a terminal error.
func (h *Handler) watch(c *gin.Context, open func(context.Context) *Subscription) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub := open(ctx)
	defer sub.Close()
	log.Printf("[ws] watch %s opened", sub.ID)

	// reader: only used to notice the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for u := range sub.Updates() {
		msg := toWatchMessage(u)
		_ = ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := ws.WriteJSON(msg); err != nil {
			break
		}
	}
	log.Printf("[ws] watch %s closed", sub.ID)
}

func toWatchMessage(u Update) WatchMessage {
	switch {
	case u.Err != nil:
		return WatchMessage{Type: "error", Error: u.Err.Error()}
	case u.Manga == nil:
		return WatchMessage{Type: "absent"}
	default:
		return WatchMessage{Type: "manga", Manga: u.Manga}
	}
}
