package manga

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"mangastore/pkg/models"
)

// Op names the field group a committed write touched.
type Op string

const (
	OpInsert   Op = "insert"
	OpDetails  Op = "details"
	OpFlags    Op = "flags"
	OpFavorite Op = "favorite"
	OpPurge    Op = "purge"
)

// Change describes one committed write. MangaID, Key and SourceID are zero
// for OpPurge, which may affect any row.
type Change struct {
	Op       Op        `json:"op"`
	MangaID  int64     `json:"manga_id,omitempty"`
	Key      string    `json:"key,omitempty"`
	SourceID int64     `json:"source_id,omitempty"`
	Removed  int64     `json:"removed,omitempty"`
	At       time.Time `json:"at"`
}

type observer struct {
	affects func(Change) bool
	signal  chan struct{} // capacity 1
}

// Registry tracks live observers and fans committed changes out to them.
// Publish never blocks: an observer that already has a pending signal
// will re-query anyway, so extra signals are dropped.
type Registry struct {
	mu        sync.RWMutex
	observers map[uuid.UUID]*observer
	listeners map[uuid.UUID]chan Change
}

func NewRegistry() *Registry {
	return &Registry{
		observers: make(map[uuid.UUID]*observer),
		listeners: make(map[uuid.UUID]chan Change),
	}
}

func (r *Registry) register(affects func(Change) bool) (uuid.UUID, <-chan struct{}) {
	id := uuid.New()
	o := &observer{affects: affects, signal: make(chan struct{}, 1)}
	r.mu.Lock()
	r.observers[id] = o
	r.mu.Unlock()
	return id, o.signal
}

func (r *Registry) unregister(id uuid.UUID) {
	r.mu.Lock()
	delete(r.observers, id)
	r.mu.Unlock()
}

// Publish notifies every observer whose predicate the change may affect,
// then hands the change to the listeners.
func (r *Registry) Publish(c Change) {
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.observers {
		if !o.affects(c) {
			continue
		}
		select {
		case o.signal <- struct{}{}:
		default:
		}
	}

	for id, ch := range r.listeners {
		select {
		case ch <- c:
		default:
			log.Printf("[manga] change listener %s is full, dropping %s event", id, c.Op)
		}
	}
}

// Listen returns a feed of every committed change. The feed is closed when
// ctx is done. A listener that falls more than buf changes behind loses the
// overflow.
func (r *Registry) Listen(ctx context.Context, buf int) <-chan Change {
	if buf <= 0 {
		buf = 64
	}
	id := uuid.New()
	ch := make(chan Change, buf)

	r.mu.Lock()
	r.listeners[id] = ch
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
		close(ch)
	}()
	return ch
}

// Count returns the number of live observers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.observers)
}

// Update is one emission of a subscription. Manga is nil when no row
// matches. A non-nil Err is terminal: it is the last value on the channel.
type Update struct {
	Manga *models.Manga
	Err   error
}

// Subscription is a live view of a single-row query.
type Subscription struct {
	ID      uuid.UUID
	updates chan Update
	cancel  context.CancelFunc
	done    chan struct{}
}

// Updates returns the delivery channel. It is closed after a terminal
// error or after Close.
func (s *Subscription) Updates() <-chan Update { return s.updates }

// Close stops the subscription and waits for its goroutine to exit.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

type fetchFunc func(ctx context.Context) (*models.Manga, error)

func (r *Registry) subscribe(ctx context.Context, p predicate, fetch fetchFunc) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	id, signal := r.register(p.affects)

	s := &Subscription{
		ID:      id,
		updates: make(chan Update),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		defer close(s.updates)
		defer r.unregister(id)
		run(ctx, signal, fetch, s.updates)
	}()
	return s
}

// run is the delivery edge of a subscription. It keeps at most one
// undelivered value; a newer query result replaces it. A result equal to
// the last delivered value is never delivered twice in a row.
func run(ctx context.Context, signal <-chan struct{}, fetch fetchFunc, out chan<- Update) {
	var (
		last       *models.Manga
		delivered  bool
		pending    Update
		hasPending bool
		terminal   bool
	)

	offer := func(m *models.Manga) {
		if delivered && sameManga(last, m) {
			// the consumer already holds this value
			hasPending = false
			return
		}
		pending = Update{Manga: m}
		hasPending = true
	}

	query := func() {
		m, err := fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			pending = Update{Err: err}
			hasPending = true
			terminal = true
			return
		}
		offer(m)
	}

	query()
	for {
		var send chan<- Update
		if hasPending {
			send = out
		}

		if terminal {
			select {
			case send <- pending:
			case <-ctx.Done():
			}
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-signal:
			query()
		case send <- pending:
			last = pending.Manga
			delivered = true
			hasPending = false
		}
	}
}

func sameManga(a, b *models.Manga) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
