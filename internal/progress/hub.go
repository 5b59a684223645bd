package progress

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	subscriberBuffer = 32
	writeWait        = 10 * time.Second

	// DefaultRetention is how long a finished run's last event stays
	// available to late subscribers.
	DefaultRetention = time.Minute
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// Hub fans run progress out to websocket subscribers. Publishing never
// blocks: a subscriber that falls behind loses events.
type Hub struct {
	// Retention is how long the terminal event of a run is replayed to late
	// subscribers before it is dropped.
	Retention time.Duration

	mu     sync.RWMutex
	subs   map[string]map[chan Event]struct{}
	last   map[string]Event
	logger zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		Retention: DefaultRetention,
		subs:      make(map[string]map[chan Event]struct{}),
		last:      make(map[string]Event),
		logger:    logger,
	}
}

// Subscribe registers for events of runID. The latest event already seen for
// the run, if any, is delivered first. Call the returned func to unsubscribe.
func (h *Hub) Subscribe(runID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.subs[runID] == nil {
		h.subs[runID] = make(map[chan Event]struct{})
	}
	h.subs[runID][ch] = struct{}{}
	if e, ok := h.last[runID]; ok {
		ch <- e
	}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[runID], ch)
			if len(h.subs[runID]) == 0 {
				delete(h.subs, runID)
			}
			h.mu.Unlock()
		})
	}
}

// Publish delivers e to every subscriber of e.RunID. A terminal event is
// retained for Retention, then forgotten.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last[e.RunID] = e
	if e.Stage.Terminal() {
		time.AfterFunc(h.Retention, func() { h.expire(e) })
	}
	for ch := range h.subs[e.RunID] {
		select {
		case ch <- e:
		default:
			h.logger.Debug().Str("run_id", e.RunID).Msg("Dropped progress event for slow subscriber")
		}
	}
}

// expire forgets e's run unless a newer event replaced e since.
func (h *Hub) expire(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.last[e.RunID]; ok && cur == e {
		delete(h.last, e.RunID)
	}
}

// Subscribers returns the number of live subscribers for runID.
func (h *Hub) Subscribers(runID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[runID])
}

// Reporter publishes every event it receives to the hub.
func (h *Hub) Reporter() Reporter {
	return h.Publish
}

// HandleWS streams the events of ?run=<id> as JSON text frames and closes
// the socket after a terminal stage.
func (h *Hub) HandleWS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := r.URL.Query().Get("run")
		if runID == "" {
			http.Error(w, "missing run parameter", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to upgrade progress connection")
			return
		}
		defer conn.Close()

		events, unsubscribe := h.Subscribe(runID)
		defer unsubscribe()

		// Drain client frames so a close from the peer is noticed.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		log := h.logger.With().Str("run_id", runID).Logger()
		log.Debug().Msg("Progress subscriber connected")

		for {
			select {
			case <-gone:
				log.Debug().Msg("Progress subscriber disconnected")
				return
			case e := <-events:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(e); err != nil {
					log.Debug().Err(err).Msg("Failed to write progress event")
					return
				}
				if e.Stage.Terminal() {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(e.Stage)),
						time.Now().Add(writeWait))
					return
				}
			}
		}
	}
}
