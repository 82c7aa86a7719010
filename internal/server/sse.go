package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// sseHistory is how many recent events are kept for Last-Event-ID replay.
	sseHistory = 1000

	// sseKeepalive is the interval between comment lines on an idle stream.
	sseKeepalive = 15 * time.Second

	// sseClientBuffer is the per-client queue; a full queue drops events.
	sseClientBuffer = 64
)

// sseEvent is one fanned-out event.
type sseEvent struct {
	ID    uint64
	Topic string
	Data  []byte // JSON payload, as recorded
}

// sseHub fans events out to connected SSE clients and remembers the last
// sseHistory of them for reconnecting clients.
type sseHub struct {
	mu      sync.RWMutex
	clients map[*sseClient]struct{}
	lastID  uint64
	history []sseEvent // ring, oldest at head once full
	head    int
}

// sseClient is a single connected consumer.
type sseClient struct {
	topics []string // topic patterns, empty = all
	ch     chan *sseEvent
}

func newSSEHub() *sseHub {
	return &sseHub{
		clients: make(map[*sseClient]struct{}),
		history: make([]sseEvent, 0, sseHistory),
	}
}

// broadcast assigns the next id to payload, stores it and delivers it to
// every matching client without blocking.
func (h *sseHub) broadcast(topic string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastID++
	evt := sseEvent{ID: h.lastID, Topic: topic, Data: payload}
	if len(h.history) < sseHistory {
		h.history = append(h.history, evt)
	} else {
		h.history[h.head] = evt
		h.head = (h.head + 1) % sseHistory
	}

	for c := range h.clients {
		if !c.matchesTopic(topic) {
			continue
		}
		select {
		case c.ch <- &evt:
		default:
		}
	}
}

func (h *sseHub) subscribe(topics []string) *sseClient {
	c := &sseClient{topics: topics, ch: make(chan *sseEvent, sseClientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	sseClients.Inc()
	return c
}

func (h *sseHub) unsubscribe(c *sseClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	sseClients.Dec()
}

// subscribeSince registers a client and returns the stored events newer
// than lastID that match its topics. Both happen under one lock, so each
// event reaches the client exactly once: from the backlog if it was
// broadcast before the call, from client.ch otherwise.
func (h *sseHub) subscribeSince(topics []string, lastID uint64) (*sseClient, []sseEvent) {
	c := &sseClient{topics: topics, ch: make(chan *sseEvent, sseClientBuffer)}
	h.mu.Lock()
	var backlog []sseEvent
	for _, evt := range h.since(lastID) {
		if c.matchesTopic(evt.Topic) {
			backlog = append(backlog, evt)
		}
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	sseClients.Inc()
	return c, backlog
}

// since returns stored events newer than lastID, oldest first. The caller
// holds h.mu.
func (h *sseHub) since(lastID uint64) []sseEvent {
	var out []sseEvent
	n := len(h.history)
	for i := range n {
		evt := h.history[(h.head+i)%n]
		if evt.ID > lastID {
			out = append(out, evt)
		}
	}
	return out
}

func (c *sseClient) matchesTopic(topic string) bool {
	if len(c.topics) == 0 {
		return true
	}
	for _, pattern := range c.topics {
		if matchTopicPattern(pattern, topic) {
			return true
		}
	}
	return false
}

// matchTopicPattern matches a dot-separated topic NATS-style: "*" is one
// segment, a trailing ">" is one or more.
func matchTopicPattern(pattern, topic string) bool {
	if pattern == topic {
		return true
	}

	patParts := strings.Split(pattern, ".")
	topParts := strings.Split(topic, ".")

	for i, pp := range patParts {
		if pp == ">" {
			return i < len(topParts)
		}
		if i >= len(topParts) {
			return false
		}
		if pp != "*" && pp != topParts[i] {
			return false
		}
	}

	return len(patParts) == len(topParts)
}

// parseTopics splits the comma-separated ?topics= value.
func parseTopics(q string) []string {
	var topics []string
	for _, t := range strings.Split(q, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

// handleEventStream handles GET /v1/events/stream.
func (s *TasksServer) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	topics := parseTopics(r.URL.Query().Get("topics"))
	var (
		client  *sseClient
		backlog []sseEvent
	)
	if lastID, err := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64); err == nil {
		client, backlog = s.sseHub.subscribeSince(topics, lastID)
	} else {
		client = s.sseHub.subscribe(topics)
	}
	defer s.sseHub.unsubscribe(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if len(backlog) > 0 {
		for i := range backlog {
			writeSSEEvent(w, &backlog[i])
		}
		flusher.Flush()
	}

	keepalive := time.NewTicker(sseKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-client.ch:
			writeSSEEvent(w, evt)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, evt *sseEvent) {
	fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", evt.ID, evt.Topic, evt.Data)
}
