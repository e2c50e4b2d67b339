// Package server provides HTTP and WebSocket handlers
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/corona10/goimagehash"
	"github.com/nfnt/resize"

	"github.com/shinyhunt/encounterd/internal/engine"
	"github.com/shinyhunt/encounterd/internal/trace"
)

// Tracker is the engine surface the server needs: snapshots and
// external mode transitions.
type Tracker interface {
	Snapshot() *engine.State
	Mode() engine.Mode
	SetMode(engine.Mode)
}

// Previewer exposes the most recently normalized frame.
type Previewer interface {
	Preview() *image.RGBA
}

// Message types.
type Message struct {
	Type string `json:"type"`
}

type ModeMessage struct {
	Type string `json:"type"`
	Mode string `json:"mode"`
}

type StateMessage struct {
	Type  string        `json:"type"`
	State *engine.State `json:"state"`
	Label string        `json:"label"`
}

type EncounterMessage struct {
	Type      string    `json:"type"`
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Mons      []string  `json:"mons"`
	Total     uint64    `json:"total"`
}

type AlertMessage struct {
	Type      string    `json:"type"`
	Species   string    `json:"species"`
	Timestamp time.Time `json:"timestamp"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-RateLimitWindow)

	// Prune old timestamps
	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}

	r.timestamps = append(r.timestamps, now)
	return true
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	tracker      Tracker
	previewer    Previewer
	history      *engine.History
	alerter      *engine.Alerter
	previewWidth int

	mu         sync.RWMutex
	conns      map[*websocket.Conn]struct{}
	rateLimits map[*websocket.Conn]*rateLimiter
}

// New creates a new server. Start must be called to run the
// broadcasters.
func New(tracker Tracker, previewer Previewer, history *engine.History, alerter *engine.Alerter, previewWidth int) *Server {
	return &Server{
		tracker:      tracker,
		previewer:    previewer,
		history:      history,
		alerter:      alerter,
		previewWidth: previewWidth,
		conns:        make(map[*websocket.Conn]struct{}),
		rateLimits:   make(map[*websocket.Conn]*rateLimiter),
	}
}

// Start launches the event and preview broadcasters. They run until the
// context is cancelled.
func (s *Server) Start(ctx context.Context) {
	go s.broadcastEncounters(ctx)
	go s.broadcastAlerts(ctx)
	go s.broadcastPreviews(ctx)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", s.handleWebSocket)

	// REST API
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/mode", s.handleMode)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/frame", s.handleFrame)

	// Apply middleware: trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.rateLimits[conn] = &rateLimiter{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		delete(s.rateLimits, conn)
		s.mu.Unlock()
	}()

	// Get trace context from HTTP upgrade request
	baseCtx := r.Context()
	log := trace.Logger(baseCtx)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	// Push current state so the client can render immediately
	_ = wsjson.Write(baseCtx, conn, s.stateMessage())

	for {
		var msg json.RawMessage
		if err := wsjson.Read(baseCtx, conn, &msg); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		// Check rate limit
		s.mu.RLock()
		rl := s.rateLimits[conn]
		s.mu.RUnlock()

		if !rl.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			_ = wsjson.Write(baseCtx, conn, ErrorMessage{
				Type:    "error",
				Message: "rate limit exceeded",
			})
			continue
		}

		var base Message
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}

		switch base.Type {
		case "mode":
			var mm ModeMessage
			if err := json.Unmarshal(msg, &mm); err != nil {
				continue
			}
			mode, err := engine.ParseMode(mm.Mode)
			if err != nil {
				_ = wsjson.Write(baseCtx, conn, ErrorMessage{Type: "error", Message: err.Error()})
				continue
			}
			s.tracker.SetMode(mode)
			log.Info("mode changed", "mode", mode)
			s.broadcastJSON(s.stateMessage())
		case "state":
			_ = wsjson.Write(baseCtx, conn, s.stateMessage())
		}
	}
}

func (s *Server) stateMessage() StateMessage {
	st := s.tracker.Snapshot()
	return StateMessage{Type: "state", State: st, Label: st.Mode.Label()}
}

// broadcastEncounters fans encounter events out to every connection.
func (s *Server) broadcastEncounters(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-s.history.Events():
			s.broadcastJSON(EncounterMessage{
				Type:      "encounter",
				Seq:       evt.Seq,
				Timestamp: evt.Timestamp,
				Mons:      evt.Mons,
				Total:     evt.Total,
			})
		}
	}
}

// broadcastAlerts fans target-species alerts out to every connection.
func (s *Server) broadcastAlerts(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case a := <-s.alerter.Alerts():
			s.broadcastJSON(AlertMessage{
				Type:      "alert",
				Species:   a.Species,
				Timestamp: a.Timestamp,
			})
		}
	}
}

// broadcastPreviews pushes downscaled preview frames to connected
// clients. A perceptual hash gates the push so visually identical
// frames are not re-sent; the detection loop itself never skips frames.
func (s *Server) broadcastPreviews(ctx context.Context) {
	ticker := time.NewTicker(PreviewPushInterval)
	defer ticker.Stop()

	var lastHash *goimagehash.ImageHash
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !s.hasConns() {
			continue
		}
		img := s.previewer.Preview()
		if img == nil {
			continue
		}

		hash, err := goimagehash.PerceptionHash(img)
		if err == nil && lastHash != nil {
			if d, err := hash.Distance(lastHash); err == nil && d == 0 {
				continue
			}
		}
		if err == nil {
			lastHash = hash
		}

		data, err := encodePreview(img, s.previewWidth)
		if err != nil {
			slog.Error("preview encode error", "error", err)
			continue
		}
		s.broadcastBinary(ctx, data)
	}
}

func encodePreview(img *image.RGBA, width int) ([]byte, error) {
	var out image.Image = img
	if width > 0 && img.Bounds().Dx() > width {
		out = resize.Resize(uint(width), 0, img, resize.Lanczos3)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) hasConns() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns) > 0
}

func (s *Server) broadcastJSON(msg interface{}) {
	s.mu.RLock()
	for conn := range s.conns {
		go func(c *websocket.Conn) {
			_ = wsjson.Write(context.Background(), c, msg)
		}(conn)
	}
	s.mu.RUnlock()
}

func (s *Server) broadcastBinary(ctx context.Context, data []byte) {
	s.mu.RLock()
	for conn := range s.conns {
		go func(c *websocket.Conn) {
			_ = c.Write(ctx, websocket.MessageBinary, data)
		}(conn)
	}
	s.mu.RUnlock()
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"state": st,
		"label": st.Mode.Label(),
	})
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	mode, err := engine.ParseMode(req.Mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.tracker.SetMode(mode)
	trace.Logger(r.Context()).Info("mode changed", "mode", mode)
	s.broadcastJSON(s.stateMessage())

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"mode":  mode.String(),
		"label": mode.Label(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	events := s.history.Recent()
	if len(events) > HistoryLimit {
		events = events[len(events)-HistoryLimit:]
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"events": events,
	})
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	img := s.previewer.Preview()
	if img == nil {
		http.Error(w, "no frame captured yet", http.StatusNotFound)
		return
	}
	data, err := encodePreview(img, s.previewWidth)
	if err != nil {
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}
